package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ml-pipelines/internal/model"
	"ml-pipelines/internal/service"
	"ml-pipelines/pkg/utils"
)

func newQueryCmd() *cobra.Command {
	var (
		req    model.SamplingQueryRequest
		lots   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the hash-partition queries for a table",
		Long: "Without --lots the default plan is used: training lots 1-4, " +
			"validation lot 8 and testing lot 9 out of 10.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Lots, err = utils.ParseLots(lots); err != nil {
				return err
			}
			if len(req.Lots) == 0 {
				req.NumLots = 0
			}
			resp, err := service.New(nil, service.Options{}, nil).Queries(req)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			for _, q := range resp.Queries {
				fmt.Fprintf(w, "-- %s\n%s\n", q.Name, q.Query)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Table, "table", "", "source table (project.dataset.table)")
	f.IntVar(&req.NumLots, "num-lots", 10, "number of hash lots")
	f.StringVar(&lots, "lots", "", "selected lots, e.g. 1,2,3,4")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	cmd.MarkFlagRequired("table")
	return cmd
}
