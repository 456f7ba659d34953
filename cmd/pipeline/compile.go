package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ml-pipelines/internal/compiler"
	"ml-pipelines/internal/components"
	"ml-pipelines/internal/hypertune"
	"ml-pipelines/internal/model"
	"ml-pipelines/internal/pipelines"
	"ml-pipelines/internal/publish"
	"ml-pipelines/internal/sampling"
	"ml-pipelines/internal/service"
	"ml-pipelines/pkg/utils"
)

type outputFlags struct {
	dir     string
	format  string
	publish bool
	labels  []string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dir, "output-dir", "o", "", "directory for the workflow file (default OUTPUT_DIR)")
	cmd.Flags().StringVar(&o.format, "format", "yaml", "workflow format: yaml or json")
	cmd.Flags().BoolVar(&o.publish, "publish", false, "upload the workflow to the STORAGE_* bucket")
	cmd.Flags().StringArrayVar(&o.labels, "label", nil, "workflow label key=value (repeatable)")
}

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a pipeline definition",
	}
	cmd.AddCommand(newCompileCovertypeCmd(), newCompileTFXCmd())
	return cmd
}

func newCompileCovertypeCmd() *cobra.Command {
	var (
		out           outputFlags
		p             = pipelines.CovertypeDefaults()
		hypertuneFile string
		deployModel   string
		deployVersion string
		training      string
		validation    string
		testing       string
	)
	cmd := &cobra.Command{
		Use:   "covertype",
		Short: "Compile the covertype split, tune, train and evaluate pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireKFP(); err != nil {
				return err
			}
			if p.ProjectID == "" {
				p.ProjectID = cfg.ProjectID
			}
			if p.Region == "" {
				p.Region = cfg.GCPRegion
			}
			if hypertuneFile != "" {
				data, err := os.ReadFile(hypertuneFile)
				if err != nil {
					return err
				}
				if p.Hypertune, err = hypertune.Parse(data); err != nil {
					return err
				}
			}
			if err := applySplitFlags(cmd, &p.Plan, training, validation, testing); err != nil {
				return err
			}
			if deployModel != "" {
				p.Deploy = &pipelines.DeploySettings{
					ModelID:        deployModel,
					VersionID:      deployVersion,
					RuntimeVersion: cfg.RuntimeVersion,
					PythonVersion:  cfg.PythonVersion,
				}
			}

			svc, err := newService(out)
			if err != nil {
				return err
			}
			res, err := svc.Covertype(p)
			if err != nil {
				return err
			}
			return emit(cmd, svc, res, out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.SourceTable, "source-table", "", "BigQuery source table (project.dataset.table)")
	f.StringVar(&p.ProjectID, "project-id", "", "GCP project id (default PROJECT_ID)")
	f.StringVar(&p.Region, "region", "", "GCP region (default GCP_REGION)")
	f.StringVar(&p.GCSRoot, "gcs-root", "", "GCS root for datasets and job dirs")
	f.StringVar(&p.DatasetID, "dataset-id", p.DatasetID, "BigQuery dataset for the split tables")
	f.StringVar(&p.DatasetLocation, "dataset-location", p.DatasetLocation, "BigQuery dataset location")
	f.StringVar(&p.MetricName, "metric-name", p.MetricName, "evaluation metric name")
	f.Float64Var(&p.Threshold, "threshold", p.Threshold, "deploy when the evaluation metric exceeds this value")
	f.StringVar(&p.TrainerImage, "trainer-image", "", "trainer image (default TRAINER_IMAGE)")
	f.StringVar(&hypertuneFile, "hypertune-file", "", "JSON hyperparameter tuning settings")
	f.IntVar(&p.Plan.NumLots, "num-lots", p.Plan.NumLots, "number of hash lots")
	f.StringVar(&training, "training-lots", "", "training split lots, e.g. 1,2,3,4")
	f.StringVar(&validation, "validation-lots", "", "validation split lots")
	f.StringVar(&testing, "testing-lots", "", "testing split lots")
	f.StringVar(&deployModel, "deploy-model", "", "deploy to this AI Platform model when the threshold is met")
	f.StringVar(&deployVersion, "deploy-version", "", "model version id")
	out.register(cmd)
	cmd.MarkFlagRequired("source-table")
	return cmd
}

func newCompileTFXCmd() *cobra.Command {
	var (
		out outputFlags
		req model.TFXRequest
	)
	cmd := &cobra.Command{
		Use:   "tfx",
		Short: "Compile a TFX pipeline preset (covertype or cifar10)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireTFX(); err != nil {
				return err
			}
			svc, err := newService(out)
			if err != nil {
				return err
			}
			res, err := svc.TFX(req)
			if err != nil {
				return err
			}
			return emit(cmd, svc, res, out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Preset, "preset", model.PresetCovertype, "preset: covertype or cifar10")
	f.StringVar(&req.PipelineName, "pipeline-name", "", "pipeline name (default PIPELINE_NAME or the preset's)")
	f.BoolVar(&req.DisableCache, "no-cache", false, "disable TFX component caching")
	out.register(cmd)
	return cmd
}

// applySplitFlags replaces the lots of the named splits given on the command
// line, keeping the others.
func applySplitFlags(cmd *cobra.Command, plan *sampling.Plan, flags ...string) error {
	names := []string{sampling.Training, sampling.Validation, sampling.Testing}
	for i, raw := range flags {
		if !cmd.Flags().Changed(names[i] + "-lots") {
			continue
		}
		lots, err := utils.ParseLots(raw)
		if err != nil {
			return fmt.Errorf("--%s-lots: %w", names[i], err)
		}
		for j := range plan.Splits {
			if plan.Splits[j].Name == names[i] {
				plan.Splits[j].Lots = lots
			}
		}
	}
	return nil
}

func newService(out outputFlags) (*service.Service, error) {
	labels, err := utils.ParseKeyValues(out.labels)
	if err != nil {
		return nil, err
	}
	var pub *publish.Publisher
	if out.publish {
		if err := cfg.RequireStorage(); err != nil {
			return nil, err
		}
		pub, err = publish.New(publish.Config{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UseSSL:          cfg.Storage.UseSSL,
			Bucket:          cfg.Storage.Bucket,
		})
		if err != nil {
			return nil, err
		}
	}
	return service.New(components.NewRegistry(cfg.ComponentOptions()), service.Options{
		TrainerImage:   cfg.TrainerImage,
		ServiceAccount: cfg.ServiceAccount,
		Environment:    cfg.Environment(),
		Labels:         labels,
	}, pub), nil
}

// emit writes the workflow file and publishes it when asked. The object key
// is the graph hash, so identical definitions share one object.
func emit(cmd *cobra.Command, svc *service.Service, res *service.Result, out outputFlags) error {
	data := res.YAML
	if out.format == "json" {
		var err error
		if data, err = compiler.MarshalJSON(res.Workflow); err != nil {
			return err
		}
	} else if out.format != "yaml" {
		return fmt.Errorf("unknown format %q, want yaml or json", out.format)
	}

	dir := out.dir
	if dir == "" {
		dir = cfg.OutputDir
	}
	path, err := utils.NewOutputManager(dir).WriteFile(utils.WorkflowFileName(res.Name, out.format), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d steps, hash %s)\n", path, len(res.Graph.Steps), res.Hash)

	if out.publish {
		uri, err := svc.Publish(context.Background(), res.Kind, res.Hash, res.YAML)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", uri)
	}
	return nil
}
