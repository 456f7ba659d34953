package sampling

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// The alias must match across the FROM clause and TO_JSON_STRING so the whole
// row, and only the row, is fingerprinted.
var queryTemplate = template.Must(template.New("sampling").Parse(`SELECT *
FROM
    ` + "`{{.SourceTable}}`" + ` AS src
WHERE
    MOD(ABS(FARM_FINGERPRINT(TO_JSON_STRING(src))), {{.NumLots}}) IN ({{.Lots}})
`))

type queryFiller struct {
	SourceTable string
	NumLots     int
	Lots        string
}

// Query renders a BigQuery statement selecting the rows of sourceTable whose
// content fingerprint modulo numLots is one of lots.
func Query(sourceTable string, numLots int, lots []int) (string, error) {
	if err := validateTable("", sourceTable); err != nil {
		return "", err
	}
	if err := validateLots("", numLots, lots); err != nil {
		return "", err
	}

	var sb strings.Builder
	err := queryTemplate.Execute(&sb, queryFiller{
		SourceTable: sourceTable,
		NumLots:     numLots,
		Lots:        joinLots(lots),
	})
	if err != nil {
		return "", fmt.Errorf("render sampling query: %w", err)
	}
	return sb.String(), nil
}

func joinLots(lots []int) string {
	parts := make([]string, len(lots))
	for i, l := range lots {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ", ")
}

func validateTable(split, sourceTable string) error {
	switch {
	case strings.TrimSpace(sourceTable) == "":
		return &SplitError{Split: split, Field: "source_table", Msg: "must not be empty"}
	case strings.ContainsAny(sourceTable, "`\n\r"):
		return &SplitError{Split: split, Field: "source_table", Msg: fmt.Sprintf("%q contains a backtick or newline", sourceTable)}
	}
	return nil
}

func validateLots(split string, numLots int, lots []int) error {
	if numLots <= 0 {
		return &SplitError{Split: split, Field: "num_lots", Msg: fmt.Sprintf("must be positive, got %d", numLots)}
	}
	if len(lots) == 0 {
		return &SplitError{Split: split, Field: "lots", Msg: "must not be empty"}
	}
	seen := make(map[int]bool, len(lots))
	for _, l := range lots {
		if l < 0 || l >= numLots {
			return &SplitError{Split: split, Field: "lots", Msg: fmt.Sprintf("lot %d outside [0, %d)", l, numLots)}
		}
		if seen[l] {
			return &SplitError{Split: split, Field: "lots", Msg: fmt.Sprintf("lot %d listed twice", l)}
		}
		seen[l] = true
	}
	return nil
}
