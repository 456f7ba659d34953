package sampling

import "fmt"

// Split names used by the default plan.
const (
	Training   = "training"
	Validation = "validation"
	Testing    = "testing"
)

// Split assigns a set of lots to a named dataset slice.
type Split struct {
	Name string `json:"name" mapstructure:"name"`
	Lots []int  `json:"lots" mapstructure:"lots"`
}

// Plan partitions a table into named splits over NumLots buckets.
type Plan struct {
	NumLots int     `json:"num_lots" mapstructure:"num_lots"`
	Splits  []Split `json:"splits" mapstructure:"splits"`
}

// SplitQuery is the rendered sampling query of one split.
type SplitQuery struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// DefaultPlan is 40% training, 10% validation and 10% testing over 10 lots.
// Lots 0, 5, 6 and 7 are left unused.
func DefaultPlan() Plan {
	return Plan{
		NumLots: 10,
		Splits: []Split{
			{Name: Training, Lots: []int{1, 2, 3, 4}},
			{Name: Validation, Lots: []int{8}},
			{Name: Testing, Lots: []int{9}},
		},
	}
}

// Validate checks every split is well formed and that no lot is shared
// between splits.
func (p Plan) Validate() error {
	if p.NumLots <= 0 {
		return &SplitError{Field: "num_lots", Msg: fmt.Sprintf("must be positive, got %d", p.NumLots)}
	}
	if len(p.Splits) == 0 {
		return &SplitError{Field: "splits", Msg: "plan has no splits"}
	}

	owner := make(map[int]string)
	names := make(map[string]bool, len(p.Splits))
	for _, s := range p.Splits {
		if s.Name == "" {
			return &SplitError{Field: "name", Msg: "split name must not be empty"}
		}
		if names[s.Name] {
			return &SplitError{Split: s.Name, Field: "name", Msg: "duplicate split"}
		}
		names[s.Name] = true

		if err := validateLots(s.Name, p.NumLots, s.Lots); err != nil {
			return err
		}
		for _, l := range s.Lots {
			if prev, taken := owner[l]; taken {
				return &SplitError{Split: s.Name, Field: "lots", Msg: fmt.Sprintf("lot %d already assigned to split %q", l, prev)}
			}
			owner[l] = s.Name
		}
	}
	return nil
}

// Split looks up a split by name.
func (p Plan) Split(name string) (Split, bool) {
	for _, s := range p.Splits {
		if s.Name == name {
			return s, true
		}
	}
	return Split{}, false
}

// Queries renders one sampling query per split, in plan order.
func (p Plan) Queries(sourceTable string) ([]SplitQuery, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([]SplitQuery, 0, len(p.Splits))
	for _, s := range p.Splits {
		q, err := Query(sourceTable, p.NumLots, s.Lots)
		if err != nil {
			return nil, fmt.Errorf("split %q: %w", s.Name, err)
		}
		out = append(out, SplitQuery{Name: s.Name, Query: q})
	}
	return out, nil
}

// Coverage is the expected fraction of rows selected by any split.
func (p Plan) Coverage() float64 {
	if p.NumLots <= 0 {
		return 0
	}
	used := make(map[int]bool)
	for _, s := range p.Splits {
		for _, l := range s.Lots {
			if l >= 0 && l < p.NumLots {
				used[l] = true
			}
		}
	}
	return float64(len(used)) / float64(p.NumLots)
}

// Unused returns the lots no split selects, ascending.
func (p Plan) Unused() []int {
	used := make(map[int]bool)
	for _, s := range p.Splits {
		for _, l := range s.Lots {
			used[l] = true
		}
	}
	var out []int
	for l := 0; l < p.NumLots; l++ {
		if !used[l] {
			out = append(out, l)
		}
	}
	return out
}

// HashBuckets is an output split expressed as a relative bucket count, as
// in an example generator's split config.
type HashBuckets struct {
	Name    string `json:"name"`
	Buckets int    `json:"hash_buckets"`
}

// FromHashBuckets lays the given splits over consecutive lots. Train 4 and
// eval 1 becomes lots [0 1 2 3] and [4] out of 5.
func FromHashBuckets(splits []HashBuckets) (Plan, error) {
	var p Plan
	for _, hb := range splits {
		if hb.Buckets <= 0 {
			return Plan{}, &SplitError{Split: hb.Name, Field: "hash_buckets", Msg: fmt.Sprintf("must be positive, got %d", hb.Buckets)}
		}
		s := Split{Name: hb.Name}
		for i := 0; i < hb.Buckets; i++ {
			s.Lots = append(s.Lots, p.NumLots+i)
		}
		p.NumLots += hb.Buckets
		p.Splits = append(p.Splits, s)
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}
