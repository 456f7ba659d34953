// Package hypertune models the hyperparameter tuning document handed to the
// managed training service and checks it before a pipeline is compiled.
package hypertune

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidSettings is wrapped by every validation failure.
var ErrInvalidSettings = errors.New("invalid hypertune settings")

// ValidationError lists every problem found in a settings document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidSettings.Error(), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSettings }

// Parameter types.
const (
	TypeDouble      = "DOUBLE"
	TypeInteger     = "INTEGER"
	TypeCategorical = "CATEGORICAL"
	TypeDiscrete    = "DISCRETE"
)

// ParameterSpec is one tuned parameter.
type ParameterSpec struct {
	ParameterName     string    `json:"parameterName"`
	Type              string    `json:"type"`
	MinValue          *float64  `json:"minValue,omitempty"`
	MaxValue          *float64  `json:"maxValue,omitempty"`
	DiscreteValues    []float64 `json:"discreteValues,omitempty"`
	CategoricalValues []string  `json:"categoricalValues,omitempty"`
	ScaleType         string    `json:"scaleType,omitempty"`
}

// Hyperparameters is the tuning spec proper.
type Hyperparameters struct {
	Goal                     string          `json:"goal"`
	MaxTrials                int             `json:"maxTrials"`
	MaxParallelTrials        int             `json:"maxParallelTrials,omitempty"`
	MaxFailedTrials          int             `json:"maxFailedTrials,omitempty"`
	HyperparameterMetricTag  string          `json:"hyperparameterMetricTag"`
	EnableTrialEarlyStopping bool            `json:"enableTrialEarlyStopping"`
	Algorithm                string          `json:"algorithm,omitempty"`
	Params                   []ParameterSpec `json:"params"`
}

// Settings mirrors the training_input document.
type Settings struct {
	Hyperparameters Hyperparameters `json:"hyperparameters"`
}

func float(v float64) *float64 { return &v }

// Default tunes max_iter and alpha for accuracy over six trials.
func Default() Settings {
	return Settings{Hyperparameters: Hyperparameters{
		Goal:                     "MAXIMIZE",
		MaxTrials:                6,
		MaxParallelTrials:        3,
		HyperparameterMetricTag:  "accuracy",
		EnableTrialEarlyStopping: true,
		Params: []ParameterSpec{
			{ParameterName: "max_iter", Type: TypeDiscrete, DiscreteValues: []float64{500, 1000}},
			{ParameterName: "alpha", Type: TypeDouble, MinValue: float(0.0001), MaxValue: float(0.001), ScaleType: "UNIT_LINEAR_SCALE"},
		},
	}}
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(settingsSchema))
	})
	return schema, schemaErr
}

// Parse decodes and validates a settings document.
func Parse(data []byte) (Settings, error) {
	if err := validateDocument(gojsonschema.NewBytesLoader(data)); err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.check(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings against the document schema and the
// per-type constraints the schema cannot express.
func (s Settings) Validate() error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode hypertune settings: %w", err)
	}
	if err := validateDocument(gojsonschema.NewBytesLoader(data)); err != nil {
		return err
	}
	return s.check()
}

func validateDocument(doc gojsonschema.JSONLoader) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile hypertune schema: %w", err)
	}
	result, err := sch.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Problems = append(verr.Problems, desc.String())
	}
	return verr
}

func (s Settings) check() error {
	h := s.Hyperparameters
	var problems []string
	if h.MaxParallelTrials > h.MaxTrials {
		problems = append(problems, fmt.Sprintf("maxParallelTrials %d exceeds maxTrials %d", h.MaxParallelTrials, h.MaxTrials))
	}

	seen := make(map[string]bool, len(h.Params))
	for _, p := range h.Params {
		if seen[p.ParameterName] {
			problems = append(problems, fmt.Sprintf("parameter %q declared twice", p.ParameterName))
		}
		seen[p.ParameterName] = true

		switch p.Type {
		case TypeDouble, TypeInteger:
			switch {
			case p.MinValue == nil || p.MaxValue == nil:
				problems = append(problems, fmt.Sprintf("parameter %q: %s needs minValue and maxValue", p.ParameterName, p.Type))
			case *p.MinValue > *p.MaxValue:
				problems = append(problems, fmt.Sprintf("parameter %q: minValue %v above maxValue %v", p.ParameterName, *p.MinValue, *p.MaxValue))
			}
		case TypeDiscrete:
			if len(p.DiscreteValues) == 0 {
				problems = append(problems, fmt.Sprintf("parameter %q: DISCRETE needs discreteValues", p.ParameterName))
			}
		case TypeCategorical:
			if len(p.CategoricalValues) == 0 {
				problems = append(problems, fmt.Sprintf("parameter %q: CATEGORICAL needs categoricalValues", p.ParameterName))
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ParamNames lists the tuned parameter names in declaration order.
func (s Settings) ParamNames() []string {
	names := make([]string, len(s.Hyperparameters.Params))
	for i, p := range s.Hyperparameters.Params {
		names[i] = p.ParameterName
	}
	return names
}

// Require checks that every name is tuned.
func (s Settings) Require(names ...string) error {
	have := make(map[string]bool)
	for _, n := range s.ParamNames() {
		have[n] = true
	}
	var missing []string
	for _, n := range names {
		if !have[n] {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Problems: []string{fmt.Sprintf("missing tuned parameters: %s", strings.Join(missing, ", "))}}
	}
	return nil
}

// MarshalValue returns the settings as a generic JSON document, suitable as a
// pipeline parameter default.
func (s Settings) MarshalValue() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
