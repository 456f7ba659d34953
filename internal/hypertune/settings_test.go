package hypertune

import (
	"errors"
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	if got := strings.Join(s.ParamNames(), ","); got != "max_iter,alpha" {
		t.Errorf("param names = %s", got)
	}
	if err := s.Require("alpha", "max_iter"); err != nil {
		t.Errorf("require: %v", err)
	}
}

func TestParse(t *testing.T) {
	doc := `{
	  "hyperparameters": {
	    "goal": "MINIMIZE",
	    "maxTrials": 4,
	    "maxParallelTrials": 2,
	    "hyperparameterMetricTag": "loss",
	    "params": [
	      {"parameterName": "alpha", "type": "DOUBLE", "minValue": 0.01, "maxValue": 0.1, "scaleType": "UNIT_LOG_SCALE"},
	      {"parameterName": "optimizer", "type": "CATEGORICAL", "categoricalValues": ["adam", "sgd"]}
	    ]
	  }
	}`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Hyperparameters.Goal != "MINIMIZE" || len(s.Hyperparameters.Params) != 2 {
		t.Errorf("unexpected settings: %+v", s)
	}
	if *s.Hyperparameters.Params[0].MaxValue != 0.1 {
		t.Errorf("max value = %v", *s.Hyperparameters.Params[0].MaxValue)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		problem string
	}{
		{"not json", `{`, ""},
		{"missing hyperparameters", `{}`, "hyperparameters"},
		{"bad goal", `{"hyperparameters": {"goal": "BEST", "maxTrials": 1, "hyperparameterMetricTag": "a", "params": [{"parameterName": "a", "type": "DISCRETE", "discreteValues": [1]}]}}`, "goal"},
		{"no params", `{"hyperparameters": {"goal": "MAXIMIZE", "maxTrials": 1, "hyperparameterMetricTag": "a", "params": []}}`, "params"},
		{"unknown param field", `{"hyperparameters": {"goal": "MAXIMIZE", "maxTrials": 1, "hyperparameterMetricTag": "a", "params": [{"parameterName": "a", "type": "DISCRETE", "discreteValues": [1], "step": 2}]}}`, "step"},
		{"range without bounds", `{"hyperparameters": {"goal": "MAXIMIZE", "maxTrials": 1, "hyperparameterMetricTag": "a", "params": [{"parameterName": "a", "type": "DOUBLE"}]}}`, "minValue"},
		{"inverted range", `{"hyperparameters": {"goal": "MAXIMIZE", "maxTrials": 1, "hyperparameterMetricTag": "a", "params": [{"parameterName": "a", "type": "INTEGER", "minValue": 5, "maxValue": 1}]}}`, "above maxValue"},
		{"too many parallel", `{"hyperparameters": {"goal": "MAXIMIZE", "maxTrials": 2, "maxParallelTrials": 3, "hyperparameterMetricTag": "a", "params": [{"parameterName": "a", "type": "DISCRETE", "discreteValues": [1]}]}}`, "maxParallelTrials"},
		{"duplicate param", `{"hyperparameters": {"goal": "MAXIMIZE", "maxTrials": 2, "hyperparameterMetricTag": "a", "params": [{"parameterName": "a", "type": "DISCRETE", "discreteValues": [1]}, {"parameterName": "a", "type": "DISCRETE", "discreteValues": [2]}]}}`, "declared twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("expected ErrInvalidSettings, got %v", err)
			}
			if tt.problem != "" && !strings.Contains(err.Error(), tt.problem) {
				t.Errorf("error %q does not mention %q", err, tt.problem)
			}
		})
	}
}

func TestRequire_Missing(t *testing.T) {
	s := Default()
	s.Hyperparameters.Params = s.Hyperparameters.Params[:1]
	err := s.Require("alpha", "max_iter")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "alpha") {
		t.Errorf("error %q should name alpha", err)
	}
}

func TestMarshalValue(t *testing.T) {
	v, err := Default().MarshalValue()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	hp, ok := v["hyperparameters"].(map[string]any)
	if !ok {
		t.Fatalf("hyperparameters missing: %v", v)
	}
	if hp["maxTrials"] != float64(6) {
		t.Errorf("maxTrials = %v", hp["maxTrials"])
	}
}
