package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"ml-pipelines/internal/api/handler"
	"ml-pipelines/internal/compiler"
	"ml-pipelines/internal/components"
	"ml-pipelines/internal/hypertune"
	"ml-pipelines/internal/model"
	"ml-pipelines/internal/pipelines"
	"ml-pipelines/internal/service"
	"ml-pipelines/internal/store"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	if err := store.InitDB(filepath.Join(t.TempDir(), "api.db")); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := components.NewRegistry(components.Options{
		URLSearchPrefix: "https://example.com/components/gcp/",
		GCPImage:        "gcr.io/ml-pipeline/ml-pipeline-gcp:0.2.5",
		BaseImage:       "gcr.io/demo/base:latest",
		TFXImage:        "gcr.io/demo/tfx:latest",
	})
	svc := service.New(reg, service.Options{
		TrainerImage: "gcr.io/demo/trainer:latest",
		Environment: pipelines.Environment{
			ProjectID:        "demo-project",
			Region:           "us-central1",
			TFXImage:         "gcr.io/demo/tfx:latest",
			DataRootURI:      "gs://data",
			ArtifactStoreURI: "gs://artifacts",
		},
	}, nil)
	return NewRouter(handler.New(svc)).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const covertypeBody = `{
	"project_id": "demo-project",
	"region": "us-central1",
	"source_table_name": "demo-project.covertype_dataset.covertype",
	"gcs_root": "gs://demo/staging",
	"deploy": {"model_id": "covertype"}
}`

func TestCompileCovertype_Lifecycle(t *testing.T) {
	h := newServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/pipelines/covertype", covertypeBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var created model.CompileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Status != model.StatusCompiled || created.Steps != 8 {
		t.Errorf("created = %+v", created)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got model.Compilation
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.GraphHash != created.GraphHash || got.Pipeline != service.KindCovertype {
		t.Errorf("got = %+v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/"+created.ID+"/workflow", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/yaml" {
		t.Fatalf("workflow status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "apiVersion: argoproj.io/v1alpha1\n") {
		t.Errorf("workflow = %q", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/"+created.ID+"/workflow?format=json", "")
	var wf map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &wf); err != nil || wf["kind"] != "Workflow" {
		t.Errorf("json workflow = %v (%v)", wf, err)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines?pipeline=covertype", "")
	var list []model.CompilationSummary
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestCompileCovertype_InvalidRecordsFailure(t *testing.T) {
	h := newServer(t)
	rec := do(t, h, http.MethodPost, "/api/v1/pipelines/covertype", `{"project_id": "demo-project"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var e model.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &e)
	if e.ID == "" || !strings.Contains(e.Message, "source_table_name") {
		t.Fatalf("error = %+v", e)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/"+e.ID+"/errors", "")
	var body struct {
		Count  int                  `json:"count"`
		Errors []model.CompileError `json:"errors"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Count != 1 || len(body.Errors) != 1 {
		t.Errorf("errors = %+v", body)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/"+e.ID+"/workflow", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("workflow of failed compilation: status = %d", rec.Code)
	}
}

func TestCompileTFX(t *testing.T) {
	h := newServer(t)
	tests := []struct {
		name string
		body string
		code int
	}{
		{"covertype", `{"preset": "covertype"}`, http.StatusCreated},
		{"cifar10", `{"preset": "cifar10", "pipeline_name": "cifar"}`, http.StatusCreated},
		{"unknown", `{"preset": "mnist"}`, http.StatusBadRequest},
		{"invalid name", `{"preset": "cifar10", "pipeline_name": "CIFAR_10"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/pipelines/tfx", tt.body)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
			}
		})
	}
}

func TestCompile_PublishNotConfigured(t *testing.T) {
	h := newServer(t)
	body := strings.Replace(covertypeBody, `"project_id"`, `"publish": true, "project_id"`, 1)
	rec := do(t, h, http.MethodPost, "/api/v1/pipelines/covertype", body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetPipeline_NotFound(t *testing.T) {
	h := newServer(t)
	if rec := do(t, h, http.MethodGet, "/api/v1/pipelines/does-not-exist", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSamplingQuery(t *testing.T) {
	h := newServer(t)
	tests := []struct {
		name    string
		body    string
		code    int
		queries int
	}{
		{"default plan", `{"table": "p.d.t"}`, http.StatusOK, 3},
		{"single", `{"table": "p.d.t", "num_lots": 10, "lots": [1, 2, 3, 4]}`, http.StatusOK, 1},
		{"plan", `{"table": "p.d.t", "plan": {"num_lots": 4, "splits": [{"name": "a", "lots": [0]}, {"name": "b", "lots": [1, 2]}]}}`, http.StatusOK, 2},
		{"overlap", `{"table": "p.d.t", "plan": {"num_lots": 4, "splits": [{"name": "a", "lots": [0]}, {"name": "b", "lots": [0]}]}}`, http.StatusBadRequest, 0},
		{"bad table", "{\"table\": \"p.d`t\"}", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/sampling/query", tt.body)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var resp model.SamplingQueryResponse
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if len(resp.Queries) != tt.queries {
				t.Errorf("got %d queries, want %d", len(resp.Queries), tt.queries)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newServer(t)
	do(t, h, http.MethodPost, "/api/v1/sampling/query", `{"table": "p.d.t"}`)
	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mlpipelines_sampling_queries_total") {
		t.Error("sampling counter missing from /metrics")
	}
}

func TestSwaggerDoc(t *testing.T) {
	h := newServer(t)
	rec := do(t, h, http.MethodGet, "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/pipelines/covertype") {
		t.Error("swagger doc missing covertype route")
	}
}

// workflowArgs compiles body and returns the workflow argument defaults.
func workflowArgs(t *testing.T, h http.Handler, body string) map[string]string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/pipelines/covertype", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var created model.CompileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/"+created.ID+"/workflow?format=json", "")
	var wf compiler.Workflow
	if err := json.Unmarshal(rec.Body.Bytes(), &wf); err != nil {
		t.Fatalf("decode workflow: %v", err)
	}
	args := make(map[string]string)
	for _, p := range wf.Spec.Arguments.Parameters {
		if p.Value != nil {
			args[p.Name] = *p.Value
		}
	}
	return args
}

func TestCompileCovertype_HypertuneReplacesDefaults(t *testing.T) {
	h := newServer(t)
	body := `{
		"source_table_name": "demo-project.covertype_dataset.covertype",
		"hypertune_settings": {"hyperparameters": {
			"goal": "MAXIMIZE",
			"maxTrials": 4,
			"hyperparameterMetricTag": "accuracy",
			"params": [
				{"parameterName": "alpha", "type": "DOUBLE", "minValue": 0.01, "maxValue": 0.1},
				{"parameterName": "max_iter", "type": "DISCRETE", "discreteValues": [10, 20]}
			]
		}}
	}`
	args := workflowArgs(t, h, body)

	var got hypertune.Settings
	if err := json.Unmarshal([]byte(args["hypertune_settings"]), &got); err != nil {
		t.Fatalf("decode hypertune_settings %q: %v", args["hypertune_settings"], err)
	}
	hp := got.Hyperparameters
	if hp.MaxTrials != 4 || hp.MaxParallelTrials != 0 || hp.EnableTrialEarlyStopping {
		t.Errorf("defaults leaked into the document: %+v", hp)
	}
	if len(hp.Params) != 2 {
		t.Fatalf("params = %+v", hp.Params)
	}
	alpha, iter := hp.Params[0], hp.Params[1]
	if alpha.ParameterName != "alpha" || len(alpha.DiscreteValues) != 0 || alpha.ScaleType != "" || alpha.MinValue == nil || *alpha.MinValue != 0.01 {
		t.Errorf("alpha = %+v", alpha)
	}
	if iter.ParameterName != "max_iter" || iter.MinValue != nil || iter.MaxValue != nil || iter.ScaleType != "" {
		t.Errorf("max_iter = %+v", iter)
	}
}

func TestCompileCovertype_Defaults(t *testing.T) {
	h := newServer(t)
	tests := []struct {
		name      string
		body      string
		threshold string
	}{
		{"omitted threshold", `{"source_table_name": "p.d.t"}`, "0.69"},
		{"zero threshold", `{"source_table_name": "p.d.t", "evaluation_metric_threshold": 0}`, "0"},
		{"given threshold", `{"source_table_name": "p.d.t", "evaluation_metric_threshold": 0.8}`, "0.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := workflowArgs(t, h, tt.body)
			if args["evaluation_metric_threshold"] != tt.threshold {
				t.Errorf("threshold = %q, want %q", args["evaluation_metric_threshold"], tt.threshold)
			}
			if args["dataset_location"] != pipelines.DefaultDatasetLocation {
				t.Errorf("dataset_location = %q", args["dataset_location"])
			}
			if !strings.Contains(args["hypertune_settings"], `"maxParallelTrials":3`) {
				t.Errorf("default hypertune settings missing: %s", args["hypertune_settings"])
			}
		})
	}
}
