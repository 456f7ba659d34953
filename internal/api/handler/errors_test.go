package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"ml-pipelines/internal/components"
	"ml-pipelines/internal/config"
	"ml-pipelines/internal/graph"
	"ml-pipelines/internal/hypertune"
	"ml-pipelines/internal/pipelines"
	"ml-pipelines/internal/publish"
	"ml-pipelines/internal/sampling"
	"ml-pipelines/internal/service"
	"ml-pipelines/internal/store"
	"ml-pipelines/pkg/apperrors"
)

func TestClassify(t *testing.T) {
	missingImage := fmt.Errorf("step %q: %w", "train", components.ErrMissingImage)
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"binding", fmt.Errorf("wrap: %w", graph.ErrBinding), http.StatusBadRequest},
		{"structural", graph.ErrStructural, http.StatusBadRequest},
		{"split", &sampling.SplitError{Split: "training", Field: "lots", Msg: "empty"}, http.StatusBadRequest},
		{"params", pipelines.ErrInvalidParams, http.StatusBadRequest},
		{"hypertune", hypertune.ErrInvalidSettings, http.StatusBadRequest},
		{"config", &config.MissingError{Feature: "publishing", Vars: []string{"STORAGE_ENDPOINT"}}, http.StatusServiceUnavailable},
		{"missing image", missingImage, http.StatusServiceUnavailable},
		{"missing image joined with binding", errors.Join(missingImage, &graph.BindingError{Step: "train", Kind: graph.KindMissingInput}), http.StatusServiceUnavailable},
		{"preset", fmt.Errorf("%w: %q", service.ErrUnknownPreset, "mnist"), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: abc", store.ErrNotFound), http.StatusNotFound},
		{"publish disabled", publish.ErrDisabled, http.StatusServiceUnavailable},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
		{"already app", apperrors.NotFound("gone"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.Code != tt.code {
				t.Errorf("classify(%v).Code = %d, want %d", tt.err, got.Code, tt.code)
			}
		})
	}
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestClassify_CovertypeWithoutBaseImage(t *testing.T) {
	reg := components.NewRegistry(components.Options{
		URLSearchPrefix: "https://example.com/components/gcp/",
		GCPImage:        "gcr.io/ml-pipeline/ml-pipeline-gcp:0.2.5",
	})
	p := pipelines.CovertypeDefaults()
	p.SourceTable = "demo-project.covertype_dataset.covertype"
	p.TrainerImage = "gcr.io/demo/trainer:latest"

	_, err := pipelines.Covertype(reg, p)
	if !errors.Is(err, components.ErrMissingImage) {
		t.Fatalf("expected ErrMissingImage, got %v", err)
	}
	if errors.Is(err, graph.ErrBinding) {
		t.Errorf("load failure should not cascade into binding errors: %v", err)
	}
	if got := classify(err); got.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want %d", got.Code, http.StatusServiceUnavailable)
	}
}
