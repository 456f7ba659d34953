package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ml-pipelines/internal/config"
	"ml-pipelines/internal/pipelines"
)

func testConfig(t *testing.T) {
	t.Helper()
	cfg = config.Config{
		BaseImage:                "gcr.io/demo/base:latest",
		TrainerImage:             "gcr.io/demo/trainer:latest",
		ComponentURLSearchPrefix: "https://example.com/components/gcp/",
		GCPComponentImage:        "gcr.io/ml-pipeline/ml-pipeline-gcp:0.2.5",
		TFXImage:                 "gcr.io/demo/tfx:latest",
		ProjectID:                "demo-project",
		GCPRegion:                "us-central1",
		DataRootURI:              "gs://data",
		ArtifactStoreURI:         "gs://artifacts",
		ServiceAccount:           "pipeline-runner",
		OutputDir:                t.TempDir(),
	}
}

func TestQueryCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"default plan", []string{"--table", "p.d.t"}, []string{"-- training", "IN (1, 2, 3, 4)", "-- testing", "IN (9)"}},
		{"lots", []string{"--table", "p.d.t", "--num-lots", "5", "--lots", "0,1"}, []string{"-- query", "), 5) IN (0, 1)"}},
		{"json", []string{"--table", "p.d.t", "--lots", "3", "--json"}, []string{`"table": "p.d.t"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newQueryCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestQueryCmd_InvalidLots(t *testing.T) {
	cmd := newQueryCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--table", "p.d.t", "--num-lots", "3", "--lots", "3"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an out of range error")
	}
}

func TestCompileCovertypeCmd(t *testing.T) {
	testConfig(t)
	cmd := newCompileCovertypeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--source-table", "demo-project.covertype_dataset.covertype",
		"--gcs-root", "gs://demo/staging",
		"--testing-lots", "7",
		"--deploy-model", "covertype",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	path := filepath.Join(cfg.OutputDir, pipelines.CovertypeName+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("workflow not written: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "IN (7)") {
		t.Error("testing lots flag not applied")
	}
	if !strings.Contains(text, "name: deploy") {
		t.Error("deploy step missing")
	}
	if !strings.Contains(out.String(), "wrote "+path) {
		t.Errorf("output = %q", out.String())
	}
}

func TestCompileTFXCmd_JSON(t *testing.T) {
	testConfig(t)
	cmd := newCompileTFXCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--preset", "cifar10", "--format", "json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "tfx-cifar10.json"))
	if err != nil {
		t.Fatalf("workflow not written: %v", err)
	}
	if !strings.Contains(string(data), `"kind": "Workflow"`) {
		t.Errorf("json workflow = %s", data)
	}
}

func TestCompileTFXCmd_MissingConfig(t *testing.T) {
	cfg = config.Config{}
	cmd := newCompileTFXCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "TFX_IMAGE") {
		t.Fatalf("expected missing TFX_IMAGE, got %v", err)
	}
}
