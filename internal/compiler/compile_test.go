package compiler

import (
	"errors"
	"strings"
	"testing"

	"ml-pipelines/internal/components"
	"ml-pipelines/internal/graph"
	"ml-pipelines/internal/pipelines"
)

func registry() *components.Registry {
	return components.NewRegistry(components.Options{
		URLSearchPrefix: "https://example.com/components/gcp/",
		GCPImage:        "gcr.io/ml-pipeline/ml-pipeline-gcp:0.2.5",
		BaseImage:       "gcr.io/demo/base:latest",
		TFXImage:        "gcr.io/demo/tfx:latest",
	})
}

func covertype(t *testing.T, deploy bool) *graph.Graph {
	t.Helper()
	p := pipelines.CovertypeParams{
		ProjectID:    "demo-project",
		Region:       "us-central1",
		SourceTable:  "demo-project.covertype_dataset.covertype",
		GCSRoot:      "gs://demo-bucket/staging",
		Threshold:    0.69,
		TrainerImage: "gcr.io/demo/trainer:latest",
	}
	if deploy {
		p.Deploy = &pipelines.DeploySettings{ModelID: "covertype"}
	}
	g, err := pipelines.Covertype(registry(), p)
	if err != nil {
		t.Fatalf("covertype: %v", err)
	}
	return g
}

func TestCompile_Covertype(t *testing.T) {
	g := covertype(t, true)
	wf, err := Compile(g, Options{ServiceAccount: "pipeline-runner"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if wf.APIVersion != APIVersion || wf.Kind != KindName {
		t.Errorf("unexpected resource %s/%s", wf.APIVersion, wf.Kind)
	}
	if wf.Metadata.GenerateName != pipelines.CovertypeName+"-" {
		t.Errorf("generateName = %q", wf.Metadata.GenerateName)
	}
	hash, _ := g.Hash()
	if wf.Metadata.Annotations[AnnotationGraphHash] != hash {
		t.Errorf("graph hash annotation = %q, want %q", wf.Metadata.Annotations[AnnotationGraphHash], hash)
	}
	if len(wf.Spec.Templates) != len(g.Steps)+1 {
		t.Fatalf("got %d templates, want %d", len(wf.Spec.Templates), len(g.Steps)+1)
	}
	if wf.Spec.Templates[0].Name != wf.Spec.Entrypoint || wf.Spec.Templates[0].DAG == nil {
		t.Fatalf("first template should be the entrypoint DAG")
	}
	if len(wf.Spec.Volumes) != 1 || wf.Spec.Volumes[0].Secret.SecretName != components.DefaultSecretName {
		t.Errorf("volumes = %+v", wf.Spec.Volumes)
	}

	evaluate, ok := wf.Task("evaluate")
	if !ok {
		t.Fatal("evaluate task missing")
	}
	if strings.Join(evaluate.Dependencies, ",") != "create-testing-split,train" {
		t.Errorf("evaluate dependencies = %v", evaluate.Dependencies)
	}
	args := map[string]string{}
	for _, p := range evaluate.Arguments.Parameters {
		args[p.Name] = *p.Value
	}
	if args["dataset_path"] != "{{tasks.create-testing-split.outputs.parameters.output_gcs_path}}" {
		t.Errorf("dataset_path = %q", args["dataset_path"])
	}
	if args["metric_name"] != "{{workflow.parameters.evaluation_metric_name}}" {
		t.Errorf("metric_name = %q", args["metric_name"])
	}

	deploy, _ := wf.Task("deploy")
	want := "{{tasks.evaluate.outputs.parameters.metric_value}} > {{workflow.parameters.evaluation_metric_threshold}}"
	if deploy.When != want {
		t.Errorf("deploy when = %q, want %q", deploy.When, want)
	}

	train, _ := wf.Task("train")
	for _, p := range train.Arguments.Parameters {
		if p.Name == "job_dir" && *p.Value != "{{workflow.parameters.gcs_root}}/jobdir/{{workflow.uid}}" {
			t.Errorf("train job_dir = %q", *p.Value)
		}
	}
}

func TestCompile_Arguments(t *testing.T) {
	wf, err := Compile(covertype(t, false), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	params := map[string]*string{}
	for _, p := range wf.Spec.Arguments.Parameters {
		params[p.Name] = p.Value
	}
	if v := params["evaluation_metric_threshold"]; v == nil || *v != "0.69" {
		t.Errorf("threshold default = %v", v)
	}
	if v := params["dataset_location"]; v == nil || *v != "US" {
		t.Errorf("dataset_location default = %v", v)
	}
	if v := params["hypertune_settings"]; v == nil || !strings.Contains(*v, `"maxTrials":6`) {
		t.Errorf("hypertune_settings default = %v", v)
	}
}

func TestCompile_ContainerTemplate(t *testing.T) {
	wf, err := Compile(covertype(t, false), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	tmpl, ok := wf.Template("create-training-split")
	if !ok {
		t.Fatal("template missing")
	}
	if tmpl.Container.Image != "gcr.io/ml-pipeline/ml-pipeline-gcp:0.2.5" {
		t.Errorf("image = %q", tmpl.Container.Image)
	}
	args := strings.Join(tmpl.Container.Args, " ")
	for _, want := range []string{
		"--query {{inputs.parameters.query}}",
		"--output-output_gcs_path-path /tmp/outputs/output_gcs_path/data",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if len(tmpl.Outputs.Parameters) != 1 || tmpl.Outputs.Parameters[0].ValueFrom.Path != "/tmp/outputs/output_gcs_path/data" {
		t.Errorf("outputs = %+v", tmpl.Outputs)
	}
	env := map[string]string{}
	for _, e := range tmpl.Container.Env {
		env[e.Name] = e.Value
	}
	if env["CLOUD_REGION"] != "{{workflow.parameters.region}}" {
		t.Errorf("CLOUD_REGION = %q", env["CLOUD_REGION"])
	}
	if len(tmpl.Container.VolumeMounts) != 1 || tmpl.Container.VolumeMounts[0].MountPath != components.DefaultSecretPath {
		t.Errorf("volume mounts = %+v", tmpl.Container.VolumeMounts)
	}
	if tmpl.Metadata.Annotations["pipelines.ml/component-source"] != "https://example.com/components/gcp/bigquery/query/component.yaml" {
		t.Errorf("component source = %q", tmpl.Metadata.Annotations["pipelines.ml/component-source"])
	}
}

func TestCompile_TFXArtifacts(t *testing.T) {
	env := pipelines.Environment{
		PipelineName:     "tfx-covertype",
		ProjectID:        "demo-project",
		Region:           "us-central1",
		TFXImage:         "gcr.io/demo/tfx:latest",
		DataRootURI:      "gs://data",
		ArtifactStoreURI: "gs://artifacts",
	}
	g, err := pipelines.TFX(registry(), pipelines.CovertypeTFX(env))
	if err != nil {
		t.Fatalf("tfx: %v", err)
	}
	wf, err := Compile(g, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	train, _ := wf.Task("train")
	from := map[string]string{}
	for _, a := range train.Arguments.Artifacts {
		from[a.Name] = a.From
	}
	if from["schema"] != "{{tasks.import-schema.outputs.artifacts.result}}" {
		t.Errorf("train schema from = %q", from["schema"])
	}
	if from["examples"] != "{{tasks.transform.outputs.artifacts.transformed_examples}}" {
		t.Errorf("train examples from = %q", from["examples"])
	}

	tmpl, _ := wf.Template("train")
	if len(tmpl.Inputs.Artifacts) != 3 {
		t.Errorf("train artifact inputs = %+v", tmpl.Inputs.Artifacts)
	}
	if tmpl.Metadata.Labels["tfx-component"] != "Trainer" {
		t.Errorf("labels = %v", tmpl.Metadata.Labels)
	}

	deploy, _ := wf.Task("deploy")
	for _, p := range deploy.Arguments.Parameters {
		if p.Name == "push_destination" {
			want := `{"filesystem":{"base_directory":"gs://artifacts/tfx-covertype/{{workflow.uid}}/model_serving"}}`
			if *p.Value != want {
				t.Errorf("push_destination = %s, want %s", *p.Value, want)
			}
		}
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	wf, err := Compile(covertype(t, true), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	data, err := Marshal(wf)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"apiVersion: argoproj.io/v1alpha1\n",
		"kind: Workflow\n",
		"  entrypoint: " + pipelines.CovertypeName + "\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("yaml missing %q", want)
		}
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Spec.Templates) != len(wf.Spec.Templates) {
		t.Errorf("templates lost in round trip: %d vs %d", len(back.Spec.Templates), len(wf.Spec.Templates))
	}
	if back.Metadata.Annotations[AnnotationGraphHash] != wf.Metadata.Annotations[AnnotationGraphHash] {
		t.Error("hash annotation lost in round trip")
	}
}

func TestUnmarshal_RejectsOtherKinds(t *testing.T) {
	_, err := Unmarshal([]byte("apiVersion: v1\nkind: ConfigMap\n"))
	if !errors.Is(err, ErrCompile) {
		t.Fatalf("expected ErrCompile, got %v", err)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	a, _ := Compile(covertype(t, true), Options{})
	b, _ := Compile(covertype(t, true), Options{})
	ya, _ := Marshal(a)
	yb, _ := Marshal(b)
	if string(ya) != string(yb) {
		t.Error("compiling the same definition twice produced different YAML")
	}
}

func TestCompile_NilGraph(t *testing.T) {
	if _, err := Compile(nil, Options{}); !errors.Is(err, ErrCompile) {
		t.Fatalf("expected ErrCompile, got %v", err)
	}
}
