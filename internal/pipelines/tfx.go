package pipelines

import (
	"fmt"
	"strings"

	"ml-pipelines/internal/components"
	"ml-pipelines/internal/graph"
	"ml-pipelines/internal/sampling"
)

// IngestFormat selects the example generator.
type IngestFormat string

const (
	IngestCSV      IngestFormat = "csv"
	IngestTFRecord IngestFormat = "tfrecord"
)

// InputSplit maps a split name to a file pattern under the data root.
type InputSplit struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// Environment is the process-level configuration the TFX presets draw from.
type Environment struct {
	PipelineName     string
	ProjectID        string
	Region           string
	TFXImage         string
	DataRootURI      string
	ArtifactStoreURI string
	RuntimeVersion   string
	PythonVersion    string
}

// TFXParams configures a TFX graph.
type TFXParams struct {
	Name             string `json:"pipeline_name"`
	Description      string `json:"description,omitempty"`
	ArtifactStoreURI string `json:"artifact_store_uri"`
	DataRootURI      string `json:"data_root_uri"`

	Ingest       IngestFormat           `json:"ingest"`
	InputSplits  []InputSplit           `json:"input_splits,omitempty"`
	OutputSplits []sampling.HashBuckets `json:"output_splits,omitempty"`

	// SchemaURI imports a curated schema used downstream. The inferred schema
	// is still produced for tracking. Empty means the inferred schema is used.
	SchemaURI         string `json:"schema_uri,omitempty"`
	InferFeatureShape bool   `json:"infer_feature_shape,omitempty"`

	ModuleFile  string         `json:"module_file"`
	TrainSteps  int            `json:"train_steps"`
	EvalSteps   int            `json:"eval_steps"`
	SlicingSpec map[string]any `json:"slicing_spec,omitempty"`

	TrainingArgs map[string]any `json:"ai_platform_training_args,omitempty"`
	ServingArgs  map[string]any `json:"ai_platform_serving_args,omitempty"`

	BeamArgs    []string `json:"beam_pipeline_args,omitempty"`
	EnableCache bool     `json:"enable_cache"`
}

const (
	trainerExecutor = "tfx.extensions.google_cloud_ai_platform.trainer.executor.Executor"
	pusherExecutor  = "tfx.extensions.google_cloud_ai_platform.pusher.executor.Executor"
)

func (p TFXParams) validate() error {
	errs := &problems{pipeline: p.Name}
	if p.Name == "" {
		errs.pipeline = "tfx"
	}
	errs.required("pipeline_name", p.Name)
	if p.Name != "" && !graph.ValidID(p.Name) {
		errs.add("pipeline_name %q must be lowercase alphanumerics and '-'", p.Name)
	}
	errs.required("artifact_store_uri", p.ArtifactStoreURI)
	errs.required("data_root_uri", p.DataRootURI)
	errs.required("module_file", p.ModuleFile)

	switch p.Ingest {
	case IngestCSV:
		if len(p.InputSplits) > 0 {
			errs.add("input_splits are only supported for tfrecord ingest")
		}
	case IngestTFRecord:
	default:
		errs.add("ingest must be %q or %q, got %q", IngestCSV, IngestTFRecord, p.Ingest)
	}
	seen := make(map[string]bool)
	for _, s := range p.InputSplits {
		if s.Name == "" || s.Pattern == "" {
			errs.add("input split needs a name and a pattern")
		}
		if seen[s.Name] {
			errs.add("input split %q listed twice", s.Name)
		}
		seen[s.Name] = true
	}
	if len(p.OutputSplits) > 0 {
		if _, err := sampling.FromHashBuckets(p.OutputSplits); err != nil {
			errs.add("output_splits: %v", err)
		}
	}
	if p.TrainSteps <= 0 {
		errs.add("train_steps must be positive")
	}
	if p.EvalSteps <= 0 {
		errs.add("eval_steps must be positive")
	}
	return errs.err()
}

// PipelineRoot is where a run writes its artifacts:
// <artifact store>/<pipeline name>/<run id>.
func (p TFXParams) PipelineRoot() graph.Value {
	return graph.Path(strings.TrimSuffix(p.ArtifactStoreURI, "/"), p.Name, graph.RunID)
}

// TFX assembles ingest, statistics, schema, example validation, transform,
// training, evaluation, model validation and push. The schema fans out to the
// example validator, the transform and the trainer.
func TFX(reg *components.Registry, p TFXParams) (*graph.Graph, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	b := graph.New(p.Name, p.Description)
	dataRoot := b.Param("data_root_uri", "String", p.DataRootURI)
	moduleFile := b.Param("module_file_uri", "String", p.ModuleFile)
	trainSteps := b.Param("train_steps", "Integer", p.TrainSteps)
	evalSteps := b.Param("eval_steps", "Integer", p.EvalSteps)
	root := p.PipelineRoot()

	var outputConfig any
	if len(p.OutputSplits) > 0 {
		plan, _ := sampling.FromHashBuckets(p.OutputSplits)
		b.Annotate(AnnotationSplitPlan, planSummary(plan))
		outputConfig = map[string]any{"split_config": map[string]any{"splits": p.OutputSplits}}
	}

	var examples components.ExampleGen
	switch p.Ingest {
	case IngestCSV:
		examples = reg.CsvExampleGen(b, "generate-examples", dataRoot, outputConfig)
	case IngestTFRecord:
		var inputConfig any
		if len(p.InputSplits) > 0 {
			inputConfig = map[string]any{"splits": p.InputSplits}
		}
		examples = reg.ImportExampleGen(b, "generate-examples", dataRoot, inputConfig, outputConfig)
	}

	statistics := reg.StatisticsGen(b, "generate-statistics", examples.Examples())
	inferred := reg.SchemaGen(b, "infer-schema", statistics.Statistics(), p.InferFeatureShape)

	schema := inferred.Schema()
	if p.SchemaURI != "" {
		schema = reg.ImporterNode(b, "import-schema", p.SchemaURI, "Schema").Result()
	}

	reg.ExampleValidator(b, "validate-stats", statistics.Statistics(), schema)
	transform := reg.Transform(b, "transform", examples.Examples(), schema, moduleFile)

	trainerArgs := components.TrainerArgs{
		Examples:       transform.TransformedExamples(),
		Schema:         schema,
		TransformGraph: transform.TransformGraph(),
		ModuleFile:     moduleFile,
		TrainArgs:      graph.Object{"num_steps": trainSteps},
		EvalArgs:       graph.Object{"num_steps": evalSteps},
	}
	if len(p.TrainingArgs) > 0 {
		trainerArgs.CustomConfig = graph.Object{"ai_platform_training_args": graph.Lit(p.TrainingArgs)}
		trainerArgs.CustomExecutor = trainerExecutor
	}
	train := reg.Trainer(b, "train", trainerArgs)

	var slicing any
	if p.SlicingSpec != nil {
		slicing = p.SlicingSpec
	}
	reg.Evaluator(b, "analyze", examples.Examples(), train.Model(), slicing)
	validate := reg.ModelValidator(b, "validate", examples.Examples(), train.Model())

	pusherArgs := components.PusherArgs{Model: train.Model(), ModelBlessing: validate.Blessing()}
	if len(p.ServingArgs) > 0 {
		pusherArgs.CustomConfig = graph.Object{"ai_platform_serving_args": graph.Lit(p.ServingArgs)}
		pusherArgs.CustomExecutor = pusherExecutor
	} else {
		pusherArgs.PushDestination = graph.Object{
			"filesystem": graph.Object{"base_directory": graph.Path(root, "model_serving")},
		}
	}
	reg.Pusher(b, "deploy", pusherArgs)

	b.Use(components.TFXRuntime{
		PipelineName: p.Name,
		PipelineRoot: root,
		BeamArgs:     p.BeamArgs,
		EnableCache:  p.EnableCache,
	})
	b.Use(components.PipelineConf{})

	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", p.Name, err)
	}
	return g, nil
}

func dataflowArgs(env Environment) []string {
	return []string{
		"--runner=DataflowRunner",
		"--experiments=shuffle_mode=auto",
		"--project=" + env.ProjectID,
		"--temp_location=" + strings.TrimSuffix(env.ArtifactStoreURI, "/") + "/beam/tmp",
		"--region=" + env.Region,
	}
}

func trainingArgs(env Environment) map[string]any {
	return map[string]any{
		"project": env.ProjectID,
		"region":  env.Region,
		"masterConfig": map[string]any{
			"imageUri": env.TFXImage,
		},
	}
}

// CovertypeTFX is the tabular preset: CSV ingest split 4:1 into train and
// eval, a curated schema imported from the schema folder, training on AI
// Platform and a filesystem push.
func CovertypeTFX(env Environment) TFXParams {
	name := env.PipelineName
	if name == "" {
		name = "tfx-covertype-classifier-training"
	}
	return TFXParams{
		Name:             name,
		Description:      "Trains and deploys the Covertype classifier",
		ArtifactStoreURI: env.ArtifactStoreURI,
		DataRootURI:      env.DataRootURI,
		Ingest:           IngestCSV,
		OutputSplits: []sampling.HashBuckets{
			{Name: "train", Buckets: 4},
			{Name: "eval", Buckets: 1},
		},
		SchemaURI:    "schema",
		ModuleFile:   "transform_train.py",
		TrainSteps:   5000,
		EvalSteps:    500,
		TrainingArgs: trainingArgs(env),
		BeamArgs:     dataflowArgs(env),
		EnableCache:  true,
	}
}

// CIFAR10 is the image preset: TFRecord import with fixed train and test
// files, an inferred schema with feature shapes and an overall slicing spec.
func CIFAR10(env Environment) TFXParams {
	name := env.PipelineName
	if name == "" {
		name = "tfx-cifar10"
	}
	return TFXParams{
		Name:             name,
		Description:      "Implements the cifar10 pipeline with TFX",
		ArtifactStoreURI: env.ArtifactStoreURI,
		DataRootURI:      env.DataRootURI,
		Ingest:           IngestTFRecord,
		InputSplits: []InputSplit{
			{Name: "train", Pattern: "train.tfrecord"},
			{Name: "eval", Pattern: "test.tfrecord"},
		},
		InferFeatureShape: true,
		ModuleFile:        "transform_train.py",
		TrainSteps:        500,
		EvalSteps:         500,
		SlicingSpec:       map[string]any{"specs": []any{map[string]any{}}},
		TrainingArgs:      trainingArgs(env),
		BeamArgs:          dataflowArgs(env),
		EnableCache:       true,
	}
}
