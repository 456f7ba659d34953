package components

import "ml-pipelines/internal/graph"

// ExampleGen is an ingestion step.
type ExampleGen struct{ *graph.Step }

// Examples is the split example artifact.
func (s ExampleGen) Examples() graph.OutputRef { return s.Output("examples") }

// CsvExampleGen ingests CSV files under inputBase.
func (r *Registry) CsvExampleGen(b *graph.Builder, id string, inputBase, outputConfig any) ExampleGen {
	return ExampleGen{r.add(b, id, CsvExampleGenName, graph.Args{
		"input_base":    inputBase,
		"output_config": outputConfig,
	})}
}

// ImportExampleGen imports TFRecord files under inputBase.
func (r *Registry) ImportExampleGen(b *graph.Builder, id string, inputBase, inputConfig, outputConfig any) ExampleGen {
	return ExampleGen{r.add(b, id, ImportExampleGenName, graph.Args{
		"input_base":    inputBase,
		"input_config":  inputConfig,
		"output_config": outputConfig,
	})}
}

// StatisticsGen computes dataset statistics.
type StatisticsGen struct{ *graph.Step }

func (s StatisticsGen) Statistics() graph.OutputRef { return s.Output("statistics") }

func (r *Registry) StatisticsGen(b *graph.Builder, id string, examples graph.OutputRef) StatisticsGen {
	return StatisticsGen{r.add(b, id, StatisticsGenName, graph.Args{"examples": examples})}
}

// ImporterNode registers an existing URI as an artifact.
type ImporterNode struct{ *graph.Step }

func (s ImporterNode) Result() graph.OutputRef { return s.Output("result") }

func (r *Registry) ImporterNode(b *graph.Builder, id string, sourceURI any, artifactType string) ImporterNode {
	return ImporterNode{r.add(b, id, ImporterNodeName, graph.Args{
		"source_uri":    sourceURI,
		"artifact_type": artifactType,
	})}
}

// SchemaGen infers a schema from statistics.
type SchemaGen struct{ *graph.Step }

func (s SchemaGen) Schema() graph.OutputRef { return s.Output("schema") }

func (r *Registry) SchemaGen(b *graph.Builder, id string, statistics graph.OutputRef, inferFeatureShape bool) SchemaGen {
	return SchemaGen{r.add(b, id, SchemaGenName, graph.Args{
		"statistics":          statistics,
		"infer_feature_shape": inferFeatureShape,
	})}
}

// ExampleValidator detects anomalies against a schema.
type ExampleValidator struct{ *graph.Step }

func (s ExampleValidator) Anomalies() graph.OutputRef { return s.Output("anomalies") }

func (r *Registry) ExampleValidator(b *graph.Builder, id string, statistics, schema graph.OutputRef) ExampleValidator {
	return ExampleValidator{r.add(b, id, ExampleValidatorName, graph.Args{
		"statistics": statistics,
		"schema":     schema,
	})}
}

// Transform runs feature engineering.
type Transform struct{ *graph.Step }

func (s Transform) TransformGraph() graph.OutputRef      { return s.Output("transform_graph") }
func (s Transform) TransformedExamples() graph.OutputRef { return s.Output("transformed_examples") }

func (r *Registry) Transform(b *graph.Builder, id string, examples, schema graph.OutputRef, moduleFile any) Transform {
	return Transform{r.add(b, id, TransformName, graph.Args{
		"examples":    examples,
		"schema":      schema,
		"module_file": moduleFile,
	})}
}

// TrainerArgs configures a Trainer step.
type TrainerArgs struct {
	Examples       graph.OutputRef
	Schema         graph.OutputRef
	TransformGraph graph.OutputRef
	ModuleFile     any
	TrainArgs      any
	EvalArgs       any
	CustomConfig   any
	CustomExecutor any
}

// Trainer trains a model.
type Trainer struct{ *graph.Step }

func (s Trainer) Model() graph.OutputRef { return s.Output("model") }

func (r *Registry) Trainer(b *graph.Builder, id string, a TrainerArgs) Trainer {
	args := graph.Args{
		"examples":        a.Examples,
		"schema":          a.Schema,
		"module_file":     a.ModuleFile,
		"train_args":      a.TrainArgs,
		"eval_args":       a.EvalArgs,
		"custom_config":   a.CustomConfig,
		"custom_executor": a.CustomExecutor,
	}
	// The transform graph is optional; a zero reference means none.
	if a.TransformGraph.Step() != nil {
		args["transform_graph"] = a.TransformGraph
	}
	return Trainer{r.add(b, id, TrainerName, args)}
}

// Evaluator computes model evaluation metrics.
type Evaluator struct{ *graph.Step }

func (s Evaluator) Evaluation() graph.OutputRef { return s.Output("evaluation") }

func (r *Registry) Evaluator(b *graph.Builder, id string, examples, model graph.OutputRef, slicingSpec any) Evaluator {
	return Evaluator{r.add(b, id, EvaluatorName, graph.Args{
		"examples":             examples,
		"model":                model,
		"feature_slicing_spec": slicingSpec,
	})}
}

// ModelValidator compares a candidate model against the baseline.
type ModelValidator struct{ *graph.Step }

func (s ModelValidator) Blessing() graph.OutputRef { return s.Output("blessing") }

func (r *Registry) ModelValidator(b *graph.Builder, id string, examples, model graph.OutputRef) ModelValidator {
	return ModelValidator{r.add(b, id, ModelValidatorName, graph.Args{
		"examples": examples,
		"model":    model,
	})}
}

// PusherArgs configures a Pusher step. Exactly one of PushDestination and
// CustomConfig is normally set.
type PusherArgs struct {
	Model           graph.OutputRef
	ModelBlessing   graph.OutputRef
	PushDestination any
	CustomConfig    any
	CustomExecutor  any
}

// Pusher pushes a blessed model to serving.
type Pusher struct{ *graph.Step }

func (s Pusher) PushedModel() graph.OutputRef { return s.Output("pushed_model") }

func (r *Registry) Pusher(b *graph.Builder, id string, a PusherArgs) Pusher {
	return Pusher{r.add(b, id, PusherName, graph.Args{
		"model":            a.Model,
		"model_blessing":   a.ModelBlessing,
		"push_destination": a.PushDestination,
		"custom_config":    a.CustomConfig,
		"custom_executor":  a.CustomExecutor,
	})}
}
