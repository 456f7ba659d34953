package components

import "ml-pipelines/internal/graph"

// Component names.
const (
	BigQueryQueryName   = "bigquery/query"
	MLEngineTrainName   = "ml_engine/train"
	MLEngineDeployName  = "ml_engine/deploy"
	RetrieveBestRunName = "helper/retrieve_best_run"
	EvaluateModelName   = "helper/evaluate_model"

	CsvExampleGenName    = "tfx/CsvExampleGen"
	ImportExampleGenName = "tfx/ImportExampleGen"
	StatisticsGenName    = "tfx/StatisticsGen"
	ImporterNodeName     = "tfx/ImporterNode"
	SchemaGenName        = "tfx/SchemaGen"
	ExampleValidatorName = "tfx/ExampleValidator"
	TransformName        = "tfx/Transform"
	TrainerName          = "tfx/Trainer"
	EvaluatorName        = "tfx/Evaluator"
	ModelValidatorName   = "tfx/ModelValidator"
	PusherName           = "tfx/Pusher"
)

func param(name, typ string) graph.Port {
	return graph.Port{Name: name, Type: typ, Kind: graph.KindParameter}
}

func optional(name, typ string) graph.Port {
	return graph.Port{Name: name, Type: typ, Kind: graph.KindParameter, Optional: true}
}

func withDefault(name, typ string, def any) graph.Port {
	return graph.Port{Name: name, Type: typ, Kind: graph.KindParameter, Default: def}
}

func artifact(name, typ string) graph.Port {
	return graph.Port{Name: name, Type: typ, Kind: graph.KindArtifact}
}

func optionalArtifact(name, typ string) graph.Port {
	return graph.Port{Name: name, Type: typ, Kind: graph.KindArtifact, Optional: true}
}

func gcpLauncher(module string) []string {
	return []string{"python", "-u", "-m", "kfp_component.launcher", "kfp_component.google." + module}
}

func helperCommand(fn string) []string {
	return []string{"python3", "-u", "-m", "helper_components", fn}
}

func tfxCommand(component string) []string {
	return []string{"python", "/tfx-src/tfx/orchestration/kubeflow/container_entrypoint.py", "--component", component}
}

var catalogue = []definition{
	{FamilyGCP, graph.Component{
		Name:        BigQueryQueryName,
		Description: "Runs a BigQuery query and exports the result to Cloud Storage.",
		Command:     gcpLauncher("bigquery._query"),
		Inputs: []graph.Port{
			param("query", "String"),
			param("project_id", "GCPProjectID"),
			optional("dataset_id", "String"),
			optional("table_id", "String"),
			optional("output_gcs_path", "GCSPath"),
			withDefault("dataset_location", "String", "US"),
			optional("job_config", "Dict"),
		},
		Outputs: []graph.Port{param("output_gcs_path", "GCSPath")},
	}},
	{FamilyGCP, graph.Component{
		Name:        MLEngineTrainName,
		Description: "Submits a training job to AI Platform and waits for it.",
		Command:     gcpLauncher("ml_engine._train"),
		Inputs: []graph.Port{
			param("project_id", "GCPProjectID"),
			optional("python_module", "String"),
			optional("package_uris", "List"),
			optional("region", "GCPRegion"),
			optional("args", "List"),
			optional("job_dir", "GCSPath"),
			optional("python_version", "String"),
			optional("runtime_version", "String"),
			optional("master_image_uri", "GCRPath"),
			optional("worker_image_uri", "GCRPath"),
			optional("training_input", "Dict"),
			optional("job_id_prefix", "String"),
			withDefault("wait_interval", "Integer", 30),
		},
		Outputs: []graph.Port{
			param("job_id", "String"),
			param("job_dir", "GCSPath"),
		},
	}},
	{FamilyGCP, graph.Component{
		Name:        MLEngineDeployName,
		Description: "Deploys a trained model as an AI Platform model version.",
		Command:     gcpLauncher("ml_engine._deploy"),
		Inputs: []graph.Port{
			param("model_uri", "GCSPath"),
			param("project_id", "GCPProjectID"),
			optional("model_id", "String"),
			optional("version_id", "String"),
			optional("runtime_version", "String"),
			optional("python_version", "String"),
			optional("model", "Dict"),
			optional("version", "Dict"),
			withDefault("replace_existing_version", "Bool", false),
			withDefault("set_default", "Bool", false),
			withDefault("wait_interval", "Integer", 30),
		},
		Outputs: []graph.Port{
			param("model_uri", "GCSPath"),
			param("model_name", "String"),
			param("version_name", "String"),
		},
	}},
	{FamilyHelper, graph.Component{
		Name:        RetrieveBestRunName,
		Description: "Reads the best trial of a hyperparameter tuning job.",
		Command:     helperCommand("retrieve_best_run"),
		Inputs: []graph.Port{
			param("project_id", "String"),
			param("job_id", "String"),
		},
		Outputs: []graph.Port{
			param("metric_value", "Float"),
			param("alpha", "Float"),
			param("max_iter", "Integer"),
		},
	}},
	{FamilyHelper, graph.Component{
		Name:        EvaluateModelName,
		Description: "Scores a trained model on a held-out dataset.",
		Command:     helperCommand("evaluate_model"),
		Inputs: []graph.Port{
			param("dataset_path", "String"),
			param("model_path", "String"),
			param("metric_name", "String"),
		},
		Outputs: []graph.Port{
			param("metric_name", "String"),
			param("metric_value", "Float"),
		},
	}},

	{FamilyTFX, graph.Component{
		Name:        CsvExampleGenName,
		Description: "Ingests CSV files and splits them into examples.",
		Command:     tfxCommand("CsvExampleGen"),
		Inputs: []graph.Port{
			param("input_base", "String"),
			optional("output_config", "Dict"),
		},
		Outputs: []graph.Port{artifact("examples", "Examples")},
	}},
	{FamilyTFX, graph.Component{
		Name:        ImportExampleGenName,
		Description: "Imports TFRecord files as examples.",
		Command:     tfxCommand("ImportExampleGen"),
		Inputs: []graph.Port{
			param("input_base", "String"),
			optional("input_config", "Dict"),
			optional("output_config", "Dict"),
		},
		Outputs: []graph.Port{artifact("examples", "Examples")},
	}},
	{FamilyTFX, graph.Component{
		Name:    StatisticsGenName,
		Command: tfxCommand("StatisticsGen"),
		Inputs:  []graph.Port{artifact("examples", "Examples")},
		Outputs: []graph.Port{artifact("statistics", "ExampleStatistics")},
	}},
	{FamilyTFX, graph.Component{
		Name:        ImporterNodeName,
		Description: "Registers an external URI as an artifact.",
		Command:     tfxCommand("ImporterNode"),
		Inputs: []graph.Port{
			param("source_uri", "String"),
			param("artifact_type", "String"),
			withDefault("reimport", "Bool", false),
		},
		Outputs: []graph.Port{artifact("result", "Artifact")},
	}},
	{FamilyTFX, graph.Component{
		Name:    SchemaGenName,
		Command: tfxCommand("SchemaGen"),
		Inputs: []graph.Port{
			artifact("statistics", "ExampleStatistics"),
			withDefault("infer_feature_shape", "Bool", false),
		},
		Outputs: []graph.Port{artifact("schema", "Schema")},
	}},
	{FamilyTFX, graph.Component{
		Name:    ExampleValidatorName,
		Command: tfxCommand("ExampleValidator"),
		Inputs: []graph.Port{
			artifact("statistics", "ExampleStatistics"),
			artifact("schema", "Schema"),
		},
		Outputs: []graph.Port{artifact("anomalies", "ExampleAnomalies")},
	}},
	{FamilyTFX, graph.Component{
		Name:    TransformName,
		Command: tfxCommand("Transform"),
		Inputs: []graph.Port{
			artifact("examples", "Examples"),
			artifact("schema", "Schema"),
			param("module_file", "String"),
		},
		Outputs: []graph.Port{
			artifact("transform_graph", "TransformGraph"),
			artifact("transformed_examples", "Examples"),
		},
	}},
	{FamilyTFX, graph.Component{
		Name:    TrainerName,
		Command: tfxCommand("Trainer"),
		Inputs: []graph.Port{
			artifact("examples", "Examples"),
			artifact("schema", "Schema"),
			optionalArtifact("transform_graph", "TransformGraph"),
			param("module_file", "String"),
			param("train_args", "Dict"),
			param("eval_args", "Dict"),
			optional("custom_config", "Dict"),
			optional("custom_executor", "String"),
		},
		Outputs: []graph.Port{artifact("model", "Model")},
	}},
	{FamilyTFX, graph.Component{
		Name:    EvaluatorName,
		Command: tfxCommand("Evaluator"),
		Inputs: []graph.Port{
			artifact("examples", "Examples"),
			artifact("model", "Model"),
			optional("feature_slicing_spec", "Dict"),
		},
		Outputs: []graph.Port{artifact("evaluation", "ModelEvaluation")},
	}},
	{FamilyTFX, graph.Component{
		Name:    ModelValidatorName,
		Command: tfxCommand("ModelValidator"),
		Inputs: []graph.Port{
			artifact("examples", "Examples"),
			artifact("model", "Model"),
		},
		Outputs: []graph.Port{artifact("blessing", "ModelBlessing")},
	}},
	{FamilyTFX, graph.Component{
		Name:    PusherName,
		Command: tfxCommand("Pusher"),
		Inputs: []graph.Port{
			artifact("model", "Model"),
			artifact("model_blessing", "ModelBlessing"),
			optional("push_destination", "Dict"),
			optional("custom_config", "Dict"),
			optional("custom_executor", "String"),
		},
		Outputs: []graph.Port{artifact("pushed_model", "PushedModel")},
	}},
}
