package components

import "ml-pipelines/internal/graph"

// Argument fields below are bound as given: literals, graph.ParamRef,
// graph.OutputRef or composite values. Nil fields are left unbound.

// BigQueryQueryArgs configures a query export.
type BigQueryQueryArgs struct {
	Query           any
	ProjectID       any
	DatasetID       any
	TableID         any
	OutputGCSPath   any
	DatasetLocation any
	JobConfig       any
}

// BigQueryQuery is a query export step.
type BigQueryQuery struct{ *graph.Step }

// OutputGCSPath is the Cloud Storage path the result was exported to.
func (s BigQueryQuery) OutputGCSPath() graph.OutputRef { return s.Output("output_gcs_path") }

// BigQueryQuery adds a query export step.
func (r *Registry) BigQueryQuery(b *graph.Builder, id string, a BigQueryQueryArgs) BigQueryQuery {
	return BigQueryQuery{r.add(b, id, BigQueryQueryName, graph.Args{
		"query":            a.Query,
		"project_id":       a.ProjectID,
		"dataset_id":       a.DatasetID,
		"table_id":         a.TableID,
		"output_gcs_path":  a.OutputGCSPath,
		"dataset_location": a.DatasetLocation,
		"job_config":       a.JobConfig,
	})}
}

// MLEngineTrainArgs configures an AI Platform training job.
type MLEngineTrainArgs struct {
	ProjectID      any
	Region         any
	PythonModule   any
	PackageURIs    any
	Args           any
	JobDir         any
	PythonVersion  any
	RuntimeVersion any
	MasterImageURI any
	WorkerImageURI any
	TrainingInput  any
	JobIDPrefix    any
	WaitInterval   any
}

// MLEngineTrain is a training job step.
type MLEngineTrain struct{ *graph.Step }

// JobID identifies the submitted job.
func (s MLEngineTrain) JobID() graph.OutputRef { return s.Output("job_id") }

// JobDir is where the job wrote its outputs.
func (s MLEngineTrain) JobDir() graph.OutputRef { return s.Output("job_dir") }

// MLEngineTrain adds a training job step.
func (r *Registry) MLEngineTrain(b *graph.Builder, id string, a MLEngineTrainArgs) MLEngineTrain {
	return MLEngineTrain{r.add(b, id, MLEngineTrainName, graph.Args{
		"project_id":       a.ProjectID,
		"region":           a.Region,
		"python_module":    a.PythonModule,
		"package_uris":     a.PackageURIs,
		"args":             a.Args,
		"job_dir":          a.JobDir,
		"python_version":   a.PythonVersion,
		"runtime_version":  a.RuntimeVersion,
		"master_image_uri": a.MasterImageURI,
		"worker_image_uri": a.WorkerImageURI,
		"training_input":   a.TrainingInput,
		"job_id_prefix":    a.JobIDPrefix,
		"wait_interval":    a.WaitInterval,
	})}
}

// MLEngineDeployArgs configures a model version deployment.
type MLEngineDeployArgs struct {
	ModelURI               any
	ProjectID              any
	ModelID                any
	VersionID              any
	RuntimeVersion         any
	PythonVersion          any
	Model                  any
	Version                any
	ReplaceExistingVersion any
	SetDefault             any
}

// MLEngineDeploy is a deployment step.
type MLEngineDeploy struct{ *graph.Step }

func (s MLEngineDeploy) ModelURI() graph.OutputRef    { return s.Output("model_uri") }
func (s MLEngineDeploy) ModelName() graph.OutputRef   { return s.Output("model_name") }
func (s MLEngineDeploy) VersionName() graph.OutputRef { return s.Output("version_name") }

// MLEngineDeploy adds a deployment step.
func (r *Registry) MLEngineDeploy(b *graph.Builder, id string, a MLEngineDeployArgs) MLEngineDeploy {
	return MLEngineDeploy{r.add(b, id, MLEngineDeployName, graph.Args{
		"model_uri":                a.ModelURI,
		"project_id":               a.ProjectID,
		"model_id":                 a.ModelID,
		"version_id":               a.VersionID,
		"runtime_version":          a.RuntimeVersion,
		"python_version":           a.PythonVersion,
		"model":                    a.Model,
		"version":                  a.Version,
		"replace_existing_version": a.ReplaceExistingVersion,
		"set_default":              a.SetDefault,
	})}
}

// RetrieveBestRun reads the winning trial of a tuning job.
type RetrieveBestRun struct{ *graph.Step }

func (s RetrieveBestRun) MetricValue() graph.OutputRef { return s.Output("metric_value") }
func (s RetrieveBestRun) Alpha() graph.OutputRef       { return s.Output("alpha") }
func (s RetrieveBestRun) MaxIter() graph.OutputRef     { return s.Output("max_iter") }

// RetrieveBestRun adds a best-trial lookup for jobID.
func (r *Registry) RetrieveBestRun(b *graph.Builder, id string, projectID, jobID any) RetrieveBestRun {
	return RetrieveBestRun{r.add(b, id, RetrieveBestRunName, graph.Args{
		"project_id": projectID,
		"job_id":     jobID,
	})}
}

// EvaluateModelArgs configures a held-out evaluation.
type EvaluateModelArgs struct {
	DatasetPath any
	ModelPath   any
	MetricName  any
}

// EvaluateModel scores a model on a dataset.
type EvaluateModel struct{ *graph.Step }

func (s EvaluateModel) MetricName() graph.OutputRef  { return s.Output("metric_name") }
func (s EvaluateModel) MetricValue() graph.OutputRef { return s.Output("metric_value") }

// EvaluateModel adds an evaluation step.
func (r *Registry) EvaluateModel(b *graph.Builder, id string, a EvaluateModelArgs) EvaluateModel {
	return EvaluateModel{r.add(b, id, EvaluateModelName, graph.Args{
		"dataset_path": a.DatasetPath,
		"model_path":   a.ModelPath,
		"metric_name":  a.MetricName,
	})}
}
