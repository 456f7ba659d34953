// Package pipelines defines the pipeline graphs: the covertype
// split, tune, train and evaluate graph and the TFX graph family.
package pipelines

import (
	"fmt"
	"strconv"

	"ml-pipelines/internal/components"
	"ml-pipelines/internal/graph"
	"ml-pipelines/internal/hypertune"
	"ml-pipelines/internal/sampling"
)

const (
	CovertypeName        = "covertype-classifier-training"
	covertypeDescription = "The pipeline training and deploying the Covertype classifier"

	TrainingFilePath   = "datasets/training/data.csv"
	ValidationFilePath = "datasets/validation/data.csv"
	TestingFilePath    = "datasets/testing/data.csv"

	DefaultSplitsDatasetID = "splits"
	DefaultDatasetLocation = "US"
)

// Annotation keys set on compiled graphs.
const (
	AnnotationSourceTable = "pipelines.ml/source-table"
	AnnotationSplitPlan   = "pipelines.ml/split-plan"
)

// DeploySettings turns on the conditional deployment step.
type DeploySettings struct {
	ModelID                string `json:"model_id"`
	VersionID              string `json:"version_id,omitempty"`
	RuntimeVersion         string `json:"runtime_version,omitempty"`
	PythonVersion          string `json:"python_version,omitempty"`
	ReplaceExistingVersion bool   `json:"replace_existing_version,omitempty"`
}

// CovertypeParams configures the covertype graph. String fields other than
// SourceTable and TrainerImage become defaults of pipeline parameters; an
// empty value leaves the parameter to be supplied when the run is submitted.
// Threshold is taken as given, zero included.
type CovertypeParams struct {
	ProjectID       string             `json:"project_id"`
	Region          string             `json:"region"`
	SourceTable     string             `json:"source_table_name"`
	GCSRoot         string             `json:"gcs_root"`
	DatasetID       string             `json:"dataset_id"`
	MetricName      string             `json:"evaluation_metric_name"`
	Threshold       float64            `json:"evaluation_metric_threshold"`
	Hypertune       hypertune.Settings `json:"hypertune_settings"`
	DatasetLocation string             `json:"dataset_location"`
	Plan            sampling.Plan      `json:"split_plan"`
	TrainerImage    string             `json:"trainer_image"`
	Deploy          *DeploySettings    `json:"deploy,omitempty"`
}

// CovertypeDefaults returns the parameters used when a field is not given.
func CovertypeDefaults() CovertypeParams {
	return CovertypeParams{
		DatasetID:       DefaultSplitsDatasetID,
		MetricName:      "accuracy",
		Threshold:       0.69,
		Hypertune:       hypertune.Default(),
		DatasetLocation: DefaultDatasetLocation,
		Plan:            sampling.DefaultPlan(),
	}
}

func (p *CovertypeParams) applyDefaults() {
	d := CovertypeDefaults()
	if p.DatasetLocation == "" {
		p.DatasetLocation = d.DatasetLocation
	}
	if p.DatasetID == "" {
		p.DatasetID = d.DatasetID
	}
	if p.MetricName == "" {
		p.MetricName = d.MetricName
	}
	if len(p.Plan.Splits) == 0 && p.Plan.NumLots == 0 {
		p.Plan = d.Plan
	}
	if len(p.Hypertune.Hyperparameters.Params) == 0 && p.Hypertune.Hyperparameters.Goal == "" {
		p.Hypertune = d.Hypertune
	}
}

func (p CovertypeParams) validate() error {
	errs := &problems{pipeline: CovertypeName}
	errs.required("source_table_name", p.SourceTable)
	errs.required("trainer_image", p.TrainerImage)

	if err := p.Plan.Validate(); err != nil {
		errs.add("split_plan: %v", err)
	} else {
		for _, name := range []string{sampling.Training, sampling.Validation, sampling.Testing} {
			if _, ok := p.Plan.Split(name); !ok {
				errs.add("split_plan: no %q split", name)
			}
		}
	}
	if err := p.Hypertune.Validate(); err != nil {
		errs.add("hypertune_settings: %v", err)
	} else if err := p.Hypertune.Require("alpha", "max_iter"); err != nil {
		errs.add("hypertune_settings: %v", err)
	}
	if p.Deploy != nil && p.Deploy.ModelID == "" {
		errs.add("deploy.model_id is required when deploying")
	}
	return errs.err()
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Covertype assembles three split queries feeding a tuning job, a best-trial
// lookup, a final training job and an evaluation on the testing split. With
// Deploy set, the model is deployed when the evaluation metric beats the
// threshold.
func Covertype(reg *components.Registry, p CovertypeParams) (*graph.Graph, error) {
	p.applyDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}
	tuning, err := p.Hypertune.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("encode hypertune settings: %w", err)
	}

	b := graph.New(CovertypeName, covertypeDescription)
	projectID := b.Param("project_id", "GCPProjectID", orNil(p.ProjectID))
	region := b.Param("region", "GCPRegion", orNil(p.Region))
	gcsRoot := b.Param("gcs_root", "GCSPath", orNil(p.GCSRoot))
	datasetID := b.Param("dataset_id", "String", orNil(p.DatasetID))
	metricName := b.Param("evaluation_metric_name", "String", orNil(p.MetricName))
	threshold := b.Param("evaluation_metric_threshold", "Float", p.Threshold)
	tuningInput := b.Param("hypertune_settings", "Dict", tuning)
	location := b.Param("dataset_location", "String", p.DatasetLocation)

	b.Annotate(AnnotationSourceTable, p.SourceTable)
	b.Annotate(AnnotationSplitPlan, planSummary(p.Plan))

	files := map[string]string{
		sampling.Training:   TrainingFilePath,
		sampling.Validation: ValidationFilePath,
		sampling.Testing:    TestingFilePath,
	}
	splits := make(map[string]components.BigQueryQuery, 3)
	for _, name := range []string{sampling.Training, sampling.Validation, sampling.Testing} {
		s, _ := p.Plan.Split(name)
		query, err := sampling.Query(p.SourceTable, p.Plan.NumLots, s.Lots)
		if err != nil {
			return nil, fmt.Errorf("%s split: %w", name, err)
		}
		splits[name] = reg.BigQueryQuery(b, "create-"+name+"-split", components.BigQueryQueryArgs{
			Query:           query,
			ProjectID:       projectID,
			DatasetID:       datasetID,
			TableID:         "",
			OutputGCSPath:   graph.Path(gcsRoot, files[name]),
			DatasetLocation: location,
		})
	}
	train, validation, testing := splits[sampling.Training], splits[sampling.Validation], splits[sampling.Testing]

	tune := reg.MLEngineTrain(b, "hypertune", components.MLEngineTrainArgs{
		ProjectID:      projectID,
		Region:         region,
		MasterImageURI: p.TrainerImage,
		JobDir:         graph.Path(gcsRoot, "jobdir/hypertune", graph.RunID),
		Args: graph.List{
			graph.Lit("--training_dataset_path"), train.OutputGCSPath(),
			graph.Lit("--validation_dataset_path"), validation.OutputGCSPath(),
			graph.Lit("--evaluate"), graph.Lit("True"),
			graph.Lit("--save_model"), graph.Lit("False"),
		},
		TrainingInput: tuningInput,
	})

	best := reg.RetrieveBestRun(b, "retrieve-best-run", projectID, tune.JobID())

	// The final model trains on the combined training and validation splits.
	trainer := reg.MLEngineTrain(b, "train", components.MLEngineTrainArgs{
		ProjectID:      projectID,
		Region:         region,
		MasterImageURI: p.TrainerImage,
		JobDir:         graph.Path(gcsRoot, "jobdir", graph.RunID),
		Args: graph.List{
			graph.Lit("--training_dataset_path"), train.OutputGCSPath(),
			graph.Lit("--validation_dataset_path"), validation.OutputGCSPath(),
			graph.Lit("--alpha"), best.Alpha(),
			graph.Lit("--max_iter"), best.MaxIter(),
			graph.Lit("--evaluate"), graph.Lit("False"),
			graph.Lit("--save_model"), graph.Lit("True"),
		},
	})

	evaluate := reg.EvaluateModel(b, "evaluate", components.EvaluateModelArgs{
		DatasetPath: testing.OutputGCSPath(),
		ModelPath:   trainer.JobDir(),
		MetricName:  metricName,
	})

	if d := p.Deploy; d != nil {
		reg.MLEngineDeploy(b, "deploy", components.MLEngineDeployArgs{
			ModelURI:               trainer.JobDir(),
			ProjectID:              projectID,
			ModelID:                d.ModelID,
			VersionID:              orNil(d.VersionID),
			RuntimeVersion:         orNil(d.RuntimeVersion),
			PythonVersion:          orNil(d.PythonVersion),
			ReplaceExistingVersion: d.ReplaceExistingVersion,
		}).When(graph.Gt(evaluate.MetricValue(), threshold))
	}

	b.Use(components.PipelineConf{Region: region, ArtifactRoot: gcsRoot})
	return b.Build()
}

func planSummary(p sampling.Plan) string {
	s := strconv.Itoa(p.NumLots)
	for _, sp := range p.Splits {
		s += " " + sp.Name + "="
		for i, l := range sp.Lots {
			if i > 0 {
				s += ","
			}
			s += strconv.Itoa(l)
		}
	}
	return s
}
