package components

import (
	"strconv"
	"strings"

	"ml-pipelines/internal/graph"
)

// Defaults applied by PipelineConf.
const (
	DefaultSecretName = "user-gcp-sa"
	DefaultSecretPath = "/secret/gcp-credentials"
)

// PipelineConf applies the cross-cutting GCP configuration to every step:
// the service account secret, the execution region and the artifact root.
type PipelineConf struct {
	SecretName   string // defaults to DefaultSecretName
	MountPath    string // defaults to DefaultSecretPath
	Region       any    // exported as CLOUD_REGION when set
	ArtifactRoot any    // exported as ARTIFACT_ROOT when set
}

// Transform implements graph.Transformer.
func (c PipelineConf) Transform(s *graph.Step) {
	name := c.SecretName
	if name == "" {
		name = DefaultSecretName
	}
	mount := c.MountPath
	if mount == "" {
		mount = DefaultSecretPath
	}

	s.MountSecret(graph.SecretVolume{Name: name, MountPath: mount})
	credentials := strings.TrimSuffix(mount, "/") + "/" + name + ".json"
	s.SetEnv("GOOGLE_APPLICATION_CREDENTIALS", credentials)
	s.SetEnv("CLOUDSDK_AUTH_CREDENTIAL_FILE_OVERRIDE", credentials)

	if c.Region != nil {
		s.SetEnv("CLOUD_REGION", c.Region)
	}
	if c.ArtifactRoot != nil {
		s.SetEnv("ARTIFACT_ROOT", c.ArtifactRoot)
	}
}

// TFXRuntime hands the pipeline-level TFX settings to every TFX step.
// Other steps are left untouched.
type TFXRuntime struct {
	PipelineName string
	PipelineRoot any
	BeamArgs     []string
	EnableCache  bool
}

const tfxPrefix = "tfx/"

// Transform implements graph.Transformer.
func (t TFXRuntime) Transform(s *graph.Step) {
	if s.Component == nil || !strings.HasPrefix(s.Component.Name, tfxPrefix) {
		return
	}
	s.SetEnv("TFX_PIPELINE_NAME", t.PipelineName)
	if t.PipelineRoot != nil {
		s.SetEnv("TFX_PIPELINE_ROOT", t.PipelineRoot)
	}
	s.SetEnv("TFX_BEAM_PIPELINE_ARGS", t.BeamArgs)
	s.SetEnv("TFX_ENABLE_CACHE", strconv.FormatBool(t.EnableCache))
	s.SetLabel("tfx-component", strings.TrimPrefix(s.Component.Name, tfxPrefix))
}
