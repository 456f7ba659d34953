// Package config loads the process configuration once, from an optional
// config file overlaid by environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"ml-pipelines/internal/components"
	"ml-pipelines/internal/pipelines"
)

// ErrMissingConfig is wrapped when required settings are absent.
var ErrMissingConfig = errors.New("missing configuration")

// MissingError lists the environment variables a feature needs but lacks.
type MissingError struct {
	Feature string
	Vars    []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s needs %s", ErrMissingConfig.Error(), e.Feature, strings.Join(e.Vars, ", "))
}

func (e *MissingError) Unwrap() error { return ErrMissingConfig }

// StorageConfig holds the S3-compatible artifact store settings.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
}

// Config is the whole process configuration.
type Config struct {
	// Images and component resolution
	BaseImage                string `mapstructure:"base_image"`
	TrainerImage             string `mapstructure:"trainer_image"`
	ComponentURLSearchPrefix string `mapstructure:"component_url_search_prefix"`
	GCPComponentImage        string `mapstructure:"gcp_component_image"`
	TFXImage                 string `mapstructure:"tfx_image"`

	// TFX pipeline environment
	PipelineName     string `mapstructure:"pipeline_name"`
	ProjectID        string `mapstructure:"project_id"`
	GCPRegion        string `mapstructure:"gcp_region"`
	DataRootURI      string `mapstructure:"data_root_uri"`
	ArtifactStoreURI string `mapstructure:"artifact_store_uri"`
	RuntimeVersion   string `mapstructure:"runtime_version"`
	PythonVersion    string `mapstructure:"python_version"`

	// Service
	ServerAddr     string `mapstructure:"server_addr"`
	DBPath         string `mapstructure:"db_path"`
	OutputDir      string `mapstructure:"output_dir"`
	ServiceAccount string `mapstructure:"service_account"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`

	Storage StorageConfig `mapstructure:"storage"`
}

// env maps every config key to its environment variable.
var env = map[string]string{
	"base_image":                  "BASE_IMAGE",
	"trainer_image":               "TRAINER_IMAGE",
	"component_url_search_prefix": "COMPONENT_URL_SEARCH_PREFIX",
	"gcp_component_image":         "GCP_COMPONENT_IMAGE",
	"tfx_image":                   "TFX_IMAGE",
	"pipeline_name":               "PIPELINE_NAME",
	"project_id":                  "PROJECT_ID",
	"gcp_region":                  "GCP_REGION",
	"data_root_uri":               "DATA_ROOT_URI",
	"artifact_store_uri":          "ARTIFACT_STORE_URI",
	"runtime_version":             "RUNTIME_VERSION",
	"python_version":              "PYTHON_VERSION",
	"server_addr":                 "SERVER_ADDR",
	"db_path":                     "DB_PATH",
	"output_dir":                  "OUTPUT_DIR",
	"service_account":             "SERVICE_ACCOUNT",
	"log_level":                   "LOG_LEVEL",
	"log_format":                  "LOG_FORMAT",
	"storage.endpoint":            "STORAGE_ENDPOINT",
	"storage.access_key_id":       "STORAGE_ACCESS_KEY_ID",
	"storage.secret_access_key":   "STORAGE_SECRET_ACCESS_KEY",
	"storage.use_ssl":             "STORAGE_USE_SSL",
	"storage.bucket":              "STORAGE_BUCKET",
}

var defaults = map[string]any{
	"gcp_component_image": "gcr.io/ml-pipeline/ml-pipeline-gcp:0.2.5",
	"runtime_version":     "2.1",
	"python_version":      "3.7",
	"server_addr":         ":8080",
	"db_path":             "pipelines.db",
	"output_dir":          "output",
	"service_account":     "pipeline-runner",
	"log_level":           "INFO",
	"log_format":          "text",
	"storage.use_ssl":     false,
	"storage.bucket":      "pipelines",
}

// Load reads the optional config file at path, then the environment.
// Environment variables win over the file.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

type requirement struct {
	name  string
	value string
}

func require(feature string, reqs ...requirement) error {
	var missing []string
	for _, r := range reqs {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Feature: feature, Vars: missing}
	}
	return nil
}

// RequireKFP checks what the covertype pipeline needs.
func (c Config) RequireKFP() error {
	return require("kfp pipelines",
		requirement{"BASE_IMAGE", c.BaseImage},
		requirement{"TRAINER_IMAGE", c.TrainerImage},
		requirement{"COMPONENT_URL_SEARCH_PREFIX", c.ComponentURLSearchPrefix},
		requirement{"GCP_COMPONENT_IMAGE", c.GCPComponentImage},
	)
}

// RequireTFX checks what the TFX presets need.
func (c Config) RequireTFX() error {
	return require("tfx pipelines",
		requirement{"PROJECT_ID", c.ProjectID},
		requirement{"GCP_REGION", c.GCPRegion},
		requirement{"TFX_IMAGE", c.TFXImage},
		requirement{"DATA_ROOT_URI", c.DataRootURI},
		requirement{"ARTIFACT_STORE_URI", c.ArtifactStoreURI},
	)
}

// RequireStorage checks what publishing needs.
func (c Config) RequireStorage() error {
	return require("publishing",
		requirement{"STORAGE_ENDPOINT", c.Storage.Endpoint},
		requirement{"STORAGE_ACCESS_KEY_ID", c.Storage.AccessKeyID},
		requirement{"STORAGE_SECRET_ACCESS_KEY", c.Storage.SecretAccessKey},
		requirement{"STORAGE_BUCKET", c.Storage.Bucket},
	)
}

// ComponentOptions configures the component registry.
func (c Config) ComponentOptions() components.Options {
	return components.Options{
		URLSearchPrefix: c.ComponentURLSearchPrefix,
		GCPImage:        c.GCPComponentImage,
		BaseImage:       c.BaseImage,
		TFXImage:        c.TFXImage,
	}
}

// Environment is the TFX preset environment.
func (c Config) Environment() pipelines.Environment {
	return pipelines.Environment{
		PipelineName:     c.PipelineName,
		ProjectID:        c.ProjectID,
		Region:           c.GCPRegion,
		TFXImage:         c.TFXImage,
		DataRootURI:      c.DataRootURI,
		ArtifactStoreURI: c.ArtifactStoreURI,
		RuntimeVersion:   c.RuntimeVersion,
		PythonVersion:    c.PythonVersion,
	}
}
