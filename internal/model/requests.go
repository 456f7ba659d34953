package model

import (
	"time"

	"ml-pipelines/internal/pipelines"
	"ml-pipelines/internal/sampling"
)

// CovertypeRequest is the body of POST /api/v1/pipelines/covertype. Omitted
// fields keep the covertype defaults; trainer_image falls back to the
// server's TRAINER_IMAGE.
type CovertypeRequest struct {
	pipelines.CovertypeParams
	Publish bool `json:"publish,omitempty"`
}

// TFX presets
const (
	PresetCovertype = "covertype"
	PresetCIFAR10   = "cifar10"
)

// TFXRequest is the body of POST /api/v1/pipelines/tfx.
type TFXRequest struct {
	Preset       string `json:"preset"` // covertype, cifar10
	PipelineName string `json:"pipeline_name,omitempty"`
	DisableCache bool   `json:"disable_cache,omitempty"`
	Publish      bool   `json:"publish,omitempty"`
}

// CompileResponse is returned after a successful compilation.
type CompileResponse struct {
	ID           string    `json:"id"`
	Pipeline     string    `json:"pipeline"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	GraphHash    string    `json:"graph_hash"`
	Steps        int       `json:"steps"`
	PublishedURI string    `json:"published_uri,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SamplingQueryRequest asks for split queries over a table. Either a plan or
// a single num_lots/lots pair is given; with neither, the default plan is used.
type SamplingQueryRequest struct {
	Table   string         `json:"table"`
	NumLots int            `json:"num_lots,omitempty"`
	Lots    []int          `json:"lots,omitempty"`
	Plan    *sampling.Plan `json:"plan,omitempty"`
}

// SamplingQueryResponse carries one query per requested split.
type SamplingQueryResponse struct {
	Table   string                `json:"table"`
	Queries []sampling.SplitQuery `json:"queries"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"` // failed compilation, when one was recorded
}
