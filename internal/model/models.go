// Package model holds the records and request bodies of the compile service.
package model

import (
	"encoding/json"
	"time"
)

// Compilation statuses
const (
	StatusCompiled  = "compiled"
	StatusFailed    = "failed"
	StatusPublished = "published"
)

// Compilation is a stored compile of a pipeline definition.
type Compilation struct {
	ID           string          `json:"id"`
	Pipeline     string          `json:"pipeline"` // covertype, tfx
	Name         string          `json:"name"`     // workflow generateName prefix
	Status       string          `json:"status"`
	GraphHash    string          `json:"graph_hash,omitempty"`
	Params       json.RawMessage `json:"params,omitempty" swaggertype:"object"`
	Workflow     string          `json:"-"`
	PublishedURI string          `json:"published_uri,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CompilationSummary is the row shape of a listing.
type CompilationSummary struct {
	ID           string    `json:"id"`
	Pipeline     string    `json:"pipeline"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	GraphHash    string    `json:"graph_hash,omitempty"`
	PublishedURI string    `json:"published_uri,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CompileError records why a compilation failed or could not be published.
type CompileError struct {
	ID            int64     `json:"id"`
	CompilationID string    `json:"compilation_id"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}
