// Package service compiles pipeline definitions and records the results.
// The HTTP handlers and the CLI share it.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ml-pipelines/internal/compiler"
	"ml-pipelines/internal/components"
	"ml-pipelines/internal/graph"
	"ml-pipelines/internal/metrics"
	"ml-pipelines/internal/model"
	"ml-pipelines/internal/pipelines"
	"ml-pipelines/internal/publish"
	"ml-pipelines/internal/sampling"
	"ml-pipelines/internal/store"
	"ml-pipelines/pkg/logger"
)

// Pipeline kinds
const (
	KindCovertype = "covertype"
	KindTFX       = "tfx"
)

// ErrUnknownPreset is returned for a TFX preset that does not exist.
var ErrUnknownPreset = errors.New("unknown tfx preset")

// Options carries the process configuration the service needs.
type Options struct {
	TrainerImage   string
	ServiceAccount string
	Environment    pipelines.Environment
	Labels         map[string]string
}

// Service builds graphs, compiles them and optionally stores and publishes
// the result.
type Service struct {
	reg  *components.Registry
	opts Options
	pub  *publish.Publisher
}

// New creates a service. pub may be nil, which disables publishing.
func New(reg *components.Registry, opts Options, pub *publish.Publisher) *Service {
	return &Service{reg: reg, opts: opts, pub: pub}
}

// Result is one compiled definition.
type Result struct {
	Kind     string
	Name     string
	Graph    *graph.Graph
	Workflow *compiler.Workflow
	YAML     []byte
	Hash     string
	Params   json.RawMessage
}

// Covertype compiles the covertype graph. An empty trainer image and empty
// deploy runtime versions fall back to the configured ones.
func (s *Service) Covertype(p pipelines.CovertypeParams) (*Result, error) {
	if p.TrainerImage == "" {
		p.TrainerImage = s.opts.TrainerImage
	}
	if p.Deploy != nil {
		d := *p.Deploy
		if d.RuntimeVersion == "" {
			d.RuntimeVersion = s.opts.Environment.RuntimeVersion
		}
		if d.PythonVersion == "" {
			d.PythonVersion = s.opts.Environment.PythonVersion
		}
		p.Deploy = &d
	}
	return s.compile(KindCovertype, pipelines.CovertypeName, p, func() (*graph.Graph, error) {
		return pipelines.Covertype(s.reg, p)
	})
}

// TFXParams resolves a TFX request to the preset's parameters.
func (s *Service) TFXParams(req model.TFXRequest) (pipelines.TFXParams, error) {
	env := s.opts.Environment
	if req.PipelineName != "" {
		env.PipelineName = req.PipelineName
	}
	var p pipelines.TFXParams
	switch req.Preset {
	case model.PresetCovertype, "":
		p = pipelines.CovertypeTFX(env)
	case model.PresetCIFAR10:
		p = pipelines.CIFAR10(env)
	default:
		return pipelines.TFXParams{}, fmt.Errorf("%w: %q", ErrUnknownPreset, req.Preset)
	}
	p.EnableCache = p.EnableCache && !req.DisableCache
	return p, nil
}

// TFX compiles a TFX preset.
func (s *Service) TFX(req model.TFXRequest) (*Result, error) {
	p, err := s.TFXParams(req)
	if err != nil {
		return nil, err
	}
	return s.compile(KindTFX, p.Name, p, func() (*graph.Graph, error) {
		return pipelines.TFX(s.reg, p)
	})
}

func (s *Service) compile(kind, name string, params any, build func() (*graph.Graph, error)) (res *Result, err error) {
	start := time.Now()
	log := logger.With("pipeline", kind)
	defer func() {
		metrics.CompilationsTotal.WithLabelValues(kind, metrics.Status(err)).Inc()
		metrics.CompileDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			log.Warn("compilation failed", "error", err)
		}
	}()

	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	res = &Result{Kind: kind, Name: name, Params: encoded}

	g, err := build()
	if err != nil {
		return res, err
	}
	wf, err := compiler.Compile(g, compiler.Options{ServiceAccount: s.opts.ServiceAccount, Labels: s.opts.Labels})
	if err != nil {
		return res, err
	}
	data, err := compiler.Marshal(wf)
	if err != nil {
		return res, err
	}
	res.Graph, res.Workflow, res.YAML, res.Name = g, wf, data, g.Name
	res.Hash = wf.Metadata.Annotations[compiler.AnnotationGraphHash]

	log.Info("compiled pipeline", "name", g.Name, "steps", len(g.Steps), "hash", res.Hash)
	return res, nil
}

// Record stores a compiled result and, when asked, publishes it. A failed
// upload is recorded against the compilation and returned; the compilation
// itself stays stored.
func (s *Service) Record(ctx context.Context, res *Result, publishIt bool) (*model.Compilation, error) {
	c := &model.Compilation{
		ID:        uuid.New().String(),
		Pipeline:  res.Kind,
		Name:      res.Name,
		Status:    model.StatusCompiled,
		GraphHash: res.Hash,
		Params:    res.Params,
		Workflow:  string(res.YAML),
	}
	if err := store.SaveCompilation(c); err != nil {
		return nil, err
	}
	if !publishIt {
		return c, nil
	}

	uri, err := s.Publish(ctx, c.Pipeline, c.ID, res.YAML)
	if err != nil {
		if serr := store.SaveCompileError(c.ID, err); serr != nil {
			logger.Error("failed to save compile error", "id", c.ID, "error", serr)
		}
		return c, err
	}
	if err := store.SetPublishedURI(c.ID, uri); err != nil {
		return c, err
	}
	c.Status, c.PublishedURI = model.StatusPublished, uri
	return c, nil
}

// RecordFailure stores a failed compilation together with its error.
func (s *Service) RecordFailure(res *Result, cause error) (*model.Compilation, error) {
	c := &model.Compilation{
		ID:       uuid.New().String(),
		Pipeline: res.Kind,
		Name:     res.Name,
		Status:   model.StatusFailed,
		Params:   res.Params,
	}
	if err := store.SaveCompilation(c); err != nil {
		return nil, err
	}
	if err := store.SaveCompileError(c.ID, cause); err != nil {
		return c, err
	}
	return c, nil
}

// Publish uploads a workflow document and returns its URI.
func (s *Service) Publish(ctx context.Context, kind, id string, data []byte) (string, error) {
	if s.pub == nil {
		return "", publish.ErrDisabled
	}
	uri, err := s.pub.Publish(ctx, publish.Key(kind, id), data)
	if err != nil {
		return "", err
	}
	logger.Info("published workflow", "id", id, "uri", uri)
	return uri, nil
}

// Queries renders the split queries of a sampling request.
func (s *Service) Queries(req model.SamplingQueryRequest) (resp model.SamplingQueryResponse, err error) {
	defer func() { metrics.SamplingQueriesTotal.WithLabelValues(metrics.Status(err)).Inc() }()

	resp.Table = req.Table
	switch {
	case req.Plan != nil:
		resp.Queries, err = req.Plan.Queries(req.Table)
	case req.NumLots != 0 || len(req.Lots) > 0:
		var q string
		q, err = sampling.Query(req.Table, req.NumLots, req.Lots)
		resp.Queries = []sampling.SplitQuery{{Name: "query", Query: q}}
	default:
		resp.Queries, err = sampling.DefaultPlan().Queries(req.Table)
	}
	if err != nil {
		return model.SamplingQueryResponse{}, err
	}
	return resp, nil
}
