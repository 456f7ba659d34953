// Package components is the catalogue of opaque steps the pipelines are
// assembled from. Each entry declares an interface and a container image;
// what the container does is owned by the component's publisher.
package components

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ml-pipelines/internal/graph"
)

var (
	// ErrUnknownComponent is returned when no definition matches a name.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrMissingImage is returned when the image for a component family is not configured.
	ErrMissingImage = errors.New("component image not configured")
)

// Family groups components that share an image.
type Family string

const (
	FamilyGCP    Family = "gcp"    // prebuilt GCP components resolved under the URL search prefix
	FamilyHelper Family = "helper" // lightweight functions packaged on the base image
	FamilyTFX    Family = "tfx"    // TFX standard components
)

// Options configures image stamping and source resolution.
type Options struct {
	URLSearchPrefix string
	GCPImage        string
	BaseImage       string
	TFXImage        string
}

type definition struct {
	family    Family
	component graph.Component
}

// Registry resolves component definitions by name, the way a component
// store resolves them under a URL search prefix.
type Registry struct {
	opts Options
	defs map[string]definition
}

// NewRegistry returns a registry over the built-in catalogue.
func NewRegistry(opts Options) *Registry {
	r := &Registry{opts: opts, defs: make(map[string]definition, len(catalogue))}
	for _, d := range catalogue {
		r.defs[d.component.Name] = d
	}
	return r
}

// Options returns the registry configuration.
func (r *Registry) Options() Options {
	return r.opts
}

// Names lists the catalogue, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load returns an independent copy of the named component with its image
// and source stamped.
func (r *Registry) Load(name string) (*graph.Component, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	c := d.component.Clone()

	switch d.family {
	case FamilyGCP:
		c.Image = r.opts.GCPImage
		if r.opts.URLSearchPrefix != "" {
			c.Source = strings.TrimSuffix(r.opts.URLSearchPrefix, "/") + "/" + name + "/component.yaml"
		}
	case FamilyHelper:
		c.Image = r.opts.BaseImage
	case FamilyTFX:
		c.Image = r.opts.TFXImage
	}
	if c.Image == "" {
		return nil, fmt.Errorf("%w: %s components need an image for %q", ErrMissingImage, d.family, name)
	}
	return c, nil
}

// add loads a component and instantiates it as a step. Load failures are
// recorded on the builder so they surface from Build with the rest.
func (r *Registry) add(b *graph.Builder, id, name string, args graph.Args) *graph.Step {
	c, err := r.Load(name)
	if err != nil {
		return b.Unresolved(id, fmt.Errorf("step %q: %w", id, err))
	}
	return b.Add(id, c, args)
}
