package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// canonicalResolver renders references in a backend-neutral form for hashing.
type canonicalResolver struct{}

func (canonicalResolver) Param(p ParamRef) string {
	return "{{param:" + p.Name + "}}"
}

func (canonicalResolver) Output(o OutputRef) string {
	return "{{" + o.step.ID + "." + o.name + "}}"
}

func (canonicalResolver) Placeholder(p Placeholder) string {
	return "{{" + string(p) + "}}"
}

type canonicalStep struct {
	ID        string            `json:"id"`
	Component string            `json:"component"`
	Image     string            `json:"image"`
	Inputs    map[string]string `json:"inputs"`
	Env       map[string]string `json:"env"`
	Secrets   []string          `json:"secrets"`
	Deps      []string          `json:"deps"`
	When      string            `json:"when,omitempty"`
}

type canonicalGraph struct {
	Name   string          `json:"name"`
	Params []ParamSpec     `json:"params"`
	Steps  []canonicalStep `json:"steps"`
}

// Hash computes a stable sha256 of the graph. Step order, map ordering and
// the description do not affect it; bindings, images and parameters do.
func (g *Graph) Hash() (string, error) {
	var r canonicalResolver
	cg := canonicalGraph{Name: g.Name, Params: append([]ParamSpec(nil), g.Params...)}
	sort.Slice(cg.Params, func(i, j int) bool { return cg.Params[i].Name < cg.Params[j].Name })

	for _, s := range g.Steps {
		cs := canonicalStep{
			ID:      s.ID,
			Inputs:  make(map[string]string, len(s.inputs)),
			Env:     make(map[string]string, len(s.env)),
			Secrets: []string{},
			Deps:    s.Dependencies(),
		}
		if s.Component != nil {
			cs.Component = s.Component.Name
			cs.Image = s.Component.Image
		}
		for name, v := range s.inputs {
			rendered, err := Render(v, r)
			if err != nil {
				return "", fmt.Errorf("hash step %q input %q: %w", s.ID, name, err)
			}
			cs.Inputs[name] = rendered
		}
		for name, v := range s.env {
			rendered, err := Render(v, r)
			if err != nil {
				return "", fmt.Errorf("hash step %q env %q: %w", s.ID, name, err)
			}
			cs.Env[name] = rendered
		}
		for _, sv := range s.secrets {
			cs.Secrets = append(cs.Secrets, sv.Name+":"+sv.MountPath)
		}
		sort.Strings(cs.Secrets)
		sort.Strings(cs.Deps)
		if c, ok := s.Condition(); ok {
			left, err := Render(c.Left, r)
			if err != nil {
				return "", err
			}
			right, err := Render(c.Right, r)
			if err != nil {
				return "", err
			}
			cs.When = left + " " + string(c.Op) + " " + right
		}
		cg.Steps = append(cg.Steps, cs)
	}
	sort.Slice(cg.Steps, func(i, j int) bool { return cg.Steps[i].ID < cg.Steps[j].ID })

	// encoding/json sorts map keys.
	data, err := json.Marshal(cg)
	if err != nil {
		return "", fmt.Errorf("serialize graph for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
