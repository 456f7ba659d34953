package graph

import "sort"

// Graph is an assembled pipeline. It is immutable once returned by Build:
// the step mutators have no effect on a built step.
type Graph struct {
	Name        string
	Description string
	Params      []ParamSpec
	Annotations map[string]string

	// Steps are in topological order; ties keep program order.
	Steps []*Step

	index map[string]*Step
}

// Edge is one data or ordering dependency. Output and Input are empty for
// ordering-only edges; Input is "when" for condition operands.
type Edge struct {
	From   string `json:"from"`
	Output string `json:"output,omitempty"`
	To     string `json:"to"`
	Input  string `json:"input,omitempty"`
}

// Step looks up a step by ID.
func (g *Graph) Step(id string) (*Step, bool) {
	s, ok := g.index[id]
	return s, ok
}

// Param looks up a pipeline parameter.
func (g *Graph) Param(name string) (ParamSpec, bool) {
	for _, p := range g.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Edges lists every dependency, grouped by consuming step in graph order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, s := range g.Steps {
		for _, name := range s.InputNames() {
			for _, ref := range refsOf(s.inputs[name]) {
				edges = append(edges, Edge{From: ref.step.ID, Output: ref.name, To: s.ID, Input: name})
			}
		}
		if c, ok := s.Condition(); ok {
			for _, ref := range append(refsOf(c.Left), refsOf(c.Right)...) {
				edges = append(edges, Edge{From: ref.step.ID, Output: ref.name, To: s.ID, Input: "when"})
			}
		}
		for _, up := range s.after {
			edges = append(edges, Edge{From: up.ID, To: s.ID})
		}
	}
	return edges
}

// Sources returns the upstream outputs bound, directly or inside a composite
// value, to one input of a step.
func (g *Graph) Sources(stepID, input string) []OutputRef {
	s, ok := g.index[stepID]
	if !ok {
		return nil
	}
	return refsOf(s.inputs[input])
}

// Upstream returns every step the given step transitively depends on, in
// graph order.
func (g *Graph) Upstream(stepID string) []string {
	seen := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		s, ok := g.index[id]
		if !ok {
			return
		}
		for _, dep := range s.Dependencies() {
			if !seen[dep] {
				seen[dep] = true
				visit(dep)
			}
		}
	}
	visit(stepID)

	out := make([]string, 0, len(seen))
	for _, s := range g.Steps {
		if seen[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}

// Leaves returns the steps nothing depends on, sorted by ID.
func (g *Graph) Leaves() []string {
	consumed := make(map[string]bool)
	for _, e := range g.Edges() {
		consumed[e.From] = true
	}
	var out []string
	for _, s := range g.Steps {
		if !consumed[s.ID] {
			out = append(out, s.ID)
		}
	}
	sort.Strings(out)
	return out
}
