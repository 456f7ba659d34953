package graph

import (
	"fmt"
	"sort"
)

// Operator compares two condition operands.
type Operator string

const (
	OpGt Operator = ">"
	OpGe Operator = ">="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpEq Operator = "=="
	OpNe Operator = "!="
)

// Condition gates a step on a run-time comparison, usually an upstream metric.
type Condition struct {
	Left  Value
	Op    Operator
	Right Value
}

// Gt builds "left > right".
func Gt(left, right any) Condition {
	return Condition{Left: ValueOf(left), Op: OpGt, Right: ValueOf(right)}
}

// SecretVolume mounts a named secret into the step's container.
type SecretVolume struct {
	Name      string `json:"name"`
	MountPath string `json:"mount_path"`
}

// Step is one node of the pipeline graph: a component instance plus its
// bindings. Steps are descriptors; nothing runs at definition time.
type Step struct {
	ID        string
	Component *Component

	inputs  map[string]Value
	env     map[string]Value
	labels  map[string]string
	secrets []SecretVolume
	when    *Condition
	after   []*Step

	builder    *Builder
	seq        int
	unresolved bool
}

// frozen reports whether the owning pipeline has been built. A built step
// ignores further changes.
func (s *Step) frozen() bool {
	return s.builder != nil && s.builder.frozen
}

// Output returns a reference to a declared output. Referencing an output the
// component does not declare yields a reference that fails the build when bound.
func (s *Step) Output(name string) OutputRef {
	ref := OutputRef{step: s, name: name}
	if s.unresolved {
		return ref
	}
	if s.Component == nil {
		ref.err = &BindingError{Step: s.ID, Field: name, Kind: KindUndeclaredOutput,
			Msg: "step has no component"}
		return ref
	}
	port, ok := s.Component.Output(name)
	if !ok {
		ref.err = &BindingError{Step: s.ID, Field: name, Kind: KindUndeclaredOutput,
			Msg: fmt.Sprintf("component %q declares no output %q", s.Component.Name, name)}
		return ref
	}
	ref.port = port
	return ref
}

// Outputs lists the declared output names in declaration order.
func (s *Step) Outputs() []string {
	if s.Component == nil {
		return nil
	}
	names := make([]string, len(s.Component.Outputs))
	for i, p := range s.Component.Outputs {
		names[i] = p.Name
	}
	return names
}

// Input returns the value bound to an input.
func (s *Step) Input(name string) (Value, bool) {
	v, ok := s.inputs[name]
	return v, ok
}

// InputNames lists bound inputs in component declaration order.
func (s *Step) InputNames() []string {
	if s.Component == nil {
		return nil
	}
	names := make([]string, 0, len(s.inputs))
	for _, p := range s.Component.Inputs {
		if _, ok := s.inputs[p.Name]; ok {
			names = append(names, p.Name)
		}
	}
	return names
}

// When gates the step on c. Operands may reference parameter outputs of
// steps added earlier.
func (s *Step) When(c Condition) *Step {
	if s.frozen() {
		return s
	}
	s.when = &c
	if s.builder != nil {
		port := Port{Name: "when", Kind: KindParameter}
		s.builder.check(s, "when", port, c.Left)
		s.builder.check(s, "when", port, c.Right)
	}
	return s
}

// Condition returns the gating condition, if any.
func (s *Step) Condition() (Condition, bool) {
	if s.when == nil {
		return Condition{}, false
	}
	return *s.when, true
}

// After adds ordering-only dependencies on steps that share no data.
// The steps must have been added before s.
func (s *Step) After(steps ...*Step) *Step {
	if s.frozen() {
		return s
	}
	for _, up := range steps {
		if up == nil || up.builder != s.builder {
			s.builder.fail(&BindingError{Step: s.ID, Field: "after", Kind: KindForeignRef,
				Msg: "ordering dependency on a step outside this pipeline"})
			continue
		}
		if up.seq >= s.seq {
			s.builder.fail(&BindingError{Step: s.ID, Field: "after", Kind: KindDanglingRef,
				Msg: fmt.Sprintf("forward reference to step %q", up.ID)})
			continue
		}
		s.after = append(s.after, up)
	}
	return s
}

// SetEnv sets a container environment variable.
func (s *Step) SetEnv(name string, v any) {
	if s.frozen() {
		return
	}
	if s.env == nil {
		s.env = make(map[string]Value)
	}
	s.env[name] = ValueOf(v)
}

// Env returns the environment in name order.
func (s *Step) Env() []EnvVar {
	names := make([]string, 0, len(s.env))
	for k := range s.env {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]EnvVar, len(names))
	for i, n := range names {
		out[i] = EnvVar{Name: n, Value: s.env[n]}
	}
	return out
}

// EnvVar is one environment entry.
type EnvVar struct {
	Name  string
	Value Value
}

// SetLabel attaches metadata to the step.
func (s *Step) SetLabel(key, value string) {
	if s.frozen() {
		return
	}
	if s.labels == nil {
		s.labels = make(map[string]string)
	}
	s.labels[key] = value
}

// Labels returns a copy of the step labels.
func (s *Step) Labels() map[string]string {
	out := make(map[string]string, len(s.labels))
	for k, v := range s.labels {
		out[k] = v
	}
	return out
}

// MountSecret mounts a secret volume. Mounting the same secret twice is a no-op.
func (s *Step) MountSecret(v SecretVolume) {
	if s.frozen() {
		return
	}
	for _, existing := range s.secrets {
		if existing.Name == v.Name {
			return
		}
	}
	s.secrets = append(s.secrets, v)
}

// Secrets returns the mounted secret volumes.
func (s *Step) Secrets() []SecretVolume {
	return append([]SecretVolume(nil), s.secrets...)
}

// Dependencies returns the IDs of steps this step consumes from or runs
// after, in the order they were added to the pipeline.
func (s *Step) Dependencies() []string {
	seen := make(map[*Step]bool)
	var ups []*Step
	add := func(up *Step) {
		if up == nil || up == s || seen[up] {
			return
		}
		seen[up] = true
		ups = append(ups, up)
	}
	for _, name := range s.InputNames() {
		for _, ref := range refsOf(s.inputs[name]) {
			add(ref.step)
		}
	}
	if s.when != nil {
		for _, ref := range refsOf(s.when.Left) {
			add(ref.step)
		}
		for _, ref := range refsOf(s.when.Right) {
			add(ref.step)
		}
	}
	for _, up := range s.after {
		add(up)
	}
	sort.SliceStable(ups, func(i, j int) bool { return ups[i].seq < ups[j].seq })
	ids := make([]string, len(ups))
	for i, up := range ups {
		ids[i] = up.ID
	}
	return ids
}
