package graph

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// Step IDs become container template names, so they follow DNS label rules.
var stepIDPattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidID reports whether id can name a step or a pipeline.
func ValidID(id string) bool { return stepIDPattern.MatchString(id) }

var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParamSpec declares a pipeline-level parameter.
type ParamSpec struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

// Transformer applies pipeline-wide configuration to a step.
type Transformer interface {
	Transform(s *Step)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(s *Step)

func (f TransformerFunc) Transform(s *Step) { f(s) }

// Builder collects steps in program order. It is not safe for concurrent use.
type Builder struct {
	name        string
	description string

	params      []ParamSpec
	paramIndex  map[string]int
	steps       []*Step
	ids         map[string]bool
	transforms  []Transformer
	annotations map[string]string

	errs   []error
	built  bool
	frozen bool
}

// New starts an empty pipeline definition. The name becomes the workflow's
// generate name, so it follows the step ID rules.
func New(name, description string) *Builder {
	b := &Builder{
		name:        name,
		description: description,
		paramIndex:  make(map[string]int),
		ids:         make(map[string]bool),
		annotations: make(map[string]string),
	}
	if !ValidID(name) {
		b.fail(&StructuralError{Kind: KindInvalidID, Msg: fmt.Sprintf("invalid pipeline name: %q", name)})
	}
	return b
}

// Param declares a pipeline parameter and returns a reference to it.
func (b *Builder) Param(name, typ string, def any) ParamRef {
	switch {
	case !paramNamePattern.MatchString(name):
		b.fail(&StructuralError{Kind: KindInvalidID, Msg: fmt.Sprintf("invalid parameter name: %q", name)})
	case b.hasParam(name):
		b.fail(&StructuralError{Kind: KindDuplicateParam, Msg: fmt.Sprintf("duplicate parameter: %q", name)})
	default:
		b.paramIndex[name] = len(b.params)
		b.params = append(b.params, ParamSpec{Name: name, Type: typ, Default: def})
	}
	return ParamRef{Name: name, builder: b}
}

func (b *Builder) hasParam(name string) bool {
	_, ok := b.paramIndex[name]
	return ok
}

// Use registers transformers applied to every step at Build time, in order.
func (b *Builder) Use(ts ...Transformer) {
	b.transforms = append(b.transforms, ts...)
}

// Annotate attaches pipeline-level metadata.
func (b *Builder) Annotate(key, value string) {
	b.annotations[key] = value
}

// Fail records an error detected by a caller while wiring the pipeline.
func (b *Builder) Fail(err error) {
	if err != nil {
		b.fail(err)
	}
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}

// Add instantiates c as a new step and binds args to its inputs. The step
// is returned even when binding fails so wiring can continue; Build reports
// every recorded error.
func (b *Builder) Add(id string, c *Component, args Args) *Step {
	return b.add(id, c, args, false)
}

func (b *Builder) add(id string, c *Component, args Args, unresolved bool) *Step {
	s := &Step{
		ID:         id,
		Component:  c,
		inputs:     make(map[string]Value),
		builder:    b,
		seq:        len(b.steps),
		unresolved: unresolved,
	}

	switch {
	case id == "":
		b.fail(&StructuralError{Kind: KindEmptyID, Msg: fmt.Sprintf("step %d has an empty id", s.seq)})
	case !ValidID(id):
		b.fail(&StructuralError{Kind: KindInvalidID, Msg: fmt.Sprintf("invalid step id: %q", id)})
	case b.ids[id]:
		b.fail(&StructuralError{Kind: KindDuplicateID, Msg: fmt.Sprintf("duplicate step id: %q", id)})
	}
	b.ids[id] = true
	b.steps = append(b.steps, s)

	if c == nil {
		if !unresolved {
			b.fail(&BindingError{Step: id, Kind: KindMissingComponent, Msg: "no component given"})
		}
		return s
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := ValueOf(args[name])
		if v == nil {
			continue
		}
		port, ok := c.Input(name)
		if !ok {
			b.fail(&BindingError{Step: id, Field: name, Kind: KindUnknownInput,
				Msg: fmt.Sprintf("component %q declares no input %q", c.Name, name)})
			continue
		}
		if b.check(s, name, port, v) {
			s.inputs[name] = v
		}
	}

	for _, port := range c.Inputs {
		if _, bound := s.inputs[port.Name]; bound || !port.Required() {
			continue
		}
		if _, given := args[port.Name]; given && args[port.Name] != nil {
			continue // already reported as a bad binding
		}
		b.fail(&BindingError{Step: id, Field: port.Name, Kind: KindMissingInput,
			Msg: fmt.Sprintf("required input of component %q is not bound", c.Name)})
	}
	return s
}

// Unresolved reserves id for a step whose component could not be loaded and
// records cause. Bindings to the step's outputs are not reported again, so
// Build returns cause rather than a cascade of follow-on binding errors.
func (b *Builder) Unresolved(id string, cause error) *Step {
	b.Fail(cause)
	return b.add(id, nil, nil, true)
}

// check validates every leaf of v against the receiving port. It reports
// whether the binding is usable.
func (b *Builder) check(s *Step, field string, port Port, v Value) bool {
	ok := true
	bad := func(kind, msg string) {
		ok = false
		b.fail(&BindingError{Step: s.ID, Field: field, Kind: kind, Msg: msg})
	}

	walk(v, func(leaf Value, nested bool) {
		switch t := leaf.(type) {
		case OutputRef:
			switch {
			case t.step == nil:
				bad(KindDanglingRef, "reference to no step")
			case t.err != nil:
				bad(KindUndeclaredOutput, fmt.Sprintf("references undeclared output %q of step %q", t.name, t.step.ID))
			case t.step.builder != b:
				bad(KindForeignRef, fmt.Sprintf("references step %q of another pipeline", t.step.ID))
			case t.step == s:
				bad(KindDanglingRef, "step references its own output")
			case t.step.seq > s.seq:
				bad(KindDanglingRef, fmt.Sprintf("forward reference to step %q", t.step.ID))
			case t.step.unresolved:
				// The load failure is already recorded.
				ok = false
			case t.port.Kind == KindArtifact && nested:
				bad(KindTypeMismatch, fmt.Sprintf("artifact output %q of step %q cannot be embedded in a composite value", t.name, t.step.ID))
			case t.port.Kind != port.Kind:
				bad(KindTypeMismatch, fmt.Sprintf("%s output %q of step %q bound to %s input", t.port.Kind, t.name, t.step.ID, port.Kind))
			}
		case ParamRef:
			switch {
			case t.builder != b:
				bad(KindForeignRef, fmt.Sprintf("references parameter %q of another pipeline", t.Name))
			case !b.hasParam(t.Name):
				bad(KindUnknownParam, fmt.Sprintf("references undeclared parameter %q", t.Name))
			case port.Kind == KindArtifact:
				bad(KindTypeMismatch, fmt.Sprintf("parameter %q bound to artifact input", t.Name))
			}
		default:
			if port.Kind == KindArtifact {
				bad(KindTypeMismatch, "artifact input must be bound to an upstream artifact output")
			}
		}
	})
	return ok
}

// Build applies transformers, orders the steps and returns the immutable
// graph. It returns every error recorded during construction, joined.
func (b *Builder) Build() (*Graph, error) {
	if b.built {
		return nil, &StructuralError{Kind: KindAlreadyBuilt, Msg: fmt.Sprintf("pipeline %q was already built", b.name)}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	b.built = true

	for _, s := range b.steps {
		for _, t := range b.transforms {
			t.Transform(s)
		}
	}
	b.frozen = true

	var errs []error
	for _, s := range b.steps {
		for _, e := range s.Env() {
			if len(refsOf(e.Value)) > 0 {
				errs = append(errs, &StructuralError{Kind: KindEnvReference,
					Msg: fmt.Sprintf("step %q: env %q references a step output", s.ID, e.Name)})
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	order, err := topoSort(b.steps)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Name:        b.name,
		Description: b.description,
		Params:      append([]ParamSpec(nil), b.params...),
		Annotations: make(map[string]string, len(b.annotations)),
		Steps:       order,
		index:       make(map[string]*Step, len(order)),
	}
	for k, v := range b.annotations {
		g.Annotations[k] = v
	}
	for _, s := range order {
		g.index[s.ID] = s
	}
	return g, nil
}

// topoSort orders steps with Kahn's algorithm, breaking ties by program order.
func topoSort(steps []*Step) ([]*Step, error) {
	indegree := make(map[string]int, len(steps))
	downstream := make(map[string][]*Step)
	for _, s := range steps {
		deps := s.Dependencies()
		indegree[s.ID] = len(deps)
		for _, d := range deps {
			downstream[d] = append(downstream[d], s)
		}
	}

	var ready []*Step
	for _, s := range steps {
		if indegree[s.ID] == 0 {
			ready = append(ready, s)
		}
	}

	order := make([]*Step, 0, len(steps))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return ready[i].seq < ready[j].seq })
		s := ready[0]
		ready = ready[1:]
		order = append(order, s)
		for _, next := range downstream[s.ID] {
			indegree[next.ID]--
			if indegree[next.ID] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(steps) {
		var stuck []string
		for _, s := range steps {
			if indegree[s.ID] > 0 {
				stuck = append(stuck, s.ID)
			}
		}
		return nil, &StructuralError{Kind: KindCycle, Msg: fmt.Sprintf("cycle detected among steps %v", stuck)}
	}
	return order, nil
}
