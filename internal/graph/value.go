package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Value is anything that can be bound to a step input.
type Value interface {
	isValue()
}

// Literal is a compile-time constant.
type Literal struct {
	V any
}

// ParamRef refers to a pipeline-level parameter declared with Builder.Param.
type ParamRef struct {
	Name    string
	builder *Builder
}

// OutputRef refers to a declared output of a step that was already added.
// Obtain one with Step.Output or a typed accessor.
type OutputRef struct {
	step *Step
	name string
	port Port
	err  *BindingError
}

// Step returns the producing step.
func (o OutputRef) Step() *Step { return o.step }

// Name returns the output name.
func (o OutputRef) Name() string { return o.name }

// Kind returns the kind of the referenced output port.
func (o OutputRef) Kind() Kind { return o.port.Kind }

// Placeholder is a value filled in by the execution engine at run time.
type Placeholder string

// RunID resolves to the unique identifier of a pipeline run.
const RunID Placeholder = "run_id"

// Concat renders its parts back to back as one string.
type Concat []Value

// List renders as a JSON array of its items.
type List []Value

// Object renders as a JSON object with keys in sorted order. It lets
// configuration documents embed parameters and upstream outputs.
type Object map[string]Value

func (Literal) isValue()     {}
func (ParamRef) isValue()    {}
func (OutputRef) isValue()   {}
func (Placeholder) isValue() {}
func (Concat) isValue()      {}
func (List) isValue()        {}
func (Object) isValue()      {}

// Lit wraps a constant.
func Lit(v any) Value { return Literal{V: v} }

// Path joins parts with "/" the way storage URIs are assembled.
func Path(parts ...any) Value {
	out := make(Concat, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			out = append(out, Lit("/"))
		}
		out = append(out, ValueOf(p))
	}
	return out
}

// ValueOf coerces a raw Go value into a Value. Values pass through,
// slices become Lists and everything else becomes a Literal.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return nil
	case Value:
		return t
	case []Value:
		return List(t)
	case []any:
		out := make(List, len(t))
		for i, item := range t {
			out[i] = ValueOf(item)
		}
		return out
	case []string:
		out := make(List, len(t))
		for i, item := range t {
			out[i] = Lit(item)
		}
		return out
	case map[string]Value:
		return Object(t)
	default:
		return Literal{V: v}
	}
}

// Args binds input names to values. Raw Go values are coerced with ValueOf;
// nil entries are treated as unbound.
type Args map[string]any

// Resolver turns references into the textual form understood by a backend.
type Resolver interface {
	Param(p ParamRef) string
	Output(o OutputRef) string
	Placeholder(p Placeholder) string
}

// Render renders v as a string. Non-string literals are JSON encoded.
func Render(v Value, r Resolver) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case Literal:
		if s, ok := t.V.(string); ok {
			return s, nil
		}
		b, err := json.Marshal(t.V)
		if err != nil {
			return "", fmt.Errorf("render literal: %w", err)
		}
		return string(b), nil
	case ParamRef:
		return r.Param(t), nil
	case OutputRef:
		return r.Output(t), nil
	case Placeholder:
		return r.Placeholder(t), nil
	case Concat:
		var sb strings.Builder
		for _, part := range t {
			s, err := Render(part, r)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	case List:
		items := make([]json.RawMessage, len(t))
		for i, item := range t {
			raw, err := renderJSON(item, r)
			if err != nil {
				return "", fmt.Errorf("render list item %d: %w", i, err)
			}
			items[i] = raw
		}
		b, err := json.Marshal(items)
		if err != nil {
			return "", fmt.Errorf("render list: %w", err)
		}
		return string(b), nil
	case Object:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			raw, err := renderJSON(t[k], r)
			if err != nil {
				return "", fmt.Errorf("render object key %q: %w", k, err)
			}
			sb.Write(kb)
			sb.WriteByte(':')
			sb.Write(raw)
		}
		sb.WriteByte('}')
		return sb.String(), nil
	default:
		return "", fmt.Errorf("render: unsupported value %T", v)
	}
}

// renderJSON renders v as a JSON fragment for embedding in a List or
// Object. Non-string literals and nested documents keep their JSON form;
// everything else becomes a JSON string.
func renderJSON(v Value, r Resolver) (json.RawMessage, error) {
	switch t := v.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case Literal:
		if _, isString := t.V.(string); !isString {
			return json.Marshal(t.V)
		}
	case List, Object:
		s, err := Render(v, r)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(s), nil
	}
	s, err := Render(v, r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// walk visits every leaf of v.
func walk(v Value, fn func(leaf Value, nested bool)) {
	var visit func(v Value, nested bool)
	visit = func(v Value, nested bool) {
		switch t := v.(type) {
		case Concat:
			for _, part := range t {
				visit(part, true)
			}
		case List:
			for _, item := range t {
				visit(item, true)
			}
		case Object:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				visit(t[k], true)
			}
		case nil:
		default:
			fn(v, nested)
		}
	}
	visit(v, false)
}

// refsOf returns the output references contained in v, in order.
func refsOf(v Value) []OutputRef {
	var out []OutputRef
	walk(v, func(leaf Value, _ bool) {
		if o, ok := leaf.(OutputRef); ok {
			out = append(out, o)
		}
	})
	return out
}
