package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrBinding indicates a step input bound to something it cannot use.
	ErrBinding = errors.New("binding error")

	// ErrStructural indicates a violation of graph shape: ids, parameters, cycles.
	ErrStructural = errors.New("structural error")
)

// Binding error kinds.
const (
	KindUnknownInput     = "unknown_input"
	KindMissingInput     = "missing_input"
	KindUndeclaredOutput = "undeclared_output"
	KindDanglingRef      = "dangling_reference"
	KindForeignRef       = "foreign_reference"
	KindUnknownParam     = "unknown_param"
	KindTypeMismatch     = "kind_mismatch"
	KindMissingComponent = "missing_component"
)

// Structural error kinds.
const (
	KindEmptyID        = "empty_id"
	KindInvalidID      = "invalid_id"
	KindDuplicateID    = "duplicate_id"
	KindDuplicateParam = "duplicate_param"
	KindCycle          = "cycle"
	KindAlreadyBuilt   = "already_built"
	KindEnvReference   = "env_reference"
)

// BindingError reports a step input that could not be bound.
// Wraps ErrBinding for errors.Is() compatibility.
type BindingError struct {
	Step  string // ID of the step being constructed
	Field string // Input (or "when") that holds the bad binding
	Kind  string // One of the Kind* binding constants
	Msg   string
}

func (e *BindingError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: step %q: field %q: %s", ErrBinding.Error(), e.Step, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: step %q: %s", ErrBinding.Error(), e.Step, e.Msg)
}

func (e *BindingError) Unwrap() error { return ErrBinding }

// StructuralError reports a graph-level violation.
// Wraps ErrStructural for errors.Is() compatibility.
type StructuralError struct {
	Kind string
	Msg  string
}

func (e *StructuralError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrStructural.Error()
	}
	return fmt.Sprintf("%s: %s", ErrStructural.Error(), e.Msg)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }
