package pipelines

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParams is wrapped when pipeline parameters are rejected before
// any step is added.
var ErrInvalidParams = errors.New("invalid pipeline parameters")

// ParamsError enumerates every rejected parameter of one pipeline.
type ParamsError struct {
	Pipeline string
	Problems []string
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidParams.Error(), e.Pipeline, strings.Join(e.Problems, "; "))
}

func (e *ParamsError) Unwrap() error { return ErrInvalidParams }

type problems struct {
	pipeline string
	list     []string
}

func (p *problems) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		p.list = append(p.list, field+" is required")
	}
}

func (p *problems) add(format string, args ...any) {
	p.list = append(p.list, fmt.Sprintf(format, args...))
}

func (p *problems) err() error {
	if len(p.list) == 0 {
		return nil
	}
	return &ParamsError{Pipeline: p.pipeline, Problems: p.list}
}
