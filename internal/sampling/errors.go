package sampling

import (
	"errors"
	"fmt"
)

// ErrInvalidSplit is returned for any sampling request that cannot select a
// well defined set of buckets.
var ErrInvalidSplit = errors.New("invalid split")

// SplitError names the offending field of a sampling request.
// Wraps ErrInvalidSplit for errors.Is() compatibility.
type SplitError struct {
	Split string // Split name, empty for a bare query
	Field string // source_table, num_lots or lots
	Msg   string
}

func (e *SplitError) Error() string {
	if e.Split != "" {
		return fmt.Sprintf("%s: split %q: %s: %s", ErrInvalidSplit.Error(), e.Split, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidSplit.Error(), e.Field, e.Msg)
}

func (e *SplitError) Unwrap() error { return ErrInvalidSplit }
