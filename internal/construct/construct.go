package construct

import (
	"context"
	"fmt"

	"github.com/vk/modelmirror/internal/registry"
)

// Constructor builds an instance of a registered class from resolved
// parameters. Implementations report bad or missing parameters with a
// *ValidationError so callers can surface the offending parameter.
type Constructor interface {
	Construct(ctx context.Context, ref registry.ClassReference, params map[string]any) (any, error)
}

// Initializer is an optional hook on constructed types, invoked after
// parameter binding. Init errors fail the construction.
type Initializer interface {
	Init(ctx context.Context) error
}

// Deferred is a value whose materialization is still pending when it is bound
// as a parameter. The binder leaves the target field zero and registers an
// OnComplete callback to patch it once the value lands. *singleton.Record
// satisfies this interface.
type Deferred interface {
	Materialized() (any, bool)
	OnComplete(func(any) error) error
}

// ValidationError reports a parameter that could not be bound.
type ValidationError struct {
	Schema string
	Param  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("schema %q: %s", e.Schema, e.Reason)
	}
	return fmt.Sprintf("schema %q, parameter %q: %s", e.Schema, e.Param, e.Reason)
}
