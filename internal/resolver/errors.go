package resolver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnresolvedReference is returned when a bare reference names a
	// singleton that was never completed by the end of the pass.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrCircularInline is returned for a dependency cycle that passes only
	// through inline (unnamed) instance requests. Such a cycle has no
	// placeholder to break it and can never construct.
	ErrCircularInline = errors.New("circular inline dependency")

	// ErrConstruction wraps a construction collaborator failure with the
	// identity and schema of the failed request.
	ErrConstruction = errors.New("construction failed")
)

// PathError carries the document location and identity chain of a resolution
// failure so callers can find the offending node.
type PathError struct {
	// Path is the sequence of keys and indices from the document root.
	Path []string

	// Identities is the chain of instance identities under construction,
	// outermost first.
	Identities []string

	Err error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	loc := formatPath(e.Path)
	if len(e.Identities) > 0 {
		return fmt.Sprintf("at %s (resolving %s): %v", loc, strings.Join(e.Identities, " -> "), e.Err)
	}
	return fmt.Sprintf("at %s: %v", loc, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *PathError) Unwrap() error { return e.Err }

// formatPath renders a document location like "items[2].db"; the root is "$".
func formatPath(path []string) string {
	if len(path) == 0 {
		return "$"
	}
	var b strings.Builder
	for i, seg := range path {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// wrapPath attaches location context once; nested PathErrors already carry
// the deepest location.
func wrapPath(path, identities []string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{
		Path:       append([]string(nil), path...),
		Identities: append([]string(nil), identities...),
		Err:        err,
	}
}
