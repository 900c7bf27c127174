package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/modelmirror/internal/resolver"
)

var (
	// ErrUnknownType is returned when no instance is assignable to the
	// requested type.
	ErrUnknownType = errors.New("no instance of type")

	// ErrAmbiguousType is returned when more than one instance is assignable
	// to the requested type and exactly one was asked for.
	ErrAmbiguousType = errors.New("multiple instances of type")

	// ErrNameNotFound is returned for a by-name lookup of an unknown
	// identity.
	ErrNameNotFound = errors.New("no instance named")

	// ErrTypeMismatch is returned when a named instance exists but is not
	// assignable to the requested type.
	ErrTypeMismatch = errors.New("instance type mismatch")
)

// RequestKind tags what shape of result a query wants.
type RequestKind int

const (
	// RequestSingle asks for exactly one assignable instance.
	RequestSingle RequestKind = iota
	// RequestList asks for every assignable instance in first-resolved order.
	RequestList
	// RequestMap asks for every assignable instance keyed by identity.
	RequestMap
)

// Container answers type-directed queries over one completed resolution pass.
// It holds no locks: the underlying graph is immutable once built.
type Container struct {
	graph *resolver.Graph
}

// New wraps a finished graph.
func New(graph *resolver.Graph) *Container {
	return &Container{graph: graph}
}

// Root returns the resolved document root.
func (c *Container) Root() any { return c.graph.Root() }

// Graph exposes the underlying instance graph, for diagnostics.
func (c *Container) Graph() *resolver.Graph { return c.graph }

// GetOne returns the single instance assignable to t.
func (c *Container) GetOne(t reflect.Type) (any, error) {
	matches := c.assignable(t)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w %s", ErrUnknownType, t)
	case 1:
		v, _ := c.graph.Value(matches[0])
		return v, nil
	default:
		return nil, fmt.Errorf("%w %s: %s", ErrAmbiguousType, t, strings.Join(matches, ", "))
	}
}

// GetByName returns the instance with the given identity, checked against t.
// A leading "$" reference form is translated through the pass's alias map.
func (c *Container) GetByName(t reflect.Type, name string) (any, error) {
	if strings.HasPrefix(name, "$") {
		if id, ok := c.graph.Alias(name); ok {
			name = id
		}
	}
	v, ok := c.graph.Value(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNameNotFound, name)
	}
	if t != nil && !assignableTo(v, t) {
		return nil, fmt.Errorf("%w: %q is %T, not %s", ErrTypeMismatch, name, v, t)
	}
	return v, nil
}

// GetList returns every instance assignable to t, in first-resolved order.
func (c *Container) GetList(t reflect.Type) []any {
	ids := c.assignable(t)
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i], _ = c.graph.Value(id)
	}
	return out
}

// GetMap returns every instance assignable to t, keyed by identity.
func (c *Container) GetMap(t reflect.Type) map[string]any {
	ids := c.assignable(t)
	out := make(map[string]any, len(ids))
	for _, id := range ids {
		out[id], _ = c.graph.Value(id)
	}
	return out
}

// Query is the kind-tagged entry point behind the convenience methods.
func (c *Container) Query(kind RequestKind, t reflect.Type, name string) (any, error) {
	switch kind {
	case RequestList:
		return c.GetList(t), nil
	case RequestMap:
		return c.GetMap(t), nil
	default:
		if name != "" {
			return c.GetByName(t, name)
		}
		return c.GetOne(t)
	}
}

// assignable returns the identities of instances assignable to t, in
// first-resolved order.
func (c *Container) assignable(t reflect.Type) []string {
	var ids []string
	for _, id := range c.graph.Identities() {
		v, ok := c.graph.Value(id)
		if ok && assignableTo(v, t) {
			ids = append(ids, id)
		}
	}
	return ids
}

func assignableTo(v any, t reflect.Type) bool {
	if v == nil || t == nil {
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}
