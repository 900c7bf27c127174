package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/vk/modelmirror/internal/ctxlog"
)

var (
	// ErrDuplicateRegistration is returned when a (schema, version) pair is
	// registered twice.
	ErrDuplicateRegistration = errors.New("duplicate class registration")

	// ErrUnknownSchema is returned when no class matches the requested schema.
	ErrUnknownSchema = errors.New("unknown schema")

	// ErrAmbiguousSchema is returned for a version-less lookup of a schema
	// with more than one registered version.
	ErrAmbiguousSchema = errors.New("ambiguous schema")
)

// ClassReference describes one constructible target type. Immutable once
// registered.
type ClassReference struct {
	Schema  string
	Version string

	// Type is the struct type instances are built from. Instances are
	// handed out as pointers to this type.
	Type reflect.Type

	// New optionally overrides allocation. When nil the constructor
	// allocates reflect.New(Type).
	New func() any
}

// String implements fmt.Stringer for log and error output.
func (c ClassReference) String() string {
	return c.Schema + "@" + c.Version
}

// Module is the interface participating packages implement to contribute
// their classes to a registry at startup.
type Module interface {
	Register(r *Registry) error
}

// Registry holds every registered class for one engine instance. Registration
// is serialized; lookups after startup see an effectively immutable map.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]map[string]ClassReference // schema -> version -> ref
}

// New creates an empty class registry.
func New() *Registry {
	return &Registry{classes: make(map[string]map[string]ClassReference)}
}

// Register adds a class under its (schema, version) pair.
func (r *Registry) Register(ref ClassReference) error {
	if ref.Schema == "" {
		return fmt.Errorf("class registration requires a schema name")
	}
	if ref.Version == "" {
		return fmt.Errorf("class registration for schema %q requires a version", ref.Schema)
	}
	if ref.Type == nil && ref.New == nil {
		return fmt.Errorf("class registration for %s requires a type or a factory", ref)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	versions, ok := r.classes[ref.Schema]
	if !ok {
		versions = make(map[string]ClassReference)
		r.classes[ref.Schema] = versions
	}
	if _, exists := versions[ref.Version]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, ref)
	}
	versions[ref.Version] = ref
	return nil
}

// MustRegister is Register for process-init contexts where a failed
// registration is a programmer error.
func (r *Registry) MustRegister(ref ClassReference) {
	if err := r.Register(ref); err != nil {
		panic(err)
	}
}

// Lookup resolves a schema to its class reference. An empty version succeeds
// only when exactly one version of the schema is registered.
func (r *Registry) Lookup(schema, version string) (ClassReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.classes[schema]
	if !ok || len(versions) == 0 {
		return ClassReference{}, fmt.Errorf("%w: %q", ErrUnknownSchema, schema)
	}

	if version == "" {
		if len(versions) > 1 {
			return ClassReference{}, fmt.Errorf("%w: %q has %d registered versions, reference one explicitly", ErrAmbiguousSchema, schema, len(versions))
		}
		for _, ref := range versions {
			return ref, nil
		}
	}

	ref, ok := versions[version]
	if !ok {
		return ClassReference{}, fmt.Errorf("%w: %q version %q", ErrUnknownSchema, schema, version)
	}
	return ref, nil
}

// Schemas returns the registered schema names, for diagnostics.
func (r *Registry) Schemas() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for schema := range r.classes {
		out = append(out, schema)
	}
	return out
}

// Install runs every module's Register against this registry.
func (r *Registry) Install(ctx context.Context, modules ...Module) error {
	logger := ctxlog.FromContext(ctx)
	for _, mod := range modules {
		if err := mod.Register(r); err != nil {
			return fmt.Errorf("module registration failed: %w", err)
		}
	}
	logger.Debug("All modules registered.", "count", len(modules), "schemas", len(r.classes))
	return nil
}
