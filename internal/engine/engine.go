package engine

import (
	"context"
	"fmt"

	"github.com/vk/modelmirror/internal/construct"
	"github.com/vk/modelmirror/internal/container"
	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/refparse"
	"github.com/vk/modelmirror/internal/registry"
	"github.com/vk/modelmirror/internal/resolver"
	"github.com/vk/modelmirror/internal/singleton"
)

// DefaultNamespace scopes singletons of engines that set no explicit one.
const DefaultNamespace = "default"

// Engine is one reflection engine instance. Engines are cheap; several may
// share a singleton registry (and a namespace) so that passes running on
// different goroutines observe the same singletons.
type Engine struct {
	classes    *registry.Registry
	singletons *singleton.Registry
	namespace  string
	resolver   *resolver.Resolver
	shapes     *construct.Binder

	nodeParser  refparse.NodeParser
	valueParser refparse.ValueParser
	ctor        construct.Constructor
}

// Option configures an Engine.
type Option func(*Engine)

// WithNamespace sets the singleton namespace, default "default".
func WithNamespace(ns string) Option {
	return func(e *Engine) { e.namespace = ns }
}

// WithSingletons shares a singleton registry between engines. Without it each
// engine owns a fresh registry.
func WithSingletons(s *singleton.Registry) Option {
	return func(e *Engine) { e.singletons = s }
}

// WithMarker changes the instance-request marker key, default "$mirror".
func WithMarker(marker string) Option {
	return func(e *Engine) { e.nodeParser = refparse.NewMarkerParser(marker) }
}

// WithNodeParser injects a custom instance-request parser.
func WithNodeParser(p refparse.NodeParser) Option {
	return func(e *Engine) { e.nodeParser = p }
}

// WithValueParser injects a custom scalar reference parser.
func WithValueParser(p refparse.ValueParser) Option {
	return func(e *Engine) { e.valueParser = p }
}

// WithConstructor replaces the default reflect binder as the construction
// collaborator.
func WithConstructor(c construct.Constructor) Option {
	return func(e *Engine) { e.ctor = c }
}

// New builds an engine over a populated class registry.
func New(classes *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		classes:     classes,
		namespace:   DefaultNamespace,
		nodeParser:  refparse.NewMarkerParser(""),
		valueParser: refparse.NewSigilParser(),
		ctor:        construct.NewBinder(),
		shapes:      construct.NewBinder(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.singletons == nil {
		e.singletons = singleton.NewRegistry()
	}
	e.resolver = resolver.New(e.classes, e.singletons,
		resolver.WithNodeParser(e.nodeParser),
		resolver.WithValueParser(e.valueParser),
		resolver.WithConstructor(e.ctor),
	)
	return e
}

// Namespace returns the engine's singleton namespace.
func (e *Engine) Namespace() string { return e.namespace }

// Singletons returns the engine's singleton registry, for callers that manage
// namespace lifetime explicitly.
func (e *Engine) Singletons() *singleton.Registry { return e.singletons }

// Reflect runs one resolution pass over doc and returns the query container.
func (e *Engine) Reflect(ctx context.Context, doc any) (*container.Container, error) {
	logger := ctxlog.FromContext(ctx)
	graph, err := e.resolver.Resolve(ctx, e.namespace, doc)
	if err != nil {
		return nil, err
	}
	logger.Debug("Reflection pass produced instance graph.", "namespace", e.namespace, "instances", len(graph.Identities()))
	return container.New(graph), nil
}

// ReflectInto runs one resolution pass and binds the resolved root into the
// caller-declared shape (a struct pointer with mirror tags). The query
// container is returned alongside the bound shape.
func (e *Engine) ReflectInto(ctx context.Context, doc any, shape any) (*container.Container, error) {
	c, err := e.Reflect(ctx, doc)
	if err != nil {
		return nil, err
	}
	root, ok := c.Root().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document root is %T, a shaped result needs a map root", c.Root())
	}
	if err := e.shapes.Bind(shape, root); err != nil {
		return nil, fmt.Errorf("binding shaped result: %w", err)
	}
	return c, nil
}

// Reset drops the engine's singleton namespace. Instances already handed out
// stay alive; subsequent passes start from an empty namespace.
func (e *Engine) Reset() {
	e.singletons.DropNamespace(e.namespace)
}
