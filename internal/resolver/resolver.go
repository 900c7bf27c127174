package resolver

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/vk/modelmirror/internal/construct"
	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/refparse"
	"github.com/vk/modelmirror/internal/registry"
	"github.com/vk/modelmirror/internal/singleton"
)

// Resolver turns parsed documents into instance graphs. It is stateless
// between passes; all shared state lives in the singleton registry, so one
// Resolver may serve concurrent passes.
type Resolver struct {
	classes    *registry.Registry
	singletons *singleton.Registry
	nodes      refparse.NodeParser
	values     refparse.ValueParser
	ctor       construct.Constructor
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNodeParser replaces the default "$mirror" marker parser.
func WithNodeParser(p refparse.NodeParser) Option {
	return func(r *Resolver) { r.nodes = p }
}

// WithValueParser replaces the default "$" scalar parser.
func WithValueParser(p refparse.ValueParser) Option {
	return func(r *Resolver) { r.values = p }
}

// WithConstructor replaces the default reflect binder.
func WithConstructor(c construct.Constructor) Option {
	return func(r *Resolver) { r.ctor = c }
}

// New creates a Resolver over the given class and singleton registries.
func New(classes *registry.Registry, singletons *singleton.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		classes:    classes,
		singletons: singletons,
		nodes:      refparse.NewMarkerParser(""),
		values:     refparse.NewSigilParser(),
		ctor:       construct.NewBinder(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// pass is the per-resolution state of one document walk.
type pass struct {
	r         *Resolver
	ctx       context.Context
	namespace string
	graph     *Graph

	inlineSeq int

	// idChain is the stack of identities under construction, for error
	// context.
	idChain []string

	// inProgress marks records this pass has claimed and is constructing.
	// Re-entry through one of them is a legal named cycle.
	inProgress map[*singleton.Record]bool

	// active marks container nodes currently being walked, by data pointer.
	// Re-entry without an intervening named record is an inline cycle.
	active map[uintptr]bool

	// created records placeholders this pass registered, for rollback.
	created []*singleton.Record

	// claimed records constructions this pass owns, also rolled back when
	// the pass aborts before completing them.
	claimed []*singleton.Record

	// pending maps records handed out as handles to the path of their first
	// use, checked at the end of the pass.
	pending map[*singleton.Record][]string

	// patches holds the container slots (map values, list elements) where a
	// pending handle was stored, so the sweep can swap in the materialized
	// value.
	patches map[*singleton.Record][]func(any)

	// depStack collects dependency identities for the request currently
	// resolving its parameters.
	depStack []*[]string
}

// Resolve runs one pass over doc within the given singleton namespace. On
// any failure the pass is aborted, placeholders it registered are removed,
// and no graph is returned.
func (r *Resolver) Resolve(ctx context.Context, namespace string, doc any) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	p := &pass{
		r:          r,
		ctx:        ctx,
		namespace:  namespace,
		graph:      newGraph(),
		inProgress: make(map[*singleton.Record]bool),
		active:     make(map[uintptr]bool),
		pending:    make(map[*singleton.Record][]string),
		patches:    make(map[*singleton.Record][]func(any)),
	}

	root, err := p.resolveNode(nil, doc)
	if err == nil {
		err = p.sweepPending()
	}
	if err != nil {
		p.rollback()
		return nil, err
	}

	// A bare reference at the document root is a handle until the sweep; by
	// now it is guaranteed materialized.
	if rec, ok := root.(*singleton.Record); ok {
		root, _ = rec.Materialized()
	}

	p.graph.root = root
	logger.Debug("Resolution pass finished.", "namespace", namespace, "instances", len(p.graph.order))
	return p.graph, nil
}

// resolveNode dispatches on the node's shape.
func (p *pass) resolveNode(path []string, node any) (any, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, wrapPath(path, p.idChain, err)
	}

	switch n := node.(type) {
	case map[string]any:
		return p.resolveMapNode(path, n)
	case []any:
		return p.resolveListNode(path, n)
	case string:
		return p.resolveScalar(path, n)
	default:
		return node, nil
	}
}

// resolveScalar classifies a string through the value parser: bare singleton
// reference, type reference, or literal.
func (p *pass) resolveScalar(path []string, value string) (any, error) {
	ref, err := p.r.values.Parse(value)
	if err != nil {
		return nil, wrapPath(path, p.idChain, err)
	}
	switch ref.Kind {
	case refparse.KindSingletonRef:
		return p.resolveBareRef(path, ref.Name)
	case refparse.KindTypeRef:
		return p.resolveTypeRef(path, ref.Name)
	default:
		return value, nil
	}
}

// resolveTypeRef returns the registered type itself, never an instance.
func (p *pass) resolveTypeRef(path []string, id string) (any, error) {
	schema, version := splitVersion(id)
	ref, err := p.r.classes.Lookup(schema, version)
	if err != nil {
		return nil, wrapPath(path, p.idChain, err)
	}
	if ref.Type == nil {
		return nil, wrapPath(path, p.idChain, fmt.Errorf("schema %q is factory-only and has no referencable type", schema))
	}
	return ref.Type, nil
}

// resolveBareRef resolves a "$name" scalar. The referenced singleton may not
// exist yet (forward reference) or may still be under construction (cycle);
// both hand out the record as a handle whose value lands later in the pass.
func (p *pass) resolveBareRef(path []string, name string) (any, error) {
	rec, created := p.r.singletons.GetOrCreatePlaceholder(p.namespace, name)
	if created {
		p.created = append(p.created, rec)
	}
	p.noteDep(name)

	if v, ok := rec.Materialized(); ok {
		p.adoptShared(rec)
		return v, nil
	}
	if p.inProgress[rec] || !rec.Claimed() {
		// A cycle back into our own construction, or a forward reference
		// nothing has claimed yet. Either way the handle resolves later.
		p.deferRecord(path, rec)
		return rec, nil
	}

	// A concurrent pass owns construction; wait for its value.
	v, err := rec.Wait(p.ctx)
	if err != nil {
		return nil, wrapPath(path, p.idChain, err)
	}
	p.adoptShared(rec)
	return v, nil
}

// resolveMapNode handles instance requests and plain maps.
func (p *pass) resolveMapNode(path []string, node map[string]any) (any, error) {
	desc, err := p.r.nodes.Parse(node)
	if err != nil {
		return nil, wrapPath(path, p.idChain, err)
	}
	if desc != nil {
		// Inline requests guard against node re-entry themselves; named
		// requests break cycles through their singleton record instead.
		if desc.Instance == "" {
			release, err := p.enter(path, reflect.ValueOf(node).Pointer())
			if err != nil {
				return nil, err
			}
			defer release()
		}
		return p.resolveRequest(path, desc)
	}

	release, err := p.enter(path, reflect.ValueOf(node).Pointer())
	if err != nil {
		return nil, err
	}
	defer release()

	out := make(map[string]any, len(node))
	for _, key := range sortedKeys(node) {
		v, err := p.resolveNode(append(path, key), node[key])
		if err != nil {
			return nil, err
		}
		out[key] = v
		if rec, ok := v.(*singleton.Record); ok {
			key := key
			p.patchSlot(rec, func(val any) { out[key] = val })
		}
	}
	return out, nil
}

// resolveListNode resolves elements independently, preserving order.
func (p *pass) resolveListNode(path []string, node []any) (any, error) {
	if len(node) == 0 {
		return []any{}, nil
	}
	release, err := p.enter(path, reflect.ValueOf(node).Pointer())
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([]any, len(node))
	for i, item := range node {
		v, err := p.resolveNode(append(path, fmt.Sprintf("[%d]", i)), item)
		if err != nil {
			return nil, err
		}
		out[i] = v
		if rec, ok := v.(*singleton.Record); ok {
			i := i
			p.patchSlot(rec, func(val any) { out[i] = val })
		}
	}
	return out, nil
}

// resolveRequest materializes one instance-request node.
func (p *pass) resolveRequest(path []string, desc *refparse.Descriptor) (any, error) {
	if desc.Instance == "" {
		identity := fmt.Sprintf("%s#%d", desc.Schema, p.inlineSeq)
		p.inlineSeq++
		return p.constructInline(path, identity, desc)
	}

	rec, created := p.r.singletons.GetOrCreatePlaceholder(p.namespace, desc.Instance)
	if created {
		p.created = append(p.created, rec)
	}
	p.noteDep(desc.Instance)

	// First occurrence wins: an already-materialized singleton is returned
	// as-is and this node's parameters are deliberately not re-evaluated.
	if v, ok := rec.Materialized(); ok {
		p.adoptShared(rec)
		return v, nil
	}

	// Re-entry while we are constructing this very name: hand out the
	// placeholder instead of recursing.
	if p.inProgress[rec] {
		p.deferRecord(path, rec)
		return rec, nil
	}

	claimed := rec.TryClaim(desc.Schema)
	if claimed {
		p.claimed = append(p.claimed, rec)
	}
	if !claimed {
		// A concurrent pass claimed it first; singletons are constructed at
		// most once per namespace.
		v, err := rec.Wait(p.ctx)
		if err != nil {
			return nil, wrapPath(path, p.idChain, err)
		}
		p.adoptShared(rec)
		return v, nil
	}

	p.inProgress[rec] = true
	// A named construction starts a fresh inline-cycle scope: any node above
	// it can legally reappear below, because this record's placeholder is
	// what breaks the cycle.
	prevActive := p.active
	p.active = make(map[uintptr]bool)
	defer func() {
		p.active = prevActive
		delete(p.inProgress, rec)
	}()

	value, deps, err := p.construct(path, desc.Instance, desc)
	if err != nil {
		return nil, err
	}
	if err := p.r.singletons.Complete(rec, value); err != nil {
		return nil, wrapPath(path, p.idChain, err)
	}
	p.graph.add(desc.Instance, desc.Schema, value, deps)
	p.graph.aliases["$"+desc.Instance] = desc.Instance
	return value, nil
}

// constructInline builds an unnamed instance. Inline identities are fresh per
// occurrence and never shared.
func (p *pass) constructInline(path []string, identity string, desc *refparse.Descriptor) (any, error) {
	value, deps, err := p.construct(path, identity, desc)
	if err != nil {
		return nil, err
	}
	p.graph.add(identity, desc.Schema, value, deps)
	return value, nil
}

// construct resolves the request's parameters and invokes the construction
// collaborator.
func (p *pass) construct(path []string, identity string, desc *refparse.Descriptor) (any, []string, error) {
	p.idChain = append(p.idChain, identity)
	defer func() { p.idChain = p.idChain[:len(p.idChain)-1] }()

	var deps []string
	p.depStack = append(p.depStack, &deps)
	params := make(map[string]any, len(desc.Params))
	var paramErr error
	for _, key := range sortedKeys(desc.Params) {
		v, err := p.resolveNode(append(path, key), desc.Params[key])
		if err != nil {
			paramErr = err
			break
		}
		params[key] = v
	}
	p.depStack = p.depStack[:len(p.depStack)-1]
	if paramErr != nil {
		return nil, nil, paramErr
	}

	ref, err := p.r.classes.Lookup(desc.Schema, desc.Version)
	if err != nil {
		return nil, nil, wrapPath(path, p.idChain, err)
	}

	value, err := p.r.ctor.Construct(p.ctx, ref, params)
	if err != nil {
		return nil, nil, wrapPath(path, p.idChain,
			fmt.Errorf("%w: identity %q (schema %q): %w", ErrConstruction, identity, desc.Schema, err))
	}
	return value, deps, nil
}

// enter guards a container node against re-entry. Named singletons break
// legal cycles before reaching this check, so a revisit here means the cycle
// runs entirely through inline nodes and can never construct.
func (p *pass) enter(path []string, ptr uintptr) (func(), error) {
	if p.active[ptr] {
		return nil, wrapPath(path, p.idChain, ErrCircularInline)
	}
	p.active[ptr] = true
	return func() { delete(p.active, ptr) }, nil
}

// noteDep records a dependency identity for the innermost request currently
// resolving parameters.
func (p *pass) noteDep(identity string) {
	if len(p.depStack) == 0 {
		return
	}
	top := p.depStack[len(p.depStack)-1]
	*top = append(*top, identity)
}

// deferRecord tracks a handle whose value must land before the pass ends.
func (p *pass) deferRecord(path []string, rec *singleton.Record) {
	if _, ok := p.pending[rec]; !ok {
		p.pending[rec] = append([]string(nil), path...)
	}
}

// patchSlot registers a container slot currently holding a pending handle;
// the sweep re-points it at the materialized value. Patches run on this
// pass's goroutine only, never from a completing pass.
func (p *pass) patchSlot(rec *singleton.Record, apply func(any)) {
	p.patches[rec] = append(p.patches[rec], apply)
}

// adoptShared makes a singleton materialized outside this pass visible in
// this pass's graph.
func (p *pass) adoptShared(rec *singleton.Record) {
	if _, ok := p.graph.values[rec.Name]; ok {
		return
	}
	v, ok := rec.Materialized()
	if !ok {
		return
	}
	p.graph.add(rec.Name, rec.Schema(), v, nil)
	p.graph.aliases["$"+rec.Name] = rec.Name
}

// sweepPending verifies every handle handed out during the pass completed,
// then swaps the materialized values into the container slots that were still
// holding handles.
func (p *pass) sweepPending() error {
	for rec, path := range p.pending {
		v, ok := rec.Materialized()
		if !ok {
			if !rec.Claimed() || p.inProgress[rec] {
				return wrapPath(path, nil, fmt.Errorf("%w: %q was referenced but never defined", ErrUnresolvedReference, rec.Name))
			}
			// A concurrent pass is mid-construction; its value still
			// satisfies the reference.
			var err error
			if v, err = rec.Wait(p.ctx); err != nil {
				return wrapPath(path, nil, err)
			}
		}
		p.adoptShared(rec)
		for _, apply := range p.patches[rec] {
			apply(v)
		}
	}
	return nil
}

// rollback removes placeholders this pass registered but never completed, so
// an aborted pass leaves no half-built records behind.
func (p *pass) rollback() {
	for _, rec := range p.created {
		p.r.singletons.Remove(rec)
	}
	for _, rec := range p.claimed {
		p.r.singletons.Remove(rec)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitVersion(id string) (schema, version string) {
	for i := 0; i < len(id); i++ {
		if id[i] == '@' {
			return id[:i], id[i+1:]
		}
	}
	return id, ""
}
