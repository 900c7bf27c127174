package resolver

// Graph is the result of one resolution pass: every constructed instance
// keyed by identity, in first-resolved order, plus the alias map for
// "$name" references. It is immutable once the pass returns.
type Graph struct {
	root    any
	order   []string
	values  map[string]any
	schemas map[string]string
	deps    map[string][]string
	aliases map[string]string
}

func newGraph() *Graph {
	return &Graph{
		values:  make(map[string]any),
		schemas: make(map[string]string),
		deps:    make(map[string][]string),
		aliases: make(map[string]string),
	}
}

func (g *Graph) add(identity, schema string, value any, deps []string) {
	g.order = append(g.order, identity)
	g.values[identity] = value
	g.schemas[identity] = schema
	g.deps[identity] = deps
}

// Root returns the resolved form of the document's root node.
func (g *Graph) Root() any { return g.root }

// Identities returns every instance identity in first-resolved order.
func (g *Graph) Identities() []string {
	return append([]string(nil), g.order...)
}

// Value returns the materialized instance for an identity.
func (g *Graph) Value(identity string) (any, bool) {
	v, ok := g.values[identity]
	return v, ok
}

// Schema returns the schema identifier an identity was constructed from.
func (g *Graph) Schema(identity string) string { return g.schemas[identity] }

// Dependencies returns the identities an instance's construction depended on,
// in resolution order.
func (g *Graph) Dependencies(identity string) []string {
	return append([]string(nil), g.deps[identity]...)
}

// Alias translates a "$name" reference to its identity.
func (g *Graph) Alias(ref string) (string, bool) {
	id, ok := g.aliases[ref]
	return id, ok
}
