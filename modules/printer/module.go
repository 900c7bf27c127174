// Package printer provides a slog-backed sink as a constructible class,
// mostly useful in documents exercised by tests and examples.
package printer

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/registry"
)

// Schema is the class identifier this module registers.
const Schema = "print"

// Module implements registry.Module for this package.
type Module struct{}

// Sink is the constructed instance.
type Sink struct {
	Prefix string `mirror:"prefix"`
}

// Print dumps the values with sorted keys for consistent output.
func (s *Sink) Print(ctx context.Context, values map[string]string) {
	ctxlog.FromContext(ctx).Info("Printing values", "count", len(values))

	if values == nil {
		fmt.Println(s.Prefix + "(null)")
		return
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("%s%s = %q\n", s.Prefix, k, values[k])
	}
}

// Register registers the class with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(registry.ClassReference{
		Schema:  Schema,
		Version: "v1",
		Type:    reflect.TypeOf(Sink{}),
	})
}
