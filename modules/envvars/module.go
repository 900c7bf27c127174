// Package envvars provides an environment snapshot as a constructible class,
// optionally overlaid with a dotenv file.
package envvars

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/registry"
)

// Schema is the class identifier this module registers.
const Schema = "env_vars"

// Module implements registry.Module for this package.
type Module struct{}

// Source is the constructed instance: an immutable snapshot of the process
// environment taken at construction time.
type Source struct {
	File   string `mirror:"file"`
	Prefix string `mirror:"prefix"`

	values map[string]string
}

// Init snapshots the environment, applying the optional dotenv overlay and
// prefix filter.
func (s *Source) Init(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	values := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			values[pair[0]] = pair[1]
		}
	}

	if s.File != "" {
		overlay, err := godotenv.Read(s.File)
		if err != nil {
			return fmt.Errorf("reading dotenv file %q: %w", s.File, err)
		}
		for k, v := range overlay {
			values[k] = v
		}
	}

	if s.Prefix != "" {
		filtered := make(map[string]string, len(values))
		for k, v := range values {
			if strings.HasPrefix(k, s.Prefix) {
				filtered[k] = v
			}
		}
		values = filtered
	}

	s.values = values
	logger.Debug("Environment snapshot taken.", "file", s.File, "prefix", s.Prefix, "count", len(values))
	return nil
}

// Get returns one variable from the snapshot.
func (s *Source) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// All returns a copy of the snapshot.
func (s *Source) All() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Register registers the class with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(registry.ClassReference{
		Schema:  Schema,
		Version: "v1",
		Type:    reflect.TypeOf(Source{}),
	})
}
