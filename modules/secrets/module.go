// Package secrets provides a file-per-secret directory store as a
// constructible class.
package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/registry"
)

// Schema is the class identifier this module registers.
const Schema = "secret_store"

// Module implements registry.Module for this package.
type Module struct{}

// Store is the constructed instance: secrets read once at construction from
// a directory with one file per secret.
type Store struct {
	Dir string `mirror:"dir,required"`

	secrets map[string]string
}

// Init loads every regular file in the directory. A missing directory yields
// an empty store rather than an error, so optional secret mounts work.
func (s *Store) Init(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	s.secrets = make(map[string]string)
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Secrets directory missing, store is empty.", "dir", s.Dir)
			return nil
		}
		return fmt.Errorf("reading secrets directory %q: %w", s.Dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading secret %q: %w", entry.Name(), err)
		}
		s.secrets[entry.Name()] = strings.TrimSpace(string(data))
	}
	logger.Debug("Secrets loaded.", "dir", s.Dir, "count", len(s.secrets))
	return nil
}

// Get returns one secret by file name.
func (s *Store) Get(name string) (string, error) {
	if v, ok := s.secrets[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("secret %q not found in %q", name, s.Dir)
}

// Register registers the class with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(registry.ClassReference{
		Schema:  Schema,
		Version: "v1",
		Type:    reflect.TypeOf(Store{}),
	})
}
