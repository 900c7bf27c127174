package app

import (
	"context"
	"fmt"

	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/document"
)

// Run loads the configured document, resolves it into an instance graph, and
// reports what was built.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	doc, err := document.Load(ctx, cfg.DocPath)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	a.logger.Debug("Document loaded.", "path", cfg.DocPath)

	a.logger.Info("Classes registered:", "schemas", a.classes.Schemas())

	c, err := a.engine.Reflect(ctx, doc)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	graph := c.Graph()
	ids := graph.Identities()
	a.logger.Info("Instance graph resolved.", "namespace", cfg.Namespace, "instances", len(ids))
	for _, id := range ids {
		a.logger.Info("Instance ready.", "identity", id, "schema", graph.Schema(id), "deps", graph.Dependencies(id))
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
