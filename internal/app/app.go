package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/engine"
	"github.com/vk/modelmirror/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	classes *registry.Registry
	engine  *engine.Engine
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registries.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	classes := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	if err := classes.Install(ctx, modules...); err != nil {
		return nil, fmt.Errorf("failed to populate class registry: %w", err)
	}

	eng := engine.New(classes,
		engine.WithNamespace(cfg.Namespace),
		engine.WithMarker(cfg.Marker),
	)

	return &App{
		outW:    outW,
		logger:  logger,
		classes: classes,
		engine:  eng,
	}, nil
}

// Engine returns the application's reflection engine. This is primarily for
// testing.
func (a *App) Engine() *engine.Engine { return a.engine }
