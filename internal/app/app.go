package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weftflow/internal/cache"
	"github.com/vk/weftflow/internal/ctxlog"
	"github.com/vk/weftflow/internal/executor"
	"github.com/vk/weftflow/internal/graph"
	"github.com/vk/weftflow/internal/hclspec"
	"github.com/vk/weftflow/internal/invoker"
	"github.com/vk/weftflow/internal/observer"
	"github.com/vk/weftflow/internal/spec"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: an isolated logger, the loaded declaration registry, a validated
// handler set, and the cache backend.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	specs   *spec.Registry
	invoker *invoker.Local
	cache   *cache.Runner
	sqlite  *cache.SQLiteStore
}

// NewApp is the constructor for the main application. It loads every flow
// definition from the configured path, validates that each declared task
// names a registered handler, and selects a cache store. A nil or invalid
// configuration is a startup error, not a panic.
func NewApp(cfg *Config, handlers *invoker.Registry, outW io.Writer) (*App, error) {
	logger := newLogger(cfg.slogLevel(), cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	specs, err := hclspec.NewLoader().Load(ctx, cfg.FlowPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow definitions: %w", err)
	}
	logger.Debug("Flow definitions loaded.", "task_count", len(specs.Tasks()))

	if err := handlers.Validate(specs.Tasks()); err != nil {
		return nil, err
	}
	logger.Debug("Handler validation passed.")

	a := &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		specs:   specs,
		invoker: invoker.NewLocal(handlers),
	}

	var store cache.Store
	if cfg.CachePath != "" {
		sq, err := cache.OpenSQLite(ctx, cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache store: %w", err)
		}
		a.sqlite = sq
		store = sq
	} else {
		store = cache.NewMemoryStore()
	}
	a.cache = cache.NewRunner(store)

	// An externally-invoked workflow is scheduled as its own run with a fresh
	// worker budget, independent of the caller's ceiling.
	a.invoker.SetLauncher(func(ctx context.Context, wf *spec.WorkflowSpec, args map[string]cty.Value) (map[string]cty.Value, error) {
		g, err := graph.Build(ctx, wf, a.specs, graph.Options{MaxDepth: cfg.MaxDepth})
		if err != nil {
			return nil, err
		}
		res, err := executor.Run(ctx, g, args, executor.Options{
			Workers:  cfg.Workers,
			Observer: observer.Slog{Logger: a.logger},
			Invoker:  a.invoker,
			Cache:    a.cache,
		})
		if err != nil {
			return nil, err
		}
		return res.Outputs, nil
	})

	return a, nil
}

// Specs returns the loaded declaration registry. This is primarily for testing.
func (a *App) Specs() *spec.Registry {
	return a.specs
}

// Close releases the cache backend, if it holds external resources.
func (a *App) Close() error {
	if a.sqlite != nil {
		return a.sqlite.Close()
	}
	return nil
}
