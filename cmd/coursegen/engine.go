package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"coursegen/internal/cache"
	"coursegen/internal/codebase"
	"coursegen/internal/config"
	"coursegen/internal/lint"
	"coursegen/internal/logging"
	"coursegen/internal/parser"
	"coursegen/internal/pipeline"
	"coursegen/internal/snapshot"
	"coursegen/internal/storage"
)

// Engine bundles everything a command needs. It is built once per process.
type Engine struct {
	Config       *config.Config
	DB           *storage.DB
	Cache        *cache.TieredCache
	Snapshots    *snapshot.Store
	Scanner      *codebase.Scanner
	Orchestrator *codebase.Orchestrator
	Logger       *logging.Logger
}

var (
	engineOnce   sync.Once
	sharedEngine *Engine
	engineErr    error
)

// getEngine returns the shared engine, lazily initialized on first use.
func getEngine(ctx context.Context) (*Engine, error) {
	engineOnce.Do(func() {
		repoRoot := repoFlag
		if repoRoot == "" {
			wd, err := os.Getwd()
			if err != nil {
				engineErr = fmt.Errorf("resolve working directory: %w", err)
				return
			}
			repoRoot = wd
		}

		cfg, err := config.Load(repoRoot)
		if err != nil {
			engineErr = err
			return
		}

		logger := logging.New(logging.Config{
			Format: logging.Format(cfg.Logging.Format),
			Level:  logging.ParseLevel(cfg.Logging.Level),
		})

		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			engineErr = fmt.Errorf("create state directory: %w", err)
			return
		}
		db, err := storage.Open(cfg.SQLitePath, logger)
		if err != nil {
			engineErr = fmt.Errorf("open database: %w", err)
			return
		}

		tiered := cache.New(db, cache.Options{
			MaxMemoryBytes:    cfg.MaxMemoryBytes(),
			RedisURL:          cfg.RedisURL,
			DefaultTTLSeconds: cfg.CacheTTLSeconds,
		}, logger)
		if err := tiered.Initialize(ctx); err != nil {
			_ = db.Close()
			engineErr = fmt.Errorf("initialize cache: %w", err)
			return
		}

		snaps, err := snapshot.NewStore(db)
		if err != nil {
			_ = tiered.Close()
			_ = db.Close()
			engineErr = err
			return
		}

		var linter pipeline.Linter
		if cfg.EnableLint {
			linter = lint.NewRunner(cfg.LintBinary, cfg.LintArgs, logger)
		}
		pipe := pipeline.New(cfg, pipeline.Options{
			Cache:     tiered,
			Snapshots: snaps,
			Parser:    parser.NewTreeSitterParser(),
			Linter:    linter,
		}, logger)
		scheduler := pipeline.NewScheduler(pipe, logger)

		scanner := codebase.NewScanner(cfg, db, tiered, logger)
		orch := codebase.NewOrchestrator(cfg, tiered, snaps, scanner, scheduler, logger)

		sharedEngine = &Engine{
			Config:       cfg,
			DB:           db,
			Cache:        tiered,
			Snapshots:    snaps,
			Scanner:      scanner,
			Orchestrator: orch,
			Logger:       logger,
		}
	})
	return sharedEngine, engineErr
}

// mustGetEngine returns the shared engine or exits.
func mustGetEngine(ctx context.Context) *Engine {
	engine, err := getEngine(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	return engine
}

// Close releases the engine's resources in reverse construction order.
func (e *Engine) Close() {
	if err := e.Cache.Close(); err != nil {
		e.Logger.Warn("cache close failed", map[string]interface{}{"error": err.Error()})
	}
	if err := e.DB.Close(); err != nil {
		e.Logger.Warn("database close failed", map[string]interface{}{"error": err.Error()})
	}
}

// newContext returns a context that is canceled on SIGINT or SIGTERM.
func newContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}
