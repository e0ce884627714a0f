// Package app wires together all adapters and domain logic.
// It provides lifecycle management for a respondent's session (App) and for
// the collection server (Collection): create, run, close.
package app

import (
	"fmt"
	"time"

	"github.com/corey/survey/internal/adapters/bbolt"
	"github.com/corey/survey/internal/adapters/remote"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// App is the top-level container wiring the respondent side together.
type App struct {
	Paths      *Paths
	Store      *bbolt.Store
	Client     *remote.Client // nil = no endpoint configured
	Controller *Controller

	log *zap.Logger
}

// Config holds initialization parameters for the App.
type Config struct {
	Paths    *Paths
	Layout   survey.Layout
	Endpoint string        // empty = random assignment, log-only submission
	Timeout  time.Duration // endpoint timeout (default: 10s if 0)
	Notifier ports.Notifier
	Logger   *zap.Logger
}

// New creates an App with all dependencies wired and the persisted session
// loaded.
func New(cfg Config) (*App, error) {
	if cfg.Paths == nil {
		return nil, fmt.Errorf("paths required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if err := cfg.Paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var client *remote.Client
	if cfg.Endpoint != "" {
		c, err := remote.NewClient(cfg.Endpoint, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("endpoint: %w", err)
		}
		client = c
	}

	store, err := bbolt.NewStore(cfg.Paths.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// Typed nils must not reach the interfaces.
	var (
		alloc     ports.Allocator
		collector ports.Collector
	)
	if client != nil {
		alloc, collector = client, client
	}

	resolver := NewResolver(alloc, cfg.Layout, log)
	gateway := NewGateway(collector, cfg.Notifier, cfg.Paths.Outbox, log)
	ctrl := NewController(ControllerConfig{
		Store:      store,
		Resolver:   resolver,
		Gateway:    gateway,
		Layout:     cfg.Layout,
		StatusPath: cfg.Paths.Status,
		Logger:     log,
	})
	ctrl.Load()

	return &App{
		Paths:      cfg.Paths,
		Store:      store,
		Client:     client,
		Controller: ctrl,
		log:        log,
	}, nil
}

// Close releases the store and idle endpoint connections.
func (a *App) Close() error {
	var err error
	if a.Client != nil {
		a.Client.CloseIdle()
	}
	if a.Store != nil {
		err = multierr.Append(err, a.Store.Close())
	}
	return err
}
