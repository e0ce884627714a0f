package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/corey/survey/internal/adapters/bbolt"
	"github.com/corey/survey/internal/adapters/postgres"
	"github.com/corey/survey/internal/adapters/web"
	"github.com/corey/survey/internal/domain/allocation"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// collectionStore is what the collection server needs from its storage.
type collectionStore interface {
	ports.SubmissionSink
	ports.AllocationLedger
}

// Collection wires the collection server: a store (bbolt or Postgres), the
// stratified balancer and the HTTP server.
type Collection struct {
	Server *web.Server

	store   collectionStore
	backend string
	log     *zap.Logger
}

// CollectionConfig holds initialization parameters for the collection server.
type CollectionConfig struct {
	Paths       *Paths
	Layout      survey.Layout
	DatabaseURL string // empty = bbolt at Paths.CollectDB
	Logger      *zap.Logger
}

// NewCollection opens the store and builds the server. Does not listen.
func NewCollection(ctx context.Context, cfg CollectionConfig) (*Collection, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		store   collectionStore
		backend string
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		store, backend = pg, "postgres"
	} else {
		if cfg.Paths == nil {
			return nil, fmt.Errorf("paths required")
		}
		if err := cfg.Paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		bs, err := bbolt.NewStore(cfg.Paths.CollectDB)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		store, backend = bs, "bbolt"
	}

	bal, err := allocation.NewBalancer(store, cfg.Layout)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Collection{
		Server:  web.NewServer(bal, store, cfg.Layout, log),
		store:   store,
		backend: backend,
		log:     log,
	}, nil
}

// Backend names the storage in use ("bbolt" or "postgres").
func (c *Collection) Backend() string {
	return c.backend
}

// Serve listens on addr and blocks until ctx is cancelled or the server
// fails, then shuts the server down gracefully. ready, if non-nil, is called
// once listening.
func (c *Collection) Serve(ctx context.Context, addr string, ready func(url string)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return c.ServeListener(ctx, ln, ready)
}

// ServeListener is Serve on an existing listener. ln is closed on return.
func (c *Collection) ServeListener(ctx context.Context, ln net.Listener, ready func(url string)) error {
	c.Server.Attach(ln)
	c.log.Info("collection server listening", zap.String("addr", c.Server.Addr()), zap.String("backend", c.backend))
	if ready != nil {
		ready(c.Server.URL())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.Server.Serve(); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.log.Info("collection server shutting down")
		return c.Server.Stop(sctx)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops the server if still running and releases the store.
func (c *Collection) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Combine(c.Server.Stop(ctx), c.store.Close())
}

// Submissions returns every stored submission.
func (c *Collection) Submissions(ctx context.Context) ([]ports.StoredSubmission, error) {
	return c.store.All(ctx)
}
