package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/bulkd/internal/adapters/fs"
	"github.com/bft-labs/bulkd/internal/metrics"
	"github.com/bft-labs/bulkd/internal/ports"
	"github.com/bft-labs/bulkd/internal/registry"
	"github.com/bft-labs/bulkd/internal/server"
)

// AgentConfig contains configuration for the bulk server agent.
type AgentConfig struct {
	ListenAddr      string
	BulkSize        int
	OutputDir       string
	MetricsAddr     string
	ShutdownTimeout time.Duration

	// Console receives the "bulk: ..." lines. Defaults to os.Stdout.
	Console io.Writer
}

// Agent wires the engine, the channel registry and the TCP server together.
type Agent struct {
	config   AgentConfig
	engine   *Engine
	registry *registry.Registry
	server   *server.Server
	metrics  *metrics.Collector
	logger   ports.Logger
}

// NewAgent creates an agent. The output directory is created here; failing to
// create it makes the agent unusable.
func NewAgent(config AgentConfig, logger ports.Logger) (*Agent, error) {
	store, err := fs.NewPackFileRepository(config.OutputDir)
	if err != nil {
		return nil, err
	}

	collector := metrics.New()

	opts := []EngineOption{
		WithRecorder(collector),
		WithShutdownTimeout(config.ShutdownTimeout),
	}
	if config.Console != nil {
		opts = append(opts, WithConsole(config.Console))
	}
	engine := NewEngine(store, logger, opts...)

	reg := registry.New(engine.Publish, logger, registry.WithObserver(collector))

	srv, err := server.New(config.ListenAddr, config.BulkSize, reg, logger)
	if err != nil {
		return nil, err
	}

	return &Agent{
		config:   config,
		engine:   engine,
		registry: reg,
		server:   srv,
		metrics:  collector,
		logger:   logger,
	}, nil
}

// Run starts the engine and serves connections until ctx is cancelled.
// Every connection is torn down and both queues drained before Run returns.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.engine.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Run(gctx)
	})
	if a.config.MetricsAddr != "" {
		a.serveMetrics(gctx, g)
	}

	err := g.Wait()

	// Connections are closed, so nothing publishes any more
	if stopErr := a.engine.Stop(); stopErr != nil {
		a.logger.Error("engine stop failed", ports.Err(stopErr))
		if err == nil {
			err = stopErr
		}
	}
	return err
}

func (a *Agent) serveMetrics(ctx context.Context, g *errgroup.Group) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		a.logger.Info("serving metrics", ports.String("addr", a.config.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// SetBulkSize changes the bulk size for connections accepted afterwards.
func (a *Agent) SetBulkSize(n int) error {
	if err := a.server.SetBulkSize(n); err != nil {
		return err
	}
	a.logger.Info("bulk size updated", ports.Int("bulk_size", n))
	return nil
}

// Server returns the agent's TCP server.
func (a *Agent) Server() *server.Server {
	return a.server
}

// Registry returns the channel registry.
func (a *Agent) Registry() *registry.Registry {
	return a.registry
}

// Engine returns the fan-out engine.
func (a *Agent) Engine() *Engine {
	return a.engine
}
