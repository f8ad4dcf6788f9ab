// Package bulkd groups streams of text commands into packs and logs every
// pack to the console and to per-pack files.
//
// Example usage:
//
//	l, err := bulkd.Open(bulkd.Options{OutputDir: "/var/log/bulks"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h, _ := l.Connect(3, bulkd.Static)
//	_ = l.Receive(h, []byte("a\nb\nc\n"))
//	_ = l.Disconnect(h)
//	if err := l.Close(); err != nil {
//	    log.Fatal(err)
//	}
package bulkd

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/bulkd/internal/adapters/fs"
	logAdapter "github.com/bft-labs/bulkd/internal/adapters/log"
	"github.com/bft-labs/bulkd/internal/app"
	"github.com/bft-labs/bulkd/internal/batch"
	"github.com/bft-labs/bulkd/internal/domain"
	"github.com/bft-labs/bulkd/internal/ports"
	"github.com/bft-labs/bulkd/internal/registry"
)

// Pack is an ordered group of commands logged as one unit.
type Pack = domain.Pack

// Handle identifies a connected channel.
type Handle = registry.Handle

// Kind selects how a channel groups its commands.
type Kind = batch.Kind

const (
	// Static channels emit a pack every N commands.
	Static = batch.KindStatic
	// Dynamic channels emit one pack per Receive call.
	Dynamic = batch.KindDynamic
)

// Errors returned by the API.
var (
	ErrInvalidHandle   = domain.ErrInvalidHandle
	ErrInvalidCapacity = domain.ErrInvalidCapacity
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
)

// Options configures a Logger. The zero value logs to stdout and writes
// files into the working directory.
type Options struct {
	OutputDir       string
	Console         io.Writer
	ShutdownTimeout time.Duration
	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Logger is a started engine plus its channel registry.
type Logger struct {
	engine   *app.Engine
	registry *registry.Registry
}

// Open creates the output directory and starts the sink workers.
func Open(opts Options) (*Logger, error) {
	store, err := fs.NewPackFileRepository(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	var logger ports.Logger = logAdapter.NewNoopLogger()
	if opts.Logger != nil {
		logger = logAdapter.NewZerologAdapterWithLogger(*opts.Logger)
	}

	engineOpts := []app.EngineOption{app.WithShutdownTimeout(opts.ShutdownTimeout)}
	if opts.Console != nil {
		engineOpts = append(engineOpts, app.WithConsole(opts.Console))
	}
	engine := app.NewEngine(store, logger, engineOpts...)
	if err := engine.Start(); err != nil {
		return nil, err
	}

	return &Logger{
		engine:   engine,
		registry: registry.New(engine.Publish, logger),
	}, nil
}

// Connect opens a channel with the given bulk size.
func (l *Logger) Connect(bulkSize int, kind Kind) (Handle, error) {
	return l.registry.Connect(bulkSize, kind)
}

// Receive feeds newline-terminated commands to a channel.
func (l *Logger) Receive(h Handle, data []byte) error {
	return l.registry.Receive(h, data)
}

// Disconnect flushes and closes a channel.
func (l *Logger) Disconnect(h Handle) error {
	return l.registry.Disconnect(h)
}

// Close drains both sinks and stops the workers. Channels still connected
// are not flushed; disconnect them first.
func (l *Logger) Close() error {
	return l.engine.Stop()
}
