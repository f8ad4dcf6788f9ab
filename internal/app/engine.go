package app

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/bft-labs/bulkd/internal/domain"
	"github.com/bft-labs/bulkd/internal/ports"
)

// FileWorkers is the number of competing file writers.
const FileWorkers = 2

// Engine fans finalized packs out to the console and to pack files.
//
// Every pack is published to two queues. The console queue has a single
// consumer and preserves publish order; the file queue is drained by
// FileWorkers competing consumers, each writing its own numbered files.
// Publish never blocks on a sink.
type Engine struct {
	console *packQueue
	files   *packQueue

	consoleOut      io.Writer
	store           ports.PackStore
	logger          ports.Logger
	recorder        Recorder
	lifecycle       stateMachine
	workers         sync.WaitGroup
	shutdownTimeout time.Duration
	now             func() time.Time

	startOnce sync.Once
	mu        sync.Mutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConsole sets the console writer. Defaults to os.Stdout.
func WithConsole(w io.Writer) EngineOption {
	return func(e *Engine) {
		e.consoleOut = w
	}
}

// WithRecorder sets a recorder for pack flow metrics.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithEventEmitter sets a handler for lifecycle state changes.
func WithEventEmitter(emitter EventEmitter) EngineOption {
	return func(e *Engine) {
		e.lifecycle.emitter = emitter
	}
}

// WithShutdownTimeout bounds how long Stop waits for workers to drain.
func WithShutdownTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.shutdownTimeout = d
		}
	}
}

// NewEngine creates an engine writing pack files through store.
// The engine is created in StateIdle; call Start to launch the workers.
func NewEngine(store ports.PackStore, logger ports.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		console:         newPackQueue(),
		files:           newPackQueue(),
		consoleOut:      os.Stdout,
		store:           store,
		logger:          logger,
		recorder:        noopRecorder{},
		lifecycle:       stateMachine{state: StateIdle, logger: logger},
		shutdownTimeout: ShutdownTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the console worker and the file workers.
// Only the first call has an effect; later calls, including calls after
// Stop, are no-ops. A stopped engine is never restarted.
func (e *Engine) Start() error {
	var err error
	e.startOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if err = e.lifecycle.advance(StateStarting, "Start() called"); err != nil {
			return
		}

		cw := newConsoleWorker(e.console, e.consoleOut, e.logger, e.recorder)
		e.spawn(cw.run)

		for id := 1; id <= FileWorkers; id++ {
			fw := &fileWorker{
				id:       id,
				queue:    e.files,
				store:    e.store,
				logger:   e.logger,
				recorder: e.recorder,
			}
			e.spawn(fw.run)
		}

		err = e.lifecycle.advance(StateRunning, "workers started")
	})
	return err
}

func (e *Engine) spawn(run func()) {
	e.workers.Add(1)
	go func() {
		defer e.workers.Done()
		run()
	}()
}

// Publish hands a finalized pack to every sink.
// The console queue wakes its worker; the file queue wakes one file worker
// for a real pack and all of them for the empty shutdown sentinel.
func (e *Engine) Publish(p domain.Pack) {
	e.console.push(p, false)
	e.files.push(p, p.Empty())
	if !p.Empty() {
		e.recorder.PackPublished(p.Size())
	}
}

// Stop drains both queues and waits for the workers to exit.
// Callers must stop publishing before calling Stop.
// Returns ErrNotRunning if the engine is not running, ErrShutdownTimeout if
// the workers do not finish in time.
func (e *Engine) Stop() error {
	e.mu.Lock()

	if err := e.lifecycle.advance(StateStopping, "Stop() called"); err != nil {
		e.mu.Unlock()
		return domain.ErrNotRunning
	}

	e.console.close()
	e.files.close()
	e.Publish(domain.Sentinel(e.now()))

	e.mu.Unlock()

	if !e.waitWorkers(e.shutdownTimeout) {
		console, files := e.Pending()
		e.logger.Warn("shutdown timeout, abandoning workers",
			ports.Duration("timeout", e.shutdownTimeout),
			ports.Int("console_pending", console),
			ports.Int("files_pending", files),
		)
		_ = e.lifecycle.advance(StateCrashed, "shutdown timeout")
		return domain.ErrShutdownTimeout
	}
	_ = e.lifecycle.advance(StateStopped, "queues drained")
	return nil
}

// waitWorkers reports whether every worker exited within timeout.
func (e *Engine) waitWorkers(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

// State returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (e *Engine) State() State {
	return e.lifecycle.current()
}

// Pending returns the number of packs waiting in the console and file queues.
func (e *Engine) Pending() (console, files int) {
	return e.console.len(), e.files.len()
}
