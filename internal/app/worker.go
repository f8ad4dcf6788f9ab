package app

import (
	"bufio"
	"io"

	"github.com/bft-labs/bulkd/internal/domain"
	"github.com/bft-labs/bulkd/internal/ports"
)

// consoleWorker prints every pack as one "bulk: " line.
type consoleWorker struct {
	queue    *packQueue
	w        io.Writer
	out      *bufio.Writer
	logger   ports.Logger
	recorder Recorder
}

func newConsoleWorker(q *packQueue, w io.Writer, logger ports.Logger, rec Recorder) *consoleWorker {
	return &consoleWorker{
		queue:    q,
		w:        w,
		out:      bufio.NewWriter(w),
		logger:   logger,
		recorder: rec,
	}
}

func (w *consoleWorker) run() {
	var batch []domain.Pack
	for {
		var ok bool
		batch, ok = w.queue.take(batch)
		if !ok {
			w.logger.Debug("console worker finished")
			return
		}
		w.recorder.BatchDequeued(SinkConsole, len(batch))
		w.print(batch)
	}
}

func (w *consoleWorker) print(batch []domain.Pack) {
	for _, p := range batch {
		if p.Empty() {
			continue
		}
		w.out.WriteString("bulk: ")
		w.out.WriteString(p.Join(", "))
		w.out.WriteByte('\n')
		w.recorder.PackWritten(SinkConsole)
	}
	if err := w.out.Flush(); err != nil {
		w.logger.Error("console write failed", ports.Err(err))
		w.recorder.SinkFailed(SinkConsole)
		// a failed flush leaves the buffer in a sticky error state
		w.out.Reset(w.w)
	}
}

// fileWorker stores every pack it dequeues as its own file.
type fileWorker struct {
	id       int
	seq      int
	queue    *packQueue
	store    ports.PackStore
	logger   ports.Logger
	recorder Recorder
}

func (w *fileWorker) run() {
	var batch []domain.Pack
	for {
		var ok bool
		batch, ok = w.queue.take(batch)
		if !ok {
			w.logger.Debug("file worker finished", ports.Int("worker", w.id), ports.Int("files", w.seq))
			return
		}
		w.recorder.BatchDequeued(SinkFile, len(batch))
		for _, p := range batch {
			if p.Empty() {
				continue
			}
			w.write(p)
		}
	}
}

func (w *fileWorker) write(p domain.Pack) {
	seq := w.seq
	// seq advances even when the write fails
	w.seq++

	name, err := w.store.Store(p, w.id, seq)
	if err != nil {
		w.logger.Error("pack file write failed",
			ports.Int("worker", w.id),
			ports.Int("seq", seq),
			ports.Int("commands", p.Size()),
			ports.Err(err),
		)
		w.recorder.SinkFailed(SinkFile)
		return
	}
	w.logger.Debug("pack file written", ports.String("file", name), ports.Int("worker", w.id))
	w.recorder.PackWritten(SinkFile)
}
