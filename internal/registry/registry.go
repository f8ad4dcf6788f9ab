package registry

import (
	"bytes"
	"sync"

	"github.com/bft-labs/bulkd/internal/batch"
	"github.com/bft-labs/bulkd/internal/domain"
	"github.com/bft-labs/bulkd/internal/ports"
)

// Handle refers to a live channel. The zero Handle is never valid.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

// channel is one registered substream.
type channel struct {
	batcher batch.Batcher
	kind    batch.Kind
	partial []byte
}

type slot struct {
	generation uint32
	ch         *channel
}

// Observer is told about channel count changes.
type Observer interface {
	OnChannelsChanged(live int)
}

// Registry is the process table of live channels.
type Registry struct {
	mu       sync.Mutex
	slots    []slot
	free     []uint32
	live     int
	notify   batch.Notifier
	logger   ports.Logger
	observer Observer
	opts     []batch.Option
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver sets an observer for live channel counts.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// WithGrouperOptions passes options to every grouper the registry creates.
func WithGrouperOptions(opts ...batch.Option) Option {
	return func(r *Registry) {
		r.opts = append(r.opts, opts...)
	}
}

// New creates a registry whose channels report finalized packs to notify.
func New(notify batch.Notifier, logger ports.Logger, opts ...Option) *Registry {
	r := &Registry{
		notify: notify,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect registers a new channel with the given bulk size and kind.
// Returns domain.ErrInvalidCapacity if capacity is not positive.
func (r *Registry) Connect(capacity int, kind batch.Kind) (Handle, error) {
	if capacity <= 0 {
		return Handle{}, domain.ErrInvalidCapacity
	}

	mode := batch.Static(capacity)
	if kind == batch.KindDynamic {
		mode = batch.Dynamic(capacity)
	}
	ch := &channel{
		batcher: batch.NewGrouper(mode, r.notify, r.opts...),
		kind:    kind,
	}

	r.mu.Lock()
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{generation: 1})
		idx = uint32(len(r.slots) - 1)
	}
	s := &r.slots[idx]
	s.ch = ch
	h := Handle{index: idx, generation: s.generation}
	r.live++
	live := r.live
	r.mu.Unlock()

	r.logger.Debug("channel connected",
		ports.String("mode", mode.String()),
		ports.Int("live", live),
	)
	r.observe(live)
	return h, nil
}

// Receive feeds data to the channel behind h.
// Data is split on newlines; an unterminated tail is kept until the next
// Receive or Disconnect. Empty lines are dropped.
// Returns domain.ErrInvalidHandle if h is not live.
func (r *Registry) Receive(h Handle, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := r.lookup(h)
	if ch == nil {
		return domain.ErrInvalidHandle
	}

	lines := ch.split(data)
	if ch.kind == batch.KindDynamic {
		if len(lines) > 0 {
			ch.batcher.Submit(lines)
		}
		return nil
	}
	for _, line := range lines {
		ch.batcher.Push(line)
	}
	return nil
}

// Disconnect flushes the channel behind h and removes it.
// The handle is invalid afterwards.
// Returns domain.ErrInvalidHandle if h is not live.
func (r *Registry) Disconnect(h Handle) error {
	r.mu.Lock()
	ch := r.lookup(h)
	if ch == nil {
		r.mu.Unlock()
		return domain.ErrInvalidHandle
	}

	if tail := trimLine(ch.partial); len(tail) > 0 {
		ch.batcher.Push(string(tail))
	}
	ch.partial = nil
	flushed := ch.batcher.HasPending()
	ch.batcher.Flush()

	s := &r.slots[h.index]
	s.ch = nil
	s.generation++
	if s.generation == 0 {
		// wrapped; zero is reserved for the zero Handle
		s.generation = 1
	}
	r.free = append(r.free, h.index)
	r.live--
	live := r.live
	r.mu.Unlock()

	r.logger.Debug("channel disconnected",
		ports.Bool("flushed", flushed),
		ports.Int("live", live),
	)
	r.observe(live)
	return nil
}

// Len returns the number of live channels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// lookup returns the channel for h or nil. Caller must hold r.mu.
func (r *Registry) lookup(h Handle) *channel {
	if h.IsZero() || int(h.index) >= len(r.slots) {
		return nil
	}
	s := r.slots[h.index]
	if s.generation != h.generation {
		return nil
	}
	return s.ch
}

func (r *Registry) observe(live int) {
	if r.observer != nil {
		r.observer.OnChannelsChanged(live)
	}
}

// split cuts data into complete non-empty lines, keeping the unterminated
// remainder in c.partial.
func (c *channel) split(data []byte) []string {
	var lines []string
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			c.partial = append(c.partial, data...)
			break
		}
		line := data[:i]
		if len(c.partial) > 0 {
			line = append(c.partial, line...)
			c.partial = nil
		}
		if l := trimLine(line); len(l) > 0 {
			lines = append(lines, string(l))
		}
		data = data[i+1:]
	}
	return lines
}

func trimLine(b []byte) []byte {
	return bytes.TrimSuffix(b, []byte{'\r'})
}
