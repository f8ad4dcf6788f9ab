package batch

import (
	"time"

	"github.com/bft-labs/bulkd/internal/domain"
)

// Grouper turns command lines into packs under a grouping mode.
//
// Lines outside a block are grouped by capacity in static mode. A top-level
// block, from its open marker through the matching close marker, always forms
// one pack of its own. In dynamic mode markers only move the depth: a
// submission is finalized once, by the flush that closes it, so it always
// yields exactly one pack whatever blocks it holds.
//
// A Grouper has a single writer and is not safe for concurrent use.
type Grouper struct {
	mode     Mode
	notify   Notifier
	now      func() time.Time
	tracker  Tracker
	commands []string
	openedAt time.Time
}

var _ Batcher = (*Grouper)(nil)

// Option configures a Grouper.
type Option func(*Grouper)

// WithClock sets the time source used to stamp new packs.
func WithClock(now func() time.Time) Option {
	return func(g *Grouper) {
		g.now = now
	}
}

// NewGrouper creates a grouper for mode that reports packs to notify.
func NewGrouper(mode Mode, notify Notifier, opts ...Option) *Grouper {
	g := &Grouper{
		mode:   mode,
		notify: notify,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if mode.Capacity > 0 {
		g.commands = make([]string, 0, mode.Capacity)
	}
	return g
}

// Push adds one command line.
func (g *Grouper) Push(line string) {
	step := g.tracker.Step(line)
	if g.mode.Kind == KindDynamic {
		g.append(line)
		return
	}

	switch step.Kind {
	case StepOpen:
		if step.TopLevel {
			g.finalize()
		}
		g.append(line)
	case StepClose:
		g.append(line)
		if step.Closed {
			g.finalize()
		}
	case StepNested:
		g.append(line)
	default:
		g.append(line)
		if g.mode.Kind == KindStatic && len(g.commands) >= g.mode.Capacity {
			g.finalize()
		}
	}
}

// Submit adds lines delivered as one unit.
func (g *Grouper) Submit(lines []string) {
	for _, line := range lines {
		g.Push(line)
	}
	if g.mode.Kind == KindDynamic {
		g.Flush()
	}
}

// Flush finalizes the open pack if it is not empty and drops any unmatched
// open markers.
func (g *Grouper) Flush() {
	g.finalize()
	g.tracker.Reset()
}

// HasPending returns true if the open pack holds commands.
func (g *Grouper) HasPending() bool {
	return len(g.commands) > 0
}

func (g *Grouper) append(line string) {
	if len(g.commands) == 0 {
		g.openedAt = g.now()
	}
	g.commands = append(g.commands, line)
}

func (g *Grouper) finalize() {
	if len(g.commands) == 0 {
		return
	}
	pack := domain.NewPack(g.openedAt, g.commands)
	g.commands = g.commands[:0]
	if g.notify != nil {
		g.notify(pack)
	}
}
