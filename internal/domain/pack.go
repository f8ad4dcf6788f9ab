package domain

import (
	"strings"
	"time"
)

// Pack is a finalized batch of commands.
// It maintains the invariant that a delivered pack holds at least one command;
// the empty pack is reserved for the shutdown sentinel.
type Pack struct {
	// OpenedAt is the wall-clock time the first command was appended
	OpenedAt time.Time

	// Commands holds the command lines in arrival order
	Commands []string
}

// NewPack creates a pack from the given commands.
// The slice is copied so later changes by the caller do not leak into the pack.
func NewPack(openedAt time.Time, commands []string) Pack {
	return Pack{
		OpenedAt: openedAt,
		Commands: append([]string(nil), commands...),
	}
}

// Sentinel returns the empty pack used to wake workers at shutdown.
func Sentinel(now time.Time) Pack {
	return Pack{OpenedAt: now}
}

// Size returns the number of commands in the pack.
func (p Pack) Size() int {
	return len(p.Commands)
}

// Empty returns true if the pack has no commands.
func (p Pack) Empty() bool {
	return len(p.Commands) == 0
}

// Join returns the commands joined with sep.
func (p Pack) Join(sep string) string {
	return strings.Join(p.Commands, sep)
}
