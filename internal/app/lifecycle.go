package app

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bft-labs/bulkd/internal/ports"
)

// ShutdownTimeout is the default maximum time to wait for workers to drain.
const ShutdownTimeout = 30 * time.Second

// State is a stage in the life of an Engine.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
	StateCrashed
)

var stateNames = [...]string{
	StateIdle:     "Idle",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateStopped:  "Stopped",
	StateCrashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// An engine runs once: Stopped and Crashed have no way out.
var nextStates = map[State][]State{
	StateIdle:     {StateStarting},
	StateStarting: {StateRunning},
	StateRunning:  {StateStopping},
	StateStopping: {StateStopped, StateCrashed},
}

var errInvalidTransition = errors.New("bulkd: invalid state transition")

// EventEmitter is told about every engine state change.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// stateMachine holds the engine state and reports each move.
type stateMachine struct {
	mu      sync.Mutex
	state   State
	logger  ports.Logger
	emitter EventEmitter
}

func (m *stateMachine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// advance moves to the given state if the current state allows it.
// The emitter and the logger are called outside the lock.
func (m *stateMachine) advance(to State, reason string) error {
	m.mu.Lock()
	from := m.state
	if !slices.Contains(nextStates[from], to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", errInvalidTransition, from, to)
	}
	m.state = to
	m.mu.Unlock()

	if m.emitter != nil {
		m.emitter.OnStateChange(from, to, reason)
	}
	m.logger.Info("engine state",
		ports.String("from", from.String()),
		ports.String("to", to.String()),
		ports.String("reason", reason),
	)
	return nil
}
