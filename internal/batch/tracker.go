package batch

// Block markers. Each occupies a whole line.
const (
	OpenMarker  = "{"
	CloseMarker = "}"
)

// StepKind classifies a line relative to the bracket nesting.
type StepKind int

const (
	// StepPlain is an ordinary line outside any block. A close marker with
	// no open block is plain content.
	StepPlain StepKind = iota
	// StepOpen is an open marker.
	StepOpen
	// StepClose is a close marker matching an open one.
	StepClose
	// StepNested is any other line inside a block.
	StepNested
)

// Step is the result of feeding one line to a Tracker.
type Step struct {
	Kind StepKind

	// Depth is the nesting depth after the line.
	Depth int

	// TopLevel is true for an open marker that starts a block at depth 0.
	TopLevel bool

	// Closed is true for a close marker that returns the depth to 0.
	Closed bool
}

// Tracker follows open/close markers and reports the nesting depth.
// The zero value is ready to use.
type Tracker struct {
	depth int
}

// Step classifies line and updates the depth.
func (t *Tracker) Step(line string) Step {
	switch {
	case line == OpenMarker:
		t.depth++
		return Step{Kind: StepOpen, Depth: t.depth, TopLevel: t.depth == 1}
	case line == CloseMarker && t.depth > 0:
		t.depth--
		return Step{Kind: StepClose, Depth: t.depth, Closed: t.depth == 0}
	case t.depth > 0:
		return Step{Kind: StepNested, Depth: t.depth}
	default:
		return Step{Kind: StepPlain}
	}
}

// Depth returns the number of unmatched open markers.
func (t *Tracker) Depth() int {
	return t.depth
}

// Reset drops any unmatched open markers.
func (t *Tracker) Reset() {
	t.depth = 0
}
