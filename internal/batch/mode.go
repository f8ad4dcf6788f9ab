package batch

import "fmt"

// Kind selects the grouping rule of a channel.
type Kind int

const (
	// KindStatic finalizes a pack every Capacity commands.
	KindStatic Kind = iota
	// KindDynamic finalizes one pack per submission.
	KindDynamic
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Mode is a grouping kind with its capacity.
type Mode struct {
	Kind     Kind
	Capacity int
}

// Static returns a fixed-size mode of n commands per pack.
func Static(n int) Mode {
	return Mode{Kind: KindStatic, Capacity: n}
}

// Dynamic returns the bracket-delimited mode.
func Dynamic(n int) Mode {
	return Mode{Kind: KindDynamic, Capacity: n}
}

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	return fmt.Sprintf("%s(%d)", m.Kind, m.Capacity)
}
