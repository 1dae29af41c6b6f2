package gate

import "time"

// State is the gate indicator shown in the hero chip.
type State int

const (
	Open State = iota
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Label is the chip text for the state.
func (s State) Label() string {
	switch s {
	case Closing:
		return "Gate Closing Soon"
	case Closed:
		return "Gate Closed"
	default:
		return "Gate Open"
	}
}

// Class is the visual class applied to the chip element.
func (s State) Class() string {
	switch s {
	case Closing:
		return "chip-closing"
	case Closed:
		return "chip-closed"
	default:
		return "chip-open"
	}
}

func (s State) Icon() string {
	switch s {
	case Closing:
		return "⚠️"
	case Closed:
		return "🚧"
	default:
		return "✅"
	}
}

// ForRemaining picks the state for the time left before arrival.
func ForRemaining(remaining, preClose time.Duration) State {
	if remaining <= 0 {
		return Closed
	}
	if remaining <= preClose {
		return Closing
	}
	return Open
}
