package pipeline

import "fmt"

// State is the lifecycle position of a run.
type State int

const (
	Unconfigured State = iota
	Resolved
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "UNCONFIGURED"
	case Resolved:
		return "RESOLVED"
	case Running:
		return "RUNNING"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether the state is final.
func (s State) IsTerminal() bool {
	return s == Completed || s == Failed
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case Unconfigured:
		return to == Resolved || to == Failed
	case Resolved:
		return to == Running
	case Running:
		return to == Completed || to == Failed
	default:
		return false
	}
}
