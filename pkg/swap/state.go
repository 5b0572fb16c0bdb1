package swap

import "fmt"

// State is a step of the swap decision protocol
type State int

const (
	StateInit State = iota
	StateEstimating
	StateVenueSelected
	StateBuildingTx
	StateSigning
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:          "INIT",
	StateEstimating:    "ESTIMATING",
	StateVenueSelected: "VENUE_SELECTED",
	StateBuildingTx:    "BUILDING_TX",
	StateSigning:       "SIGNING",
	StateDone:          "DONE",
	StateFailed:        "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Error reports the step at which an operation failed
type Error struct {
	Op    string
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	opSwap     = "swap"
	opEstimate = "estimate"
)
