package fsm

import "github.com/gostonefire/flowlookup/flowerr"

// State - Engine call order state
type State uint8

const (
	Unknown State = iota
	Initialized
	Enabled
	Installed
	FatalError
)

// String - Returns the name of the state
func (S State) String() string {
	switch S {
	case Initialized:
		return "initialized"
	case Enabled:
		return "enabled"
	case Installed:
		return "installed"
	case FatalError:
		return "fatal-error"
	}
	return "unknown"
}

// legal - Allowed transitions, FatalError is reachable from any state
var legal = map[State][]State{
	Unknown:     {Initialized},
	Initialized: {Enabled},
	Enabled:     {Installed},
	Installed:   {Installed, Enabled},
}

// Tracker - Tracks engine call order. A violation moves the tracker to FatalError for good.
type Tracker struct {
	state State
}

// NewTracker - Returns a pointer to a new Tracker in the Unknown state
func NewTracker() *Tracker {
	return &Tracker{}
}

// State - Returns the current state
func (T *Tracker) State() State {
	return T.state
}

// Allowed - Returns true if moving from the current state to next is legal
func (T *Tracker) Allowed(next State) bool {
	if next == FatalError {
		return true
	}
	for _, s := range legal[T.state] {
		if s == next {
			return true
		}
	}
	return false
}

// Check - Verifies that next can be reached without moving there.
// It returns an error of type flowerr.IllegalInState, and enters FatalError, if it can not.
func (T *Tracker) Check(next State) (err error) {
	if !T.Allowed(next) {
		err = T.fail(next)
	}
	return
}

// Set - Moves to next.
// It returns an error of type flowerr.IllegalInState, and enters FatalError, if the transition is illegal.
func (T *Tracker) Set(next State) (err error) {
	if !T.Allowed(next) {
		return T.fail(next)
	}
	T.state = next
	return
}

// Require - Verifies that the tracker is in state s.
// It returns an error of type flowerr.IllegalInState, and enters FatalError, if it is not.
func (T *Tracker) Require(s State) (err error) {
	if T.state != s {
		return T.fail(s)
	}
	return
}

func (T *Tracker) fail(next State) error {
	from := T.state
	T.state = FatalError
	return flowerr.NewIllegalInState("illegal in state %s (requested %s)", from, next)
}
