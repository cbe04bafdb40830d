package level

import "fmt"

// State is the position of a Manager in its run state machine:
// Idle -> Enumerating -> Dispatching -> Merging -> {Enumerating | Done | Cancelled}.
type State int

const (
	Idle State = iota
	Enumerating
	Dispatching
	Merging
	Done
	Cancelled
)

var stateNames = [...]string{"idle", "enumerating", "dispatching", "merging", "done", "cancelled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Running reports whether s is a state inside a run.
func (s State) Running() bool {
	return s == Enumerating || s == Dispatching || s == Merging
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == Done || s == Cancelled
}
