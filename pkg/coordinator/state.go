package coordinator

import "github.com/bindicator/bindicator/pkg/bins"

// Phase is the lifecycle of the current selection.
//
//	Empty     -> nothing selected
//	Restoring -> selection restored at startup, first fetch pending
//	Prefilled -> fetch pending, something (cached or older data) on screen
//	Loading   -> fetch pending, nothing to show yet
//	Ready     -> authoritative data on screen
//	Errored   -> last fetch failed; any earlier data is kept
type Phase int

const (
	Empty Phase = iota
	Restoring
	Prefilled
	Loading
	Ready
	Errored
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Restoring:
		return "restoring"
	case Prefilled:
		return "prefilled"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// State is a snapshot of the coordinator.
type State struct {
	Phase Phase
	UPRN  string
	Epoch uint64

	// Data is the last authoritative schedule for UPRN.
	Data *bins.Schedule
	// Prefill is cached data shown while Data is missing or being refreshed.
	Prefill *bins.Schedule
	// Err is the failure of the last fetch, if any.
	Err error
}

// Loading reports whether a fetch is outstanding.
func (s State) Loading() bool {
	switch s.Phase {
	case Restoring, Prefilled, Loading:
		return true
	}
	return false
}

// Display is the schedule to put on screen: authoritative data first, then
// the prefill.
func (s State) Display() *bins.Schedule {
	if s.Data != nil {
		return s.Data
	}
	return s.Prefill
}
