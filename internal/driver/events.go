package driver

// EventKind tags an Event.
type EventKind uint8

const (
	// EventPlanned is sent once with the number of functions to lower.
	EventPlanned EventKind = iota + 1
	EventStarted
	EventFinished
	// EventPhase announces a driver phase by name.
	EventPhase
)

// Event reports progress to an observer such as the terminal UI.
type Event struct {
	Kind   EventKind
	Name   string // function or phase name
	Index  int
	Total  int
	Failed bool
	Cached bool
}
