package supervisor

// State is the worker process lifecycle as seen by the supervisor.
type State int

const (
	StateAbsent State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}
