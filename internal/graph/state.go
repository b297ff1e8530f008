package graph

// State is the lifecycle position of the graph.
type State int32

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateInError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitialized:
		return "Initialized"
	case StateRunning:
		return "Running"
	case StateInError:
		return "InError"
	default:
		return "Unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
