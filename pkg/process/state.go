package process

// State represents where the current turn is in its lifecycle
type State string

const (
	// StateIdle indicates no turn is in flight
	StateIdle State = ""

	// StateCreatingSession indicates a new chat session is being requested
	StateCreatingSession State = "creating_session"

	// StateSending indicates the message was sent and no packets arrived yet
	StateSending State = "sending"

	// StateReceiving indicates packet batches are arriving
	StateReceiving State = "receiving"

	// StateCancelling indicates a stop was requested and is not yet observed
	StateCancelling State = "cancelling"
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsActive reports whether a turn is in flight
func (s State) IsActive() bool {
	return s != StateIdle
}

// GetIcon returns the appropriate icon for a given process state
func (s State) GetIcon() string {
	switch s {
	case StateCreatingSession:
		return "+"
	case StateSending:
		return "↑"
	case StateReceiving:
		return "↓"
	case StateCancelling:
		return "■"
	default:
		return ""
	}
}

// GetDisplayName returns a human-readable name for the state
func (s State) GetDisplayName() string {
	switch s {
	case StateCreatingSession:
		return "Starting session"
	case StateSending:
		return "Searching"
	case StateReceiving:
		return "Answering"
	case StateCancelling:
		return "Stopping"
	case StateIdle:
		return "Idle"
	default:
		return ""
	}
}
