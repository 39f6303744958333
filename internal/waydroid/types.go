package waydroid

// Status is the container state as reported by the waydroid CLI.
type Status int

const (
	// StatusUnknown means the state could not be determined, typically
	// because the waydroid binary is not installed.
	StatusUnknown Status = iota
	StatusStopped
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
