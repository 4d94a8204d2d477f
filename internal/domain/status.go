package domain

// Status represents the lifecycle state of a task record.
type Status string

const (
	StatusRunning Status = "running" // Agent process launched
	StatusDone    Status = "done"    // Agent process exited
)

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusRunning, StatusDone:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if the status can transition to the target status.
// The only transition is running -> done.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusRunning && target == StatusDone
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}
