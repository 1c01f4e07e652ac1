package beacon

// Status is the current phase of a signal. Exactly one status is active at
// a time.
type Status int

const (
	// StatusIdle is the initial status before any mutation.
	StatusIdle Status = iota

	// StatusBusy indicates a guarded operation is in progress.
	StatusBusy

	// StatusSuccess indicates the last operation completed successfully.
	StatusSuccess

	// StatusError indicates the last operation failed. The message is
	// available via ErrorMessage.
	StatusError
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
