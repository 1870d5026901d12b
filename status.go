package chatkit

// Status is the rendered lifecycle state of a message.
type Status int

const (
	StatusPending          Status = iota // Loading, no content yet.
	StatusStreaming                      // Loading, content arriving.
	StatusToolRunning                    // A tool invocation is in progress.
	StatusStopped                        // Finished without a stop reason.
	StatusStoppedError                   // Terminal: generic failure.
	StatusStoppedCancel                  // Terminal: cancelled by the user.
	StatusStoppedAPIKey                  // Terminal: credentials rejected.
	StatusStoppedRecursion               // Terminal: tool loop limit hit.
)

// String returns the status name used in logs and tests.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusStreaming:
		return "streaming"
	case StatusToolRunning:
		return "tool-running"
	case StatusStopped:
		return "stopped"
	case StatusStoppedError:
		return "stopped-error"
	case StatusStoppedCancel:
		return "stopped-cancel"
	case StatusStoppedAPIKey:
		return "stopped-apikey"
	case StatusStoppedRecursion:
		return "stopped-recursion"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status carries a stop-reason banner.
func (s Status) Terminal() bool {
	switch s {
	case StatusStoppedError, StatusStoppedCancel, StatusStoppedAPIKey, StatusStoppedRecursion:
		return true
	}
	return false
}
