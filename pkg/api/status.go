package api

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunCancelled RunStatus = "CANCELLED"
	RunTimeout   RunStatus = "TIMEOUT"
)

// String returns the wire token for the status, or "UNKNOWN" for values
// outside the enumeration.
func (s RunStatus) String() string {
	switch s {
	case RunPending, RunRunning, RunCompleted, RunFailed, RunCancelled, RunTimeout:
		return string(s)
	default:
		return "UNKNOWN"
	}
}

// RunStatusFromString maps a wire token back to a RunStatus.
//
// Unrecognized tokens map to RunPending. Callers rely on this fallback when
// the server introduces new statuses, so it is part of the contract; do not
// turn it into an error.
func RunStatusFromString(s string) RunStatus {
	switch s {
	case "PENDING":
		return RunPending
	case "RUNNING":
		return RunRunning
	case "COMPLETED":
		return RunCompleted
	case "FAILED":
		return RunFailed
	case "CANCELLED":
		return RunCancelled
	case "TIMEOUT":
		return RunTimeout
	default:
		return RunPending
	}
}
