package orchestrator

// Phase tracks the lifecycle of the orchestrator process.
type Phase uint16

const (
	PhaseCreated Phase = iota
	PhaseInitializing
	PhaseRunning
	PhaseBackoff
	PhaseShuttingDown
	PhaseTerminated
)

// String returns the phase name used in logs and errors.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseInitializing:
		return "initializing"
	case PhaseRunning:
		return "running"
	case PhaseBackoff:
		return "backoff"
	case PhaseShuttingDown:
		return "shutting-down"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// canTransition encodes the legal lifecycle moves. Only Running
// executes cycles; ShuttingDown is reachable from every live phase so
// an interrupt always lands.
func canTransition(from, to Phase) bool {
	switch from {
	case PhaseCreated:
		return to == PhaseInitializing || to == PhaseShuttingDown
	case PhaseInitializing:
		return to == PhaseRunning || to == PhaseTerminated || to == PhaseShuttingDown
	case PhaseRunning:
		return to == PhaseBackoff || to == PhaseShuttingDown
	case PhaseBackoff:
		return to == PhaseRunning || to == PhaseShuttingDown
	case PhaseShuttingDown:
		return to == PhaseTerminated
	default:
		return false
	}
}
