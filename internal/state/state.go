package state

import "context"

// Status labels the lifecycle condition persisted for a system.
type Status string

const (
	StatusRunning  Status = "running"
	StatusError    Status = "error"
	StatusShutdown Status = "shutdown"
)

// SystemState is the operational document persisted for one system.
// Timestamps are UTC nanoseconds.
type SystemState struct {
	SystemID    string `json:"systemId"`
	RunID       string `json:"runId"`
	Status      Status `json:"status"`
	CycleCount  uint64 `json:"cycleCount"`
	StartedAt   int64  `json:"startedAt"`
	LastCycleAt int64  `json:"lastCycleAt"`
	LastError   string `json:"lastError"`
	LastErrorAt int64  `json:"lastErrorAt"`
	ShutdownAt  int64  `json:"shutdownAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// Patch is a partial state update. Nil fields keep their stored value,
// so a failure write never clobbers the cycle counter and a cycle
// write never clears the last error.
type Patch struct {
	RunID       *string
	Status      *Status
	CycleCount  *uint64
	StartedAt   *int64
	LastCycleAt *int64
	LastError   *string
	LastErrorAt *int64
	ShutdownAt  *int64
	UpdatedAt   int64
}

// UpdateResult reports whether a state write reached the store.
type UpdateResult struct {
	Applied bool
	Err     error
}

// Store persists SystemState documents keyed by system ID.
type Store interface {
	// Apply merges a patch into the stored document, creating it if
	// missing. Errors are reported in the result, never panicked.
	Apply(ctx context.Context, patch Patch) UpdateResult

	// Load returns the stored document or exception.ErrStateNotFound.
	Load(ctx context.Context) (SystemState, error)

	Close() error
}

// StartupPatch marks the system running under a new run ID.
func StartupPatch(runID string, now int64) Patch {
	status := StatusRunning
	return Patch{
		RunID:     &runID,
		Status:    &status,
		StartedAt: &now,
		UpdatedAt: now,
	}
}

// CyclePatch records one completed cycle.
func CyclePatch(count uint64, now int64) Patch {
	status := StatusRunning
	return Patch{
		Status:      &status,
		CycleCount:  &count,
		LastCycleAt: &now,
		UpdatedAt:   now,
	}
}

// FailurePatch records an abandoned cycle. The message is never empty.
func FailurePatch(msg string, now int64) Patch {
	if msg == "" {
		msg = "unknown error"
	}
	status := StatusError
	return Patch{
		Status:      &status,
		LastError:   &msg,
		LastErrorAt: &now,
		UpdatedAt:   now,
	}
}

// ShutdownPatch records a clean shutdown.
func ShutdownPatch(now int64) Patch {
	status := StatusShutdown
	return Patch{
		Status:     &status,
		ShutdownAt: &now,
		UpdatedAt:  now,
	}
}

func merge(doc *SystemState, patch Patch) {
	if patch.RunID != nil {
		doc.RunID = *patch.RunID
	}
	if patch.Status != nil {
		doc.Status = *patch.Status
	}
	if patch.CycleCount != nil {
		doc.CycleCount = *patch.CycleCount
	}
	if patch.StartedAt != nil {
		doc.StartedAt = *patch.StartedAt
	}
	if patch.LastCycleAt != nil {
		doc.LastCycleAt = *patch.LastCycleAt
	}
	if patch.LastError != nil {
		doc.LastError = *patch.LastError
	}
	if patch.LastErrorAt != nil {
		doc.LastErrorAt = *patch.LastErrorAt
	}
	if patch.ShutdownAt != nil {
		doc.ShutdownAt = *patch.ShutdownAt
	}
	if patch.UpdatedAt != 0 {
		doc.UpdatedAt = patch.UpdatedAt
	}
}
