package schema

// CycleStart marks the beginning of one pipeline cycle.
type CycleStart struct {
	Cycle    uint64
	Live     uint8
	Flags    uint8
	Reserved [6]byte
}

// StageResult records one completed pipeline stage.
type StageResult struct {
	Cycle         uint64
	Stage         Stage
	Flags         uint16
	Items         uint32
	ElapsedMicros int64
}

// CycleResult summarizes one successful cycle.
type CycleResult struct {
	Cycle         uint64
	StagesRun     uint16
	Flags         uint16
	Executed      uint16
	Filled        uint16
	Rejected      uint32
	Reserved      uint32
	Notional      Notional
	ElapsedMicros int64
}

// MaxFailureReason bounds the reason text carried in a CycleFailure.
const MaxFailureReason = 48

// CycleFailure records an abandoned cycle. Reason holds a truncated
// error message, ReasonLen its byte length.
type CycleFailure struct {
	Cycle     uint64
	Stage     Stage
	Flags     uint16
	ReasonLen uint16
	Reserved  uint16
	Reason    [MaxFailureReason]byte
}

// SetReason copies msg into the fixed reason buffer, truncating if needed.
func (f *CycleFailure) SetReason(msg string) {
	n := copy(f.Reason[:], msg)
	f.ReasonLen = uint16(n)
}

// ReasonText returns the stored reason as a string.
func (f *CycleFailure) ReasonText() string {
	n := int(f.ReasonLen)
	if n > len(f.Reason) {
		n = len(f.Reason)
	}
	return string(f.Reason[:n])
}

// StateWriteKind labels which lifecycle record a state write carried.
type StateWriteKind uint8

const (
	StateWriteUnknown StateWriteKind = iota
	StateWriteStartup
	StateWriteCycle
	StateWriteFailure
	StateWriteShutdown
)

// StateWriteOutcome reports whether the store accepted a write.
type StateWriteOutcome uint8

const (
	StateWriteApplied StateWriteOutcome = iota + 1
	StateWriteFailed
)

// StateWrite records one attempt to persist system state.
type StateWrite struct {
	Cycle         uint64
	Kind          StateWriteKind
	Outcome       StateWriteOutcome
	Flags         uint16
	Reserved      uint32
	ElapsedMicros int64
}
