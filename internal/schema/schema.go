package schema

// SchemaVersion is the current cycle event schema version.
const SchemaVersion uint16 = 1

// EventType defines the category of an event stored in the cycle journal.
type EventType uint16

const (
	EventUnknown EventType = iota
	EventCycleStart
	EventStageResult
	EventCycleResult
	EventCycleFailure
	EventStateWrite
	EventShutdown
)

// Stage identifies one step of the cycle pipeline.
type Stage uint16

const (
	StageUnknown Stage = iota
	StageCapture
	StagePredict
	StageStrategize
	StageOptimize
	StageExecute
	StageFeedback
)

// String returns the stage name used in logs and tool output.
func (s Stage) String() string {
	switch s {
	case StageCapture:
		return "capture"
	case StagePredict:
		return "predict"
	case StageStrategize:
		return "strategize"
	case StageOptimize:
		return "optimize"
	case StageExecute:
		return "execute"
	case StageFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// EventHeader is the common metadata attached to every event.
type EventHeader struct {
	Type    EventType
	Version uint16
	Source  uint16
	Flags   uint16
	Seq     uint64
	TsEvent int64
	TsRecv  int64
	TraceID uint64
}

// NewHeader builds a header with the current schema version.
func NewHeader(eventType EventType, source uint16, seq uint64, tsEvent, tsRecv int64) EventHeader {
	return EventHeader{
		Type:    eventType,
		Version: SchemaVersion,
		Source:  source,
		Seq:     seq,
		TsEvent: tsEvent,
		TsRecv:  tsRecv,
	}
}
