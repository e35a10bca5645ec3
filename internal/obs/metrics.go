package obs

import (
	"sync/atomic"
	"time"

	"maestro/internal/schema"
)

const (
	maxEventType = int(schema.EventShutdown)
	maxStage     = int(schema.StageFeedback)
)

// Metrics collects lightweight counters and latency stats for the
// cycle loop.
type Metrics struct {
	eventCounts        [maxEventType + 1]uint64
	cycleSuccess       uint64
	cycleFailure       uint64
	backoffs           uint64
	stateWrites        uint64
	stateWriteFailures uint64
	journalDrops       uint64
	journalClosed      uint64

	cycleLatency LatencyStats
	storeLatency LatencyStats
	stageLatency [maxStage + 1]LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts        map[schema.EventType]uint64
	CycleSuccess       uint64
	CycleFailure       uint64
	Backoffs           uint64
	StateWrites        uint64
	StateWriteFailures uint64
	JournalDrops       uint64
	JournalClosed      uint64
	CycleLatency       LatencySnapshot
	StoreLatency       LatencySnapshot
	StageLatency       map[schema.Stage]LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent increments the per-type event counter.
func (m *Metrics) ObserveEvent(header schema.EventHeader) {
	if m == nil {
		return
	}
	idx := int(header.Type)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
}

// ObserveStage measures the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage schema.Stage, d time.Duration) {
	if m == nil {
		return
	}
	idx := int(stage)
	if idx >= 0 && idx < len(m.stageLatency) {
		m.stageLatency[idx].Observe(d)
	}
}

// ObserveCycle measures the end-to-end duration of one cycle.
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleLatency.Observe(d)
}

// ObserveStoreApply measures the duration of one state store write.
func (m *Metrics) ObserveStoreApply(d time.Duration) {
	if m == nil {
		return
	}
	m.storeLatency.Observe(d)
}

// IncCycleSuccess records a completed cycle.
func (m *Metrics) IncCycleSuccess() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.cycleSuccess, 1)
}

// IncCycleFailure records an abandoned cycle.
func (m *Metrics) IncCycleFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.cycleFailure, 1)
}

// IncBackoff records one loop-level backoff.
func (m *Metrics) IncBackoff() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.backoffs, 1)
}

// IncStateWrite records a state store write attempt.
func (m *Metrics) IncStateWrite() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.stateWrites, 1)
}

// IncStateWriteFailure records a failed state store write.
func (m *Metrics) IncStateWriteFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.stateWriteFailures, 1)
}

// IncJournalDrop records a journal publish dropped on a full queue.
func (m *Metrics) IncJournalDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.journalDrops, 1)
}

// IncJournalClosed records a publish attempt on a closed journal queue.
func (m *Metrics) IncJournalClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.journalClosed, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[schema.EventType]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			eventCounts[schema.EventType(i)] = v
		}
	}
	stageLatency := make(map[schema.Stage]LatencySnapshot)
	for i := range m.stageLatency {
		if snap := m.stageLatency[i].Snapshot(); snap.Count > 0 {
			stageLatency[schema.Stage(i)] = snap
		}
	}
	return Snapshot{
		EventCounts:        eventCounts,
		CycleSuccess:       atomic.LoadUint64(&m.cycleSuccess),
		CycleFailure:       atomic.LoadUint64(&m.cycleFailure),
		Backoffs:           atomic.LoadUint64(&m.backoffs),
		StateWrites:        atomic.LoadUint64(&m.stateWrites),
		StateWriteFailures: atomic.LoadUint64(&m.stateWriteFailures),
		JournalDrops:       atomic.LoadUint64(&m.journalDrops),
		JournalClosed:      atomic.LoadUint64(&m.journalClosed),
		CycleLatency:       m.cycleLatency.Snapshot(),
		StoreLatency:       m.storeLatency.Snapshot(),
		StageLatency:       stageLatency,
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
