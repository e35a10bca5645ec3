package obs

import (
	"sync/atomic"
	"time"
)

// TraceGenerator hands out the trace IDs that tie a cycle's journal
// events together. IDs are monotonically increasing and unique within
// a process.
type TraceGenerator struct {
	next uint64
}

// NewTraceGenerator seeds the generator. A zero seed uses the current
// time so IDs stay distinct across restarts.
func NewTraceGenerator(seed uint64) *TraceGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &TraceGenerator{next: seed}
}

// Next returns the next trace ID. Safe for a nil receiver.
func (g *TraceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}
