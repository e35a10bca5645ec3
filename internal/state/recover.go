package state

import (
	"context"
	"fmt"

	"maestro/internal/codec"
	"maestro/internal/journal"
	"maestro/internal/schema"
)

// RecoverConfig controls journal replay recovery.
type RecoverConfig struct {
	JournalDir      string
	FilePrefix      string
	SystemID        string
	DisableChecksum bool
	MaxPayloadSize  int
}

// RecoverResult contains the rebuilt state and replay metadata.
type RecoverResult struct {
	State    SystemState
	Events   uint64
	Failures uint64
	LastSeq  uint64
}

// RecoverState replays the cycle journal in order and rebuilds the
// state document the orchestrator would have persisted.
func RecoverState(ctx context.Context, cfg RecoverConfig) (RecoverResult, error) {
	if cfg.JournalDir == "" {
		return RecoverResult{}, fmt.Errorf("journal dir is empty")
	}

	pb, err := journal.NewPlayback(journal.PlaybackConfig{
		Dir:             cfg.JournalDir,
		FilePrefix:      cfg.FilePrefix,
		Speed:           0,
		DisableChecksum: cfg.DisableChecksum,
		MaxPayloadSize:  cfg.MaxPayloadSize,
	})
	if err != nil {
		return RecoverResult{}, err
	}

	var result RecoverResult
	doc := SystemState{SystemID: cfg.SystemID}

	err = pb.Run(ctx, func(header schema.EventHeader, payload []byte) error {
		result.Events++
		if header.Seq > result.LastSeq {
			result.LastSeq = header.Seq
		}

		switch header.Type {
		case schema.EventCycleResult:
			cr, ok := codec.DecodeCycleResult(payload)
			if !ok {
				return fmt.Errorf("decode cycle result failed, seq: %d", header.Seq)
			}
			doc.Status = StatusRunning
			doc.CycleCount = cr.Cycle
			doc.LastCycleAt = header.TsEvent
			doc.UpdatedAt = header.TsEvent
		case schema.EventCycleFailure:
			cf, ok := codec.DecodeCycleFailure(payload)
			if !ok {
				return fmt.Errorf("decode cycle failure failed, seq: %d", header.Seq)
			}
			result.Failures++
			doc.Status = StatusError
			doc.LastError = cf.ReasonText()
			doc.LastErrorAt = header.TsEvent
			doc.UpdatedAt = header.TsEvent
		case schema.EventShutdown:
			doc.Status = StatusShutdown
			doc.ShutdownAt = header.TsEvent
			doc.UpdatedAt = header.TsEvent
		}
		return nil
	})
	if err != nil {
		return RecoverResult{}, err
	}

	result.State = doc
	return result, nil
}
