package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"maestro/internal/codec"
	"maestro/internal/journal"
	"maestro/internal/schema"
	"maestro/internal/state"
)

func main() {
	dir := flag.String("dir", "testdata/journal", "Journal directory")
	prefix := flag.String("prefix", "", "Journal file prefix (default: cycles)")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	useRecv := flag.Bool("use-recv-time", false, "Use receive timestamp for pacing")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	decode := flag.Bool("decode", false, "Decode known payload types")
	systemID := flag.String("system", "maestro", "System ID for state recovery")
	verifyState := flag.String("verify-state", "", "State JSON file to verify the replay against")
	flag.Parse()

	cfg := journal.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		Speed:           *speed,
		UseRecvTime:     *useRecv,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	}
	pb, err := journal.NewPlayback(cfg)
	if err != nil {
		log.Fatalf("playback init failed: %v", err)
	}

	ctx := context.Background()
	var index int
	err = pb.Run(ctx, func(header schema.EventHeader, payload []byte) error {
		index++
		fmt.Printf("%06d seq=%d type=%s trace=%d ts_event=%d len=%d\n",
			index, header.Seq, eventTypeName(header.Type), header.TraceID, header.TsEvent, len(payload))
		if *decode {
			printDecoded(header.Type, payload)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("playback run failed: %v", err)
	}

	recovered, err := state.RecoverState(ctx, state.RecoverConfig{
		JournalDir:      *dir,
		FilePrefix:      *prefix,
		SystemID:        *systemID,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	})
	if err != nil {
		log.Fatalf("state recovery failed: %v", err)
	}
	log.Printf("replay completed: events=%d failures=%d last_seq=%d status=%s cycles=%d",
		recovered.Events, recovered.Failures, recovered.LastSeq,
		recovered.State.Status, recovered.State.CycleCount)

	if *verifyState != "" {
		expected, err := state.ReadState(*verifyState)
		if err != nil {
			log.Fatalf("read state file failed: %v", err)
		}
		if err := state.CompareStates(expected, recovered.State); err != nil {
			log.Fatalf("state verification failed: %v", err)
		}
		log.Printf("state verified: cycles=%d status=%s", expected.CycleCount, expected.Status)
	}
}

func eventTypeName(t schema.EventType) string {
	switch t {
	case schema.EventCycleStart:
		return "CycleStart"
	case schema.EventStageResult:
		return "StageResult"
	case schema.EventCycleResult:
		return "CycleResult"
	case schema.EventCycleFailure:
		return "CycleFailure"
	case schema.EventStateWrite:
		return "StateWrite"
	case schema.EventShutdown:
		return "Shutdown"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
}

func printDecoded(t schema.EventType, payload []byte) {
	switch t {
	case schema.EventCycleStart:
		if cs, ok := codec.DecodeCycleStart(payload); ok {
			fmt.Printf("       cycle=%d live=%d\n", cs.Cycle, cs.Live)
		}
	case schema.EventStageResult:
		if sr, ok := codec.DecodeStageResult(payload); ok {
			fmt.Printf("       cycle=%d stage=%s items=%d elapsed_us=%d\n",
				sr.Cycle, sr.Stage, sr.Items, sr.ElapsedMicros)
		}
	case schema.EventCycleResult:
		if cr, ok := codec.DecodeCycleResult(payload); ok {
			fmt.Printf("       cycle=%d stages=%d executed=%d filled=%d rejected=%d notional=%d elapsed_us=%d\n",
				cr.Cycle, cr.StagesRun, cr.Executed, cr.Filled, cr.Rejected, cr.Notional, cr.ElapsedMicros)
		}
	case schema.EventCycleFailure:
		if cf, ok := codec.DecodeCycleFailure(payload); ok {
			fmt.Printf("       cycle=%d stage=%s reason=%q\n", cf.Cycle, cf.Stage, cf.ReasonText())
		}
	case schema.EventStateWrite:
		if sw, ok := codec.DecodeStateWrite(payload); ok {
			fmt.Printf("       cycle=%d kind=%d outcome=%d elapsed_us=%d\n",
				sw.Cycle, sw.Kind, sw.Outcome, sw.ElapsedMicros)
		}
	}
}
