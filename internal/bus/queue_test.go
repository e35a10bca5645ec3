package bus

import (
	"errors"
	"testing"

	"maestro/internal/schema"
)

func TestTryPublishFull(t *testing.T) {
	q := NewQueue(2)

	for i := 0; i < 2; i++ {
		if err := q.TryPublish(Event{Header: schema.EventHeader{Seq: uint64(i)}}); err != nil {
			t.Fatalf("publish %d should succeed, err: %+v", i, err)
		}
	}
	if err := q.TryPublish(Event{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("full queue should reject publish, err: %+v", err)
	}
}

func TestPublishAfterClose(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	q.Close()

	if err := q.TryPublish(Event{}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("closed queue should reject publish, err: %+v", err)
	}
}

func TestDrainKeepsOrder(t *testing.T) {
	q := NewQueue(8)
	for i := 0; i < 5; i++ {
		if err := q.TryPublish(Event{Header: schema.EventHeader{Seq: uint64(i + 1)}}); err != nil {
			t.Fatalf("publish failed, err: %+v", err)
		}
	}

	var seqs []uint64
	n := q.Drain(func(e Event) { seqs = append(seqs, e.Header.Seq) })

	if n != 5 {
		t.Fatalf("drain count mismatch! should be 5 but got %d", n)
	}
	for i, seq := range seqs {
		if seq != uint64(i+1) {
			t.Fatalf("drain order mismatch: got %v", seqs)
		}
	}
	if got := q.Drain(func(Event) {}); got != 0 {
		t.Fatalf("second drain should be empty but handled %d", got)
	}
}

func TestDrainAfterCloseFlushesBuffered(t *testing.T) {
	q := NewQueue(4)
	for i := 0; i < 3; i++ {
		if err := q.TryPublish(Event{Header: schema.EventHeader{Seq: uint64(i)}}); err != nil {
			t.Fatalf("publish failed, err: %+v", err)
		}
	}
	q.Close()

	if n := q.Drain(func(Event) {}); n != 3 {
		t.Fatalf("drain after close mismatch! should be 3 but got %d", n)
	}
}
