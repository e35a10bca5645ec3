package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maestro/pkg/exception"
)

func TestPatchMergeKeepsUnrelatedFields(t *testing.T) {
	ctx := t.Context()
	store := NewMemoryStore("sys-a")

	res := store.Apply(ctx, StartupPatch("run-1", 100))
	require.NoError(t, res.Err)
	require.True(t, res.Applied)

	res = store.Apply(ctx, CyclePatch(3, 200))
	require.NoError(t, res.Err)

	res = store.Apply(ctx, FailurePatch("capture data: feed down", 300))
	require.NoError(t, res.Err)

	doc, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, "sys-a", doc.SystemID)
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, StatusError, doc.Status)
	assert.Equal(t, uint64(3), doc.CycleCount, "failure patch must not clobber the counter")
	assert.Equal(t, int64(200), doc.LastCycleAt)
	assert.Equal(t, "capture data: feed down", doc.LastError)
	assert.Equal(t, int64(300), doc.LastErrorAt)
	assert.Equal(t, int64(300), doc.UpdatedAt)

	res = store.Apply(ctx, CyclePatch(4, 400))
	require.NoError(t, res.Err)

	doc, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, doc.Status)
	assert.Equal(t, uint64(4), doc.CycleCount)
	assert.Equal(t, "capture data: feed down", doc.LastError, "cycle patch must not clear the last error")
}

func TestFailurePatchNeverEmpty(t *testing.T) {
	patch := FailurePatch("", 10)
	require.NotNil(t, patch.LastError)
	assert.Equal(t, "unknown error", *patch.LastError)
}

func TestShutdownPatch(t *testing.T) {
	ctx := t.Context()
	store := NewMemoryStore("sys-a")

	res := store.Apply(ctx, ShutdownPatch(500))
	require.NoError(t, res.Err)

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusShutdown, doc.Status)
	assert.Equal(t, int64(500), doc.ShutdownAt)
}

func TestMemoryStoreLoadNotFound(t *testing.T) {
	store := NewMemoryStore("sys-a")

	_, err := store.Load(t.Context())
	require.ErrorIs(t, err, exception.ErrStateNotFound)
}

func TestMemoryStoreFailureInjection(t *testing.T) {
	ctx := t.Context()
	store := NewMemoryStore("sys-a")

	res := store.Apply(ctx, CyclePatch(1, 100))
	require.NoError(t, res.Err)

	boom := errors.New("store offline")
	store.FailWith(boom)

	res = store.Apply(ctx, CyclePatch(2, 200))
	require.ErrorIs(t, res.Err, boom)
	assert.False(t, res.Applied)
	assert.Equal(t, uint64(1), store.State().CycleCount, "failed write must not mutate the document")
	assert.Equal(t, uint64(1), store.Applies())

	store.FailWith(nil)
	res = store.Apply(ctx, CyclePatch(2, 200))
	require.NoError(t, res.Err)
	assert.Equal(t, uint64(2), store.State().CycleCount)
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := t.Context()
	store := NewMemoryStore("sys-a")
	require.NoError(t, store.Close())

	res := store.Apply(ctx, CyclePatch(1, 100))
	require.ErrorIs(t, res.Err, exception.ErrStoreClosed)

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, exception.ErrStoreClosed)
}

func TestCompareStates(t *testing.T) {
	base := SystemState{Status: StatusError, CycleCount: 5, LastError: "capture data: feed down"}

	require.NoError(t, CompareStates(base, SystemState{
		Status:     StatusError,
		CycleCount: 5,
		LastError:  "capture data: feed d",
	}), "truncated error text should match")

	err := CompareStates(base, SystemState{Status: StatusRunning, CycleCount: 5, LastError: base.LastError})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status mismatch")

	err = CompareStates(base, SystemState{Status: StatusError, CycleCount: 4, LastError: base.LastError})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle count mismatch")

	err = CompareStates(base, SystemState{Status: StatusError, CycleCount: 5, LastError: "other failure"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last error mismatch")
}
