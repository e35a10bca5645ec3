package journal

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maestro/internal/schema"
)

func writeRecords(t *testing.T, cfg Config, payloads [][]byte) []string {
	t.Helper()

	w, err := NewWriter(cfg)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	for i, payload := range payloads {
		header := schema.NewHeader(schema.EventStageResult, 1, uint64(i+1), int64(1000+i), int64(1001+i))
		require.NoError(t, w.TryAppend(header, payload))
	}
	require.NoError(t, w.Close())

	files, err := filepath.Glob(filepath.Join(cfg.Dir, cfg.FilePrefix+"-*.cjl"))
	require.NoError(t, err)
	return files
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payloads := [][]byte{{1, 2}, {3, 4, 5}, nil}
	files := writeRecords(t, Config{Dir: dir, FilePrefix: "test"}, payloads)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()

	r := NewReader(f, ReaderOptions{})
	for i, want := range payloads {
		header, payload, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), header.Seq)
		assert.Equal(t, schema.EventStageResult, header.Type)
		assert.Equal(t, schema.SchemaVersion, header.Version)
		if len(want) == 0 {
			assert.Empty(t, payload)
		} else {
			assert.Equal(t, want, payload)
		}
	}
	_, _, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	files := writeRecords(t, Config{Dir: dir, FilePrefix: "test"}, [][]byte{{9, 9, 9, 9}})
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	// Flip one payload byte. The trailing 4 bytes hold the checksum.
	data[len(data)-5] ^= 0xff

	r := NewReader(bytes.NewReader(data), ReaderOptions{})
	_, _, err = r.Next()
	require.ErrorIs(t, err, ErrChecksumMismatch)

	r = NewReader(bytes.NewReader(data), ReaderOptions{DisableChecksum: true})
	_, _, err = r.Next()
	require.NoError(t, err)
}

func TestPlaybackOrderAcrossSegments(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Dir: dir, FilePrefix: "test", SegmentMaxBytes: 100}
	files := writeRecords(t, cfg, [][]byte{{1, 1}, {2, 2}, {3, 3}})
	require.Greater(t, len(files), 1, "small segment cap should force rotation")

	p, err := NewPlayback(PlaybackConfig{Dir: dir, FilePrefix: "test"})
	require.NoError(t, err)

	var seqs []uint64
	err = p.Run(t.Context(), func(header schema.EventHeader, payload []byte) error {
		seqs = append(seqs, header.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestWriterRejectsWhenNotStarted(t *testing.T) {
	w, err := NewWriter(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	err = w.TryAppend(schema.EventHeader{}, nil)
	require.ErrorIs(t, err, ErrNotStarted)
}
