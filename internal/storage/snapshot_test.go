package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coffersTech/logconsole/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []model.LogEntry {
	return []model.LogEntry{
		{Time: 300, Severity: model.SeverityError, Line: 10, NodeID: "1", File: "a.go", Message: "disk full"},
		{Time: 100, Severity: model.SeverityInfo, Line: 20, File: "b.go", Message: ""},
		{Time: 200, Severity: model.SeverityWarning, Line: 30, NodeID: "2", File: "c.go", Message: strings.Repeat("x", 1000)},
	}
}

func newPair(t *testing.T) (*Writer, *Reader) {
	t.Helper()
	w, err := NewWriter()
	require.NoError(t, err)
	r, err := NewReader()
	require.NoError(t, err)
	t.Cleanup(func() {
		w.Close()
		r.Close()
	})
	return w, r
}

func TestSnapshotFile(t *testing.T) {
	w, r := newPair(t)
	path := filepath.Join(t.TempDir(), "logs.logsnap")

	require.NoError(t, w.Write(path, sampleEntries()))

	got, info, err := r.Read(path, nil)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), got)
	assert.Equal(t, Info{Rows: 3, MinTime: 100, MaxTime: 300}, info)
}

func TestSnapshotMatch(t *testing.T) {
	w, r := newPair(t)
	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf, sampleEntries()))

	got, info, err := r.Decode(buf.Bytes(), func(e *model.LogEntry) bool {
		return e.Severity >= model.SeverityWarning
	})
	require.NoError(t, err)
	assert.Equal(t, 3, info.Rows)
	require.Len(t, got, 2)
	assert.Equal(t, "a.go", got[0].File)
	assert.Equal(t, "c.go", got[1].File)
}

func TestSnapshotEmpty(t *testing.T) {
	w, r := newPair(t)
	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf, nil))
	assert.Equal(t, len(MagicHeader)+footerSize, buf.Len())

	got, info, err := r.Decode(buf.Bytes(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, info.Rows)
}

func TestSnapshotInvalidHeader(t *testing.T) {
	_, r := newPair(t)
	path := filepath.Join(t.TempDir(), "bad.logsnap")
	require.NoError(t, os.WriteFile(path, []byte("NANOLOG1 plus enough bytes for a footer"), 0o644))

	_, _, err := r.Read(path, nil)
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, _, err = r.Decode([]byte("LOG"), nil)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestSnapshotRowCountMismatch(t *testing.T) {
	w, r := newPair(t)
	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf, sampleEntries()))

	data := buf.Bytes()
	// Claim one more row than the columns hold.
	data[len(data)-footerSize] = 4

	_, _, err := r.Decode(data, nil)
	assert.ErrorIs(t, err, ErrColumnMismatch)
}

func TestSnapshotTruncated(t *testing.T) {
	w, r := newPair(t)
	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf, sampleEntries()))

	data := buf.Bytes()
	truncated := append([]byte{}, data[:len(MagicHeader)+10]...)
	truncated = append(truncated, data[len(data)-footerSize:]...)

	_, _, err := r.Decode(truncated, nil)
	assert.Error(t, err)
}

func TestSnapshotSeverityOutOfRange(t *testing.T) {
	w, r := newPair(t)
	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf, []model.LogEntry{
		{Time: 1, Severity: model.Severity(-1)},
		{Time: 2, Severity: model.Severity(300)},
		{Time: 3, Severity: model.SeverityFatal},
	}))

	got, _, err := r.Decode(buf.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, UnknownSeverity, got[0].Severity)
	assert.Equal(t, UnknownSeverity, got[1].Severity)
	assert.Equal(t, "UNKNOWN", got[1].Severity.String())
	assert.Equal(t, model.SeverityFatal, got[2].Severity)
}
