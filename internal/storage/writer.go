package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/coffersTech/logconsole/internal/model"
	"github.com/klauspost/compress/zstd"
)

// MagicHeader opens every snapshot file.
var MagicHeader = []byte("LOGSNAP1")

// footerSize is RowCount(4) + MinTime(8) + MaxTime(8).
const footerSize = 20

// UnknownSeverity is stored for severities outside 0..255.
const UnknownSeverity = model.Severity(math.MaxUint8)

// Writer stores log entries as zstd-compressed columns.
type Writer struct {
	encoder *zstd.Encoder
}

func NewWriter() (*Writer, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &Writer{encoder: enc}, nil
}

// Close releases the encoder.
func (w *Writer) Close() error {
	return w.encoder.Close()
}

// Write creates path and stores entries in it.
func (w *Writer) Write(path string, entries []model.LogEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	if err := w.WriteTo(bw, entries); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo encodes entries to out.
func (w *Writer) WriteTo(out io.Writer, entries []model.LogEntry) error {
	if _, err := out.Write(MagicHeader); err != nil {
		return err
	}

	rowCount := uint32(len(entries))
	if rowCount == 0 {
		return writeFooter(out, 0, 0, 0)
	}

	times := make([]int64, len(entries))
	severities := make([]uint8, len(entries))
	lines := make([]int64, len(entries))
	nodes := make([]string, len(entries))
	files := make([]string, len(entries))
	messages := make([]string, len(entries))

	minTime, maxTime := entries[0].Time, entries[0].Time
	for i, e := range entries {
		times[i] = e.Time
		severities[i] = severityByte(e.Severity)
		lines[i] = e.Line
		nodes[i] = e.NodeID
		files[i] = e.File
		messages[i] = e.Message
		if e.Time < minTime {
			minTime = e.Time
		}
		if e.Time > maxTime {
			maxTime = e.Time
		}
	}

	if err := w.writeInt64Col(out, times); err != nil {
		return fmt.Errorf("time column: %w", err)
	}
	if err := w.compressAndWrite(out, severities); err != nil {
		return fmt.Errorf("severity column: %w", err)
	}
	if err := w.writeInt64Col(out, lines); err != nil {
		return fmt.Errorf("line column: %w", err)
	}
	if err := w.writeStringCol(out, nodes); err != nil {
		return fmt.Errorf("node column: %w", err)
	}
	if err := w.writeStringCol(out, files); err != nil {
		return fmt.Errorf("file column: %w", err)
	}
	if err := w.writeStringCol(out, messages); err != nil {
		return fmt.Errorf("message column: %w", err)
	}

	return writeFooter(out, rowCount, minTime, maxTime)
}

func severityByte(s model.Severity) uint8 {
	if s < 0 || s > UnknownSeverity {
		return uint8(UnknownSeverity)
	}
	return uint8(s)
}

func (w *Writer) writeInt64Col(out io.Writer, data []int64) error {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return w.compressAndWrite(out, buf)
}

// writeStringCol serializes strings as [Len uint32][Bytes]...
func (w *Writer) writeStringCol(out io.Writer, data []string) error {
	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, s := range data {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
		buf.Write(lenBuf[:])
		buf.WriteString(s)
	}
	return w.compressAndWrite(out, buf.Bytes())
}

// compressAndWrite writes [CompressedSize uint32][zstd data].
func (w *Writer) compressAndWrite(out io.Writer, raw []byte) error {
	compressed := w.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))
	if err := binary.Write(out, binary.LittleEndian, uint32(len(compressed))); err != nil {
		return err
	}
	_, err := out.Write(compressed)
	return err
}

func writeFooter(out io.Writer, rowCount uint32, minTime, maxTime int64) error {
	var footer [footerSize]byte
	binary.LittleEndian.PutUint32(footer[0:4], rowCount)
	binary.LittleEndian.PutUint64(footer[4:12], uint64(minTime))
	binary.LittleEndian.PutUint64(footer[12:20], uint64(maxTime))
	_, err := out.Write(footer[:])
	return err
}
