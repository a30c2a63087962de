package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/coffersTech/logconsole/internal/model"
	"github.com/klauspost/compress/zstd"
)

var (
	ErrInvalidHeader  = errors.New("invalid snapshot header")
	ErrColumnMismatch = errors.New("snapshot column length mismatch")
)

// MatchFunc selects entries while reading. A nil MatchFunc keeps everything.
type MatchFunc func(e *model.LogEntry) bool

// Info is the footer summary of a snapshot.
type Info struct {
	Rows    int
	MinTime int64
	MaxTime int64
}

type Reader struct {
	decoder *zstd.Decoder
}

func NewReader() (*Reader, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Reader{decoder: dec}, nil
}

// Close releases the decoder.
func (r *Reader) Close() {
	r.decoder.Close()
}

// Read loads the snapshot at path and returns the entries accepted by match.
func (r *Reader) Read(path string, match MatchFunc) ([]model.LogEntry, Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Info{}, err
	}
	return r.Decode(data, match)
}

// Decode parses a snapshot held in memory.
func (r *Reader) Decode(data []byte, match MatchFunc) ([]model.LogEntry, Info, error) {
	if len(data) < len(MagicHeader)+footerSize || !bytes.Equal(data[:len(MagicHeader)], MagicHeader) {
		return nil, Info{}, ErrInvalidHeader
	}

	footer := data[len(data)-footerSize:]
	info := Info{
		Rows:    int(binary.LittleEndian.Uint32(footer[0:4])),
		MinTime: int64(binary.LittleEndian.Uint64(footer[4:12])),
		MaxTime: int64(binary.LittleEndian.Uint64(footer[12:20])),
	}
	if info.Rows == 0 {
		return []model.LogEntry{}, info, nil
	}

	body := bytes.NewReader(data[len(MagicHeader) : len(data)-footerSize])

	timeData, err := r.readAndDecompress(body)
	if err != nil {
		return nil, info, fmt.Errorf("time column: %w", err)
	}
	severities, err := r.readAndDecompress(body)
	if err != nil {
		return nil, info, fmt.Errorf("severity column: %w", err)
	}
	lineData, err := r.readAndDecompress(body)
	if err != nil {
		return nil, info, fmt.Errorf("line column: %w", err)
	}

	var strCols [3][]string
	for i, name := range []string{"node", "file", "message"} {
		raw, err := r.readAndDecompress(body)
		if err != nil {
			return nil, info, fmt.Errorf("%s column: %w", name, err)
		}
		if strCols[i], err = bytesToStrings(raw); err != nil {
			return nil, info, fmt.Errorf("%s column: %w", name, err)
		}
	}
	nodes, files, messages := strCols[0], strCols[1], strCols[2]

	times := bytesToInt64s(timeData)
	lines := bytesToInt64s(lineData)
	for _, n := range []int{len(times), len(severities), len(lines), len(nodes), len(files), len(messages)} {
		if n != info.Rows {
			return nil, info, ErrColumnMismatch
		}
	}

	entries := make([]model.LogEntry, 0, info.Rows)
	for i := 0; i < info.Rows; i++ {
		e := model.LogEntry{
			Time:     times[i],
			Severity: model.Severity(severities[i]),
			Line:     lines[i],
			NodeID:   nodes[i],
			File:     files[i],
			Message:  messages[i],
		}
		if match != nil && !match(&e) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, info, nil
}

// readAndDecompress reads a compressed block (size + data) and decompresses it.
func (r *Reader) readAndDecompress(in io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(in, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	compressed := make([]byte, size)
	if _, err := io.ReadFull(in, compressed); err != nil {
		return nil, err
	}
	return r.decoder.DecodeAll(compressed, nil)
}

func bytesToInt64s(data []byte) []int64 {
	out := make([]int64, len(data)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out
}

// bytesToStrings decodes [Len uint32][Bytes]... records.
func bytesToStrings(data []byte) ([]string, error) {
	var out []string
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, io.ErrUnexpectedEOF
		}
		n := binary.LittleEndian.Uint32(data)
		data = data[4:]
		if uint64(n) > uint64(len(data)) {
			return nil, io.ErrUnexpectedEOF
		}
		out = append(out, string(data[:n]))
		data = data[n:]
	}
	return out, nil
}
