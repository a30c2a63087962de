package console

import (
	"sort"
	"time"

	"github.com/coffersTech/logconsole/internal/model"
)

// HistogramPoint is the number of entries in one time bucket.
type HistogramPoint struct {
	Time  int64 `json:"time"`
	Count int   `json:"count"`
}

// FileCount is the number of entries logged from one file.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Summary describes a set of entries.
type Summary struct {
	Total     int              `json:"total"`
	MinTime   int64            `json:"min_time"`
	MaxTime   int64            `json:"max_time"`
	LevelDist map[string]int   `json:"level_dist"` // e.g. "ERROR": 12
	TopFiles  []FileCount      `json:"top_files"`
	Histogram []HistogramPoint `json:"histogram,omitempty"`
}

const topFiles = 5

// Summarize counts entries per severity and file. When interval is positive
// entries are also bucketed by time (Time is UnixNano).
func Summarize(entries []model.LogEntry, interval time.Duration) Summary {
	s := Summary{
		Total:     len(entries),
		LevelDist: make(map[string]int),
	}

	files := make(map[string]int)
	buckets := make(map[int64]int)
	step := interval.Nanoseconds()

	for i, e := range entries {
		if i == 0 || e.Time < s.MinTime {
			s.MinTime = e.Time
		}
		if i == 0 || e.Time > s.MaxTime {
			s.MaxTime = e.Time
		}
		s.LevelDist[e.Severity.String()]++
		if e.File != "" {
			files[e.File]++
		}
		if step > 0 {
			buckets[floorDiv(e.Time, step)*step]++
		}
	}

	for f, c := range files {
		s.TopFiles = append(s.TopFiles, FileCount{File: f, Count: c})
	}
	sort.Slice(s.TopFiles, func(i, j int) bool {
		if s.TopFiles[i].Count != s.TopFiles[j].Count {
			return s.TopFiles[i].Count > s.TopFiles[j].Count
		}
		return s.TopFiles[i].File < s.TopFiles[j].File
	})
	if len(s.TopFiles) > topFiles {
		s.TopFiles = s.TopFiles[:topFiles]
	}

	for t, c := range buckets {
		s.Histogram = append(s.Histogram, HistogramPoint{Time: t, Count: c})
	}
	sort.Slice(s.Histogram, func(i, j int) bool {
		return s.Histogram[i].Time < s.Histogram[j].Time
	})

	return s
}

// floorDiv rounds towards negative infinity so pre-epoch times bucket correctly.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
