package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/coffersTech/logconsole/internal/console"
	"github.com/coffersTech/logconsole/internal/model"
)

const timeLayout = "2006-01-02 15:04:05.000"

func formatTime(nanos int64) string {
	return time.Unix(0, nanos).UTC().Format(timeLayout)
}

func printEntries(w io.Writer, entries []model.LogEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSEVERITY\tNODE\tFILE\tMESSAGE")
	for _, e := range entries {
		file := e.File
		if e.Line > 0 {
			file = fmt.Sprintf("%s:%d", e.File, e.Line)
		}
		msg := strings.ReplaceAll(e.Message, "\n", " ")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", formatTime(e.Time), e.Severity, e.NodeID, file, msg)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s console.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total:\t%d\n", s.Total)
	if s.Total > 0 {
		fmt.Fprintf(tw, "Range:\t%s .. %s\n", formatTime(s.MinTime), formatTime(s.MaxTime))
	}

	levels := make([]string, 0, len(s.LevelDist))
	for l := range s.LevelDist {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	for _, l := range levels {
		fmt.Fprintf(tw, "%s:\t%d\n", l, s.LevelDist[l])
	}

	if len(s.TopFiles) > 0 {
		fmt.Fprintln(tw, "\nTOP FILES\tCOUNT")
		for _, f := range s.TopFiles {
			fmt.Fprintf(tw, "%s\t%d\n", f.File, f.Count)
		}
	}
	if len(s.Histogram) > 0 {
		fmt.Fprintln(tw, "\nBUCKET\tCOUNT")
		for _, p := range s.Histogram {
			fmt.Fprintf(tw, "%s\t%d\n", formatTime(p.Time), p.Count)
		}
	}
	return tw.Flush()
}
