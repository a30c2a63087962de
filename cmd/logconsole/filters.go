package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coffersTech/logconsole/internal/logquery"
	"github.com/coffersTech/logconsole/internal/model"
	"github.com/spf13/cobra"
)

// filterFlags are the query filters shared by url, logs and watch.
type filterFlags struct {
	node    string
	level   string
	start   string
	end     string
	max     int
	pattern string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.node, "node", "", "node id to query (default local)")
	fs.StringVar(&f.level, "level", "", "minimum severity: INFO, WARNING, ERROR, FATAL or \"\" for all (default from config)")
	fs.StringVar(&f.start, "start", "", "start time: unix nanos, RFC3339, or a duration ago (e.g. 1h)")
	fs.StringVar(&f.end, "end", "", "end time, same formats as --start")
	fs.IntVar(&f.max, "max", 0, "maximum number of entries")
	fs.StringVar(&f.pattern, "pattern", "", "regular expression the message must match")
}

// state resolves the flags into a FilterState. defaultLevel applies when
// --level was not given.
func (f *filterFlags) state(cmd *cobra.Command, defaultLevel string, now time.Time) (logquery.FilterState, error) {
	s := logquery.FilterState{
		Node:    f.node,
		Level:   defaultLevel,
		Max:     f.max,
		Pattern: f.pattern,
	}
	if cmd.Flags().Changed("level") {
		s.Level = f.level
	}
	if s.Level != "" {
		sev, err := model.ParseSeverity(s.Level)
		if err != nil {
			return s, err
		}
		s.Level = sev.String()
	}

	var err error
	if s.StartTime, err = parseTime(f.start, now); err != nil {
		return s, fmt.Errorf("--start: %w", err)
	}
	if s.EndTime, err = parseTime(f.end, now); err != nil {
		return s, fmt.Errorf("--end: %w", err)
	}
	return s, nil
}

// parseTime accepts unix nanoseconds, an RFC3339 timestamp, or a duration
// meaning that long before now. The result is in unix nanoseconds; "" is 0.
func parseTime(v string, now time.Time) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UnixNano(), nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return now.Add(-d).UnixNano(), nil
	}
	return 0, fmt.Errorf("cannot parse time %q", v)
}
