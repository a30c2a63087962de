package model

import (
	"fmt"
	"strings"
)

// Severity is the importance of a log entry.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the label the status server filters on.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a label (case-insensitive) or a numeric string to a Severity.
func ParseSeverity(label string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "INFO", "0":
		return SeverityInfo, nil
	case "WARNING", "WARN", "1":
		return SeverityWarning, nil
	case "ERROR", "2":
		return SeverityError, nil
	case "FATAL", "3":
		return SeverityFatal, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", label)
	}
}
