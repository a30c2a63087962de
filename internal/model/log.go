package model

// LogEntry is a single log record as reported by a node's status server.
type LogEntry struct {
	Severity Severity `json:"severity"`
	Time     int64    `json:"time"` // UnixNano
	ThreadID int64    `json:"thread_id,omitempty"`
	File     string   `json:"file,omitempty"`
	Line     int64    `json:"line,omitempty"`
	Message  string   `json:"message"`
	NodeID   string   `json:"node_id,omitempty"`
	StoreID  string   `json:"store_id,omitempty"`
	Stacks   string   `json:"stacks,omitempty"`
}
