// Package console holds the data model behind the log viewer.
package console

import (
	"context"

	"github.com/coffersTech/logconsole/internal/logquery"
	"github.com/coffersTech/logconsole/internal/model"
	"github.com/coffersTech/logconsole/internal/observable"
	"github.com/coffersTech/logconsole/internal/querycache"
)

// Fetcher retrieves log entries for one filter state.
type Fetcher interface {
	FetchLogs(ctx context.Context, state logquery.FilterState) ([]model.LogEntry, error)
}

// Entries is the filter state of the log view and the cached entries it selects.
// The filter props may be changed at any time; every Refresh reads a fresh snapshot.
type Entries struct {
	StartTime *observable.Prop[int64]
	EndTime   *observable.Prop[int64]
	Max       *observable.Prop[int]
	Level     *observable.Prop[string]
	Pattern   *observable.Prop[string]
	Node      *observable.Prop[string]

	data *querycache.QueryCache[[]model.LogEntry]
}

// NewEntries creates the model. The level filter starts at ERROR and nothing
// is fetched until the first Refresh.
func NewEntries(f Fetcher) *Entries {
	e := &Entries{
		StartTime: observable.NewProp[int64](0),
		EndTime:   observable.NewProp[int64](0),
		Max:       observable.NewProp(0),
		Level:     observable.NewProp(model.SeverityError.String()),
		Pattern:   observable.NewProp(""),
		Node:      observable.NewProp(""),
	}
	e.data = querycache.New(func(ctx context.Context) ([]model.LogEntry, error) {
		return f.FetchLogs(ctx, e.Snapshot())
	}, true)
	return e
}

// Snapshot returns the current filter values.
func (e *Entries) Snapshot() logquery.FilterState {
	return logquery.FilterState{
		Node:      e.Node.Get(),
		Level:     e.Level.Get(),
		StartTime: e.StartTime.Get(),
		EndTime:   e.EndTime.Get(),
		Max:       e.Max.Get(),
		Pattern:   e.Pattern.Get(),
	}
}

// Apply sets every filter prop from s.
func (e *Entries) Apply(s logquery.FilterState) {
	e.Node.Set(s.Node)
	e.Level.Set(s.Level)
	e.StartTime.Set(s.StartTime)
	e.EndTime.Set(s.EndTime)
	e.Max.Set(s.Max)
	e.Pattern.Set(s.Pattern)
}

// BuildURL returns the bare /logs path for the current filters.
func (e *Entries) BuildURL() string {
	return logquery.BuildURL(e.Snapshot())
}

// NodeName is the display name of the selected node.
func (e *Entries) NodeName() string {
	if s := e.Snapshot(); !s.IsLocal() {
		return s.Node
	}
	return "Local"
}

// Refresh fetches entries for the current filters.
func (e *Entries) Refresh(ctx context.Context) ([]model.LogEntry, error) {
	return e.data.Refresh(ctx)
}

// Result returns the most recently fetched entries.
func (e *Entries) Result() []model.LogEntry {
	return e.data.Result()
}

// AllEntries exposes the fetched entries as a readable property.
func (e *Entries) AllEntries() observable.ReadOnly[[]model.LogEntry] {
	return e.data.Results()
}

// Err returns the error of the last refresh.
func (e *Entries) Err() error {
	return e.data.Err()
}

// Invalidate drops the cached entries.
func (e *Entries) Invalidate() {
	e.data.Invalidate()
}
