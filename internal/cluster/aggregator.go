package cluster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/coffersTech/logconsole/internal/logquery"
	"github.com/coffersTech/logconsole/internal/model"
	"github.com/sirupsen/logrus"
)

// Fetcher retrieves log entries for one filter state.
type Fetcher interface {
	FetchLogs(ctx context.Context, state logquery.FilterState) ([]model.LogEntry, error)
}

// ErrNoNodes is returned when Fetch is called without nodes.
var ErrNoNodes = errors.New("no nodes to query")

// Aggregator queries several nodes and merges their logs.
type Aggregator struct {
	fetcher Fetcher
	log     *logrus.Entry
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(f Fetcher) *Aggregator {
	return &Aggregator{
		fetcher: f,
		log:     logrus.WithField("component", "aggregator"),
	}
}

// Fetch performs a scatter-gather query across nodes. Nodes that fail are
// logged and skipped; an error is returned only when every node failed.
func (a *Aggregator) Fetch(ctx context.Context, state logquery.FilterState, nodes []string) ([]model.LogEntry, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}

	var (
		all  []model.LogEntry
		errs []error
		mu   sync.Mutex
		wg   sync.WaitGroup
	)

	for _, node := range nodes {
		wg.Add(1)
		go func(node string) {
			defer wg.Done()
			rows, err := a.fetcher.FetchLogs(ctx, state.WithNode(node))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.log.WithError(err).WithField("node", node).Warn("node query failed")
				errs = append(errs, fmt.Errorf("node %s: %w", node, err))
				return
			}
			for i := range rows {
				if rows[i].NodeID == "" && node != logquery.LocalNode {
					rows[i].NodeID = node
				}
			}
			all = append(all, rows...)
		}(node)
	}
	wg.Wait()

	if len(errs) == len(nodes) {
		return nil, errors.Join(errs...)
	}

	// Merge by timestamp, newest first.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Time > all[j].Time
	})

	if state.Max > 0 && len(all) > state.Max {
		all = all[:state.Max]
	}
	if all == nil {
		all = []model.LogEntry{}
	}
	return all, nil
}
