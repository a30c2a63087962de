package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coffersTech/logconsole/internal/client"
	"github.com/coffersTech/logconsole/internal/cluster"
	"github.com/coffersTech/logconsole/internal/console"
	"github.com/coffersTech/logconsole/internal/logquery"
	"github.com/coffersTech/logconsole/internal/model"
	"github.com/coffersTech/logconsole/internal/pkg/where"
	"github.com/coffersTech/logconsole/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const whereHelp = `Regular expressions must be quoted, e.g. 'severity>=WARNING AND msg~"^disk"'`

func newURLCmd(a *app) *cobra.Command {
	var (
		f    filterFlags
		full bool
	)
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the log query path for the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := f.state(cmd, a.cfg.Level, time.Now())
			if err != nil {
				return err
			}
			if full {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Server+logquery.StatusURL(s))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), logquery.BuildURL(s))
			return err
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&full, "full", false, "print the absolute status server url")
	return cmd
}

// nodesFetcher fans a single query out to a fixed set of nodes.
type nodesFetcher struct {
	agg   *cluster.Aggregator
	nodes []string
}

func (n nodesFetcher) FetchLogs(ctx context.Context, state logquery.FilterState) ([]model.LogEntry, error) {
	return n.agg.Fetch(ctx, state, n.nodes)
}

// fetcher returns the status client, or an aggregator over nodes when any are given.
func (a *app) fetcher(nodes []string) console.Fetcher {
	c := client.New(client.Config{
		BaseURL: a.cfg.Server,
		Token:   a.cfg.Token,
		Timeout: a.cfg.Timeout,
	})
	if len(nodes) == 0 {
		return c
	}
	return nodesFetcher{agg: cluster.NewAggregator(c), nodes: nodes}
}

func (a *app) nodes(cmd *cobra.Command, flagNodes []string) []string {
	if cmd.Flags().Changed("nodes") {
		return flagNodes
	}
	return a.cfg.Nodes
}

func newLogsCmd(a *app) *cobra.Command {
	var (
		f         filterFlags
		nodes     []string
		out       string
		expr      string
		histogram time.Duration
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Fetch log entries from the status server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := f.state(cmd, a.cfg.Level, time.Now())
			if err != nil {
				return err
			}
			match, err := where.Compile(expr)
			if err != nil {
				return fmt.Errorf("--where: %w", err)
			}

			entries, err := a.fetcher(a.nodes(cmd, nodes)).FetchLogs(cmd.Context(), s)
			if err != nil {
				return describeError(err)
			}
			entries = filter(entries, match)

			if out != "" {
				if err := writeSnapshot(out, entries); err != nil {
					return err
				}
				logrus.WithField("path", out).WithField("rows", len(entries)).Info("snapshot written")
			}
			if histogram > 0 {
				return printSummary(cmd.OutOrStdout(), console.Summarize(entries, histogram))
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}
	f.register(cmd)
	cmd.Flags().StringSliceVar(&nodes, "nodes", nil, "query these nodes and merge the results (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also save the entries to a snapshot file")
	cmd.Flags().StringVarP(&expr, "where", "w", "", "filter the fetched entries locally. "+whereHelp)
	cmd.Flags().DurationVar(&histogram, "histogram", 0, "print a summary bucketed by this interval instead of entries")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		f        filterFlags
		nodes    []string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the status server and print new entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			s, err := f.state(cmd, a.cfg.Level, time.Now())
			if err != nil {
				return err
			}

			entries := console.NewEntries(a.fetcher(a.nodes(cmd, nodes)))
			entries.Apply(s)
			logrus.WithField("node", entries.NodeName()).WithField("url", entries.BuildURL()).Info("watching")

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)
			go func() {
				select {
				case sig := <-quit:
					logrus.Infof("Received signal: %v. Stopping...", sig)
					cancel()
				case <-ctx.Done():
				}
			}()

			return watch(ctx, cmd.OutOrStdout(), entries, interval)
		},
	}
	f.register(cmd)
	cmd.Flags().StringSliceVar(&nodes, "nodes", nil, "query these nodes and merge the results (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "poll interval")
	return cmd
}

// watch prints entries newer than the last batch each time a refresh
// succeeds, until ctx is done.
func watch(ctx context.Context, w io.Writer, entries *console.Entries, interval time.Duration) error {
	var lastSeen int64
	cancel := entries.AllEntries().Subscribe(func(rows []model.LogEntry) {
		fresh, newest := newerThan(rows, lastSeen)
		lastSeen = newest
		if len(fresh) > 0 {
			if err := printEntries(w, fresh); err != nil {
				logrus.WithError(err).Warn("print failed")
			}
		}
	})
	defer cancel()

	return poll(ctx, entries, interval)
}

// poll refreshes entries every interval until ctx is done. Failed refreshes
// are logged and retried on the next tick.
func poll(ctx context.Context, entries *console.Entries, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := entries.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logrus.WithError(describeError(err)).Warn("refresh failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// newerThan returns the rows with Time after since, oldest first, and the
// newest time seen.
func newerThan(rows []model.LogEntry, since int64) ([]model.LogEntry, int64) {
	newest := since
	var fresh []model.LogEntry
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Time > since {
			fresh = append(fresh, rows[i])
		}
		if rows[i].Time > newest {
			newest = rows[i].Time
		}
	}
	return fresh, newest
}

func newShowCmd(a *app) *cobra.Command {
	var (
		expr      string
		histogram time.Duration
	)
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print entries from a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, err := where.Compile(expr)
			if err != nil {
				return fmt.Errorf("--where: %w", err)
			}

			reader, err := storage.NewReader()
			if err != nil {
				return err
			}
			defer reader.Close()

			entries, info, err := reader.Read(args[0], match)
			if err != nil {
				return err
			}
			logrus.WithField("rows", info.Rows).WithField("matched", len(entries)).Debug("snapshot read")

			if histogram > 0 {
				return printSummary(cmd.OutOrStdout(), console.Summarize(entries, histogram))
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVarP(&expr, "where", "w", "", "filter expression. "+whereHelp)
	cmd.Flags().DurationVar(&histogram, "histogram", 0, "print a summary bucketed by this interval instead of entries")
	return cmd
}

func writeSnapshot(path string, entries []model.LogEntry) error {
	w, err := storage.NewWriter()
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Write(path, entries)
}

func filter(entries []model.LogEntry, match func(*model.LogEntry) bool) []model.LogEntry {
	out := entries[:0]
	for i := range entries {
		if match(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out
}

// describeError replaces a status error with the server's own message.
func describeError(err error) error {
	var se *client.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return fmt.Errorf("server error %d: %s", se.Code, se.Message)
	}
	return err
}
