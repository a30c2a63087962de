package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coffersTech/logconsole/internal/client"
	"github.com/coffersTech/logconsole/internal/console"
	"github.com/coffersTech/logconsole/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd, err := newRootCmd()
	require.NoError(t, err)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestURLCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"defaults", []string{"url"}, "/logs/local?level=ERROR\n"},
		{"no level", []string{"url", "--level="}, "/logs/local\n"},
		{"all filters", []string{"url", "--node", "3", "--level", "warn", "--start", "100", "--end", "200", "--max", "10", "--pattern", "a b"},
			"/logs/3?level=WARNING&startTime=100&endTime=200&max=10&pattern=a%20b\n"},
		{"rfc3339", []string{"url", "--level=", "--start", "1970-01-01T00:00:01Z"}, "/logs/local?startTime=1000000000\n"},
		{"full", []string{"--server", "http://db:8080", "url", "--full"}, "http://db:8080/_status/logs/local?level=ERROR\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestURLCmdBadLevel(t *testing.T) {
	_, err := run(t, "url", "--level", "LOUD")
	assert.Error(t, err)
}

func TestLogsCmdRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_status/logs/2?level=WARNING", r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"d":[
			{"severity":2,"time":2000000000,"file":"raft.go","line":7,"message":"election lost","node_id":2},
			{"severity":1,"time":1000000000,"file":"store.go","line":9,"message":"slow disk","node_id":2}
		]}`))
	}))
	defer srv.Close()

	snap := filepath.Join(t.TempDir(), "out.logsnap")
	out, err := run(t, "--server", srv.URL, "logs", "--node", "2", "--level", "WARNING", "--out", snap)
	require.NoError(t, err)
	assert.Contains(t, out, "election lost")
	assert.Contains(t, out, "raft.go:7")
	assert.Contains(t, out, "slow disk")

	out, err = run(t, "show", snap, "--where", "severity>=ERROR")
	require.NoError(t, err)
	assert.Contains(t, out, "election lost")
	assert.NotContains(t, out, "slow disk")

	out, err = run(t, "show", snap, "--histogram", "1s")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:")
	assert.Contains(t, out, "raft.go")
}

func TestLogsCmdNodes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/_status/logs/2" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"d":[{"severity":2,"time":5,"message":"from one"}]}`))
	}))
	defer srv.Close()

	out, err := run(t, "--server", srv.URL, "logs", "--nodes", "1,2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, out, "from one")
}

func TestLogsCmdServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("node is draining"))
	}))
	defer srv.Close()

	_, err := run(t, "--server", srv.URL, "logs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error 500: node is draining")
}

func TestBadServerConfig(t *testing.T) {
	_, err := run(t, "--server", "not a url", "url")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	now := time.Unix(1000, 0)
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"42", 42, false},
		{"-5", -5, false},
		{"1970-01-01T00:00:10Z", 10 * int64(time.Second), false},
		{"1m", now.Add(-time.Minute).UnixNano(), false},
		{"yesterday", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTime(tt.in, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewerThan(t *testing.T) {
	rows := []model.LogEntry{{Time: 30}, {Time: 20}, {Time: 10}}

	fresh, newest := newerThan(rows, 0)
	assert.Equal(t, []model.LogEntry{{Time: 10}, {Time: 20}, {Time: 30}}, fresh)
	assert.Equal(t, int64(30), newest)

	fresh, newest = newerThan(rows, 20)
	assert.Equal(t, []model.LogEntry{{Time: 30}}, fresh)
	assert.Equal(t, int64(30), newest)

	fresh, newest = newerThan(rows, 30)
	assert.Empty(t, fresh)
	assert.Equal(t, int64(30), newest)
}

func TestNewRootCmd(t *testing.T) {
	root, err := newRootCmd()
	require.NoError(t, err)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"url", "logs", "watch", "show"})
	for _, flag := range []string{"config", "server", "token", "timeout", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

// lockedBuffer is written from the refresh goroutine and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchPrintsNewEntriesAndSurvivesErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			_, _ = w.Write([]byte(`{"d":[{"time":20,"message":"second"},{"time":10,"message":"first"}]}`))
		case 2:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("draining"))
		default:
			_, _ = w.Write([]byte(`{"d":[{"time":30,"message":"third"},{"time":20,"message":"second"},{"time":10,"message":"first"}]}`))
		}
	}))
	defer srv.Close()

	entries := console.NewEntries(client.New(client.Config{BaseURL: srv.URL, Timeout: time.Second}))
	out := &lockedBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- watch(ctx, out, entries, 5*time.Millisecond) }()

	// The 500 on the second poll must not stop the loop.
	require.Eventually(t, func() bool { return calls.Load() >= 4 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}

	text := out.String()
	for _, msg := range []string{"first", "second", "third"} {
		assert.Equal(t, 1, strings.Count(text, msg), "%s printed once in:\n%s", msg, text)
	}
	assert.Less(t, strings.Index(text, "first"), strings.Index(text, "second"))
	assert.Less(t, strings.Index(text, "second"), strings.Index(text, "third"))
}

func TestWatchCmdRejectsBadInterval(t *testing.T) {
	_, err := run(t, "watch", "--interval", "0s")
	assert.ErrorContains(t, err, "--interval must be positive")
}
