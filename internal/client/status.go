package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coffersTech/logconsole/internal/logquery"
	"github.com/coffersTech/logconsole/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

// ErrMalformedResponse is returned when a successful response does not have
// the {"d": [...]} shape.
var ErrMalformedResponse = errors.New("malformed log response")

// StatusError is returned for any response with a status above 200.
type StatusError struct {
	Code    int
	Body    string // normalized, always valid JSON
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status server returned %d: %s", e.Code, e.Message)
}

// Config configures a StatusClient.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// StatusClient talks to a node's status server.
type StatusClient struct {
	http   *resty.Client
	parser fastjson.ParserPool
	log    *logrus.Entry
}

// New creates a StatusClient. Requests are never retried.
func New(cfg Config) *StatusClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		http.SetAuthToken(cfg.Token)
	}

	return &StatusClient{
		http: http,
		log:  logrus.WithField("component", "status-client"),
	}
}

// FetchLogs requests the log entries selected by state.
func (c *StatusClient) FetchLogs(ctx context.Context, state logquery.FilterState) ([]model.LogEntry, error) {
	body, err := c.get(ctx, logquery.StatusURL(state))
	if err != nil {
		return nil, err
	}

	p := c.parser.Get()
	defer c.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return decodeEntries(v)
}

// get issues a GET for path and returns the body of a 200 response.
func (c *StatusClient) get(ctx context.Context, path string) ([]byte, error) {
	requestID := uuid.New().String()
	log := c.log.WithFields(logrus.Fields{"request_id": requestID, "path": path})
	log.Debug("requesting logs")

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		Get(path)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	code := resp.StatusCode()
	log = log.WithFields(logrus.Fields{"status": code, "elapsed": time.Since(start)})
	if code > 200 {
		normalized := logquery.NormalizeErrorBody(code, resp.Body())
		log.Warn("status server returned an error")
		return nil, &StatusError{
			Code:    code,
			Body:    normalized,
			Message: logquery.ParseErrorMessage(normalized),
		}
	}

	log.Debug("request complete")
	return resp.Body(), nil
}

func decodeEntries(v *fastjson.Value) ([]model.LogEntry, error) {
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrMalformedResponse, v.Type())
	}

	d := v.Get("d")
	if d == nil || d.Type() == fastjson.TypeNull {
		return []model.LogEntry{}, nil
	}
	arr, err := d.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: field d: %v", ErrMalformedResponse, err)
	}

	entries := make([]model.LogEntry, 0, len(arr))
	for _, item := range arr {
		entries = append(entries, decodeEntry(item))
	}
	return entries, nil
}

func decodeEntry(v *fastjson.Value) model.LogEntry {
	e := model.LogEntry{
		Time:     v.GetInt64("time"),
		ThreadID: v.GetInt64("thread_id"),
		File:     string(v.GetStringBytes("file")),
		Line:     v.GetInt64("line"),
		NodeID:   scalarString(v, "node_id"),
		StoreID:  scalarString(v, "store_id"),
		Stacks:   string(v.GetStringBytes("stacks")),
	}

	if sev := v.Get("severity"); sev != nil {
		switch sev.Type() {
		case fastjson.TypeNumber:
			e.Severity = model.Severity(sev.GetInt())
		case fastjson.TypeString:
			if parsed, err := model.ParseSeverity(string(sev.GetStringBytes())); err == nil {
				e.Severity = parsed
			}
		}
	}

	for _, key := range []string{"message", "msg", "format"} {
		if msg := v.GetStringBytes(key); len(msg) > 0 {
			e.Message = string(msg)
			break
		}
	}
	return e
}

// scalarString reads a field that servers send either as a string or a number.
func scalarString(v *fastjson.Value, key string) string {
	field := v.Get(key)
	if field == nil {
		return ""
	}
	switch field.Type() {
	case fastjson.TypeString:
		return string(field.GetStringBytes())
	case fastjson.TypeNumber:
		return field.String()
	default:
		return ""
	}
}
