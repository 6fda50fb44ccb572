// Package client talks to the viewer backend over HTTP.
//
// Non-2xx statuses and network failures surface as *TransportError, bodies
// of the wrong shape as *MalformedResponseError. Nothing is retried.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/logger"
	"github.com/okian/frbviewer/pkg/metrics"
)

// Operation names used in errors and metrics.
const (
	OpHealth       = "health"
	OpIndex        = "index"
	OpPathTable    = "path_table"
	OpDataSources  = "data_sources"
	OpSwitchSource = "switch_source"
)

const maxErrorBody = 4 << 10

// Client is a backend client. It is safe for concurrent use.
type Client struct {
	base     *url.URL
	http     *http.Client
	user     string
	password string
	log      logger.Logger
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, OpHealth, http.MethodGet, "/api/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return &MalformedResponseError{Op: OpHealth, Err: fmt.Errorf("status %q", out.Status)}
	}
	return nil
}

// Index fetches the full event index.
func (c *Client) Index(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, OpIndex, http.MethodGet, "/api/index", nil, &events); err != nil {
		return nil, err
	}
	if err := model.ValidateEvents(events); err != nil {
		return nil, &MalformedResponseError{Op: OpIndex, Err: err}
	}
	return events, nil
}

// PathTable fetches one candidate page. topN < 1 requests every row.
func (c *Client) PathTable(ctx context.Context, offset, limit, topN int) (model.Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if topN > 0 {
		q.Set("top_n", strconv.Itoa(topN))
	}

	var page model.Page
	if err := c.do(ctx, OpPathTable, http.MethodGet, "/api/path-table", q, &page); err != nil {
		return model.Page{}, err
	}
	if page.Offset < 0 || page.Limit < 1 || page.Total < 0 || len(page.Rows) > page.Limit {
		return model.Page{}, &MalformedResponseError{
			Op:  OpPathTable,
			Err: fmt.Errorf("inconsistent page offset=%d limit=%d total=%d rows=%d", page.Offset, page.Limit, page.Total, len(page.Rows)),
		}
	}
	return page, nil
}

// DataSources lists the configured data sources.
func (c *Client) DataSources(ctx context.Context) (model.Sources, error) {
	var out model.Sources
	if err := c.do(ctx, OpDataSources, http.MethodGet, "/api/data-sources", nil, &out); err != nil {
		return model.Sources{}, err
	}
	return out, nil
}

// SwitchSource makes name the active data source on the server.
func (c *Client) SwitchSource(ctx context.Context, name string) (model.SwitchResult, error) {
	q := url.Values{}
	q.Set("source_name", name)
	var out model.SwitchResult
	if err := c.do(ctx, OpSwitchSource, http.MethodPost, "/api/data-sources/switch", q, &out); err != nil {
		return model.SwitchResult{}, err
	}
	if out.Active == "" {
		return model.SwitchResult{}, &MalformedResponseError{Op: OpSwitchSource, Err: fmt.Errorf("empty active source")}
	}
	return out, nil
}

// ImageURL returns the href of an image. The bytes are never fetched here.
func (c *Client) ImageURL(img model.ImageRef) string {
	q := url.Values{}
	q.Set("repo", img.Repo)
	q.Set("rel_path", img.RelPath)
	return c.endpoint("/api/image", q)
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case err == nil:
		case isMalformed(err):
			outcome = "malformed"
		default:
			outcome = "transport"
		}
		metrics.RecordClientFetch(op, outcome, float64(time.Since(start).Milliseconds()))
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "backend request failed", logger.String("op", op), logger.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp.Body)
		c.log.Warn(ctx, "backend returned error status",
			logger.String("op", op), logger.Int("status", resp.StatusCode), logger.String("message", msg))
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	return nil
}

// errorMessage extracts the message of the server's {code, message} body,
// falling back to the raw text.
func errorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var e struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Detail != "" {
			return e.Detail
		}
	}
	return strings.TrimSpace(string(raw))
}

func isMalformed(err error) bool {
	_, ok := err.(*MalformedResponseError)
	return ok
}
