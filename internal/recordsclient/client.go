// Package recordsclient is an HTTP client for the records store API.
package recordsclient

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

	"github.com/HerbHall/managedrecords/internal/records"
	"github.com/HerbHall/managedrecords/internal/version"
	"github.com/HerbHall/managedrecords/pkg/models"
	"go.uber.org/zap"
)

// Defaults used when no base URL or timeout is configured.
const (
	DefaultBaseURL = "http://localhost:3000"
	DefaultTimeout = 5 * time.Second
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// Compile-time interface guard.
var _ records.Fetcher = (*Client)(nil)

// StatusError is returned when the store answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("records store: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("records store: %d %s", e.StatusCode, e.Body)
}

// Client fetches windows of records from GET {baseURL}/records.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the store at baseURL (e.g. "http://localhost:3000").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the request URL for q. Color filters are encoded as repeated
// color[] parameters and omitted entirely when q.Colors is empty.
func (c *Client) URL(q records.Query) string {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	for _, color := range q.Colors {
		v.Add("color[]", color)
	}
	return c.baseURL + "/records?" + v.Encode()
}

// Fetch performs one GET /records request bound to ctx.
func (c *Client) Fetch(ctx context.Context, q records.Query) ([]models.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(q), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("records store request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("records store responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out []models.Record
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if out == nil {
		out = []models.Record{}
	}
	return out, nil
}
