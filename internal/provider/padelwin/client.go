// Package padelwin provides the client and normalizers for the padelandwin
// ajax API.
//
// Every endpoint is an ASP.NET page method: a JSON POST whose response wraps
// a JSON-encoded table in a single "d" field. Requests carry the browser
// headers and session cookie the site expects.
package padelwin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/albapepper/padelwin-ingest/internal/logging"
	"github.com/albapepper/padelwin-ingest/internal/provider"
)

// Endpoint names.
const (
	EndpointCompetitions = "GetListEntranscursoCompeticiones"
	EndpointCategories   = "Get_Cats_Competi"
	EndpointClubs        = "LoadParejasCompeticiones"
	EndpointFixtures     = "GetResultadosEncuentros"
	EndpointMatchResults = "GetPartidosEnfrentamientos"
)

// numbers stay json.Number so identifiers keep their exact digits.
var api = sonic.Config{UseNumber: true}.Froze()

// ClientConfig holds the fixed request identity for a run.
type ClientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	Referer           string
	Origin            string
	UserAgent         string
	CookieName        string
	CookieValue       string
	Timeout           time.Duration
	RequestsPerMinute int // 0 = unlimited
	Logger            *logging.Logger
}

// Client is the HTTP client for all padelwin endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    http.Header
	cookie     *http.Cookie
	limiter    *rate.Limiter
	logger     *logging.Logger
}

// NewClient creates a padelwin client.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json; charset=UTF-8")
	headers.Set("X-Requested-With", "XMLHttpRequest")
	if cfg.Referer != "" {
		headers.Set("Referer", cfg.Referer)
	}
	if cfg.Origin != "" {
		headers.Set("Origin", cfg.Origin)
	}
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}

	var cookie *http.Cookie
	if cfg.CookieName != "" && cfg.CookieValue != "" {
		cookie = &http.Cookie{Name: cfg.CookieName, Value: cfg.CookieValue}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		headers:    headers,
		cookie:     cookie,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// envelope is the ASP.NET page-method response wrapper.
type envelope struct {
	D json.RawMessage `json:"d"`
}

// Fetch posts payload to endpoint and returns the decoded table.
//
// Any failure (transport error, non-200 status, undecodable body) is logged
// and reported as nil: callers treat it as "no data". A successful call with
// an empty table returns a non-nil empty slice.
func (c *Client) Fetch(ctx context.Context, endpoint string, payload map[string]any) []provider.RawRow {
	c.logger.Debug("API request", "endpoint", endpoint, "payload", payload)

	rows, err := c.post(ctx, endpoint, payload)
	if err != nil {
		c.logger.Error("API request failed", "endpoint", endpoint, "error", err)
		return nil
	}
	return rows
}

func (c *Client) post(ctx context.Context, endpoint string, payload map[string]any) ([]provider.RawRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}

	body, err := api.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	for key, values := range c.headers {
		req.Header[key] = values
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "http request %s", endpoint)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	c.logger.Debug("API response", "endpoint", endpoint, "status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"))

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("API response body", "endpoint", endpoint, "body", truncate(raw, 500))
		return nil, errors.Newf("%s returned HTTP %d", endpoint, resp.StatusCode)
	}

	rows, err := decodeTable(raw)
	if err != nil {
		c.logger.Debug("API response body", "endpoint", endpoint, "body", truncate(raw, 500))
		return nil, err
	}
	return rows, nil
}

// decodeTable unwraps {"d": "<json array>"}. A bare array in "d" is accepted
// as well.
func decodeTable(raw []byte) ([]provider.RawRow, error) {
	var env envelope
	if err := api.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "decode response envelope")
	}

	data := bytes.TrimSpace(env.D)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errors.New("response envelope has no data")
	}

	if data[0] == '"' {
		var inner string
		if err := api.Unmarshal(data, &inner); err != nil {
			return nil, errors.Wrap(err, "decode data string")
		}
		data = []byte(strings.TrimSpace(inner))
	}

	rows := []provider.RawRow{}
	if err := api.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "decode data table")
	}
	if rows == nil {
		rows = []provider.RawRow{}
	}
	return rows, nil
}

// truncate returns a truncated string representation for log lines.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
