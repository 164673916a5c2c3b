package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"decadebox/metrics"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// ErrNoCredential is returned before any network I/O when the client was
// constructed without an API key. It exists so a missing TMDB_API_KEY shows
// up as one clear configuration error instead of per-call 401s.
var ErrNoCredential = errors.New("tmdb: no API key configured")

// UpstreamError carries a non-2xx response from TMDB.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tmdb: upstream status %d: %s", e.Status, e.Body)
}

// Client is a thin gateway over the TMDB HTTP API. It attaches the API
// credential to every call and surfaces non-2xx responses as *UpstreamError.
// It never retries; callers decide whether to recover.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func NewClient(apiKey string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{apiKey: apiKey, baseURL: defaultBaseURL, httpc: httpc}
}

// Call performs a GET against path ("/discover/movie", "/movie/603", ...)
// with the given query parameters and decodes the JSON response into dst.
// Entries with empty values are omitted from the outgoing query rather than
// sent as empty strings.
func (c *Client) Call(ctx context.Context, path string, params map[string]string, dst interface{}) error {
	if c.apiKey == "" {
		return ErrNoCredential
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	for key, value := range params {
		if value == "" {
			continue
		}
		q.Set(key, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.TMDBRequestsTotal.WithLabelValues(endpointLabel(path), "transport_error").Inc()
		return fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.TMDBRequestsTotal.WithLabelValues(endpointLabel(path), strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb: decode response: %w", err)
	}
	return nil
}

// endpointLabel reduces a call path to its leading segment so metric
// cardinality stays bounded ("/movie/603/videos" -> "movie").
func endpointLabel(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return path
}
