// Package cms queries the headless CMS GraphQL endpoint for blog content.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUpstreamFetchFailed is returned for any failed CMS call: transport
// errors, non-2xx responses, undecodable bodies, GraphQL errors or a missing
// data field. Calls are never retried.
var ErrUpstreamFetchFailed = errors.New("upstream fetch failed")

const defaultTimeout = 30 * time.Second

// Config is injected by the caller; the package never reads the environment.
type Config struct {
	Endpoint  string
	AuthToken string
	Timeout   time.Duration
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// Client issues GraphQL queries over HTTP POST.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, client: httpClient}
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Query posts {query, variables} and decodes the response data field into out.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	if !c.cfg.Enabled() {
		return fmt.Errorf("%w: no endpoint configured", ErrUpstreamFetchFailed)
	}

	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d", ErrUpstreamFetchFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response body: %v", ErrUpstreamFetchFailed, err)
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUpstreamFetchFailed, err)
	}
	if len(r.Errors) > 0 {
		msgs := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("%w: %s", ErrUpstreamFetchFailed, strings.Join(msgs, "; "))
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return fmt.Errorf("%w: response has no data", ErrUpstreamFetchFailed)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("%w: decoding data: %v", ErrUpstreamFetchFailed, err)
	}
	return nil
}
