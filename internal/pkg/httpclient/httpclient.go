package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds retry policy settings for upstream calls
type Config struct {
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// MaxAttempts is the total number of tries, first call included.
	MaxAttempts int
	// Backoff is the base delay; attempt n waits n * Backoff before retrying.
	Backoff time.Duration
}

// DefaultConfig mirrors the service-to-service policy: 5-second calls,
// up to 3 attempts, linearly increasing backoff.
func DefaultConfig() Config {
	return Config{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		Backoff:     time.Second,
	}
}

// Client is an HTTP client that retries transient failures. Application-level
// responses (any status < 500) are returned to the caller on the first
// attempt — only network errors and 5xx responses are retried.
type Client struct {
	http   *http.Client
	config Config
}

// New creates a retrying client
func New(config Config) *Client {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Client{
		http: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		config: config,
	}
}

// Response carries the decoded outcome of an upstream call
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// Get performs a GET with the retry policy
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Patch performs a PATCH with a JSON body and the retry policy
func (c *Client) Patch(ctx context.Context, url string, body interface{}) (*Response, error) {
	return c.do(ctx, http.MethodPatch, url, body)
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.config.Backoff):
			}
		}

		resp, err := c.attempt(ctx, method, url, payload)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("upstream returned status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", c.config.MaxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, url string, payload []byte) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}
