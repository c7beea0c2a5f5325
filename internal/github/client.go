// Package github is a small typed client for the parts of the GitHub REST API
// that the board reads and writes.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	apiVersion     = "2022-11-28"
	defaultBaseURL = "https://api.github.com"

	// maxRateLimitWait caps how long a single retry waits for the quota to reset.
	maxRateLimitWait = 60 * time.Second
)

// HTTPDoer performs HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	// BaseURL defaults to https://api.github.com.
	BaseURL string
	// Token is a personal access, OAuth, or installation token. Empty means anonymous.
	Token string
	// HTTPClient defaults to an http.Client with a 30s timeout.
	HTTPClient HTTPDoer
	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}
	return &Client{
		baseURL: baseURL,
		token:   cfg.Token,
		http:    httpClient,
		limiter: limiter,
		logger:  logger,
	}
}

// Authenticated reports whether the client carries a token.
func (c *Client) Authenticated() bool { return c.token != "" }

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) patch(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// do sends one request, retrying once if GitHub reports a rate limit.
// A nil result discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	respBody, err := c.send(ctx, method, path, body)
	if err != nil && IsRateLimited(err) {
		wait := c.retryAfter(err)
		c.logger.Warn("github rate limit hit, retrying", "method", method, "path", path, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		respBody, err = c.send(ctx, method, path, body)
	}
	if err != nil {
		return err
	}
	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("github: decode %s %s: %w", method, path, err)
	}
	return nil
}

// rateLimitError carries the response headers alongside the APIError so the
// retry can honour Retry-After and X-RateLimit-Reset.
type rateLimitError struct {
	*APIError
	header http.Header
}

func (e *rateLimitError) Unwrap() error { return e.APIError }

func (c *Client) retryAfter(err error) time.Duration {
	wait := time.Second
	rl, ok := err.(*rateLimitError)
	if !ok {
		return wait
	}
	if v := rl.header.Get("Retry-After"); v != "" {
		if secs, perr := strconv.Atoi(v); perr == nil {
			wait = time.Duration(secs) * time.Second
		}
	} else if v := rl.header.Get("X-RateLimit-Reset"); v != "" {
		if epoch, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			wait = time.Until(time.Unix(epoch, 0))
		}
	}
	if wait < 0 {
		wait = 0
	}
	if wait > maxRateLimitWait {
		wait = maxRateLimitWait
	}
	return wait
}

func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("github: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("github: create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", "flowboard")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, data)
		if IsRateLimited(apiErr) {
			return nil, &rateLimitError{APIError: apiErr, header: resp.Header}
		}
		return nil, apiErr
	}
	return data, nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var parsed struct {
		Message          string            `json:"message"`
		DocumentationURL string            `json:"documentation_url"`
		Errors           []ValidationError `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		apiErr.Message = parsed.Message
		apiErr.DocumentationURL = parsed.DocumentationURL
		apiErr.Errors = parsed.Errors
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	return apiErr
}
