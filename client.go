package netatmo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the Netatmo app API base URL.
	DefaultBaseURL = "https://api.netatmo.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// CredentialSource supplies session credentials to the client and accepts
// invalidation when the server rejects one. Authenticator implements it;
// tests substitute fakes.
type CredentialSource interface {
	Credential(ctx context.Context) (Credential, error)
	Invalidate()
}

// Client is a Netatmo app API client. It attaches the current session
// credential to every call and transparently recovers from a stale
// session by re-authenticating and retrying the call exactly once.
type Client struct {
	baseURL    string
	auth       CredentialSource
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP request timeout.
// This option can be applied in any order relative to other options.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithLogger configures a structured logger for the client.
// When set, the client logs API requests and responses.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, _ := netatmo.NewClient(auth, netatmo.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Netatmo API client backed by the given
// credential source.
func NewClient(auth CredentialSource, opts ...Option) (*Client, error) {
	if auth == nil {
		return nil, fmt.Errorf("netatmo: credential source is required")
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		auth:    auth,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// sendOutcome classifies one transport attempt so the retry bound stays
// an explicit two-state loop instead of nested error handling.
type sendOutcome int

const (
	outcomeOK sendOutcome = iota
	outcomeStaleSession
	outcomeError
)

// do performs an authorized request with the retry-once-on-stale-session
// policy. The stale-session signal is an HTTP 403 carrying a non-empty
// body; an empty 403 is a server fault and is surfaced as-is. Any other
// failure, including the login handshake failing, is surfaced without
// retry.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	const maxAttempts = 2
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cred, err := c.auth.Credential(ctx)
		if err != nil {
			return nil, err
		}

		data, outcome, err := c.send(ctx, method, path, query, payload, cred)
		switch outcome {
		case outcomeOK:
			return data, nil
		case outcomeStaleSession:
			if attempt == 0 {
				c.logWarn(ctx, "stale_session", slog.String("method", method), slog.String("path", path))
				c.auth.Invalidate()
				continue
			}
			return nil, &AuthError{Message: "session still rejected after re-authentication", Err: err}
		default:
			return nil, err
		}
	}

	// Unreachable: every attempt returns or continues.
	return nil, &AuthError{Message: "retry attempts exhausted"}
}

// send issues one HTTP attempt and classifies its result.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, cred Credential) ([]byte, sendOutcome, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, outcomeError, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cred.AccessToken())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logResponse(ctx, method, path, 0, time.Since(start), err)
		return nil, outcomeError, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, outcomeError, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logResponse(ctx, method, path, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode == http.StatusForbidden && len(bytes.TrimSpace(respBody)) > 0 {
		return nil, outcomeStaleSession, c.handleError(resp.StatusCode, respBody)
	}

	if resp.StatusCode >= 400 {
		return nil, outcomeError, c.handleError(resp.StatusCode, respBody)
	}

	if len(bytes.TrimSpace(respBody)) == 0 || !json.Valid(respBody) {
		return nil, outcomeError, &APIError{
			StatusCode: resp.StatusCode,
			Message:    "response body is not valid JSON",
		}
	}

	return respBody, outcomeOK, nil
}

// handleError converts HTTP error responses to appropriate errors.
func (c *Client) handleError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}

	// Try to extract the vendor's error envelope from the response.
	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &APIError{
			StatusCode: statusCode,
			Message:    errResp.Error.Message,
			Code:       errResp.Error.Code,
		}
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    string(body),
	}
}

// get performs an authorized GET request.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// post performs an authorized POST request.
func (c *Client) post(ctx context.Context, path string, query url.Values, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, query, body)
}

func (c *Client) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

// logResponse logs one API response with a level derived from its status.
func (c *Client) logResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration, err error) {
	if c.logger == nil {
		return
	}

	level := slog.LevelDebug
	if statusCode >= 400 {
		level = slog.LevelWarn
	}
	if statusCode >= 500 || err != nil {
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", statusCode),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	c.logger.LogAttrs(ctx, level, "api_response", attrs...)
}
