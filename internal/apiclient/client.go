// Package apiclient talks to the quiz backend over REST/JSON.
package apiclient

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

	"github.com/rotisserie/eris"

	"bizquiz/internal/quiz"
	"bizquiz/internal/wire"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

// APIError is a non-2xx response. Message comes from the {"error": ...} body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// TokenSource supplies the bearer token for authenticated requests. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

func (t StaticToken) Token() string {
	return string(t)
}

const (
	defaultBaseURL = "http://127.0.0.1:8080"
	defaultTimeout = 10 * time.Second

	skipBrowserWarningHeader = "ngrok-skip-browser-warning"
)

type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithRetry sets the number of attempts for idempotent requests.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithSkipBrowserWarning toggles the header that bypasses tunnel interstitials.
func WithSkipBrowserWarning(enabled bool) Option {
	return func(c *Client) {
		c.skipBrowserWarning = enabled
	}
}

type Client struct {
	baseURL            string
	http               *http.Client
	timeout            time.Duration
	tokens             TokenSource
	retry              RetryConfig
	skipBrowserWarning bool
}

func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		baseURL:            baseURL,
		timeout:            defaultTimeout,
		retry:              DefaultRetryConfig(),
		skipBrowserWarning: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// getJSON issues an idempotent GET, retrying transient failures.
func (c *Client) getJSON(ctx context.Context, op, path string, responseBody any) error {
	cfg := c.retry
	cfg.OnRetry = retryLogger(op)
	return retryDo(ctx, cfg, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, path, nil, responseBody)
	})
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return eris.Wrap(err, "apiclient: encode request")
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return eris.Wrap(err, "apiclient: build request")
	}
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.skipBrowserWarning {
		request.Header.Set(skipBrowserWarningHeader, "true")
	}
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.Token()); token != "" {
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}

	response, err := c.http.Do(request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrServiceUnavailable, ctxErr)
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload wire.ErrorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("%w: %v", quiz.ErrMalformedPayload, err)
	}
	return nil
}

// fetchError converts a request failure into the catalog/question-set error type.
func fetchError(op string, err error) error {
	fetchErr := &quiz.FetchError{Op: op, Err: err}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		fetchErr.StatusCode = apiErr.StatusCode
	}
	return fetchErr
}
