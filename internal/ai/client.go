// Package ai is the client for the AI estimation service. One Client runs
// the four estimation flows over either the OpenAI chat completions API or
// the Gemini generateContent API, always asking for a JSON object back.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnrecognized means the model could not make sense of the input,
	// e.g. a food description that is not food.
	ErrUnrecognized = errors.New("unrecognized")
	// ErrMalformed means the model answered with JSON that does not match
	// the requested shape.
	ErrMalformed = errors.New("malformed model response")
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("ai provider not configured")
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 2
)

// completer sends one system+user prompt pair and returns the raw content
// of the model's reply.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
	name() string
}

// statusError is a non-200 reply from the provider.
type statusError struct {
	provider string
	code     int
	body     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.provider, e.code, e.body)
}

type Client struct {
	backend     completer
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	log         *zap.Logger
}

type Option func(*Client)

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxAttempts sets how many times a call is tried when the provider is
// unreachable or answers 5xx.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func newClient(opts []Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

// call runs one completion with the per-attempt timeout, retrying
// transport failures and 5xx replies.
func (c *Client) call(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		content, err := c.backend.complete(attemptCtx, system, user)
		cancel()
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
		c.log.Warn("ai request failed, retrying",
			zap.String("provider", c.backend.name()),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return "", lastErr
}

func retryable(err error) bool {
	if errors.Is(err, ErrNotConfigured) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return true
}
