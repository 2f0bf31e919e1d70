// Package generator calls the Anthropic Messages API to turn a prompt into a test file.
package generator

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

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	metrics "github.com/tigerroll/rlsgen/pkg/batch/core/metrics"
	"github.com/tigerroll/rlsgen/pkg/batch/engine/step/retry"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

const moduleName = "generator"

// maxErrorBody bounds how much of an error response is kept in the error message.
const maxErrorBody = 512

// Generator produces the artifact text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type contentBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

// Client is a Generator backed by the Messages API.
type Client struct {
	cfg        config.GenerationConfig
	httpClient *http.Client
	executor   *retry.Executor
	recorder   metrics.MetricRecorder
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Client) { c.executor.Sleeper = s }
}

// WithJitter replaces the jitter source used between attempts.
func WithJitter(j retry.JitterSource) Option {
	return func(c *Client) { c.executor.Jitter = j }
}

// NewClient creates a Client. A nil recorder disables attempt metrics.
func NewClient(cfg config.GenerationConfig, recorder metrics.MetricRecorder, opts ...Option) *Client {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		executor:   retry.NewExecutor(retry.NewExponentialBackoffPolicy(cfg.Retry)),
		recorder:   recorder,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.executor.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warnf("Generation attempt %d failed, retrying in %v: %v", attempt, delay, err)
	}
	return c
}

// Generate sends prompt as a single user message and returns the text of the first content block.
// Transport failures, 408, 429 and 5xx responses are retried with backoff.
// Every other failure, including a malformed response body, ends the call immediately.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, "failed to encode request", err, false)
	}

	var text string
	attempts, err := c.executor.Do(ctx, func(ctx context.Context, attempt int) error {
		out, callErr := c.call(ctx, body)
		switch {
		case callErr == nil:
			c.recorder.RecordGenerationAttempt(ctx, metrics.AttemptSucceeded)
			text = out
		case exception.IsTemporary(callErr):
			c.recorder.RecordGenerationAttempt(ctx, metrics.AttemptRetryableError)
		default:
			c.recorder.RecordGenerationAttempt(ctx, metrics.AttemptTerminalError)
		}
		return callErr
	})
	if err == nil {
		logger.Debugf("Generation succeeded after %d attempt(s), %d bytes.", attempts, len(text))
		return text, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, "generation interrupted", err, false)
	}
	if exception.IsTemporary(err) {
		return "", exception.NewBatchErrorf(exception.ErrGeneration, moduleName, "generation failed after %d attempts", attempts, err)
	}
	return "", err
}

// call performs a single request. Returned errors carry the retry classification.
func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.APIEndpoint, "/")+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, "failed to create request", err, false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", c.cfg.APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, "request failed", err, true)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, "failed to read response", err, true)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("API returned status %d: %s", resp.StatusCode, truncate(string(data), maxErrorBody))
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, msg, nil, isRetryableStatus(resp.StatusCode))
	}

	return extractText(data)
}

// isRetryableStatus covers request timeout, rate limiting and server side failures (529 is "overloaded").
func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}

func extractText(data []byte) (string, error) {
	var resp messagesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, "malformed response body", err, false)
	}
	if len(resp.Content) == 0 {
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, "response has no content blocks", nil, false)
	}
	first := resp.Content[0]
	if first.Type != "text" || first.Text == nil {
		return "", exception.NewBatchErrorf(exception.ErrGeneration, moduleName, "first content block is %q, not text", first.Type)
	}
	if strings.TrimSpace(*first.Text) == "" {
		return "", exception.NewBatchError(exception.ErrGeneration, moduleName, "response text is empty", nil, false)
	}
	return *first.Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Generator = (*Client)(nil)
