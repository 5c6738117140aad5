// Package remote tags captions through an HTTP tagging service, such as a
// small wrapper around a statistical NLP library. Calls are retried with
// backoff and guarded by a circuit breaker.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/tagger"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/resilience"
)

const maxResponseBytes = 1 << 20

// Request is the body posted to the tagging endpoint.
type Request struct {
	Text string `json:"text"`
}

// Response is the body the tagging endpoint returns.
type Response struct {
	Tokens []tagger.Token `json:"tokens"`
}

type Config struct {
	Endpoint    string
	Timeout     time.Duration
	MaxAttempts int
	Breaker     resilience.CircuitBreakerConfig
}

type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

func New(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{},
		breaker: resilience.NewCircuitBreaker("remote-tagger", cfg.Breaker),
		logger:  slog.Default().With("component", "remote-tagger", "endpoint", cfg.Endpoint),
	}
}

func (c *Client) Tag(ctx context.Context, caption string) ([]tagger.Token, error) {
	var tokens []tagger.Token
	err := resilience.Retry(ctx, "remote-tag", resilience.RetryConfig{MaxAttempts: c.cfg.MaxAttempts}, func() error {
		return c.breaker.Execute(func() error {
			return resilience.WithTimeout(ctx, c.cfg.Timeout, "remote-tag", func(ctx context.Context) error {
				var err error
				tokens, err = c.call(ctx, caption)
				return err
			})
		})
	})
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrTagger, "tagging %q: %v", caption, err)
	}
	return tokens, nil
}

func (c *Client) call(ctx context.Context, caption string) ([]tagger.Token, error) {
	body, err := json.Marshal(Request{Text: caption})
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("marshaling request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling tagger: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading tagger response: %w", err)
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("tagger returned status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, resilience.Permanent(fmt.Errorf("tagger rejected request: status %d: %s", resp.StatusCode, bytes.TrimSpace(data)))
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("decoding tagger response: %w", err))
	}
	c.logger.Debug("caption tagged", "tokens", len(out.Tokens))
	return out.Tokens, nil
}

// BreakerState exposes the circuit state for health reporting.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}
