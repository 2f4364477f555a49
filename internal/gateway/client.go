// Package gateway talks to the external text-completion service. A call is one
// bounded request with no retry; every failure comes back as *Error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	hostedPath = "/v1/chat/completions"
	localPath  = "/api/generate"

	emptyHostedReply = "No response generated."
	emptyLocalReply  = "I couldn't generate a response. Please try again."
)

// Config describes the completion endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Hosted selects the OpenAI-compatible chat endpoint; otherwise the local
	// generate endpoint is used.
	Hosted      bool
	Temperature float64
	Timeout     time.Duration
}

// Observer receives the outcome of every call: "ok" or a Kind.
type Observer func(outcome string, elapsed time.Duration)

// Client sends prompts to the completion service.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	observe    Observer
}

// Option customizes a Client.
type Option func(*Client)

// WithObserver registers a call observer, typically a metrics hook.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// NewClient builds a client. A zero timeout defaults to 60 seconds.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
		observe:    func(string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Response string `json:"response"`
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete sends prompt and returns the raw completion. image is an optional
// base64 payload; only the local endpoint accepts images.
func (c *Client) Complete(ctx context.Context, prompt, image string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := c.do(ctx, prompt, image)
	elapsed := time.Since(start)

	if err != nil {
		kind := KindOf(err)
		c.observe(string(kind), elapsed)
		c.logger.Error("completion failed",
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", err
	}
	c.observe("ok", elapsed)
	c.logger.Debug("completion succeeded", zap.Duration("elapsed", elapsed), zap.Int("length", len(text)))
	return text, nil
}

func (c *Client) do(ctx context.Context, prompt, image string) (string, error) {
	var (
		endpoint string
		payload  any
	)
	if c.cfg.Hosted {
		endpoint = c.cfg.BaseURL + hostedPath
		payload = chatRequest{
			Model:       c.cfg.Model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: c.cfg.Temperature,
		}
	} else {
		endpoint = c.cfg.BaseURL + localPath
		req := generateRequest{Model: c.cfg.Model, Prompt: prompt}
		if image != "" {
			req.Images = []string{image}
		}
		payload = req
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", c.fail(KindService, 0, fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", c.fail(KindConnection, 0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Hosted && c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.transportFailure(ctx, fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", c.fail(KindAuth, resp.StatusCode, errors.New("invalid api key"))
	case resp.StatusCode == http.StatusNotFound:
		return "", c.fail(KindNotFound, resp.StatusCode, fmt.Errorf("model %q not available", c.cfg.Model))
	case resp.StatusCode != http.StatusOK:
		return "", c.fail(KindService, resp.StatusCode, fmt.Errorf("unexpected status: %s", truncate(string(raw), 200)))
	}

	if c.cfg.Hosted {
		var out chatResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", c.fail(KindService, resp.StatusCode, fmt.Errorf("decode response: %w", err))
		}
		if len(out.Choices) > 0 {
			if out.Choices[0].Message.Content == "" {
				return emptyHostedReply, nil
			}
			return out.Choices[0].Message.Content, nil
		}
		if out.Response != "" {
			return out.Response, nil
		}
		return emptyHostedReply, nil
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", c.fail(KindService, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if out.Response == "" {
		return emptyLocalReply, nil
	}
	return out.Response, nil
}

func (c *Client) transportFailure(ctx context.Context, err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &nerr) && nerr.Timeout()) {
		return c.fail(KindTimeout, 0, err)
	}
	return c.fail(KindConnection, 0, err)
}

func (c *Client) fail(kind Kind, status int, err error) *Error {
	return &Error{Kind: kind, Status: status, Model: c.cfg.Model, BaseURL: c.cfg.BaseURL, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
