package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL      = "https://api.replicate.com"
	DefaultPollInterval = time.Second * 2
	DefaultMaxAttempts  = 60
	DefaultWidth        = 2048
	DefaultHeight       = 1024
)

var (
	ErrProviderUnconfigured = errors.New("image provider is not configured")
	ErrProviderFailure      = errors.New("image provider failed")
	ErrTimeout              = errors.New("image generation timed out")
	// ErrBusy is returned while another generation is in flight.
	ErrBusy = errors.New("image generation already in progress")
)

// Size is the requested image size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Client generates images through the Replicate predictions API. Only one
// generation runs at a time per client.
type Client struct {
	baseURL      string
	token        string
	version      string
	pollInterval time.Duration
	maxAttempts  int

	http       *http.Client
	breaker    *gobreaker.CircuitBreaker
	generating atomic.Bool
}

func NewClient(token, version string, opts ...ClientOpt) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		token:        token,
		version:      version,
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		http:         &http.Client{Timeout: 30 * time.Second},
	}

	settings := DefaultBreakerSettings()
	for _, opt := range opts {
		opt(c, &settings)
	}

	c.breaker = gobreaker.NewCircuitBreaker(settings)
	return c
}

// DefaultBreakerSettings trips after five consecutive provider failures.
func DefaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "imagegen",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
}

// Configured reports whether the client has credentials to call the provider.
func (c *Client) Configured() bool {
	return c.token != "" && c.version != ""
}

// Generate starts a prediction for prompt and polls it until an image URL is
// available, the attempt budget is spent, or ctx ends.
func (c *Client) Generate(ctx context.Context, prompt string, size Size) (string, error) {
	if !c.Configured() {
		return "", ErrProviderUnconfigured
	}
	if !c.generating.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer c.generating.Store(false)

	p, err := c.call(ctx, http.MethodPost, c.baseURL+"/v1/predictions", predictionRequest{
		Version: c.version,
		Input: predictionInput{
			Prompt: prompt,
			Width:  size.Width,
			Height: size.Height,
		},
	})
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "image prediction started", "prediction", p.ID)

	for attempt := 0; ; attempt++ {
		switch p.Status {
		case statusSucceeded:
			url := p.url()
			if url == "" {
				return "", fmt.Errorf("%w: prediction %s returned no output", ErrProviderFailure, p.ID)
			}
			return url, nil
		case statusFailed, statusCanceled:
			return "", fmt.Errorf("%w: prediction %s %s: %v", ErrProviderFailure, p.ID, p.Status, p.Error)
		}

		if attempt >= c.maxAttempts {
			return "", fmt.Errorf("%w after %d polls", ErrTimeout, attempt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		p, err = c.call(ctx, http.MethodGet, c.baseURL+"/v1/predictions/"+p.ID, nil)
		if err != nil {
			return "", err
		}
	}
}

func (c *Client) call(ctx context.Context, method, url string, body any) (*prediction, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, method, url, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*prediction), nil
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*prediction, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrProviderFailure, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: response has no prediction id", ErrProviderFailure)
	}
	return &p, nil
}

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusCanceled  = "canceled"
)

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

// url returns the first image url of the output, which is either a string or
// a list of strings depending on the model.
func (p *prediction) url() string {
	var one string
	if err := json.Unmarshal(p.Output, &one); err == nil {
		return one
	}
	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}
