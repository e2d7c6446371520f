package imagegen

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

type ClientOpt func(*Client, *gobreaker.Settings)

func WithBaseURL(url string) ClientOpt {
	return func(c *Client, _ *gobreaker.Settings) {
		c.baseURL = url
	}
}

func WithPollInterval(d time.Duration) ClientOpt {
	return func(c *Client, _ *gobreaker.Settings) {
		c.pollInterval = d
	}
}

func WithMaxAttempts(n int) ClientOpt {
	return func(c *Client, _ *gobreaker.Settings) {
		c.maxAttempts = n
	}
}

func WithHTTPClient(h *http.Client) ClientOpt {
	return func(c *Client, _ *gobreaker.Settings) {
		c.http = h
	}
}

// WithBreaker trips the circuit after failures consecutive errors and keeps
// it open for cooldown.
func WithBreaker(failures uint32, cooldown time.Duration) ClientOpt {
	return func(_ *Client, s *gobreaker.Settings) {
		s.Timeout = cooldown
		s.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		}
	}
}
