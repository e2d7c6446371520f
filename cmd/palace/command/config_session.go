package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-palace/internal/palace"
	"github.com/pixil98/go-palace/internal/session"
)

type SessionConfig struct {
	HistoryLimit      int    `json:"history_limit,omitempty"`
	AutopilotInterval string `json:"autopilot_interval,omitempty"`
	// Start with the autopilot running
	Autopilot bool `json:"autopilot"`
	// Room created when the palace is empty at startup
	BootstrapRoom string `json:"bootstrap_room,omitempty"`
}

func (c *SessionConfig) validate() error {
	el := errors.NewErrorList()

	if c.HistoryLimit < 0 {
		el.Add(fmt.Errorf("session: history_limit cannot be negative"))
	}

	if c.AutopilotInterval != "" {
		d, err := time.ParseDuration(c.AutopilotInterval)
		if err != nil {
			el.Add(fmt.Errorf("session: parsing autopilot_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("session: autopilot_interval must be at least 1 second"))
		}
	}

	return el.Err()
}

func (c *SessionConfig) storeOpts() []palace.StoreOpt {
	var opts []palace.StoreOpt
	if c.HistoryLimit > 0 {
		opts = append(opts, palace.WithHistoryLimit(c.HistoryLimit))
	}
	return opts
}

func (c *SessionConfig) sessionOpts() ([]session.SessionOpt, error) {
	var opts []session.SessionOpt
	if c.AutopilotInterval != "" {
		d, err := time.ParseDuration(c.AutopilotInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing autopilot_interval: %w", err)
		}
		opts = append(opts, session.WithAutopilotInterval(d))
	}
	return opts, nil
}
