package driver

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	DefaultTickLength = time.Second * 5
)

// Manager is driven once per tick.
type Manager interface {
	Tick(context.Context) error
}

// Pauser is a Manager that can sit out a tick, such as the autopilot while
// the session is still working on a user's request.
type Pauser interface {
	Paused() bool
}

// Driver ticks its managers at a fixed interval until its context ends.
type Driver struct {
	tickLength time.Duration
	managers   []Manager
	skipped    atomic.Int64
}

func NewDriver(managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) TickLength() time.Duration {
	return d.tickLength
}

// Skipped counts the ticks paused managers have sat out.
func (d *Driver) Skipped() int64 {
	return d.skipped.Load()
}

// Start blocks until ctx is done or a manager fails. A tick that runs longer
// than the tick length delays the next one rather than stacking up.
func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick drives each manager once, skipping those that are paused.
func (d *Driver) Tick(ctx context.Context) error {
	for _, m := range d.managers {
		if p, ok := m.(Pauser); ok && p.Paused() {
			d.skipped.Add(1)
			slog.DebugContext(ctx, "manager paused, skipping tick")
			continue
		}
		if err := m.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
