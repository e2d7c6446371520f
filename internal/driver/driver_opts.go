package driver

import "time"

type DriverOpt func(*Driver)

// WithTickLength sets the interval between ticks. Non-positive lengths are
// ignored.
func WithTickLength(tickLength time.Duration) DriverOpt {
	return func(d *Driver) {
		if tickLength > 0 {
			d.tickLength = tickLength
		}
	}
}
