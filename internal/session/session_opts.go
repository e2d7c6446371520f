package session

import "time"

type SessionOpt func(*Session)

// WithAutopilotInterval sets how often the autopilot acts. Non-positive
// intervals are ignored.
func WithAutopilotInterval(d time.Duration) SessionOpt {
	return func(s *Session) {
		if d > 0 {
			s.pilot.interval = d
		}
	}
}

// WithRand replaces the autopilot's random source.
func WithRand(r Rand) SessionOpt {
	return func(s *Session) {
		s.pilot.rand = r
	}
}

func WithClock(now func() time.Time) SessionOpt {
	return func(s *Session) {
		s.now = now
	}
}
