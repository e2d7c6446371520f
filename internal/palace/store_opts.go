package palace

import "time"

type StoreOpt func(*Store)

// WithClock replaces time.Now for timestamps
func WithClock(now func() time.Time) StoreOpt {
	return func(s *Store) {
		s.now = now
	}
}

// WithIdGenerator replaces uuid generation for entity ids
func WithIdGenerator(f func() string) StoreOpt {
	return func(s *Store) {
		s.newId = f
	}
}

// WithHistoryLimit sets how many conversation entries are kept
func WithHistoryLimit(n int) StoreOpt {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}
