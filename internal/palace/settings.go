package palace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Settings holds the user's preferences as JSON values by name, so new
// preferences need no change to the persisted record.
type Settings map[string]json.RawMessage

func (st *Settings) set(key string, v any) error {
	if key == "" {
		return fmt.Errorf("setting name is required")
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", key, err)
	}

	if *st == nil {
		*st = Settings{}
	}
	(*st)[key] = b
	return nil
}

// Lookup decodes the setting into out. A missing setting leaves out
// untouched and reports false.
func (st Settings) Lookup(key string, out any) (bool, error) {
	raw, ok := st[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decoding setting %q: %w", key, err)
	}
	return true, nil
}

// Names returns the setting names in sorted order.
func (st Settings) Names() []string {
	return slices.Sorted(maps.Keys(st))
}

func (st Settings) clone() Settings {
	if st == nil {
		return nil
	}
	c := make(Settings, len(st))
	for k, v := range st {
		c[k] = slices.Clone(v)
	}
	return c
}

// Setting reads one user setting into out.
func (s *Store) Setting(key string, out any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Settings.Lookup(key, out)
}

// Settings returns a copy of every user setting.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Settings.clone()
}

// SetSetting stores value under key and persists the user state.
func (s *Store) SetSetting(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.user.Settings.set(key, value); err != nil {
		return err
	}
	s.saveUser()
	return nil
}

// DeleteSetting forgets a setting. It reports whether one was set.
func (s *Store) DeleteSetting(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.user.Settings[key]; !ok {
		return false
	}
	delete(s.user.Settings, key)
	s.saveUser()
	return true
}
