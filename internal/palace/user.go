package palace

import (
	"fmt"
	"slices"
	"strings"
)

// History returns the conversation window, oldest first.
func (s *Store) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.user.ConversationHistory)
}

// AppendHistory records one line of conversation, dropping the oldest entries
// beyond the history limit.
func (s *Store) AppendHistory(role, content string) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("unknown history role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := append(s.user.ConversationHistory, HistoryEntry{
		Role:      role,
		Content:   strings.TrimSpace(content),
		Timestamp: s.now(),
	})
	if len(h) > s.historyLimit {
		h = slices.Clone(h[len(h)-s.historyLimit:])
	}
	s.user.ConversationHistory = h

	s.saveUser()
	return nil
}
