package palace

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

type EventType string

const (
	EventRoomCreated       EventType = "ROOM_CREATED"
	EventRoomUpdated       EventType = "ROOM_UPDATED"
	EventRoomDeleted       EventType = "ROOM_DELETED"
	EventRoomChanged       EventType = "ROOM_CHANGED"
	EventObjectCreated     EventType = "OBJECT_CREATED"
	EventObjectUpdated     EventType = "OBJECT_UPDATED"
	EventObjectDeleted     EventType = "OBJECT_DELETED"
	EventConnectionCreated EventType = "CONNECTION_CREATED"
	EventConnectionUpdated EventType = "CONNECTION_UPDATED"
	EventConnectionDeleted EventType = "CONNECTION_DELETED"
)

// Event describes one committed change to the palace. Only the fields that
// apply to Type are set.
type Event struct {
	Type       EventType     `json:"type"`
	Time       time.Time     `json:"time"`
	Room       *Room         `json:"room,omitempty"`
	Object     *MemoryObject `json:"object,omitempty"`
	Connection *Connection   `json:"connection,omitempty"`

	// Set on ROOM_CHANGED and ROOM_DELETED
	PreviousRoomID string `json:"previous_room_id,omitempty"`
	CurrentRoomID  string `json:"current_room_id,omitempty"`
}

// Handler observes events. A returned error is logged and does not stop
// delivery to other handlers.
type Handler func(Event) error

// Bus fans events out to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	nextId   int
	handlers map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function removing it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextId
	b.nextId++
	b.handlers[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish delivers e to every handler in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := maps.Clone(b.handlers)
	b.mu.RUnlock()

	for _, id := range slices.Sorted(maps.Keys(handlers)) {
		if err := deliver(handlers[id], e); err != nil {
			slog.Warn("event handler failed", "event", e.Type, "error", err)
		}
	}
}

func deliver(h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(e)
}
