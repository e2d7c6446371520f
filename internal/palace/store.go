package palace

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-palace/internal/storage"
)

const (
	DefaultUserId       = "default"
	DefaultHistoryLimit = 10
)

// Collections holds the persistence backends of every palace collection.
type Collections struct {
	Rooms       storage.Storer[*Room]
	Objects     storage.Storer[*MemoryObject]
	Connections storage.Storer[*Connection]
	Users       storage.Storer[*UserState]
}

// Store is the single owner of the palace graph. All reads and writes go
// through its methods; every committed mutation is persisted before the call
// returns and then announced on the bus.
type Store struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	objects     map[string]*MemoryObject
	connections map[string]*Connection
	user        *UserState

	persist Collections
	bus     *Bus

	now          func() time.Time
	newId        func() string
	historyLimit int
}

// NewStore builds a store over the given collections and loads their
// contents.
func NewStore(c Collections, bus *Bus, opts ...StoreOpt) (*Store, error) {
	s := &Store{
		rooms:        make(map[string]*Room),
		objects:      make(map[string]*MemoryObject),
		connections:  make(map[string]*Connection),
		persist:      c,
		bus:          bus,
		now:          time.Now,
		newId:        uuid.NewString,
		historyLimit: DefaultHistoryLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.bus == nil {
		s.bus = NewBus()
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Bus returns the bus mutations are announced on.
func (s *Store) Bus() *Bus {
	return s.bus
}

// Load replaces the in-memory graph with what the collections hold.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms = make(map[string]*Room)
	s.objects = make(map[string]*MemoryObject)
	s.connections = make(map[string]*Connection)

	for id, r := range s.persist.Rooms.GetAll() {
		s.rooms[id] = r.clone()
	}

	// Drop records whose room no longer exists rather than refusing to start.
	for id, o := range s.persist.Objects.GetAll() {
		if _, ok := s.rooms[o.RoomID]; !ok {
			slog.Warn("dropping orphaned object", "object", id, "room", o.RoomID)
			continue
		}
		s.objects[id] = o.clone()
	}
	for id, c := range s.persist.Connections.GetAll() {
		_, srcOk := s.rooms[c.RoomID]
		_, dstOk := s.rooms[c.TargetRoomID]
		if !srcOk || (!dstOk && !c.NeedsConfiguration) {
			slog.Warn("dropping orphaned connection", "connection", id)
			continue
		}
		s.connections[id] = c.clone()
	}

	s.user = &UserState{ID: DefaultUserId}
	if u := s.persist.Users.Get(DefaultUserId); u != nil {
		s.user = u.clone()
	}
	if len(s.user.ConversationHistory) > s.historyLimit {
		s.user.ConversationHistory = s.user.ConversationHistory[len(s.user.ConversationHistory)-s.historyLimit:]
	}

	// Counters must stay ahead of anything already persisted.
	for _, r := range s.rooms {
		s.user.RoomCounter = max(s.user.RoomCounter, r.RoomCounter)
	}
	for _, o := range s.objects {
		s.user.ObjectCounter = max(s.user.ObjectCounter, o.ObjectCounter)
	}

	if _, ok := s.rooms[s.user.CurrentRoomID]; !ok {
		s.user.CurrentRoomID = ""
		if first := s.sortedRooms(); len(first) > 0 {
			s.user.CurrentRoomID = first[0].ID
		}
	}

	slog.Info("palace loaded", "rooms", len(s.rooms), "objects", len(s.objects), "connections", len(s.connections))
	return nil
}

// Bootstrap creates a default room when the palace is empty.
func (s *Store) Bootstrap(name, description string) (*Room, error) {
	s.mu.RLock()
	empty := len(s.rooms) == 0
	s.mu.RUnlock()

	if !empty {
		return nil, nil
	}
	return s.CreateRoom(name, description, RoomOptions{})
}

// Clear wipes every collection, in memory and in persistence.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms = make(map[string]*Room)
	s.objects = make(map[string]*MemoryObject)
	s.connections = make(map[string]*Connection)
	s.user = &UserState{ID: DefaultUserId}

	for name, err := range map[string]error{
		"rooms":       s.persist.Rooms.Clear(),
		"objects":     s.persist.Objects.Clear(),
		"connections": s.persist.Connections.Clear(),
		"users":       s.persist.Users.Clear(),
	} {
		if err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
	}
	return nil
}

// The save helpers log and swallow persistence failures: the in-memory state
// stays authoritative for the rest of the process.

func (s *Store) saveRoom(r *Room) {
	if err := s.persist.Rooms.Save(r.ID, r.clone()); err != nil {
		slog.Warn("persisting room", "room", r.ID, "error", err)
	}
}

func (s *Store) saveObject(o *MemoryObject) {
	if err := s.persist.Objects.Save(o.ID, o.clone()); err != nil {
		slog.Warn("persisting object", "object", o.ID, "error", err)
	}
}

func (s *Store) saveConnection(c *Connection) {
	if err := s.persist.Connections.Save(c.ID, c.clone()); err != nil {
		slog.Warn("persisting connection", "connection", c.ID, "error", err)
	}
}

func (s *Store) saveUser() {
	if err := s.persist.Users.Save(s.user.ID, s.user.clone()); err != nil {
		slog.Warn("persisting user state", "error", err)
	}
}

func (s *Store) remove(name string, st interface{ Delete(string) error }, id string) {
	if err := st.Delete(id); err != nil {
		slog.Warn("deleting record", "collection", name, "id", id, "error", err)
	}
}

func (s *Store) sortedRooms() []*Room {
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	slices.SortFunc(rooms, func(a, b *Room) int {
		return a.RoomCounter - b.RoomCounter
	})
	return rooms
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
