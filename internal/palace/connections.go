package palace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pixil98/go-palace/internal/spatial"
)

// ConnectionOptions adjusts CreateConnection.
type ConnectionOptions struct {
	Bidirectional bool
	// NeedsConfiguration creates a door with no target yet.
	NeedsConfiguration bool
}

// ConnectedRoom pairs a navigable door with the room on its far side.
type ConnectedRoom struct {
	Connection *Connection
	Room       *Room
}

// CreateConnection places a door in source leading to target.
func (s *Store) CreateConnection(source, target, description string, pos spatial.Vec3, opts ConnectionOptions) (*Connection, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()

	if _, ok := s.rooms[source]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("source %w", notFound("room", source))
	}
	if opts.NeedsConfiguration {
		target = ""
	} else {
		if _, ok := s.rooms[target]; !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("target %w", notFound("room", target))
		}
		if target == source {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: a door cannot lead to its own room", ErrInvalidConnection)
		}
	}

	c := &Connection{
		ID:                 s.newId(),
		RoomID:             source,
		TargetRoomID:       target,
		Description:        strings.TrimSpace(description),
		Bidirectional:      opts.Bidirectional,
		Position:           pos,
		NeedsConfiguration: opts.NeedsConfiguration,
		CreatedAt:          s.now(),
	}
	if c.Description == "" {
		c.Description = "door"
	}

	s.connections[c.ID] = c
	s.saveConnection(c)
	out := c.clone()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventConnectionCreated, Time: out.CreatedAt, Connection: out})
	return out.clone(), nil
}

// Connection returns one door by id.
func (s *Store) Connection(id string) (*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.connections[id]
	if !ok {
		return nil, notFound("connection", id)
	}
	return c.clone(), nil
}

// ConfigureConnection points a door at target. An empty description keeps
// the current one.
func (s *Store) ConfigureConnection(id, target, description string) (*Connection, error) {
	s.mu.Lock()

	c, ok := s.connections[id]
	if !ok {
		s.mu.Unlock()
		return nil, notFound("connection", id)
	}
	if _, ok := s.rooms[target]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("target %w", notFound("room", target))
	}
	if target == c.RoomID {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: a door cannot lead to its own room", ErrInvalidConnection)
	}

	c.TargetRoomID = target
	c.NeedsConfiguration = false
	if d := strings.TrimSpace(description); d != "" {
		c.Description = d
	}

	s.saveConnection(c)
	out := c.clone()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventConnectionUpdated, Time: s.now(), Connection: out})
	return out.clone(), nil
}

// DeleteConnection removes one door. Returns false when no such door exists.
func (s *Store) DeleteConnection(id string) (bool, error) {
	s.mu.Lock()

	c, ok := s.connections[id]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.connections, id)
	s.remove("connections", s.persist.Connections, id)
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventConnectionDeleted, Time: s.now(), Connection: c})
	return true, nil
}

// RoomConnections returns the doors placed in a room, configured or not.
func (s *Store) RoomConnections(roomId string) []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conns []*Connection
	for _, c := range s.connections {
		if c.RoomID == roomId {
			conns = append(conns, c.clone())
		}
	}
	sortConnections(conns)
	return conns
}

// RoomDoors returns every door placed in a room with the room it leads to.
// Room is nil for doors that lead nowhere yet.
func (s *Store) RoomDoors(roomId string) []ConnectedRoom {
	conns := s.RoomConnections(roomId)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ConnectedRoom, 0, len(conns))
	for _, c := range conns {
		d := ConnectedRoom{Connection: c}
		if r, ok := s.rooms[c.TargetRoomID]; ok && c.Navigable() {
			d.Room = r.clone()
		}
		out = append(out, d)
	}
	return out
}

// ConnectedRooms returns the rooms reachable from roomId: doors leading out
// of it, and bidirectional doors leading into it seen from the other side.
func (s *Store) ConnectedRooms(roomId string) []ConnectedRoom {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conns []*Connection
	for _, c := range s.connections {
		if !c.Navigable() {
			continue
		}
		switch {
		case c.RoomID == roomId:
			conns = append(conns, c.clone())
		case c.TargetRoomID == roomId && c.Bidirectional:
			rev := c.clone()
			rev.RoomID, rev.TargetRoomID = c.TargetRoomID, c.RoomID
			if r, ok := s.rooms[c.RoomID]; ok {
				rev.Description = "door to " + r.Name
			}
			conns = append(conns, rev)
		}
	}
	sortConnections(conns)

	out := make([]ConnectedRoom, 0, len(conns))
	for _, c := range conns {
		r, ok := s.rooms[c.TargetRoomID]
		if !ok {
			continue
		}
		out = append(out, ConnectedRoom{Connection: c, Room: r.clone()})
	}
	return out
}

func sortConnections(conns []*Connection) {
	slices.SortStableFunc(conns, func(a, b *Connection) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
