package palace

import (
	"fmt"
	"strings"
)

// RoomOptions adjusts CreateRoom.
type RoomOptions struct {
	ImageURL string
	// KeepCurrent leaves the user in their current room.
	KeepCurrent bool
}

// RoomUpdate holds the fields EditRoom changes. Nil fields are left alone.
type RoomUpdate struct {
	Name        *string
	Description *string
	ImageURL    *string
}

// CreateRoom adds a room and, unless told otherwise, moves the user into it.
func (s *Store) CreateRoom(name, description string, opts RoomOptions) (*Room, error) {
	s.mu.Lock()

	s.user.RoomCounter++
	now := s.now()
	r := &Room{
		ID:          s.newId(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		ImageURL:    opts.ImageURL,
		RoomCounter: s.user.RoomCounter,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.Name == "" {
		r.Name = fmt.Sprintf("Room %d", r.RoomCounter)
	}

	s.rooms[r.ID] = r
	if !opts.KeepCurrent {
		s.user.CurrentRoomID = r.ID
	}

	s.saveRoom(r)
	s.saveUser()
	out := r.clone()
	current := s.user.CurrentRoomID
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventRoomCreated, Time: now, Room: out, CurrentRoomID: current})
	return out.clone(), nil
}

// EditRoom merges u into the room with the given id.
func (s *Store) EditRoom(id string, u RoomUpdate) (*Room, error) {
	s.mu.Lock()

	r, ok := s.rooms[id]
	if !ok {
		s.mu.Unlock()
		return nil, notFound("room", id)
	}

	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		r.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		r.Description = strings.TrimSpace(*u.Description)
	}
	if u.ImageURL != nil {
		r.ImageURL = *u.ImageURL
	}
	r.UpdatedAt = s.now()

	s.saveRoom(r)
	out := r.clone()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventRoomUpdated, Time: out.UpdatedAt, Room: out})
	return out.clone(), nil
}

// DeleteRoom removes a room with its objects and every door touching it.
// Returns false when no such room exists.
func (s *Store) DeleteRoom(id string) (bool, error) {
	s.mu.Lock()

	r, ok := s.rooms[id]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}

	delete(s.rooms, id)
	s.remove("rooms", s.persist.Rooms, id)

	for oid, o := range s.objects {
		if o.RoomID == id {
			delete(s.objects, oid)
			s.remove("objects", s.persist.Objects, oid)
		}
	}
	for cid, c := range s.connections {
		if c.RoomID == id || c.TargetRoomID == id {
			delete(s.connections, cid)
			s.remove("connections", s.persist.Connections, cid)
		}
	}

	previous := s.user.CurrentRoomID
	if previous == id {
		s.user.CurrentRoomID = ""
		if rooms := s.sortedRooms(); len(rooms) > 0 {
			s.user.CurrentRoomID = rooms[0].ID
		}
	}
	current := s.user.CurrentRoomID
	s.saveUser()
	s.mu.Unlock()

	s.bus.Publish(Event{
		Type:           EventRoomDeleted,
		Time:           s.now(),
		Room:           r,
		PreviousRoomID: previous,
		CurrentRoomID:  current,
	})
	return true, nil
}

// NavigateToRoom makes the given room current. An empty id leaves the user in
// no room and returns nil.
func (s *Store) NavigateToRoom(id string) (*Room, error) {
	s.mu.Lock()

	var r *Room
	if id != "" {
		var ok bool
		r, ok = s.rooms[id]
		if !ok {
			s.mu.Unlock()
			return nil, notFound("room", id)
		}
		r = r.clone()
	}

	previous := s.user.CurrentRoomID
	s.user.CurrentRoomID = id
	s.saveUser()
	s.mu.Unlock()

	s.bus.Publish(Event{
		Type:           EventRoomChanged,
		Time:           s.now(),
		Room:           r,
		PreviousRoomID: previous,
		CurrentRoomID:  id,
	})

	if r == nil {
		return nil, nil
	}
	return r.clone(), nil
}

// AllRooms returns every room ordered by room counter.
func (s *Store) AllRooms() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := s.sortedRooms()
	for i, r := range rooms {
		rooms[i] = r.clone()
	}
	return rooms
}

// Room returns the room with the given id.
func (s *Store) Room(id string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, notFound("room", id)
	}
	return r.clone(), nil
}

// CurrentRoomID returns the id of the user's room, empty when there is none.
func (s *Store) CurrentRoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.CurrentRoomID
}

// CurrentRoom returns the user's room or ErrNoCurrentRoom.
func (s *Store) CurrentRoom() (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[s.user.CurrentRoomID]
	if !ok {
		return nil, ErrNoCurrentRoom
	}
	return r.clone(), nil
}

// FindRoomByName resolves free text to a room: exact name, then name
// substring, then description substring. Ties go to the lowest room counter.
func (s *Store) FindRoomByName(text string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := bestMatch(s.sortedRooms(), text)
	if r == nil {
		return nil, false
	}
	return r.clone(), true
}
