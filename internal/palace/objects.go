package palace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pixil98/go-palace/internal/spatial"
)

// ObjectUpdate holds the fields EditObject changes. Nil fields are left alone.
type ObjectUpdate struct {
	Name        *string
	Information *string
	Position    *spatial.Vec3
}

// AddObject places a memory object in the current room. A nil pos puts it on
// the default spiral.
func (s *Store) AddObject(name, information string, pos *spatial.Vec3) (*MemoryObject, error) {
	if pos != nil {
		if err := pos.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()

	roomId := s.user.CurrentRoomID
	if _, ok := s.rooms[roomId]; !ok {
		s.mu.Unlock()
		return nil, ErrNoCurrentRoom
	}

	s.user.ObjectCounter++
	now := s.now()
	o := &MemoryObject{
		ID:            s.newId(),
		RoomID:        roomId,
		Name:          strings.TrimSpace(name),
		Information:   strings.TrimSpace(information),
		ObjectCounter: s.user.ObjectCounter,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if o.Name == "" {
		o.Name = fmt.Sprintf("Object %d", o.ObjectCounter)
	}
	if pos != nil {
		o.Position = *pos
	} else {
		o.Position = spatial.SpiralPosition(s.countObjects(roomId))
	}

	s.objects[o.ID] = o
	s.saveObject(o)
	s.saveUser()
	out := o.clone()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventObjectCreated, Time: now, Object: out})
	return out.clone(), nil
}

// EditObject merges u into the object with the given id.
func (s *Store) EditObject(id string, u ObjectUpdate) (*MemoryObject, error) {
	if u.Position != nil {
		if err := u.Position.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()

	o, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return nil, notFound("object", id)
	}

	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		o.Name = strings.TrimSpace(*u.Name)
	}
	if u.Information != nil {
		o.Information = strings.TrimSpace(*u.Information)
	}
	if u.Position != nil {
		o.Position = *u.Position
	}
	o.UpdatedAt = s.now()

	s.saveObject(o)
	out := o.clone()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventObjectUpdated, Time: out.UpdatedAt, Object: out})
	return out.clone(), nil
}

// DeleteObject removes one object. Returns false when no such object exists.
func (s *Store) DeleteObject(id string) (bool, error) {
	s.mu.Lock()

	o, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.objects, id)
	s.remove("objects", s.persist.Objects, id)
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventObjectDeleted, Time: s.now(), Object: o})
	return true, nil
}

// Object returns the object with the given id.
func (s *Store) Object(id string) (*MemoryObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[id]
	if !ok {
		return nil, notFound("object", id)
	}
	return o.clone(), nil
}

// RoomObjects returns the objects of a room in the order they were added.
func (s *Store) RoomObjects(roomId string) []*MemoryObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var objs []*MemoryObject
	for _, o := range s.objects {
		if o.RoomID == roomId {
			objs = append(objs, o.clone())
		}
	}
	slices.SortFunc(objs, func(a, b *MemoryObject) int {
		return a.ObjectCounter - b.ObjectCounter
	})
	return objs
}

// FindObjectsByName returns the objects matching text, exact names first and
// the rest by name. An empty roomId searches every room.
func (s *Store) FindObjectsByName(text, roomId string) []*MemoryObject {
	var candidates []*MemoryObject
	if roomId != "" {
		candidates = s.RoomObjects(roomId)
	} else {
		candidates = s.allObjects()
	}
	return allMatches(candidates, text)
}

func (s *Store) allObjects() []*MemoryObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objs := make([]*MemoryObject, 0, len(s.objects))
	for _, o := range s.objects {
		objs = append(objs, o.clone())
	}
	slices.SortFunc(objs, func(a, b *MemoryObject) int {
		return a.ObjectCounter - b.ObjectCounter
	})
	return objs
}

func (s *Store) countObjects(roomId string) int {
	n := 0
	for _, o := range s.objects {
		if o.RoomID == roomId {
			n++
		}
	}
	return n
}
