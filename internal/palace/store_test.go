package palace

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-palace/internal/spatial"
	"github.com/pixil98/go-palace/internal/storage"
	"github.com/pixil98/go-testutil"
)

func fileCollections(t *testing.T, dir string) Collections {
	t.Helper()

	rooms, err := storage.NewFileStore[*Room](filepath.Join(dir, "rooms"))
	if err != nil {
		t.Fatalf("rooms store: %v", err)
	}
	objects, err := storage.NewFileStore[*MemoryObject](filepath.Join(dir, "objects"))
	if err != nil {
		t.Fatalf("objects store: %v", err)
	}
	conns, err := storage.NewFileStore[*Connection](filepath.Join(dir, "connections"))
	if err != nil {
		t.Fatalf("connections store: %v", err)
	}
	users, err := storage.NewFileStore[*UserState](filepath.Join(dir, "users"))
	if err != nil {
		t.Fatalf("users store: %v", err)
	}

	return Collections{Rooms: rooms, Objects: objects, Connections: conns, Users: users}
}

// fakeClock ticks one second per call so timestamps are strictly ordered.
func fakeClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func sequentialIds() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, opts ...StoreOpt) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	opts = append([]StoreOpt{WithClock(fakeClock()), WithIdGenerator(sequentialIds())}, opts...)
	s, err := NewStore(fileCollections(t, dir), NewBus(), opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s, dir
}

func mustRoom(t *testing.T, s *Store, name, desc string) *Room {
	t.Helper()
	r, err := s.CreateRoom(name, desc, RoomOptions{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return r
}

func TestStore_CreateRoom(t *testing.T) {
	s, _ := newTestStore(t)

	r := mustRoom(t, s, "", "a cozy fireplace")

	testutil.AssertEqual(t, "name", r.Name, "Room 1")
	testutil.AssertEqual(t, "counter", r.RoomCounter, 1)
	testutil.AssertEqual(t, "current", s.CurrentRoomID(), r.ID)

	kept, err := s.CreateRoom("Library", "", RoomOptions{KeepCurrent: true, ImageURL: "http://img"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "kept counter", kept.RoomCounter, 2)
	testutil.AssertEqual(t, "image", kept.ImageURL, "http://img")
	testutil.AssertEqual(t, "current unchanged", s.CurrentRoomID(), r.ID)
}

func TestStore_AllRoomsOrdering(t *testing.T) {
	s, _ := newTestStore(t)

	names := []string{"Zeta", "Alpha", "Mid", "Beta", "Omega"}
	for _, n := range names {
		mustRoom(t, s, n, "")
	}

	rooms := s.AllRooms()
	testutil.AssertEqual(t, "count", len(rooms), len(names))
	for i, r := range rooms {
		testutil.AssertEqual(t, fmt.Sprintf("room %d name", i), r.Name, names[i])
		testutil.AssertEqual(t, fmt.Sprintf("room %d counter", i), r.RoomCounter, i+1)
	}
}

func TestStore_EditRoom(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRoom(t, s, "Hall", "long")

	name := "Great Hall"
	img := "http://img/1"
	got, err := s.EditRoom(r.ID, RoomUpdate{Name: &name, ImageURL: &img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "name", got.Name, "Great Hall")
	testutil.AssertEqual(t, "description", got.Description, "long")
	testutil.AssertEqual(t, "image", got.ImageURL, "http://img/1")
	testutil.AssertEqual(t, "updated", got.UpdatedAt.After(r.UpdatedAt), true)

	_, err = s.EditRoom("missing", RoomUpdate{Name: &name})
	testutil.AssertEqual(t, "not found", errors.Is(err, ErrNotFound), true)
}

func TestStore_DeleteRoomCascade(t *testing.T) {
	s, _ := newTestStore(t)

	a := mustRoom(t, s, "A", "")
	b := mustRoom(t, s, "B", "")
	c := mustRoom(t, s, "C", "")

	if _, err := s.NavigateToRoom(b.ID); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	for i := range 3 {
		if _, err := s.AddObject(fmt.Sprintf("obj %d", i), "", nil); err != nil {
			t.Fatalf("add object: %v", err)
		}
	}
	for _, pair := range [][2]string{{a.ID, b.ID}, {b.ID, c.ID}, {c.ID, a.ID}} {
		if _, err := s.CreateConnection(pair[0], pair[1], "door", spatial.Vec3{Z: -450}, ConnectionOptions{}); err != nil {
			t.Fatalf("create connection: %v", err)
		}
	}

	ok, err := s.DeleteRoom(b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "deleted", ok, true)

	testutil.AssertEqual(t, "objects left", len(s.RoomObjects(b.ID)), 0)
	testutil.AssertEqual(t, "all objects", len(s.allObjects()), 0)
	for id, conn := range s.connections {
		if conn.RoomID == b.ID || conn.TargetRoomID == b.ID {
			t.Errorf("connection %s still references deleted room", id)
		}
	}
	testutil.AssertEqual(t, "connections left", len(s.connections), 1)
	testutil.AssertEqual(t, "current moved to first room", s.CurrentRoomID(), a.ID)

	ok, err = s.DeleteRoom(b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "second delete", ok, false)
}

func TestStore_DeleteLastRoom(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRoom(t, s, "Only", "")

	if _, err := s.DeleteRoom(r.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "current", s.CurrentRoomID(), "")
	_, err := s.CurrentRoom()
	testutil.AssertEqual(t, "no current room", errors.Is(err, ErrNoCurrentRoom), true)
}

func TestStore_NavigateToRoom(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustRoom(t, s, "A", "")
	b := mustRoom(t, s, "B", "")

	var events []Event
	s.Bus().Subscribe(func(e Event) error {
		events = append(events, e)
		return nil
	})

	got, err := s.NavigateToRoom(a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "room", got.ID, a.ID)
	testutil.AssertEqual(t, "events", len(events), 1)
	testutil.AssertEqual(t, "type", events[0].Type, EventRoomChanged)
	testutil.AssertEqual(t, "previous", events[0].PreviousRoomID, b.ID)
	testutil.AssertEqual(t, "current", events[0].CurrentRoomID, a.ID)

	_, err = s.NavigateToRoom("nope")
	testutil.AssertEqual(t, "unknown", errors.Is(err, ErrNotFound), true)
	testutil.AssertEqual(t, "still in a", s.CurrentRoomID(), a.ID)

	got, err = s.NavigateToRoom("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "nil room", got == nil, true)
	testutil.AssertEqual(t, "no room", s.CurrentRoomID(), "")
}

func TestStore_AddObjectSpiral(t *testing.T) {
	s, _ := newTestStore(t)
	mustRoom(t, s, "Spiral", "")

	for n := range 7 {
		o, err := s.AddObject(fmt.Sprintf("o%d", n), "", nil)
		if err != nil {
			t.Fatalf("add object: %v", err)
		}

		theta := float64(n) * math.Pi / 3
		exp := spatial.Vec3{
			X: 400 * math.Cos(theta),
			Y: math.Sin(0.3*float64(n)) * 50,
			Z: 400 * math.Sin(theta),
		}
		if o.Position.DistanceTo(exp) > 1e-9 {
			t.Errorf("object %d at %v, expected %v", n, o.Position, exp)
		}
	}
}

func TestStore_AddObject(t *testing.T) {
	tests := map[string]struct {
		withRoom bool
		pos      *spatial.Vec3
		expErr   error
		expPos   spatial.Vec3
	}{
		"no current room": {
			expErr: ErrNoCurrentRoom,
		},
		"explicit position": {
			withRoom: true,
			pos:      &spatial.Vec3{X: 10, Y: 20, Z: 30},
			expPos:   spatial.Vec3{X: 10, Y: 20, Z: 30},
		},
		"default position": {
			withRoom: true,
			expPos:   spatial.Vec3{X: 400},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestStore(t)
			if tt.withRoom {
				mustRoom(t, s, "Room", "")
			}

			o, err := s.AddObject("Keys", "on the hook", tt.pos)
			if tt.expErr != nil {
				testutil.AssertEqual(t, "error", errors.Is(err, tt.expErr), true)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "position", o.Position, tt.expPos)
			testutil.AssertEqual(t, "room", o.RoomID, s.CurrentRoomID())
			testutil.AssertEqual(t, "counter", o.ObjectCounter, 1)
		})
	}
}

func TestStore_EditAndDeleteObject(t *testing.T) {
	s, _ := newTestStore(t)
	mustRoom(t, s, "Room", "")
	o, err := s.AddObject("Lamp", "brass", nil)
	if err != nil {
		t.Fatalf("add object: %v", err)
	}

	info := "silver"
	got, err := s.EditObject(o.ID, ObjectUpdate{Information: &info})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "information", got.Information, "silver")
	testutil.AssertEqual(t, "name", got.Name, "Lamp")

	ok, err := s.DeleteObject(o.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "deleted", ok, true)

	_, err = s.Object(o.ID)
	testutil.AssertEqual(t, "gone", errors.Is(err, ErrNotFound), true)
}

func TestStore_Connections(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustRoom(t, s, "Hall", "")
	b := mustRoom(t, s, "Study", "")
	c := mustRoom(t, s, "Cellar", "")

	if _, err := s.CreateConnection(a.ID, b.ID, "oak door", spatial.Vec3{Z: -450}, ConnectionOptions{Bidirectional: true}); err != nil {
		t.Fatalf("create connection: %v", err)
	}
	if _, err := s.CreateConnection(c.ID, a.ID, "trapdoor", spatial.Vec3{Z: -450}, ConnectionOptions{}); err != nil {
		t.Fatalf("create connection: %v", err)
	}
	pending, err := s.CreateConnection(a.ID, "", "mystery door", spatial.Vec3{Z: -450}, ConnectionOptions{NeedsConfiguration: true})
	if err != nil {
		t.Fatalf("create unconfigured connection: %v", err)
	}

	fromHall := s.ConnectedRooms(a.ID)
	testutil.AssertEqual(t, "hall exits", len(fromHall), 1)
	testutil.AssertEqual(t, "hall leads to", fromHall[0].Room.ID, b.ID)

	fromStudy := s.ConnectedRooms(b.ID)
	testutil.AssertEqual(t, "study exits", len(fromStudy), 1)
	testutil.AssertEqual(t, "study leads back", fromStudy[0].Room.ID, a.ID)
	testutil.AssertEqual(t, "study sees its own side", fromStudy[0].Connection.Description, "door to Hall")
	testutil.AssertEqual(t, "forward keeps description", fromHall[0].Connection.Description, "oak door")

	testutil.AssertEqual(t, "hall doors", len(s.RoomConnections(a.ID)), 2)

	doors := s.RoomDoors(a.ID)
	testutil.AssertEqual(t, "hall doors listed", len(doors), 2)
	testutil.AssertEqual(t, "first door leads", doors[0].Room.ID, b.ID)
	testutil.AssertEqual(t, "pending door leads nowhere", doors[1].Room == nil, true)

	got, err := s.Connection(pending.ID)
	if err != nil {
		t.Fatalf("connection: %v", err)
	}
	testutil.AssertEqual(t, "pending", got.NeedsConfiguration, true)

	_, err = s.ConfigureConnection(pending.ID, a.ID, "")
	testutil.AssertEqual(t, "configure self loop", errors.Is(err, ErrInvalidConnection), true)

	configured, err := s.ConfigureConnection(pending.ID, c.ID, "door to Cellar")
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	testutil.AssertEqual(t, "configured description", configured.Description, "door to Cellar")
	testutil.AssertEqual(t, "configured navigable", configured.Navigable(), true)
	testutil.AssertEqual(t, "hall exits after configure", len(s.ConnectedRooms(a.ID)), 2)

	kept, err := s.ConfigureConnection(pending.ID, b.ID, "")
	if err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	testutil.AssertEqual(t, "empty description kept", kept.Description, "door to Cellar")

	_, err = s.CreateConnection(a.ID, "missing", "door", spatial.Vec3{}, ConnectionOptions{})
	testutil.AssertEqual(t, "missing target", errors.Is(err, ErrNotFound), true)

	_, err = s.CreateConnection(a.ID, a.ID, "door", spatial.Vec3{}, ConnectionOptions{})
	testutil.AssertEqual(t, "self loop", errors.Is(err, ErrInvalidConnection), true)

	ok, err := s.DeleteConnection(pending.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "deleted", ok, true)

	_, err = s.Connection(pending.ID)
	testutil.AssertEqual(t, "deleted door gone", errors.Is(err, ErrNotFound), true)
}

func TestStore_FindRoomByName(t *testing.T) {
	s, _ := newTestStore(t)
	mustRoom(t, s, "Kitchen Annex", "smells of bread")
	mustRoom(t, s, "Kitchen", "")
	mustRoom(t, s, "Attic", "dusty boxes")

	tests := map[string]struct {
		query   string
		expName string
		expOk   bool
	}{
		"exact beats substring": {query: "kitchen", expName: "Kitchen", expOk: true},
		"substring":             {query: "anne", expName: "Kitchen Annex", expOk: true},
		"description":           {query: "BOXES", expName: "Attic", expOk: true},
		"no match":              {query: "garage"},
		"blank":                 {query: "  "},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r, ok := s.FindRoomByName(tt.query)
			testutil.AssertEqual(t, "found", ok, tt.expOk)
			if ok {
				testutil.AssertEqual(t, "name", r.Name, tt.expName)
			}
		})
	}
}

func TestStore_FindObjectsByName(t *testing.T) {
	s, _ := newTestStore(t)
	room := mustRoom(t, s, "Room", "")
	for _, o := range [][2]string{
		{"keys", "spare"},
		{"Car keys", ""},
		{"Wallet", "holds house keys"},
		{"Lamp", ""},
	} {
		if _, err := s.AddObject(o[0], o[1], nil); err != nil {
			t.Fatalf("add object: %v", err)
		}
	}

	got := s.FindObjectsByName("Keys", room.ID)
	names := make([]string, len(got))
	for i, o := range got {
		names[i] = o.Name
	}
	testutil.AssertEqual(t, "names", strings.Join(names, ","), "keys,Car keys,Wallet")

	testutil.AssertEqual(t, "other room", len(s.FindObjectsByName("keys", "elsewhere")), 0)
	testutil.AssertEqual(t, "all rooms", len(s.FindObjectsByName("lamp", "")), 1)
}

func TestStore_History(t *testing.T) {
	s, _ := newTestStore(t, WithHistoryLimit(3))

	for i := range 5 {
		if err := s.AppendHistory(RoleUser, fmt.Sprintf("line %d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	h := s.History()
	testutil.AssertEqual(t, "length", len(h), 3)
	testutil.AssertEqual(t, "oldest kept", h[0].Content, "line 2")
	testutil.AssertEqual(t, "newest", h[2].Content, "line 4")

	err := s.AppendHistory("system", "nope")
	testutil.AssertErrorContains(t, err, "unknown history role")
}

func TestStore_PersistsAcrossReload(t *testing.T) {
	s, dir := newTestStore(t)
	a := mustRoom(t, s, "Hall", "marble")
	b := mustRoom(t, s, "Study", "")
	if _, err := s.AddObject("Globe", "spins", nil); err != nil {
		t.Fatalf("add object: %v", err)
	}
	if _, err := s.CreateConnection(a.ID, b.ID, "arch", spatial.Vec3{Z: -450}, ConnectionOptions{}); err != nil {
		t.Fatalf("create connection: %v", err)
	}
	if err := s.AppendHistory(RoleUser, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}

	reloaded, err := NewStore(fileCollections(t, dir), nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	testutil.AssertEqual(t, "rooms", len(reloaded.AllRooms()), 2)
	testutil.AssertEqual(t, "current", reloaded.CurrentRoomID(), b.ID)
	testutil.AssertEqual(t, "objects", len(reloaded.RoomObjects(b.ID)), 1)
	testutil.AssertEqual(t, "exits", len(reloaded.ConnectedRooms(a.ID)), 1)
	testutil.AssertEqual(t, "history", len(reloaded.History()), 1)

	r, err := reloaded.CreateRoom("", "", RoomOptions{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	testutil.AssertEqual(t, "counter continues", r.RoomCounter, 3)
}

func TestStore_BootstrapAndClear(t *testing.T) {
	s, _ := newTestStore(t)

	r, err := s.Bootstrap("Entrance Hall", "where it begins")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "created", r.Name, "Entrance Hall")

	r, err = s.Bootstrap("Again", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "skipped", r == nil, true)

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	testutil.AssertEqual(t, "rooms", len(s.AllRooms()), 0)
	testutil.AssertEqual(t, "current", s.CurrentRoomID(), "")
}

func TestStore_ReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRoom(t, s, "Hall", "")

	r.Name = "mutated"

	got, err := s.Room(r.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "name", got.Name, "Hall")
}
