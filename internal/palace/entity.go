package palace

import (
	"fmt"
	"slices"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-palace/internal/spatial"
)

// EntityKind tags the variants of Entity.
type EntityKind string

const (
	KindRoom   EntityKind = "room"
	KindObject EntityKind = "object"
	KindDoor   EntityKind = "door"
)

// Entity is the shared view of rooms, memory objects and doors. Each variant
// exposes its own body text through Body.
type Entity interface {
	Kind() EntityKind
	EntityID() string
	Label() string
	Body() string
}

// Room is a navigable node of the palace, rendered with a generated panorama.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"` // empty until an image is generated
	RoomCounter int       `json:"room_counter"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Room) Kind() EntityKind { return KindRoom }
func (r *Room) EntityID() string { return r.ID }
func (r *Room) Label() string    { return r.Name }
func (r *Room) Body() string     { return r.Description }

// Validate satisfies storage.ValidatingSpec.
func (r *Room) Validate() error {
	el := errors.NewErrorList()

	if r.ID == "" {
		el.Add(fmt.Errorf("room id is required"))
	}
	if r.Name == "" {
		el.Add(fmt.Errorf("room name is required"))
	}
	if r.RoomCounter < 1 {
		el.Add(fmt.Errorf("room counter must be positive"))
	}

	return el.Err()
}

func (r *Room) clone() *Room {
	c := *r
	return &c
}

// MemoryObject is a named note placed at a point inside a room.
type MemoryObject struct {
	ID            string       `json:"id"`
	RoomID        string       `json:"room_id"`
	Name          string       `json:"name"`
	Information   string       `json:"information"`
	Position      spatial.Vec3 `json:"position"`
	ObjectCounter int          `json:"object_counter"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (o *MemoryObject) Kind() EntityKind       { return KindObject }
func (o *MemoryObject) EntityID() string       { return o.ID }
func (o *MemoryObject) Label() string          { return o.Name }
func (o *MemoryObject) Body() string           { return o.Information }
func (o *MemoryObject) Location() spatial.Vec3 { return o.Position }

// Validate satisfies storage.ValidatingSpec.
func (o *MemoryObject) Validate() error {
	el := errors.NewErrorList()

	if o.ID == "" {
		el.Add(fmt.Errorf("object id is required"))
	}
	if o.RoomID == "" {
		el.Add(fmt.Errorf("object room_id is required"))
	}
	if o.Name == "" {
		el.Add(fmt.Errorf("object name is required"))
	}
	el.Add(o.Position.Validate())

	return el.Err()
}

func (o *MemoryObject) clone() *MemoryObject {
	c := *o
	return &c
}

// Connection is a door from one room to another.
type Connection struct {
	ID                 string       `json:"id"`
	RoomID             string       `json:"room_id"`
	TargetRoomID       string       `json:"target_room_id,omitempty"`
	Description        string       `json:"description"`
	Bidirectional      bool         `json:"bidirectional"`
	Position           spatial.Vec3 `json:"position"`
	NeedsConfiguration bool         `json:"needs_configuration,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
}

func (c *Connection) Kind() EntityKind       { return KindDoor }
func (c *Connection) EntityID() string       { return c.ID }
func (c *Connection) Label() string          { return c.Description }
func (c *Connection) Body() string           { return c.Description }
func (c *Connection) Location() spatial.Vec3 { return c.Position }

// Navigable reports whether the door leads anywhere yet.
func (c *Connection) Navigable() bool {
	return !c.NeedsConfiguration && c.TargetRoomID != ""
}

// Validate satisfies storage.ValidatingSpec.
func (c *Connection) Validate() error {
	el := errors.NewErrorList()

	if c.ID == "" {
		el.Add(fmt.Errorf("connection id is required"))
	}
	if c.RoomID == "" {
		el.Add(fmt.Errorf("connection room_id is required"))
	}
	if c.TargetRoomID == "" && !c.NeedsConfiguration {
		el.Add(fmt.Errorf("connection target_room_id is required once configured"))
	}
	el.Add(c.Position.Validate())

	return el.Err()
}

func (c *Connection) clone() *Connection {
	d := *c
	return &d
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryEntry is one line of the conversation window.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserState is the single user's position in the palace and their recent
// conversation.
type UserState struct {
	ID                  string         `json:"id"`
	CurrentRoomID       string         `json:"current_room_id,omitempty"`
	RoomCounter         int            `json:"room_counter"`
	ObjectCounter       int            `json:"object_counter"`
	Settings            Settings       `json:"settings,omitempty"`
	ConversationHistory []HistoryEntry `json:"conversation_history,omitempty"`
}

// Validate satisfies storage.ValidatingSpec.
func (u *UserState) Validate() error {
	el := errors.NewErrorList()

	if u.ID == "" {
		el.Add(fmt.Errorf("user id is required"))
	}
	if u.RoomCounter < 0 || u.ObjectCounter < 0 {
		el.Add(fmt.Errorf("counters must not be negative"))
	}
	for i, h := range u.ConversationHistory {
		if h.Role != RoleUser && h.Role != RoleAssistant {
			el.Add(fmt.Errorf("history entry %d: unknown role %q", i, h.Role))
		}
	}

	return el.Err()
}

func (u *UserState) clone() *UserState {
	c := *u
	c.Settings = u.Settings.clone()
	c.ConversationHistory = slices.Clone(u.ConversationHistory)
	return &c
}
