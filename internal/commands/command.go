package commands

import (
	"github.com/pixil98/go-palace/internal/spatial"
)

// Action names what a command does.
type Action string

const (
	ActionCreateRoom    Action = "CREATE_ROOM"
	ActionAddObject     Action = "ADD_OBJECT"
	ActionNavigate      Action = "NAVIGATE"
	ActionCreateDoor    Action = "CREATE_DOOR"
	ActionConfigureDoor Action = "CONFIGURE_DOOR"
	ActionDeleteDoor    Action = "DELETE_DOOR"
	ActionListRooms     Action = "LIST_ROOMS"
	ActionListObjects   Action = "LIST_OBJECTS"
	ActionDescribe      Action = "DESCRIBE"
	ActionDeleteRoom    Action = "DELETE_ROOM"
	ActionDeleteObject  Action = "DELETE_OBJECT"
	ActionSelectObject  Action = "SELECT_OBJECT"
	ActionChat          Action = "CHAT"
)

// Command is a classified user request.
type Command struct {
	Action     Action     `json:"action"`
	Parameters Parameters `json:"parameters"`
	Confidence float64    `json:"confidence"`
	// Fallback is set when no rule matched and the input became a chat.
	Fallback bool `json:"fallback,omitempty"`
}

// Parameters carries what the parser extracted. Which fields are set depends
// on the action.
type Parameters struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name,omitempty"`
	Description string        `json:"description,omitempty"`
	Information string        `json:"information,omitempty"`
	RoomName    string        `json:"room_name,omitempty"`
	TargetID    string        `json:"target_id,omitempty"`
	Position    *spatial.Vec3 `json:"position,omitempty"`
	OneWay      bool          `json:"one_way,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// Result is the uniform outcome of executing a command.
type Result struct {
	Success  bool   `json:"success"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	Response string `json:"response"`
}
