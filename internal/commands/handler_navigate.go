package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixil98/go-palace/internal/palace"
)

// NavigateHandlerFactory creates handlers that move the user to another room.
type NavigateHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *NavigateHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		target, err := f.resolve(cmd.Parameters)
		if err != nil {
			return Result{}, err
		}

		room, err := f.store.NavigateToRoom(target.ID)
		if err != nil {
			return Result{}, err
		}

		return Result{
			Data:     room,
			Response: f.rsp.Render(RspNavigated, map[string]any{"Room": room}),
		}, nil
	}, nil
}

// resolve tries, in order: the room id, a room name, the description of a
// door out of the current room, and with no name at all the first door out.
func (f *NavigateHandlerFactory) resolve(p Parameters) (*palace.Room, error) {
	if p.ID != "" {
		room, err := f.store.Room(p.ID)
		if err != nil {
			return nil, WrapUserError("That room does not exist.", err)
		}
		return room, nil
	}

	if p.RoomName != "" {
		if room, ok := f.store.FindRoomByName(p.RoomName); ok {
			return room, nil
		}
	}

	exits := f.store.ConnectedRooms(f.store.CurrentRoomID())

	if p.RoomName != "" {
		q := strings.ToLower(p.RoomName)
		for _, exit := range exits {
			if strings.Contains(strings.ToLower(exit.Connection.Description), q) {
				return exit.Room, nil
			}
		}
		return nil, WrapUserError(fmt.Sprintf("I couldn't find a room called %s.", quoted(p.RoomName)), palace.ErrNotFound)
	}

	if len(exits) > 0 {
		return exits[0].Room, nil
	}
	return nil, WrapUserError("Where to? There is no door leading out of here.", palace.ErrNotFound)
}
