package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-palace/internal/palace"
)

// CreateRoomHandlerFactory creates handlers that add a room and move the user
// into it.
type CreateRoomHandlerFactory struct {
	store  *palace.Store
	rsp    *Responses
	images *imager
}

func (f *CreateRoomHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		p := cmd.Parameters
		room, err := f.store.CreateRoom(p.Name, p.Description, palace.RoomOptions{})
		if err != nil {
			return Result{}, err
		}

		room, pending := f.images.attach(ctx, room)

		return Result{
			Data: room,
			Response: f.rsp.Render(RspRoomCreated, map[string]any{
				"Room":         room,
				"ImagePending": pending,
			}),
		}, nil
	}, nil
}

// DeleteRoomHandlerFactory creates handlers that delete a room by id or name.
type DeleteRoomHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *DeleteRoomHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		room, err := f.resolve(cmd.Parameters)
		if err != nil {
			return Result{}, err
		}

		if _, err := f.store.DeleteRoom(room.ID); err != nil {
			return Result{}, err
		}

		data := map[string]any{"Room": room}
		if current, err := f.store.CurrentRoom(); err == nil {
			data["Current"] = current
		}

		return Result{
			Data:     room,
			Response: f.rsp.Render(RspRoomDeleted, data),
		}, nil
	}, nil
}

func (f *DeleteRoomHandlerFactory) resolve(p Parameters) (*palace.Room, error) {
	if p.ID != "" {
		room, err := f.store.Room(p.ID)
		if err != nil {
			return nil, WrapUserError("That room does not exist.", err)
		}
		return room, nil
	}

	if p.Name == "" {
		return nil, NewUserError("Which room should I delete?")
	}

	room, ok := f.store.FindRoomByName(p.Name)
	if !ok {
		return nil, WrapUserError(fmt.Sprintf("I couldn't find a room matching %s.", quoted(p.Name)), palace.ErrNotFound)
	}
	return room, nil
}
