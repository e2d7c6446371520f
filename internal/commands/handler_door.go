package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pixil98/go-palace/internal/palace"
	"github.com/pixil98/go-palace/internal/spatial"
)

// DefaultDoorPosition is where doors go when no position is given.
var DefaultDoorPosition = spatial.Vec3{X: 0, Y: 0, Z: -450}

// CreateDoorHandlerFactory creates handlers that add a door to the current
// room, creating the room it leads to when needed. A door the room already
// has that leads nowhere is connected instead of adding another.
type CreateDoorHandlerFactory struct {
	store  *palace.Store
	rsp    *Responses
	images *imager
}

func (f *CreateDoorHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		here, err := f.store.CurrentRoom()
		if err != nil {
			return Result{}, err
		}

		p := cmd.Parameters
		pending := pendingDoor(f.store, here.ID)
		if pending != nil && p.TargetID == "" && p.Name == "" && p.Description == "" {
			return Result{}, NewUserError(`This room already has a door that leads nowhere. Try "add a door to ..." to connect it.`)
		}

		target, err := f.target(ctx, p)
		if err != nil {
			return Result{}, err
		}

		if target != nil && pending != nil {
			conn, err := f.store.ConfigureConnection(pending.ID, target.ID, doorDescription(p))
			if err != nil {
				return Result{}, configureError(err)
			}
			return Result{
				Data: conn,
				Response: f.rsp.Render(RspDoorConfigured, map[string]any{
					"Connection": conn,
					"Target":     target,
				}),
			}, nil
		}

		pos := DefaultDoorPosition
		if p.Position != nil {
			pos = *p.Position
		}
		opts := palace.ConnectionOptions{Bidirectional: !p.OneWay}

		var targetId string
		if target != nil {
			targetId = target.ID
		} else {
			opts.NeedsConfiguration = true
		}
		conn, err := f.store.CreateConnection(here.ID, targetId, doorDescription(p), pos, opts)
		if err != nil {
			return Result{}, err
		}

		if target == nil {
			return Result{
				Data:     conn,
				Response: f.rsp.Render(RspDoorPending, map[string]any{"Connection": conn}),
			}, nil
		}

		return Result{
			Data: conn,
			Response: f.rsp.Render(RspDoorCreated, map[string]any{
				"Connection": conn,
				"Target":     target,
			}),
		}, nil
	}, nil
}

// target returns the room the door leads to: an existing room by id, or a new
// room built from the name and description. Nil means the door has no
// destination yet.
func (f *CreateDoorHandlerFactory) target(ctx context.Context, p Parameters) (*palace.Room, error) {
	if p.TargetID != "" {
		room, err := f.store.Room(p.TargetID)
		if err != nil {
			return nil, WrapUserError("The room that door should lead to does not exist.", err)
		}
		return room, nil
	}

	if p.Name == "" && p.Description == "" {
		return nil, nil
	}

	room, err := f.store.CreateRoom(p.Name, p.Description, palace.RoomOptions{KeepCurrent: true})
	if err != nil {
		return nil, err
	}
	room, _ = f.images.attach(ctx, room)
	return room, nil
}

// ConfigureDoorHandlerFactory creates handlers that point an existing door at
// an existing room. Without a door id the current room's unconnected door is
// used.
type ConfigureDoorHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *ConfigureDoorHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		p := cmd.Parameters

		var door *palace.Connection
		if p.ID != "" {
			c, err := f.store.Connection(p.ID)
			if err != nil {
				return Result{}, WrapUserError("That door does not exist.", err)
			}
			door = c
		} else if door = pendingDoor(f.store, f.store.CurrentRoomID()); door == nil {
			return Result{}, WrapUserError("Which door? Every door here already leads somewhere.", palace.ErrNotFound)
		}

		var target *palace.Room
		switch {
		case p.TargetID != "":
			room, err := f.store.Room(p.TargetID)
			if err != nil {
				return Result{}, WrapUserError("The room that door should lead to does not exist.", err)
			}
			target = room
		case p.RoomName != "":
			room, ok := f.store.FindRoomByName(p.RoomName)
			if !ok {
				return Result{}, WrapUserError(fmt.Sprintf("I couldn't find a room called %s.", quoted(p.RoomName)), palace.ErrNotFound)
			}
			target = room
		default:
			return Result{}, NewUserError("Which room should the door lead to?")
		}

		conn, err := f.store.ConfigureConnection(door.ID, target.ID, "door to "+target.Name)
		if err != nil {
			return Result{}, configureError(err)
		}

		return Result{
			Data: conn,
			Response: f.rsp.Render(RspDoorConfigured, map[string]any{
				"Connection": conn,
				"Target":     target,
			}),
		}, nil
	}, nil
}

// DeleteDoorHandlerFactory creates handlers that remove a door, by id or by
// matching the doors of the current room.
type DeleteDoorHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *DeleteDoorHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		door, err := f.resolve(cmd.Parameters)
		if err != nil {
			return Result{}, err
		}

		ok, err := f.store.DeleteConnection(door.ID)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, WrapUserError("That door does not exist.", palace.ErrNotFound)
		}

		return Result{
			Data:     door,
			Response: f.rsp.Render(RspDoorDeleted, map[string]any{"Connection": door}),
		}, nil
	}, nil
}

// resolve finds the door by id, then by its description or destination. With
// neither it picks the door that leads nowhere, or the only door.
func (f *DeleteDoorHandlerFactory) resolve(p Parameters) (*palace.Connection, error) {
	if p.ID != "" {
		c, err := f.store.Connection(p.ID)
		if err != nil {
			return nil, WrapUserError("That door does not exist.", err)
		}
		return c, nil
	}

	doors := f.store.RoomDoors(f.store.CurrentRoomID())
	if len(doors) == 0 {
		return nil, WrapUserError("There is no door here.", palace.ErrNotFound)
	}

	if p.Name != "" {
		q := strings.ToLower(p.Name)
		for _, d := range doors {
			if strings.Contains(strings.ToLower(d.Connection.Description), q) {
				return d.Connection, nil
			}
			if d.Room != nil && strings.Contains(strings.ToLower(d.Room.Name), q) {
				return d.Connection, nil
			}
		}
		return nil, WrapUserError(fmt.Sprintf("I couldn't find a door called %s.", quoted(p.Name)), palace.ErrNotFound)
	}

	for _, d := range doors {
		if !d.Connection.Navigable() {
			return d.Connection, nil
		}
	}
	if len(doors) == 1 {
		return doors[0].Connection, nil
	}
	return nil, NewUserError(`Which door? Try "remove the door to ..."`)
}

// pendingDoor returns the first door in a room that leads nowhere yet.
func pendingDoor(store *palace.Store, roomId string) *palace.Connection {
	for _, c := range store.RoomConnections(roomId) {
		if !c.Navigable() {
			return c
		}
	}
	return nil
}

func configureError(err error) error {
	if errors.Is(err, palace.ErrInvalidConnection) {
		return WrapUserError("A door cannot lead to the room it is in.", err)
	}
	return err
}

func doorDescription(p Parameters) string {
	switch {
	case p.Description != "":
		return "door to " + p.Description
	case p.Name != "":
		return "door to " + p.Name
	}
	return "door"
}
