package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-palace/internal/palace"
)

// ListRoomsHandlerFactory creates handlers listing every room.
type ListRoomsHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *ListRoomsHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		rooms := f.store.AllRooms()

		names := make([]string, len(rooms))
		for i, r := range rooms {
			names[i] = quoted(r.Name)
		}

		return Result{
			Data:     rooms,
			Response: f.rsp.Render(RspRoomsListed, map[string]any{"Names": names}),
		}, nil
	}, nil
}

// ListObjectsHandlerFactory creates handlers listing the objects of the
// current room.
type ListObjectsHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *ListObjectsHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		room, err := f.store.CurrentRoom()
		if err != nil {
			return Result{}, err
		}

		objs := f.store.RoomObjects(room.ID)
		names := make([]string, len(objs))
		for i, o := range objs {
			names[i] = quoted(o.Name)
		}

		return Result{
			Data: objs,
			Response: f.rsp.Render(RspObjectsListed, map[string]any{
				"Room":  room,
				"Names": names,
			}),
		}, nil
	}, nil
}

// Description is the data behind a DESCRIBE response.
type Description struct {
	Room    *palace.Room           `json:"room"`
	Objects []*palace.MemoryObject `json:"objects"`
	Exits   []palace.ConnectedRoom `json:"exits"`
}

// DescribeHandlerFactory creates handlers describing the current room, what
// is in it, and where its doors lead.
type DescribeHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *DescribeHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		room, err := f.store.CurrentRoom()
		if err != nil {
			return Result{}, err
		}

		d := Description{
			Room:    room,
			Objects: f.store.RoomObjects(room.ID),
			Exits:   f.store.ConnectedRooms(room.ID),
		}

		objects := make([]string, len(d.Objects))
		for i, o := range d.Objects {
			objects[i] = quoted(o.Name)
		}
		exits := make([]string, len(d.Exits))
		for i, e := range d.Exits {
			exits[i] = fmt.Sprintf("%s (leads to %s)", quoted(e.Connection.Description), quoted(e.Room.Name))
		}

		return Result{
			Data: d,
			Response: f.rsp.Render(RspDescribed, map[string]any{
				"Room":    room,
				"Objects": objects,
				"Exits":   exits,
			}),
		}, nil
	}, nil
}
