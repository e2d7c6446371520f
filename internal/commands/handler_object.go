package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-palace/internal/palace"
	"github.com/pixil98/go-palace/internal/spatial"
)

// AddObjectHandlerFactory creates handlers that place a memory object in the
// current room.
type AddObjectHandlerFactory struct {
	store  *palace.Store
	mapper *spatial.Mapper
	rsp    *Responses
}

func (f *AddObjectHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		room, err := f.store.CurrentRoom()
		if err != nil {
			return Result{}, err
		}

		p := cmd.Parameters

		// Placement problems are reported but do not block the add.
		var issues []string
		if p.Position != nil {
			var neighbours []spatial.Vec3
			for _, o := range f.store.RoomObjects(room.ID) {
				neighbours = append(neighbours, o.Position)
			}
			issues = f.mapper.Validate(*p.Position, neighbours).Issues
		}

		obj, err := f.store.AddObject(p.Name, p.Information, p.Position)
		if err != nil {
			return Result{}, err
		}

		return Result{
			Data: obj,
			Response: f.rsp.Render(RspObjectAdded, map[string]any{
				"Object": obj,
				"Room":   room,
				"Issues": issues,
			}),
		}, nil
	}, nil
}

// DeleteObjectHandlerFactory creates handlers that delete an object by id or
// by name within the current room.
type DeleteObjectHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *DeleteObjectHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		obj, err := resolveObject(f.store, cmd.Parameters)
		if err != nil {
			return Result{}, err
		}

		if _, err := f.store.DeleteObject(obj.ID); err != nil {
			return Result{}, err
		}

		return Result{
			Data:     obj,
			Response: f.rsp.Render(RspObjectDeleted, map[string]any{"Object": obj}),
		}, nil
	}, nil
}

// SelectObjectHandlerFactory creates handlers that show one object.
type SelectObjectHandlerFactory struct {
	store *palace.Store
	rsp   *Responses
}

func (f *SelectObjectHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		obj, err := resolveObject(f.store, cmd.Parameters)
		if err != nil {
			return Result{}, err
		}

		return Result{
			Data:     obj,
			Response: f.rsp.Render(RspObjectSelected, map[string]any{"Object": obj}),
		}, nil
	}, nil
}

// resolveObject finds an object by id, else by name among the objects of the
// current room.
func resolveObject(store *palace.Store, p Parameters) (*palace.MemoryObject, error) {
	if p.ID != "" {
		obj, err := store.Object(p.ID)
		if err != nil {
			return nil, WrapUserError("That object does not exist.", err)
		}
		return obj, nil
	}

	room, err := store.CurrentRoom()
	if err != nil {
		return nil, err
	}

	if p.Name == "" {
		return nil, NewUserError("Which object do you mean?")
	}

	matches := store.FindObjectsByName(p.Name, room.ID)
	if len(matches) == 0 {
		return nil, WrapUserError(fmt.Sprintf("I couldn't find %s in %s.", quoted(p.Name), quoted(room.Name)), palace.ErrNotFound)
	}
	return matches[0], nil
}
