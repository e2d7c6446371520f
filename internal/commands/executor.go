package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pixil98/go-palace/internal/palace"
	"github.com/pixil98/go-palace/internal/spatial"
)

// CommandFunc executes one kind of command. A returned error is turned into a
// failed Result by the executor.
type CommandFunc func(ctx context.Context, cmd Command) (Result, error)

// HandlerFactory creates the CommandFunc for an action.
type HandlerFactory interface {
	Create() (CommandFunc, error)
}

// Executor applies commands to the palace.
type Executor struct {
	store    *palace.Store
	mapper   *spatial.Mapper
	rsp      *Responses
	images   *imager

	mu       sync.RWMutex
	handlers map[Action]CommandFunc
}

func NewExecutor(store *palace.Store, mapper *spatial.Mapper, rsp *Responses, opts ...ExecutorOpt) (*Executor, error) {
	e := &Executor{
		store:    store,
		mapper:   mapper,
		rsp:      rsp,
		images:   newImager(store),
		handlers: make(map[Action]CommandFunc),
	}

	for _, opt := range opts {
		opt(e)
	}

	builtins := map[Action]HandlerFactory{
		ActionCreateRoom:    &CreateRoomHandlerFactory{store: store, rsp: rsp, images: e.images},
		ActionDeleteRoom:    &DeleteRoomHandlerFactory{store: store, rsp: rsp},
		ActionAddObject:     &AddObjectHandlerFactory{store: store, mapper: mapper, rsp: rsp},
		ActionDeleteObject:  &DeleteObjectHandlerFactory{store: store, rsp: rsp},
		ActionSelectObject:  &SelectObjectHandlerFactory{store: store, rsp: rsp},
		ActionCreateDoor:    &CreateDoorHandlerFactory{store: store, rsp: rsp, images: e.images},
		ActionConfigureDoor: &ConfigureDoorHandlerFactory{store: store, rsp: rsp},
		ActionDeleteDoor:    &DeleteDoorHandlerFactory{store: store, rsp: rsp},
		ActionNavigate:      &NavigateHandlerFactory{store: store, rsp: rsp},
		ActionListRooms:     &ListRoomsHandlerFactory{store: store, rsp: rsp},
		ActionListObjects:   &ListObjectsHandlerFactory{store: store, rsp: rsp},
		ActionDescribe:      &DescribeHandlerFactory{store: store, rsp: rsp},
		ActionChat:          &ChatHandlerFactory{rsp: rsp},
	}
	for action, f := range builtins {
		if err := e.RegisterFactory(action, f); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// RegisterFactory compiles and registers the handler for an action. It is
// safe to call while commands are executing.
func (e *Executor) RegisterFactory(action Action, factory HandlerFactory) error {
	if action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("handler factory cannot be nil")
	}

	fn, err := factory.Create()
	if err != nil {
		return fmt.Errorf("creating handler for %q: %w", action, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.handlers[action]; exists {
		return fmt.Errorf("handler for %q already registered", action)
	}
	e.handlers[action] = fn
	return nil
}

// Execute runs cmd. It never fails: errors come back as an unsuccessful
// Result with a friendly response.
func (e *Executor) Execute(ctx context.Context, cmd Command) (res Result) {
	e.mu.RLock()
	fn, ok := e.handlers[cmd.Action]
	e.mu.RUnlock()
	if !ok {
		return e.Failure(NewUserError(fmt.Sprintf("I don't know how to %s.", strings.ToLower(strings.ReplaceAll(string(cmd.Action), "_", " ")))))
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "command handler panicked", "action", cmd.Action, "panic", r)
			res = e.Failure(fmt.Errorf("handler for %s panicked", cmd.Action))
		}
	}()

	res, err := fn(ctx, cmd)
	if err != nil {
		var ue *UserError
		if !errors.As(err, &ue) {
			slog.WarnContext(ctx, "command failed", "action", cmd.Action, "error", err)
		}
		return e.Failure(err)
	}

	res.Success = true
	return res
}

// Failure converts err into an unsuccessful Result.
func (e *Executor) Failure(err error) Result {
	res := Result{Error: err.Error()}

	var ue *UserError
	switch {
	case errors.Is(err, palace.ErrNoCurrentRoom):
		res.Response = e.rsp.Render(RspNoCurrentRoom, nil)
	case errors.As(err, &ue):
		res.Response = ue.Message
	default:
		res.Response = e.rsp.Render(RspFailed, map[string]any{"Error": err.Error()})
	}

	return res
}

// GenerateRoomImage generates and stores the image of a room, waiting for the
// provider whatever the configured image mode.
func (e *Executor) GenerateRoomImage(ctx context.Context, roomId string) (*palace.Room, error) {
	room, err := e.store.Room(roomId)
	if err != nil {
		return nil, err
	}
	return e.images.generate(ctx, room)
}

// Wait blocks until background image generations have finished.
func (e *Executor) Wait() {
	e.images.wg.Wait()
}

// Store returns the palace the executor operates on.
func (e *Executor) Store() *palace.Store {
	return e.store
}

// Mapper returns the spatial mapper used for placement checks.
func (e *Executor) Mapper() *spatial.Mapper {
	return e.mapper
}

func quoted(s string) string {
	return `"` + s + `"`
}
