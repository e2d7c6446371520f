package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pixil98/go-palace/internal/commands"
	"github.com/pixil98/go-palace/internal/palace"
	"github.com/pixil98/go-palace/internal/spatial"
)

// ErrBusy is reported when input arrives while another is being processed.
var ErrBusy = errors.New("busy")

// PendingSpatialPlacement marks a tap that is waiting for something to place.
const PendingSpatialPlacement = "spatial_placement"

// SettingAutopilot is the user setting that remembers whether the autopilot
// was left running.
const SettingAutopilot = "autopilot"

const (
	busyResponse    = "Still working on your last request, try again in a moment."
	placeResponse   = `What would you like to place here? Try "add an object called ...".`
	outsideResponse = "That tap is outside the view."
)

// PendingInteraction is a tap waiting for the next ADD_OBJECT.
type PendingInteraction struct {
	Type      string       `json:"type"`
	Position  spatial.Vec3 `json:"position"`
	CreatedAt time.Time    `json:"created_at"`
}

// Session is the single entry point for user input. It runs at most one
// command at a time.
type Session struct {
	exec   *commands.Executor
	store  *palace.Store
	mapper *spatial.Mapper
	now    func() time.Time

	busy atomic.Bool

	mu      sync.Mutex
	pending *PendingInteraction

	pilot *autopilot
}

func NewSession(exec *commands.Executor, opts ...SessionOpt) *Session {
	s := &Session{
		exec:   exec,
		store:  exec.Store(),
		mapper: exec.Mapper(),
		now:    time.Now,
	}
	s.pilot = newAutopilot(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ProcessInput parses text and executes it. Overlapping calls are rejected
// with ErrBusy, never queued.
func (s *Session) ProcessInput(ctx context.Context, text string) commands.Result {
	if !s.busy.CompareAndSwap(false, true) {
		return busyResult()
	}
	defer s.busy.Store(false)

	s.remember(ctx, palace.RoleUser, text)

	cmd := commands.Parse(text)
	if cmd.Action == commands.ActionAddObject && cmd.Parameters.Position == nil {
		if p, ok := s.takePending(); ok {
			cmd.Parameters.Position = &p.Position
		}
	}

	slog.DebugContext(ctx, "processing input", "action", cmd.Action, "confidence", cmd.Confidence)
	res := s.exec.Execute(ctx, cmd)

	s.remember(ctx, palace.RoleAssistant, res.Response)
	return res
}

// ProcessCommand executes an already structured command, such as a menu
// selection. It shares the busy flag with ProcessInput but is not recorded in
// the conversation.
func (s *Session) ProcessCommand(ctx context.Context, cmd commands.Command) commands.Result {
	if !s.busy.CompareAndSwap(false, true) {
		return busyResult()
	}
	defer s.busy.Store(false)

	return s.exec.Execute(ctx, cmd)
}

// ProcessSpatialInteraction handles a tap at normalized screen coordinates.
// A tap on an object selects it; a tap on empty space is remembered as the
// position of the next object added.
func (s *Session) ProcessSpatialInteraction(ctx context.Context, screenX, screenY float64) commands.Result {
	if !s.busy.CompareAndSwap(false, true) {
		return busyResult()
	}
	defer s.busy.Store(false)

	if !inView(screenX) || !inView(screenY) {
		return s.exec.Failure(commands.NewUserError(outsideResponse))
	}

	room, err := s.store.CurrentRoom()
	if err != nil {
		return s.exec.Failure(err)
	}

	pos := s.mapper.ScreenToWorld(screenX, screenY)
	hits := spatial.NearestWithin(pos, s.mapper.HitRadius(), s.store.RoomObjects(room.ID))
	if len(hits) > 0 {
		return s.exec.Execute(ctx, commands.Command{
			Action:     commands.ActionSelectObject,
			Parameters: commands.Parameters{ID: hits[0].Item.ID},
			Confidence: 1,
		})
	}

	p := PendingInteraction{
		Type:      PendingSpatialPlacement,
		Position:  pos,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.pending = &p
	s.mu.Unlock()

	slog.DebugContext(ctx, "recorded pending placement", "room", room.ID, "position", fmt.Sprint(pos))
	return commands.Result{
		Success:  true,
		Data:     p,
		Response: placeResponse,
	}
}

// Pending returns the tap waiting for the next ADD_OBJECT, if any.
func (s *Session) Pending() (PendingInteraction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return PendingInteraction{}, false
	}
	return *s.pending, true
}

// Rooms returns every room in creation order.
func (s *Session) Rooms() []*palace.Room {
	return s.store.AllRooms()
}

// Doors returns the doors of the current room, including those that lead
// nowhere yet.
func (s *Session) Doors() []palace.ConnectedRoom {
	return s.store.RoomDoors(s.store.CurrentRoomID())
}

// Reset erases the palace and forgets any pending tap.
func (s *Session) Reset(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clearing palace: %w", err)
	}

	slog.InfoContext(ctx, "palace cleared")
	return nil
}

// History returns the recent conversation.
func (s *Session) History() []palace.HistoryEntry {
	return s.store.History()
}

// EnableAutopilot starts feeding generated instructions through
// ProcessInput. It is a no-op when already running.
func (s *Session) EnableAutopilot(ctx context.Context) {
	s.pilot.enable(ctx)
}

// DisableAutopilot stops the autopilot and waits for it to finish.
func (s *Session) DisableAutopilot() {
	s.pilot.disable()
}

// SetAutopilot turns the autopilot on or off and remembers the choice.
func (s *Session) SetAutopilot(ctx context.Context, on bool) error {
	if on {
		s.EnableAutopilot(ctx)
	} else {
		s.DisableAutopilot()
	}

	if err := s.store.SetSetting(SettingAutopilot, on); err != nil {
		return fmt.Errorf("saving autopilot setting: %w", err)
	}
	return nil
}

// ResumeAutopilot starts the autopilot if the user left it on.
func (s *Session) ResumeAutopilot(ctx context.Context) (bool, error) {
	var on bool
	if _, err := s.store.Setting(SettingAutopilot, &on); err != nil {
		return false, err
	}
	if on {
		s.EnableAutopilot(ctx)
	}
	return on, nil
}

// AutopilotEnabled reports whether the autopilot is running.
func (s *Session) AutopilotEnabled() bool {
	return s.pilot.running()
}

func (s *Session) takePending() (PendingInteraction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return PendingInteraction{}, false
	}
	p := *s.pending
	s.pending = nil
	return p, true
}

func (s *Session) remember(ctx context.Context, role, content string) {
	if err := s.store.AppendHistory(role, content); err != nil {
		slog.WarnContext(ctx, "recording history", "role", role, "error", err)
	}
}

func busyResult() commands.Result {
	return commands.Result{
		Error:    ErrBusy.Error(),
		Response: busyResponse,
	}
}

func inView(v float64) bool {
	return v >= 0 && v <= 1
}
