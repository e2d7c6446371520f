package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pixil98/go-palace/internal/driver"
	"github.com/pixil98/go-palace/internal/palace"
)

const (
	DefaultAutopilotInterval = time.Second * 5

	autopilotMinObjects   = 3
	autopilotNavigateOdds = 0.3
)

// Rand is the randomness the autopilot draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

var (
	autopilotRooms = []string{
		"create a starting room",
		"create a room like a quiet library with tall windows",
		"create a room like a sunlit garden",
		"create a room like a stone cellar lit by candles",
	}
	autopilotObjects = []string{
		"add an object called Old Lantern with a flickering flame",
		"add an object called Silver Key that opens nothing",
		"add an object called Music Box that plays a lullaby",
		"add an object called Paper Crane with a folded wish",
		"add an object called Pocket Watch that stopped at noon",
	}
	autopilotDoors = []string{
		"add a door to a hidden courtyard",
		"add a door to the observatory",
		"add a door to a winding corridor",
	}
)

// autopilot builds the palace on its own by typing canned instructions into
// the session on every tick.
type autopilot struct {
	session  *Session
	rand     Rand
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newAutopilot(s *Session) *autopilot {
	return &autopilot{
		session:  s,
		rand:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		interval: DefaultAutopilotInterval,
	}
}

func (a *autopilot) enable(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	d := driver.NewDriver([]driver.Manager{a}, driver.WithTickLength(a.interval))
	go func() {
		defer close(done)
		if err := d.Start(ctx); err != nil {
			slog.ErrorContext(ctx, "autopilot stopped", "error", err)
		}
		a.release(done)
	}()

	slog.InfoContext(ctx, "autopilot enabled", "interval", a.interval)
}

func (a *autopilot) disable() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	slog.Info("autopilot disabled")
}

// release forgets a loop that ended on its own, so it can be enabled again.
func (a *autopilot) release(done chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done == done {
		a.cancel()
		a.cancel, a.done = nil, nil
	}
}

func (a *autopilot) running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// Paused reports whether the session is still working on a request, so the
// driver skips the tick instead of queueing a busy reply.
func (a *autopilot) Paused() bool {
	return a.session.busy.Load()
}

// Tick feeds the next instruction, if any, through the session.
func (a *autopilot) Tick(ctx context.Context) error {
	input, ok := a.next()
	if !ok {
		return nil
	}

	res := a.session.ProcessInput(ctx, input)
	if !res.Success {
		slog.DebugContext(ctx, "autopilot instruction failed", "input", input, "error", res.Error)
		return nil
	}

	slog.InfoContext(ctx, "autopilot", "input", input, "response", res.Response)
	return nil
}

// next picks an instruction from the state of the palace: a room when there
// is none, objects until the room has a few, a door when none leads anywhere,
// and otherwise sometimes a walk through a random door.
func (a *autopilot) next() (string, bool) {
	store := a.session.store

	room, err := store.CurrentRoom()
	if err != nil {
		return a.pick(autopilotRooms), true
	}

	if len(store.RoomObjects(room.ID)) < autopilotMinObjects {
		return a.pick(autopilotObjects), true
	}

	if !hasExit(store.RoomConnections(room.ID)) {
		return a.pick(autopilotDoors), true
	}

	if a.rand.Float64() >= autopilotNavigateOdds {
		return "", false
	}

	exits := store.ConnectedRooms(room.ID)
	if len(exits) == 0 {
		return "", false
	}
	exit := exits[a.rand.IntN(len(exits))]
	return fmt.Sprintf("go to %q", exit.Room.Name), true
}

func hasExit(doors []*palace.Connection) bool {
	for _, d := range doors {
		if d.Navigable() {
			return true
		}
	}
	return false
}

func (a *autopilot) pick(phrases []string) string {
	return phrases[a.rand.IntN(len(phrases))]
}
