package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pixil98/go-palace/internal/commands"
	"github.com/pixil98/go-palace/internal/palace"
)

const (
	banner = "Welcome to your memory palace. Type \"help\" for help.\n"
	help   = `Describe what you want in plain words, for example:
  create a room like a dark cave
  add an object called Keys that I found
  add a door to the garden
  go to the garden
Other commands:
  tap <x> <y>         touch the view at screen position x, y (0 to 1)
  jump                pick a room to go to from a menu
  doors               list the doors of this room
  door <n> to <room>  point door n at an existing room
  remove door <n>     take door n away
  autopilot on|off    let the palace build itself
  reset               erase the whole palace
  quit                leave
`
)

// Interactor is the session a connection talks to.
type Interactor interface {
	ProcessInput(ctx context.Context, text string) commands.Result
	ProcessCommand(ctx context.Context, cmd commands.Command) commands.Result
	ProcessSpatialInteraction(ctx context.Context, screenX, screenY float64) commands.Result
	Rooms() []*palace.Room
	Doors() []palace.ConnectedRoom
	Reset(ctx context.Context) error
	SetAutopilot(ctx context.Context, on bool) error
	AutopilotEnabled() bool
}

// ConnectionManager runs the line-based conversation on every accepted
// connection.
type ConnectionManager struct {
	session Interactor
}

func NewConnectionManager(session Interactor) *ConnectionManager {
	return &ConnectionManager{
		session: session,
	}
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	if err := m.run(ctx, newTerminal(conn)); err != nil && !errors.Is(err, io.EOF) {
		slog.WarnContext(ctx, "palace session", "error", err)
	}
}

func (m *ConnectionManager) run(ctx context.Context, t *terminal) error {
	if err := t.write(banner); err != nil {
		return err
	}

	for ctx.Err() == nil {
		line, err := t.prompt("> ")
		if err != nil {
			return err
		}

		quit, err := m.handle(ctx, t, strings.TrimSpace(line))
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
	return nil
}

// handle runs one line. Terminal commands are recognised by their exact
// shape; everything else goes to the parser.
func (m *ConnectionManager) handle(ctx context.Context, t *terminal, line string) (bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false, nil
	}

	switch {
	case len(fields) == 1 && (fields[0] == "quit" || fields[0] == "exit"):
		return true, t.write("Goodbye.\n")

	case len(fields) == 1 && fields[0] == "help":
		return false, t.write(help)

	case len(fields) == 3 && fields[0] == "tap":
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			return false, t.write("usage: tap <x> <y>\n")
		}
		return false, t.writeWrapped(m.session.ProcessSpatialInteraction(ctx, x, y).Response)

	case len(fields) <= 2 && fields[0] == "autopilot":
		return false, m.autopilot(ctx, t, fields[1:])

	case len(fields) == 1 && fields[0] == "jump":
		return false, m.jump(ctx, t)

	case len(fields) == 1 && fields[0] == "reset":
		return false, m.reset(ctx, t)

	case len(fields) == 1 && fields[0] == "doors":
		return false, m.listDoors(t)

	case len(fields) >= 4 && fields[0] == "door" && isNumber(fields[1]) && fields[2] == "to":
		room := strings.Join(strings.Fields(line)[3:], " ")
		return false, m.doorCommand(ctx, t, fields[1], commands.ActionConfigureDoor, room)

	case len(fields) == 3 && (fields[0] == "remove" || fields[0] == "delete") && fields[1] == "door" && isNumber(fields[2]):
		return false, m.doorCommand(ctx, t, fields[2], commands.ActionDeleteDoor, "")
	}

	return false, t.writeWrapped(m.session.ProcessInput(ctx, line).Response)
}

func (m *ConnectionManager) autopilot(ctx context.Context, t *terminal, args []string) error {
	if len(args) == 1 {
		if args[0] != "on" && args[0] != "off" {
			return t.write("usage: autopilot on|off\n")
		}
		if err := m.session.SetAutopilot(ctx, args[0] == "on"); err != nil {
			slog.WarnContext(ctx, "saving autopilot setting", "error", err)
		}
	}

	state := "off"
	if m.session.AutopilotEnabled() {
		state = "on"
	}
	return t.write(fmt.Sprintf("Autopilot is %s.\n", state))
}

func (m *ConnectionManager) jump(ctx context.Context, t *terminal) error {
	rooms := m.session.Rooms()
	if len(rooms) == 0 {
		return t.write("You have no rooms yet.\n")
	}

	id, err := t.selectRoom("Where to?", rooms)
	if errors.Is(err, errTooManyTries) {
		return t.write("Never mind.\n")
	}
	if err != nil || id == "" {
		return err
	}

	res := m.session.ProcessCommand(ctx, commands.Command{
		Action:     commands.ActionNavigate,
		Parameters: commands.Parameters{ID: id},
		Confidence: 1,
	})
	return t.writeWrapped(res.Response)
}

func (m *ConnectionManager) listDoors(t *terminal) error {
	doors := m.session.Doors()
	if len(doors) == 0 {
		return t.write("There are no doors here.\n")
	}

	var sb strings.Builder
	sb.WriteString("Doors here:\n")
	for i, d := range doors {
		if d.Room == nil {
			fmt.Fprintf(&sb, "%2d. %q leads nowhere yet\n", i+1, d.Connection.Description)
			continue
		}
		fmt.Fprintf(&sb, "%2d. %q leads to %q\n", i+1, d.Connection.Description, d.Room.Name)
	}
	return t.write(sb.String())
}

// doorCommand runs action on the door numbered as in the doors listing.
func (m *ConnectionManager) doorCommand(ctx context.Context, t *terminal, num string, action commands.Action, room string) error {
	n, _ := strconv.Atoi(num)
	doors := m.session.Doors()
	if n < 1 || n > len(doors) {
		return t.write(fmt.Sprintf("There is no door %d. Type \"doors\" to list them.\n", n))
	}

	res := m.session.ProcessCommand(ctx, commands.Command{
		Action:     action,
		Parameters: commands.Parameters{ID: doors[n-1].Connection.ID, RoomName: room},
		Confidence: 1,
	})
	return t.writeWrapped(res.Response)
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func (m *ConnectionManager) reset(ctx context.Context, t *terminal) error {
	ok, err := t.promptYN("Erase every room and object? [y/n] ")
	if errors.Is(err, errTooManyTries) {
		return t.write("Never mind.\n")
	}
	if err != nil || !ok {
		return err
	}

	if err := m.session.Reset(ctx); err != nil {
		slog.WarnContext(ctx, "resetting palace", "error", err)
		return t.write("The palace could not be erased right now.\n")
	}
	return t.write("Your palace is empty.\n")
}
