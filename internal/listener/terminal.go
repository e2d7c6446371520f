package listener

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/pixil98/go-palace/internal/display"
	"github.com/pixil98/go-palace/internal/palace"
)

var errTooManyTries = errors.New("too many tries")

type promptValidator func(string) (bool, string)

type promptConfig struct {
	tries     int
	validator promptValidator
}

type promptOption func(*promptConfig)

func withValidator(v promptValidator) promptOption {
	return func(cfg *promptConfig) {
		cfg.validator = v
	}
}

func withMaxTries(i int) promptOption {
	return func(cfg *promptConfig) {
		cfg.tries = i
	}
}

// terminal reads lines from and writes text to one connection.
type terminal struct {
	w  io.Writer
	br *bufio.Reader
}

func newTerminal(rw io.ReadWriter) *terminal {
	return &terminal{
		w:  rw,
		br: bufio.NewReader(rw),
	}
}

func (t *terminal) write(s string) error {
	_, err := io.WriteString(t.w, s)
	return err
}

// writeWrapped writes s wrapped to the display width and ends the line.
func (t *terminal) writeWrapped(s string) error {
	return t.write(display.Wrap(s) + "\n")
}

func (t *terminal) readLine() (string, error) {
	line, err := t.br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt writes prompt and reads a line, asking again while the validator
// rejects the answer.
func (t *terminal) prompt(prompt string, opts ...promptOption) (string, error) {
	config := &promptConfig{}
	for _, opt := range opts {
		opt(config)
	}

	tries := 0
	for {
		if err := t.write(prompt); err != nil {
			return "", err
		}

		input, err := t.readLine()
		if err != nil {
			return "", err
		}

		if config.validator != nil {
			ok, msg := config.validator(input)
			if !ok {
				if err := t.write(msg); err != nil {
					return "", err
				}

				tries++
				if config.tries > 0 && config.tries == tries {
					return "", errTooManyTries
				}

				continue
			}
		}

		return input, nil
	}
}

func (t *terminal) promptYN(prompt string) (bool, error) {
	str, err := t.prompt(prompt, withMaxTries(3), withValidator(
		func(str string) (bool, string) {
			switch strings.ToLower(strings.TrimSpace(str)) {
			case "y", "yes", "n", "no":
				return true, ""
			default:
				return false, "enter 'yes' or 'no'\n"
			}
		},
	))
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(str)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// selectRoom shows rooms as a numbered menu and returns the id of the one
// picked. An empty answer cancels and returns "".
func (t *terminal) selectRoom(prompt string, rooms []*palace.Room) (string, error) {
	labels := make([]string, len(rooms))
	for i, r := range rooms {
		labels[i] = r.Name
	}

	if err := t.write(prompt + "\n"); err != nil {
		return "", err
	}
	for _, row := range display.Columns(labels) {
		if err := t.write(row + "\n"); err != nil {
			return "", err
		}
	}

	selection, err := t.prompt("Make your selection: ", withMaxTries(3), withValidator(
		func(str string) (bool, string) {
			str = strings.TrimSpace(str)
			if str == "" {
				return true, ""
			}
			i, err := strconv.Atoi(str)
			if err != nil || i < 1 || i > len(rooms) {
				return false, "Invalid selection!\n"
			}
			return true, ""
		},
	))
	if err != nil {
		return "", err
	}

	selection = strings.TrimSpace(selection)
	if selection == "" {
		return "", nil
	}
	i, err := strconv.Atoi(selection)
	if err != nil {
		return "", err
	}
	return rooms[i-1].ID, nil
}
