package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pixil98/go-palace/internal/imagegen"
	"github.com/pixil98/go-palace/internal/palace"
)

// ImageGenerator turns a prompt into an image URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, size imagegen.Size) (string, error)
}

type ImageMode string

const (
	// ImageModeAwait generates the image before the command returns.
	ImageModeAwait ImageMode = "await"
	// ImageModeBackground returns at once and stores the image when ready.
	ImageModeBackground ImageMode = "background"

	DefaultImageTimeout = time.Minute * 3
)

type imager struct {
	store   *palace.Store
	gen     ImageGenerator
	mode    ImageMode
	size    imagegen.Size
	suffix  string
	timeout time.Duration
	wg      sync.WaitGroup
}

func newImager(store *palace.Store) *imager {
	return &imager{
		store:   store,
		mode:    ImageModeAwait,
		size:    imagegen.Size{Width: imagegen.DefaultWidth, Height: imagegen.DefaultHeight},
		timeout: DefaultImageTimeout,
	}
}

func (im *imager) prompt(room *palace.Room) string {
	base := room.Description
	if base == "" {
		base = room.Name
	}
	if im.suffix == "" {
		return base
	}
	return strings.TrimSuffix(base, ".") + ", " + im.suffix
}

// attach generates the image of a freshly created room according to the
// image mode. Failures are logged and leave the room without an image.
// Reports whether a background generation was started.
func (im *imager) attach(ctx context.Context, room *palace.Room) (*palace.Room, bool) {
	if im.gen == nil || room.ImageURL != "" {
		return room, false
	}

	if im.mode == ImageModeBackground {
		im.wg.Add(1)
		go func() {
			defer im.wg.Done()
			bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), im.timeout)
			defer cancel()
			_, _ = im.generateLogged(bgCtx, room)
		}()
		return room, true
	}

	updated, err := im.generateLogged(ctx, room)
	if err != nil {
		return room, false
	}
	return updated, false
}

func (im *imager) generateLogged(ctx context.Context, room *palace.Room) (*palace.Room, error) {
	updated, err := im.generate(ctx, room)
	switch {
	case errors.Is(err, imagegen.ErrBusy):
		slog.WarnContext(ctx, "skipping room image, another generation is running", "room", room.ID)
	case err != nil:
		slog.WarnContext(ctx, "generating room image", "room", room.ID, "error", err)
	}
	return updated, err
}

func (im *imager) generate(ctx context.Context, room *palace.Room) (*palace.Room, error) {
	if im.gen == nil {
		return nil, imagegen.ErrProviderUnconfigured
	}

	url, err := im.gen.Generate(ctx, im.prompt(room), im.size)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "room image generated", "room", room.ID, "url", url)
	return im.store.EditRoom(room.ID, palace.RoomUpdate{ImageURL: &url})
}
