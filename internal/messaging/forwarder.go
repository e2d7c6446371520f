package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pixil98/go-palace/internal/palace"
)

const DefaultSubjectPrefix = "palace"

// Publisher sends raw messages to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// EventForwarder republishes every palace event as JSON on
// "<prefix>.<event type in lower case>", e.g. "palace.room_created".
type EventForwarder struct {
	bus    *palace.Bus
	pub    Publisher
	prefix string
}

func NewEventForwarder(bus *palace.Bus, pub Publisher, prefix string) *EventForwarder {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &EventForwarder{
		bus:    bus,
		pub:    pub,
		prefix: prefix,
	}
}

// Subject returns the subject events of type t are published on.
func (f *EventForwarder) Subject(t palace.EventType) string {
	return f.prefix + "." + strings.ToLower(string(t))
}

// Forward publishes one event.
func (f *EventForwarder) Forward(e palace.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", e.Type, err)
	}
	if err := f.pub.Publish(f.Subject(e.Type), data); err != nil {
		return fmt.Errorf("publishing %s event: %w", e.Type, err)
	}
	return nil
}

// Start forwards events until ctx is done.
func (f *EventForwarder) Start(ctx context.Context) error {
	unsubscribe := f.bus.Subscribe(f.Forward)
	defer unsubscribe()

	slog.InfoContext(ctx, "forwarding palace events", "subjects", f.prefix+".>")

	<-ctx.Done()
	return nil
}
