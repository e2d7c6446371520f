package commands

import (
	"bytes"
	"fmt"
	"log/slog"
	"maps"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// templateFuncs provides utility functions for templates.
var templateFuncs = sprig.TxtFuncMap()

// Response template names.
const (
	RspRoomCreated    = "room_created"
	RspObjectAdded    = "object_added"
	RspDoorCreated    = "door_created"
	RspDoorPending    = "door_pending"
	RspDoorConfigured = "door_configured"
	RspDoorDeleted    = "door_deleted"
	RspNavigated      = "navigated"
	RspRoomsListed    = "rooms_listed"
	RspObjectsListed  = "objects_listed"
	RspDescribed      = "described"
	RspRoomDeleted    = "room_deleted"
	RspObjectDeleted  = "object_deleted"
	RspObjectSelected = "object_selected"
	RspChat           = "chat"
	RspNoCurrentRoom  = "no_current_room"
	RspFailed         = "failed"
)

// DefaultResponses are the built-in response templates. Any of them can be
// replaced through configuration.
var DefaultResponses = map[string]string{
	RspRoomCreated:    `Created {{ quote .Room.Name }}{{ with .Room.Description }}: {{ . }}{{ end }}.{{ if .ImagePending }} Its image is being generated.{{ end }}`,
	RspObjectAdded:    `Placed {{ quote .Object.Name }} in {{ quote .Room.Name }}{{ with .Object.Information }}: {{ . }}{{ end }}.{{ with .Issues }} Note: {{ join "; " . }}.{{ end }}`,
	RspDoorCreated:    `Added {{ quote .Connection.Description }} leading to {{ quote .Target.Name }}.`,
	RspDoorPending:    `Added {{ quote .Connection.Description }}. It does not lead anywhere yet.`,
	RspDoorConfigured: `{{ quote .Connection.Description }} now leads to {{ quote .Target.Name }}.`,
	RspDoorDeleted:    `Removed {{ quote .Connection.Description }}.`,
	RspNavigated:      `You are now in {{ quote .Room.Name }}.{{ with .Room.Description }} {{ . }}{{ end }}`,
	RspRoomsListed:    `{{ if .Names }}Your rooms: {{ join ", " .Names }}.{{ else }}You have no rooms yet.{{ end }}`,
	RspObjectsListed:  `{{ if .Names }}In {{ quote .Room.Name }}: {{ join ", " .Names }}.{{ else }}{{ quote .Room.Name }} is empty.{{ end }}`,
	RspDescribed:      `You are in {{ quote .Room.Name }}.{{ with .Room.Description }} {{ trimSuffix "." . }}.{{ end }}{{ with .Objects }} Here you find {{ join ", " . }}.{{ end }}{{ with .Exits }} Doors: {{ join ", " . }}.{{ end }}`,
	RspRoomDeleted:    `Deleted {{ quote .Room.Name }}.{{ with .Current }} You are now in {{ quote .Name }}.{{ end }}`,
	RspObjectDeleted:  `Removed {{ quote .Object.Name }}.`,
	RspObjectSelected: `{{ .Object.Name }}{{ with .Object.Information }}: {{ . }}{{ end }}`,
	RspChat:           `{{ with .Message }}You said {{ quote . }}. {{ end }}Try "create a room like ..." or "add an object called ..." to build your palace.`,
	RspNoCurrentRoom:  `You need to create or navigate to a room first.`,
	RspFailed:         `Sorry, that did not work: {{ .Error }}`,
}

// Responses renders user-facing text from named templates.
type Responses struct {
	templates map[string]*template.Template
}

// NewResponses compiles the default templates with overrides applied.
func NewResponses(overrides map[string]string) (*Responses, error) {
	src := maps.Clone(DefaultResponses)
	for name, tmpl := range overrides {
		if _, ok := src[name]; !ok {
			return nil, fmt.Errorf("unknown response template %q", name)
		}
		src[name] = tmpl
	}

	r := &Responses{templates: make(map[string]*template.Template, len(src))}
	for name, tmplStr := range src {
		tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=zero").Parse(tmplStr)
		if err != nil {
			return nil, fmt.Errorf("parsing template %q: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Render expands the named template. A failing template is logged and its
// name returned so the user still gets a reply.
func (r *Responses) Render(name string, data any) string {
	s, err := r.expand(name, data)
	if err != nil {
		slog.Warn("rendering response", "template", name, "error", err)
		return name
	}
	return s
}

func (r *Responses) expand(name string, data any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown response template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
