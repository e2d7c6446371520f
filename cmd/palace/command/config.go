package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

type Config struct {
	Listeners       []ListenerConfig  `json:"listeners"`
	Storage         StorageConfig     `json:"storage"`
	Nats            NatsConfig        `json:"nats"`
	ImageGeneration ImageConfig       `json:"image_generation"`
	Session         SessionConfig     `json:"session"`
	Responses       map[string]string `json:"responses,omitempty"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.ImageGeneration.validate())
	el.Add(c.Session.validate())

	if c.Storage.Backend == StorageBackendNats && c.Nats.StoreDir == "" {
		el.Add(fmt.Errorf("nats storage backend requires nats.store_dir"))
	}

	return el.Err()
}
