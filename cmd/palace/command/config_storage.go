package command

import (
	"fmt"
	"path/filepath"

	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-palace/internal/messaging"
	"github.com/pixil98/go-palace/internal/palace"
	"github.com/pixil98/go-palace/internal/storage"
)

type StorageBackend string

const (
	StorageBackendFile StorageBackend = "file"
	StorageBackendNats StorageBackend = "nats"

	DefaultStoragePrefix = "palace"
)

type StorageConfig struct {
	Backend StorageBackend `json:"backend"`
	// Directory holding the file backend's collections
	Path string `json:"path,omitempty"`
	// Namespace for every key: a subdirectory for files, the bucket for nats
	Prefix string `json:"prefix,omitempty"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Backend {
	case "", StorageBackendFile:
		if c.Path == "" {
			el.Add(fmt.Errorf("storage: path is required for the file backend"))
		}
	case StorageBackendNats:
	default:
		el.Add(fmt.Errorf("storage: unknown backend %q", c.Backend))
	}

	if c.Prefix != "" && !storage.ValidIdentifier(c.Prefix) {
		el.Add(fmt.Errorf("storage: invalid prefix %q", c.Prefix))
	}

	return el.Err()
}

func (c *StorageConfig) prefix() string {
	if c.Prefix == "" {
		return DefaultStoragePrefix
	}
	return c.Prefix
}

// BuildCollections opens the four palace collections on the configured
// backend. The nats server is only used by the nats backend.
func (c *StorageConfig) BuildCollections(ns *messaging.NatsServer) (palace.Collections, error) {
	var kv nats.KeyValue
	if c.Backend == StorageBackendNats {
		if ns == nil {
			return palace.Collections{}, fmt.Errorf("nats backend without a nats server")
		}
		var err error
		kv, err = ns.KeyValue(c.prefix())
		if err != nil {
			return palace.Collections{}, err
		}
	}

	rooms, err := buildStorer[*palace.Room](c, kv, "rooms")
	if err != nil {
		return palace.Collections{}, fmt.Errorf("creating room store: %w", err)
	}
	objects, err := buildStorer[*palace.MemoryObject](c, kv, "objects")
	if err != nil {
		return palace.Collections{}, fmt.Errorf("creating object store: %w", err)
	}
	conns, err := buildStorer[*palace.Connection](c, kv, "connections")
	if err != nil {
		return palace.Collections{}, fmt.Errorf("creating connection store: %w", err)
	}
	users, err := buildStorer[*palace.UserState](c, kv, "users")
	if err != nil {
		return palace.Collections{}, fmt.Errorf("creating user store: %w", err)
	}

	return palace.Collections{
		Rooms:       rooms,
		Objects:     objects,
		Connections: conns,
		Users:       users,
	}, nil
}

func buildStorer[T storage.ValidatingSpec](c *StorageConfig, kv nats.KeyValue, collection string) (storage.Storer[T], error) {
	if kv != nil {
		return storage.NewKVStore[T](kv, collection)
	}
	return storage.NewFileStore[T](filepath.Join(c.Path, c.prefix(), collection))
}
