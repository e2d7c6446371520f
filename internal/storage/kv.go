package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

// KVStore keeps a collection in a JetStream key-value bucket. Keys are
// "<collection>.<id>" so several collections can share one bucket.
type KVStore[T ValidatingSpec] struct {
	kv         nats.KeyValue
	collection string
	records    map[string]T

	mu sync.RWMutex
}

// NewKVStore loads every record of collection from the bucket.
func NewKVStore[T ValidatingSpec](kv nats.KeyValue, collection string) (*KVStore[T], error) {
	if !ValidIdentifier(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}

	s := &KVStore[T]{
		kv:         kv,
		collection: collection,
		records:    map[string]T{},
	}

	err := s.load()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", collection, err)
	}

	return s, nil
}

func (s *KVStore[T]) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = map[string]T{}

	keys, err := s.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}

	prefix := s.collection + "."
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		entry, err := s.kv.Get(key)
		if errors.Is(err, nats.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", key, err)
		}

		asset, err := decodeAsset[T](entry.Value())
		if err != nil {
			return fmt.Errorf("loading %s: %w", key, err)
		}

		s.records[asset.Id()] = asset.Spec
	}

	return nil
}

func (s *KVStore[T]) Save(id string, o T) error {
	if !ValidIdentifier(id) {
		return fmt.Errorf("invalid record id %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = o

	data, err := encodeAsset(id, o)
	if err != nil {
		return err
	}

	if _, err := s.kv.Put(s.key(id), data); err != nil {
		return fmt.Errorf("putting %s: %w", id, err)
	}
	return nil
}

func (s *KVStore[T]) Get(id string) T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.records[id]
}

func (s *KVStore[T]) GetAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vals := make(map[string]T, len(s.records))
	for id, v := range s.records {
		vals[id] = v
	}
	return vals
}

func (s *KVStore[T]) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)

	err := s.kv.Delete(s.key(id))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	return nil
}

func (s *KVStore[T]) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.records {
		err := s.kv.Delete(s.key(id))
		if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
			return fmt.Errorf("deleting %s: %w", id, err)
		}
		delete(s.records, id)
	}
	return nil
}

func (s *KVStore[T]) key(id string) string {
	return s.collection + "." + id
}
