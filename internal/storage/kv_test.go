package storage

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-testutil"
)

func newTestBucket(t *testing.T) nats.KeyValue {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoSigs:    true,
		NoLog:     true,
	})
	if err != nil {
		t.Fatalf("creating nats server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("nats server not ready")
	}

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	js, err := nc.JetStream()
	if err != nil {
		t.Fatalf("jetstream: %v", err)
	}
	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: "palace"})
	if err != nil {
		t.Fatalf("creating bucket: %v", err)
	}
	return kv
}

func TestKVStore_SaveAndReload(t *testing.T) {
	kv := newTestBucket(t)

	rooms, err := NewKVStore[*mockStoreSpec](kv, "rooms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	objects, err := NewKVStore[*mockStoreSpec](kv, "objects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := rooms.Save("room-1", &mockStoreSpec{Name: "Hall", Value: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := objects.Save("obj-1", &mockStoreSpec{Name: "Lamp", Value: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := NewKVStore[*mockStoreSpec](kv, "rooms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := reloaded.GetAll()
	testutil.AssertEqual(t, "room count", len(all), 1)
	testutil.AssertEqual(t, "room name", all["room-1"].Name, "Hall")
}

func TestKVStore_EmptyBucket(t *testing.T) {
	kv := newTestBucket(t)

	s, err := NewKVStore[*mockStoreSpec](kv, "rooms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "records", len(s.GetAll()), 0)
}

func TestKVStore_DeleteAndClear(t *testing.T) {
	kv := newTestBucket(t)

	s, err := NewKVStore[*mockStoreSpec](kv, "rooms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Save(id, &mockStoreSpec{Name: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "after delete", len(s.GetAll()), 2)

	reloaded, err := NewKVStore[*mockStoreSpec](kv, "rooms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "reloaded after delete", len(reloaded.GetAll()), 2)

	if err := s.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reloaded, err = NewKVStore[*mockStoreSpec](kv, "rooms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "reloaded after clear", len(reloaded.GetAll()), 0)
}

func TestNewKVStore_InvalidCollection(t *testing.T) {
	_, err := NewKVStore[*mockStoreSpec](nil, "rooms.*")
	testutil.AssertErrorContains(t, err, "invalid collection name")
}
