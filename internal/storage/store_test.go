package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-testutil"
)

// mockStoreSpec implements ValidatingSpec for testing stores
type mockStoreSpec struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func (s *mockStoreSpec) Validate() error {
	return nil
}

func writeAsset(t *testing.T, dir, file, id string, spec *mockStoreSpec) {
	t.Helper()

	data, err := json.Marshal(Asset[*mockStoreSpec]{Version: 1, Identifier: id, Spec: spec})
	if err != nil {
		t.Fatalf("failed to marshal test asset: %v", err)
	}
	err = os.WriteFile(filepath.Join(dir, file), data, 0644)
	if err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

func TestNewFileStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewFileStore[*mockStoreSpec](tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "path", store.path, tmpDir)
	testutil.AssertEqual(t, "records length", len(store.records), 0)
}

func TestNewFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "palace", "rooms")

	_, err := NewFileStore[*mockStoreSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected directory to exist: %v", err)
	}
	testutil.AssertEqual(t, "is dir", info.IsDir(), true)
}

func TestNewFileStore_Load(t *testing.T) {
	tests := map[string]struct {
		setup    func(t *testing.T, dir string)
		expErr   bool
		expCount int
	}{
		"existing assets": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, dir, "room-1.json", "room-1", &mockStoreSpec{Name: "First", Value: 1})
				writeAsset(t, dir, "room-2.json", "room-2", &mockStoreSpec{Name: "Second", Value: 2})
			},
			expCount: 2,
		},
		"invalid json": {
			setup: func(t *testing.T, dir string) {
				err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{invalid json`), 0644)
				if err != nil {
					t.Fatalf("failed to write test file: %v", err)
				}
			},
			expErr: true,
		},
		"duplicate key": {
			setup: func(t *testing.T, dir string) {
				sub := filepath.Join(dir, "sub")
				if err := os.Mkdir(sub, 0755); err != nil {
					t.Fatalf("failed to create subdir: %v", err)
				}
				writeAsset(t, dir, "a.json", "dup", &mockStoreSpec{Name: "A"})
				writeAsset(t, sub, "b.json", "dup", &mockStoreSpec{Name: "B"})
			},
			expErr: true,
		},
		"non json files ignored": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, dir, "valid.json", "valid", &mockStoreSpec{Name: "Valid"})
				err := os.WriteFile(filepath.Join(dir, "valid.json.tmp"), []byte("partial"), 0644)
				if err != nil {
					t.Fatalf("failed to write test file: %v", err)
				}
			},
			expCount: 1,
		},
		"unversioned asset": {
			setup: func(t *testing.T, dir string) {
				data := []byte(`{"id":"room-1","spec":{"name":"x"}}`)
				if err := os.WriteFile(filepath.Join(dir, "room-1.json"), data, 0644); err != nil {
					t.Fatalf("failed to write test file: %v", err)
				}
			},
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			store, err := NewFileStore[*mockStoreSpec](dir)
			if tt.expErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "record count", len(store.GetAll()), tt.expCount)
		})
	}
}

func TestFileStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore[*mockStoreSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}

	err = store.Save("room-1", &mockStoreSpec{Name: "Initial", Value: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = store.Save("room-1", &mockStoreSpec{Name: "Updated", Value: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cached := store.Get("room-1")
	testutil.AssertEqual(t, "cached name", cached.Name, "Updated")

	reopened, err := NewFileStore[*mockStoreSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error reopening store: %v", err)
	}
	loaded := reopened.Get("room-1")
	if loaded == nil {
		t.Fatal("expected record to survive reopen")
	}
	testutil.AssertEqual(t, "name", loaded.Name, "Updated")
	testutil.AssertEqual(t, "value", loaded.Value, 2)
}

func TestFileStore_SaveInvalidId(t *testing.T) {
	store, err := NewFileStore[*mockStoreSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}

	err = store.Save("../escape", &mockStoreSpec{})
	testutil.AssertErrorContains(t, err, "invalid record id")
	testutil.AssertEqual(t, "records", len(store.GetAll()), 0)
}

func TestFileStore_GetAllIsCopy(t *testing.T) {
	store, err := NewFileStore[*mockStoreSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	store.records = map[string]*mockStoreSpec{"one": {Name: "One"}}

	all := store.GetAll()
	delete(all, "one")

	testutil.AssertEqual(t, "records", len(store.records), 1)
}

func TestFileStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore[*mockStoreSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	if err := store.Save("room-1", &mockStoreSpec{Name: "Doomed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Delete("room-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete("never-existed"); err != nil {
		t.Fatalf("unexpected error deleting unknown id: %v", err)
	}

	testutil.AssertEqual(t, "cached", store.Get("room-1") == nil, true)
	_, err = os.Stat(filepath.Join(dir, "room-1.json"))
	testutil.AssertEqual(t, "file removed", os.IsNotExist(err), true)
}

func TestFileStore_Clear(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore[*mockStoreSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(id, &mockStoreSpec{Name: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "records", len(store.GetAll()), 0)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	testutil.AssertEqual(t, "files", len(entries), 0)
}
