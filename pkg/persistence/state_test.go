package persistence

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestStateStore(t *testing.T) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

		state := &RuntimeState{
			LastPort:       "/dev/ttyACM0",
			LastCommand:    "YELLOW",
			LastAnalysisID: 7,
		}
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.LastPort != "/dev/ttyACM0" {
			t.Errorf("LastPort = %q, want /dev/ttyACM0", got.LastPort)
		}
		if got.LastCommand != "YELLOW" {
			t.Errorf("LastCommand = %q, want YELLOW", got.LastCommand)
		}
		if got.LastAnalysisID != 7 {
			t.Errorf("LastAnalysisID = %d, want 7", got.LastAnalysisID)
		}
		if got.SavedAt.IsZero() {
			t.Error("SavedAt not set")
		}
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("CreatesParentDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
		store := NewStateStore(path)

		if err := store.Save(&RuntimeState{LastPort: "COM3"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("state file not created: %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

		if err := store.Update(func(s *RuntimeState) { s.LastPort = "COM3" }); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if err := store.Update(func(s *RuntimeState) { s.LastCommand = "RED" }); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.LastPort != "COM3" || got.LastCommand != "RED" {
			t.Errorf("got %+v, want port COM3 and command RED", got)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		store := NewStateStore(path)

		if err := store.Save(&RuntimeState{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("state file still exists after Clear()")
		}
		if err := store.Clear(); err != nil {
			t.Errorf("Clear() on missing file error = %v", err)
		}
	})

	t.Run("CorruptFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStateStore(path).Load(); err == nil {
			t.Error("Load() on corrupt file should fail")
		}
	})

	t.Run("NewerVersion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStateStore(path).Load(); err == nil {
			t.Error("Load() of a newer format should fail")
		}
	})
}

func TestStateStoreConcurrentUpdates(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := store.Update(func(s *RuntimeState) {
				if id > s.LastAnalysisID {
					s.LastAnalysisID = id
				}
			}); err != nil {
				t.Errorf("Update() error = %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.LastAnalysisID != 20 {
		t.Errorf("LastAnalysisID = %d, want 20", got.LastAnalysisID)
	}
}
