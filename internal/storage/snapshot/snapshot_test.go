package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/loopbot/internal/core"
)

func TestFile_LoadMissing(t *testing.T) {
	t.Parallel()
	f := NewFile(filepath.Join(t.TempDir(), "memories.json"))

	state, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("missing snapshot must not error: %v", err)
	}
	if len(state.Memories) != 0 || len(state.Messages) != 0 {
		t.Errorf("missing snapshot must yield an empty state: %+v", state)
	}
}

func TestFile_LoadCorrupt(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "memories.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err := NewFile(path).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
	if !strings.Contains(err.Error(), "parse snapshot") {
		t.Errorf("error = %v", err)
	}
}

func TestFile_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "memories.json")
	f := NewFile(path)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	state := &State{
		Memories: []core.MemoryRecord{
			{
				ID:         "obs_1",
				Kind:       core.KindObservation,
				Content:    "unicode content: 世界 🌍",
				Importance: 1.5,
				CreatedAt:  now,
				Context:    map[string]any{"source": "test"},
			},
		},
		Messages: []core.ConversationTurn{
			{Role: core.RoleUser, Content: "hello", CreatedAt: now},
		},
		Thoughts: []core.MemoryRecord{
			{ID: "th_1", Kind: core.KindThought, Content: "pondering", CreatedAt: now},
		},
	}

	if err := f.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if state.SavedAt.IsZero() {
		t.Error("Save must stamp SavedAt")
	}

	loaded, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded.Memories) != 1 || loaded.Memories[0].Content != "unicode content: 世界 🌍" {
		t.Errorf("memories round trip failed: %+v", loaded.Memories)
	}
	if loaded.Memories[0].Importance != 1.5 {
		t.Errorf("importance = %v, want 1.5", loaded.Memories[0].Importance)
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0].Role != core.RoleUser {
		t.Errorf("messages round trip failed: %+v", loaded.Messages)
	}
	if len(loaded.Thoughts) != 1 {
		t.Errorf("thoughts round trip failed: %+v", loaded.Thoughts)
	}
}

func TestFile_SaveOverwrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "memories.json")
	f := NewFile(path)
	ctx := context.Background()

	if err := f.Save(ctx, &State{Memories: []core.MemoryRecord{{ID: "first"}}}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := f.Save(ctx, &State{Memories: []core.MemoryRecord{{ID: "second"}}}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Memories) != 1 || loaded.Memories[0].ID != "second" {
		t.Errorf("overwrite failed: %+v", loaded.Memories)
	}

	// No temp files left behind by the atomic write.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".snapshot-") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}

func TestFile_SaveCreatesDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "dir", "memories.json")
	f := NewFile(path)

	if err := f.Save(context.Background(), &State{}); err != nil {
		t.Fatalf("Save into missing directory failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot file not created: %v", err)
	}
}
