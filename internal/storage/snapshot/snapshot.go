package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/log"
)

// State is the full durable image of the memory system: every record, the
// rolling conversation window, and the thought trail.
type State struct {
	Memories []core.MemoryRecord     `json:"memories"`
	Messages []core.ConversationTurn `json:"messages"`
	Thoughts []core.MemoryRecord     `json:"thoughts"`
	SavedAt  time.Time               `json:"saved_at"`
}

// File persists a State as a single JSON document, written atomically via a
// temp file and rename.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the snapshot. A missing file yields an empty state; a corrupt
// file is an error the caller downgrades to "start empty".
func (f *File) Load(ctx context.Context) (*State, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			log.FromCtx(ctx).Info().Str("path", f.path).Msg("no snapshot found, starting empty")
			return &State{}, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return state, nil
}

func (f *File) Save(ctx context.Context, state *State) error {
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
