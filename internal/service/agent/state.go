package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/log"
)

// loadState restores the agent's counters and goal from the previous run.
// A missing or unreadable state file starts fresh; it is never fatal.
func (a *Agent) loadState(ctx context.Context) {
	path := a.cfg.GetStatePath()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.FromCtx(ctx).Warn().Err(err).Msg("failed to read agent state")
		}
		return
	}

	var state core.AgentState
	if err := json.Unmarshal(data, &state); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to parse agent state, starting fresh")
		return
	}

	a.mu.Lock()
	a.state = state
	a.mu.Unlock()

	log.FromCtx(ctx).Info().Msg("agent state loaded from persistence")
}

func (a *Agent) saveState(ctx context.Context) {
	a.mu.Lock()
	state := a.state
	a.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to marshal agent state")
		return
	}

	path := a.cfg.GetStatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to create state directory")
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to save agent state")
	}
}
