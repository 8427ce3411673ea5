package command

import (
	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/internal/service/agent"
	"github.com/sandevgo/loopbot/internal/service/memory"
)

func NewCommands(
	a *agent.Agent,
	store *memory.Store,
) []core.Command {
	return []core.Command{
		NewStatusCommand(a),
		NewGoalCommand(a),
		NewMemoryCommand(store),
		NewPingCommand(),
	}
}
