package command

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/internal/service/agent"
)

type StatusCommand struct {
	agent     *agent.Agent
	formatter *ResponseFormatter
}

func NewStatusCommand(a *agent.Agent) core.Command {
	return &StatusCommand{
		agent:     a,
		formatter: NewResponseFormatter(),
	}
}

func (c *StatusCommand) Name() string {
	return "status"
}

func (c *StatusCommand) Description() string {
	return "Show the agent's current state"
}

func (c *StatusCommand) Execute(ctx context.Context, args []string) (string, error) {
	status := c.agent.Status()

	active := "idle"
	if status.Active {
		active = "active"
	}

	goal := status.CurrentGoal
	if goal == "" {
		goal = "none"
	}
	lastAction := status.LastAction
	if lastAction == "" {
		lastAction = "none"
	}

	return c.formatter.Combine(
		c.formatter.Info("Agent Status"),
		c.formatter.Label("State", active),
		c.formatter.Label("Uptime", status.Uptime.Round(time.Second).String()),
		c.formatter.Label("Actions", fmt.Sprintf("%d", status.ActionCount)),
		c.formatter.Label("Errors", fmt.Sprintf("%d", status.ErrorCount)),
		c.formatter.Label("Current goal", goal),
		c.formatter.Label("Last action", lastAction),
		c.formatter.Label("Memories", fmt.Sprintf("%d", status.Memory.TotalRecords)),
	), nil
}
