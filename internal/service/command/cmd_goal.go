package command

import (
	"context"
	"strings"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/internal/service/agent"
)

type GoalCommand struct {
	agent     *agent.Agent
	formatter *ResponseFormatter
}

func NewGoalCommand(a *agent.Agent) core.Command {
	return &GoalCommand{
		agent:     a,
		formatter: NewResponseFormatter(),
	}
}

func (c *GoalCommand) Name() string {
	return "goal"
}

func (c *GoalCommand) Description() string {
	return "Show or set the agent's goal"
}

func (c *GoalCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		goal := c.agent.Status().CurrentGoal
		if goal == "" {
			return c.formatter.Combine(
				c.formatter.Info("Goal"),
				c.formatter.Label("Current goal", "none"),
				c.formatter.Usage("/goal <description>"),
			), nil
		}
		return c.formatter.Combine(
			c.formatter.Info("Goal"),
			c.formatter.Label("Current goal", goal),
		), nil
	}

	goal := strings.Join(args, " ")
	c.agent.SetGoal(ctx, goal)

	return c.formatter.Combine(
		c.formatter.Success("Goal updated"),
		c.formatter.Label("Current goal", goal),
	), nil
}
