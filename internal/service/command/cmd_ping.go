package command

import (
	"context"

	"github.com/sandevgo/loopbot/internal/core"
)

type PingCommand struct {
	formatter *ResponseFormatter
}

func NewPingCommand() core.Command {
	return &PingCommand{formatter: NewResponseFormatter()}
}

func (c *PingCommand) Name() string {
	return "ping"
}

func (c *PingCommand) Description() string {
	return "Check that the bot is alive"
}

func (c *PingCommand) Execute(ctx context.Context, args []string) (string, error) {
	return c.formatter.Success("pong"), nil
}
