package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/loopbot/pkg/log"
)

type TelegramConfig struct {
	Token      string        `env:"TELEGRAM_TOKEN,required,notEmpty"`
	OwnerID    int64         `env:"TELEGRAM_OWNER_ID,required"`
	AskTimeout time.Duration `env:"TELEGRAM_ASK_TIMEOUT" envDefault:"5m"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}
