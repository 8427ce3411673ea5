package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/loopbot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"LOOPBOT_RUNTIME_PATH" envDefault:".loopbot"`

	// Transport flags
	EnableTelegram      bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableNotifications bool `env:"ENABLE_NOTIFICATIONS" envDefault:"true"`

	// Loop pacing
	CycleInterval time.Duration `env:"CYCLE_INTERVAL" envDefault:"100ms"`
	ErrorBackoff  time.Duration `env:"ERROR_BACKOFF" envDefault:"5s"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetSnapshotPath() string {
	return filepath.Join(c.RuntimePath, "memories.json")
}

func (c AppConfig) GetStatePath() string {
	return filepath.Join(c.RuntimePath, "agent_state.json")
}
