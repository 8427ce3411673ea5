package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/loopbot/pkg/log"
)

type MemoryConfig struct {
	// Hard cap on stored records; a store that pushes past Capacity evicts
	// the lowest-scored records down to RetainOnEvict.
	Capacity      int `env:"MEMORY_CAPACITY" envDefault:"1000"`
	RetainOnEvict int `env:"MEMORY_RETAIN" envDefault:"900"`

	// Token budget for context assembly in prompts.
	MaxTokens int `env:"MEMORY_MAX_TOKENS" envDefault:"4000"`

	// Background consolidation of old low-importance records.
	AutoSummarize     bool          `env:"MEMORY_AUTO_SUMMARIZE" envDefault:"true"`
	SummarizeInterval time.Duration `env:"MEMORY_SUMMARIZE_INTERVAL" envDefault:"5m"`
	StaleAfter        time.Duration `env:"MEMORY_STALE_AFTER" envDefault:"24h"`
}

func NewMemoryConfig(ctx context.Context) *MemoryConfig {
	c := &MemoryConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Memory config")
	}
	if c.RetainOnEvict > c.Capacity {
		log.FromCtx(ctx).Fatal().
			Int("capacity", c.Capacity).
			Int("retain", c.RetainOnEvict).
			Msg("MEMORY_RETAIN must not exceed MEMORY_CAPACITY")
	}
	return c
}
