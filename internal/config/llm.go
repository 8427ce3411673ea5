package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/loopbot/pkg/log"
)

// LLMConfig configures the language-model backend. ServerType left empty
// means the agent runs without a model and every consumer degrades to its
// deterministic fallback.
type LLMConfig struct {
	ServerType  string  `env:"LLM_SERVER_TYPE"`
	APIURL      string  `env:"LLM_API_URL" envDefault:"http://localhost:11434"`
	APIKey      string  `env:"LLM_API_KEY"`
	Model       string  `env:"LLM_MODEL"`
	TimeoutSec  int     `env:"LLM_TIMEOUT" envDefault:"30"`
	MaxRetries  int     `env:"LLM_MAX_RETRIES" envDefault:"3"`
	Temperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

func (c LLMConfig) Configured() bool {
	return c.ServerType != ""
}
