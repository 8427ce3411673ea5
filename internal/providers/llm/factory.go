package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/log"
)

// NewProvider creates the TextCompleter matching LLM_SERVER_TYPE. An
// unsupported type is a configuration error and the caller treats it as
// fatal before the loop starts.
func NewProvider(ctx context.Context, cfg *config.LLMConfig) (core.TextCompleter, error) {
	log.FromCtx(ctx).Info().
		Str("server_type", cfg.ServerType).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	switch cfg.ServerType {
	case "ollama":
		return NewOllama(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "lmstudio", "oobabooga":
		// Same completions API
		return NewLMStudio(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm server type: %s", cfg.ServerType)
	}
}
