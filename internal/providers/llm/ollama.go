package llm

import (
	"context"
	"time"

	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
)

type Ollama struct {
	baseProvider
}

func NewOllama(cfg *config.LLMConfig) *Ollama {
	return &Ollama{
		baseProvider: newBaseProvider(
			cfg.APIURL,
			cfg.APIKey,
			cfg.Model,
			time.Duration(cfg.TimeoutSec)*time.Second,
			cfg.MaxRetries,
		),
	}
}

func (o *Ollama) Generate(ctx context.Context, prompt string, opts core.GenerateOptions) (core.Completion, error) {
	payload := map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var result struct {
		Response  string `json:"response"`
		EvalCount int    `json:"eval_count"`
	}

	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}

	if err := o.postJSON(ctx, o.baseURL+"/api/generate", payload, headers, &result); err != nil {
		return core.Completion{}, err
	}

	return core.Completion{
		Content:    result.Response,
		TokensUsed: result.EvalCount,
	}, nil
}
