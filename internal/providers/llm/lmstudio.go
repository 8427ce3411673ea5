package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
)

// LMStudio speaks the plain /v1/completions API shared by LM Studio and
// oobabooga's text-generation-webui.
type LMStudio struct {
	baseProvider
}

func NewLMStudio(cfg *config.LLMConfig) *LMStudio {
	return &LMStudio{
		baseProvider: newBaseProvider(
			cfg.APIURL,
			cfg.APIKey,
			cfg.Model,
			time.Duration(cfg.TimeoutSec)*time.Second,
			cfg.MaxRetries,
		),
	}
}

func (l *LMStudio) Generate(ctx context.Context, prompt string, opts core.GenerateOptions) (core.Completion, error) {
	payload := map[string]any{
		"prompt":      prompt,
		"max_tokens":  opts.MaxTokens,
		"temperature": opts.Temperature,
		"stream":      false,
	}
	if l.model != "" {
		payload["model"] = l.model
	}

	var result struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}

	headers := map[string]string{}
	if l.apiKey != "" {
		headers["Authorization"] = "Bearer " + l.apiKey
	}

	if err := l.postJSON(ctx, l.baseURL+"/v1/completions", payload, headers, &result); err != nil {
		return core.Completion{}, err
	}
	if len(result.Choices) == 0 {
		return core.Completion{}, fmt.Errorf("empty choices in completions response")
	}

	return core.Completion{
		Content:    result.Choices[0].Text,
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}
