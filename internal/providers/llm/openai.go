package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
)

const openAIBaseURL = "https://api.openai.com"

type OpenAI struct {
	baseProvider
}

func NewOpenAI(cfg *config.LLMConfig) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{
		baseProvider: newBaseProvider(
			openAIBaseURL,
			cfg.APIKey,
			model,
			time.Duration(cfg.TimeoutSec)*time.Second,
			cfg.MaxRetries,
		),
	}
}

func (o *OpenAI) Generate(ctx context.Context, prompt string, opts core.GenerateOptions) (core.Completion, error) {
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  opts.MaxTokens,
		"temperature": opts.Temperature,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}

	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
	}

	if err := o.postJSON(ctx, o.baseURL+"/v1/chat/completions", payload, headers, &result); err != nil {
		return core.Completion{}, err
	}
	if len(result.Choices) == 0 {
		return core.Completion{}, fmt.Errorf("empty choices in openai response")
	}

	return core.Completion{
		Content:    result.Choices[0].Message.Content,
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}
