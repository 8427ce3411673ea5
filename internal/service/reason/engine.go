package reason

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/log"
)

const (
	decisionMaxTokens = 500
	responseMaxTokens = 1000
	evalMaxTokens     = 200

	// Decisions favor determinism; free-form replies use the configured
	// temperature.
	decisionTemperature = 0.3
	evalTemperature     = 0.1

	apologyReply = "I apologize, but I'm having trouble processing your message right now. Please try again."
	offlineReply = "I'm sorry, but my language model is not available right now."
)

// Engine turns assembled context into typed decisions and chat replies.
// All entry points are total: every failure path yields a usable fallback.
type Engine struct {
	llm         core.TextCompleter // nil when no model is configured
	personality string
	temperature float64
	tokenBudget int

	mu          sync.Mutex
	currentGoal string
}

func NewEngine(llmCfg *config.LLMConfig, memCfg *config.MemoryConfig, llm core.TextCompleter) *Engine {
	return &Engine{
		llm:         llm,
		personality: "helpful and intelligent AI assistant",
		temperature: llmCfg.Temperature,
		tokenBudget: memCfg.MaxTokens,
	}
}

// UpdateGoal replaces the goal embedded in every prompt.
func (e *Engine) UpdateGoal(goal string) {
	e.mu.Lock()
	e.currentGoal = goal
	e.mu.Unlock()
}

func (e *Engine) goal() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentGoal
}

// DecideNextAction picks the next action for the given context. It never
// returns an error: model failures become a wait decision carrying the
// failure text, and a missing model becomes a bounded observe.
func (e *Engine) DecideNextAction(ctx context.Context, c core.Context) core.Decision {
	if e.llm == nil {
		return core.Decision{
			Action:     "observe",
			Reasoning:  "No LLM available, defaulting to observation",
			Parameters: map[string]any{"duration": 60},
			Confidence: 1.0,
			Priority:   1,
		}
	}

	prompt := e.buildDecisionPrompt(c)

	resp, err := e.llm.Generate(ctx, prompt, core.GenerateOptions{
		MaxTokens:   decisionMaxTokens,
		Temperature: decisionTemperature,
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to generate decision")
		return core.Decision{
			Action:     "wait",
			Reasoning:  "Error in decision making: " + err.Error(),
			Parameters: map[string]any{"duration": 30},
			Confidence: 1.0,
			Priority:   1,
		}
	}

	decision := parseDecision(ctx, resp.Content)
	log.FromCtx(ctx).Info().Str("action", decision.Action).Msg("decided on action")
	return decision
}

// GenerateResponse produces a conversational reply to user input. Any
// failure yields a fixed apology instead of an error.
func (e *Engine) GenerateResponse(ctx context.Context, userInput string, c core.Context) string {
	if e.llm == nil {
		return offlineReply
	}

	prompt := e.buildResponsePrompt(userInput, c)

	resp, err := e.llm.Generate(ctx, prompt, core.GenerateOptions{
		MaxTokens:   responseMaxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to generate response")
		return apologyReply
	}

	return strings.TrimSpace(resp.Content)
}

// Evaluation is the engine's score for an already-executed decision.
type Evaluation struct {
	Evaluation    string  `json:"evaluation"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

func neutralEvaluation() Evaluation {
	return Evaluation{
		Evaluation:    "neutral",
		Score:         0.5,
		Justification: "Unable to evaluate properly",
	}
}

// EvaluateDecision rates a completed action 0-1. Strict JSON is expected
// from the model; anything else degrades to the neutral evaluation.
func (e *Engine) EvaluateDecision(ctx context.Context, decision core.Decision, result core.ActionResult) Evaluation {
	if e.llm == nil {
		return neutralEvaluation()
	}

	prompt := buildEvaluationPrompt(decision, result)

	resp, err := e.llm.Generate(ctx, prompt, core.GenerateOptions{
		MaxTokens:   evalMaxTokens,
		Temperature: evalTemperature,
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("evaluation request failed")
		return neutralEvaluation()
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Content)), &eval); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to parse evaluation response")
		return neutralEvaluation()
	}
	if eval.Evaluation == "" {
		eval.Evaluation = "unknown"
	}
	return eval
}
