package reason

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/log"
)

const reasoningPreview = 200

// parseDecision turns raw model output into a Decision. Two tiers: a
// strict parse of the outermost JSON object span, then keyword sniffing of
// the raw text. Both tiers are total, so the caller always gets a
// well-formed Decision.
func parseDecision(ctx context.Context, raw string) core.Decision {
	decision, err := parseStrict(raw)
	if err == nil {
		return decision
	}
	log.FromCtx(ctx).Warn().Err(err).Msg("failed to parse decision JSON")

	return parseHeuristic(raw)
}

// parseStrict extracts the span between the first '{' and the last '}'
// and decodes it, filling defaults for absent fields.
func parseStrict(raw string) (core.Decision, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return core.Decision{}, fmt.Errorf("no JSON object found in response")
	}

	var data struct {
		Action     string         `json:"action"`
		Reasoning  string         `json:"reasoning"`
		Parameters map[string]any `json:"parameters"`
		Confidence any            `json:"confidence"`
		Priority   any            `json:"priority"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &data); err != nil {
		return core.Decision{}, fmt.Errorf("unmarshal decision: %w", err)
	}

	decision := core.Decision{
		Action:     data.Action,
		Reasoning:  data.Reasoning,
		Parameters: data.Parameters,
		Confidence: 1.0,
		Priority:   1,
	}
	if decision.Action == "" {
		decision.Action = "wait"
	}
	if decision.Reasoning == "" {
		decision.Reasoning = "Parsed from LLM response"
	}
	if decision.Parameters == nil {
		decision.Parameters = map[string]any{}
	}
	if data.Confidence != nil {
		confidence, err := numericField(data.Confidence)
		if err != nil {
			return core.Decision{}, fmt.Errorf("confidence: %w", err)
		}
		decision.Confidence = confidence
	}
	if data.Priority != nil {
		priority, err := numericField(data.Priority)
		if err != nil {
			return core.Decision{}, fmt.Errorf("priority: %w", err)
		}
		decision.Priority = int(priority)
	}
	return decision, nil
}

// numericField accepts JSON numbers and numeric strings. Models routinely
// emit "0.8" where the schema says number, or 1.0 where it says integer.
func numericField(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("non-numeric value of type %T", v)
	}
}

// parseHeuristic sniffs the lower-cased raw text for action keywords in
// fixed priority order, defaulting to wait.
func parseHeuristic(raw string) core.Decision {
	lower := strings.ToLower(raw)
	head := truncateRunes(raw, reasoningPreview)

	decision := func(action, reasoning string) core.Decision {
		return core.Decision{
			Action:     action,
			Reasoning:  reasoning,
			Confidence: 1.0,
			Priority:   1,
		}
	}

	switch {
	case strings.Contains(lower, "observe"):
		return decision("observe", head)
	case strings.Contains(lower, "think"), strings.Contains(lower, "reflect"):
		return decision("think", head)
	case strings.Contains(lower, "communicate"), strings.Contains(lower, "message"):
		return decision("communicate", head)
	case strings.Contains(lower, "search"):
		return decision("search", head)
	default:
		return decision("wait", "Default action - "+head)
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
