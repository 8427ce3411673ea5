package reason

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/loopbot/internal/core"
)

const (
	promptMemories      = 10
	promptDecisionTurns = 5
	promptResponseTurns = 10
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		var err error
		tk, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			panic("failed to load tiktoken: " + err.Error())
		}
	})
	return tk
}

func countTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(getTokenizer().Encode(text, nil, nil))
}

const availableActions = `Available Actions:
- observe: Observe the environment and gather information
- think: Reflect on current situation and plan next steps
- communicate: Send a message or ask for clarification
- search: Search for information on the web
- wait: Pause for a specified duration
- learn: Store important information in memory
- analyze: Break down complex information`

func (e *Engine) buildDecisionPrompt(c core.Context) string {
	goal := e.goal()
	if goal == "" {
		goal = "Observation and learning"
	}

	memories := c.RecentMemories
	if len(memories) > promptMemories {
		memories = memories[:promptMemories]
	}

	turns := c.Conversation
	if len(turns) > promptDecisionTurns {
		turns = turns[len(turns)-promptDecisionTurns:]
	}

	render := func(memories []core.MemoryRecord, turns []core.ConversationTurn) string {
		var b strings.Builder
		fmt.Fprintf(&b, "You are %s.\n\n", e.personality)
		fmt.Fprintf(&b, "Current Goal: %s\n\n", goal)
		fmt.Fprintf(&b, "Active Goals:\n%s\n\n", goalLines(c.ActiveGoals))
		fmt.Fprintf(&b, "Recent Conversation:\n%s\n\n", turnLines(turns))
		fmt.Fprintf(&b, "Recent Memories:\n%s\n\n", memoryLines(memories))
		b.WriteString(availableActions)
		b.WriteString("\n\nInstructions:\n")
		b.WriteString("1. Choose the most appropriate action based on current context\n")
		b.WriteString("2. Consider your goals and recent information\n")
		b.WriteString("3. Be efficient - don't take unnecessary actions\n")
		b.WriteString("4. If something needs clarification, use 'communicate'\n")
		b.WriteString("5. Response must be valid JSON with: action, reasoning, parameters (optional), confidence (0-1)\n\n")
		b.WriteString("Decide the next best action:")
		return b.String()
	}

	prompt := render(memories, turns)

	// Trim context, memories first then turns, until within the token
	// budget. The fixed sections always fit.
	for countTokens(prompt) > e.tokenBudget {
		switch {
		case len(memories) > 0:
			memories = memories[:len(memories)-1]
		case len(turns) > 1:
			turns = turns[1:]
		default:
			return prompt
		}
		prompt = render(memories, turns)
	}
	return prompt
}

func (e *Engine) buildResponsePrompt(userInput string, c core.Context) string {
	goal := e.goal()
	if goal == "" {
		goal = "Assist the user helpfully"
	}

	turns := c.Conversation
	if len(turns) > promptResponseTurns {
		turns = turns[len(turns)-promptResponseTurns:]
	}

	render := func(turns []core.ConversationTurn) string {
		var b strings.Builder
		fmt.Fprintf(&b, "You are %s.\n\n", e.personality)
		fmt.Fprintf(&b, "Current Goal: %s\n\n", goal)
		fmt.Fprintf(&b, "Conversation History:\n%s\n\n", turnLines(turns))
		fmt.Fprintf(&b, "User: %s\n\n", userInput)
		b.WriteString("Respond naturally and helpfully. Keep your response concise but informative.\n")
		b.WriteString("If you need clarification, ask specific questions.\n")
		b.WriteString("Remember your goal and stay focused on helping the user.")
		return b.String()
	}

	prompt := render(turns)
	for countTokens(prompt) > e.tokenBudget && len(turns) > 1 {
		turns = turns[1:]
		prompt = render(turns)
	}
	return prompt
}

func buildEvaluationPrompt(decision core.Decision, result core.ActionResult) string {
	outcome := result.Message
	if result.Error != "" {
		outcome = result.Error
	}

	var b strings.Builder
	b.WriteString("Evaluate the success of this action:\n\n")
	fmt.Fprintf(&b, "Action: %s\n", decision.Action)
	fmt.Fprintf(&b, "Reasoning: %s\n", decision.Reasoning)
	fmt.Fprintf(&b, "Result: %s (success=%t)\n\n", outcome, result.Success)
	b.WriteString("Rate the success on a scale of 0-1, where:\n")
	b.WriteString("0 = Complete failure\n")
	b.WriteString("0.5 = Partial success or neutral\n")
	b.WriteString("1 = Complete success\n\n")
	b.WriteString("Provide a brief justification and the numerical score.\n")
	b.WriteString(`Respond in JSON format with keys: "evaluation", "score", "justification"`)
	return b.String()
}

func memoryLines(memories []core.MemoryRecord) string {
	if len(memories) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, fmt.Sprintf("- %s: %s", strings.ToUpper(m.Kind), m.Content))
	}
	return strings.Join(lines, "\n")
}

func goalLines(goals []core.MemoryRecord) string {
	if len(goals) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(goals))
	for _, g := range goals {
		lines = append(lines, "- "+g.Content)
	}
	return strings.Join(lines, "\n")
}

func turnLines(turns []core.ConversationTurn) string {
	if len(turns) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Role+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}
