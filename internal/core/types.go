package core

import "time"

const (
	BotName       = "LoopBot"
	BotUserAgent  = "LoopBot-Agent/0.1"
	RepositoryURL = "https://github.com/sandevgo/loopbot"
	Version       = "0.1.0"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Memory record kinds.
const (
	KindThought     = "thought"
	KindAction      = "action"
	KindObservation = "observation"
	KindGoal        = "goal"
	KindMessage     = "message"
	KindSummary     = "summary"
)

// MemoryRecord is a single stored unit of agent experience.
type MemoryRecord struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Kind       string         `json:"kind"`
	CreatedAt  time.Time      `json:"created_at"`
	Importance float64        `json:"importance"`
	Context    map[string]any `json:"context,omitempty"`
	// Reserved for vector similarity search, never populated yet.
	Embedding []float32 `json:"embedding,omitempty"`
}

func (r MemoryRecord) AgeHours(now time.Time) float64 {
	age := now.Sub(r.CreatedAt).Hours()
	if age < 0 {
		return 0
	}
	return age
}

// Score is importance weighted by recency. Ranking and eviction both use it.
func (r MemoryRecord) Score(now time.Time) float64 {
	return r.Importance * (1 / (1 + r.AgeHours(now)))
}

// IsActiveGoal reports whether the record is a goal still marked active.
func (r MemoryRecord) IsActiveGoal() bool {
	if r.Kind != KindGoal {
		return false
	}
	active, ok := r.Context["active"].(bool)
	return ok && active
}

// ConversationTurn is one exchange in the rolling chat window, kept
// separately from the full record set for cheap recent-context slicing.
type ConversationTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Context is the bundle handed to the reasoning engine each cycle.
type Context struct {
	RecentMemories  []MemoryRecord
	Conversation    []ConversationTurn
	ActiveGoals     []MemoryRecord
	CurrentThoughts []MemoryRecord
}

// Decision is the reasoning engine's chosen next action.
type Decision struct {
	Action     string         `json:"action"`
	Reasoning  string         `json:"reasoning"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Confidence float64        `json:"confidence"`
	Priority   int            `json:"priority"`
}

// ActionResult is the executor's report on a single dispatched action.
// Error is set iff Success is false.
type ActionResult struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Message   string    `json:"message"`
	Duration  float64   `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// AgentState is the loop's durable bookkeeping, owned exclusively by the
// agent and persisted across restarts.
type AgentState struct {
	IsActive    bool      `json:"is_active"`
	LastAction  string    `json:"last_action,omitempty"`
	CurrentGoal string    `json:"current_goal,omitempty"`
	ActionCount int       `json:"action_count"`
	ErrorCount  int       `json:"error_count"`
	StartTime   time.Time `json:"start_time"`
}
