package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/internal/service/executor"
	"github.com/sandevgo/loopbot/internal/service/memory"
	"github.com/sandevgo/loopbot/internal/service/reason"
	"github.com/sandevgo/loopbot/pkg/log"
)

// Agent drives the closed decision cycle: fetch context, decide, execute,
// record the experience. A failing cycle is isolated and backed off; only
// context cancellation stops the loop.
type Agent struct {
	cfg      *config.AppConfig
	memory   *memory.Store
	reason   *reason.Engine
	executor *executor.Executor
	notifier core.Notifier // nil when no chat transport is configured

	mu    sync.Mutex
	state core.AgentState
}

func NewAgent(
	cfg *config.AppConfig,
	mem *memory.Store,
	engine *reason.Engine,
	exec *executor.Executor,
) *Agent {
	return &Agent{
		cfg:      cfg,
		memory:   mem,
		reason:   engine,
		executor: exec,
		state: core.AgentState{
			IsActive:  true,
			StartTime: time.Now(),
		},
	}
}

// SetNotifier attaches the chat transport after construction; transports
// depend on the agent, so the wiring is completed in setup.
func (a *Agent) SetNotifier(n core.Notifier) {
	a.mu.Lock()
	a.notifier = n
	a.mu.Unlock()
}

func (a *Agent) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	a.loadState(ctx)
	a.mu.Lock()
	a.state.IsActive = true
	a.state.StartTime = time.Now()
	restoredGoal := a.state.CurrentGoal
	a.mu.Unlock()
	if restoredGoal != "" {
		a.reason.UpdateGoal(restoredGoal)
	}

	logger.Info().Msg("starting agent loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		pause := a.cfg.CycleInterval
		if err := a.runCycle(ctx); err != nil {
			logger.Error().Err(err).Msg("error in agent cycle")
			a.mu.Lock()
			a.state.ErrorCount++
			a.mu.Unlock()
			pause = a.cfg.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pause):
		}
	}
}

func (a *Agent) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.state.IsActive = false
	a.mu.Unlock()

	a.saveState(ctx)
	log.FromCtx(ctx).Info().Msg("agent shut down")
	return nil
}

// runCycle executes one full pipeline iteration. Every failure inside the
// cycle surfaces here as an error; nothing terminates the loop.
func (a *Agent) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	cycleCtx := a.memory.GetContext(ctx, 0)

	decision := a.reason.DecideNextAction(ctx, cycleCtx)

	result := a.executor.Execute(ctx, decision)

	a.memory.StoreExperience(ctx, decision, result)

	a.mu.Lock()
	a.state.LastAction = decision.Action
	a.state.ActionCount++
	notifier := a.notifier
	a.mu.Unlock()

	if notifier != nil && a.cfg.EnableNotifications {
		icon := "✅"
		if !result.Success {
			icon = "❌"
		}
		notifier.Send(ctx, fmt.Sprintf("%s Action completed: %s", icon, decision.Action))
	}

	return nil
}

// ProcessUserInput answers a direct user message and records both sides of
// the exchange.
func (a *Agent) ProcessUserInput(ctx context.Context, input string) string {
	log.FromCtx(ctx).Info().Int("len", len(input)).Msg("processing user input")

	a.memory.StoreMessage(ctx, core.RoleUser, input)

	response := a.reason.GenerateResponse(ctx, input, a.memory.GetContext(ctx, 0))

	a.memory.StoreMessage(ctx, core.RoleAssistant, response)

	return response
}

// SetGoal records a new goal in memory and steers future decisions.
func (a *Agent) SetGoal(ctx context.Context, goal string) {
	log.FromCtx(ctx).Info().Str("goal", goal).Msg("setting new goal")

	a.mu.Lock()
	a.state.CurrentGoal = goal
	a.mu.Unlock()

	a.memory.StoreGoal(ctx, goal)
	a.reason.UpdateGoal(goal)
}

// Status is the agent's externally visible condition.
type Status struct {
	Active      bool
	Uptime      time.Duration
	ActionCount int
	ErrorCount  int
	CurrentGoal string
	LastAction  string
	Memory      memory.Stats
}

func (a *Agent) Status() Status {
	a.mu.Lock()
	state := a.state
	a.mu.Unlock()

	return Status{
		Active:      state.IsActive,
		Uptime:      time.Since(state.StartTime),
		ActionCount: state.ActionCount,
		ErrorCount:  state.ErrorCount,
		CurrentGoal: state.CurrentGoal,
		LastAction:  state.LastAction,
		Memory:      a.memory.Stats(),
	}
}
