package executor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/log"
	"github.com/sandevgo/loopbot/pkg/retry"
)

// Handler is the executable unit behind a named action. Handlers validate
// their own parameters and enforce their own duration caps.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// MemoryStore is the slice of the memory system the built-in handlers use.
type MemoryStore interface {
	StoreRecord(ctx context.Context, kind, content string, importance float64, meta map[string]any)
	Search(ctx context.Context, query string, limit int) []core.MemoryRecord
}

// Deps are the collaborators handed to the built-in handlers. Searcher and
// Notifier may be nil; the affected handlers degrade to structured errors.
type Deps struct {
	Memory   MemoryStore
	Searcher core.WebSearcher
	Notifier core.Notifier
}

// Executor dispatches decisions to registered handlers. Dispatch is pure
// lookup-and-invoke; handler failures are captured into the ActionResult
// and never propagate.
type Executor struct {
	deps Deps

	fetchClient  *http.Client
	fetchRetrier *retry.Retrier

	mu       sync.Mutex
	registry map[string]Handler
	inflight map[int64]context.CancelFunc
	nextID   int64
	wg       sync.WaitGroup
}

func NewExecutor(deps Deps) *Executor {
	e := &Executor{
		deps:         deps,
		fetchClient:  &http.Client{Timeout: fetchTimeout},
		fetchRetrier: retry.NewDefaultRetrier(),
		registry:     make(map[string]Handler),
		inflight:     make(map[int64]context.CancelFunc),
	}
	e.registerBuiltins()
	return e
}

// Register adds or replaces a handler. This is the extensibility seam: new
// capabilities plug in without touching dispatch.
func (e *Executor) Register(name string, handler Handler) {
	e.mu.Lock()
	e.registry[name] = handler
	e.mu.Unlock()
}

// SetNotifier attaches the chat transport after construction; transports
// are wired up last in setup.
func (e *Executor) SetNotifier(n core.Notifier) {
	e.mu.Lock()
	e.deps.Notifier = n
	e.mu.Unlock()
}

func (e *Executor) notifier() core.Notifier {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deps.Notifier
}

// AvailableActions lists the registered action names.
func (e *Executor) AvailableActions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.registry))
	for name := range e.registry {
		names = append(names, name)
	}
	return names
}

// Execute dispatches a decision to its handler and wraps the outcome into
// an ActionResult. It never returns an error and never panics: unknown
// actions, handler errors and handler panics all become failed results.
func (e *Executor) Execute(ctx context.Context, decision core.Decision) core.ActionResult {
	start := time.Now()

	e.mu.Lock()
	handler, ok := e.registry[decision.Action]
	e.mu.Unlock()

	if !ok {
		return core.ActionResult{
			Success:   false,
			Message:   fmt.Sprintf("Unknown action: %s", decision.Action),
			Error:     fmt.Sprintf("No handler registered for action '%s'", decision.Action),
			Duration:  time.Since(start).Seconds(),
			Timestamp: time.Now(),
		}
	}

	log.FromCtx(ctx).Info().Str("action", decision.Action).Msg("executing action")

	actionCtx, cancel := context.WithCancel(ctx)
	id := e.track(cancel)
	defer e.untrack(id, cancel)

	data, err := e.invoke(actionCtx, handler, decision.Parameters)
	duration := time.Since(start).Seconds()

	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("action", decision.Action).Msg("action failed")
		return core.ActionResult{
			Success:   false,
			Message:   fmt.Sprintf("Action '%s' failed", decision.Action),
			Error:     err.Error(),
			Duration:  duration,
			Timestamp: time.Now(),
		}
	}

	return core.ActionResult{
		Success:   true,
		Data:      data,
		Message:   fmt.Sprintf("Action '%s' completed successfully", decision.Action),
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

// invoke runs the handler with panic isolation.
func (e *Executor) invoke(ctx context.Context, handler Handler, params map[string]any) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	if params == nil {
		params = map[string]any{}
	}
	return handler(ctx, params)
}

// Shutdown cancels every in-flight action and waits for all of them to
// reach a terminal state. Individual action errors are already captured in
// their results and are not surfaced here.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	for _, cancel := range e.inflight {
		cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timed out waiting for in-flight actions")
	}
}

func (e *Executor) track(cancel context.CancelFunc) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.inflight[id] = cancel
	e.wg.Add(1)
	return id
}

func (e *Executor) untrack(id int64, cancel context.CancelFunc) {
	cancel()

	e.mu.Lock()
	delete(e.inflight, id)
	e.mu.Unlock()

	e.wg.Done()
}
