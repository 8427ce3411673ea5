package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inbucket/html2text"
	"github.com/sandevgo/loopbot/internal/core"
)

// Duration caps per action. Requested durations are clamped, never
// rejected.
const (
	observeCap = 60 * time.Second
	thinkCap   = 30 * time.Second
	waitCap    = 300 * time.Second

	fetchTimeout     = 15 * time.Second
	maxFetchSize     = 1 << 20
	maxFetchedChars  = 2000
	learnPreviewSize = 100
)

func (e *Executor) registerBuiltins() {
	e.Register("observe", e.observeAction)
	e.Register("think", e.thinkAction)
	e.Register("wait", e.waitAction)
	e.Register("communicate", e.communicateAction)
	e.Register("search", e.searchAction)
	e.Register("learn", e.learnAction)
	e.Register("analyze", e.analyzeAction)
	e.Register("fetch", e.fetchAction)
}

func (e *Executor) observeAction(ctx context.Context, params map[string]any) (any, error) {
	duration := durationParam(params, "duration", 10*time.Second, observeCap)
	if err := sleepCtx(ctx, duration); err != nil {
		return nil, err
	}
	return map[string]any{
		"observation": "Monitoring completed",
		"duration":    duration.Seconds(),
	}, nil
}

func (e *Executor) thinkAction(ctx context.Context, params map[string]any) (any, error) {
	topic := stringParam(params, "topic", "general reflection")
	duration := durationParam(params, "duration", 5*time.Second, thinkCap)
	if err := sleepCtx(ctx, duration); err != nil {
		return nil, err
	}
	return map[string]any{
		"reflection": "Reflected on " + topic,
		"duration":   duration.Seconds(),
	}, nil
}

func (e *Executor) waitAction(ctx context.Context, params map[string]any) (any, error) {
	duration := durationParam(params, "duration", 5*time.Second, waitCap)
	if err := sleepCtx(ctx, duration); err != nil {
		return nil, err
	}
	return map[string]any{
		"waited":   duration.Seconds(),
		"duration": duration.Seconds(),
	}, nil
}

func (e *Executor) communicateAction(ctx context.Context, params map[string]any) (any, error) {
	message := stringParam(params, "message", "Hello!")

	notifier := e.notifier()
	if notifier == nil {
		return nil, fmt.Errorf("notification channel not available")
	}

	sent := notifier.Send(ctx, message)
	return map[string]any{
		"message": message,
		"sent":    sent,
	}, nil
}

// searchAction queries the web-search collaborator (or the memory store
// when scope is "memory") and records the outcome as an observation.
func (e *Executor) searchAction(ctx context.Context, params map[string]any) (any, error) {
	query := stringParam(params, "query", "")
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	limit := intParam(params, "num_results", 3)

	if stringParam(params, "scope", "web") == "memory" {
		records := e.deps.Memory.Search(ctx, query, limit)
		contents := make([]string, 0, len(records))
		for _, r := range records {
			contents = append(contents, r.Content)
		}
		return map[string]any{
			"query":   query,
			"results": contents,
			"count":   len(contents),
		}, nil
	}

	if e.deps.Searcher == nil {
		return nil, fmt.Errorf("web search not available")
	}

	results, err := e.deps.Searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	e.deps.Memory.StoreRecord(ctx,
		core.KindObservation,
		fmt.Sprintf("Web search for %q returned %d results", query, len(results)),
		1.0,
		map[string]any{"query": query, "source": "search"},
	)

	return map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	}, nil
}

func (e *Executor) learnAction(ctx context.Context, params map[string]any) (any, error) {
	information := stringParam(params, "information", "")
	if information == "" {
		return nil, fmt.Errorf("information to learn is required")
	}
	category := stringParam(params, "category", "general")

	e.deps.Memory.StoreRecord(ctx,
		core.KindObservation,
		information,
		1.0,
		map[string]any{"category": category, "source": "learn"},
	)

	preview := information
	if len(preview) > learnPreviewSize {
		preview = preview[:learnPreviewSize] + "..."
	}
	return map[string]any{
		"learned":  preview,
		"category": category,
		"stored":   true,
	}, nil
}

func (e *Executor) analyzeAction(ctx context.Context, params map[string]any) (any, error) {
	data := stringParam(params, "data", "")
	if data == "" {
		return nil, fmt.Errorf("data to analyze is required")
	}
	analysisType := stringParam(params, "type", "general")

	preview := data
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}

	return map[string]any{
		"type":            analysisType,
		"word_count":      len(strings.Fields(data)),
		"character_count": len(data),
		"data_preview":    preview,
	}, nil
}

// fetchAction retrieves a URL and converts it to readable text.
func (e *Executor) fetchAction(ctx context.Context, params map[string]any) (any, error) {
	rawURL := stringParam(params, "url", "")
	if rawURL == "" {
		return nil, fmt.Errorf("url is required")
	}

	var body string
	err := e.fetchRetrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", core.BotUserAgent)

		resp, err := e.fetchClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		}

		limitedReader := io.LimitReader(resp.Body, maxFetchSize)
		body, err = html2text.FromReader(limitedReader, html2text.Options{
			OmitLinks:    false,
			PrettyTables: true,
		})
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(body) > maxFetchedChars {
		body = body[:maxFetchedChars] + "\n... [truncated]"
	}
	return map[string]any{
		"url":     rawURL,
		"content": body,
	}, nil
}

// sleepCtx pauses for d or until the context is cancelled, so actions stay
// cooperatively cancellable at shutdown.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		// JSON numbers decode as float64
		return int(v)
	default:
		return fallback
	}
}

func durationParam(params map[string]any, key string, fallback, limit time.Duration) time.Duration {
	var seconds float64
	switch v := params[key].(type) {
	case int:
		seconds = float64(v)
	case float64:
		seconds = v
	default:
		return min(fallback, limit)
	}

	d := time.Duration(seconds * float64(time.Second))
	if d < 0 {
		return 0
	}
	return min(d, limit)
}
