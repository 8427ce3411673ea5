package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/retry"
)

func TestDurationParam(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]any
		fallback time.Duration
		limit    time.Duration
		want     time.Duration
	}{
		{
			name:     "within_limit",
			params:   map[string]any{"duration": 10.0},
			fallback: 5 * time.Second,
			limit:    60 * time.Second,
			want:     10 * time.Second,
		},
		{
			name:     "clamped_to_limit",
			params:   map[string]any{"duration": 9999.0},
			fallback: 5 * time.Second,
			limit:    300 * time.Second,
			want:     300 * time.Second,
		},
		{
			name:     "negative_becomes_zero",
			params:   map[string]any{"duration": -3.0},
			fallback: 5 * time.Second,
			limit:    60 * time.Second,
			want:     0,
		},
		{
			name:     "missing_uses_fallback",
			params:   map[string]any{},
			fallback: 5 * time.Second,
			limit:    60 * time.Second,
			want:     5 * time.Second,
		},
		{
			name:     "int_value",
			params:   map[string]any{"duration": 7},
			fallback: 5 * time.Second,
			limit:    60 * time.Second,
			want:     7 * time.Second,
		},
		{
			name:     "non_numeric_uses_fallback",
			params:   map[string]any{"duration": "soon"},
			fallback: 5 * time.Second,
			limit:    60 * time.Second,
			want:     5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := durationParam(tt.params, "duration", tt.fallback, tt.limit)
			if got != tt.want {
				t.Errorf("durationParam = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObserveAction(t *testing.T) {
	e, _ := newTestExecutor()

	result := e.Execute(context.Background(), core.Decision{
		Action:     "observe",
		Parameters: map[string]any{"duration": 0},
	})

	if !result.Success {
		t.Fatalf("observe failed: %s", result.Error)
	}
	data := result.Data.(map[string]any)
	if data["observation"] != "Monitoring completed" {
		t.Errorf("observation = %v", data["observation"])
	}
}

func TestThinkAction(t *testing.T) {
	e, _ := newTestExecutor()

	result := e.Execute(context.Background(), core.Decision{
		Action:     "think",
		Parameters: map[string]any{"topic": "eviction policy", "duration": 0},
	})

	if !result.Success {
		t.Fatalf("think failed: %s", result.Error)
	}
	data := result.Data.(map[string]any)
	if data["reflection"] != "Reflected on eviction policy" {
		t.Errorf("reflection = %v", data["reflection"])
	}
}

func TestCommunicateAction(t *testing.T) {
	t.Run("without_notifier", func(t *testing.T) {
		e, _ := newTestExecutor()

		result := e.Execute(context.Background(), core.Decision{Action: "communicate"})
		if result.Success {
			t.Fatal("communicate without a notifier must fail")
		}
		if !strings.Contains(result.Error, "notification channel") {
			t.Errorf("error = %q", result.Error)
		}
	})

	t.Run("with_notifier", func(t *testing.T) {
		e, _ := newTestExecutor()
		n := &fakeNotifier{ok: true}
		e.SetNotifier(n)

		result := e.Execute(context.Background(), core.Decision{
			Action:     "communicate",
			Parameters: map[string]any{"message": "status report"},
		})

		if !result.Success {
			t.Fatalf("communicate failed: %s", result.Error)
		}
		if len(n.sent) != 1 || n.sent[0] != "status report" {
			t.Errorf("sent = %v", n.sent)
		}
		data := result.Data.(map[string]any)
		if data["sent"] != true {
			t.Errorf("sent flag = %v", data["sent"])
		}
	})
}

func TestSearchAction(t *testing.T) {
	t.Run("missing_query", func(t *testing.T) {
		e, _ := newTestExecutor()

		result := e.Execute(context.Background(), core.Decision{Action: "search"})
		if result.Success {
			t.Fatal("search without query must fail")
		}
	})

	t.Run("memory_scope", func(t *testing.T) {
		e, mem := newTestExecutor()
		mem.records = []core.MemoryRecord{
			{Kind: core.KindObservation, Content: "the server restarted at noon"},
			{Kind: core.KindObservation, Content: "unrelated"},
		}

		result := e.Execute(context.Background(), core.Decision{
			Action:     "search",
			Parameters: map[string]any{"query": "server", "scope": "memory"},
		})

		if !result.Success {
			t.Fatalf("memory search failed: %s", result.Error)
		}
		data := result.Data.(map[string]any)
		if data["count"] != 1 {
			t.Errorf("count = %v, want 1", data["count"])
		}
	})

	t.Run("web_without_searcher", func(t *testing.T) {
		e, _ := newTestExecutor()

		result := e.Execute(context.Background(), core.Decision{
			Action:     "search",
			Parameters: map[string]any{"query": "anything"},
		})
		if result.Success {
			t.Fatal("web search without a searcher must fail")
		}
		if !strings.Contains(result.Error, "web search not available") {
			t.Errorf("error = %q", result.Error)
		}
	})
}

func TestLearnAction(t *testing.T) {
	t.Run("missing_information", func(t *testing.T) {
		e, _ := newTestExecutor()

		result := e.Execute(context.Background(), core.Decision{Action: "learn"})
		if result.Success {
			t.Fatal("learn without information must fail")
		}
	})

	t.Run("stores_record", func(t *testing.T) {
		e, mem := newTestExecutor()

		result := e.Execute(context.Background(), core.Decision{
			Action: "learn",
			Parameters: map[string]any{
				"information": "backups run nightly at 03:00",
				"category":    "operations",
			},
		})

		if !result.Success {
			t.Fatalf("learn failed: %s", result.Error)
		}
		if len(mem.records) != 1 {
			t.Fatalf("stored records = %d, want 1", len(mem.records))
		}
		r := mem.records[0]
		if r.Kind != core.KindObservation {
			t.Errorf("kind = %s", r.Kind)
		}
		if r.Context["category"] != "operations" {
			t.Errorf("category = %v", r.Context["category"])
		}
		if r.Context["source"] != "learn" {
			t.Errorf("source = %v", r.Context["source"])
		}
	})
}

func TestFetchAction(t *testing.T) {
	noRetry := retry.NewDefaultConfig()
	noRetry.MaxRetries = 0

	t.Run("missing_url", func(t *testing.T) {
		e, _ := newTestExecutor()

		result := e.Execute(context.Background(), core.Decision{Action: "fetch"})
		if result.Success {
			t.Fatal("fetch without url must fail")
		}
		if !strings.Contains(result.Error, "url is required") {
			t.Errorf("error = %q", result.Error)
		}
	})

	t.Run("converts_html_to_text", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><h1>Release Notes</h1><p>Nothing broke this week.</p></body></html>"))
		}))
		defer server.Close()

		e, _ := newTestExecutor()

		result := e.Execute(context.Background(), core.Decision{
			Action:     "fetch",
			Parameters: map[string]any{"url": server.URL},
		})

		if !result.Success {
			t.Fatalf("fetch failed: %s", result.Error)
		}
		data := result.Data.(map[string]any)
		if data["url"] != server.URL {
			t.Errorf("url = %v", data["url"])
		}
		content := data["content"].(string)
		if !strings.Contains(content, "Release Notes") || !strings.Contains(content, "Nothing broke this week.") {
			t.Errorf("content = %q", content)
		}
		if strings.Contains(content, "<p>") {
			t.Errorf("content still contains HTML tags: %q", content)
		}
	})

	t.Run("truncates_long_pages", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><p>" + strings.Repeat("lorem ipsum ", 500) + "</p></body></html>"))
		}))
		defer server.Close()

		e, _ := newTestExecutor()

		result := e.Execute(context.Background(), core.Decision{
			Action:     "fetch",
			Parameters: map[string]any{"url": server.URL},
		})

		if !result.Success {
			t.Fatalf("fetch failed: %s", result.Error)
		}
		content := result.Data.(map[string]any)["content"].(string)
		if !strings.HasSuffix(content, "[truncated]") {
			t.Errorf("long page was not truncated: ...%q", content[len(content)-30:])
		}
	})

	t.Run("http_error_status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		e, _ := newTestExecutor()
		e.fetchRetrier = retry.NewRetrier(noRetry)

		result := e.Execute(context.Background(), core.Decision{
			Action:     "fetch",
			Parameters: map[string]any{"url": server.URL},
		})

		if result.Success {
			t.Fatal("fetch of a 404 must fail")
		}
		if !strings.Contains(result.Error, "404") {
			t.Errorf("error = %q", result.Error)
		}
	})
}

func TestAnalyzeAction(t *testing.T) {
	e, _ := newTestExecutor()

	result := e.Execute(context.Background(), core.Decision{
		Action:     "analyze",
		Parameters: map[string]any{"data": "one two three"},
	})

	if !result.Success {
		t.Fatalf("analyze failed: %s", result.Error)
	}
	data := result.Data.(map[string]any)
	if data["word_count"] != 3 {
		t.Errorf("word_count = %v, want 3", data["word_count"])
	}
	if data["character_count"] != 13 {
		t.Errorf("character_count = %v, want 13", data["character_count"])
	}
}
