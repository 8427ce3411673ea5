package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/retry"
)

const (
	duckDuckGoURL      = "https://api.duckduckgo.com/"
	defaultHTTPTimeout = 15 * time.Second
	maxResponseSize    = 1 << 20 // 1MB limit
)

// DuckDuckGo queries the Instant Answer API. No API key required.
type DuckDuckGo struct {
	client  *http.Client
	retrier *retry.Retrier
	baseURL string
}

func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		client: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		retrier: retry.NewDefaultRetrier(),
		baseURL: duckDuckGoURL,
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 3
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	var parsed ddgResponse
	err := d.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", core.BotUserAgent)

		resp, err := d.client.Do(req)
		if err != nil {
			return fmt.Errorf("search request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http %d: %s", resp.StatusCode, resp.Status)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return collectResults(parsed, limit), nil
}

func collectResults(r ddgResponse, limit int) []core.SearchResult {
	results := make([]core.SearchResult, 0, limit)

	if r.AbstractText != "" {
		results = append(results, core.SearchResult{
			Title:   r.Heading,
			URL:     r.AbstractURL,
			Snippet: r.AbstractText,
		})
	}

	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, t := range topics {
			if len(results) >= limit {
				return
			}
			if len(t.Topics) > 0 {
				walk(t.Topics)
				continue
			}
			if t.Text == "" {
				continue
			}
			results = append(results, core.SearchResult{
				Title:   topicTitle(t.Text),
				URL:     t.FirstURL,
				Snippet: t.Text,
			})
		}
	}
	walk(r.RelatedTopics)

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// topicTitle keeps the leading phrase of a related-topic text as its title.
func topicTitle(text string) string {
	if idx := strings.Index(text, " - "); idx > 0 {
		return text[:idx]
	}
	const maxTitle = 60
	if len(text) > maxTitle {
		return text[:maxTitle]
	}
	return text
}
