package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sandevgo/loopbot/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearcher(baseURL string) *DuckDuckGo {
	d := NewDuckDuckGo()
	d.baseURL = baseURL
	d.retrier = retry.NewRetrier(&retry.Config{
		MaxRetries:    0,
		BackoffFactor: 1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
	})
	return d
}

func TestDuckDuckGo_Search(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		limit      int
		handler    http.HandlerFunc
		wantErr    bool
		wantCount  int
		wantFirst  string
		wantSecond string
	}{
		{
			name:  "abstract_and_topics",
			query: "golang",
			limit: 3,
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "golang", r.URL.Query().Get("q"))
				assert.Equal(t, "json", r.URL.Query().Get("format"))
				fmt.Fprint(w, `{
					"Heading": "Go",
					"AbstractText": "Go is a programming language.",
					"AbstractURL": "https://go.dev",
					"RelatedTopics": [
						{"Text": "Gopher - the Go mascot", "FirstURL": "https://go.dev/gopher"},
						{"Text": "Goroutine - lightweight thread", "FirstURL": "https://go.dev/routine"}
					]
				}`)
			},
			wantCount:  3,
			wantFirst:  "Go",
			wantSecond: "Gopher",
		},
		{
			name:  "nested_topics_flattened",
			query: "ambiguous",
			limit: 2,
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{
					"RelatedTopics": [
						{"Topics": [
							{"Text": "First nested - detail", "FirstURL": "https://a"},
							{"Text": "Second nested - detail", "FirstURL": "https://b"}
						]}
					]
				}`)
			},
			wantCount: 2,
			wantFirst: "First nested",
		},
		{
			name:  "limit_enforced",
			query: "many",
			limit: 1,
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{
					"AbstractText": "abstract",
					"Heading": "H",
					"RelatedTopics": [{"Text": "extra", "FirstURL": "https://x"}]
				}`)
			},
			wantCount: 1,
			wantFirst: "H",
		},
		{
			name:  "server_error",
			query: "broken",
			limit: 3,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
		{
			name:  "invalid_json",
			query: "garbage",
			limit: 3,
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "not json at all")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			d := newTestSearcher(server.URL)
			results, err := d.Search(context.Background(), tt.query, tt.limit)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, results, tt.wantCount)
			assert.Equal(t, tt.wantFirst, results[0].Title)
			if tt.wantSecond != "" {
				assert.Equal(t, tt.wantSecond, results[1].Title)
			}
		})
	}
}

func TestDuckDuckGo_EmptyQuery(t *testing.T) {
	d := NewDuckDuckGo()

	_, err := d.Search(context.Background(), "   ", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestTopicTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "dash_separator", text: "Title - description follows", want: "Title"},
		{name: "short_text_kept", text: "just a short phrase", want: "just a short phrase"},
		{
			name: "long_text_truncated",
			text: "this is a very long topic text without any separator that keeps going and going",
			want: "this is a very long topic text without any separator that ke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, topicTitle(tt.text))
		})
	}
}
