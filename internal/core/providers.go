package core

import "context"

type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

type Completion struct {
	Content    string
	TokensUsed int
}

// TextCompleter is the language-model collaborator. Implementations may
// fail on network or server errors; callers degrade, they never propagate.
type TextCompleter interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (Completion, error)
}

// Notifier delivers text to the single authorized chat and can block on a
// reply. Send is best-effort; Ask returns false on timeout.
type Notifier interface {
	Send(ctx context.Context, text string) bool
	Ask(ctx context.Context, question string) (string, bool)
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearcher is the web-search collaborator.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}
