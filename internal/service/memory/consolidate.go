package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/pkg/log"
)

const (
	defaultBatchSize     = 10
	defaultMaxImportance = 1.5
	summaryMaxTokens     = 150
)

// Consolidator periodically folds batches of old, low-importance records
// into single summary records using the language model. Without a model it
// is a no-op every cycle.
type Consolidator struct {
	store *Store
	ai    core.TextCompleter

	Interval      time.Duration
	BatchSize     int
	StaleAfter    time.Duration
	MaxImportance float64
}

func NewConsolidator(store *Store, ai core.TextCompleter) *Consolidator {
	return &Consolidator{
		store:         store,
		ai:            ai,
		Interval:      store.cfg.SummarizeInterval,
		BatchSize:     defaultBatchSize,
		StaleAfter:    store.cfg.StaleAfter,
		MaxImportance: defaultMaxImportance,
	}
}

func (c *Consolidator) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Dur("interval", c.Interval).Msg("starting memory consolidator")

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.consolidate(ctx); err != nil {
				logger.Error().Err(err).Msg("memory consolidation failed")
			}
		}
	}
}

func (c *Consolidator) Shutdown(ctx context.Context) error {
	return nil
}

func (c *Consolidator) consolidate(ctx context.Context) error {
	if c.ai == nil {
		return nil
	}

	batch := c.store.staleBatch(c.BatchSize, c.StaleAfter, c.MaxImportance)
	if len(batch) == 0 {
		return nil
	}

	summary, err := c.summarize(ctx, batch)
	if err != nil {
		return fmt.Errorf("summarize batch: %w", err)
	}

	c.store.replaceWithSummary(ctx, batch, summary)

	log.FromCtx(ctx).Debug().Int("count", len(batch)).Msg("consolidated old memories")
	return nil
}

func (c *Consolidator) summarize(ctx context.Context, batch []core.MemoryRecord) (string, error) {
	var b strings.Builder
	for _, r := range batch {
		b.WriteString("- ")
		b.WriteString(strings.ToUpper(r.Kind))
		b.WriteString(": ")
		b.WriteString(r.Content)
		b.WriteByte('\n')
	}

	prompt := fmt.Sprintf(
		"Summarize these old memories into a concise paragraph (max 100 words).\nFocus on key information and patterns:\n\n%s",
		b.String(),
	)

	resp, err := c.ai.Generate(ctx, prompt, core.GenerateOptions{
		MaxTokens:   summaryMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
