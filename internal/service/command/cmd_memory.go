package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/internal/service/memory"
)

type MemoryCommand struct {
	store     *memory.Store
	formatter *ResponseFormatter
}

func NewMemoryCommand(store *memory.Store) core.Command {
	return &MemoryCommand{
		store:     store,
		formatter: NewResponseFormatter(),
	}
}

func (c *MemoryCommand) Name() string {
	return "memory"
}

func (c *MemoryCommand) Description() string {
	return "Show memory statistics or search memories"
}

func (c *MemoryCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		return c.search(ctx, strings.Join(args, " "))
	}

	stats := c.store.Stats()

	kinds := make([]string, 0, len(stats.ByKind))
	for kind := range stats.ByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	lines := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		lines = append(lines, fmt.Sprintf("%s: %d", kind, stats.ByKind[kind]))
	}

	return c.formatter.Combine(
		c.formatter.Info("Memory"),
		c.formatter.Label("Total records", fmt.Sprintf("%d", stats.TotalRecords)),
		c.formatter.Label("Messages", fmt.Sprintf("%d", stats.MessageCount)),
		c.formatter.Label("Avg importance", fmt.Sprintf("%.2f", stats.AvgImportance)),
		c.formatter.List(lines),
		c.formatter.Tip("Use /memory <query> to search"),
	), nil
}

func (c *MemoryCommand) search(ctx context.Context, query string) (string, error) {
	records := c.store.Search(ctx, query, 5)
	if len(records) == 0 {
		return c.formatter.Combine(
			c.formatter.Info("Memory Search"),
			c.formatter.Label("Query", query),
			c.formatter.Label("Matches", "none"),
		), nil
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		content := r.Content
		if len(content) > 120 {
			content = content[:117] + "..."
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", r.Kind, content))
	}

	return c.formatter.Combine(
		c.formatter.Info("Memory Search"),
		c.formatter.Label("Query", query),
		c.formatter.List(lines),
	), nil
}
