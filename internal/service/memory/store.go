package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/internal/storage/snapshot"
	"github.com/sandevgo/loopbot/pkg/log"
)

const (
	conversationWindow = 100
	contextTurns       = 10
	contextThoughts    = 5
	defaultContextSize = 20
)

// Store holds every memory record in memory, ranks them by
// importance-weighted recency, and mirrors its state to a JSON snapshot
// after each mutation.
type Store struct {
	cfg  *config.MemoryConfig
	snap *snapshot.File

	mu       sync.Mutex
	records  []core.MemoryRecord
	turns    []core.ConversationTurn
	thoughts []core.MemoryRecord

	// injectable clock for deterministic ranking tests
	now func() time.Time
}

func NewStore(cfg *config.MemoryConfig, snap *snapshot.File) *Store {
	return &Store{
		cfg:  cfg,
		snap: snap,
		now:  time.Now,
	}
}

// Load restores the store from its snapshot. A corrupt snapshot is logged
// and the store starts empty; it is never fatal.
func (s *Store) Load(ctx context.Context) error {
	state, err := s.snap.Load(ctx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to load memory snapshot, starting empty")
		return nil
	}

	s.mu.Lock()
	s.records = state.Memories
	s.turns = state.Messages
	s.thoughts = state.Thoughts
	s.mu.Unlock()

	log.FromCtx(ctx).Info().Int("count", len(state.Memories)).Msg("memory store loaded")
	return nil
}

// Store appends a record, evicts past capacity and saves the snapshot.
// Save failures are logged, not returned: persistence is best-effort.
func (s *Store) Store(ctx context.Context, rec core.MemoryRecord) {
	s.mu.Lock()
	s.append(rec)
	s.evictLocked()
	s.mu.Unlock()

	s.save(ctx)
}

// StoreMessage records a chat message and appends it to the rolling
// conversation window.
func (s *Store) StoreMessage(ctx context.Context, role, content string) {
	now := s.now()
	rec := core.MemoryRecord{
		ID:         recordID("msg", now, content),
		Content:    content,
		Kind:       core.KindMessage,
		CreatedAt:  now,
		Importance: 1.0,
		Context:    map[string]any{"role": role},
	}

	s.mu.Lock()
	s.append(rec)
	s.evictLocked()
	s.turns = append(s.turns, core.ConversationTurn{
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})
	if len(s.turns) > conversationWindow {
		s.turns = s.turns[len(s.turns)-conversationWindow:]
	}
	s.mu.Unlock()

	s.save(ctx)
}

// StoreGoal records a goal. Goals rank higher than ordinary records and
// stay active until consolidated or evicted.
func (s *Store) StoreGoal(ctx context.Context, goal string) {
	now := s.now()
	s.Store(ctx, core.MemoryRecord{
		ID:         recordID("goal", now, goal),
		Content:    goal,
		Kind:       core.KindGoal,
		CreatedAt:  now,
		Importance: 2.0,
		Context:    map[string]any{"active": true},
	})
}

// StoreRecord builds a record from its parts and stores it. Used by action
// handlers that persist observations and learned information.
func (s *Store) StoreRecord(ctx context.Context, kind, content string, importance float64, meta map[string]any) {
	now := s.now()
	s.Store(ctx, core.MemoryRecord{
		ID:         recordID(kind, now, content),
		Content:    content,
		Kind:       kind,
		CreatedAt:  now,
		Importance: importance,
		Context:    meta,
	})
}

// StoreExperience records the outcome of an executed decision so future
// cycles can learn from it.
func (s *Store) StoreExperience(ctx context.Context, decision core.Decision, result core.ActionResult) {
	now := s.now()
	s.Store(ctx, core.MemoryRecord{
		ID:         recordID("action", now, decision.Action+decision.Reasoning),
		Content:    "Action: " + decision.Action,
		Kind:       core.KindAction,
		CreatedAt:  now,
		Importance: 1.0,
		Context: map[string]any{
			"reasoning": decision.Reasoning,
			"result":    result.Message,
			"success":   result.Success,
		},
	})
}

// GetContext assembles the decision-making bundle: top records by score,
// the recent conversation, active goals among those records, and the last
// few thoughts. Read-only and idempotent.
func (s *Store) GetContext(ctx context.Context, maxItems int) core.Context {
	if maxItems <= 0 {
		maxItems = defaultContextSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ranked := make([]core.MemoryRecord, len(s.records))
	copy(ranked, s.records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score(now) > ranked[j].Score(now)
	})
	if len(ranked) > maxItems {
		ranked = ranked[:maxItems]
	}

	var goals []core.MemoryRecord
	for _, r := range ranked {
		if r.IsActiveGoal() {
			goals = append(goals, r)
		}
	}

	turns := s.turns
	if len(turns) > contextTurns {
		turns = turns[len(turns)-contextTurns:]
	}
	turnsCopy := make([]core.ConversationTurn, len(turns))
	copy(turnsCopy, turns)

	thoughts := s.thoughts
	if len(thoughts) > contextThoughts {
		thoughts = thoughts[len(thoughts)-contextThoughts:]
	}
	thoughtsCopy := make([]core.MemoryRecord, len(thoughts))
	copy(thoughtsCopy, thoughts)

	return core.Context{
		RecentMemories:  ranked,
		Conversation:    turnsCopy,
		ActiveGoals:     goals,
		CurrentThoughts: thoughtsCopy,
	}
}

// Search matches query as a case-insensitive substring of record content.
// No tokenization or fuzzy matching, exact substring only.
func (s *Store) Search(ctx context.Context, query string, limit int) []core.MemoryRecord {
	if limit <= 0 {
		limit = 10
	}
	needle := strings.ToLower(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []core.MemoryRecord
	for _, r := range s.records {
		if strings.Contains(strings.ToLower(r.Content), needle) {
			matches = append(matches, r)
		}
	}

	now := s.now()
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score(now) > matches[j].Score(now)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Stats summarizes the store for the /status and /memory commands.
type Stats struct {
	TotalRecords  int
	ByKind        map[string]int
	AvgImportance float64
	MessageCount  int
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKind := make(map[string]int)
	var sum float64
	for _, r := range s.records {
		byKind[r.Kind]++
		sum += r.Importance
	}

	avg := 0.0
	if len(s.records) > 0 {
		avg = sum / float64(len(s.records))
	}

	return Stats{
		TotalRecords:  len(s.records),
		ByKind:        byKind,
		AvgImportance: avg,
		MessageCount:  len(s.turns),
	}
}

// Close performs the final snapshot write at shutdown.
func (s *Store) Close() error {
	return s.save(context.Background())
}

func (s *Store) append(rec core.MemoryRecord) {
	if rec.Importance == 0 {
		rec.Importance = 1.0
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.records = append(s.records, rec)
	if rec.Kind == core.KindThought {
		s.thoughts = append(s.thoughts, rec)
	}
}

// evictLocked enforces the capacity bound: past Capacity, records are
// sorted by ascending score and the lowest are dropped until RetainOnEvict
// remain. Caller holds the mutex.
func (s *Store) evictLocked() {
	if len(s.records) <= s.cfg.Capacity {
		return
	}

	now := s.now()
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Score(now) < s.records[j].Score(now)
	})
	s.records = s.records[len(s.records)-s.cfg.RetainOnEvict:]
}

func (s *Store) save(ctx context.Context) error {
	s.mu.Lock()
	state := &snapshot.State{
		Memories: append([]core.MemoryRecord(nil), s.records...),
		Messages: append([]core.ConversationTurn(nil), s.turns...),
		Thoughts: append([]core.MemoryRecord(nil), s.thoughts...),
	}
	s.mu.Unlock()

	if err := s.snap.Save(ctx, state); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to save memory snapshot")
		return err
	}
	return nil
}

// staleBatch returns up to limit records older than staleAfter with
// importance below maxImportance, in stored order.
func (s *Store) staleBatch(limit int, staleAfter time.Duration, maxImportance float64) []core.MemoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-staleAfter)
	var batch []core.MemoryRecord
	for _, r := range s.records {
		if len(batch) >= limit {
			break
		}
		if r.CreatedAt.Before(cutoff) && r.Importance < maxImportance {
			batch = append(batch, r)
		}
	}
	return batch
}

// replaceWithSummary deletes the given records and inserts one summary
// record in their place, then persists.
func (s *Store) replaceWithSummary(ctx context.Context, batch []core.MemoryRecord, summary string) {
	ids := make(map[string]struct{}, len(batch))
	for _, r := range batch {
		ids[r.ID] = struct{}{}
	}

	now := s.now()
	rec := core.MemoryRecord{
		ID:         recordID("summary", now, summary),
		Content:    fmt.Sprintf("Summary of %d old memories: %s", len(batch), summary),
		Kind:       core.KindSummary,
		CreatedAt:  now,
		Importance: 1.0,
		Context:    map[string]any{"summarized_count": len(batch)},
	}

	s.mu.Lock()
	kept := s.records[:0]
	for _, r := range s.records {
		if _, drop := ids[r.ID]; !drop {
			kept = append(kept, r)
		}
	}
	s.records = kept
	s.append(rec)
	s.mu.Unlock()

	s.save(ctx)
}

// recordID derives a stable unique id from creation time and content hash.
func recordID(prefix string, at time.Time, content string) string {
	h := fnv.New32a()
	h.Write([]byte(content))
	return fmt.Sprintf("%s_%d_%08x", prefix, at.UnixNano(), h.Sum32())
}
