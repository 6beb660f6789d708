package memory

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ironiklabs/ironbot/pkg/observability"
)

// Manager owns memory policy on top of the store: which facts go into a
// prompt, when extraction runs, and which candidates survive the confidence
// gate. It holds no state of its own across calls.
type Manager struct {
	store     *Store
	extractor *Extractor
	metrics   *observability.Metrics

	historyWindow       int
	promptLimit         int
	confidenceThreshold float64
}

// ManagerOptions tune the coordinator. Zero values fall back to defaults
// matching the bot's shipped configuration.
type ManagerOptions struct {
	HistoryWindow       int
	PromptLimit         int
	ConfidenceThreshold float64
	Metrics             *observability.Metrics
}

func NewManager(store *Store, extractor *Extractor, opts ManagerOptions) *Manager {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 10
	}
	if opts.PromptLimit <= 0 {
		opts.PromptLimit = 5
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = 0.7
	}
	return &Manager{
		store:               store,
		extractor:           extractor,
		metrics:             opts.Metrics,
		historyWindow:       opts.HistoryWindow,
		promptLimit:         opts.PromptLimit,
		confidenceThreshold: opts.ConfidenceThreshold,
	}
}

// PromptMemories returns the most recent stored facts for a user formatted
// for prompt injection. An empty store yields an empty slice; read failures
// are logged and also yield an empty slice so the reply path never stalls
// on the memory subsystem.
func (m *Manager) PromptMemories(ctx context.Context, userID string) []string {
	memories, err := m.store.ListMemories(ctx, userID, m.promptLimit)
	if err != nil {
		log.Error("list memories failed", "user", userID, "err", err)
		return nil
	}

	lines := make([]string, 0, len(memories))
	for _, mem := range memories {
		lines = append(lines, fmt.Sprintf("- (%s, %.2f) %s", mem.Type, mem.Confidence, mem.Content))
	}
	return lines
}

// ExtractAndStore runs one extraction cycle for a user: read the recent
// conversation window, ask the extractor for candidates, and persist those
// at or above the confidence threshold. Low-confidence candidates are
// dropped silently. Returns how many memories were written.
func (m *Manager) ExtractAndStore(ctx context.Context, userID, sourceMessageID string) (int, error) {
	turns, err := m.store.RecentConversation(ctx, userID, m.historyWindow)
	if err != nil {
		return 0, fmt.Errorf("extract and store: %w", err)
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Role+": "+t.Content)
	}

	extracted := m.extractor.Extract(ctx, lines)
	if len(extracted) == 0 {
		m.countCycle("empty")
		return 0, nil
	}

	saved := 0
	for _, cand := range extracted {
		if cand.Confidence < m.confidenceThreshold {
			continue
		}
		if err := m.store.AddMemory(ctx, userID, cand.Type, cand.Content, cand.Confidence, sourceMessageID); err != nil {
			m.countCycle("error")
			return saved, fmt.Errorf("extract and store: %w", err)
		}
		saved++
		if m.metrics != nil {
			m.metrics.MemoriesSaved.Inc()
		}
	}

	if saved > 0 {
		log.Info("saved memories", "user", userID, "count", saved)
	}
	m.countCycle("ok")
	return saved, nil
}

// ScheduleExtraction fires ExtractAndStore as a detached background task so
// extraction latency never delays the conversational turnaround. Failures
// are logged at the task boundary and never surface to the caller.
func (m *Manager) ScheduleExtraction(userID, sourceMessageID string) {
	Detach("memory extraction", func() error {
		_, err := m.ExtractAndStore(context.Background(), userID, sourceMessageID)
		return err
	})
}

func (m *Manager) countCycle(outcome string) {
	if m.metrics != nil {
		m.metrics.ExtractionCycles.WithLabelValues(outcome).Inc()
	}
}
