package feedback

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alexch/msg-triage/internal/core"
	"go.uber.org/zap"
)

// maxMistakeExamples caps the example snapshots kept per mistake pattern
const maxMistakeExamples = 5

// MemoryStore is an in-memory implementation of the CorrectionStore
// interface, used for tests and single-shot runs
type MemoryStore struct {
	corrections []*core.Correction
	mu          sync.RWMutex
	logger      *zap.Logger
	window      int
}

// NewMemoryStore creates a new in-memory correction store
func NewMemoryStore(logger *zap.Logger, window int) *MemoryStore {
	return &MemoryStore{
		logger: logger,
		window: window,
	}
}

// Record appends a correction
func (s *MemoryStore) Record(ctx context.Context, correction *core.Correction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.corrections = append(s.corrections, correction)

	s.logger.Info("Recorded correction",
		zap.String("message_id", correction.MessageID),
		zap.String("predicted", string(correction.Predicted)),
		zap.String("correct", string(correction.Correct)))

	return nil
}

// Statistics returns aggregate predicted→correct counts
func (s *MemoryStore) Statistics(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for _, c := range s.corrections {
		stats[statisticsKey(c.Predicted, c.Correct)]++
	}
	return stats, nil
}

// AccuracyEstimate computes accuracy over the most recent corrections
func (s *MemoryStore) AccuracyEstimate(ctx context.Context) (*core.AccuracyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := s.corrections
	if len(recent) > s.window {
		recent = recent[len(recent)-s.window:]
	}

	correct := 0
	for _, c := range recent {
		if c.Predicted == c.Correct {
			correct++
		}
	}

	report := &core.AccuracyReport{
		TotalCorrections:     len(s.corrections),
		RecentCorrections:    len(recent),
		CorrectPredictions:   correct,
		IncorrectPredictions: len(recent) - correct,
	}
	if len(recent) > 0 {
		report.Accuracy = float64(correct) / float64(len(recent)) * 100
	}
	return report, nil
}

// CommonMistakes returns the most frequent mistake patterns
func (s *MemoryStore) CommonMistakes(ctx context.Context, limit int) ([]core.MistakePattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPair := make(map[string]*core.MistakePattern)
	for _, c := range s.corrections {
		key := statisticsKey(c.Predicted, c.Correct)
		pattern, ok := byPair[key]
		if !ok {
			pattern = &core.MistakePattern{Predicted: c.Predicted, Correct: c.Correct}
			byPair[key] = pattern
		}
		pattern.Count++
		if len(pattern.Examples) < maxMistakeExamples {
			pattern.Examples = append(pattern.Examples, core.MistakeExample{
				Subject: c.Snapshot.Subject,
				Sender:  c.Snapshot.Sender,
			})
		}
	}

	patterns := make([]core.MistakePattern, 0, len(byPair))
	for _, p := range byPair {
		patterns = append(patterns, *p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}
	return patterns, nil
}

func statisticsKey(predicted, correct core.Category) string {
	return fmt.Sprintf("%s_to_%s", predicted, correct)
}
