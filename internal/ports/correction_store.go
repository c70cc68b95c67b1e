package ports

import (
	"context"

	"github.com/alexch/msg-triage/internal/core"
)

// CorrectionStore defines the interface for the append-only user feedback
// record. Corrections are written after classification and read only by the
// reporting accessors, never by the classification path.
type CorrectionStore interface {
	// Record appends a correction
	Record(ctx context.Context, correction *core.Correction) error

	// Statistics returns aggregate predicted→correct counts keyed as
	// "predicted_to_correct"
	Statistics(ctx context.Context) (map[string]int, error)

	// AccuracyEstimate computes accuracy over the most recent corrections
	AccuracyEstimate(ctx context.Context) (*core.AccuracyReport, error)

	// CommonMistakes returns the most frequent mistake patterns, each with
	// up to five example snapshots
	CommonMistakes(ctx context.Context, limit int) ([]core.MistakePattern, error)
}
