package feedback

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexch/msg-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(window int) *MemoryStore {
	return NewMemoryStore(zap.NewNop(), window)
}

func record(t *testing.T, store *MemoryStore, id string, predicted, correct core.Category) {
	t.Helper()
	err := store.Record(context.Background(), &core.Correction{
		MessageID: id,
		Predicted: predicted,
		Correct:   correct,
		Snapshot: core.MessageSnapshot{
			Subject: "subject " + id,
			Sender:  "sender@example.com",
		},
	})
	require.NoError(t, err)
}

func TestMemoryStoreStatistics(t *testing.T) {
	store := newTestStore(50)
	ctx := context.Background()

	record(t, store, "1", core.CategoryIgnore, core.CategoryNeedsReply)
	record(t, store, "2", core.CategoryIgnore, core.CategoryNeedsReply)
	record(t, store, "3", core.CategoryImportant, core.CategoryImportant)

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats["ignore_to_needs_reply"])
	assert.Equal(t, 1, stats["important_to_important"])
}

func TestMemoryStoreAccuracyWindow(t *testing.T) {
	store := newTestStore(50)
	ctx := context.Background()

	// 60 corrections; only the last 50 count toward accuracy. The first 20
	// are wrong, the last 40 are right, so the window sees 10 wrong + 40 right.
	for i := 0; i < 20; i++ {
		record(t, store, fmt.Sprintf("w%d", i), core.CategoryIgnore, core.CategoryImportant)
	}
	for i := 0; i < 40; i++ {
		record(t, store, fmt.Sprintf("r%d", i), core.CategoryImportant, core.CategoryImportant)
	}

	report, err := store.AccuracyEstimate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, report.TotalCorrections)
	assert.Equal(t, 50, report.RecentCorrections)
	assert.Equal(t, 40, report.CorrectPredictions)
	assert.Equal(t, 10, report.IncorrectPredictions)
	assert.InDelta(t, 80.0, report.Accuracy, 0.001)
}

func TestMemoryStoreAccuracyEmpty(t *testing.T) {
	store := newTestStore(50)

	report, err := store.AccuracyEstimate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalCorrections)
	assert.Equal(t, 0.0, report.Accuracy)
}

func TestMemoryStoreCommonMistakes(t *testing.T) {
	store := newTestStore(50)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		record(t, store, fmt.Sprintf("a%d", i), core.CategoryIgnore, core.CategoryNeedsReply)
	}
	for i := 0; i < 3; i++ {
		record(t, store, fmt.Sprintf("b%d", i), core.CategoryImportant, core.CategoryIgnore)
	}

	patterns, err := store.CommonMistakes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	// Sorted by frequency, examples capped.
	assert.Equal(t, core.CategoryIgnore, patterns[0].Predicted)
	assert.Equal(t, core.CategoryNeedsReply, patterns[0].Correct)
	assert.Equal(t, 8, patterns[0].Count)
	assert.Len(t, patterns[0].Examples, 5)

	assert.Equal(t, 3, patterns[1].Count)
	assert.Len(t, patterns[1].Examples, 3)
}

func TestMemoryStoreCommonMistakesLimit(t *testing.T) {
	store := newTestStore(50)
	ctx := context.Background()

	record(t, store, "1", core.CategoryIgnore, core.CategoryNeedsReply)
	record(t, store, "2", core.CategoryImportant, core.CategoryIgnore)
	record(t, store, "3", core.CategoryNeedsReply, core.CategoryImportant)

	patterns, err := store.CommonMistakes(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, patterns, 2)
}
