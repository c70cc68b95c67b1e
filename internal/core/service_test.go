package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(classifier TextClassifier, timeout time.Duration, maxInference int) *TriageService {
	rules := NewRuleEngine(nil)
	dispatcher := NewDispatcher(rules, classifier, timeout, nil)
	return NewTriageService(rules, dispatcher, maxInference, nil)
}

func collectIDs(batch *CategorizedBatch) map[string]int {
	ids := make(map[string]int)
	for _, group := range [][]*Message{batch.NeedsReply, batch.Important, batch.Ignore} {
		for _, msg := range group {
			ids[msg.ID]++
		}
	}
	return ids
}

func TestClassifyBatchTotality(t *testing.T) {
	service := newTestService(nil, time.Second, 10)

	messages := []*Message{
		{ID: "a", Sender: "teacher@school.edu", Subject: "Please confirm attendance?"},
		{ID: "b", Sender: "newsletter@deals.com", Subject: "50% off sale this week"},
		{ID: "c", Sender: "no-reply@classroom.google.com", Subject: "New announcement posted"},
		{ID: "d", Sender: "friend@gmail.com", Subject: "Lunch tomorrow?", Preview: "let me know"},
		{ID: "e", Sender: "someone@example.com", Subject: "hello"},
	}

	batch := service.ClassifyBatch(context.Background(), messages)

	require.Equal(t, len(messages), batch.Total())
	ids := collectIDs(batch)
	for _, msg := range messages {
		assert.Equal(t, 1, ids[msg.ID], "message %s must appear exactly once", msg.ID)
	}
}

func TestClassifyBatchScenarios(t *testing.T) {
	service := newTestService(nil, time.Second, 10)

	messages := []*Message{
		{ID: "a", Sender: "teacher@school.edu", Subject: "Please confirm attendance?"},
		{ID: "b", Sender: "newsletter@deals.com", Subject: "50% off sale this week"},
		{ID: "c", Sender: "no-reply@classroom.google.com", Subject: "New announcement posted"},
		{ID: "d", Sender: "friend@gmail.com", Subject: "Lunch tomorrow?", Preview: "let me know"},
	}

	batch := service.ClassifyBatch(context.Background(), messages)

	require.Len(t, batch.NeedsReply, 2)
	require.Len(t, batch.Important, 1)
	require.Len(t, batch.Ignore, 1)
	assert.Equal(t, "c", batch.Important[0].ID)
	assert.Equal(t, "b", batch.Ignore[0].ID)
}

func TestClassifyBatchCapEnforcement(t *testing.T) {
	classifier := &fakeClassifier{label: "ignore"}
	service := newTestService(classifier, time.Second, 10)

	messages := make([]*Message, 0, 15)
	for i := 0; i < 15; i++ {
		messages = append(messages, &Message{
			ID:      fmt.Sprintf("m%d", i),
			Sender:  fmt.Sprintf("person%d@example.com", i),
			Subject: "hello there",
		})
	}

	batch := service.ClassifyBatch(context.Background(), messages)

	require.Equal(t, 15, batch.Total())
	assert.Equal(t, 10, classifier.callCount(), "only the capped subset may reach inference")
	// 10 inference results say ignore; the overflow 5 go through the rules.
	assert.Len(t, batch.Ignore, 10)
	assert.Len(t, batch.Important, 5)
}

func TestClassifyBatchFastPathNeverCounted(t *testing.T) {
	classifier := &fakeClassifier{label: "ignore"}
	service := newTestService(classifier, time.Second, 2)

	// Fast-path senders must not consume inference slots.
	messages := []*Message{
		{ID: "f1", Sender: "teacher@school.edu", Subject: "hello"},
		{ID: "f2", Sender: "faculty@college.org", Subject: "hello"},
		{ID: "s1", Sender: "a@example.com", Subject: "hello"},
		{ID: "s2", Sender: "b@example.com", Subject: "hello"},
	}

	batch := service.ClassifyBatch(context.Background(), messages)

	require.Equal(t, 4, batch.Total())
	assert.Equal(t, 2, classifier.callCount())
}

func TestClassifyBatchFallbackOnPersistentTimeout(t *testing.T) {
	classifier := &fakeClassifier{label: "ignore", delay: time.Minute}
	service := newTestService(classifier, 20*time.Millisecond, 3)

	messages := make([]*Message, 0, 5)
	for i := 0; i < 5; i++ {
		messages = append(messages, &Message{
			ID:      fmt.Sprintf("m%d", i),
			Sender:  fmt.Sprintf("person%d@example.com", i),
			Subject: "hello there",
		})
	}

	start := time.Now()
	batch := service.ClassifyBatch(context.Background(), messages)
	elapsed := time.Since(start)

	require.Equal(t, 5, batch.Total())
	// Every inference attempt times out, so the rules decide everything.
	assert.Len(t, batch.Important, 5)
	assert.Less(t, elapsed, 3*time.Second, "worst case is cap x timeout plus rule overhead")
}

func TestClassifyBatchEmpty(t *testing.T) {
	service := newTestService(nil, time.Second, 10)

	batch := service.ClassifyBatch(context.Background(), []*Message{})

	assert.Equal(t, 0, batch.Total())
	assert.NotNil(t, batch.NeedsReply)
	assert.NotNil(t, batch.Important)
	assert.NotNil(t, batch.Ignore)
}

type panickyClassifier struct{}

func (panickyClassifier) ClassifyText(ctx context.Context, text string, candidateLabels []string) (string, error) {
	panic("classifier blew up")
}

func TestClassifyBatchSurvivesPanic(t *testing.T) {
	service := newTestService(panickyClassifier{}, time.Second, 10)

	messages := []*Message{
		{ID: "a", Sender: "someone@example.com", Subject: "hello"},
		{ID: "b", Sender: "teacher@school.edu", Subject: "Please confirm attendance?"},
	}

	batch := service.ClassifyBatch(context.Background(), messages)

	require.Equal(t, 2, batch.Total())
	ids := collectIDs(batch)
	assert.Equal(t, 1, ids["a"])
	assert.Equal(t, 1, ids["b"])
}
