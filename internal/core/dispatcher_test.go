package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClassifier is a canned inference backend for dispatcher tests.
type fakeClassifier struct {
	label string
	err   error
	delay time.Duration
	calls int32
}

func (f *fakeClassifier) ClassifyText(ctx context.Context, text string, candidateLabels []string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.label, f.err
}

func (f *fakeClassifier) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

func newTestDispatcher(classifier TextClassifier, timeout time.Duration) *Dispatcher {
	return NewDispatcher(NewRuleEngine(nil), classifier, timeout, nil)
}

func TestDispatcherUsesInferenceLabel(t *testing.T) {
	classifier := &fakeClassifier{label: "ignore"}
	d := newTestDispatcher(classifier, time.Second)

	msg := &Message{ID: "1", Sender: "stranger@example.com", Subject: "hello"}
	category, source := d.Classify(context.Background(), msg)

	assert.Equal(t, CategoryIgnore, category)
	assert.Equal(t, SourceInference, source)
	assert.Equal(t, 1, classifier.callCount())
}

func TestDispatcherMapsLooseLabels(t *testing.T) {
	tests := []struct {
		label    string
		expected Category
	}{
		{"needs reply", CategoryNeedsReply},
		{"needs_reply", CategoryNeedsReply},
		{"This message is important.", CategoryImportant},
		{"IGNORE", CategoryIgnore},
	}

	for _, tt := range tests {
		d := newTestDispatcher(&fakeClassifier{label: tt.label}, time.Second)
		msg := &Message{ID: "1", Sender: "stranger@example.com", Subject: "hello"}
		category, source := d.Classify(context.Background(), msg)
		assert.Equal(t, tt.expected, category, "label %q", tt.label)
		assert.Equal(t, SourceInference, source)
	}
}

func TestDispatcherFallsBackOnError(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("backend down")}
	d := newTestDispatcher(classifier, time.Second)

	msg := &Message{ID: "1", Sender: "friend@gmail.com", Subject: "Lunch tomorrow?", Preview: "let me know"}
	category, source := d.Classify(context.Background(), msg)

	assert.Equal(t, CategoryNeedsReply, category)
	assert.Equal(t, SourceRule, source)
}

func TestDispatcherFallsBackOnResourceExhaustion(t *testing.T) {
	errs := []error{
		errors.New("model allocation: out of memory"),
		fmt.Errorf("invoke failed: %w", ErrResourceExhausted),
	}

	for _, backendErr := range errs {
		d := newTestDispatcher(&fakeClassifier{err: backendErr}, time.Second)
		msg := &Message{ID: "1", Sender: "stranger@example.com", Subject: "hello"}
		category, source := d.Classify(context.Background(), msg)

		assert.Equal(t, CategoryImportant, category)
		assert.Equal(t, SourceRule, source)
	}
}

func TestIsResourceExhausted(t *testing.T) {
	assert.False(t, IsResourceExhausted(nil))
	assert.False(t, IsResourceExhausted(errors.New("connection refused")))
	assert.True(t, IsResourceExhausted(errors.New("CUDA error: Out of Memory")))
	assert.True(t, IsResourceExhausted(errors.New("status RESOURCE_EXHAUSTED")))
	assert.True(t, IsResourceExhausted(fmt.Errorf("wrapped: %w", ErrResourceExhausted)))
}

func TestDispatcherFallsBackOnUnknownLabel(t *testing.T) {
	classifier := &fakeClassifier{label: "banana"}
	d := newTestDispatcher(classifier, time.Second)

	msg := &Message{ID: "1", Sender: "stranger@example.com", Subject: "hello"}
	category, source := d.Classify(context.Background(), msg)

	assert.Equal(t, CategoryImportant, category)
	assert.Equal(t, SourceRule, source)
}

func TestDispatcherFallsBackOnTimeout(t *testing.T) {
	classifier := &fakeClassifier{label: "ignore", delay: 2 * time.Second}
	d := newTestDispatcher(classifier, 30*time.Millisecond)

	msg := &Message{ID: "1", Sender: "stranger@example.com", Subject: "hello"}

	start := time.Now()
	category, source := d.Classify(context.Background(), msg)
	elapsed := time.Since(start)

	assert.Equal(t, CategoryImportant, category)
	assert.Equal(t, SourceRule, source)
	assert.Less(t, elapsed, time.Second, "timed-out attempt must be abandoned, not awaited")
}

func TestDispatcherFastPathSkipsInference(t *testing.T) {
	classifier := &fakeClassifier{label: "ignore"}
	d := newTestDispatcher(classifier, time.Second)

	msg := &Message{ID: "1", Sender: "teacher@school.edu", Subject: "Please confirm attendance?"}
	category, source := d.Classify(context.Background(), msg)

	assert.Equal(t, CategoryNeedsReply, category)
	assert.Equal(t, SourceRule, source)
	assert.Equal(t, 0, classifier.callCount(), "fast-path senders must never reach inference")
}

func TestDispatcherRuleOnlyMode(t *testing.T) {
	d := newTestDispatcher(nil, time.Second)
	assert.True(t, d.RuleOnly())

	msg := &Message{ID: "1", Sender: "stranger@example.com", Subject: "hello"}
	category, source := d.Classify(context.Background(), msg)

	assert.Equal(t, CategoryImportant, category)
	assert.Equal(t, SourceRule, source)
}

func TestPrepareTextTruncatesPreview(t *testing.T) {
	d := newTestDispatcher(nil, time.Second)

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	msg := &Message{Subject: "subj", Sender: "a@b.com", Preview: string(long)}

	text := d.prepareText(msg)
	assert.LessOrEqual(t, len(text), len("subj | a@b.com | ")+defaultMaxPreviewBytes)
	assert.Contains(t, text, "subj | a@b.com | ")
}

func TestCategoryFromLabel(t *testing.T) {
	_, ok := categoryFromLabel("")
	assert.False(t, ok)

	_, ok = categoryFromLabel("nonsense")
	assert.False(t, ok)

	category, ok := categoryFromLabel("needs reply")
	assert.True(t, ok)
	assert.Equal(t, CategoryNeedsReply, category)
}
