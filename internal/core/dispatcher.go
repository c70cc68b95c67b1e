package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// candidateLabels are the labels offered to the inference backend. The
// backend returns one of these; mapping back to a Category is lexical so a
// slightly mangled label still lands somewhere sane.
var candidateLabels = []string{"needs reply", "important", "ignore"}

const defaultMaxPreviewBytes = 200

// Dispatcher decides, per message, whether to trust the inference backend or
// the rule engine. Inference runs under a hard deadline and every failure
// mode falls back to the rules; the dispatcher never returns without a
// category.
type Dispatcher struct {
	rules           *RuleEngine
	classifier      TextClassifier
	timeout         time.Duration
	maxPreviewBytes int
	logger          *zap.Logger
}

// NewDispatcher creates a hybrid dispatcher. A nil classifier puts the
// dispatcher into rule-only mode.
func NewDispatcher(rules *RuleEngine, classifier TextClassifier, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		rules:           rules,
		classifier:      classifier,
		timeout:         timeout,
		maxPreviewBytes: defaultMaxPreviewBytes,
		logger:          logger,
	}
}

// RuleOnly reports whether no inference backend is available.
func (d *Dispatcher) RuleOnly() bool {
	return d.classifier == nil
}

// Classify assigns a category to a single message and reports which path
// produced it.
func (d *Dispatcher) Classify(ctx context.Context, msg *Message) (Category, Source) {
	// Known senders skip inference: the rules are both cheaper and more
	// accurate for them.
	if isFastPathSender(msg.Sender) {
		return d.rules.Classify(msg), SourceRule
	}

	if d.classifier != nil {
		if category, ok := d.tryInference(ctx, msg); ok {
			return category, SourceInference
		}
	}

	return d.rules.Classify(msg), SourceRule
}

// tryInference runs a single bounded inference attempt. On timeout the
// attempt is abandoned; a result arriving later is discarded via the
// buffered channel.
func (d *Dispatcher) tryInference(ctx context.Context, msg *Message) (Category, bool) {
	ictx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type inferenceResult struct {
		label string
		err   error
	}
	resultCh := make(chan inferenceResult, 1)

	text := d.prepareText(msg)
	go func() {
		// A panicking backend costs one message, not the process.
		defer func() {
			if r := recover(); r != nil {
				resultCh <- inferenceResult{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		label, err := d.classifier.ClassifyText(ictx, text, candidateLabels)
		resultCh <- inferenceResult{label: label, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			if IsResourceExhausted(res.err) {
				d.logger.Warn("Inference backend resource exhausted, falling back to rules",
					zap.String("message_id", msg.ID),
					zap.Error(res.err))
			} else {
				d.logger.Warn("Inference failed, falling back to rules",
					zap.String("message_id", msg.ID),
					zap.Error(res.err))
			}
			return "", false
		}
		category, ok := categoryFromLabel(res.label)
		if !ok {
			d.logger.Warn("Inference returned unknown label, falling back to rules",
				zap.String("message_id", msg.ID),
				zap.String("label", res.label))
			return "", false
		}
		return category, true
	case <-ictx.Done():
		d.logger.Warn("Inference timed out, falling back to rules",
			zap.String("message_id", msg.ID),
			zap.Duration("timeout", d.timeout))
		return "", false
	}
}

// prepareText builds the text handed to the inference backend: subject and
// sender with a bounded preview, so the core's behavior does not depend on
// the backend's tokenization of long bodies.
func (d *Dispatcher) prepareText(msg *Message) string {
	text := fmt.Sprintf("%s | %s", msg.Subject, msg.Sender)
	if msg.Preview != "" {
		preview := msg.Preview
		if len(preview) > d.maxPreviewBytes {
			preview = truncateUTF8(preview, d.maxPreviewBytes)
		}
		text += " | " + preview
	}
	return text
}

// truncateUTF8 cuts s at the byte limit without splitting a rune.
func truncateUTF8(s string, max int) string {
	cut := s[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// categoryFromLabel maps a backend label onto a category.
func categoryFromLabel(label string) (Category, bool) {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "needs reply") || strings.Contains(lower, "needs_reply"):
		return CategoryNeedsReply, true
	case strings.Contains(lower, "important"):
		return CategoryImportant, true
	case strings.Contains(lower, "ignore"):
		return CategoryIgnore, true
	}
	return "", false
}
