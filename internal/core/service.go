package core

import (
	"context"

	"go.uber.org/zap"
)

// TriageService is the batch orchestrator: it partitions a batch between the
// rule-only and inference-eligible paths, caps the inference-eligible subset
// to bound worst-case latency, and merges results. Every input message ends
// up in exactly one output group, whatever fails along the way.
type TriageService struct {
	rules        *RuleEngine
	dispatcher   *Dispatcher
	maxInference int
	logger       *zap.Logger
}

// NewTriageService creates a new triage service
func NewTriageService(rules *RuleEngine, dispatcher *Dispatcher, maxInference int, logger *zap.Logger) *TriageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriageService{
		rules:        rules,
		dispatcher:   dispatcher,
		maxInference: maxInference,
		logger:       logger,
	}
}

// RuleOnly reports whether the service operates without an inference backend.
func (s *TriageService) RuleOnly() bool {
	return s.dispatcher.RuleOnly()
}

// ClassifyBatch classifies all messages and groups them by category. Group
// order follows processing order, not input order.
func (s *TriageService) ClassifyBatch(ctx context.Context, messages []*Message) *CategorizedBatch {
	ruleRouted := make([]*Message, 0, len(messages))
	inferenceEligible := make([]*Message, 0, len(messages))

	for _, msg := range messages {
		if isFastPathSender(msg.Sender) {
			ruleRouted = append(ruleRouted, msg)
		} else {
			inferenceEligible = append(inferenceEligible, msg)
		}
	}

	// Cap the inference-eligible subset so the worst case stays at
	// cap × timeout regardless of batch size.
	if len(inferenceEligible) > s.maxInference {
		s.logger.Info("Capping inference-eligible messages",
			zap.Int("eligible", len(inferenceEligible)),
			zap.Int("cap", s.maxInference))
		ruleRouted = append(ruleRouted, inferenceEligible[s.maxInference:]...)
		inferenceEligible = inferenceEligible[:s.maxInference]
	}

	batch := NewCategorizedBatch()
	var ruleCount, inferenceCount int

	for _, msg := range inferenceEligible {
		category, source := s.classifyOne(ctx, msg)
		if source == SourceInference {
			inferenceCount++
		} else {
			ruleCount++
		}
		batch.Add(msg, category)
	}

	for _, msg := range ruleRouted {
		category := s.classifyRuleOnly(msg)
		ruleCount++
		batch.Add(msg, category)
	}

	s.logger.Info("Batch classified",
		zap.Int("total", batch.Total()),
		zap.Int("needs_reply", len(batch.NeedsReply)),
		zap.Int("important", len(batch.Important)),
		zap.Int("ignore", len(batch.Ignore)),
		zap.Int("by_rule", ruleCount),
		zap.Int("by_inference", inferenceCount))

	return batch
}

// classifyOne runs the hybrid dispatcher for a single message. A panic in
// either path costs only this message: it is assigned important and the
// batch continues.
func (s *TriageService) classifyOne(ctx context.Context, msg *Message) (category Category, source Source) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Classification panicked, defaulting to important",
				zap.String("message_id", msg.ID),
				zap.Any("panic", r))
			category = CategoryImportant
			source = SourceRule
		}
	}()
	return s.dispatcher.Classify(ctx, msg)
}

func (s *TriageService) classifyRuleOnly(msg *Message) (category Category) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Rule classification panicked, defaulting to important",
				zap.String("message_id", msg.ID),
				zap.Any("panic", r))
			category = CategoryImportant
		}
	}()
	return s.rules.Classify(msg)
}
