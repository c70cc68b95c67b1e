package core

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// RuleEngine classifies messages with a deterministic, priority-ordered
// decision tree over the pattern tables. It is pure: no I/O, no state, and
// it always returns a category.
type RuleEngine struct {
	logger *zap.Logger
}

// NewRuleEngine creates a new rule engine
func NewRuleEngine(logger *zap.Logger) *RuleEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleEngine{logger: logger}
}

// messageFeatures holds the sender flags and text scores computed once per
// message. The same scores feed both the important-sender branch and the
// general branch of the decision tree.
type messageFeatures struct {
	isImportantSender bool
	isMarketingSender bool
	isNoReplySender   bool
	isInformational   bool

	replyScore     int
	importantScore int
	hasQuestion    bool
	hasAssignment  bool
	hasRequest     bool

	contextualIgnore bool
}

// Classify assigns exactly one category to the message. Ambiguity never
// resolves to ignore: a missed promotion costs the user a glance, a missed
// request costs them a deadline.
func (e *RuleEngine) Classify(msg *Message) Category {
	f := computeFeatures(msg)
	category, reason := decide(f)

	e.logger.Debug("Rule classification",
		zap.String("message_id", msg.ID),
		zap.String("category", string(category)),
		zap.String("reason", reason),
		zap.Int("reply_score", f.replyScore),
		zap.Int("important_score", f.importantScore))

	return category
}

func computeFeatures(msg *Message) messageFeatures {
	sender := strings.ToLower(msg.Sender)
	text := strings.ToLower(msg.Subject) + " " + strings.ToLower(msg.Preview)

	f := messageFeatures{
		isImportantSender: isImportantSender(sender),
		isMarketingSender: isMarketingSender(sender),
		isNoReplySender:   matchesAny(noReplyPatterns, sender),
		isInformational:   containsAny(text, informationalKeywords),
		hasQuestion:       strings.Contains(text, "?"),
		hasAssignment:     containsAny(text, assignmentKeywords),
		hasRequest:        containsAny(text, requestPhrases),
	}

	for _, kw := range replyKeywords {
		if strings.Contains(text, kw) {
			f.replyScore++
		}
	}
	// A question mark is a strong independent signal, beyond its keyword hit
	if f.hasQuestion {
		f.replyScore += 2
	}

	for _, kw := range importantKeywords {
		if strings.Contains(text, kw) {
			f.importantScore++
		}
	}

	// The contextual-ignore scan only needs the co-indicator check; plain
	// ignore keywords never fire for non-marketing senders.
	for _, kw := range contextualIgnoreKeywords {
		if strings.Contains(text, kw) && containsAny(text, marketingCoIndicators) {
			f.contextualIgnore = true
			break
		}
	}

	return f
}

// decide walks the priority ladder; the first matching rule wins.
func decide(f messageFeatures) (Category, string) {
	if f.isImportantSender {
		// Important senders are never downgraded to ignore
		if f.isNoReplySender && f.isInformational {
			return CategoryImportant, "no-reply announcement from important sender"
		}
		switch {
		case f.replyScore >= 3 || (f.replyScore >= 2 && f.hasQuestion):
			return CategoryNeedsReply, "important sender, strong reply indicators"
		case f.hasAssignment && (f.replyScore >= 1 || f.hasRequest):
			return CategoryNeedsReply, "important sender, assignment with request"
		case f.hasRequest && f.replyScore >= 1:
			return CategoryNeedsReply, "important sender, direct request"
		default:
			return CategoryImportant, "important sender default"
		}
	}

	if f.isMarketingSender {
		return CategoryIgnore, "marketing sender"
	}

	if f.contextualIgnore {
		return CategoryIgnore, "contextual ignore keyword with marketing indicator"
	}

	switch {
	case f.replyScore >= 3 || (f.replyScore >= 2 && f.hasQuestion):
		return CategoryNeedsReply, "strong reply indicators"
	case f.hasAssignment && f.replyScore >= 1:
		return CategoryNeedsReply, "assignment with reply indicators"
	case f.replyScore >= 2:
		return CategoryNeedsReply, "reply score threshold"
	case f.importantScore >= 2 || (f.importantScore >= 1 && f.replyScore >= 1):
		return CategoryImportant, "important keywords"
	case f.hasAssignment:
		return CategoryImportant, "assignment"
	case f.replyScore >= 1:
		return CategoryImportant, "weak reply indicator"
	default:
		// Safety default: uncertainty never resolves to ignore
		return CategoryImportant, "default"
	}
}

func isImportantSender(sender string) bool {
	if matchesAny(importantSenderPatterns, sender) {
		return true
	}
	for _, domain := range importantDomains {
		if strings.Contains(sender, domain) {
			return true
		}
	}
	for _, kw := range educationalRoleKeywords {
		if strings.Contains(sender, kw) {
			return true
		}
	}
	return false
}

func isMarketingSender(sender string) bool {
	if matchesAny(marketingSenderPatterns, sender) {
		return true
	}
	for _, domain := range marketingDomains {
		if strings.Contains(sender, domain) {
			return true
		}
	}
	return false
}

// isFastPathSender reports whether the sender matches the loose routing set
// that bypasses inference entirely.
func isFastPathSender(sender string) bool {
	lower := strings.ToLower(sender)
	for _, sub := range fastPathSenderSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
