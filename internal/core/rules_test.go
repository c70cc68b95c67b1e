package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleEngineClassify(t *testing.T) {
	engine := NewRuleEngine(nil)

	tests := []struct {
		name     string
		sender   string
		subject  string
		preview  string
		expected Category
	}{
		{
			name:     "important sender with reply indicators",
			sender:   "teacher@school.edu",
			subject:  "Please confirm attendance?",
			expected: CategoryNeedsReply,
		},
		{
			name:     "marketing sender",
			sender:   "newsletter@deals.com",
			subject:  "50% off sale this week",
			expected: CategoryIgnore,
		},
		{
			name:     "no-reply announcement from important sender",
			sender:   "no-reply@classroom.google.com",
			subject:  "New announcement posted",
			expected: CategoryImportant,
		},
		{
			name:     "personal question",
			sender:   "friend@gmail.com",
			subject:  "Lunch tomorrow?",
			preview:  "let me know",
			expected: CategoryNeedsReply,
		},
		{
			name:     "assignment from important sender",
			sender:   "professor@university.edu",
			subject:  "Assignment 3 due Friday, please submit on time",
			expected: CategoryNeedsReply,
		},
		{
			name:     "plain note defaults to important",
			sender:   "someone@example.com",
			subject:  "hello there",
			expected: CategoryImportant,
		},
		{
			name:     "noreply marketing local part",
			sender:   "noreply@shopping.com",
			subject:  "Your weekly digest",
			expected: CategoryIgnore,
		},
		{
			name:     "automated notification with promotion",
			sender:   "updates@example.com",
			subject:  "Automated notification",
			preview:  "a special deal awaits you",
			expected: CategoryIgnore,
		},
		{
			name:     "automated notification without marketing indicator",
			sender:   "updates@example.com",
			subject:  "Automated notification about your account",
			expected: CategoryImportant,
		},
		{
			name:     "assignment keyword alone",
			sender:   "someone@example.com",
			subject:  "homework",
			expected: CategoryImportant,
		},
		{
			name:     "important keywords without reply signals",
			sender:   "someone@example.com",
			subject:  "Project update announcement",
			expected: CategoryImportant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{
				ID:      "test",
				Sender:  tt.sender,
				Subject: tt.subject,
				Preview: tt.preview,
			}
			assert.Equal(t, tt.expected, engine.Classify(msg))
		})
	}
}

func TestRuleEngineDeterminism(t *testing.T) {
	engine := NewRuleEngine(nil)
	msg := &Message{
		ID:      "det",
		Sender:  "teacher@school.edu",
		Subject: "Please confirm attendance?",
	}

	first := engine.Classify(msg)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, engine.Classify(msg))
	}
}

func TestImportantSenderNeverIgnored(t *testing.T) {
	engine := NewRuleEngine(nil)

	// Ignore-laden text must not drag an important sender down to ignore.
	senders := []string{
		"teacher@school.edu",
		"no-reply@classroom.google.com",
		"admin@university.edu",
		"professor@college.org",
	}
	for _, sender := range senders {
		msg := &Message{
			ID:      "safety",
			Sender:  sender,
			Subject: "Unsubscribe from our newsletter promotion",
			Preview: "special offer discount sale",
		}
		category := engine.Classify(msg)
		assert.NotEqual(t, CategoryIgnore, category, "sender %s was ignored", sender)
	}
}

func TestQuestionMarkAmplification(t *testing.T) {
	base := &Message{ID: "q", Sender: "friend@gmail.com", Subject: "lunch tomorrow"}
	withQuestion := &Message{ID: "q", Sender: "friend@gmail.com", Subject: "lunch tomorrow?"}

	plain := computeFeatures(base)
	amplified := computeFeatures(withQuestion)

	// "?" counts once as a keyword and twice as a bonus.
	assert.Equal(t, plain.replyScore+3, amplified.replyScore)
	assert.False(t, plain.hasQuestion)
	assert.True(t, amplified.hasQuestion)
}

func TestReplyScoreCountsKeywordPresenceOnce(t *testing.T) {
	once := computeFeatures(&Message{Subject: "please review"})
	repeated := computeFeatures(&Message{Subject: "please please please review"})

	assert.Equal(t, once.replyScore, repeated.replyScore)
}

func TestIsFastPathSender(t *testing.T) {
	tests := []struct {
		sender   string
		fastPath bool
	}{
		{"teacher@school.edu", true},
		{"notifications@classroom.google.com", true},
		{"Professor.Smith@university.com", true},
		{"faculty@college.org", true},
		{"friend@gmail.com", false},
		{"newsletter@deals.com", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.fastPath, isFastPathSender(tt.sender), "sender %s", tt.sender)
	}
}
