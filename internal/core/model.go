package core

import (
	"time"
)

// Category is the triage category assigned to a message.
type Category string

const (
	CategoryNeedsReply Category = "needs_reply"
	CategoryImportant  Category = "important"
	CategoryIgnore     Category = "ignore"
)

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNeedsReply, CategoryImportant, CategoryIgnore:
		return true
	}
	return false
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

// Source records which classification path produced a category.
type Source string

const (
	SourceRule      Source = "rule"
	SourceInference Source = "inference"
)

// Message represents a single message to be triaged
type Message struct {
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	Sender    string   `json:"sender"`
	Preview   string   `json:"preview"`
	Timestamp string   `json:"timestamp"`
	Category  Category `json:"category,omitempty"`
}

// Outcome is the per-message classification record, kept for observability
type Outcome struct {
	MessageID string
	Category  Category
	Source    Source
}

// CategorizedBatch holds the three output groups of a batch classification.
// The groups partition the input batch exactly.
type CategorizedBatch struct {
	NeedsReply []*Message `json:"needs_reply"`
	Important  []*Message `json:"important"`
	Ignore     []*Message `json:"ignore"`
}

// NewCategorizedBatch returns a batch with empty (non-nil) groups so they
// serialize as empty lists
func NewCategorizedBatch() *CategorizedBatch {
	return &CategorizedBatch{
		NeedsReply: []*Message{},
		Important:  []*Message{},
		Ignore:     []*Message{},
	}
}

// Add places a message into the group for the given category.
func (b *CategorizedBatch) Add(msg *Message, category Category) {
	msg.Category = category
	switch category {
	case CategoryNeedsReply:
		b.NeedsReply = append(b.NeedsReply, msg)
	case CategoryIgnore:
		b.Ignore = append(b.Ignore, msg)
	default:
		b.Important = append(b.Important, msg)
	}
}

// Total returns the number of messages across all groups.
func (b *CategorizedBatch) Total() int {
	return len(b.NeedsReply) + len(b.Important) + len(b.Ignore)
}

// MessageSnapshot is the part of a message preserved with a correction
type MessageSnapshot struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Preview string `json:"preview"`
}

// Correction is a user-supplied fix of a predicted category, recorded for
// the offline improvement loop. The classification path never reads these.
type Correction struct {
	MessageID string
	Timestamp time.Time
	Predicted Category
	Correct   Category
	Snapshot  MessageSnapshot
}

// AccuracyReport estimates accuracy from the most recent corrections
type AccuracyReport struct {
	Accuracy             float64 `json:"accuracy_estimate"`
	TotalCorrections     int     `json:"total_corrections"`
	RecentCorrections    int     `json:"recent_corrections"`
	CorrectPredictions   int     `json:"correct_predictions"`
	IncorrectPredictions int     `json:"incorrect_predictions"`
}

// MistakeExample is a trimmed snapshot attached to a mistake pattern
type MistakeExample struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
}

// MistakePattern aggregates corrections sharing a predicted→correct pair
type MistakePattern struct {
	Predicted Category         `json:"predicted"`
	Correct   Category         `json:"correct"`
	Count     int              `json:"count"`
	Examples  []MistakeExample `json:"examples"`
}
