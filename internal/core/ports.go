package core

import (
	"context"
	"errors"
	"strings"
)

// TextClassifier defines the interface to the probabilistic inference backend.
// It is deliberately minimal: the core knows nothing about the underlying
// model or provider.
type TextClassifier interface {
	// ClassifyText returns the candidate label that best matches the text
	ClassifyText(ctx context.Context, text string, candidateLabels []string) (string, error)
}

// ErrResourceExhausted marks backend memory/resource failures. They are
// handled exactly like any other inference failure, but logged distinctly.
var ErrResourceExhausted = errors.New("classifier resource exhausted")

var resourceErrorIndicators = []string{
	"out of memory",
	"oom",
	"memory error",
	"cannot allocate memory",
	"memory allocation failed",
	"resource exhausted",
	"resource_exhausted",
}

// IsResourceExhausted reports whether err looks like a backend memory or
// resource exhaustion failure.
func IsResourceExhausted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrResourceExhausted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range resourceErrorIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
