package clifilter

import (
	"context"
	"fmt"
	"time"

	"github.com/alexch/msg-triage/internal/core"
	"go.uber.org/zap"
)

// Filter implements a command-line interface for one-off message triage
type Filter struct {
	dispatcher *core.Dispatcher
	logger     *zap.Logger
	verbose    bool
}

// NewFilter creates a new CLI filter
func NewFilter(dispatcher *core.Dispatcher, logger *zap.Logger, verbose bool) (*Filter, error) {
	return &Filter{
		dispatcher: dispatcher,
		logger:     logger,
		verbose:    verbose,
	}, nil
}

// ProcessMessage classifies a message and displays the results
func (f *Filter) ProcessMessage(ctx context.Context, msg *core.Message) (core.Category, core.Source, error) {
	f.logger.Debug("Processing message", zap.String("sender", msg.Sender))

	fmt.Printf("\n=== Message Summary ===\n")
	fmt.Printf("From: %s\n", msg.Sender)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Preview length: %d bytes\n", len(msg.Preview))

	if f.verbose {
		preview := msg.Preview
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nPreview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Triage ===\n")
	if f.dispatcher.RuleOnly() {
		fmt.Printf("Classifying with rules only (no inference backend)...\n")
	} else {
		fmt.Printf("Classifying...\n")
	}
	startTime := time.Now()
	category, source := f.dispatcher.Classify(ctx, msg)
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Category: %s\n", category)
	fmt.Printf("Decided by: %s\n", source)
	fmt.Printf("Processing time: %v\n", duration)

	return category, source, nil
}

// Start is a no-op for the CLI filter
func (f *Filter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *Filter) Stop() error {
	return nil
}
