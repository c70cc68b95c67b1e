package factory

import (
	"fmt"

	"github.com/alexch/msg-triage/internal/adapters/feedback"
	"github.com/alexch/msg-triage/internal/config"
	"github.com/alexch/msg-triage/internal/ports"
	"go.uber.org/zap"
)

// FeedbackFactory creates correction stores based on configuration
type FeedbackFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFeedbackFactory creates a new feedback factory
func NewFeedbackFactory(cfg *config.Config, logger *zap.Logger) *FeedbackFactory {
	return &FeedbackFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCorrectionStore creates a correction store based on the configuration
func (f *FeedbackFactory) CreateCorrectionStore() (ports.CorrectionStore, error) {
	storeType := f.cfg.GetString("feedback.type")
	window := f.cfg.GetInt("feedback.recent_window")

	switch storeType {
	case "memory":
		return feedback.NewMemoryStore(f.logger, window), nil
	case "sqlite":
		return feedback.NewSQLiteStore(f.cfg.GetString("feedback.sqlite_path"), f.logger, window)
	case "mysql":
		return feedback.NewMySQLStore(f.cfg.GetString("feedback.mysql_dsn"), f.logger, window)
	default:
		return nil, fmt.Errorf("unsupported feedback store type: %s", storeType)
	}
}
