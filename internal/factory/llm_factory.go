package factory

import (
	"fmt"

	"github.com/alexch/msg-triage/internal/adapters/bedrock"
	"github.com/alexch/msg-triage/internal/adapters/gemini"
	"github.com/alexch/msg-triage/internal/adapters/openai"
	"github.com/alexch/msg-triage/internal/config"
	"github.com/alexch/msg-triage/internal/core"
	"github.com/alexch/msg-triage/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates text classifiers backed by LLM providers
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a text classifier based on the configuration.
// Provider "none" returns a nil classifier, which puts the dispatcher into
// rule-only mode.
func (f *LLMFactory) CreateClassifier() (core.TextClassifier, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "none", "":
		f.logger.Warn("No inference provider configured, running with rules only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
