package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/alexch/msg-triage/internal/config"
	"github.com/alexch/msg-triage/internal/core"
	"github.com/alexch/msg-triage/internal/factory"
	"github.com/alexch/msg-triage/internal/logging"
	"github.com/alexch/msg-triage/internal/ports"
	"github.com/alexch/msg-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFeedbackFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register text classifier
	if err := container.Provide(func(f *factory.LLMFactory) (core.TextClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register rule engine
	if err := container.Provide(core.NewRuleEngine); err != nil {
		return nil, err
	}

	// Register inference timeout
	if err := container.Provide(func(cfg *config.Config) (time.Duration, error) {
		return cfg.GetDuration("classifier.inference_timeout")
	}); err != nil {
		return nil, err
	}

	// Register dispatcher
	if err := container.Provide(core.NewDispatcher); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		rules *core.RuleEngine,
		dispatcher *core.Dispatcher,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.TriageService {
		return core.NewTriageService(
			rules,
			dispatcher,
			cfg.GetInt("classifier.max_inference_per_batch"),
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register correction store
	if err := container.Provide(func(f *factory.FeedbackFactory) (ports.CorrectionStore, error) {
		return f.CreateCorrectionStore()
	}); err != nil {
		return nil, err
	}

	// Register front end
	if err := container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
