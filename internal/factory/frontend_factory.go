package factory

import (
	"fmt"

	"github.com/alexch/msg-triage/internal/adapters/clifilter"
	"github.com/alexch/msg-triage/internal/adapters/httpapi"
	"github.com/alexch/msg-triage/internal/adapters/smtpgw"
	"github.com/alexch/msg-triage/internal/config"
	"github.com/alexch/msg-triage/internal/core"
	"github.com/alexch/msg-triage/internal/ports"
	"go.uber.org/zap"
)

// FrontendFactory creates front ends based on configuration
type FrontendFactory struct {
	cfg        *config.Config
	logger     *zap.Logger
	service    *core.TriageService
	dispatcher *core.Dispatcher
	store      ports.CorrectionStore
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.TriageService,
	dispatcher *core.Dispatcher,
	store ports.CorrectionStore,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		dispatcher: dispatcher,
		store:      store,
	}
}

// CreateFrontend creates a front end based on the configuration
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	frontendType := f.cfg.GetString("server.frontend")

	switch frontendType {
	case "http":
		return httpapi.NewServer(
			f.service,
			f.store,
			f.logger,
			f.cfg.GetString("server.listen_address"),
		), nil
	case "smtp":
		return smtpgw.NewGateway(
			f.service,
			f.logger,
			f.cfg.GetString("smtp.listen_address"),
			f.cfg.GetString("smtp.relay_address"),
			f.cfg.GetString("smtp.category_header"),
		), nil
	case "cli":
		return clifilter.NewFilter(
			f.dispatcher,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported frontend type: %s", frontendType)
	}
}
