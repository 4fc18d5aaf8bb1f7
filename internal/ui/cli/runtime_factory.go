package cli

import (
	"context"
	"fmt"

	coreapp "usagelens/internal/core/app"
	"usagelens/internal/core/config"
	"usagelens/internal/core/ports"
)

// analysisRuntime is what a command needs from the core.
type analysisRuntime struct {
	service ports.AnalysisService
	health  *coreapp.HealthService
	close   func(context.Context) error
}

type analysisFactory interface {
	New(cfg *config.Config) (*analysisRuntime, error)
}

type coreAnalysisFactory struct{}

func (coreAnalysisFactory) New(cfg *config.Config) (*analysisRuntime, error) {
	app, err := coreapp.New(cfg)
	if err != nil {
		return nil, err
	}
	return &analysisRuntime{
		service: app.AnalysisService(),
		health:  coreapp.NewHealthService(app),
		close:   app.Close,
	}, nil
}

func initializeAnalysis(cfg *config.Config, factory analysisFactory) (*analysisRuntime, error) {
	if factory == nil {
		return nil, fmt.Errorf("analysis factory is required")
	}
	rt, err := factory.New(cfg)
	if err != nil {
		return nil, err
	}
	if rt.close == nil {
		rt.close = func(context.Context) error { return nil }
	}
	return rt, nil
}
