package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"usagelens/internal/core/config"
	"usagelens/internal/core/ports"
	"usagelens/internal/data/history"
	"usagelens/internal/data/repository"
	"usagelens/internal/engine/classify"
	"usagelens/internal/engine/lockfile"
	"usagelens/internal/engine/parser"
	"usagelens/internal/engine/usage"
)

// App wires the analysis engine to its collaborators. Everything it holds is
// safe for concurrent use across analyses.
type App struct {
	Config *config.Config

	analyzer   ports.FileAnalyzer
	resolver   ports.VersionResolver
	history    ports.HistoryStore
	fetcher    ports.RepositoryFetcher
	classifier *classify.Classifier

	writer   *historyWriter
	closeMu  sync.Mutex
	closers  []func() error
	isClosed bool
}

// Dependencies overrides the collaborators New would build. Analyzer is
// required; nil optional fields fall back to the defaults.
type Dependencies struct {
	Analyzer ports.FileAnalyzer
	Resolver ports.VersionResolver
	History  ports.HistoryStore
	Fetcher  ports.RepositoryFetcher
}

func New(cfg *config.Config) (*App, error) {
	p, err := parser.NewParser(parser.NewGrammarLoader())
	if err != nil {
		return nil, fmt.Errorf("initialize parser: %w", err)
	}

	deps := Dependencies{
		Analyzer: usage.NewAnalyzer(p),
		Resolver: lockfile.NewResolver(),
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		deps.History = store
	}

	fetcher, err := repository.NewFetcher(fetcherOptions(cfg))
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	deps.Fetcher = fetcher

	a, err := NewWithDependencies(cfg, deps)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	if store != nil {
		a.closers = append(a.closers, store.Close)
	}
	return a, nil
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("file analyzer dependency is required")
	}
	if deps.Resolver == nil {
		deps.Resolver = lockfile.NewResolver()
	}

	policy, err := policyFromConfig(cfg.Classifier)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:     cfg,
		analyzer:   deps.Analyzer,
		resolver:   deps.Resolver,
		history:    deps.History,
		fetcher:    deps.Fetcher,
		classifier: classify.New(policy),
	}, nil
}

// policyFromConfig overlays the [classifier] section on the default policy.
func policyFromConfig(c config.Classifier) (classify.Policy, error) {
	policy := classify.DefaultPolicy()
	if len(c.Thresholds) == len(policy.Thresholds) {
		copy(policy.Thresholds[:], c.Thresholds)
	}
	for name, w := range c.Weights {
		policy.Weights[name] = w
	}
	if c.MaxCountPerPattern > 0 {
		policy.MaxCountPerPattern = c.MaxCountPerPattern
	}
	if c.ExampleLimit > 0 {
		policy.ExampleLimit = c.ExampleLimit
	}
	if err := policy.Validate(); err != nil {
		return classify.Policy{}, fmt.Errorf("classifier policy: %w", err)
	}
	return policy, nil
}

func fetcherOptions(cfg *config.Config) repository.Options {
	gh := cfg.GitHub
	opts := repository.Options{
		Branch:            gh.Branch,
		Depth:             gh.Depth,
		RequestsPerSecond: gh.RequestsPerSecond,
		Burst:             gh.Burst,
		CloneTimeout:      gh.CloneTimeout,
		Workers:           gh.Workers,
	}
	if env := strings.TrimSpace(gh.TokenEnv); env != "" {
		opts.Token = os.Getenv(env)
	}
	return opts
}

// HistoryEnabled reports whether runs are persisted.
func (a *App) HistoryEnabled() bool {
	return a != nil && a.history != nil
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	if a.isClosed {
		return nil
	}
	a.isClosed = true

	if a.writer != nil {
		if err := a.writer.stop(ctx); err != nil {
			slog.Warn("history writer did not drain", "error", err)
		}
	}
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
