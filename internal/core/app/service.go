package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"usagelens/internal/core/errors"
	"usagelens/internal/core/ports"
	"usagelens/internal/data/history"
	"usagelens/internal/data/repository"
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/engine/lockfile"
	"usagelens/internal/shared/observability"
	"usagelens/internal/shared/util"
	"usagelens/internal/shared/version"
)

const (
	CommandScan    = "scan"
	CommandAnalyze = "analyze"
	CommandCompare = "compare"
	CommandGitHub  = "github"
	CommandWatch   = "watch"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (s *analysisService) Discover(ctx context.Context, root string, opts ports.DiscoverOptions) ([]string, error) {
	if s.app == nil {
		return nil, errors.New(errors.CodeInternal, "app is required")
	}
	return s.app.Discover(ctx, root, s.app.discoverDefaults(opts))
}

func (s *analysisService) Analyze(ctx context.Context, req ports.AnalyzeRequest) (*aggregate.Aggregate, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Analyze", trace.WithAttributes(
		attribute.String("root", req.Root),
		attribute.String("library", req.Library),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app == nil {
		return nil, errors.New(errors.CodeInternal, "app is required")
	}

	root, files, err := s.discover(ctx, req.Root, req.Discover)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "no files found matching pattern"), errors.CtxPath, root)
	}

	agg, err := s.app.analyzeRoot(ctx, req, root, files)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(files)), attribute.Int("components", agg.Summary.TotalComponents))

	if !req.SkipHistory {
		s.app.recordHistory(ctx, agg)
	}
	return agg, nil
}

func (s *analysisService) Compare(ctx context.Context, req ports.CompareRequest) ([]*aggregate.Aggregate, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Compare", trace.WithAttributes(
		attribute.StringSlice("libraries", req.Libraries),
	))
	defer span.End()

	if len(req.Libraries) < 2 {
		return nil, errors.New(errors.CodeValidationError, "compare needs at least two libraries")
	}

	root, files, err := s.discover(ctx, req.Root, req.Discover)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "no files found matching pattern"), errors.CtxPath, root)
	}

	out := make([]*aggregate.Aggregate, 0, len(req.Libraries))
	for _, lib := range req.Libraries {
		agg, err := s.app.analyzeRoot(ctx, ports.AnalyzeRequest{
			Root:    root,
			Library: lib,
			Command: CommandCompare,
		}, root, files)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxLibrary, lib)
		}
		out = append(out, agg)
	}
	return out, nil
}

func (s *analysisService) AnalyzeGitHub(ctx context.Context, req ports.GitHubRequest) (ports.GitHubResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.AnalyzeGitHub", trace.WithAttributes(
		attribute.Int("repositories", len(req.Repositories)),
		attribute.String("library", req.Library),
	))
	defer span.End()

	if s.app.fetcher == nil {
		return ports.GitHubResult{}, errors.New(errors.CodeNotSupported, "repository fetching is not configured")
	}

	dest := req.CloneDir
	if dest == "" {
		tmp, err := os.MkdirTemp("", "usagelens-repos-")
		if err != nil {
			return ports.GitHubResult{}, errors.Wrap(err, errors.CodeInternal, "create clone directory")
		}
		dest = tmp
	}
	keep := req.KeepRepos
	defer func() {
		if keep {
			slog.Info("repositories kept", "path", dest)
			return
		}
		if err := os.RemoveAll(dest); err != nil {
			slog.Warn("failed to clean up clone directory", "path", dest, "error", err)
		}
	}()

	clones, cloneErrs, err := s.app.fetcher.Fetch(ctx, req.Repositories, dest)
	if err != nil {
		return ports.GitHubResult{}, err
	}

	discover := ports.DiscoverOptions{}
	if req.Pattern != "" {
		discover.Patterns = []string{req.Pattern}
	}

	results := make([]repository.Result, 0, len(clones))
	for _, c := range clones {
		files, err := s.app.Discover(ctx, c.Path, s.app.discoverDefaults(discover))
		if err != nil {
			if ctx.Err() != nil {
				return ports.GitHubResult{}, ctx.Err()
			}
			slog.Warn("failed to discover repository files", "repository", c.Shorthand, "error", err)
			cloneErrs = append(cloneErrs, repository.CloneError{Repository: c.Shorthand, Error: err.Error()})
			continue
		}

		agg, err := s.app.analyzeRoot(ctx, ports.AnalyzeRequest{
			Root:       c.Path,
			Library:    req.Library,
			Command:    CommandGitHub,
			Complexity: req.Complexity,
		}, c.Path, files)
		if err != nil {
			return ports.GitHubResult{}, errors.AddContext(err, errors.CtxRepository, c.Shorthand)
		}
		agg.Metadata.Root = c.Shorthand

		stats := repository.ReadStats(c.Path, files)
		slog.Info("analyzed repository",
			"repository", c.Shorthand,
			"package", stats.Name+"@"+stats.Version,
			"files", len(files),
			"components", agg.Summary.TotalComponents,
		)
		results = append(results, repository.Result{
			Repository: c.Shorthand,
			Branch:     c.Branch,
			Stats:      stats,
			Aggregate:  agg,
		})
	}

	branch := req.Branch
	if branch == "" {
		branch = s.app.Config.GitHub.Branch
	}
	pattern := req.Pattern
	if pattern == "" && len(s.app.Config.Scan.Patterns) > 0 {
		pattern = s.app.Config.Scan.Patterns[0]
	}
	combined := repository.Combine(repository.Metadata{
		RunID:       uuid.NewString(),
		Command:     CommandGitHub,
		Library:     req.Library,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		ToolVersion: version.Version,
		Branch:      branch,
		Pattern:     pattern,
	}, results, cloneErrs)

	out := ports.GitHubResult{Report: combined}
	if keep {
		out.CloneDir = dest
	}
	return out, nil
}

func (s *analysisService) History(ctx context.Context, req ports.HistoryRequest) (ports.HistoryResult, error) {
	if s.app.history == nil {
		return ports.HistoryResult{}, errors.New(errors.CodeNotSupported, "history is disabled; enable [history] or pass --history-db")
	}
	q := history.Query{Library: req.Library, Since: req.Since, Limit: req.Limit}

	runs, err := s.app.history.ListRuns(ctx, q)
	if err != nil {
		return ports.HistoryResult{}, errors.Wrap(err, errors.CodeInternal, "list runs")
	}
	out := ports.HistoryResult{Runs: runs}
	if req.Component != "" {
		q.Limit = 0
		trend, err := s.app.history.ComponentTrend(ctx, req.Component, q)
		if err != nil {
			return ports.HistoryResult{}, errors.Wrap(err, errors.CodeInternal, "component trend")
		}
		out.Trend = trend
	}
	return out, nil
}

func (s *analysisService) WatchService(req ports.AnalyzeRequest) (ports.WatchService, error) {
	if s.app == nil {
		return nil, errors.New(errors.CodeInternal, "app is required")
	}
	return newWatchService(s.app, req)
}

func (s *analysisService) discover(ctx context.Context, root string, opts ports.DiscoverOptions) (string, []string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "resolve root"), errors.CtxPath, root)
	}
	files, err := s.app.Discover(ctx, abs, s.app.discoverDefaults(opts))
	if err != nil {
		return "", nil, errors.AddContext(err, errors.CtxOperation, "discover")
	}
	return abs, files, nil
}

// discoverDefaults fills unset discovery options from [scan].
func (a *App) discoverDefaults(opts ports.DiscoverOptions) ports.DiscoverOptions {
	if len(opts.Patterns) == 0 {
		opts.Patterns = a.Config.Scan.Patterns
	}
	if opts.Ignore == nil {
		opts.Ignore = a.Config.Scan.Ignore
	}
	if opts.MaxFiles == 0 {
		opts.MaxFiles = a.Config.Scan.MaxFiles
	}
	return opts
}

// analyzeRoot runs the pipeline over an already discovered file list.
func (a *App) analyzeRoot(ctx context.Context, req ports.AnalyzeRequest, root string, files []string) (*aggregate.Aggregate, error) {
	started := time.Now()
	complexity := req.Complexity || a.Config.Analysis.Complexity

	results, err := a.analyzeFiles(ctx, files, req.Library, complexity)
	if err != nil {
		return nil, err
	}
	builder := collect(results, req.KeepReports)
	agg := builder.Build(a.newMetadata(req, root, len(files)), a.resolveVersions(root))

	a.recordMetrics(agg, time.Since(started))
	slog.Debug("analysis complete",
		"root", root,
		"library", req.Library,
		"files", len(files),
		"errors", errorSummary(results),
		"components", agg.Summary.TotalComponents,
		"duration", time.Since(started),
		"heap_mb", util.ReadRuntimeStats().HeapAllocMB,
	)
	return agg, nil
}

func (a *App) newMetadata(req ports.AnalyzeRequest, root string, total int) aggregate.Metadata {
	command := req.Command
	if command == "" {
		command = CommandAnalyze
	}
	return aggregate.Metadata{
		RunID:       uuid.NewString(),
		Command:     command,
		Library:     req.Library,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		ToolVersion: version.Version,
		Root:        root,
		TotalFiles:  total,
	}
}

// resolveVersions never fails the analysis: a missing or malformed lockfile
// only leaves versions unknown.
func (a *App) resolveVersions(root string) lockfile.Result {
	res, err := a.resolver.Resolve(root)
	if err != nil {
		switch {
		case errors.IsCode(err, errors.CodeNotFound):
			slog.Debug("no lockfile found", "root", root)
		default:
			slog.Warn("lockfile ignored", "root", root, "error", err)
		}
	}
	return res
}

func (a *App) recordMetrics(agg *aggregate.Aggregate, elapsed time.Duration) {
	observability.AnalysisDuration.WithLabelValues(agg.Metadata.Command).Observe(elapsed.Seconds())
	observability.ComponentsTracked.Set(float64(agg.Summary.TotalComponents))
	for _, p := range agg.PatternCounts {
		if p.Count > 0 {
			observability.PatternsDetectedTotal.WithLabelValues(p.Key).Add(float64(p.Count))
		}
	}
}

// recordHistory persists agg when a store is configured. Watch mode hands the
// run to the background writer; everything else saves inline.
func (a *App) recordHistory(ctx context.Context, agg *aggregate.Aggregate) {
	if a.history == nil {
		return
	}
	run := history.FromAggregate(agg)
	if w := a.historyQueue(); w != nil {
		w.enqueue(run)
		return
	}
	if err := a.history.SaveRun(ctx, run); err != nil {
		slog.Warn("failed to save run history", "run_id", run.ID, "error", err)
	}
}
