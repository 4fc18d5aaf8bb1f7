package ports

import (
	"context"
	"time"

	"usagelens/internal/data/history"
	"usagelens/internal/data/repository"
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/engine/lockfile"
	"usagelens/internal/engine/usage"
)

// FileAnalyzer abstracts per-file usage extraction.
type FileAnalyzer interface {
	AnalyzeSource(ctx context.Context, path string, src []byte) (*usage.Report, error)
	Supports(path string) bool
}

// VersionResolver abstracts lockfile lookup for a project root.
type VersionResolver interface {
	Resolve(root string) (lockfile.Result, error)
}

// HistoryStore abstracts run persistence for trend workflows.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run) error
	ListRuns(ctx context.Context, q history.Query) ([]history.Run, error)
	ComponentTrend(ctx context.Context, component string, q history.Query) ([]history.TrendPoint, error)
}

// RepositoryFetcher abstracts cloning remote repositories into dest.
type RepositoryFetcher interface {
	Fetch(ctx context.Context, refs []string, dest string) ([]repository.Clone, []repository.CloneError, error)
}

// DiscoverOptions narrows the files picked up under a root.
type DiscoverOptions struct {
	Patterns []string
	Ignore   []string
	MaxFiles int
}

// AnalyzeRequest drives one project-level analysis.
type AnalyzeRequest struct {
	Root       string
	Library    string
	Command    string
	Discover   DiscoverOptions
	Complexity bool
	// KeepReports embeds the per-file reports in the aggregate.
	KeepReports bool
	// SkipHistory suppresses persistence even when a store is configured.
	SkipHistory bool
}

// CompareRequest runs one analysis per library over the same root.
type CompareRequest struct {
	Root      string
	Libraries []string
	Discover  DiscoverOptions
}

// GitHubRequest clones and analyzes remote repositories.
type GitHubRequest struct {
	Repositories []string
	Library      string
	Pattern      string
	Branch       string
	Complexity   bool
	KeepRepos    bool
	// CloneDir is the parent directory for checkouts. Empty means a new
	// temporary directory.
	CloneDir string
}

// GitHubResult carries the combined report and where the checkouts live
// when they were kept.
type GitHubResult struct {
	Report   *repository.Combined
	CloneDir string
}

// HistoryRequest filters stored runs.
type HistoryRequest struct {
	Library   string
	Since     time.Time
	Limit     int
	Component string
}

type HistoryResult struct {
	Runs  []history.Run
	Trend []history.TrendPoint
}

// WatchUpdate is emitted after every incremental re-analysis.
type WatchUpdate struct {
	Aggregate    *aggregate.Aggregate
	ChangedFiles []string
	Reanalyzed   int
	Skipped      int
	Duration     time.Duration
}

// WatchService exposes the watch lifecycle to driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	Current() *aggregate.Aggregate
	Subscribe(handler func(WatchUpdate))
	Close() error
}

// AnalysisService is the driving-port surface over the analysis use cases.
type AnalysisService interface {
	Discover(ctx context.Context, root string, opts DiscoverOptions) ([]string, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (*aggregate.Aggregate, error)
	Compare(ctx context.Context, req CompareRequest) ([]*aggregate.Aggregate, error)
	AnalyzeGitHub(ctx context.Context, req GitHubRequest) (GitHubResult, error)
	History(ctx context.Context, req HistoryRequest) (HistoryResult, error)
	WatchService(req AnalyzeRequest) (WatchService, error)
}
