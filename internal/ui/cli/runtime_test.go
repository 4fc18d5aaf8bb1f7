package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usagelens/internal/core/config"
	"usagelens/internal/core/errors"
	"usagelens/internal/core/ports"
	"usagelens/internal/data/history"
	"usagelens/internal/engine/aggregate"
)

type fakeService struct {
	agg         *aggregate.Aggregate
	err         error
	history     ports.HistoryResult
	lastAnalyze ports.AnalyzeRequest
	lastHistory ports.HistoryRequest
	lastGitHub  ports.GitHubRequest
}

func (f *fakeService) Discover(context.Context, string, ports.DiscoverOptions) ([]string, error) {
	return nil, f.err
}

func (f *fakeService) Analyze(_ context.Context, req ports.AnalyzeRequest) (*aggregate.Aggregate, error) {
	f.lastAnalyze = req
	if f.err != nil {
		return nil, f.err
	}
	agg := *f.agg
	agg.Metadata.Command = req.Command
	agg.Metadata.Library = req.Library
	return &agg, nil
}

func (f *fakeService) Compare(_ context.Context, req ports.CompareRequest) ([]*aggregate.Aggregate, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*aggregate.Aggregate, 0, len(req.Libraries))
	for _, lib := range req.Libraries {
		agg := *f.agg
		agg.Metadata.Library = lib
		out = append(out, &agg)
	}
	return out, nil
}

func (f *fakeService) AnalyzeGitHub(_ context.Context, req ports.GitHubRequest) (ports.GitHubResult, error) {
	f.lastGitHub = req
	return ports.GitHubResult{}, f.err
}

func (f *fakeService) History(_ context.Context, req ports.HistoryRequest) (ports.HistoryResult, error) {
	f.lastHistory = req
	return f.history, f.err
}

func (f *fakeService) WatchService(ports.AnalyzeRequest) (ports.WatchService, error) {
	return nil, errors.New(errors.CodeNotSupported, "watch is not available in tests")
}

type fakeFactory struct {
	svc   *fakeService
	calls int
}

func (f *fakeFactory) New(*config.Config) (*analysisRuntime, error) {
	f.calls++
	return &analysisRuntime{service: f.svc}, nil
}

func sampleAggregate() *aggregate.Aggregate {
	agg := &aggregate.Aggregate{
		Metadata: aggregate.Metadata{
			RunID:         "run-1",
			Root:          "/project",
			TotalFiles:    2,
			FilesAnalyzed: 2,
		},
		Summary: aggregate.Summary{TotalImports: 2, TotalComponents: 2, TotalUsagePatterns: 3},
		ComponentUsage: []aggregate.ComponentUsage{
			{Name: "Button", Count: 3, Files: []string{"src/Page.tsx"}, Source: "@design/foundation", Package: "@design/foundation", Version: "2.4.1"},
			{Name: "Card", Count: 1, Files: []string{"src/Page.tsx"}, Source: "@design/foundation", Package: "@design/foundation", Version: "2.4.1"},
		},
		PackageDistribution: []aggregate.PackageShare{
			{Package: "@design/foundation", Version: "2.4.1", ComponentCount: 2, UsageCount: 4, Percentage: 100, Components: []string{"Button", "Card"}},
		},
		PatternCounts: []aggregate.PatternCount{
			{Key: "imports.named", DisplayName: "Named Imports", Count: 2},
			{Key: "usage.jsx", DisplayName: "JSX Usage", Count: 1},
		},
	}
	agg.TopComponents = agg.ComponentUsage
	agg.TopPatterns = agg.PatternCounts
	return agg
}

// writeConfig keeps state and reports inside a temp dir.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "usagelens.toml")
	body := fmt.Sprintf("[paths]\nstate_dir = %q\n\n[output]\ndir = %q\n", filepath.Join(dir, "state"), filepath.Join(dir, "reports"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, dir
}

func runCLI(t *testing.T, svc *fakeService, args ...string) (int, string, string, *fakeFactory) {
	t.Helper()
	factory := &fakeFactory{svc: svc}
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr, factory)
	return code, stdout.String(), stderr.String(), factory
}

func TestRun_ScanPrintsConsoleReport(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	svc := &fakeService{agg: sampleAggregate()}

	code, stdout, stderr, _ := runCLI(t, svc, "--config", cfgPath, "scan", "./web", "--library", "@design/foundation")

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Button")
	assert.Contains(t, stdout, "@design/foundation")
	assert.Contains(t, stdout, "Named Imports")
	assert.NotContains(t, stdout, "No usage patterns detected.")
	assert.Equal(t, "./web", svc.lastAnalyze.Root)
	assert.Equal(t, "@design/foundation", svc.lastAnalyze.Library)
	assert.Equal(t, commandScan, svc.lastAnalyze.Command)
}

func TestRun_AnalyzeWritesJSONReport(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	out := filepath.Join(dir, "custom", "report.json")
	svc := &fakeService{agg: sampleAggregate()}

	code, stdout, stderr, _ := runCLI(t, svc, "--config", cfgPath, "analyze", "--format", "json", "--output", out, "--complexity")

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, out)
	assert.True(t, svc.lastAnalyze.Complexity)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded aggregate.Aggregate
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, commandAnalyze, decoded.Metadata.Command)
	require.Len(t, decoded.ComponentUsage, 2)
	assert.Equal(t, 3, decoded.ComponentUsage[0].Count)
}

func TestRun_AnalyzeDefaultsToOutputDir(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	svc := &fakeService{agg: sampleAggregate()}

	code, _, stderr, _ := runCLI(t, svc, "--config", cfgPath, "analyze", "--format", "markdown")
	require.Equal(t, exitOK, code, stderr)

	matches, err := filepath.Glob(filepath.Join(dir, "reports", "analyze-report-*.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "Button")
}

func TestRun_ExitCodes(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	tests := []struct {
		name string
		err  error
		args []string
		want int
	}{
		{name: "unknown command", args: []string{"bogus"}, want: exitUsage},
		{name: "unknown flag", args: []string{"scan", "--nope"}, want: exitUsage},
		{name: "too many args", args: []string{"scan", "a", "b"}, want: exitUsage},
		{name: "bad format", args: []string{"--config", cfgPath, "scan", "--format", "pdf"}, want: exitUsage},
		{name: "bad mode", args: []string{"--config", cfgPath, "scan", "--mode", "pie"}, want: exitUsage},
		{name: "validation from core", err: errors.New(errors.CodeValidationError, "bad glob"), args: []string{"--config", cfgPath, "scan"}, want: exitUsage},
		{name: "no files", err: errors.New(errors.CodeNotFound, "no matching files"), args: []string{"--config", cfgPath, "scan"}, want: exitFailure},
		{name: "missing config file", args: []string{"--config", "/does/not/exist.toml", "scan"}, want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{agg: sampleAggregate(), err: tt.err}
			code, _, stderr, _ := runCLI(t, svc, tt.args...)
			assert.Equal(t, tt.want, code, stderr)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestRun_CompareNeedsTwoLibraries(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	svc := &fakeService{agg: sampleAggregate()}

	code, _, stderr, factory := runCLI(t, svc, "--config", cfgPath, "compare", "--library", "@design/foundation")

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "at least two")
	assert.Zero(t, factory.calls)
}

func TestRun_CompareAcceptsCommaSeparatedLibraries(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	svc := &fakeService{agg: sampleAggregate()}

	code, stdout, stderr, _ := runCLI(t, svc, "--config", cfgPath, "compare", "--library", "@design/foundation,@other/kit", "--format", "console")

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "@other/kit")
}

func TestRun_CompareRejectsMarkdown(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	svc := &fakeService{agg: sampleAggregate()}

	code, _, _, _ := runCLI(t, svc, "--config", cfgPath, "compare", "-l", "a", "-l", "b", "--format", "markdown")
	assert.Equal(t, exitUsage, code)
}

func TestRun_GitHubValidatesReferences(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	svc := &fakeService{agg: sampleAggregate()}

	code, _, _, factory := runCLI(t, svc, "--config", cfgPath, "github")
	assert.Equal(t, exitUsage, code)

	code, _, _, _ = runCLI(t, svc, "--config", cfgPath, "github", "not a repo")
	assert.Equal(t, exitUsage, code)
	assert.Zero(t, factory.calls)
}

func TestRun_GitHubReadsRepositoryList(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	list := filepath.Join(dir, "repos.yaml")
	require.NoError(t, os.WriteFile(list, []byte("repositories:\n  - acme/web\n  - acme/admin\n"), 0o644))
	svc := &fakeService{agg: sampleAggregate(), err: errors.New(errors.CodeInternal, "clone failed")}

	code, _, stderr, _ := runCLI(t, svc, "--config", cfgPath, "github", "acme/docs", "--repos", list, "--branch", "develop")

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "clone failed")
	assert.Equal(t, []string{"acme/docs", "acme/web", "acme/admin"}, svc.lastGitHub.Repositories)
	assert.Equal(t, "develop", svc.lastGitHub.Branch)
}

func TestRun_HistoryTSV(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &fakeService{history: ports.HistoryResult{Runs: []history.Run{
		{ID: "run-1", Command: "analyze", Library: "@design/foundation", Timestamp: at, FilesAnalyzed: 4, TotalComponents: 2},
	}}}

	code, stdout, stderr, _ := runCLI(t, svc, "--config", cfgPath, "history", "--format", "tsv", "--since", "2026-02-01", "--limit", "5", "--component", " Button ")

	require.Equal(t, exitOK, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Timestamp\tRun"))
	assert.Contains(t, lines[1], "2026-03-01T12:00:00Z\trun-1\tanalyze")
	assert.Equal(t, 5, svc.lastHistory.Limit)
	assert.Equal(t, "Button", svc.lastHistory.Component)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), svc.lastHistory.Since)
}

func TestRun_HistoryRejectsUnknownFormat(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	code, _, _, factory := runCLI(t, &fakeService{}, "--config", cfgPath, "history", "--format", "markdown")
	assert.Equal(t, exitUsage, code)
	assert.Zero(t, factory.calls)
}

func TestRun_HistoryDisabledFails(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	svc := &fakeService{err: errors.New(errors.CodeNotSupported, "history is disabled")}
	code, _, stderr, _ := runCLI(t, svc, "--config", cfgPath, "history")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "history is disabled")
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseSince("2026-01-02T03:04:05+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 1, 4, 5, 0, time.UTC), got)

	got, err = parseSince("2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = parseSince("48h")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), got, time.Minute)

	_, err = parseSince("yesterday")
	require.Error(t, err)
	var ue usageError
	assert.ErrorAs(t, err, &ue)
}

func TestOutputOptionsResolve(t *testing.T) {
	cfg := config.Default()

	o := outputOptions{}
	require.NoError(t, o.resolve(cfg))
	assert.Equal(t, config.FormatJSON, o.format)
	assert.Equal(t, config.ModeTable, o.mode)
	assert.False(t, o.printsConsole())
	assert.True(t, o.savesFile())

	o = outputOptions{format: config.FormatBoth, mode: config.ModeChart}
	require.NoError(t, o.resolve(cfg))
	assert.True(t, o.printsConsole())
	assert.True(t, o.savesFile())

	o = outputOptions{format: config.FormatConsole}
	require.NoError(t, o.resolve(cfg))
	assert.False(t, o.savesFile())

	o = outputOptions{format: "xml"}
	assert.Error(t, o.resolve(cfg))
}

func TestSplitLibraries(t *testing.T) {
	got := splitLibraries([]string{"a, b", "", " c ", "d,,"})
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestRun_LogFormat(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	svc := &fakeService{agg: sampleAggregate()}

	code, _, stderr, _ := runCLI(t, svc, "--config", cfgPath, "--log-format", "json", "scan")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, `"msg":"analysis finished"`)

	code, _, _, _ = runCLI(t, svc, "--config", cfgPath, "--log-format", "xml", "scan")
	assert.Equal(t, exitUsage, code)
}
