package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usagelens/internal/core/config"
	"usagelens/internal/core/ports"
	"usagelens/internal/data/history"
	"usagelens/internal/data/repository"
	"usagelens/internal/engine/aggregate"
)

func testAggregate() *aggregate.Aggregate {
	agg := &aggregate.Aggregate{
		Metadata: aggregate.Metadata{
			RunID:         "0b6f7a9e-1111-2222-3333-444455556666",
			Command:       "analyze",
			Library:       "@design/foundation",
			Root:          "/repo",
			TotalFiles:    2,
			FilesAnalyzed: 2,
		},
		Summary: aggregate.Summary{TotalImports: 3, TotalComponents: 2, TotalUsagePatterns: 5},
		ComponentUsage: []aggregate.ComponentUsage{
			{Name: "Button", Count: 4, Files: []string{"/repo/a.tsx"}, Package: "@design/foundation", Version: "2.4.1"},
			{Name: "Card", Count: 1, Files: []string{"/repo/a.tsx"}, Package: "@design/foundation", Version: "2.4.1"},
		},
		PackageDistribution: []aggregate.PackageShare{
			{Package: "@design/foundation", Version: "2.4.1", ComponentCount: 2, UsageCount: 5, Percentage: 100},
		},
		PatternCounts: []aggregate.PatternCount{
			{Key: "jsxUsage", DisplayName: "JSX Usage", Count: 5},
			{Key: "portals", DisplayName: "Portal Usage", Count: 0},
		},
	}
	agg.TopComponents = agg.ComponentUsage
	return agg
}

func TestPrintAggregate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintAggregate(&buf, testAggregate(), ConsoleOptions{Mode: config.ModeTable}))
	out := buf.String()

	assert.Contains(t, out, "Component Usage")
	assert.Contains(t, out, "@design/foundation")
	assert.Contains(t, out, "Button")
	assert.Contains(t, out, "JSX Usage")
	assert.NotContains(t, out, "Portal Usage")
	assert.NotContains(t, out, "Errors (")
}

func TestPrintAggregate_FallsBackToComponentUsage(t *testing.T) {
	agg := testAggregate()
	agg.TopComponents = nil

	var buf bytes.Buffer
	require.NoError(t, PrintAggregate(&buf, agg, ConsoleOptions{Mode: config.ModeTable, View: View{Components: true}}))
	out := buf.String()
	assert.Contains(t, out, "Button")
	assert.Contains(t, out, "Card")
}

func TestPrintAggregate_SummaryOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintAggregate(&buf, testAggregate(), ConsoleOptions{View: View{SummaryOnly: true}}))
	assert.NotContains(t, buf.String(), "Button")
}

func TestPrintAggregate_ChartMode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintAggregate(&buf, testAggregate(), ConsoleOptions{Mode: config.ModeChart, View: View{Components: true}}))
	out := buf.String()
	assert.Contains(t, out, "█")
	assert.NotContains(t, out, "Usage Patterns")
}

func TestPrintAggregate_TruncatesErrors(t *testing.T) {
	agg := testAggregate()
	for i := 0; i < 13; i++ {
		agg.Errors = append(agg.Errors, aggregate.FileError{File: filepath.Join("/repo", "bad.tsx"), Error: "boom"})
	}
	var buf bytes.Buffer
	require.NoError(t, PrintAggregate(&buf, agg, ConsoleOptions{}))
	out := buf.String()
	assert.Contains(t, out, "Errors (13)")
	assert.Contains(t, out, "... and 3 more")
	assert.Equal(t, 10, strings.Count(out, "bad.tsx: boom"))
}

func TestDefaultPath(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 890000000, time.UTC)
	got := DefaultPath("out", "analyze", ".json", at)
	assert.Equal(t, filepath.Join("out", "analyze-report-2026-03-04T05-06-07-890Z.json"), got)
}

func TestSaveAggregate(t *testing.T) {
	dir := t.TempDir()
	agg := testAggregate()

	path, err := SaveAggregate(agg, SaveOptions{Dir: dir, Format: config.FormatJSON})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "analyze-report-"))
	assert.Equal(t, ".json", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded aggregate.Aggregate
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, agg.Metadata.RunID, decoded.Metadata.RunID)
	assert.Equal(t, "analyze", decoded.Metadata.Command)

	mdPath := filepath.Join(dir, "custom", "report.md")
	_, err = SaveAggregate(agg, SaveOptions{Output: mdPath, Format: config.FormatMarkdown})
	require.NoError(t, err)
	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Component Usage Report")

	tsvPath, err := SaveAggregate(agg, SaveOptions{Dir: dir, Format: config.FormatTSV})
	require.NoError(t, err)
	assert.Equal(t, ".tsv", filepath.Ext(tsvPath))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp files must not be left behind")
	}
}

func TestPrintCompare(t *testing.T) {
	other := testAggregate()
	other.Metadata.Library = "@other/kit"
	other.ComponentUsage = []aggregate.ComponentUsage{{Name: "Grid", Count: 7}}

	var buf bytes.Buffer
	require.NoError(t, PrintCompare(&buf, []*aggregate.Aggregate{testAggregate(), other}))
	out := buf.String()
	assert.Contains(t, out, "@other/kit")
	assert.Contains(t, out, "Grid")
	assert.Contains(t, out, "Button")

	assert.Error(t, PrintCompare(&buf, nil))
}

func TestPrintCombined(t *testing.T) {
	combined := repository.Combine(repository.Metadata{Branch: "main"}, []repository.Result{
		{Repository: "acme/web", Aggregate: testAggregate()},
	}, []repository.CloneError{{Repository: "acme/gone", Error: "not found"}})

	var buf bytes.Buffer
	require.NoError(t, PrintCombined(&buf, combined))
	out := buf.String()
	assert.Contains(t, out, "acme/web")
	assert.Contains(t, out, "Button from @design/foundation@2.4.1")
	assert.Contains(t, out, "Clone failures (1)")
}

func TestHistoryRendering(t *testing.T) {
	res := ports.HistoryResult{
		Runs: []history.Run{{
			ID:              "abcdef0123456789",
			Command:         "analyze",
			Library:         "@design/foundation",
			Timestamp:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			FilesAnalyzed:   10,
			TotalComponents: 4,
		}},
		Trend: []history.TrendPoint{{RunID: "abcdef0123456789", Count: 6}},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintHistory(&buf, res))
	assert.Contains(t, buf.String(), "abcdef01")
	assert.Contains(t, buf.String(), "Trend")

	tsv := string(RenderHistoryTSV(res))
	assert.Contains(t, tsv, "2026-01-02T03:04:05Z\tabcdef0123456789\tanalyze\t@design/foundation\t10\t0\t4\t0\t0")

	buf.Reset()
	require.NoError(t, PrintHistory(&buf, ports.HistoryResult{}))
	assert.Contains(t, buf.String(), "No runs recorded.")
}

const siteSource = `import { Button, ButtonGroup } from "@design/foundation";

export function Toolbar() {
  const Primary = Button;
  return (
    <ButtonGroup>
      <Button variant="primary" />
    </ButtonGroup>
  );
}
`

func TestFindUsageSites(t *testing.T) {
	sites := FindUsageSites("Button", []byte(siteSource))
	require.Len(t, sites, 3)
	assert.Equal(t, SiteImport, sites[0].Kind)
	assert.Equal(t, 1, sites[0].Line)
	assert.Equal(t, SiteReference, sites[1].Kind)
	assert.Equal(t, 4, sites[1].Line)
	assert.Equal(t, SiteJSX, sites[2].Kind)
	assert.Equal(t, 7, sites[2].Line)
	assert.Len(t, sites[2].Context, 5)
	assert.Equal(t, "    7:       <Button variant=\"primary\" />", sites[2].Context[2])

	assert.Empty(t, FindUsageSites("Missing", []byte(siteSource)))
	assert.Empty(t, FindUsageSites("", []byte(siteSource)))
}
