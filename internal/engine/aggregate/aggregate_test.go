package aggregate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usagelens/internal/engine/classify"
	"usagelens/internal/engine/lockfile"
	"usagelens/internal/engine/parser"
	"usagelens/internal/engine/usage"
)

func analyze(t *testing.T, path, src string) *usage.Report {
	t.Helper()
	p, err := parser.NewParser(parser.NewGrammarLoader())
	require.NoError(t, err)
	r, err := usage.NewAnalyzer(p).AnalyzeSource(context.Background(), path, []byte(src))
	require.NoError(t, err)
	return r
}

var testLock = lockfile.Result{
	Type: lockfile.TypeNPM,
	Path: "package-lock.json",
	Versions: map[string]string{
		"@design":            "0.1.0",
		"@design/foundation": "2.4.1",
		"react":              "18.2.0",
	},
}

const pageSrc = `import { Button, Card } from "@design/foundation";
import Local from "./Local";
export const Page = () => (
  <Card>
    <Button />
    <Button />
    <Local />
  </Card>
);
`

const formSrc = `import { Button } from "@design/foundation/button";
import * as Icons from "icons";
const Submit = Button;
export const Form = () => <Button onClick={submit} />;
`

func TestResolvePackage(t *testing.T) {
	packages := []string{"@design", "@design/foundation", "react"}
	tests := []struct {
		source string
		want   string
	}{
		{"./Button", PackageLocal},
		{"../shared/Card", PackageLocal},
		{"/abs/path", PackageLocal},
		{"@design/foundation", "@design/foundation"},
		{"@design/foundation/button", "@design/foundation"},
		{"@design/other", "@design"},
		{"react", "react"},
		{"react-dom", PackageUnknown},
		{"", PackageUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePackage(tt.source, packages))
		})
	}
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder()
	b.Add(analyze(t, "src/Page.tsx", pageSrc))
	b.Add(analyze(t, "src/Form.tsx", formSrc))
	b.AddError("src/Broken.tsx", fmt.Errorf("read failed"))

	agg := b.Build(Metadata{RunID: "run-1", Command: "analyze"}, testLock)

	assert.Equal(t, 3, agg.Metadata.TotalFiles)
	assert.Equal(t, 2, agg.Metadata.FilesAnalyzed)
	assert.Equal(t, 1, agg.Metadata.FilesWithErrors)
	assert.Equal(t, "npm", agg.Metadata.LockfileType)
	assert.Equal(t, "package-lock.json", agg.Metadata.LockfilePath)

	button, ok := agg.Component("Button")
	require.True(t, ok)
	assert.Equal(t, 3, button.Count)
	assert.Equal(t, []string{"src/Form.tsx", "src/Page.tsx"}, button.Files)
	assert.Equal(t, "@design/foundation", button.Package)
	assert.Equal(t, "2.4.1", button.Version)

	local, ok := agg.Component("Local")
	require.True(t, ok)
	assert.Equal(t, PackageLocal, local.Package)
	assert.Equal(t, lockfile.Unknown, local.Version)

	names := make([]string, 0, len(agg.ComponentUsage))
	for _, c := range agg.ComponentUsage {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Button", "Card", "Local"}, names)
	assert.Equal(t, 3, agg.Summary.TotalComponents)
	assert.Equal(t, "Button", agg.TopComponents[0].Name)

	require.Len(t, agg.Errors, 1)
	assert.Equal(t, FileError{File: "src/Broken.tsx", Error: "read failed"}, agg.Errors[0])
}

func TestBuilder_PackageDistribution(t *testing.T) {
	b := NewBuilder()
	b.Add(analyze(t, "src/Page.tsx", pageSrc))
	agg := b.Build(Metadata{}, testLock)

	require.Len(t, agg.PackageDistribution, 2)
	design := agg.PackageDistribution[0]
	assert.Equal(t, "@design/foundation", design.Package)
	assert.Equal(t, "2.4.1", design.Version)
	assert.Equal(t, 3, design.UsageCount)
	assert.Equal(t, 2, design.ComponentCount)
	assert.Equal(t, 75.0, design.Percentage)

	local := agg.PackageDistribution[1]
	assert.Equal(t, PackageLocal, local.Package)
	assert.Equal(t, 25.0, local.Percentage)
}

func TestBuilder_PatternCounts(t *testing.T) {
	b := NewBuilder()
	b.Add(analyze(t, "src/Page.tsx", pageSrc))
	b.Add(analyze(t, "src/Form.tsx", formSrc))
	agg := b.Build(Metadata{}, lockfile.Result{})

	require.Len(t, agg.PatternCounts, len(patternDefs))
	assert.Equal(t, 3, agg.PatternCount("Named Imports"))
	assert.Equal(t, 1, agg.PatternCount("Default Imports"))
	assert.Equal(t, 1, agg.PatternCount("Namespace Imports"))
	assert.Equal(t, 1, agg.PatternCount("Variable Assignments"))
	assert.Equal(t, 0, agg.PatternCount("Portal Usage"))
	assert.Equal(t, 0, agg.PatternCount("no such pattern"))

	assert.LessOrEqual(t, len(agg.TopPatterns), topPatternLimit)
	assert.Equal(t, "JSX Usage", agg.TopPatterns[0].DisplayName)
	assert.Equal(t, 4, agg.TopPatterns[0].Count)
	for _, p := range agg.TopPatterns {
		assert.Positive(t, p.Count)
	}
	assert.Equal(t, 5, agg.Summary.TotalImports)
}

func TestBuilder_MergeIsAdditive(t *testing.T) {
	page := analyze(t, "src/Page.tsx", pageSrc)
	form := analyze(t, "src/Form.tsx", formSrc)

	whole := NewBuilder()
	whole.Add(page)
	whole.Add(form)
	whole.AddError("x.tsx", fmt.Errorf("boom"))

	left, right := NewBuilder(), NewBuilder()
	left.Add(page)
	right.Add(form)
	right.AddError("x.tsx", fmt.Errorf("boom"))
	left.Merge(right)

	meta := Metadata{RunID: "same", Timestamp: "t"}
	assert.Equal(t, whole.Build(meta, testLock), left.Build(meta, testLock))
}

func TestBuilder_Complexity(t *testing.T) {
	r := analyze(t, "src/Page.tsx", pageSrc)
	c := classify.New(classify.DefaultPolicy()).Analyze(r)

	b := NewBuilder().KeepReports(true)
	b.Add(r)
	b.AddComplexity(r.File, c)
	agg := b.Build(Metadata{}, lockfile.Result{})

	require.Len(t, agg.FileComplexity, 1)
	fc := agg.FileComplexity[0]
	assert.Equal(t, "src/Page.tsx", fc.File)
	assert.Equal(t, c.ComplexityScore.Score, fc.Score)
	assert.Equal(t, c.ComplexityScore.Level, fc.Level)
	assert.Contains(t, fc.Patterns, classify.DirectImport)
	require.Len(t, agg.Reports, 1)
	assert.Same(t, r, agg.Reports[0])
}

func TestBuilder_Empty(t *testing.T) {
	agg := NewBuilder().Build(Metadata{}, lockfile.Result{})

	assert.Empty(t, agg.ComponentUsage)
	assert.NotNil(t, agg.ComponentUsage)
	assert.NotNil(t, agg.Errors)
	assert.Empty(t, agg.TopPatterns)
	assert.Equal(t, 0, agg.Metadata.TotalFiles)
}
