package formats

import (
	"fmt"
	"strings"
	"time"

	"usagelens/internal/engine/aggregate"
)

type MarkdownReportOptions struct {
	ProjectName         string
	Version             string
	GeneratedAt         time.Time
	Verbosity           string
	TableOfContents     bool
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(agg *aggregate.Aggregate, opts MarkdownReportOptions) (string, error) {
	if agg == nil {
		return "", fmt.Errorf("markdown report requires an aggregate")
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	verbosity := normalizeReportVerbosity(opts.Verbosity)
	meta := agg.Metadata

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Component Usage Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("library: " + nonEmpty(meta.Library, "all") + "\n")
	b.WriteString("run_id: " + nonEmpty(meta.RunID, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Component Usage Report\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Summary](#summary)\n")
		b.WriteString("- [Components](#components)\n")
		b.WriteString("- [Packages](#packages)\n")
		b.WriteString("- [Usage Patterns](#usage-patterns)\n")
		if len(agg.FileComplexity) > 0 {
			b.WriteString("- [Complexity](#complexity)\n")
		}
		b.WriteString("- [Errors](#errors)\n")
		b.WriteString("\n")
	}

	b.WriteString("## Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Total Files | %d |\n", meta.TotalFiles))
	b.WriteString(fmt.Sprintf("| Files Analyzed | %d |\n", meta.FilesAnalyzed))
	b.WriteString(fmt.Sprintf("| Files With Errors | %d |\n", meta.FilesWithErrors))
	b.WriteString(fmt.Sprintf("| Components | %d |\n", agg.Summary.TotalComponents))
	b.WriteString(fmt.Sprintf("| Imports | %d |\n", agg.Summary.TotalImports))
	b.WriteString(fmt.Sprintf("| Usage Patterns | %d |\n", agg.Summary.TotalUsagePatterns))
	if meta.LockfileType != "" {
		b.WriteString(fmt.Sprintf("| Lockfile | `%s` (%s) |\n", meta.LockfilePath, meta.LockfileType))
	}
	b.WriteString("\n")

	m.writeComponents(&b, agg, opts.CollapsibleSections, verbosity)
	m.writePackages(&b, agg.PackageDistribution, opts.CollapsibleSections)
	m.writePatterns(&b, agg.PatternCounts)
	if len(agg.FileComplexity) > 0 {
		m.writeComplexity(&b, agg, opts.CollapsibleSections, verbosity)
	}
	m.writeErrors(&b, agg, opts.CollapsibleSections)

	return b.String(), nil
}

func (m *MarkdownGenerator) writeComponents(b *strings.Builder, agg *aggregate.Aggregate, collapsible bool, verbosity string) {
	b.WriteString("## Components\n")
	if len(agg.ComponentUsage) == 0 {
		b.WriteString("No component usage detected.\n\n")
		return
	}
	rows := make([]string, 0, len(agg.ComponentUsage))
	for _, c := range sortedByCount(agg.ComponentUsage) {
		if verbosity == "summary" {
			rows = append(rows, fmt.Sprintf("| `%s` | %d |\n", c.Name, c.Count))
			continue
		}
		files := fmt.Sprintf("%d", len(c.Files))
		if verbosity == "detailed" {
			rel := make([]string, 0, len(c.Files))
			for _, f := range c.Files {
				rel = append(rel, "`"+relPath(agg.Metadata.Root, f)+"`")
			}
			files = strings.Join(rel, "<br>")
		}
		rows = append(rows, fmt.Sprintf("| `%s` | %d | `%s` | %s | %s |\n", c.Name, c.Count, c.Package, c.Version, files))
	}
	header := []string{"| Component | Uses | Package | Version | Files |\n", "| --- | --- | --- | --- | --- |\n"}
	if verbosity == "summary" {
		header = []string{"| Component | Uses |\n", "| --- | --- |\n"}
	}
	m.writeTableWithCollapse(b, "Component details", collapsible, len(rows) > 15, header, rows)
}

func (m *MarkdownGenerator) writePackages(b *strings.Builder, shares []aggregate.PackageShare, collapsible bool) {
	b.WriteString("## Packages\n")
	if len(shares) == 0 {
		b.WriteString("No packages resolved.\n\n")
		return
	}
	rows := make([]string, 0, len(shares))
	for _, p := range shares {
		rows = append(rows, fmt.Sprintf("| `%s` | %s | %d | %d | %.1f%% |\n", p.Package, p.Version, p.ComponentCount, p.UsageCount, p.Percentage))
	}
	m.writeTableWithCollapse(
		b,
		"Package details",
		collapsible,
		len(rows) > 10,
		[]string{"| Package | Version | Components | Uses | Share |\n", "| --- | --- | --- | --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writePatterns(b *strings.Builder, counts []aggregate.PatternCount) {
	b.WriteString("## Usage Patterns\n")
	b.WriteString("| Pattern | Count |\n")
	b.WriteString("| --- | --- |\n")
	for _, p := range counts {
		if p.Count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("| %s | %d |\n", p.DisplayName, p.Count))
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeComplexity(b *strings.Builder, agg *aggregate.Aggregate, collapsible bool, verbosity string) {
	b.WriteString("## Complexity\n")
	rows := make([]string, 0, len(agg.FileComplexity))
	for _, fc := range agg.FileComplexity {
		file := relPath(agg.Metadata.Root, fc.File)
		if verbosity == "summary" {
			rows = append(rows, fmt.Sprintf("| `%s` | %d | %s |\n", file, fc.Score, fc.Level))
			continue
		}
		recs := make([]string, 0, len(fc.Recommendations))
		for _, r := range fc.Recommendations {
			recs = append(recs, fmt.Sprintf("**%s** %s", r.Priority, r.Message))
		}
		rows = append(rows, fmt.Sprintf("| `%s` | %d | %s | %s | %.0f%% | %s | %s |\n",
			file, fc.Score, fc.Level, fc.Intensity, fc.Coverage*100, strings.Join(fc.Patterns, ", "), strings.Join(recs, "<br>")))
	}
	header := []string{"| File | Score | Level | Intensity | Coverage | Patterns | Recommendations |\n", "| --- | --- | --- | --- | --- | --- | --- |\n"}
	if verbosity == "summary" {
		header = []string{"| File | Score | Level |\n", "| --- | --- | --- |\n"}
	}
	m.writeTableWithCollapse(b, "Complexity details", collapsible, len(rows) > 10, header, rows)
}

func (m *MarkdownGenerator) writeErrors(b *strings.Builder, agg *aggregate.Aggregate, collapsible bool) {
	b.WriteString("## Errors\n")
	if len(agg.Errors) == 0 {
		b.WriteString("No files failed to analyze.\n\n")
		return
	}
	rows := make([]string, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		rows = append(rows, fmt.Sprintf("| `%s` | %s |\n", relPath(agg.Metadata.Root, e.File), escapeCell(e.Error)))
	}
	m.writeTableWithCollapse(
		b,
		"Error details",
		collapsible,
		len(rows) > 10,
		[]string{"| File | Error |\n", "| --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func normalizeReportVerbosity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "summary":
		return "summary"
	case "detailed":
		return "detailed"
	default:
		return "standard"
	}
}
