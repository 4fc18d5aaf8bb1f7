package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"usagelens/internal/core/config"
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/shared/util"
)

const (
	maxConsoleErrors     = 10
	maxConsoleComponents = 25
	barWidth             = 30
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// View selects the console sections. With nothing selected every section
// is printed.
type View struct {
	Summary     bool
	Details     bool
	Components  bool
	Packages    bool
	Patterns    bool
	SummaryOnly bool
}

func (v View) all() bool {
	return !v.Summary && !v.Details && !v.Components && !v.Packages && !v.Patterns
}

type ConsoleOptions struct {
	Mode string
	View View
}

// PrintAggregate renders agg to w.
func PrintAggregate(w io.Writer, agg *aggregate.Aggregate, opts ConsoleOptions) error {
	if agg == nil {
		return fmt.Errorf("console report requires an aggregate")
	}
	chart := opts.Mode == config.ModeChart
	v := opts.View

	var sections []string
	sections = append(sections, renderSummary(agg))
	if v.SummaryOnly {
		return writeSections(w, sections)
	}
	if v.all() || v.Components || v.Details {
		sections = append(sections, renderComponents(agg, chart, v.Details))
	}
	if v.all() || v.Packages || v.Details {
		sections = append(sections, renderPackages(agg.PackageDistribution, chart))
	}
	if v.all() || v.Patterns || v.Details {
		sections = append(sections, renderPatterns(agg.PatternCounts, chart))
	}
	if len(agg.FileComplexity) > 0 && (v.all() || v.Details) {
		sections = append(sections, renderComplexity(agg))
	}
	if len(agg.Errors) > 0 {
		sections = append(sections, renderErrors(agg))
	}
	return writeSections(w, sections)
}

func writeSections(w io.Writer, sections []string) error {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(out, "\n\n"))
	return err
}

func renderSummary(agg *aggregate.Aggregate) string {
	meta := agg.Metadata
	title := "Component Usage"
	if meta.Library != "" {
		title += " · " + meta.Library
	}
	rows := [][2]string{
		{"Files", fmt.Sprintf("%d", meta.TotalFiles)},
		{"Analyzed", fmt.Sprintf("%d", meta.FilesAnalyzed)},
		{"Errors", fmt.Sprintf("%d", meta.FilesWithErrors)},
		{"Components", fmt.Sprintf("%d", agg.Summary.TotalComponents)},
		{"Imports", fmt.Sprintf("%d", agg.Summary.TotalImports)},
		{"Usage patterns", fmt.Sprintf("%d", agg.Summary.TotalUsagePatterns)},
	}
	if meta.LockfileType != "" {
		rows = append(rows, [2]string{"Lockfile", meta.LockfileType})
	}
	lines := []string{titleStyle.Render(title)}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-15s", r[0]))+r[1])
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderComponents(agg *aggregate.Aggregate, chart, details bool) string {
	if len(agg.ComponentUsage) == 0 {
		return titleStyle.Render("Components") + "\n" + labelStyle.Render("No component usage detected.")
	}
	components := agg.TopComponents
	if details || len(components) == 0 {
		components = agg.ComponentUsage
	}
	components = components[:min(len(components), maxConsoleComponents)]

	if chart {
		labels := make([]string, len(components))
		values := make([]float64, len(components))
		for i, c := range components {
			labels[i] = c.Name
			values[i] = float64(c.Count)
		}
		return titleStyle.Render("Components") + "\n" + renderBars(labels, values, "%.0f")
	}

	rows := make([][]string, 0, len(components))
	for _, c := range components {
		rows = append(rows, []string{c.Name, fmt.Sprintf("%d", c.Count), c.Package, c.Version, fmt.Sprintf("%d", len(c.Files))})
	}
	return titleStyle.Render("Components") + "\n" + renderTable([]string{"Component", "Uses", "Package", "Version", "Files"}, rows)
}

func renderPackages(shares []aggregate.PackageShare, chart bool) string {
	if len(shares) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(shares))
	for _, p := range shares {
		usage := fmt.Sprintf("%.1f%%", p.Percentage)
		if chart {
			usage = bar(p.Percentage, 100) + " " + usage
		}
		rows = append(rows, []string{p.Package, p.Version, fmt.Sprintf("%d", p.UsageCount), usage})
	}
	return titleStyle.Render("Packages") + "\n" + renderTable([]string{"Package", "Version", "Uses", "Share"}, rows)
}

func renderPatterns(counts []aggregate.PatternCount, chart bool) string {
	var labels []string
	var values []float64
	for _, p := range counts {
		if p.Count == 0 {
			continue
		}
		labels = append(labels, p.DisplayName)
		values = append(values, float64(p.Count))
	}
	if len(labels) == 0 {
		return titleStyle.Render("Usage Patterns") + "\n" + labelStyle.Render("No usage patterns detected.")
	}
	if chart {
		return titleStyle.Render("Usage Patterns") + "\n" + renderBars(labels, values, "%.0f")
	}
	rows := make([][]string, len(labels))
	for i := range labels {
		rows[i] = []string{labels[i], fmt.Sprintf("%.0f", values[i])}
	}
	return titleStyle.Render("Usage Patterns") + "\n" + renderTable([]string{"Pattern", "Count"}, rows)
}

func renderComplexity(agg *aggregate.Aggregate) string {
	rows := make([][]string, 0, len(agg.FileComplexity))
	var recs []string
	total := 0
	for _, fc := range agg.FileComplexity {
		total += fc.Score
		rows = append(rows, []string{
			util.RelativeTo(agg.Metadata.Root, fc.File),
			fmt.Sprintf("%d", fc.Score),
			fc.Level,
			fc.Intensity,
			fmt.Sprintf("%.0f%%", fc.Coverage*100),
			fmt.Sprintf("%d", len(fc.Patterns)),
		})
		for _, r := range fc.Recommendations {
			recs = append(recs, fmt.Sprintf("  [%s] %s: %s", r.Priority, util.RelativeTo(agg.Metadata.Root, fc.File), r.Message))
		}
	}
	out := titleStyle.Render("Complexity") + "\n" +
		renderTable([]string{"File", "Score", "Level", "Intensity", "Coverage", "Patterns"}, rows) + "\n" +
		labelStyle.Render(fmt.Sprintf("Average score %.1f across %d files", float64(total)/float64(len(rows)), len(rows)))
	if len(recs) > 0 {
		out += "\n" + titleStyle.Render("Recommendations") + "\n" + strings.Join(recs[:min(len(recs), maxConsoleErrors)], "\n")
	}
	return out
}

func renderErrors(agg *aggregate.Aggregate) string {
	lines := []string{errorStyle.Render(fmt.Sprintf("Errors (%d)", len(agg.Errors)))}
	for _, e := range agg.Errors[:min(len(agg.Errors), maxConsoleErrors)] {
		lines = append(lines, fmt.Sprintf("  %s: %s", util.RelativeTo(agg.Metadata.Root, e.File), util.Truncate(e.Error, 120)))
	}
	if extra := len(agg.Errors) - maxConsoleErrors; extra > 0 {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("  ... and %d more", extra)))
	}
	return strings.Join(lines, "\n")
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

func renderBars(labels []string, values []float64, format string) string {
	width := 0
	maxValue := 0.0
	for i, l := range labels {
		width = max(width, lipgloss.Width(l))
		maxValue = max(maxValue, values[i])
	}
	lines := make([]string, len(labels))
	for i, l := range labels {
		lines[i] = fmt.Sprintf("%-*s %s "+format, width, l, bar(values[i], maxValue), values[i])
	}
	return strings.Join(lines, "\n")
}

func bar(value, maxValue float64) string {
	if maxValue <= 0 {
		return ""
	}
	n := int(value / maxValue * barWidth)
	if value > 0 && n == 0 {
		n = 1
	}
	return barStyle.Render(strings.Repeat("█", n)) + strings.Repeat(" ", barWidth-n)
}

// PrintSaved reports where a file was written.
func PrintSaved(w io.Writer, path string) {
	fmt.Fprintln(w, successStyle.Render("Report saved to "+path))
}
