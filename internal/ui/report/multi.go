package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"usagelens/internal/core/ports"
	"usagelens/internal/data/repository"
	"usagelens/internal/engine/aggregate"
)

const maxFrequencyRows = 20

// PrintCompare renders one column per library over the union of components.
func PrintCompare(w io.Writer, aggs []*aggregate.Aggregate) error {
	if len(aggs) == 0 {
		return fmt.Errorf("compare report requires at least one aggregate")
	}

	headers := []string{"Metric"}
	for _, a := range aggs {
		headers = append(headers, a.Metadata.Library)
	}
	summary := [][]string{
		metricRow("Files analyzed", aggs, func(a *aggregate.Aggregate) int { return a.Metadata.FilesAnalyzed }),
		metricRow("Components", aggs, func(a *aggregate.Aggregate) int { return a.Summary.TotalComponents }),
		metricRow("Imports", aggs, func(a *aggregate.Aggregate) int { return a.Summary.TotalImports }),
		metricRow("Usage patterns", aggs, func(a *aggregate.Aggregate) int { return a.Summary.TotalUsagePatterns }),
	}

	totals := make(map[string]int)
	for _, a := range aggs {
		for _, c := range a.ComponentUsage {
			totals[c.Name] += c.Count
		}
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})
	names = names[:min(len(names), maxConsoleComponents)]

	componentHeaders := append([]string{"Component"}, headers[1:]...)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		row := []string{name}
		for _, a := range aggs {
			cell := "-"
			if c, ok := a.Component(name); ok {
				cell = fmt.Sprintf("%d", c.Count)
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}

	sections := []string{
		titleStyle.Render("Library Comparison") + "\n" + renderTable(headers, summary),
	}
	if len(rows) > 0 {
		sections = append(sections, titleStyle.Render("Components")+"\n"+renderTable(componentHeaders, rows))
	}
	return writeSections(w, sections)
}

func metricRow(label string, aggs []*aggregate.Aggregate, value func(*aggregate.Aggregate) int) []string {
	row := []string{label}
	for _, a := range aggs {
		row = append(row, fmt.Sprintf("%d", value(a)))
	}
	return row
}

// PrintCombined renders the multi-repository report.
func PrintCombined(w io.Writer, c *repository.Combined) error {
	if c == nil {
		return fmt.Errorf("github report requires a combined result")
	}
	meta := c.Metadata

	lines := []string{titleStyle.Render("Repository Analysis")}
	for _, r := range [][2]string{
		{"Repositories", fmt.Sprintf("%d", meta.TotalRepositories)},
		{"Failed clones", fmt.Sprintf("%d", meta.FailedClones)},
		{"Branch", meta.Branch},
		{"Files", fmt.Sprintf("%d", c.Totals.Files)},
		{"Components", fmt.Sprintf("%d", len(c.Totals.Components))},
		{"Imports", fmt.Sprintf("%d", c.Totals.Imports)},
		{"Usage patterns", fmt.Sprintf("%d", c.Totals.Usages)},
	} {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-15s", r[0]))+r[1])
	}
	sections := []string{boxStyle.Render(strings.Join(lines, "\n"))}

	if len(c.RepoSummaries) > 0 {
		rows := make([][]string, 0, len(c.RepoSummaries))
		for _, s := range c.RepoSummaries {
			top := make([]string, 0, len(s.TopComponents))
			for _, t := range s.TopComponents {
				top = append(top, fmt.Sprintf("%s (%d)", t.Component, t.Uses))
			}
			rows = append(rows, []string{s.Name, fmt.Sprintf("%d", s.Files), fmt.Sprintf("%d", s.Components), fmt.Sprintf("%d", s.Errors), strings.Join(top, ", ")})
		}
		sections = append(sections, titleStyle.Render("Repositories")+"\n"+renderTable([]string{"Repository", "Files", "Components", "Errors", "Top components"}, rows))
	}

	if len(c.ComponentFrequency) > 0 {
		freq := c.ComponentFrequency[:min(len(c.ComponentFrequency), maxFrequencyRows)]
		rows := make([][]string, 0, len(freq))
		for _, f := range freq {
			rows = append(rows, []string{f.DisplayName, fmt.Sprintf("%d", f.Count), fmt.Sprintf("%d", len(f.Repos))})
		}
		sections = append(sections, titleStyle.Render("Component Frequency")+"\n"+renderTable([]string{"Component", "Uses", "Repos"}, rows))
	}

	if len(c.CloneErrors) > 0 {
		errLines := []string{errorStyle.Render(fmt.Sprintf("Clone failures (%d)", len(c.CloneErrors)))}
		for _, e := range c.CloneErrors {
			errLines = append(errLines, fmt.Sprintf("  %s: %s", e.Repository, e.Error))
		}
		sections = append(sections, strings.Join(errLines, "\n"))
	}
	return writeSections(w, sections)
}

// PrintHistory renders stored runs and, when present, a component trend.
func PrintHistory(w io.Writer, res ports.HistoryResult) error {
	if len(res.Runs) == 0 {
		_, err := fmt.Fprintln(w, labelStyle.Render("No runs recorded."))
		return err
	}
	rows := make([][]string, 0, len(res.Runs))
	for _, r := range res.Runs {
		rows = append(rows, []string{
			r.Timestamp.Local().Format(time.DateTime),
			r.Command,
			r.Library,
			fmt.Sprintf("%d", r.FilesAnalyzed),
			fmt.Sprintf("%d", r.TotalComponents),
			fmt.Sprintf("%d", r.TotalUsagePatterns),
			shortID(r.ID),
		})
	}
	sections := []string{
		titleStyle.Render("Run History") + "\n" + renderTable([]string{"When", "Command", "Library", "Files", "Components", "Patterns", "Run"}, rows),
	}

	if len(res.Trend) > 0 {
		labels := make([]string, len(res.Trend))
		values := make([]float64, len(res.Trend))
		for i, p := range res.Trend {
			labels[i] = p.Timestamp.Local().Format(time.DateTime)
			values[i] = float64(p.Count)
		}
		sections = append(sections, titleStyle.Render("Trend")+"\n"+renderBars(labels, values, "%.0f"))
	}
	return writeSections(w, sections)
}

// RenderHistoryTSV emits one row per run.
func RenderHistoryTSV(res ports.HistoryResult) []byte {
	var buf strings.Builder
	buf.WriteString("Timestamp\tRun\tCommand\tLibrary\tFiles\tErrors\tComponents\tImports\tPatterns\n")
	for _, r := range res.Runs {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.Timestamp.UTC().Format(time.RFC3339),
			r.ID,
			r.Command,
			r.Library,
			r.FilesAnalyzed,
			r.FilesWithErrors,
			r.TotalComponents,
			r.TotalImports,
			r.TotalUsagePatterns,
		))
	}
	return []byte(buf.String())
}

// PrintWatchUpdate prints a one-line status after an incremental rebuild.
func PrintWatchUpdate(w io.Writer, u ports.WatchUpdate) {
	if u.Aggregate == nil {
		return
	}
	fmt.Fprintf(w, "%s %s reanalyzed=%d skipped=%d components=%d patterns=%d errors=%d (%s)\n",
		labelStyle.Render(time.Now().Format(time.TimeOnly)),
		successStyle.Render("updated"),
		u.Reanalyzed,
		u.Skipped,
		u.Aggregate.Summary.TotalComponents,
		u.Aggregate.Summary.TotalUsagePatterns,
		u.Aggregate.Metadata.FilesWithErrors,
		u.Duration.Round(time.Millisecond),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
