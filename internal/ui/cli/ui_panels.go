package cli

import (
	"fmt"
	"strings"

	"usagelens/internal/engine/aggregate"
)

const maxPanelSites = 12

func renderHelp(m model) string {
	keys := "Keys: tab panel | / filter | enter details | esc back | j/k site cursor | o open source | p patterns | q quit"
	if m.mode == panelPackages {
		keys = "Keys: tab panel | / filter | p patterns | q quit"
	}
	return statusStyle.Render(keys)
}

func renderComponentPanel(m model) string {
	details := renderComponentSummary(m)
	if m.hasDetails {
		details = renderComponentDetails(m)
	}
	return m.componentList.View() + "\n\n" + details
}

func renderComponentSummary(m model) string {
	c, ok := m.highlighted()
	if !ok {
		return statusStyle.Render("No components found.")
	}
	return strings.Join([]string{
		"Selected Component",
		fmt.Sprintf("  Name: %s", c.Name),
		fmt.Sprintf("  Uses: %d", c.Count),
		fmt.Sprintf("  Package: %s@%s", c.Package, c.Version),
		fmt.Sprintf("  Source: %s", c.Source),
		fmt.Sprintf("  Files: %d", len(c.Files)),
		"  Press enter for usage sites.",
	}, "\n")
}

func renderComponentDetails(m model) string {
	if m.detailsErr != "" {
		return errorStyle.Render("Component details error: " + m.detailsErr)
	}
	c := m.selected
	lines := []string{
		fmt.Sprintf("Component Detail: %s (%s@%s)", c.Name, c.Package, c.Version),
		fmt.Sprintf("  Files (%d): %s", len(c.Files), strings.Join(c.Files, ", ")),
		fmt.Sprintf("  Usage sites (%d):", len(m.sites)),
	}
	if len(m.sites) == 0 {
		lines = append(lines, "   none")
	}

	// Keep the cursor visible when there are more sites than fit.
	start := 0
	if m.selectedSiteIndex >= maxPanelSites {
		start = m.selectedSiteIndex - maxPanelSites + 1
	}
	end := min(start+maxPanelSites, len(m.sites))
	for i := start; i < end; i++ {
		s := m.sites[i]
		prefix := "   "
		if i == m.selectedSiteIndex {
			prefix = " ->"
		}
		lines = append(lines, fmt.Sprintf("%s %s:%d [%s]", prefix, s.file, s.site.Line, s.site.Kind))
	}
	if end < len(m.sites) {
		lines = append(lines, fmt.Sprintf("    ... and %d more", len(m.sites)-end))
	}

	if m.selectedSiteIndex < len(m.sites) {
		lines = append(lines, "")
		for _, ctx := range m.sites[m.selectedSiteIndex].site.Context {
			lines = append(lines, "  "+ctx)
		}
	}
	lines = append(lines, "  Press esc to exit details, o to open the highlighted site.")
	return strings.Join(lines, "\n")
}

func renderPatternOverlay(agg *aggregate.Aggregate) string {
	lines := []string{"Usage Patterns"}
	for _, p := range agg.PatternCounts {
		if p.Count == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-28s %d", p.DisplayName, p.Count))
	}
	if len(lines) == 1 {
		return statusStyle.Render("No usage patterns recorded.")
	}
	return strings.Join(lines, "\n")
}
