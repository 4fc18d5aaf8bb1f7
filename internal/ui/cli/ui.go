package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"usagelens/internal/core/ports"
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/ui/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type panelMode int

const (
	panelComponents panelMode = iota
	panelPackages
)

// usageSite is a FindUsageSites hit resolved to the file it came from.
type usageSite struct {
	file string
	site report.Site
}

type model struct {
	componentList list.Model
	packageList   list.Model
	mode          panelMode
	showPatterns  bool

	agg        *aggregate.Aggregate
	lastUpdate time.Time
	reanalyzed int
	duration   time.Duration

	selected          aggregate.ComponentUsage
	hasDetails        bool
	detailsErr        string
	sites             []usageSite
	selectedSiteIndex int
	sourceJumpStatus  string

	readFile func(string) ([]byte, error)
}

type updateMsg struct {
	update ports.WatchUpdate
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := max(msg.Height-v-12, 5)
		m.componentList.SetSize(width, height)
		m.packageList.SetSize(width, height)
	case updateMsg:
		m = m.applyUpdate(msg.update)
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Source jump failed: %v", msg.err))
		} else {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Opened source: %s", msg.target))
		}
	}

	var cmd tea.Cmd
	if m.mode == panelComponents {
		m.componentList, cmd = m.componentList.Update(msg)
	} else {
		m.packageList, cmd = m.packageList.Update(msg)
	}
	return m, cmd
}

func (m model) applyUpdate(u ports.WatchUpdate) model {
	if u.Aggregate == nil {
		return m
	}
	m.agg = u.Aggregate
	m.lastUpdate = time.Now()
	m.reanalyzed = u.Reanalyzed
	m.duration = u.Duration
	m.detailsErr = ""

	components := make([]list.Item, 0, len(m.agg.ComponentUsage))
	for _, c := range m.agg.ComponentUsage {
		components = append(components, item{
			title: c.Name,
			desc:  fmt.Sprintf("uses=%d files=%d package=%s@%s", c.Count, len(c.Files), c.Package, c.Version),
		})
	}
	m.componentList.SetItems(components)

	packages := make([]list.Item, 0, len(m.agg.PackageDistribution))
	for _, p := range m.agg.PackageDistribution {
		packages = append(packages, item{
			title: p.Package + "@" + p.Version,
			desc:  fmt.Sprintf("components=%d uses=%d share=%.1f%%", p.ComponentCount, p.UsageCount, p.Percentage),
		})
	}
	m.packageList.SetItems(packages)

	if m.hasDetails {
		m = m.loadDetails(m.selected.Name)
	}
	return m
}

func (m model) View() string {
	if m.agg == nil {
		return docStyle.Render(titleStyle("Component Usage") + "\n\n" + statusStyle.Render("Analyzing..."))
	}

	meta := m.agg.Metadata
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d files | reanalyzed %d in %s",
		m.lastUpdate.Format(time.TimeOnly), meta.FilesAnalyzed, m.reanalyzed, m.duration.Round(time.Millisecond)))

	summary := fmt.Sprintf("%s | %s",
		countStyle.Render(fmt.Sprintf("%d components", m.agg.Summary.TotalComponents)),
		countStyle.Render(fmt.Sprintf("%d imports", m.agg.Summary.TotalImports)))
	if meta.FilesWithErrors > 0 {
		summary += " | " + errorStyle.Render(fmt.Sprintf("%d parse errors", meta.FilesWithErrors))
	} else {
		summary += " | " + successStyle.Render("all files parsed")
	}

	title := "Component Usage"
	if meta.Library != "" {
		title += ": " + meta.Library
	}
	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle(title), status, summary)

	body := m.packageList.View()
	if m.mode == panelComponents {
		body = renderComponentPanel(m)
	}
	if m.showPatterns {
		body += "\n\n" + renderPatternOverlay(m.agg)
	}
	if m.sourceJumpStatus != "" {
		body += "\n\n" + m.sourceJumpStatus
	}

	return docStyle.Render(header + "\n" + renderHelp(m) + "\n\n" + body)
}

func initialModel() model {
	componentList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	componentList.Title = "Components"
	componentList.SetShowStatusBar(false)
	componentList.SetFilteringEnabled(true)

	packageList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	packageList.Title = "Packages"
	packageList.SetShowStatusBar(false)
	packageList.SetFilteringEnabled(true)

	return model{
		componentList: componentList,
		packageList:   packageList,
		mode:          panelComponents,
		lastUpdate:    time.Now(),
		readFile:      readSource,
	}
}
