package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"usagelens/internal/engine/aggregate"
	"usagelens/internal/ui/report"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.activeList().FilterState() == list.Filtering {
		return m.updateActiveList(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.mode == panelComponents {
			m.mode = panelPackages
		} else {
			m.mode = panelComponents
		}
		return m, nil
	case "p":
		m.showPatterns = !m.showPatterns
		return m, nil
	}

	if m.mode != panelComponents {
		return m.updateActiveList(msg)
	}

	switch msg.String() {
	case "enter":
		c, ok := m.highlighted()
		if !ok {
			return m, nil
		}
		return m.loadDetails(c.Name), nil
	case "esc", "backspace":
		if m.hasDetails {
			m.hasDetails = false
			m.detailsErr = ""
			m.sites = nil
			m.selectedSiteIndex = 0
			return m, nil
		}
	case "j":
		if m.hasDetails && len(m.sites) > 0 {
			if m.selectedSiteIndex < len(m.sites)-1 {
				m.selectedSiteIndex++
			}
			return m, nil
		}
	case "k":
		if m.hasDetails && len(m.sites) > 0 {
			if m.selectedSiteIndex > 0 {
				m.selectedSiteIndex--
			}
			return m, nil
		}
	case "o":
		if !m.hasDetails {
			return m, nil
		}
		target, ok := selectedSourceTarget(m)
		if !ok {
			m.sourceJumpStatus = statusStyle.Render("No source target available.")
			return m, nil
		}
		return m, jumpToSourceCmd(target)
	}

	return m.updateActiveList(msg)
}

func (m model) activeList() list.Model {
	if m.mode == panelPackages {
		return m.packageList
	}
	return m.componentList
}

func (m model) updateActiveList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.mode == panelPackages {
		m.packageList, cmd = m.packageList.Update(msg)
	} else {
		m.componentList, cmd = m.componentList.Update(msg)
	}
	return m, cmd
}

// highlighted resolves the list cursor to a component. The list may be
// filtered, so the lookup goes by name rather than index.
func (m model) highlighted() (aggregate.ComponentUsage, bool) {
	if m.agg == nil {
		return aggregate.ComponentUsage{}, false
	}
	selected, ok := m.componentList.SelectedItem().(item)
	if !ok {
		return aggregate.ComponentUsage{}, false
	}
	return m.agg.Component(selected.title)
}

// loadDetails reads every file of the component and collects its usage
// sites. It runs again after each rebuild so line numbers stay current.
func (m model) loadDetails(name string) model {
	c, ok := m.agg.Component(name)
	if !ok {
		m.detailsErr = fmt.Sprintf("component %s is no longer used", name)
		m.hasDetails = true
		m.sites = nil
		m.selectedSiteIndex = 0
		return m
	}

	var sites []usageSite
	var failed []string
	for _, file := range c.Files {
		content, err := m.readFile(sourcePath(m.agg.Metadata.Root, file))
		if err != nil {
			failed = append(failed, file)
			continue
		}
		for _, s := range report.FindUsageSites(c.Name, content) {
			sites = append(sites, usageSite{file: file, site: s})
		}
	}

	m.selected = c
	m.hasDetails = true
	m.sites = sites
	m.detailsErr = ""
	if len(failed) > 0 && len(sites) == 0 {
		m.detailsErr = "could not read " + strings.Join(failed, ", ")
	}
	if m.selectedSiteIndex >= len(sites) {
		m.selectedSiteIndex = max(len(sites)-1, 0)
	}
	return m
}

func sourcePath(root, file string) string {
	if filepath.IsAbs(file) || root == "" {
		return file
	}
	return filepath.Join(root, file)
}

func readSource(path string) ([]byte, error) {
	return os.ReadFile(path)
}

type sourceTarget struct {
	file string
	line int
}

func selectedSourceTarget(m model) (sourceTarget, bool) {
	if len(m.sites) > 0 {
		idx := min(max(m.selectedSiteIndex, 0), len(m.sites)-1)
		s := m.sites[idx]
		return sourceTarget{file: sourcePath(m.agg.Metadata.Root, s.file), line: s.site.Line}, true
	}
	if len(m.selected.Files) > 0 {
		return sourceTarget{file: sourcePath(m.agg.Metadata.Root, m.selected.Files[0]), line: 1}, true
	}
	return sourceTarget{}, false
}

func jumpToSourceCmd(target sourceTarget) tea.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	args := []string{target.file}
	if strings.Contains(editor, "vim") || strings.Contains(editor, "nvim") || strings.HasSuffix(editor, "/vi") || editor == "vi" {
		args = []string{fmt.Sprintf("+%d", target.line), target.file}
	}
	cmd := exec.Command(editor, args...)
	label := fmt.Sprintf("%s:%d", target.file, target.line)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return sourceJumpResultMsg{target: label, err: err}
	})
}
