package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreapp "usagelens/internal/core/app"
	"usagelens/internal/core/ports"
	"usagelens/internal/ui/report"
)

const pageSource = `import { Button, Card } from '@design/foundation'

export function Page() {
  return (
    <Card>
      <Button>Save</Button>
    </Card>
  )
}
`

func testModel(files map[string]string) model {
	m := initialModel()
	m.readFile = func(path string) ([]byte, error) {
		src, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(src), nil
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return next.(model)
}

func send(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_UpdatePopulatesLists(t *testing.T) {
	m := testModel(nil)
	assert.Contains(t, m.View(), "Analyzing")

	m = send(t, m, updateMsg{update: ports.WatchUpdate{Aggregate: sampleAggregate(), Reanalyzed: 2, Duration: 40 * time.Millisecond}})

	assert.Len(t, m.componentList.Items(), 2)
	assert.Len(t, m.packageList.Items(), 1)
	view := m.View()
	assert.Contains(t, view, "2 components")
	assert.Contains(t, view, "Selected Component")
	assert.Contains(t, view, "Button")
}

func TestModel_DetailsListUsageSites(t *testing.T) {
	m := testModel(map[string]string{"/project/src/Page.tsx": pageSource})
	m = send(t, m, updateMsg{update: ports.WatchUpdate{Aggregate: sampleAggregate()}})

	m = send(t, m, key("enter"))
	require.True(t, m.hasDetails)
	assert.Empty(t, m.detailsErr)
	assert.Equal(t, "Button", m.selected.Name)
	require.Len(t, m.sites, 2)
	assert.Equal(t, report.SiteImport, m.sites[0].site.Kind)
	assert.Equal(t, report.SiteJSX, m.sites[1].site.Kind)
	assert.Equal(t, 6, m.sites[1].site.Line)

	m = send(t, m, key("j"))
	assert.Equal(t, 1, m.selectedSiteIndex)
	m = send(t, m, key("j"))
	assert.Equal(t, 1, m.selectedSiteIndex)
	m = send(t, m, key("k"))
	assert.Equal(t, 0, m.selectedSiteIndex)

	target, ok := selectedSourceTarget(m)
	require.True(t, ok)
	assert.Equal(t, sourceTarget{file: "/project/src/Page.tsx", line: 1}, target)
	assert.Contains(t, m.View(), "Component Detail: Button")

	m = send(t, m, key("esc"))
	assert.False(t, m.hasDetails)
	assert.Nil(t, m.sites)
}

func TestModel_DetailsReportUnreadableFiles(t *testing.T) {
	m := testModel(nil)
	m = send(t, m, updateMsg{update: ports.WatchUpdate{Aggregate: sampleAggregate()}})
	m = send(t, m, key("enter"))

	require.True(t, m.hasDetails)
	assert.Contains(t, m.detailsErr, "src/Page.tsx")
	assert.Contains(t, m.View(), "Component details error")
}

func TestModel_DetailsRefreshAfterRebuild(t *testing.T) {
	m := testModel(map[string]string{"/project/src/Page.tsx": pageSource})
	m = send(t, m, updateMsg{update: ports.WatchUpdate{Aggregate: sampleAggregate()}})
	m = send(t, m, key("enter"))
	require.Equal(t, "Button", m.selected.Name)

	next := sampleAggregate()
	next.ComponentUsage = next.ComponentUsage[1:]
	m = send(t, m, updateMsg{update: ports.WatchUpdate{Aggregate: next}})

	assert.Contains(t, m.detailsErr, "no longer used")
}

func TestModel_TogglesPanelsAndPatterns(t *testing.T) {
	m := testModel(nil)
	m = send(t, m, updateMsg{update: ports.WatchUpdate{Aggregate: sampleAggregate()}})

	m = send(t, m, key("tab"))
	assert.Equal(t, panelPackages, m.mode)
	assert.Contains(t, m.View(), "@design/foundation@2.4.1")

	m = send(t, m, key("p"))
	assert.True(t, m.showPatterns)
	assert.Contains(t, m.View(), "Named Imports")

	empty := sampleAggregate()
	empty.PatternCounts = nil
	m = send(t, m, updateMsg{update: ports.WatchUpdate{Aggregate: empty}})
	assert.Contains(t, m.View(), "No usage patterns recorded")

	m = send(t, m, key("tab"))
	assert.Equal(t, panelComponents, m.mode)
}

func TestModel_QuitKey(t *testing.T) {
	m := testModel(nil)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_SourceJumpResult(t *testing.T) {
	m := testModel(nil)
	m = send(t, m, sourceJumpResultMsg{target: "a.tsx:3", err: fmt.Errorf("no editor")})
	assert.Contains(t, m.sourceJumpStatus, "no editor")
	m = send(t, m, sourceJumpResultMsg{target: "a.tsx:3"})
	assert.Contains(t, m.sourceJumpStatus, "a.tsx:3")
}

func TestObservabilityServer_ServesHealthAndMetrics(t *testing.T) {
	server := NewObservabilityServer("127.0.0.1:0", coreapp.NewHealthService(nil))
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() { _ = server.Stop(context.Background()) })

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var status coreapp.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "missing", status.Components["analyzer"])

	metrics, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
