package report

import (
	"bytes"
	"fmt"
	"strings"
)

const siteContextRadius = 2

// Site kinds.
const (
	SiteImport    = "import"
	SiteJSX       = "jsx"
	SiteReference = "reference"
)

// Site is one line of a file that mentions a component.
type Site struct {
	Line    int
	Kind    string
	Context []string
}

// FindUsageSites returns every line of content that mentions component,
// together with a few lines of surrounding source. The match is textual and
// respects identifier boundaries, so Button does not match ButtonGroup.
func FindUsageSites(component string, content []byte) []Site {
	if component == "" || len(content) == 0 {
		return nil
	}
	lines := splitLines(content)
	var sites []Site
	for i, line := range lines {
		kind := siteKind(line, component)
		if kind == "" {
			continue
		}
		sites = append(sites, Site{
			Line:    i + 1,
			Kind:    kind,
			Context: contextLines(lines, i, siteContextRadius),
		})
	}
	return sites
}

func siteKind(line, component string) string {
	if !containsIdent(line, component) {
		return ""
	}
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "export ") && strings.Contains(trimmed, " from "):
		return SiteImport
	case containsIdent(line, "<"+component) || containsIdent(line, "</"+component):
		return SiteJSX
	default:
		return SiteReference
	}
}

func containsIdent(line, ident string) bool {
	for offset := 0; offset < len(line); {
		idx := strings.Index(line[offset:], ident)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(ident)
		before := start > 0 && isIdentByte(line[start-1]) && isIdentByte(ident[0])
		after := end < len(line) && isIdentByte(line[end])
		if !before && !after {
			return true
		}
		offset = start + 1
	}
	return false
}

func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '$'
}

func contextLines(lines []string, hit, radius int) []string {
	start := max(hit-radius, 0)
	end := min(hit+radius+1, len(lines))
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, fmt.Sprintf("%5d: %s", i+1, lines[i]))
	}
	return out
}

func splitLines(content []byte) []string {
	content = bytes.TrimSuffix(content, []byte("\n"))
	raw := bytes.Split(content, []byte("\n"))
	lines := make([]string, len(raw))
	for i, b := range raw {
		lines[i] = strings.TrimSuffix(string(b), "\r")
	}
	return lines
}
