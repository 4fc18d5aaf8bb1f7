// Package aggregate merges per-file usage reports into a project-level view
// annotated with lockfile versions.
package aggregate

import (
	"sort"
	"strings"

	"usagelens/internal/engine/classify"
	"usagelens/internal/engine/usage"
)

const (
	PackageLocal   = "local"
	PackageUnknown = "unknown"
)

type Metadata struct {
	RunID           string `json:"runId"`
	Command         string `json:"command"`
	Library         string `json:"library,omitempty"`
	Timestamp       string `json:"timestamp"`
	ToolVersion     string `json:"toolVersion,omitempty"`
	Root            string `json:"root,omitempty"`
	TotalFiles      int    `json:"totalFiles"`
	FilesAnalyzed   int    `json:"filesAnalyzed"`
	FilesWithErrors int    `json:"filesWithErrors"`
	LockfileType    string `json:"lockfileType,omitempty"`
	LockfilePath    string `json:"lockfilePath,omitempty"`
}

type Summary struct {
	TotalImports       int `json:"totalImports"`
	TotalComponents    int `json:"totalComponents"`
	TotalUsagePatterns int `json:"totalUsagePatterns"`
}

type ComponentUsage struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Files   []string `json:"files"`
	Source  string   `json:"source"`
	Package string   `json:"package"`
	Version string   `json:"version"`
}

type PackageShare struct {
	Package        string   `json:"package"`
	Version        string   `json:"version"`
	ComponentCount int      `json:"componentCount"`
	UsageCount     int      `json:"usageCount"`
	Percentage     float64  `json:"percentage"`
	Components     []string `json:"components"`
}

type PatternCount struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Count       int    `json:"count"`
}

type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type FileComplexity struct {
	File            string                    `json:"file"`
	Score           int                       `json:"score"`
	Level           string                    `json:"level"`
	Intensity       string                    `json:"intensity"`
	Coverage        float64                   `json:"coverage"`
	Patterns        []string                  `json:"patterns"`
	Recommendations []classify.Recommendation `json:"recommendations"`
}

// Aggregate is the project-level report written by the analyze command.
type Aggregate struct {
	Metadata            Metadata         `json:"metadata"`
	Summary             Summary          `json:"summary"`
	ComponentUsage      []ComponentUsage `json:"componentUsage"`
	TopComponents       []ComponentUsage `json:"topComponents"`
	PackageDistribution []PackageShare   `json:"packageDistribution"`
	PatternCounts       []PatternCount   `json:"patternCounts"`
	TopPatterns         []PatternCount   `json:"topPatterns"`
	Errors              []FileError      `json:"errors"`
	FileComplexity      []FileComplexity `json:"fileComplexity,omitempty"`
	Reports             []*usage.Report  `json:"reports,omitempty"`
}

// Component returns the usage entry for name.
func (a *Aggregate) Component(name string) (ComponentUsage, bool) {
	for _, c := range a.ComponentUsage {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentUsage{}, false
}

// PatternCount returns the merged count for a display name.
func (a *Aggregate) PatternCount(displayName string) int {
	for _, p := range a.PatternCounts {
		if p.DisplayName == displayName {
			return p.Count
		}
	}
	return 0
}

// ResolvePackage maps an import source to the lockfile package it belongs
// to. Relative imports are local; the longest matching package wins.
func ResolvePackage(source string, packages []string) string {
	if source == "" {
		return PackageUnknown
	}
	if strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/") {
		return PackageLocal
	}
	best := ""
	for _, pkg := range packages {
		if len(pkg) > len(best) && usage.MatchesLibrary(source, pkg) {
			best = pkg
		}
	}
	if best == "" {
		return PackageUnknown
	}
	return best
}

func sortedPackages(versions map[string]string) []string {
	out := make([]string, 0, len(versions))
	for pkg := range versions {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}
