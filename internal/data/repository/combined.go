package repository

import (
	"sort"

	"usagelens/internal/engine/aggregate"
)

const topComponentsPerRepo = 5

// Result is one analyzed repository.
type Result struct {
	Repository string               `json:"repository"`
	Branch     string               `json:"branch"`
	Stats      Stats                `json:"stats"`
	Aggregate  *aggregate.Aggregate `json:"analysis"`
}

type Metadata struct {
	RunID             string   `json:"runId"`
	Command           string   `json:"command"`
	Library           string   `json:"library,omitempty"`
	Timestamp         string   `json:"timestamp"`
	ToolVersion       string   `json:"toolVersion,omitempty"`
	Branch            string   `json:"branch"`
	Pattern           string   `json:"pattern"`
	TotalRepositories int      `json:"totalRepositories"`
	FailedClones      int      `json:"failedClones"`
	Repositories      []string `json:"repositories"`
}

type RepoCount struct {
	Repository string `json:"repository"`
	Count      int    `json:"count"`
}

// ComponentFrequency is one component at one resolved version across repos.
type ComponentFrequency struct {
	DisplayName string      `json:"displayName"`
	Component   string      `json:"component"`
	Package     string      `json:"package"`
	Version     string      `json:"version"`
	Count       int         `json:"count"`
	Repos       []RepoCount `json:"repos"`
}

type ComponentUses struct {
	Component string `json:"component"`
	Uses      int    `json:"uses"`
}

type RepoSummary struct {
	Name          string          `json:"name"`
	Components    int             `json:"components"`
	Files         int             `json:"files"`
	Errors        int             `json:"errors"`
	TopComponents []ComponentUses `json:"topComponents"`
}

type Totals struct {
	Components []string `json:"components"`
	Imports    int      `json:"imports"`
	Usages     int      `json:"usages"`
	Files      int      `json:"files"`
}

// Combined is the multi-repository report written by the github command.
type Combined struct {
	Metadata           Metadata             `json:"metadata"`
	Totals             Totals               `json:"totals"`
	ComponentsByRepo   map[string][]string  `json:"componentsByRepo"`
	ComponentFrequency []ComponentFrequency `json:"componentFrequency"`
	RepoSummaries      []RepoSummary        `json:"repoSummaries"`
	Repositories       []Result             `json:"repositories"`
	CloneErrors        []CloneError         `json:"cloneErrors"`
}

// Combine folds per-repository results into one report. Component frequency
// is keyed by component and resolved version so that repos pinned to
// different releases stay distinguishable.
func Combine(meta Metadata, results []Result, cloneErrors []CloneError) *Combined {
	c := &Combined{
		Metadata:           meta,
		ComponentsByRepo:   make(map[string][]string, len(results)),
		ComponentFrequency: make([]ComponentFrequency, 0),
		RepoSummaries:      make([]RepoSummary, 0, len(results)),
		Repositories:       results,
		CloneErrors:        cloneErrors,
	}
	if c.CloneErrors == nil {
		c.CloneErrors = []CloneError{}
	}
	c.Metadata.TotalRepositories = len(results)
	c.Metadata.FailedClones = len(cloneErrors)
	c.Metadata.Repositories = make([]string, 0, len(results))

	allComponents := make(map[string]bool)
	freq := make(map[string]*ComponentFrequency)

	for _, r := range results {
		c.Metadata.Repositories = append(c.Metadata.Repositories, r.Repository)
		agg := r.Aggregate
		if agg == nil {
			c.ComponentsByRepo[r.Repository] = []string{}
			c.RepoSummaries = append(c.RepoSummaries, RepoSummary{Name: r.Repository, Files: r.Stats.TotalFiles, TopComponents: []ComponentUses{}})
			continue
		}

		c.Totals.Imports += agg.Summary.TotalImports
		c.Totals.Usages += agg.Summary.TotalUsagePatterns
		c.Totals.Files += agg.Metadata.FilesAnalyzed

		names := make([]string, 0, len(agg.ComponentUsage))
		for _, cu := range agg.ComponentUsage {
			names = append(names, cu.Name)
			allComponents[cu.Name] = true

			display := displayName(cu)
			f, ok := freq[display]
			if !ok {
				f = &ComponentFrequency{
					DisplayName: display,
					Component:   cu.Name,
					Package:     cu.Package,
					Version:     cu.Version,
				}
				freq[display] = f
			}
			f.Count += cu.Count
			f.Repos = append(f.Repos, RepoCount{Repository: r.Repository, Count: cu.Count})
		}
		sort.Strings(names)
		c.ComponentsByRepo[r.Repository] = names

		c.RepoSummaries = append(c.RepoSummaries, RepoSummary{
			Name:          r.Repository,
			Components:    len(agg.ComponentUsage),
			Files:         agg.Metadata.FilesAnalyzed,
			Errors:        len(agg.Errors),
			TopComponents: topComponents(agg.ComponentUsage, topComponentsPerRepo),
		})
	}

	c.Totals.Components = make([]string, 0, len(allComponents))
	for name := range allComponents {
		c.Totals.Components = append(c.Totals.Components, name)
	}
	sort.Strings(c.Totals.Components)

	for _, f := range freq {
		c.ComponentFrequency = append(c.ComponentFrequency, *f)
	}
	sort.Slice(c.ComponentFrequency, func(i, j int) bool {
		a, b := c.ComponentFrequency[i], c.ComponentFrequency[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.DisplayName < b.DisplayName
	})
	return c
}

func displayName(cu aggregate.ComponentUsage) string {
	pkg := cu.Package
	if pkg == "" || pkg == aggregate.PackageUnknown {
		return cu.Name
	}
	if cu.Version == "" || cu.Version == unknownValue {
		return cu.Name + " from " + pkg
	}
	return cu.Name + " from " + pkg + "@" + cu.Version
}

func topComponents(usage []aggregate.ComponentUsage, n int) []ComponentUses {
	sorted := make([]aggregate.ComponentUsage, len(usage))
	copy(sorted, usage)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Name < sorted[j].Name
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]ComponentUses, 0, len(sorted))
	for _, cu := range sorted {
		out = append(out, ComponentUses{Component: cu.Name, Uses: cu.Count})
	}
	return out
}
