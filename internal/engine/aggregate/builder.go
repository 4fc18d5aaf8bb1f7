package aggregate

import (
	"math"
	"sort"

	"usagelens/internal/engine/classify"
	"usagelens/internal/engine/lockfile"
	"usagelens/internal/engine/usage"
)

const (
	topComponentLimit = 10
	topPatternLimit   = 5
)

type patternDef struct {
	key   string
	name  string
	count func(p *usage.ReportPatterns) int
}

var patternDefs = []patternDef{
	{"imports.default", "Default Imports", func(p *usage.ReportPatterns) int { return len(p.Imports.Default) }},
	{"imports.named", "Named Imports", func(p *usage.ReportPatterns) int { return len(p.Imports.Named) }},
	{"imports.namespace", "Namespace Imports", func(p *usage.ReportPatterns) int { return len(p.Imports.Namespace) }},
	{"imports.aliased", "Aliased Imports", func(p *usage.ReportPatterns) int { return len(p.Imports.Aliased) }},
	{"usage.jsx", "JSX Usage", func(p *usage.ReportPatterns) int { return len(p.Usage.JSX) }},
	{"usage.variables", "Variable Assignments", func(p *usage.ReportPatterns) int { return len(p.Usage.Variables) }},
	{"usage.destructuring", "Destructuring", func(p *usage.ReportPatterns) int { return len(p.Usage.Destructuring) }},
	{"usage.conditional", "Conditional Usage", func(p *usage.ReportPatterns) int { return len(p.Usage.Conditional) }},
	{"usage.arrays", "Array Mappings", func(p *usage.ReportPatterns) int { return len(p.Usage.Arrays) }},
	{"usage.objects", "Object Mappings", func(p *usage.ReportPatterns) int { return len(p.Usage.Objects) }},
	{"advanced.lazy", "Lazy Loading", func(p *usage.ReportPatterns) int { return len(p.Advanced.Lazy) }},
	{"advanced.dynamic", "Dynamic Imports", func(p *usage.ReportPatterns) int { return len(p.Advanced.Dynamic) }},
	{"advanced.hoc", "Higher-Order Components", func(p *usage.ReportPatterns) int { return len(p.Advanced.HOC) }},
	{"advanced.memo", "Memoized Components", func(p *usage.ReportPatterns) int { return len(p.Advanced.Memo) }},
	{"advanced.forwardRef", "Forward Refs", func(p *usage.ReportPatterns) int { return len(p.Advanced.ForwardRef) }},
	{"advanced.portal", "Portal Usage", func(p *usage.ReportPatterns) int { return len(p.Advanced.Portal) }},
}

type componentAcc struct {
	source string
	count  int
	files  map[string]struct{}
}

// Builder accumulates reports additively. It is not safe for concurrent use;
// the caller feeds it worker results in input order. Builders from separate
// runs can be combined with Merge.
type Builder struct {
	components map[string]*componentAcc
	patterns   map[string]int
	summary    Summary
	analyzed   int
	errors     []FileError
	complexity []FileComplexity
	reports    []*usage.Report
	keep       bool
}

func NewBuilder() *Builder {
	return &Builder{
		components: make(map[string]*componentAcc),
		patterns:   make(map[string]int),
	}
}

// KeepReports makes Build include every per-file report.
func (b *Builder) KeepReports(keep bool) *Builder {
	b.keep = keep
	return b
}

func (b *Builder) Add(r *usage.Report) {
	b.analyzed++
	b.summary.TotalImports += r.Summary.TotalImports
	b.summary.TotalUsagePatterns += r.Summary.TotalUsagePatterns

	for _, jsx := range r.Patterns.Usage.JSX {
		acc, ok := b.components[jsx.Component]
		if !ok {
			acc = &componentAcc{source: jsx.Source, files: make(map[string]struct{})}
			b.components[jsx.Component] = acc
		}
		if acc.source == "" {
			acc.source = jsx.Source
		}
		acc.count += max(jsx.Count, 1)
		acc.files[r.File] = struct{}{}
	}

	for _, def := range patternDefs {
		b.patterns[def.key] += def.count(&r.Patterns)
	}
	if b.keep {
		b.reports = append(b.reports, r)
	}
}

func (b *Builder) AddError(file string, err error) {
	b.errors = append(b.errors, FileError{File: file, Error: err.Error()})
}

func (b *Builder) AddComplexity(file string, c classify.Classification) {
	b.complexity = append(b.complexity, FileComplexity{
		File:            file,
		Score:           c.ComplexityScore.Score,
		Level:           c.ComplexityScore.Level,
		Intensity:       c.UsageIntensity,
		Coverage:        c.PatternCoverage,
		Patterns:        c.FoundPatterns.Names(),
		Recommendations: c.Recommendations,
	})
}

// Merge folds other into b. Counts are summed and components merged by name.
func (b *Builder) Merge(other *Builder) {
	b.analyzed += other.analyzed
	b.summary.TotalImports += other.summary.TotalImports
	b.summary.TotalUsagePatterns += other.summary.TotalUsagePatterns
	for name, acc := range other.components {
		mine, ok := b.components[name]
		if !ok {
			mine = &componentAcc{source: acc.source, files: make(map[string]struct{})}
			b.components[name] = mine
		}
		if mine.source == "" {
			mine.source = acc.source
		}
		mine.count += acc.count
		for f := range acc.files {
			mine.files[f] = struct{}{}
		}
	}
	for k, v := range other.patterns {
		b.patterns[k] += v
	}
	b.errors = append(b.errors, other.errors...)
	b.complexity = append(b.complexity, other.complexity...)
	b.reports = append(b.reports, other.reports...)
}

// Build produces the final aggregate. meta.TotalFiles is kept when set,
// otherwise it is derived from analyzed and failed files.
func (b *Builder) Build(meta Metadata, lock lockfile.Result) *Aggregate {
	packages := sortedPackages(lock.Versions)

	meta.FilesAnalyzed = b.analyzed
	meta.FilesWithErrors = len(b.errors)
	if meta.TotalFiles == 0 {
		meta.TotalFiles = b.analyzed + len(b.errors)
	}
	if lock.Type != "" {
		meta.LockfileType = string(lock.Type)
		meta.LockfilePath = lock.Path
	}

	agg := &Aggregate{
		Metadata:            meta,
		Summary:             b.summary,
		ComponentUsage:      []ComponentUsage{},
		TopComponents:       []ComponentUsage{},
		PackageDistribution: []PackageShare{},
		PatternCounts:       make([]PatternCount, 0, len(patternDefs)),
		TopPatterns:         []PatternCount{},
		Errors:              append([]FileError{}, b.errors...),
		FileComplexity:      b.complexity,
		Reports:             b.reports,
	}

	for name, acc := range b.components {
		pkg := ResolvePackage(acc.source, packages)
		version := lockfile.Unknown
		if pkg != PackageLocal && pkg != PackageUnknown {
			version = lock.VersionOf(pkg)
		}
		files := make([]string, 0, len(acc.files))
		for f := range acc.files {
			files = append(files, f)
		}
		sort.Strings(files)
		agg.ComponentUsage = append(agg.ComponentUsage, ComponentUsage{
			Name:    name,
			Count:   acc.count,
			Files:   files,
			Source:  acc.source,
			Package: pkg,
			Version: version,
		})
	}
	sort.Slice(agg.ComponentUsage, func(i, j int) bool { return agg.ComponentUsage[i].Name < agg.ComponentUsage[j].Name })
	agg.Summary.TotalComponents = len(agg.ComponentUsage)

	top := append([]ComponentUsage{}, agg.ComponentUsage...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	agg.TopComponents = top[:min(len(top), topComponentLimit)]

	agg.PackageDistribution = packageDistribution(agg.ComponentUsage)

	for _, def := range patternDefs {
		agg.PatternCounts = append(agg.PatternCounts, PatternCount{Key: def.key, DisplayName: def.name, Count: b.patterns[def.key]})
	}
	for _, p := range agg.PatternCounts {
		if p.Count > 0 {
			agg.TopPatterns = append(agg.TopPatterns, p)
		}
	}
	sort.SliceStable(agg.TopPatterns, func(i, j int) bool { return agg.TopPatterns[i].Count > agg.TopPatterns[j].Count })
	agg.TopPatterns = agg.TopPatterns[:min(len(agg.TopPatterns), topPatternLimit)]

	return agg
}

// packageDistribution groups components by package. Percentages are shares
// of usage across resolved packages.
func packageDistribution(components []ComponentUsage) []PackageShare {
	byPkg := map[string]*PackageShare{}
	var order []string
	total := 0
	for _, c := range components {
		if c.Package == PackageUnknown {
			continue
		}
		share, ok := byPkg[c.Package]
		if !ok {
			share = &PackageShare{Package: c.Package, Version: c.Version}
			byPkg[c.Package] = share
			order = append(order, c.Package)
		}
		share.ComponentCount++
		share.UsageCount += c.Count
		share.Components = append(share.Components, c.Name)
		total += c.Count
	}

	out := make([]PackageShare, 0, len(order))
	for _, pkg := range order {
		share := byPkg[pkg]
		if total > 0 {
			share.Percentage = math.Round(float64(share.UsageCount)/float64(total)*1000) / 10
		}
		out = append(out, *share)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UsageCount > out[j].UsageCount })
	return out
}
