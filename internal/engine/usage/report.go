package usage

import "sort"

type Summary struct {
	TotalImports       int `json:"totalImports"`
	TotalComponents    int `json:"totalComponents"`
	TotalUsagePatterns int `json:"totalUsagePatterns"`
}

type ImportPatterns struct {
	Default   []ImportRecord  `json:"default"`
	Named     []ImportRecord  `json:"named"`
	Namespace []ImportRecord  `json:"namespace"`
	Aliased   []AliasedImport `json:"aliased"`
}

type UsagePatterns struct {
	JSX           []JSXUsage           `json:"jsx"`
	Variables     []VariableAssignment `json:"variables"`
	Destructuring []DestructuredUsage  `json:"destructuring"`
	Conditional   []ConditionalUsage   `json:"conditional"`
	Arrays        []ArrayMapping       `json:"arrays"`
	Objects       []ObjectMapping      `json:"objects"`
}

type AdvancedPatterns struct {
	Lazy       []ImportSite `json:"lazy"`
	Dynamic    []ImportSite `json:"dynamic"`
	HOC        []HOCUsage   `json:"hoc"`
	Memo       []MemoUsage  `json:"memo"`
	ForwardRef []Marker     `json:"forwardRef"`
	Portal     []Marker     `json:"portal"`
}

type ReportPatterns struct {
	Imports  ImportPatterns   `json:"imports"`
	Usage    UsagePatterns    `json:"usage"`
	Advanced AdvancedPatterns `json:"advanced"`
	Props    []ComponentProps `json:"props"`
}

// Report is the serializable result of analyzing one file.
type Report struct {
	File       string         `json:"file"`
	Summary    Summary        `json:"summary"`
	Patterns   ReportPatterns `json:"patterns"`
	Components []string       `json:"components"`
	Bindings   []Binding      `json:"bindings"`
}

// BuildReport converts a finished State. Collections keep insertion order;
// components and bindings are sorted by name.
func BuildReport(s *State) *Report {
	p := &s.Patterns
	r := &Report{
		File: s.Path,
		Patterns: ReportPatterns{
			Imports: ImportPatterns{
				Default:   orEmpty(p.DefaultImports),
				Named:     orEmpty(p.NamedImports),
				Namespace: orEmpty(p.NamespaceImports),
				Aliased:   values(p.AliasedImports),
			},
			Usage: UsagePatterns{
				JSX:           []JSXUsage{},
				Variables:     values(p.Variables),
				Destructuring: orEmpty(p.Destructuring),
				Conditional:   orEmpty(p.Conditional),
				Arrays:        orEmpty(p.Arrays),
				Objects:       orEmpty(p.Objects),
			},
			Advanced: AdvancedPatterns{
				Lazy:       orEmpty(p.Lazy),
				Dynamic:    orEmpty(p.Dynamic),
				HOC:        orEmpty(p.HOC),
				Memo:       orEmpty(p.Memo),
				ForwardRef: orEmpty(p.ForwardRef),
				Portal:     orEmpty(p.Portal),
			},
			Props: []ComponentProps{},
		},
		Components: s.ComponentNames.Sorted(),
		Bindings:   []Binding{},
	}

	p.JSX.Each(func(_ string, u *JSXUsage) {
		r.Patterns.Usage.JSX = append(r.Patterns.Usage.JSX, *u)
	})
	p.Props.Each(func(name string, a *PropsAnalysis) {
		r.Patterns.Props = append(r.Patterns.Props, ComponentProps{Component: name, Analysis: *a})
	})
	s.origins.Each(func(name, source string) {
		r.Bindings = append(r.Bindings, Binding{Name: name, Source: source})
	})
	sort.Slice(r.Bindings, func(i, j int) bool { return r.Bindings[i].Name < r.Bindings[j].Name })

	r.summarize()
	return r
}

func (r *Report) summarize() {
	imports := r.Patterns.Imports
	r.Summary = Summary{
		TotalImports:       len(imports.Default) + len(imports.Named) + len(imports.Namespace),
		TotalComponents:    len(r.Components),
		TotalUsagePatterns: r.PatternCount(),
	}
}

// PatternCount is the number of records across every pattern collection.
func (r *Report) PatternCount() int {
	p := r.Patterns
	return len(p.Imports.Default) + len(p.Imports.Named) + len(p.Imports.Namespace) + len(p.Imports.Aliased) +
		len(p.Usage.JSX) + len(p.Usage.Variables) + len(p.Usage.Destructuring) +
		len(p.Usage.Conditional) + len(p.Usage.Arrays) + len(p.Usage.Objects) +
		len(p.Advanced.Lazy) + len(p.Advanced.Dynamic) + len(p.Advanced.HOC) +
		len(p.Advanced.Memo) + len(p.Advanced.ForwardRef) + len(p.Advanced.Portal) +
		len(p.Props)
}

// SourceOf returns the import source a binding derives from.
func (r *Report) SourceOf(name string) string {
	i := sort.Search(len(r.Bindings), func(i int) bool { return r.Bindings[i].Name >= name })
	if i < len(r.Bindings) && r.Bindings[i].Name == name {
		return r.Bindings[i].Source
	}
	return ""
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func values[V any](m *OrderedMap[V]) []V {
	out := make([]V, 0, m.Len())
	m.Each(func(_ string, v V) {
		out = append(out, v)
	})
	return out
}
