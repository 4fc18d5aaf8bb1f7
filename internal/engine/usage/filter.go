package usage

import "strings"

// MatchesLibrary reports whether an import source is the library itself or
// one of its subpaths. "lib-extra" does not match "lib".
func MatchesLibrary(source, library string) bool {
	return source == library || strings.HasPrefix(source, library+"/")
}

// FilterByLibrary returns a copy of r restricted to bindings imported from
// library. Records that carry no source (forwardRef, portal) are kept.
func FilterByLibrary(r *Report, library string) *Report {
	if library == "" {
		return r
	}
	keep := func(source string) bool { return MatchesLibrary(source, library) }
	fromLib := func(name string) bool { return name != "" && keep(r.SourceOf(name)) }

	in := r.Patterns
	out := &Report{
		File:       r.File,
		Components: []string{},
		Bindings:   filter(r.Bindings, func(b Binding) bool { return keep(b.Source) }),
		Patterns: ReportPatterns{
			Imports: ImportPatterns{
				Default:   filter(in.Imports.Default, func(i ImportRecord) bool { return keep(i.Source) }),
				Named:     filter(in.Imports.Named, func(i ImportRecord) bool { return keep(i.Source) }),
				Namespace: filter(in.Imports.Namespace, func(i ImportRecord) bool { return keep(i.Source) }),
				Aliased:   filter(in.Imports.Aliased, func(i AliasedImport) bool { return keep(i.Source) }),
			},
			Usage: UsagePatterns{
				JSX:           filter(in.Usage.JSX, func(u JSXUsage) bool { return keep(u.Source) }),
				Variables:     filter(in.Usage.Variables, func(v VariableAssignment) bool { return keep(v.Source) }),
				Destructuring: filter(in.Usage.Destructuring, func(d DestructuredUsage) bool { return fromLib(d.Source) }),
				Conditional: filter(in.Usage.Conditional, func(c ConditionalUsage) bool {
					return fromLib(c.Consequent) || fromLib(c.Alternate)
				}),
				Arrays: filter(in.Usage.Arrays, func(a ArrayMapping) bool {
					for _, name := range a.Components {
						if fromLib(name) {
							return true
						}
					}
					return false
				}),
				Objects: []ObjectMapping{},
			},
			Advanced: AdvancedPatterns{
				Lazy:       filter(in.Advanced.Lazy, func(i ImportSite) bool { return keep(i.Source) }),
				Dynamic:    filter(in.Advanced.Dynamic, func(i ImportSite) bool { return keep(i.Source) }),
				HOC:        filter(in.Advanced.HOC, func(h HOCUsage) bool { return keep(h.Source) }),
				Memo:       filter(in.Advanced.Memo, func(m MemoUsage) bool { return keep(m.Source) }),
				ForwardRef: orEmpty(in.Advanced.ForwardRef),
				Portal:     orEmpty(in.Advanced.Portal),
			},
			Props: []ComponentProps{},
		},
	}

	for _, obj := range in.Usage.Objects {
		mappings := filter(obj.Mappings, func(m KeyMapping) bool { return fromLib(m.Component) })
		if len(mappings) > 0 {
			out.Patterns.Usage.Objects = append(out.Patterns.Usage.Objects, ObjectMapping{Mappings: mappings, Location: obj.Location})
		}
	}

	kept := make(map[string]struct{}, len(out.Patterns.Usage.JSX))
	for _, u := range out.Patterns.Usage.JSX {
		kept[u.Component] = struct{}{}
	}
	for _, p := range in.Props {
		if _, ok := kept[p.Component]; ok {
			out.Patterns.Props = append(out.Patterns.Props, p)
		}
	}
	for _, name := range r.Components {
		if fromLib(name) {
			out.Components = append(out.Components, name)
		}
	}

	out.summarize()
	return out
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
