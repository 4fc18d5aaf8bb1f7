package usage

import "log/slog"

// Patterns holds one collection per usage pattern kind.
type Patterns struct {
	DefaultImports   []ImportRecord
	NamedImports     []ImportRecord
	NamespaceImports []ImportRecord
	AliasedImports   *OrderedMap[AliasedImport]

	JSX           *OrderedMap[*JSXUsage]
	Variables     *OrderedMap[VariableAssignment]
	Destructuring []DestructuredUsage
	Conditional   []ConditionalUsage
	Arrays        []ArrayMapping
	Objects       []ObjectMapping

	Lazy       []ImportSite
	Dynamic    []ImportSite
	HOC        []HOCUsage
	Memo       []MemoUsage
	ForwardRef []Marker
	Portal     []Marker

	Props *OrderedMap[*PropsAnalysis]
}

// State is the classification ledger for a single file. It is owned by one
// walk and must not be shared across files.
type State struct {
	Path string

	// ComponentNames are bindings believed to reference library components.
	ComponentNames *NameSet
	// AllIdentifiers are namespace bindings from `import * as X`.
	AllIdentifiers *NameSet
	Patterns       Patterns

	// origins maps a binding to the import source it derives from.
	origins *OrderedMap[string]
	logger  *slog.Logger
}

func NewState(path string) *State {
	return &State{
		Path:           path,
		ComponentNames: NewNameSet(),
		AllIdentifiers: NewNameSet(),
		Patterns: Patterns{
			AliasedImports: NewOrderedMap[AliasedImport](),
			JSX:            NewOrderedMap[*JSXUsage](),
			Variables:      NewOrderedMap[VariableAssignment](),
			Props:          NewOrderedMap[*PropsAnalysis](),
		},
		origins: NewOrderedMap[string](),
		logger:  slog.Default().With("path", path),
	}
}

// promote adds name to ComponentNames and remembers where it came from. The
// first known origin sticks.
func (s *State) promote(name, origin string) {
	if name == "" {
		return
	}
	if s.ComponentNames.Add(name) {
		s.logger.Debug("component binding", "name", name, "origin", origin)
	}
	if origin != "" {
		s.origins.SetIfAbsent(name, origin)
	}
}

func (s *State) bindNamespace(name, source string) {
	if name == "" {
		return
	}
	s.AllIdentifiers.Add(name)
	s.origins.SetIfAbsent(name, source)
}

// Origin returns the import source a binding derives from, if any.
func (s *State) Origin(name string) string {
	v, _ := s.origins.Get(name)
	return v
}

func (s *State) isComponent(name string) bool {
	return name != "" && s.ComponentNames.Has(name)
}

func (s *State) isNamespace(name string) bool {
	return name != "" && s.AllIdentifiers.Has(name)
}
