package usage

import (
	"slices"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

// Syntactic contexts a JSX element can appear in.
const (
	ContextJSX         = "jsx"
	ContextConditional = "conditional"
	ContextArray       = "array"
	ContextObject      = "object"
	ContextHOC         = "hoc"
	ContextVariable    = "variable"
	ContextOther       = "other"
)

// visitJSX handles a jsx_element (through its opening tag) or a
// jsx_self_closing_element.
func (w *walker) visitJSX(tag *sitter.Node) {
	nameNode := tag.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.CompactName(parser.Text(nameNode, w.src))

	var origin string
	root, last, dotted := splitDotted(name)
	switch {
	case dotted && w.state.isNamespace(root):
		origin = w.state.Origin(root)
		w.state.promote(last, origin)
	case w.state.isComponent(name):
		origin = w.state.Origin(name)
	default:
		return
	}

	analysis, names := analyzeProps(tag, w.src)
	w.state.recordJSX(name, origin, analysis, names, w.context(), parser.LocationOf(tag))
}

// context classifies the nearest meaningful ancestor of the node being
// visited. Parentheses are transparent.
func (w *walker) context() string {
	for i := len(w.ancestors) - 1; i >= 0; i-- {
		switch w.ancestors[i].Kind() {
		case "parenthesized_expression":
			continue
		case "jsx_element", "jsx_expression", "jsx_attribute":
			return ContextJSX
		case "ternary_expression":
			return ContextConditional
		case "array":
			return ContextArray
		case "object", "pair":
			return ContextObject
		case "arguments":
			return ContextHOC
		case "variable_declarator":
			return ContextVariable
		default:
			return ContextOther
		}
	}
	return ContextOther
}

func (s *State) recordJSX(name, origin string, analysis PropsAnalysis, names []string, ctx string, loc Location) {
	occurrence := JSXOccurrence{Context: ctx, Props: names, Location: loc}

	usage, ok := s.Patterns.JSX.Get(name)
	if !ok {
		usage = &JSXUsage{
			Component:     name,
			Source:        origin,
			Props:         slices.Clone(names),
			PropsAnalysis: analysis,
			Context:       ctx,
			Location:      loc,
		}
		s.Patterns.JSX.Set(name, usage)
		s.Patterns.Props.Set(name, &usage.PropsAnalysis)
	} else {
		for _, n := range names {
			if !slices.Contains(usage.Props, n) {
				usage.Props = append(usage.Props, n)
			}
		}
		usage.PropsAnalysis.merge(analysis)
	}
	usage.Count++
	usage.Occurrences = append(usage.Occurrences, occurrence)
}

// splitDotted splits "A.B.C" into its root "A" and last segment "C".
func splitDotted(name string) (root, last string, dotted bool) {
	first := strings.IndexByte(name, '.')
	if first < 0 {
		return name, name, false
	}
	return name[:first], name[strings.LastIndexByte(name, '.')+1:], true
}
