package usage

import (
	"slices"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

const (
	spreadToken   = "..."
	spreadWarning = "Spread props cannot be statically analyzed"
)

// analyzeProps inspects the attributes of a JSX opening or self-closing
// element. names lists every attribute in order, with "..." for spreads.
func analyzeProps(element *sitter.Node, src []byte) (analysis PropsAnalysis, names []string) {
	analysis = PropsAnalysis{NamedProps: []string{}, PropDetails: []PropDetail{}}
	names = []string{}

	for _, attr := range parser.NamedChildren(element) {
		switch attr.Kind() {
		case "jsx_attribute":
			nameNode := attr.NamedChild(0)
			if nameNode == nil {
				continue
			}
			name := parser.Text(nameNode, src)
			value := attr.NamedChild(1)
			detail := PropDetail{
				Name:           name,
				Type:           propType(value),
				IsEventHandler: strings.HasPrefix(name, "on"),
				IsComplex:      isComplexValue(value),
			}
			names = append(names, name)
			if !slices.Contains(analysis.NamedProps, name) {
				analysis.NamedProps = append(analysis.NamedProps, name)
			}
			if detail.IsEventHandler {
				analysis.HasEventHandlers = true
			}
			if detail.IsComplex {
				analysis.HasComplexProps = true
				analysis.ComplexProps++
			}
			analysis.PropDetails = append(analysis.PropDetails, detail)
		case "jsx_expression":
			if parser.ChildOfKind(attr, "spread_element") == nil {
				continue
			}
			names = append(names, spreadToken)
			analysis.HasSpread = true
			analysis.HasComplexProps = true
			analysis.ComplexProps++
			analysis.PropDetails = append(analysis.PropDetails, PropDetail{
				Name:      spreadToken,
				Type:      "spread",
				IsComplex: true,
				IsSpread:  true,
				Warning:   spreadWarning,
			})
		}
	}
	return analysis, names
}

func propType(value *sitter.Node) string {
	if value == nil {
		return "boolean"
	}
	if value.Kind() == "string" {
		return "string"
	}
	if value.Kind() != "jsx_expression" {
		return "expression"
	}

	inner := value.NamedChild(0)
	if inner == nil {
		return "expression"
	}
	switch inner.Kind() {
	case "number":
		return "number"
	case "true", "false":
		return "boolean"
	case "string", "template_string":
		return "string"
	case "arrow_function", "function_expression", "function":
		return "function"
	case "object":
		return "object"
	case "array":
		return "array"
	case "identifier":
		return "variable"
	default:
		return "expression"
	}
}

func isComplexValue(value *sitter.Node) bool {
	if value == nil || value.Kind() != "jsx_expression" {
		return false
	}
	inner := value.NamedChild(0)
	if inner == nil {
		return false
	}
	switch inner.Kind() {
	case "object", "array", "call_expression", "ternary_expression":
		return true
	}
	return false
}

// merge folds a later occurrence's props into a.
func (a *PropsAnalysis) merge(other PropsAnalysis) {
	for _, name := range other.NamedProps {
		if !slices.Contains(a.NamedProps, name) {
			a.NamedProps = append(a.NamedProps, name)
		}
	}
	a.HasSpread = a.HasSpread || other.HasSpread
	a.HasComplexProps = a.HasComplexProps || other.HasComplexProps
	a.HasEventHandlers = a.HasEventHandlers || other.HasEventHandlers
	a.ComplexProps += other.ComplexProps
	a.PropDetails = append(a.PropDetails, other.PropDetails...)
}
