package usage

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

const unresolvedBranch = "null"

func (w *walker) visitDeclarator(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	value := node.ChildByFieldName("value")
	if nameNode == nil || value == nil {
		return
	}

	switch nameNode.Kind() {
	case "identifier":
		w.visitAssignment(node, parser.Text(nameNode, w.src), value)
	case "object_pattern":
		w.visitDestructuring(nameNode, value)
	}
}

func (w *walker) visitAssignment(node *sitter.Node, variable string, value *sitter.Node) {
	assignment, ok := w.resolveName(value)
	if !ok || !w.state.isKnownBinding(assignment) {
		return
	}
	origin := w.state.originOfAssignment(assignment)
	// Re-declaration shadows, so the latest declaration wins.
	w.state.Patterns.Variables.Set(variable, VariableAssignment{
		Variable:   variable,
		Assignment: assignment,
		Source:     origin,
		Location:   parser.LocationOf(node),
	})
	w.state.promote(variable, origin)
}

// resolveName renders an initializer as a binding name: identifiers as
// themselves, member access joined with ".", ternaries as "a | b".
func (w *walker) resolveName(node *sitter.Node) (string, bool) {
	node = parser.Unwrap(node)
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "identifier":
		return parser.Text(node, w.src), true
	case "member_expression":
		object, ok := w.resolveName(node.ChildByFieldName("object"))
		property := node.ChildByFieldName("property")
		if !ok || property == nil {
			return "", false
		}
		return object + "." + parser.Text(property, w.src), true
	case "ternary_expression":
		consequent, okC := w.resolveName(node.ChildByFieldName("consequence"))
		alternate, okA := w.resolveName(node.ChildByFieldName("alternative"))
		if !okC && !okA {
			return "", false
		}
		if !okC {
			consequent = unresolvedBranch
		}
		if !okA {
			alternate = unresolvedBranch
		}
		return consequent + " | " + alternate, true
	default:
		return "", false
	}
}

// isKnownBinding reports whether a resolved assignment refers to something
// already tracked.
func (s *State) isKnownBinding(assignment string) bool {
	if s.isComponent(assignment) || s.isNamespace(assignment) {
		return true
	}
	if strings.Contains(assignment, " | ") {
		for _, branch := range strings.Split(assignment, " | ") {
			if branch != unresolvedBranch && s.isKnownBinding(branch) {
				return true
			}
		}
		return false
	}
	if root, last, dotted := splitDotted(assignment); dotted {
		return s.isNamespace(root) || s.isComponent(last)
	}
	return false
}

func (s *State) originOfAssignment(assignment string) string {
	for _, branch := range strings.Split(assignment, " | ") {
		root, last, _ := splitDotted(branch)
		if origin := s.Origin(root); origin != "" {
			return origin
		}
		if origin := s.Origin(last); origin != "" {
			return origin
		}
	}
	return ""
}

// visitDestructuring handles `const { A, B: C, D = x } = Namespace`.
func (w *walker) visitDestructuring(pattern, value *sitter.Node) {
	value = parser.Unwrap(value)
	if value == nil || value.Kind() != "identifier" {
		return
	}
	namespace := parser.Text(value, w.src)
	if !w.state.isNamespace(namespace) {
		return
	}
	origin := w.state.Origin(namespace)

	for _, prop := range parser.NamedChildren(pattern) {
		property, local := w.destructuredNames(prop)
		if local == "" {
			continue
		}
		w.state.Patterns.Destructuring = append(w.state.Patterns.Destructuring, DestructuredUsage{
			Property: property,
			Local:    local,
			Source:   namespace,
			Location: parser.LocationOf(prop),
		})
		w.state.promote(local, origin)
	}
}

func (w *walker) destructuredNames(prop *sitter.Node) (property, local string) {
	switch prop.Kind() {
	case "shorthand_property_identifier_pattern":
		name := parser.Text(prop, w.src)
		return name, name
	case "object_assignment_pattern":
		left := prop.ChildByFieldName("left")
		if left == nil || left.Kind() != "shorthand_property_identifier_pattern" {
			return "", ""
		}
		name := parser.Text(left, w.src)
		return name, name
	case "pair_pattern":
		key := prop.ChildByFieldName("key")
		value := prop.ChildByFieldName("value")
		if key == nil || value == nil {
			return "", ""
		}
		name, ok := parser.StringValue(key, w.src)
		if !ok {
			name = parser.Text(key, w.src)
		}
		if value.Kind() == "assignment_pattern" {
			value = value.ChildByFieldName("left")
		}
		if value == nil || value.Kind() != "identifier" {
			return "", ""
		}
		return name, parser.Text(value, w.src)
	}
	return "", ""
}
