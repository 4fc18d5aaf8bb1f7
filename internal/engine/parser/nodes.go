// # internal/engine/parser/nodes.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Location is a 1-based source position.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func LocationOf(node *sitter.Node) Location {
	if node == nil {
		return Location{}
	}
	pos := node.StartPosition()
	return Location{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
}

func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

// NamedChildren returns the named children of node in document order.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := node.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func ChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// HasToken reports whether node has a direct anonymous child token such as
// the "type" keyword in `import type { X } from "y"`.
func HasToken(node *sitter.Node, token string) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

// Unwrap strips wrappers that do not change which binding an expression
// refers to: parentheses, `as`, `satisfies` and non-null assertions.
func Unwrap(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
			inner := node.NamedChild(0)
			if inner == nil {
				return node
			}
			node = inner
		default:
			return node
		}
	}
	return nil
}

// StringValue returns the content of a string literal, or of a template
// literal without substitutions.
func StringValue(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string":
		raw := Text(node, source)
		if len(raw) < 2 {
			return "", false
		}
		return raw[1 : len(raw)-1], true
	case "template_string":
		if ChildOfKind(node, "template_substitution") != nil {
			return "", false
		}
		raw := Text(node, source)
		if len(raw) < 2 {
			return "", false
		}
		return raw[1 : len(raw)-1], true
	default:
		return "", false
	}
}

// CompactName removes whitespace from a dotted name such as a JSX tag.
func CompactName(text string) string {
	return strings.Join(strings.Fields(text), "")
}
