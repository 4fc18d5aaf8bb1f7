package usage

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

func (w *walker) visitTernary(node *sitter.Node) {
	consequent := w.branchName(node.ChildByFieldName("consequence"))
	alternate := w.branchName(node.ChildByFieldName("alternative"))
	if !w.state.isComponent(consequent) && !w.state.isComponent(alternate) {
		return
	}
	w.state.Patterns.Conditional = append(w.state.Patterns.Conditional, ConditionalUsage{
		Consequent: consequent,
		Alternate:  alternate,
		Location:   parser.LocationOf(node),
	})
}

// branchName is the identifier a ternary branch names, or "".
func (w *walker) branchName(node *sitter.Node) string {
	node = parser.Unwrap(node)
	if node == nil || node.Kind() != "identifier" {
		return ""
	}
	return parser.Text(node, w.src)
}
