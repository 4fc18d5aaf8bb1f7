package usage

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

// walker drives the detectors over one tree. It owns its State.
type walker struct {
	state *State
	src   []byte

	// ancestors is the chain from the program root to the parent of the
	// node being visited.
	ancestors []*sitter.Node
	// consumed holds import() calls already claimed by a lazy() wrapper.
	consumed map[uintptr]struct{}
}

func newWalker(state *State, src []byte) *walker {
	return &walker{
		state:    state,
		src:      src,
		consumed: make(map[uintptr]struct{}),
	}
}

// Walk classifies a parsed tree into a fresh State. Imports are bound before
// anything else is visited because every other detector depends on them.
func Walk(tree *parser.Tree) *State {
	state := NewState(tree.Path)
	w := newWalker(state, tree.Source)
	root := tree.Root()
	w.bindImports(root)
	w.classifyBody(root)
	return state
}

// bindImports visits every top-level import_statement.
func (w *walker) bindImports(root *sitter.Node) {
	for _, stmt := range parser.NamedChildren(root) {
		if stmt.Kind() == "import_statement" {
			w.bindImport(stmt)
		}
	}
}

// classifyBody walks every other top-level statement in document order.
func (w *walker) classifyBody(root *sitter.Node) {
	w.ancestors = append(w.ancestors[:0], root)
	for _, stmt := range parser.NamedChildren(root) {
		if stmt.Kind() == "import_statement" {
			continue
		}
		w.visit(stmt)
	}
	w.ancestors = w.ancestors[:0]
}

func (w *walker) visit(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "jsx_element":
		if open := node.ChildByFieldName("open_tag"); open != nil {
			w.visitJSX(open)
		}
	case "jsx_self_closing_element":
		w.visitJSX(node)
	case "variable_declarator":
		w.visitDeclarator(node)
	case "array":
		w.visitArray(node)
	case "object":
		w.visitObject(node)
	case "ternary_expression":
		w.visitTernary(node)
	case "call_expression":
		w.visitCall(node)
	case "member_expression":
		w.visitMember(node)
	}

	w.ancestors = append(w.ancestors, node)
	for i := uint(0); i < node.NamedChildCount(); i++ {
		w.visit(node.NamedChild(i))
	}
	w.ancestors = w.ancestors[:len(w.ancestors)-1]
}
