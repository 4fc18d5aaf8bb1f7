package usage

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

// visitLazy matches `lazy(() => import("x"))` and its function-body form.
// The inner import is consumed so it is not reported again as dynamic.
func (w *walker) visitLazy(node, args *sitter.Node) {
	if args == nil {
		return
	}
	fn := parser.Unwrap(args.NamedChild(0))
	if fn == nil {
		return
	}
	switch fn.Kind() {
	case "arrow_function", "function_expression", "function":
	default:
		return
	}

	call := parser.Unwrap(returnedExpression(fn.ChildByFieldName("body")))
	if call == nil || call.Kind() != "call_expression" || !isImportCall(call) {
		return
	}
	w.consumed[call.Id()] = struct{}{}

	source, ok := importSource(call, w.src)
	if !ok {
		return
	}
	w.state.Patterns.Lazy = append(w.state.Patterns.Lazy, ImportSite{
		Source:   source,
		Location: parser.LocationOf(node),
	})
}

func (w *walker) visitDynamicImport(call *sitter.Node) {
	if _, done := w.consumed[call.Id()]; done {
		return
	}
	source, ok := importSource(call, w.src)
	if !ok {
		return
	}
	w.state.Patterns.Dynamic = append(w.state.Patterns.Dynamic, ImportSite{
		Source:   source,
		Location: parser.LocationOf(call),
	})
}

// returnedExpression is the expression an arrow body evaluates to, or the
// argument of the first top-level return in a block body.
func returnedExpression(body *sitter.Node) *sitter.Node {
	if body == nil {
		return nil
	}
	if body.Kind() != "statement_block" {
		return body
	}
	for _, stmt := range parser.NamedChildren(body) {
		if stmt.Kind() == "return_statement" {
			return stmt.NamedChild(0)
		}
	}
	return nil
}

func isImportCall(call *sitter.Node) bool {
	fn := call.ChildByFieldName("function")
	return fn != nil && fn.Kind() == "import"
}

func importSource(call *sitter.Node, src []byte) (string, bool) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	return parser.StringValue(args.NamedChild(0), src)
}
