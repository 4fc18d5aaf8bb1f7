package usage

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

// Framework wrappers that have dedicated detectors and are never treated as
// higher-order components.
var wrapperCalls = map[string]struct{}{
	"lazy":         {},
	"memo":         {},
	"forwardRef":   {},
	"createPortal": {},
}

func (w *walker) visitCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	if fn.Kind() == "import" {
		w.visitDynamicImport(node)
		return
	}

	args := node.ChildByFieldName("arguments")
	object, name := calleeParts(fn, w.src)
	fromReact := object == "" || object == "React"

	switch {
	case name == "lazy" && fromReact:
		w.visitLazy(node, args)
	case name == "memo" && fromReact:
		w.visitMemo(node, args)
	case name == "forwardRef" && fromReact:
		w.state.Patterns.ForwardRef = append(w.state.Patterns.ForwardRef, Marker{Location: parser.LocationOf(node)})
	case name == "createPortal":
		w.state.Patterns.Portal = append(w.state.Patterns.Portal, Marker{Location: parser.LocationOf(node)})
	}

	if fn.Kind() == "identifier" {
		if _, wrapper := wrapperCalls[name]; !wrapper {
			w.visitHOC(node, name, args)
		}
	}
}

func (w *walker) visitMemo(node, args *sitter.Node) {
	if args == nil {
		return
	}
	arg := parser.Unwrap(args.NamedChild(0))
	if arg == nil || arg.Kind() != "identifier" {
		return
	}
	component := parser.Text(arg, w.src)
	if !w.state.isComponent(component) {
		return
	}
	w.state.Patterns.Memo = append(w.state.Patterns.Memo, MemoUsage{
		Component: component,
		Source:    w.state.Origin(component),
		Location:  parser.LocationOf(node),
	})
}

// visitHOC flags calls that receive a known component as an argument. This
// over-matches plain utilities that take a component without wrapping it.
func (w *walker) visitHOC(node *sitter.Node, function string, args *sitter.Node) {
	component := ""
	for _, arg := range parser.NamedChildren(args) {
		if arg.Kind() != "identifier" {
			continue
		}
		if name := parser.Text(arg, w.src); w.state.isComponent(name) {
			component = name
			break
		}
	}
	if component == "" {
		return
	}
	w.state.Patterns.HOC = append(w.state.Patterns.HOC, HOCUsage{
		Function:  function,
		Component: component,
		Source:    w.state.Origin(component),
		Location:  parser.LocationOf(node),
	})
}

// visitMember promotes `Namespace.Member` into the component set.
func (w *walker) visitMember(node *sitter.Node) {
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	if object == nil || property == nil || object.Kind() != "identifier" {
		return
	}
	namespace := parser.Text(object, w.src)
	if !w.state.isNamespace(namespace) {
		return
	}
	w.state.promote(parser.Text(property, w.src), w.state.Origin(namespace))
}

// calleeParts splits a callee into its object text and function name. A bare
// identifier has no object.
func calleeParts(fn *sitter.Node, src []byte) (object, name string) {
	switch fn.Kind() {
	case "identifier":
		return "", parser.Text(fn, src)
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return "", ""
		}
		return parser.CompactName(parser.Text(obj, src)), parser.Text(prop, src)
	}
	return "", ""
}
