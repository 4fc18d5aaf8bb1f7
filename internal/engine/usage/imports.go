package usage

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

// bindImport records the specifiers of one import_statement. Side-effect
// imports and `import type` declarations bind no runtime component.
func (w *walker) bindImport(node *sitter.Node) {
	if parser.HasToken(node, "type") || parser.HasToken(node, "typeof") {
		return
	}
	source, ok := parser.StringValue(node.ChildByFieldName("source"), w.src)
	if !ok {
		return
	}
	clause := parser.ChildOfKind(node, "import_clause")
	if clause == nil {
		return
	}

	for _, child := range parser.NamedChildren(clause) {
		switch child.Kind() {
		case "identifier":
			name := parser.Text(child, w.src)
			w.state.promote(name, source)
			w.state.Patterns.DefaultImports = append(w.state.Patterns.DefaultImports, ImportRecord{
				Name:     name,
				Source:   source,
				Location: parser.LocationOf(child),
			})
		case "namespace_import":
			id := parser.ChildOfKind(child, "identifier")
			if id == nil {
				continue
			}
			name := parser.Text(id, w.src)
			w.state.bindNamespace(name, source)
			w.state.Patterns.NamespaceImports = append(w.state.Patterns.NamespaceImports, ImportRecord{
				Name:     name,
				Source:   source,
				Location: parser.LocationOf(child),
			})
		case "named_imports":
			for _, spec := range parser.NamedChildren(child) {
				if spec.Kind() == "import_specifier" {
					w.bindSpecifier(spec, source)
				}
			}
		}
	}
}

func (w *walker) bindSpecifier(spec *sitter.Node, source string) {
	if parser.HasToken(spec, "type") || parser.HasToken(spec, "typeof") {
		return
	}
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	imported, ok := parser.StringValue(nameNode, w.src)
	if !ok {
		imported = parser.Text(nameNode, w.src)
	}
	local := imported
	if alias := spec.ChildByFieldName("alias"); alias != nil {
		local = parser.Text(alias, w.src)
	}
	loc := parser.LocationOf(spec)

	w.state.promote(local, source)
	w.state.Patterns.NamedImports = append(w.state.Patterns.NamedImports, ImportRecord{
		Name:     imported,
		Source:   source,
		Location: loc,
	})
	if local != imported {
		w.state.Patterns.AliasedImports.SetIfAbsent(local, AliasedImport{
			Imported: imported,
			Local:    local,
			Source:   source,
			Location: loc,
		})
	}
}
