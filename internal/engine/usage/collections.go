package usage

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"usagelens/internal/engine/parser"
)

const computedKey = "[computed]"

// visitArray records an array literal once when any bare identifier element
// is a component.
func (w *walker) visitArray(node *sitter.Node) {
	var names []string
	matched := false
	for _, el := range parser.NamedChildren(node) {
		if el.Kind() != "identifier" {
			continue
		}
		name := parser.Text(el, w.src)
		names = append(names, name)
		if w.state.isComponent(name) {
			matched = true
		}
	}
	if !matched {
		return
	}
	w.state.Patterns.Arrays = append(w.state.Patterns.Arrays, ArrayMapping{
		Components: names,
		Location:   parser.LocationOf(node),
	})
}

// visitObject records the key/component pairs of an object literal whose
// values name components.
func (w *walker) visitObject(node *sitter.Node) {
	var mappings []KeyMapping
	for _, prop := range parser.NamedChildren(node) {
		switch prop.Kind() {
		case "pair":
			value := prop.ChildByFieldName("value")
			if value == nil || value.Kind() != "identifier" {
				continue
			}
			component := parser.Text(value, w.src)
			if !w.state.isComponent(component) {
				continue
			}
			mappings = append(mappings, KeyMapping{
				Key:       w.propertyKey(prop.ChildByFieldName("key")),
				Component: component,
			})
		case "shorthand_property_identifier":
			name := parser.Text(prop, w.src)
			if w.state.isComponent(name) {
				mappings = append(mappings, KeyMapping{Key: name, Component: name})
			}
		}
	}
	if len(mappings) == 0 {
		return
	}
	w.state.Patterns.Objects = append(w.state.Patterns.Objects, ObjectMapping{
		Mappings: mappings,
		Location: parser.LocationOf(node),
	})
}

func (w *walker) propertyKey(key *sitter.Node) string {
	if key == nil {
		return computedKey
	}
	switch key.Kind() {
	case "property_identifier", "number":
		return parser.Text(key, w.src)
	case "string":
		if s, ok := parser.StringValue(key, w.src); ok {
			return s
		}
	}
	return computedKey
}
