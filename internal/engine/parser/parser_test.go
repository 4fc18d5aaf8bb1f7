// # internal/engine/parser/parser_test.go
package parser

import (
	"context"
	"strings"
	"testing"

	"usagelens/internal/core/errors"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(NewGrammarLoader())
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	return p
}

func TestOptionsForPath(t *testing.T) {
	tests := []struct {
		path     string
		wantLang string
		wantErr  bool
	}{
		{path: "src/App.tsx", wantLang: LangTSX},
		{path: "src/util.ts", wantLang: LangTypeScript},
		{path: "src/legacy.jsx", wantLang: LangJavaScript},
		{path: "src/index.js", wantLang: LangJavaScript},
		{path: "src/module.mjs", wantLang: LangJavaScript},
		{path: "README.md", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			opts, err := OptionsForPath(tt.path)
			if tt.wantErr {
				if !errors.IsCode(err, errors.CodeNotSupported) {
					t.Fatalf("expected NOT_SUPPORTED, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := opts.languageID(); got != tt.wantLang {
				t.Fatalf("expected language %s, got %s", tt.wantLang, got)
			}
		})
	}
}

func TestParser_ParseTSX(t *testing.T) {
	p := newTestParser(t)
	src := []byte(`import Button from "lib";
export const App = () => <Button variant="x" />;
`)

	tree, err := p.Parse(context.Background(), "App.tsx", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer tree.Close()

	root := tree.Root()
	if root == nil || root.Kind() != "program" {
		t.Fatalf("expected program root, got %v", root)
	}
	if tree.HasErrors() {
		t.Fatalf("unexpected syntax errors in %s", root.ToSexp())
	}
	if tree.Language != LangTSX || tree.Path != "App.tsx" {
		t.Fatalf("unexpected tree metadata: %s %s", tree.Language, tree.Path)
	}

	first := root.NamedChild(0)
	if first.Kind() != "import_statement" {
		t.Fatalf("expected import_statement, got %s", first.Kind())
	}
	if loc := LocationOf(first); loc.Line != 1 || loc.Column != 1 {
		t.Fatalf("unexpected location %+v", loc)
	}
	source, ok := StringValue(first.ChildByFieldName("source"), src)
	if !ok || source != "lib" {
		t.Fatalf("expected source lib, got %q", source)
	}
}

func TestParser_RecoversFromSyntaxErrors(t *testing.T) {
	p := newTestParser(t)
	tree, err := p.Parse(context.Background(), "Broken.tsx", []byte("const x = <Button;\n"))
	if err != nil {
		t.Fatalf("expected recovered tree, got error %v", err)
	}
	defer tree.Close()
	if !tree.HasErrors() {
		t.Fatal("expected HasErrors on malformed source")
	}
}

func TestParser_CancelledContext(t *testing.T) {
	p := newTestParser(t)
	var b strings.Builder
	for i := 0; i < 20000; i++ {
		b.WriteString("const value = <Button onClick={() => call(1, [2, 3])} />;\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tree, err := p.Parse(ctx, "Large.tsx", []byte(b.String()))
	if err == nil {
		tree.Close()
		t.Fatal("expected cancellation error")
	}
	if !errors.IsCode(err, errors.CodeTimeout) {
		t.Fatalf("expected TIMEOUT code, got %v", err)
	}
}

func TestParser_UnsupportedExtension(t *testing.T) {
	p := newTestParser(t)
	if p.Supports("styles.css") {
		t.Fatal("css must not be supported")
	}
	if _, err := p.Parse(context.Background(), "styles.css", []byte("a{}")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestStringValue(t *testing.T) {
	p := newTestParser(t)
	src := []byte("const a = `plain`;\nconst b = `with ${x}`;\n")
	tree, err := p.Parse(context.Background(), "t.ts", src)
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	type result struct {
		text string
		ok   bool
	}
	var values []result
	for _, decl := range NamedChildren(tree.Root()) {
		declarator := ChildOfKind(decl, "variable_declarator")
		text, ok := StringValue(declarator.ChildByFieldName("value"), src)
		values = append(values, result{text, ok})
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(values))
	}
	if !values[0].ok || values[0].text != "plain" {
		t.Fatalf("expected plain template literal, got %+v", values[0])
	}
	if values[1].ok {
		t.Fatal("template with substitution must not resolve")
	}
}
