// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LangTSX        = "tsx"
	LangTypeScript = "typescript"
	LangJavaScript = "javascript"
)

// GrammarLoader owns the compiled tree-sitter grammars. Languages are
// immutable after construction, so a loader can be shared across workers.
type GrammarLoader struct {
	languages map[string]*sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{
		languages: map[string]*sitter.Language{
			LangTSX:        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			LangTypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			LangJavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
		},
	}
}

func (gl *GrammarLoader) Language(id string) (*sitter.Language, error) {
	lang, ok := gl.languages[id]
	if !ok {
		return nil, fmt.Errorf("grammar %q is not loaded", id)
	}
	return lang, nil
}

func (gl *GrammarLoader) Languages() []string {
	ids := make([]string, 0, len(gl.languages))
	for id := range gl.languages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
