// # internal/engine/parser/parser.go
package parser

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"usagelens/internal/core/errors"
	"usagelens/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	SyntaxTypeScript = "typescript"
	SyntaxECMAScript = "ecmascript"
)

// Options mirrors the front-end configuration a caller hands to the parser.
// Decorators and DynamicImport are always accepted by the tree-sitter grammars
// and are kept so callers can state intent explicitly.
type Options struct {
	Syntax        string
	TSX           bool
	Decorators    bool
	DynamicImport bool
}

var supportedExtensions = []string{".tsx", ".jsx", ".ts", ".js", ".mjs", ".cjs", ".mts", ".cts"}

func SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

// OptionsForPath picks front-end options from a file extension.
func OptionsForPath(path string) (Options, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return Options{Syntax: SyntaxTypeScript, TSX: true, Decorators: true, DynamicImport: true}, nil
	case ".ts", ".mts", ".cts":
		return Options{Syntax: SyntaxTypeScript, Decorators: true, DynamicImport: true}, nil
	case ".js", ".jsx", ".mjs", ".cjs":
		return Options{Syntax: SyntaxECMAScript, TSX: true, DynamicImport: true}, nil
	default:
		return Options{}, errors.AddContext(
			errors.New(errors.CodeNotSupported, "unsupported file extension"), errors.CtxPath, path)
	}
}

func (o Options) languageID() string {
	if o.Syntax == SyntaxTypeScript {
		if o.TSX {
			return LangTSX
		}
		return LangTypeScript
	}
	// The JavaScript grammar always accepts JSX.
	return LangJavaScript
}

// Tree is a parsed source file. Close must be called once the tree has been
// walked; nodes must not be used after Close.
type Tree struct {
	Path     string
	Language string
	Source   []byte
	inner    *sitter.Tree
}

func (t *Tree) Root() *sitter.Node {
	if t == nil || t.inner == nil {
		return nil
	}
	return t.inner.RootNode()
}

// HasErrors reports whether tree-sitter had to recover from syntax errors.
func (t *Tree) HasErrors() bool {
	root := t.Root()
	return root != nil && root.HasError()
}

func (t *Tree) Close() {
	if t != nil && t.inner != nil {
		t.inner.Close()
		t.inner = nil
	}
}

type Parser struct {
	loader *GrammarLoader
	pools  map[string]*ParserPool
}

func NewParser(loader *GrammarLoader) (*Parser, error) {
	p := &Parser{
		loader: loader,
		pools:  make(map[string]*ParserPool),
	}
	for _, id := range loader.Languages() {
		lang, err := loader.Language(id)
		if err != nil {
			return nil, err
		}
		p.pools[id] = NewParserPool(lang)
	}
	return p, nil
}

func (p *Parser) Supports(path string) bool {
	_, err := OptionsForPath(path)
	return err == nil
}

// Parse selects a grammar from the path extension and parses source.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*Tree, error) {
	opts, err := OptionsForPath(path)
	if err != nil {
		return nil, err
	}
	tree, err := p.ParseWithOptions(ctx, source, opts)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	tree.Path = path
	return tree, nil
}

func (p *Parser) ParseWithOptions(ctx context.Context, source []byte, opts Options) (*Tree, error) {
	langID := opts.languageID()
	pool, ok := p.pools[langID]
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, "no grammar for language"), errors.CtxLanguage, langID)
	}

	ctx, span := observability.Tracer.Start(ctx, "parser.Parse", trace.WithAttributes(
		attribute.String("language", langID),
		attribute.Int("bytes", len(source)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(langID).Observe(time.Since(start).Seconds())
	}()

	sp := pool.Get()
	defer pool.Put(sp)

	read := func(offset int, _ sitter.Point) []byte {
		if offset >= len(source) {
			return nil
		}
		return source[offset:]
	}
	inner := sp.ParseWithOptions(read, nil, &sitter.ParseOptions{
		ProgressCallback: func(sitter.ParseState) bool {
			return ctx.Err() != nil
		},
	})
	if inner == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.RecordError(ctxErr)
			return nil, errors.Wrap(ctxErr, errors.CodeTimeout, "parse cancelled")
		}
		return nil, errors.New(errors.CodeParseFailed, "parser returned no tree")
	}

	return &Tree{Language: langID, Source: source, inner: inner}, nil
}
