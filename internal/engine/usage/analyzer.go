// Package usage classifies how a component library's bindings are consumed
// in a single JavaScript or TypeScript file.
package usage

import (
	"context"

	"usagelens/internal/engine/parser"
)

// Analyzer parses and classifies one file at a time. It is safe for
// concurrent use because every call builds its own State.
type Analyzer struct {
	parser *parser.Parser
}

func NewAnalyzer(p *parser.Parser) *Analyzer {
	return &Analyzer{parser: p}
}

// AnalyzeSource parses src as path and returns its usage report. A tree with
// recovered syntax errors is still classified.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, src []byte) (*Report, error) {
	tree, err := a.parser.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return BuildReport(Walk(tree)), nil
}

func (a *Analyzer) Supports(path string) bool {
	return a.parser.Supports(path)
}
