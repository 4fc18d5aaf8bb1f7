package report

import (
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/ui/report/formats"
)

type TSVGenerator = formats.TSVGenerator
type MarkdownGenerator = formats.MarkdownGenerator
type MarkdownReportOptions = formats.MarkdownReportOptions

func NewTSVGenerator(agg *aggregate.Aggregate) *TSVGenerator {
	return formats.NewTSVGenerator(agg)
}

func NewMarkdownGenerator() *MarkdownGenerator {
	return formats.NewMarkdownGenerator()
}
