package formats

import (
	"fmt"
	"strings"

	"usagelens/internal/engine/aggregate"
)

type TSVGenerator struct {
	agg *aggregate.Aggregate
}

func NewTSVGenerator(agg *aggregate.Aggregate) *TSVGenerator {
	return &TSVGenerator{agg: agg}
}

// Generate emits one row per component followed by pattern and error rows,
// each tagged in the Type column.
func (t *TSVGenerator) Generate() (string, error) {
	if t.agg == nil {
		return "", fmt.Errorf("tsv report requires an aggregate")
	}
	var buf strings.Builder

	buf.WriteString("Type\tName\tCount\tPackage\tVersion\tFiles\n")
	for _, c := range sortedByCount(t.agg.ComponentUsage) {
		buf.WriteString(fmt.Sprintf("component\t%s\t%d\t%s\t%s\t%d\n",
			c.Name, c.Count, c.Package, c.Version, len(c.Files)))
	}
	for _, p := range t.agg.PatternCounts {
		if p.Count == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("pattern\t%s\t%d\t\t\t\n", p.DisplayName, p.Count))
	}
	for _, e := range t.agg.Errors {
		buf.WriteString(fmt.Sprintf("error\t%s\t0\t\t\t%s\n", relPath(t.agg.Metadata.Root, e.File), escapeField(e.Error)))
	}
	return buf.String(), nil
}

func (t *TSVGenerator) GeneratePackages() (string, error) {
	if t.agg == nil {
		return "", fmt.Errorf("tsv report requires an aggregate")
	}
	var buf strings.Builder

	buf.WriteString("Package\tVersion\tComponents\tUses\tPercentage\n")
	for _, p := range t.agg.PackageDistribution {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%.2f\n",
			p.Package, p.Version, p.ComponentCount, p.UsageCount, p.Percentage))
	}
	return buf.String(), nil
}

func (t *TSVGenerator) GenerateComplexity() (string, error) {
	if t.agg == nil {
		return "", fmt.Errorf("tsv report requires an aggregate")
	}
	var buf strings.Builder

	buf.WriteString("File\tScore\tLevel\tIntensity\tCoverage\tPatterns\n")
	for _, fc := range t.agg.FileComplexity {
		buf.WriteString(fmt.Sprintf("%s\t%d\t%s\t%s\t%.2f\t%s\n",
			relPath(t.agg.Metadata.Root, fc.File),
			fc.Score,
			fc.Level,
			fc.Intensity,
			fc.Coverage,
			strings.Join(fc.Patterns, ","),
		))
	}
	return buf.String(), nil
}
