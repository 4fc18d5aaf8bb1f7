package classify

import (
	"math"

	"usagelens/internal/engine/usage"
)

// FoundPattern is a catalog category that has at least one instance in a
// report.
type FoundPattern struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Complexity int    `json:"complexity"`
	Examples   []any  `json:"examples"`
}

// FoundPatterns keeps catalog order.
type FoundPatterns []FoundPattern

func (f FoundPatterns) Get(name string) (FoundPattern, bool) {
	for _, p := range f {
		if p.Name == name {
			return p, true
		}
	}
	return FoundPattern{}, false
}

func (f FoundPatterns) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

func (f FoundPatterns) Names() []string {
	out := make([]string, len(f))
	for i, p := range f {
		out[i] = p.Name
	}
	return out
}

type ComplexityScore struct {
	Score       int    `json:"score"`
	MaxPossible int    `json:"maxPossible"`
	Percentage  int    `json:"percentage"`
	Level       string `json:"level"`
}

type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// Classification is the full classifier output for one report.
type Classification struct {
	FoundPatterns   FoundPatterns    `json:"foundPatterns"`
	ComplexityScore ComplexityScore  `json:"complexityScore"`
	Recommendations []Recommendation `json:"recommendations"`
	UsageIntensity  string           `json:"usageIntensity"`
	PatternCoverage float64          `json:"patternCoverage"`
}

type Classifier struct {
	policy Policy
}

func New(policy Policy) *Classifier {
	if policy.ExampleLimit <= 0 {
		policy.ExampleLimit = DefaultPolicy().ExampleLimit
	}
	if policy.MaxCountPerPattern <= 0 {
		policy.MaxCountPerPattern = DefaultPolicy().MaxCountPerPattern
	}
	return &Classifier{policy: policy}
}

// Analyze runs Classify, Score and Recommend in one step.
func (c *Classifier) Analyze(r *usage.Report) Classification {
	found := c.Classify(r)
	score := c.Score(found)
	return Classification{
		FoundPatterns:   found,
		ComplexityScore: score,
		Recommendations: c.Recommend(found, score),
		UsageIntensity:  Intensity(score.Score),
		PatternCoverage: Coverage(found),
	}
}

// Classify maps each non-empty report bucket to its catalog category.
// Dynamic Mapping and Context Integration have no detector and never appear.
func (c *Classifier) Classify(r *usage.Report) FoundPatterns {
	p := r.Patterns
	buckets := map[string]bucket{
		DirectImport:       bucketOf(p.Imports.Default),
		AliasedImport:      bucketOf(p.Imports.Aliased),
		NamespaceImport:    bucketOf(p.Imports.Namespace),
		VariableAssignment: bucketOf(p.Usage.Variables),
		ConditionalAssign:  bucketOf(p.Usage.Conditional),
		ObjectMapping:      bucketOf(p.Usage.Objects),
		ArrayMapping:       bucketOf(p.Usage.Arrays),
		HOCWrapping:        bucketOf(p.Advanced.HOC),
		LazyLoading:        bucketOf(p.Advanced.Lazy),
		DynamicImport:      bucketOf(p.Advanced.Dynamic),
		Destructuring:      bucketOf(p.Usage.Destructuring),
		Memoized:           bucketOf(p.Advanced.Memo),
		ForwardRef:         bucketOf(p.Advanced.ForwardRef),
		PortalUsage:        bucketOf(p.Advanced.Portal),
	}

	found := FoundPatterns{}
	for _, cat := range catalog {
		b, ok := buckets[cat.Name]
		if !ok || len(b) == 0 {
			continue
		}
		limit := min(len(b), c.policy.ExampleLimit)
		found = append(found, FoundPattern{
			Name:       cat.Name,
			Count:      len(b),
			Complexity: c.policy.weight(cat),
			Examples:   append([]any{}, b[:limit]...),
		})
	}
	return found
}

// Score sums weight×count. maxPossible assumes MaxCountPerPattern instances
// of every found category.
func (c *Classifier) Score(found FoundPatterns) ComplexityScore {
	score, maxPossible := 0, 0
	for _, f := range found {
		score += f.Complexity * f.Count
		maxPossible += f.Complexity * c.policy.MaxCountPerPattern
	}
	return ComplexityScore{
		Score:       score,
		MaxPossible: maxPossible,
		Percentage:  int(math.Round(float64(score) / float64(max(maxPossible, 1)) * 100)),
		Level:       c.policy.level(score),
	}
}

// Intensity buckets a raw score for display.
func Intensity(score int) string {
	switch {
	case score <= 10:
		return "Light"
	case score <= 30:
		return "Moderate"
	case score <= 60:
		return "Heavy"
	default:
		return "Intensive"
	}
}

// Coverage is the fraction of catalog categories present.
func Coverage(found FoundPatterns) float64 {
	return float64(len(found)) / float64(len(catalog))
}

type bucket []any

func bucketOf[T any](items []T) bucket {
	out := make(bucket, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
