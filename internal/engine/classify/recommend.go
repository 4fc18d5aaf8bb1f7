package classify

// rule emits its recommendation when matches returns true.
type rule struct {
	matches        func(found FoundPatterns, score ComplexityScore) bool
	recommendation Recommendation
}

var rules = []rule{
	{
		matches: func(f FoundPatterns, _ ComplexityScore) bool {
			return f.Has(DynamicImport) || f.Has(PortalUsage)
		},
		recommendation: Recommendation{
			Type:     "Performance",
			Priority: "High",
			Message:  "Consider code splitting strategies for dynamic imports",
			Action:   "Implement lazy loading boundaries",
		},
	},
	{
		matches: func(f FoundPatterns, _ ComplexityScore) bool {
			return f.Has(ObjectMapping) || f.Has(ArrayMapping)
		},
		recommendation: Recommendation{
			Type:     "Maintainability",
			Priority: "Medium",
			Message:  "Component mappings can be hard to track",
			Action:   "Consider using TypeScript for better type safety",
		},
	},
	{
		matches: func(_ FoundPatterns, s ComplexityScore) bool {
			return s.Level == LevelExtremelyComplex
		},
		recommendation: Recommendation{
			Type:     "Architecture",
			Priority: "High",
			Message:  "High complexity detected in component usage",
			Action:   "Consider refactoring to simpler patterns",
		},
	},
	{
		matches: func(f FoundPatterns, _ ComplexityScore) bool {
			return len(f) > 8
		},
		recommendation: Recommendation{
			Type:     "Consistency",
			Priority: "Medium",
			Message:  "Many different usage patterns found",
			Action:   "Standardize on 2-3 primary patterns",
		},
	},
}

// Recommend evaluates the rules table in order.
func (c *Classifier) Recommend(found FoundPatterns, score ComplexityScore) []Recommendation {
	out := []Recommendation{}
	for _, r := range rules {
		if r.matches(found, score) {
			out = append(out, r.recommendation)
		}
	}
	return out
}
