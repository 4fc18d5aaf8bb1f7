package classify

import (
	"sort"

	"usagelens/internal/core/errors"
)

// Level names in ascending order of severity.
const (
	LevelSimple           = "Simple"
	LevelModerate         = "Moderate"
	LevelComplex          = "Complex"
	LevelVeryComplex      = "Very Complex"
	LevelExtremelyComplex = "Extremely Complex"
)

// Policy holds the tunable constants of the classifier.
type Policy struct {
	// Weights overrides catalog weights by category name.
	Weights map[string]int
	// Thresholds are the inclusive upper bounds of Simple, Moderate, Complex
	// and Very Complex. Anything above the last is Extremely Complex.
	Thresholds [4]int
	// MaxCountPerPattern is the assumed ceiling used to compute maxPossible.
	MaxCountPerPattern int
	// ExampleLimit caps the examples kept per found pattern.
	ExampleLimit int
}

func DefaultPolicy() Policy {
	return Policy{
		Weights:            map[string]int{},
		Thresholds:         [4]int{10, 30, 60, 100},
		MaxCountPerPattern: 10,
		ExampleLimit:       3,
	}
}

// Validate rejects unknown categories, non-positive weights and unordered
// thresholds.
func (p Policy) Validate() error {
	names := make([]string, 0, len(p.Weights))
	for name := range p.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := Lookup(name); !ok {
			return errors.Newf(errors.CodeValidationError, "unknown pattern category %q", name)
		}
		if w := p.Weights[name]; w < 1 {
			return errors.Newf(errors.CodeValidationError, "weight for %q must be positive, got %d", name, w)
		}
	}
	for i := 1; i < len(p.Thresholds); i++ {
		if p.Thresholds[i] <= p.Thresholds[i-1] {
			return errors.Newf(errors.CodeValidationError, "complexity thresholds must be strictly increasing: %v", p.Thresholds)
		}
	}
	if p.MaxCountPerPattern < 1 {
		return errors.New(errors.CodeValidationError, "max count per pattern must be positive")
	}
	return nil
}

func (p Policy) weight(c Category) int {
	if w, ok := p.Weights[c.Name]; ok {
		return w
	}
	return c.Weight
}

func (p Policy) level(score int) string {
	levels := [...]string{LevelSimple, LevelModerate, LevelComplex, LevelVeryComplex}
	for i, bound := range p.Thresholds {
		if score <= bound {
			return levels[i]
		}
	}
	return LevelExtremelyComplex
}
