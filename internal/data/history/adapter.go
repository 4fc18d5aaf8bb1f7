package history

import (
	"time"

	"usagelens/internal/engine/aggregate"
)

// FromAggregate flattens an aggregate into a persistable run. The timestamp
// falls back to now when the metadata timestamp is missing or malformed.
func FromAggregate(agg *aggregate.Aggregate) Run {
	meta := agg.Metadata
	ts, err := time.Parse(time.RFC3339Nano, meta.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	run := Run{
		ID:                 meta.RunID,
		Command:            meta.Command,
		Library:            meta.Library,
		Root:               meta.Root,
		Timestamp:          ts.UTC(),
		FilesAnalyzed:      meta.FilesAnalyzed,
		FilesWithErrors:    meta.FilesWithErrors,
		TotalComponents:    agg.Summary.TotalComponents,
		TotalImports:       agg.Summary.TotalImports,
		TotalUsagePatterns: agg.Summary.TotalUsagePatterns,
		Components:         make([]ComponentCount, 0, len(agg.ComponentUsage)),
	}
	for _, c := range agg.ComponentUsage {
		run.Components = append(run.Components, ComponentCount{
			Name:    c.Name,
			Package: c.Package,
			Version: c.Version,
			Count:   c.Count,
			Files:   len(c.Files),
		})
	}
	return run
}
