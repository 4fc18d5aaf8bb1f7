package history

import "time"

const SchemaVersion = 1

// Run is one persisted analyze invocation.
type Run struct {
	ID                 string           `json:"id"`
	Command            string           `json:"command"`
	Library            string           `json:"library"`
	Root               string           `json:"root"`
	Timestamp          time.Time        `json:"timestamp"`
	FilesAnalyzed      int              `json:"filesAnalyzed"`
	FilesWithErrors    int              `json:"filesWithErrors"`
	TotalComponents    int              `json:"totalComponents"`
	TotalImports       int              `json:"totalImports"`
	TotalUsagePatterns int              `json:"totalUsagePatterns"`
	Components         []ComponentCount `json:"components,omitempty"`
}

type ComponentCount struct {
	Name    string `json:"name"`
	Package string `json:"package"`
	Version string `json:"version"`
	Count   int    `json:"count"`
	Files   int    `json:"files"`
}

// Query filters ListRuns. Zero values mean no filter.
type Query struct {
	Library string
	Root    string
	Since   time.Time
	Limit   int
}

// TrendPoint is one component's count at a run.
type TrendPoint struct {
	RunID     string    `json:"runId"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	Version   string    `json:"version"`
}
