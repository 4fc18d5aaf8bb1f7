package usage

import "usagelens/internal/engine/parser"

// Location is the 1-based position every record carries.
type Location = parser.Location

type ImportRecord struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Location
}

type AliasedImport struct {
	Imported string `json:"imported"`
	Local    string `json:"local"`
	Source   string `json:"source"`
	Location
}

// PropDetail describes one JSX attribute. Type is one of string, number,
// boolean, function, object, array, variable, expression or spread.
type PropDetail struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	IsEventHandler bool   `json:"isEventHandler"`
	IsComplex      bool   `json:"isComplex"`
	IsSpread       bool   `json:"isSpread,omitempty"`
	Warning        string `json:"warning,omitempty"`
}

type PropsAnalysis struct {
	NamedProps       []string     `json:"namedProps"`
	HasSpread        bool         `json:"hasSpread"`
	HasComplexProps  bool         `json:"hasComplexProps"`
	HasEventHandlers bool         `json:"hasEventHandlers"`
	ComplexProps     int          `json:"complexProps"`
	PropDetails      []PropDetail `json:"propDetails"`
}

type JSXOccurrence struct {
	Context string   `json:"context"`
	Props   []string `json:"props"`
	Location
}

// JSXUsage aggregates every element of one component name in a file. The
// top-level location and context are those of the first occurrence.
type JSXUsage struct {
	Component     string          `json:"component"`
	Source        string          `json:"source,omitempty"`
	Props         []string        `json:"props"`
	PropsAnalysis PropsAnalysis   `json:"propsAnalysis"`
	Context       string          `json:"context"`
	Count         int             `json:"count"`
	Occurrences   []JSXOccurrence `json:"occurrences"`
	Location
}

type VariableAssignment struct {
	Variable   string `json:"variable"`
	Assignment string `json:"assignment"`
	Source     string `json:"source,omitempty"`
	Location
}

// DestructuredUsage is `const { Property: Local } = Source` where Source is a
// namespace binding.
type DestructuredUsage struct {
	Property string `json:"property"`
	Local    string `json:"local"`
	Source   string `json:"source"`
	Location
}

type ConditionalUsage struct {
	Consequent string `json:"consequent"`
	Alternate  string `json:"alternate"`
	Location
}

type ArrayMapping struct {
	Components []string `json:"components"`
	Location
}

type KeyMapping struct {
	Key       string `json:"key"`
	Component string `json:"component"`
}

type ObjectMapping struct {
	Mappings []KeyMapping `json:"mappings"`
	Location
}

// ImportSite is a lazy or dynamic import with a literal source.
type ImportSite struct {
	Source string `json:"source"`
	Location
}

type HOCUsage struct {
	Function  string `json:"function"`
	Component string `json:"component"`
	Source    string `json:"source,omitempty"`
	Location
}

type MemoUsage struct {
	Component string `json:"component"`
	Source    string `json:"source,omitempty"`
	Location
}

// Marker is a position-only record (forwardRef, portal).
type Marker struct {
	Location
}

type ComponentProps struct {
	Component string        `json:"component"`
	Analysis  PropsAnalysis `json:"analysis"`
}

// Binding links a component identifier to the module it was bound from.
type Binding struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}
