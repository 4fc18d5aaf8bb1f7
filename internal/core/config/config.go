// # internal/core/config/config.go
package config

import (
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Library       string        `toml:"library"`
	Paths         Paths         `toml:"paths"`
	Scan          Scan          `toml:"scan"`
	Analysis      Analysis      `toml:"analysis"`
	Classifier    Classifier    `toml:"classifier"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	GitHub        GitHub        `toml:"github"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	StateDir string `toml:"state_dir"`
}

type Scan struct {
	Patterns   []string `toml:"patterns"`
	Ignore     []string `toml:"ignore"`
	MaxFiles   int      `toml:"max_files"`
	Extensions []string `toml:"extensions"`
}

type Analysis struct {
	Workers     int           `toml:"workers"`
	FileTimeout time.Duration `toml:"file_timeout"`
	Complexity  bool          `toml:"complexity"`
}

// Classifier overrides the complexity policy. Weights are keyed by catalog
// category name; missing entries keep the built-in weight.
type Classifier struct {
	Thresholds         []int          `toml:"thresholds"`
	Weights            map[string]int `toml:"weights"`
	MaxCountPerPattern int            `toml:"max_count_per_pattern"`
	ExampleLimit       int            `toml:"example_limit"`
}

type Output struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
	Mode   string `toml:"mode"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type GitHub struct {
	Branch            string        `toml:"branch"`
	Depth             int           `toml:"depth"`
	KeepRepos         bool          `toml:"keep_repos"`
	TokenEnv          string        `toml:"token_env"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Burst             int           `toml:"burst"`
	CloneTimeout      time.Duration `toml:"clone_timeout"`
	Workers           int           `toml:"workers"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Addr          string `toml:"addr"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	ServiceName   string `toml:"service_name"`
	EnableTracing bool   `toml:"enable_tracing"`
}

const (
	FormatJSON     = "json"
	FormatConsole  = "console"
	FormatBoth     = "both"
	FormatMarkdown = "markdown"
	FormatTSV      = "tsv"

	ModeTable = "table"
	ModeChart = "chart"
)

var (
	DefaultPatterns = []string{"**/*.{tsx,jsx,ts,js}"}
	DefaultIgnore   = []string{"node_modules", "dist", "build", ".git"}
)
