// # internal/core/config/loader.go
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultLocations is the lookup order used when no --config flag is given.
var DefaultLocations = []string{
	"usagelens.toml",
	filepath.Join("data", "config", "usagelens.toml"),
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Find returns the first existing file in DefaultLocations relative to dir,
// or "" when none exists.
func Find(dir string) string {
	for _, candidate := range DefaultLocations {
		path := filepath.Join(dir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadOrDefault loads explicit when set, otherwise the first default location
// under dir, otherwise the built-in defaults. It returns the path it used.
func LoadOrDefault(explicit, dir string) (*Config, string, error) {
	path := strings.TrimSpace(explicit)
	if path == "" {
		path = Find(dir)
	}
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = filepath.Join("data", "state")
	}

	if len(cfg.Scan.Patterns) == 0 {
		cfg.Scan.Patterns = append([]string(nil), DefaultPatterns...)
	}
	if cfg.Scan.Ignore == nil {
		cfg.Scan.Ignore = append([]string(nil), DefaultIgnore...)
	}
	if cfg.Scan.MaxFiles <= 0 {
		cfg.Scan.MaxFiles = 1000
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = []string{".tsx", ".jsx", ".ts", ".js"}
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = runtime.NumCPU()
	}
	if cfg.Analysis.FileTimeout <= 0 {
		cfg.Analysis.FileTimeout = 10 * time.Second
	}

	if len(cfg.Classifier.Thresholds) == 0 {
		cfg.Classifier.Thresholds = []int{10, 30, 60, 100}
	}
	if cfg.Classifier.MaxCountPerPattern <= 0 {
		cfg.Classifier.MaxCountPerPattern = 10
	}
	if cfg.Classifier.ExampleLimit <= 0 {
		cfg.Classifier.ExampleLimit = 3
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "reports-outputs"
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = FormatJSON
	}
	if strings.TrimSpace(cfg.Output.Mode) == "" {
		cfg.Output.Mode = ModeTable
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = filepath.Join(cfg.Paths.StateDir, "history.db")
	}

	if strings.TrimSpace(cfg.GitHub.Branch) == "" {
		cfg.GitHub.Branch = "main"
	}
	if cfg.GitHub.Depth <= 0 {
		cfg.GitHub.Depth = 1
	}
	if strings.TrimSpace(cfg.GitHub.TokenEnv) == "" {
		cfg.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
	if cfg.GitHub.RequestsPerSecond <= 0 {
		cfg.GitHub.RequestsPerSecond = 1
	}
	if cfg.GitHub.Burst <= 0 {
		cfg.GitHub.Burst = 5
	}
	if cfg.GitHub.CloneTimeout <= 0 {
		cfg.GitHub.CloneTimeout = 5 * time.Minute
	}
	if cfg.GitHub.Workers <= 0 {
		cfg.GitHub.Workers = 2
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if strings.TrimSpace(cfg.Observability.Addr) == "" {
		cfg.Observability.Addr = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "usagelens"
	}
}

func normalize(cfg *Config) {
	cfg.Library = strings.TrimSpace(cfg.Library)
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Mode = strings.ToLower(strings.TrimSpace(cfg.Output.Mode))
	for i, ext := range cfg.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Scan.Extensions[i] = ext
	}
}
