package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"usagelens/internal/core/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "usagelens.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
library = "@design/foundation"

[scan]
patterns = ["src/**/*.tsx"]
ignore = ["node_modules", "*.stories.tsx"]
max_files = 50

[analysis]
workers = 3
file_timeout = "2s"
complexity = true

[classifier]
thresholds = [5, 20, 40, 80]
max_count_per_pattern = 5

[classifier.weights]
"Portal Usage" = 9

[output]
dir = "out"
format = "Markdown"
mode = "chart"

[history]
enabled = true

[github]
branch = "develop"
depth = 2

[watch]
debounce = "1s"
`
	cfg, err := Load(writeConfig(t, t.TempDir(), content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Library != "@design/foundation" {
		t.Errorf("Expected library @design/foundation, got %q", cfg.Library)
	}
	if len(cfg.Scan.Patterns) != 1 || cfg.Scan.Patterns[0] != "src/**/*.tsx" {
		t.Errorf("Unexpected patterns: %v", cfg.Scan.Patterns)
	}
	if len(cfg.Scan.Ignore) != 2 {
		t.Errorf("Unexpected ignore: %v", cfg.Scan.Ignore)
	}
	if cfg.Scan.MaxFiles != 50 {
		t.Errorf("Expected max_files 50, got %d", cfg.Scan.MaxFiles)
	}
	if cfg.Analysis.Workers != 3 || cfg.Analysis.FileTimeout != 2*time.Second || !cfg.Analysis.Complexity {
		t.Errorf("Unexpected analysis section: %+v", cfg.Analysis)
	}
	if cfg.Classifier.Thresholds[3] != 80 || cfg.Classifier.MaxCountPerPattern != 5 {
		t.Errorf("Unexpected classifier section: %+v", cfg.Classifier)
	}
	if cfg.Classifier.Weights["Portal Usage"] != 9 {
		t.Errorf("Expected Portal Usage weight 9, got %d", cfg.Classifier.Weights["Portal Usage"])
	}
	if cfg.Output.Format != FormatMarkdown {
		t.Errorf("Expected format to be normalized to markdown, got %q", cfg.Output.Format)
	}
	if cfg.Output.Mode != ModeChart || cfg.Output.Dir != "out" {
		t.Errorf("Unexpected output section: %+v", cfg.Output)
	}
	if !cfg.History.Enabled || cfg.History.Path != filepath.Join("data", "state", "history.db") {
		t.Errorf("Unexpected history section: %+v", cfg.History)
	}
	if cfg.GitHub.Branch != "develop" || cfg.GitHub.Depth != 2 {
		t.Errorf("Unexpected github section: %+v", cfg.GitHub)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != 1 {
		t.Errorf("Expected version 1, got %d", cfg.Version)
	}
	if got := strings.Join(cfg.Scan.Patterns, ","); got != "**/*.{tsx,jsx,ts,js}" {
		t.Errorf("Unexpected default pattern %q", got)
	}
	if got := strings.Join(cfg.Scan.Ignore, ","); got != "node_modules,dist,build,.git" {
		t.Errorf("Unexpected default ignore %q", got)
	}
	if cfg.Scan.MaxFiles != 1000 {
		t.Errorf("Expected max_files 1000, got %d", cfg.Scan.MaxFiles)
	}
	if cfg.Analysis.Workers != runtime.NumCPU() {
		t.Errorf("Expected workers %d, got %d", runtime.NumCPU(), cfg.Analysis.Workers)
	}
	if cfg.Output.Dir != "reports-outputs" || cfg.Output.Format != FormatJSON || cfg.Output.Mode != ModeTable {
		t.Errorf("Unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.GitHub.Branch != "main" || cfg.GitHub.Depth != 1 || cfg.GitHub.TokenEnv != "GITHUB_TOKEN" {
		t.Errorf("Unexpected github defaults: %+v", cfg.GitHub)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"version", "version = 3", "unsupported config version"},
		{"format", "[output]\nformat = \"xml\"", "output.format"},
		{"mode", "[output]\nmode = \"pie\"", "output.mode"},
		{"thresholds count", "[classifier]\nthresholds = [1, 2]", "exactly 4"},
		{"thresholds order", "[classifier]\nthresholds = [10, 5, 60, 100]", "strictly increasing"},
		{"weight", "[classifier.weights]\n\"Forward Ref\" = 0", "classifier.weights"},
		{"pattern", "[scan]\npatterns = [\"src/[\"]", "scan.patterns"},
		{"ignore", "[scan]\nignore = [\"\"]", "scan.ignore"},
		{"workers", "[analysis]\nworkers = 1000", "analysis.workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.content))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Errorf("Expected VALIDATION_ERROR, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_DecodeError(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "library = "))
	if err == nil {
		t.Fatal("Expected decode error")
	}
	if errors.IsCode(err, errors.CodeValidationError) {
		t.Errorf("Decode errors should not be reported as validation errors")
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, path, err := LoadOrDefault("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if path != "" || cfg.Output.Dir != "reports-outputs" {
		t.Errorf("Expected built-in defaults, got path=%q", path)
	}

	nested := filepath.Join(dir, "data", "config")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "usagelens.toml"), []byte(`library = "nested"`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err = LoadOrDefault("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Library != "nested" || path != filepath.Join(nested, "usagelens.toml") {
		t.Errorf("Expected nested config, got library=%q path=%q", cfg.Library, path)
	}

	root := writeConfig(t, dir, `library = "root"`)
	cfg, path, err = LoadOrDefault("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Library != "root" || path != root {
		t.Errorf("Expected root config to win, got library=%q path=%q", cfg.Library, path)
	}

	if _, _, err := LoadOrDefault(filepath.Join(dir, "missing.toml"), dir); err == nil {
		t.Error("Expected error for missing explicit config")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("USAGELENS_LIBRARY", "env-lib")
	t.Setenv("USAGELENS_SCAN_IGNORE", "vendor, .next ,")
	t.Setenv("USAGELENS_ANALYSIS_WORKERS", "7")
	t.Setenv("USAGELENS_ANALYSIS_FILE_TIMEOUT", "3s")
	t.Setenv("USAGELENS_OUTPUT_FORMAT", "TSV")
	t.Setenv("USAGELENS_HISTORY_ENABLED", "true")
	t.Setenv("USAGELENS_GITHUB_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("USAGELENS_SCAN_MAX_FILES", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Library != "env-lib" {
		t.Errorf("Expected library env-lib, got %q", cfg.Library)
	}
	if got := strings.Join(cfg.Scan.Ignore, ","); got != "vendor,.next" {
		t.Errorf("Unexpected ignore override %q", got)
	}
	if cfg.Analysis.Workers != 7 || cfg.Analysis.FileTimeout != 3*time.Second {
		t.Errorf("Unexpected analysis overrides: %+v", cfg.Analysis)
	}
	if cfg.Output.Format != FormatTSV {
		t.Errorf("Expected normalized format tsv, got %q", cfg.Output.Format)
	}
	if !cfg.History.Enabled {
		t.Error("Expected history to be enabled")
	}
	if cfg.GitHub.RequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 rps, got %v", cfg.GitHub.RequestsPerSecond)
	}
	if cfg.Scan.MaxFiles != 1000 {
		t.Errorf("Invalid int override should be ignored, got %d", cfg.Scan.MaxFiles)
	}
}

func TestResolvePaths(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Output.Dir = filepath.Join(root, "abs-out")

	paths, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if paths.StateDir != filepath.Join(root, "data", "state") {
		t.Errorf("Unexpected state dir %q", paths.StateDir)
	}
	if paths.OutputDir != filepath.Join(root, "abs-out") {
		t.Errorf("Absolute output dir should be kept, got %q", paths.OutputDir)
	}
	if paths.History != filepath.Join(root, "data", "state", "history.db") {
		t.Errorf("Unexpected history path %q", paths.History)
	}
	if _, err := ResolvePaths(cfg, " "); err == nil {
		t.Error("Expected error for empty root")
	}
}

func TestWatcher_Reload(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeConfig(t, dir, `library = "before"`)

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`library = "after"`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Library != "after" {
			t.Errorf("Expected reloaded library after, got %q", cfg.Library)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
