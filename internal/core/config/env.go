package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: USAGELENS_[SECTION]_[KEY] (e.g., USAGELENS_ANALYSIS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Library, "USAGELENS_LIBRARY")
	setEnvString(&cfg.Paths.StateDir, "USAGELENS_PATHS_STATE_DIR")

	// Scan
	setEnvList(&cfg.Scan.Patterns, "USAGELENS_SCAN_PATTERNS")
	setEnvList(&cfg.Scan.Ignore, "USAGELENS_SCAN_IGNORE")
	setEnvInt(&cfg.Scan.MaxFiles, "USAGELENS_SCAN_MAX_FILES")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "USAGELENS_ANALYSIS_WORKERS")
	setEnvDuration(&cfg.Analysis.FileTimeout, "USAGELENS_ANALYSIS_FILE_TIMEOUT")
	setEnvBool(&cfg.Analysis.Complexity, "USAGELENS_ANALYSIS_COMPLEXITY")

	// Classifier
	setEnvInt(&cfg.Classifier.MaxCountPerPattern, "USAGELENS_CLASSIFIER_MAX_COUNT_PER_PATTERN")

	// Output
	setEnvString(&cfg.Output.Dir, "USAGELENS_OUTPUT_DIR")
	setEnvString(&cfg.Output.Format, "USAGELENS_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Mode, "USAGELENS_OUTPUT_MODE")

	// History
	setEnvBool(&cfg.History.Enabled, "USAGELENS_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "USAGELENS_HISTORY_PATH")

	// GitHub
	setEnvString(&cfg.GitHub.Branch, "USAGELENS_GITHUB_BRANCH")
	setEnvInt(&cfg.GitHub.Depth, "USAGELENS_GITHUB_DEPTH")
	setEnvBool(&cfg.GitHub.KeepRepos, "USAGELENS_GITHUB_KEEP_REPOS")
	setEnvString(&cfg.GitHub.TokenEnv, "USAGELENS_GITHUB_TOKEN_ENV")
	setEnvFloat64(&cfg.GitHub.RequestsPerSecond, "USAGELENS_GITHUB_REQUESTS_PER_SECOND")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "USAGELENS_WATCH_DEBOUNCE")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "USAGELENS_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Addr, "USAGELENS_OBSERVABILITY_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "USAGELENS_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "USAGELENS_OBSERVABILITY_ENABLE_TRACING")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma-separated value.
func setEnvList(target *[]string, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = items
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
