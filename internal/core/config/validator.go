package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"

	"usagelens/internal/core/errors"
)

func validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateVersion,
		validateScan,
		validateAnalysis,
		validateClassifier,
		validateOutput,
		validateGitHub,
	}
	for _, v := range validators {
		if err := v(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid configuration")
		}
	}
	return nil
}

// Validate re-checks a configuration that was built or modified in code,
// for example after flag and environment overrides.
func Validate(cfg *Config) error {
	return validate(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	for _, pattern := range cfg.Scan.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("scan.patterns: invalid pattern %q", pattern)
		}
	}
	for _, pattern := range cfg.Scan.Ignore {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("scan.ignore must not contain empty patterns")
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("scan.ignore: invalid pattern %q: %w", pattern, err)
		}
	}
	if cfg.Scan.MaxFiles < 1 {
		return fmt.Errorf("scan.max_files must be >= 1")
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 1 || cfg.Analysis.Workers > 256 {
		return fmt.Errorf("analysis.workers must be between 1 and 256")
	}
	return nil
}

func validateClassifier(cfg *Config) error {
	thresholds := cfg.Classifier.Thresholds
	if len(thresholds) != 4 {
		return fmt.Errorf("classifier.thresholds must have exactly 4 values, got %d", len(thresholds))
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("classifier.thresholds must be strictly increasing")
		}
	}
	for name, weight := range cfg.Classifier.Weights {
		if weight < 1 {
			return fmt.Errorf("classifier.weights[%q] must be >= 1", name)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case FormatJSON, FormatConsole, FormatBoth, FormatMarkdown, FormatTSV:
	default:
		return fmt.Errorf("output.format must be one of: json, console, both, markdown, tsv")
	}
	switch cfg.Output.Mode {
	case ModeTable, ModeChart:
	default:
		return fmt.Errorf("output.mode must be one of: table, chart")
	}
	return nil
}

func validateGitHub(cfg *Config) error {
	if cfg.GitHub.Depth < 1 {
		return fmt.Errorf("github.depth must be >= 1")
	}
	if cfg.GitHub.Burst < 1 {
		return fmt.Errorf("github.burst must be >= 1")
	}
	return nil
}
