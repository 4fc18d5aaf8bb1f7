package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	Root      string
	StateDir  string
	OutputDir string
	History   string
	LogFile   string
}

// ResolvePaths anchors the relative paths of cfg at root.
func ResolvePaths(cfg *Config, root string) (ResolvedPaths, error) {
	if strings.TrimSpace(root) == "" {
		return ResolvedPaths{}, fmt.Errorf("root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return ResolvedPaths{}, err
	}
	stateDir := ResolveRelative(abs, cfg.Paths.StateDir)
	return ResolvedPaths{
		Root:      filepath.Clean(abs),
		StateDir:  stateDir,
		OutputDir: ResolveRelative(abs, cfg.Output.Dir),
		History:   ResolveRelative(abs, cfg.History.Path),
		LogFile:   filepath.Join(stateDir, "usagelens.log"),
	}, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
