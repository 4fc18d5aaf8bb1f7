package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"

	"usagelens/internal/core/config"
	"usagelens/internal/core/errors"
	"usagelens/internal/core/ports"
	"usagelens/internal/shared/util"
)

// Discover walks root and returns the sorted source files matching the
// include patterns. Ignore globs are matched against every path segment and
// the base name; a matching directory is not descended into.
func (a *App) Discover(ctx context.Context, root string, opts ports.DiscoverOptions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.New(errors.CodeNotFound, "directory does not exist"), errors.CtxPath, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "path is not a directory"), errors.CtxPath, root)
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = config.DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Newf(errors.CodeValidationError, "invalid include pattern %q", p)
		}
	}
	ignore, err := compileGlobs(opts.Ignore)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matchesAny(ignore, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isIgnored(ignore, rel) || isDeclarationFile(rel) {
			return nil
		}
		if !matchesPattern(patterns, rel) || !a.analyzer.Supports(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		slog.Warn("file limit reached, truncating discovery", "root", root, "found", len(files), "max_files", opts.MaxFiles)
		files = files[:opts.MaxFiles]
	}
	return files, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(fmt.Errorf("invalid ignore pattern %q: %w", p, err), errors.CodeValidationError, "compile ignore globs")
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

func isIgnored(globs []glob.Glob, rel string) bool {
	if len(globs) == 0 {
		return false
	}
	if matchesAny(globs, rel) {
		return true
	}
	for _, seg := range strings.Split(rel, "/") {
		if matchesAny(globs, seg) {
			return true
		}
	}
	return false
}

// matchesPattern accepts patterns written with a leading "./" or with
// backslashes.
func matchesPattern(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(util.NormalizePatternPath(p), rel); ok {
			return true
		}
	}
	return false
}

func isDeclarationFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".d.ts") || strings.HasSuffix(lower, ".d.mts") || strings.HasSuffix(lower, ".d.cts")
}
