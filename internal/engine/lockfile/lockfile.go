// Package lockfile reads installed package versions from npm, yarn and pnpm
// lockfiles. Versions only annotate reports; they never affect
// classification.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"usagelens/internal/core/errors"
)

// Unknown is reported for packages without a resolved version.
const Unknown = "unknown"

type Type string

const (
	TypeNPM  Type = "npm"
	TypeYarn Type = "yarn"
	TypePNPM Type = "pnpm"
)

// Result is the parsed content of the first lockfile found in a project.
type Result struct {
	Type     Type              `json:"type"`
	Path     string            `json:"path"`
	Versions map[string]string `json:"versions"`
}

// VersionOf looks a package up by exact name, then by the package a
// subpath import belongs to (`@a/b/sub` → `@a/b`, `a/sub` → `a`).
func (r Result) VersionOf(pkg string) string {
	if v, ok := r.Versions[pkg]; ok && v != "" {
		return v
	}
	if base := PackageName(pkg); base != pkg {
		if v, ok := r.Versions[base]; ok && v != "" {
			return v
		}
	}
	return Unknown
}

// PackageName trims an import path down to its package name.
func PackageName(source string) string {
	parts := strings.Split(source, "/")
	if strings.HasPrefix(source, "@") {
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return source
	}
	return parts[0]
}

type format struct {
	typ   Type
	file  string
	parse func(data []byte) (map[string]string, error)
}

// Resolver detects lockfiles in the order npm, yarn, pnpm.
type Resolver struct {
	formats []format
}

func NewResolver() *Resolver {
	return &Resolver{formats: []format{
		{typ: TypeNPM, file: "package-lock.json", parse: parseNPM},
		{typ: TypeYarn, file: "yarn.lock", parse: parseYarn},
		{typ: TypePNPM, file: "pnpm-lock.yaml", parse: parsePNPM},
	}}
}

// Resolve parses the first lockfile present in root. A lockfile that fails to
// parse yields an empty version map alongside the error.
func (r *Resolver) Resolve(root string) (Result, error) {
	for _, f := range r.formats {
		path := filepath.Join(root, f.file)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Result{}, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read lockfile"), errors.CtxPath, path)
		}

		res := Result{Type: f.typ, Path: path, Versions: map[string]string{}}
		versions, err := f.parse(data)
		if err != nil {
			slog.Warn("could not parse lockfile", "path", path, "type", f.typ, "error", err)
			return res, errors.AddContext(errors.Wrap(err, errors.CodeParseFailed, fmt.Sprintf("parse %s", f.file)), errors.CtxPath, path)
		}
		res.Versions = versions
		slog.Debug("lockfile resolved", "path", path, "type", f.typ, "packages", len(versions))
		return res, nil
	}
	return Result{Versions: map[string]string{}}, errors.AddContext(
		errors.New(errors.CodeNotFound, "no supported lockfile found"), errors.CtxPath, root)
}
