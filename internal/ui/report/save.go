package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"usagelens/internal/core/config"
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/shared/util"
	"usagelens/internal/shared/version"
)

// DefaultPath is <dir>/<command>-report-<timestamp><ext>.
func DefaultPath(dir, command, ext string, at time.Time) string {
	if dir == "" {
		dir = "reports-outputs"
	}
	return filepath.Join(dir, fmt.Sprintf("%s-report-%s%s", command, util.FileTimestamp(at), ext))
}

func extensionFor(format string) string {
	switch format {
	case config.FormatMarkdown:
		return ".md"
	case config.FormatTSV:
		return ".tsv"
	default:
		return ".json"
	}
}

// SaveOptions locates a report file. Output wins over Dir.
type SaveOptions struct {
	Output string
	Dir    string
	Format string
}

func (o SaveOptions) path(command string) string {
	if o.Output != "" {
		return o.Output
	}
	return DefaultPath(o.Dir, command, extensionFor(o.Format), time.Now())
}

// SaveJSON writes v as indented JSON and returns the path used.
func SaveJSON(v any, command string, opts SaveOptions) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s report: %w", command, err)
	}
	opts.Format = config.FormatJSON
	path := opts.path(command)
	if err := WriteAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAggregate writes agg in the file format named by opts.Format.
func SaveAggregate(agg *aggregate.Aggregate, opts SaveOptions) (string, error) {
	command := agg.Metadata.Command
	switch opts.Format {
	case config.FormatMarkdown:
		out, err := NewMarkdownGenerator().Generate(agg, MarkdownReportOptions{
			ProjectName:         filepath.Base(agg.Metadata.Root),
			Version:             version.Version,
			TableOfContents:     true,
			CollapsibleSections: true,
		})
		if err != nil {
			return "", err
		}
		path := opts.path(command)
		return path, WriteAtomic(path, []byte(out))
	case config.FormatTSV:
		out, err := NewTSVGenerator(agg).Generate()
		if err != nil {
			return "", err
		}
		path := opts.path(command)
		return path, WriteAtomic(path, []byte(out))
	default:
		return SaveJSON(agg, command, opts)
	}
}

// WriteAtomic writes through a temp file in the target directory and renames
// it into place.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", path, err)
	}
	tmpName := tmp.Name()

	writeErr := error(nil)
	if _, err := tmp.Write(data); err != nil {
		writeErr = fmt.Errorf("write temp report file %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("close temp report file %q: %w", tmpName, err)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace report file %q: %w", path, err)
	}
	return nil
}
