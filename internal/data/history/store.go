package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"usagelens/internal/shared/observability"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores run and its component counts in one transaction. A run with
// an existing ID replaces the previous row.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (
  id, schema_version, command, library, root, ts_utc, files_analyzed, files_with_errors,
  total_components, total_imports, total_usage_patterns
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			SchemaVersion,
			run.Command,
			run.Library,
			run.Root,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.FilesAnalyzed,
			run.FilesWithErrors,
			run.TotalComponents,
			run.TotalImports,
			run.TotalUsagePatterns,
		); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_components (run_id, name, package, version, usage_count, file_count)
VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range run.Components {
			if _, err := stmt.ExecContext(ctx, run.ID, c.Name, c.Package, c.Version, c.Count, c.Files); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}
	observability.HistoryWritesTotal.Inc()
	return nil
}

// ListRuns returns runs newest first, each with its component counts.
func (s *Store) ListRuns(ctx context.Context, q Query) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT id, command, library, root, ts_utc, files_analyzed, files_with_errors,
  total_components, total_imports, total_usage_patterns
FROM runs
WHERE 1 = 1`
	args := make([]any, 0, 4)
	if lib := strings.TrimSpace(q.Library); lib != "" {
		base += " AND library = ?"
		args = append(args, lib)
	}
	if root := strings.TrimSpace(q.Root); root != "" {
		base += " AND root = ?"
		args = append(args, root)
	}
	if !q.Since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, q.Since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc DESC, id ASC"
	if q.Limit > 0 {
		base += " LIMIT ?"
		args = append(args, q.Limit)
	}

	var runs []Run
	err := s.withRetry("list runs", func() error {
		rows, err := s.db.QueryContext(ctx, base, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		runs = make([]Run, 0)
		for rows.Next() {
			var (
				run   Run
				tsRaw string
			)
			if err := rows.Scan(
				&run.ID,
				&run.Command,
				&run.Library,
				&run.Root,
				&tsRaw,
				&run.FilesAnalyzed,
				&run.FilesWithErrors,
				&run.TotalComponents,
				&run.TotalImports,
				&run.TotalUsagePatterns,
			); err != nil {
				return fmt.Errorf("scan run row: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, tsRaw)
			if err != nil {
				return fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
			}
			run.Timestamp = ts.UTC()
			runs = append(runs, run)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	for i := range runs {
		components, err := s.components(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Components = components
	}
	return runs, nil
}

func (s *Store) components(ctx context.Context, runID string) ([]ComponentCount, error) {
	var out []ComponentCount
	err := s.withRetry("load run components", func() error {
		rows, err := s.db.QueryContext(ctx, `
SELECT name, package, version, usage_count, file_count
FROM run_components WHERE run_id = ?
ORDER BY usage_count DESC, name ASC`, runID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]ComponentCount, 0)
		for rows.Next() {
			var c ComponentCount
			if err := rows.Scan(&c.Name, &c.Package, &c.Version, &c.Count, &c.Files); err != nil {
				return fmt.Errorf("scan component row: %w", err)
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

// ComponentTrend returns one point per matching run, oldest first. Runs where
// the component was absent report a zero count.
func (s *Store) ComponentTrend(ctx context.Context, component string, q Query) ([]TrendPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT r.id, r.ts_utc, COALESCE(c.usage_count, 0), COALESCE(c.version, '')
FROM runs r
LEFT JOIN run_components c ON c.run_id = r.id AND c.name = ?
WHERE 1 = 1`
	args := []any{component}
	if lib := strings.TrimSpace(q.Library); lib != "" {
		base += " AND r.library = ?"
		args = append(args, lib)
	}
	if !q.Since.IsZero() {
		base += " AND r.ts_utc >= ?"
		args = append(args, q.Since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY r.ts_utc ASC, r.id ASC"

	var points []TrendPoint
	err := s.withRetry("component trend", func() error {
		rows, err := s.db.QueryContext(ctx, base, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		points = make([]TrendPoint, 0)
		for rows.Next() {
			var (
				p     TrendPoint
				tsRaw string
			)
			if err := rows.Scan(&p.RunID, &tsRaw, &p.Count, &p.Version); err != nil {
				return fmt.Errorf("scan trend row: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, tsRaw)
			if err != nil {
				return fmt.Errorf("parse trend timestamp %q: %w", tsRaw, err)
			}
			p.Timestamp = ts.UTC()
			points = append(points, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
