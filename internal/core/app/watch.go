// # internal/core/app/watch.go
package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"usagelens/internal/core/errors"
	"usagelens/internal/core/ports"
	"usagelens/internal/core/watcher"
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/engine/parser"
	"usagelens/internal/shared/observability"
)

// watchService keeps the latest per-file results for a root and rebuilds the
// aggregate after every debounced batch of changes.
type watchService struct {
	app      *App
	req      ports.AnalyzeRequest
	root     string
	patterns []string
	ignore   []glob.Glob
	cache    *ContentCache

	mu      sync.RWMutex
	ctx     context.Context
	results map[string]fileResult
	current *aggregate.Aggregate

	subsMu sync.Mutex
	subs   []func(ports.WatchUpdate)

	watcher *watcher.Watcher
}

var _ ports.WatchService = (*watchService)(nil)

func newWatchService(a *App, req ports.AnalyzeRequest) (*watchService, error) {
	root := req.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "resolve root"), errors.CtxPath, root)
	}
	req.Root = abs
	if req.Command == "" {
		req.Command = CommandWatch
	}
	req.Discover = a.discoverDefaults(req.Discover)

	ignore, err := compileGlobs(req.Discover.Ignore)
	if err != nil {
		return nil, err
	}
	return &watchService{
		app:      a,
		req:      req,
		root:     abs,
		patterns: req.Discover.Patterns,
		ignore:   ignore,
		cache:    NewContentCache(),
		results:  make(map[string]fileResult),
	}, nil
}

// Start runs the initial analysis and begins watching root. It returns once
// the watcher is running; updates are delivered to subscribers until Close.
func (w *watchService) Start(ctx context.Context) error {
	started := time.Now()
	files, err := w.app.Discover(ctx, w.root, w.req.Discover)
	if err != nil {
		return err
	}

	results, err := w.app.analyzeFiles(ctx, files, w.req.Library, w.req.Complexity || w.app.Config.Analysis.Complexity)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.ctx = ctx
	for _, r := range results {
		w.results[r.path] = r
		if src, err := os.ReadFile(r.path); err == nil {
			w.cache.Changed(r.path, src)
		}
	}
	w.mu.Unlock()

	w.app.startHistoryWriter()
	agg := w.rebuild()
	w.app.recordHistory(ctx, agg)
	w.publish(ports.WatchUpdate{Aggregate: agg, ChangedFiles: files, Reanalyzed: len(files), Duration: time.Since(started)})

	fw, err := watcher.NewWatcher(w.app.Config.Watch.Debounce, w.req.Discover.Ignore, w.handleChanges)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create file watcher")
	}
	fw.SetExtensions(parser.SupportedExtensions())
	if err := fw.Watch([]string{w.root}); err != nil {
		_ = fw.Close()
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "watch root"), errors.CtxPath, w.root)
	}
	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()
	slog.Info("watching for changes", "root", w.root, "files", len(files))
	return nil
}

func (w *watchService) Current() *aggregate.Aggregate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *watchService) Subscribe(handler func(ports.WatchUpdate)) {
	if handler == nil {
		return
	}
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	w.subs = append(w.subs, handler)
}

func (w *watchService) Close() error {
	w.mu.Lock()
	fw := w.watcher
	w.watcher = nil
	w.mu.Unlock()
	if fw == nil {
		return nil
	}
	return fw.Close()
}

// handleChanges re-analyzes the changed paths whose content differs from the
// last analysis, drops deleted paths, and publishes the rebuilt aggregate.
func (w *watchService) handleChanges(paths []string) {
	started := time.Now()
	w.mu.RLock()
	ctx := w.ctx
	w.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	var (
		changed []string
		skipped int
		removed int
	)
	for _, path := range paths {
		if !w.tracks(path) {
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				w.mu.Lock()
				if _, ok := w.results[path]; ok {
					delete(w.results, path)
					removed++
				}
				w.mu.Unlock()
				w.cache.Drop(path)
			}
			continue
		}
		if !w.cache.Changed(path, src) {
			skipped++
			observability.ContentCacheHitsTotal.Inc()
			continue
		}
		changed = append(changed, path)
	}

	if len(changed) == 0 && removed == 0 {
		return
	}

	results, err := w.app.analyzeFiles(ctx, changed, w.req.Library, w.req.Complexity || w.app.Config.Analysis.Complexity)
	if err != nil {
		slog.Warn("incremental analysis aborted", "error", err)
		return
	}
	w.mu.Lock()
	for _, r := range results {
		w.results[r.path] = r
	}
	w.mu.Unlock()

	agg := w.rebuild()
	w.app.recordHistory(ctx, agg)
	slog.Debug("incremental analysis complete", "changed", len(changed), "removed", removed, "skipped", skipped)
	w.publish(ports.WatchUpdate{
		Aggregate:    agg,
		ChangedFiles: changed,
		Reanalyzed:   len(changed),
		Skipped:      skipped,
		Duration:     time.Since(started),
	})
}

// tracks applies the same include and ignore rules as discovery.
func (w *watchService) tracks(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isIgnored(w.ignore, rel) || isDeclarationFile(rel) {
		return false
	}
	return matchesPattern(w.patterns, rel) && w.app.analyzer.Supports(path)
}

func (w *watchService) rebuild() *aggregate.Aggregate {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.results))
	for p := range w.results {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	ordered := make([]fileResult, 0, len(paths))
	for _, p := range paths {
		ordered = append(ordered, w.results[p])
	}

	agg := collect(ordered, w.req.KeepReports).Build(
		w.app.newMetadata(w.req, w.root, len(ordered)),
		w.app.resolveVersions(w.root),
	)
	observability.ComponentsTracked.Set(float64(agg.Summary.TotalComponents))
	w.current = agg
	return agg
}

func (w *watchService) publish(update ports.WatchUpdate) {
	w.subsMu.Lock()
	subs := append([]func(ports.WatchUpdate){}, w.subs...)
	w.subsMu.Unlock()
	for _, fn := range subs {
		fn(update)
	}
}
