package app

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"usagelens/internal/core/errors"
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/engine/classify"
	"usagelens/internal/engine/usage"
	"usagelens/internal/shared/observability"
)

type fileResult struct {
	path       string
	report     *usage.Report
	complexity *classify.Classification
	err        error
}

// analyzeFiles runs the per-file pipeline on a bounded worker pool. Results
// come back in input order. Per-file failures are carried in the result; only
// cancellation of ctx aborts the batch.
func (a *App) analyzeFiles(ctx context.Context, files []string, library string, complexity bool) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.analyzeFile(gctx, path, library, complexity)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *App) analyzeFile(ctx context.Context, path, library string, complexity bool) fileResult {
	res := fileResult{path: path}

	src, err := os.ReadFile(path)
	if err != nil {
		res.err = errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source file"), errors.CtxPath, path)
		observability.FileErrorsTotal.WithLabelValues(string(errors.CodeOf(res.err))).Inc()
		return res
	}

	if timeout := a.Config.Analysis.FileTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := a.analyzer.AnalyzeSource(ctx, path, src)
	if err != nil {
		res.err = errors.AddContext(err, errors.CtxPath, path)
		observability.FileErrorsTotal.WithLabelValues(string(errors.CodeOf(res.err))).Inc()
		return res
	}
	observability.FilesAnalyzedTotal.Inc()

	if library != "" {
		report = usage.FilterByLibrary(report, library)
	}
	res.report = report
	if complexity {
		c := a.classifier.Analyze(report)
		res.complexity = &c
	}
	return res
}

// collect folds ordered results into a fresh builder.
func collect(results []fileResult, keepReports bool) *aggregate.Builder {
	b := aggregate.NewBuilder().KeepReports(keepReports)
	for _, r := range results {
		if r.err != nil {
			b.AddError(r.path, r.err)
			continue
		}
		b.Add(r.report)
		if r.complexity != nil {
			b.AddComplexity(r.path, *r.complexity)
		}
	}
	return b
}

func (a *App) workers() int {
	w := a.Config.Analysis.Workers
	if w < 1 {
		w = runtime.NumCPU()
	}
	return w
}

func errorSummary(results []fileResult) string {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}
	return fmt.Sprintf("%d/%d files failed", failed, len(results))
}
