package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"usagelens/internal/core/config"
	"usagelens/internal/core/errors"
	"usagelens/internal/shared/observability"
	"usagelens/internal/shared/version"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks bad invocations; they exit with status 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// runtime carries per-invocation state shared by the subcommands.
type runtime struct {
	stdout  io.Writer
	stderr  io.Writer
	factory analysisFactory
	global  globalOptions

	cfg     *config.Config
	cfgPath string
	paths   config.ResolvedPaths
	closers []func(context.Context) error
}

// Run executes the CLI and returns the process exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr, coreAnalysisFactory{})
}

func run(args []string, stdout, stderr io.Writer, factory analysisFactory) int {
	rt := &runtime{stdout: stdout, stderr: stderr, factory: factory}
	root := newRootCommand(rt)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	rt.shutdown()
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return exitOK
	}
	fmt.Fprintln(stderr, "Error:", err)
	var ue usageError
	if stderrors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return exitUsage
	}
	return exitFailure
}

// setup loads configuration, configures logging and tracing, and builds the
// analysis service. Cleanup is registered on rt and runs after the command.
func (rt *runtime) setup(ctx context.Context, uiMode bool, overrides ...func(*config.Config)) (*analysisRuntime, error) {
	if rt.global.logFormat != "" && rt.global.logFormat != "text" && rt.global.logFormat != "json" {
		return nil, usageErrorf("unsupported --log-format %q", rt.global.logFormat)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("detect working directory: %w", err)
	}

	cfg, cfgPath, err := config.LoadOrDefault(rt.global.configPath, cwd)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	config.ApplyEnvOverrides(cfg)
	if rt.global.historyDB != "" {
		cfg.History.Enabled = true
		cfg.History.Path = rt.global.historyDB
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, usageError{err: err}
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve runtime paths: %w", err)
	}
	cfg.History.Path = paths.History
	cfg.Output.Dir = paths.OutputDir
	rt.cfg, rt.cfgPath, rt.paths = cfg, cfgPath, paths

	closeLogs := configureLogging(uiMode, rt.global.verbose, rt.global.logFormat == "json", paths.LogFile, rt.stderr)
	rt.closers = append(rt.closers, func(context.Context) error { closeLogs(); return nil })
	if cfgPath != "" {
		slog.Debug("loaded config", "path", cfgPath)
	}

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.SetupTracing(ctx, observability.TracingConfig{
			ServiceName:    cfg.Observability.ServiceName,
			ServiceVersion: version.Version,
			Endpoint:       cfg.Observability.OTLPEndpoint,
			Insecure:       true,
		})
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			rt.closers = append(rt.closers, shutdown)
		}
	}

	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	analysis, err := initializeAnalysis(cfg, rt.factory)
	if err != nil {
		return nil, fmt.Errorf("initialize app: %w", err)
	}
	rt.closers = append(rt.closers, analysis.close)
	return analysis, nil
}

// shutdown runs the registered closers in reverse order.
func (rt *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			slog.Warn("shutdown step failed", "error", err)
		}
	}
	rt.closers = nil
}

// library resolves the target library from the flag, then config.
func (rt *runtime) library(flag string) string {
	if lib := strings.TrimSpace(flag); lib != "" {
		return lib
	}
	if rt.cfg != nil {
		return strings.TrimSpace(rt.cfg.Library)
	}
	return ""
}

func rootArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func parseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}

	rfc3339, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return rfc3339.UTC(), nil
	}

	dateOnly, err := time.Parse(time.DateOnly, raw)
	if err == nil {
		return dateOnly.UTC(), nil
	}

	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return time.Now().Add(-d).UTC(), nil
	}

	return time.Time{}, usageErrorf("--since must be RFC3339, YYYY-MM-DD or a duration, got %q", value)
}

// classifyError turns validation failures from the core into usage errors.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsCode(err, errors.CodeValidationError) {
		return usageError{err: err}
	}
	return err
}

func configureLogging(uiMode, verbose, jsonFormat bool, logPath string, fallback io.Writer) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := fallback
	closeFn := func() {}
	if uiMode {
		if logPath == "" {
			logPath = resolveLogPath()
		}
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler = slog.NewTextHandler(output, opts)
	if jsonFormat {
		handler = slog.NewJSONHandler(output, opts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, version.Name, version.Name+".log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", version.Name, version.Name+".log")
	}

	return version.Name + ".log"
}
