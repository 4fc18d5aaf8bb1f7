package cli

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"usagelens/internal/core/config"
	"usagelens/internal/core/ports"
	"usagelens/internal/ui/report"
)

const commandWatch = "watch"

func newWatchCommand(rt *runtime) *cobra.Command {
	var (
		scan        scanOptions
		out         outputOptions
		complexity  bool
		uiMode      bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Analyze a project and re-analyze files as they change",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			analysis, err := rt.setup(ctx, uiMode)
			if err != nil {
				return err
			}
			out.format = config.FormatConsole
			if err := out.resolve(rt.cfg); err != nil {
				return err
			}

			ws, err := analysis.service.WatchService(ports.AnalyzeRequest{
				Root:       rootArg(args),
				Library:    rt.library(scan.library),
				Command:    commandWatch,
				Discover:   ports.DiscoverOptions{Patterns: scan.patterns, Ignore: scan.ignore, MaxFiles: scan.maxFiles},
				Complexity: complexity,
			})
			if err != nil {
				return classifyError(err)
			}
			defer ws.Close()

			addr := metricsAddr
			if addr == "" && rt.cfg.Observability.Enabled {
				addr = rt.cfg.Observability.Addr
			}
			if addr != "" && analysis.health != nil {
				server := NewObservabilityServer(addr, analysis.health.WithWatch(ws))
				if err := server.Start(ctx); err != nil {
					return err
				}
				defer func() {
					if err := server.Stop(context.Background()); err != nil {
						slog.Warn("observability server shutdown failed", "error", err)
					}
				}()
			}

			mode := &atomic.Value{}
			mode.Store(out.mode)
			if rt.cfgPath != "" {
				cw := config.NewWatcher(rt.cfgPath, func(cfg *config.Config) {
					if cfg.Output.Mode != "" {
						mode.Store(cfg.Output.Mode)
					}
					slog.Info("config reloaded", "path", rt.cfgPath, "mode", cfg.Output.Mode)
				})
				if err := cw.Start(ctx); err != nil {
					slog.Warn("config reload disabled", "path", rt.cfgPath, "error", err)
				} else {
					defer cw.Stop()
				}
			}

			if uiMode {
				return runUI(ctx, ws)
			}
			return rt.watchConsole(ctx, ws, out, mode)
		},
	}
	scan.register(cmd)
	cmd.Flags().StringVar(&out.mode, "mode", "", "Console rendering: table or chart")
	out.registerView(cmd)
	cmd.Flags().BoolVar(&complexity, "complexity", false, "Classify each file and score its usage complexity")
	cmd.Flags().BoolVar(&uiMode, "ui", false, "Open the interactive component browser")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")
	return cmd
}

// watchConsole prints the full report once, then a status line and summary
// after every rebuild, until ctx is cancelled.
func (rt *runtime) watchConsole(ctx context.Context, ws ports.WatchService, out outputOptions, mode *atomic.Value) error {
	var (
		mu    sync.Mutex
		first = true
	)
	ws.Subscribe(func(u ports.WatchUpdate) {
		mu.Lock()
		defer mu.Unlock()
		opts := report.ConsoleOptions{Mode: mode.Load().(string), View: out.view}
		if !first {
			report.PrintWatchUpdate(rt.stdout, u)
			opts.View = report.View{SummaryOnly: true}
		}
		first = false
		if err := report.PrintAggregate(rt.stdout, u.Aggregate, opts); err != nil {
			slog.Warn("failed to print report", "error", err)
		}
	})

	if err := ws.Start(ctx); err != nil {
		return classifyError(err)
	}
	<-ctx.Done()
	return nil
}
