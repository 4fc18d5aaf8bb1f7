package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"usagelens/internal/core/config"
	"usagelens/internal/core/ports"
	"usagelens/internal/data/repository"
	"usagelens/internal/engine/aggregate"
	"usagelens/internal/ui/report"
)

const (
	commandScan    = "scan"
	commandAnalyze = "analyze"
	commandCompare = "compare"
	commandGitHub  = "github"
	commandHistory = "history"
)

func newScanCommand(rt *runtime) *cobra.Command {
	var (
		scan scanOptions
		out  outputOptions
	)
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a project and print component usage",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.runAnalyze(cmd, commandScan, rootArg(args), scan, out, false)
		},
	}
	scan.register(cmd)
	out.register(cmd, config.FormatConsole)
	out.registerView(cmd)
	return cmd
}

func newAnalyzeCommand(rt *runtime) *cobra.Command {
	var (
		scan       scanOptions
		out        outputOptions
		complexity bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Analyze a project and save a usage report",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.runAnalyze(cmd, commandAnalyze, rootArg(args), scan, out, complexity)
		},
	}
	scan.register(cmd)
	out.register(cmd, "")
	cmd.Flags().BoolVar(&complexity, "complexity", false, "Classify each file and score its usage complexity")
	cmd.Flags().BoolVar(&out.view.SummaryOnly, "summary-only", false, "Print only the summary box")
	return cmd
}

func (rt *runtime) runAnalyze(cmd *cobra.Command, command, root string, scan scanOptions, out outputOptions, complexity bool) error {
	ctx := cmd.Context()
	analysis, err := rt.setup(ctx, false)
	if err != nil {
		return err
	}
	if err := out.resolve(rt.cfg); err != nil {
		return err
	}

	started := time.Now()
	agg, err := analysis.service.Analyze(ctx, ports.AnalyzeRequest{
		Root:       root,
		Library:    rt.library(scan.library),
		Command:    command,
		Discover:   ports.DiscoverOptions{Patterns: scan.patterns, Ignore: scan.ignore, MaxFiles: scan.maxFiles},
		Complexity: complexity,
	})
	if err != nil {
		return classifyError(err)
	}
	slog.Info("analysis finished",
		"command", command,
		"files", agg.Metadata.FilesAnalyzed,
		"components", agg.Summary.TotalComponents,
		"duration", time.Since(started).Round(time.Millisecond),
	)
	return rt.emitAggregate(agg, out)
}

func (rt *runtime) emitAggregate(agg *aggregate.Aggregate, out outputOptions) error {
	if out.printsConsole() {
		if err := report.PrintAggregate(rt.stdout, agg, report.ConsoleOptions{Mode: out.mode, View: out.view}); err != nil {
			return err
		}
	}
	if !out.savesFile() {
		return nil
	}
	format := out.format
	if format == config.FormatBoth {
		format = config.FormatJSON
	}
	path, err := report.SaveAggregate(agg, report.SaveOptions{Output: out.output, Dir: rt.cfg.Output.Dir, Format: format})
	if err != nil {
		return err
	}
	report.PrintSaved(rt.stdout, path)
	return nil
}

func newCompareCommand(rt *runtime) *cobra.Command {
	var (
		scan      scanOptions
		out       outputOptions
		libraries []string
	)
	cmd := &cobra.Command{
		Use:   "compare [dir] --library a --library b",
		Short: "Compare how several libraries are used in one project",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			libs := splitLibraries(libraries)
			if len(libs) < 2 {
				return usageErrorf("compare needs at least two --library values")
			}
			ctx := cmd.Context()
			analysis, err := rt.setup(ctx, false)
			if err != nil {
				return err
			}
			if err := out.resolve(rt.cfg); err != nil {
				return err
			}
			if out.format == config.FormatMarkdown || out.format == config.FormatTSV {
				return usageErrorf("compare reports support json, console or both")
			}

			aggs, err := analysis.service.Compare(ctx, ports.CompareRequest{
				Root:      rootArg(args),
				Libraries: libs,
				Discover:  ports.DiscoverOptions{Patterns: scan.patterns, Ignore: scan.ignore, MaxFiles: scan.maxFiles},
			})
			if err != nil {
				return classifyError(err)
			}
			if out.printsConsole() {
				if err := report.PrintCompare(rt.stdout, aggs); err != nil {
					return err
				}
			}
			if !out.savesFile() {
				return nil
			}
			path, err := report.SaveJSON(aggs, commandCompare, report.SaveOptions{Output: out.output, Dir: rt.cfg.Output.Dir})
			if err != nil {
				return err
			}
			report.PrintSaved(rt.stdout, path)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&libraries, "library", "l", nil, "Library to compare (repeat or comma-separate)")
	cmd.Flags().StringArrayVarP(&scan.patterns, "pattern", "p", nil, "Include glob, relative to the root")
	cmd.Flags().StringArrayVar(&scan.ignore, "ignore", nil, "Ignore glob (repeatable)")
	cmd.Flags().IntVar(&scan.maxFiles, "max-files", 0, "Stop after this many files")
	out.register(cmd, config.FormatBoth)
	return cmd
}

func newGitHubCommand(rt *runtime) *cobra.Command {
	var (
		out        outputOptions
		library    string
		reposFile  string
		branch     string
		depth      int
		pattern    string
		keepRepos  bool
		complexity bool
	)
	cmd := &cobra.Command{
		Use:   "github [owner/repo ...]",
		Short: "Clone GitHub repositories and report component usage across them",
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := append([]string(nil), args...)
			if reposFile != "" {
				listed, err := repository.LoadList(reposFile)
				if err != nil {
					return err
				}
				refs = append(refs, listed...)
			}
			if len(refs) == 0 {
				return usageErrorf("no repositories given; pass owner/repo arguments or --repos <file>")
			}
			for _, ref := range refs {
				if _, err := repository.ParseRef(ref); err != nil {
					return usageError{err: err}
				}
			}

			ctx := cmd.Context()
			// The fetcher reads clone settings when it is constructed.
			analysis, err := rt.setup(ctx, false, func(cfg *config.Config) {
				if branch != "" {
					cfg.GitHub.Branch = branch
				}
				if depth > 0 {
					cfg.GitHub.Depth = depth
				}
			})
			if err != nil {
				return err
			}
			if err := out.resolve(rt.cfg); err != nil {
				return err
			}
			if out.format == config.FormatMarkdown || out.format == config.FormatTSV {
				return usageErrorf("github reports support json, console or both")
			}

			res, err := analysis.service.AnalyzeGitHub(ctx, ports.GitHubRequest{
				Repositories: refs,
				Library:      rt.library(library),
				Pattern:      pattern,
				Branch:       branch,
				Complexity:   complexity,
				KeepRepos:    keepRepos || rt.cfg.GitHub.KeepRepos,
			})
			if err != nil {
				return classifyError(err)
			}
			if res.CloneDir != "" {
				fmt.Fprintf(rt.stdout, "Repositories kept in %s\n", res.CloneDir)
			}
			if out.printsConsole() {
				if err := report.PrintCombined(rt.stdout, res.Report); err != nil {
					return err
				}
			}
			if !out.savesFile() {
				return nil
			}
			path, err := report.SaveJSON(res.Report, commandGitHub, report.SaveOptions{Output: out.output, Dir: rt.cfg.Output.Dir})
			if err != nil {
				return err
			}
			report.PrintSaved(rt.stdout, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&library, "library", "l", "", "Only count imports from this package")
	cmd.Flags().StringVar(&reposFile, "repos", "", "JSON or YAML file with a repositories list")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to clone (default main, falling back to master)")
	cmd.Flags().IntVar(&depth, "depth", 0, "Clone depth (default 1)")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "Include glob inside each repository")
	cmd.Flags().BoolVar(&keepRepos, "keep-repos", false, "Keep the cloned repositories after analysis")
	cmd.Flags().BoolVar(&complexity, "complexity", false, "Classify each file and score its usage complexity")
	out.register(cmd, config.FormatBoth)
	return cmd
}

func newHistoryCommand(rt *runtime) *cobra.Command {
	var (
		library   string
		since     string
		limit     int
		component string
		format    string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs and component trends",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			sinceTime, err := parseSince(since)
			if err != nil {
				return err
			}
			switch format {
			case config.FormatConsole, config.FormatJSON, config.FormatTSV:
			default:
				return usageErrorf("history supports console, json or tsv, got %q", format)
			}

			ctx := cmd.Context()
			analysis, err := rt.setup(ctx, false)
			if err != nil {
				return err
			}
			res, err := analysis.service.History(ctx, ports.HistoryRequest{
				Library:   rt.library(library),
				Since:     sinceTime,
				Limit:     limit,
				Component: strings.TrimSpace(component),
			})
			if err != nil {
				return classifyError(err)
			}

			switch format {
			case config.FormatJSON:
				path, err := report.SaveJSON(res, commandHistory, report.SaveOptions{Output: output, Dir: rt.cfg.Output.Dir})
				if err != nil {
					return err
				}
				report.PrintSaved(rt.stdout, path)
				return nil
			case config.FormatTSV:
				data := report.RenderHistoryTSV(res)
				if output == "" {
					_, err := rt.stdout.Write(data)
					return err
				}
				if err := report.WriteAtomic(output, data); err != nil {
					return err
				}
				report.PrintSaved(rt.stdout, output)
				return nil
			default:
				return report.PrintHistory(rt.stdout, res)
			}
		},
	}
	cmd.Flags().StringVarP(&library, "library", "l", "", "Only list runs for this library")
	cmd.Flags().StringVar(&since, "since", "", "Only runs at or after this time (RFC3339, YYYY-MM-DD or a duration such as 72h)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	cmd.Flags().StringVar(&component, "component", "", "Show the usage trend of this component")
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatConsole, "Output format: console, json or tsv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write json or tsv output to this path")
	return cmd
}
