package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"usagelens/internal/core/config"
	"usagelens/internal/shared/version"
	"usagelens/internal/ui/report"
)

type globalOptions struct {
	configPath string
	historyDB  string
	verbose    bool
	logFormat  string
}

// outputOptions are shared by every command that prints or saves a report.
type outputOptions struct {
	output string
	format string
	mode   string
	view   report.View
}

func (o *outputOptions) register(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write the report to this path instead of the output directory")
	cmd.Flags().StringVarP(&o.format, "format", "f", defaultFormat, "Output format: json, console, both, markdown or tsv")
	cmd.Flags().StringVar(&o.mode, "mode", "", "Console rendering: table or chart")
}

func (o *outputOptions) registerView(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.view.Summary, "summary", false, "Show the summary box")
	cmd.Flags().BoolVar(&o.view.Details, "details", false, "Show every component and section")
	cmd.Flags().BoolVar(&o.view.Components, "components", false, "Show the components table")
	cmd.Flags().BoolVar(&o.view.Packages, "packages", false, "Show the packages table")
	cmd.Flags().BoolVar(&o.view.Patterns, "patterns", false, "Show the usage pattern table")
}

// resolve fills unset values from [output] and validates them.
func (o *outputOptions) resolve(cfg *config.Config) error {
	if o.format == "" {
		o.format = cfg.Output.Format
	}
	if o.mode == "" {
		o.mode = cfg.Output.Mode
	}
	switch o.format {
	case config.FormatJSON, config.FormatConsole, config.FormatBoth, config.FormatMarkdown, config.FormatTSV:
	default:
		return usageErrorf("unsupported --format %q", o.format)
	}
	switch o.mode {
	case config.ModeTable, config.ModeChart:
	default:
		return usageErrorf("unsupported --mode %q", o.mode)
	}
	return nil
}

func (o outputOptions) printsConsole() bool {
	return o.format == config.FormatConsole || o.format == config.FormatBoth
}

func (o outputOptions) savesFile() bool {
	return o.format != config.FormatConsole
}

// scanOptions select the files of a project.
type scanOptions struct {
	library  string
	patterns []string
	ignore   []string
	maxFiles int
}

func (s *scanOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.library, "library", "l", "", "Only count imports from this package (and its subpaths)")
	cmd.Flags().StringArrayVarP(&s.patterns, "pattern", "p", nil, "Include glob, relative to the root (default **/*.{tsx,jsx,ts,js})")
	cmd.Flags().StringArrayVar(&s.ignore, "ignore", nil, "Ignore glob matched against names and path segments (repeatable)")
	cmd.Flags().IntVar(&s.maxFiles, "max-files", 0, "Stop after this many files (0 uses the config value)")
}

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           version.Name,
		Short:         "Measure how a codebase uses a component library",
		Long:          "usagelens parses JS/TS/JSX/TSX sources and reports which library components are imported, how they are used, and which versions are installed.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.PersistentFlags().StringVarP(&rt.global.configPath, "config", "c", "", "Path to usagelens.toml")
	root.PersistentFlags().StringVar(&rt.global.historyDB, "history-db", "", "Record runs in this SQLite database")
	root.PersistentFlags().BoolVarP(&rt.global.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&rt.global.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(
		newScanCommand(rt),
		newAnalyzeCommand(rt),
		newCompareCommand(rt),
		newGitHubCommand(rt),
		newHistoryCommand(rt),
		newWatchCommand(rt),
	)
	return root
}

// maxArgs wraps cobra.MaximumNArgs so arity mistakes exit as usage errors.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func splitLibraries(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
