package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/deusflow/ainews/internal/app"
	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/logger"
)

type flags struct {
	config   string
	html     string
	debug    bool
	dryRun   bool
	progress bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "ainews",
		Short:         "Refresh the AI news page",
		Long:          "ainews fetches AI news from feeds, search and listing pages, localizes it into Chinese and rewrites the data literal of a static page.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, f)
		},
	}
	root.PersistentFlags().StringVar(&f.config, "config", "", "path to config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&f.html, "html", "", "host page to update, overrides document.path")
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "enable debug logging")
	addUpdateFlags(root, f)

	update := &cobra.Command{
		Use:   "update",
		Short: "Fetch, build and write the content database (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, f)
		},
	}
	addUpdateFlags(update, f)

	root.AddCommand(update, newExtractCmd(f), newValidateCmd(f), newVersionCmd())
	return root
}

func addUpdateFlags(cmd *cobra.Command, f *flags) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the new literal instead of writing the page")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "show a progress bar while fetching")
}

func newExtractCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Print the data literal currently in the page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return fail(err)
			}
			literal, err := app.Extract(cfg)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), literal)
			return nil
		},
	}
}

func newValidateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the settings and that the page can be updated",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return fail(err)
			}
			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintf(out, "✓ config valid: %d of %d sources enabled\n", len(cfg.EnabledSources()), len(cfg.Sources))

			if err := app.CheckDocument(cfg); err != nil {
				return fail(err)
			}
			color.New(color.FgGreen).Fprintf(out, "✓ %q found in %s\n", cfg.Document.Marker, cfg.Document.Path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ainews %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func runUpdate(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return fail(err)
	}
	log := newLogger(f, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{
		DryRun: f.dryRun,
		Output: cmd.OutOrStdout(),
		Log:    log,
	}
	if f.progress {
		bar := newProgressBar(len(cfg.EnabledSources()))
		opts.Progress = func(source string, n int, err error) {
			if err != nil {
				bar.Describe(color.RedString("%-24s failed", source))
			} else {
				bar.Describe(color.BlueString("%-24s %d items", source, n))
			}
			_ = bar.Add(1)
		}
	}

	res, err := app.Run(ctx, cfg, opts)
	if err != nil {
		return fail(err)
	}

	out := cmd.OutOrStdout()
	if f.dryRun {
		out = cmd.ErrOrStderr()
	}
	writeReport(out, res)
	return nil
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	if f.html != "" {
		cfg.Document.Path = f.html
	}
	if f.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// newLogger installs the process logger and tags it with a run id.
func newLogger(f *flags, cfg *config.Config) *slog.Logger {
	level := "info"
	if cfg.Debug || f.debug {
		level = "debug"
	}
	return logger.Init(level, os.Stderr).With("run", uuid.NewString())
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString("fetching")),
		progressbar.OptionSetItsString("sources"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func fail(err error) error {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
	return err
}

