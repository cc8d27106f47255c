package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline"
	"github.com/aretw0/tickline/pkg/core"
)

var (
	verbose  bool
	dir      string
	format   string
	readOnly bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tickline",
	Short: "Chart timing and data core for a scrolling-note rhythm game editor",
	Long: `tickline edits rhythm game charts: judge lines, notes and animated
line properties on a tick grid. Every command works on the chart cached in the
project's .tickline directory.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", "", "Project directory (default: nearest project above the current directory)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Cached chart format (json or yaml)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Refuse every cache write")
}

// projectDir resolves --dir, falling back to the nearest project root and
// then to the working directory.
func projectDir() string {
	if dir != "" {
		return dir
	}
	cwd, err := os.Getwd()
	if err != nil {
		fatal("Failed to get CWD", err)
	}
	if root, err := tickline.FindProjectRoot(cwd); err == nil {
		return root
	}
	return cwd
}

func sessionOptions(extra ...tickline.Option) []tickline.Option {
	opts := []tickline.Option{
		tickline.WithLogger(slog.Default()),
		tickline.WithReadOnly(readOnly),
	}
	if format != "" {
		opts = append(opts, tickline.WithFormat(format))
	}
	return append(opts, extra...)
}

// openSession opens the project and loads the cached chart. A project
// without a cache starts from a new chart.
func openSession(extra ...tickline.Option) *core.Service {
	svc, err := tickline.New(projectDir(), sessionOptions(extra...)...)
	if err != nil {
		fatal("Failed to open project", err)
	}
	if err := svc.LoadCache(context.Background()); err != nil && !errors.Is(err, core.ErrNotFound) {
		fatal("Failed to load cached chart", err)
	}
	return svc
}

// edit opens the session, applies fn and caches the result.
func edit(fn func(svc *core.Service) error) *core.Service {
	svc := openSession()
	if err := fn(svc); err != nil {
		fatal("Edit rejected", err)
	}
	if err := svc.SaveCache(context.Background()); err != nil {
		fatal("Failed to save chart", err)
	}
	return svc
}
