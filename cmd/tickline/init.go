package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline"
	"github.com/aretw0/tickline/pkg/core"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a tickline project",
	Long: `Create the .tickline cache directory and a tickline.yaml with the editor
defaults, then cache a new chart. Existing files are left alone.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := dir
		if len(args) == 1 {
			target = args[0]
		}
		if target == "" {
			cwd, err := os.Getwd()
			if err != nil {
				fatal("Failed to get CWD", err)
			}
			target = cwd
		}

		if _, err := os.Stat(filepath.Join(target, tickline.ConfigFileName)); errors.Is(err, os.ErrNotExist) {
			cfg := tickline.DefaultConfig()
			if format != "" {
				cfg.Format = format
			}
			if err := cfg.Save(target); err != nil {
				fatal("Failed to write config", err)
			}
		}

		dir = target
		svc := openSession()
		defer svc.Close()

		if svc.PersistState() == core.Unsaved {
			if err := svc.SaveCache(context.Background()); err != nil {
				fatal("Failed to cache chart", err)
			}
		}
		fmt.Println("Initialized tickline project in", target)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
