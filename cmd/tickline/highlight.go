package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/core"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight",
	Short: "Manage highlighted beat subdivisions",
}

var highlightAddCmd = &cobra.Command{
	Use:   "add <value> <#rrggbb>",
	Short: "Highlight 1/value beat lines in a color",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := strconv.Atoi(args[0])
		if err != nil {
			fatal("Invalid value", err)
		}
		color, err := core.ParseColor(args[1])
		if err != nil {
			fatal("Invalid color", err)
		}
		edit(func(svc *core.Service) error {
			return svc.AddHighlight(value, color)
		})
		fmt.Printf("Highlighted 1/%d in %s.\n", value, color)
	},
}

var highlightRmCmd = &cobra.Command{
	Use:   "rm <index>",
	Short: "Remove the highlight at index (see 'info')",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			fatal("Invalid index", err)
		}
		edit(func(svc *core.Service) error {
			return svc.RemoveHighlight(i)
		})
		fmt.Printf("Highlight %d removed.\n", i)
	},
}

func init() {
	rootCmd.AddCommand(highlightCmd)
	highlightCmd.AddCommand(highlightAddCmd, highlightRmCmd)
}
