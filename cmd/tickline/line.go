package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/core"
)

var lineCmd = &cobra.Command{
	Use:   "line",
	Short: "Manage judge lines",
}

var lineAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a judge line",
	Run: func(cmd *cobra.Command, args []string) {
		var id int
		edit(func(svc *core.Service) error {
			var err error
			id, err = svc.AddLine()
			return err
		})
		fmt.Printf("Judge line %d added.\n", id)
	},
}

var lineRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a judge line with its notes and curves",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fatal("Invalid line id", err)
		}
		edit(func(svc *core.Service) error {
			return svc.RemoveLine(id)
		})
		fmt.Printf("Judge line %d removed.\n", id)
	},
}

func init() {
	rootCmd.AddCommand(lineCmd)
	lineCmd.AddCommand(lineAddCmd, lineRmCmd)
}
