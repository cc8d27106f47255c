package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the cached chart and assets",
	Run: func(cmd *cobra.Command, args []string) {
		if !resetYes {
			fatal("Refusing to reset", fmt.Errorf("this cannot be undone; pass --yes"))
		}
		svc := openSession()
		defer svc.Close()

		if err := svc.ResetAll(context.Background()); err != nil {
			fatal("Failed to reset", err)
		}
		fmt.Println("Cache cleared.")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm the reset")
}
