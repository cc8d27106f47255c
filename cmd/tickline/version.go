package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tickline",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tickline version %s\n", strings.TrimSpace(tickline.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
