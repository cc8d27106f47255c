package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	convertTicks   float64
	convertSeconds float64
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between ticks and seconds with the chart tempo",
	Run: func(cmd *cobra.Command, args []string) {
		svc := openSession()
		defer svc.Close()
		tempo := svc.Document().Tempo()

		switch {
		case cmd.Flags().Changed("ticks"):
			fmt.Printf("%g ticks = %.6gs (audio at %s)\n", convertTicks, tempo.TicksToSeconds(convertTicks), tempo.AudioPosition(convertTicks))
		case cmd.Flags().Changed("seconds"):
			fmt.Printf("%gs = %.6g ticks\n", convertSeconds, tempo.SecondsToTicks(convertSeconds))
		default:
			fatal("Nothing to convert", fmt.Errorf("--ticks or --seconds is required"))
		}
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().Float64Var(&convertTicks, "ticks", 0, "Tick position")
	convertCmd.Flags().Float64Var(&convertSeconds, "seconds", 0, "Time in seconds")
	convertCmd.MarkFlagsMutuallyExclusive("ticks", "seconds")
}
