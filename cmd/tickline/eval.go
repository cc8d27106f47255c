package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/core"
)

var (
	evalLine    int
	evalChannel string
	evalTick    float64
	evalAll     bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate line properties at a (fractional) tick",
	Run: func(cmd *cobra.Command, args []string) {
		svc := openSession()
		defer svc.Close()

		channels := core.Channels()
		if !evalAll {
			ch, err := core.ParseChannel(evalChannel)
			if err != nil {
				fatal("Invalid channel", err)
			}
			channels = []core.Channel{ch}
		}
		for _, ch := range channels {
			v, err := svc.ValueAt(evalLine, ch, evalTick)
			if err != nil {
				fatal("Failed to evaluate", err)
			}
			fmt.Printf("%-18s %g\n", ch.String(), v)
		}
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().IntVarP(&evalLine, "line", "l", 0, "Judge line id")
	evalCmd.Flags().StringVarP(&evalChannel, "channel", "c", "angle", "Property channel")
	evalCmd.Flags().Float64VarP(&evalTick, "tick", "t", 0, "Tick position")
	evalCmd.Flags().BoolVarP(&evalAll, "all", "a", false, "Evaluate every channel")
}
