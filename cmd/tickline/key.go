package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/core"
	"github.com/aretw0/tickline/pkg/easing"
)

var (
	keyLine    int
	keyChannel string
	keyTime    int
	keyValue   float64
	keyEasing  string
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Edit keyframes of a line property curve",
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Insert a keyframe, replacing one at the same tick",
	Run: func(cmd *cobra.Command, args []string) {
		ch, err := core.ParseChannel(keyChannel)
		if err != nil {
			fatal("Invalid channel", err)
		}
		tag, err := easing.Parse(keyEasing)
		if err != nil {
			fatal("Invalid easing", err)
		}
		edit(func(svc *core.Service) error {
			return svc.InsertKeyframe(keyLine, ch, core.Keyframe{Time: keyTime, Value: keyValue, Easing: tag})
		})
		fmt.Printf("%s of line %d = %g at tick %d (%s).\n", ch, keyLine, keyValue, keyTime, tag)
	},
}

var keyRmCmd = &cobra.Command{
	Use:   "rm <index>",
	Short: "Remove the keyframe at index",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ch, err := core.ParseChannel(keyChannel)
		if err != nil {
			fatal("Invalid channel", err)
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			fatal("Invalid index", err)
		}
		edit(func(svc *core.Service) error {
			return svc.RemoveKeyframe(keyLine, ch, i)
		})
		fmt.Printf("Keyframe %d removed from %s of line %d.\n", i, ch, keyLine)
	},
}

var easingsCmd = &cobra.Command{
	Use:   "easings",
	Short: "List the easing names accepted by 'key set'",
	Run: func(cmd *cobra.Command, args []string) {
		for _, tag := range easing.Tags() {
			fmt.Println(tag)
		}
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd, keyRmCmd, easingsCmd)
	keyCmd.PersistentFlags().IntVarP(&keyLine, "line", "l", 0, "Judge line id")
	keyCmd.PersistentFlags().StringVarP(&keyChannel, "channel", "c", "angle", "Property channel")

	f := keySetCmd.Flags()
	f.IntVar(&keyTime, "time", 0, "Keyframe tick")
	f.Float64Var(&keyValue, "value", 0, "Property value")
	f.StringVarP(&keyEasing, "easing", "e", "linear", "Easing toward the next keyframe")
}
