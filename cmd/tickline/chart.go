package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/core"
)

var (
	chartMusic     string
	chartAuthor    string
	chartLevel     string
	chartCopyright string
	chartBPM       int
	chartTPB       int
	chartOffset    float64
	chartLength    int
	chartDivision  int
	chartFastHold  bool
	chartHoldTime  int
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Edit chart metadata, tempo and editor settings",
}

var chartSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change chart fields; only the given flags are applied",
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		edit(func(svc *core.Service) error {
			return svc.Update(func(d *core.Document) error {
				if flags.Changed("music") {
					d.Metadata.MusicName = chartMusic
				}
				if flags.Changed("author") {
					d.Metadata.AuthorName = chartAuthor
				}
				if flags.Changed("level") {
					d.Metadata.ChartLevel = chartLevel
				}
				if flags.Changed("copyright") {
					if err := d.Metadata.Copyright.UnmarshalText([]byte(chartCopyright)); err != nil {
						return &core.ValidationError{Field: "copyright", Reason: err.Error()}
					}
				}
				if flags.Changed("bpm") || flags.Changed("tpb") {
					t := d.Tempo()
					if flags.Changed("bpm") {
						t.BPM = chartBPM
					}
					if flags.Changed("tpb") {
						t.TickPerBeat = chartTPB
					}
					if err := d.SetTempo(t.TickPerBeat, t.BPM); err != nil {
						return err
					}
				}
				if flags.Changed("offset") {
					d.SetOffset(chartOffset)
				}
				if flags.Changed("length") {
					d.SetChartLength(chartLength)
				}
				if flags.Changed("division") {
					d.Editor.NoteDivision = chartDivision
				}
				if flags.Changed("fast-hold") {
					d.Editor.FastHold = chartFastHold
				}
				if flags.Changed("hold-time") {
					d.Editor.DefaultHoldTime = chartHoldTime
				}
				return nil
			})
		})
		fmt.Println("Chart updated.")
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartSetCmd)
	f := chartSetCmd.Flags()
	f.StringVar(&chartMusic, "music", "", "Music name")
	f.StringVar(&chartAuthor, "author", "", "Chart author")
	f.StringVar(&chartLevel, "level", "", "Chart level label")
	f.StringVar(&chartCopyright, "copyright", "", "Copyright (full, limited, none)")
	f.IntVar(&chartBPM, "bpm", 0, "Beats per minute")
	f.IntVar(&chartTPB, "tpb", 0, "Ticks per beat")
	f.Float64Var(&chartOffset, "offset", 0, "Audio offset in seconds (clamped)")
	f.IntVar(&chartLength, "length", 0, "Chart length in ticks (clamped)")
	f.IntVar(&chartDivision, "division", 0, "Editor note division")
	f.BoolVar(&chartFastHold, "fast-hold", false, "Place holds with the default hold time")
	f.IntVar(&chartHoldTime, "hold-time", 0, "Default hold time in ticks")
}
