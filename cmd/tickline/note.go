package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/core"
)

var (
	noteLine   int
	noteType   string
	noteTime   int
	noteHold   int
	notePosX   float64
	noteWidth  float64
	noteFake   bool
	noteSpeed  float64
	noteBelow  bool
	noteWindow []int
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes on a judge line",
}

var noteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Place a note",
	Run: func(cmd *cobra.Command, args []string) {
		typ, err := core.ParseNoteType(noteType)
		if err != nil {
			fatal("Invalid note type", err)
		}
		spec := core.NoteSpec{
			Type:      typ,
			Time:      noteTime,
			PosX:      notePosX,
			Width:     noteWidth,
			IsFake:    noteFake,
			FallSpeed: noteSpeed,
		}
		if cmd.Flags().Changed("hold") {
			spec.HoldTime = &noteHold
		}
		if cmd.Flags().Changed("below") {
			above := !noteBelow
			spec.FallSide = &above
		}

		edit(func(svc *core.Service) error {
			if typ == core.Hold && spec.HoldTime == nil {
				// Holds without a length use the editor default.
				hold := svc.Document().Editor.DefaultHoldTime
				spec.HoldTime = &hold
			}
			return svc.AddNote(noteLine, spec)
		})
		fmt.Printf("%s note placed on line %d at tick %d.\n", typ, noteLine, noteTime)
	},
}

var noteRmCmd = &cobra.Command{
	Use:   "rm <index>",
	Short: "Remove the note at index on a line (see 'note ls')",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			fatal("Invalid index", err)
		}
		edit(func(svc *core.Service) error {
			return svc.RemoveNote(noteLine, i)
		})
		fmt.Printf("Note %d removed from line %d.\n", i, noteLine)
	},
}

var noteLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the notes of a line, optionally within --window from,to",
	Run: func(cmd *cobra.Command, args []string) {
		svc := openSession()
		defer svc.Close()

		err := svc.View(func(d *core.Document) error {
			l, err := d.Line(noteLine)
			if err != nil {
				return err
			}
			notes := l.Notes()
			if len(noteWindow) == 2 {
				notes = l.NotesInWindow(noteWindow[0], noteWindow[1])
			}
			for i, n := range notes {
				hold := ""
				if n.HoldTime != nil {
					hold = fmt.Sprintf(" hold=%d", *n.HoldTime)
				}
				fmt.Printf("[%d] %-5s t=%d x=%g w=%g%s fake=%v speed=%g above=%v\n",
					i, n.Type, n.Time, n.PosX, n.Width, hold, n.IsFake, n.FallSpeed, n.FallSide)
			}
			return nil
		})
		if err != nil {
			fatal("Failed to list notes", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteRmCmd, noteLsCmd)
	noteCmd.PersistentFlags().IntVarP(&noteLine, "line", "l", 0, "Judge line id")

	f := noteAddCmd.Flags()
	f.StringVarP(&noteType, "type", "t", "tap", "Note type (tap, hold, flick, drag)")
	f.IntVar(&noteTime, "time", 0, "Start tick")
	f.IntVar(&noteHold, "hold", 0, "Hold length in ticks (hold notes only)")
	f.Float64VarP(&notePosX, "x", "x", 0, "Horizontal position on the line")
	f.Float64VarP(&noteWidth, "width", "w", 1, "Width relative to the default note")
	f.BoolVar(&noteFake, "fake", false, "Decorative note that is never judged")
	f.Float64Var(&noteSpeed, "speed", 1, "Fall speed multiplier")
	f.BoolVar(&noteBelow, "below", false, "Fall from below the line")

	noteLsCmd.Flags().IntSliceVar(&noteWindow, "window", nil, "Tick window as from,to")
}
