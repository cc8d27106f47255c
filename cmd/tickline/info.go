package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/core"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the cached chart",
	Run: func(cmd *cobra.Command, args []string) {
		svc := openSession()
		defer svc.Close()

		if infoJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(svc.State()); err != nil {
				fatal("Failed to encode state", err)
			}
			return
		}

		doc := svc.Document()
		tempo := doc.Tempo()
		fmt.Printf("Music:       %s\n", doc.Metadata.MusicName)
		fmt.Printf("Author:      %s\n", doc.Metadata.AuthorName)
		fmt.Printf("Level:       %s\n", doc.Metadata.ChartLevel)
		fmt.Printf("Copyright:   %s\n", doc.Metadata.Copyright)
		fmt.Printf("Tempo:       %d BPM, %d ticks per beat (%.1f ticks/s)\n", tempo.BPM, tempo.TickPerBeat, tempo.TickPerSecond())
		fmt.Printf("Offset:      %.3fs\n", tempo.Offset)
		fmt.Printf("Length:      %d ticks (%.2fs, max %d)\n", doc.ChartLength(), tempo.TicksToSeconds(float64(doc.ChartLength())), doc.MaxChartLength())
		fmt.Printf("Audio:       %s\n", orNone(doc.Assets.Audio))
		fmt.Printf("Image:       %s\n", orNone(doc.Assets.Image))
		fmt.Printf("State:       %s\n", svc.PersistState())

		fmt.Println("Highlights:")
		for i, h := range doc.Highlights() {
			fmt.Printf("  [%d] 1/%d %s\n", i, h.Value, h.Color)
		}

		fmt.Println("Judge lines:")
		for _, l := range doc.Lines() {
			var animated []string
			for _, ch := range core.Channels() {
				if c, err := l.Curve(ch); err == nil && c.Len() > 0 {
					animated = append(animated, fmt.Sprintf("%s(%d)", ch, c.Len()))
				}
			}
			fmt.Printf("  line %d: %d notes %v\n", l.ID, l.NoteCount(), animated)
		}
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Print the session state as JSON")
}
