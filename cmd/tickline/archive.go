package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [dest.zip]",
	Short: "Package the chart and its assets into a zip archive",
	Long: `Cache the chart, then write chart.json with the cached audio and image into
one zip file. Without a destination the archive goes to exports/<uuid>.zip.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var dest string
		if len(args) == 1 {
			dest = args[0]
		}
		svc := openSession()
		defer svc.Close()

		path, err := svc.ExportArchive(context.Background(), dest)
		if err != nil {
			fatal("Failed to export", err)
		}
		fmt.Println("Exported", path)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <archive.zip>",
	Short: "Replace the cached chart and assets with an archive",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openSession()
		defer svc.Close()

		if err := svc.ImportArchive(context.Background(), args[0]); err != nil {
			fatal("Failed to import", err)
		}
		doc := svc.Document()
		fmt.Printf("Imported %q with %d judge lines.\n", doc.Metadata.MusicName, len(doc.Lines()))
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}
