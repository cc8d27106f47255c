package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/adapters/audio"
	"github.com/aretw0/tickline/pkg/core"
)

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Manage the chart music",
}

var audioImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Copy an mp3, ogg or wav file into the cache",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		info, err := audio.Probe(args[0])
		if err != nil {
			fatal("Unreadable audio", err)
		}
		svc := edit(func(svc *core.Service) error {
			return svc.ImportAudio(context.Background(), args[0])
		})
		defer svc.Close()

		tempo := svc.Document().Tempo()
		length := tempo.SecondsToTicks(info.Duration.Seconds() - tempo.Offset)
		slog.Debug("audio probed", "format", info.Format, "rate", info.SampleRate, "channels", info.Channels)
		fmt.Printf("Imported %s (%s, %s, ~%.0f ticks).\n", svc.Document().Assets.Audio, info.Format, info.Duration, length)
	},
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage the chart background",
}

var imageImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Copy a background image into the cache",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := edit(func(svc *core.Service) error {
			return svc.ImportImage(context.Background(), args[0])
		})
		defer svc.Close()
		fmt.Printf("Imported %s.\n", svc.Document().Assets.Image)
	},
}

func init() {
	rootCmd.AddCommand(audioCmd, imageCmd)
	audioCmd.AddCommand(audioImportCmd)
	imageCmd.AddCommand(imageImportCmd)
}
