package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/tickline/pkg/adapters/httpapi"
	"github.com/aretw0/tickline/pkg/adapters/lifecycle"
)

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editing session over HTTP for a presentation layer",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := openSession()
		defer svc.Close()

		watched, err := svc.Watch(ctx, "*")
		if err != nil {
			fatal("Failed to watch cache", err)
		}
		source := lifecycle.NewSource(svc.Subscribe(ctx), watched)
		if err := source.Start(ctx); err != nil {
			fatal("Failed to start event source", err)
		}
		go func() {
			for e := range source.Events() {
				slog.Debug("event", "event", e.String())
			}
		}()

		srv := httpapi.NewServer(svc,
			httpapi.WithLogger(slog.Default()),
			httpapi.WithAllowedOrigins(serveOrigins...),
		)
		slog.Info("serving", "addr", serveAddr, "session", svc.ID())
		if err := srv.ListenAndServe(ctx, serveAddr); err != nil {
			fatal("Server failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", []string{"*"}, "Allowed CORS origins")
}
