package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/provenance-io/p8e-publisher/cmd/flags"
	"github.com/provenance-io/p8e-publisher/cmd/pipeline"
	"github.com/provenance-io/p8e-publisher/httpserver"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "p8e-publisher-server",
		Usage: "Serve the p8e publish API",
		Flags: append(append([]cli.Flag{flags.ConfigFlag}, flags.LogFlags("p8e-publisher-server")...), flags.ServerFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			p, err := pipeline.FromContext(cCtx, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			handler := httpserver.NewHandler(p.Coordinator, p.Ledgers, p.Config.LoadBundle, p.Config.Locations(), logger)

			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server.RunInBackground()
			logger.Info("Server is running", "locations", len(p.Config.Locations()))

			<-ctx.Done()
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
