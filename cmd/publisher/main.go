package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/provenance-io/p8e-publisher/cmd/flags"
	"github.com/provenance-io/p8e-publisher/cmd/pipeline"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/urfave/cli/v2"
)

var flagLocation = &cli.StringSliceFlag{
	Name:    "location",
	Aliases: []string{"l"},
	Usage:   "publish only to the named location (repeatable); defaults to every configured location",
}

var flagNoMarkers = &cli.BoolFlag{
	Name:  "no-markers",
	Usage: "do not write hash marker files after a successful publish",
}

var flagQueryLocation = &cli.StringFlag{
	Name:     "location",
	Aliases:  []string{"l"},
	Required: true,
	Usage:    "location whose ledger is queried",
}

func main() {
	app := &cli.App{
		Name:  "p8e-publisher",
		Usage: "Publish contract and schema artifacts to p8e locations",
		Flags: append([]cli.Flag{flags.ConfigFlag}, flags.LogFlags("p8e-publisher")...),
		Commands: []*cli.Command{
			{
				Name:  "publish",
				Usage: "upload artifacts and register contract specifications",
				Flags: []cli.Flag{flagLocation, flagNoMarkers},
				Action: func(cCtx *cli.Context) error {
					logger := flags.SetupLogger(cCtx)
					p, err := pipeline.FromContext(cCtx, logger)
					if err != nil {
						return err
					}
					defer p.Close()

					locations, err := p.Locations(cCtx.StringSlice(flagLocation.Name))
					if err != nil {
						return err
					}

					bundle, err := p.Config.LoadBundle()
					if err != nil {
						logger.Error("Failed to load artifacts", "err", err)
						return err
					}

					// Uploads and block-mode broadcasts cannot be aborted safely, so
					// signals are held off until the run finishes.
					interrupts := make(chan os.Signal, 1)
					signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
					defer func() {
						signal.Stop(interrupts)
						close(interrupts)
					}()
					go func() {
						for sig := range interrupts {
							logger.Warn("Publish in progress, waiting for it to finish", slog.String("signal", sig.String()))
						}
					}()

					results, err := p.Coordinator.Publish(context.Background(), bundle, locations)
					printResults(results)
					if err != nil {
						return err
					}

					if !cCtx.Bool(flagNoMarkers.Name) {
						return pipeline.WriteMarkers(p.Config, bundle, time.Now(), logger)
					}
					return nil
				},
			},
			{
				Name:  "check",
				Usage: "verify the configured artifacts and manifests",
				Action: func(cCtx *cli.Context) error {
					logger := flags.SetupLogger(cCtx)
					p, err := pipeline.FromContext(cCtx, logger)
					if err != nil {
						return err
					}
					defer p.Close()
					return pipeline.Check(p.Config, logger)
				},
			},
			{
				Name:  "clean",
				Usage: "remove generated hash marker files",
				Action: func(cCtx *cli.Context) error {
					logger := flags.SetupLogger(cCtx)
					p, err := pipeline.FromContext(cCtx, logger)
					if err != nil {
						return err
					}
					defer p.Close()
					return pipeline.CleanMarkers(p.Config, logger)
				},
			},
			{
				Name:  "query",
				Usage: "look up specifications on a location's ledger",
				Subcommands: []*cli.Command{
					querySubcommand("contract-spec", "look up a contract specification by id", interfaces.Ledger.ContractSpecification),
					querySubcommand("scope-spec", "look up a scope specification by id", interfaces.Ledger.ScopeSpecification),
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type specificationQuery func(interfaces.Ledger, context.Context, string) (map[string]any, error)

func querySubcommand(name, usage string, query specificationQuery) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Flags:     []cli.Flag{flagQueryLocation},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return errors.New("expected exactly one specification id")
			}

			logger := flags.SetupLogger(cCtx)
			p, err := pipeline.FromContext(cCtx, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			locations, err := p.Locations([]string{cCtx.String(flagQueryLocation.Name)})
			if err != nil {
				return err
			}
			ledger, err := p.Ledgers.LedgerFor(locations[0])
			if err != nil {
				return err
			}

			spec, err := query(ledger, cCtx.Context, cCtx.Args().First())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(spec)
		},
	}
}

func printResults(results map[string]interfaces.TxResult) {
	for name, result := range results {
		fmt.Printf("%s\t%s\theight=%d\tattempts=%d\n", name, result.TxHash, result.Height, result.Attempts)
	}
}
