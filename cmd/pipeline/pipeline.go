// Package pipeline wires the publisher components from a loaded configuration.
// It is shared by the publisher CLI and the HTTP server.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/provenance-io/p8e-publisher/cmd/flags"
	"github.com/provenance-io/p8e-publisher/config"
	"github.com/provenance-io/p8e-publisher/cryptoutils"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/objectstore"
	"github.com/provenance-io/p8e-publisher/publisher"
	"github.com/provenance-io/p8e-publisher/registry"
	"github.com/provenance-io/p8e-publisher/storage"
	"github.com/urfave/cli/v2"
)

// Pipeline holds the components of one process.
type Pipeline struct {
	Config      *config.Config
	Coordinator *publisher.Coordinator
	Ledgers     *registry.Factory
	Stores      *objectstore.Factory
	Log         *slog.Logger
}

// FromContext loads the configuration named by --config and builds the pipeline.
func FromContext(cCtx *cli.Context, logger *slog.Logger) (*Pipeline, error) {
	path := cCtx.String(flags.ConfigFlag.Name)
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("Failed to load configuration", "err", err, slog.String("path", path))
		return nil, err
	}
	logger.Info("Loaded configuration", slog.String("path", path), slog.Int("locations", len(cfg.Locations())))
	return New(cfg, logger), nil
}

// New builds the pipeline for cfg.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	curve := cryptoutils.Secp256k1Backend{}
	ledgers := registry.NewFactory(logger)
	stores := objectstore.NewFactory(storage.NewStorageBackendFactory(logger), curve, logger)

	return &Pipeline{
		Config:      cfg,
		Coordinator: publisher.NewCoordinator(cryptoutils.NewKeyCodec(curve), stores, ledgers, logger),
		Ledgers:     ledgers,
		Stores:      stores,
		Log:         logger,
	}
}

// Close releases ledger connections.
func (p *Pipeline) Close() {
	if err := p.Ledgers.Close(); err != nil {
		p.Log.Warn("Failed to close ledger connections", "err", err)
	}
}

// Locations returns the configured locations, or only the named ones.
func (p *Pipeline) Locations(names []string) ([]interfaces.Destination, error) {
	if len(names) == 0 {
		return p.Config.Locations(), nil
	}
	out := make([]interfaces.Destination, 0, len(names))
	for _, name := range names {
		dest, ok := p.Config.Location(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown location %q", interfaces.ErrInvalidConfiguration, name)
		}
		out = append(out, dest)
	}
	return out, nil
}
