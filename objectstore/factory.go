package objectstore

import (
	"fmt"
	"log/slog"

	"github.com/provenance-io/p8e-publisher/cryptoutils"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/storage"
)

// Factory builds object store clients for destinations.
type Factory struct {
	storage *storage.StorageBackendFactory
	curve   cryptoutils.CurveBackend
	log     *slog.Logger
}

// NewFactory creates a factory over the given storage backend factory.
func NewFactory(backends *storage.StorageBackendFactory, curve cryptoutils.CurveBackend, log *slog.Logger) *Factory {
	return &Factory{
		storage: backends,
		curve:   curve,
		log:     log,
	}
}

// ObjectStoreFor returns a client writing to the destination's registry URL
// and any mirrors.
func (f *Factory) ObjectStoreFor(dest interfaces.Destination) (interfaces.ObjectStore, error) {
	return f.ClientFor(dest)
}

// ClientFor is ObjectStoreFor returning the concrete client.
func (f *Factory) ClientFor(dest interfaces.Destination) (*Client, error) {
	backend, err := f.storage.BackendForURIs(dest.RegistryURL, dest.MirrorURLs)
	if err != nil {
		return nil, fmt.Errorf("%w: object store for %s: %w", interfaces.ErrInvalidConfiguration, dest.Name, err)
	}
	return NewClient(backend, f.curve, f.log.With(slog.String("location", dest.Name))), nil
}
