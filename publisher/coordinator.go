package publisher

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/provenance-io/p8e-publisher/cryptoutils"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/metrics"
	"github.com/provenance-io/p8e-publisher/registry"
	"github.com/provenance-io/p8e-publisher/specs"
)

// Coordinator publishes an artifact bundle to a list of destinations, one
// destination at a time. Concurrent Publish calls are serialized.
type Coordinator struct {
	mutex sync.Mutex

	keys         *cryptoutils.KeyCodec
	stores       interfaces.ObjectStoreFactory
	broadcasters interfaces.BroadcasterFactory
	log          *slog.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(keys *cryptoutils.KeyCodec, stores interfaces.ObjectStoreFactory, broadcasters interfaces.BroadcasterFactory, log *slog.Logger) *Coordinator {
	return &Coordinator{
		keys:         keys,
		stores:       stores,
		broadcasters: broadcasters,
		log:          log,
	}
}

// Publish uploads both artifacts to every destination in order and registers
// one contract specification per code class on each destination's ledger.
//
// Configuration is validated before anything touches the network. A failure
// stops the run; results of destinations published before it are returned
// together with the error and are not rolled back.
func (c *Coordinator) Publish(ctx context.Context, bundle interfaces.ArtifactBundle, destinations []interfaces.Destination) (map[string]interfaces.TxResult, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := Validate(bundle, destinations); err != nil {
		return nil, err
	}

	hashes := NewHashLedger()
	results := make(map[string]interfaces.TxResult, len(destinations))

	for _, dest := range destinations {
		started := time.Now()
		result, err := c.publishTo(ctx, bundle, dest, hashes)
		metrics.RecordPublish(dest.Name, started, err)
		if err != nil {
			c.log.Error("Publish failed",
				slog.String("location", dest.Name),
				slog.Int("published", len(results)),
				"err", err)
			return results, fmt.Errorf("publishing to %s: %w", dest.Name, err)
		}
		results[dest.Name] = result
	}

	return results, nil
}

func (c *Coordinator) publishTo(ctx context.Context, bundle interfaces.ArtifactBundle, dest interfaces.Destination, hashes *HashLedger) (interfaces.TxResult, error) {
	log := c.log.With(slog.String("location", dest.Name))

	signer, err := c.keys.DerivePrivate(dest.PrivateKey)
	if err != nil {
		return interfaces.TxResult{}, fmt.Errorf("private key: %w", err)
	}

	recipients, err := c.audience(dest, signer)
	if err != nil {
		return interfaces.TxResult{}, err
	}

	store, err := c.stores.ObjectStoreFor(dest)
	if err != nil {
		return interfaces.TxResult{}, err
	}

	codeRef, err := c.upload(ctx, store, bundle.Code, recipients, hashes, log)
	if err != nil {
		return interfaces.TxResult{}, err
	}
	schemaRef, err := c.upload(ctx, store, bundle.Schema, recipients, hashes, log)
	if err != nil {
		return interfaces.TxResult{}, err
	}

	contractSpecs, err := specs.BuildSpecifications(bundle.Code.Classes, codeRef, schemaRef)
	if err != nil {
		return interfaces.TxResult{}, err
	}

	messages, err := registry.ContractSpecificationMessages(contractSpecs, signer.Address())
	if err != nil {
		return interfaces.TxResult{}, err
	}

	broadcaster, err := c.broadcasters.BroadcasterFor(dest)
	if err != nil {
		return interfaces.TxResult{}, err
	}

	log.Info("Registering contract specifications",
		slog.Int("count", len(contractSpecs)),
		slog.String("signer", signer.Address()))

	result, err := broadcaster.Broadcast(ctx, signer, messages, dest.FeeConfig())
	if err != nil {
		return interfaces.TxResult{}, err
	}

	log.Info("Published contract specifications",
		slog.String("txhash", result.TxHash),
		slog.Int("attempts", result.Attempts))
	return result, nil
}

// audience decodes the destination's audience keys. The signer's own key is
// always a recipient.
func (c *Coordinator) audience(dest interfaces.Destination, signer *cryptoutils.Keypair) ([]*ecdsa.PublicKey, error) {
	recipients := make([]*ecdsa.PublicKey, 0, len(dest.Audience)+1)
	recipients = append(recipients, signer.Public())
	for _, party := range dest.Audience {
		pub, err := c.keys.DecodePublic(party.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("audience member %s: %w", party.Name, err)
		}
		recipients = append(recipients, pub)
	}
	return recipients, nil
}

func (c *Coordinator) upload(ctx context.Context, store interfaces.ObjectStore, artifact interfaces.Artifact, recipients []*ecdsa.PublicKey, hashes *HashLedger, log *slog.Logger) (interfaces.ObjectReference, error) {
	ref, err := store.StoreObject(ctx, artifact.Data, recipients)
	if err != nil {
		return interfaces.ObjectReference{}, fmt.Errorf("uploading %s: %w", artifact.Name, err)
	}

	if err := hashes.Confirm(artifact.Name, ref); err != nil {
		return interfaces.ObjectReference{}, err
	}

	log.Info("Stored artifact",
		slog.String("artifact", artifact.Name),
		slog.String("hash", ref.HashString()),
		slog.String("objectLocation", ref.Location))
	return ref, nil
}

// Validate checks everything that can be checked without the network.
func Validate(bundle interfaces.ArtifactBundle, destinations []interfaces.Destination) error {
	if len(destinations) == 0 {
		return fmt.Errorf("%w: no locations configured", interfaces.ErrInvalidConfiguration)
	}

	if strings.TrimSpace(bundle.Code.Name) == "" || strings.TrimSpace(bundle.Schema.Name) == "" {
		return fmt.Errorf("%w: artifact names must not be blank", interfaces.ErrInvalidConfiguration)
	}
	if bundle.Code.Name == bundle.Schema.Name {
		return fmt.Errorf("%w: contract and schema artifacts share the name %s", interfaces.ErrInvalidConfiguration, bundle.Code.Name)
	}
	if len(bundle.Code.Classes) == 0 {
		return fmt.Errorf("%w: %s", interfaces.ErrEmptyContractSet, bundle.Code.Name)
	}

	seen := make(map[string]struct{}, len(destinations))
	for i, dest := range destinations {
		if strings.TrimSpace(dest.Name) == "" {
			return fmt.Errorf("%w: location %d has a blank name", interfaces.ErrInvalidConfiguration, i)
		}
		if _, ok := seen[dest.Name]; ok {
			return fmt.Errorf("%w: duplicate location %s", interfaces.ErrInvalidConfiguration, dest.Name)
		}
		seen[dest.Name] = struct{}{}

		for j, party := range dest.Audience {
			if strings.TrimSpace(party.Name) == "" {
				return fmt.Errorf("%w: audience member %d of %s has a blank name", interfaces.ErrInvalidConfiguration, j, dest.Name)
			}
		}
	}
	return nil
}
