package objectstore

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/provenance-io/p8e-publisher/cryptoutils"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/metrics"
)

// Client seals artifacts for an audience and uploads them to one storage backend.
type Client struct {
	backend interfaces.StorageBackend
	curve   cryptoutils.CurveBackend
	log     *slog.Logger
}

// NewClient creates a client writing to backend.
func NewClient(backend interfaces.StorageBackend, curve cryptoutils.CurveBackend, log *slog.Logger) *Client {
	return &Client{
		backend: backend,
		curve:   curve,
		log:     log,
	}
}

// ContentHash returns the sha2-256 multihash of data.
func ContentHash(data []byte) ([]byte, error) {
	return multihash.Sum(data, multihash.SHA2_256, -1)
}

// StoreObject seals data for recipients and uploads the envelope.
// The returned ContentHash depends only on data. Failures are not retried and
// wrap interfaces.ErrObjectStoreFailure.
func (c *Client) StoreObject(ctx context.Context, data []byte, recipients []*ecdsa.PublicKey) (interfaces.ObjectReference, error) {
	hash, err := ContentHash(data)
	if err != nil {
		return interfaces.ObjectReference{}, fmt.Errorf("%w: hashing object: %v", interfaces.ErrObjectStoreFailure, err)
	}

	sealed, err := cryptoutils.Seal(c.curve, data, hash, recipients)
	if err != nil {
		return interfaces.ObjectReference{}, fmt.Errorf("%w: sealing object: %w", interfaces.ErrObjectStoreFailure, err)
	}

	id, err := c.backend.Store(ctx, sealed)
	metrics.RecordObjectStored(c.backend.Name(), err)
	if err != nil {
		c.log.Error("Failed to store object",
			slog.String("backend", c.backend.Name()),
			"err", err)
		return interfaces.ObjectReference{}, fmt.Errorf("%w: %w", interfaces.ErrObjectStoreFailure, err)
	}

	ref := interfaces.ObjectReference{
		ContentHash: hash,
		Location:    FormatLocation(c.backend.LocationURI(), id),
	}

	c.log.Info("Stored object",
		slog.String("hash", ref.HashString()),
		slog.String("location", ref.Location),
		slog.Int("recipients", len(recipients)),
		slog.Int("size", len(data)))

	return ref, nil
}

// LoadObject fetches and decrypts an object stored by StoreObject. The caller
// must hold the private key of one of the audience members.
func (c *Client) LoadObject(ctx context.Context, ref interfaces.ObjectReference, priv *ecdsa.PrivateKey) ([]byte, error) {
	_, id, err := ParseLocation(ref.Location)
	if err != nil {
		return nil, err
	}

	sealed, err := c.backend.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", id, err)
	}

	plaintext, sealedHash, err := cryptoutils.Open(c.curve, sealed, priv)
	if err != nil {
		return nil, err
	}

	hash, err := ContentHash(plaintext)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(hash, ref.ContentHash) || !bytes.Equal(sealedHash, ref.ContentHash) {
		return nil, fmt.Errorf("%w: object %s does not match its reference hash", interfaces.ErrCIDMismatch, id)
	}

	return plaintext, nil
}

// FormatLocation joins a backend location and a CID.
func FormatLocation(backendURI string, id cid.Cid) string {
	return backendURI + "#" + id.String()
}

// ParseLocation splits a location produced by FormatLocation.
func ParseLocation(location string) (string, cid.Cid, error) {
	i := strings.LastIndex(location, "#")
	if i < 0 {
		return "", cid.Undef, fmt.Errorf("%w: location %q has no object id", interfaces.ErrInvalidLocationURI, location)
	}
	id, err := cid.Decode(location[i+1:])
	if err != nil {
		return "", cid.Undef, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}
	return location[:i], id, nil
}
