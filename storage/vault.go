package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ipfs/go-cid"
	"github.com/provenance-io/p8e-publisher/interfaces"
)

const vaultContentKey = "content"

// VaultBackend keeps envelopes in a HashiCorp Vault KV v2 mount, one secret
// per CID under an optional path. Secret data is {"content": base64(envelope)}.
type VaultBackend struct {
	client      *api.Client
	kv          *api.KVv2
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a Vault backend for address and the KV v2 mount at
// mountPath. An empty token leaves the client's VAULT_TOKEN default in place.
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")
	if mountPath == "" {
		return nil, fmt.Errorf("%w: empty Vault mount path", interfaces.ErrInvalidLocationURI)
	}

	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	host := strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://")
	return &VaultBackend{
		client:      client,
		kv:          client.KVv2(mountPath),
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: "vault://" + path.Join(host, mountPath, dataPath),
	}, nil
}

// Fetch reads the secret for id and checks the decoded blob against it.
func (b *VaultBackend) Fetch(ctx context.Context, id cid.Cid) ([]byte, error) {
	secret, err := b.kv.Get(ctx, b.secretPath(id))
	if errors.Is(err, api.ErrSecretNotFound) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("mount", b.mountPath),
			slog.String("cid", id.String()),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	content, ok := secret.Data[vaultContentKey].(string)
	if !ok {
		return nil, fmt.Errorf("vault secret for %s has no %q field", id, vaultContentKey)
	}
	blob, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("invalid content encoding in Vault secret: %w", err)
	}
	if !verifyCID(id, blob) {
		return nil, interfaces.ErrCIDMismatch
	}

	b.log.Debug("Fetched content from Vault", slog.String("cid", id.String()))
	return blob, nil
}

// Store writes data as a new secret version keyed by its CID.
func (b *VaultBackend) Store(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := ComputeCID(data)
	if err != nil {
		return cid.Undef, err
	}

	_, err = b.kv.Put(ctx, b.secretPath(id), map[string]interface{}{
		vaultContentKey: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("mount", b.mountPath),
			slog.String("cid", id.String()),
			"err", err)
		return cid.Undef, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored content in Vault", slog.String("cid", id.String()))
	return id, nil
}

// Available checks that Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this storage backend. The token is never included.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

// secretPath is relative to the mount; the KV v2 helper inserts "data/".
func (b *VaultBackend) secretPath(id cid.Cid) string {
	if b.dataPath == "" {
		return id.String()
	}
	return b.dataPath + "/" + id.String()
}
