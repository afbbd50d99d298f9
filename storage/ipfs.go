package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	shell "github.com/ipfs/go-ipfs-api"
	"github.com/provenance-io/p8e-publisher/interfaces"
)

// IPFSBackend implements a storage backend on an IPFS node's HTTP API.
// Blobs are written as raw blocks so the node's CID equals ComputeCID.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates a new IPFS storage backend connected to the specified host and port.
func NewIPFSBackend(host, port string, timeout time.Duration, log *slog.Logger) (*IPFSBackend, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: empty IPFS host", interfaces.ErrInvalidLocationURI)
	}

	apiURL := fmt.Sprintf("%s:%s", host, port)
	sh := shell.NewShell(apiURL)
	sh.SetTimeout(timeout)

	return &IPFSBackend{
		shell:       sh,
		host:        host,
		port:        port,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/?timeout=%s", apiURL, timeout),
	}, nil
}

// Fetch retrieves a raw block from IPFS.
// Returns ErrContentNotFound if the block doesn't exist or ErrBackendUnavailable
// if the IPFS node is not accessible.
func (b *IPFSBackend) Fetch(ctx context.Context, id cid.Cid) ([]byte, error) {
	start := time.Now()

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	data, err := b.shell.BlockGet(id.String())
	if err != nil {
		if isIPFSNotFound(err) {
			b.log.Debug("Content not found in IPFS",
				slog.String("cid", id.String()),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}

		b.log.Error("Failed to fetch data from IPFS",
			slog.String("cid", id.String()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}

	if !verifyCID(id, data) {
		return nil, interfaces.ErrCIDMismatch
	}

	b.log.Debug("Fetched content from IPFS",
		slog.String("cid", id.String()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store puts data as a raw sha2-256 block and returns its CID.
// Returns ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Store(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := ComputeCID(data)
	if err != nil {
		return cid.Undef, err
	}

	if !b.shell.IsUp() {
		return cid.Undef, interfaces.ErrBackendUnavailable
	}

	out, err := b.shell.BlockPut(data, "raw", "sha2-256", -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to add block to IPFS: %w", err)
	}

	got, err := cid.Decode(strings.TrimSpace(out))
	if err != nil {
		return cid.Undef, fmt.Errorf("unexpected block put output %q: %w", out, err)
	}
	// Nodes may answer with a CIDv0-compatible form; compare multihashes.
	if got.Hash().String() != id.Hash().String() {
		return cid.Undef, interfaces.ErrCIDMismatch
	}

	b.log.Debug("Stored content in IPFS", slog.String("cid", id.String()))

	return id, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func isIPFSNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no link named")
}
