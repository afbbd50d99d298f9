package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
	"github.com/provenance-io/p8e-publisher/interfaces"
)

// FileBackend implements a storage backend using the local file system.
// Blobs are stored under a two-character fan-out directory taken from their CID.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file storage backend rooted at baseDir,
// creating the directory if it doesn't exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty base directory", interfaces.ErrInvalidLocationURI)
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch reads the blob stored under id.
// Returns ErrContentNotFound if the file doesn't exist and ErrCIDMismatch if
// the file was modified after it was written.
func (b *FileBackend) Fetch(ctx context.Context, id cid.Cid) ([]byte, error) {
	filePath := b.getFilePath(id)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if !verifyCID(id, data) {
		return nil, interfaces.ErrCIDMismatch
	}

	b.log.Debug("Fetched content from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store writes data to the file system and returns its CID.
// Storing bytes that are already present is a no-op.
func (b *FileBackend) Store(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := ComputeCID(data)
	if err != nil {
		return cid.Undef, err
	}

	filePath := b.getFilePath(id)
	if _, err := os.Stat(filePath); err == nil {
		return id, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return cid.Undef, fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temp file first so readers never see a partial blob.
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".tmp-*")
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return cid.Undef, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return cid.Undef, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return cid.Undef, fmt.Errorf("failed to move file into place: %w", err)
	}

	b.log.Debug("Stored content in file",
		slog.String("path", filePath),
		slog.String("cid", id.String()))

	return id, nil
}

// Available checks if the file backend is accessible by verifying the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) getFilePath(id cid.Cid) string {
	s := id.String()
	if len(s) < 2 {
		return filepath.Join(b.baseDir, s)
	}
	return filepath.Join(b.baseDir, s[:2], s)
}
