package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/provenance-io/p8e-publisher/interfaces"
)

// MultiStorageBackend writes to every backend and reads from the first one that has the blob.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new multi-storage backend with fallback.
func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch tries each available backend in order.
func (m *MultiStorageBackend) Fetch(ctx context.Context, id cid.Cid) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("cid", id.String()))
			continue
		}

		data, err := backend.Fetch(ctx, id)
		if err == nil {
			m.log.Debug("Fetched content",
				slog.String("backend_name", backend.Name()),
				slog.String("cid", id.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("cid", id.String()),
			"err", err)
	}

	if len(errs) == 0 {
		return nil, interfaces.ErrBackendUnavailable
	}

	return nil, fmt.Errorf("all backends failed to fetch %s: %w", id, errors.Join(errs...))
}

// Store writes data to every backend. All of them must succeed: a mirror
// that silently lacks an artifact would leave its readers unable to resolve
// the published location.
func (m *MultiStorageBackend) Store(ctx context.Context, data []byte) (cid.Cid, error) {
	start := time.Now()

	if len(m.backends) == 0 {
		return cid.Undef, interfaces.ErrBackendUnavailable
	}

	result := cid.Undef
	for _, backend := range m.backends {
		id, err := backend.Store(ctx, data)
		if err != nil {
			m.log.Error("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			return cid.Undef, fmt.Errorf("%s: %w", backend.Name(), err)
		}

		if !result.Defined() {
			result = id
		} else if !result.Equals(id) {
			return cid.Undef, fmt.Errorf("%w: %s returned %s, expected %s", interfaces.ErrCIDMismatch, backend.Name(), id, result)
		}
	}

	m.log.Debug("Stored content",
		slog.String("cid", result.String()),
		slog.Int("backends", len(m.backends)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// Available reports whether every backend is reachable. Store needs all of
// them, so one unreachable mirror makes the whole location unavailable.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	if len(m.backends) == 0 {
		return false
	}
	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			return false
		}
	}
	return true
}

// Name returns the name of this backend.
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI returns the primary backend's URI. The primary is the first
// backend and the one readers resolve locations against.
func (m *MultiStorageBackend) LocationURI() string {
	if len(m.backends) == 0 {
		return ""
	}
	return m.backends[0].LocationURI()
}

// Locations returns the URIs of every backend.
func (m *MultiStorageBackend) Locations() []string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return locations
}

// String renders all backend locations.
func (m *MultiStorageBackend) String() string {
	return "multi:[" + strings.Join(m.Locations(), ",") + "]"
}
