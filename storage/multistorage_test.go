package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorageBackend implements interfaces.StorageBackend for testing
type MockStorageBackend struct {
	mock.Mock
	name string
}

func (m *MockStorageBackend) Fetch(ctx context.Context, id cid.Cid) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageBackend) Store(ctx context.Context, data []byte) (cid.Cid, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(cid.Cid), args.Error(1)
}

func (m *MockStorageBackend) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockStorageBackend) Name() string {
	return m.name
}

func (m *MockStorageBackend) LocationURI() string {
	return "file:///" + m.name
}

func newFileBackends(t *testing.T, n int) []interfaces.StorageBackend {
	t.Helper()
	backends := make([]interfaces.StorageBackend, 0, n)
	for i := 0; i < n; i++ {
		backend, err := NewFileBackend(t.TempDir(), discardLogger())
		require.NoError(t, err)
		backends = append(backends, backend)
	}
	return backends
}

func TestMultiStorageBackend_MirrorsEveryWrite(t *testing.T) {
	backends := newFileBackends(t, 3)
	multi := NewMultiStorageBackend(backends, discardLogger())
	ctx := context.Background()

	data := []byte("envelope")
	id, err := multi.Store(ctx, data)
	require.NoError(t, err)

	for _, backend := range backends {
		stored, err := backend.Fetch(ctx, id)
		require.NoError(t, err, backend.Name())
		assert.Equal(t, data, stored)
	}
	assert.True(t, multi.Available(ctx))
}

func TestMultiStorageBackend_Store(t *testing.T) {
	data := []byte("envelope")
	id, err := ComputeCID(data)
	require.NoError(t, err)
	otherID, err := ComputeCID([]byte("other"))
	require.NoError(t, err)
	diskFull := errors.New("disk full")

	tests := []struct {
		name    string
		primary func(m *MockStorageBackend)
		mirror  func(m *MockStorageBackend)
		wantErr error
	}{
		{
			name:    "mirror failure fails the store",
			primary: func(m *MockStorageBackend) { m.On("Store", mock.Anything, data).Return(id, nil) },
			mirror:  func(m *MockStorageBackend) { m.On("Store", mock.Anything, data).Return(cid.Undef, diskFull) },
			wantErr: diskFull,
		},
		{
			name:    "primary failure skips mirrors",
			primary: func(m *MockStorageBackend) { m.On("Store", mock.Anything, data).Return(cid.Undef, diskFull) },
			mirror:  func(m *MockStorageBackend) {},
			wantErr: diskFull,
		},
		{
			name:    "mirrors disagree on the CID",
			primary: func(m *MockStorageBackend) { m.On("Store", mock.Anything, data).Return(id, nil) },
			mirror:  func(m *MockStorageBackend) { m.On("Store", mock.Anything, data).Return(otherID, nil) },
			wantErr: interfaces.ErrCIDMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &MockStorageBackend{name: "primary"}
			mirror := &MockStorageBackend{name: "mirror"}
			tt.primary(primary)
			tt.mirror(mirror)

			got, err := NewMultiStorageBackend([]interfaces.StorageBackend{primary, mirror}, discardLogger()).
				Store(context.Background(), data)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, cid.Undef, got)

			primary.AssertExpectations(t)
			mirror.AssertExpectations(t)
		})
	}
}

func TestMultiStorageBackend_FetchFallsBack(t *testing.T) {
	backends := newFileBackends(t, 2)
	ctx := context.Background()

	data := []byte("only on the mirror")
	id, err := backends[1].Store(ctx, data)
	require.NoError(t, err)

	down := &MockStorageBackend{name: "down"}
	down.On("Available", mock.Anything).Return(false)

	multi := NewMultiStorageBackend([]interfaces.StorageBackend{down, backends[0], backends[1]}, discardLogger())
	fetched, err := multi.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)

	missing, err := ComputeCID([]byte("nowhere"))
	require.NoError(t, err)
	_, err = multi.Fetch(ctx, missing)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	_, err = NewMultiStorageBackend([]interfaces.StorageBackend{down}, nil).Fetch(ctx, id)
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
}

func TestMultiStorageBackend_Available(t *testing.T) {
	tests := []struct {
		name      string
		available []bool
		expected  bool
	}{
		{name: "all up", available: []bool{true, true}, expected: true},
		{name: "mirror down", available: []bool{true, false}, expected: false},
		{name: "primary down", available: []bool{false, true}, expected: false},
		{name: "no backends", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.StorageBackend
			for i, up := range tt.available {
				m := &MockStorageBackend{name: string(rune('a' + i))}
				m.On("Available", mock.Anything).Return(up).Maybe()
				backends = append(backends, m)
			}
			assert.Equal(t, tt.expected, NewMultiStorageBackend(backends, nil).Available(context.Background()))
		})
	}
}

func TestMultiStorageBackend_LocationURIIsPrimary(t *testing.T) {
	multi := NewMultiStorageBackend([]interfaces.StorageBackend{
		&MockStorageBackend{name: "primary"},
		&MockStorageBackend{name: "mirror"},
	}, nil)

	assert.Equal(t, "file:///primary", multi.LocationURI())
	assert.Equal(t, []string{"file:///primary", "file:///mirror"}, multi.Locations())
	assert.Equal(t, "multi:[file:///primary,file:///mirror]", multi.String())
}
