package hashmarker

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadClean(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated", "contracts")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))

	artifact := interfaces.Artifact{
		Name:    "contracts",
		Data:    []byte("contract archive"),
		Classes: []interfaces.ClassDescriptor{{Name: "io.p8e.contracts.A"}, {Name: "io.p8e.contracts.B"}},
	}

	marker, err := ForArtifact("io.p8e.contracts", artifact, now)
	require.NoError(t, err)

	expected, err := objectstore.ContentHash(artifact.Data)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(expected), marker.Hash)
	assert.Equal(t, []string{"io.p8e.contracts.A", "io.p8e.contracts.B"}, marker.Classes)
	assert.Equal(t, time.UTC, marker.Timestamp.Location())
	assert.NotEmpty(t, marker.UUID)

	path, err := Write(dir, marker)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	loaded, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, marker.Hash, loaded.Hash)
	assert.Equal(t, marker.UUID, loaded.UUID)
	assert.True(t, marker.Timestamp.Equal(loaded.Timestamp))

	// Rewriting replaces the previous marker and leaves no temp files
	second, err := ForArtifact("io.p8e.contracts", artifact, now)
	require.NoError(t, err)
	_, err = Write(dir, second)
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, Clean(dir))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Cleaning twice is fine
	assert.NoError(t, Clean(dir))
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
