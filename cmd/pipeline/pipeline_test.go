package pipeline

import (
	"archive/zip"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/provenance-io/p8e-publisher/config"
	"github.com/provenance-io/p8e-publisher/hashmarker"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/specs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJar(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

// workspace lays out two archives, a manifest and a config with two local locations.
func workspace(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()

	writeJar(t, filepath.Join(dir, "contracts.jar"), map[string]string{"io/p8e/contracts/Loan.class": "cafebabe"})
	writeJar(t, filepath.Join(dir, "protos.jar"), map[string]string{"io/p8e/proto/Loan.class": "cafebabe"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contracts.yaml"), []byte(`
classes:
  - name: io.p8e.contracts.Loan
    parties: [ORIGINATOR]
  - name: io.p8e.contracts.Servicing
`), 0o600))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	member, err := crypto.GenerateKey()
	require.NoError(t, err)

	doc := fmt.Sprintf(`
contract_artifact: {name: contracts, path: %[1]s/contracts.jar, manifest: %[1]s/contracts.yaml}
schema_artifact: {name: protos, path: %[1]s/protos.jar}
hash_marker:
  contract_dir: %[1]s/generated/contracts
  schema_dir: %[1]s/generated/protos
  contract_package: io.p8e.contracts
  schema_package: io.p8e.proto
locations:
  - name: first
    registry_url: file://%[1]s/store-a
    ledger_url: memory://
    chain_id: chain-a
    private_key: %[2]s
    audience: [{name: member, public_key: %[3]s}]
  - name: second
    registry_url: file://%[1]s/store-b
    mirror_urls: [file://%[1]s/store-c]
    ledger_url: memory://
    chain_id: chain-b
    private_key: %[2]s
`, dir, hex.EncodeToString(crypto.FromECDSA(key)), hex.EncodeToString(crypto.CompressPubkey(&member.PublicKey)))

	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg, dir
}

func TestPublishThroughPipeline(t *testing.T) {
	cfg, dir := workspace(t)
	p := New(cfg, discardLogger())
	t.Cleanup(p.Close)

	bundle, err := cfg.LoadBundle()
	require.NoError(t, err)

	locations, err := p.Locations(nil)
	require.NoError(t, err)

	results, err := p.Coordinator.Publish(context.Background(), bundle, locations)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, dest := range locations {
		ledger, err := p.Ledgers.LedgerFor(dest)
		require.NoError(t, err)
		for _, class := range []string{"io.p8e.contracts.Loan", "io.p8e.contracts.Servicing"} {
			spec, err := ledger.ContractSpecification(context.Background(), specs.SpecificationID(class))
			require.NoError(t, err, "%s on %s", class, dest.Name)
			assert.Equal(t, class, spec["class_name"])
		}
	}

	// The mirror received the same objects as the primary store of "second"
	primary, err := os.ReadDir(filepath.Join(dir, "store-b"))
	require.NoError(t, err)
	mirror, err := os.ReadDir(filepath.Join(dir, "store-c"))
	require.NoError(t, err)
	assert.Equal(t, len(primary), len(mirror))
	assert.NotEmpty(t, primary)

	require.NoError(t, WriteMarkers(cfg, bundle, time.Now(), discardLogger()))
	marker, err := hashmarker.Read(cfg.HashMarker.ContractDir)
	require.NoError(t, err)
	assert.Equal(t, "io.p8e.contracts", marker.Package)
	assert.Equal(t, []string{"io.p8e.contracts.Loan", "io.p8e.contracts.Servicing"}, marker.Classes)
	_, err = hashmarker.Read(cfg.HashMarker.SchemaDir)
	require.NoError(t, err)

	require.NoError(t, CleanMarkers(cfg, discardLogger()))
	_, err = hashmarker.Read(cfg.HashMarker.ContractDir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocations(t *testing.T) {
	cfg, _ := workspace(t)
	p := New(cfg, discardLogger())
	t.Cleanup(p.Close)

	selected, err := p.Locations([]string{"second"})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "second", selected[0].Name)

	_, err = p.Locations([]string{"third"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfiguration)
}

func TestCheck(t *testing.T) {
	cfg, dir := workspace(t)
	require.NoError(t, Check(cfg, discardLogger()))

	broken := *cfg
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jar"), []byte("not a zip"), 0o600))
	broken.SchemaArtifact.Path = filepath.Join(dir, "broken.jar")
	assert.Error(t, Check(&broken, discardLogger()))

	missing := *cfg
	missing.ContractArtifact.Path = filepath.Join(dir, "missing.jar")
	assert.Error(t, Check(&missing, discardLogger()))

	empty := *cfg
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.yaml"), []byte("classes: []\n"), 0o600))
	empty.ContractArtifact.Manifest = filepath.Join(dir, "empty.yaml")
	assert.ErrorIs(t, Check(&empty, discardLogger()), interfaces.ErrEmptyContractSet)

	noManifest := *cfg
	noManifest.ContractArtifact.Manifest = ""
	assert.ErrorIs(t, Check(&noManifest, discardLogger()), interfaces.ErrEmptyContractSet)
}
