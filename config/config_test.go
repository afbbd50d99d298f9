package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
contract_artifact:
  name: contracts
  path: contracts.jar
  manifest: contracts.yaml
schema_artifact:
  name: protos
  path: protos.jar
hash_marker:
  contract_dir: out/contracts
  contract_package: io.p8e.contracts
locations:
  - name: local
    registry_url: file:///tmp/p8e
    mirror_urls: [ipfs://localhost:5001]
    ledger_url: memory://
    chain_id: local-1
    private_key: 0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20
    audience:
      - name: validator
        public_key: 02a1633cafcc01ebfb6d78e39f687a1f0995c62fc95f51ead10a02ee0be551b5dc
  - name: testnet
    registry_url: s3://bucket/p8e?region=us-east-1
    ledger_url: grpcs://grpc.test.provenance.io:443
    chain_id: pio-testnet-1
    private_key: 0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20
    fixed_gas_limit: 400000
    tx_fee_adjustment: 1.5
    query_timeout_seconds: 5
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validConfig))
	require.NoError(t, err)

	assert.Equal(t, ArtifactSource{Name: "contracts", Path: "contracts.jar", Manifest: "contracts.yaml"}, cfg.ContractArtifact)
	assert.Equal(t, "protos", cfg.SchemaArtifact.Name)
	assert.True(t, cfg.HashMarker.Enabled())
	assert.Equal(t, "io.p8e.contracts", cfg.HashMarker.ContractPackage)

	locations := cfg.Locations()
	require.Len(t, locations, 2)

	local := locations[0]
	assert.Equal(t, "local", local.Name)
	assert.Equal(t, []string{"ipfs://localhost:5001"}, local.MirrorURLs)
	assert.Len(t, local.PrivateKey, 32)
	assert.Equal(t, DefaultFeeAdjustment, local.FeeAdjustment)
	assert.Equal(t, DefaultQueryTimeoutSeconds, local.QueryTimeoutSeconds)
	assert.Equal(t, uint64(0), local.FixedGasLimit)
	require.Len(t, local.Audience, 1)
	assert.Equal(t, "validator", local.Audience[0].Name)
	assert.Len(t, local.Audience[0].PublicKey, 33)

	testnet, ok := cfg.Location("testnet")
	require.True(t, ok)
	// Keys decode the same with or without the prefix
	assert.Equal(t, local.PrivateKey, testnet.PrivateKey)
	assert.Equal(t, uint64(400000), testnet.FixedGasLimit)
	assert.Equal(t, 1.5, testnet.FeeAdjustment)
	assert.Equal(t, 5, testnet.QueryTimeoutSeconds)

	_, ok = cfg.Location("mainnet")
	assert.False(t, ok)

	// Callers cannot mutate the loaded configuration
	locations[0].Name = "changed"
	assert.Equal(t, "local", cfg.Locations()[0].Name)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("P8E_TEST_KEY", "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")

	cfg, err := Parse([]byte(`
contract_artifact: {name: contracts, path: c.jar}
schema_artifact: {name: protos, path: p.jar}
locations:
  - name: local
    registry_url: file:///tmp/p8e
    ledger_url: memory://
    chain_id: local-1
    private_key: ${P8E_TEST_KEY}
`))
	require.NoError(t, err)
	assert.Len(t, cfg.Locations()[0].PrivateKey, 32)
}

func TestParse_Invalid(t *testing.T) {
	artifacts := "contract_artifact: {name: contracts, path: c.jar}\nschema_artifact: {name: protos, path: p.jar}\n"
	location := func(body string) string {
		return artifacts + "locations:\n  - " + body + "\n"
	}
	base := "registry_url: file:///tmp, ledger_url: memory://, chain_id: c, private_key: '01'"

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", artifacts + "bogus: 1\nlocations: [{name: a, " + base + "}]"},
		{"no locations", artifacts},
		{"blank location name", location("{name: ' ', " + base + "}")},
		{"duplicate location", artifacts + "locations: [{name: a, " + base + "}, {name: a, " + base + "}]"},
		{"missing registry url", location("{name: a, ledger_url: memory://, chain_id: c, private_key: '01'}")},
		{"missing ledger url", location("{name: a, registry_url: file:///tmp, chain_id: c, private_key: '01'}")},
		{"missing chain id", location("{name: a, registry_url: file:///tmp, ledger_url: memory://, private_key: '01'}")},
		{"missing private key", location("{name: a, registry_url: file:///tmp, ledger_url: memory://, chain_id: c}")},
		{"bad private key hex", location("{name: a, registry_url: file:///tmp, ledger_url: memory://, chain_id: c, private_key: zz}")},
		{"blank audience name", location("{name: a, " + base + ", audience: [{name: '', public_key: '02'}]}")},
		{"missing audience key", location("{name: a, " + base + ", audience: [{name: v}]}")},
		{"negative fee adjustment", location("{name: a, " + base + ", tx_fee_adjustment: -1}")},
		{"zero query timeout", location("{name: a, " + base + ", query_timeout_seconds: 0}")},
		{"missing contract artifact", "schema_artifact: {name: protos, path: p.jar}\nlocations: [{name: a, " + base + "}]"},
		{"shared artifact names", "contract_artifact: {name: x, path: c.jar}\nschema_artifact: {name: x, path: p.jar}\nlocations: [{name: a, " + base + "}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, interfaces.ErrInvalidConfiguration)
		})
	}
}

func TestDecodeHex(t *testing.T) {
	for _, in := range []string{"0xabcd", "0XABCD", "abcd", " abcd "} {
		b, err := DecodeHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, []byte{0xab, 0xcd}, b)
	}

	_, err := DecodeHex("abc")
	assert.Error(t, err)
}

func TestLoadBundle(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	cfg := &Config{
		ContractArtifact: ArtifactSource{
			Name:     "contracts",
			Path:     write("contracts.jar", "code"),
			Manifest: write("contracts.yaml", "classes:\n  - name: io.p8e.contracts.Loan\n"),
		},
		SchemaArtifact: ArtifactSource{Name: "protos", Path: write("protos.jar", "schema")},
	}

	bundle, err := cfg.LoadBundle()
	require.NoError(t, err)
	assert.Equal(t, []byte("code"), bundle.Code.Data)
	require.Len(t, bundle.Code.Classes, 1)
	assert.Equal(t, "io.p8e.contracts.Loan", bundle.Code.Classes[0].Name)
	assert.Equal(t, []byte("schema"), bundle.Schema.Data)
	assert.Empty(t, bundle.Schema.Classes)

	cfg.SchemaArtifact.Path = filepath.Join(dir, "missing.jar")
	_, err = cfg.LoadBundle()
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfiguration)
}
