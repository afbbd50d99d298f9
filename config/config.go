package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/specs"
	"gopkg.in/yaml.v3"
)

// Defaults applied to locations that leave the field unset.
const (
	DefaultFeeAdjustment       = 1.25
	DefaultQueryTimeoutSeconds = 20
)

// ArtifactSource locates one packaged archive and its class manifest.
type ArtifactSource struct {
	Name     string
	Path     string
	Manifest string
}

// HashMarker configures where marker files are written after a publish.
type HashMarker struct {
	ContractDir     string
	SchemaDir       string
	ContractPackage string
	SchemaPackage   string
}

// Enabled reports whether any marker directory is configured.
func (h HashMarker) Enabled() bool {
	return h.ContractDir != "" || h.SchemaDir != ""
}

// Config is the validated publisher configuration. It is not modified after Load.
type Config struct {
	ContractArtifact ArtifactSource
	SchemaArtifact   ArtifactSource
	HashMarker       HashMarker

	locations []interfaces.Destination
}

type rawParty struct {
	Name      string `yaml:"name"`
	PublicKey string `yaml:"public_key"`
}

type rawLocation struct {
	Name                string     `yaml:"name"`
	RegistryURL         string     `yaml:"registry_url"`
	MirrorURLs          []string   `yaml:"mirror_urls"`
	LedgerURL           string     `yaml:"ledger_url"`
	ChainID             string     `yaml:"chain_id"`
	PrivateKey          string     `yaml:"private_key"`
	Audience            []rawParty `yaml:"audience"`
	FixedGasLimit       uint64     `yaml:"fixed_gas_limit"`
	TxFeeAdjustment     *float64   `yaml:"tx_fee_adjustment"`
	QueryTimeoutSeconds *int       `yaml:"query_timeout_seconds"`
}

type rawArtifact struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Manifest string `yaml:"manifest"`
}

type rawHashMarker struct {
	ContractDir     string `yaml:"contract_dir"`
	SchemaDir       string `yaml:"schema_dir"`
	ContractPackage string `yaml:"contract_package"`
	SchemaPackage   string `yaml:"schema_package"`
}

type rawConfig struct {
	ContractArtifact rawArtifact   `yaml:"contract_artifact"`
	SchemaArtifact   rawArtifact   `yaml:"schema_artifact"`
	HashMarker       rawHashMarker `yaml:"hash_marker"`
	Locations        []rawLocation `yaml:"locations"`
}

// Load reads and validates a YAML configuration file. Environment variables
// referenced as ${NAME} are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", interfaces.ErrInvalidConfiguration, path, err)
	}
	return Parse(data)
}

// Parse validates a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrInvalidConfiguration, err)
	}

	cfg := &Config{
		ContractArtifact: ArtifactSource(raw.ContractArtifact),
		SchemaArtifact:   ArtifactSource(raw.SchemaArtifact),
		HashMarker:       HashMarker(raw.HashMarker),
	}

	if err := validateArtifact("contract_artifact", cfg.ContractArtifact); err != nil {
		return nil, err
	}
	if err := validateArtifact("schema_artifact", cfg.SchemaArtifact); err != nil {
		return nil, err
	}
	if cfg.ContractArtifact.Name == cfg.SchemaArtifact.Name {
		return nil, invalid("contract_artifact and schema_artifact share the name %q", cfg.ContractArtifact.Name)
	}

	if len(raw.Locations) == 0 {
		return nil, invalid("no locations configured")
	}

	seen := make(map[string]struct{}, len(raw.Locations))
	for i, loc := range raw.Locations {
		dest, err := parseLocation(i, loc)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[dest.Name]; ok {
			return nil, invalid("duplicate location %q", dest.Name)
		}
		seen[dest.Name] = struct{}{}
		cfg.locations = append(cfg.locations, dest)
	}

	return cfg, nil
}

func parseLocation(i int, loc rawLocation) (interfaces.Destination, error) {
	name := strings.TrimSpace(loc.Name)
	if name == "" {
		return interfaces.Destination{}, invalid("location %d: name must not be blank", i)
	}

	switch {
	case loc.RegistryURL == "":
		return interfaces.Destination{}, invalid("location %s: registry_url is required", name)
	case loc.LedgerURL == "":
		return interfaces.Destination{}, invalid("location %s: ledger_url is required", name)
	case loc.ChainID == "":
		return interfaces.Destination{}, invalid("location %s: chain_id is required", name)
	case loc.PrivateKey == "":
		return interfaces.Destination{}, invalid("location %s: private_key is required", name)
	}

	privateKey, err := DecodeHex(loc.PrivateKey)
	if err != nil {
		return interfaces.Destination{}, invalid("location %s: private_key: %v", name, err)
	}

	dest := interfaces.Destination{
		Name:                name,
		RegistryURL:         loc.RegistryURL,
		MirrorURLs:          append([]string(nil), loc.MirrorURLs...),
		LedgerURL:           loc.LedgerURL,
		ChainID:             loc.ChainID,
		PrivateKey:          privateKey,
		FixedGasLimit:       loc.FixedGasLimit,
		FeeAdjustment:       DefaultFeeAdjustment,
		QueryTimeoutSeconds: DefaultQueryTimeoutSeconds,
	}

	if loc.TxFeeAdjustment != nil {
		if *loc.TxFeeAdjustment <= 0 {
			return interfaces.Destination{}, invalid("location %s: tx_fee_adjustment must be positive", name)
		}
		dest.FeeAdjustment = *loc.TxFeeAdjustment
	}
	if loc.QueryTimeoutSeconds != nil {
		if *loc.QueryTimeoutSeconds <= 0 {
			return interfaces.Destination{}, invalid("location %s: query_timeout_seconds must be positive", name)
		}
		dest.QueryTimeoutSeconds = *loc.QueryTimeoutSeconds
	}

	for j, party := range loc.Audience {
		partyName := strings.TrimSpace(party.Name)
		if partyName == "" {
			return interfaces.Destination{}, invalid("location %s: audience member %d: name must not be blank", name, j)
		}
		if party.PublicKey == "" {
			return interfaces.Destination{}, invalid("location %s: audience member %s: public_key is required", name, partyName)
		}
		pub, err := DecodeHex(party.PublicKey)
		if err != nil {
			return interfaces.Destination{}, invalid("location %s: audience member %s: %v", name, partyName, err)
		}
		dest.Audience = append(dest.Audience, interfaces.PartyConfig{Name: partyName, PublicKey: pub})
	}

	return dest, nil
}

func validateArtifact(field string, a ArtifactSource) error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return invalid("%s: name must not be blank", field)
	case a.Path == "":
		return invalid("%s: path is required", field)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", interfaces.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// DecodeHex decodes a hex string with or without a 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

// Locations returns a copy of the configured locations in file order.
func (c *Config) Locations() []interfaces.Destination {
	out := make([]interfaces.Destination, len(c.locations))
	copy(out, c.locations)
	return out
}

// Location returns the location called name.
func (c *Config) Location(name string) (interfaces.Destination, bool) {
	for _, loc := range c.locations {
		if loc.Name == name {
			return loc, true
		}
	}
	return interfaces.Destination{}, false
}

// LoadBundle reads both archives and their manifests from disk. A source
// without a manifest declares no classes.
func (c *Config) LoadBundle() (interfaces.ArtifactBundle, error) {
	code, err := loadArtifact(c.ContractArtifact)
	if err != nil {
		return interfaces.ArtifactBundle{}, err
	}
	schema, err := loadArtifact(c.SchemaArtifact)
	if err != nil {
		return interfaces.ArtifactBundle{}, err
	}
	return interfaces.ArtifactBundle{Code: code, Schema: schema}, nil
}

func loadArtifact(src ArtifactSource) (interfaces.Artifact, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return interfaces.Artifact{}, fmt.Errorf("reading artifact %s: %w", src.Name, err)
	}

	artifact := interfaces.Artifact{Name: src.Name, Path: src.Path, Data: data}
	if src.Manifest != "" {
		classes, err := specs.LoadManifest(src.Manifest)
		if err != nil {
			return interfaces.Artifact{}, fmt.Errorf("manifest of %s: %w", src.Name, err)
		}
		artifact.Classes = classes
	}
	return artifact, nil
}
