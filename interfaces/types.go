package interfaces

import (
	"bytes"
	"encoding/base64"
	"time"
)

// PartyConfig is a named audience member allowed to decrypt published artifacts.
type PartyConfig struct {
	Name      string
	PublicKey []byte // SEC1 point, compressed or uncompressed
}

// Destination is a named registry plus the keys and fee policy used to publish to it.
type Destination struct {
	Name string

	// RegistryURL is the object store location artifacts are uploaded to.
	RegistryURL string
	// MirrorURLs are additional object store locations written alongside RegistryURL.
	MirrorURLs []string

	LedgerURL string
	ChainID   string

	PrivateKey []byte // unsigned big-endian scalar
	Audience   []PartyConfig

	FixedGasLimit       uint64
	FeeAdjustment       float64
	QueryTimeoutSeconds int
}

// FeeConfig returns the fee policy for transactions sent to this destination.
func (d Destination) FeeConfig() FeeConfig {
	return FeeConfig{
		FixedGasLimit: d.FixedGasLimit,
		GasAdjustment: d.FeeAdjustment,
	}
}

// QueryTimeout is the deadline applied to ledger queries.
func (d Destination) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutSeconds) * time.Second
}

// ObjectReference points at an uploaded artifact. ContentHash is the sha2-256
// multihash of the plaintext; Location is opaque to callers.
type ObjectReference struct {
	ContentHash []byte `cbor:"hash" json:"hash"`
	Location    string `cbor:"location" json:"location"`
}

// HashString returns the base64 form of the content hash.
func (r ObjectReference) HashString() string {
	return base64.StdEncoding.EncodeToString(r.ContentHash)
}

// SameContent reports whether both references point at identical plaintext.
func (r ObjectReference) SameContent(other ObjectReference) bool {
	return bytes.Equal(r.ContentHash, other.ContentHash)
}

// FactDescriptor names a typed record consumed or produced by a contract function.
type FactDescriptor struct {
	Name string `yaml:"name" cbor:"name" json:"name"`
	Type string `yaml:"type" cbor:"type" json:"type"`
}

// FunctionDescriptor describes one contract function.
type FunctionDescriptor struct {
	Name    string           `yaml:"name" cbor:"name" json:"name"`
	Invoker string           `yaml:"invoker" cbor:"invoker" json:"invoker"`
	Inputs  []FactDescriptor `yaml:"inputs" cbor:"inputs" json:"inputs"`
	Output  FactDescriptor   `yaml:"output" cbor:"output" json:"output"`
}

// ClassDescriptor describes a contract (or schema) class listed in an artifact manifest.
type ClassDescriptor struct {
	Name        string               `yaml:"name" cbor:"name" json:"name"`
	Description string               `yaml:"description" cbor:"description" json:"description"`
	Parties     []string             `yaml:"parties" cbor:"parties" json:"parties"`
	Functions   []FunctionDescriptor `yaml:"functions" cbor:"functions" json:"functions"`
}

// Artifact is one packaged archive and the classes it declares.
type Artifact struct {
	Name    string
	Path    string
	Data    []byte
	Classes []ClassDescriptor
}

// ArtifactBundle holds the two artifacts of a publish run.
type ArtifactBundle struct {
	Code   Artifact
	Schema Artifact
}

// ContractSpecification is the ledger record describing one contract class.
type ContractSpecification struct {
	ID          string               `cbor:"specification_id" json:"specification_id"`
	ClassName   string               `cbor:"class_name" json:"class_name"`
	Description string               `cbor:"description" json:"description"`
	Parties     []string             `cbor:"parties_involved" json:"parties_involved"`
	Functions   []FunctionDescriptor `cbor:"functions" json:"functions"`
	CodeRef     ObjectReference      `cbor:"code_ref" json:"code_ref"`
	SchemaRef   ObjectReference      `cbor:"schema_ref" json:"schema_ref"`
}

// Message is a typed ledger message.
type Message struct {
	TypeURL string `cbor:"type_url"`
	Value   []byte `cbor:"value"`
}

// FeeConfig controls gas estimation for a broadcast.
type FeeConfig struct {
	// FixedGasLimit overrides the estimated gas limit when positive.
	FixedGasLimit uint64
	GasAdjustment float64
}

// Coin is an amount of a ledger denomination.
type Coin struct {
	Denom  string `cbor:"denom" json:"denom"`
	Amount string `cbor:"amount" json:"amount"`
}

// FeeEstimate is the fee estimation service's answer for a transaction.
type FeeEstimate struct {
	EstimatedGas   uint64
	TotalFees      []Coin
	AdditionalFees []Coin
}

// BroadcastResponse is the ledger's answer to a block-mode broadcast.
type BroadcastResponse struct {
	Code    uint32
	RawLog  string
	TxHash  string
	Height  int64
	GasUsed uint64
}

// AccountInfo carries the signer's account number and current sequence.
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// TxResult describes a transaction included in a block.
type TxResult struct {
	TxHash   string `json:"txhash"`
	Height   int64  `json:"height"`
	GasUsed  uint64 `json:"gas_used"`
	Attempts int    `json:"attempts"`
}
