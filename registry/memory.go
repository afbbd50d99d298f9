package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/provenance-io/p8e-publisher/cryptoutils"
	"github.com/provenance-io/p8e-publisher/interfaces"
)

// Ledger response codes produced by InMemoryLedger.
const (
	CodeTxDecode         uint32 = 2
	CodeUnauthorized     uint32 = 4
	CodeUnknownRequest   uint32 = 6
	CodeOutOfGas         uint32 = 11
	CodeWrongSequence    uint32 = 32
	defaultBaseGas              = 60000
	defaultGasPerMessage        = 25000
)

// InMemoryLedger is an in-process ledger for tests and local development.
// It checks sequences, signatures and gas limits the way the real ledger
// does and stores registered contract specifications in memory.
type InMemoryLedger struct {
	mutex             sync.Mutex
	chainID           string
	curve             cryptoutils.CurveBackend
	accounts          map[string]*interfaces.AccountInfo
	nextAccountNumber uint64
	contractSpecs     map[string]map[string]any
	scopeSpecs        map[string]map[string]any
	height            int64
	pendingConflicts  int
	broadcasts        int

	Denom    string
	GasPrice uint64
}

// NewInMemoryLedger creates an empty ledger for chainID.
func NewInMemoryLedger(chainID string) *InMemoryLedger {
	return &InMemoryLedger{
		chainID:       chainID,
		curve:         cryptoutils.Secp256k1Backend{},
		accounts:      make(map[string]*interfaces.AccountInfo),
		contractSpecs: make(map[string]map[string]any),
		scopeSpecs:    make(map[string]map[string]any),
		Denom:         "nhash",
		GasPrice:      1905,
	}
}

// InjectConflicts makes the next n broadcasts race a transaction from the
// same signer, so each of them sees a stale sequence.
func (l *InMemoryLedger) InjectConflicts(n int) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.pendingConflicts = n
}

// SetScopeSpecification stores a scope specification for queries.
func (l *InMemoryLedger) SetScopeSpecification(id string, spec map[string]any) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.scopeSpecs[id] = spec
}

// Broadcasts returns how many transactions were submitted, accepted or not.
func (l *InMemoryLedger) Broadcasts() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.broadcasts
}

// ContractSpecificationCount returns the number of registered contract specifications.
func (l *InMemoryLedger) ContractSpecificationCount() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.contractSpecs)
}

func (l *InMemoryLedger) account(address string) *interfaces.AccountInfo {
	acct, ok := l.accounts[address]
	if !ok {
		l.nextAccountNumber++
		acct = &interfaces.AccountInfo{Address: address, AccountNumber: l.nextAccountNumber}
		l.accounts[address] = acct
	}
	return acct
}

func gasFor(body *TxBody) uint64 {
	return defaultBaseGas + defaultGasPerMessage*uint64(len(body.Messages))
}

// CalculateTxFees estimates gas from the message count.
func (l *InMemoryLedger) CalculateTxFees(ctx context.Context, txBytes []byte, gasAdjustment float64) (*interfaces.FeeEstimate, error) {
	_, body, _, err := DecodeTx(txBytes)
	if err != nil {
		return nil, err
	}
	if gasAdjustment <= 0 {
		gasAdjustment = 1
	}

	gas := uint64(float64(gasFor(body)) * gasAdjustment)
	return &interfaces.FeeEstimate{
		EstimatedGas: gas,
		TotalFees:    []interfaces.Coin{{Denom: l.Denom, Amount: strconv.FormatUint(gas*l.GasPrice, 10)}},
	}, nil
}

// BroadcastTx validates and applies a transaction.
func (l *InMemoryLedger) BroadcastTx(ctx context.Context, txBytes []byte) (*interfaces.BroadcastResponse, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.broadcasts++
	txHash := strings.ToUpper(hex.EncodeToString(sha256Sum(txBytes)))
	reject := func(code uint32, format string, args ...interface{}) (*interfaces.BroadcastResponse, error) {
		return &interfaces.BroadcastResponse{Code: code, RawLog: fmt.Sprintf(format, args...), TxHash: txHash}, nil
	}

	raw, body, authInfo, err := DecodeTx(txBytes)
	if err != nil {
		return reject(CodeTxDecode, "%v: tx parse error", err)
	}
	if len(authInfo.SignerInfos) != 1 || len(raw.Signatures) != 1 {
		return reject(CodeUnauthorized, "wrong number of signers; expected 1: unauthorized")
	}

	signerInfo := authInfo.SignerInfos[0]
	pub, err := l.curve.DecodePoint(signerInfo.PublicKey)
	if err != nil {
		return reject(CodeUnauthorized, "invalid signer public key: %v", err)
	}
	address := cryptoutils.AddressFromPublicKey(l.curve.EncodePoint(pub))
	acct := l.account(address)

	if l.pendingConflicts > 0 {
		l.pendingConflicts--
		acct.Sequence++
	}

	if signerInfo.Sequence != acct.Sequence {
		return reject(CodeWrongSequence, "account sequence mismatch, expected %d, got %d: incorrect account sequence", acct.Sequence, signerInfo.Sequence)
	}

	digest, err := SignDoc{
		BodyBytes:     raw.BodyBytes,
		AuthInfoBytes: raw.AuthInfoBytes,
		ChainID:       l.chainID,
		AccountNumber: acct.AccountNumber,
	}.Digest()
	if err != nil {
		return nil, err
	}
	if !l.curve.Verify(pub, digest, raw.Signatures[0]) {
		return reject(CodeUnauthorized, "signature verification failed; please verify account number (%d) and chain-id (%s): unauthorized", acct.AccountNumber, l.chainID)
	}

	required := gasFor(body)
	if authInfo.Fee.GasLimit < required {
		return reject(CodeOutOfGas, "out of gas; gasWanted: %d, gasUsed: %d: out of gas", authInfo.Fee.GasLimit, required)
	}

	specs := make(map[string]map[string]any, len(body.Messages))
	for _, msg := range body.Messages {
		if msg.TypeURL != MsgWriteContractSpecificationTypeURL {
			return reject(CodeUnknownRequest, "unable to resolve type URL %s: tx parse error", msg.TypeURL)
		}
		decoded, err := DecodeContractSpecificationMessage(msg)
		if err != nil {
			return reject(CodeTxDecode, "%v: tx parse error", err)
		}
		if !contains(decoded.Signers, address) {
			return reject(CodeUnauthorized, "missing signature from %s: unauthorized", decoded.Signers)
		}
		asMap, err := toMap(decoded.Specification)
		if err != nil {
			return nil, err
		}
		specs[decoded.Specification.ID] = asMap
	}

	for id, spec := range specs {
		l.contractSpecs[id] = spec
	}
	acct.Sequence++
	l.height++

	return &interfaces.BroadcastResponse{
		Code:    0,
		TxHash:  txHash,
		Height:  l.height,
		GasUsed: required,
	}, nil
}

// Account returns the account for address, opening it on first use.
func (l *InMemoryLedger) Account(ctx context.Context, address string) (*interfaces.AccountInfo, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	acct := *l.account(address)
	return &acct, nil
}

// ScopeSpecification returns a scope specification set with SetScopeSpecification.
func (l *InMemoryLedger) ScopeSpecification(ctx context.Context, id string) (map[string]any, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	spec, ok := l.scopeSpecs[id]
	if !ok {
		return nil, fmt.Errorf("%w: scope specification %s", interfaces.ErrSpecificationNotFound, id)
	}
	return spec, nil
}

// ContractSpecification returns a registered contract specification.
func (l *InMemoryLedger) ContractSpecification(ctx context.Context, id string) (map[string]any, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	spec, ok := l.contractSpecs[id]
	if !ok {
		return nil, fmt.Errorf("%w: contract specification %s", interfaces.ErrSpecificationNotFound, id)
	}
	return spec, nil
}

// Close is a no-op.
func (l *InMemoryLedger) Close() error {
	return nil
}

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toMap(v interface{}) (map[string]any, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}
