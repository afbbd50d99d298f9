package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/provenance-io/p8e-publisher/cryptoutils"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testChainID = "pio-testnet-1"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSigner(t *testing.T) *cryptoutils.Keypair {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	kp, err := cryptoutils.NewKeyCodec(cryptoutils.Secp256k1Backend{}).DerivePrivate(crypto.FromECDSA(key))
	require.NoError(t, err)
	return kp
}

func testMessages(t *testing.T, signer *cryptoutils.Keypair) []interfaces.Message {
	t.Helper()
	msgs, err := ContractSpecificationMessages([]interfaces.ContractSpecification{{
		ID:        "3f8b2c1e-0000-5000-8000-000000000001",
		ClassName: "io.p8e.contracts.Example",
	}}, signer.Address())
	require.NoError(t, err)
	return msgs
}

func conflict(n int) *interfaces.BroadcastResponse {
	return &interfaces.BroadcastResponse{
		Code:   32,
		RawLog: fmt.Sprintf("account sequence mismatch, expected %d, got %d: incorrect account sequence", n+1, n),
	}
}

func setupLedger(signer *cryptoutils.Keypair, responses ...*interfaces.BroadcastResponse) *MockLedger {
	ledger := &MockLedger{}
	ledger.On("Account", mock.Anything, signer.Address()).
		Return(&interfaces.AccountInfo{Address: signer.Address(), AccountNumber: 7, Sequence: 3}, nil)
	ledger.On("CalculateTxFees", mock.Anything, mock.Anything, 1.25).
		Return(&interfaces.FeeEstimate{
			EstimatedGas: 150000,
			TotalFees:    []interfaces.Coin{{Denom: "nhash", Amount: "285750000"}},
		}, nil)
	for _, resp := range responses {
		ledger.On("BroadcastTx", mock.Anything, mock.Anything).Return(resp, nil).Once()
	}
	return ledger
}

func TestBroadcast_RetryOutcomes(t *testing.T) {
	tests := []struct {
		name         string
		responses    []*interfaces.BroadcastResponse
		wantAttempts int
		wantHash     string
		wantCode     uint32
	}{
		{
			name:         "success on first attempt",
			responses:    []*interfaces.BroadcastResponse{{Code: 0, TxHash: "HASH1", Height: 10}},
			wantAttempts: 1,
			wantHash:     "HASH1",
		},
		{
			name: "conflicts on attempts one to four then success",
			responses: []*interfaces.BroadcastResponse{
				conflict(1), conflict(2), conflict(3), conflict(4),
				{Code: 0, TxHash: "HASH5", Height: 14},
			},
			wantAttempts: 5,
			wantHash:     "HASH5",
		},
		{
			name:         "conflict on every attempt",
			responses:    []*interfaces.BroadcastResponse{conflict(1), conflict(2), conflict(3), conflict(4), conflict(5)},
			wantAttempts: 5,
			wantCode:     32,
		},
		{
			name:         "other rejection is not retried",
			responses:    []*interfaces.BroadcastResponse{{Code: 13, RawLog: "insufficient fee: insufficient fee"}},
			wantAttempts: 1,
			wantCode:     13,
		},
		{
			name: "conflict then other rejection",
			responses: []*interfaces.BroadcastResponse{
				conflict(1),
				{Code: 4, RawLog: "signature verification failed: unauthorized"},
			},
			wantAttempts: 2,
			wantCode:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := newSigner(t)
			ledger := setupLedger(signer, tt.responses...)
			b := NewBroadcaster(ledger, testChainID, testLogger())

			result, err := b.Broadcast(context.Background(), signer, testMessages(t, signer), interfaces.FeeConfig{GasAdjustment: 1.25})

			ledger.AssertNumberOfCalls(t, "BroadcastTx", tt.wantAttempts)
			// Fees are re-estimated on every attempt
			ledger.AssertNumberOfCalls(t, "CalculateTxFees", tt.wantAttempts)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.ErrorIs(t, err, interfaces.ErrBroadcastRejected)

				var rejected *interfaces.BroadcastRejectedError
				require.True(t, errors.As(err, &rejected))
				assert.Equal(t, tt.wantCode, rejected.Code)
				assert.Equal(t, tt.responses[len(tt.responses)-1].RawLog, rejected.RawLog)
				assert.Equal(t, tt.wantAttempts, rejected.Attempts)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantHash, result.TxHash)
			assert.Equal(t, tt.wantAttempts, result.Attempts)
		})
	}
}

func TestBroadcast_TransportErrorNotRetried(t *testing.T) {
	signer := newSigner(t)
	ledger := setupLedger(signer)
	ledger.On("BroadcastTx", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	b := NewBroadcaster(ledger, testChainID, testLogger())
	_, err := b.Broadcast(context.Background(), signer, testMessages(t, signer), interfaces.FeeConfig{GasAdjustment: 1.25})

	require.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrBroadcastRejected)
	ledger.AssertNumberOfCalls(t, "BroadcastTx", 1)
}

func TestBroadcast_NoMessages(t *testing.T) {
	b := NewBroadcaster(&MockLedger{}, testChainID, testLogger())
	_, err := b.Broadcast(context.Background(), newSigner(t), nil, interfaces.FeeConfig{})
	assert.Error(t, err)
}

func TestBroadcast_GasLimitAndSignature(t *testing.T) {
	tests := []struct {
		name          string
		fixedGasLimit uint64
		wantGasLimit  uint64
	}{
		{name: "estimated gas", fixedGasLimit: 0, wantGasLimit: 150000},
		{name: "fixed gas limit overrides estimate", fixedGasLimit: 400000, wantGasLimit: 400000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := newSigner(t)
			ledger := setupLedger(signer)

			var sent []byte
			ledger.On("BroadcastTx", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { sent = args.Get(1).([]byte) }).
				Return(&interfaces.BroadcastResponse{Code: 0, TxHash: "HASH"}, nil).Once()

			b := NewBroadcaster(ledger, testChainID, testLogger())
			_, err := b.Broadcast(context.Background(), signer, testMessages(t, signer), interfaces.FeeConfig{
				FixedGasLimit: tt.fixedGasLimit,
				GasAdjustment: 1.25,
			})
			require.NoError(t, err)

			raw, body, authInfo, err := DecodeTx(sent)
			require.NoError(t, err)
			assert.Len(t, body.Messages, 1)
			assert.Equal(t, tt.wantGasLimit, authInfo.Fee.GasLimit)
			assert.Equal(t, []interfaces.Coin{{Denom: "nhash", Amount: "285750000"}}, authInfo.Fee.Amount)
			require.Len(t, authInfo.SignerInfos, 1)
			assert.Equal(t, uint64(3), authInfo.SignerInfos[0].Sequence)

			digest, err := SignDoc{
				BodyBytes:     raw.BodyBytes,
				AuthInfoBytes: raw.AuthInfoBytes,
				ChainID:       testChainID,
				AccountNumber: 7,
			}.Digest()
			require.NoError(t, err)
			require.Len(t, raw.Signatures, 1)
			assert.True(t, cryptoutils.Secp256k1Backend{}.Verify(signer.Public(), digest, raw.Signatures[0]))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, outcomeSuccess, classify(&interfaces.BroadcastResponse{Code: 0, RawLog: SequenceMismatchMarker}))
	assert.Equal(t, outcomeConflict, classify(conflict(1)))
	assert.Equal(t, outcomeRejected, classify(&interfaces.BroadcastResponse{Code: 32, RawLog: "Account Sequence Mismatch"}))
	assert.Equal(t, outcomeRejected, classify(&interfaces.BroadcastResponse{Code: 5, RawLog: "insufficient funds"}))
}

func TestBroadcast_InMemoryLedger(t *testing.T) {
	tests := []struct {
		name         string
		conflicts    int
		chainID      string
		wantAttempts int
		wantErr      bool
	}{
		{name: "clean submit", conflicts: 0, chainID: testChainID, wantAttempts: 1},
		{name: "four conflicts", conflicts: 4, chainID: testChainID, wantAttempts: 5},
		{name: "five conflicts", conflicts: 5, chainID: testChainID, wantErr: true},
		{name: "wrong chain id", conflicts: 0, chainID: "other-chain", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewInMemoryLedger(testChainID)
			ledger.InjectConflicts(tt.conflicts)
			signer := newSigner(t)

			b := NewBroadcaster(ledger, tt.chainID, testLogger())
			result, err := b.Broadcast(context.Background(), signer, testMessages(t, signer), interfaces.FeeConfig{GasAdjustment: 1.25})

			if tt.wantErr {
				assert.ErrorIs(t, err, interfaces.ErrBroadcastRejected)
				assert.Equal(t, 0, ledger.ContractSpecificationCount())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAttempts, result.Attempts)
			assert.Equal(t, tt.wantAttempts, ledger.Broadcasts())
			assert.Equal(t, 1, ledger.ContractSpecificationCount())
		})
	}
}

func TestInMemoryLedger_OutOfGas(t *testing.T) {
	ledger := NewInMemoryLedger(testChainID)
	signer := newSigner(t)

	b := NewBroadcaster(ledger, testChainID, testLogger())
	_, err := b.Broadcast(context.Background(), signer, testMessages(t, signer), interfaces.FeeConfig{FixedGasLimit: 1000, GasAdjustment: 1.25})

	var rejected *interfaces.BroadcastRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, CodeOutOfGas, rejected.Code)
	assert.Equal(t, 1, ledger.Broadcasts())
}

func TestContractSpecificationMessages(t *testing.T) {
	specs := []interfaces.ContractSpecification{
		{ID: "a", ClassName: "io.p8e.A"},
		{ID: "b", ClassName: "io.p8e.B"},
	}

	msgs, err := ContractSpecificationMessages(specs, "signer")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	for i, msg := range msgs {
		assert.Equal(t, MsgWriteContractSpecificationTypeURL, msg.TypeURL)
		decoded, err := DecodeContractSpecificationMessage(msg)
		require.NoError(t, err)
		assert.Equal(t, specs[i].ClassName, decoded.Specification.ClassName)
		assert.Equal(t, []string{"signer"}, decoded.Signers)
	}

	// Encoding is deterministic
	again, err := ContractSpecificationMessages(specs, "signer")
	require.NoError(t, err)
	assert.Equal(t, msgs, again)

	_, err = ContractSpecificationMessages(nil, "signer")
	assert.ErrorIs(t, err, interfaces.ErrEmptyContractSet)
}
