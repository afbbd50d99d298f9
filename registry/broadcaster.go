package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/metrics"
)

// MaxBroadcastAttempts bounds the attempts made while the ledger keeps
// reporting a sequence mismatch.
const MaxBroadcastAttempts = 5

// SequenceMismatchMarker is the raw log fragment of a stale account sequence.
const SequenceMismatchMarker = "account sequence mismatch"

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeConflict
	outcomeRejected
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeSuccess:
		return metrics.OutcomeSuccess
	case outcomeConflict:
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeRejected
	}
}

// classify tags a ledger response. Only a non-zero code whose raw log carries
// the sequence mismatch marker is a conflict.
func classify(resp *interfaces.BroadcastResponse) outcomeKind {
	switch {
	case resp.Code == 0:
		return outcomeSuccess
	case strings.Contains(resp.RawLog, SequenceMismatchMarker):
		return outcomeConflict
	default:
		return outcomeRejected
	}
}

// Broadcaster signs, fee-estimates and submits transactions to one ledger.
type Broadcaster struct {
	ledger  interfaces.Ledger
	chainID string
	log     *slog.Logger
}

// NewBroadcaster creates a broadcaster for chainID over ledger.
func NewBroadcaster(ledger interfaces.Ledger, chainID string, log *slog.Logger) *Broadcaster {
	return &Broadcaster{
		ledger:  ledger,
		chainID: chainID,
		log:     log,
	}
}

// Broadcast submits messages in one transaction signed by signer and waits
// for block inclusion. A sequence mismatch rebuilds, re-estimates and
// resubmits the transaction, up to MaxBroadcastAttempts in total. Any other
// non-zero code fails at once with *interfaces.BroadcastRejectedError.
// Transport errors are returned as they are.
func (b *Broadcaster) Broadcast(ctx context.Context, signer interfaces.Signer, messages []interfaces.Message, fee interfaces.FeeConfig) (interfaces.TxResult, error) {
	if len(messages) == 0 {
		return interfaces.TxResult{}, errors.New("no messages to broadcast")
	}

	var last *interfaces.BroadcastResponse
	for attempt := 1; attempt <= MaxBroadcastAttempts; attempt++ {
		if last != nil {
			b.log.Warn("Retrying broadcast after sequence mismatch",
				slog.Int("attempt", attempt),
				slog.String("rawLog", last.RawLog))
		}

		resp, err := b.attempt(ctx, signer, messages, fee)
		if err != nil {
			metrics.RecordBroadcastAttempt(metrics.OutcomeError)
			return interfaces.TxResult{}, err
		}

		kind := classify(resp)
		metrics.RecordBroadcastAttempt(kind.String())

		switch kind {
		case outcomeSuccess:
			b.log.Info("Sent tx",
				slog.String("txhash", resp.TxHash),
				slog.Int64("height", resp.Height),
				slog.Int("attempt", attempt))
			return interfaces.TxResult{
				TxHash:   resp.TxHash,
				Height:   resp.Height,
				GasUsed:  resp.GasUsed,
				Attempts: attempt,
			}, nil
		case outcomeConflict:
			last = resp
		default:
			return interfaces.TxResult{}, &interfaces.BroadcastRejectedError{
				Code:     resp.Code,
				RawLog:   resp.RawLog,
				Attempts: attempt,
			}
		}
	}

	return interfaces.TxResult{}, &interfaces.BroadcastRejectedError{
		Code:     last.Code,
		RawLog:   last.RawLog,
		Attempts: MaxBroadcastAttempts,
	}
}

// attempt runs one build, estimate, sign and submit cycle.
func (b *Broadcaster) attempt(ctx context.Context, signer interfaces.Signer, messages []interfaces.Message, fee interfaces.FeeConfig) (*interfaces.BroadcastResponse, error) {
	account, err := b.ledger.Account(ctx, signer.Address())
	if err != nil {
		return nil, fmt.Errorf("querying account %s: %w", signer.Address(), err)
	}

	bodyBytes, err := encodeBody(messages)
	if err != nil {
		return nil, err
	}

	signerInfo := SignerInfo{
		PublicKey: signer.PublicKeyBytes(),
		Mode:      SignModeDirect,
		Sequence:  account.Sequence,
	}

	// Estimation runs on the unsigned transaction with an empty fee.
	unsigned, err := encodeTx(bodyBytes, AuthInfo{SignerInfos: []SignerInfo{signerInfo}}, []byte{})
	if err != nil {
		return nil, err
	}

	estimate, err := b.ledger.CalculateTxFees(ctx, unsigned, fee.GasAdjustment)
	if err != nil {
		return nil, fmt.Errorf("estimating fees: %w", err)
	}

	gasLimit := estimate.EstimatedGas
	if fee.FixedGasLimit > 0 {
		gasLimit = fee.FixedGasLimit
	}

	authInfo := AuthInfo{
		SignerInfos: []SignerInfo{signerInfo},
		Fee: Fee{
			Amount:   estimate.TotalFees,
			GasLimit: gasLimit,
		},
	}
	authInfoBytes, err := encodeAuthInfo(authInfo)
	if err != nil {
		return nil, err
	}

	digest, err := SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainID:       b.chainID,
		AccountNumber: account.AccountNumber,
	}.Digest()
	if err != nil {
		return nil, err
	}

	signature, err := signer.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("signing tx: %w", err)
	}

	txBytes, err := TxRaw{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{signature},
	}.Encode()
	if err != nil {
		return nil, err
	}

	b.log.Debug("Broadcasting tx",
		slog.Uint64("sequence", account.Sequence),
		slog.Uint64("gasLimit", gasLimit),
		slog.Int("messages", len(messages)))

	resp, err := b.ledger.BroadcastTx(ctx, txBytes)
	if err != nil {
		return nil, fmt.Errorf("broadcasting tx: %w", err)
	}
	return resp, nil
}

func encodeBody(messages []interfaces.Message) ([]byte, error) {
	return codecMarshal(TxBody{Messages: messages}, "tx body")
}

func encodeAuthInfo(authInfo AuthInfo) ([]byte, error) {
	return codecMarshal(authInfo, "auth info")
}

func encodeTx(bodyBytes []byte, authInfo AuthInfo, signature []byte) ([]byte, error) {
	authInfoBytes, err := encodeAuthInfo(authInfo)
	if err != nil {
		return nil, err
	}
	return TxRaw{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{signature},
	}.Encode()
}
