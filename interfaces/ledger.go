package interfaces

import (
	"context"
)

// Ledger is the consumed ledger surface: fee estimation, block-mode broadcast
// and the account and specification queries.
type Ledger interface {
	// CalculateTxFees estimates gas and fees for an unsigned transaction.
	CalculateTxFees(ctx context.Context, txBytes []byte, gasAdjustment float64) (*FeeEstimate, error)

	// BroadcastTx submits a signed transaction and waits for block inclusion.
	// A non-zero Code in the response is not an error at this level.
	BroadcastTx(ctx context.Context, txBytes []byte) (*BroadcastResponse, error)

	// Account returns the signer's account number and sequence.
	Account(ctx context.Context, address string) (*AccountInfo, error)

	// ScopeSpecification looks up a scope specification by id.
	ScopeSpecification(ctx context.Context, id string) (map[string]any, error)

	// ContractSpecification looks up a contract specification by id.
	ContractSpecification(ctx context.Context, id string) (map[string]any, error)

	// Close releases the underlying connection.
	Close() error
}

// LedgerFactory connects to the ledger of a destination.
type LedgerFactory interface {
	LedgerFor(dest Destination) (Ledger, error)
}
