package registry

import (
	"context"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockLedger mocks the interfaces.Ledger interface
type MockLedger struct {
	mock.Mock
}

// CalculateTxFees mocks the CalculateTxFees method
func (m *MockLedger) CalculateTxFees(ctx context.Context, txBytes []byte, gasAdjustment float64) (*interfaces.FeeEstimate, error) {
	args := m.Called(ctx, txBytes, gasAdjustment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.FeeEstimate), args.Error(1)
}

// BroadcastTx mocks the BroadcastTx method
func (m *MockLedger) BroadcastTx(ctx context.Context, txBytes []byte) (*interfaces.BroadcastResponse, error) {
	args := m.Called(ctx, txBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.BroadcastResponse), args.Error(1)
}

// Account mocks the Account method
func (m *MockLedger) Account(ctx context.Context, address string) (*interfaces.AccountInfo, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.AccountInfo), args.Error(1)
}

// ScopeSpecification mocks the ScopeSpecification method
func (m *MockLedger) ScopeSpecification(ctx context.Context, id string) (map[string]any, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

// ContractSpecification mocks the ContractSpecification method
func (m *MockLedger) ContractSpecification(ctx context.Context, id string) (map[string]any, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

// Close mocks the Close method
func (m *MockLedger) Close() error {
	args := m.Called()
	return args.Error(0)
}
