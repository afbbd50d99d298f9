package registry

import (
	"context"
	"errors"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// LedgerService serves an interfaces.Ledger over gRPC.
type LedgerService struct {
	UnimplementedLedgerServer
	ledger interfaces.Ledger
}

// NewLedgerService wraps ledger.
func NewLedgerService(ledger interfaces.Ledger) *LedgerService {
	return &LedgerService{ledger: ledger}
}

func (s *LedgerService) CalculateTxFees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	txBytes, adjustment, err := DecodeFeeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	est, err := s.ledger.CalculateTxFees(ctx, txBytes, adjustment)
	if err != nil {
		return nil, toStatus(err)
	}
	return EncodeFeeEstimate(est)
}

func (s *LedgerService) BroadcastTx(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	txBytes, mode, err := DecodeBroadcastRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if mode != BroadcastModeBlock {
		return nil, status.Errorf(codes.InvalidArgument, "unsupported broadcast mode %q", mode)
	}
	resp, err := s.ledger.BroadcastTx(ctx, txBytes)
	if err != nil {
		return nil, toStatus(err)
	}
	return EncodeBroadcastResponse(resp)
}

func (s *LedgerService) Account(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	address := stringField(req, "address")
	if address == "" {
		return nil, status.Error(codes.InvalidArgument, "empty address")
	}
	info, err := s.ledger.Account(ctx, address)
	if err != nil {
		return nil, toStatus(err)
	}
	return EncodeAccountResponse(info)
}

func (s *LedgerService) ScopeSpecification(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	spec, err := s.ledger.ScopeSpecification(ctx, stringField(req, "specification_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(spec)
}

func (s *LedgerService) ContractSpecification(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	spec, err := s.ledger.ContractSpecification(ctx, stringField(req, "specification_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(spec)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrSpecificationNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
