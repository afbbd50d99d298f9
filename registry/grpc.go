package registry

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Ledger gRPC methods. Requests and responses are protobuf Structs so no
// generated code is needed; binary fields travel as base64 strings and
// 64-bit integers as decimal strings.
const (
	MethodCalculateTxFees       = "/provenance.msgfees.v1.Query/CalculateTxFees"
	MethodBroadcastTx           = "/cosmos.tx.v1beta1.Service/BroadcastTx"
	MethodAccount               = "/cosmos.auth.v1beta1.Query/Account"
	MethodScopeSpecification    = "/provenance.metadata.v1.Query/ScopeSpecification"
	MethodContractSpecification = "/provenance.metadata.v1.Query/ContractSpecification"
)

// LedgerServer is the server API of the ledger services the publisher consumes.
type LedgerServer interface {
	CalculateTxFees(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BroadcastTx(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Account(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ScopeSpecification(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ContractSpecification(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedLedgerServer can be embedded to have forward compatible implementations.
type UnimplementedLedgerServer struct{}

func (UnimplementedLedgerServer) CalculateTxFees(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CalculateTxFees not implemented")
}
func (UnimplementedLedgerServer) BroadcastTx(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method BroadcastTx not implemented")
}
func (UnimplementedLedgerServer) Account(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Account not implemented")
}
func (UnimplementedLedgerServer) ScopeSpecification(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ScopeSpecification not implemented")
}
func (UnimplementedLedgerServer) ContractSpecification(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ContractSpecification not implemented")
}

// RegisterLedgerServer registers every ledger service on a gRPC server.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&MsgFeesQuery_ServiceDesc, srv)
	s.RegisterService(&TxService_ServiceDesc, srv)
	s.RegisterService(&AuthQuery_ServiceDesc, srv)
	s.RegisterService(&MetadataQuery_ServiceDesc, srv)
}

// LedgerClient is the client API of the ledger services.
type LedgerClient interface {
	CalculateTxFees(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	BroadcastTx(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Account(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ScopeSpecification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ContractSpecification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type ledgerClient struct{ cc grpc.ClientConnInterface }

func NewLedgerClient(cc grpc.ClientConnInterface) LedgerClient { return &ledgerClient{cc: cc} }

func (c *ledgerClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) CalculateTxFees(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCalculateTxFees, in, opts...)
}

func (c *ledgerClient) BroadcastTx(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodBroadcastTx, in, opts...)
}

func (c *ledgerClient) Account(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodAccount, in, opts...)
}

func (c *ledgerClient) ScopeSpecification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodScopeSpecification, in, opts...)
}

func (c *ledgerClient) ContractSpecification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodContractSpecification, in, opts...)
}

type ledgerMethod func(LedgerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call ledgerMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MsgFeesQuery_ServiceDesc is the grpc.ServiceDesc for the fee estimation service.
var MsgFeesQuery_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "provenance.msgfees.v1.Query",
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CalculateTxFees", Handler: unaryHandler(MethodCalculateTxFees, LedgerServer.CalculateTxFees)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "provenance/msgfees/v1/query.proto",
}

// TxService_ServiceDesc is the grpc.ServiceDesc for the broadcast service.
var TxService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "cosmos.tx.v1beta1.Service",
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BroadcastTx", Handler: unaryHandler(MethodBroadcastTx, LedgerServer.BroadcastTx)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cosmos/tx/v1beta1/service.proto",
}

// AuthQuery_ServiceDesc is the grpc.ServiceDesc for the account query service.
var AuthQuery_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "cosmos.auth.v1beta1.Query",
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Account", Handler: unaryHandler(MethodAccount, LedgerServer.Account)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cosmos/auth/v1beta1/query.proto",
}

// MetadataQuery_ServiceDesc is the grpc.ServiceDesc for the specification query service.
var MetadataQuery_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "provenance.metadata.v1.Query",
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ScopeSpecification", Handler: unaryHandler(MethodScopeSpecification, LedgerServer.ScopeSpecification)},
		{MethodName: "ContractSpecification", Handler: unaryHandler(MethodContractSpecification, LedgerServer.ContractSpecification)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "provenance/metadata/v1/query.proto",
}
