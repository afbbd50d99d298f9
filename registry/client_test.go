package registry

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// serveLedger runs ledger behind an in-process gRPC server and returns a client for it.
func serveLedger(t *testing.T, ledger interfaces.Ledger, queryTimeout time.Duration, opts ...grpc.ServerOption) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(opts...)
	RegisterLedgerServer(srv, NewLedgerService(ledger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	return NewClient(cc, queryTimeout, testLogger())
}

func TestClient_BroadcastOverGRPC(t *testing.T) {
	ledger := NewInMemoryLedger(testChainID)
	ledger.InjectConflicts(2)
	client := serveLedger(t, ledger, time.Second)
	signer := newSigner(t)

	specs := []interfaces.ContractSpecification{{
		ID:        "5e0d5ad8-1b0c-5b9b-a3f5-8e0f3c2b1a00",
		ClassName: "io.p8e.contracts.Loan",
		Parties:   []string{"OWNER"},
		CodeRef:   interfaces.ObjectReference{ContentHash: []byte{0x12, 0x20, 0x01}, Location: "file:///tmp#bafk"},
	}}
	msgs, err := ContractSpecificationMessages(specs, signer.Address())
	require.NoError(t, err)

	result, err := NewBroadcaster(client, testChainID, testLogger()).
		Broadcast(context.Background(), signer, msgs, interfaces.FeeConfig{GasAdjustment: 1.25})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	assert.NotEmpty(t, result.TxHash)
	assert.Equal(t, int64(1), result.Height)

	spec, err := client.ContractSpecification(context.Background(), specs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "io.p8e.contracts.Loan", spec["class_name"])

	account, err := client.Account(context.Background(), signer.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), account.Sequence)
}

func TestClient_RejectionCarriesCodeAndLog(t *testing.T) {
	ledger := NewInMemoryLedger(testChainID)
	client := serveLedger(t, ledger, time.Second)
	signer := newSigner(t)

	msgs := testMessages(t, signer)
	_, err := NewBroadcaster(client, "wrong-chain", testLogger()).
		Broadcast(context.Background(), signer, msgs, interfaces.FeeConfig{GasAdjustment: 1.25})

	var rejected *interfaces.BroadcastRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, CodeUnauthorized, rejected.Code)
	assert.Contains(t, rejected.RawLog, "signature verification failed")
	assert.Equal(t, 1, rejected.Attempts)
}

func TestClient_SpecificationNotFound(t *testing.T) {
	ledger := NewInMemoryLedger(testChainID)
	ledger.SetScopeSpecification("scope-1", map[string]any{"description": "loans"})
	client := serveLedger(t, ledger, time.Second)

	scope, err := client.ScopeSpecification(context.Background(), "scope-1")
	require.NoError(t, err)
	assert.Equal(t, "loans", scope["description"])

	_, err = client.ScopeSpecification(context.Background(), "scope-2")
	assert.ErrorIs(t, err, interfaces.ErrSpecificationNotFound)

	_, err = client.ContractSpecification(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrSpecificationNotFound)
}

func TestClient_QueryTimeout(t *testing.T) {
	ledger := &MockLedger{}
	ledger.On("ScopeSpecification", mock.Anything, "slow").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	client := serveLedger(t, ledger, 50*time.Millisecond)

	start := time.Now()
	_, err := client.ScopeSpecification(context.Background(), "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		target  string
		address string
		secure  bool
		wantErr bool
	}{
		{target: "grpcs://rpc.test.provenance.io:443", address: "rpc.test.provenance.io:443", secure: true},
		{target: "grpc://localhost:9090", address: "localhost:9090"},
		{target: "localhost:9090", address: "localhost:9090"},
		{target: "http://localhost:9090", wantErr: true},
		{target: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			address, creds, err := parseTarget(tt.target)
			if tt.wantErr {
				assert.ErrorIs(t, err, interfaces.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.address, address)
			if tt.secure {
				assert.Equal(t, "tls", creds.Info().SecurityProtocol)
			} else {
				assert.Equal(t, "insecure", creds.Info().SecurityProtocol)
			}
		})
	}
}

func TestFactory_MemoryLedgerPerChain(t *testing.T) {
	f := NewFactory(testLogger())
	t.Cleanup(func() { _ = f.Close() })

	a, err := f.LedgerFor(interfaces.Destination{Name: "a", LedgerURL: MemoryLedgerURL, ChainID: "chain-a"})
	require.NoError(t, err)
	again, err := f.LedgerFor(interfaces.Destination{Name: "a2", LedgerURL: MemoryLedgerURL, ChainID: "chain-a"})
	require.NoError(t, err)
	b, err := f.LedgerFor(interfaces.Destination{Name: "b", LedgerURL: MemoryLedgerURL, ChainID: "chain-b"})
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)

	_, err = f.BroadcasterFor(interfaces.Destination{Name: "bad", LedgerURL: "https://ledger"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfiguration)
}

func TestFactory_QueryTimeoutPerDestination(t *testing.T) {
	f := NewFactory(testLogger())
	t.Cleanup(func() { _ = f.Close() })

	const url = "grpc://127.0.0.1:1"
	a, err := f.LedgerFor(interfaces.Destination{Name: "a", LedgerURL: url, QueryTimeoutSeconds: 2})
	require.NoError(t, err)
	b, err := f.LedgerFor(interfaces.Destination{Name: "b", LedgerURL: url, QueryTimeoutSeconds: 60})
	require.NoError(t, err)
	again, err := f.LedgerFor(interfaces.Destination{Name: "a2", LedgerURL: url, QueryTimeoutSeconds: 2})
	require.NoError(t, err)

	require.IsType(t, &Client{}, a)
	require.IsType(t, &Client{}, b)
	assert.Equal(t, 2*time.Second, a.(*Client).QueryTimeout)
	assert.Equal(t, 60*time.Second, b.(*Client).QueryTimeout)
	assert.Same(t, a, again)
}

func TestLedgerService_RunsUnaryInterceptor(t *testing.T) {
	var methods []string
	interceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		methods = append(methods, info.FullMethod)
		return handler(ctx, req)
	}

	ledger := NewInMemoryLedger(testChainID)
	client := serveLedger(t, ledger, time.Second, grpc.UnaryInterceptor(interceptor))
	signer := newSigner(t)

	account, err := client.Account(context.Background(), signer.Address())
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), account.Address)

	_, err = client.ContractSpecification(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrSpecificationNotFound)

	assert.Equal(t, []string{MethodAccount, MethodContractSpecification}, methods)
}
