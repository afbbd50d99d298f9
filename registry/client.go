package registry

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultQueryTimeout applies when a destination configures none.
const DefaultQueryTimeout = 20 * time.Second

// Client implements interfaces.Ledger over the ledger's gRPC services.
// Queries run under QueryTimeout; broadcasts are bounded only by the caller's context.
type Client struct {
	cc     *grpc.ClientConn
	client LedgerClient
	log    *slog.Logger

	QueryTimeout time.Duration
}

// DialOptions configures Dial.
type DialOptions struct {
	// QueryTimeout applies per query RPC when non-zero.
	QueryTimeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

// Dial connects to a ledger. Targets with a grpcs:// scheme use TLS; grpc://
// and bare host:port targets are plaintext.
func Dial(target string, opts DialOptions, log *slog.Logger) (*Client, error) {
	address, creds, err := parseTarget(target)
	if err != nil {
		return nil, err
	}

	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	cc, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dialing ledger %s: %w", target, err)
	}

	return &Client{
		cc:           cc,
		client:       NewLedgerClient(cc),
		log:          log,
		QueryTimeout: opts.QueryTimeout,
	}, nil
}

// NewClient wraps an existing connection. The caller keeps ownership of cc.
func NewClient(cc grpc.ClientConnInterface, queryTimeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		client:       NewLedgerClient(cc),
		log:          log,
		QueryTimeout: queryTimeout,
	}
}

func parseTarget(target string) (string, credentials.TransportCredentials, error) {
	switch {
	case strings.HasPrefix(target, "grpcs://"):
		return strings.TrimPrefix(target, "grpcs://"), credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}), nil
	case strings.HasPrefix(target, "grpc://"):
		return strings.TrimPrefix(target, "grpc://"), insecure.NewCredentials(), nil
	case strings.Contains(target, "://"):
		return "", nil, fmt.Errorf("%w: unsupported ledger url %q", interfaces.ErrInvalidConfiguration, target)
	case target == "":
		return "", nil, fmt.Errorf("%w: empty ledger url", interfaces.ErrInvalidConfiguration)
	default:
		return target, insecure.NewCredentials(), nil
	}
}

// Close releases the connection if Dial created it.
func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// CalculateTxFees asks the fee estimation service for gas and fees.
func (c *Client) CalculateTxFees(ctx context.Context, txBytes []byte, gasAdjustment float64) (*interfaces.FeeEstimate, error) {
	req, err := EncodeFeeRequest(txBytes, gasAdjustment)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.queryContext(ctx)
	defer cancel()

	resp, err := c.client.CalculateTxFees(ctx, req)
	if err != nil {
		return nil, mapRPC(err)
	}
	return DecodeFeeEstimate(resp)
}

// BroadcastTx submits txBytes in block mode.
func (c *Client) BroadcastTx(ctx context.Context, txBytes []byte) (*interfaces.BroadcastResponse, error) {
	req, err := EncodeBroadcastRequest(txBytes)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.BroadcastTx(ctx, req)
	if err != nil {
		return nil, mapRPC(err)
	}
	return DecodeBroadcastResponse(resp)
}

// Account returns the account number and sequence of address.
func (c *Client) Account(ctx context.Context, address string) (*interfaces.AccountInfo, error) {
	req, err := EncodeAccountRequest(address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.queryContext(ctx)
	defer cancel()

	resp, err := c.client.Account(ctx, req)
	if err != nil {
		return nil, mapRPC(err)
	}
	return DecodeAccountResponse(resp)
}

// ScopeSpecification looks up a scope specification.
func (c *Client) ScopeSpecification(ctx context.Context, id string) (map[string]any, error) {
	return c.specification(ctx, id, c.client.ScopeSpecification)
}

// ContractSpecification looks up a contract specification.
func (c *Client) ContractSpecification(ctx context.Context, id string) (map[string]any, error) {
	return c.specification(ctx, id, c.client.ContractSpecification)
}

type specificationCall func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

func (c *Client) specification(ctx context.Context, id string, call specificationCall) (map[string]any, error) {
	req, err := EncodeSpecificationRequest(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.queryContext(ctx)
	defer cancel()

	resp, err := call(ctx, req)
	if err != nil {
		return nil, mapRPC(err)
	}
	return resp.AsMap(), nil
}

func mapRPC(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", interfaces.ErrSpecificationNotFound, status.Convert(err).Message())
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", context.DeadlineExceeded, status.Convert(err).Message())
	default:
		return err
	}
}
