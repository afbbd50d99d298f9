package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ipfs/go-cid"
	"github.com/provenance-io/p8e-publisher/interfaces"
)

// S3Options configures an S3Backend.
type S3Options struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint selects an S3-compatible service. Requests then use path-style
	// addressing, which MinIO and most gateways expect.
	Endpoint string

	// AccessKey and SecretKey sign requests. Without them requests are
	// anonymous and only work against buckets that allow it.
	AccessKey string
	SecretKey string
}

func (o S3Options) locationURI() string {
	query := url.Values{}
	query.Set("region", o.Region)
	if o.Endpoint != "" {
		query.Set("endpoint", o.Endpoint)
	}
	host := o.Bucket
	if o.AccessKey != "" {
		host = o.AccessKey + ":***@" + o.Bucket
	}
	return fmt.Sprintf("s3://%s/%s?%s", host, o.Prefix, query.Encode())
}

// S3Backend stores envelopes as objects named by CID under an optional prefix.
type S3Backend struct {
	client      *s3.S3
	bucket      string
	prefix      string
	signed      bool
	log         *slog.Logger
	locationURI string
}

// NewS3Backend creates an S3 storage backend.
func NewS3Backend(opts S3Options, log *slog.Logger) (*S3Backend, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("%w: empty S3 bucket", interfaces.ErrInvalidLocationURI)
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	opts.Prefix = strings.Trim(opts.Prefix, "/")

	cfg := aws.NewConfig().WithRegion(opts.Region)
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}

	signed := opts.AccessKey != "" && opts.SecretKey != ""
	if signed {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, ""))
	} else {
		cfg = cfg.WithCredentials(credentials.AnonymousCredentials)
		log.Warn("No S3 credentials configured, uploads will be anonymous",
			slog.String("bucket", opts.Bucket))
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Backend{
		client:      s3.New(sess),
		bucket:      opts.Bucket,
		prefix:      opts.Prefix,
		signed:      signed,
		log:         log,
		locationURI: opts.locationURI(),
	}, nil
}

// Fetch downloads the object for id and checks it against the CID.
func (b *S3Backend) Fetch(ctx context.Context, id cid.Cid) ([]byte, error) {
	start := time.Now()
	key := b.objectKey(id)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			b.log.Debug("Content not found in S3",
				slog.String("bucket", b.bucket),
				slog.String("key", key))
			return nil, interfaces.ErrContentNotFound
		}
		b.log.Error("Failed to get object from S3",
			slog.String("bucket", b.bucket),
			slog.String("key", key),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if !verifyCID(id, data) {
		return nil, interfaces.ErrCIDMismatch
	}

	b.log.Debug("Fetched content from S3",
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store uploads data under its CID. Objects carry no ACL beyond the bucket's defaults.
func (b *S3Backend) Store(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := ComputeCID(data)
	if err != nil {
		return cid.Undef, err
	}
	key := b.objectKey(id)

	_, err = b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/cbor"),
	})
	if err != nil {
		b.log.Error("Failed to put object to S3",
			slog.String("bucket", b.bucket),
			slog.String("key", key),
			slog.Bool("signed", b.signed),
			"err", err)
		return cid.Undef, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored content in S3",
		slog.String("key", key),
		slog.String("cid", id.String()))

	return id, nil
}

// Available reports whether the bucket can be reached.
func (b *S3Backend) Available(ctx context.Context) bool {
	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		b.log.Warn("S3 backend unavailable",
			slog.String("bucket", b.bucket),
			"err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *S3Backend) Name() string {
	return "s3-" + b.bucket
}

// LocationURI returns the URI that identifies this storage backend, with the secret masked.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

func (b *S3Backend) objectKey(id cid.Cid) string {
	if b.prefix == "" {
		return id.String()
	}
	return path.Join(b.prefix, id.String())
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}
