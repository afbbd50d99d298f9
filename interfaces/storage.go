package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ipfs/go-cid"
)

// StorageBackendLocation is a parsed object store URI of the form
// scheme://[credentials@]host[:port][/path][?params]. Credentials embedded in
// the URI (S3 keys, Vault tokens) must not be logged; use Redacted.
type StorageBackendLocation struct {
	Raw    string
	Scheme string
	Host   string
	Path   string
	Query  url.Values

	parsed *url.URL
}

// NewStorageBackendLocation parses uri and rejects schemes no backend serves.
func NewStorageBackendLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StorageBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file", "s3", "ipfs", "vault":
	default:
		return StorageBackendLocation{}, fmt.Errorf("%w: unsupported storage scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	return StorageBackendLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		parsed: parsed,
	}, nil
}

// String returns the original URI string, credentials included.
func (loc StorageBackendLocation) String() string {
	return loc.Raw
}

// Redacted returns the URI with any password or token masked.
func (loc StorageBackendLocation) Redacted() string {
	if loc.parsed == nil || loc.parsed.User == nil {
		return loc.Raw
	}
	masked := *loc.parsed
	if _, ok := masked.User.Password(); ok {
		masked.User = url.UserPassword(masked.User.Username(), "xxxxx")
	} else {
		masked.User = url.User("xxxxx")
	}
	return masked.String()
}

// URL returns a copy of the parsed URI.
func (loc StorageBackendLocation) URL() (*url.URL, error) {
	if loc.parsed == nil {
		return url.Parse(loc.Raw)
	}
	u := *loc.parsed
	return &u, nil
}

// GetParam returns a query parameter value.
func (loc StorageBackendLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

var (
	// ErrContentNotFound is returned when requested content cannot be found in the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")

	// ErrCIDMismatch is returned when stored bytes do not hash to the CID they were requested by.
	ErrCIDMismatch = errors.New("content does not match its CID")
)

// StorageBackend stores opaque blobs addressed by the CID of their bytes.
// Backends never see plaintext artifacts, only sealed envelopes.
type StorageBackend interface {
	// Fetch retrieves a blob by CID.
	Fetch(ctx context.Context, id cid.Cid) ([]byte, error)

	// Store saves a blob and returns its CID.
	Store(ctx context.Context, data []byte) (cid.Cid, error)

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StorageBackendFactory creates storage backends.
type StorageBackendFactory interface {
	// StorageBackendFor creates backend from URI.
	// Supports file://, s3://, ipfs://, vault://
	StorageBackendFor(locationURI StorageBackendLocation) (StorageBackend, error)

	// CreateMultiBackend creates aggregated storage backend.
	CreateMultiBackend(locationURIs []StorageBackendLocation) (StorageBackend, error)
}
