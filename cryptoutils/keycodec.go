package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ledger addresses are defined over RIPEMD-160

	"github.com/provenance-io/p8e-publisher/interfaces"
)

// ErrInvalidKeyEncoding is returned when raw key bytes do not decode to a valid key on the curve.
var ErrInvalidKeyEncoding = interfaces.ErrInvalidKeyEncoding

var _ interfaces.Signer = (*Keypair)(nil)

// CurveBackend supplies the curve arithmetic and encodings used by KeyCodec.
// It is passed in explicitly instead of being registered process-wide.
type CurveBackend interface {
	// Name returns the curve's registered name.
	Name() string

	// Curve returns the curve parameters and arithmetic.
	Curve() elliptic.Curve

	// DecodePoint parses a compressed or uncompressed SEC1 point.
	DecodePoint(raw []byte) (*ecdsa.PublicKey, error)

	// EncodePoint returns the compressed SEC1 encoding of pub.
	EncodePoint(pub *ecdsa.PublicKey) []byte

	// Sign returns a 64-byte R||S signature over a 32-byte digest.
	Sign(digest []byte, priv *ecdsa.PrivateKey) ([]byte, error)

	// Verify checks a 64-byte R||S signature.
	Verify(pub *ecdsa.PublicKey, digest, sig []byte) bool
}

// Secp256k1Backend implements CurveBackend for secp256k1, the legacy curve
// every registry party uses for its keys.
type Secp256k1Backend struct{}

// Name returns the curve name.
func (Secp256k1Backend) Name() string { return "secp256k1" }

// Curve returns the secp256k1 curve.
func (Secp256k1Backend) Curve() elliptic.Curve { return crypto.S256() }

// DecodePoint parses a 33-byte compressed or 65-byte uncompressed point.
func (Secp256k1Backend) DecodePoint(raw []byte) (*ecdsa.PublicKey, error) {
	var (
		pub *ecdsa.PublicKey
		err error
	)
	switch len(raw) {
	case 33:
		pub, err = crypto.DecompressPubkey(raw)
	case 65:
		pub, err = crypto.UnmarshalPubkey(raw)
	default:
		return nil, fmt.Errorf("%w: unexpected point length %d", ErrInvalidKeyEncoding, len(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)
	}
	return pub, nil
}

// EncodePoint returns the compressed point.
func (Secp256k1Backend) EncodePoint(pub *ecdsa.PublicKey) []byte {
	return crypto.CompressPubkey(pub)
}

// Sign signs digest and drops the recovery byte.
func (Secp256k1Backend) Sign(digest []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(digest, priv)
	if err != nil {
		return nil, err
	}
	return sig[:64], nil
}

// Verify checks an R||S signature.
func (Secp256k1Backend) Verify(pub *ecdsa.PublicKey, digest, sig []byte) bool {
	return crypto.VerifySignature(crypto.CompressPubkey(pub), digest, sig)
}

// KeyCodec converts raw key encodings into usable keys. It holds no state
// beyond its curve backend and performs no I/O.
type KeyCodec struct {
	backend CurveBackend
}

// NewKeyCodec creates a codec over the given curve backend.
func NewKeyCodec(backend CurveBackend) *KeyCodec {
	return &KeyCodec{backend: backend}
}

// Backend returns the codec's curve backend.
func (c *KeyCodec) Backend() CurveBackend {
	return c.backend
}

// DerivePrivate interprets raw as an unsigned big-endian scalar and computes
// the public point d·G. The scalar must lie in [1, N).
func (c *KeyCodec) DerivePrivate(raw []byte) (*Keypair, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty private key", ErrInvalidKeyEncoding)
	}

	curve := c.backend.Curve()
	params := curve.Params()

	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 {
		return nil, fmt.Errorf("%w: private scalar is zero", ErrInvalidKeyEncoding)
	}
	if d.Cmp(params.N) >= 0 {
		return nil, fmt.Errorf("%w: private scalar out of range for %s", ErrInvalidKeyEncoding, c.backend.Name())
	}

	priv := &ecdsa.PrivateKey{D: d}
	priv.PublicKey.Curve = curve
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(math.PaddedBigBytes(d, (params.BitSize+7)/8))
	if priv.PublicKey.X == nil {
		return nil, fmt.Errorf("%w: could not derive public point", ErrInvalidKeyEncoding)
	}

	return &Keypair{Private: priv, backend: c.backend}, nil
}

// DecodePublic decodes a compressed or uncompressed point on the codec's curve.
func (c *KeyCodec) DecodePublic(raw []byte) (*ecdsa.PublicKey, error) {
	pub, err := c.backend.DecodePoint(raw)
	if err != nil {
		if errors.Is(err, ErrInvalidKeyEncoding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)
	}
	if !c.backend.Curve().IsOnCurve(pub.X, pub.Y) {
		return nil, fmt.Errorf("%w: point is not on %s", ErrInvalidKeyEncoding, c.backend.Name())
	}
	return pub, nil
}

// EncodePublic returns the compressed encoding of pub.
func (c *KeyCodec) EncodePublic(pub *ecdsa.PublicKey) []byte {
	return c.backend.EncodePoint(pub)
}

// Keypair is a derived signing key. It is never persisted.
type Keypair struct {
	Private *ecdsa.PrivateKey
	backend CurveBackend
}

// Public returns the public half.
func (k *Keypair) Public() *ecdsa.PublicKey {
	return &k.Private.PublicKey
}

// PublicKeyBytes returns the compressed public point.
func (k *Keypair) PublicKeyBytes() []byte {
	return k.backend.EncodePoint(&k.Private.PublicKey)
}

// Address returns the ledger account address of the keypair.
func (k *Keypair) Address() string {
	return AddressFromPublicKey(k.PublicKeyBytes())
}

// AddressFromPublicKey returns hex(ripemd160(sha256(compressed))).
func AddressFromPublicKey(compressed []byte) string {
	sum := sha256.Sum256(compressed)
	hasher := ripemd160.New()
	hasher.Write(sum[:])
	return hex.EncodeToString(hasher.Sum(nil))
}

// Sign signs a 32-byte digest.
func (k *Keypair) Sign(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	return k.backend.Sign(digest, k.Private)
}
