package cryptoutils

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto/ecies"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/provenance-io/p8e-publisher/codec"
)

// EnvelopeVersion is bound into the AEAD additional data.
const EnvelopeVersion uint8 = 1

const compressionZstd = "zstd"

var (
	// ErrNotARecipient is returned by Open when the key is not in the envelope's audience.
	ErrNotARecipient = errors.New("key is not a recipient of this envelope")

	// ErrNoRecipients is returned by Seal when the audience is empty.
	ErrNoRecipients = errors.New("envelope needs at least one recipient")
)

// Recipient is one audience member's copy of the data encryption key.
type Recipient struct {
	PublicKey  []byte `cbor:"public_key"`
	WrappedKey []byte `cbor:"wrapped_key"`
}

// Envelope is the stored form of an encrypted artifact.
type Envelope struct {
	Version     uint8       `cbor:"version"`
	ContentHash []byte      `cbor:"content_hash"`
	Compression string      `cbor:"compression"`
	Nonce       []byte      `cbor:"nonce"`
	Ciphertext  []byte      `cbor:"ciphertext"`
	Recipients  []Recipient `cbor:"recipients"`
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cryptoutils: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cryptoutils: zstd decoder initialization failed: " + err.Error())
	}
}

// Seal compresses plaintext, encrypts it with a fresh XChaCha20-Poly1305 key
// and wraps that key for every recipient with ECIES. contentHash is carried
// in the clear and authenticated, so readers can check what they decrypted.
//
// Duplicate recipients are collapsed. The output is CBOR.
func Seal(backend CurveBackend, plaintext, contentHash []byte, recipients []*ecdsa.PublicKey) ([]byte, error) {
	return seal(rand.Reader, backend, plaintext, contentHash, recipients)
}

func seal(random io.Reader, backend CurveBackend, plaintext, contentHash []byte, recipients []*ecdsa.PublicKey) ([]byte, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	dek := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(random, dek); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(dek)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	compressed := zstdEncoder.EncodeAll(plaintext, nil)

	env := Envelope{
		Version:     EnvelopeVersion,
		ContentHash: contentHash,
		Compression: compressionZstd,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, compressed, additionalData(EnvelopeVersion, contentHash)),
	}

	seen := make(map[string]struct{}, len(recipients))
	for _, pub := range recipients {
		encoded := backend.EncodePoint(pub)
		if _, ok := seen[string(encoded)]; ok {
			continue
		}
		seen[string(encoded)] = struct{}{}

		wrapped, err := ecies.Encrypt(random, ecies.ImportECDSAPublic(pub), dek, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to wrap data key for recipient %x: %w", encoded, err)
		}
		env.Recipients = append(env.Recipients, Recipient{PublicKey: encoded, WrappedKey: wrapped})
	}

	return codec.Marshal(env)
}

// Open decrypts an envelope produced by Seal with one of its recipients' keys.
// It returns the plaintext and the content hash recorded at seal time.
func Open(backend CurveBackend, data []byte, priv *ecdsa.PrivateKey) ([]byte, []byte, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return nil, nil, err
	}

	own := backend.EncodePoint(&priv.PublicKey)
	var wrapped []byte
	for _, r := range env.Recipients {
		if bytes.Equal(r.PublicKey, own) {
			wrapped = r.WrappedKey
			break
		}
	}
	if wrapped == nil {
		return nil, nil, ErrNotARecipient
	}

	dek, err := ecies.ImportECDSA(priv).Decrypt(wrapped, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unwrap data key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(dek)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	compressed, err := aead.Open(nil, env.Nonce, env.Ciphertext, additionalData(env.Version, env.ContentHash))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	plaintext, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("zstd decompress: %w", err)
	}

	return plaintext, env.ContentHash, nil
}

// ParseEnvelope decodes an envelope without decrypting it.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Version != EnvelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	if env.Compression != compressionZstd {
		return nil, fmt.Errorf("unsupported envelope compression %q", env.Compression)
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, errors.New("envelope has invalid nonce")
	}
	return &env, nil
}

func additionalData(version uint8, contentHash []byte) []byte {
	aad := make([]byte, 1+len(contentHash))
	aad[0] = version
	copy(aad[1:], contentHash)
	return aad
}
