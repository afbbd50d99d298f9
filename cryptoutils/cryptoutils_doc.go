// Package cryptoutils holds the key handling and artifact encryption used when
// publishing contract artifacts.
//
// # Keys
//
// KeyCodec turns raw key bytes into keys on a curve supplied by a CurveBackend.
// The backend is an explicit value rather than a process-wide provider, so two
// codecs over different curves can coexist. Secp256k1Backend is the only
// backend shipped; every registry party keys on secp256k1.
//
//	codec := cryptoutils.NewKeyCodec(cryptoutils.Secp256k1Backend{})
//	signer, err := codec.DerivePrivate(rawScalar)
//	party, err := codec.DecodePublic(compressedOrUncompressedPoint)
//
// DerivePrivate reads the input as an unsigned big-endian scalar and rejects
// zero and anything at or above the curve order. DecodePublic accepts 33-byte
// compressed and 65-byte uncompressed SEC1 points and rejects off-curve
// points. Both fail with ErrInvalidKeyEncoding.
//
// # Envelopes
//
// Seal encrypts an artifact once under a random XChaCha20-Poly1305 key and
// wraps that key for each recipient with ECIES. The plaintext is compressed
// with zstd before encryption and the envelope is serialized as deterministic
// CBOR:
//
//	{version, content_hash, compression, nonce, ciphertext, recipients[{public_key, wrapped_key}]}
//
// The content hash and version form the AEAD additional data, so a reader that
// opens an envelope knows the hash it was sealed under.
package cryptoutils
