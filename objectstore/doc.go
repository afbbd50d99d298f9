// Package objectstore uploads contract artifacts as encrypted envelopes.
//
// StoreObject hashes the plaintext (sha2-256 multihash), seals it for the
// destination's audience and writes the envelope to a storage backend. The
// returned reference pairs the plaintext hash with a location of the form
//
//	<backend uri>#<cid of the envelope>
//
// The hash is what the ledger records and what cross-destination consistency
// is checked on; the location is only meaningful to this package.
package objectstore
