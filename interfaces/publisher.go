package interfaces

import (
	"context"
	"crypto/ecdsa"
)

// Signer is the transaction signing key of a destination.
type Signer interface {
	// Address returns the ledger account address.
	Address() string
	// PublicKeyBytes returns the compressed public key.
	PublicKeyBytes() []byte
	// Sign signs a 32-byte digest.
	Sign(digest []byte) ([]byte, error)
}

// ObjectStore uploads artifacts encrypted to a set of recipients.
type ObjectStore interface {
	StoreObject(ctx context.Context, data []byte, recipients []*ecdsa.PublicKey) (ObjectReference, error)
}

// ObjectStoreFactory returns the object store backing a destination.
type ObjectStoreFactory interface {
	ObjectStoreFor(dest Destination) (ObjectStore, error)
}

// Broadcaster signs and submits messages, retrying on sequence conflicts.
type Broadcaster interface {
	Broadcast(ctx context.Context, signer Signer, messages []Message, fee FeeConfig) (TxResult, error)
}

// BroadcasterFactory returns the broadcaster for a destination.
type BroadcasterFactory interface {
	BroadcasterFor(dest Destination) (Broadcaster, error)
}
