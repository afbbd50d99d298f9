package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for blank names, missing keys and other
	// configuration problems detected before any network call.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidKeyEncoding is returned when raw key bytes do not decode to a valid key on the curve.
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")

	// ErrObjectStoreFailure wraps any failure to upload an artifact.
	ErrObjectStoreFailure = errors.New("object store failure")

	// ErrEmptyContractSet is returned when an artifact declares no contract classes.
	ErrEmptyContractSet = errors.New("no contract classes found")

	// ErrHashConsistencyViolation is returned when the same artifact hashes differently across destinations.
	ErrHashConsistencyViolation = errors.New("artifact hash mismatch across destinations")

	// ErrSpecificationNotFound is returned by ledger queries for unknown ids.
	ErrSpecificationNotFound = errors.New("specification not found")

	// ErrBroadcastRejected is matched by every *BroadcastRejectedError.
	ErrBroadcastRejected = errors.New("broadcast rejected")
)

// BroadcastRejectedError carries the ledger's code and raw log verbatim.
type BroadcastRejectedError struct {
	Code     uint32
	RawLog   string
	Attempts int
}

func (e *BroadcastRejectedError) Error() string {
	return fmt.Sprintf("error broadcasting tx (code %d, rawLog: %s)", e.Code, e.RawLog)
}

// Is makes errors.Is(err, ErrBroadcastRejected) hold.
func (e *BroadcastRejectedError) Is(target error) bool {
	return target == ErrBroadcastRejected
}
