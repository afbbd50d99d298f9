package publisher

import (
	"fmt"

	"github.com/provenance-io/p8e-publisher/interfaces"
)

// HashLedger records the content hash of each artifact the first time it is
// uploaded in a run and checks every later upload against it. Entries are
// never overwritten.
type HashLedger struct {
	hashes map[string]interfaces.ObjectReference
}

// NewHashLedger returns an empty ledger.
func NewHashLedger() *HashLedger {
	return &HashLedger{hashes: make(map[string]interfaces.ObjectReference)}
}

// Confirm records ref under key, or fails with ErrHashConsistencyViolation if
// key was already recorded with different content.
func (h *HashLedger) Confirm(key string, ref interfaces.ObjectReference) error {
	prior, ok := h.hashes[key]
	if !ok {
		h.hashes[key] = ref
		return nil
	}
	if !prior.SameContent(ref) {
		return fmt.Errorf("%w: %s was %s, now %s", interfaces.ErrHashConsistencyViolation, key, prior.HashString(), ref.HashString())
	}
	return nil
}

// Hash returns the recorded reference for key.
func (h *HashLedger) Hash(key string) (interfaces.ObjectReference, bool) {
	ref, ok := h.hashes[key]
	return ref, ok
}
