package storage

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ComputeCID returns the CIDv1 (raw codec, sha2-256) of data. Every backend
// keys blobs by this value.
func ComputeCID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// verifyCID checks that data hashes to id.
func verifyCID(id cid.Cid, data []byte) bool {
	got, err := ComputeCID(data)
	if err != nil {
		return false
	}
	return got.Equals(id)
}
