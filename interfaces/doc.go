// Package interfaces defines the core interfaces and types of the contract publisher.
//
// The package holds the contracts between the pipeline components without
// their implementations:
//
//   - StorageBackend / StorageBackendFactory: CID-addressed blob storage (file, S3, IPFS, Vault)
//   - ObjectStore / ObjectStoreFactory: encrypted artifact upload returning an ObjectReference
//   - Ledger / LedgerFactory: fee estimation, block-mode broadcast and specification queries
//   - Broadcaster / BroadcasterFactory: signed, fee-estimated broadcast with conflict retry
//
// # Types
//
//   - Destination / PartyConfig: validated per-registry publishing configuration
//   - ArtifactBundle / Artifact / ClassDescriptor: what gets published
//   - ObjectReference: content hash of the plaintext plus an opaque location
//   - ContractSpecification: the ledger record built for each contract class
//
// # Error Types
//
//   - ErrInvalidConfiguration, ErrInvalidKeyEncoding, ErrEmptyContractSet: fatal, never retried
//   - ErrObjectStoreFailure: upload failures, propagated without retry
//   - ErrHashConsistencyViolation: an artifact hashed differently on two destinations
//   - ErrBroadcastRejected / *BroadcastRejectedError: non-zero ledger response code
package interfaces
