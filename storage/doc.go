// Package storage provides content-addressed blob storage with pluggable backends.
//
// Every blob is keyed by its CIDv1 (raw codec, sha2-256 multihash), so the
// same sealed envelope has the same identifier on every backend:
//
//   - File system storage for local development and testing
//   - S3-compatible storage for cloud deployments
//   - IPFS raw blocks through a node's HTTP API
//   - Vault KV v2 with token authentication
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Credentials in the auth part are masked in logs (StorageBackendLocation.Redacted).
//
// Supported URI schemes:
//
//   - file:///var/lib/p8e/objects/
//   - s3://ACCESS:SECRET@bucket-name/prefix/?region=us-west-2&endpoint=http://minio.local:9000
//   - ipfs://ipfs.example.com:5001/?timeout=30s
//   - vault://TOKEN@vault.example.com:8200/secret/p8e?tls=false
//
// # Mirrors
//
// A destination may name mirror locations next to its primary. The factory
// combines them in a MultiStorageBackend that writes every blob to all of
// them and fails if any write fails. The combined backend is available only
// when every member is. Reads fall through the backends in
// order, skipping unavailable ones.
//
// # Integrity
//
// Backends re-hash what they read and return interfaces.ErrCIDMismatch when
// the bytes no longer match the requested CID.
package storage
