// Package registry talks to the ledger that records contract specifications.
//
// The ledger is reached over gRPC with hand-written service descriptors and
// protobuf Struct messages (see grpc.go and wire.go), covering fee
// estimation, block-mode broadcast, account lookup and specification queries.
//
// Broadcaster implements the publish side:
//
//	account := Account(signer)
//	body    := TxBody{messages}
//	fees    := CalculateTxFees(unsigned tx, gas adjustment)
//	gas     := fixed gas limit if set, else fees.EstimatedGas
//	sig     := sign(sha256(SignDoc{body, auth info, chain id, account number}))
//	resp    := BroadcastTx(tx, BROADCAST_MODE_BLOCK)
//
// A response whose code is non-zero and whose raw log contains
// "account sequence mismatch" is a conflict and the whole cycle is repeated,
// at most MaxBroadcastAttempts times with no delay. Every other non-zero code
// is returned immediately as *interfaces.BroadcastRejectedError.
//
// InMemoryLedger applies the same checks in process and backs tests and the
// memory:// ledger URL.
package registry
