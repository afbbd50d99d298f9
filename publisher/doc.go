// Package publisher runs a publish: for each configured location it derives
// the signing key, uploads the contract and schema artifacts encrypted to the
// location's audience, checks that both artifacts hash the same everywhere,
// and registers one contract specification per contract class on the
// location's ledger.
//
// Locations are processed sequentially. There is no rollback: when a location
// fails, the locations before it stay published and their results are
// returned alongside the error.
package publisher
