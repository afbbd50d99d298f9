// Package main (cmd/publisher) is the operator CLI of the p8e publisher.
//
// Commands:
//
//	publish  uploads the contract and schema artifacts to every configured
//	         location (or those given with --location) and registers one
//	         contract specification per contract class. Hash markers are
//	         written afterwards unless --no-markers is set.
//	check    verifies both artifacts are readable archives and the contract
//	         manifest declares at least one class.
//	clean    removes the hash marker files.
//	query    contract-spec|scope-spec --location <name> <id>
//
// Example:
//
//	p8e-publisher --config p8e.yaml publish --location testnet
package main
