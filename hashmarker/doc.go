// Package hashmarker writes and removes the p8e-hash.json files that record
// which build of the contract and schema artifacts was last published. The
// files sit next to the artifact sources so downstream builds can embed the
// published hash.
package hashmarker
