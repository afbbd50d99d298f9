// Package specs turns artifact manifests into contract specifications.
//
// Contract classes are listed explicitly in a YAML manifest next to each
// artifact; nothing here inspects the archive itself. Specification ids are
// version 5 UUIDs of the class name, so publishing the same class again
// addresses the same ledger record.
package specs
