// Package config loads the publisher's YAML configuration: the two artifact
// sources, optional hash marker settings and the list of publish locations.
//
// Example:
//
//	contract_artifact:
//	  name: contracts
//	  path: build/libs/contracts.jar
//	  manifest: contracts.yaml
//	schema_artifact:
//	  name: protos
//	  path: build/libs/protos.jar
//	locations:
//	  - name: testnet
//	    registry_url: ipfs://localhost:5001
//	    ledger_url: grpcs://grpc.test.provenance.io:443
//	    chain_id: pio-testnet-1
//	    private_key: ${P8E_TESTNET_KEY}
//	    audience:
//	      - name: validator
//	        public_key: 0x02...
//	    tx_fee_adjustment: 1.5
//
// Keys are hex with an optional 0x prefix. Unknown fields are rejected.
package config
