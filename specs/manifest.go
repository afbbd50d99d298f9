package specs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"gopkg.in/yaml.v3"
)

// Manifest lists the classes an artifact exposes.
//
//	classes:
//	  - name: io.p8e.contracts.loan.OnboardLoan
//	    description: Onboards a loan scope
//	    parties: [ORIGINATOR, SERVICER]
//	    functions:
//	      - name: recordLoan
//	        invoker: ORIGINATOR
//	        inputs: [{name: loan, type: io.p8e.proto.Loan}]
//	        output: {name: loan, type: io.p8e.proto.Loan}
type Manifest struct {
	Classes []interfaces.ClassDescriptor `yaml:"classes"`
}

// LoadManifest reads a manifest file and returns its classes in file order.
func LoadManifest(path string) ([]interfaces.ClassDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %w", interfaces.ErrInvalidConfiguration, err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest YAML. Unknown keys, blank names and
// duplicate class names are rejected.
func ParseManifest(data []byte) ([]interfaces.ClassDescriptor, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var manifest Manifest
	if err := dec.Decode(&manifest); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing manifest: %v", interfaces.ErrInvalidConfiguration, err)
	}

	seen := make(map[string]struct{}, len(manifest.Classes))
	for i, class := range manifest.Classes {
		if class.Name == "" {
			return nil, fmt.Errorf("%w: manifest class %d has a blank name", interfaces.ErrInvalidConfiguration, i)
		}
		if _, ok := seen[class.Name]; ok {
			return nil, fmt.Errorf("%w: manifest lists %s twice", interfaces.ErrInvalidConfiguration, class.Name)
		}
		seen[class.Name] = struct{}{}

		for _, fn := range class.Functions {
			if fn.Name == "" {
				return nil, fmt.Errorf("%w: class %s has a function with a blank name", interfaces.ErrInvalidConfiguration, class.Name)
			}
		}
	}

	return manifest.Classes, nil
}
