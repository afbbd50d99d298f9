package specs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/provenance-io/p8e-publisher/interfaces"
)

// SpecificationNamespace scopes the name-based UUIDs of contract specifications.
var SpecificationNamespace = uuid.MustParse("4c1c7d2a-8e0f-5b3a-9d61-5f3b8a2e7c10")

// SpecificationID returns the deterministic id of the specification for className.
func SpecificationID(className string) string {
	return uuid.NewSHA1(SpecificationNamespace, []byte(className)).String()
}

// BuildSpecifications returns one specification per class, in input order,
// each referencing codeRef and schemaRef.
func BuildSpecifications(classes []interfaces.ClassDescriptor, codeRef, schemaRef interfaces.ObjectReference) ([]interfaces.ContractSpecification, error) {
	if len(classes) == 0 {
		return nil, interfaces.ErrEmptyContractSet
	}

	specs := make([]interfaces.ContractSpecification, 0, len(classes))
	for _, class := range classes {
		if class.Name == "" {
			return nil, fmt.Errorf("%w: contract class with blank name", interfaces.ErrInvalidConfiguration)
		}

		specs = append(specs, interfaces.ContractSpecification{
			ID:          SpecificationID(class.Name),
			ClassName:   class.Name,
			Description: class.Description,
			Parties:     append([]string(nil), class.Parties...),
			Functions:   append([]interfaces.FunctionDescriptor(nil), class.Functions...),
			CodeRef:     codeRef,
			SchemaRef:   schemaRef,
		})
	}

	return specs, nil
}
