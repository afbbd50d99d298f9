package specs

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSpecifications(t *testing.T) {
	codeRef := interfaces.ObjectReference{ContentHash: []byte{0x12, 0x20, 0x01}, Location: "file:///objects#code"}
	schemaRef := interfaces.ObjectReference{ContentHash: []byte{0x12, 0x20, 0x02}, Location: "file:///objects#schema"}

	tests := []struct {
		name    string
		classes int
		wantErr error
	}{
		{name: "empty class set", classes: 0, wantErr: interfaces.ErrEmptyContractSet},
		{name: "single class", classes: 1},
		{name: "many classes", classes: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classes := make([]interfaces.ClassDescriptor, 0, tt.classes)
			for i := 0; i < tt.classes; i++ {
				classes = append(classes, interfaces.ClassDescriptor{
					Name:    fmt.Sprintf("io.p8e.contracts.Contract%d", i),
					Parties: []string{"OWNER"},
				})
			}

			specs, err := BuildSpecifications(classes, codeRef, schemaRef)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, specs)
				return
			}
			require.NoError(t, err)
			require.Len(t, specs, tt.classes)

			for i, spec := range specs {
				assert.Equal(t, classes[i].Name, spec.ClassName)
				assert.Equal(t, codeRef, spec.CodeRef)
				assert.Equal(t, schemaRef, spec.SchemaRef)
				assert.Equal(t, SpecificationID(classes[i].Name), spec.ID)
			}
		})
	}
}

func TestBuildSpecifications_BlankName(t *testing.T) {
	_, err := BuildSpecifications([]interfaces.ClassDescriptor{{Name: ""}}, interfaces.ObjectReference{}, interfaces.ObjectReference{})
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfiguration)
}

func TestSpecificationID(t *testing.T) {
	a := SpecificationID("io.p8e.contracts.A")
	assert.Equal(t, a, SpecificationID("io.p8e.contracts.A"))
	assert.NotEqual(t, a, SpecificationID("io.p8e.contracts.B"))

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}
