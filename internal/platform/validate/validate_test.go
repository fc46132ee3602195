package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualclinic/api/internal/platform/apierror"
)

type createReq struct {
	PatientID string  `json:"patientId" validate:"required,uuid" messages:"uuid=patientId must be a valid UUID"`
	TaskType  string  `json:"taskType" validate:"required,oneof=diagnosis treatment event"`
	Metadata  *string `json:"metadata,omitempty"`
}

type messageReq struct {
	Content string `json:"content" validate:"required,max=4096" messages:"required=Message content cannot be empty;max=Message content too long (max 4096 characters)"`
}

func details(t *testing.T, err error) map[string][]string {
	t.Helper()
	var ve *apierror.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %T", err)
	return ve.Details
}

func TestValidate_Valid(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&createReq{
		PatientID: "5f0c6e0a-4d0b-4b8e-9e55-3f1e1c1c2d3a",
		TaskType:  "diagnosis",
	}))
	assert.NoError(t, v.Validate(&messageReq{Content: "Hello"}))
}

func TestValidate_UUIDForms(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		id   string
		ok   bool
	}{
		{"lowercase", "5f0c6e0a-4d0b-4b8e-9e55-3f1e1c1c2d3a", true},
		{"uppercase", "5F0C6E0A-4D0B-4B8E-9E55-3F1E1C1C2D3A", true},
		{"mixed case", "5f0C6e0A-4d0b-4B8e-9e55-3f1E1c1c2d3A", true},
		{"no hyphens", "5f0c6e0a4d0b4b8e9e553f1e1c1c2d3a", false},
		{"urn prefix", "urn:uuid:5f0c6e0a-4d0b-4b8e-9e55-3f1e1c1c2d3a", false},
		{"braces", "{5f0c6e0a-4d0b-4b8e-9e55-3f1e1c1c2d3}", false},
		{"bad hex", "5g0c6e0a-4d0b-4b8e-9e55-3f1e1c1c2d3a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&createReq{PatientID: tt.id, TaskType: "diagnosis"})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{"patientId must be a valid UUID"}, details(t, err)["patientId"])
		})
	}
}

func TestValidate_FieldMessages(t *testing.T) {
	v := New()

	d := details(t, v.Validate(&createReq{PatientID: "not-a-uuid", TaskType: "surgery"}))
	assert.Equal(t, []string{"patientId must be a valid UUID"}, d["patientId"])
	assert.Equal(t, []string{"Invalid enum value. Expected 'diagnosis' | 'treatment' | 'event', received 'surgery'"}, d["taskType"])

	d = details(t, v.Validate(&createReq{}))
	assert.Equal(t, []string{"Required"}, d["patientId"])
	assert.Equal(t, []string{"Required"}, d["taskType"])
}

func TestValidate_ContentBounds(t *testing.T) {
	v := New()

	d := details(t, v.Validate(&messageReq{Content: ""}))
	assert.Equal(t, []string{"Message content cannot be empty"}, d["content"])

	d = details(t, v.Validate(&messageReq{Content: strings.Repeat("a", 4097)}))
	assert.Equal(t, []string{"Message content too long (max 4096 characters)"}, d["content"])

	assert.NoError(t, v.Validate(&messageReq{Content: strings.Repeat("a", 4096)}))
	// length is counted in characters, not bytes
	assert.NoError(t, v.Validate(&messageReq{Content: strings.Repeat("é", 4096)}))
}

func TestOverride(t *testing.T) {
	msg, ok := override("min=too short; max=too long", "max")
	assert.True(t, ok)
	assert.Equal(t, "too long", msg)

	_, ok = override("min=too short", "uuid")
	assert.False(t, ok)
}
