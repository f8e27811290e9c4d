package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title    string  `json:"title" validate:"required,max=5"`
	RarityID int64   `json:"rarity_id" validate:"gt=0"`
	Stars    int     `json:"star_level" validate:"min=0,max=3"`
	Parts    []part  `json:"parts" validate:"dive"`
	Ignored  *string `json:"-"`
}

type part struct {
	Level int `json:"level" validate:"gt=0"`
}

func TestFieldErrors(t *testing.T) {
	err := Struct(sample{Title: "too long", Stars: 4, Parts: []part{{Level: 0}}})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "Must be at most 5 characters", fields["title"])
	assert.Equal(t, "Please make a selection", fields["rarity_id"])
	assert.Equal(t, "Must be at most 3", fields["star_level"])
	assert.Contains(t, fields, "parts[0].level")
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	fields := FieldErrors(assert.AnError)
	assert.Equal(t, map[string]string{FormErrorKey: "Invalid request format"}, fields)
	assert.Nil(t, FieldErrors(nil))
}

func TestSchemaValidator_ClientProfile(t *testing.T) {
	v := NewSchemaValidator()

	tests := []struct {
		name    string
		doc     map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"api_url": "http://localhost:8080", "query_retries": 2}, false},
		{"empty", map[string]any{}, false},
		{"bad url", map[string]any{"api_url": "localhost"}, true},
		{"unknown key", map[string]any{"apiurl": "http://x"}, true},
		{"negative retries", map[string]any{"query_retries": -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(SchemaClientProfile, tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchemaValidator_UnknownSchema(t *testing.T) {
	err := NewSchemaValidator().Validate("missing.schema.json", map[string]any{})
	assert.Error(t, err)
}
