package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMap_UnmarshalKeepsOrder(t *testing.T) {
	t.Parallel()

	var m FieldMap
	err := json.Unmarshal([]byte(`{"place":"The Moon","animal":"Capybara","object":"Toaster"}`), &m)
	require.NoError(t, err)

	assert.Equal(t, []string{"place", "animal", "object"}, m.Keys())
	v, ok := m.Get("animal")
	assert.True(t, ok)
	assert.Equal(t, "Capybara", v)
}

func TestFieldMap_UnmarshalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "duplicate key", input: `{"a":"x","a":"y"}`, wantErr: ErrDuplicateField},
		{name: "non-string value", input: `{"a":1}`, wantErr: ErrInvalidFormat},
		{name: "array", input: `["a"]`, wantErr: ErrInvalidFormat},
		{name: "nested object", input: `{"a":{"b":"c"}}`, wantErr: ErrInvalidFormat},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var m FieldMap
			err := json.Unmarshal([]byte(tc.input), &m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestFieldMap_MarshalRoundTripKeepsOrder(t *testing.T) {
	t.Parallel()

	m := NewFieldMap("zeta", "last letter", "alpha", `quote "here"`)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":"last letter","alpha":"quote \"here\""}`, string(data))
	assert.Equal(t, `{"zeta":"last letter","alpha":"quote \"here\""}`, string(data))
}

func TestFieldMap_With(t *testing.T) {
	t.Parallel()

	original := NewFieldMap("a", "1", "b", "2")
	updated := original.With("a", "changed").With("c", "3")

	assert.Equal(t, []string{"a", "b", "c"}, updated.Keys())
	v, _ := updated.Get("a")
	assert.Equal(t, "changed", v)

	v, _ = original.Get("a")
	assert.Equal(t, "1", v, "With must not modify the receiver")
}

func TestFieldMap_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewFieldMap("a", "1").Validate())
	assert.ErrorIs(t, FieldMap{{Key: "", Value: "x"}}.Validate(), ErrEmptyFieldKey)
	assert.ErrorIs(t, FieldMap{{Key: "a"}, {Key: "a"}}.Validate(), ErrDuplicateField)
}

func TestFieldMap_String(t *testing.T) {
	t.Parallel()

	m := NewFieldMap("animal", "Capybara", "object", "Toaster")
	assert.Equal(t, "animal: Capybara, object: Toaster", m.String())
	assert.Equal(t, "", FieldMap{}.String())
}
