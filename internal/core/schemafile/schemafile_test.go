package schemafile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/checkpoint/internal/rules"
)

const sampleFile = `
schemas:
  signup:
    fields:
      name: required|string|max:10
      age: [required, integer, "min:18"]
    aliases:
      age: applicant age
  order:
    fields:
      items.*.price: required|numeric|min:0
    options:
      nested: true
      fail_fast: false
`

func TestParse(t *testing.T) {
	set, err := Parse([]byte(sampleFile), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"order", "signup"}, set.Names())
	assert.Equal(t, 2, set.Len())

	signup, err := set.Get("signup")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "name"}, signup.Schema.Fields())
	alias, ok := signup.Aliases.Get("age")
	assert.True(t, ok)
	assert.Equal(t, "applicant age", alias)

	stats := signup.Schema.Stats()
	assert.Equal(t, []string{"required", "integer", "min"}, stats["age"].RuleTypes)
}

func TestParse_ValidatorUsesAliasesAndOptions(t *testing.T) {
	set, err := Parse([]byte(sampleFile), nil)
	require.NoError(t, err)
	ctx := context.Background()

	signup, err := set.Get("signup")
	require.NoError(t, err)
	result, err := signup.Validator.Validate(ctx, map[string]any{"name": "Ann", "age": 12})
	require.NoError(t, err)
	assert.Equal(t, "The applicant age must be at least 18.", result.First("age"))

	order, err := set.Get("order")
	require.NoError(t, err)
	result, err = order.Validator.Validate(ctx, map[string]any{
		"items": []any{
			map[string]any{"price": 3},
			map[string]any{"price": -1},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Has("items.1.price"))
	assert.False(t, result.Has("items.0.price"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"empty file", "", ErrNoSchemas},
		{"no schemas", "schemas: {}\n", ErrNoSchemas},
		{"unknown rule", "schemas:\n  s:\n    fields:\n      a: required|frobnicate\n", rules.ErrUnknownRule},
		{"bad parameters", "schemas:\n  s:\n    fields:\n      a: between:1\n", rules.ErrInvalidParameters},
		{"unknown key", "schemas:\n  s:\n    fields:\n      a: required\n    extra: 1\n", nil},
		{"mapping as rules", "schemas:\n  s:\n    fields:\n      a: {required: true}\n", nil},
		{"no fields", "schemas:\n  s:\n    aliases:\n      a: b\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), nil)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSet_GetUnknown(t *testing.T) {
	set, err := Parse([]byte(sampleFile), nil)
	require.NoError(t, err)
	_, err = set.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o600))

	set, err := Load(path, rules.NewEngine(nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}
