package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParam_Validate_Coercion(t *testing.T) {
	tests := []struct {
		name     string
		param    Param
		value    any
		expected any
	}{
		{"string passthrough", Param{Name: "s", Type: TypeString}, "abc", "abc"},
		{"int from string", Param{Name: "n", Type: TypeInteger}, "42", 42},
		{"int from whole float", Param{Name: "n", Type: TypeInteger}, float64(7), 7},
		{"number from int", Param{Name: "f", Type: TypeNumber}, 3, float64(3)},
		{"number from string", Param{Name: "f", Type: TypeNumber}, "2.5", 2.5},
		{"bool from string", Param{Name: "b", Type: TypeBoolean}, "true", true},
		{"any keeps value", Param{Name: "a"}, []int{1, 2}, []int{1, 2}},
		{"object from map", Param{Name: "o", Type: TypeObject}, map[string]any{"k": 1}, map[string]any{"k": 1}},
		{"array from slice", Param{Name: "l", Type: TypeArray}, []any{"x", 1}, []any{"x", 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.param.Validate(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParam_Validate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		param Param
		value any
		want  error
	}{
		{"missing required", Param{Name: "x", Required: true}, nil, ErrMissingParam},
		{"int from text", Param{Name: "x", Type: TypeInteger}, "abc", ErrTypeMismatch},
		{"int from fraction", Param{Name: "x", Type: TypeInteger}, 2.5, ErrTypeMismatch},
		{"object from string", Param{Name: "x", Type: TypeObject}, "nope", ErrTypeMismatch},
		{"rule gte", Param{Name: "x", Type: TypeInteger, Rules: "gte=10"}, 3, ErrRuleViolation},
		{"rule oneof", Param{Name: "x", Type: TypeString, Rules: "oneof=GET POST"}, "PATCH", ErrRuleViolation},
		{"unknown rule tag", Param{Name: "x", Rules: "no_such_rule"}, 1, ErrInvalidSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.param.Validate(tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "x", fe.Field)
		})
	}
}

func TestParam_Validate_Default(t *testing.T) {
	p := Param{Name: "timeout", Type: TypeInteger, Default: "30"}

	got, err := p.Validate(nil)
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	// Необязательный без default — nil без ошибки
	got, err = Param{Name: "opt"}.Validate(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testSchema() Schema {
	return Schema{
		{Name: "url", Type: TypeString, Required: true},
		{Name: "method", Type: TypeString, Default: "GET", Rules: "oneof=GET POST"},
		{Name: "retries", Type: TypeInteger},
	}
}

func TestSchema_Check(t *testing.T) {
	s := testSchema()

	t.Run("required and defaults", func(t *testing.T) {
		got, err := s.Check(map[string]any{"url": "http://x"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"url": "http://x", "method": "GET"}, got)
	})

	t.Run("missing required", func(t *testing.T) {
		_, err := s.Check(map[string]any{"method": "POST"})
		assert.ErrorIs(t, err, ErrMissingParam)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		_, err := s.Check(map[string]any{"url": "u", "extra": 1})
		assert.ErrorIs(t, err, ErrUnknownParam)

		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "extra", fe.Field)
	})

	t.Run("deferred counts as present", func(t *testing.T) {
		got, err := s.Check(map[string]any{}, "url")
		require.NoError(t, err)
		assert.NotContains(t, got, "url")
		assert.Equal(t, "GET", got["method"])
	})

	t.Run("unknown deferred", func(t *testing.T) {
		_, err := s.Check(map[string]any{"url": "u"}, "ghost")
		assert.ErrorIs(t, err, ErrUnknownParam)
	})

	t.Run("all errors joined", func(t *testing.T) {
		_, err := s.Check(map[string]any{"retries": "many", "bogus": true})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingParam)
		assert.ErrorIs(t, err, ErrTypeMismatch)
		assert.ErrorIs(t, err, ErrUnknownParam)
	})
}

func TestSchema_Verify(t *testing.T) {
	require.NoError(t, testSchema().Verify())

	tests := []struct {
		name   string
		schema Schema
	}{
		{"empty name", Schema{{Name: ""}}},
		{"duplicate", Schema{{Name: "a"}, {Name: "a"}}},
		{"bad type", Schema{{Name: "a", Type: "date"}}},
		{"required with default", Schema{{Name: "a", Required: true, Default: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Verify()
			assert.True(t, errors.Is(err, ErrInvalidSchema), "got %v", err)
		})
	}
}

func TestSchema_LookupAndNames(t *testing.T) {
	s := testSchema()
	assert.Equal(t, []string{"url", "method", "retries"}, s.Names())

	p, ok := s.Lookup("method")
	require.True(t, ok)
	assert.Equal(t, "GET", p.Default)

	_, ok = s.Lookup("nope")
	assert.False(t, ok)
}
