package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOutput(t *testing.T) {
	out, err := decodeOutput(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = decodeOutput([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = decodeOutput([]byte(`{"status_code": 200, "body": ["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status_code": float64(200), "body": []any{"a"}}, out)

	_, err = decodeOutput([]byte("{"))
	assert.Error(t, err)
}
