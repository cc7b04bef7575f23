package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapToEnvSlice(t *testing.T) {
	envSlice := MapToEnvSlice(map[string]string{
		"MODE":   "staging",
		"REGION": "eu-west",
	})
	assert.ElementsMatch(t, []string{"MODE=staging", "REGION=eu-west"}, envSlice)

	assert.Nil(t, MapToEnvSlice(nil))
}

func TestEnvSliceToMap(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		want := map[string]string{"MODE": "staging", "REGION": "eu-west"}
		got, err := EnvSliceToMap(MapToEnvSlice(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("value containing equals", func(t *testing.T) {
		got, err := EnvSliceToMap([]string{"OPTS=a=b=c"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"OPTS": "a=b=c"}, got)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := EnvSliceToMap([]string{"MODE"})
		require.Error(t, err)
		assert.ErrorContains(t, err, "invalid environment variable: MODE")
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := EnvSliceToMap([]string{"=value"})
		require.Error(t, err)
	})
}

func TestIsAddrAvailable(t *testing.T) {
	assert.True(t, IsAddrAvailable("127.0.0.1:0"))
	assert.False(t, IsAddrAvailable("256.0.0.1:99999"))
}
