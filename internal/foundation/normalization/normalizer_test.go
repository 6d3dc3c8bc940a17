package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level int

const (
	levelInfo level = iota
	levelDebug
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]level{"INFO": levelInfo, "debug": levelDebug}, levelInfo)

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, levelDebug, n.Normalize("  DEBUG "))
		assert.Equal(t, levelInfo, n.Normalize("info"))
	})

	t.Run("unknown falls back to default", func(t *testing.T) {
		assert.Equal(t, levelInfo, n.Normalize("verbose"))
	})

	t.Run("with error", func(t *testing.T) {
		v, err := n.NormalizeWithError("Debug")
		require.NoError(t, err)
		assert.Equal(t, levelDebug, v)

		_, err = n.NormalizeWithError("trace")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[debug info]")
	})

	t.Run("valid keys sorted copy", func(t *testing.T) {
		keys := n.ValidKeys()
		assert.Equal(t, []string{"debug", "info"}, keys)
		keys[0] = "mutated"
		assert.Equal(t, []string{"debug", "info"}, n.ValidKeys())
	})
}
