package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("scales to unit length", func(t *testing.T) {
		v := normalizeVector([]float32{3, 4})
		var mag float64
		for _, x := range v {
			mag += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-6)
	})

	t.Run("zero vector is returned unchanged", func(t *testing.T) {
		v := normalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"gemini", "ollama", "jina"} {
		p, err := NewProvider(name, "key", "", "", 0)
		require.NoError(t, err, name)
		info := p.Info()
		assert.Equal(t, name, info.Provider)
		assert.Equal(t, 768, info.Dim)
		assert.NotEmpty(t, info.Model)
	}

	_, err := NewProvider("openai", "key", "", "", 0)
	assert.Error(t, err)
}
