package verification

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ValueIsFixedLengthDigits(t *testing.T) {
	g := NewGenerator(rand.NewSource(1), 6, 1000)
	for i := 0; i < 500; i++ {
		_, value := g.Generate()
		require.Len(t, value, 6)
		for _, c := range value {
			require.True(t, c >= '0' && c <= '9', "unexpected character %q in %q", c, value)
		}
	}
}

func TestGenerate_CodeIDWithinKeyspace(t *testing.T) {
	g := NewGenerator(rand.NewSource(2), 6, 1000)
	for i := 0; i < 500; i++ {
		codeID, _ := g.Generate()
		require.GreaterOrEqual(t, codeID, 0)
		require.LessOrEqual(t, codeID, 1000)
	}
}

func TestGenerate_DeterministicWithSeededSource(t *testing.T) {
	g1 := NewGenerator(rand.NewSource(42), 6, 1000)
	g2 := NewGenerator(rand.NewSource(42), 6, 1000)
	for i := 0; i < 20; i++ {
		id1, v1 := g1.Generate()
		id2, v2 := g2.Generate()
		assert.Equal(t, id1, id2)
		assert.Equal(t, v1, v2)
	}
}

func TestGenerate_RespectsConfiguredLengthAndBound(t *testing.T) {
	g := NewGenerator(rand.NewSource(3), 8, 10)
	for i := 0; i < 200; i++ {
		codeID, value := g.Generate()
		assert.Len(t, value, 8)
		assert.LessOrEqual(t, codeID, 10)
	}
}
