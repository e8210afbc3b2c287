package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEncoder struct{}

func (fakeEncoder) Encode(text string, _ []string, _ []string) []int {
	return make([]int, len(strings.Fields(text)))
}

func TestCounterUsesEncoder(t *testing.T) {
	c := &Counter{enc: fakeEncoder{}}
	n, err := c.Count("AAPL closed higher today")
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestCounterHeuristicFallback(t *testing.T) {
	c := &Counter{}

	n, err := c.Count("")
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = c.Count("hi")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = c.Count("Tesla shares rose 4% after strong Q2 data")
	require.NoError(t, err)
	require.Equal(t, (8+len("Tesla shares rose 4% after strong Q2 data")/4)/2, n)
}
