package concurrentmap_test

import (
	"testing"

	"github.com/cirruslabs/vmpower/internal/concurrentmap"
	"github.com/stretchr/testify/require"
)

func TestConcurrentMap(t *testing.T) {
	cmap := concurrentmap.NewConcurrentMap[int]()

	cmap.Store("a", 1)
	cmap.Store("b", 2)

	value, ok := cmap.Load("a")
	require.True(t, ok)
	require.Equal(t, 1, value)

	sum := 0
	cmap.Range(func(_ string, value int) bool {
		sum += value

		return true
	})
	require.Equal(t, 3, sum)

	visited := 0
	cmap.Range(func(_ string, _ int) bool {
		visited++

		return false
	})
	require.Equal(t, 1, visited)

	cmap.Delete("a")
	_, ok = cmap.Load("a")
	require.False(t, ok)
	require.Equal(t, 1, cmap.Len())
}
