//go:build unit

package overflow

import (
	"errors"
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/internal/storage/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestBuckets(t *testing.T) {
	t.Run("walks primary bucket then overflow buckets", func(t *testing.T) {
		// Prepare
		table, err := descriptor.NewTable(2, 4)
		require.NoError(t, err, "creates table")
		a, _ := table.PopFree()
		b, _ := table.PopFree()
		require.NoError(t, table.ChainAppend(1, a), "chains a")
		require.NoError(t, table.ChainAppend(a, b), "chains b")

		// Execute
		var visited []int32
		it := NewBuckets(table, 1)
		for it.HasNext() {
			index, _, err := it.Next()
			assert.NoError(t, err, "next bucket")
			visited = append(visited, index)
		}
		_, _, err = it.Next()

		// Check
		assert.Equal(t, []int32{1, a, b}, visited, "chain order")
		assert.True(t, errors.Is(err, flowerr.InternalError{}), "exhausted iterator")
	})

	t.Run("stops on a cyclic chain", func(t *testing.T) {
		// Prepare
		table, _ := descriptor.NewTable(2, 2)
		table.SetNext(0, 1)
		table.SetNext(1, 0)

		// Execute
		var err error
		it := NewBuckets(table, 0)
		for it.HasNext() && err == nil {
			_, _, err = it.Next()
		}

		// Check
		assert.True(t, errors.Is(err, flowerr.InternalError{}), "cycle detected")
	})
}
