//go:build unit

package descriptor

import (
	"errors"
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewTable(t *testing.T) {
	t.Run("builds primary buckets and a free list", func(t *testing.T) {
		// Execute
		table, err := NewTable(32, 36)

		// Check
		require.NoError(t, err, "creates table")
		assert.Equal(t, 36, table.Len(), "all descriptors allocated")
		assert.Equal(t, 32, table.EntryCount(), "primary bucket count")
		assert.Equal(t, 4, table.FreeCount(), "overflow pool on the free list")
		assert.Equal(t, int32(32), table.FreeHead(), "free list starts at first overflow descriptor")
		assert.Equal(t, uint32(35*64), table.Get(35).BucketOffset, "bucket offsets are index * 64")
		assert.False(t, table.Get(31).Overflow, "last primary is not overflow")
		assert.True(t, table.Get(32).Overflow, "first pool descriptor is overflow")
		assert.Equal(t, None, table.Prev(32), "free list head has no predecessor")
		assert.Equal(t, int32(33), table.Next(32), "free list in index order")
		assert.Equal(t, None, table.Next(35), "free list is terminated")
		assert.NoError(t, table.Check(), "consistent after reset")
	})

	t.Run("rejects too few descriptors", func(t *testing.T) {
		// Execute
		_, err := NewTable(32, 31)

		// Check
		assert.True(t, errors.Is(err, flowerr.ArgumentError{}), "argument error")
	})
}

func TestTable_ListPrimitives(t *testing.T) {
	t.Run("insert after and remove relink neighbours", func(t *testing.T) {
		// Prepare
		table, _ := NewTable(4, 4)

		// Execute
		table.InsertAfter(0, 1)
		table.InsertAfter(1, 2)
		table.InsertAfter(0, 3)

		// Check
		assert.Equal(t, int32(3), table.Next(0), "3 spliced after 0")
		assert.Equal(t, int32(1), table.Next(3), "1 follows 3")
		assert.Equal(t, int32(3), table.Prev(1), "1 preceded by 3")

		// Execute
		table.Remove(3)

		// Check
		assert.Equal(t, int32(1), table.Next(0), "0 relinked to 1")
		assert.Equal(t, int32(0), table.Prev(1), "1 relinked to 0")
		assert.Equal(t, None, table.Next(3), "removed node next cleared")
		assert.Equal(t, None, table.Prev(3), "removed node prev cleared")
	})
}

func TestTable_FreeList(t *testing.T) {
	t.Run("pops the node after the head, then the head", func(t *testing.T) {
		// Prepare
		table, _ := NewTable(2, 4)

		// Execute
		first, err1 := table.PopFree()
		second, err2 := table.PopFree()
		_, err3 := table.PopFree()

		// Check
		assert.NoError(t, err1, "first pop")
		assert.NoError(t, err2, "second pop")
		assert.Equal(t, int32(3), first, "node after head taken first")
		assert.Equal(t, int32(2), second, "head taken last")
		assert.Equal(t, None, table.FreeHead(), "free list empty")
		assert.True(t, errors.Is(err3, flowerr.OutOfMemory{}), "exhausted free list")
	})

	t.Run("push onto an empty free list keeps the descriptor", func(t *testing.T) {
		// Prepare
		table, _ := NewTable(2, 3)
		index, _ := table.PopFree()

		// Execute
		err := table.PushFree(index)

		// Check
		assert.NoError(t, err, "pushes")
		assert.Equal(t, index, table.FreeHead(), "descriptor becomes head")
		assert.Equal(t, 1, table.FreeCount(), "free count restored")
		assert.NoError(t, table.Check(), "consistent")
	})

	t.Run("refuses to free a primary descriptor", func(t *testing.T) {
		// Prepare
		table, _ := NewTable(2, 3)

		// Execute
		err := table.PushFree(0)

		// Check
		assert.True(t, errors.Is(err, flowerr.InternalError{}), "internal error")
	})
}

func TestTable_Chain(t *testing.T) {
	t.Run("chain append and unlink keep the table consistent", func(t *testing.T) {
		// Prepare
		table, _ := NewTable(2, 4)
		node, _ := table.PopFree()

		// Execute
		err := table.ChainAppend(1, node)
		table.Get(node).UsedSlots = 1
		table.Get(node).RecordCount = 1

		// Check
		assert.NoError(t, err, "appends")
		assert.Equal(t, node, table.Next(1), "linked below primary")
		assert.Equal(t, Chain, table.Get(node).Membership, "marked as chained")
		assert.NoError(t, table.Check(), "consistent with chain")

		// Execute
		table.Get(node).UsedSlots = 0
		table.Get(node).RecordCount = 0
		err = table.ChainUnlink(node)
		assert.NoError(t, err, "unlinks")
		err = table.PushFree(node)

		// Check
		assert.NoError(t, err, "returns to free list")
		assert.Equal(t, None, table.Next(1), "primary has no successor")
		assert.Equal(t, 2, table.FreeCount(), "free list restored")
		assert.NoError(t, table.Check(), "consistent after release")
	})

	t.Run("detects a descriptor on no list", func(t *testing.T) {
		// Prepare
		table, _ := NewTable(2, 3)
		_, _ = table.PopFree()

		// Execute
		err := table.Check()

		// Check
		assert.True(t, errors.Is(err, flowerr.InternalError{}), "dangling descriptor detected")
	})

	t.Run("detects a slot mask out of step with the record count", func(t *testing.T) {
		// Prepare
		table, _ := NewTable(2, 2)
		table.Get(0).UsedSlots = 3
		table.Get(0).RecordCount = 1

		// Execute
		err := table.Check()

		// Check
		assert.True(t, errors.Is(err, flowerr.InternalError{}), "mismatch detected")
	})
}
