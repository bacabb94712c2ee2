//go:build unit

package hash

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestBucketOffsetAndIndex(t *testing.T) {
	t.Run("selects bucket 1 in the smallest table", func(t *testing.T) {
		// Execute
		offset, index := BucketOffsetAndIndex(0x00000040, 0)

		// Check
		assert.Equal(t, uint32(0x40), offset, "correct byte offset")
		assert.Equal(t, 1, index, "correct descriptor index")
	})

	t.Run("drops low bits and masks to table size", func(t *testing.T) {
		// Execute
		offset, index := BucketOffsetAndIndex(0xFFFFFFFF, 0)

		// Check
		assert.Equal(t, uint32(0x7C0), offset, "last bucket of a 32 bucket table")
		assert.Equal(t, 31, index, "last descriptor index")
	})

	t.Run("index stays below entry count for every size code", func(t *testing.T) {
		for code := uint32(0); code <= 15; code++ {
			_, index := BucketOffsetAndIndex(0xFFFFFFFF, code)
			assert.Equal(t, EntryCount(code)-1, index, "last bucket for size code %d", code)
		}
	})
}

func TestEntryCount(t *testing.T) {
	t.Run("covers 32 to 1048576 buckets", func(t *testing.T) {
		assert.Equal(t, 32, EntryCount(0), "smallest table")
		assert.Equal(t, 1048576, EntryCount(15), "largest table")
	})
}
