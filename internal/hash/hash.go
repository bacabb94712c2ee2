package hash

import "github.com/gostonefire/flowlookup/internal/conf"

// bucketAlignMask - Clears the bits of a hash word below the bucket alignment
const bucketAlignMask uint32 = ^uint32(conf.BucketByteCount - 1)

// BucketOffsetAndIndex - Maps hash ID word 0 to a bucket in a table of the given size code.
// The low 6 bits of the word are dropped and the rest is masked to the table byte size.
//   - word0 is the first word of the flow hash ID
//   - sizeCode is the table size code 0..15
//
// It returns:
//   - byteOffset is the byte offset of the bucket in the on-device table
//   - index is the index of the primary descriptor of the bucket
func BucketOffsetAndIndex(word0 uint32, sizeCode uint32) (byteOffset uint32, index int) {
	mask := uint32(1)<<(sizeCode+11) - 1
	byteOffset = word0 & bucketAlignMask & mask
	index = int(byteOffset / conf.BucketByteCount)

	return
}

// EntryCount - Returns the number of buckets in a table of the given size code
func EntryCount(sizeCode uint32) int {
	return 1 << (sizeCode + 5)
}
