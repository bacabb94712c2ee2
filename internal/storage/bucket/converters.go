package bucket

import (
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/gostonefire/flowlookup/internal/model"
)

// wordOffset - Returns the DMA buffer word offset of word w in the bucket at byteOffset
func wordOffset(byteOffset uint32, w int) uint32 {
	return byteOffset/4 + uint32(w)
}

// hashIDWord - Word offset within a bucket of hash ID word i of slot
func hashIDWord(slot, i int) int {
	return conf.BucketHashIDWordOffset + (slot-1)*conf.HashIDWordCount + i
}

// recordWord - Word offset within a bucket of the record pointer of slot
func recordWord(slot int) int {
	return conf.BucketRecordWordOffset + slot - 1
}

// readHashID - Reads the hash ID of slot
func readHashID(ht interfaces.DMABuffer, byteOffset uint32, slot int) (id hashfunc.FlowID) {
	for i := 0; i < conf.HashIDWordCount; i++ {
		id.Word32[i] = ht.Read32(wordOffset(byteOffset, hashIDWord(slot, i)))
	}
	return
}

// writeHashID - Writes the hash ID of slot
func writeHashID(ht interfaces.DMABuffer, byteOffset uint32, slot int, id hashfunc.FlowID) {
	for i := 0; i < conf.HashIDWordCount; i++ {
		ht.Write32(wordOffset(byteOffset, hashIDWord(slot, i)), id.Word32[i])
	}
}

// Decode - Reads and decodes the bucket at byteOffset
func Decode(ht interfaces.DMABuffer, byteOffset uint32) (b model.Bucket) {
	b.ByteOffset = byteOffset
	for s := 1; s <= conf.RecordsPerBucket; s++ {
		w := ht.Read32(wordOffset(byteOffset, recordWord(s)))
		b.Slots[s-1] = model.Slot{
			HashID:       readHashID(ht, byteOffset, s),
			RecordOffset: w &^ conf.RecordTypeMask,
			RecordType:   w & conf.RecordTypeMask,
		}
	}

	ovfl := ht.Read32(wordOffset(byteOffset, conf.BucketOverflowWordOffset))
	if ovfl != conf.RecordDummyAddress {
		b.HasOverflow = true
		b.OverflowOffset = ovfl &^ conf.RecordTypeMask
	}

	return
}
