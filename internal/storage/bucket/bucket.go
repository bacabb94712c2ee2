package bucket

import (
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
)

// Reset - Writes the dummy value to every word of bucketCount buckets and publishes the whole buffer
func Reset(ht interfaces.DMABuffer, bucketCount int) {
	words := uint32(bucketCount * conf.BucketWordCount)
	for w := uint32(0); w < words; w++ {
		ht.Write32(w, conf.RecordDummyAddress)
	}
	ht.Publish(0, 0)
}

// RecordAdd - Makes a record reachable from the bucket at byteOffset.
// The hash ID is written before the tagged record pointer and the bucket is published last.
//   - slot is the record slot 1..3
//   - recordOffset is the record byte offset from the record base address
//   - recordType is one of the conf.Type* tags
//   - id is the flow hash ID of the record
func RecordAdd(ht interfaces.DMABuffer, byteOffset uint32, slot int, recordOffset, recordType uint32, id hashfunc.FlowID) {
	writeHashID(ht, byteOffset, slot, id)
	ht.Write32(wordOffset(byteOffset, recordWord(slot)), recordOffset|recordType)
	ht.Publish(byteOffset, conf.BucketByteCount)
}

// RecordRemove - Makes the record in slot unreachable and clears its hash ID.
//
// It returns:
//   - old is the hash ID the slot held
func RecordRemove(ht interfaces.DMABuffer, byteOffset uint32, slot int) (old hashfunc.FlowID) {
	ht.Write32(wordOffset(byteOffset, recordWord(slot)), conf.RecordDummyAddress)
	old = readHashID(ht, byteOffset, slot)
	writeHashID(ht, byteOffset, slot, hashfunc.FlowID{})
	ht.Publish(byteOffset, conf.BucketByteCount)

	return
}

// RecordWord - Returns the tagged record pointer of slot
func RecordWord(ht interfaces.DMABuffer, byteOffset uint32, slot int) uint32 {
	return ht.Read32(wordOffset(byteOffset, recordWord(slot)))
}

// HashID - Returns the hash ID stored in slot
func HashID(ht interfaces.DMABuffer, byteOffset uint32, slot int) hashfunc.FlowID {
	return readHashID(ht, byteOffset, slot)
}

// Overflow - Returns the overflow pointer word of the bucket
func Overflow(ht interfaces.DMABuffer, byteOffset uint32) uint32 {
	return ht.Read32(wordOffset(byteOffset, conf.BucketOverflowWordOffset))
}

// SetOverflow - Writes and publishes the overflow pointer word of the bucket
func SetOverflow(ht interfaces.DMABuffer, byteOffset uint32, value uint32) {
	ht.Write32(wordOffset(byteOffset, conf.BucketOverflowWordOffset), value)
	ht.Publish(byteOffset, conf.BucketByteCount)
}

// OverflowPointer - Returns the overflow word referencing the bucket at nextByteOffset
func OverflowPointer(nextByteOffset uint32) uint32 {
	return nextByteOffset | conf.TypeTransform
}

// IsFlowType - Returns true for the flow record tag
func IsFlowType(recordType uint32) bool {
	return recordType == conf.TypeFlow
}

// FindHashID - Looks for a record of the same class (flow or transform) with hash ID id in the bucket.
//
// It returns:
//   - slot is the slot holding the match, 0 if none
func FindHashID(ht interfaces.DMABuffer, byteOffset uint32, recordType uint32, id hashfunc.FlowID) (slot int) {
	for s := 1; s <= conf.RecordsPerBucket; s++ {
		w := RecordWord(ht, byteOffset, s)
		t := w & conf.RecordTypeMask
		if t == conf.TypeDummy || IsFlowType(t) != IsFlowType(recordType) {
			continue
		}
		if readHashID(ht, byteOffset, s) == id {
			return s
		}
	}
	return 0
}
