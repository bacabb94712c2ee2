package descriptor

import (
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/internal/conf"
	"math/bits"
)

// SlotMask - Bit s-1 is set when record slot s (1..3) of a bucket is in use
type SlotMask uint8

// slotMaskAll - All record slots in use
const slotMaskAll SlotMask = 1<<conf.RecordsPerBucket - 1

// SlotGet - Allocates the lowest free slot in mask.
//
// It returns:
//   - newMask is mask with the allocated slot set
//   - slot is the allocated slot number 1..3
//   - err is an error of type flowerr.InternalError if all slots are in use
func SlotGet(mask SlotMask) (newMask SlotMask, slot int, err error) {
	if mask&slotMaskAll == slotMaskAll {
		err = flowerr.NewInternalError("no free record slot in mask %#x", uint8(mask))
		return
	}

	for s := 1; s <= conf.RecordsPerBucket; s++ {
		bit := SlotMask(1) << (s - 1)
		if mask&bit == 0 {
			newMask = mask | bit
			slot = s
			return
		}
	}

	return
}

// SlotPut - Releases slot in mask
//
// It returns:
//   - newMask is mask with slot cleared
//   - err is an error of type flowerr.InternalError if slot is not in 1..3
func SlotPut(mask SlotMask, slot int) (newMask SlotMask, err error) {
	if slot < 1 || slot > conf.RecordsPerBucket {
		err = flowerr.NewInternalError("record slot %d out of range", slot)
		return
	}

	newMask = mask &^ (SlotMask(1) << (slot - 1))

	return
}

// Count - Returns the number of slots in use
func (S SlotMask) Count() int {
	return bits.OnesCount8(uint8(S))
}

// Has - Returns true if slot is in use
func (S SlotMask) Has(slot int) bool {
	return slot >= 1 && slot <= conf.RecordsPerBucket && S&(SlotMask(1)<<(slot-1)) != 0
}
