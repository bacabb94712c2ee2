package descriptor

import (
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/internal/conf"
)

// Check - Verifies the table bookkeeping.
// Every slot mask must agree with its record count, every overflow descriptor must be on exactly
// one of the free list or a bucket chain, and all links must be mirrored by their neighbours.
// It returns an error of type flowerr.InternalError describing the first violation found.
func (T *Table) Check() (err error) {
	for i := range T.descs {
		d := &T.descs[i]
		if d.RecordCount < 0 || d.RecordCount > conf.RecordsPerBucket {
			return flowerr.NewInternalError("descriptor %d has record count %d", i, d.RecordCount)
		}
		if d.UsedSlots&^slotMaskAll != 0 || d.UsedSlots.Count() != d.RecordCount {
			return flowerr.NewInternalError("descriptor %d slot mask %#x does not match record count %d",
				i, uint8(d.UsedSlots), d.RecordCount)
		}
	}

	seen := make([]bool, len(T.descs))

	n := 0
	prev := None
	for i := T.freeHead; i != None; i = T.descs[i].next {
		if !T.Valid(i) || seen[i] {
			return flowerr.NewInternalError("free list broken at descriptor %d", i)
		}
		seen[i] = true
		d := &T.descs[i]
		if !d.Overflow || d.Membership != FreeList || d.RecordCount != 0 || d.prev != prev {
			return flowerr.NewInternalError("descriptor %d does not belong on the free list", i)
		}
		prev = i
		n++
	}
	if n != T.freeCount {
		return flowerr.NewInternalError("free list holds %d descriptors, expected %d", n, T.freeCount)
	}

	for p := int32(0); p < int32(T.entryCount); p++ {
		head := &T.descs[p]
		if head.Overflow || head.Membership != Unlinked || head.prev != None {
			return flowerr.NewInternalError("primary descriptor %d is linked as an overflow bucket", p)
		}

		prev = p
		for i := head.next; i != None; i = T.descs[i].next {
			if !T.Valid(i) || seen[i] {
				return flowerr.NewInternalError("chain of bucket %d broken at descriptor %d", p, i)
			}
			seen[i] = true
			d := &T.descs[i]
			if !d.Overflow || d.Membership != Chain || d.prev != prev || d.RecordCount == 0 {
				return flowerr.NewInternalError("descriptor %d does not belong in the chain of bucket %d", i, p)
			}
			prev = i
		}
	}

	for i := T.entryCount; i < len(T.descs); i++ {
		if !seen[i] {
			return flowerr.NewInternalError("overflow descriptor %d is on no list", i)
		}
	}

	return
}
