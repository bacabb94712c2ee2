package flowlookup

import (
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/gostonefire/flowlookup/internal/overflow"
	"github.com/gostonefire/flowlookup/internal/storage/bucket"
)

// TableStats - Statistics on the usage of a hash table
//   - Records is the total number of records
//   - PrimaryRecords is the number of records held by primary buckets
//   - OverflowRecords is the number of records held by overflow buckets
//   - OverflowBuckets is the number of overflow buckets chained below primary buckets
//   - FreeOverflowBuckets is the number of overflow buckets left on the free list
//   - LongestChain is the largest number of buckets in one chain, primary bucket included
//   - BucketDistribution is the number of records per primary bucket, its overflow buckets included
type TableStats struct {
	Records             int
	PrimaryRecords      int
	OverflowRecords     int
	OverflowBuckets     int
	FreeOverflowBuckets int
	LongestChain        int
	BucketDistribution  []int
}

// SlotContents - Decoded record slot of a bucket
type SlotContents struct {
	InUse        bool
	HashID       hashfunc.FlowID
	RecordOffset uint32
	RecordType   RecordType
}

// BucketContents - Decoded on-device bucket together with its host bookkeeping
type BucketContents struct {
	Descriptor     int
	ByteOffset     uint32
	Overflow       bool
	RecordCount    int
	Slots          [conf.RecordsPerBucket]SlotContents
	HasOverflow    bool
	OverflowOffset uint32
}

// Stats - Walks all bucket chains of a hash table and returns usage statistics
func (E *Engine) Stats(tableID int) (stats TableStats, err error) {
	t, err := E.installedTable(tableID)
	if err != nil {
		return
	}

	stats.FreeOverflowBuckets = t.dt.FreeCount()
	stats.BucketDistribution = make([]int, t.dt.EntryCount())

	for p := 0; p < t.dt.EntryCount(); p++ {
		chain := 0
		it := overflow.NewBuckets(t.dt, int32(p))
		for it.HasNext() {
			_, d, err := it.Next()
			if err != nil {
				return stats, err
			}
			chain++
			stats.BucketDistribution[p] += d.RecordCount
			if d.Overflow {
				stats.OverflowBuckets++
				stats.OverflowRecords += d.RecordCount
			} else {
				stats.PrimaryRecords += d.RecordCount
			}
		}
		if chain > stats.LongestChain {
			stats.LongestChain = chain
		}
	}
	stats.Records = stats.PrimaryRecords + stats.OverflowRecords

	return
}

// Bucket - Decodes a primary bucket and the overflow buckets chained below it
func (E *Engine) Bucket(tableID int, index int) (chain []BucketContents, err error) {
	t, err := E.installedTable(tableID)
	if err != nil {
		return
	}
	if index < 0 || index >= t.dt.EntryCount() {
		err = flowerr.NewArgumentError("bucket index %d out of range 0..%d", index, t.dt.EntryCount()-1)
		return
	}

	it := overflow.NewBuckets(t.dt, int32(index))
	for it.HasNext() {
		i, d, nerr := it.Next()
		if nerr != nil {
			err = nerr
			return
		}

		b := bucket.Decode(t.buffer, d.BucketOffset)
		c := BucketContents{
			Descriptor:     int(i),
			ByteOffset:     b.ByteOffset,
			Overflow:       d.Overflow,
			RecordCount:    d.RecordCount,
			HasOverflow:    b.HasOverflow,
			OverflowOffset: b.OverflowOffset,
		}
		for s, slot := range b.Slots {
			c.Slots[s] = SlotContents{
				InUse:        slot.RecordType != conf.TypeDummy,
				HashID:       slot.HashID,
				RecordOffset: slot.RecordOffset,
				RecordType:   recordTypeOf(slot.RecordType),
			}
		}
		chain = append(chain, c)
	}

	return
}

// Check - Verifies the host bookkeeping of a hash table
func (E *Engine) Check(tableID int) (err error) {
	t, err := E.installedTable(tableID)
	if err != nil {
		return
	}
	return t.dt.Check()
}

// recordTypeOf - Maps a pointer word tag to a record type
func recordTypeOf(tag uint32) RecordType {
	switch tag {
	case conf.TypeFlow:
		return RecordFlow
	case conf.TypeTransform:
		return RecordTransform
	case conf.TypeTransformLarge:
		return RecordTransformLarge
	}
	return RecordInvalid
}
