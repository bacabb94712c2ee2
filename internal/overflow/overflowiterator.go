package overflow

import (
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/internal/storage/descriptor"
)

// Buckets - Is used to iterate over the buckets of a chain one by one, starting with the primary bucket.
type Buckets struct {
	table *descriptor.Table
	next  int32
	steps int
}

// NewBuckets - Returns a pointer to a new Buckets iterator over the chain anchored at primary
func NewBuckets(table *descriptor.Table, primary int32) *Buckets {
	return &Buckets{
		table: table,
		next:  primary,
	}
}

// HasNext - Returns true if there are more buckets to be fetched from a call to Next.
func (O *Buckets) HasNext() bool {
	return O.next != descriptor.None
}

// Next - Returns the next bucket of the chain.
// It returns:
//   - index is the descriptor index of the bucket
//   - desc is the descriptor of the bucket
//   - err is an error of type flowerr.InternalError if the chain is exhausted, leaves the table or is longer than the table.
func (O *Buckets) Next() (index int32, desc *descriptor.Descriptor, err error) {
	if O.next == descriptor.None {
		err = flowerr.NewInternalError("no more buckets in chain")
		return
	}
	if !O.table.Valid(O.next) || O.steps >= O.table.Len() {
		err = flowerr.NewInternalError("chain broken at descriptor %d", O.next)
		return
	}

	index = O.next
	desc = O.table.Get(index)
	O.next = O.table.Next(index)
	O.steps++

	return
}
