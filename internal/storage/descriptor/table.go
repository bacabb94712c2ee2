package descriptor

import (
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/internal/conf"
)

// None - Link value of a descriptor that has no neighbour
const None int32 = -1

// Membership - Which list an overflow descriptor is on
type Membership uint8

const (
	// Unlinked - On no list. Always the case for primary descriptors, which anchor their chain.
	Unlinked Membership = iota
	// FreeList - Unused overflow descriptor
	FreeList
	// Chain - Overflow descriptor linked below a primary bucket
	Chain
)

// Descriptor - Host side bookkeeping of one on-device bucket
type Descriptor struct {
	BucketOffset uint32
	RecordCount  int
	Overflow     bool
	UsedSlots    SlotMask
	Membership   Membership
	prev         int32
	next         int32
}

// Table - The descriptor arena. The first EntryCount descriptors are the primary buckets,
// the rest is the overflow pool. Links are indices into the arena.
// A Table is not safe for concurrent use.
type Table struct {
	descs      []Descriptor
	entryCount int
	freeHead   int32
	freeCount  int
}

// NewTable - Returns a pointer to a new, reset Table
//   - entryCount is the number of primary buckets
//   - descriptorCount is the total number of descriptors, primary buckets plus overflow pool
//
// It returns:
//   - table is the new Table
//   - err is an error of type flowerr.ArgumentError if descriptorCount is less than entryCount
func NewTable(entryCount, descriptorCount int) (table *Table, err error) {
	if entryCount <= 0 || descriptorCount < entryCount {
		err = flowerr.NewArgumentError("descriptor count %d must cover %d buckets", descriptorCount, entryCount)
		return
	}

	table = &Table{
		descs:      make([]Descriptor, descriptorCount),
		entryCount: entryCount,
	}
	table.Reset()

	return
}

// Reset - Empties every bucket and puts every overflow descriptor on the free list in index order
func (T *Table) Reset() {
	T.freeHead = None
	T.freeCount = 0

	for i := range T.descs {
		T.descs[i] = Descriptor{
			BucketOffset: uint32(i) * conf.BucketByteCount,
			Overflow:     i >= T.entryCount,
			prev:         None,
			next:         None,
		}
	}

	last := None
	for i := int32(T.entryCount); i < int32(len(T.descs)); i++ {
		T.descs[i].Membership = FreeList
		T.descs[i].prev = last
		if last == None {
			T.freeHead = i
		} else {
			T.descs[last].next = i
		}
		last = i
		T.freeCount++
	}
}

// Len - Returns the total number of descriptors
func (T *Table) Len() int {
	return len(T.descs)
}

// EntryCount - Returns the number of primary buckets
func (T *Table) EntryCount() int {
	return T.entryCount
}

// FreeCount - Returns the number of overflow descriptors on the free list
func (T *Table) FreeCount() int {
	return T.freeCount
}

// FreeHead - Returns the index of the free list head, None if the list is empty
func (T *Table) FreeHead() int32 {
	return T.freeHead
}

// Get - Returns the descriptor at index i
func (T *Table) Get(i int32) *Descriptor {
	return &T.descs[i]
}

// Valid - Returns true if i addresses a descriptor
func (T *Table) Valid(i int32) bool {
	return i >= 0 && int(i) < len(T.descs)
}

// Prev - Returns the index preceding i
func (T *Table) Prev(i int32) int32 {
	return T.descs[i].prev
}

// SetPrev - Sets the index preceding i
func (T *Table) SetPrev(i, prev int32) {
	T.descs[i].prev = prev
}

// Next - Returns the index following i
func (T *Table) Next(i int32) int32 {
	return T.descs[i].next
}

// SetNext - Sets the index following i
func (T *Table) SetNext(i, next int32) {
	T.descs[i].next = next
}

// Remove - Takes node out of its list, relinking its neighbours and clearing its own links
func (T *Table) Remove(node int32) {
	prev, next := T.descs[node].prev, T.descs[node].next
	if prev != None {
		T.descs[prev].next = next
	}
	if next != None {
		T.descs[next].prev = prev
	}
	T.descs[node].prev = None
	T.descs[node].next = None
}

// InsertAfter - Splices node into a list directly after anchor
func (T *Table) InsertAfter(anchor, node int32) {
	next := T.descs[anchor].next
	T.descs[node].prev = anchor
	T.descs[node].next = next
	if next != None {
		T.descs[next].prev = node
	}
	T.descs[anchor].next = node
}

// PopFree - Takes one overflow descriptor off the free list.
// The head itself is only taken when it is the last descriptor on the list.
//
// It returns:
//   - index is the index of the descriptor taken, unlinked
//   - err is an error of type flowerr.OutOfMemory if the free list is empty
func (T *Table) PopFree() (index int32, err error) {
	if T.freeHead == None {
		err = flowerr.NewOutOfMemory("no overflow bucket left")
		return
	}

	if T.descs[T.freeHead].next == None {
		index = T.freeHead
		T.freeHead = None
	} else {
		index = T.descs[T.freeHead].next
		T.Remove(index)
	}

	T.descs[index].Membership = Unlinked
	T.freeCount--

	return
}

// PushFree - Returns an unlinked overflow descriptor to the free list
func (T *Table) PushFree(index int32) (err error) {
	d := &T.descs[index]
	if !d.Overflow || d.Membership != Unlinked {
		err = flowerr.NewInternalError("descriptor %d can not be returned to the free list", index)
		return
	}

	if T.freeHead == None {
		d.prev = None
		d.next = None
		T.freeHead = index
	} else {
		T.InsertAfter(T.freeHead, index)
	}

	d.Membership = FreeList
	T.freeCount++

	return
}

// ChainAppend - Links an unlinked overflow descriptor as the successor of tail in a bucket chain
func (T *Table) ChainAppend(tail, node int32) (err error) {
	d := &T.descs[node]
	if !d.Overflow || d.Membership != Unlinked {
		err = flowerr.NewInternalError("descriptor %d can not be chained", node)
		return
	}
	if T.descs[tail].next != None {
		err = flowerr.NewInternalError("descriptor %d is not the tail of its chain", tail)
		return
	}

	T.InsertAfter(tail, node)
	d.Membership = Chain

	return
}

// ChainUnlink - Takes an overflow descriptor out of its bucket chain
func (T *Table) ChainUnlink(node int32) (err error) {
	d := &T.descs[node]
	if d.Membership != Chain {
		err = flowerr.NewInternalError("descriptor %d is not chained", node)
		return
	}

	T.Remove(node)
	d.Membership = Unlinked

	return
}
