package interfaces

import "github.com/gostonefire/flowlookup/hashfunc"

// Address - A 64-bit DMA bus address split in two 32-bit halves
type Address struct {
	Addr      uint32
	UpperAddr uint32
}

// Device - Register access to a classification device
type Device interface {
	// Read32 - Reads the register at byte offset
	Read32(offset uint32) uint32
	// Write32 - Writes value to the register at byte offset
	Write32(offset uint32, value uint32)
}

// DMABuffer - Host view of a buffer shared with the device.
// A byteLen of 0 in Publish and Refresh means the whole buffer.
type DMABuffer interface {
	// Read32 - Reads the 32-bit word at wordOffset
	Read32(wordOffset uint32) uint32
	// Write32 - Writes value to the 32-bit word at wordOffset
	Write32(wordOffset uint32, value uint32)
	// Publish - Makes host writes in the range visible to the device
	Publish(byteOffset, byteLen uint32)
	// Refresh - Makes device writes in the range visible to the host
	Refresh(byteOffset, byteLen uint32)
}

// Sizer - Optionally implemented by a DMABuffer to let its size in bytes be verified
type Sizer interface {
	Size() int
}

// LookupCache - Invalidation of flow lookup results cached by the device
type LookupCache interface {
	// Invalidate - Drops any cached lookup result for id in hash table tableID
	Invalidate(device Device, tableID int, id hashfunc.FlowID) error
}
