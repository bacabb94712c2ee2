package utils

import "github.com/gostonefire/flowlookup/interfaces"

// read64Attempts - Number of times a torn 64-bit read is retried before the last value is accepted
const read64Attempts = 3

// Read64 - Reads a 64-bit counter kept in two words that the device may update while it is read.
// The high word is read before and after the low word and the read is repeated while they differ.
func Read64(buf interfaces.DMABuffer, loOffset, hiOffset int) (value uint64) {
	var lo, hi uint32
	for i := 0; i < read64Attempts; i++ {
		hi = buf.Read32(uint32(hiOffset))
		lo = buf.Read32(uint32(loOffset))
		if buf.Read32(uint32(hiOffset)) == hi {
			break
		}
	}

	return Combine64(lo, hi)
}

// Combine64 - Returns the 64-bit value of a low and a high word
func Combine64(lo, hi uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

// Address64 - Returns the 64-bit value of a DMA address
func Address64(a interfaces.Address) uint64 {
	return Combine64(a.Addr, a.UpperAddr)
}

// Is32BitAddressable - Returns true if addr lies within the 4 GiB window starting at base
func Is32BitAddressable(base, addr interfaces.Address) bool {
	b, a := Address64(base), Address64(addr)
	return a >= b && a-b <= 0xFFFFFFFF
}
