package hash

import (
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/hashfunc"
)

// InputWordCount - Maximum number of 32-bit words the selectors are reordered into
const InputWordCount = 13

// FlowHash - The flow hash ID calculation used by the classification hardware.
// Word 0 of the ID is a one-at-a-time hash of the input words and words 1..3 are the
// Jenkins 96-bit mix of the same input, both seeded by the engine initialization vector.
type FlowHash struct{}

// NewFlowHash - Returns a pointer to a new FlowHash instance
func NewFlowHash() *FlowHash {
	return &FlowHash{}
}

// HashID - Computes the flow hash ID given the initialization vector and the selectors
func (F *FlowHash) HashID(iv [4]uint32, params hashfunc.SelectorParams) (id hashfunc.FlowID, err error) {
	data, count, err := Reorder(params)
	if err != nil {
		return
	}

	h1, h2, h3, h4 := iv[0], iv[1], iv[2], iv[3]

	p := 0
	for p < count-3 {
		w := data[p]
		h2 ^= w
		h1 = oneAtATime(h1, w)

		w = data[p+1]
		h3 ^= w
		h1 = oneAtATime(h1, w)

		w = data[p+2]
		h4 ^= w
		h1 = oneAtATime(h1, w)

		p += 3
		h2, h3, h4 = mix(h2, h3, h4)
	}

	h1 = oneAtATime(h1, data[p])
	h2 ^= data[p]
	p++
	if p < count {
		h1 = oneAtATime(h1, data[p])
		h3 ^= data[p]
		p++
		if p < count {
			h1 = oneAtATime(h1, data[p])
			h4 ^= data[p]
		}
	}

	id.Word32 = [4]uint32{h1, h2, h3, h4}

	return
}

// Reorder - Lays out the selectors as the hash input words.
//
// It returns:
//   - data holds the input words
//   - count is the number of words used in data
//   - err is an error of type flowerr.ArgumentError if an address has the wrong length for the IP version
func Reorder(params hashfunc.SelectorParams) (data [InputWordCount]uint32, count int, err error) {
	ipLen := 4
	if params.Flags&hashfunc.SelectIPv6 != 0 {
		ipLen = 16
	}
	withSrc := params.SPI == 0 || params.Flags&hashfunc.ESPWithSrc != 0

	if len(params.DstIP) != ipLen {
		err = flowerr.NewArgumentError("destination address must be %d bytes, got %d", ipLen, len(params.DstIP))
		return
	}
	if withSrc && len(params.SrcIP) != ipLen {
		err = flowerr.NewArgumentError("source address must be %d bytes, got %d", ipLen, len(params.SrcIP))
		return
	}

	i := 0
	put := func(w uint32) {
		data[i] = w
		i++
	}

	put(0)
	if params.Flags&hashfunc.SelectIPv6 != 0 {
		put(uint32(params.IPProto)<<8 | 1<<25)
	} else {
		put(uint32(params.IPProto) << 8)
	}
	put(params.SPI)
	put(uint32(params.Epoch))

	switch {
	case params.Flags&hashfunc.SelectCustom != 0:
		put(uint32(params.CustomID))
	case params.SPI == 0:
		put(uint32(params.SrcPort) | uint32(params.DstPort)<<16)
	default:
		put(0)
	}

	putAddress(params.DstIP, put)

	if withSrc {
		putAddress(params.SrcIP, put)
	} else {
		putAddress(nil, put)
	}

	count = i

	return
}

// putAddress - Emits an address as four little endian words, zero padded
func putAddress(ip []byte, put func(uint32)) {
	for w := 0; w < 4; w++ {
		var v uint32
		if w*4+4 <= len(ip) {
			v = uint32(ip[w*4]) | uint32(ip[w*4+1])<<8 | uint32(ip[w*4+2])<<16 | uint32(ip[w*4+3])<<24
		}
		put(v)
	}
}

func oneAtATime(h, w uint32) uint32 {
	h += w
	h += h << 10
	h ^= h >> 6
	return h
}

func mix(a, b, c uint32) (uint32, uint32, uint32) {
	a -= b
	a -= c
	a ^= c >> 13
	b -= c
	b -= a
	b ^= a << 8
	c -= a
	c -= b
	c ^= b >> 13
	a -= b
	a -= c
	a ^= c >> 12
	b -= c
	b -= a
	b ^= a << 16
	c -= a
	c -= b
	c ^= b >> 5
	a -= b
	a -= c
	a ^= c >> 3
	b -= c
	b -= a
	b ^= a << 10
	c -= a
	c -= b
	c ^= b >> 15
	return a, b, c
}
