//go:build !unix

package platform

import "github.com/gostonefire/flowlookup/flowerr"

// MappedBuffer - Not available on this platform
type MappedBuffer struct{}

// OpenMappedBuffer - Always fails on this platform
func OpenMappedBuffer(path string, byteSize int) (buffer *MappedBuffer, err error) {
	err = flowerr.NewUnsupportedFeature("mapped buffers are not supported on this platform")
	return
}

func (M *MappedBuffer) Close() error                         { return nil }
func (M *MappedBuffer) Size() int                            { return 0 }
func (M *MappedBuffer) Err() error                           { return nil }
func (M *MappedBuffer) Read32(wordOffset uint32) uint32      { return 0 }
func (M *MappedBuffer) Write32(wordOffset uint32, value uint32) {}
func (M *MappedBuffer) Publish(byteOffset, byteLen uint32)   {}
func (M *MappedBuffer) Refresh(byteOffset, byteLen uint32)   {}
