//go:build unix

package platform

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MappedBuffer - A DMA buffer backed by a shared memory mapping of a file.
// Publish flushes the touched pages with msync so that another process mapping the same
// file, such as a device model, sees a consistent view.
type MappedBuffer struct {
	f    *os.File
	data []byte
	err  error
}

// OpenMappedBuffer - Maps byteSize bytes of the file at path, creating or growing the file as needed
func OpenMappedBuffer(path string, byteSize int) (buffer *MappedBuffer, err error) {
	if byteSize <= 0 || byteSize%4 != 0 {
		err = fmt.Errorf("mapped buffer size must be a positive multiple of 4, got %d", byteSize)
		return
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		err = fmt.Errorf("error while opening mapped buffer file: %s", err)
		return
	}

	if err = f.Truncate(int64(byteSize)); err != nil {
		_ = f.Close()
		err = fmt.Errorf("error while sizing mapped buffer file: %s", err)
		return
	}

	data, err := unix.Mmap(int(f.Fd()), 0, byteSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		err = fmt.Errorf("error while mapping buffer file: %s", err)
		return
	}

	buffer = &MappedBuffer{f: f, data: data}

	return
}

// Close - Unmaps the buffer and closes the file
func (M *MappedBuffer) Close() (err error) {
	if M.data != nil {
		err = unix.Munmap(M.data)
		M.data = nil
	}
	if cerr := M.f.Close(); err == nil {
		err = cerr
	}
	return
}

// Size - Returns the size of the buffer in bytes
func (M *MappedBuffer) Size() int {
	return len(M.data)
}

// Err - Returns the first error met by Publish or Refresh
func (M *MappedBuffer) Err() error {
	return M.err
}

// Read32 - Reads the word at wordOffset
func (M *MappedBuffer) Read32(wordOffset uint32) uint32 {
	return binary.LittleEndian.Uint32(M.data[wordOffset*4:])
}

// Write32 - Writes value to the word at wordOffset
func (M *MappedBuffer) Write32(wordOffset uint32, value uint32) {
	binary.LittleEndian.PutUint32(M.data[wordOffset*4:], value)
}

// Publish - Flushes the pages covering the range
func (M *MappedBuffer) Publish(byteOffset, byteLen uint32) {
	M.sync(byteOffset, byteLen, unix.MS_SYNC)
}

// Refresh - Invalidates cached pages covering the range
func (M *MappedBuffer) Refresh(byteOffset, byteLen uint32) {
	M.sync(byteOffset, byteLen, unix.MS_INVALIDATE)
}

func (M *MappedBuffer) sync(byteOffset, byteLen uint32, flags int) {
	start, end := int(byteOffset), len(M.data)
	if byteLen != 0 && int(byteOffset+byteLen) < end {
		end = int(byteOffset + byteLen)
	}
	start &^= unix.Getpagesize() - 1
	if start >= end {
		return
	}

	if err := unix.Msync(M.data[start:end], flags); err != nil && M.err == nil {
		M.err = fmt.Errorf("error while syncing mapped buffer: %s", err)
	}
}
