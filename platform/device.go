package platform

import (
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
)

// flueVersion - Version field reported by the emulated FLUE next to its signature
const flueVersion uint32 = 0x0201 << 16

// MemDevice - A register file emulating the FLUE, flow hash and lookup cache registers of a
// classification device. Registers hold whatever was last written to them.
type MemDevice struct {
	regs map[uint32]uint32
}

// NewMemDevice - Returns a pointer to a new MemDevice reporting the FLUE signature
func NewMemDevice() *MemDevice {
	d := &MemDevice{regs: make(map[uint32]uint32)}
	d.regs[conf.FlueRegVersion] = flueVersion | conf.FlueSignature
	return d
}

// Read32 - Reads the register at offset
func (M *MemDevice) Read32(offset uint32) uint32 {
	return M.regs[offset]
}

// Write32 - Writes value to the register at offset
func (M *MemDevice) Write32(offset uint32, value uint32) {
	M.regs[offset] = value
}

// SetIV - Installs the flow hash initialization vector, as the global classification setup would
func (M *MemDevice) SetIV(iv [4]uint32) {
	for i, w := range iv {
		M.regs[conf.FHashRegIV(i)] = w
	}
}

// RegisterCache - Lookup cache invalidation through the FLUEC registers of the device
type RegisterCache struct{}

// Invalidate - Writes the hash ID to the key registers and starts an invalidation for tableID
func (R RegisterCache) Invalidate(device interfaces.Device, tableID int, id hashfunc.FlowID) error {
	for i, w := range id.Word32 {
		device.Write32(conf.FluecRegKey(i), w)
	}
	device.Write32(conf.FluecRegInvalidate, conf.FluecInvalidateStart|uint32(tableID))
	return nil
}
