//go:build unit

package platform

import (
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestMemBuffer(t *testing.T) {
	t.Run("journals accesses across buffers in order", func(t *testing.T) {
		// Prepare
		j := NewJournal()
		a := NewMemBuffer(64).WithJournal(j, "a")
		b := NewMemBuffer(64).WithJournal(j, "b")

		// Execute
		a.Write32(1, 7)
		a.Publish(0, 0)
		b.Write32(2, 9)
		b.Refresh(4, 8)

		// Check
		e := j.Entries()
		assert.Len(t, e, 4, "four accesses")
		assert.Equal(t, Entry{Buffer: "a", Op: OpWrite, Offset: 1, Value: 7}, e[0], "first write")
		assert.Equal(t, Entry{Buffer: "a", Op: OpPublish}, e[1], "publish")
		assert.Equal(t, OpRefresh, e[3].Op, "refresh last")
		assert.Equal(t, uint32(7), a.Read32(1), "value stored")
		assert.Equal(t, 2, j.Index(0, func(e Entry) bool { return e.Buffer == "b" }), "first access of b")
		assert.Equal(t, 1, j.LastIndex(func(e Entry) bool { return e.Op == OpPublish }), "last publish")
	})

	t.Run("poke is not journaled", func(t *testing.T) {
		// Prepare
		j := NewJournal()
		a := NewMemBuffer(8).WithJournal(j, "a")

		// Execute
		a.Poke(1, 3)

		// Check
		assert.Empty(t, j.Entries(), "nothing journaled")
		assert.Equal(t, uint32(3), a.Read32(1), "value stored")
		assert.Equal(t, 8, a.Size(), "size in bytes")
	})
}

func TestMemDevice(t *testing.T) {
	t.Run("reports the signature and holds register values", func(t *testing.T) {
		// Prepare
		d := NewMemDevice()

		// Execute
		d.Write32(conf.FlueRegHashBaseLo(0), 0x1000)
		d.SetIV([4]uint32{1, 2, 3, 4})

		// Check
		assert.Equal(t, conf.FlueSignature, d.Read32(conf.FlueRegVersion)&0xFFFF, "signature present")
		assert.Equal(t, uint32(0x1000), d.Read32(conf.FlueRegHashBaseLo(0)), "register holds value")
		assert.Equal(t, uint32(3), d.Read32(conf.FHashRegIV(2)), "iv installed")
	})
}

func TestRegisterCache_Invalidate(t *testing.T) {
	t.Run("writes key and command registers", func(t *testing.T) {
		// Prepare
		d := NewMemDevice()
		id := hashfunc.FlowID{Word32: [4]uint32{0x40, 2, 3, 4}}

		// Execute
		err := RegisterCache{}.Invalidate(d, 1, id)

		// Check
		assert.NoError(t, err, "invalidates")
		assert.Equal(t, uint32(0x40), d.Read32(conf.FluecRegKey(0)), "key word 0")
		assert.Equal(t, uint32(4), d.Read32(conf.FluecRegKey(3)), "key word 3")
		assert.Equal(t, conf.FluecInvalidateStart|1, d.Read32(conf.FluecRegInvalidate), "command with table id")
	})
}
