//go:build unit

package flowlookup

import (
	"testing"

	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/gostonefire/flowlookup/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// testTableAddress - DMA address of the hash table in tests
var testTableAddress = interfaces.Address{Addr: 0x100000}

// testFixture - An engine on an emulated device with table 0 installed
type testFixture struct {
	engine  *Engine
	device  *platform.MemDevice
	ht      *platform.MemBuffer
	journal *platform.Journal
	hook    *test.Hook
}

// newEngine - Returns an engine with a null logger, a private registry and no quiescence delay
func newEngine(t *testing.T, modify func(*Config)) (*Engine, *platform.MemDevice, *test.Hook) {
	logger, hook := test.NewNullLogger()

	cfg := DefaultConfig()
	cfg.QuiescenceDelay = 16
	cfg.Logger = logger
	cfg.Registerer = prometheus.NewRegistry()
	if modify != nil {
		modify(&cfg)
	}

	device := platform.NewMemDevice()
	engine, err := NewEngine(device, cfg)
	require.NoError(t, err, "creates engine")

	return engine, device, hook
}

// newFixture - Returns an engine with table 0 of the given size installed with overflowBuckets
// overflow buckets and a base address of 0. The journal is empty on return.
func newFixture(t *testing.T, size TableSize, overflowBuckets int, modify func(*Config)) *testFixture {
	engine, device, hook := newEngine(t, modify)

	count := size.Buckets() + overflowBuckets
	journal := platform.NewJournal()
	ht := platform.NewMemBuffer(count*conf.BucketByteCount).WithJournal(journal, "ht")

	err := engine.HashTableInstall(0, HashTable{
		Buffer:          ht,
		Address:         testTableAddress,
		Size:            size,
		DescriptorCount: count,
	}, true, true)
	require.NoError(t, err, "installs table")
	require.NoError(t, engine.BaseAddressSet(0, interfaces.Address{}), "sets base address")

	journal.Reset()

	return &testFixture{engine: engine, device: device, ht: ht, journal: journal, hook: hook}
}

// flowRecord - Returns a descriptor of a flow record at addr journaled as name
func (F *testFixture) flowRecord(name string, addr uint32) *RecordDescriptor {
	return &RecordDescriptor{
		Buffer:  platform.NewMemBuffer(conf.FlowRecordWordCount * 4).WithJournal(F.journal, name),
		Address: interfaces.Address{Addr: addr},
	}
}

// transformRecord - Returns a descriptor of a transform record at addr
func transformRecord(addr uint32, large bool) *RecordDescriptor {
	words := conf.TransformRecordWordCount
	if large {
		words = conf.TransformRecordLargeWordCount
	}
	return &RecordDescriptor{
		Buffer:  platform.NewMemBuffer(words * 4),
		Address: interfaces.Address{Addr: addr},
	}
}

// idFor - Returns a hash ID selecting bucket b, n makes it unique within the bucket
func idFor(b int, n uint32) hashfunc.FlowID {
	return hashfunc.FlowID{Word32: [4]uint32{uint32(b) << 6, n, ^n, 0x5A5A5A5A}}
}

// isWriteTo - Matches journal writes to the word range [from, to) of buffer
func isWriteTo(buffer string, from, to uint32) func(platform.Entry) bool {
	return func(e platform.Entry) bool {
		return e.Buffer == buffer && e.Op == platform.OpWrite && e.Offset >= from && e.Offset < to
	}
}

// isPublishOf - Matches journal publishes of buffer at byteOffset
func isPublishOf(buffer string, byteOffset uint32) func(platform.Entry) bool {
	return func(e platform.Entry) bool {
		return e.Buffer == buffer && e.Op == platform.OpPublish && e.Offset == byteOffset
	}
}

// fakeCache - Records lookup cache invalidations
type fakeCache struct {
	ids []hashfunc.FlowID
	err error
}

func (F *fakeCache) Invalidate(device interfaces.Device, tableID int, id hashfunc.FlowID) error {
	F.ids = append(F.ids, id)
	return F.err
}

// stuckDevice - A device whose hash base register ignores writes
type stuckDevice struct {
	*platform.MemDevice
}

func (S stuckDevice) Write32(offset uint32, value uint32) {
	if offset == conf.FlueRegHashBaseLo(0) {
		return
	}
	S.MemDevice.Write32(offset, value)
}

// faultyBuffer - A record buffer without a known size whose writes fail
type faultyBuffer struct{}

func (F faultyBuffer) Read32(wordOffset uint32) uint32 { return 0 }
func (F faultyBuffer) Write32(wordOffset uint32, value uint32) {
	panic("record buffer write failed")
}
func (F faultyBuffer) Publish(byteOffset, byteLen uint32) {}
func (F faultyBuffer) Refresh(byteOffset, byteLen uint32) {}
