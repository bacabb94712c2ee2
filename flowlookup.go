package flowlookup

import (
	"unsafe"

	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/gostonefire/flowlookup/internal/fsm"
	"github.com/gostonefire/flowlookup/internal/hash"
	"github.com/gostonefire/flowlookup/internal/logfields"
	"github.com/gostonefire/flowlookup/internal/storage/bucket"
	"github.com/gostonefire/flowlookup/internal/storage/descriptor"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TableSize - Hash table size code, the table holds 1<<(code+5) primary buckets
type TableSize uint32

const (
	TableSize32 TableSize = iota
	TableSize64
	TableSize128
	TableSize256
	TableSize512
	TableSize1K
	TableSize2K
	TableSize4K
	TableSize8K
	TableSize16K
	TableSize32K
	TableSize64K
	TableSize128K
	TableSize256K
	TableSize512K
	TableSize1M
)

// Buckets - Returns the number of primary buckets of a table of this size
func (T TableSize) Buckets() int {
	return hash.EntryCount(uint32(T))
}

// HashTable - Describes the DMA memory of a hash table to install
//   - Buffer is the host view of the on-device bucket array, it must hold DescriptorCount buckets
//   - Address is the DMA address of the bucket array, 64 byte aligned
//   - Size is the number of primary buckets
//   - DescriptorCount is the number of primary buckets plus the number of overflow buckets
type HashTable struct {
	Buffer          interfaces.DMABuffer
	Address         interfaces.Address
	Size            TableSize
	DescriptorCount int
}

// hashTable - Parameters of one installed hash table
type hashTable struct {
	installed    bool
	buffer       interfaces.DMABuffer
	address      interfaces.Address
	sizeCode     uint32
	dt           *descriptor.Table
	base         interfaces.Address
	lookupCached bool
	records      int
}

// Engine - Manages the flow lookup hash tables of one classification device.
// An Engine is not safe for concurrent use, all calls must be serialized by the caller.
// Separate engines share nothing and can be driven concurrently.
type Engine struct {
	device  interfaces.Device
	conf    Config
	hasher  hashfunc.Hasher
	tables  []hashTable
	records int
	state   *fsm.Tracker
	log     logrus.FieldLogger
	metrics *engineMetrics
}

// NewEngine - Returns a new Engine for the device after verifying that the flow lookup hardware is present.
//   - device gives register access to the classification device
//   - config is the runtime configuration, start from DefaultConfig
//
// It returns:
//   - engine is a pointer to the Engine
//   - err is of type flowerr.UnsupportedFeature if no flow lookup hardware is found, flowerr.ArgumentError on bad configuration
func NewEngine(device interfaces.Device, config Config) (engine *Engine, err error) {
	if device == nil {
		err = flowerr.NewArgumentError("device is required")
		return
	}
	if err = config.validate(); err != nil {
		return
	}

	if !detect(device) {
		err = flowerr.NewUnsupportedFeature("flow lookup engine not found")
		return
	}

	metrics, err := newEngineMetrics(config.Name, config.Registerer)
	if err != nil {
		err = errors.Wrap(err, "unable to register engine metrics")
		return
	}

	hasher := config.Hasher
	if hasher == nil {
		hasher = hash.NewFlowHash()
	}

	engine = &Engine{
		device:  device,
		conf:    config,
		hasher:  hasher,
		tables:  make([]hashTable, config.HashTableCount),
		log:     config.Logger.WithField(logfields.Engine, config.Name),
		metrics: metrics,
	}

	if config.DebugFSM {
		engine.state = fsm.NewTracker()
		if err = engine.state.Set(fsm.Initialized); err != nil {
			engine = nil
			return
		}
	}

	engine.log.WithField(logfields.Entries, config.HashTableCount).Debug("Flow lookup engine initialized")

	return
}

// detect - Returns true if the FLUE signature is found and its hash base register holds written values
func detect(device interfaces.Device) bool {
	if device.Read32(conf.FlueRegVersion)&0xFFFF != conf.FlueSignature {
		return false
	}

	reg := conf.FlueRegHashBaseLo(0)
	device.Write32(reg, ^uint32(0x3))
	if device.Read32(reg) != ^uint32(0x3) {
		return false
	}

	device.Write32(reg, 0)

	return device.Read32(reg) == 0
}

// HashTableInstall - Installs a hash table in the device.
// With reset the bucket array is cleared and published before the table registers are written, and all
// bookkeeping starts over. Without reset only the registers of a previously installed table are rewritten.
//   - tableID is the hash table 0..HashTableCount-1
//   - ht describes the DMA memory of the table
//   - lookupCached tells that the device caches lookups in this table, removals then invalidate the cache
//   - reset requests clearing the table
//
// It returns:
//   - err is of type flowerr.ArgumentError on bad input
func (E *Engine) HashTableInstall(tableID int, ht HashTable, lookupCached, reset bool) (err error) {
	defer func() { E.metrics.observe(metricOpInstall, err) }()

	if err = E.checkTableID(tableID); err != nil {
		return
	}
	if ht.Buffer == nil {
		err = flowerr.NewArgumentError("hash table buffer is required")
		return
	}
	if ht.Address.Addr == conf.RecordDummyAddress && ht.Address.UpperAddr == 0 {
		err = flowerr.NewArgumentError("hash table address must not be the dummy address")
		return
	}
	if ht.Address.Addr%conf.BucketByteCount != 0 {
		err = flowerr.NewArgumentError("hash table address %#x is not %d byte aligned", ht.Address.Addr, conf.BucketByteCount)
		return
	}
	if ht.Size > conf.MaxSizeCode {
		err = flowerr.NewArgumentError("hash table size code %d out of range", ht.Size)
		return
	}
	entryCount := ht.Size.Buckets()
	if ht.DescriptorCount < entryCount {
		err = flowerr.NewArgumentError("descriptor count %d is less than %d buckets", ht.DescriptorCount, entryCount)
		return
	}
	if s, ok := ht.Buffer.(interfaces.Sizer); ok && s.Size() < ht.DescriptorCount*conf.BucketByteCount {
		err = flowerr.NewArgumentError("hash table buffer of %d bytes can not hold %d buckets", s.Size(), ht.DescriptorCount)
		return
	}

	if E.state != nil {
		if E.state.State() == fsm.FatalError {
			err = flowerr.NewIllegalInState("engine is in state %s", fsm.FatalError)
			return
		}
	}

	t := &E.tables[tableID]

	if reset {
		if t.records > 0 {
			err = flowerr.NewArgumentError("hash table %d still holds %d records", tableID, t.records)
			return
		}

		var dt *descriptor.Table
		if dt, err = descriptor.NewTable(entryCount, ht.DescriptorCount); err != nil {
			return
		}

		bucket.Reset(ht.Buffer, ht.DescriptorCount)
		t.dt = dt
	} else {
		if !t.installed {
			err = flowerr.NewArgumentError("hash table %d was never installed, reset is required", tableID)
			return
		}
		if uint32(ht.Size) != t.sizeCode || ht.DescriptorCount != t.dt.Len() {
			err = flowerr.NewArgumentError("hash table %d geometry can not change without reset", tableID)
			return
		}
	}

	t.installed = true
	t.buffer = ht.Buffer
	t.address = ht.Address
	t.sizeCode = uint32(ht.Size)
	t.lookupCached = lookupCached

	E.device.Write32(conf.FlueRegHashBaseLo(tableID), ht.Address.Addr)
	E.device.Write32(conf.FlueRegHashBaseHi(tableID), ht.Address.UpperAddr)
	size := E.device.Read32(conf.FlueRegSize(tableID))
	E.device.Write32(conf.FlueRegSize(tableID), size&^conf.FlueSizeMask|uint32(ht.Size))

	if reset && E.state != nil && E.state.State() == fsm.Initialized {
		if err = E.state.Set(fsm.Enabled); err != nil {
			return
		}
	}

	E.metrics.table(tableID, t.records, t.dt.FreeCount())
	E.log.WithFields(logrus.Fields{
		logfields.HashTableID:  tableID,
		logfields.TableSize:    entryCount,
		logfields.OverflowFree: t.dt.FreeCount(),
	}).Debugf("Hash table installed (reset %t, lookup cached %t)", reset, lookupCached)

	return
}

// BaseAddressSet - Sets the DMA base address that record offsets in the hash table are relative to.
// Records must lie within 4 GiB above the base. The base can not change while the table holds records.
func (E *Engine) BaseAddressSet(tableID int, base interfaces.Address) (err error) {
	defer func() { E.metrics.observe(metricOpBaseAddressSet, err) }()

	if err = E.checkTableID(tableID); err != nil {
		return
	}

	t := &E.tables[tableID]
	if t.records > 0 && t.base != base {
		err = flowerr.NewArgumentError("hash table %d holds %d records, base address can not change", tableID, t.records)
		return
	}

	E.device.Write32(conf.RecordCacheRegBaseLo(tableID), base.Addr)
	E.device.Write32(conf.RecordCacheRegBaseHi(tableID), base.UpperAddr)
	t.base = base

	return
}

// FlowIDCompute - Computes the flow hash ID of a packet the way the device does.
// The initialization vector is read from the flow hash engine, where it must have been installed.
func (E *Engine) FlowIDCompute(tableID int, params hashfunc.SelectorParams) (id hashfunc.FlowID, err error) {
	defer func() { E.metrics.observe(metricOpFlowIDCompute, err) }()

	if err = E.checkTableID(tableID); err != nil {
		return
	}

	var iv [4]uint32
	for i := range iv {
		iv[i] = E.device.Read32(conf.FHashRegIV(i))
	}

	id, err = E.hasher.HashID(iv, params)
	err = errors.Wrap(err, "unable to compute flow hash ID")

	return
}

// checkTableID - Verifies that tableID addresses one of the managed tables
func (E *Engine) checkTableID(tableID int) (err error) {
	if tableID < 0 || tableID >= len(E.tables) {
		err = flowerr.NewArgumentError("hash table id %d out of range 0..%d", tableID, len(E.tables)-1)
	}
	return
}

// installedTable - Returns the parameters of an installed table
func (E *Engine) installedTable(tableID int) (t *hashTable, err error) {
	if err = E.checkTableID(tableID); err != nil {
		return
	}

	t = &E.tables[tableID]
	if !t.installed {
		t = nil
		err = flowerr.NewArgumentError("hash table %d is not installed", tableID)
	}

	return
}

// IOAreaSize - Returns the size in bytes of the engine context
func IOAreaSize() int {
	return int(unsafe.Sizeof(Engine{}))
}

// BucketWordCount - Returns the size of an on-device hash bucket in 32-bit words
func BucketWordCount() int {
	return conf.BucketWordCount
}

// FlowRecordWordCount - Returns the size of a flow record in 32-bit words
func FlowRecordWordCount() int {
	return conf.FlowRecordWordCount
}

// TransformRecordWordCount - Returns the size of a small transform record in 32-bit words
func TransformRecordWordCount() int {
	return conf.TransformRecordWordCount
}

// TransformRecordLargeWordCount - Returns the size of a large transform record in 32-bit words
func TransformRecordLargeWordCount() int {
	return conf.TransformRecordLargeWordCount
}

// FlowDescriptorSize - Returns the size in bytes of a flow record descriptor
func FlowDescriptorSize() int {
	return int(unsafe.Sizeof(RecordDescriptor{}))
}

// TransformDescriptorSize - Returns the size in bytes of a transform record descriptor
func TransformDescriptorSize() int {
	return int(unsafe.Sizeof(RecordDescriptor{}))
}

// HTEDescriptorSize - Returns the size in bytes of the host bookkeeping of one bucket
func HTEDescriptorSize() int {
	return int(unsafe.Sizeof(descriptor.Descriptor{}))
}

// RecordDummyAddress - Returns the value marking an unused record pointer
func RecordDummyAddress() uint32 {
	return conf.RecordDummyAddress
}
