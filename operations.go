package flowlookup

import (
	"time"

	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/gostonefire/flowlookup/internal/fsm"
	"github.com/gostonefire/flowlookup/internal/hash"
	"github.com/gostonefire/flowlookup/internal/logfields"
	"github.com/gostonefire/flowlookup/internal/model"
	"github.com/gostonefire/flowlookup/internal/overflow"
	"github.com/gostonefire/flowlookup/internal/storage/bucket"
	"github.com/gostonefire/flowlookup/internal/storage/descriptor"
	"github.com/gostonefire/flowlookup/internal/storage/record"
	"github.com/gostonefire/flowlookup/internal/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// recordInput - A record to add, flow is only set for flow records
type recordInput struct {
	hashID hashfunc.FlowID
	kind   RecordType
	flow   *record.FlowData
}

// FlowRecordAdd - Adds a flow record to a hash table.
// The flow record is written and published before the hash table references it.
//   - tableID is the hash table to add to
//   - rd refers to the flow record memory, it is updated to track the record in the table
//   - in holds the flow hash ID and the flow record fields
//
// It returns:
//   - err is of type flowerr.OutOfMemory if the bucket and all overflow buckets are full, flowerr.ArgumentError on
//     bad input, flowerr.UnsupportedFeature for a large transform without large transform support and
//     flowerr.InternalError on corrupted bookkeeping.
func (E *Engine) FlowRecordAdd(tableID int, rd *RecordDescriptor, in FlowRecordInput) (err error) {
	defer func() { E.metrics.observe(metricOpFlowAdd, err) }()

	t, err := E.addPrepare(tableID, rd, in.Large, true)
	if err != nil {
		return
	}

	xformType := conf.TypeTransform
	if in.Large {
		xformType = conf.TypeTransformLarge
	}
	hasXform := in.TransformAddress.Addr != conf.RecordDummyAddress || in.TransformAddress.UpperAddr != 0
	if E.conf.StrictArgs && hasXform && !utils.Is32BitAddressable(t.base, in.TransformAddress) {
		err = flowerr.NewArgumentError("transform record %#x:%#x is outside the 4 GiB window of the base address",
			in.TransformAddress.UpperAddr, in.TransformAddress.Addr)
		return
	}

	err = E.recordAdd(tableID, t, rd, recordInput{
		hashID: in.HashID,
		kind:   RecordFlow,
		flow: &record.FlowData{
			Flags:       in.Flags,
			XformOffset: in.TransformAddress.Addr - t.base.Addr,
			XformAddr:   in.TransformAddress,
			XformType:   xformType,
			SWReference: in.SWReference,
		},
	})
	err = errors.Wrapf(err, "unable to add flow record to hash table %d", tableID)

	return
}

// TransformRecordAdd - Adds a transform record to a hash table for direct lookup by flow hash ID.
// The transform record contents are the caller's responsibility and must be in place before the call.
//
// It returns:
//   - err is of the same types as for FlowRecordAdd
func (E *Engine) TransformRecordAdd(tableID int, rd *RecordDescriptor, in TransformRecordInput) (err error) {
	defer func() { E.metrics.observe(metricOpTransformAdd, err) }()

	t, err := E.addPrepare(tableID, rd, in.Large, false)
	if err != nil {
		return
	}

	kind := RecordTransform
	if in.Large {
		kind = RecordTransformLarge
	}

	err = E.recordAdd(tableID, t, rd, recordInput{hashID: in.HashID, kind: kind})
	err = errors.Wrapf(err, "unable to add transform record to hash table %d", tableID)

	return
}

// FlowRecordRead - Reads the counters of a flow record
func (E *Engine) FlowRecordRead(tableID int, rd *RecordDescriptor) (out FlowRecordOutput, err error) {
	defer func() { E.metrics.observe(metricOpFlowRead, err) }()

	if err = E.readPrepare(tableID, rd); err != nil {
		return
	}
	if rd.state.kind.isTransform() {
		err = flowerr.NewArgumentError("record descriptor refers to a %s record", rd.state.kind)
		return
	}

	stats := record.ReadFlow(rd.Buffer)
	out = FlowRecordOutput{
		Packets:  stats.Packets,
		Octets:   stats.Octets,
		LastTime: stats.LastTime,
	}

	return
}

// TransformRecordRead - Reads the counters and sequence number of a transform record.
// The large record layout is used for descriptors added as large transform records, the small one otherwise.
func (E *Engine) TransformRecordRead(tableID int, rd *RecordDescriptor) (out TransformRecordOutput, err error) {
	defer func() { E.metrics.observe(metricOpTransformRead, err) }()

	if err = E.readPrepare(tableID, rd); err != nil {
		return
	}

	layout := conf.TransformSmall
	switch rd.state.kind {
	case RecordFlow:
		err = flowerr.NewArgumentError("record descriptor refers to a flow record")
		return
	case RecordTransformLarge:
		layout = conf.TransformLarge
	}

	stats, err := record.ReadTransform(rd.Buffer, layout)
	if err != nil {
		return
	}
	out = transformOutput(stats)

	return
}

// TransformRecordReadLarge - Reads the counters and sequence number of a large transform record,
// for instance one referenced by a flow record rather than added to the hash table.
func (E *Engine) TransformRecordReadLarge(tableID int, rd *RecordDescriptor) (out TransformRecordOutput, err error) {
	defer func() { E.metrics.observe(metricOpTransformRead, err) }()

	if !E.conf.LargeTransformSupport {
		err = flowerr.NewUnsupportedFeature("large transform records are disabled")
		return
	}
	if err = E.readPrepare(tableID, rd); err != nil {
		return
	}
	if rd.state.kind != RecordInvalid && rd.state.kind != RecordTransformLarge {
		err = flowerr.NewArgumentError("record descriptor refers to a %s record", rd.state.kind)
		return
	}

	stats, err := record.ReadTransform(rd.Buffer, conf.TransformLarge)
	if err != nil {
		return
	}
	out = transformOutput(stats)

	return
}

// FlowRecordRemove - Removes a flow record from a hash table and invalidates its descriptor.
// When the record is the last one of its bucket the call busy-waits for the quiescence delay, so that
// lookups in flight in the device are done with the bucket before it is reused.
//
// It returns:
//   - err is of type flowerr.ArgumentError if the descriptor is not in the table and flowerr.InternalError on
//     corrupted bookkeeping or, with strict arguments, when the descriptor refers to a transform record.
func (E *Engine) FlowRecordRemove(tableID int, rd *RecordDescriptor) (err error) {
	defer func() { E.metrics.observe(metricOpFlowRemove, err) }()

	err = errors.Wrapf(E.remove(tableID, rd, false), "unable to remove flow record from hash table %d", tableID)

	return
}

// TransformRecordRemove - Removes a transform record from a hash table and invalidates its descriptor.
// See FlowRecordRemove.
func (E *Engine) TransformRecordRemove(tableID int, rd *RecordDescriptor) (err error) {
	defer func() { E.metrics.observe(metricOpTransformRemove, err) }()

	err = errors.Wrapf(E.remove(tableID, rd, true), "unable to remove transform record from hash table %d", tableID)

	return
}

// addPrepare - Common argument and state checks of the add operations
func (E *Engine) addPrepare(tableID int, rd *RecordDescriptor, large, payload bool) (t *hashTable, err error) {
	if t, err = E.installedTable(tableID); err != nil {
		return
	}
	if rd == nil || (payload && rd.Buffer == nil) {
		err = flowerr.NewArgumentError("record descriptor with a buffer is required")
		return
	}
	if rd.InUse() {
		err = flowerr.NewArgumentError("record descriptor already refers to a %s record in a hash table", rd.state.kind)
		return
	}
	if s, ok := rd.Buffer.(interfaces.Sizer); ok {
		if need := recordByteCount(payload, large); s.Size() < need {
			err = flowerr.NewArgumentError("record buffer of %d bytes can not hold a %d byte record", s.Size(), need)
			return
		}
	}
	if large && !E.conf.LargeTransformSupport {
		err = flowerr.NewUnsupportedFeature("large transform records are disabled")
		return
	}
	if E.conf.StrictArgs {
		if !utils.Is32BitAddressable(t.base, rd.Address) {
			err = flowerr.NewArgumentError("record %#x:%#x is outside the 4 GiB window of the base address",
				rd.Address.UpperAddr, rd.Address.Addr)
			return
		}
		if (rd.Address.Addr-t.base.Addr)&conf.RecordTypeMask != 0 {
			err = flowerr.NewArgumentError("record address %#x is not word aligned", rd.Address.Addr)
			return
		}
	}
	if E.state != nil {
		err = E.state.Check(fsm.Installed)
	}

	return
}

// recordByteCount - Returns the size of a flow record, or of a transform record of the given size
func recordByteCount(flow, large bool) int {
	switch {
	case flow:
		return conf.FlowRecordWordCount * 4
	case large:
		return conf.TransformRecordLargeWordCount * 4
	}
	return conf.TransformRecordWordCount * 4
}

// readPrepare - Common argument and state checks of the read operations
func (E *Engine) readPrepare(tableID int, rd *RecordDescriptor) (err error) {
	if _, err = E.installedTable(tableID); err != nil {
		return
	}
	if rd == nil || rd.Buffer == nil {
		err = flowerr.NewArgumentError("record descriptor with a buffer is required")
		return
	}
	if E.conf.ConsistencyCheck && rd.Address.Addr == conf.RecordDummyAddress {
		err = flowerr.NewInternalError("record descriptor holds the dummy address")
		return
	}
	if E.state != nil {
		err = E.state.Require(fsm.Installed)
	}

	return
}

// recordAdd - Walks the bucket chain of the hash ID and puts the record in the first bucket with a free slot,
// drawing a new overflow bucket from the free list when the whole chain is full.
// The write that makes the record reachable by the device is always the last one.
func (E *Engine) recordAdd(tableID int, t *hashTable, rd *RecordDescriptor, in recordInput) (err error) {
	if in.kind == RecordInvalid || (in.kind == RecordFlow) != (in.flow != nil) {
		err = flowerr.NewInternalError("no flow or transform record data to add")
		return
	}
	if E.conf.ConsistencyCheck && rd.Address.Addr == conf.RecordDummyAddress {
		err = flowerr.NewInternalError("record descriptor holds the dummy address")
		return
	}

	byteOffset, index := hash.BucketOffsetAndIndex(in.hashID.Word32[0], t.sizeCode)
	if index >= t.dt.EntryCount() {
		err = flowerr.NewInternalError("bucket index %d out of range", index)
		return
	}
	primary := int32(index)
	recordOffset := rd.Address.Addr - t.base.Addr

	if E.conf.ConsistencyCheck {
		if err = E.checkChain(t, primary, byteOffset, in); err != nil {
			return
		}
	}

	var tail int32
	it := overflow.NewBuckets(t.dt, primary)
	for it.HasNext() {
		var d *descriptor.Descriptor
		if tail, d, err = it.Next(); err != nil {
			return
		}
		if d.RecordCount > conf.RecordsPerBucket {
			err = flowerr.NewInternalError("bucket %d holds %d records", tail, d.RecordCount)
			return
		}
		if d.RecordCount < conf.RecordsPerBucket {
			var slot int
			if slot, err = E.slotWrite(t, tail, rd, in, recordOffset); err != nil {
				return
			}
			d.RecordCount++
			E.added(tableID, t, rd, in.kind, tail, slot)
			return
		}
	}

	next, err := t.dt.PopFree()
	if err != nil {
		return
	}
	if err = t.dt.ChainAppend(tail, next); err != nil {
		return
	}

	slot, err := E.slotWrite(t, next, rd, in, recordOffset)
	if err != nil {
		if rerr := E.rollback(t, next); rerr != nil {
			E.log.WithError(rerr).WithFields(logrus.Fields{
				logfields.HashTableID: tableID,
				logfields.Descriptor:  next,
			}).Error("Overflow bucket lost while undoing a failed add")
			err = errors.Wrapf(rerr, "unable to release overflow bucket %d after %v", next, err)
		}
		return
	}

	nd := t.dt.Get(next)
	bucket.SetOverflow(t.buffer, t.dt.Get(tail).BucketOffset, bucket.OverflowPointer(nd.BucketOffset))
	nd.RecordCount++

	E.log.WithFields(logrus.Fields{
		logfields.HashTableID:  tableID,
		logfields.BucketIndex:  index,
		logfields.Descriptor:   next,
		logfields.OverflowFree: t.dt.FreeCount(),
	}).Debug("Overflow bucket chained")

	E.added(tableID, t, rd, in.kind, next, slot)

	return
}

// rollback - Returns an overflow bucket drawn for a failed add to the free list
func (E *Engine) rollback(t *hashTable, index int32) (err error) {
	if err = t.dt.ChainUnlink(index); err != nil {
		return
	}
	return t.dt.PushFree(index)
}

// slotWrite - Allocates a slot in a bucket, writes the flow record payload if any, then the bucket slot
func (E *Engine) slotWrite(t *hashTable, index int32, rd *RecordDescriptor, in recordInput, recordOffset uint32) (slot int, err error) {
	d := t.dt.Get(index)

	mask, slot, err := descriptor.SlotGet(d.UsedSlots)
	if err != nil {
		return
	}
	if E.conf.ConsistencyCheck && bucket.RecordWord(t.buffer, d.BucketOffset, slot) != conf.RecordDummyAddress {
		err = flowerr.NewInternalError("free slot %d of descriptor %d holds a record", slot, index)
		return
	}
	if in.flow != nil {
		record.WriteFlow(rd.Buffer, *in.flow)
	}
	d.UsedSlots = mask
	bucket.RecordAdd(t.buffer, d.BucketOffset, slot, recordOffset, in.kind.tag(), in.hashID)

	return
}

// added - Bookkeeping after a record became reachable
func (E *Engine) added(tableID int, t *hashTable, rd *RecordDescriptor, kind RecordType, index int32, slot int) {
	rd.state = recordState{kind: kind, table: tableID, desc: index, slot: slot}
	t.records++
	E.records++

	if E.state != nil {
		_ = E.state.Set(fsm.Installed)
	}
	E.metrics.table(tableID, t.records, t.dt.FreeCount())
}

// checkChain - Verifies the chain of a primary bucket before a record is added to it
func (E *Engine) checkChain(t *hashTable, primary int32, byteOffset uint32, in recordInput) (err error) {
	p := t.dt.Get(primary)
	if p.BucketOffset != byteOffset || p.Overflow {
		return flowerr.NewInternalError("descriptor %d does not describe primary bucket %#x", primary, byteOffset)
	}

	prev := descriptor.None
	it := overflow.NewBuckets(t.dt, primary)
	for it.HasNext() {
		index, d, err := it.Next()
		if err != nil {
			return err
		}
		if d.RecordCount > conf.RecordsPerBucket {
			return flowerr.NewInternalError("bucket %d holds %d records", index, d.RecordCount)
		}
		if prev != descriptor.None {
			if !d.Overflow || d.Membership != descriptor.Chain {
				return flowerr.NewInternalError("descriptor %d chained below bucket %d is not an overflow bucket", index, primary)
			}
			if bucket.Overflow(t.buffer, t.dt.Get(prev).BucketOffset) != bucket.OverflowPointer(d.BucketOffset) {
				return flowerr.NewInternalError("overflow pointer of descriptor %d does not reference descriptor %d", prev, index)
			}
		}
		if bucket.FindHashID(t.buffer, d.BucketOffset, in.kind.tag(), in.hashID) != 0 {
			return flowerr.NewInternalError("hash ID %08x already present in bucket %d", in.hashID.Word32, index)
		}
		prev = index
	}

	if bucket.Overflow(t.buffer, t.dt.Get(prev).BucketOffset) != conf.RecordDummyAddress {
		return flowerr.NewInternalError("last bucket %d of the chain has an overflow pointer", prev)
	}

	return
}

// remove - Takes a record out of its bucket.
// The write that makes the record unreachable is done first, the quiescence delay follows whenever a
// bucket or slot becomes reusable by the last record leaving it, and only then is it released.
func (E *Engine) remove(tableID int, rd *RecordDescriptor, transform bool) (err error) {
	t, err := E.installedTable(tableID)
	if err != nil {
		return
	}
	if rd == nil || !rd.InUse() {
		err = flowerr.NewArgumentError("record descriptor does not refer to a record in a hash table")
		return
	}

	st := rd.state
	if st.table != tableID {
		err = flowerr.NewArgumentError("record descriptor refers to hash table %d", st.table)
		return
	}
	if E.conf.StrictArgs && st.kind.isTransform() != transform {
		err = flowerr.NewInternalError("record descriptor refers to a %s record", st.kind)
		return
	}
	if !t.dt.Valid(st.desc) {
		err = flowerr.NewInternalError("record descriptor refers to descriptor %d", st.desc)
		return
	}

	d := t.dt.Get(st.desc)
	if d.RecordCount < 1 || d.RecordCount > conf.RecordsPerBucket {
		err = flowerr.NewInternalError("bucket %d holds %d records", st.desc, d.RecordCount)
		return
	}
	if !d.UsedSlots.Has(st.slot) {
		err = flowerr.NewInternalError("slot %d of bucket %d is not in use", st.slot, st.desc)
		return
	}
	if E.conf.ConsistencyCheck {
		if rd.Address.Addr == conf.RecordDummyAddress {
			err = flowerr.NewInternalError("record descriptor holds the dummy address")
			return
		}
		want := (rd.Address.Addr - t.base.Addr) | st.kind.tag()
		if got := bucket.RecordWord(t.buffer, d.BucketOffset, st.slot); got != want {
			err = flowerr.NewInternalError("slot %d of bucket %d holds %#x, expected %#x", st.slot, st.desc, got, want)
			return
		}
	}

	var prev int32
	if d.RecordCount == 1 && d.Overflow {
		if prev = t.dt.Prev(st.desc); prev == descriptor.None {
			err = flowerr.NewInternalError("overflow bucket %d has no predecessor", st.desc)
			return
		}
	}
	if E.state != nil {
		if err = E.state.Require(fsm.Installed); err != nil {
			return
		}
	}

	var old hashfunc.FlowID

	switch {
	case d.RecordCount > 1:
		old = bucket.RecordRemove(t.buffer, d.BucketOffset, st.slot)
		d.UsedSlots, _ = descriptor.SlotPut(d.UsedSlots, st.slot)
		d.RecordCount--

	case d.Overflow:
		link := conf.RecordDummyAddress
		if next := t.dt.Next(st.desc); next != descriptor.None {
			link = bucket.OverflowPointer(t.dt.Get(next).BucketOffset)
		}
		bucket.SetOverflow(t.buffer, t.dt.Get(prev).BucketOffset, link)

		E.quiesce(tableID)

		old = bucket.RecordRemove(t.buffer, d.BucketOffset, st.slot)
		bucket.SetOverflow(t.buffer, d.BucketOffset, conf.RecordDummyAddress)
		d.UsedSlots = 0
		d.RecordCount = 0
		if err = t.dt.ChainUnlink(st.desc); err != nil {
			return
		}
		if err = t.dt.PushFree(st.desc); err != nil {
			return
		}

		E.log.WithFields(logrus.Fields{
			logfields.HashTableID:  tableID,
			logfields.Descriptor:   st.desc,
			logfields.OverflowFree: t.dt.FreeCount(),
		}).Debug("Overflow bucket released")

	default:
		old = bucket.RecordRemove(t.buffer, d.BucketOffset, st.slot)

		E.quiesce(tableID)

		d.UsedSlots, _ = descriptor.SlotPut(d.UsedSlots, st.slot)
		d.RecordCount = 0
	}

	rd.invalidate()
	t.records--
	E.records--

	if E.conf.Cache != nil && t.lookupCached {
		if cerr := E.conf.Cache.Invalidate(E.device, tableID, old); cerr != nil {
			E.log.WithError(cerr).WithField(logfields.HashTableID, tableID).Warn("Lookup cache invalidation failed")
		}
	}

	if E.state != nil {
		next := fsm.Installed
		if E.records == 0 {
			next = fsm.Enabled
		}
		_ = E.state.Set(next)
	}
	E.metrics.table(tableID, t.records, t.dt.FreeCount())

	return
}

// quiescenceSink - Keeps the busy-wait loop from being optimized away
var quiescenceSink uint32

// quiesce - Busy-waits for the configured number of iterations
func (E *Engine) quiesce(tableID int) {
	if E.conf.QuiescenceDelay == 0 {
		return
	}

	start := time.Now()
	v := uint32(1)
	for i := uint(0); i < E.conf.QuiescenceDelay; i++ {
		v = v<<1 | v>>31
	}
	quiescenceSink = v

	E.metrics.waited(time.Since(start))
	E.log.WithFields(logrus.Fields{
		logfields.HashTableID:    tableID,
		logfields.QuiescenceLoop: E.conf.QuiescenceDelay,
	}).Debug("Quiescence delay done")
}

// transformOutput - Converts transform record counters to the public form
func transformOutput(stats model.RecordStats) TransformRecordOutput {
	return TransformRecordOutput{
		Packets:        stats.Packets,
		Octets:         stats.Octets,
		LastTime:       stats.LastTime,
		SequenceNumber: stats.SequenceNumber,
	}
}
