package flowlookup

import (
	"github.com/gostonefire/flowlookup/hashfunc"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/gostonefire/flowlookup/internal/storage/descriptor"
)

// RecordType - The kind of record a RecordDescriptor refers to
type RecordType uint8

const (
	RecordInvalid RecordType = iota
	RecordFlow
	RecordTransform
	RecordTransformLarge
)

// String - Returns the name of the record type
func (R RecordType) String() string {
	switch R {
	case RecordFlow:
		return "flow"
	case RecordTransform:
		return "transform"
	case RecordTransformLarge:
		return "transform-large"
	}
	return "invalid"
}

// tag - Returns the pointer word tag of the record type
func (R RecordType) tag() uint32 {
	switch R {
	case RecordFlow:
		return conf.TypeFlow
	case RecordTransform:
		return conf.TypeTransform
	case RecordTransformLarge:
		return conf.TypeTransformLarge
	}
	return conf.TypeDummy
}

// isTransform - Returns true for both transform record sizes
func (R RecordType) isTransform() bool {
	return R == RecordTransform || R == RecordTransformLarge
}

// recordState - Engine private part of a RecordDescriptor
type recordState struct {
	kind  RecordType
	table int
	desc  int32
	slot  int
}

// RecordDescriptor - Refers to a flow or transform record in DMA memory.
// The caller owns the descriptor and fills in Buffer and Address before adding the record.
// The engine keeps track of where the record sits in the hash table inside the descriptor,
// so the same descriptor must be passed to the remove call.
type RecordDescriptor struct {
	Buffer  interfaces.DMABuffer
	Address interfaces.Address
	state   recordState
}

// Type - Returns the type of the record, RecordInvalid if it is not in a hash table
func (R *RecordDescriptor) Type() RecordType {
	return R.state.kind
}

// Slot - Returns the bucket slot 1..3 holding the record, 0 if it is not in a hash table
func (R *RecordDescriptor) Slot() int {
	return R.state.slot
}

// InUse - Returns true if the record is in a hash table
func (R *RecordDescriptor) InUse() bool {
	return R.state.kind != RecordInvalid
}

// invalidate - Detaches the descriptor from the hash table
func (R *RecordDescriptor) invalidate() {
	R.state = recordState{kind: RecordInvalid, desc: descriptor.None}
}

// FlowRecordInput - Data for a new flow record
//   - HashID is the flow hash ID, see Engine.FlowIDCompute
//   - Flags are the flow record flags
//   - TransformAddress is the DMA address of the transform record applied to the flow
//   - SWReference is an opaque software reference kept in the flow record
//   - Large is set when the transform record is a large transform record
type FlowRecordInput struct {
	HashID           hashfunc.FlowID
	Flags            uint32
	TransformAddress interfaces.Address
	SWReference      uint32
	Large            bool
}

// TransformRecordInput - Data for a transform record looked up directly by flow hash ID
type TransformRecordInput struct {
	HashID hashfunc.FlowID
	Large  bool
}

// FlowRecordOutput - Counters read back from a flow record
type FlowRecordOutput struct {
	Packets  uint32
	Octets   uint64
	LastTime uint64
}

// TransformRecordOutput - Counters and sequence number read back from a transform record
type TransformRecordOutput struct {
	Packets        uint32
	Octets         uint64
	LastTime       uint64
	SequenceNumber uint32
}
