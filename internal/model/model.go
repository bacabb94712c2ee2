package model

import "github.com/gostonefire/flowlookup/hashfunc"

// Slot - Represents one record slot of an on-device bucket
type Slot struct {
	HashID       hashfunc.FlowID
	RecordOffset uint32
	RecordType   uint32
}

// Bucket - Represents the decoded contents of one on-device bucket
type Bucket struct {
	ByteOffset     uint32
	Slots          [3]Slot
	OverflowOffset uint32
	HasOverflow    bool
}

// RecordStats - Represents the counters read back from a flow or transform record
type RecordStats struct {
	Packets        uint32
	Octets         uint64
	LastTime       uint64
	SequenceNumber uint32
}
