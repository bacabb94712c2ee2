package logfields

// LogSubsys - Field naming the subsystem a log entry comes from
const LogSubsys = "subsys"

const (
	Engine         = "engine"
	HashTableID    = "hashTableID"
	BucketIndex    = "bucketIndex"
	BucketOffset   = "bucketOffset"
	Descriptor     = "descriptor"
	Slot           = "slot"
	RecordType     = "recordType"
	RecordAddress  = "recordAddress"
	TableSize      = "tableSize"
	Entries        = "entries"
	OverflowFree   = "overflowFree"
	Records        = "records"
	State          = "state"
	QuiescenceLoop = "quiescenceLoop"
)
