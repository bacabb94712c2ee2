package conf

// HashIDWordCount - Number of 32-bit words in a flow hash ID
const HashIDWordCount = 4

// BucketWordCount - Number of 32-bit words in one on-device hash bucket
const BucketWordCount = 16

// BucketByteCount - Number of bytes in one on-device hash bucket, also the bucket address alignment
const BucketByteCount = BucketWordCount * 4

// RecordsPerBucket - Number of record slots in each bucket
const RecordsPerBucket = 3

// BucketHashIDWordOffset - Bucket word offset to the hash ID of slot 1, slot s starts at 4*(s-1)
const BucketHashIDWordOffset = 0

// BucketRecordWordOffset - Bucket word offset to the record pointer of slot 1, slot s is at 12+(s-1)
const BucketRecordWordOffset = 12

// BucketOverflowWordOffset - Bucket word offset to the overflow bucket pointer
const BucketOverflowWordOffset = 15

// RecordTypeMask - The two low bits of a record or overflow pointer word carry the type tag
const RecordTypeMask uint32 = 0x3

// RecordDummyAddress - Value of an unused record pointer, overflow pointer or hash ID word
const RecordDummyAddress uint32 = 0

// Type tags stored in the low bits of pointer words
const (
	TypeDummy          uint32 = 0
	TypeFlow           uint32 = 1
	TypeTransform      uint32 = 2
	TypeTransformLarge uint32 = 3
)

// MaxSizeCode - Largest table size code, 1<<(15+5) buckets
const MaxSizeCode = 15

// MaxHashTables - Number of hash tables a single engine can manage
const MaxHashTables = 4

// DefaultQuiescenceDelay - Default number of busy-wait iterations before a vacated bucket is reused
const DefaultQuiescenceDelay uint = 1000000

// FlowRecordWordCount - Size of a flow record in 32-bit words
const FlowRecordWordCount = 16

// Flow record word offsets
const (
	FlowXformOffsetWordOffset  = 4
	FlowXformAddrWordOffset    = 5
	FlowXformAddrHiWordOffset  = 6
	FlowSWRefWordOffset        = 8
	FlowFlagsWordOffset        = 9
	FlowStatPacketsWordOffset  = 10
	FlowTimeStampLoWordOffset  = 12
	FlowTimeStampHiWordOffset  = 13
	FlowStatOctetsLoWordOffset = 14
	FlowStatOctetsHiWordOffset = 15
)

// TransformRecordWordCount - Size of a small transform record in 32-bit words
const TransformRecordWordCount = 64

// TransformRecordLargeWordCount - Size of a large transform record in 32-bit words
const TransformRecordLargeWordCount = 80

// TransformLayout - Word offsets of the fields read back from a transform record
type TransformLayout struct {
	WordCount    int
	TokenCtxInst int
	TimeStampLo  int
	TimeStampHi  int
	StatPackets  int
	StatOctetsLo int
	StatOctetsHi int
}

// TransformSmall - Field offsets of a small transform record
var TransformSmall = TransformLayout{
	WordCount:    TransformRecordWordCount,
	TokenCtxInst: 55,
	TimeStampLo:  58,
	TimeStampHi:  59,
	StatPackets:  60,
	StatOctetsLo: 62,
	StatOctetsHi: 63,
}

// TransformLarge - Field offsets of a large transform record
var TransformLarge = TransformLayout{
	WordCount:    TransformRecordLargeWordCount,
	TokenCtxInst: 71,
	TimeStampLo:  74,
	TimeStampHi:  75,
	StatPackets:  76,
	StatOctetsLo: 78,
	StatOctetsHi: 79,
}

// SeqNumOffsetMask - Mask applied to the token context instruction word to get the sequence number word offset
const SeqNumOffsetMask uint32 = 0xFF

// FlueSignature - Value of the low 16 bits of the FLUE version register
const FlueSignature uint32 = 0x30CF

// FlueRegVersion - FLUE version register
const FlueRegVersion uint32 = 0xF63FC

// flueRegTableBase and flueRegTableStride - Per hash table FLUE register block
const (
	flueRegTableBase   uint32 = 0xF6010
	flueRegTableStride uint32 = 0x10
)

// FlueRegHashBaseLo - Low 32 bits of the hash table DMA address
func FlueRegHashBaseLo(tableID int) uint32 {
	return flueRegTableBase + uint32(tableID)*flueRegTableStride
}

// FlueRegHashBaseHi - High 32 bits of the hash table DMA address
func FlueRegHashBaseHi(tableID int) uint32 {
	return FlueRegHashBaseLo(tableID) + 0x4
}

// FlueRegSize - Hash table size register, table size code in the low 4 bits
func FlueRegSize(tableID int) uint32 {
	return FlueRegHashBaseLo(tableID) + 0x8
}

// FlueSizeMask - Bits of the size register holding the table size code
const FlueSizeMask uint32 = 0xF

// RecordCacheRegBaseLo - Low 32 bits of the record base address used by the record cache
func RecordCacheRegBaseLo(tableID int) uint32 {
	return 0xF6200 + uint32(tableID)*0x8
}

// RecordCacheRegBaseHi - High 32 bits of the record base address used by the record cache
func RecordCacheRegBaseHi(tableID int) uint32 {
	return RecordCacheRegBaseLo(tableID) + 0x4
}

// FHashRegIV - Flow hash engine initialization vector word i (0..3)
func FHashRegIV(i int) uint32 {
	return 0xF6800 + uint32(i)*0x4
}

// FluecRegKey - Lookup cache invalidation key word i (0..3)
func FluecRegKey(i int) uint32 {
	return 0xF6C10 + uint32(i)*0x4
}

// FluecRegInvalidate - Lookup cache invalidation command, table id in the low bits and start bit 31
const FluecRegInvalidate uint32 = 0xF6C20

// FluecInvalidateStart - Start bit in the invalidation command register
const FluecInvalidateStart uint32 = 1 << 31
