package record

import (
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/gostonefire/flowlookup/interfaces"
	"github.com/gostonefire/flowlookup/internal/conf"
	"github.com/gostonefire/flowlookup/internal/model"
	"github.com/gostonefire/flowlookup/internal/utils"
)

// FlowData - The flow record fields managed by the host
//   - Flags are the flow record flags
//   - XformOffset is the byte offset of the referenced transform record from the record base address
//   - XformAddr is the DMA address of the referenced transform record
//   - XformType is the tag of the referenced transform record, conf.TypeTransform or conf.TypeTransformLarge
//   - SWReference is an opaque software reference kept in the record
type FlowData struct {
	Flags       uint32
	XformOffset uint32
	XformAddr   interfaces.Address
	XformType   uint32
	SWReference uint32
}

// WriteFlow - Writes a zero filled flow record with the host managed fields and publishes it
func WriteFlow(buf interfaces.DMABuffer, d FlowData) {
	for w := uint32(0); w < conf.FlowRecordWordCount; w++ {
		buf.Write32(w, 0)
	}

	buf.Write32(conf.FlowXformOffsetWordOffset, d.XformOffset|d.XformType)
	buf.Write32(conf.FlowXformAddrWordOffset, d.XformAddr.Addr|d.XformType)
	buf.Write32(conf.FlowXformAddrHiWordOffset, d.XformAddr.UpperAddr)
	buf.Write32(conf.FlowSWRefWordOffset, d.SWReference)
	buf.Write32(conf.FlowFlagsWordOffset, d.Flags)

	buf.Publish(0, 0)
}

// ReadFlow - Refreshes the flow record and reads its counters
func ReadFlow(buf interfaces.DMABuffer) (stats model.RecordStats) {
	buf.Refresh(0, 0)

	stats.Packets = buf.Read32(conf.FlowStatPacketsWordOffset)
	stats.LastTime = utils.Read64(buf, conf.FlowTimeStampLoWordOffset, conf.FlowTimeStampHiWordOffset)
	stats.Octets = utils.Read64(buf, conf.FlowStatOctetsLoWordOffset, conf.FlowStatOctetsHiWordOffset)

	return
}

// ReadTransform - Refreshes the transform record and reads its counters and sequence number.
// The sequence number word offset is taken from the token context instruction word.
//
// It returns:
//   - stats holds the counters and the sequence number
//   - err is an error of type flowerr.InternalError if the sequence number offset lies outside the record
func ReadTransform(buf interfaces.DMABuffer, layout conf.TransformLayout) (stats model.RecordStats, err error) {
	buf.Refresh(0, 0)

	seqOffset := buf.Read32(uint32(layout.TokenCtxInst)) & conf.SeqNumOffsetMask
	if seqOffset >= uint32(layout.WordCount) {
		err = flowerr.NewInternalError("sequence number offset %d outside a %d word transform record", seqOffset, layout.WordCount)
		return
	}

	stats.SequenceNumber = buf.Read32(seqOffset)
	stats.Packets = buf.Read32(uint32(layout.StatPackets))
	stats.LastTime = utils.Read64(buf, layout.TimeStampLo, layout.TimeStampHi)
	stats.Octets = utils.Read64(buf, layout.StatOctetsLo, layout.StatOctetsHi)

	return
}
