package hashfunc

// FlowID - A 128-bit flow hash ID, Word32[0] selects the hash bucket
type FlowID struct {
	Word32 [4]uint32
}

// Selector flags
const (
	SelectIPv4   uint32 = 1 << 0
	SelectIPv6   uint32 = 1 << 1
	SelectCustom uint32 = 1 << 2
	ESPWithSrc   uint32 = 1 << 3
)

// SelectorParams - Packet fields that select a flow.
//   - Flags is a combination of the Select* flags
//   - SrcIP and DstIP are 4 bytes for IPv4 and 16 bytes for IPv6
//   - CustomID replaces the port numbers when SelectCustom is set
//   - SPI is the IPsec SPI, a non zero SPI removes ports and (unless ESPWithSrc) the source address from the hash input
//   - Epoch is the DTLS epoch for inbound DTLS flows
type SelectorParams struct {
	Flags    uint32
	IPProto  uint8
	SrcIP    []byte
	DstIP    []byte
	SrcPort  uint16
	DstPort  uint16
	CustomID uint16
	SPI      uint32
	Epoch    uint16
}

// Hasher - Interface that permits a custom flow hash ID calculation. It must produce the same ID as the
// classification hardware does for a packet with the given selectors, or the lookups will miss.
type Hasher interface {
	// HashID - Computes the flow hash ID given the engine initialization vector and the selectors
	//   - iv is the four word initialization vector read from the flow hash engine
	//   - params are the selectors, an error is returned if they are malformed
	HashID(iv [4]uint32, params SelectorParams) (FlowID, error)
}
