package platform

// MemBuffer - A DMA buffer backed by host memory, for simulation and tests.
// Every write, publish and refresh is appended to the attached Journal, if any.
type MemBuffer struct {
	words   []uint32
	name    string
	journal *Journal
}

// NewMemBuffer - Returns a pointer to a new zeroed MemBuffer of byteSize bytes, rounded up to whole words
func NewMemBuffer(byteSize int) *MemBuffer {
	return &MemBuffer{words: make([]uint32, (byteSize+3)/4)}
}

// WithJournal - Attaches journal to the buffer, entries are tagged with name
func (M *MemBuffer) WithJournal(journal *Journal, name string) *MemBuffer {
	M.journal = journal
	M.name = name
	return M
}

// Name - Returns the name used in journal entries
func (M *MemBuffer) Name() string {
	return M.name
}

// Size - Returns the size of the buffer in bytes
func (M *MemBuffer) Size() int {
	return len(M.words) * 4
}

// Read32 - Reads the word at wordOffset
func (M *MemBuffer) Read32(wordOffset uint32) uint32 {
	return M.words[wordOffset]
}

// Write32 - Writes value to the word at wordOffset
func (M *MemBuffer) Write32(wordOffset uint32, value uint32) {
	M.words[wordOffset] = value
	if M.journal != nil {
		M.journal.add(Entry{Buffer: M.name, Op: OpWrite, Offset: wordOffset, Value: value})
	}
}

// Publish - Journals the publish, host memory is always visible
func (M *MemBuffer) Publish(byteOffset, byteLen uint32) {
	if M.journal != nil {
		M.journal.add(Entry{Buffer: M.name, Op: OpPublish, Offset: byteOffset, Length: byteLen})
	}
}

// Refresh - Journals the refresh, host memory is always visible
func (M *MemBuffer) Refresh(byteOffset, byteLen uint32) {
	if M.journal != nil {
		M.journal.add(Entry{Buffer: M.name, Op: OpRefresh, Offset: byteOffset, Length: byteLen})
	}
}

// Poke - Writes a word without journaling, used to emulate the device updating a record
func (M *MemBuffer) Poke(wordOffset uint32, value uint32) {
	M.words[wordOffset] = value
}
