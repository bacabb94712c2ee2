package platform

// Op - Kind of a journaled buffer access
type Op uint8

const (
	OpWrite Op = iota
	OpPublish
	OpRefresh
)

// String - Returns the name of the access kind
func (O Op) String() string {
	switch O {
	case OpWrite:
		return "write"
	case OpPublish:
		return "publish"
	case OpRefresh:
		return "refresh"
	}
	return "unknown"
}

// Entry - One journaled buffer access.
// Offset is a word offset for writes and a byte offset for publish and refresh.
type Entry struct {
	Buffer string
	Op     Op
	Offset uint32
	Length uint32
	Value  uint32
}

// Journal - An ordered log of accesses shared by any number of MemBuffers
type Journal struct {
	entries []Entry
}

// NewJournal - Returns a pointer to a new empty Journal
func NewJournal() *Journal {
	return &Journal{}
}

func (J *Journal) add(e Entry) {
	J.entries = append(J.entries, e)
}

// Entries - Returns the journaled accesses in order
func (J *Journal) Entries() []Entry {
	return J.entries
}

// Reset - Drops all journaled accesses
func (J *Journal) Reset() {
	J.entries = J.entries[:0]
}

// Index - Returns the position of the first entry from position from on that satisfies match, -1 if none
func (J *Journal) Index(from int, match func(Entry) bool) int {
	for i := from; i < len(J.entries); i++ {
		if match(J.entries[i]) {
			return i
		}
	}
	return -1
}

// LastIndex - Returns the position of the last entry that satisfies match, -1 if none
func (J *Journal) LastIndex(match func(Entry) bool) int {
	for i := len(J.entries) - 1; i >= 0; i-- {
		if match(J.entries[i]) {
			return i
		}
	}
	return -1
}
