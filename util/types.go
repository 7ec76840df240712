package util

// RecordId identifies a tuple in a heap file by page and slot number. It is
// opaque to the index: compared only by equality, never interpreted.
type RecordId struct {
	PageNumber uint32
	SlotNumber uint32
}
