// Package heap implements a fixed-width-record heap file used by the index
// package's bulk-construction path. It is deliberately minimal: records are
// never updated or deleted, only appended and iterated.
package heap

import (
	"github.com/relindex/bptreeidx/storage/disk"
	"github.com/relindex/bptreeidx/util"
)

// slotOverhead bounds the fixed msgpack framing cost of encoding a heapPage
// (map header, field names, array headers). Per-record framing is counted
// in slotsPerPage.
const slotOverhead = 64

// heapPage is the on-disk payload of one heap file page: a dense slot array
// of fixed-size records with an occupancy bitmap.
type heapPage struct {
	Occupied []bool
	Records  [][]byte
}

func newHeapPage(slotsPerPage int, recordSize int) *heapPage {
	records := make([][]byte, slotsPerPage)
	for i := range records {
		records[i] = make([]byte, recordSize)
	}
	return &heapPage{
		Occupied: make([]bool, slotsPerPage),
		Records:  records,
	}
}

func decodeHeapPage(data []byte) (*heapPage, error) {
	p, err := util.ToStruct[heapPage](data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeHeapPage(p *heapPage) ([]byte, error) {
	return util.ToByteSlice(*p)
}

// slotsPerPage returns how many recordSize-byte records fit in one page
// alongside their occupancy bitmap and per-record length prefix, leaving
// slotOverhead bytes of margin for the rest of the msgpack framing.
func slotsPerPage(recordSize int) int {
	usable := disk.PAGE_SIZE - slotOverhead
	// +1 for the record's occupancy byte, +3 for its msgpack bin length
	// prefix (bin8 or bin16 for records under 64 KiB)
	perSlot := recordSize + 1 + 3
	n := usable / perSlot
	if n < 1 {
		n = 1
	}
	return n
}
