package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/relindex/bptreeidx/storage/disk"
)

func (f *Frame) pin() {
	f.pins.Add(1)
}

func (f *Frame) unpin() int32 {
	return f.pins.Add(-1)
}

func (f *Frame) reset() {
	f.dirty = false
	f.pins.Store(0)
	f.data = make([]byte, disk.PAGE_SIZE)
}

// Frame is one slot in the buffer pool's fixed frame array: a page's raw
// bytes plus the bookkeeping needed to pin/unpin and evict it safely.
type Frame struct {
	mu     sync.RWMutex
	id     int
	data   []byte
	pins   atomic.Int32
	dirty  bool
	pageId int64
}
