package buffer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/relindex/bptreeidx/storage/disk"
)

type mode = int

const (
	write mode = iota
	read
)

// NewBufferpoolManager builds a fixed-size pool of frames backed by
// diskScheduler, evicting via replacer once every frame is in use.
func NewBufferpoolManager(size int, replacer *lrukReplacer, diskScheduler *disk.DiskScheduler) *BufferpoolManager {
	frames := make([]*Frame, size)
	freeFrames := make([]int, size)

	for i := 0; i < size; i++ {
		f := &Frame{
			id:   i,
			data: make([]byte, disk.PAGE_SIZE),
		}

		frames[i] = f
		freeFrames[i] = i
	}

	bpm := &BufferpoolManager{
		frames:        frames,
		pageTable:     make(map[int64]int),
		replacer:      replacer,
		diskScheduler: diskScheduler,
		freeFrames:    freeFrames,
	}
	bpm.cond = *sync.NewCond(&bpm.mu)
	return bpm
}

// ReadPage pins pageId for reading, loading it from disk into a frame if it
// isn't already resident. Callers must call the returned guard's Drop.
func (b *BufferpoolManager) ReadPage(pageId int64) (*ReadPageGuard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		if id, ok := b.pageTable[pageId]; ok {
			frame := b.frames[id]

			b.replacer.recordAccess(frame.id)
			b.replacer.setEvictable(frame.id, false)
			frame.mu.RLock()
			frame.pin()

			return NewReadPageGuard(frame, b), nil
		}

		frame, ok := b.claimFrame()
		if !ok {
			b.cond.Wait()
			continue
		}

		delete(b.pageTable, frame.pageId)
		b.pageTable[pageId] = frame.id

		b.replacer.recordAccess(frame.id)
		b.replacer.setEvictable(frame.id, false)

		frame.mu.RLock()
		frame.reset()
		frame.pin()
		frame.pageId = pageId

		if err := b.load(frame, pageId); err != nil {
			frame.mu.RUnlock()
			return nil, err
		}

		return NewReadPageGuard(frame, b), nil
	}
}

// WritePage pins pageId for writing, loading it from disk first if needed
// and marking it dirty immediately (callers are expected to mutate it).
func (b *BufferpoolManager) WritePage(pageId int64) (*WritePageGuard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		if id, ok := b.pageTable[pageId]; ok {
			frame := b.frames[id]

			b.replacer.recordAccess(frame.id)
			b.replacer.setEvictable(frame.id, false)
			frame.mu.Lock()
			frame.pin()
			frame.dirty = true

			return NewWritePageGuard(frame, b), nil
		}

		frame, ok := b.claimFrame()
		if !ok {
			b.cond.Wait()
			continue
		}

		delete(b.pageTable, frame.pageId)
		b.pageTable[pageId] = frame.id

		b.replacer.recordAccess(frame.id)
		b.replacer.setEvictable(frame.id, false)

		frame.mu.Lock()
		frame.reset()
		frame.pin()
		frame.dirty = true
		frame.pageId = pageId

		if err := b.load(frame, pageId); err != nil {
			frame.mu.Unlock()
			return nil, err
		}

		return NewWritePageGuard(frame, b), nil
	}
}

// claimFrame returns a frame to reuse for a new page: a free frame if one
// exists, otherwise the LRU-K victim (flushed first if dirty). ok is false
// when the pool is fully pinned and the caller should wait for one to free
// up.
func (b *BufferpoolManager) claimFrame() (*Frame, bool) {
	if len(b.freeFrames) > 0 {
		id := b.freeFrames[0]
		b.freeFrames = b.freeFrames[1:]
		return b.frames[id], true
	}

	id, _ := b.replacer.evict()
	if id == INVALID_FRAME_ID {
		return nil, false
	}

	frame := b.frames[id]
	b.flush(frame)
	return frame, true
}

func (b *BufferpoolManager) load(frame *Frame, pageId int64) error {
	diskReq := disk.NewRequest(pageId, nil, false)
	respCh := b.diskScheduler.Schedule(diskReq)
	resp := <-respCh
	if !resp.Success {
		return fmt.Errorf("bufferpool: failed to load page %d from disk", pageId)
	}
	copy(frame.data, resp.Data)
	return nil
}

// GetPage runs callback with pageId pinned under accessMode, then unpins it
// automatically. Useful for short-lived accesses that don't want to manage
// a page guard by hand.
func (b *BufferpoolManager) GetPage(pageId int64, accessMode mode, callback func(frame *Frame)) {
	var frame *Frame

	b.mu.Lock()
	for {
		if id, ok := b.pageTable[pageId]; ok {
			frame = b.frames[id]

			frame.pin()
			if accessMode == write {
				frame.mu.Lock()
				frame.dirty = true
			} else {
				frame.mu.RLock()
			}

			b.replacer.recordAccess(frame.id)
			b.replacer.setEvictable(frame.id, false)
			break
		}

		claimed, ok := b.claimFrame()
		if !ok {
			slog.Debug("bufferpool.waiting", "pageId", pageId)
			b.cond.Wait()
			continue
		}
		frame = claimed

		delete(b.pageTable, frame.pageId)
		b.pageTable[pageId] = frame.id
		b.replacer.recordAccess(frame.id)
		b.replacer.setEvictable(frame.id, false)

		frame.reset()
		if accessMode == write {
			frame.mu.Lock()
			frame.dirty = true
		} else {
			frame.mu.RLock()
		}

		frame.pin()
		frame.pageId = pageId

		diskReq := disk.NewRequest(pageId, nil, false)
		respCh := b.diskScheduler.Schedule(diskReq)
		resp := <-respCh
		copy(frame.data, resp.Data)
		break
	}
	b.mu.Unlock()

	defer func(frame *Frame) {
		if frame == nil || b == nil {
			return
		}

		frame.unpin()
		if frame.pins.Load() == 0 {
			b.replacer.setEvictable(frame.id, true)
		}

		if accessMode == write {
			frame.mu.Unlock()
		} else {
			frame.mu.RUnlock()
		}

		b.mu.Lock()
		b.cond.Signal()
		b.mu.Unlock()
	}(frame)

	callback(frame)
}

// NewPageId hands out a fresh, monotonically increasing page id. Page id 0
// is reserved by convention for the index header page and is never handed
// out here.
func (b *BufferpoolManager) NewPageId() int64 {
	return b.nextPageId.Add(1)
}

func (b *BufferpoolManager) flush(frame *Frame) {
	if !frame.dirty {
		return
	}

	writeReq := disk.NewRequest(frame.pageId, frame.data, true)
	respCh := b.diskScheduler.Schedule(writeReq)

	// block until data is written to disk
	<-respCh
	frame.dirty = false
}

// TotalPins sums every frame's current pin count. Tests use this to assert
// a zero pin balance after a public operation returns: nothing this pool
// handed out should still be held once the call that requested it is done.
func (b *BufferpoolManager) TotalPins() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, frame := range b.frames {
		total += int(frame.pins.Load())
	}
	return total
}

// FlushAll writes every dirty frame back through the disk scheduler. Called
// when an index is closed.
func (b *BufferpoolManager) FlushAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, frame := range b.frames {
		frame.mu.Lock()
		b.flush(frame)
		frame.mu.Unlock()
	}
}

type BufferpoolManager struct {
	mu            sync.Mutex
	frames        []*Frame
	pageTable     map[int64]int
	nextPageId    atomic.Int64
	diskScheduler *disk.DiskScheduler
	replacer      *lrukReplacer
	freeFrames    []int
	cond          sync.Cond
}
