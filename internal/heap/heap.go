package heap

import (
	"fmt"

	"github.com/relindex/bptreeidx/buffer"
	"github.com/relindex/bptreeidx/internal/config"
	"github.com/relindex/bptreeidx/storage/disk"
	"github.com/relindex/bptreeidx/util"
)

// HeapFile is an append-only sequence of fixed-capacity pages, each holding
// a slot array of equal-size records. It owns its own file and buffer pool,
// independent of any index built over it.
type HeapFile struct {
	bpm        *buffer.BufferpoolManager
	dm         closer
	recordSize int
	slotCap    int
	pageIds    []int64
	curPageId  int64
	curPage    *heapPage
}

// closer is satisfied by the disk package's manager type without naming it
// (it's unexported): both NewFile and OpenFile return something with a
// Close method, which is all a heap file needs to hold onto after it's
// wired the manager into a scheduler and buffer pool.
type closer interface {
	Close() error
}

// NewHeapFile creates a fresh heap file at path sized to hold records of
// recordSize bytes each. cfg sizes the heap file's own buffer pool and
// LRU-K replacer, independent of any index built over it.
func NewHeapFile(path string, recordSize int, cfg config.Config) (*HeapFile, error) {
	dm, err := disk.NewFile(path)
	if err != nil {
		return nil, fmt.Errorf("creating heap file %q: %w", path, err)
	}

	scheduler := disk.NewScheduler(dm)
	replacer := buffer.NewLrukReplacer(cfg.Buffer.PoolSize, cfg.Buffer.LrukK)
	bpm := buffer.NewBufferpoolManager(cfg.Buffer.PoolSize, replacer, scheduler)

	return &HeapFile{
		bpm:        bpm,
		dm:         dm,
		recordSize: recordSize,
		slotCap:    slotsPerPage(recordSize),
	}, nil
}

// OpenHeapFile reopens an existing heap file, replaying its page directory
// by scanning sequential page ids until one cannot be read or decoded, or
// holds no records.
func OpenHeapFile(path string, recordSize int, cfg config.Config) (*HeapFile, error) {
	dm, err := disk.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening heap file %q: %w", path, err)
	}

	scheduler := disk.NewScheduler(dm)
	replacer := buffer.NewLrukReplacer(cfg.Buffer.PoolSize, cfg.Buffer.LrukK)
	bpm := buffer.NewBufferpoolManager(cfg.Buffer.PoolSize, replacer, scheduler)

	hf := &HeapFile{
		bpm:        bpm,
		dm:         dm,
		recordSize: recordSize,
		slotCap:    slotsPerPage(recordSize),
	}
	if err := hf.replayPageDirectory(); err != nil {
		return nil, err
	}
	return hf, nil
}

// replayPageDirectory rebuilds pageIds by reading pages sequentially from
// page id 1 until a page cannot be read or decoded or has no occupied
// slot, used when reopening a heap file
// whose directory wasn't otherwise persisted.
func (h *HeapFile) replayPageDirectory() error {
	for pageId := int64(1); ; pageId++ {
		guard, err := h.bpm.ReadPage(pageId)
		if err != nil {
			return nil
		}
		page, err := decodeHeapPage(guard.GetData())
		guard.Drop()
		if err != nil {
			return nil
		}

		anyOccupied := false
		for _, occ := range page.Occupied {
			if occ {
				anyOccupied = true
				break
			}
		}
		if !anyOccupied {
			return nil
		}

		h.pageIds = append(h.pageIds, pageId)
		h.curPageId = pageId
		h.curPage = page
	}
}

// Append writes record to the current page, allocating a new page if the
// current one is full, and returns the RecordId it was written at.
func (h *HeapFile) Append(record []byte) (util.RecordId, error) {
	if len(record) != h.recordSize {
		return util.RecordId{}, fmt.Errorf("heap: record is %d bytes, want %d", len(record), h.recordSize)
	}

	if h.curPage == nil || h.isFull(h.curPage) {
		if err := h.flushCurrentPage(); err != nil {
			return util.RecordId{}, err
		}
		h.curPageId = h.bpm.NewPageId()
		h.curPage = newHeapPage(h.slotCap, h.recordSize)
		h.pageIds = append(h.pageIds, h.curPageId)
	}

	slot := h.firstFreeSlot(h.curPage)
	copy(h.curPage.Records[slot], record)
	h.curPage.Occupied[slot] = true

	if err := h.flushCurrentPage(); err != nil {
		return util.RecordId{}, err
	}

	return util.RecordId{PageNumber: uint32(h.curPageId), SlotNumber: uint32(slot)}, nil
}

func (h *HeapFile) isFull(p *heapPage) bool {
	return h.firstFreeSlot(p) == -1
}

func (h *HeapFile) firstFreeSlot(p *heapPage) int {
	for i, occ := range p.Occupied {
		if !occ {
			return i
		}
	}
	return -1
}

func (h *HeapFile) flushCurrentPage() error {
	if h.curPage == nil {
		return nil
	}
	guard, err := h.bpm.WritePage(h.curPageId)
	if err != nil {
		return err
	}
	defer guard.Drop()

	data, err := encodeHeapPage(h.curPage)
	if err != nil {
		return err
	}
	copy(*guard.GetDataMut(), data)
	return nil
}

// Close flushes all dirty pages and closes the underlying file.
func (h *HeapFile) Close() error {
	h.bpm.FlushAll()
	return h.dm.Close()
}

// Iterator returns a forward cursor over every occupied slot of every page,
// in page then slot order.
func (h *HeapFile) Iterator() *Iterator {
	return &Iterator{heapFile: h, pageIdx: 0, slot: 0}
}

// Iterator walks a HeapFile page by page, slot by slot.
type Iterator struct {
	heapFile *HeapFile
	pageIdx  int
	slot     int
	page     *heapPage
	pageId   int64
	loaded   bool
}

// HasNext reports whether a further occupied slot remains.
func (it *Iterator) HasNext() bool {
	for {
		if !it.loaded {
			if it.pageIdx >= len(it.heapFile.pageIds) {
				return false
			}
			it.pageId = it.heapFile.pageIds[it.pageIdx]

			guard, err := it.heapFile.bpm.ReadPage(it.pageId)
			if err != nil {
				return false
			}
			page, err := decodeHeapPage(guard.GetData())
			guard.Drop()
			if err != nil {
				return false
			}
			it.page = page
			it.slot = 0
			it.loaded = true
		}

		for it.slot < len(it.page.Occupied) {
			if it.page.Occupied[it.slot] {
				return true
			}
			it.slot++
		}

		it.pageIdx++
		it.loaded = false
	}
}

// Next returns the current occupied slot's record and RecordId, advancing
// past it. Callers must check HasNext first.
func (it *Iterator) Next() ([]byte, util.RecordId, error) {
	if !it.loaded && !it.HasNext() {
		return nil, util.RecordId{}, fmt.Errorf("heap: iterator exhausted")
	}

	record := it.page.Records[it.slot]
	rid := util.RecordId{PageNumber: uint32(it.pageId), SlotNumber: uint32(it.slot)}
	it.slot++
	return record, rid, nil
}
