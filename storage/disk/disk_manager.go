package disk

import (
	"fmt"
	"log/slog"
	"os"
)

// NewManager wraps an already-open file handle with page-slot bookkeeping.
// The file is expected to already be sized to hold DEFAULT_PAGE_CAPACITY
// pages; NewFile below does that for callers that don't have a handle yet.
func NewManager(file *os.File) *diskManager {
	return &diskManager{
		dbFile:       file,
		pageCapacity: DEFAULT_PAGE_CAPACITY,
		freeSlots:    []int{},
		pages:        map[int]int{},
	}
}

// NewFile creates the database file at path if it does not exist, sets its
// size to DEFAULT_PAGE_CAPACITY pages, and returns a manager wrapping it.
// An existing file's contents within that size are not cleared.
func NewFile(path string) (*diskManager, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating db file %q: %w", path, err)
	}
	if err := file.Truncate(int64(DEFAULT_PAGE_CAPACITY) * PAGE_SIZE); err != nil {
		return nil, fmt.Errorf("sizing db file %q: %w", path, err)
	}
	return NewManager(file), nil
}

// OpenFile opens an existing database file without resizing it.
func OpenFile(path string) (*diskManager, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening db file %q: %w", path, err)
	}
	return NewManager(file), nil
}

func (dm *diskManager) writePage(pageId int, data []byte) error {
	offset, pageFound := dm.pages[pageId]

	if !pageFound {
		allocated, err := dm.allocatePage()
		if err != nil {
			return err
		}
		offset = allocated
		dm.pages[pageId] = offset
	}

	if _, err := dm.dbFile.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("error writing at offset %d: %v", offset, err)
	}

	return nil
}

func (dm *diskManager) readPage(pageId int) ([]byte, error) {
	offset, pageFound := dm.pages[pageId]

	if !pageFound {
		allocated, err := dm.allocatePage()
		if err != nil {
			return nil, err
		}
		offset = allocated
		dm.pages[pageId] = offset
	}

	buf := make([]byte, PAGE_SIZE)
	if _, err := dm.dbFile.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("error reading from offset %d: %v", offset, err)
	}

	return buf, nil
}

func (dm *diskManager) deletePage(pageId int) {
	if offset, ok := dm.pages[pageId]; ok {
		dm.freeSlots = append(dm.freeSlots, offset)
		delete(dm.pages, pageId)
	}
}

func (dm *diskManager) allocatePage() (int, error) {
	if len(dm.freeSlots) > 0 {
		offset := dm.freeSlots[0]
		dm.freeSlots = dm.freeSlots[1:]

		return offset, nil
	}

	if len(dm.pages)+1 > dm.pageCapacity {
		dm.pageCapacity *= 2
		slog.Debug("disk.resize", "newCapacity", dm.pageCapacity)
		if err := dm.dbFile.Truncate(int64(dm.pageCapacity) * PAGE_SIZE); err != nil {
			return -1, fmt.Errorf("error resizing db file: %v", err)
		}
	}

	return dm.getNextOffset(), nil
}

func (dm *diskManager) getNextOffset() int {
	return len(dm.pages) * PAGE_SIZE
}

func (dm *diskManager) Close() error {
	return dm.dbFile.Close()
}

func (dm *diskManager) Name() string {
	return dm.dbFile.Name()
}

type diskManager struct {
	dbFile       *os.File
	pages        map[int]int
	freeSlots    []int
	pageCapacity int
}
