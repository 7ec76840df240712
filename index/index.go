package index

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"github.com/relindex/bptreeidx/buffer"
	"github.com/relindex/bptreeidx/internal/config"
	"github.com/relindex/bptreeidx/internal/heap"
	"github.com/relindex/bptreeidx/storage/disk"
	"github.com/relindex/bptreeidx/util"
)

// closer is satisfied by the disk package's manager type without naming it
// (it's unexported), the same structural-typing trick internal/heap uses to
// hold onto whatever NewFile/OpenFile returned.
type closer interface {
	Close() error
}

// Index is a disk-resident B+ tree over a single fixed-width integer
// attribute of a relation's heap file. It keeps at most one live scan at a
// time, mirroring the single-cursor contract of the system it's modeled on.
// dm is nil when the index was handed an already-open bpm by its caller
// (OpenOrCreate); Close only closes the underlying file when the index
// opened it itself (Open).
type Index struct {
	name string
	bpm  *buffer.BufferpoolManager
	dm   closer
	meta IndexMeta
	scan scanState
}

// Open opens (or creates) the index file at dbPath, sizing its buffer pool
// and LRU-K replacer from cfg, and returns an Index that owns the file: its
// Close closes what Open opened. heapFile, if non-nil, bulk-loads a freshly
// created index.
func Open(dbPath string, relationName string, attrByteOffset int32, attrType AttrType, cfg config.Config, heapFile *heap.HeapFile) (*Index, error) {
	var dm closer
	var manager *buffer.BufferpoolManager

	if _, err := os.Stat(dbPath); err == nil {
		dmHandle, err := disk.OpenFile(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening index file %q: %w", dbPath, err)
		}
		dm = dmHandle
		scheduler := disk.NewScheduler(dmHandle)
		replacer := buffer.NewLrukReplacer(cfg.Buffer.PoolSize, cfg.Buffer.LrukK)
		manager = buffer.NewBufferpoolManager(cfg.Buffer.PoolSize, replacer, scheduler)
	} else {
		dmHandle, err := disk.NewFile(dbPath)
		if err != nil {
			return nil, fmt.Errorf("creating index file %q: %w", dbPath, err)
		}
		dm = dmHandle
		scheduler := disk.NewScheduler(dmHandle)
		replacer := buffer.NewLrukReplacer(cfg.Buffer.PoolSize, cfg.Buffer.LrukK)
		manager = buffer.NewBufferpoolManager(cfg.Buffer.PoolSize, replacer, scheduler)
	}

	idx, err := openOrCreate(relationName, attrByteOffset, attrType, manager, heapFile)
	if err != nil {
		_ = dm.Close()
		return nil, err
	}
	idx.dm = dm
	return idx, nil
}

// OpenOrCreate opens the index named "{relationName}.{attrByteOffset}" on an
// already-constructed buffer pool, creating it (and bulk-loading it from
// heapFile, if non-nil) when it doesn't already exist. attrType is validated
// against an existing index's recorded metadata. Since bpm was built by the
// caller, Close does not close the underlying file. Use Open when the
// index should own its file end to end.
func OpenOrCreate(relationName string, attrByteOffset int32, attrType AttrType, bpm *buffer.BufferpoolManager, heapFile *heap.HeapFile) (*Index, error) {
	return openOrCreate(relationName, attrByteOffset, attrType, bpm, heapFile)
}

func openOrCreate(relationName string, attrByteOffset int32, attrType AttrType, bpm *buffer.BufferpoolManager, heapFile *heap.HeapFile) (*Index, error) {
	name := fmt.Sprintf("%s.%d", relationName, attrByteOffset)

	meta, err := readMeta(bpm)
	alreadyCreated := err == nil && meta.RelationName != ""
	if alreadyCreated {
		if meta.RelationName != relationName || meta.AttrByteOffset != attrByteOffset || meta.AttrType != attrType {
			return nil, util.NewError(util.ErrBadIndexInfo, "existing index metadata does not match requested attribute")
		}
		slog.Debug("index.open", "name", name, "root", meta.Root)
		return &Index{name: name, bpm: bpm, meta: meta}, nil
	}

	rootId := bpm.NewPageId()
	root := newLeafNode()
	rootGuard, err := bpm.WritePage(rootId)
	if err != nil {
		return nil, fmt.Errorf("allocating root page: %w", err)
	}
	rootData, err := encodeLeaf(root)
	if err != nil {
		rootGuard.Drop()
		return nil, err
	}
	copy(*rootGuard.GetDataMut(), rootData)
	rootGuard.Drop()

	meta = IndexMeta{
		RelationName:   relationName,
		AttrByteOffset: attrByteOffset,
		AttrType:       attrType,
		Root:           rootId,
	}
	if err := writeMeta(bpm, meta); err != nil {
		return nil, fmt.Errorf("writing header page: %w", err)
	}

	idx := &Index{name: name, bpm: bpm, meta: meta}
	slog.Debug("index.create", "name", name, "root", rootId)

	if heapFile != nil {
		if err := idx.bulkLoad(heapFile, attrByteOffset); err != nil {
			return nil, fmt.Errorf("bulk loading %s: %w", name, err)
		}
	}

	return idx, nil
}

// bulkLoad walks every record in heapFile and inserts the 4-byte
// little-endian integer key at attrByteOffset, paired with the record's id.
func (idx *Index) bulkLoad(heapFile *heap.HeapFile, attrByteOffset int32) error {
	it := heapFile.Iterator()
	count := 0
	for it.HasNext() {
		record, rid, err := it.Next()
		if err != nil {
			return err
		}

		key := int32(binary.LittleEndian.Uint32(record[attrByteOffset : attrByteOffset+4]))
		if err := idx.Insert(key, rid); err != nil {
			return err
		}
		count++
	}
	slog.Debug("index.bulkload.done", "name", idx.name, "records", count)
	return nil
}

// Name returns "{relationName}.{attrByteOffset}".
func (idx *Index) Name() string {
	return idx.name
}

// Close ends any live scan, flushes every dirty page through the buffer
// manager, and, for an index opened with Open, closes the underlying file.
func (idx *Index) Close() error {
	if idx.scan.active {
		_ = idx.EndScan()
	}
	idx.bpm.FlushAll()
	if idx.dm != nil {
		return idx.dm.Close()
	}
	return nil
}
