package index

import (
	"fmt"

	"github.com/relindex/bptreeidx/buffer"
	"github.com/relindex/bptreeidx/util"
)

// IndexMeta lives at the fixed header page (page id 0). It is rewritten
// only when the root page changes.
type IndexMeta struct {
	RelationName   string
	AttrByteOffset int32
	AttrType       AttrType
	Root           int64
}

func readMeta(bpm *buffer.BufferpoolManager) (IndexMeta, error) {
	guard, err := bpm.ReadPage(HEADER_PAGE_ID)
	if err != nil {
		return IndexMeta{}, fmt.Errorf("reading header page: %w", err)
	}
	defer guard.Drop()

	return util.ToStruct[IndexMeta](guard.GetData())
}

func writeMeta(bpm *buffer.BufferpoolManager, meta IndexMeta) error {
	guard, err := bpm.WritePage(HEADER_PAGE_ID)
	if err != nil {
		return fmt.Errorf("writing header page: %w", err)
	}
	defer guard.Drop()

	data, err := util.ToByteSlice(meta)
	if err != nil {
		return fmt.Errorf("encoding header page: %w", err)
	}
	copy(*guard.GetDataMut(), data)
	return nil
}
