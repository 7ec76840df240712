package index

import "math"

// LEAF_CAP and INTERNAL_CAP are chosen well under what a 4096-byte page can
// hold once encoded (see util.ToByteSlice's page-size check) — small enough
// that a handful of inserts exercises a split, matching the scenarios this
// package's tests are built from.
const (
	LEAF_CAP     = 4
	INTERNAL_CAP = 4
)

// KEY_ABSENT marks an unused key slot. INTERNAL_CAP/LEAF_CAP arrays are
// left-packed: once a slot holds KEY_ABSENT, every slot after it does too.
const KEY_ABSENT int32 = math.MaxInt32

// PAGE_NONE marks the absence of a page: an internal node's unused child
// slot, or a leaf with no right sibling.
const PAGE_NONE int64 = -1

const HEADER_PAGE_ID int64 = 0

// AttrType enumerates the key data types an index can be built over. This
// build only defines the 32-bit signed integer case.
type AttrType int32

const (
	AttrTypeInt32 AttrType = iota
)
