package index

import (
	"github.com/relindex/bptreeidx/buffer"
	"github.com/relindex/bptreeidx/util"
)

// Operator is a range-scan bound comparator.
type Operator int

const (
	GT Operator = iota
	GTE
	LT
	LTE
)

func isLowOp(op Operator) bool  { return op == GT || op == GTE }
func isHighOp(op Operator) bool { return op == LT || op == LTE }

// scanState holds the single pin a live scan keeps: exactly one leaf page,
// released on the next sibling hop or on EndScan.
type scanState struct {
	active    bool
	high      int32
	highOp    Operator
	guard     *buffer.ReadPageGuard
	leaf      *LeafNode
	nextEntry int
}

// StartScan opens a range cursor over [low, high] under the given
// operators, ending any scan already in progress on this index.
func (idx *Index) StartScan(low int32, lowOp Operator, high int32, highOp Operator) error {
	if low > high {
		return util.NewError(util.ErrBadRange, "low must not exceed high")
	}
	if !isLowOp(lowOp) || !isHighOp(highOp) {
		return util.NewError(util.ErrBadOperator, "lowOp must be GT/GTE and highOp must be LT/LTE")
	}

	if idx.scan.active {
		_ = idx.EndScan()
	}

	probe := low
	if lowOp == GT {
		probe = low + 1
	}

	leafId, err := idx.findLeafForProbe(probe)
	if err != nil {
		return err
	}

	guard, leaf, err := idx.pinLeaf(leafId)
	if err != nil {
		return err
	}

	nextEntry := 0
	size := leaf.size()
	for nextEntry < size {
		key := leaf.Keys[nextEntry]
		if (lowOp == GT && key > low) || (lowOp == GTE && key >= low) {
			break
		}
		nextEntry++
	}

	idx.scan = scanState{
		active:    true,
		high:      high,
		highOp:    highOp,
		guard:     guard,
		leaf:      leaf,
		nextEntry: nextEntry,
	}
	return nil
}

func (idx *Index) pinLeaf(pageId int64) (*buffer.ReadPageGuard, *LeafNode, error) {
	guard, err := idx.bpm.ReadPage(pageId)
	if err != nil {
		return nil, nil, err
	}
	leaf, err := decodeLeaf(guard.GetData())
	if err != nil {
		guard.Drop()
		return nil, nil, err
	}
	return guard, leaf, nil
}

// NextScan returns the next qualifying record id, following the leaf
// sibling chain as the current leaf is exhausted.
func (idx *Index) NextScan() (util.RecordId, error) {
	if !idx.scan.active {
		return util.RecordId{}, util.NewError(util.ErrScanNotStarted, "no active scan")
	}

	for {
		size := idx.scan.leaf.size()
		if idx.scan.nextEntry >= size {
			if idx.scan.leaf.RightSibling == PAGE_NONE {
				return util.RecordId{}, util.NewError(util.ErrScanComplete, "no more qualifying entries")
			}

			rightSibling := idx.scan.leaf.RightSibling
			idx.scan.guard.Drop()
			idx.scan.guard = nil
			nextGuard, nextLeaf, err := idx.pinLeaf(rightSibling)
			if err != nil {
				return util.RecordId{}, err
			}
			idx.scan.guard = nextGuard
			idx.scan.leaf = nextLeaf
			idx.scan.nextEntry = 0
			continue
		}
		break
	}

	key := idx.scan.leaf.Keys[idx.scan.nextEntry]
	satisfiesHigh := (idx.scan.highOp == LT && key < idx.scan.high) ||
		(idx.scan.highOp == LTE && key <= idx.scan.high)

	if !satisfiesHigh {
		return util.RecordId{}, util.NewError(util.ErrScanComplete, "no more qualifying entries")
	}

	rid := idx.scan.leaf.Rids[idx.scan.nextEntry]
	idx.scan.nextEntry++
	return rid, nil
}

// EndScan releases the scan's pinned leaf and clears cursor state.
func (idx *Index) EndScan() error {
	if !idx.scan.active {
		return util.NewError(util.ErrScanNotStarted, "no active scan")
	}
	idx.scan.guard.Drop()
	idx.scan = scanState{}
	return nil
}
