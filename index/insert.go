package index

import (
	"fmt"
	"log/slog"

	"github.com/relindex/bptreeidx/util"
)

// Insert adds (key, rid) to the tree. On return every page this call pinned
// has been unpinned again, split or not.
func (idx *Index) Insert(key int32, rid util.RecordId) error {
	rootIsLeaf, err := idx.rootIsLeaf()
	if err != nil {
		return fmt.Errorf("checking root kind: %w", err)
	}

	if rootIsLeaf {
		promoted, newRight, split, err := idx.insertIntoLeafPage(idx.meta.Root, key, rid)
		if err != nil {
			return err
		}
		if !split {
			return nil
		}
		return idx.growRoot(1, promoted, newRight)
	}

	promoted, newRight, split, err := idx.insertIntoInternalPage(idx.meta.Root, key, rid)
	if err != nil {
		return err
	}
	if !split {
		return nil
	}

	oldRoot, err := idx.readInternal(idx.meta.Root)
	if err != nil {
		return err
	}
	return idx.growRoot(oldRoot.Level+1, promoted, newRight)
}

// growRoot allocates a new internal root pointing at the old root and its
// freshly split-off sibling. This is the only place tree height grows.
func (idx *Index) growRoot(level int32, promoted int32, newRight int64) error {
	newRootId := idx.bpm.NewPageId()
	newRoot := newInternalNode(level)
	newRoot.Keys[0] = promoted
	newRoot.Children[0] = idx.meta.Root
	newRoot.Children[1] = newRight

	if err := idx.writeInternal(newRootId, newRoot); err != nil {
		return err
	}

	idx.meta.Root = newRootId
	if err := writeMeta(idx.bpm, idx.meta); err != nil {
		return err
	}
	slog.Debug("index.root.grow", "newRoot", newRootId, "level", level)
	return nil
}

func (idx *Index) rootIsLeaf() (bool, error) {
	guard, err := idx.bpm.ReadPage(idx.meta.Root)
	if err != nil {
		return false, err
	}
	defer guard.Drop()
	return peekIsLeaf(guard.GetData())
}

func (idx *Index) readLeaf(pageId int64) (*LeafNode, error) {
	guard, err := idx.bpm.ReadPage(pageId)
	if err != nil {
		return nil, err
	}
	defer guard.Drop()
	return decodeLeaf(guard.GetData())
}

func (idx *Index) readInternal(pageId int64) (*InternalNode, error) {
	guard, err := idx.bpm.ReadPage(pageId)
	if err != nil {
		return nil, err
	}
	defer guard.Drop()
	return decodeInternal(guard.GetData())
}

func (idx *Index) writeLeaf(pageId int64, n *LeafNode) error {
	guard, err := idx.bpm.WritePage(pageId)
	if err != nil {
		return err
	}
	defer guard.Drop()

	data, err := encodeLeaf(n)
	if err != nil {
		return err
	}
	copy(*guard.GetDataMut(), data)
	return nil
}

func (idx *Index) writeInternal(pageId int64, n *InternalNode) error {
	guard, err := idx.bpm.WritePage(pageId)
	if err != nil {
		return err
	}
	defer guard.Drop()

	data, err := encodeInternal(n)
	if err != nil {
		return err
	}
	copy(*guard.GetDataMut(), data)
	return nil
}

// insertIntoLeafPage inserts (key, rid) into the leaf at pageId, splitting
// it if full. When it splits it returns the promoted key (the first key of
// the new right sibling) and that sibling's page id.
func (idx *Index) insertIntoLeafPage(pageId int64, key int32, rid util.RecordId) (int32, int64, bool, error) {
	guard, err := idx.bpm.WritePage(pageId)
	if err != nil {
		return 0, 0, false, err
	}
	defer guard.Drop()

	leaf, err := decodeLeaf(*guard.GetDataMut())
	if err != nil {
		return 0, 0, false, err
	}

	if !leaf.isFull() {
		insertKeySorted(leaf, key, rid)
		data, err := encodeLeaf(leaf)
		if err != nil {
			return 0, 0, false, err
		}
		copy(*guard.GetDataMut(), data)
		return 0, 0, false, nil
	}

	// merge the current entries with the new one into an oversized scratch
	// array, then split it: a new key landing in the left half leaves the
	// left leaf one entry larger, otherwise the right leaf takes the extra
	// entry.
	tmpKeys := make([]int32, 0, LEAF_CAP+1)
	tmpRids := make([]util.RecordId, 0, LEAF_CAP+1)
	inserted := false
	pos := LEAF_CAP
	for i := 0; i < LEAF_CAP; i++ {
		if !inserted && key < leaf.Keys[i] {
			tmpKeys = append(tmpKeys, key)
			tmpRids = append(tmpRids, rid)
			inserted = true
			pos = i
		}
		tmpKeys = append(tmpKeys, leaf.Keys[i])
		tmpRids = append(tmpRids, leaf.Rids[i])
	}
	if !inserted {
		tmpKeys = append(tmpKeys, key)
		tmpRids = append(tmpRids, rid)
	}

	mid := (LEAF_CAP + 1) / 2
	if pos < LEAF_CAP/2 {
		mid = LEAF_CAP/2 + 1
	}
	newLeafId := idx.bpm.NewPageId()
	right := newLeafNode()
	left := newLeafNode()

	copy(left.Keys[:], tmpKeys[:mid])
	copy(left.Rids[:], tmpRids[:mid])
	copy(right.Keys[:], tmpKeys[mid:])
	copy(right.Rids[:], tmpRids[mid:])

	right.RightSibling = leaf.RightSibling
	left.RightSibling = newLeafId

	if err := idx.writeLeaf(newLeafId, right); err != nil {
		return 0, 0, false, err
	}

	data, err := encodeLeaf(left)
	if err != nil {
		return 0, 0, false, err
	}
	copy(*guard.GetDataMut(), data)

	slog.Debug("index.leaf.split", "left", pageId, "right", newLeafId, "promoted", right.Keys[0])
	return right.Keys[0], newLeafId, true, nil
}

func insertKeySorted(leaf *LeafNode, key int32, rid util.RecordId) {
	size := leaf.size()
	i := size
	for i > 0 && leaf.Keys[i-1] > key {
		leaf.Keys[i] = leaf.Keys[i-1]
		leaf.Rids[i] = leaf.Rids[i-1]
		i--
	}
	leaf.Keys[i] = key
	leaf.Rids[i] = rid
}

// insertIntoInternalPage descends to the child that should hold key,
// inserts recursively, and absorbs (or propagates) any split the child
// reports. The pin on pageId is held for the whole call, including while
// the recursive call into the child is outstanding, so a child split can
// always mutate this node.
func (idx *Index) insertIntoInternalPage(pageId int64, key int32, rid util.RecordId) (int32, int64, bool, error) {
	guard, err := idx.bpm.WritePage(pageId)
	if err != nil {
		return 0, 0, false, err
	}
	defer guard.Drop()

	node, err := decodeInternal(*guard.GetDataMut())
	if err != nil {
		return 0, 0, false, err
	}

	i := node.childIndex(key)
	childId := node.Children[i]

	var promoted int32
	var newRight int64
	var split bool

	if node.Level == 1 {
		promoted, newRight, split, err = idx.insertIntoLeafPage(childId, key, rid)
	} else {
		promoted, newRight, split, err = idx.insertIntoInternalPage(childId, key, rid)
	}
	if err != nil {
		return 0, 0, false, err
	}
	if !split {
		return 0, 0, false, nil
	}

	if !node.isFull() {
		insertChildSorted(node, i, promoted, newRight)
		data, err := encodeInternal(node)
		if err != nil {
			return 0, 0, false, err
		}
		copy(*guard.GetDataMut(), data)
		return 0, 0, false, nil
	}

	// same merge-then-split strategy as the leaf case, but children shift
	// alongside their separating key: children[j] is always the pointer to
	// the left of tmpKeys[j].
	tmpKeys := make([]int32, 0, INTERNAL_CAP+1)
	tmpChildren := make([]int64, 0, INTERNAL_CAP+2)
	tmpChildren = append(tmpChildren, node.Children[0])
	inserted := false
	for j := 0; j < INTERNAL_CAP; j++ {
		if !inserted && j == i {
			tmpKeys = append(tmpKeys, promoted)
			tmpChildren = append(tmpChildren, newRight)
			inserted = true
		}
		tmpKeys = append(tmpKeys, node.Keys[j])
		tmpChildren = append(tmpChildren, node.Children[j+1])
	}
	if !inserted {
		tmpKeys = append(tmpKeys, promoted)
		tmpChildren = append(tmpChildren, newRight)
	}

	mid := INTERNAL_CAP / 2
	upKey := tmpKeys[mid]

	newRightId := idx.bpm.NewPageId()
	rightNode := newInternalNode(node.Level)
	leftNode := newInternalNode(node.Level)

	copy(leftNode.Keys[:], tmpKeys[:mid])
	copy(leftNode.Children[:], tmpChildren[:mid+1])
	copy(rightNode.Keys[:], tmpKeys[mid+1:])
	copy(rightNode.Children[:], tmpChildren[mid+1:])

	if err := idx.writeInternal(newRightId, rightNode); err != nil {
		return 0, 0, false, err
	}

	data, err := encodeInternal(leftNode)
	if err != nil {
		return 0, 0, false, err
	}
	copy(*guard.GetDataMut(), data)

	slog.Debug("index.internal.split", "left", pageId, "right", newRightId, "promoted", upKey)
	return upKey, newRightId, true, nil
}

// insertChildSorted inserts (key, child) so that Children[i+1] stays
// aligned with Keys[i]: the new key separates the existing child at slot i
// from the new child.
func insertChildSorted(node *InternalNode, i int, key int32, child int64) {
	size := node.size()
	for j := size; j > i; j-- {
		node.Keys[j] = node.Keys[j-1]
	}
	node.Keys[i] = key

	for j := size + 1; j > i+1; j-- {
		node.Children[j] = node.Children[j-1]
	}
	node.Children[i+1] = child
}
