package index

import (
	"github.com/vmihailenco/msgpack"

	"github.com/relindex/bptreeidx/util"
)

// LeafNode is the entire payload of a leaf page: an ascending, left-packed
// run of (key, rid) pairs followed by KEY_ABSENT-filled slots, plus a
// pointer to the next leaf in key order.
type LeafNode struct {
	IsLeaf       bool
	Keys         [LEAF_CAP]int32
	Rids         [LEAF_CAP]util.RecordId
	RightSibling int64
}

// InternalNode is the entire payload of an internal page: size() ascending
// keys and size()+1 child pointers. Level 1 means children are leaves.
type InternalNode struct {
	IsLeaf   bool
	Level    int32
	Keys     [INTERNAL_CAP]int32
	Children [INTERNAL_CAP + 1]int64
}

func newLeafNode() *LeafNode {
	n := &LeafNode{IsLeaf: true, RightSibling: PAGE_NONE}
	for i := range n.Keys {
		n.Keys[i] = KEY_ABSENT
	}
	return n
}

func newInternalNode(level int32) *InternalNode {
	n := &InternalNode{IsLeaf: false, Level: level}
	for i := range n.Keys {
		n.Keys[i] = KEY_ABSENT
	}
	for i := range n.Children {
		n.Children[i] = PAGE_NONE
	}
	return n
}

// size returns the number of used key slots: the length of the dense
// left-packed prefix before the first KEY_ABSENT.
func (n *LeafNode) size() int {
	for i, k := range n.Keys {
		if k == KEY_ABSENT {
			return i
		}
	}
	return LEAF_CAP
}

func (n *LeafNode) isFull() bool {
	return n.Keys[LEAF_CAP-1] != KEY_ABSENT
}

func (n *InternalNode) size() int {
	for i, k := range n.Keys {
		if k == KEY_ABSENT {
			return i
		}
	}
	return INTERNAL_CAP
}

func (n *InternalNode) isFull() bool {
	return n.Keys[INTERNAL_CAP-1] != KEY_ABSENT
}

// childIndex returns the smallest i such that key < Keys[i], or the used
// key count when key is greater than or equal to every used key.
func (n *InternalNode) childIndex(key int32) int {
	i := 0
	size := n.size()
	for i < size && key >= n.Keys[i] {
		i++
	}
	return i
}

// nodeKind decodes only the leading discriminant field so the caller knows
// which concrete type to decode the rest of the page into.
type nodeKind struct {
	IsLeaf bool
}

func peekIsLeaf(data []byte) (bool, error) {
	var probe nodeKind
	if err := msgpack.Unmarshal(data, &probe); err != nil {
		return false, err
	}
	return probe.IsLeaf, nil
}

func encodeLeaf(n *LeafNode) ([]byte, error) {
	return util.ToByteSlice(*n)
}

func decodeLeaf(data []byte) (*LeafNode, error) {
	n, err := util.ToStruct[LeafNode](data)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func encodeInternal(n *InternalNode) ([]byte, error) {
	return util.ToByteSlice(*n)
}

func decodeInternal(data []byte) (*InternalNode, error) {
	n, err := util.ToStruct[InternalNode](data)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
