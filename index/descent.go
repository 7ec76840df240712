package index

// findLeafForProbe walks from the root to the leaf that must contain the
// first key satisfying `>= probe`, following exactly one child per level.
// Descent never mutates a page and holds at most one pin at a time.
func (idx *Index) findLeafForProbe(probe int32) (int64, error) {
	rootIsLeaf, err := idx.rootIsLeaf()
	if err != nil {
		return 0, err
	}
	if rootIsLeaf {
		return idx.meta.Root, nil
	}

	currId := idx.meta.Root
	for {
		node, err := idx.readInternal(currId)
		if err != nil {
			return 0, err
		}

		i := node.childIndex(probe)
		child := node.Children[i]

		if node.Level == 1 {
			return child, nil
		}
		currId = child
	}
}
