package buffer

import (
	"sync"

	"github.com/relindex/bptreeidx/util"
)

func NewLrukReplacer(capacity, k int) *lrukReplacer {
	head := &lrukNode{frameId: INVALID_FRAME_ID}
	tail := &lrukNode{frameId: INVALID_FRAME_ID}

	head.next = tail
	tail.prev = head

	return &lrukReplacer{
		k:            k,
		nodeStore:    map[int]*lrukNode{},
		currSize:     0,
		head:         head,
		tail:         tail,
		replacerSize: capacity,
	}
}

func (lru *lrukReplacer) remove(frameId int) error {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	node, ok := lru.nodeStore[frameId]
	if !ok {
		return nil
	}

	if !node.isEvictable {
		return util.NewError(util.ErrUnknown, "evicting a non-evictable frame")
	}

	node.prev.next = node.next
	node.next.prev = node.prev

	delete(lru.nodeStore, frameId)
	if lru.currSize > 0 {
		lru.currSize--
	}

	return nil
}

// recordAccess bumps the replacer's logical clock and records an access for
// frameId, creating tracking state for it on first sight (the buffer pool
// never calls addNode directly; it only ever calls recordAccess).
func (lru *lrukReplacer) recordAccess(frameId int) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	node, ok := lru.nodeStore[frameId]
	if !ok {
		node = &lrukNode{frameId: frameId, k: lru.k}
		lru.addNodeLocked(node)
	}

	node.addTimestamp(lru.currTimestamp)
	lru.currTimestamp++

	// move to front of the recency list
	lru.removeNode(node)
	lru.addNodeLocked(node)
}

func (lru *lrukReplacer) removeNode(node *lrukNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}

func (lru *lrukReplacer) addNode(newNode *lrukNode) {
	lru.mu.Lock()
	defer lru.mu.Unlock()
	lru.addNodeLocked(newNode)
}

func (lru *lrukReplacer) addNodeLocked(newNode *lrukNode) {
	if newNode.k == 0 {
		newNode.k = lru.k
	}

	tmp := lru.head.next
	lru.head.next = newNode
	newNode.prev = lru.head
	newNode.next = tmp
	tmp.prev = newNode

	lru.nodeStore[newNode.frameId] = newNode
}

// setEvictable marks a frame as (in)eligible for eviction. Pinned frames
// must never be evictable; the buffer pool marks a frame evictable again the
// moment its pin count drops back to zero.
func (lru *lrukReplacer) setEvictable(frameId int, evictable bool) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	node, ok := lru.nodeStore[frameId]
	if !ok {
		return
	}

	if node.isEvictable && !evictable {
		lru.currSize--
	} else if !node.isEvictable && evictable {
		lru.currSize++
	}
	node.isEvictable = evictable
}

// evict picks a victim frame among the evictable ones, preferring a frame
// with fewer than k recorded accesses (evicting the oldest such frame
// first), and otherwise the frame whose k-th most recent access is furthest
// in the past ("backward k-distance"). Returns INVALID_FRAME_ID with a nil
// error when nothing is evictable.
func (lru *lrukReplacer) evict() (int, error) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	var victim *lrukNode
	for _, node := range lru.nodeStore {
		if !node.isEvictable {
			continue
		}
		if victim == nil || isBetterVictim(node, victim) {
			victim = node
		}
	}

	if victim == nil {
		return INVALID_FRAME_ID, nil
	}

	lru.removeNode(victim)
	delete(lru.nodeStore, victim.frameId)
	lru.currSize--

	return victim.frameId, nil
}

func isBetterVictim(candidate, current *lrukNode) bool {
	candidateFull := candidate.hasKAccess()
	currentFull := current.hasKAccess()

	if candidateFull != currentFull {
		// a frame with fewer than k accesses has infinite backward
		// k-distance and always outranks a frame with k accesses.
		return !candidateFull
	}

	return candidate.kthAccess() < current.kthAccess()
}

func (lru *lrukReplacer) size() int { return lru.currSize }

type lrukReplacer struct {
	mu            sync.Mutex
	nodeStore     map[int]*lrukNode
	replacerSize  int
	currSize      int
	currTimestamp int
	k             int
	head          *lrukNode
	tail          *lrukNode
}
