// Copyright (c) 2024 vecset Contributors
//
// Permission is hereby granted, free of charge, to any person
// obtaining a copy of this software and associated documentation
// files (the "Software"), to deal in the Software without
// restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the
// Software is furnished to do so, subject to the following
// conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package hnsw

import "encoding/json"

// node is the unexported, arena-owned representation of a graph node.
// Adjacency lists reference neighbors by their stable arena slot (a
// uint32 index), never by pointer, so that the arena can grow (via
// append) without invalidating any in-flight reference: growth only
// appends new *node values to the arena slice, it never moves existing
// ones. The live list, in contrast, links nodes directly by pointer since
// those pointers are themselves never relocated once allocated.
type node struct {
	slot  uint32
	id    uint64
	value any
	attrs json.RawMessage

	qv   *quantized
	norm float32

	level     int
	neighbors [][]uint32 // neighbors[level] = slot indices, len(neighbors) == level+1

	prev, next *node // live list, rooted at store.head

	deleted     bool
	deadVersion uint64
}

// store is the node arena embedded in Index. The free list lets deleted
// slots be reused without ever reallocating (and thus relocating) a live
// node's backing struct.
type store struct {
	arena    []*node
	freeList []uint32
	head     *node // sentinel; head.next is the first live node
	tail     *node // sentinel; tail.prev is the last live node
	count    int
}

func newStore() *store {
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head
	return &store{head: head, tail: tail}
}

// allocNode reserves a slot and returns a new node with level+1 empty
// neighbor lists. The caller fills in id/value/attrs/qv/norm/level before
// publishing the node via splice.
func (s *store) allocNode(level int) *node {
	n := &node{level: level, neighbors: make([][]uint32, level+1)}
	if len(s.freeList) > 0 {
		last := len(s.freeList) - 1
		n.slot = s.freeList[last]
		s.freeList = s.freeList[:last]
		s.arena[n.slot] = n
	} else {
		n.slot = uint32(len(s.arena))
		s.arena = append(s.arena, n)
	}
	return n
}

// get resolves a slot index back to its node, or nil if the slot has been
// freed since the caller observed it (can only happen across a drained
// epoch boundary; see epoch.go).
func (s *store) get(slot uint32) *node {
	if int(slot) >= len(s.arena) {
		return nil
	}
	return s.arena[slot]
}

// splice inserts n at the head of the live list.
func (s *store) splice(n *node) {
	n.next = s.head.next
	n.prev = s.head
	s.head.next.prev = n
	s.head.next = n
	s.count++
}

// unsplice removes n from the live list without freeing its slot; physical
// reclamation is deferred to the epoch registry.
func (s *store) unsplice(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
	s.count--
}

// free returns a node's slot to the free list. Must only be called once no
// read slot can still observe the node (see epochRegistry.reclaim).
func (s *store) free(n *node) {
	s.arena[n.slot] = nil
	s.freeList = append(s.freeList, n.slot)
}

// liveNodes walks the live list head-to-tail; used by ValidateGraph,
// TestGraphRecall, and the flat-scan ground truth.
func (s *store) liveNodes(yield func(*node) bool) {
	for n := s.head.next; n != s.tail; n = n.next {
		if !yield(n) {
			return
		}
	}
}
