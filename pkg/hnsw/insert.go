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

// Insert adds v under id, returning its Node. If id is already present,
// Insert is a no-op update path that returns the existing node unchanged
// (re-inserting under a live id never mutates the graph).
//
// efConstruction overrides the Index's default build-time ef for this call
// only; pass 0 to use the value set by WithEfConstruction.
func (idx *Index) Insert(id uint64, v Vector, value any, attrs json.RawMessage, efConstruction int) (*Node, error) {
	if len(v) != idx.dim {
		return nil, ErrBadInput
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, ErrClosed
	}

	if existing, ok := idx.byID[id]; ok {
		return idx.publicNode(existing), nil
	}

	if efConstruction <= 0 {
		efConstruction = idx.efConstruction
	}

	n := idx.insertLocked(id, v, value, attrs, efConstruction)
	return idx.publicNode(n), nil
}

// insertLocked performs steps 1-8 of the build algorithm. Caller must hold
// idx.mu for writing.
func (idx *Index) insertLocked(id uint64, v Vector, value any, attrs json.RawMessage, efConstruction int) *node {
	normed, norm := normalize(v)
	qv := encode(idx.kind, normed)
	dist := kernelFor(idx.kind)

	level := idx.randomLevel()
	n := idx.store.allocNode(level)
	n.id = id
	n.value = value
	n.attrs = attrs
	n.qv = qv
	n.norm = norm

	if idx.ep == nil {
		idx.ep = n
		idx.maxLevel = level
		idx.store.splice(n)
		idx.byID[id] = n
		idx.nodeCount++
		return n
	}

	entry := idx.ep
	for l := idx.maxLevel; l > level; l-- {
		entry = greedyDescend(idx.store, dist, qv, entry, l)
	}

	for l := min(level, idx.maxLevel); l >= 0; l-- {
		found := searchLayer(idx.store, dist, qv, entry, efConstruction, l, nil, 0)
		neighborSlots := selectNeighborsHeuristic(idx.store, dist, qv, found, idx.cap(l), l, false)
		n.neighbors[l] = neighborSlots

		// Range over a copy: when nb prunes n, removeBacklink shifts
		// n.neighbors[l], which shares neighborSlots' backing array.
		for _, nbSlot := range append([]uint32(nil), neighborSlots...) {
			nb := idx.store.get(nbSlot)
			idx.linkBidirectional(n, nb, l, dist)
		}

		if len(found) > 0 {
			entry = found[0].n
		}
	}

	if level > idx.maxLevel {
		idx.ep = n
		idx.maxLevel = level
	}

	idx.store.splice(n)
	idx.byID[id] = n
	idx.nodeCount++
	return n
}

// linkBidirectional installs n<->nb at level, then if nb's neighbor list
// now exceeds cap(level), re-runs the heuristic selector on nb's list
// (including n) truncated to cap(level). Pruned links are removed
// symmetrically (step 6 of the build algorithm).
func (idx *Index) linkBidirectional(n, nb *node, level int, dist distanceFunc) {
	n.neighbors[level] = appendUnique(n.neighbors[level], nb.slot)
	nb.neighbors[level] = appendUnique(nb.neighbors[level], n.slot)

	capacity := idx.cap(level)
	if len(nb.neighbors[level]) <= capacity {
		return
	}

	pool := make([]candidate, 0, len(nb.neighbors[level]))
	for _, slot := range nb.neighbors[level] {
		m := idx.store.get(slot)
		if m == nil || m.deleted {
			continue
		}
		pool = append(pool, candidate{m, dist(nb.qv, m.qv)})
	}

	kept := selectNeighborsHeuristic(idx.store, dist, nb.qv, pool, capacity, level, false)
	keptSet := make(map[uint32]bool, len(kept))
	for _, s := range kept {
		keptSet[s] = true
	}

	for _, slot := range nb.neighbors[level] {
		if slot == nb.slot || keptSet[slot] {
			continue
		}
		m := idx.store.get(slot)
		if m == nil {
			continue
		}
		removeBacklink(m, nb.slot, level)
	}

	nb.neighbors[level] = kept
}

func appendUnique(slots []uint32, s uint32) []uint32 {
	for _, existing := range slots {
		if existing == s {
			return slots
		}
	}
	return append(slots, s)
}

func removeBacklink(n *node, slot uint32, level int) {
	if level >= len(n.neighbors) {
		return
	}
	list := n.neighbors[level]
	for i, s := range list {
		if s == slot {
			n.neighbors[level] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (idx *Index) publicNode(n *node) *Node {
	return &Node{ID: n.id, Value: n.value, Level: n.level, Attributes: n.attrs, slot: n.slot}
}
