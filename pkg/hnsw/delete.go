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

import "sort"

// Delete removes id from the index. The node is unsplice'd from the live
// list and marked dead immediately; its arena slot is only freed once every
// concurrent reader that could have observed it has released its read
// slot (see epoch.go).
//
// Returns ErrNotFound if id is not present.
func (idx *Index) Delete(id uint64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}

	n, ok := idx.byID[id]
	if !ok {
		return ErrNotFound
	}

	dist := kernelFor(idx.kind)

	for level := n.level; level >= 0; level-- {
		exNeighbors := make([]*node, 0, len(n.neighbors[level]))
		for _, slot := range n.neighbors[level] {
			v := idx.store.get(slot)
			if v == nil || v.deleted {
				continue
			}
			removeBacklink(v, n.slot, level)
			exNeighbors = append(exNeighbors, v)
		}

		// Relink: restore cap(level)/2 connectivity among n's
		// ex-neighbors for any of them left under-connected by the
		// removal, per the fixed deletion policy.
		target := idx.cap(level) / 2
		for _, v := range exNeighbors {
			if len(v.neighbors[level]) >= target {
				continue
			}
			idx.relink(v, exNeighbors, level, target, dist)
		}
	}

	if n == idx.ep {
		idx.promoteNewEntryPoint(n)
	}

	idx.store.unsplice(n)
	delete(idx.byID, id)
	idx.nodeCount--

	deadVersion := idx.epoch.bumpVersion()
	n.deleted = true
	n.deadVersion = deadVersion
	idx.epoch.deferFree(n, deadVersion, idx.store.free)

	return nil
}

// relink attempts to bring v back up to target neighbors at level by
// linking it to its fellow ex-neighbors of the deleted node, closest first,
// subject to each candidate's own cap.
func (idx *Index) relink(v *node, exNeighbors []*node, level, target int, dist distanceFunc) {
	candidates := make([]candidate, 0, len(exNeighbors))
	for _, u := range exNeighbors {
		if u.slot == v.slot || u.deleted {
			continue
		}
		if alreadyLinked(v, u.slot, level) {
			continue
		}
		candidates = append(candidates, candidate{u, dist(v.qv, u.qv)})
	}
	sort.Slice(candidates, func(i, j int) bool { return less(candidates[i], candidates[j]) })

	capV := idx.cap(level)
	for _, c := range candidates {
		if len(v.neighbors[level]) >= target {
			return
		}
		u := c.n
		if len(u.neighbors[level]) >= idx.cap(level) {
			continue
		}
		if len(v.neighbors[level]) >= capV {
			return
		}
		v.neighbors[level] = append(v.neighbors[level], u.slot)
		u.neighbors[level] = append(u.neighbors[level], v.slot)
	}
}

func alreadyLinked(n *node, slot uint32, level int) bool {
	for _, s := range n.neighbors[level] {
		if s == slot {
			return true
		}
	}
	return false
}

// promoteNewEntryPoint picks the highest-level surviving node as the new ep
// after the current ep is deleted, decrementing maxLevel if nothing remains
// at it.
func (idx *Index) promoteNewEntryPoint(deleted *node) {
	var best *node
	idx.store.liveNodes(func(c *node) bool {
		if c.slot == deleted.slot || c.deleted {
			return true
		}
		if best == nil || c.level > best.level {
			best = c
		}
		return true
	})

	idx.ep = best
	if best == nil {
		idx.maxLevel = -1
		return
	}
	idx.maxLevel = best.level
}
