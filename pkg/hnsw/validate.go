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

// ValidateGraph is a debug primitive: it walks from the entry point at
// every layer and asserts every live node is reached and every adjacency
// link has its inverse. It is O(n*avg_degree) and intended for tests and
// offline health checks, not the hot path.
//
// liveReached is the number of distinct nodes reached by BFS from ep at
// level 0; every live node should be reachable. reciprocal is false if any
// link at any level lacks its back-link.
func (idx *Index) ValidateGraph() (liveReached int, reciprocal bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	reciprocal = true
	idx.store.liveNodes(func(n *node) bool {
		for level := 0; level <= n.level; level++ {
			for _, slot := range n.neighbors[level] {
				nb := idx.store.get(slot)
				if nb == nil || nb.deleted {
					reciprocal = false
					continue
				}
				if !alreadyLinked(nb, n.slot, level) {
					reciprocal = false
				}
			}
		}
		return true
	})

	if idx.ep == nil {
		return 0, reciprocal
	}

	visited := make(map[uint32]bool)
	queue := []*node{idx.ep}
	visited[idx.ep.slot] = true
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		liveReached++
		for _, slot := range n.neighborsAt(0) {
			if visited[slot] {
				continue
			}
			nb := idx.store.get(slot)
			if nb == nil || nb.deleted {
				continue
			}
			visited[slot] = true
			queue = append(queue, nb)
		}
	}

	return liveReached, reciprocal
}
