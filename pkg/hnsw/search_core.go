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

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// greedyDescend repeatedly steps to the locally nearest neighbor of entry
// at the given level, stopping when no neighbor improves on the current
// node. Used to refine the entry point while descending from maxLevel down
// to level+1 during both insertion and search.
func greedyDescend(s *store, dist distanceFunc, qv *quantized, entry *node, level int) *node {
	current := entry
	currentDist := dist(qv, current.qv)
	for {
		improved := false
		for _, nbSlot := range current.neighborsAt(level) {
			nb := s.get(nbSlot)
			if nb == nil || nb.deleted {
				continue
			}
			d := dist(qv, nb.qv)
			if d < currentDist {
				current = nb
				currentDist = d
				improved = true
			}
		}
		if !improved {
			return current
		}
	}
}

// searchLayer performs a beam search: a min-heap of unexplored candidates
// and a max-heap of the current best-ef, expanding from the min-heap until
// its best distance exceeds the max-heap's worst. The visited set is
// private to this call, a fresh roaring.Bitmap keyed by arena slot, so
// concurrent calls never share mutable state.
//
// pred, when non-nil, is the optional filtered-search predicate: a
// candidate is only appended to the returned slice if pred admits it, but
// it is still expanded for graph traversal either way. budget caps the
// number of predicate evaluations performed (FILTER_EF): once it is spent,
// the neighbors of the node being expanded are still tested, and then the
// search stops.
func searchLayer(s *store, dist distanceFunc, qv *quantized, entry *node, ef int, level int, pred Predicate, budget int) []candidate {
	visited := roaring.New()
	visited.Add(entry.slot)

	entryDist := dist(qv, entry.qv)
	candidates := newMinHeap()
	candidates.push(candidate{entry, entryDist})

	results := newMaxHeap()
	admitted := 0
	if pred == nil || admit(pred, entry, &budget) {
		results.push(candidate{entry, entryDist})
		admitted++
	}

	for candidates.Len() > 0 {
		c := candidates.pop()

		if admitted >= ef && results.Len() > 0 && less(results.peek(), c) {
			break
		}
		if pred != nil && budget <= 0 {
			break
		}

		for _, nbSlot := range c.n.neighborsAt(level) {
			if visited.Contains(nbSlot) {
				continue
			}
			visited.Add(nbSlot)

			nb := s.get(nbSlot)
			if nb == nil || nb.deleted {
				continue
			}

			d := dist(qv, nb.qv)
			worst := float32(0)
			hasWorst := results.Len() > 0
			if hasWorst {
				worst = results.peek().dist
			}

			if !hasWorst || d < worst || admitted < ef {
				candidates.push(candidate{nb, d})

				if pred == nil || admit(pred, nb, &budget) {
					results.push(candidate{nb, d})
					admitted++
					if admitted > ef {
						heapPopResult(results)
						admitted--
					}
				}
			}
		}
	}

	out := make([]candidate, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = results.pop()
	}
	return out
}

// admit evaluates pred against n's attributes, decrementing the remaining
// predicate-evaluation budget. Predicate implementations must themselves
// treat errors as non-match; evaluation errors never propagate out of
// Search.
func admit(pred Predicate, n *node, budget *int) bool {
	*budget--
	return pred(n.attrs)
}

func heapPopResult(h *candHeap) { h.pop() }

// neighborsAt returns n's neighbor slots at level, or nil if n has no
// presence at that level.
func (n *node) neighborsAt(level int) []uint32 {
	if level > n.level || level >= len(n.neighbors) {
		return nil
	}
	return n.neighbors[level]
}
