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

import "container/heap"

// candidate pairs a node with its distance to the query, tie-broken by id
// ascending so builds are reproducible.
type candidate struct {
	n    *node
	dist float32
}

func less(a, b candidate) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.n.id < b.n.id
}

// candHeap is a binary heap of candidates, usable as either a min-heap
// (closest-first, for the unexplored frontier) or a max-heap
// (farthest-first, for the current best-k set) depending on maxHeap.
type candHeap struct {
	items   []candidate
	maxHeap bool
}

func (h *candHeap) Len() int { return len(h.items) }
func (h *candHeap) Less(i, j int) bool {
	if h.maxHeap {
		return less(h.items[j], h.items[i])
	}
	return less(h.items[i], h.items[j])
}
func (h *candHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *candHeap) Push(x any)    { h.items = append(h.items, x.(candidate)) }
func (h *candHeap) Pop() any {
	n := len(h.items)
	last := h.items[n-1]
	h.items = h.items[:n-1]
	return last
}

func newMinHeap() *candHeap { return &candHeap{maxHeap: false} }
func newMaxHeap() *candHeap { return &candHeap{maxHeap: true} }

func (h *candHeap) push(c candidate) { heap.Push(h, c) }
func (h *candHeap) pop() candidate   { return heap.Pop(h).(candidate) }
func (h *candHeap) peek() candidate  { return h.items[0] }
