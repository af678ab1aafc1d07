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
	"fmt"
	"io"
)

// Stats is a point-in-time snapshot of the graph's shape, collected by
// Index.Stats and rendered by PrintStats.
type Stats struct {
	Nodes        int
	Dim          int
	Quantization Quantization
	MaxLevel     int
	// LevelCounts[l] is the number of live nodes whose level is exactly l.
	LevelCounts []int
	// AvgNeighbors is the mean level-0 adjacency length across live nodes.
	AvgNeighbors float64
}

// Stats walks the live list and summarizes the graph.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	st := Stats{
		Nodes:        idx.nodeCount,
		Dim:          idx.dim,
		Quantization: idx.kind,
		MaxLevel:     idx.maxLevel,
	}
	if idx.maxLevel >= 0 {
		st.LevelCounts = make([]int, idx.maxLevel+1)
	}

	var totalNeighbors int
	idx.store.liveNodes(func(n *node) bool {
		if n.level < len(st.LevelCounts) {
			st.LevelCounts[n.level]++
		}
		totalNeighbors += len(n.neighborsAt(0))
		return true
	})
	if st.Nodes > 0 {
		st.AvgNeighbors = float64(totalNeighbors) / float64(st.Nodes)
	}
	return st
}

// PrintStats writes a human-readable rendering of Stats to w, one line per
// metric, for the bundled CLI demo and offline debugging.
func (idx *Index) PrintStats(w io.Writer) {
	st := idx.Stats()
	fmt.Fprintf(w, "nodes: %d\n", st.Nodes)
	fmt.Fprintf(w, "dim: %d quant: %s\n", st.Dim, st.Quantization)
	fmt.Fprintf(w, "max level: %d\n", st.MaxLevel)
	for l, c := range st.LevelCounts {
		fmt.Fprintf(w, "level %d: %d nodes\n", l, c)
	}
	fmt.Fprintf(w, "avg level-0 neighbors: %.2f\n", st.AvgNeighbors)
}
