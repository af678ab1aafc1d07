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

// selectNeighborsHeuristic implements Malkov & Yashunin's extended
// neighbor-selection heuristic: rather than keeping the M closest
// candidates outright, a candidate is only kept if it is closer to the
// query than to every neighbor already kept. This spreads the selected set
// across directions instead of letting it cluster around one dense region,
// which is what gives HNSW its long-range "highway" edges at upper layers.
//
// candidates need not be sorted; extendCandidates, when true, also pulls in
// each candidate's own neighbors at level before selecting, trading extra
// distance evaluations for denser graphs.
func selectNeighborsHeuristic(s *store, dist distanceFunc, qv *quantized, candidates []candidate, m int, level int, extendCandidates bool) []uint32 {
	pool := candidates
	if extendCandidates {
		seen := make(map[uint32]bool, len(candidates))
		for _, c := range candidates {
			seen[c.n.slot] = true
		}
		extended := append([]candidate(nil), candidates...)
		for _, c := range candidates {
			for _, nbSlot := range c.n.neighborsAt(level) {
				if seen[nbSlot] {
					continue
				}
				seen[nbSlot] = true
				nb := s.get(nbSlot)
				if nb == nil || nb.deleted {
					continue
				}
				extended = append(extended, candidate{nb, dist(qv, nb.qv)})
			}
		}
		pool = extended
	}

	sort.Slice(pool, func(i, j int) bool { return less(pool[i], pool[j]) })

	selected := make([]candidate, 0, m)
	discarded := make([]candidate, 0, len(pool))

	for _, c := range pool {
		if len(selected) >= m {
			break
		}
		keep := true
		for _, sel := range selected {
			if dist(c.n.qv, sel.n.qv) < c.dist {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c)
		} else {
			discarded = append(discarded, c)
		}
	}

	// Keep-pruned-connections: if the heuristic discarded candidates but
	// left room under the cap, backfill with the closest discards so layers
	// are not needlessly sparse.
	for _, c := range discarded {
		if len(selected) >= m {
			break
		}
		selected = append(selected, c)
	}

	out := make([]uint32, len(selected))
	for i, c := range selected {
		out[i] = c.n.slot
	}
	return out
}
