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
	"math/rand"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// recallK is the neighborhood size used by TestGraphRecall, the standard
// recall@10 metric.
const recallK = 10

// TestGraphRecall samples random live nodes and compares the approximate
// Search result against a brute-force linear scan, reporting the mean
// recall@10 across the sample. It runs the sampled queries concurrently
// with an errgroup since each query only acquires its own read slot and
// never mutates shared state.
func (idx *Index) TestGraphRecall(samples int) (float64, error) {
	idx.mu.RLock()
	if idx.closed {
		idx.mu.RUnlock()
		return 0, ErrClosed
	}
	live := make([]*node, 0, idx.nodeCount)
	idx.store.liveNodes(func(n *node) bool {
		live = append(live, n)
		return true
	})
	idx.mu.RUnlock()

	if len(live) == 0 {
		return 0, nil
	}
	if samples > len(live) {
		samples = len(live)
	}

	dist := kernelFor(idx.kind)

	var totalHits int64
	var g errgroup.Group
	g.SetLimit(numReadSlots)
	perm := rand.Perm(len(live))

	for i := 0; i < samples; i++ {
		query := live[perm[i]]
		g.Go(func() error {
			truth := linearScanTop(live, dist, query.qv, recallK)
			approx, err := idx.Search(decode(query.qv, 1, false), recallK, idx.efSearch)
			if err != nil {
				return err
			}

			truthIDs := make(map[uint64]bool, len(truth))
			for _, c := range truth {
				truthIDs[c.n.id] = true
			}
			hits := 0
			for _, r := range approx {
				if truthIDs[r.Node.ID] {
					hits++
				}
			}

			atomic.AddInt64(&totalHits, int64(hits))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return float64(totalHits) / float64(samples*recallK), nil
}

// linearScanTop returns the k closest nodes to qv among live by brute-force
// scan, used as TestGraphRecall's ground truth.
func linearScanTop(live []*node, dist distanceFunc, qv *quantized, k int) []candidate {
	all := make([]candidate, 0, len(live))
	for _, n := range live {
		if n.deleted {
			continue
		}
		all = append(all, candidate{n, dist(qv, n.qv)})
	}
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	if len(all) > k {
		all = all[:k]
	}
	return all
}
