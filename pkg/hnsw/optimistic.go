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
	"encoding/json"
	"math"
	"math/rand"
)

// InsertContext is the off-lock work product of PrepareInsert: a candidate
// neighborhood computed without holding the write lock, plus the version
// stamp it was computed against. Pass it to TryCommitInsert to attempt a
// short commit under the write lock.
//
// An InsertContext is single-use: TryCommitInsert consumes it whether or
// not the commit succeeds.
type InsertContext struct {
	id    uint64
	value any
	attrs json.RawMessage

	qv   *quantized
	norm float32

	level     int
	observed  map[int][]uint32 // level -> neighbor slots seen during prepare
	entrySlot uint32
	version   uint64

	efConstruction int
}

// PrepareInsert runs the expensive candidate search for id without
// acquiring the write lock, recording the graph version observed. This is
// the performance lever of the optimistic insert path: many concurrent
// PrepareInsert calls can run in parallel against a stable snapshot, with
// only the brief TryCommitInsert needing exclusive access.
//
// The RNG used to draw the candidate's level is thread-local (a
// rand.Source seeded independently per call), so level sampling for the
// optimistic path never contends on the shared, write-lock-guarded Index
// RNG.
func (idx *Index) PrepareInsert(id uint64, v Vector, value any, attrs json.RawMessage, efConstruction int, localSeed int64) (*InsertContext, error) {
	if len(v) != idx.dim {
		return nil, ErrBadInput
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, ErrClosed
	}
	if _, ok := idx.byID[id]; ok {
		return nil, ErrConflict
	}
	if efConstruction <= 0 {
		efConstruction = idx.efConstruction
	}

	normed, norm := normalize(v)
	qv := encode(idx.kind, normed)
	dist := kernelFor(idx.kind)

	localRng := rand.New(rand.NewSource(localSeed))
	level := levelFromRand(localRng, idx.levelMult())

	ctx := &InsertContext{
		id: id, value: value, attrs: attrs,
		qv: qv, norm: norm, level: level,
		observed:       make(map[int][]uint32),
		version:        idx.epoch.version.Load(),
		efConstruction: efConstruction,
	}

	if idx.ep == nil {
		return ctx, nil
	}
	ctx.entrySlot = idx.ep.slot

	entry := idx.ep
	for l := idx.maxLevel; l > level; l-- {
		entry = greedyDescend(idx.store, dist, qv, entry, l)
	}
	for l := min(level, idx.maxLevel); l >= 0; l-- {
		found := searchLayer(idx.store, dist, qv, entry, efConstruction, l, nil, 0)
		slots := make([]uint32, len(found))
		for i, c := range found {
			slots[i] = c.n.slot
		}
		ctx.observed[l] = slots
		if len(found) > 0 {
			entry = found[0].n
		}
	}

	return ctx, nil
}

// TryCommitInsert validates that the graph version ctx was prepared
// against is unchanged and that every neighbor it observed is still live
// at its observed level, then commits under the write lock. On any
// divergence it returns ErrConflict and the caller should fall back to
// Insert, which recomputes the neighborhood under the lock.
func (idx *Index) TryCommitInsert(ctx *InsertContext) (*Node, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, ErrClosed
	}

	if existing, ok := idx.byID[ctx.id]; ok {
		return idx.publicNode(existing), nil
	}

	if idx.epoch.version.Load() != ctx.version {
		return nil, ErrConflict
	}
	if idx.ep != nil && idx.ep.slot != ctx.entrySlot {
		return nil, ErrConflict
	}

	for level, slots := range ctx.observed {
		for _, slot := range slots {
			n := idx.store.get(slot)
			if n == nil || n.deleted || n.level < level {
				return nil, ErrConflict
			}
		}
	}

	dist := kernelFor(idx.kind)
	n := idx.store.allocNode(ctx.level)
	n.id = ctx.id
	n.value = ctx.value
	n.attrs = ctx.attrs
	n.qv = ctx.qv
	n.norm = ctx.norm

	if idx.ep == nil {
		idx.ep = n
		idx.maxLevel = ctx.level
		idx.store.splice(n)
		idx.byID[ctx.id] = n
		idx.nodeCount++
		return idx.publicNode(n), nil
	}

	for level := min(ctx.level, idx.maxLevel); level >= 0; level-- {
		slots := ctx.observed[level]
		found := make([]candidate, 0, len(slots))
		for _, slot := range slots {
			m := idx.store.get(slot)
			if m == nil || m.deleted {
				continue
			}
			found = append(found, candidate{m, dist(ctx.qv, m.qv)})
		}
		neighborSlots := selectNeighborsHeuristic(idx.store, dist, ctx.qv, found, idx.cap(level), level, false)
		n.neighbors[level] = neighborSlots
		// Range over a copy: when nb prunes n, removeBacklink shifts
		// n.neighbors[level], which shares neighborSlots' backing array.
		for _, nbSlot := range append([]uint32(nil), neighborSlots...) {
			nb := idx.store.get(nbSlot)
			idx.linkBidirectional(n, nb, level, dist)
		}
	}

	if ctx.level > idx.maxLevel {
		idx.ep = n
		idx.maxLevel = ctx.level
	}

	idx.store.splice(n)
	idx.byID[ctx.id] = n
	idx.nodeCount++
	return idx.publicNode(n), nil
}

// levelFromRand draws a level the same way Index.randomLevel does, but
// against an arbitrary thread-local source instead of the write-lock-guarded
// Index RNG.
func levelFromRand(r *rand.Rand, levelMult float64) int {
	u := r.Float64()
	for u == 0 {
		u = r.Float64()
	}
	level := int(-math.Log(u) * levelMult)
	if level < 0 {
		level = 0
	}
	return level
}
