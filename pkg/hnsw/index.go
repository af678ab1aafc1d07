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
	"math"
	"math/rand"
	"sync"
)

// Index owns every node of one HNSW graph. All vectors inserted into an
// Index share its dimension and quantization; both are fixed at New and
// cannot change afterward.
//
// Index is safe for concurrent use: Search acquires a read slot and never
// blocks on the write lock; Insert and Delete serialize on the write lock.
// See the package doc for the optimistic two-phase insert path.
type Index struct {
	dim  int
	kind Quantization

	m, m0              int
	efConstruction     int
	efSearch           int
	filterEFMultiplier int
	seed               int64

	mu        sync.RWMutex // the single global write lock
	store     *store
	byID      map[uint64]*node
	ep        *node
	maxLevel  int
	nodeCount int
	closed    bool

	epoch *epochRegistry

	// rng backs randomLevel; only touched while mu is held for writing.
	// The optimistic insert path draws levels from its own per-call
	// source instead (see levelFromRand).
	rng *rand.Rand
}

// New creates an empty Index for vectors of the given dimension, stored in
// the given quantization. Returns ErrBadInput for dim <= 0 or an
// unrecognized Quantization.
func New(dim int, kind Quantization, opts ...Option) (*Index, error) {
	if dim <= 0 {
		return nil, ErrBadInput
	}
	if kind != FP32 && kind != Q8 && kind != BIN {
		return nil, ErrBadInput
	}

	idx := defaultIndex()
	idx.dim = dim
	idx.kind = kind
	for _, opt := range opts {
		opt(idx)
	}

	idx.store = newStore()
	idx.byID = make(map[uint64]*node)
	idx.epoch = newEpochRegistry()
	seed := idx.seed
	if seed == 0 {
		seed = rand.Int63()
	}
	idx.rng = rand.New(rand.NewSource(seed))

	return idx, nil
}

// Dimensions returns the fixed vector dimensionality.
func (idx *Index) Dimensions() int { return idx.dim }

// Quantization returns the fixed storage format.
func (idx *Index) Quantization() Quantization { return idx.kind }

// Len returns the number of live nodes.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.nodeCount
}

// Free tears the index down, releasing its node arena. Every further
// operation on idx returns ErrClosed.
func (idx *Index) Free() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.store = nil
	idx.byID = nil
	idx.ep = nil
}

// AcquireReadSlot reserves a slot in the epoch registry, pinning the graph
// version the caller will observe. Search calls this internally; it is
// exported for callers that want to batch several searches under one
// pinned snapshot.
func (idx *Index) AcquireReadSlot() int {
	return idx.epoch.acquire()
}

// ReleaseReadSlot releases a slot acquired with AcquireReadSlot, allowing
// any nodes deleted since to be physically reclaimed once every other
// slot has advanced past their version too.
func (idx *Index) ReleaseReadSlot(slot int) {
	idx.epoch.release(slot)
}

// randomLevel draws a level from floor(-ln(U)*m_L), U ~ Uniform(0,1),
// m_L = 1/ln(M). Must be called with idx.mu held for writing (the RNG is
// not otherwise synchronized), or through the thread-local RNG used by the
// optimistic insert path (see optimistic.go).
func (idx *Index) randomLevel() int {
	r := idx.rng.Float64()
	for r == 0 {
		r = idx.rng.Float64()
	}
	level := int(-math.Log(r) * idx.levelMult())
	if level < 0 {
		level = 0
	}
	return level
}

// cap returns the neighbor cap for a level: M0 at layer 0, M above it.
func (idx *Index) cap(level int) int {
	if level == 0 {
		return idx.m0
	}
	return idx.m
}
