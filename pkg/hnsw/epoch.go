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
	"sync"
	"sync/atomic"
)

// numReadSlots bounds the number of readers that may be "in flight"
// (between AcquireReadSlot and ReleaseReadSlot) at once. A reader arriving
// when all slots are occupied blocks until one frees, rather than spinning
// unbounded.
const numReadSlots = 16

// epochRegistry implements quiescent-state reclamation: the sole
// synchronization point between Search readers and Delete's physical
// free. A node marked dead at version V may only be freed once every
// occupied read slot holds a value > V, i.e. no reader that could have
// observed the node is still active.
type epochRegistry struct {
	version atomic.Uint64
	slots   [numReadSlots]atomic.Uint64 // 0 == free, else the version held

	mu   sync.Mutex
	cond *sync.Cond

	pendingMu sync.Mutex
	pending   []deadNode // awaiting reclamation
}

type deadNode struct {
	n       *node
	version uint64
}

func newEpochRegistry() *epochRegistry {
	r := &epochRegistry{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// acquire reserves a free slot, stamping it with the current version, and
// returns the slot index. Blocks if all slots are occupied.
func (r *epochRegistry) acquire() int {
	for {
		if i, ok := r.tryAcquire(); ok {
			return i
		}
		// All slots occupied: wait for one to free rather than spin
		// forever. The re-check under the mutex closes the window where a
		// release lands between the lock-free scan and Wait.
		r.mu.Lock()
		if i, ok := r.tryAcquire(); ok {
			r.mu.Unlock()
			return i
		}
		r.cond.Wait()
		r.mu.Unlock()
	}
}

func (r *epochRegistry) tryAcquire() (int, bool) {
	v := r.version.Load() + 1 // never store the sentinel value 0
	for i := range r.slots {
		if r.slots[i].CompareAndSwap(0, v) {
			return i, true
		}
	}
	return 0, false
}

// release frees a previously acquired slot and wakes any blocked acquirer.
func (r *epochRegistry) release(slot int) {
	r.slots[slot].Store(0)
	r.mu.Lock()
	r.cond.Broadcast()
	r.mu.Unlock()
}

// bumpVersion advances the global version and returns the new value. Only
// called by the writer, which holds the Index's write lock.
func (r *epochRegistry) bumpVersion() uint64 {
	return r.version.Add(1)
}

// deferFree records n as dead as of deadVersion and attempts immediate
// reclamation of anything already quiescent.
func (r *epochRegistry) deferFree(n *node, deadVersion uint64, free func(*node)) {
	r.pendingMu.Lock()
	r.pending = append(r.pending, deadNode{n: n, version: deadVersion})
	r.pendingMu.Unlock()
	r.reclaim(free)
}

// reclaim frees every pending node whose death predates every occupied
// read slot's observed version.
func (r *epochRegistry) reclaim(free func(*node)) {
	minActive := r.minActiveVersion()

	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()

	kept := r.pending[:0]
	for _, d := range r.pending {
		if minActive == 0 || d.version < minActive {
			free(d.n)
		} else {
			kept = append(kept, d)
		}
	}
	r.pending = kept
}

// minActiveVersion returns the smallest version held by any occupied read
// slot, or 0 if no slot is occupied.
func (r *epochRegistry) minActiveVersion() uint64 {
	var min uint64
	for i := range r.slots {
		v := r.slots[i].Load()
		if v == 0 {
			continue
		}
		if min == 0 || v < min {
			min = v
		}
	}
	return min
}
