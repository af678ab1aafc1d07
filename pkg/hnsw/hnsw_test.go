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
	"math/rand"
	"sync"
	"testing"
)

func randomVector(dims int, rng *rand.Rand) Vector {
	v := make(Vector, dims)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}

func TestSearchBasisVectorsFP32(t *testing.T) {
	idx, err := New(3, FP32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	if _, err := idx.Insert(1, Vector{1, 0, 0}, nil, nil, 0); err != nil {
		t.Fatalf("Insert 1: %v", err)
	}
	if _, err := idx.Insert(2, Vector{0, 1, 0}, nil, nil, 0); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}
	if _, err := idx.Insert(3, Vector{0, 0, 1}, nil, nil, 0); err != nil {
		t.Fatalf("Insert 3: %v", err)
	}

	results, err := idx.Search(Vector{1, 0, 0}, 2, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Node.ID != 1 {
		t.Errorf("results[0].Node.ID = %d, want 1", results[0].Node.ID)
	}
	if results[0].Distance != 0 {
		t.Errorf("results[0].Distance = %v, want 0", results[0].Distance)
	}
	if results[1].Node.ID != 2 && results[1].Node.ID != 3 {
		t.Errorf("results[1].Node.ID = %d, want 2 or 3", results[1].Node.ID)
	}
	if results[1].Distance < 1.9 || results[1].Distance > 2.1 {
		t.Errorf("results[1].Distance = %v, want ~2", results[1].Distance)
	}
}

func TestSearchBasisVectorsBIN(t *testing.T) {
	idx, err := New(3, BIN)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	idx.Insert(1, Vector{1, 0, 0}, nil, nil, 0)
	idx.Insert(2, Vector{0, 1, 0}, nil, nil, 0)
	idx.Insert(3, Vector{0, 0, 1}, nil, nil, 0)

	results, err := idx.Search(Vector{1, 0, 0}, 3, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		ok := approxEq(r.Distance, 0) || approxEq(r.Distance, 2.0/3*2) || approxEq(r.Distance, 2)
		if !ok {
			t.Errorf("distance %v not in {0, 2/3*2, 2}", r.Distance)
		}
	}
}

func approxEq(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-3
}

func TestInsertDuplicateIDIsNoOp(t *testing.T) {
	idx, err := New(4, FP32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	rng := rand.New(rand.NewSource(1))
	v1 := randomVector(4, rng)
	n1, err := idx.Insert(1, v1, "first", nil, 0)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	v2 := randomVector(4, rng)
	n2, err := idx.Insert(1, v2, "second", nil, 0)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if n1.ID != n2.ID || n2.Value != "first" {
		t.Errorf("re-inserting id=1 should return the original node unchanged, got Value=%v", n2.Value)
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}
}

func TestValidateGraphAfterInsertsAndDeletes(t *testing.T) {
	idx, err := New(8, FP32, WithM(8), WithEfConstruction(32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	rng := rand.New(rand.NewSource(42))
	const n = 200
	for i := uint64(0); i < n; i++ {
		if _, err := idx.Insert(i, randomVector(8, rng), nil, nil, 0); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	reached, reciprocal := idx.ValidateGraph()
	if !reciprocal {
		t.Errorf("ValidateGraph: links not reciprocal after inserts")
	}
	if reached != n {
		t.Errorf("ValidateGraph: reached %d, want %d", reached, n)
	}

	for i := uint64(0); i < n; i += 2 {
		if err := idx.Delete(i); err != nil {
			t.Fatalf("Delete(%d): %v", i, err)
		}
	}

	reached, reciprocal = idx.ValidateGraph()
	if !reciprocal {
		t.Errorf("ValidateGraph: links not reciprocal after deletes")
	}
	if reached != n/2 {
		t.Errorf("ValidateGraph: reached %d, want %d", reached, n/2)
	}

	idx.store.liveNodes(func(nd *node) bool {
		for l := 0; l <= nd.level; l++ {
			if got := len(nd.neighbors[l]); got > idx.cap(l) {
				t.Errorf("node %d has %d neighbors at level %d, cap is %d", nd.id, got, l, idx.cap(l))
			}
		}
		return true
	})
}

func TestDeleteThenSearchExcludesDeleted(t *testing.T) {
	idx, err := New(4, FP32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	rng := rand.New(rand.NewSource(7))
	for i := uint64(0); i < 50; i++ {
		idx.Insert(i, randomVector(4, rng), nil, nil, 0)
	}
	if err := idx.Delete(10); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	results, err := idx.Search(randomVector(4, rng), 50, 200)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.Node.ID == 10 {
			t.Errorf("deleted node 10 appeared in search results")
		}
	}
}

func TestGetNodeVectorFP32RoundTrip(t *testing.T) {
	idx, err := New(4, FP32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	v := Vector{0, 1, 0, 0} // already unit norm, exactly representable
	if _, err := idx.Insert(1, v, nil, nil, 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := idx.GetNodeVector(1, false)
	if err != nil {
		t.Fatalf("GetNodeVector: %v", err)
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("component %d: got %v, want %v (bit-exact)", i, got[i], v[i])
		}
	}
}

func TestFilteredSearch(t *testing.T) {
	idx, err := New(4, FP32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	rng := rand.New(rand.NewSource(3))
	for i := uint64(0); i < 30; i++ {
		attrs := []byte(`{"group":"even"}`)
		if i%2 != 0 {
			attrs = []byte(`{"group":"odd"}`)
		}
		idx.Insert(i, randomVector(4, rng), nil, attrs, 0)
	}

	pred := func(attrs json.RawMessage) bool {
		return string(attrs) == `{"group":"even"}`
	}

	results, err := idx.Search(randomVector(4, rng), 10, 100, WithFilter(pred, 0))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.Node.ID%2 != 0 {
			t.Errorf("filtered search returned odd id %d", r.Node.ID)
		}
	}
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	idx, err := New(4, FP32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	rng := rand.New(rand.NewSource(99))
	for i := uint64(0); i < 100; i++ {
		idx.Insert(i, randomVector(4, rng), nil, nil, 0)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			localRng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					if _, err := idx.Search(randomVector(4, localRng), 5, 0); err != nil {
						t.Errorf("Search: %v", err)
					}
				}
			}
		}(int64(r))
	}

	writerRng := rand.New(rand.NewSource(123))
	for i := uint64(100); i < 150; i++ {
		idx.Insert(i, randomVector(4, writerRng), nil, nil, 0)
	}

	close(stop)
	wg.Wait()

	if _, reciprocal := idx.ValidateGraph(); !reciprocal {
		t.Errorf("ValidateGraph: links not reciprocal after concurrent access")
	}
}

func TestStatsAfterBuild(t *testing.T) {
	idx, err := New(4, Q8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Free()

	rng := rand.New(rand.NewSource(17))
	const n = 60
	for i := uint64(0); i < n; i++ {
		idx.Insert(i, randomVector(4, rng), nil, nil, 0)
	}

	st := idx.Stats()
	if st.Nodes != n {
		t.Errorf("Stats.Nodes = %d, want %d", st.Nodes, n)
	}
	if st.Quantization != Q8 || st.Dim != 4 {
		t.Errorf("Stats identity = %s/%d, want q8/4", st.Quantization, st.Dim)
	}
	var counted int
	for _, c := range st.LevelCounts {
		counted += c
	}
	if counted != n {
		t.Errorf("sum(LevelCounts) = %d, want %d", counted, n)
	}
	if st.AvgNeighbors <= 0 {
		t.Errorf("AvgNeighbors = %v, want > 0", st.AvgNeighbors)
	}
}

func TestTestGraphRecallFP32OutperformsBIN(t *testing.T) {
	const n, dims = 300, 16

	build := func(kind Quantization, seed int64) *Index {
		idx, err := New(dims, kind, WithEfConstruction(64))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		rng := rand.New(rand.NewSource(seed))
		for i := uint64(0); i < n; i++ {
			idx.Insert(i, randomVector(dims, rng), nil, nil, 0)
		}
		return idx
	}

	fp32 := build(FP32, 5)
	defer fp32.Free()
	bin := build(BIN, 5)
	defer bin.Free()

	fp32Recall, err := fp32.TestGraphRecall(50)
	if err != nil {
		t.Fatalf("TestGraphRecall(FP32): %v", err)
	}
	binRecall, err := bin.TestGraphRecall(50)
	if err != nil {
		t.Fatalf("TestGraphRecall(BIN): %v", err)
	}

	if fp32Recall < binRecall {
		t.Errorf("expected FP32 recall (%v) >= BIN recall (%v)", fp32Recall, binRecall)
	}
}
