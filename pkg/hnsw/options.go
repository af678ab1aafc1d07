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

import "math"

// Option configures an Index at construction time.
type Option func(*Index)

// WithM sets the number of bidirectional links created per node at each
// upper layer (M). The base layer cap M0 defaults to 2*M. Higher M
// improves recall at the cost of memory and slower inserts.
// Default: 16, recommended range 12-48.
func WithM(m int) Option {
	return func(idx *Index) {
		idx.m = m
		idx.m0 = m * 2
	}
}

// WithM0 overrides the base-layer neighbor cap independently of WithM.
func WithM0(m0 int) Option {
	return func(idx *Index) { idx.m0 = m0 }
}

// WithEfConstruction sets the default build-time candidate list size used
// when a caller passes efConstruction <= 0 to Insert. Default: 200.
func WithEfConstruction(ef int) Option {
	return func(idx *Index) { idx.efConstruction = ef }
}

// WithEfSearch sets the default search-time candidate list size used when a
// caller passes efSearch <= 0 to Search. Default: 64.
func WithEfSearch(ef int) Option {
	return func(idx *Index) { idx.efSearch = ef }
}

// WithFilterEF sets the default hybrid-search predicate budget: filtered
// search tests at most multiplier*k candidates against the predicate, and
// stops once that budget is spent or once ef admitted results are held and
// no closer candidate remains, whichever comes first. ef itself is not
// changed. Default: 100.
func WithFilterEF(multiplier int) Option {
	return func(idx *Index) { idx.filterEFMultiplier = multiplier }
}

// WithSeed fixes the random source used for level sampling, for
// reproducible builds in tests and benchmarks.
func WithSeed(seed int64) Option {
	return func(idx *Index) { idx.seed = seed }
}

func defaultIndex() *Index {
	return &Index{
		m:                  16,
		m0:                 32,
		efConstruction:     200,
		efSearch:           64,
		filterEFMultiplier: 100,
		maxLevel:           -1,
	}
}

// levelMult returns 1/ln(M), the multiplier used by randomLevel.
func (idx *Index) levelMult() float64 {
	return 1.0 / math.Log(float64(idx.m))
}
