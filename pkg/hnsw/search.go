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

// SearchOption configures a single Search call.
type SearchOption func(*searchParams)

type searchParams struct {
	pred     Predicate
	filterEF int
}

// WithFilter restricts Search to candidates admitted by pred. pred is
// typically built from a compiled package filter Program via filter.Evaluate;
// the engine never parses attrs itself. filterEF, if > 0, overrides the
// Index's default predicate-evaluation budget (WithFilterEF) for this call.
func WithFilter(pred Predicate, filterEF int) SearchOption {
	return func(p *searchParams) {
		p.pred = pred
		p.filterEF = filterEF
	}
}

// Search returns up to k nearest neighbors of query, ordered by ascending
// distance. efSearch overrides the Index's default search-time candidate
// list size; pass 0 to use the value set by WithEfSearch.
func (idx *Index) Search(query Vector, k, efSearch int, opts ...SearchOption) ([]Result, error) {
	if len(query) != idx.dim {
		return nil, ErrBadInput
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}

	params := &searchParams{}
	for _, opt := range opts {
		opt(params)
	}

	// The read slot is the only synchronization with writers: no lock is
	// taken, so Search never blocks behind Insert or Delete. Writers
	// install a node's links before publishing it and defer physical
	// frees until every slot has advanced past the deletion version, so
	// the graph observed here is always consistent.
	slot := idx.AcquireReadSlot()
	defer idx.ReleaseReadSlot(slot)

	if idx.closed {
		return nil, ErrClosed
	}
	if idx.ep == nil {
		return nil, nil
	}

	if efSearch <= 0 {
		efSearch = idx.efSearch
	}
	ef := efSearch
	if ef < k {
		ef = k
	}

	normed, _ := normalize(query)
	dist := kernelFor(idx.kind)
	qv := encode(idx.kind, normed)

	entry := idx.ep
	for l := idx.maxLevel; l > 0; l-- {
		entry = greedyDescend(idx.store, dist, qv, entry, l)
	}

	budget := 0
	if params.pred != nil {
		budget = params.filterEF
		if budget <= 0 {
			mult := idx.filterEFMultiplier
			if mult <= 0 {
				mult = 100
			}
			budget = mult * k
		}
	}

	// found is sorted ascending by distance (closest first).
	found := searchLayer(idx.store, dist, qv, entry, ef, 0, params.pred, budget)
	if len(found) > k {
		found = found[:k]
	}

	results := make([]Result, len(found))
	for i, c := range found {
		results[i] = Result{Node: *idx.publicNode(c.n), Distance: c.dist}
	}
	return results, nil
}
