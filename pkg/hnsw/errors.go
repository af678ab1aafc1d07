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

import "errors"

var (
	// ErrBadInput is returned for a zero or mismatched dimension, or an
	// unrecognized Quantization.
	ErrBadInput = errors.New("hnsw: bad input")
	// ErrNotFound is returned when an id does not name a live node.
	ErrNotFound = errors.New("hnsw: not found")
	// ErrOutOfMemory names the allocation-failure error kind. No function in
	// this package returns it, and Insert does not detect allocation
	// failure or unwind partial links.
	ErrOutOfMemory = errors.New("hnsw: out of memory")
	// ErrConflict is returned by TryCommitInsert when the graph changed
	// between PrepareInsert and the commit attempt. Callers should retry
	// via Insert, which holds the write lock for its whole duration.
	ErrConflict = errors.New("hnsw: optimistic insert conflict")
	// ErrInvalidK is returned by Search when k <= 0.
	ErrInvalidK = errors.New("hnsw: k must be positive")
	// ErrClosed is returned by any operation on an Index after Free.
	ErrClosed = errors.New("hnsw: index is closed")
)
