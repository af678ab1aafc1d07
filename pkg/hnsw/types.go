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

// Package hnsw implements an in-memory Hierarchical Navigable Small World
// graph for approximate nearest neighbor search.
//
// # When to use it
//
// HNSW trades exactness for speed: search is O(log n) rather than the O(n)
// of a brute-force scan, at the cost of occasionally missing the true
// nearest neighbor. It is the right structure once a collection grows past
// a few thousand vectors; below that a linear scan is simpler and exact.
//
// # Quantization
//
// Every node in an Index is stored in exactly one of three formats, fixed
// when the Index is created:
//
//   - FP32: exact, 4 bytes per dimension.
//   - Q8: 1 byte per dimension plus a single float32 scale, ~4x smaller.
//   - BIN: 1 bit per dimension, ~32x smaller, coarsest recall.
//
// # Concurrency
//
// One writer at a time (Insert, Delete serialize on Index's write lock);
// many concurrent readers (Search acquires a read slot from the epoch
// registry, never the write lock). See AcquireReadSlot and the package-level
// "Optimistic inserts" section below for the insert path that searches
// without the write lock.
//
// # Optimistic inserts
//
// PrepareInsert runs the expensive candidate search without holding the
// write lock. TryCommitInsert re-validates under the lock and either
// commits or returns ErrConflict, in which case the caller should fall back
// to Insert.
package hnsw

import "encoding/json"

// Vector is a fixed-dimensionality sequence of components. All vectors in
// one Index share the dimension fixed at New.
type Vector []float32

// Quantization selects the storage format used for every node in an Index.
// Mixing quantizations within one Index is forbidden; see New.
type Quantization int

const (
	// FP32 stores each component as an exact 4-byte float.
	FP32 Quantization = iota
	// Q8 stores each component as a signed byte plus one shared float32 scale.
	Q8
	// BIN stores one sign bit per component.
	BIN
)

// String returns a human-readable name, used by the bundled CLI demo.
func (q Quantization) String() string {
	switch q {
	case FP32:
		return "fp32"
	case Q8:
		return "q8"
	case BIN:
		return "bin"
	default:
		return "unknown"
	}
}

// Node is the read-only view of a live graph node returned by Insert,
// TryCommitInsert, and Search. The underlying storage
// (quantized vector, adjacency lists, live-list links) is owned by the
// Index and is not exported; callers needing the original vector back call
// Index.GetNodeVector.
type Node struct {
	// ID is the caller-assigned 64-bit identifier, unique within an Index.
	ID uint64
	// Value is an opaque caller-supplied payload (e.g. the source word).
	Value any
	// Level is the layer this node was promoted to at insertion time,
	// drawn from a geometric-like distribution (see randomLevel).
	Level int
	// Attributes is the optional JSON attribute blob consulted by filtered
	// search (see package filter). Nil if the node carries no attributes.
	Attributes json.RawMessage

	slot uint32 // internal arena slot; stable for the node's lifetime
}

// Result is one entry of a Search call's output: a Node paired with its
// distance to the query.
type Result struct {
	Node     Node
	Distance float32
}

// Predicate reports whether a node's attributes satisfy a filtered search
// condition. Package filter's Program, together with its Evaluate function,
// is the usual source of a Predicate; the engine never parses attrs itself,
// it only ever calls a Predicate supplied by the caller (see WithFilter).
type Predicate func(attrs json.RawMessage) bool
