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
	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
)

// quantized is the tagged union backing every node's stored vector. A node
// is created in exactly one quantization and never mixes variants; New
// rejects an Index whose Quantization isn't FP32, Q8, or BIN.
type quantized struct {
	kind Quantization
	dim  int

	fp32 []float32 // FP32 only

	q8      []int8  // Q8 only
	q8Range float32 // Q8 only: max |component| across the normalized vector

	bin *bitset.BitSet // BIN only
}

// encode quantizes an already-unit-normalized vector into the Index's
// configured storage format.
func encode(q Quantization, v Vector) *quantized {
	switch q {
	case Q8:
		return encodeQ8(v)
	case BIN:
		return encodeBIN(v)
	default:
		cp := make([]float32, len(v))
		copy(cp, v)
		return &quantized{kind: FP32, dim: len(v), fp32: cp}
	}
}

// encodeQ8 computes range = max|v_i| and quantizes each component to
// round(v_i * 127 / range).
func encodeQ8(v Vector) *quantized {
	var rng float32
	for _, c := range v {
		if a := math32.Abs(c); a > rng {
			rng = a
		}
	}
	codes := make([]int8, len(v))
	if rng > 0 {
		for i, c := range v {
			codes[i] = int8(math32.Round(c * 127 / rng))
		}
	}
	return &quantized{kind: Q8, dim: len(v), q8: codes, q8Range: rng}
}

// encodeBIN sets bit i to 1 when component i is positive, 0 otherwise, so
// that orthogonal one-hot vectors land on distinct bitmaps.
func encodeBIN(v Vector) *quantized {
	bs := bitset.New(uint(len(v)))
	for i, c := range v {
		if c > 0 {
			bs.Set(uint(i))
		}
	}
	return &quantized{kind: BIN, dim: len(v), bin: bs}
}

// decode reconstructs an approximate fp32 vector from a quantized value. If
// denormalize is true and norm != 1, the result is scaled back to the
// vector's original (pre-normalization) magnitude.
func decode(qv *quantized, norm float32, denormalize bool) Vector {
	var out Vector
	switch qv.kind {
	case FP32:
		out = make(Vector, len(qv.fp32))
		copy(out, qv.fp32)
	case Q8:
		out = make(Vector, len(qv.q8))
		for i, c := range qv.q8 {
			out[i] = float32(c) * qv.q8Range / 127
		}
	case BIN:
		out = make(Vector, qv.dim)
		scale := float32(1)
		if qv.dim > 0 {
			scale = 1 / math32.Sqrt(float32(qv.dim))
		}
		for i := 0; i < qv.dim; i++ {
			if qv.bin.Test(uint(i)) {
				out[i] = scale
			} else {
				out[i] = -scale
			}
		}
	}
	if denormalize && norm != 0 && norm != 1 {
		for i := range out {
			out[i] *= norm
		}
	}
	return out
}
