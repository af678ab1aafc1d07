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

import "github.com/chewxy/math32"

// distanceFunc computes a scalar in [0, 2], the L2-squared distance on the
// unit sphere, between two quantized vectors of the same variant. Cosine
// similarity recovers as 1 - d/2.
//
// Kernels are pure, total, allocation-free, and deterministic: the same
// pair of vectors always yields the same distance.
type distanceFunc func(a, b *quantized) float32

// kernelFor returns the distance kernel for a quantization variant.
func kernelFor(q Quantization) distanceFunc {
	switch q {
	case FP32:
		return distanceFP32
	case Q8:
		return distanceQ8
	case BIN:
		return distanceBIN
	default:
		return distanceFP32
	}
}

// distanceFP32 computes the exact squared Euclidean distance between two
// unit-normalized float32 vectors.
func distanceFP32(a, b *quantized) float32 {
	var sum float32
	for i, av := range a.fp32 {
		d := av - b.fp32[i]
		sum += d * d
	}
	return sum
}

// distanceQ8 approximates squared Euclidean distance from two int8-coded
// vectors without dequantizing each component individually: the raw code
// difference is accumulated in integer arithmetic, then scaled once by the
// product of the two vectors' per-vector ranges.
func distanceQ8(a, b *quantized) float32 {
	var sum int32
	for i, ac := range a.q8 {
		d := int32(ac) - int32(b.q8[i])
		sum += d * d
	}
	scale := (a.q8Range * b.q8Range) / (127 * 127)
	return float32(sum) * scale
}

// distanceBIN maps Hamming distance between two sign-bitmaps to angular
// distance: 2*(popcount(a^b)/D). Two identical bitmaps are distance 0, two
// with every bit flipped are distance 2.
func distanceBIN(a, b *quantized) float32 {
	if a.dim == 0 {
		return 0
	}
	hamming := a.bin.SymmetricDifferenceCardinality(b.bin)
	return 2 * (float32(hamming) / float32(a.dim))
}

// sqErrApprox is a small helper kept for the Q8 accuracy test harness: it
// reports the worst-case per-component reconstruction error for a given
// range, used as the tolerance of the Q8 component-error test.
func sqErrApprox(rng float32) float32 {
	return math32.Abs(rng) / 127
}
