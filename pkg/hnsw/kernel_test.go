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
	"math/rand"
	"testing"
)

func TestDistanceFP32Identity(t *testing.T) {
	v, _ := normalize(Vector{0.3, -0.1, 0.9, 0.2})
	qv := encode(FP32, v)
	if d := distanceFP32(qv, qv); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func TestDistanceBIN_Orthogonal(t *testing.T) {
	a := encode(BIN, Vector{1, 0, 0})
	b := encode(BIN, Vector{0, 1, 0})
	d := distanceBIN(a, b)
	if d < 1.32 || d > 1.34 {
		t.Errorf("distanceBIN(orthogonal) = %v, want ~%v", d, 2.0/3*2)
	}
}

func TestDistanceBIN_Opposite(t *testing.T) {
	a := encode(BIN, Vector{1, 1, 1})
	b := encode(BIN, Vector{-1, -1, -1})
	d := distanceBIN(a, b)
	if d != 2 {
		t.Errorf("distanceBIN(opposite signs) = %v, want 2", d)
	}
}

func TestDistanceQ8ComponentErrorWithinRange127(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	raw := randomVector(32, rng)
	normed, _ := normalize(raw)

	q8 := encode(Q8, normed)
	if d := distanceQ8(q8, q8); d != 0 {
		t.Errorf("distanceQ8(self) = %v, want 0", d)
	}

	decoded := decode(q8, 0, false)
	maxErr := sqErrApprox(q8.q8Range)
	for i, c := range normed {
		diff := c - decoded[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > maxErr {
			t.Errorf("component %d error %v exceeds range/127 = %v", i, diff, maxErr)
		}
	}
}
