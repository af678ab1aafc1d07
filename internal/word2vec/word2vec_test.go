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

package word2vec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"
)

func writeRecord(buf *bytes.Buffer, word string, vec []float32) {
	buf.WriteString(word)
	buf.WriteByte(' ')
	for _, c := range vec {
		binary.Write(buf, binary.LittleEndian, math.Float32bits(c))
	}
	buf.WriteByte('\n')
}

func TestReadHeaderAndLoadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("2 3\n")
	writeRecord(&buf, "cat", []float32{0.1, 0.2, 0.3})
	writeRecord(&buf, "dog", []float32{-1, 0, 1})

	br := bufio.NewReader(&buf)
	header, err := ReadHeader(br)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if header.VocabSize != 2 || header.Dim != 3 {
		t.Fatalf("header = %+v, want {2 3}", header)
	}

	var got []*Record
	for rec, err := range Load(br, header.Dim) {
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("Load: %v", err)
		}
		got = append(got, rec)
	}

	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Word != "cat" || got[1].Word != "dog" {
		t.Errorf("words = %q, %q, want cat, dog", got[0].Word, got[1].Word)
	}
	want0 := []float32{0.1, 0.2, 0.3}
	for i, c := range want0 {
		if got[0].Vector[i] != c {
			t.Errorf("cat[%d] = %v, want %v", i, got[0].Vector[i], c)
		}
	}
	want1 := []float32{-1, 0, 1}
	for i, c := range want1 {
		if got[1].Vector[i] != c {
			t.Errorf("dog[%d] = %v, want %v", i, got[1].Vector[i], c)
		}
	}
}

func TestLoadStopsEarlyWhenYieldReturnsFalse(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("3 2\n")
	writeRecord(&buf, "a", []float32{1, 2})
	writeRecord(&buf, "b", []float32{3, 4})
	writeRecord(&buf, "c", []float32{5, 6})

	br := bufio.NewReader(&buf)
	header, err := ReadHeader(br)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	var n int
	for rec, err := range Load(br, header.Dim) {
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		n++
		if rec.Word == "a" {
			break
		}
	}
	if n != 1 {
		t.Errorf("n = %d, want 1 (iteration should stop after first record)", n)
	}
}

func TestReadHeaderRejectsMalformedInput(t *testing.T) {
	br := bufio.NewReader(bytes.NewBufferString("not a header\n"))
	if _, err := ReadHeader(br); err == nil {
		t.Fatalf("ReadHeader: want error for malformed header")
	}
}
