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

// Package word2vec reads the classic word2vec binary vector format: an
// ASCII header "<vocab> <dim>\n" followed, for each record, by a
// space-terminated word token and dim little-endian float32 components.
//
// This is the external loader collaborator referenced by the bundled CLI
// demo; it never touches package hnsw internals, only its public Insert
// contract.
package word2vec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"math"
)

// Record is one parsed entry: a word and its embedding.
type Record struct {
	Word   string
	Vector []float32
}

// Header describes the vocabulary size and dimensionality declared at the
// top of a word2vec binary file.
type Header struct {
	VocabSize int
	Dim       int
}

// ReadHeader parses the "<vocab> <dim>\n" line, leaving r positioned at the
// start of the first record.
func ReadHeader(r *bufio.Reader) (Header, error) {
	var vocab, dim int
	if _, err := fmt.Fscan(r, &vocab, &dim); err != nil {
		return Header{}, fmt.Errorf("word2vec: malformed header: %w", err)
	}
	if _, err := r.ReadByte(); err != nil { // trailing newline after the header
		return Header{}, fmt.Errorf("word2vec: malformed header: %w", err)
	}
	if vocab < 0 || dim <= 0 {
		return Header{}, fmt.Errorf("word2vec: invalid header %d %d", vocab, dim)
	}
	return Header{VocabSize: vocab, Dim: dim}, nil
}

// Load parses every record from r, which must already have its header
// stripped by ReadHeader. It returns a range-over-func iterator of
// (*Record, error) pairs; iteration stops after the first error is yielded.
// A clean end of input, once every record has been read, ends iteration
// without yielding an error.
func Load(r io.Reader, dim int) iter.Seq2[*Record, error] {
	br := bufio.NewReader(r)
	return func(yield func(*Record, error) bool) {
		for {
			word, err := readWord(br)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("word2vec: reading word: %w", err))
				return
			}

			vec := make([]float32, dim)
			for i := 0; i < dim; i++ {
				var bits uint32
				if err := binary.Read(br, binary.LittleEndian, &bits); err != nil {
					yield(nil, fmt.Errorf("word2vec: reading vector for %q: %w", word, err))
					return
				}
				vec[i] = math.Float32frombits(bits)
			}

			if !yield(&Record{Word: word, Vector: vec}, nil) {
				return
			}
		}
	}
}

// readWord reads one space-terminated token, skipping leading newlines left
// over from the previous record's vector block.
func readWord(br *bufio.Reader) (string, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return "", err
		}
		break
	}

	word, err := br.ReadString(' ')
	if err != nil {
		return "", err
	}
	return word[:len(word)-1], nil
}
