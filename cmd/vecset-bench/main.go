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

// Command vecset-bench loads a word2vec binary vector dump into an HNSW
// index and exercises it: plain build + search, optional quantized
// variants, a concurrent read/write stress harness, a mass-deletion
// stress test, and a recall self-test.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nearline-labs/vecset/internal/word2vec"
	"github.com/nearline-labs/vecset/pkg/hnsw"
)

func main() {
	cli := &CLI{
		Out: os.Stdout,
		Err: os.Stderr,
	}
	os.Exit(cli.Run(os.Args[1:]))
}

// CLI encapsulates the command-line interface for the benchmark demo.
type CLI struct {
	Out io.Writer
	Err io.Writer
}

// Run executes the CLI with the given arguments and returns an exit code.
func (c *CLI) Run(args []string) int {
	fs := flag.NewFlagSet("vecset-bench", flag.ContinueOnError)
	fs.SetOutput(c.Err)

	quant := fs.Bool("quant", false, "store vectors as Q8 (int8 + scale) instead of FP32")
	binQuant := fs.Bool("bin", false, "store vectors as BIN (1 bit per component)")
	threads := fs.Int("threads", 0, "run N writer + N reader goroutines concurrently instead of a single build")
	numele := fs.Int("numele", 0, "cap the number of vectors loaded (0 = no cap)")
	massDel := fs.Bool("mass-del", false, "delete 95% of inserted nodes in non-contiguous order and validate")
	recall := fs.Bool("recall", false, "run the recall self-test after building")
	stats := fs.Bool("stats", false, "print graph shape statistics after building")
	input := fs.String("input", "word2vec.bin", "path to the word2vec binary vector file")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *quant && *binQuant {
		fmt.Fprintln(c.Err, "vecset-bench: --quant and --bin are mutually exclusive")
		return 1
	}

	f, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(c.Err, "vecset-bench: %v\n", err)
		return 1
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := word2vec.ReadHeader(br)
	if err != nil {
		fmt.Fprintf(c.Err, "vecset-bench: %v\n", err)
		return 1
	}

	kind := hnsw.FP32
	switch {
	case *quant:
		kind = hnsw.Q8
	case *binQuant:
		kind = hnsw.BIN
	}

	idx, err := hnsw.New(header.Dim, kind)
	if err != nil {
		fmt.Fprintf(c.Err, "vecset-bench: %v\n", err)
		return 1
	}
	defer idx.Free()

	fmt.Fprintf(c.Out, "loading %s vectors (dim=%d, quant=%s)\n", *input, header.Dim, kind)

	words, count, err := c.load(idx, br, header, *numele, *threads)
	if err != nil {
		fmt.Fprintf(c.Err, "vecset-bench: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.Out, "inserted %d vectors\n", count)

	if *massDel {
		if err := c.runMassDeletion(idx, words); err != nil {
			fmt.Fprintf(c.Err, "vecset-bench: %v\n", err)
			return 1
		}
	}

	if *recall {
		r, err := idx.TestGraphRecall(min(1000, idx.Len()))
		if err != nil {
			fmt.Fprintf(c.Err, "vecset-bench: %v\n", err)
			return 1
		}
		fmt.Fprintf(c.Out, "recall@10 = %.4f\n", r)
	}

	if *stats {
		idx.PrintStats(c.Out)
	}

	liveReached, reciprocal := idx.ValidateGraph()
	fmt.Fprintf(c.Out, "validate_graph: reached=%d reciprocal=%v\n", liveReached, reciprocal)

	return 0
}

// load reads records from br and inserts them into idx, capping at limit
// records if limit > 0. When threads > 0, insertion is split across that
// many goroutines racing on the optimistic insert path instead of the
// single-writer locked path, exercising the concurrent writer/reader
// harness described by the bundled demo's surface.
func (c *CLI) load(idx *hnsw.Index, br *bufio.Reader, header word2vec.Header, limit, threads int) ([]string, int, error) {
	var words []string
	var id uint64

	type loaded struct {
		id  uint64
		v   hnsw.Vector
		val string
	}
	var batch []loaded

	for rec, err := range word2vec.Load(br, header.Dim) {
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, err
		}
		batch = append(batch, loaded{id: id, v: hnsw.Vector(rec.Vector), val: rec.Word})
		words = append(words, rec.Word)
		id++
		if limit > 0 && len(batch) >= limit {
			break
		}
	}

	if threads <= 0 {
		for _, l := range batch {
			if _, err := idx.Insert(l.id, l.v, l.val, nil, 0); err != nil {
				return nil, 0, fmt.Errorf("insert %q: %w", l.val, err)
			}
		}
		return words, len(batch), nil
	}

	// N reader goroutines race Search against the N writers below,
	// querying vectors from the batch until every writer is done.
	stop := make(chan struct{})
	var readers sync.WaitGroup
	if len(batch) > 0 {
		for t := 0; t < threads; t++ {
			readers.Add(1)
			go func(seed int64) {
				defer readers.Done()
				rng := rand.New(rand.NewSource(seed))
				for {
					select {
					case <-stop:
						return
					default:
					}
					q := batch[rng.Intn(len(batch))].v
					idx.Search(q, 10, 0)
				}
			}(int64(threads + t))
		}
	}

	var g errgroup.Group
	chunk := (len(batch) + threads - 1) / threads
	for t := 0; t < threads; t++ {
		start := t * chunk
		end := min(start+chunk, len(batch))
		if start >= end {
			continue
		}
		// Seeds advance per item, not per goroutine, so each prepared
		// insert draws its own level.
		seedBase := int64(t+1) << 32
		g.Go(func() error {
			for j, l := range batch[start:end] {
				ctx, err := idx.PrepareInsert(l.id, l.v, l.val, nil, 0, seedBase+int64(j))
				if err != nil {
					return err
				}
				if _, err := idx.TryCommitInsert(ctx); errors.Is(err, hnsw.ErrConflict) {
					if _, err := idx.Insert(l.id, l.v, l.val, nil, 0); err != nil {
						return err
					}
				} else if err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()
	close(stop)
	readers.Wait()
	if err != nil {
		return nil, 0, err
	}

	return words, len(batch), nil
}

// runMassDeletion removes 95% of inserted ids in a shuffled (non-contiguous)
// order, matching the --mass-del stress scenario. Validator status is
// printed afterward by Run, not here.
func (c *CLI) runMassDeletion(idx *hnsw.Index, words []string) error {
	ids := make([]uint64, len(words))
	for i := range ids {
		ids[i] = uint64(i)
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	toDelete := int(float64(len(ids)) * 0.95)
	fmt.Fprintf(c.Out, "deleting %d of %d nodes\n", toDelete, len(ids))
	for _, id := range ids[:toDelete] {
		if err := idx.Delete(id); err != nil && !errors.Is(err, hnsw.ErrNotFound) {
			return fmt.Errorf("delete %d: %w", id, err)
		}
	}
	return nil
}
