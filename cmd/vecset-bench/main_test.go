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

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeWord2VecFile(t *testing.T, path string, words int, dim int) {
	t.Helper()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", words, dim)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < words; i++ {
		fmt.Fprintf(&buf, "word%d ", i)
		for d := 0; d < dim; d++ {
			binary.Write(&buf, binary.LittleEndian, math.Float32bits(rng.Float32()*2-1))
		}
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCLI_BuildAndValidate(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "word2vec.bin")
	writeWord2VecFile(t, input, 40, 8)

	var out, errOut bytes.Buffer
	cli := &CLI{Out: &out, Err: &errOut}

	exitCode := cli.Run([]string{"-input", input, "-recall", "-stats"})
	if exitCode != 0 {
		t.Fatalf("Run: exit %d, stderr: %s", exitCode, errOut.String())
	}
	if !strings.Contains(out.String(), "inserted 40 vectors") {
		t.Errorf("expected insert count in output, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "recall@10") {
		t.Errorf("expected recall output, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "reciprocal=true") {
		t.Errorf("expected validate_graph reciprocal=true, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "nodes: 40") {
		t.Errorf("expected stats node count, got: %s", out.String())
	}
}

func TestCLI_QuantizedAndThreadedBuild(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "word2vec.bin")
	writeWord2VecFile(t, input, 64, 8)

	var out, errOut bytes.Buffer
	cli := &CLI{Out: &out, Err: &errOut}

	exitCode := cli.Run([]string{"-input", input, "-quant", "-threads", "4", "-mass-del"})
	if exitCode != 0 {
		t.Fatalf("Run: exit %d, stderr: %s", exitCode, errOut.String())
	}
	if !strings.Contains(out.String(), "deleting") {
		t.Errorf("expected mass deletion report, got: %s", out.String())
	}
}

func TestCLI_ConflictingQuantFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	cli := &CLI{Out: &out, Err: &errOut}

	exitCode := cli.Run([]string{"-quant", "-bin", "-input", "unused"})
	if exitCode != 1 {
		t.Errorf("expected exit code 1 for conflicting flags, got %d", exitCode)
	}
	if !strings.Contains(errOut.String(), "mutually exclusive") {
		t.Errorf("expected mutually-exclusive error, got: %s", errOut.String())
	}
}

func TestCLI_MissingInputFile(t *testing.T) {
	var out, errOut bytes.Buffer
	cli := &CLI{Out: &out, Err: &errOut}

	exitCode := cli.Run([]string{"-input", "/nonexistent/word2vec.bin"})
	if exitCode != 1 {
		t.Errorf("expected exit code 1 for missing input file, got %d", exitCode)
	}
}

func TestCLI_InvalidFlag(t *testing.T) {
	var out, errOut bytes.Buffer
	cli := &CLI{Out: &out, Err: &errOut}

	exitCode := cli.Run([]string{"-not-a-flag"})
	if exitCode != 1 {
		t.Errorf("expected exit code 1 for invalid flag, got %d", exitCode)
	}
}
