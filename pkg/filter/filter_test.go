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

package filter

import "testing"

func TestCompileAndEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		attrs string
		want  bool
	}{
		{"field compare true", ".year > 1950 and .genre == 'jazz'", `{"year":1970,"genre":"jazz"}`, true},
		{"field compare false", ".year > 1950 and .genre == 'jazz'", `{"year":1940,"genre":"jazz"}`, false},
		{"missing field is false not error", ".year > 1950 and .genre == 'jazz'", `{}`, false},
		{"arithmetic grouping truthy", "(5+2)*3", `{}`, true},
		{"membership true", "1 in [1,2,3]", `{}`, true},
		{"membership type mismatch false", "'x' in [1,2,3]", `{}`, false},
		{"not null is true", "not .missing", `{}`, true},
		{"bang negation", "!0", `{}`, true},
		{"or short circuit", "0 or 'x'", `{}`, true},
		{"and short circuit", "1 and 0", `{}`, false},
		{"nested selector", ".a.b == 5", `{"a":{"b":5}}`, true},
		{"double quoted string", `.name == "bob"`, `{"name":"bob"}`, true},
		{"ne across types is null", ".missing != 'a'", `{}`, false},
		{"eq across types is null", ".count == 'a'", `{"count":3}`, false},
		{"string lexicographic lt", "'apple' < 'banana'", `{}`, true},
		{"mod", "7 % 3 == 1", `{}`, true},
		{"null arithmetic stays falsy", ".missing + 1 > 0", `{}`, false},
		{"ampersand alias", "1 && 1", `{}`, true},
		{"pipe alias", "0 || 1", `{}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.expr, err)
			}
			got := Evaluate(prog, []byte(tt.attrs))
			if got != tt.want {
				t.Errorf("Evaluate(%q, %q) = %v, want %v", tt.expr, tt.attrs, got, tt.want)
			}
		})
	}
}

func TestCompileSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"in requires tuple", "1 in 5"},
		{"unmatched open paren", "(1 + 2"},
		{"unmatched close paren", "1 + 2)"},
		{"unterminated string", "'abc"},
		{"bad selector", ". foo"},
		{"unknown character", "1 $ 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr)
			if err == nil {
				t.Fatalf("Compile(%q): want error, got nil", tt.expr)
			}
			var synErr *SyntaxError
			if se, ok := err.(*SyntaxError); ok {
				synErr = se
			}
			if synErr == nil {
				t.Fatalf("Compile(%q): error %v is not a *SyntaxError", tt.expr, err)
			}
		})
	}
}

func TestEvaluateInvalidAttributesSkips(t *testing.T) {
	prog, err := Compile(".year > 1950")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if Evaluate(prog, []byte(`not json`)) {
		t.Fatalf("Evaluate with malformed JSON attrs should be false, not match")
	}
}

func TestCompileEmptyExpression(t *testing.T) {
	if _, err := Compile(""); err == nil {
		t.Fatalf("Compile(\"\"): want error")
	}
}

func TestRightAssociativePower(t *testing.T) {
	// 2 ** 3 ** 2 should associate as 2 ** (3 ** 2) = 2 ** 9 = 512, truthy
	// either way; the real assertion is that compilation succeeds and the
	// stack-depth simulator accepts a chain of right-associative operators.
	prog, err := Compile("2 ** 3 ** 2")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !Evaluate(prog, []byte(`{}`)) {
		t.Fatalf("expected truthy result")
	}
}
