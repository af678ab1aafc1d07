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

// Package filter compiles small boolean expressions over JSON attribute
// objects into a postfix program, and evaluates that program against a
// node's attributes during filtered similarity search.
//
// # Syntax
//
// Literals: decimal numbers (optionally negative) and single- or
// double-quoted strings with backslash escapes. Selectors: ".name" or a
// dotted path ".a.b", resolved against the JSON object supplied at
// evaluation time; a missing key evaluates to null rather than an error.
// Tuples: "[a, b, c]", valid only as the right operand of "in"; elements
// must be literals.
//
// Operators, lowest precedence first: "or"/"||", "and"/"&&", the
// comparisons "<" "<=" ">" ">=" "==" "!=" "in", "+" "-", "*" "/" "%", "**"
// (right-associative), and unary "!"/"not".
//
// # Evaluation
//
// Evaluate never returns an error: a malformed or type-mismatched
// expression simply evaluates to false for that candidate, matching the
// "no-match, not an error" contract filtered similarity search depends on.
// Compile errors, in contrast, are reported immediately as a *SyntaxError.
package filter

import "fmt"

// SyntaxError reports a compile-time failure at a byte offset into the
// source expression.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("filter: syntax error at offset %d: %s", e.Offset, e.Message)
}

func syntaxErrorf(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}
