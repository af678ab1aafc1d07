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

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokSelector
	tokOperator
	tokNot // "!" or "not", kept distinct from tokOperator since it is always unary
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
)

type token struct {
	kind   tokenKind
	text   string  // operator spelling, selector path, or raw string value
	num    float64 // tokNumber only
	offset int
}

// tokenize walks expr left to right, producing tokens with byte offsets
// into the original string for error reporting.
//
// The only context-sensitive decision is '-': it is folded into a number
// literal when a value is expected at that position (no preceding token,
// or the preceding token is an operator other than ')'); otherwise it is
// the binary minus operator.
func tokenize(expr string) ([]token, error) {
	var toks []token
	i := 0
	n := len(expr)

	valueExpected := func() bool {
		if len(toks) == 0 {
			return true
		}
		last := toks[len(toks)-1]
		switch last.kind {
		case tokRParen, tokRBracket, tokNumber, tokString, tokSelector:
			return false
		default:
			return true
		}
	}

	for i < n {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			toks = append(toks, token{kind: tokLParen, offset: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, offset: i})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, offset: i})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, offset: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, offset: i})
			i++

		case c == '.':
			start := i
			i++
			if i >= n || !isIdentStart(expr[i]) {
				return nil, syntaxErrorf(start, "expected selector name after '.'")
			}
			for i < n && isIdentPart(expr[i]) {
				i++
			}
			for i < n && expr[i] == '.' {
				dotStart := i
				i++
				if i >= n || !isIdentStart(expr[i]) {
					return nil, syntaxErrorf(dotStart, "expected selector name after '.'")
				}
				for i < n && isIdentPart(expr[i]) {
					i++
				}
			}
			toks = append(toks, token{kind: tokSelector, text: expr[start+1 : i], offset: start})

		case c == '\'' || c == '"':
			start := i
			quote := c
			i++
			var sb strings.Builder
			closed := false
			for i < n {
				if expr[i] == '\\' && i+1 < n {
					sb.WriteByte(unescape(expr[i+1]))
					i += 2
					continue
				}
				if expr[i] == quote {
					i++
					closed = true
					break
				}
				sb.WriteByte(expr[i])
				i++
			}
			if !closed {
				return nil, syntaxErrorf(start, "unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), offset: start})

		case c == '-' && valueExpected():
			start := i
			i++
			numEnd := i
			for numEnd < n && (isDigit(expr[numEnd]) || expr[numEnd] == '.') {
				numEnd++
			}
			if numEnd == i {
				return nil, syntaxErrorf(start, "expected digit after unary '-'")
			}
			val, err := strconv.ParseFloat(expr[start:numEnd], 64)
			if err != nil {
				return nil, syntaxErrorf(start, "malformed number literal")
			}
			toks = append(toks, token{kind: tokNumber, num: val, offset: start})
			i = numEnd

		case isDigit(c):
			start := i
			for i < n && (isDigit(expr[i]) || expr[i] == '.') {
				i++
			}
			val, err := strconv.ParseFloat(expr[start:i], 64)
			if err != nil {
				return nil, syntaxErrorf(start, "malformed number literal")
			}
			toks = append(toks, token{kind: tokNumber, num: val, offset: start})

		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(expr[i]) {
				i++
			}
			word := expr[start:i]
			switch word {
			case "or", "and", "in":
				toks = append(toks, token{kind: tokOperator, text: word, offset: start})
			case "not":
				toks = append(toks, token{kind: tokNot, text: word, offset: start})
			default:
				return nil, syntaxErrorf(start, "unrecognized identifier %q", word)
			}

		default:
			op, width, ok := matchSymbolOperator(expr[i:])
			if !ok {
				return nil, syntaxErrorf(i, "unexpected character %q", string(c))
			}
			kind := tokOperator
			if op == "!" {
				kind = tokNot
			}
			toks = append(toks, token{kind: kind, text: op, offset: i})
			i += width
		}
	}

	return toks, nil
}

// matchSymbolOperator matches the longest operator spelling at the start
// of s: two-character operators are tried before their one-character
// prefixes so "<=" is never split into "<" and "=".
func matchSymbolOperator(s string) (op string, width int, ok bool) {
	twoChar := []string{"<=", ">=", "==", "!=", "&&", "||", "**"}
	for _, o := range twoChar {
		if strings.HasPrefix(s, o) {
			return o, 2, true
		}
	}
	oneChar := "<>+-*/%!"
	if len(s) > 0 && strings.IndexByte(oneChar, s[0]) >= 0 {
		return string(s[0]), 1, true
	}
	return "", 0, false
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
