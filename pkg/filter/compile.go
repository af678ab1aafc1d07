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

type opcode int

const (
	opPushNumber opcode = iota
	opPushString
	opPushTuple
	opSelect
	opOr
	opAnd
	opLT
	opLE
	opGT
	opGE
	opEQ
	opNE
	opIn
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opPow
	opNot
)

type instruction struct {
	op     opcode
	num    float64
	str    string
	tuple  []value
	selPat []string
}

// Program is a compiled filter expression, ready for repeated evaluation
// against different attribute objects via Evaluate.
type Program struct {
	instructions []instruction
}

// operator precedence/associativity/arity table. Precedence is lowest-first;
// higher numbers bind tighter.
type opInfo struct {
	prec       int
	rightAssoc bool
	arity      int
	code       opcode
}

var binaryOps = map[string]opInfo{
	"or": {0, false, 2, opOr}, "||": {0, false, 2, opOr},
	"and": {1, false, 2, opAnd}, "&&": {1, false, 2, opAnd},
	"<": {2, false, 2, opLT}, "<=": {2, false, 2, opLE},
	">": {2, false, 2, opGT}, ">=": {2, false, 2, opGE},
	"==": {2, false, 2, opEQ}, "!=": {2, false, 2, opNE},
	"in": {2, false, 2, opIn},
	"+":  {3, false, 2, opAdd}, "-": {3, false, 2, opSub},
	"*": {4, false, 2, opMul}, "/": {4, false, 2, opDiv}, "%": {4, false, 2, opMod},
	"**": {5, true, 2, opPow},
}

var unaryOp = opInfo{6, true, 1, opNot}

// Compile parses expr and produces a Program, or a *SyntaxError carrying
// the byte offset of the first problem found.
func Compile(expr string) (*Program, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	var output []instruction
	var opStack []stackOp

	popOp := func() {
		o := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		output = append(output, instruction{op: o.info.code})
	}

	i := 0
	for i < len(toks) {
		t := toks[i]
		switch t.kind {
		case tokNumber:
			output = append(output, instruction{op: opPushNumber, num: t.num})
			i++
		case tokString:
			output = append(output, instruction{op: opPushString, str: t.text})
			i++
		case tokSelector:
			path := splitSelector(t.text)
			output = append(output, instruction{op: opSelect, selPat: path})
			i++
		case tokLBracket:
			tup, next, err := parseTuple(toks, i)
			if err != nil {
				return nil, err
			}
			output = append(output, instruction{op: opPushTuple, tuple: tup})
			i = next
		case tokLParen:
			opStack = append(opStack, stackOp{paren: true, offset: t.offset})
			i++
		case tokRParen:
			found := false
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				if top.paren {
					opStack = opStack[:len(opStack)-1]
					found = true
					break
				}
				popOp()
			}
			if !found {
				return nil, syntaxErrorf(t.offset, "unmatched ')'")
			}
			i++
		case tokNot:
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				if top.paren {
					break
				}
				if top.info.prec > unaryOp.prec {
					popOp()
					continue
				}
				break
			}
			opStack = append(opStack, stackOp{info: unaryOp, offset: t.offset})
			i++
		case tokOperator:
			info, ok := binaryOps[t.text]
			if !ok {
				return nil, syntaxErrorf(t.offset, "unknown operator %q", t.text)
			}
			if t.text == "in" {
				if i+1 >= len(toks) || toks[i+1].kind != tokLBracket {
					errOffset := t.offset
					if i+1 < len(toks) {
						errOffset = toks[i+1].offset
					}
					return nil, syntaxErrorf(errOffset, "right operand of 'in' must be a tuple literal")
				}
			}
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				if top.paren {
					break
				}
				if top.info.prec > info.prec || (top.info.prec == info.prec && !info.rightAssoc) {
					popOp()
					continue
				}
				break
			}
			opStack = append(opStack, stackOp{info: info, offset: t.offset})
			i++
		default:
			return nil, syntaxErrorf(t.offset, "unexpected token")
		}
	}

	for len(opStack) > 0 {
		top := opStack[len(opStack)-1]
		if top.paren {
			return nil, syntaxErrorf(top.offset, "unmatched '('")
		}
		popOp()
	}

	if len(output) == 0 {
		return nil, syntaxErrorf(0, "empty expression")
	}
	if err := simulateStackDepth(output); err != nil {
		return nil, err
	}

	return &Program{instructions: output}, nil
}

type stackOp struct {
	info   opInfo
	paren  bool
	offset int
}

// simulateStackDepth walks the compiled postfix program without running
// the VM, tracking how many values would be on the stack after each
// instruction. It rejects programs that underflow or that leave anything
// other than exactly one value at the end, catching arity mistakes (like
// "1 2" or "1 +") without running the VM. It does not check operand types:
// "1 in 5" is rejected by Compile's own check on the token after "in".
func simulateStackDepth(instrs []instruction) error {
	depth := 0
	for _, instr := range instrs {
		arity := 0
		switch instr.op {
		case opPushNumber, opPushString, opPushTuple, opSelect:
			arity = 0
		case opNot:
			arity = 1
		default:
			arity = 2
		}
		if depth < arity {
			return syntaxErrorf(0, "not enough operands")
		}
		depth -= arity
		depth++
	}
	if depth != 1 {
		return syntaxErrorf(0, "expression does not reduce to a single value")
	}
	return nil
}

func splitSelector(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return parts
}

// parseTuple consumes a "[" token at toks[start] through its matching "]",
// requiring every element to be a literal number or string. Returns the
// index just past "]".
func parseTuple(toks []token, start int) ([]value, int, error) {
	i := start + 1
	var elems []value
	if i < len(toks) && toks[i].kind == tokRBracket {
		return elems, i + 1, nil
	}
	for {
		if i >= len(toks) {
			return nil, 0, syntaxErrorf(toks[start].offset, "unterminated tuple")
		}
		t := toks[i]
		switch t.kind {
		case tokNumber:
			elems = append(elems, value{kind: kindNumber, num: t.num})
		case tokString:
			elems = append(elems, value{kind: kindString, str: t.text})
		default:
			return nil, 0, syntaxErrorf(t.offset, "tuple elements must be literals")
		}
		i++
		if i >= len(toks) {
			return nil, 0, syntaxErrorf(t.offset, "unterminated tuple")
		}
		if toks[i].kind == tokRBracket {
			return elems, i + 1, nil
		}
		if toks[i].kind != tokComma {
			return nil, 0, syntaxErrorf(toks[i].offset, "expected ',' or ']' in tuple")
		}
		i++
	}
}
