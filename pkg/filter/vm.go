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
	"encoding/json"
	"math"
)

type valueKind int

const (
	kindNumber valueKind = iota
	kindString
	kindNull
	kindTuple
)

// value is the typed union the postfix VM operates on: number, string,
// null, or tuple.
type value struct {
	kind  valueKind
	num   float64
	str   string
	tuple []value
}

var nullValue = value{kind: kindNull}

// Evaluate runs p against attrs and returns whether the top of the stack,
// coerced to bool, is truthy. It never returns an error: any runtime
// problem, such as a type mismatch, a malformed program, or invalid JSON,
// degrades to false, so a filtered search simply skips a record it can't
// evaluate instead of aborting.
func Evaluate(p *Program, attrs json.RawMessage) bool {
	if p == nil {
		return false
	}

	var doc map[string]any
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &doc); err != nil {
			return false
		}
	}

	result, ok := safeRun(p, doc)
	if !ok {
		return false
	}
	return truthy(result)
}

// safeRun recovers from any panic raised while executing the program
// (an out-of-range stack access from a malformed program, for instance) and
// reports it as ok=false rather than letting it escape to the caller.
func safeRun(p *Program, doc map[string]any) (v value, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return run(p, doc), true
}

func run(p *Program, doc map[string]any) value {
	stack := make([]value, 0, len(p.instructions))
	pop := func() value {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	for _, instr := range p.instructions {
		switch instr.op {
		case opPushNumber:
			stack = append(stack, value{kind: kindNumber, num: instr.num})
		case opPushString:
			stack = append(stack, value{kind: kindString, str: instr.str})
		case opPushTuple:
			stack = append(stack, value{kind: kindTuple, tuple: instr.tuple})
		case opSelect:
			stack = append(stack, resolveSelector(doc, instr.selPat))
		case opNot:
			a := pop()
			stack = append(stack, boolValue(!truthy(a)))
		case opOr:
			b, a := pop(), pop()
			stack = append(stack, boolValue(truthy(a) || truthy(b)))
		case opAnd:
			b, a := pop(), pop()
			stack = append(stack, boolValue(truthy(a) && truthy(b)))
		case opIn:
			b, a := pop(), pop()
			stack = append(stack, boolValue(tupleContains(b, a)))
		case opEQ, opNE:
			b, a := pop(), pop()
			stack = append(stack, equality(instr.op, a, b))
		case opLT, opLE, opGT, opGE:
			b, a := pop(), pop()
			stack = append(stack, compare(instr.op, a, b))
		case opAdd, opSub, opMul, opDiv, opMod, opPow:
			b, a := pop(), pop()
			stack = append(stack, arith(instr.op, a, b))
		}
	}

	if len(stack) == 0 {
		return nullValue
	}
	return stack[len(stack)-1]
}

func boolValue(b bool) value {
	if b {
		return value{kind: kindNumber, num: 1}
	}
	return value{kind: kindNumber, num: 0}
}

func truthy(v value) bool {
	switch v.kind {
	case kindNumber:
		return v.num != 0
	case kindString:
		return v.str != ""
	case kindTuple:
		return len(v.tuple) > 0
	default:
		return false
	}
}

// resolveSelector walks a dotted path against doc, yielding the null
// sentinel for any missing key or non-object intermediate value.
func resolveSelector(doc map[string]any, path []string) value {
	var cur any = doc
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nullValue
		}
		next, ok := m[p]
		if !ok {
			return nullValue
		}
		cur = next
	}
	return fromJSON(cur)
}

func fromJSON(v any) value {
	switch t := v.(type) {
	case float64:
		return value{kind: kindNumber, num: t}
	case string:
		return value{kind: kindString, str: t}
	case nil:
		return nullValue
	default:
		return nullValue
	}
}

func valuesEqual(a, b value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case kindNumber:
		return a.num == b.num
	case kindString:
		return a.str == b.str
	case kindNull:
		return true
	default:
		return false
	}
}

// equality implements == and !=. Operands of different kinds compare to
// null, not to false; that keeps ".x != 'a'" falsy when .x is missing,
// the same no-match degradation every other operator applies to null.
func equality(op opcode, a, b value) value {
	if a.kind != b.kind {
		return nullValue
	}
	eq := valuesEqual(a, b)
	if op == opNE {
		return boolValue(!eq)
	}
	return boolValue(eq)
}

func tupleContains(tup, needle value) bool {
	if tup.kind != kindTuple {
		return false
	}
	for _, elem := range tup.tuple {
		if valuesEqual(elem, needle) {
			return true
		}
	}
	return false
}

func compare(op opcode, a, b value) value {
	if a.kind != kindNumber || b.kind != kindNumber {
		if a.kind == kindString && b.kind == kindString {
			var r bool
			switch op {
			case opLT:
				r = a.str < b.str
			case opLE:
				r = a.str <= b.str
			case opGT:
				r = a.str > b.str
			case opGE:
				r = a.str >= b.str
			}
			return boolValue(r)
		}
		return nullValue
	}
	var r bool
	switch op {
	case opLT:
		r = a.num < b.num
	case opLE:
		r = a.num <= b.num
	case opGT:
		r = a.num > b.num
	case opGE:
		r = a.num >= b.num
	}
	return boolValue(r)
}

func arith(op opcode, a, b value) value {
	if a.kind != kindNumber || b.kind != kindNumber {
		return nullValue
	}
	switch op {
	case opAdd:
		return value{kind: kindNumber, num: a.num + b.num}
	case opSub:
		return value{kind: kindNumber, num: a.num - b.num}
	case opMul:
		return value{kind: kindNumber, num: a.num * b.num}
	case opDiv:
		if b.num == 0 {
			return nullValue
		}
		return value{kind: kindNumber, num: a.num / b.num}
	case opMod:
		if b.num == 0 {
			return nullValue
		}
		return value{kind: kindNumber, num: float64(int64(a.num) % int64(b.num))}
	case opPow:
		return value{kind: kindNumber, num: math.Pow(a.num, b.num)}
	default:
		return nullValue
	}
}
