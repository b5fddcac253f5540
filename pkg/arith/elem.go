package arith

// Elements of compiled expressions. A compiled expression is a sequence of
// elements in postfix order.
type elem interface{ isElem() }

type numElem struct{ v Value }

// A variable operand. A non-zero pre or post is a pending increment
// (1) or decrement (-1); target is set when the variable is the left operand
// of an assignment.
type wordElem struct {
	name      string
	pre, post int64
	target    bool
}

type unaryOp struct{ op string }

type binaryOp struct {
	op  string
	pos int
}

// The two branches of "cond ? a : b", each a compiled expression. The
// condition is the operand.
type ternaryOp struct{ a, b []elem }

// Only appears in infix sequences.
type paren struct {
	open bool
	pos  int
}

func (numElem) isElem()   {}
func (wordElem) isElem()  {}
func (unaryOp) isElem()   {}
func (binaryOp) isElem()  {}
func (ternaryOp) isElem() {}
func (paren) isElem()     {}

const (
	precComma = iota + 1
	precAssign
	precTernary
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precPower
	precUnary
)

var binaryPrec = map[string]int{
	",": precComma,
	"=": precAssign, "+=": precAssign, "-=": precAssign, "*=": precAssign,
	"/=": precAssign, "%=": precAssign, "<<=": precAssign, ">>=": precAssign,
	"&=": precAssign, "^=": precAssign, "|=": precAssign,
	"||": precOr,
	"&&": precAnd,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"==": precEquality, "!=": precEquality,
	"<": precRelational, "<=": precRelational, ">": precRelational, ">=": precRelational,
	"<<": precShift, ">>": precShift,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
	"**": precPower,
}

func isAssign(op string) bool { return binaryPrec[op] == precAssign }

// Returns the precedence of an operator element and whether it is right
// associative.
func precedence(e elem) (int, bool) {
	switch e := e.(type) {
	case unaryOp:
		return precUnary, true
	case ternaryOp:
		return precTernary, true
	case binaryOp:
		prec := binaryPrec[e.op]
		return prec, prec == precAssign || prec == precPower
	}
	return 0, false
}

// Compiles a non-empty run of tokens into postfix order. The end argument is
// the position just past the run, used in error messages.
func compile(tokens []token, end int) ([]elem, error) {
	if len(tokens) == 0 {
		return nil, &SyntaxError{end, "expression expected"}
	}
	elems, err := toElems(tokens, end)
	if err != nil {
		return nil, err
	}
	prog, err := rearrange(elems)
	if err != nil {
		return nil, err
	}
	if err := check(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// Classifies tokens into infix elements.
func toElems(tokens []token, end int) ([]elem, error) {
	var elems []elem
	expectOperand := true
	unexpected := func(t token) error {
		return &SyntaxError{t.pos, "unexpected " + t.text}
	}
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case isNumberToken(t.text):
			if !expectOperand {
				return nil, unexpected(t)
			}
			v, ok := parseNum(t.text)
			if !ok {
				return nil, &SyntaxError{t.pos, "invalid number " + t.text}
			}
			elems = append(elems, numElem{v})
			expectOperand = false
		case isVariableToken(t.text):
			if !expectOperand {
				return nil, unexpected(t)
			}
			elems = append(elems, wordElem{name: t.text})
			expectOperand = false
		case t.text == "++" || t.text == "--":
			delta := int64(1)
			if t.text == "--" {
				delta = -1
			}
			if !expectOperand {
				w, ok := elems[len(elems)-1].(wordElem)
				if !ok || w.pre != 0 || w.post != 0 {
					return nil, &SyntaxError{t.pos, t.text + " requires a variable"}
				}
				w.post = delta
				elems[len(elems)-1] = w
			} else if i+1 < len(tokens) && isVariableToken(tokens[i+1].text) {
				elems = append(elems, wordElem{name: tokens[i+1].text, pre: delta})
				i++
				expectOperand = false
			} else {
				// Not followed by a variable, like --5: two unary operators.
				op := t.text[:1]
				elems = append(elems, unaryOp{op}, unaryOp{op})
			}
		case t.text == "(":
			if !expectOperand {
				return nil, unexpected(t)
			}
			elems = append(elems, paren{true, t.pos})
		case t.text == ")":
			if expectOperand {
				return nil, unexpected(t)
			}
			elems = append(elems, paren{false, t.pos})
		case t.text == "?":
			if expectOperand {
				return nil, unexpected(t)
			}
			colon, branchEnd, err := ternaryBounds(tokens, i)
			if err != nil {
				return nil, err
			}
			a, err := compile(tokens[i+1:colon], tokens[colon].pos)
			if err != nil {
				return nil, err
			}
			bEnd := end
			if branchEnd < len(tokens) {
				bEnd = tokens[branchEnd].pos
			}
			b, err := compile(tokens[colon+1:branchEnd], bEnd)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ternaryOp{a, b})
			i = branchEnd - 1
		case t.text == ":":
			return nil, unexpected(t)
		case expectOperand:
			switch t.text {
			case "+", "-", "!", "~":
				elems = append(elems, unaryOp{t.text})
			default:
				return nil, unexpected(t)
			}
		default:
			if t.text == "!" || t.text == "~" {
				return nil, unexpected(t)
			}
			elems = append(elems, binaryOp{t.text, t.pos})
			expectOperand = true
		}
	}
	if expectOperand {
		return nil, &SyntaxError{end, "operand expected"}
	}
	return elems, nil
}

// Finds the ":" matching the "?" at tokens[i] and the end of the else branch,
// which extends to an unmatched ")", a "," or the end.
func ternaryBounds(tokens []token, i int) (colon, end int, err error) {
	colon = -1
	depth, nested := 0, 0
	for j := i + 1; j < len(tokens); j++ {
		switch tokens[j].text {
		case "(":
			depth++
		case ")":
			if depth == 0 {
				if colon < 0 {
					return 0, 0, &SyntaxError{tokens[j].pos, "missing : for ?"}
				}
				return colon, j, nil
			}
			depth--
		case ",":
			if depth == 0 && colon >= 0 {
				return colon, j, nil
			}
		case "?":
			if depth == 0 && colon < 0 {
				nested++
			}
		case ":":
			if depth == 0 && colon < 0 {
				if nested > 0 {
					nested--
				} else {
					colon = j
				}
			}
		}
	}
	if colon < 0 {
		return 0, 0, &SyntaxError{tokens[i].pos, "missing : for ?"}
	}
	return colon, len(tokens), nil
}

// Rearranges infix elements into postfix order with the shunting-yard
// algorithm.
func rearrange(elems []elem) ([]elem, error) {
	var out, ops []elem
	for _, e := range elems {
		switch e := e.(type) {
		case numElem, wordElem:
			out = append(out, e)
		case unaryOp:
			// Prefix operators have no left operand to reduce.
			ops = append(ops, e)
		case binaryOp, ternaryOp:
			prec, right := precedence(e)
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if _, ok := top.(paren); ok {
					break
				}
				topPrec, _ := precedence(top)
				if topPrec < prec || (topPrec == prec && right) {
					break
				}
				out = append(out, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, e)
		case paren:
			if e.open {
				ops = append(ops, e)
				continue
			}
			for {
				if len(ops) == 0 {
					return nil, &SyntaxError{e.pos, "unmatched )"}
				}
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if _, ok := top.(paren); ok {
					break
				}
				out = append(out, top)
			}
		}
	}
	for i := len(ops) - 1; i >= 0; i-- {
		if p, ok := ops[i].(paren); ok {
			return nil, &SyntaxError{p.pos, "unmatched ("}
		}
		out = append(out, ops[i])
	}
	return out, nil
}

// Checks that assignments only apply to variables, and marks their targets.
// The compiled program is modified in place.
func check(prog []elem) error {
	// Each entry is the index of the element that produced the value, or -1
	// when the value was computed.
	var stack []int
	for i, e := range prog {
		switch e := e.(type) {
		case numElem:
			stack = append(stack, -1)
		case wordElem:
			stack = append(stack, i)
		case unaryOp, ternaryOp:
			if len(stack) < 1 {
				return ErrStackInconsistency
			}
			stack[len(stack)-1] = -1
		case binaryOp:
			if len(stack) < 2 {
				return ErrStackInconsistency
			}
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1] = -1
			if !isAssign(e.op) {
				continue
			}
			if left < 0 {
				return &SyntaxError{e.pos, "assignment requires a variable"}
			}
			w := prog[left].(wordElem)
			if w.pre != 0 || w.post != 0 {
				return &SyntaxError{e.pos, "assignment requires a variable"}
			}
			w.target = true
			prog[left] = w
		}
	}
	if len(stack) != 1 {
		return ErrStackInconsistency
	}
	return nil
}
