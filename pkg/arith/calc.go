package arith

import (
	"fmt"
	"math"
)

// A stack entry. An assignment target stays unresolved, holding just the
// name.
type operand struct {
	v    Value
	name string
}

type evaluator struct {
	vars Variables
}

func (ev *evaluator) lookup(name string) (Value, error) {
	s, ok := ev.vars.Get(name)
	if !ok || s == "" {
		// Not defined in POSIX, but all of dash, bash and zsh treat unset
		// and empty variables as 0.
		return Int(0), nil
	}
	if v, ok := parseNum(s); ok {
		return v, nil
	}
	// When the value is non-empty but can't be parsed as a number, dash
	// errors, while bash and zsh treat the content as another arithmetic
	// expression and evaluate it recursively (subject to a recursion depth
	// limit). We follow dash for simplicity.
	return Value{}, &NotANumberError{name, s}
}

func (ev *evaluator) set(name string, v Value) error {
	return ev.vars.Set(name, v.String())
}

// Evaluates a compiled expression.
func (ev *evaluator) run(prog []elem) (Value, error) {
	var stack []operand
	push := func(v Value) { stack = append(stack, operand{v: v}) }
	pop := func() operand {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return o
	}
	for _, e := range prog {
		switch e := e.(type) {
		case numElem:
			push(e.v)
		case wordElem:
			if e.target {
				stack = append(stack, operand{name: e.name})
				continue
			}
			old, err := ev.lookup(e.name)
			if err != nil {
				return Value{}, err
			}
			if e.pre == 0 && e.post == 0 {
				push(old)
				continue
			}
			updated, _ := binary("+", old, Int(e.pre+e.post))
			if err := ev.set(e.name, updated); err != nil {
				return Value{}, err
			}
			if e.pre != 0 {
				push(updated)
			} else {
				push(old)
			}
		case unaryOp:
			if len(stack) < 1 {
				return Value{}, ErrStackInconsistency
			}
			v, err := unary(e.op, pop().v)
			if err != nil {
				return Value{}, err
			}
			push(v)
		case binaryOp:
			if len(stack) < 2 {
				return Value{}, ErrStackInconsistency
			}
			b, a := pop(), pop()
			if !isAssign(e.op) {
				v, err := binary(e.op, a.v, b.v)
				if err != nil {
					return Value{}, err
				}
				push(v)
				continue
			}
			if a.name == "" {
				panic(fmt.Sprintf("arith: assignment %s to non-variable %v", e.op, a.v))
			}
			v := b.v
			if e.op != "=" {
				old, err := ev.lookup(a.name)
				if err != nil {
					return Value{}, err
				}
				v, err = binary(e.op[:len(e.op)-1], old, b.v)
				if err != nil {
					return Value{}, err
				}
			}
			if err := ev.set(a.name, v); err != nil {
				return Value{}, err
			}
			push(v)
		case ternaryOp:
			if len(stack) < 1 {
				return Value{}, ErrStackInconsistency
			}
			branch := e.b
			if pop().v.truthy() {
				branch = e.a
			}
			v, err := ev.run(branch)
			if err != nil {
				return Value{}, err
			}
			push(v)
		}
	}
	if len(stack) != 1 || stack[0].name != "" {
		return Value{}, ErrStackInconsistency
	}
	return stack[0].v, nil
}

func unary(op string, v Value) (Value, error) {
	switch op {
	case "+":
		return v, nil
	case "-":
		if v.isFloat {
			return Float(-v.f), nil
		}
		return Int(-v.i), nil
	}
	if v.isFloat {
		return Value{}, &OperandTypeError{op, v}
	}
	switch op {
	case "!":
		return boolValue(v.i == 0), nil
	case "~":
		return Int(^v.i), nil
	}
	panic("arith: unknown unary operator " + op)
}

func binary(op string, a, b Value) (Value, error) {
	switch op {
	case ",":
		return b, nil
	case "&&":
		// Both operands have already been evaluated; there is no
		// short-circuiting.
		return boolValue(a.truthy() && b.truthy()), nil
	case "||":
		return boolValue(a.truthy() || b.truthy()), nil
	}
	if a.isFloat || b.isFloat {
		return binaryFloat(op, a, b)
	}
	x, y := a.i, b.i
	switch op {
	case "+":
		return Int(x + y), nil
	case "-":
		return Int(x - y), nil
	case "*":
		return Int(x * y), nil
	case "/":
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		return Int(x / y), nil
	case "%":
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		return Int(x % y), nil
	case "**":
		if y < 0 {
			return Value{}, &NegativeExponentError{y}
		}
		return Int(pow(x, y)), nil
	case "<<":
		return Int(x << (uint64(y) & 63)), nil
	case ">>":
		return Int(x >> (uint64(y) & 63)), nil
	case "&":
		return Int(x & y), nil
	case "^":
		return Int(x ^ y), nil
	case "|":
		return Int(x | y), nil
	}
	return compare(op, a, b), nil
}

func binaryFloat(op string, a, b Value) (Value, error) {
	x, y := a.Float(), b.Float()
	switch op {
	case "+":
		return Float(x + y), nil
	case "-":
		return Float(x - y), nil
	case "*":
		return Float(x * y), nil
	case "/":
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		return Float(x / y), nil
	case "**":
		return Float(math.Pow(x, y)), nil
	case "<", "<=", ">", ">=", "==", "!=":
		return compare(op, a, b), nil
	}
	operand := a
	if !a.isFloat {
		operand = b
	}
	return Value{}, &OperandTypeError{op, operand}
}

func compare(op string, a, b Value) Value {
	var c int
	if a.isFloat || b.isFloat {
		x, y := a.Float(), b.Float()
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	} else {
		switch {
		case a.i < b.i:
			c = -1
		case a.i > b.i:
			c = 1
		}
	}
	switch op {
	case "<":
		return boolValue(c < 0)
	case "<=":
		return boolValue(c <= 0)
	case ">":
		return boolValue(c > 0)
	case ">=":
		return boolValue(c >= 0)
	case "==":
		return boolValue(c == 0)
	case "!=":
		return boolValue(c != 0)
	}
	panic("arith: unknown binary operator " + op)
}

func pow(x, y int64) int64 {
	r := int64(1)
	for y > 0 {
		if y&1 == 1 {
			r *= x
		}
		x *= x
		y >>= 1
	}
	return r
}
