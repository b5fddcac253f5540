// Package arith implements the arithmetic expressions of $(( )).
//
// Expressions are tokenized, rearranged into postfix order and evaluated
// with a value stack. Values are integers or floating-point numbers.
package arith

// Variables is the variable table an expression reads and assigns.
type Variables interface {
	Get(name string) (string, bool)
	Set(name, value string) error
}

// MapVariables adapts a map to [Variables].
type MapVariables map[string]string

func (m MapVariables) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MapVariables) Set(name, value string) error {
	m[name] = value
	return nil
}

// Eval evaluates an arithmetic expression.
//
// The expression may contain multiple segments separated by commas; they are
// evaluated in order and the value of the last one is the result. An empty
// segment evaluates to 0.
func Eval(expr string, vars Variables) (Value, error) {
	tokens, err := lex(expr)
	if err != nil {
		return Value{}, err
	}
	segments := splitSegments(tokens, len(expr))
	progs := make([][]elem, len(segments))
	for i, seg := range segments {
		if len(seg.tokens) == 0 {
			continue
		}
		progs[i], err = compile(seg.tokens, seg.end)
		if err != nil {
			return Value{}, err
		}
	}
	ev := &evaluator{vars}
	result := Int(0)
	for _, prog := range progs {
		if prog == nil {
			result = Int(0)
			continue
		}
		result, err = ev.run(prog)
		if err != nil {
			return Value{}, err
		}
	}
	return result, nil
}

type segment struct {
	tokens []token
	// Position just past the segment.
	end int
}

// Splits tokens at commas outside parentheses and the middle of ternaries.
func splitSegments(tokens []token, end int) []segment {
	var segments []segment
	depth, ternary, start := 0, 0, 0
	for i, t := range tokens {
		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
		case "?":
			if depth == 0 {
				ternary++
			}
		case ":":
			if depth == 0 && ternary > 0 {
				ternary--
			}
		case ",":
			if depth == 0 && ternary == 0 {
				segments = append(segments, segment{tokens[start:i], t.pos})
				start = i + 1
			}
		}
	}
	return append(segments, segment{tokens[start:], end})
}
