package eval

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/elves/jobsh/pkg/arith"
	"github.com/elves/jobsh/pkg/parse"
)

// Methods on (*frame) that implement the expansion of words. They return
// (expander, bool); the boolean flag is false iff there was an expansion
// error, which is always fatal.

func (fm *frame) expandCompounds(cps []*parse.Compound) ([]string, bool) {
	var words []string
	ifs := fm.ifs()
	for _, cp := range cps {
		// Brace expansion comes before all other expansions.
		for _, cp := range braceExpand(cp) {
			exp, ok := fm.compound(cp)
			if !ok {
				return nil, false
			}
			words = append(words, exp.expand(ifs)...)
		}
	}
	return words, true
}

func (fm *frame) compound(cp *parse.Compound) (expander, bool) {
	c := compound{}
	for _, pr := range cp.Parts {
		elem, ok := fm.primary(pr)
		if !ok {
			return nil, false
		}
		c.elems = append(c.elems, elem)
	}
	return c, true
}

var (
	userCurrent = user.Current
	userLookup  = user.Lookup
)

func (fm *frame) home(uname string) (string, bool) {
	if uname == "" {
		if home, set := fm.variables.values["HOME"]; set {
			return home, true
		}
	}
	var u *user.User
	var err error
	if uname == "" {
		u, err = userCurrent()
	} else {
		u, err = userLookup(uname)
	}
	if err != nil {
		if uname == "" {
			fm.diag("can't get home of current user: %v", err)
		} else {
			fm.diag("can't get home of %v: %v", uname, err)
		}
		return "", false
	}
	return u.HomeDir, true
}

func (fm *frame) primary(pr *parse.Primary) (expander, bool) {
	switch pr.Type {
	case parse.BarewordPrimary, parse.SingleQuotedPrimary:
		// Literals don't undergo word splitting. Barewords are considered
		// "quoted" for this purpose because any metacharacter has to be escaped
		// to be considered part of a bareword.
		return literal{pr.Value}, true
	case parse.TildePrimary:
		// The result of tilde expansion is considered "quoted" and not subject
		// to further expansions.
		home, ok := fm.home(pr.Value)
		if !ok {
			return nil, false
		}
		return literal{home}, true
	case parse.DoubleQuotedPrimary:
		return fm.segments(pr.Segments)
	case parse.ArithmeticPrimary:
		exp, ok := fm.segments(pr.Segments)
		if !ok {
			return nil, false
		}
		result, err := arith.Eval(exp.expandOneString(), arithVars{fm})
		if err != nil {
			fm.diag("arithmetic expansion: %v", err)
			return nil, false
		}
		// Arithmetic expressions undergo word splitting.
		//
		// This seems unlikely to be useful (the result is a single number), but
		// it's specified by POSIX and implemented by dash, bash and ksh. The
		// following writes "1 1": "IFS=0; echo $(( 101 ))"
		return expanded{result.String()}, true
	case parse.OutputCapturePrimary:
		return fm.outputCapture(pr)
	case parse.VariablePrimary:
		return fm.variable(pr.Variable)
	default:
		fm.diag("shell bug: unknown primary type %v", pr.Type)
		return nil, false
	}
}

func (fm *frame) outputCapture(pr *parse.Primary) (expander, bool) {
	r, w, err := os.Pipe()
	if err != nil {
		fm.diag("unable to create pipe for command substitution: %v", err)
		return nil, false
	}
	sub := fm.cloneForSubshell()
	sub.files[1] = w
	done := make(chan int, 1)
	go func() {
		status, _ := sub.script(pr.Body)
		w.Close()
		done <- status
	}()
	output, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		fmt.Fprintln(fm.diagFile, "read:", err)
	}
	fm.lastCmdSubstStatus = <-done
	// Removal of trailing newlines happens independently of and before word
	// splitting.
	return expanded{strings.TrimRight(string(output), "\n")}, true
}

func (fm *frame) segments(segs []*parse.Segment) (expander, bool) {
	var elems []expander
	for _, seg := range segs {
		if seg.Type == parse.ExpansionSegment {
			exp, ok := fm.primary(seg.Expansion)
			if !ok {
				return nil, false
			}
			elems = append(elems, exp)
		} else {
			elems = append(elems, literal{seg.Value})
		}
	}
	return doubleQuoted{elems}, true
}

type varInfo struct {
	set       bool
	null      bool
	normal    bool
	scalar    bool
	scalarVal string
}

func (fm *frame) variable(v *parse.Variable) (expander, bool) {
	name := v.Name
	// Suffix operators are all substitution operators: "-", ":-", "=", ":=",
	// "+", ":+", "?" and ":?". There is also one prefix operator "#", which
	// the parser never combines with a suffix operator.

	// Get enough information about the variable for the substitution operators.
	var info varInfo
	if name == "*" || name == "@" {
		// $* or $@
		//
		// POSIX doesn't specify whether $* and $@ should be considered set or
		// null for the substitution operators. No two shells agree completely
		// (arg list values in JSON):
		//
		// | shell | set?   | null?                    |
		// | ----- | ------ | ------------------------ |
		// | dash  | always | [] or [""]               |
		// | bash  | not [] | [] or [""]               |
		// | ksh   | not [] | $1 null                  |
		// | zsh   | always | not []                   |
		//
		// We follow what zsh does, interpreting these two tests as tests of the
		// array. This is consistent with our handling of ${#*} and ${#@}.
		info = varInfo{
			set:  true,
			null: len(fm.arguments) <= 1,
		}
	} else if value, set, ok := fm.specialScalarVar(name); ok {
		// Special scalar, like $#
		info = scalarVarInfo(value, set, false)
	} else if i, err := strconv.Atoi(name); err == nil && i >= 0 {
		// Positional parameter, like $1. We also treat $0 as a positional
		// parameter instead of a special parameter, meaning that ${00} and the
		// like are allowed; this is unspecified in POSIX, but it's harmless to
		// support and makes the code slightly simpler.
		if i < len(fm.arguments) {
			info = scalarVarInfo(fm.arguments[i], true, false)
		} else {
			info = scalarVarInfo("", false, false)
		}
	} else {
		// Normal variable, like $foo.
		value, set := fm.variables.values[name]
		info = scalarVarInfo(value, set, true)
	}

	if v.LengthOp {
		var n int
		if info.scalar {
			n = len(info.scalarVal)
		} else {
			// POSIX doesn't specify the value of ${#*} or ${#@}. Both bash and
			// zsh expand them like $# (the length of the array), which we
			// follow here. Dash seems to use the length of "$*" instead.
			n = len(fm.arguments) - 1
		}
		return expanded{strconv.Itoa(n)}, true
	}
	if v.Modifier != nil {
		mod := v.Modifier
		var useArg, assignIfUse bool
		switch mod.Operator {
		case "-":
			useArg = !info.set
		case ":-":
			useArg = info.null
		case "=":
			useArg = !info.set
			assignIfUse = true
		case ":=":
			useArg = info.null
			assignIfUse = true
		case "+":
			useArg = info.set
		case ":+":
			useArg = !info.null
		case "?":
			if !info.set {
				fm.complainBadVar(v.Name, "unset", mod.Argument)
				return nil, false
			}
		case ":?":
			if info.null {
				fm.complainBadVar(v.Name, "null or unset", mod.Argument)
				return nil, false
			}
		default:
			// The parser doesn't parse other modifiers.
			fm.diag("bug: unknown operator %v", mod.Operator)
			return nil, false
		}
		if useArg {
			arg, ok := fm.compound(mod.Argument)
			if !ok {
				return nil, false
			}
			if assignIfUse {
				if !info.normal {
					fm.diag("cannot assign to $%v", v.Name)
					return nil, false
				}
				if err := fm.SetVar(v.Name, arg.expandOneString()); err != nil {
					fm.diag("%v", err)
					return nil, false
				}
			}
			return arg, true
		}
	} else if !info.set && fm.options.has(nounset) {
		fm.diag("%v", unsetError{name})
		return nil, false
	}
	// If we reach here, expand the variable itself.
	if info.scalar {
		return expanded{info.scalarVal}, true
	}
	return array{fm.arguments[1:], fm.ifs, name == "@"}, true
}

func scalarVarInfo(value string, set, normal bool) varInfo {
	return varInfo{
		set:       set,
		null:      value == "",
		normal:    normal,
		scalar:    true,
		scalarVal: value,
	}
}

func (fm *frame) specialScalarVar(name string) (value string, set, ok bool) {
	switch name {
	case "#":
		return strconv.Itoa(len(fm.arguments) - 1), true, true
	case "?":
		return fm.variables.values[statusVar], true, true
	case "-":
		return fm.options.letters(), true, true
	case "$":
		return strconv.Itoa(os.Getpid()), true, true
	case "!":
		if fm.lastBgPid == 0 {
			return "", false, true
		}
		return strconv.Itoa(fm.lastBgPid), true, true
	default:
		return "", false, false
	}
}

func (fm *frame) complainBadVar(name, what string, argNode *parse.Compound) {
	exp, ok := fm.compound(argNode)
	if !ok {
		return
	}
	arg := exp.expandOneString()
	// This intentionally uses files[2] rather than diagFile, because this is
	// not a "shell diagnostic message" and should respect active redirections.
	if arg == "" {
		fmt.Fprintf(fm.stderr(), "%v is %v\n", name, what)
	} else {
		fmt.Fprintf(fm.stderr(), "%v is %v: %v\n", name, what, arg)
	}
}

func (fm *frame) ifs() string {
	ifs, set := fm.variables.values["IFS"]
	if !set {
		// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#tag_18_06_05
		return " \t\n"
	}
	return ifs
}
