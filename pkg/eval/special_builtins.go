package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/elves/jobsh/pkg/parse"
)

// Some builtins are designated "special" by POSIX; the return value includes a
// bool because they can return a fatal error that terminates evaluation.
//
// For more details on how special builtins differ from non-special builtins,
// see the code that uses this map.
var specialBuiltins = map[string]func(*frame, []string) (int, bool){
	":":        colon,
	"exit":     exit,
	"export":   export,
	"readonly": readonly,
	"set":      setCmd,
	"shift":    shift,
	"unset":    unset,
}

func init() {
	// Some special builtins refer to methods that depend on specialBuiltins, so
	// initialize them here to avoid dependency cycle.
	specialBuiltins["eval"] = eval
}

func colon(*frame, []string) (int, bool) {
	return 0, true
}

func eval(fm *frame, args []string) (int, bool) {
	code := strings.Join(args, " ")
	if strings.Trim(code, " \t\n") == "" {
		return 0, true
	}
	return fm.evalFeeder(parse.NewFeeder(parse.NewReaderSource(strings.NewReader(code))), nil)
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#exit
//
// The status is taken modulo 256. A non-numeric argument is an error, but the
// shell still exits, with status 2, as dash and bash do.
func exit(fm *frame, args []string) (int, bool) {
	status := fm.status()
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fm.badCommandLine("exit", "numeric argument required, got %q", args[0])
			status = StatusBadCommandLine
		} else {
			status = int(uint8(n))
		}
	default:
		fm.badCommandLine("exit", "at most 1 argument accepted, got %v", len(args))
		return StatusBadCommandLine, false
	}
	fm.exiting = true
	return status, false
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#export
func export(fm *frame, args []string) (int, bool) {
	return fm.setAttr("export", args, fm.variables.exported)
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#readonly
func readonly(fm *frame, args []string) (int, bool) {
	return fm.setAttr("readonly", args, fm.variables.readonly)
}

// Implements export and readonly, which have the same syntax.
func (fm *frame) setAttr(name string, args []string, attr set[string]) (int, bool) {
	opts, args, ok := fm.getopt(name, args, "p")
	if !ok {
		return StatusBadCommandLine, false
	}
	if opts.isSet('p') || len(args) == 0 {
		for _, varName := range sortedNames(attr) {
			if value, isSet := fm.variables.values[varName]; isSet {
				fmt.Fprintf(fm.stdout(), "%s %s=%s\n", name, varName, quote(value))
			} else {
				fmt.Fprintf(fm.stdout(), "%s %s\n", name, varName)
			}
		}
		return 0, true
	}
	for _, arg := range args {
		varName, value, hasValue := strings.Cut(arg, "=")
		if !isName(varName) {
			fm.badCommandLine(name, "%v: bad variable name", varName)
			return StatusBadCommandLine, false
		}
		if hasValue {
			if err := fm.SetVar(varName, value); err != nil {
				fm.badCommandLine(name, "%v", err)
				return StatusAssignmentError, false
			}
		}
		attr.add(varName)
	}
	return 0, true
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#set
//
// Options are parsed by hand, since they may start with either "-" or "+".
func setCmd(fm *frame, args []string) (int, bool) {
	if len(args) == 0 {
		for _, name := range sortedNames(fm.variables.values) {
			if isName(name) {
				fmt.Fprintf(fm.stdout(), "%s=%s\n", name, quote(fm.variables.values[name]))
			}
		}
		return 0, true
	}
	setArgs := false
	for len(args) > 0 {
		arg := args[0]
		if arg == "--" || arg == "-" {
			args = args[1:]
			setArgs = true
			break
		}
		if len(arg) < 2 || (arg[0] != '-' && arg[0] != '+') {
			break
		}
		on := arg[0] == '-'
		if arg[1:] == "o" {
			if len(args) == 1 {
				fmt.Fprint(fm.stdout(), fm.options.format(!on))
				return 0, true
			}
			opt, ok := optionByName[args[1]]
			if !ok {
				fm.badCommandLine("set", "%v: invalid option name", args[1])
				return StatusBadCommandLine, false
			}
			fm.options = fm.options.with(opt, on)
			args = args[2:]
			continue
		}
		for i := 1; i < len(arg); i++ {
			opt, ok := optionByLetter[arg[i]]
			if !ok {
				fm.badCommandLine("set", "%c%c: invalid option", arg[0], arg[i])
				return StatusBadCommandLine, false
			}
			fm.options = fm.options.with(opt, on)
		}
		args = args[1:]
	}
	if setArgs || len(args) > 0 {
		fm.arguments = append([]string{fm.arguments[0]}, args...)
	}
	return 0, true
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#shift
func shift(fm *frame, args []string) (int, bool) {
	n := 1
	switch len(args) {
	case 0:
	case 1:
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n < 0 {
			fm.badCommandLine("shift", "argument must be non-negative number, got %q", args[0])
			return StatusBadCommandLine, false
		}
	default:
		fm.badCommandLine("shift", "at most 1 argument accepted, got %v", len(args))
		return StatusBadCommandLine, false
	}
	if n > len(fm.arguments)-1 {
		fm.badCommandLine("shift", "can't shift %v arguments, only %v", n, len(fm.arguments)-1)
		return StatusGeneric, false
	}
	fm.arguments = append([]string{fm.arguments[0]}, fm.arguments[1+n:]...)
	return 0, true
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#unset
//
// Functions are not supported, so "unset -f" has nothing to unset.
func unset(fm *frame, args []string) (int, bool) {
	opts, args, ok := fm.getopt("unset", args, "fv")
	if !ok {
		return StatusBadCommandLine, false
	}
	if opts.isSet('f') && opts.isSet('v') {
		fm.badCommandLine("unset", "-f and -v are mutually exclusive")
		return StatusBadCommandLine, false
	}
	if opts.isSet('f') {
		return 0, true
	}
	for _, name := range args {
		if err := fm.UnsetVar(name); err != nil {
			fm.badCommandLine("unset", "%v", err)
			return StatusGeneric, false
		}
	}
	return 0, true
}
