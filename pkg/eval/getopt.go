package eval

import (
	"src.elv.sh/pkg/getopt"
)

type parsedOpts map[byte]string

func (p parsedOpts) isSet(b byte) bool {
	_, ok := p[b]
	return ok
}

// A wrapper around [getopt.Parse], optimized for use cases that only need short
// options, which is the case for all the builtins. The API mimics the C
// function with the same name. The name of the builtin is used in error
// messages.
func (fm *frame) getopt(name string, args []string, optstring string) (parsedOpts, []string, bool) {
	var specs []*getopt.OptionSpec
	for i := 0; i < len(optstring); i++ {
		spec := &getopt.OptionSpec{Short: rune(optstring[i])}
		if i+1 < len(optstring) && optstring[i+1] == ':' {
			spec.Arity = getopt.RequiredArgument
			i++
		}
		specs = append(specs, spec)
	}
	// GNU style allows options to be mixed with operands, like "ls a -l b",
	// whereas BSD style doesn't. POSIX says all options "should" precede
	// operands (12.2 Utility Syntax Guidelines, Guideline 9), so we use the BSD
	// style like dash, ksh and zsh.
	opts, args, err := getopt.Parse(args, specs, getopt.BSD)
	if err != nil {
		fm.badCommandLine(name, "%v", err)
		return nil, nil, false
	}
	parsed := make(parsedOpts, len(opts))
	for _, opt := range opts {
		parsed[byte(opt.Spec.Short)] = opt.Argument
	}
	return parsed, args, true
}
