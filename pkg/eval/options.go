package eval

import (
	"fmt"
	"strings"
)

type options uint32

// Omitted: ignoreeof, nolog, vi. These are all related to line editing, which
// is not handled by the evaluator.
const (
	allexport options = 1 << iota
	errexit
	monitor
	noclobber
	notify
	nounset
	verbose
	xtrace
)

// Omitted: -f and -n. Pathname expansion is not supported, and neither is
// reading commands without executing them.
var optionByLetter = map[byte]options{
	'a': allexport,
	'e': errexit,
	'm': monitor,
	'C': noclobber,
	'b': notify,
	'u': nounset,
	'v': verbose,
	'x': xtrace,
}

var optionByName = map[string]options{
	"allexport": allexport,
	"errexit":   errexit,
	"monitor":   monitor,
	"noclobber": noclobber,
	"notify":    notify,
	"nounset":   nounset,
	"verbose":   verbose,
	"xtrace":    xtrace,
}

func (o options) has(bit options) bool {
	return o&bit != 0
}

func (o options) with(bit options, on bool) options {
	if on {
		return o | bit
	}
	return o &^ bit
}

// Returns the value of $-: the letters of all options that are on.
func (o options) letters() string {
	var sb strings.Builder
	for _, letter := range []byte("abCemuvx") {
		if o.has(optionByLetter[letter]) {
			sb.WriteByte(letter)
		}
	}
	return sb.String()
}

// Use for printing options with "set -o" or "set +o". POSIX specifies that "set
// +o" should print commands that can be used to recreate the options, but
// leaves the format of "set -o" unspecified. All of bash, dash, ksh and zsh use
// a tabular format with long names and "on/off", so we follow their behavior.
func (o options) format(asCommands bool) string {
	var sb strings.Builder
	for _, name := range sortedNames(optionByName) {
		on := o.has(optionByName[name])
		switch {
		case asCommands && on:
			fmt.Fprintf(&sb, "set -o %v\n", name)
		case asCommands:
			fmt.Fprintf(&sb, "set +o %v\n", name)
		case on:
			fmt.Fprintf(&sb, "%-10v on\n", name)
		default:
			fmt.Fprintf(&sb, "%-10v off\n", name)
		}
	}
	return sb.String()
}
