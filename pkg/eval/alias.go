package eval

import (
	"fmt"
	"strings"
)

// Alias definitions. Aliases are substituted by the parser, which consults
// the table through [parse.Aliases].
type aliasTable map[string]string

func (t aliasTable) Alias(name string) (string, bool) {
	def, ok := t[name]
	return def, ok
}

// Reports whether name can be used as an alias name. POSIX only allows
// characters from the portable filename set, plus "!", "%", ",", "@".
func isAliasName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r == '!' || r == '%' || r == ',' || r == '@' || r == '.' || r == '-' ||
			'0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}

// Quotes s so that it can be read back by the shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/alias.html
func alias(fm *frame, args []string) int {
	if len(args) == 0 {
		for _, name := range sortedNames(fm.aliases) {
			fmt.Fprintf(fm.stdout(), "%s=%s\n", name, quote(fm.aliases[name]))
		}
		return 0
	}
	status := 0
	for _, arg := range args {
		name, def, isDef := strings.Cut(arg, "=")
		if isDef {
			if !isAliasName(name) {
				fmt.Fprintf(fm.stderr(), "alias: invalid alias name: %v\n", name)
				status = StatusGeneric
				continue
			}
			fm.aliases[name] = def
		} else if def, ok := fm.aliases[name]; ok {
			fmt.Fprintf(fm.stdout(), "%s=%s\n", name, quote(def))
		} else {
			fmt.Fprintf(fm.stderr(), "alias: %v: not found\n", name)
			status = StatusGeneric
		}
	}
	return status
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/unalias.html
func unalias(fm *frame, args []string) int {
	opts, args, ok := fm.getopt("unalias", args, "a")
	if !ok {
		return StatusBadCommandLine
	}
	if opts.isSet('a') {
		for name := range fm.aliases {
			delete(fm.aliases, name)
		}
		return 0
	}
	status := 0
	for _, name := range args {
		if _, ok := fm.aliases[name]; ok {
			delete(fm.aliases, name)
		} else {
			fmt.Fprintf(fm.stderr(), "unalias: %v: not found\n", name)
			status = StatusGeneric
		}
	}
	return status
}
