package eval

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// POSIX groups expansions into three steps:
//
//  1. Tilde expansion, parameter expansion, command substitution and arithmetic
//     expansion.
//  2. Field spltting.
//  3. Pathname expansion.
//
// Pathname expansion is not supported, so only the first two steps apply.
//
// Expansions in step 1 can be parsed statically and done in the same pass.
// Step 2 is done dynamically on the result of step 1, and whether it applies
// depends on the syntactical environment. For example, in "echo $x", $x is
// subject to field splitting, whereas in "y=$x", it is not.
//
// In this implementation, the intermediate result from step 1 is represented
// by an "expander", which provides methods for either performing field
// splitting or not.
//
// A simpler alternative to this approach is deciding whether field splitting
// should be done when evaluating the expression. This works for all cases
// except one: in "echo ${y:=$x}", if $y is unset or null, $x is expanded in two
// ways:
//
//  1. The result without field splitting is used to assign to $y.
//  2. The result with field splitting is used as command arguments.
type expander interface {
	// Expand with field splitting.
	expand(ifs string) []string
	// Expand without field splitting. This always results in one string.
	expandOneString() string
}

// A literal that is *not* subject to field splitting.
type literal struct{ s string }

func (l literal) expand(ifs string) []string { return []string{l.s} }
func (l literal) expandOneString() string    { return l.s }

// A word resulting from an unquoted expansion, subject to field splitting.
type expanded struct{ s string }

func (e expanded) expand(ifs string) []string { return split(e.s, ifs) }
func (e expanded) expandOneString() string    { return e.s }

// Evaluation result of a compound expression.
type compound struct{ elems []expander }

func (c compound) expand(ifs string) []string {
	return expandFromElems(nil, c.elems, func(e expander) []string {
		return e.expand(ifs)
	})
}

func (c compound) expandOneString() string { return expandOneStringFromElems(c.elems) }

// Evaluation result of a double-quoted string.
type doubleQuoted struct{ elems []expander }

func (dq doubleQuoted) expand(ifs string) []string {
	if len(dq.elems) == 1 {
		// A lone "$@" expands to no words at all when there are no arguments.
		if a, ok := dq.elems[0].(array); ok && a.isAt {
			return cloneSlice(a.elems)
		}
	}
	return expandFromElems([]string{""}, dq.elems, func(e expander) []string {
		// Special-case $@ inside double quotes.
		if a, ok := e.(array); ok && a.isAt {
			return a.elems
		}
		return []string{e.expandOneString()}
	})
}

func (dq doubleQuoted) expandOneString() string { return expandOneStringFromElems(dq.elems) }

// $* or $@. Both have complex word splitting behavior, described in
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#tag_18_05_02.
// The behavior of $@ inside double quotes is implemented in
// doubleQuoted.expand.
type array struct {
	elems []string
	ifs   func() string // Needed for expandOneString
	isAt  bool
}

func (a array) expand(ifs string) []string {
	var words []string
	for _, arg := range a.elems {
		if arg != "" {
			words = append(words, split(arg, ifs)...)
		}
	}
	return words
}

func (a array) expandOneString() string {
	// POSIX leaves unspecified how $@ expands in a one-word environment; we let
	// it behave like $*.
	var sep string
	if ifs := a.ifs(); ifs != "" {
		r, _ := utf8.DecodeRuneInString(ifs)
		sep = string(r)
	}
	return strings.Join(a.elems, sep)
}

// Provides expansion by concatenating the expansion of elems, using initWords
// as the initial value for the expansion result, and the f function to expand
// each element. The last word of the result so far and the first word of the
// next element are joined.
//
// Note: May mutate initWords.
func expandFromElems(initWords []string, elems []expander, f func(expander) []string) []string {
	words := initWords
	for _, elem := range elems {
		more := f(elem)
		if len(words) == 0 {
			words = append(words, more...)
		} else if len(more) > 0 {
			words[len(words)-1] += more[0]
			words = append(words, more[1:]...)
		}
	}
	return words
}

func expandOneStringFromElems(elems []expander) string {
	var sb strings.Builder
	for _, elem := range elems {
		sb.WriteString(elem.expandOneString())
	}
	return sb.String()
}

func split(s, ifs string) []string {
	// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#tag_18_06_05
	if ifs == "" {
		if s == "" {
			// Unquoted null words are deleted even with an empty IFS.
			return nil
		}
		return []string{s}
	}
	// The following implements the algorithm described in clause 3. Clause 1
	// describes the default behavior, but it's consistent with the more general
	// clause 3.
	//
	// The algorithm depends on a definition of "character", which is not
	// explicitly specified in this section. This detail is important when IFS
	// contains multi-byte codepoints. Dash seems to treat each byte as a
	// character, whereas both ksh and bash treats each codepoint as a
	// character. We follow the behavior of ksh and bash because it makes more
	// sense.
	var whitespaceRunes, nonWhitespaceRunes []rune
	for _, r := range ifs {
		if r == ' ' || r == '\t' || r == '\n' {
			whitespaceRunes = append(whitespaceRunes, r)
		} else {
			nonWhitespaceRunes = append(nonWhitespaceRunes, r)
		}
	}
	whitespaces := string(whitespaceRunes)
	nonWhitespaces := string(nonWhitespaceRunes)

	// a. Ignore leading and trailing IFS whitespaces.
	s = strings.Trim(s, whitespaces)
	if s == "" {
		return nil
	}

	delimPatterns := make([]string, 0, 2)
	// b. Each occurrence of a non-whitespace IFS character, with optional
	// leading and trailing IFS whitespaces, are considered delimiters.
	if nonWhitespaces != "" {
		p := "[" + regexp.QuoteMeta(nonWhitespaces) + "]"
		if whitespaces != "" {
			whitePattern := "[" + regexp.QuoteMeta(whitespaces) + "]*"
			p = whitePattern + p + whitePattern
		}
		delimPatterns = append(delimPatterns, p)
	}
	// c. Non-zero-length IFS white space shall delimit a field.
	if whitespaces != "" {
		p := "[" + regexp.QuoteMeta(whitespaces) + "]+"
		delimPatterns = append(delimPatterns, p)
	}

	// Apply splitting from rule b and c.
	fields := splitterFor(strings.Join(delimPatterns, "|")).Split(s, -1)
	if len(fields) > 0 && fields[len(fields)-1] == "" {
		// If the word ended with a delimiter, don't produce a final empty
		// field.
		fields = fields[:len(fields)-1]
	}
	return fields
}

var (
	splitterCache   = map[string]*regexp.Regexp{}
	splitterCacheMu sync.Mutex
)

func splitterFor(pattern string) *regexp.Regexp {
	splitterCacheMu.Lock()
	defer splitterCacheMu.Unlock()
	if re, ok := splitterCache[pattern]; ok {
		return re
	}
	re := regexp.MustCompile(pattern)
	splitterCache[pattern] = re
	return re
}
