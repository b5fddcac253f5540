package eval

import (
	"strings"

	"github.com/elves/jobsh/pkg/parse"
)

// An element of a word during brace expansion: either one character of an
// unquoted bareword, or any other primary, which is never split.
type braceAtom struct {
	r rune
	// Whether r is unescaped, and thus may delimit a brace expansion.
	active bool
	pr     *parse.Primary
}

func (a braceAtom) is(r rune) bool { return a.pr == nil && a.active && a.r == r }

// Performs brace expansion on a word, as in "{a,b}c" -> "ac" "bc". A brace
// pair expands only when it is complete and contains a comma at its own
// level; other braces are kept literally. Words without braces are returned
// as is.
func braceExpand(cp *parse.Compound) []*parse.Compound {
	atoms, hasBrace := braceAtoms(cp)
	if !hasBrace {
		return []*parse.Compound{cp}
	}
	words := expandBraceAtoms(atoms)
	cps := make([]*parse.Compound, len(words))
	for i, word := range words {
		cps[i] = atomsToCompound(word)
	}
	return cps
}

func braceAtoms(cp *parse.Compound) ([]braceAtom, bool) {
	var atoms []braceAtom
	hasBrace := false
	for _, pr := range cp.Parts {
		if pr.Type != parse.BarewordPrimary {
			atoms = append(atoms, braceAtom{pr: pr})
			continue
		}
		for _, a := range barewordAtoms(pr) {
			hasBrace = hasBrace || a.is('{')
			atoms = append(atoms, a)
		}
	}
	return atoms, hasBrace
}

// Backslash-escaped characters in a bareword are inactive. The parser only
// keeps the unescaped value, so escapes are recovered from the source, unless
// the source doesn't match the value (after alias substitution).
func barewordAtoms(pr *parse.Primary) []braceAtom {
	src := pr.Source()
	if !strings.Contains(src, "\\") {
		return activeAtoms(pr.Value)
	}
	var atoms []braceAtom
	var sb strings.Builder
	rs := []rune(src)
	for i := 0; i < len(rs); i++ {
		if rs[i] != '\\' {
			atoms = append(atoms, braceAtom{r: rs[i], active: true})
			sb.WriteRune(rs[i])
			continue
		}
		i++
		if i < len(rs) && rs[i] != '\n' {
			atoms = append(atoms, braceAtom{r: rs[i]})
			sb.WriteRune(rs[i])
		}
	}
	if sb.String() != pr.Value {
		return activeAtoms(pr.Value)
	}
	return atoms
}

func activeAtoms(s string) []braceAtom {
	atoms := make([]braceAtom, 0, len(s))
	for _, r := range s {
		atoms = append(atoms, braceAtom{r: r, active: true})
	}
	return atoms
}

func expandBraceAtoms(s []braceAtom) [][]braceAtom {
	for i := range s {
		if !s[i].is('{') {
			continue
		}
		alts, end, ok := braceAlternatives(s, i)
		if !ok {
			continue
		}
		suffixes := expandBraceAtoms(s[end+1:])
		var words [][]braceAtom
		for _, alt := range alts {
			for _, middle := range expandBraceAtoms(alt) {
				for _, suffix := range suffixes {
					word := make([]braceAtom, 0, i+len(middle)+len(suffix))
					word = append(word, s[:i]...)
					word = append(word, middle...)
					words = append(words, append(word, suffix...))
				}
			}
		}
		return words
	}
	return [][]braceAtom{s}
}

// Splits the brace pair opening at s[open] into its alternatives, and returns
// the index of the closing brace. The last return value is false if the pair
// is incomplete or has fewer than two alternatives.
func braceAlternatives(s []braceAtom, open int) ([][]braceAtom, int, bool) {
	var alts [][]braceAtom
	depth, start := 0, open+1
	for i := open + 1; i < len(s); i++ {
		switch {
		case s[i].is('{'):
			depth++
		case s[i].is('}'):
			if depth > 0 {
				depth--
				continue
			}
			alts = append(alts, s[start:i])
			return alts, i, len(alts) > 1
		case s[i].is(',') && depth == 0:
			alts = append(alts, s[start:i])
			start = i + 1
		}
	}
	return nil, 0, false
}

func atomsToCompound(atoms []braceAtom) *parse.Compound {
	cp := &parse.Compound{}
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			cp.Parts = append(cp.Parts,
				&parse.Primary{Type: parse.BarewordPrimary, Value: sb.String()})
			sb.Reset()
		}
	}
	for _, a := range atoms {
		if a.pr != nil {
			flush()
			cp.Parts = append(cp.Parts, a.pr)
		} else {
			sb.WriteRune(a.r)
		}
	}
	flush()
	return cp
}
