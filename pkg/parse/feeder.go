package parse

import (
	"bufio"
	"io"
	"sort"
	"strings"
)

// LineSource supplies additional input to a [Feeder] one line at a time.
//
// ReadLine returns the next line including its trailing newline, if any. It
// returns io.EOF when there is no more input.
type LineSource interface {
	ReadLine() (string, error)
}

// ReaderSource is a [LineSource] reading from an [io.Reader]. It is used for
// scripts and non-interactive stdin.
type ReaderSource struct {
	r *bufio.Reader
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{bufio.NewReader(r)}
}

func (rs *ReaderSource) ReadLine() (string, error) {
	line, err := rs.r.ReadString('\n')
	if err == io.EOF && line != "" {
		// Deliver the final unterminated line; the next call returns io.EOF.
		return line, nil
	}
	return line, err
}

// Aliases is the alias table consulted by the parser when it sees a word in
// command position.
type Aliases interface {
	Alias(name string) (string, bool)
}

// Nest is an entry of the nest stack of a [Feeder]: an open bracketing
// construct and the tokens that can close it.
type Nest struct {
	Open    string
	Closers []string
}

// Feeder owns the text being parsed. Text is only ever appended to, so
// offsets recorded in nodes stay valid as more input gets fed; the only
// exception is alias substitution, which rewrites the unconsumed tail.
type Feeder struct {
	text string
	pos  int
	// Offsets at which each line starts; lineStarts[0] is always 0.
	lineStarts []int
	nest       []Nest

	src    LineSource
	srcErr error

	aliases   Aliases
	aliasMemo []aliasSub
}

type aliasSub struct {
	begin int
	name  string
	def   string
}

// NewFeeder creates a Feeder. The src argument may be nil, in which case
// [Feeder.FeedAdditionalLine] always fails and only text supplied with
// [Feeder.Feed] gets parsed.
func NewFeeder(src LineSource) *Feeder {
	return &Feeder{lineStarts: []int{0}, src: src}
}

// NewStringFeeder creates a Feeder with the given text and no line source.
func NewStringFeeder(text string) *Feeder {
	f := NewFeeder(nil)
	f.Feed(text)
	return f
}

// SetAliases sets the alias table consulted during parsing.
func (f *Feeder) SetAliases(a Aliases) { f.aliases = a }

// Feed appends text to the buffer.
func (f *Feeder) Feed(text string) {
	base := len(f.text)
	f.text += text
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			f.lineStarts = append(f.lineStarts, base+i+1)
		}
	}
}

// FeedAdditionalLine reads one more line from the line source and appends it.
// It reports whether any input was obtained.
func (f *Feeder) FeedAdditionalLine() bool {
	if f.src == nil || f.srcErr != nil {
		return false
	}
	line, err := f.src.ReadLine()
	if err != nil {
		if err != io.EOF {
			f.srcErr = err
		}
		if line == "" {
			return false
		}
	}
	f.Feed(line)
	return true
}

// Err returns the non-EOF error returned by the line source, if any.
func (f *Feeder) Err() error { return f.srcErr }

// Text returns all the text fed so far.
func (f *Feeder) Text() string { return f.text }

// Pos returns the current offset into [Feeder.Text].
func (f *Feeder) Pos() int { return f.pos }

// Rest returns the unconsumed text.
func (f *Feeder) Rest() string { return f.text[f.pos:] }

// Len returns the length of the unconsumed text.
func (f *Feeder) Len() int { return len(f.text) - f.pos }

// Consume removes and returns the first n bytes of the unconsumed text.
func (f *Feeder) Consume(n int) string {
	consumed := f.text[f.pos : f.pos+n]
	f.pos += n
	return consumed
}

// StartsWith reports whether the unconsumed text starts with s.
func (f *Feeder) StartsWith(s string) bool {
	return strings.HasPrefix(f.Rest(), s)
}

// Position converts an offset to a 1-based line and column.
func (f *Feeder) Position(offset int) (line, col int) {
	// The number of line starts <= offset is the 1-based line number.
	line = sort.SearchInts(f.lineStarts, offset+1)
	return line, offset - f.lineStarts[line-1] + 1
}

// Discard drops all unconsumed text and any pending alias bookkeeping.
func (f *Feeder) Discard() {
	f.pos = len(f.text)
	f.aliasMemo = nil
}

func (f *Feeder) rewind(pos int) { f.pos = pos }

// Nest stack.

func (f *Feeder) PushNest(open string, closers ...string) {
	f.nest = append(f.nest, Nest{open, closers})
}

func (f *Feeder) PopNest() {
	f.nest = f.nest[:len(f.nest)-1]
}

// Nested reports whether there is any open bracketing construct.
func (f *Feeder) Nested() bool { return len(f.nest) > 0 }

// ActiveClosers returns the closers of the innermost open construct.
func (f *Feeder) ActiveClosers() []string {
	if len(f.nest) == 0 {
		return nil
	}
	return f.nest[len(f.nest)-1].Closers
}

func (f *Feeder) activeCloser(s string) bool {
	for _, closer := range f.ActiveClosers() {
		if closer == s {
			return true
		}
	}
	return false
}

// Scanning helpers. These return lengths of prefixes of the unconsumed text
// and never feed more input.

// ScanWhile returns the length of the longest prefix whose runes satisfy fn.
func (f *Feeder) ScanWhile(fn func(r rune) bool) int {
	rest := f.Rest()
	for i, r := range rest {
		if !fn(r) {
			return i
		}
	}
	return len(rest)
}

// ScanBlanks returns the length of the run of runes in set.
func (f *Feeder) ScanBlanks(set string) int {
	return f.ScanWhile(func(r rune) bool { return runeIn(r, set) })
}

// ScanInteger returns the length of a run of decimal digits.
func (f *Feeder) ScanInteger() int {
	return f.ScanWhile(func(r rune) bool { return runeIn(r, digitSet) })
}

// ScanName returns the length of a variable name, or 0 if there is none.
func (f *Feeder) ScanName() int {
	rest := f.Rest()
	if rest == "" || runeIn(rune(rest[0]), digitSet) {
		return 0
	}
	return f.ScanWhile(func(r rune) bool { return runeIn(r, nameSet) })
}

// ScanPrefixIn returns the first of the prefixes the unconsumed text starts
// with, or "".
func (f *Feeder) ScanPrefixIn(prefixes ...string) string {
	for _, prefix := range prefixes {
		if f.StartsWith(prefix) {
			return prefix
		}
	}
	return ""
}

// Alias bookkeeping.

// Substitutes the text between the current position and end with def,
// remembering the substitution so that it can be reverted in the display
// text later.
func (f *Feeder) substituteAlias(end int, name, def string) {
	f.text = f.text[:f.pos] + def + f.text[end:]
	f.aliasMemo = append(f.aliasMemo, aliasSub{f.pos, name, def})
	f.lineStarts = f.lineStarts[:1]
	for i := 0; i < len(f.text); i++ {
		if f.text[i] == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
}

// Reports whether an alias substitution has already happened at the current
// position, which is the case when a parse is retried after more input was
// fed. The name of the substituted alias is returned.
func (f *Feeder) substitutedAt(pos int) []string {
	var names []string
	for _, sub := range f.aliasMemo {
		if sub.begin == pos {
			names = append(names, sub.name)
		}
	}
	return names
}

// Replays alias substitutions recorded within [begin, end) against the
// source text in reverse order, restoring the text as the user typed it, and
// clears the memo.
func (f *Feeder) replayAliases(begin, end int) string {
	text := f.text[begin:end]
	for i := len(f.aliasMemo) - 1; i >= 0; i-- {
		sub := f.aliasMemo[i]
		j := sub.begin - begin
		if j < 0 || j+len(sub.def) > len(text) || text[j:j+len(sub.def)] != sub.def {
			continue
		}
		text = text[:j] + sub.name + text[j+len(sub.def):]
	}
	f.aliasMemo = nil
	return text
}
