package parse

// Basic types used by the package.

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type parser struct {
	f     *Feeder
	stack []Node
	err   Error
	// Set when the input ran out inside an unfinished construct and the
	// feeder could not supply more.
	needMore bool
}

func (p *parser) rest() string { return p.f.Rest() }

func (p *parser) eof() bool { return p.f.Len() == 0 }

func (p *parser) source(n Node) string {
	return p.f.text[n.Begin():n.End()]
}

func (p *parser) errorf(format string, a ...interface{}) {
	p.err.Errors = append(p.err.Errors,
		ErrorEntry{p.f.pos, fmt.Sprintf(format, a...)})
}

// Asks the feeder for another line. Used by the structural parts of the
// parser when the input runs out in the middle of a construct.
func (p *parser) more() bool {
	if p.f.FeedAdditionalLine() {
		return true
	}
	p.needMore = true
	return false
}

// Waits until there is unconsumed input, asking for more lines as needed.
// Returns false if the input ran out.
func (p *parser) waitInput() bool {
	for p.eof() {
		if !p.more() {
			return false
		}
	}
	return true
}

// Reports whether the innermost open construct is a braced variable.
func (p *parser) inBracedVariable() bool {
	nest := p.f.nest
	return len(nest) > 0 && nest[len(nest)-1].Open == "${"
}

func (p *parser) consume(i int) string { return p.f.Consume(i) }

func (p *parser) consumeWhile(f func(r rune) bool) string {
	return p.consume(p.f.ScanWhile(f))
}

func (p *parser) consumeWhileIn(set string) string {
	return p.consume(p.f.ScanBlanks(set))
}

func (p *parser) consumeWhileNotIn(set string) string {
	return p.consumeWhile(func(r rune) bool { return !runeIn(r, set) })
}

func (p *parser) hasPrefix(prefix string) bool {
	return p.f.StartsWith(prefix)
}

func (p *parser) hasPrefixIn(prefixes ...string) string {
	return p.f.ScanPrefixIn(prefixes...)
}

func (p *parser) consumePrefix(prefix string) bool {
	return p.consumePrefixIn(prefix) == prefix
}

func (p *parser) consumePrefixIn(prefixes ...string) string {
	prefix := p.hasPrefixIn(prefixes...)
	p.consume(len(prefix))
	return prefix
}

func (p *parser) consumeRuneIn(set string) string {
	return p.consumePrefixIn(strings.Split(set, "")...)
}

func (p *parser) skipInvalid() {
	r, size := utf8.DecodeRuneInString(p.rest())
	p.errorf("skipped invalid rune %q", r)
	p.consume(size)
}

// Returns the first token of the unconsumed text, for error messages.
func (p *parser) nextToken() string {
	if p.eof() {
		return "EOF"
	}
	if op := p.hasPrefixIn("&&", "||", ";;", ">>", "<>", "$((", "$(", "((",
		";", "&", "|", "(", ")", "{", "}", "<", ">", "\n"); op != "" {
		return op
	}
	rest := p.rest()
	if i := strings.IndexAny(rest, whitespaceSet+";&|()<>"); i > 0 {
		return rest[:i]
	}
	return rest
}

// Common parsing logic.

func addTo[T any](ptr *[]T, v T) { *ptr = append(*ptr, v) }

type parseNode[O any] interface {
	Node
	parse(*parser, O)
}

func parse[O any, N parseNode[O]](p *parser, n N, opt O) N {
	n.setBegin(p.f.pos)
	p.stack = append(p.stack, n)

	n.parse(p, opt)

	n.setEnd(p.f.pos)
	n.setSource(p.source(n))
	p.stack[len(p.stack)-1] = nil
	p.stack = p.stack[:len(p.stack)-1]
	if len(p.stack) > 0 && !emptyWhitespaces(n) {
		parent := p.stack[len(p.stack)-1]
		parent.addChild(n)
		n.setParent(parent)
	}
	return n
}

func parseNoOpt[N parseNode[struct{}]](p *parser, n N) N {
	return parse(p, n, struct{}{})
}

func emptyWhitespaces(n Node) bool {
	switch w := n.(type) {
	case *Whitespaces:
		return w.begin == w.end
	case *InlineWhitespaces:
		return w.begin == w.end
	}
	return false
}

// Shorthands for parse calls.

func (p *parser) inlineWhitespace() {
	parseNoOpt(p, &InlineWhitespaces{})
}

func (p *parser) whitespace() {
	parseNoOpt(p, &Whitespaces{})
}

// Consumes whitespaces, asking for more input as long as the input runs out.
// Used after tokens that can't end a command, like "|" and "&&".
func (p *parser) whitespaceOrMore() {
	for {
		p.whitespace()
		if !p.eof() || !p.more() {
			return
		}
	}
}

func (p *parser) meta(meta string) {
	parse(p, &Meta{}, meta)
}
