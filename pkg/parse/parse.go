// Package parse implements incremental parsing of shell scripts.
//
// Parsing works on a [Feeder], which may be asked for more input whenever a
// construct is left unfinished at the end of the available text.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Opt keeps options for [Parse].
type Opt struct {
	// Let a script made up of only blanks parse as a script with one empty
	// job, which evaluates to a no-op.
	PermitEmpty bool
}

// Parse parses a script from the feeder, starting at its current position.
//
// When the status is [NormalEnd], the script is returned. When the status is
// [UnexpectedSymbol], the error describes the syntax error and the rest of
// the text in the feeder is discarded. When the status is [NeedMoreLine], the
// input ended inside an unfinished construct and the feeder could not supply
// more; the feeder is rewound, so the caller may [Feeder.Feed] more text and
// call Parse again.
func Parse(f *Feeder, opt Opt) (*Script, Status, error) {
	start := f.pos
	p := &parser{f: f}
	n := parseNoOpt(p, &Script{})
	if p.needMore {
		f.rewind(start)
		return nil, NeedMoreLine, nil
	}
	if len(p.err.Errors) > 0 {
		f.Discard()
		return nil, UnexpectedSymbol, p.err
	}
	if len(n.Jobs) == 0 && opt.PermitEmpty {
		empty := &Job{}
		empty.begin, empty.end = n.end, n.end
		term := &Terminator{}
		term.begin, term.end = n.end, n.end
		n.Jobs = []*Job{empty}
		n.Terminators = []*Terminator{term}
	}
	n.Text = f.replayAliases(n.begin, n.end)
	return n, NormalEnd, nil
}

// ParseString parses a complete script from text.
func ParseString(text string) (*Script, error) {
	f := NewStringFeeder(text)
	n, status, err := Parse(f, Opt{PermitEmpty: true})
	if status == NeedMoreLine {
		return nil, Error{[]ErrorEntry{{len(text), "unexpected end of input"}}}
	}
	return n, err
}

// Script is a sequence of jobs, each followed by a terminator.
type Script struct {
	node
	Jobs        []*Job
	Terminators []*Terminator
	// Text of the script with alias substitutions reverted, suitable for
	// history and display. Only set on scripts returned by [Parse].
	Text string
}

// Script = w { Job Terminator w }
func (sc *Script) parse(p *parser, _ struct{}) {
	p.whitespace()
	for {
		for p.mayParseCommand() {
			addTo(&sc.Jobs, parseNoOpt(p, &Job{}))
			t := parseNoOpt(p, &Terminator{})
			addTo(&sc.Terminators, t)
			p.whitespace()
			if t.Op == "" {
				break
			}
		}
		// Classify what is left.
		if closers := p.f.ActiveClosers(); len(closers) > 0 && p.hasPrefixIn(closers...) != "" {
			// Normal end of a nested script; the caller consumes the closer.
			return
		}
		if !p.eof() {
			p.errorf("unexpected symbol %q", p.nextToken())
			return
		}
		if !p.f.Nested() {
			// Normal end of a top-level script.
			return
		}
		if !p.more() {
			return
		}
	}
}

// Terminator is what follows a job: one of ";", "&", "\n", or nothing.
type Terminator struct {
	node
	Op string
}

func (t *Terminator) parse(p *parser, _ struct{}) {
	switch {
	case p.hasPrefix("&") && !p.hasPrefix("&&"):
		t.Op = "&"
	case p.hasPrefix(";") && !p.hasPrefix(";;"):
		t.Op = ";"
	case p.hasPrefix("\n"):
		t.Op = "\n"
	}
	p.consume(len(t.Op))
}

// Background reports whether the job terminated by t runs in the background.
func (t *Terminator) Background() bool { return t.Op == "&" }

// Job is a list of pipelines joined by "&&" and "||".
type Job struct {
	node
	Pipelines []*Pipeline
	// Operators between pipelines; each element is "&&" or "||".
	Ops []string
}

// Job = Pipeline { ("&&" | "||") w Pipeline }
func (j *Job) parse(p *parser, _ struct{}) {
	addTo(&j.Pipelines, parseNoOpt(p, &Pipeline{}))
	for {
		op := p.hasPrefixIn("&&", "||")
		if op == "" {
			return
		}
		p.meta(op)
		j.Ops = append(j.Ops, op)
		p.whitespaceOrMore()
		if !p.mayParseCommand() {
			if !p.needMore {
				p.errorf("unexpected symbol %q after %s", p.nextToken(), op)
			}
			return
		}
		addTo(&j.Pipelines, parseNoOpt(p, &Pipeline{}))
	}
}

// Pipeline is a sequence of commands connected with pipes.
type Pipeline struct {
	node
	Commands []*Command
}

// Pipeline = Command iw { ("|" \ "||") w Command iw }
func (pp *Pipeline) parse(p *parser, _ struct{}) {
	addTo(&pp.Commands, parseNoOpt(p, &Command{}))
	p.inlineWhitespace()
	for p.hasPrefix("|") && !p.hasPrefix("||") {
		p.meta("|")
		p.whitespaceOrMore()
		if !p.mayParseCommand() {
			if !p.needMore {
				p.errorf("unexpected symbol %q after |", p.nextToken())
			}
			return
		}
		addTo(&pp.Commands, parseNoOpt(p, &Command{}))
		p.inlineWhitespace()
	}
}

// Command is one stage of a pipeline.
type Command struct {
	node
	Data   CommandData
	Redirs []*Redir
}

// CommandData is the variant part of a [Command]. It is one of [Simple],
// [Subshell] and [BraceGroup].
type CommandData interface{ isCommandData() }

// Simple is a command made up of assignments, words and redirections.
type Simple struct {
	Assigns []*Assign
	Words   []*Compound
}

// Subshell is a script in parentheses, evaluated in a copy of the shell.
type Subshell struct {
	Body *Script
}

// BraceGroup is a script in braces, evaluated in the current shell unless it
// is a stage of a multi-stage pipeline.
type BraceGroup struct {
	Body *Script
}

func (Simple) isCommandData()     {}
func (Subshell) isCommandData()   {}
func (BraceGroup) isCommandData() {}

const digitSet = "0123456789"

var assignPattern = regexp.MustCompile("^[a-zA-Z_][a-zA-Z_0-9]*=")

// Command = Simple | "(" Script ")" { iw Redir } | "{" Script "}" { iw Redir }
//
// The alternatives are tried in that order.
func (c *Command) parse(p *parser, _ struct{}) {
	if p.expandAlias() {
		p.inlineWhitespace()
	}
	switch {
	case p.maySimple():
		c.parseSimple(p)
	case p.hasPrefix("("):
		c.Data = Subshell{c.parseGroup(p, "(", ")")}
	case p.hasPrefix("{"):
		c.Data = BraceGroup{c.parseGroup(p, "{", "}")}
	default:
		// Only reachable when an alias expands to nothing.
		c.Data = Simple{}
	}
}

// Simple = { Assign iw } { ( Redir | Compound ) iw }
func (c *Command) parseSimple(p *parser) {
	var s Simple
	for assignPattern.MatchString(p.rest()) {
		addTo(&s.Assigns, parseNoOpt(p, &Assign{}))
		p.inlineWhitespace()
	}
items:
	for {
		switch {
		case p.redirAhead():
			addTo(&c.Redirs, parseNoOpt(p, &Redir{}))
		case p.mayParseExpr():
			addTo(&s.Words, parseNoOpt(p, &Compound{}))
		default:
			break items
		}
		p.inlineWhitespace()
	}
	c.Data = s
}

func (c *Command) parseGroup(p *parser, open, close string) *Script {
	p.meta(open)
	p.f.PushNest(open, close)
	body := parseNoOpt(p, &Script{})
	p.f.PopNest()
	if p.needMore {
		return body
	}
	if len(body.Jobs) == 0 {
		p.errorf("unexpected symbol %q", p.nextToken())
		return body
	}
	p.meta(close)
	for {
		p.inlineWhitespace()
		if !p.redirAhead() {
			break
		}
		addTo(&c.Redirs, parseNoOpt(p, &Redir{}))
	}
	return body
}

var aliasNameStopper = whitespaceSet + ";&|<>()'\"`$\\="

// Performs alias substitution on the word in command position, if any.
// Reports whether a substitution happened.
func (p *parser) expandAlias() bool {
	if p.f.aliases == nil {
		return false
	}
	substituted := false
	active := make(map[string]bool)
	for {
		for _, name := range p.f.substitutedAt(p.f.pos) {
			active[name] = true
		}
		n := p.f.ScanWhile(func(r rune) bool { return !runeIn(r, aliasNameStopper) })
		if n == 0 {
			return substituted
		}
		name := p.rest()[:n]
		def, ok := p.f.aliases.Alias(name)
		if !ok || active[name] {
			return substituted
		}
		active[name] = true
		p.f.substituteAlias(p.f.pos+n, name, def)
		substituted = true
	}
}

type Assign struct {
	node
	LHS string
	RHS *Compound
}

// Assign := `[a-zA-Z_][a-zA-Z0-9_]*` "=" Compound
func (as *Assign) parse(p *parser, _ struct{}) {
	s := assignPattern.FindString(p.rest())
	p.consume(len(s))
	if s == "" {
		p.errorf("missing LHS in assignment, assuming $_")
		as.LHS = "_"
	} else {
		as.LHS = s[:len(s)-1]
	}
	as.RHS = parseNoOpt(p, &Compound{})
}

type Redir struct {
	node
	Left    int // -1 for absense
	Mode    RedirMode
	RightFd bool
	Right   *Compound
}

type RedirMode int

const (
	RedirInvalid RedirMode = iota
	RedirInput
	RedirOutput
	RedirInputOutput
	RedirAppend
)

var redirModeNames = [...]string{"RedirInvalid", "RedirInput", "RedirOutput", "RedirInputOutput", "RedirAppend"}

func (m RedirMode) String() string {
	if 0 <= m && int(m) < len(redirModeNames) {
		return redirModeNames[m]
	}
	return "RedirMode(" + strconv.Itoa(int(m)) + ")"
}

// Redir = `[0-9]*` (">>" | "<>" | ">" | "<") iw [ "&" iw ] Compound
func (rd *Redir) parse(p *parser, _ struct{}) {
	left := p.consumeWhileIn(digitSet)
	if left == "" {
		rd.Left = -1
	} else {
		fd, err := strconv.Atoi(left)
		if err != nil {
			// Only possible when left is too long
			p.errorf("redir fd %s is too large, ignoring", left)
			rd.Left = -1
		} else {
			rd.Left = fd
		}
	}
	switch p.consumePrefixIn(">>", "<>", ">", "<") {
	case ">>":
		rd.Mode = RedirAppend
	case "<>":
		rd.Mode = RedirInputOutput
	case ">":
		rd.Mode = RedirOutput
	case "<":
		rd.Mode = RedirInput
	default:
		p.errorf("missing redirection symbol, assuming <")
		rd.Mode = RedirInput
	}
	p.inlineWhitespace()
	if p.consumePrefix("&") {
		rd.RightFd = true
		p.inlineWhitespace()
	}
	if !p.mayParseExpr() {
		p.errorf("unexpected symbol %q after redirection", p.nextToken())
	}
	rd.Right = parseNoOpt(p, &Compound{})
}

// Compound is a word, made up of one or more primaries.
type Compound struct {
	node
	Parts []*Primary
}

func (cp *Compound) parse(p *parser, _ struct{}) {
	if tildePrefixLen(p.rest(), p.wordStopper()) > 0 {
		addTo(&cp.Parts, parse(p, &Primary{}, primaryOpt{tilde: true}))
	}
	for {
		for p.mayParseExpr() {
			addTo(&cp.Parts, parse(p, &Primary{}, primaryOpt{}))
		}
		// The word of ${x:-word} may span lines.
		if !p.inBracedVariable() || !p.eof() || !p.more() {
			return
		}
	}
}

// Returns the length of the tilde prefix at the start of s, or 0 if there is
// none.
func tildePrefixLen(s, stopper string) int {
	if !hasPrefix(s, "~") {
		return 0
	}
	for i, r := range s {
		if i == 0 {
			continue
		}
		if r == '/' || runeIn(r, stopper) {
			return i
		} else if !runeIn(r, nameSet+".-") {
			return 0
		}
	}
	return len(s)
}

type Primary struct {
	node
	Type PrimaryType
	// String value. Valid for BarewordPrimary, SingleQuotedPrimary and
	// TildePrimary. For the first two types, the value contains the
	// processed value, e.g. the bareword \a has value "a". For TildePrimary,
	// it is the user name, possibly empty.
	Value    string
	Variable *Variable
	// Valid for DoubleQuotedPrimary and ArithmeticPrimary.
	Segments []*Segment
	Body     *Script // Valid for OutputCapturePrimary.
}

type PrimaryType int

const (
	InvalidPrimary PrimaryType = iota
	BarewordPrimary
	SingleQuotedPrimary
	DoubleQuotedPrimary
	OutputCapturePrimary
	ArithmeticPrimary
	VariablePrimary
	TildePrimary
)

var primaryTypeNames = [...]string{
	"InvalidPrimary", "BarewordPrimary", "SingleQuotedPrimary",
	"DoubleQuotedPrimary", "OutputCapturePrimary", "ArithmeticPrimary",
	"VariablePrimary", "TildePrimary",
}

func (t PrimaryType) String() string {
	if 0 <= t && int(t) < len(primaryTypeNames) {
		return primaryTypeNames[t]
	}
	return "PrimaryType(" + strconv.Itoa(int(t)) + ")"
}

type primaryOpt struct{ tilde bool }

// Characters that end a word in all contexts.
const exprStopper = whitespaceSet + ";&|<>()"

// Returns the set of characters that end a word in the current context. The
// closer of a brace group or backquoted command substitution also ends a
// word.
func (p *parser) wordStopper() string {
	if p.inBracedVariable() {
		// Blanks and operators are literal in the word of ${x:-word}.
		return "}"
	}
	stopper := exprStopper
	if p.f.activeCloser("}") {
		stopper += "}"
	}
	if p.f.activeCloser("`") {
		stopper += "`"
	}
	return stopper
}

func (p *parser) barewordStopper() string {
	return p.wordStopper() + "'\"$`\\"
}

func (pr *Primary) parse(p *parser, opt primaryOpt) {
	if opt.tilde {
		pr.Type = TildePrimary
		n := tildePrefixLen(p.rest(), p.wordStopper())
		pr.Value = p.consume(n)[1:]
		return
	}
start:
	switch {
	case p.hasPrefix("\\") || p.nextInCompl(p.barewordStopper()):
		pr.Type = BarewordPrimary
		pr.Value = parseBareword(p)
	case p.consumePrefix("'"):
		pr.Type = SingleQuotedPrimary
		begin := p.f.pos
		for {
			p.consumeWhileNotIn("'")
			if p.hasPrefix("'") || !p.more() {
				break
			}
		}
		pr.Value = p.f.text[begin:p.f.pos]
		if !p.consumePrefix("'") {
			p.errorf("unterminated single-quoted string")
		}
	case p.consumePrefix(`"`):
		pr.Type = DoubleQuotedPrimary
		for !p.hasPrefix(`"`) {
			if p.eof() {
				if !p.more() {
					break
				}
				continue
			}
			addTo(&pr.Segments, parse(p, &Segment{}, (*int)(nil)))
		}
		if !p.consumePrefix(`"`) {
			p.errorf("unterminated double-quoted string")
		}
	case p.consumePrefix("`"):
		pr.Type = OutputCapturePrimary
		pr.Body = parseNested(p, "`", "`")
		if !p.consumePrefix("`") {
			p.errorf("missing closing backquote for output capture")
		}
	case p.consumePrefix("$(("):
		pr.Type = ArithmeticPrimary
		p.f.PushNest("$((", "))")
		depth := 0
		for depth > 0 || !p.hasPrefix("))") {
			if p.eof() {
				if !p.more() {
					break
				}
				continue
			}
			addTo(&pr.Segments, parse(p, &Segment{}, &depth))
		}
		p.f.PopNest()
		if !p.consumePrefix("))") {
			p.errorf("missing closing )) for arithmetic expansion")
		}
	case p.consumePrefix("$("):
		pr.Type = OutputCapturePrimary
		pr.Body = parseNested(p, "$(", ")")
		if !p.consumePrefix(")") {
			p.errorf("missing closing parenthesis for output capture")
		}
	case p.consumePrefix("$"):
		if p.nextIn(variableInitialSet) {
			pr.Type = VariablePrimary
			pr.Variable = parseNoOpt(p, &Variable{})
		} else {
			// If a variable can't be parsed, it's not an error but a bareword.
			pr.Type = BarewordPrimary
			pr.Value = "$"
		}
	case p.eof():
		p.errorf("EOF where an expression is expected")
	default:
		p.skipInvalid()
		goto start
	}
}

func parseNested(p *parser, open, close string) *Script {
	p.f.PushNest(open, close)
	defer p.f.PopNest()
	return parseNoOpt(p, &Script{})
}

// Parses a bareword, processing backslashes. A backslash followed by a
// newline is a line continuation and is removed.
func parseBareword(p *parser) string {
	stopper := p.barewordStopper()
	// Optimization: Consume a prefix that does not contain backslashes. This
	// avoid building a strings.Builder when the bareword is free of
	// backslashes.
	raw := p.consumeWhileNotIn(stopper)
	if !p.hasPrefix("\\") {
		return raw
	}
	var sb strings.Builder
	sb.WriteString(raw)
	for p.consumePrefix("\\") {
		if p.eof() && !p.more() {
			break
		}
		r, size := utf8.DecodeRuneInString(p.rest())
		p.consume(size)
		if r != '\n' {
			sb.WriteRune(r)
		}
		sb.WriteString(p.consumeWhileNotIn(stopper))
	}
	return sb.String()
}

// Segment is a part of a double-quoted string or an arithmetic expansion:
// either a run of text or an expansion.
type Segment struct {
	node
	Type      SegmentType
	Value     string
	Expansion *Primary
}

type SegmentType int

const (
	InvalidSegment SegmentType = iota
	StringSegment
	ExpansionSegment
)

var segmentTypeNames = [...]string{"InvalidSegment", "StringSegment", "ExpansionSegment"}

func (t SegmentType) String() string {
	if 0 <= t && int(t) < len(segmentTypeNames) {
		return segmentTypeNames[t]
	}
	return "SegmentType(" + strconv.Itoa(int(t)) + ")"
}

var (
	dqStringSegmentStopper    = "$`\""
	rawDQStringSegmentStopper = dqStringSegmentStopper + "\\"
)

// The option is nil for segments of double-quoted strings; for segments of
// arithmetic expansions it points to the current parenthesis depth.
func (seg *Segment) parse(p *parser, arithDepth *int) {
	if p.hasPrefixIn("$", "`") != "" {
		seg.Type = ExpansionSegment
		seg.Expansion = parse(p, &Primary{}, primaryOpt{})
		return
	}
	seg.Type = StringSegment
	if arithDepth != nil {
		seg.Value = parseArithText(p, arithDepth)
		return
	}
	// Optimization: Consume a prefix that does not contain backslashes.
	// This avoids building a strings.Builder when this segment is free of
	// backslashes.
	raw := p.consumeWhileNotIn(rawDQStringSegmentStopper)
	if !p.hasPrefix("\\") {
		seg.Value = raw
		return
	}
	var b strings.Builder
	b.WriteString(raw)
	lastBackslash := false
	p.consumeWhile(func(r rune) bool {
		if lastBackslash {
			if r == '\n' {
				// Line continuation.
			} else {
				if !runeIn(r, rawDQStringSegmentStopper) {
					b.WriteRune('\\')
				}
				b.WriteRune(r)
			}
			lastBackslash = false
			return true
		} else if r == '\\' {
			lastBackslash = true
			return true
		} else if runeIn(r, dqStringSegmentStopper) {
			return false
		} else {
			b.WriteRune(r)
			return true
		}
	})
	seg.Value = b.String()
}

// Consumes text of an arithmetic expansion up to the next expansion or the
// closing "))", keeping track of parentheses.
func parseArithText(p *parser, depth *int) string {
	rest := p.rest()
	i := 0
scan:
	for i < len(rest) {
		switch rest[i] {
		case '$', '`':
			break scan
		case '(':
			*depth++
		case ')':
			if *depth > 0 {
				*depth--
			} else if strings.HasPrefix(rest[i:], "))") {
				break scan
			}
		}
		i++
	}
	return p.consume(i)
}

type Variable struct {
	node
	Name     string
	LengthOp bool
	Modifier *Modifier
}

var (
	variableInitialSet = "{" + specialVariableSet + nameSet
	specialVariableSet = "@*#?-$!"
	letterSet          = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	nameSet            = "_" + digitSet + letterSet
)

func (va *Variable) parse(p *parser, _ struct{}) {
	if !p.consumePrefix("{") {
		// No braces, e.g. $x
		va.Name = parseVariableName(p, false)
		return
	}
	// Variable with braces, e.g. ${x:-fallback}
	p.f.PushNest("${", "}")
	defer p.f.PopNest()
	if !p.waitInput() {
		return
	}
	if p.consumePrefix("#") {
		// We have seen "${#". It can either be the variable $# or the string
		// length operator, depending on what comes next.
		if !p.waitInput() {
			return
		}
		if p.hasPrefix("}") || p.hasPrefixIn(modifierOps...) != "" {
			va.Name = "#"
		} else {
			va.LengthOp = true
			va.Name = parseVariableName(p, true)
		}
	} else {
		va.Name = parseVariableName(p, true)
	}
	if !p.waitInput() {
		return
	}
	if p.hasPrefixIn(modifierOps...) != "" {
		va.Modifier = parseNoOpt(p, &Modifier{})
	} else if !p.hasPrefix("}") {
		// Read up to the closing brace before reporting the error, like
		// other unfinished constructs.
		for !strings.Contains(p.rest(), "}") && p.more() {
		}
		p.errorf("bad substitution")
		return
	}
	if !p.consumePrefix("}") {
		p.errorf("missing } to match {")
	}
}

// See https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#tag_18_06_02.
func parseVariableName(p *parser, brace bool) string {
	if name := p.consumeRuneIn(specialVariableSet); name != "" {
		// Special variables are always just one character, even inside
		// braces.
		return name
	} else if brace {
		// Consume a run of characters in nameSet, including digits.
		if name := p.consumeWhileIn(nameSet); name != "" {
			return name
		}
		p.errorf("missing or invalid variable name, assuming '_'")
		return "_"
	} else if name0 := p.consumeRuneIn(digitSet); name0 != "" {
		// Without braces, a positional parameter is just one digit: $10 is
		// the same as $1"0".
		return name0
	} else if n := p.f.ScanName(); n > 0 {
		return p.consume(n)
	} else {
		p.errorf("missing or invalid variable name, assuming '_'")
		return "_"
	}
}

// Modifier is one of the substitution operators of a braced variable, like
// ":-" in ${x:-fallback}.
type Modifier struct {
	node
	Operator string
	Argument *Compound
}

var modifierOps = []string{
	":-", "-", ":=", "=", ":?", "?", ":+", "+",
}

// Only called when the input starts with one of modifierOps.
func (md *Modifier) parse(p *parser, _ struct{}) {
	md.Operator = p.consumePrefixIn(modifierOps...)
	md.Argument = parseNoOpt(p, &Compound{})
}

// Lookahead.

// Characters that can't start a command.
const commandStopper = ";)}&|"

func (p *parser) mayParseCommand() bool {
	if closers := p.f.ActiveClosers(); len(closers) > 0 && p.hasPrefixIn(closers...) != "" {
		return false
	}
	return p.nextInCompl(commandStopper)
}

func (p *parser) mayParseExpr() bool {
	return p.nextInCompl(p.wordStopper())
}

func (p *parser) maySimple() bool {
	if p.hasPrefix("(") || p.braceGroupAhead() {
		return false
	}
	return p.redirAhead() || p.mayParseExpr()
}

// "{" is only a reserved word when it is followed by a blank or the end of
// input.
func (p *parser) braceGroupAhead() bool {
	if !p.hasPrefix("{") {
		return false
	}
	rest := p.rest()
	return len(rest) == 1 || runeIn(rune(rest[1]), whitespaceSet)
}

func (p *parser) redirAhead() bool {
	restPastDigits := strings.TrimLeft(p.rest(), digitSet)
	return hasPrefix(restPastDigits, "<") || hasPrefix(restPastDigits, ">")
}

func (p *parser) nextIn(set string) bool {
	r, size := utf8.DecodeRuneInString(p.rest())
	return size > 0 && runeIn(r, set)
}

func (p *parser) nextInCompl(set string) bool {
	r, size := utf8.DecodeRuneInString(p.rest())
	return size > 0 && !runeIn(r, set)
}
