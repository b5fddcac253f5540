package parse

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var roundTripScripts = []string{
	"echo hello world\n",
	"a=1 b=$x echo ${y:-default} \"q $z `pwd`\" 'lit'",
	"cat <in >out 2>&1 | grep -v foo >> log &",
	"true && false || echo $? ; echo done",
	"( cd /tmp; ls ) > list\n{ echo a; echo b; } | wc -l",
	"echo $(( 1 + (2 * $n) )) $(echo nested $(echo deep))",
	"echo ~ ~/bin ~root/x a\\ b # comment\n",
	"echo one \\\n  two",
}

func TestRoundTrip(t *testing.T) {
	for _, text := range roundTripScripts {
		n, err := ParseString(text)
		if err != nil {
			t.Errorf("parse %q: %v", text, err)
			continue
		}
		if n.Source() != text {
			t.Errorf("parse %q: source is %q", text, n.Source())
		}
		checkCoverage(t, text, n)
	}
}

// Children of structural nodes must cover their sources exactly.
func checkCoverage(t *testing.T, text string, n Node) {
	t.Helper()
	switch n.(type) {
	case *Script, *Job, *Pipeline, *Command, *Compound:
		var b strings.Builder
		for _, child := range n.Children() {
			b.WriteString(child.Source())
		}
		if b.String() != n.Source() {
			t.Errorf("parse %q: children of %T cover %q, source is %q",
				text, n, b.String(), n.Source())
		}
	}
	for _, child := range n.Children() {
		if child.Parent() != n {
			t.Errorf("parse %q: wrong parent of %T", text, child)
		}
		checkCoverage(t, text, child)
	}
}

func TestParse_Structure(t *testing.T) {
	n, err := ParseString("a=1 echo hi >out | cat && b &")
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(n.Jobs))
	}
	job := n.Jobs[0]
	if diff := cmp.Diff([]string{"&&"}, job.Ops); diff != "" {
		t.Errorf("ops (-want+got):\n%s", diff)
	}
	if !n.Terminators[0].Background() {
		t.Errorf("job is not background")
	}
	first := job.Pipelines[0].Commands[0]
	simple, ok := first.Data.(Simple)
	if !ok {
		t.Fatalf("got %T, want Simple", first.Data)
	}
	if len(simple.Assigns) != 1 || simple.Assigns[0].LHS != "a" {
		t.Errorf("got assigns %v", simple.Assigns)
	}
	if diff := cmp.Diff([]string{"echo", "hi"}, wordSources(simple)); diff != "" {
		t.Errorf("words (-want+got):\n%s", diff)
	}
	if len(first.Redirs) != 1 || first.Redirs[0].Mode != RedirOutput ||
		first.Redirs[0].Left != -1 || first.Redirs[0].Right.Source() != "out" {
		t.Errorf("got redirs %v", first.Redirs)
	}
	if n := len(job.Pipelines[0].Commands); n != 2 {
		t.Errorf("got %d commands in first pipeline, want 2", n)
	}
}

func TestParse_CommandAlternatives(t *testing.T) {
	n, err := ParseString("(a) >x; { b; } 2>&1; {c}")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.Jobs[0].Pipelines[0].Commands[0].Data.(Subshell); !ok {
		t.Errorf("want Subshell")
	}
	group := n.Jobs[1].Pipelines[0].Commands[0]
	if _, ok := group.Data.(BraceGroup); !ok {
		t.Errorf("want BraceGroup")
	}
	if len(group.Redirs) != 1 || !group.Redirs[0].RightFd || group.Redirs[0].Left != 2 {
		t.Errorf("got redirs %v", group.Redirs)
	}
	// "{c}" is a word, not a group.
	if _, ok := n.Jobs[2].Pipelines[0].Commands[0].Data.(Simple); !ok {
		t.Errorf("want Simple")
	}
}

func TestParse_NeedMoreLine(t *testing.T) {
	for _, tc := range []struct{ first, rest string }{
		{"{ echo hi\n", "}\n"},
		{"( echo hi\n", ")\n"},
		{"echo a |\n", "cat\n"},
		{"true &&\n", "echo b\n"},
		{"echo 'abc\n", "def'\n"},
		{"echo \"abc\n", "def\"\n"},
		{"echo $(echo\n", "x)\n"},
		{"echo \\\n", "x\n"},
		{"echo ${x:-a\n", "b}\n"},
		{"echo \"${x:=a\n", "}\"\n"},
	} {
		f := NewStringFeeder(tc.first)
		_, status, err := Parse(f, Opt{})
		if status != NeedMoreLine || err != nil {
			t.Errorf("parse %q: got %v, %v; want NeedMoreLine", tc.first, status, err)
			continue
		}
		if f.Pos() != 0 {
			t.Errorf("parse %q: feeder not rewound, pos %d", tc.first, f.Pos())
		}
		f.Feed(tc.rest)
		n, status, err := Parse(f, Opt{})
		if status != NormalEnd || err != nil {
			t.Errorf("parse %q then %q: got %v, %v", tc.first, tc.rest, status, err)
			continue
		}
		if n.Source() != tc.first+tc.rest {
			t.Errorf("got source %q", n.Source())
		}
	}
}

func TestParse_BadSubstitutionWaitsForBrace(t *testing.T) {
	f := NewStringFeeder("echo ${x\n")
	if _, status, err := Parse(f, Opt{}); status != NeedMoreLine || err != nil {
		t.Fatalf("got %v, %v; want NeedMoreLine", status, err)
	}
	f.Feed("}\n")
	_, status, err := Parse(f, Opt{})
	if status != UnexpectedSymbol || err == nil || !strings.Contains(err.Error(), "bad substitution") {
		t.Errorf("got %v, %v; want bad substitution", status, err)
	}
}

func TestParse_BracedVariableWord(t *testing.T) {
	n, err := ParseString("echo ${x:-a b;c} d")
	if err != nil {
		t.Fatal(err)
	}
	words := n.Jobs[0].Pipelines[0].Commands[0].Data.(Simple).Words
	if diff := cmp.Diff([]string{"echo", "${x:-a b;c}", "d"}, wordSources(
		n.Jobs[0].Pipelines[0].Commands[0].Data.(Simple))); diff != "" {
		t.Errorf("words (-want+got):\n%s", diff)
	}
	if v := words[1].Parts[0].Variable.Modifier.Argument.Parts[0].Value; v != "a b;c" {
		t.Errorf("got modifier word %q", v)
	}
}

func TestParse_LineSource(t *testing.T) {
	src := NewReaderSource(strings.NewReader("{ echo a\necho b; } |\ncat\necho next\n"))
	f := NewFeeder(src)
	f.FeedAdditionalLine()
	n, status, err := Parse(f, Opt{})
	if status != NormalEnd || err != nil {
		t.Fatalf("got %v, %v", status, err)
	}
	if want := "{ echo a\necho b; } |\ncat\n"; n.Source() != want {
		t.Errorf("got source %q, want %q", n.Source(), want)
	}
	// The following line has not been read yet.
	if f.Len() != 0 {
		t.Errorf("unconsumed text %q", f.Rest())
	}
}

func TestParse_Errors(t *testing.T) {
	for _, text := range []string{
		"echo )",
		"echo a | | b",
		"{ }",
		"( )",
		"&& echo",
		"echo a ;; echo b",
		"echo >",
		"{ echo a; ) }",
	} {
		f := NewStringFeeder(text)
		_, status, err := Parse(f, Opt{})
		if status != UnexpectedSymbol || err == nil {
			t.Errorf("parse %q: got %v, %v; want UnexpectedSymbol", text, status, err)
		}
		if f.Len() != 0 {
			t.Errorf("parse %q: rest not discarded", text)
		}
	}
}

func TestParse_PermitEmpty(t *testing.T) {
	n, status, _ := Parse(NewStringFeeder("  # just a comment\n"), Opt{PermitEmpty: true})
	if status != NormalEnd || len(n.Jobs) != 1 || len(n.Jobs[0].Pipelines) != 0 {
		t.Errorf("got %v, %v", status, n)
	}
	n, status, _ = Parse(NewStringFeeder("\n"), Opt{})
	if status != NormalEnd || len(n.Jobs) != 0 {
		t.Errorf("got %v, %v", status, n)
	}
}

type aliasMap map[string]string

func (m aliasMap) Alias(name string) (string, bool) {
	def, ok := m[name]
	return def, ok
}

func TestParse_Aliases(t *testing.T) {
	f := NewStringFeeder("ll foo | g bar\n")
	f.SetAliases(aliasMap{"ll": "ls -l", "g": "grep -i", "ls": "ls --color"})
	n, status, err := Parse(f, Opt{})
	if status != NormalEnd || err != nil {
		t.Fatalf("got %v, %v", status, err)
	}
	if n.Text != "ll foo | g bar\n" {
		t.Errorf("got text %q", n.Text)
	}
	cmds := n.Jobs[0].Pipelines[0].Commands
	if diff := cmp.Diff([]string{"ls", "--color", "-l", "foo"},
		wordSources(cmds[0].Data.(Simple))); diff != "" {
		t.Errorf("words (-want+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"grep", "-i", "bar"},
		wordSources(cmds[1].Data.(Simple))); diff != "" {
		t.Errorf("words (-want+got):\n%s", diff)
	}
}

func TestParse_AliasesAcrossRetry(t *testing.T) {
	f := NewStringFeeder("ll |\n")
	f.SetAliases(aliasMap{"ll": "ll -a"})
	if _, status, _ := Parse(f, Opt{}); status != NeedMoreLine {
		t.Fatalf("got %v, want NeedMoreLine", status)
	}
	f.Feed("cat\n")
	n, status, err := Parse(f, Opt{})
	if status != NormalEnd || err != nil {
		t.Fatalf("got %v, %v", status, err)
	}
	if n.Text != "ll |\ncat\n" {
		t.Errorf("got text %q", n.Text)
	}
	if diff := cmp.Diff([]string{"ll", "-a"},
		wordSources(n.Jobs[0].Pipelines[0].Commands[0].Data.(Simple))); diff != "" {
		t.Errorf("words (-want+got):\n%s", diff)
	}
}

func TestParse_Primaries(t *testing.T) {
	n, err := ParseString(`echo a\ b 'c d' "e $f ${g:=h}" ${#i} $(( $j + 1 )) ~k/l`)
	if err != nil {
		t.Fatal(err)
	}
	words := n.Jobs[0].Pipelines[0].Commands[0].Data.(Simple).Words
	var types []PrimaryType
	for _, w := range words[1:] {
		types = append(types, w.Parts[0].Type)
	}
	wantTypes := []PrimaryType{
		BarewordPrimary, SingleQuotedPrimary, DoubleQuotedPrimary,
		VariablePrimary, ArithmeticPrimary, TildePrimary}
	if diff := cmp.Diff(wantTypes, types); diff != "" {
		t.Errorf("types (-want+got):\n%s", diff)
	}
	if v := words[1].Parts[0].Value; v != "a b" {
		t.Errorf("got bareword %q", v)
	}
	dq := words[3].Parts[0]
	if len(dq.Segments) != 4 || dq.Segments[3].Expansion.Variable.Modifier.Operator != ":=" {
		t.Errorf("got segments %v", dq.Segments)
	}
	if !words[4].Parts[0].Variable.LengthOp {
		t.Errorf("want length op")
	}
	if v := words[6].Parts[0].Value; v != "k" {
		t.Errorf("got tilde user %q", v)
	}
}

func TestPprintAST(t *testing.T) {
	n, err := ParseString("(x)")
	if err != nil {
		t.Fatal(err)
	}
	out := PprintAST(n)
	for _, want := range []string{"Script", "Subshell", ".Body = Script", `.Value = "x"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func wordSources(s Simple) []string {
	words := make([]string, len(s.Words))
	for i, w := range s.Words {
		words[i] = w.Source()
	}
	return words
}
