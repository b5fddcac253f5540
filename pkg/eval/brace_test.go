package eval

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.elv.sh/pkg/must"

	"github.com/elves/jobsh/pkg/parse"
)

var braceExpandTests = []struct {
	word string
	want []string
}{
	{"plain", []string{"plain"}},
	{"{a,b}c", []string{"ac", "bc"}},
	{"x{1,2}{3,4}", []string{"x13", "x14", "x23", "x24"}},
	{"{a,{b,c}}d", []string{"ad", "bd", "cd"}},
	{"{,x}y", []string{"y", "xy"}},
	// Incomplete or comma-less braces are literal.
	{"{a}", []string{"{a}"}},
	{"{a,b", []string{"{a,b"}},
	{"{a,{b,c}d", []string{"{a,bd", "{a,cd"}},
	{"{}", []string{"{}"}},
	// Quoted and escaped braces don't expand.
	{`\{a,b}`, []string{"{a,b}"}},
	{`{a\,b}`, []string{"{a,b}"}},
	{"'{a,b}'", []string{"'{a,b}'"}},
	// Other primaries are carried into each alternative.
	{"{a,$v}.$w", []string{"a.$w", "$v.$w"}},
}

func TestBraceExpand(t *testing.T) {
	for _, test := range braceExpandTests {
		n := must.OK1(parse.ParseString("echo " + test.word))
		word := n.Jobs[0].Pipelines[0].Commands[0].Data.(parse.Simple).Words[1]
		var got []string
		for _, cp := range braceExpand(word) {
			got = append(got, compoundText(cp))
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("braceExpand(%q) (-want+got):\n%v", test.word, diff)
		}
	}
}

// Barewords are shown with their values, and other primaries with their
// source.
func compoundText(cp *parse.Compound) string {
	var sb strings.Builder
	for _, pr := range cp.Parts {
		if pr.Type == parse.BarewordPrimary {
			sb.WriteString(pr.Value)
		} else {
			sb.WriteString(pr.Source())
		}
	}
	return sb.String()
}
