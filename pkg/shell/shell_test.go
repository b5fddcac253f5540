package shell

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"src.elv.sh/pkg/must"

	"github.com/elves/jobsh/pkg/eval"
	"github.com/elves/jobsh/pkg/parse"
)

func init() {
	color.NoColor = true
}

type result struct {
	status int
	stdout string
	stderr string
}

// Calls f on a Shell whose Evaler writes its stdout to a pipe and discards its
// stderr, and collects the output.
func withShell(f func(sh *Shell) int) result {
	devNull := must.OK1(os.OpenFile(os.DevNull, os.O_RDWR, 0))
	defer devNull.Close()
	r, w := must.Pipe()
	ch := make(chan string)
	go func() {
		ch <- string(must.OK1(io.ReadAll(r)))
		r.Close()
	}()
	var stderr strings.Builder
	ev := eval.NewEvaler([]string{"jobsh"}, []*os.File{devNull, w, devNull})
	status := f(New(ev, &stderr))
	w.Close()
	return result{status, <-ch, stderr.String()}
}

var runStringTests = []struct {
	name       string
	code       string
	wantStatus int
	wantStdout string
}{
	{"simple", "echo a | cat", 0, "a\n"},
	{"exit", "echo a; exit 3; echo b", 3, "a\n"},
	{"last status", "true; false", 1, ""},
	{"multiple lines", "echo 'a\nb'\necho c", 0, "a\nb\nc\n"},
	{"alias on later line", "alias e=echo\ne hi", 0, "hi\n"},
	{"expansion error stops", "echo $((1 / 0)); echo no\necho no", 1, ""},
	{"syntax error stops", "echo a\necho (\necho no", 2, "a\n"},
	{"unfinished input", "echo $((1 +", 2, ""},
}

func TestRunString(t *testing.T) {
	for _, test := range runStringTests {
		t.Run(test.name, func(t *testing.T) {
			r := withShell(func(sh *Shell) int { return sh.RunString("test", test.code) })
			if r.status != test.wantStatus {
				t.Errorf("got status %v, want %v", r.status, test.wantStatus)
			}
			if r.stdout != test.wantStdout {
				t.Errorf("got stdout %q, want %q", r.stdout, test.wantStdout)
			}
		})
	}
}

func TestSyntaxErrorReport(t *testing.T) {
	var stderr string
	withShell(func(sh *Shell) int {
		status := sh.RunString("script.sh", "echo )")
		stderr = sh.stderr.(*strings.Builder).String()
		return status
	})
	for _, want := range []string{"script.sh: syntax error", "  1:"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr %q doesn't contain %q", stderr, want)
		}
	}
}

func TestPrintAST(t *testing.T) {
	var stderr string
	withShell(func(sh *Shell) int {
		sh.PrintAST = true
		status := sh.RunString("test", "echo a")
		stderr = sh.stderr.(*strings.Builder).String()
		return status
	})
	if !strings.HasPrefix(stderr, "Script") {
		t.Errorf("got stderr %q, want AST", stderr)
	}
}

func TestRun_Interactive(t *testing.T) {
	code := "echo (\necho ok\necho $((1 / 0)); echo no\necho ok2\nexit 4\necho no\n"
	prompts := 0
	r := withShell(func(sh *Shell) int {
		f := parse.NewFeeder(parse.NewReaderSource(strings.NewReader(code)))
		return sh.run("test", f, func() { prompts++ })
	})
	if r.status != 4 {
		t.Errorf("got status %v, want 4", r.status)
	}
	if r.stdout != "ok\nok2\n" {
		t.Errorf("got stdout %q, want %q", r.stdout, "ok\nok2\n")
	}
	if prompts != 5 {
		t.Errorf("got %v prompts, want 5", prompts)
	}
}

func TestPrompt(t *testing.T) {
	withShell(func(sh *Shell) int {
		sh.ev.SetVar("PS1", "% ")
		if p := sh.prompt(false); p != "% " {
			t.Errorf("got prompt %q", p)
		}
		sh.ev.SetVar("PS2", ">> ")
		if p := sh.prompt(true); p != ">> " {
			t.Errorf("got continuation prompt %q", p)
		}
		return 0
	})
}
