package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.elv.sh/pkg/must"
	"src.elv.sh/pkg/testutil"
)

var splitTests = []struct {
	s    string
	ifs  string
	want []string
}{
	{"  a  b ", " \t\n", []string{"a", "b"}},
	{"a:b::c", ":", []string{"a", "b", "", "c"}},
	{"a : b", " :", []string{"a", "b"}},
	{"a:", ":", []string{"a"}},
	{"", " ", nil},
	{"x y", "", []string{"x y"}},
	{"", "", nil},
}

func TestSplit(t *testing.T) {
	for _, test := range splitTests {
		got := split(test.s, test.ifs)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("split(%q, %q) (-want+got):\n%v", test.s, test.ifs, diff)
		}
	}
}

var readFieldsTests = []struct {
	line string
	ifs  string
	n    int
	want []string
}{
	{"a b  c", " \t\n", 2, []string{"a", "b  c"}},
	{"  a b  ", " \t\n", 1, []string{"a b"}},
	{"a b", " \t\n", 3, []string{"a", "b"}},
	{"a:b", ":", 2, []string{"a", "b"}},
	{" a , b ", " ,", 3, []string{"a", "b"}},
	{"a b", "", 2, []string{"a b"}},
}

func TestReadFields(t *testing.T) {
	for _, test := range readFieldsTests {
		got := readFields(test.line, test.ifs, test.n)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("readFields(%q, %q, %v) (-want+got):\n%v",
				test.line, test.ifs, test.n, diff)
		}
	}
}

func TestJobTable(t *testing.T) {
	var table jobTable
	running := &lightProcess{done: make(chan struct{})}
	j1 := table.add("a &", []process{doneProcess(3)})
	j2 := table.add("b &", []process{running})
	if j1.ID != 1 || j2.ID != 2 {
		t.Errorf("got IDs %v and %v, want 1 and 2", j1.ID, j2.ID)
	}

	must.OK(table.refresh())
	if j1.State != Done || j1.Status() != 3 {
		t.Errorf("got j1 %v with status %v, want Done with status 3", j1.State, j1.Status())
	}
	if j2.State != Running {
		t.Errorf("got j2 %v, want Running", j2.State)
	}
	if cur := table.current(); cur != j2 {
		t.Errorf("got current job %v, want j2", cur)
	}
	if table.findPid(0) != j1 || table.find(2) != j2 || table.find(5) != nil {
		t.Errorf("find and findPid return wrong jobs")
	}

	if done := table.reapDone(); len(done) != 1 || done[0] != j1 {
		t.Errorf("reapDone returned %v, want j1", done)
	}
	j3 := table.add("c &", []process{doneProcess(0)})
	if j3.ID != 3 {
		t.Errorf("got ID %v, want 3", j3.ID)
	}

	running.status = 5
	close(running.done)
	must.OK(table.refresh())
	if line := j2.Line(); line != "[2] Done b &" {
		t.Errorf("got line %q", line)
	}
	if j2.Status() != 5 {
		t.Errorf("got status %v, want 5", j2.Status())
	}
	// All jobs are done, so the current job is the most recent one.
	if cur := table.current(); cur != j3 {
		t.Errorf("got current job %v, want j3", cur)
	}
}

func TestJobProcRecord(t *testing.T) {
	var p jobProc
	p.record(waitResult{kind: waitStopped})
	if !p.stopped || p.done {
		t.Errorf("after stop: got %+v", p)
	}
	p.record(waitResult{kind: waitContinued})
	if p.stopped {
		t.Errorf("after continue: still stopped")
	}
	p.record(waitResult{kind: waitExited, code: 4})
	if !p.done || p.status != 4 {
		t.Errorf("after exit: got %+v", p)
	}
}

func TestLookPath(t *testing.T) {
	dir := testutil.InTempDir(t)
	must.OK(os.WriteFile("exe", nil, 0755))
	must.OK(os.WriteFile("noexec", nil, 0644))
	must.OK(os.Mkdir("d", 0755))
	exe := filepath.Join(dir, "exe")

	tests := []struct {
		file, paths string
		wantPath    string
		wantStatus  int
	}{
		{"exe", dir, exe, 0},
		{"exe", ":/nonexistent", exe, 0},
		{"./exe", "", exe, 0},
		{"noexec", "/nonexistent:" + dir, "", StatusCommandNotExecutable},
		{"d", dir, "", StatusCommandNotExecutable},
		{"missing", dir, "", StatusCommandNotFound},
	}
	for _, test := range tests {
		path, status := lookPath(test.file, dir, test.paths)
		if path != test.wantPath || status != test.wantStatus {
			t.Errorf("lookPath(%q, %q) -> (%q, %v), want (%q, %v)",
				test.file, test.paths, path, status, test.wantPath, test.wantStatus)
		}
	}
}

func TestOptionLetters(t *testing.T) {
	tests := []struct {
		opts options
		want string
	}{
		{0, ""},
		{errexit | nounset, "eu"},
		{monitor | noclobber, "Cm"},
		{options(0).with(xtrace, true).with(xtrace, false), ""},
	}
	for _, test := range tests {
		if got := test.opts.letters(); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}
