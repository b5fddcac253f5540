package spec_test

import (
	"embed"
	"io"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.elv.sh/pkg/must"
	"src.elv.sh/pkg/testutil"

	"github.com/elves/jobsh/pkg/eval"
)

type spec struct {
	suite string
	name  string
	code  string

	// Arguments of the shell, starting with $0.
	argv []string
	// Acceptable values of the exit status and outputs. An empty slice of
	// outputs means the output is not checked.
	statuses []int
	stdouts  []string
	stderrs  []string
}

//go:embed testdata/*.test.sh
var specFiles embed.FS

var specs = parseSpecFilesInFS(specFiles)

func TestSpecs(t *testing.T) {
	for _, spec := range specs {
		t.Run(spec.suite+"/"+spec.name, func(t *testing.T) {
			testutil.InTempDir(t)
			argv := spec.argv
			if argv == nil {
				argv = []string{"jobsh"}
			}
			files, read := makeFiles()
			ev := eval.NewEvaler(argv, files)
			status := ev.Eval(spec.code)
			stdout, stderr := read()
			if !contains(spec.statuses, status) {
				t.Errorf("got status %v, want any of %v", status, spec.statuses)
			}
			checkOutput(t, "stdout", spec.stdouts, stdout)
			checkOutput(t, "stderr", spec.stderrs, stderr)
			if t.Failed() {
				t.Logf("code is:\n%v\nstderr is:\n%v", spec.code, stderr)
			}
		})
	}
}

func checkOutput(t *testing.T, what string, wants []string, got string) {
	t.Helper()
	if len(wants) == 0 || contains(wants, got) {
		return
	}
	t.Errorf("%v (-want+got):\n%v", what, cmp.Diff(wants[0], got))
}

func contains[T comparable](s []T, v T) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

var devNull = must.OK1(os.Open(os.DevNull))

func makeFiles() ([]*os.File, func() (string, string)) {
	file1, read1 := outputPipe()
	file2, read2 := outputPipe()
	return []*os.File{devNull, file1, file2}, func() (string, string) {
		return read1(), read2()
	}
}

func outputPipe() (*os.File, func() string) {
	r, w := must.Pipe()
	ch := make(chan string)
	go func() {
		ch <- string(must.OK1(io.ReadAll(r)))
		r.Close()
	}()
	return w, func() string {
		w.Close()
		return <-ch
	}
}
