package eval

import (
	"os"
	"strings"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"
	"src.elv.sh/pkg/must"
	"src.elv.sh/pkg/testutil"
)

// Creates an Evaler in a temporary directory, writing stdout and stderr to
// files. The returned function reads what has been written to them.
func newFileEvaler(t *testing.T) (*Evaler, func() (string, string)) {
	testutil.InTempDir(t)
	stdin := must.OK1(os.Open(os.DevNull))
	stdout := must.OK1(os.Create("stdout"))
	stderr := must.OK1(os.Create("stderr"))
	t.Cleanup(func() {
		stdin.Close()
		stdout.Close()
		stderr.Close()
	})
	ev := NewEvaler([]string{"jobsh"}, []*os.File{stdin, stdout, stderr})
	return ev, func() (string, string) {
		return string(must.OK1(os.ReadFile("stdout"))), string(must.OK1(os.ReadFile("stderr")))
	}
}

// Makes all attempts to start external commands fail with err.
func failStartProcess(t *testing.T, err error) {
	saved := startProcess
	t.Cleanup(func() { startProcess = saved })
	startProcess = func(name string, _ []string, _ *os.ProcAttr) (*os.Process, error) {
		return nil, &os.PathError{Op: "fork/exec", Path: name, Err: err}
	}
}

func TestIsForkError(t *testing.T) {
	for _, err := range []error{syscall.EAGAIN, syscall.ENOMEM} {
		if !isForkError(&os.PathError{Op: "fork/exec", Err: err}) {
			t.Errorf("isForkError(%v) = false, want true", err)
		}
	}
	for _, err := range []error{syscall.ENOENT, syscall.EACCES, syscall.ENOEXEC} {
		if isForkError(&os.PathError{Op: "fork/exec", Err: err}) {
			t.Errorf("isForkError(%v) = true, want false", err)
		}
	}
}

func TestForkFailureIsFatal(t *testing.T) {
	for _, code := range []string{
		"true; echo no",
		"true | cat; echo no",
		"true & echo no",
	} {
		t.Run(code, func(t *testing.T) {
			ev, read := newFileEvaler(t)
			failStartProcess(t, syscall.EAGAIN)
			status := ev.Eval(code)
			stdout, stderr := read()
			if status != StatusGeneric {
				t.Errorf("got status %v, want %v", status, StatusGeneric)
			}
			if !ev.Fatal() {
				t.Errorf("want fatal")
			}
			if stdout != "" {
				t.Errorf("got stdout %q, want evaluation to stop", stdout)
			}
			if !strings.Contains(stderr, "can't fork") {
				t.Errorf("got stderr %q", stderr)
			}
		})
	}
}

func TestExecFailureIsNotFatal(t *testing.T) {
	ev, read := newFileEvaler(t)
	failStartProcess(t, syscall.ENOEXEC)
	ev.Eval("true; echo $?")
	if stdout, _ := read(); stdout != "127\n" {
		t.Errorf("got stdout %q, want %q", stdout, "127\n")
	}
	if ev.Fatal() {
		t.Errorf("got fatal for exec failure")
	}
}

// A process that can't be waited for.
type unwaitableProcess struct{}

func (unwaitableProcess) pid() int { return 1 << 30 }

func (unwaitableProcess) wait(bool) (waitResult, error) {
	return waitResult{}, unix.ECHILD
}

func (unwaitableProcess) signal(syscall.Signal) error { return nil }

func TestJobWaitFailureIsFatal(t *testing.T) {
	for _, code := range []string{
		"wait; echo no",
		"wait %1; echo no",
		"fg %1; echo no",
		"bg %1; echo no",
		"jobs; echo no",
	} {
		t.Run(code, func(t *testing.T) {
			ev, read := newFileEvaler(t)
			ev.fm.jobs.add("sleep 100 &", []process{unwaitableProcess{}})
			status := ev.Eval(code)
			stdout, stderr := read()
			if status != StatusGeneric || !ev.Fatal() {
				t.Errorf("got status %v, fatal %v; want %v, true", status, ev.Fatal(), StatusGeneric)
			}
			if strings.Contains(stdout, "no") {
				t.Errorf("got stdout %q, want evaluation to stop", stdout)
			}
			if !strings.Contains(stderr, "no child processes") {
				t.Errorf("got stderr %q", stderr)
			}
		})
	}
}

func TestEvalerJobs_RefreshFailure(t *testing.T) {
	ev, read := newFileEvaler(t)
	ev.fm.jobs.add("sleep 100 &", []process{unwaitableProcess{}})
	jobs := ev.Jobs()
	if len(jobs) != 1 || jobs[0].State != Running {
		t.Errorf("got jobs %v, want one running job", jobs)
	}
	if _, stderr := read(); !strings.Contains(stderr, "can't refresh jobs") {
		t.Errorf("got stderr %q", stderr)
	}
}
