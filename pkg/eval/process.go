package eval

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// A process launched by the shell. It is either a child process running an
// external command, or a lightweight process: a goroutine running a builtin
// or a subshell on a copy of the frame.
type process interface {
	// The process ID, or 0 for lightweight processes.
	pid() int
	// Waits for a change of state. When nohang is true, returns a result of
	// kind waitRunning immediately if there is no change to report.
	wait(nohang bool) (waitResult, error)
	signal(sig syscall.Signal) error
}

type waitKind int

const (
	waitRunning waitKind = iota
	waitExited
	waitSignaled
	waitStopped
	waitContinued
	waitUnknown
)

type waitResult struct {
	kind waitKind
	code int
	sig  syscall.Signal
}

// Returns the exit status corresponding to the wait result.
func (r waitResult) status() int {
	switch r.kind {
	case waitExited:
		return r.code
	case waitSignaled, waitStopped:
		return StatusSignalBase + int(r.sig)
	default:
		return StatusWaitOther
	}
}

type externalProcess struct{ proc *os.Process }

func (p externalProcess) pid() int { return p.proc.Pid }

func (p externalProcess) wait(nohang bool) (waitResult, error) {
	options := unix.WUNTRACED | unix.WCONTINUED
	if nohang {
		options |= unix.WNOHANG
	}
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(p.proc.Pid, &ws, options, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return waitResult{}, err
		}
		if wpid == 0 {
			return waitResult{kind: waitRunning}, nil
		}
		break
	}
	switch {
	case ws.Exited():
		p.proc.Release()
		return waitResult{kind: waitExited, code: ws.ExitStatus()}, nil
	case ws.Signaled():
		p.proc.Release()
		return waitResult{kind: waitSignaled, sig: ws.Signal()}, nil
	case ws.Stopped():
		return waitResult{kind: waitStopped, sig: ws.StopSignal()}, nil
	case ws.Continued():
		return waitResult{kind: waitContinued}, nil
	default:
		return waitResult{kind: waitUnknown}, nil
	}
}

func (p externalProcess) signal(sig syscall.Signal) error {
	return unix.Kill(p.proc.Pid, sig)
}

type lightProcess struct {
	done   chan struct{}
	status int
}

// Runs f in a lightweight process. The frame f works on must not be shared
// with any other goroutine.
func (fm *frame) goLight(f func() int) *lightProcess {
	p := &lightProcess{done: make(chan struct{})}
	go func() {
		p.status = f()
		close(p.done)
	}()
	return p
}

// Returns a lightweight process that has already finished with the given
// status. Used for stages that fail before anything can be launched.
func doneProcess(status int) *lightProcess {
	p := &lightProcess{done: make(chan struct{}), status: status}
	close(p.done)
	return p
}

func (p *lightProcess) pid() int { return 0 }

func (p *lightProcess) wait(nohang bool) (waitResult, error) {
	if nohang {
		select {
		case <-p.done:
		default:
			return waitResult{kind: waitRunning}, nil
		}
	} else {
		<-p.done
	}
	return waitResult{kind: waitExited, code: p.status}, nil
}

// Lightweight processes can't be stopped, so continuing them is a no-op.
// Other signals are not supported.
func (p *lightProcess) signal(sig syscall.Signal) error {
	if sig == unix.SIGCONT {
		return nil
	}
	return errLightSignal
}

var errLightSignal = lightSignalError{}

type lightSignalError struct{}

func (lightSignalError) Error() string {
	return "can't send signals to builtins or subshells"
}

// Waits for the processes in launch order and returns their statuses. A stop
// of any process turns the processes into a stopped job.
//
// The boolean flag is false if waiting itself failed.
func (fm *frame) waitProcs(text string, procs []process) ([]int, bool) {
	statuses := make([]int, len(procs))
	results := make([]waitResult, len(procs))
	stopped := false
	for i, proc := range procs {
		var res waitResult
		var err error
		for {
			// Once a process has stopped, don't block on the rest.
			res, err = proc.wait(stopped)
			if err != nil || res.kind != waitContinued {
				break
			}
		}
		if err != nil {
			fm.diag("can't wait for process %d: %v", proc.pid(), err)
			fm.fatal = true
			return statuses, false
		}
		switch res.kind {
		case waitSignaled:
			// Dying of SIGPIPE is routine for all but the last stage of a
			// pipeline, so don't report it.
			if res.sig != unix.SIGPIPE {
				fm.diag("pid %d: %s", proc.pid(), unix.SignalName(res.sig))
			}
		case waitStopped:
			stopped = true
		case waitUnknown:
			fm.diag("warning: unknown wait status for pid %d", proc.pid())
		}
		results[i] = res
		statuses[i] = res.status()
	}
	if stopped {
		job := fm.jobs.add(text, procs)
		for i, p := range job.procs {
			p.record(results[i])
		}
		job.updateState()
		fm.diag("\n[%d] %s %s", job.ID, job.State, job.Text)
	}
	return statuses, true
}
