package eval

import (
	"errors"
	"os"
	"syscall"
)

var startProcess = os.StartProcess

// Starts an external command. On failure, prints a message and returns a nil
// process with the status: StatusCommandNotFound or
// StatusCommandNotExecutable when the command can't be executed, or
// StatusGeneric when the shell can't fork, which also marks the frame as
// fatal.
//
// os.StartProcess forks and execs in one step, so nothing can run in the
// child between the two.
func (fm *frame) spawn(words []string, assigns []assignment, opt *launchOpt) (*os.Process, int) {
	path, status := lookPath(words[0], fm.wd, fm.variables.values["PATH"])
	switch status {
	case StatusCommandNotFound:
		fm.diag("%v: command not found", words[0])
		return nil, status
	case StatusCommandNotExecutable:
		fm.diag("%v: permission denied", words[0])
		return nil, status
	}

	attr := &os.ProcAttr{
		Dir:   fm.wd,
		Env:   fm.variables.serializeEnvEntries(assigns),
		Files: fm.files,
	}
	if opt.bg {
		attr.Sys = &syscall.SysProcAttr{Setpgid: true, Pgid: opt.pgid}
	}
	proc, err := startProcess(path, words, attr)
	if err != nil {
		if isForkError(err) {
			fm.diag("%v: can't fork: %v", words[0], err)
			fm.fatal = true
			return nil, StatusGeneric
		}
		if errors.Is(err, syscall.EACCES) {
			fm.diag("%v: permission denied", words[0])
			return nil, StatusCommandNotExecutable
		}
		fm.diag("%v: can't execute: %v", words[0], err)
		return nil, StatusCommandNotFound
	}
	if opt.bg && opt.pgid == 0 {
		// Later stages of the same pipeline join the group of the first one.
		opt.pgid = proc.Pid
	}
	return proc, 0
}

// Reports whether starting a process failed for lack of system resources,
// rather than because of the executable.
func isForkError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM)
}
