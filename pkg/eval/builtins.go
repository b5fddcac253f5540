package eval

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var builtins = map[string]func(*frame, []string) int{
	"alias":   alias,
	"bg":      bg,
	"cd":      cd,
	"false":   falseCmd,
	"fg":      fg,
	"jobs":    jobs,
	"kill":    kill,
	"pwd":     pwd,
	"read":    read,
	"true":    trueCmd,
	"unalias": unalias,
	"wait":    wait,
}

// Prints a message about bad usage of a builtin. The message goes to the
// diagnostic file, since it's a shell diagnostic message.
func (fm *frame) badCommandLine(name, format string, args ...any) {
	fmt.Fprintf(fm.diagFile, name+": "+format+"\n", args...)
}

// Returns the error inside a *fs.PathError, so that messages don't repeat
// the path.
func pathErrorCause(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/cd.html
//
// Only the logical mode is supported; -L and -P are accepted and ignored.
func cd(fm *frame, args []string) int {
	_, args, ok := fm.getopt("cd", args, "LP")
	if !ok {
		return StatusBadCommandLine
	}
	var dir string
	printDir := false
	switch len(args) {
	case 0:
		home := fm.variables.values["HOME"]
		if home == "" {
			fmt.Fprintln(fm.stderr(), "cd: HOME not set")
			return StatusGeneric
		}
		dir = home
	case 1:
		dir = args[0]
		if dir == "-" {
			oldpwd := fm.variables.values["OLDPWD"]
			if oldpwd == "" {
				fmt.Fprintln(fm.stderr(), "cd: OLDPWD not set")
				return StatusGeneric
			}
			dir = oldpwd
			printDir = true
		}
	default:
		fm.badCommandLine("cd", "too many arguments")
		return StatusBadCommandLine
	}
	arg := dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(fm.wd, dir)
	} else {
		dir = filepath.Clean(dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		fmt.Fprintf(fm.stderr(), "cd: %v: %v\n", arg, pathErrorCause(err))
		return StatusGeneric
	}
	if !info.IsDir() {
		fmt.Fprintf(fm.stderr(), "cd: %v: not a directory\n", arg)
		return StatusGeneric
	}
	if err := unix.Access(dir, unix.X_OK); err != nil {
		fmt.Fprintf(fm.stderr(), "cd: %v: %v\n", arg, err)
		return StatusGeneric
	}
	if !fm.subshell {
		if err := os.Chdir(dir); err != nil {
			fmt.Fprintf(fm.stderr(), "cd: %v: %v\n", arg, pathErrorCause(err))
			return StatusGeneric
		}
	}
	fm.variables.values["OLDPWD"] = fm.wd
	fm.variables.values["PWD"] = dir
	fm.wd = dir
	if printDir {
		fmt.Fprintln(fm.stdout(), dir)
	}
	return 0
}

func falseCmd(*frame, []string) int { return 1 }

func trueCmd(*frame, []string) int { return 0 }

func pwd(fm *frame, args []string) int {
	_, _, ok := fm.getopt("pwd", args, "LP")
	if !ok {
		return StatusBadCommandLine
	}
	fmt.Fprintln(fm.stdout(), fm.wd)
	return 0
}

// Finds a job from a job ID like "%1" or a process ID. An empty spec, "%",
// "%%" and "%+" all refer to the current job.
func (fm *frame) findJob(name, spec string) *Job {
	var j *Job
	switch {
	case spec == "" || spec == "%" || spec == "%%" || spec == "%+":
		j = fm.jobs.current()
	case strings.HasPrefix(spec, "%"):
		if id, err := strconv.Atoi(spec[1:]); err == nil {
			j = fm.jobs.find(id)
		}
	default:
		if pid, err := strconv.Atoi(spec); err == nil {
			j = fm.jobs.findPid(pid)
		}
	}
	if j == nil {
		if spec == "" {
			spec = "current"
		}
		fmt.Fprintf(fm.stderr(), "%v: %v: no such job\n", name, spec)
	}
	return j
}

// Returns the jobs named by the arguments, or all jobs if there are none.
func (fm *frame) selectJobs(name string, args []string) ([]*Job, bool) {
	if len(args) == 0 {
		return cloneSlice(fm.jobs.jobs), true
	}
	var selected []*Job
	for _, arg := range args {
		j := fm.findJob(name, arg)
		if j == nil {
			return nil, false
		}
		selected = append(selected, j)
	}
	return selected, true
}

// Reports a failure to wait for the processes of jobs. As with failed waits
// for foreground commands, the shell can't recover from it.
func (fm *frame) jobWaitError(name string, err error) int {
	fmt.Fprintf(fm.stderr(), "%v: %v\n", name, err)
	fm.fatal = true
	return StatusGeneric
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/jobs.html
//
// Done jobs are removed from the table once they have been reported.
func jobs(fm *frame, args []string) int {
	opts, args, ok := fm.getopt("jobs", args, "lp")
	if !ok {
		return StatusBadCommandLine
	}
	if err := fm.jobs.refresh(); err != nil {
		return fm.jobWaitError("jobs", err)
	}
	selected, ok := fm.selectJobs("jobs", args)
	if !ok {
		return StatusGeneric
	}
	for _, j := range selected {
		switch {
		case opts.isSet('p'):
			for _, pid := range j.Pids() {
				fmt.Fprintln(fm.stdout(), pid)
			}
		case opts.isSet('l'):
			fmt.Fprintf(fm.stdout(), "[%d] %v %s %s\n", j.ID, j.Pids(), j.State, j.Text)
		default:
			fmt.Fprintln(fm.stdout(), j.Line())
		}
		if j.State == Done {
			fm.jobs.remove(j)
		}
	}
	return 0
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/bg.html
//
// Without arguments, all jobs are continued. Continuing a running job has no
// effect.
func bg(fm *frame, args []string) int {
	if err := fm.jobs.refresh(); err != nil {
		return fm.jobWaitError("bg", err)
	}
	selected, ok := fm.selectJobs("bg", args)
	if !ok {
		return StatusGeneric
	}
	status := 0
	for _, j := range selected {
		if j.State == Done {
			continue
		}
		wasStopped := j.State == Stopped
		if err := j.cont(); err != nil {
			fmt.Fprintf(fm.stderr(), "bg: %%%d: %v\n", j.ID, err)
			status = StatusGeneric
			continue
		}
		if wasStopped {
			fmt.Fprintf(fm.stdout(), "[%d] %s\n", j.ID, j.Text)
		}
	}
	return status
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/fg.html
func fg(fm *frame, args []string) int {
	if len(args) > 1 {
		fm.badCommandLine("fg", "too many arguments")
		return StatusBadCommandLine
	}
	if err := fm.jobs.refresh(); err != nil {
		return fm.jobWaitError("fg", err)
	}
	spec := ""
	if len(args) == 1 {
		spec = args[0]
	}
	j := fm.findJob("fg", spec)
	if j == nil {
		return StatusGeneric
	}
	fmt.Fprintln(fm.stdout(), strings.TrimSuffix(j.Text, " &"))
	if err := j.cont(); err != nil {
		fmt.Fprintf(fm.stderr(), "fg: %%%d: %v\n", j.ID, err)
		return StatusGeneric
	}
	if err := j.update(false); err != nil {
		return fm.jobWaitError("fg", err)
	}
	if j.State == Stopped {
		fm.diag("\n[%d] %s %s", j.ID, j.State, j.Text)
		return StatusSignalBase + int(unix.SIGTSTP)
	}
	fm.jobs.remove(j)
	return j.Status()
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/wait.html
//
// Waited jobs stay in the table as done, and get removed when reported by
// jobs or job notification.
func wait(fm *frame, args []string) int {
	if len(args) == 0 {
		if err := fm.jobs.refresh(); err != nil {
			return fm.jobWaitError("wait", err)
		}
		for _, j := range cloneSlice(fm.jobs.jobs) {
			if j.State == Stopped {
				// Stopped jobs would never finish.
				continue
			}
			if err := j.update(false); err != nil {
				return fm.jobWaitError("wait", err)
			}
		}
		return 0
	}
	status := 0
	for _, arg := range args {
		var j *Job
		if strings.HasPrefix(arg, "%") {
			j = fm.findJob("wait", arg)
		} else if pid, err := strconv.Atoi(arg); err == nil {
			j = fm.jobs.findPid(pid)
		} else {
			fm.badCommandLine("wait", "%v: not a pid or job ID", arg)
			return StatusBadCommandLine
		}
		if j == nil {
			// POSIX: unknown processes are assumed to have exited with 127.
			status = StatusCommandNotFound
			continue
		}
		if err := j.update(false); err != nil {
			return fm.jobWaitError("wait", err)
		}
		status = j.Status()
	}
	return status
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/kill.html
//
// Supports "kill [-s signal | -signal] target...", where targets are process
// IDs or job IDs.
func kill(fm *frame, args []string) int {
	sig := unix.SIGTERM
	if len(args) > 0 && strings.HasPrefix(args[0], "-") && args[0] != "--" {
		name := args[0][1:]
		args = args[1:]
		if name == "s" {
			if len(args) == 0 {
				fm.badCommandLine("kill", "-s requires an argument")
				return StatusBadCommandLine
			}
			name, args = args[0], args[1:]
		}
		var ok bool
		sig, ok = parseSignal(name)
		if !ok {
			fm.badCommandLine("kill", "%v: invalid signal", name)
			return StatusBadCommandLine
		}
	} else if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if len(args) == 0 {
		fm.badCommandLine("kill", "no process specified")
		return StatusBadCommandLine
	}
	status := 0
	for _, arg := range args {
		var pids []int
		if strings.HasPrefix(arg, "%") {
			j := fm.findJob("kill", arg)
			if j == nil {
				status = StatusGeneric
				continue
			}
			pids = j.Pids()
		} else if pid, err := strconv.Atoi(arg); err == nil {
			pids = []int{pid}
		} else {
			fm.badCommandLine("kill", "%v: not a pid or job ID", arg)
			status = StatusGeneric
			continue
		}
		for _, pid := range pids {
			if err := unix.Kill(pid, sig); err != nil {
				fmt.Fprintf(fm.stderr(), "kill: %d: %v\n", pid, err)
				status = StatusGeneric
			}
		}
	}
	return status
}

func parseSignal(name string) (unix.Signal, bool) {
	if n, err := strconv.Atoi(name); err == nil {
		return unix.Signal(n), n >= 0
	}
	name = strings.ToUpper(name)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	return sig, sig != 0
}

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/read.html
func read(fm *frame, args []string) int {
	opts, names, ok := fm.getopt("read", args, "r")
	if !ok {
		return StatusBadCommandLine
	}
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	for _, name := range names {
		if !isName(name) {
			fm.badCommandLine("read", "%v: invalid variable name", name)
			return StatusBadCommandLine
		}
	}
	line, eof := getLine(fm.stdin(), opts.isSet('r'))
	fields := readFields(line, fm.ifs(), len(names))
	for i, name := range names {
		value := ""
		if i < len(fields) {
			value = fields[i]
		}
		if err := fm.SetVar(name, value); err != nil {
			fmt.Fprintf(fm.stderr(), "read: %v\n", err)
			return StatusGeneric
		}
	}
	if eof {
		return StatusGeneric
	}
	return 0
}

// Reads one line, one byte at a time so that nothing after the newline is
// consumed. Without raw, a backslash escapes the next character, and a
// backslash-newline pair continues the line. The second return value is true
// if the end of input was reached before a newline.
func getLine(r io.Reader, raw bool) (string, bool) {
	var buf bytes.Buffer
	escaped := false
	for {
		var buf1 [1]byte
		nr, err := r.Read(buf1[:])
		if nr == 0 || err != nil {
			return buf.String(), true
		}
		b := buf1[0]
		switch {
		case escaped:
			escaped = false
			if b != '\n' {
				buf.WriteByte(b)
			}
		case b == '\\' && !raw:
			escaped = true
		case b == '\n':
			return buf.String(), false
		default:
			buf.WriteByte(b)
		}
	}
}

// Splits a line into at most n fields according to IFS. The last field gets
// the rest of the line, minus leading and trailing IFS whitespaces.
func readFields(line, ifs string, n int) []string {
	var ws strings.Builder
	for _, r := range ifs {
		if r == ' ' || r == '\t' || r == '\n' {
			ws.WriteRune(r)
		}
	}
	whitespaces := ws.String()
	if ifs == "" {
		return []string{line}
	}
	var fields []string
	s := strings.TrimLeft(line, whitespaces)
	for len(fields) < n-1 && s != "" {
		i := strings.IndexAny(s, ifs)
		if i < 0 {
			fields = append(fields, s)
			s = ""
			break
		}
		fields = append(fields, s[:i])
		s = strings.TrimLeft(s[i:], whitespaces)
		if s != "" && strings.ContainsRune(ifs, rune(s[0])) && !strings.ContainsRune(whitespaces, rune(s[0])) {
			s = strings.TrimLeft(s[1:], whitespaces)
		}
	}
	if s = strings.TrimRight(s, whitespaces); s != "" {
		fields = append(fields, s)
	}
	return fields
}
