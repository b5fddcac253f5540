package eval

import (
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/elves/jobsh/pkg/parse"
)

// Redirections can't name a file descriptor at or above this limit, which
// keeps the FD table of a frame small.
var maxFd = fdLimit()

func fdLimit() int {
	const fallback, ceiling = 1024, 1 << 16
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil || rl.Cur == 0 {
		return fallback
	}
	if rl.Cur > ceiling {
		return ceiling
	}
	return int(rl.Cur)
}

// Performs redirections in order. Returns files that must be closed once the
// command finishes, a status and whether the error is fatal. On failure,
// files opened so far are already closed.
func (fm *frame) redirs(rds []*parse.Redir) ([]*os.File, int, bool) {
	var closers []*os.File
	for _, rd := range rds {
		status, ok, f := fm.redir(rd)
		if f != nil {
			closers = append(closers, f)
		}
		if !ok || status != 0 {
			closeAll(closers)
			return nil, status, ok
		}
	}
	return closers, 0, true
}

// Returns a status code, whether there is an error that should always be
// considered fatal (an expansion error), and a file to close after the
// command (which may be nil).
func (fm *frame) redir(rd *parse.Redir) (int, bool, *os.File) {
	var flag, defaultDst int
	switch rd.Mode {
	case parse.RedirInput:
		flag = os.O_RDONLY
		defaultDst = 0
	case parse.RedirOutput:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if fm.options.has(noclobber) {
			flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
		}
		defaultDst = 1
	case parse.RedirInputOutput:
		flag = os.O_RDWR | os.O_CREATE
		defaultDst = 0
	case parse.RedirAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		defaultDst = 1
	default:
		fm.diag("bug: unknown redir mode: %v", rd.Mode)
		return StatusShellBug, false, nil
	}
	dst := rd.Left
	if dst == -1 {
		dst = defaultDst
	}
	if dst < 0 || dst >= maxFd {
		fm.diag("%v: bad file descriptor", dst)
		return StatusRedirectionError, true, nil
	}
	// POSIX specifies that the RHS of redirections do not undergo field
	// splitting or pathname expansion, with the exception that interactive
	// shells may perform pathname expansion if the result is one word
	// (https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#tag_18_07).
	//
	// Dash and ksh follow this behavior.
	exp, ok := fm.compound(rd.Right)
	if !ok {
		return StatusExpansionError, false, nil
	}
	right := exp.expandOneString()

	var src, toClose *os.File
	if rd.RightFd {
		if right == "-" {
			// A nil src signifies that dst should be closed.
			src = nil
		} else if fd64, err := strconv.ParseInt(right, 10, 0); err == nil {
			fd := int(fd64)
			if 0 <= fd && fd < len(fm.files) && fm.files[fd] != nil {
				src = fm.files[fd]
			} else {
				fm.diag("%v: bad file descriptor", right)
				return StatusRedirectionError, true, nil
			}
		} else {
			fm.diag("source is not FD: %v", right)
			return StatusRedirectionError, true, nil
		}
	} else {
		path := right
		if !filepath.IsAbs(path) {
			path = filepath.Join(fm.wd, path)
		}
		f, err := os.OpenFile(path, flag, 0644)
		if err != nil {
			fm.diag("can't open %v: %v", right, err)
			return StatusRedirectionError, true, nil
		}
		src, toClose = f, f
	}
	if dst >= len(fm.files) {
		newFiles := make([]*os.File, dst+1)
		copy(newFiles, fm.files)
		fm.files = newFiles
	}
	fm.files[dst] = src
	return 0, true, toClose
}
