package eval

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Like os/exec.LookPath, but
//
//   - Uses the working directory and PATH given in the argument.
//   - Returns either [StatusCommandNotFound] or [StatusCommandNotExecutable] in
//     the second argument if the search is not successful.
//
// An empty PATH component means the working directory, as in POSIX.
func lookPath(file, wd, paths string) (string, int) {
	if strings.Contains(file, "/") {
		if !filepath.IsAbs(file) {
			file = filepath.Join(wd, file)
		}
		return file, checkExecutable(file)
	}
	retStatus := StatusCommandNotFound
	for _, dir := range filepath.SplitList(paths) {
		if dir == "" {
			dir = wd
		} else if !filepath.IsAbs(dir) {
			dir = filepath.Join(wd, dir)
		}
		fullpath := filepath.Join(dir, file)
		switch status := checkExecutable(fullpath); status {
		case 0:
			return fullpath, 0
		case StatusCommandNotExecutable:
			// Keep searching, but remember that a file was found.
			retStatus = status
		}
	}
	return "", retStatus
}

func checkExecutable(file string) int {
	info, err := os.Stat(file)
	if err != nil {
		return StatusCommandNotFound
	}
	if info.IsDir() || unix.Access(file, unix.X_OK) != nil {
		return StatusCommandNotExecutable
	}
	return 0
}
