package shell

import (
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/elves/jobsh/pkg/parse"
)

var promptColor = color.New(color.FgGreen)

// A LineSource reading from a terminal with the line reader of
// golang.org/x/term. The terminal is only in raw mode while a line is being
// read, so commands run with the terminal in its usual mode.
type termSource struct {
	fd     int
	t      *term.Terminal
	prompt func(continuation bool) string
	// Whether the next line continues an unfinished command.
	continuation bool
}

func newTermSource(in, out *os.File, prompt func(bool) string) *termSource {
	rw := struct {
		io.Reader
		io.Writer
	}{in, out}
	return &termSource{fd: int(in.Fd()), t: term.NewTerminal(rw, ""), prompt: prompt}
}

func (s *termSource) ReadLine() (string, error) {
	s.t.SetPrompt(s.prompt(s.continuation))
	s.continuation = true
	state, err := term.MakeRaw(s.fd)
	if err != nil {
		return "", err
	}
	defer term.Restore(s.fd, state)
	// Both Ctrl-D on an empty line and Ctrl-C are reported as io.EOF.
	line, err := s.t.ReadLine()
	if err != nil {
		return "", err
	}
	return line + "\n", nil
}

// Interact runs the read-eval-print loop on a terminal, and returns the exit
// status of the shell. Done jobs are reported before each prompt.
func (sh *Shell) Interact(in, out *os.File) int {
	if err := sh.ev.SetOption("monitor", true); err != nil {
		errorColor.Fprintln(sh.stderr, err)
	}
	// Keep the shell itself from being interrupted or stopped by signals
	// from the terminal. Handled signals are reset to their defaults in
	// child processes, so the foreground command still gets them.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGINT, unix.SIGQUIT, unix.SIGTSTP)
	defer signal.Stop(sigs)

	src := newTermSource(in, out, sh.prompt)
	return sh.run("[tty]", parse.NewFeeder(src), func() {
		sh.ev.NotifyJobs(sh.stderr)
		src.continuation = false
	})
}

func (sh *Shell) prompt(continuation bool) string {
	if continuation {
		if ps2, ok := sh.ev.GetVar("PS2"); ok {
			return ps2
		}
		return "> "
	}
	if ps1, ok := sh.ev.GetVar("PS1"); ok {
		return ps1
	}
	return promptColor.Sprint("$ ")
}
