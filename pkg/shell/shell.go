// Package shell drives an [eval.Evaler]: it runs scripts and command strings,
// and runs the interactive read-eval-print loop.
package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"src.elv.sh/pkg/diag"

	"github.com/elves/jobsh/pkg/eval"
	"github.com/elves/jobsh/pkg/parse"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	messageColor = color.New(color.FgYellow)
)

// Shell runs code on an Evaler, reporting syntax errors on stderr.
type Shell struct {
	ev     *eval.Evaler
	stderr io.Writer
	// Print the AST of each parsed script to stderr.
	PrintAST bool
}

// New creates a Shell.
func New(ev *eval.Evaler, stderr io.Writer) *Shell {
	return &Shell{ev: ev, stderr: stderr}
}

// RunString runs a command string, as with "jobsh -c". The name is used in
// error messages.
func (sh *Shell) RunString(name, code string) int {
	return sh.RunReader(name, strings.NewReader(code))
}

// RunReader runs a script read from r. Evaluation stops at the first syntax
// error, or when a command aborts evaluation. The exit status of the shell is
// returned.
func (sh *Shell) RunReader(name string, r io.Reader) int {
	return sh.run(name, parse.NewFeeder(parse.NewReaderSource(r)), nil)
}

// Runs scripts parsed from f. When beforeInput is non-nil, the shell is
// interactive: beforeInput is called whenever a new command is about to be
// read, and errors don't stop the loop.
func (sh *Shell) run(name string, f *parse.Feeder, beforeInput func()) int {
	interactive := beforeInput != nil
	f.SetAliases(sh.ev.AliasTable())
	for {
		if f.Len() == 0 {
			if interactive {
				beforeInput()
			}
			if !f.FeedAdditionalLine() {
				if err := f.Err(); err != nil {
					errorColor.Fprintf(sh.stderr, "%s: read: %v\n", name, err)
					return eval.StatusGeneric
				}
				break
			}
		}
		sc, parseStatus, err := parse.Parse(f, parse.Opt{PermitEmpty: true})
		if parseStatus != parse.NormalEnd {
			if parseStatus == parse.NeedMoreLine {
				err = parse.Error{Errors: []parse.ErrorEntry{
					{Position: len(f.Text()), Message: "unexpected end of input"}}}
				f.Discard()
			}
			sh.showParseError(name, f, err)
			sh.ev.SetStatus(eval.StatusSyntaxError)
			if !interactive {
				return eval.StatusSyntaxError
			}
			continue
		}
		if sh.PrintAST {
			fmt.Fprintln(sh.stderr, parse.PprintAST(sc))
		}
		status, ok := sh.ev.EvalScript(sc)
		if ok {
			continue
		}
		if exitStatus, exited := sh.ev.Exited(); exited {
			return exitStatus
		}
		if !interactive || sh.ev.Fatal() {
			return status
		}
	}
	return sh.ev.Status()
}

func (sh *Shell) showParseError(name string, f *parse.Feeder, err error) {
	parseErr, ok := err.(parse.Error)
	if !ok {
		errorColor.Fprintf(sh.stderr, "%s: %v\n", name, err)
		return
	}
	errorColor.Fprintf(sh.stderr, "%s: syntax error\n", name)
	for _, entry := range parseErr.Errors {
		line, col := f.Position(entry.Position)
		ctx := diag.NewContext(name, f.Text(), diag.PointRanging(entry.Position))
		messageColor.Fprintf(sh.stderr, "  %d:%d: %s\n", line, col, entry.Message)
		fmt.Fprintf(sh.stderr, "    %s\n", ctx.ShowCompact(""))
	}
}
