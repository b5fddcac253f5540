// Package eval implements evaluation of parsed scripts, including pipelines,
// redirections, expansions, builtins and a job table for background jobs.
package eval

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/elves/jobsh/pkg/parse"
)

// Evaler holds the state of the shell across evaluations.
type Evaler struct {
	fm *frame
	// Called to report syntax errors found by [Evaler.EvalFeeder] and
	// [Evaler.Eval]. If nil, the error is printed to the diagnostic file.
	OnParseError func(f *parse.Feeder, err error)
}

var StdFiles = []*os.File{os.Stdin, os.Stdout, os.Stderr}

// NewEvaler creates an Evaler. The args argument gives $0 and the positional
// parameters, and the files argument gives the initial file descriptors.
// Variables are initialized from the environment of the process.
func NewEvaler(args []string, files []*os.File) *Evaler {
	if len(args) < 1 {
		panic("args must have at least 1 element")
	}
	if len(files) < 3 {
		panic("files must have at least 3 elements")
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "/"
	}
	variables := initVariablesFromEnv(os.Environ())
	variables.values["PWD"] = wd
	return &Evaler{fm: &frame{
		arguments: args,
		variables: variables,
		aliases:   make(aliasTable),
		files:     files,
		diagFile:  files[2],
		wd:        wd,
		jobs:      &jobTable{},
	}}
}

// Eval evaluates code, one line at a time, so that aliases defined on one
// line take effect on later lines. It returns the status of the last
// pipeline.
func (ev *Evaler) Eval(code string) int {
	return ev.EvalFeeder(parse.NewFeeder(parse.NewReaderSource(strings.NewReader(code))))
}

// EvalScript evaluates a parsed script. The boolean return value is false
// if evaluation was aborted, by exit or an error that a non-interactive shell
// would exit on.
func (ev *Evaler) EvalScript(sc *parse.Script) (int, bool) {
	return ev.fm.topScript(sc)
}

func (fm *frame) topScript(sc *parse.Script) (int, bool) {
	if fm.options.has(verbose) {
		fmt.Fprintln(fm.diagFile, strings.TrimRight(sc.Text, "\n"))
	}
	return fm.script(sc)
}

// EvalFeeder repeatedly parses and evaluates scripts from the feeder, until
// the input is exhausted, there is a syntax error, or evaluation is aborted.
// A syntax error sets $? to 2.
func (ev *Evaler) EvalFeeder(f *parse.Feeder) int {
	status, _ := ev.fm.evalFeeder(f, ev.OnParseError)
	return status
}

// Parses and evaluates scripts from f until the input is exhausted. The
// report function is called on syntax errors; if it is nil, the error is
// printed to the diagnostic file.
func (fm *frame) evalFeeder(f *parse.Feeder, report func(*parse.Feeder, error)) (int, bool) {
	f.SetAliases(fm.aliases)
	status := fm.status()
	for {
		if f.Len() == 0 && !f.FeedAdditionalLine() {
			if err := f.Err(); err != nil {
				fm.diag("read: %v", err)
				return StatusGeneric, false
			}
			return status, true
		}
		sc, parseStatus, err := parse.Parse(f, parse.Opt{PermitEmpty: true})
		if parseStatus != parse.NormalEnd {
			if parseStatus == parse.NeedMoreLine {
				err = parse.Error{Errors: []parse.ErrorEntry{
					{Position: len(f.Text()), Message: "unexpected end of input"}}}
				f.Discard()
			}
			if report != nil {
				report(f, err)
			} else {
				fm.diag("syntax error: %v", err)
			}
			fm.pipestatus = nil
			fm.setStatus(StatusSyntaxError)
			return StatusSyntaxError, false
		}
		var ok bool
		status, ok = fm.topScript(sc)
		if !ok {
			return status, false
		}
	}
}

// Exited reports whether evaluation was ended with exit, or an error
// with errexit on. If so, the exit status is also returned.
func (ev *Evaler) Exited() (int, bool) {
	return ev.fm.status(), ev.fm.exiting
}

// Fatal reports whether there was an error the shell can't recover from.
func (ev *Evaler) Fatal() bool { return ev.fm.fatal }

// Status returns $?.
func (ev *Evaler) Status() int { return ev.fm.status() }

// SetStatus sets $?.
func (ev *Evaler) SetStatus(status int) {
	ev.fm.pipestatus = nil
	ev.fm.setStatus(status)
}

// PipeStatus returns the statuses of all stages of the last pipeline.
func (ev *Evaler) PipeStatus() []int {
	var statuses []int
	for _, field := range strings.Fields(ev.fm.variables.values[pipestatusVar]) {
		status, _ := strconv.Atoi(field)
		statuses = append(statuses, status)
	}
	return statuses
}

// GetVar returns the value of a variable, and whether it is set.
func (ev *Evaler) GetVar(name string) (string, bool) {
	value, ok := ev.fm.variables.values[name]
	return value, ok
}

// SetVar sets a variable. It fails if the variable is readonly.
func (ev *Evaler) SetVar(name, value string) error {
	return ev.fm.SetVar(name, value)
}

// SetAlias defines an alias.
func (ev *Evaler) SetAlias(name, def string) { ev.fm.aliases[name] = def }

// AliasTable returns the alias table, for use with [parse.Feeder.SetAliases].
// Changes made by alias and unalias are visible through it.
func (ev *Evaler) AliasTable() parse.Aliases { return ev.fm.aliases }

// SetOption turns an option on or off by its long name, like "errexit".
func (ev *Evaler) SetOption(name string, on bool) error {
	opt, ok := optionByName[name]
	if !ok {
		return fmt.Errorf("unknown option %q", name)
	}
	ev.fm.options = ev.fm.options.with(opt, on)
	return nil
}

// Wd returns the working directory.
func (ev *Evaler) Wd() string { return ev.fm.wd }

// Jobs returns a snapshot of the job table, after refreshing the states of
// jobs without blocking. A failure to refresh is reported on the diagnostic
// file, and the states from before are returned.
func (ev *Evaler) Jobs() []Job {
	if err := ev.fm.jobs.refresh(); err != nil {
		ev.fm.diag("can't refresh jobs: %v", err)
	}
	jobs := make([]Job, len(ev.fm.jobs.jobs))
	for i, j := range ev.fm.jobs.jobs {
		jobs[i] = Job{ID: j.ID, Text: j.Text, State: j.State}
	}
	return jobs
}

// NotifyJobs refreshes the job table, writes a line for every job that is
// done and removes them. Interactive shells call this before each prompt.
func (ev *Evaler) NotifyJobs(w io.Writer) {
	if err := ev.fm.jobs.refresh(); err != nil {
		ev.fm.diag("can't refresh jobs: %v", err)
		return
	}
	for _, j := range ev.fm.jobs.reapDone() {
		fmt.Fprintln(w, j.Line())
	}
}
