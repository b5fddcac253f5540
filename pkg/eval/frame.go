package eval

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elves/jobsh/pkg/parse"
)

type frame struct {
	arguments []string
	variables variables
	aliases   aliasTable
	files     []*os.File
	// POSIX requires all cases except "special built-in utility error" and
	// "other utility (not a special builtin-in error)" to print a shell
	// diagnostic message to the stderr, ignoring all active redirections. We
	// save the initial stderr (files[2]) in this field for that purpose.
	diagFile *os.File
	wd       string
	options  options
	jobs     *jobTable
	// Statuses of all stages of the last pipeline, used for $PIPESTATUS.
	pipestatus []int
	// Used for $!. Zero when no background job with an external process has
	// been started.
	lastBgPid int
	// Used as the status of simple commands with only assignments.
	lastCmdSubstStatus int
	// Set for copies of the frame. Only the top-level frame changes the
	// working directory of the process.
	subshell bool
	// Set by exit and errexit. Evaluation stops once this is set.
	exiting bool
	// Set when an error happened that the shell can't recover from, like a
	// failed wait.
	fatal bool
}

// Makes a deep copy of the frame. Nothing done to the copy can be observed
// from the original, which makes it a substitute for forking the shell.
func (fm *frame) cloneForSubshell() *frame {
	return &frame{
		arguments: cloneSlice(fm.arguments),
		variables: fm.variables.clone(),
		aliases:   cloneMap(fm.aliases),
		files:     cloneSlice(fm.files),
		diagFile:  fm.diagFile,
		wd:        fm.wd,
		options:   fm.options,
		// Jobs of the parent are not jobs of the subshell.
		jobs:      &jobTable{},
		lastBgPid: fm.lastBgPid,
		subshell:  true,
	}
}

// Prints a diagnostic message to the diagnostic file.
func (fm *frame) diag(format string, args ...any) {
	fmt.Fprintf(fm.diagFile, format+"\n", args...)
}

// Returns a writer for the given fd. A closed fd discards all output.
func (fm *frame) writer(fd int) io.Writer {
	if fd < len(fm.files) && fm.files[fd] != nil {
		return fm.files[fd]
	}
	return io.Discard
}

func (fm *frame) stdout() io.Writer { return fm.writer(1) }
func (fm *frame) stderr() io.Writer { return fm.writer(2) }

func (fm *frame) stdin() io.Reader {
	if len(fm.files) > 0 && fm.files[0] != nil {
		return fm.files[0]
	}
	return strings.NewReader("")
}

// The rest of this file contains methods on (*frame) that implement the
// execution of commands. They return (int, bool), where the boolean flag is
// false iff evaluation should stop. This is the case for all the "shall exit"
// errors in the "non-interactive shell" column of the table in
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#tag_18_08_01:
//
//   - Special built-in utility error
//   - Redirection error with special built-in utilities
//   - Variable assignment error
//   - Expansion error
//
// as well as exit, non-zero statuses when "set -e" is active, and failures to
// wait for a child process.
//
// The following errors don't stop evaluation:
//
//   - Other utility (not a special built-in) error
//   - Redirection error with compound commands
//   - Redirection error with other utilities (not special built-ins)
//   - Command not found or not executable
//
// Regardless of whether the error is fatal, the site that generates the error
// prints a suitable message.
//
// Interactive shells don't exit on most of these errors. That is up to the
// caller of this package: a failed evaluation only stops the current script.

func (fm *frame) script(sc *parse.Script) (int, bool) {
	status := fm.status()
	for i, job := range sc.Jobs {
		if sc.Terminators[i].Background() {
			fm.background(job)
			if fm.fatal {
				return StatusGeneric, false
			}
			fm.pipestatus = nil
			fm.setStatus(0)
			status = 0
			continue
		}
		jobStatus, ok := fm.job(job)
		if !ok {
			return jobStatus, false
		}
		status = jobStatus
	}
	return status, true
}

func (fm *frame) job(j *parse.Job) (int, bool) {
	if len(j.Pipelines) == 0 {
		// An empty job, from a blank line.
		return fm.status(), true
	}
	var lastStatus int
	ranLast := false
	for i, pp := range j.Pipelines {
		if i > 0 && shouldSkipAndOr(j.Ops[i-1], lastStatus) {
			continue
		}
		status, ok := fm.pipeline(pp)
		fm.setStatus(status)
		if !ok {
			return status, false
		}
		lastStatus = status
		ranLast = i == len(j.Pipelines)-1
	}
	// The -e option doesn't apply to pipelines on the left of && or ||.
	if ranLast && lastStatus != 0 && fm.options.has(errexit) {
		fm.exiting = true
		return lastStatus, false
	}
	return lastStatus, true
}

func shouldSkipAndOr(op string, lastStatus int) bool {
	return (op == "&&" && lastStatus != 0) || (op == "||" && lastStatus == 0)
}

func (fm *frame) pipeline(pp *parse.Pipeline) (int, bool) {
	if len(pp.Commands) == 1 {
		// Short path: run in the current frame, so that builtins like cd and
		// exit can affect the shell.
		status, ok := fm.command(pp.Commands[0])
		fm.pipestatus = []int{status}
		return status, ok
	}
	procs, ok := fm.launchPipeline(pp, &launchOpt{})
	if !ok {
		fm.pipestatus = nil
		return StatusPipeError, true
	}
	statuses, ok := fm.waitProcs(pp.Source(), procs)
	fm.pipestatus = statuses
	return statuses[len(statuses)-1], ok && !fm.fatal
}

// Options for launching processes.
type launchOpt struct {
	// Put external commands into their own process group.
	bg bool
	// Process group to put external commands into; 0 means a new group led
	// by the first process.
	pgid int
}

// Launches all stages of a pipeline, from left to right, without waiting for
// them. Each stage runs in a copy of the frame; external commands run as
// child processes, and the rest run as lightweight processes.
//
// Each pipe end is owned by exactly one stage, and gets closed as soon as
// the stage no longer needs it: immediately after spawning for external
// commands, or when the lightweight process finishes.
func (fm *frame) launchPipeline(pp *parse.Pipeline, opt *launchOpt) ([]process, bool) {
	n := len(pp.Commands)
	pipes := make([][2]*os.File, n-1)
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			// How to handle failure to create pipes is not covered by POSIX.
			// We write the error message to diagFile, but treat it as a
			// non-fatal error so that the script may recover from it.
			for j := 0; j < i; j++ {
				pipes[j][0].Close()
				pipes[j][1].Close()
			}
			fm.diag("unable to create pipe for pipeline: %v", err)
			return nil, false
		}
		pipes[i][0], pipes[i][1] = r, w
	}

	procs := make([]process, n)
	for i, c := range pp.Commands {
		stage := fm.cloneForSubshell()
		var owned []*os.File
		if i > 0 {
			stage.files[0] = pipes[i-1][0]
			owned = append(owned, pipes[i-1][0])
		}
		if i < n-1 {
			stage.files[1] = pipes[i][1]
			owned = append(owned, pipes[i][1])
		}
		var forked bool
		procs[i], forked = stage.launchStage(c, owned, opt)
		if !forked {
			// Stages already launched still get waited for.
			fm.fatal = true
		}
	}
	return procs, true
}

// Launches one stage of a pipeline. The boolean is false if the shell failed
// to fork.
func (fm *frame) launchStage(c *parse.Command, owned []*os.File, opt *launchOpt) (process, bool) {
	closeOwned := func() {
		for _, f := range owned {
			f.Close()
		}
	}
	data, ok := c.Data.(parse.Simple)
	if !ok {
		return fm.goLight(func() int {
			defer closeOwned()
			status, _ := fm.command(c)
			return status
		}), true
	}
	sc, status, ok := fm.prepareSimple(c, data)
	if !ok || status != 0 {
		closeOwned()
		return doneProcess(status), true
	}
	if len(sc.words) > 0 && !isBuiltin(sc.words[0]) {
		proc, status := fm.spawn(sc.words, sc.assigns, opt)
		sc.cleanup()
		closeOwned()
		if proc == nil {
			return doneProcess(status), !fm.fatal
		}
		return externalProcess{proc}, true
	}
	return fm.goLight(func() int {
		defer closeOwned()
		defer sc.cleanup()
		status, _ := fm.dispatchSimple(c, sc)
		return status
	}), true
}

func (fm *frame) command(c *parse.Command) (int, bool) {
	switch data := c.Data.(type) {
	case parse.Simple:
		return fm.runSimple(c, data)
	case parse.Subshell:
		sub := fm.cloneForSubshell()
		closers, status, ok := sub.redirs(c.Redirs)
		if !ok || status != 0 {
			return status, true
		}
		defer closeAll(closers)
		// Whatever happens in the subshell, including exit and fatal errors,
		// only terminates the subshell.
		status, _ = sub.script(data.Body)
		return status, true
	case parse.BraceGroup:
		files := fm.files
		fm.files = cloneSlice(files)
		defer func() { fm.files = files }()
		closers, status, ok := fm.redirs(c.Redirs)
		if !ok || status != 0 {
			return status, ok
		}
		defer closeAll(closers)
		return fm.script(data.Body)
	default:
		fm.diag("bug: unknown command type %T", c.Data)
		return StatusShellBug, false
	}
}

// A simple command after expansions and redirections.
type simpleCmd struct {
	words   []string
	assigns []assignment
	closers []*os.File
}

func (sc *simpleCmd) cleanup() { closeAll(sc.closers) }

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

func (fm *frame) runSimple(c *parse.Command, data parse.Simple) (int, bool) {
	// Redirections only apply for the duration of the command.
	files := fm.files
	fm.files = cloneSlice(files)
	defer func() { fm.files = files }()

	sc, status, ok := fm.prepareSimple(c, data)
	if !ok || status != 0 {
		return status, ok
	}
	defer sc.cleanup()
	return fm.dispatchSimple(c, sc)
}

// Performs expansions, redirections and expansions of the RHS of
// assignments, in the order specified in 2.9.1 Simple Commands. POSIX allows
// for redirections and assignments to swap position if the command is a
// special builtin, but we don't do that.
//
// On failure, any file opened for redirection is closed and the returned
// command is nil.
func (fm *frame) prepareSimple(c *parse.Command, data parse.Simple) (*simpleCmd, int, bool) {
	// See comment on the code path using this field.
	fm.lastCmdSubstStatus = 0

	words, ok := fm.expandCompounds(data.Words)
	if !ok {
		return nil, StatusExpansionError, false
	}
	closers, status, ok := fm.redirs(c.Redirs)
	if !ok || status != 0 {
		return nil, status, ok
	}
	assigns := make([]assignment, len(data.Assigns))
	for i, as := range data.Assigns {
		exp, ok := fm.compound(as.RHS)
		if !ok {
			closeAll(closers)
			return nil, StatusExpansionError, false
		}
		assigns[i] = assignment{as.LHS, exp.expandOneString()}
	}
	return &simpleCmd{words, assigns, closers}, 0, true
}

func isBuiltin(name string) bool {
	_, special := specialBuiltins[name]
	_, regular := builtins[name]
	return special || regular
}

func (fm *frame) dispatchSimple(c *parse.Command, sc *simpleCmd) (int, bool) {
	words := sc.words
	if len(words) == 0 {
		for _, a := range sc.assigns {
			if err := fm.SetVar(a.name, a.value); err != nil {
				fm.diag("%v", err)
				return StatusAssignmentError, false
			}
		}
		// 2.9.1 Simple Commands:
		//
		// If there is no command name, but the command contained a command
		// substitution, the command shall complete with the exit status of the
		// last command substitution performed. Otherwise, the command shall
		// complete with a zero exit status.
		return fm.lastCmdSubstStatus, true
	}

	if fm.options.has(xtrace) {
		fmt.Fprintln(fm.diagFile, "+", strings.Join(words, " "))
	}

	// The order of special builtin > non-special builtin > external is
	// specified in 2.9.1 Simple Commands.

	if builtin, ok := specialBuiltins[words[0]]; ok {
		// Assignments before special builtins persist.
		for _, a := range sc.assigns {
			if err := fm.SetVar(a.name, a.value); err != nil {
				fm.diag("%v", err)
				return StatusAssignmentError, false
			}
		}
		return builtin(fm, words[1:])
	}

	if builtin, ok := builtins[words[0]]; ok {
		restore, err := fm.tempAssign(sc.assigns)
		if err != nil {
			fm.diag("%v", err)
			return StatusAssignmentError, false
		}
		defer restore()
		// Job control builtins mark the frame fatal when waiting fails.
		return builtin(fm, words[1:]), !fm.fatal
	}

	proc, status := fm.spawn(words, sc.assigns, &launchOpt{})
	if proc == nil {
		return status, !fm.fatal
	}
	statuses, ok := fm.waitProcs(c.Source(), []process{externalProcess{proc}})
	return statuses[0], ok
}

// Launches a job in the background and adds it to the job table.
func (fm *frame) background(j *parse.Job) {
	text := strings.TrimSpace(j.Source()) + " &"
	var procs []process
	if len(j.Pipelines) == 1 {
		var ok bool
		procs, ok = fm.launchPipeline(j.Pipelines[0], &launchOpt{bg: true})
		if !ok {
			return
		}
	} else {
		// An and-or list runs as a whole in one lightweight process.
		sub := fm.cloneForSubshell()
		procs = []process{sub.goLight(func() int {
			status, _ := sub.job(j)
			return status
		})}
	}
	lastPid := 0
	for _, proc := range procs {
		if pid := proc.pid(); pid != 0 {
			lastPid = pid
		}
	}
	if lastPid != 0 {
		fm.lastBgPid = lastPid
	}
	job := fm.jobs.add(text, procs)
	if fm.options.has(monitor) {
		if lastPid != 0 {
			fmt.Fprintf(fm.diagFile, "[%d] %d\n", job.ID, lastPid)
		} else {
			fmt.Fprintf(fm.diagFile, "[%d]\n", job.ID)
		}
	}
}
