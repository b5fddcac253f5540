package eval

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"
)

// JobState is the state of a job in the job table.
type JobState int

const (
	// At least one process is neither finished nor stopped.
	Running JobState = iota
	// At least one process is stopped, and the rest are stopped or finished.
	Stopped
	// All processes have finished. This state is terminal.
	Done
)

var jobStateNames = [...]string{"Running", "Stopped", "Done"}

func (s JobState) String() string {
	if 0 <= s && int(s) < len(jobStateNames) {
		return jobStateNames[s]
	}
	return "JobState(" + strconv.Itoa(int(s)) + ")"
}

// Job is an entry of the job table.
type Job struct {
	ID    int
	Text  string
	State JobState
	procs []*jobProc
}

type jobProc struct {
	proc    process
	done    bool
	stopped bool
	status  int
}

// Records the result of a wait.
func (p *jobProc) record(res waitResult) {
	switch res.kind {
	case waitRunning:
	case waitStopped:
		p.stopped = true
	case waitContinued:
		p.stopped = false
	default:
		p.done = true
		p.status = res.status()
	}
}

// Line returns the line used to display the job in the output of jobs.
func (j *Job) Line() string {
	return fmt.Sprintf("[%d] %s %s", j.ID, j.State, j.Text)
}

// Status returns the exit status of the last process of the job.
func (j *Job) Status() int {
	if len(j.procs) == 0 {
		return 0
	}
	return j.procs[len(j.procs)-1].status
}

// Pids returns the process IDs of external commands in the job.
func (j *Job) Pids() []int {
	var pids []int
	for _, p := range j.procs {
		if pid := p.proc.pid(); pid != 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

// Updates the state of the job. When nohang is false, blocks until every
// process has either finished or stopped.
func (j *Job) update(nohang bool) error {
	if j.State == Done {
		return nil
	}
	for _, p := range j.procs {
		if p.done {
			continue
		}
		for {
			res, err := p.proc.wait(nohang)
			if err != nil {
				return err
			}
			p.record(res)
			if res.kind != waitContinued {
				break
			}
		}
	}
	j.updateState()
	return nil
}

func (j *Job) updateState() {
	if j.State == Done {
		return
	}
	allDone, anyStopped := true, false
	for _, p := range j.procs {
		if !p.done {
			allDone = false
			if p.stopped {
				anyStopped = true
			}
		}
	}
	switch {
	case allDone:
		j.State = Done
	case anyStopped:
		j.State = Stopped
	default:
		j.State = Running
	}
}

// Sends SIGCONT to all processes of the job that haven't finished. A stopped
// job becomes running; a running job is unaffected.
func (j *Job) cont() error {
	if j.State == Done {
		return nil
	}
	for _, p := range j.procs {
		if p.done {
			continue
		}
		if err := p.proc.signal(unix.SIGCONT); err != nil {
			return err
		}
		p.stopped = false
	}
	j.updateState()
	return nil
}

type jobTable struct {
	jobs []*Job
}

// Adds a running job. The ID is one more than the largest ID in use.
func (t *jobTable) add(text string, procs []process) *Job {
	id := 1
	for _, j := range t.jobs {
		if j.ID >= id {
			id = j.ID + 1
		}
	}
	j := &Job{ID: id, Text: text, State: Running}
	for _, proc := range procs {
		j.procs = append(j.procs, &jobProc{proc: proc})
	}
	t.jobs = append(t.jobs, j)
	return j
}

func (t *jobTable) find(id int) *Job {
	for _, j := range t.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// Finds the job containing the process with the given pid.
func (t *jobTable) findPid(pid int) *Job {
	for _, j := range t.jobs {
		for _, p := range j.procs {
			if p.proc.pid() == pid {
				return j
			}
		}
	}
	return nil
}

// The current job: the most recently added one that is not done, or the most
// recently added one if all are done.
func (t *jobTable) current() *Job {
	for i := len(t.jobs) - 1; i >= 0; i-- {
		if t.jobs[i].State != Done {
			return t.jobs[i]
		}
	}
	if len(t.jobs) > 0 {
		return t.jobs[len(t.jobs)-1]
	}
	return nil
}

func (t *jobTable) remove(j *Job) {
	for i, jj := range t.jobs {
		if jj == j {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			return
		}
	}
}

// Refreshes all jobs without blocking.
func (t *jobTable) refresh() error {
	for _, j := range t.jobs {
		if err := j.update(true); err != nil {
			return err
		}
	}
	return nil
}

// Removes all done jobs, returning them.
func (t *jobTable) reapDone() []*Job {
	var done []*Job
	kept := t.jobs[:0]
	for _, j := range t.jobs {
		if j.State == Done {
			done = append(done, j)
		} else {
			kept = append(kept, j)
		}
	}
	t.jobs = kept
	return done
}
