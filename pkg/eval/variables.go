package eval

import (
	"os"
	"strconv"
	"strings"
)

// Name of the variable holding the exit status of the last pipeline. It is
// stored as a regular entry of the variable table.
const statusVar = "?"

// Name of the variable holding the statuses of all stages of the last
// pipeline, separated by spaces.
const pipestatusVar = "PIPESTATUS"

type variables struct {
	values map[string]string
	// Whether a variable is exported or readonly are independent of whether it
	// is set, so we keep those attributes in separate maps.
	exported set[string]
	readonly set[string]
}

func initVariablesFromEnv(entries []string) variables {
	v := variables{
		values:   make(map[string]string, len(entries)),
		exported: make(set[string], len(entries)),
		readonly: make(set[string]),
	}
	for _, entry := range entries {
		// Note: Treat "foo" like "foo=" if such entries ever occur.
		name, value, _ := strings.Cut(entry, "=")
		v.values[name] = value
		v.exported.add(name)
	}
	v.values["PPID"] = strconv.Itoa(os.Getppid())
	v.values[statusVar] = "0"
	v.exported.add("PWD")
	return v
}

// Serializes exported variables into environment entries, with the
// assignments given as extra appended. Later entries win in the child.
func (v variables) serializeEnvEntries(extra []assignment) []string {
	entries := make([]string, 0, len(v.exported)+len(extra))
	for name := range v.exported {
		if value, ok := v.values[name]; ok {
			// Only variables that are both set and exported are exported to the
			// environment of child processes.
			entries = append(entries, name+"="+value)
		}
	}
	for _, a := range extra {
		entries = append(entries, a.name+"="+a.value)
	}
	return entries
}

func (v variables) clone() variables {
	return variables{cloneMap(v.values), cloneMap(v.exported), cloneMap(v.readonly)}
}

// Reports whether name is a valid name for a normal variable.
func isName(name string) bool {
	if name == "" || ('0' <= name[0] && name[0] <= '9') {
		return false
	}
	for _, r := range name {
		if !(r == '_' || '0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}

// These are methods on [*frame] rather than [variables] because the behavior
// of setting variable depends on the [allexport] option.

type unsetError struct{ name string }

func (err unsetError) Error() string { return err.name + ": parameter not set" }

func (fm *frame) GetVar(name string) (string, error) {
	value, ok := fm.variables.values[name]
	if !ok && fm.options.has(nounset) {
		return value, unsetError{name}
	}
	return value, nil
}

type readonlyError struct{ name string }

func (err readonlyError) Error() string { return err.name + ": is read only" }

func (fm *frame) SetVar(name, value string) error {
	if fm.variables.readonly.has(name) {
		return readonlyError{name}
	}
	if fm.options.has(allexport) {
		fm.variables.exported.add(name)
	}
	fm.variables.values[name] = value
	return nil
}

func (fm *frame) UnsetVar(name string) error {
	if fm.variables.readonly.has(name) {
		return readonlyError{name}
	}
	delete(fm.variables.values, name)
	return nil
}

// Sets $? and $PIPESTATUS.
func (fm *frame) setStatus(status int) {
	fm.variables.values[statusVar] = strconv.Itoa(status)
	statuses := fm.pipestatus
	if len(statuses) == 0 {
		statuses = []int{status}
	}
	fm.variables.values[pipestatusVar] = strings.Join(each(strconv.Itoa, statuses), " ")
}

func (fm *frame) status() int {
	status, _ := strconv.Atoi(fm.variables.values[statusVar])
	return status
}

// A prefix assignment of a simple command, after expansion.
type assignment struct {
	name, value string
}

// Applies assignments temporarily, for the duration of a builtin. The returned
// function restores the previous values.
func (fm *frame) tempAssign(assigns []assignment) (func(), error) {
	type saved struct {
		value string
		set   bool
	}
	olds := make(map[string]saved, len(assigns))
	restore := func() {
		for name, old := range olds {
			if old.set {
				fm.variables.values[name] = old.value
			} else {
				delete(fm.variables.values, name)
			}
		}
	}
	for _, a := range assigns {
		if _, ok := olds[a.name]; !ok {
			value, set := fm.variables.values[a.name]
			olds[a.name] = saved{value, set}
		}
		if err := fm.SetVar(a.name, a.value); err != nil {
			restore()
			return nil, err
		}
	}
	return restore, nil
}

// Adapts a frame to the variable table used by arithmetic expressions.
type arithVars struct{ fm *frame }

func (av arithVars) Get(name string) (string, bool) {
	value, ok := av.fm.variables.values[name]
	return value, ok
}

func (av arithVars) Set(name, value string) error {
	return av.fm.SetVar(name, value)
}
