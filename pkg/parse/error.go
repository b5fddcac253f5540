package parse

import (
	"fmt"
	"strings"
)

// Status classifies the state of the feeder at the end of a parse.
type Status int

const (
	// The script was parsed completely.
	NormalEnd Status = iota
	// Unexpected text was found; this is a syntax error.
	UnexpectedSymbol
	// The input ended inside an unfinished construct. More input may complete
	// it.
	NeedMoreLine
)

var statusNames = [...]string{"NormalEnd", "UnexpectedSymbol", "NeedMoreLine"}

func (s Status) String() string {
	if 0 <= s && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Error struct {
	Errors []ErrorEntry
}

func (err Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v parse errors: ", len(err.Errors))
	for i, e := range err.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%v: %v", e.Position, e.Message)
	}
	return b.String()
}

type ErrorEntry struct {
	Position int
	Message  string
}
