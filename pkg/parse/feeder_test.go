package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFeeder_Position(t *testing.T) {
	f := NewStringFeeder("ab\ncd\n")
	f.Feed("ef")
	for _, tc := range []struct{ offset, line, col int }{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 3, 2},
	} {
		line, col := f.Position(tc.offset)
		if line != tc.line || col != tc.col {
			t.Errorf("Position(%d) = %d:%d, want %d:%d",
				tc.offset, line, col, tc.line, tc.col)
		}
	}
}

func TestFeeder_Scanners(t *testing.T) {
	f := NewStringFeeder("  123abc_9 rest")
	if n := f.ScanBlanks(" "); n != 2 {
		t.Errorf("ScanBlanks = %d", n)
	}
	f.Consume(2)
	if n := f.ScanInteger(); n != 3 {
		t.Errorf("ScanInteger = %d", n)
	}
	if n := f.ScanName(); n != 0 {
		t.Errorf("ScanName on digit = %d", n)
	}
	f.Consume(3)
	if n := f.ScanName(); n != 5 {
		t.Errorf("ScanName = %d", n)
	}
	if s := f.ScanPrefixIn("x", "abc", "ab"); s != "abc" {
		t.Errorf("ScanPrefixIn = %q", s)
	}
}

func TestFeeder_Nest(t *testing.T) {
	f := NewFeeder(nil)
	if f.Nested() || f.ActiveClosers() != nil {
		t.Errorf("new feeder is nested")
	}
	f.PushNest("(", ")")
	f.PushNest("{", "}")
	if diff := cmp.Diff([]string{"}"}, f.ActiveClosers()); diff != "" {
		t.Errorf("closers (-want+got):\n%s", diff)
	}
	f.PopNest()
	f.PopNest()
	if f.Nested() {
		t.Errorf("feeder still nested")
	}
}

type errSource struct{ err error }

func (s errSource) ReadLine() (string, error) { return "", s.err }

func TestFeeder_FeedAdditionalLine(t *testing.T) {
	f := NewFeeder(NewReaderSource(strings.NewReader("a\nb")))
	var lines []string
	for f.FeedAdditionalLine() {
		lines = append(lines, f.Consume(f.Len()))
	}
	if diff := cmp.Diff([]string{"a\n", "b"}, lines); diff != "" {
		t.Errorf("lines (-want+got):\n%s", diff)
	}
	if f.Err() != nil {
		t.Errorf("got error %v", f.Err())
	}

	errBad := errors.New("bad")
	f = NewFeeder(errSource{errBad})
	if f.FeedAdditionalLine() {
		t.Errorf("FeedAdditionalLine succeeded")
	}
	if f.Err() != errBad {
		t.Errorf("got error %v, want %v", f.Err(), errBad)
	}
}
