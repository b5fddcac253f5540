package arith

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var evalTests = []struct {
	expr string
	vars map[string]string
	want string
	// Variables after evaluation, if checked.
	wantVars map[string]string
}{
	{expr: "3+4*2", want: "11"},
	{expr: "(1+2)*3", want: "9"},
	{expr: "1.5+2.5", want: "4"},
	{expr: "1?2:3", want: "2"},
	{expr: "0?2:3", want: "3"},
	{expr: "-5", want: "-5"},
	{expr: "--5", want: "5"},
	{expr: "2.0**-1", want: "0.5"},
	{expr: "2 ** 3 ** 2", want: "512"},
	{expr: "-2 ** 2", want: "4"},
	{expr: "7 - 2 - 1", want: "4"},
	{expr: "17 % 5 + 0x10 + 010", want: "26"},
	{expr: "1 << 4 | 1", want: "17"},
	{expr: "6 & 3 ^ 1", want: "3"},
	{expr: "~0", want: "-1"},
	{expr: "!0 + !7", want: "1"},
	{expr: "1 < 2 && 2 <= 2 && 3 > 2 && 2 >= 3", want: "0"},
	{expr: "0 || 2 == 2", want: "1"},
	{expr: "1 != 1.0", want: "0"},
	{expr: "7 / 2", want: "3"},
	{expr: "7 / 2.0", want: "3.5"},
	{expr: "", want: "0"},
	{expr: "1, ", want: "0"},
	{expr: "(1, 2) + 1", want: "3"},
	{expr: "1 ? 2, 3 : 4", want: "3"},
	{expr: "1 ? 0 ? 5 : 6 : 7", want: "6"},
	{expr: "a + b", vars: map[string]string{"a": "3", "b": "1.5"}, want: "4.5"},
	{expr: "unset + 1", want: "1"},
	{
		expr:     "x = 5, y = x + 1",
		want:     "6",
		wantVars: map[string]string{"x": "5", "y": "6"},
	},
	{
		expr:     "a = b = 3",
		want:     "3",
		wantVars: map[string]string{"a": "3", "b": "3"},
	},
	{
		expr:     "x += 2, x *= 3",
		vars:     map[string]string{"x": "1"},
		want:     "9",
		wantVars: map[string]string{"x": "9"},
	},
	{
		expr:     "x++ + x",
		vars:     map[string]string{"x": "1"},
		want:     "3",
		wantVars: map[string]string{"x": "2"},
	},
	{
		expr:     "++x * 10",
		vars:     map[string]string{"x": "1"},
		want:     "20",
		wantVars: map[string]string{"x": "2"},
	},
	{
		expr:     "x--",
		vars:     map[string]string{"x": "1.5"},
		want:     "1.5",
		wantVars: map[string]string{"x": "0.5"},
	},
	{
		expr:     "c ? (y = 1) : (y = 2)",
		vars:     map[string]string{"c": "0"},
		want:     "2",
		wantVars: map[string]string{"c": "0", "y": "2"},
	},
}

func TestEval(t *testing.T) {
	for _, test := range evalTests {
		vars := MapVariables{}
		for k, v := range test.vars {
			vars[k] = v
		}
		got, err := Eval(test.expr, vars)
		if err != nil {
			t.Errorf("Eval(%q) -> error %v", test.expr, err)
			continue
		}
		if got.String() != test.want {
			t.Errorf("Eval(%q) -> %v, want %v", test.expr, got, test.want)
		}
		if test.wantVars != nil {
			if diff := cmp.Diff(test.wantVars, map[string]string(vars)); diff != "" {
				t.Errorf("Eval(%q) variables (-want+got):\n%s", test.expr, diff)
			}
		}
	}
}

func TestEval_ValueTypes(t *testing.T) {
	v, _ := Eval("1.5+2.5", MapVariables{})
	if !v.IsFloat() || v.Float() != 4 {
		t.Errorf("got %#v, want float 4", v)
	}
	v, _ = Eval("3+4*2", MapVariables{})
	if v.IsFloat() || v.Int() != 11 {
		t.Errorf("got %#v, want int 11", v)
	}
}

func TestEval_Errors(t *testing.T) {
	for _, test := range []struct {
		expr  string
		vars  map[string]string
		check func(error) bool
	}{
		{"10/0", nil, is(ErrDivideByZero)},
		{"10%0", nil, is(ErrDivideByZero)},
		{"1.5/0", nil, is(ErrDivideByZero)},
		{"x /= 0", nil, is(ErrDivideByZero)},
		{"2**-1", nil, as[*NegativeExponentError]},
		{"~1.5", nil, as[*OperandTypeError]},
		{"!1.5", nil, as[*OperandTypeError]},
		{"1.5 % 2", nil, as[*OperandTypeError]},
		{"1 << 0.5", nil, as[*OperandTypeError]},
		{"x + 1", map[string]string{"x": "abc"}, as[*NotANumberError]},
		{"1 +", nil, as[*SyntaxError]},
		{"(1 + 2", nil, as[*SyntaxError]},
		{"1 + 2)", nil, as[*SyntaxError]},
		{"1 2", nil, as[*SyntaxError]},
		{"5 = 3", nil, as[*SyntaxError]},
		{"a + b = 3", nil, as[*SyntaxError]},
		{"5++", nil, as[*SyntaxError]},
		{"1 ? 2", nil, as[*SyntaxError]},
		{"1 @ 2", nil, as[*SyntaxError]},
		{"09", nil, as[*SyntaxError]},
	} {
		vars := MapVariables{}
		for k, v := range test.vars {
			vars[k] = v
		}
		_, err := Eval(test.expr, vars)
		if err == nil || !test.check(err) {
			t.Errorf("Eval(%q) -> error %v (%T)", test.expr, err, err)
		}
	}
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

type readonlyVars struct{ MapVariables }

var errReadonly = errors.New("readonly")

func (readonlyVars) Set(string, string) error { return errReadonly }

func TestEval_SetError(t *testing.T) {
	_, err := Eval("x = 1", readonlyVars{MapVariables{}})
	if !errors.Is(err, errReadonly) {
		t.Errorf("got error %v, want %v", err, errReadonly)
	}
}
