package arith

import (
	"strconv"
	"strings"
)

// Value is the result of an arithmetic expression: either an integer or a
// floating-point number.
type Value struct {
	isFloat bool
	i       int64
	f       float64
}

func Int(i int64) Value     { return Value{i: i} }
func Float(f float64) Value { return Value{isFloat: true, f: f} }

func (v Value) IsFloat() bool { return v.isFloat }

// Int returns the value as an integer, truncating floats.
func (v Value) Int() int64 {
	if v.isFloat {
		return int64(v.f)
	}
	return v.i
}

// Float returns the value as a floating-point number.
func (v Value) Float() float64 {
	if v.isFloat {
		return v.f
	}
	return float64(v.i)
}

func (v Value) truthy() bool {
	if v.isFloat {
		return v.f != 0
	}
	return v.i != 0
}

// String formats integers in decimal and floats in the shortest form that
// reads back as the same number.
func (v Value) String() string {
	if v.isFloat {
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	}
	return strconv.FormatInt(v.i, 10)
}

func boolValue(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Parses a number. We don't use strconv.ParseInt(s, 0, 64) in order to ensure
// consistency with how literals are parsed.
func parseNum(s string) (Value, bool) {
	var neg bool
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		s = s[1:]
		neg = true
	}
	if s == "" {
		return Value{}, false
	}

	if strings.ContainsRune(s, '.') {
		if strings.ContainsAny(s, "eEnN") {
			// Don't accept exponents, infinities or NaN.
			return Value{}, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if neg {
			f = -f
		}
		return Float(f), err == nil
	}

	var n int64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err = strconv.ParseInt(s[2:], 16, 64)
	} else if strings.HasPrefix(s, "0") {
		if s == "0" {
			// +0 and -0 are also just 0
			return Int(0), true
		}
		n, err = strconv.ParseInt(s[1:], 8, 64)
	} else {
		n, err = strconv.ParseInt(s, 10, 64)
	}
	if neg {
		n = -n
	}
	return Int(n), err == nil
}
