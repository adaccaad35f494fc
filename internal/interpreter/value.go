package interpreter

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"

	"lolcode/internal/parser"
)

// Kind is the dynamic type of a Value.
type Kind int

const (
	Noob Kind = iota
	Troof
	Numbr
	Numbar
	Yarn
)

func (k Kind) String() string {
	switch k {
	case Troof:
		return string(parser.TypeTroof)
	case Numbr:
		return string(parser.TypeNumbr)
	case Numbar:
		return string(parser.TypeNumbar)
	case Yarn:
		return string(parser.TypeYarn)
	}
	return string(parser.TypeNoob)
}

// Value is a LOLCODE runtime value. The zero Value is NOOB. Values are
// comparable with ==, which is the equality used by WTF? case matching.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

func NoobValue() Value           { return Value{} }
func BoolValue(b bool) Value     { return Value{kind: Troof, b: b} }
func IntValue(i int64) Value     { return Value{kind: Numbr, i: i} }
func FloatValue(f float64) Value { return Value{kind: Numbar, f: f} }
func StringValue(s string) Value { return Value{kind: Yarn, s: s} }

func (v Value) Kind() Kind { return v.kind }

// Bool, Int, Float and Str return the payload for the matching kind.
func (v Value) Bool() bool     { return v.b }
func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Str() string    { return v.s }

// String formats the value the way VISIBLE prints it.
func (v Value) String() string {
	switch v.kind {
	case Troof:
		if v.b {
			return "WIN"
		}
		return "FAIL"
	case Numbr:
		return strconv.FormatInt(v.i, 10)
	case Numbar:
		return formatFloat(v.f)
	case Yarn:
		return v.s
	}
	return "NOOB"
}

// GoString is used by pretty-printers and test diffs.
func (v Value) GoString() string {
	if v.kind == Yarn {
		return "YARN(" + strconv.Quote(v.s) + ")"
	}
	return v.kind.String() + "(" + v.String() + ")"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy applies the TROOF coercion. The YARN "FAIL" is false in any case.
func (v Value) Truthy() bool {
	switch v.kind {
	case Troof:
		return v.b
	case Numbr:
		return v.i != 0
	case Numbar:
		return v.f != 0
	case Yarn:
		return v.s != "" && !strings.EqualFold(v.s, "FAIL")
	}
	return false
}

// ToNumber coerces v to NUMBR or NUMBAR. Unparsable YARNs become 0.
func ToNumber(v Value) Value {
	switch v.kind {
	case Troof:
		if v.b {
			return IntValue(1)
		}
		return IntValue(0)
	case Numbr, Numbar:
		return v
	case Yarn:
		s := strings.TrimSpace(v.s)
		if strings.Contains(s, ".") {
			if f, err := strconv.ParseFloat(s, 64); err == nil && numericPattern.MatchString(s) {
				return FloatValue(f)
			}
			return IntValue(0)
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(i)
		}
		return IntValue(0)
	}
	return IntValue(0)
}

var numericPattern = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// numeric reports whether v is a number or a YARN that is entirely a
// number, and returns it coerced.
func numeric(v Value) (Value, bool) {
	switch v.kind {
	case Numbr, Numbar:
		return v, true
	case Yarn:
		return parseNumber(strings.TrimSpace(v.s))
	}
	return Value{}, false
}

func parseNumber(s string) (Value, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), true
	}
	if !numericPattern.MatchString(s) {
		return Value{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(f), true
	}
	return Value{}, false
}

// ParseInput turns one line of user input into a value: WIN/FAIL, then an
// integer, then a float, otherwise a YARN.
func ParseInput(raw string) Value {
	s := strings.TrimSpace(raw)
	switch s {
	case "WIN":
		return BoolValue(true)
	case "FAIL":
		return BoolValue(false)
	}
	if v, ok := parseNumber(s); ok {
		return v
	}
	return StringValue(s)
}

func asFloat(v Value) float64 {
	if v.kind == Numbr {
		return float64(v.i)
	}
	return v.f
}

// Cast converts v to the named type.
func Cast(v Value, target parser.TypeName) Value {
	switch target {
	case parser.TypeTroof:
		return BoolValue(v.Truthy())
	case parser.TypeNumbr:
		n := ToNumber(v)
		if n.kind == Numbar {
			return IntValue(truncate(n.f))
		}
		return n
	case parser.TypeNumbar:
		return FloatValue(asFloat(ToNumber(v)))
	case parser.TypeYarn:
		return StringValue(v.String())
	}
	return NoobValue()
}

func truncate(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	return int64(math.Trunc(f))
}

// Equal is BOTH SAEM: numeric when both sides look numeric, raw otherwise.
func Equal(a, b Value) bool {
	na, okA := numeric(a)
	nb, okB := numeric(b)
	if okA && okB {
		if na.kind == Numbr && nb.kind == Numbr {
			return na.i == nb.i
		}
		return asFloat(na) == asFloat(nb)
	}
	return a == b
}

func floorDiv[T constraints.Integer](a, b T) T {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod[T constraints.Integer](a, b T) T {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func floorModFloat[T constraints.Float](a, b T) T {
	m := T(math.Mod(float64(a), float64(b)))
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func pick[T constraints.Ordered](a, b T, bigger bool) T {
	if (a > b) == bigger {
		return a
	}
	return b
}
