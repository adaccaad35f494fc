package interpreter

import (
	"fmt"
	"strings"

	"lolcode/internal/parser"
)

func (in *Interpreter) eval(e parser.Expr, line parser.Line) Value {
	switch e := e.(type) {
	case *parser.StringLit:
		return StringValue(e.Value)
	case *parser.IntLit:
		return IntValue(e.Value)
	case *parser.FloatLit:
		return FloatValue(e.Value)
	case *parser.BoolLit:
		return BoolValue(e.Value)
	case *parser.TypeLit:
		return StringValue(string(e.Type))
	case *parser.Ident:
		v, ok := in.env.Get(e.Name)
		if !ok {
			in.undeclared(line, e.Name)
			return NoobValue()
		}
		return v
	case *parser.Arithmetic:
		return in.arithmetic(e.Op, in.eval(e.Left, line), in.eval(e.Right, line), line)
	case *parser.Comparison:
		return compare(e.Op, in.eval(e.Left, line), in.eval(e.Right, line))
	case *parser.Logical:
		vals := make([]bool, len(e.Operands))
		for i, op := range e.Operands {
			vals[i] = in.eval(op, line).Truthy()
		}
		return BoolValue(logical(e.Op, vals))
	case *parser.Unary:
		return BoolValue(!in.eval(e.Operand, line).Truthy())
	case *parser.Concat:
		var sb strings.Builder
		for _, op := range e.Operands {
			sb.WriteString(in.eval(op, line).String())
		}
		return StringValue(sb.String())
	case *parser.Cast:
		return Cast(in.eval(e.Operand, line), e.Target)
	}
	panic(fmt.Sprintf("unhandled expression %T", e))
}

func (in *Interpreter) arithmetic(op string, left, right Value, line parser.Line) Value {
	a, b := ToNumber(left), ToNumber(right)

	if a.Kind() == Numbr && b.Kind() == Numbr {
		x, y := a.Int(), b.Int()
		switch op {
		case "SUM OF":
			return IntValue(x + y)
		case "DIFF OF":
			return IntValue(x - y)
		case "PRODUKT OF":
			return IntValue(x * y)
		case "QUOSHUNT OF":
			if y == 0 {
				return in.divisionByZero(op, line)
			}
			return IntValue(floorDiv(x, y))
		case "MOD OF":
			if y == 0 {
				return in.divisionByZero(op, line)
			}
			return IntValue(floorMod(x, y))
		}
		panic("unknown arithmetic operator " + op)
	}

	x, y := asFloat(a), asFloat(b)
	switch op {
	case "SUM OF":
		return FloatValue(x + y)
	case "DIFF OF":
		return FloatValue(x - y)
	case "PRODUKT OF":
		return FloatValue(x * y)
	case "QUOSHUNT OF":
		if y == 0 {
			return in.divisionByZero(op, line)
		}
		return FloatValue(x / y)
	case "MOD OF":
		if y == 0 {
			return in.divisionByZero(op, line)
		}
		return FloatValue(floorModFloat(x, y))
	}
	panic("unknown arithmetic operator " + op)
}

func (in *Interpreter) divisionByZero(op string, line parser.Line) Value {
	if op == "MOD OF" {
		in.semantic(line, "modulo by zero")
	} else {
		in.semantic(line, "division by zero")
	}
	return IntValue(0)
}

func compare(op string, left, right Value) Value {
	switch op {
	case "BOTH SAEM":
		return BoolValue(Equal(left, right))
	case "DIFFRINT":
		return BoolValue(!Equal(left, right))
	}

	bigger := op == "BIGGR OF"
	a, b := ToNumber(left), ToNumber(right)
	if a.Kind() == Numbr && b.Kind() == Numbr {
		return IntValue(pick(a.Int(), b.Int(), bigger))
	}
	return FloatValue(pick(asFloat(a), asFloat(b), bigger))
}

func logical(op string, vals []bool) bool {
	switch op {
	case "BOTH OF", "ALL OF":
		for _, v := range vals {
			if !v {
				return false
			}
		}
		return true
	case "EITHER OF", "ANY OF":
		for _, v := range vals {
			if v {
				return true
			}
		}
		return false
	case "WON OF":
		odd := false
		for _, v := range vals {
			odd = odd != v
		}
		return odd
	}
	panic("unknown logical operator " + op)
}
