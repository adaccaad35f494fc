package parser

import (
	"strconv"
	"strings"
)

// TypeName is one of the five LOLCODE type names.
type TypeName string

const (
	TypeNoob   TypeName = "NOOB"
	TypeTroof  TypeName = "TROOF"
	TypeNumbr  TypeName = "NUMBR"
	TypeNumbar TypeName = "NUMBAR"
	TypeYarn   TypeName = "YARN"
)

// Expr is an expression node. The set of implementations is closed.
type Expr interface {
	exprNode()
	String() string
}

// StringLit: "hello"
type StringLit struct {
	Value string
}

// IntLit: 42
type IntLit struct {
	Value int64
}

// FloatLit: 3.14
type FloatLit struct {
	Value float64
}

// BoolLit: WIN / FAIL
type BoolLit struct {
	Value bool
}

// TypeLit: NUMBR
type TypeLit struct {
	Type TypeName
}

// Ident: a variable reference
type Ident struct {
	Name string
}

// Arithmetic: SUM OF a AN b
type Arithmetic struct {
	Op    string
	Left  Expr
	Right Expr
}

// Comparison: BOTH SAEM a AN b
type Comparison struct {
	Op    string
	Left  Expr
	Right Expr
}

// Logical covers the binary BOTH OF / EITHER OF / WON OF forms and the
// n-ary ALL OF / ANY OF forms.
type Logical struct {
	Op       string
	Operands []Expr
}

// Unary: NOT a
type Unary struct {
	Op      string
	Operand Expr
}

// Concat: SMOOSH a AN b AN c
type Concat struct {
	Operands []Expr
}

// Cast: MAEK a A NUMBR
type Cast struct {
	Operand Expr
	Target  TypeName
}

func (*StringLit) exprNode()  {}
func (*IntLit) exprNode()     {}
func (*FloatLit) exprNode()   {}
func (*BoolLit) exprNode()    {}
func (*TypeLit) exprNode()    {}
func (*Ident) exprNode()      {}
func (*Arithmetic) exprNode() {}
func (*Comparison) exprNode() {}
func (*Logical) exprNode()    {}
func (*Unary) exprNode()      {}
func (*Concat) exprNode()     {}
func (*Cast) exprNode()       {}

func (e *StringLit) String() string { return strconv.Quote(e.Value) }
func (e *IntLit) String() string    { return strconv.FormatInt(e.Value, 10) }
func (e *FloatLit) String() string  { return strconv.FormatFloat(e.Value, 'f', -1, 64) }
func (e *TypeLit) String() string   { return string(e.Type) }
func (e *Ident) String() string     { return e.Name }

func (e *BoolLit) String() string {
	if e.Value {
		return "WIN"
	}
	return "FAIL"
}

func (e *Arithmetic) String() string { return e.Op + " " + e.Left.String() + " AN " + e.Right.String() }
func (e *Comparison) String() string { return e.Op + " " + e.Left.String() + " AN " + e.Right.String() }
func (e *Unary) String() string      { return e.Op + " " + e.Operand.String() }
func (e *Cast) String() string       { return "MAEK " + e.Operand.String() + " A " + string(e.Target) }

func (e *Logical) String() string {
	s := e.Op + " " + joinOperands(e.Operands)
	if IsVariadic(e.Op) {
		s += " MKAY"
	}
	return s
}

func (e *Concat) String() string { return "SMOOSH " + joinOperands(e.Operands) + " MKAY" }

func joinOperands(ops []Expr) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = op.String()
	}
	return strings.Join(parts, " AN ")
}

// IsVariadic reports whether a logical operator takes an operand list.
func IsVariadic(op string) bool {
	return op == "ALL OF" || op == "ANY OF"
}

// IsLiteral reports whether e is a literal node, as required for OMG labels.
func IsLiteral(e Expr) bool {
	switch e.(type) {
	case *StringLit, *IntLit, *FloatLit, *BoolLit, *TypeLit:
		return true
	}
	return false
}
