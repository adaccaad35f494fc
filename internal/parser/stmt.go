// internal/parser/stmt.go
package parser

import "strings"

// Stmt is a statement node. One source line yields at most one statement.
type Stmt interface {
	stmtNode()
	String() string
}

// ProgramStart: HAI [version]
type ProgramStart struct {
	Version string
}

// ProgramEnd: KTHXBYE
type ProgramEnd struct{}

// VarBlockStart: WAZZUP
type VarBlockStart struct{}

// VarBlockEnd: BUHBYE
type VarBlockEnd struct{}

// Declare: I HAS A name [ITZ expr], or name ITZ expr
type Declare struct {
	Name string
	Init Expr // nil when there is no initializer
}

// Assign: name R expr
type Assign struct {
	Name string
	Expr Expr
}

// Visible: VISIBLE expr [AN expr ...] [!]
type Visible struct {
	Exprs     []Expr
	NoNewline bool
}

// Gimmeh: GIMMEH name
type Gimmeh struct {
	Name string
}

// Recast: name IS NOW A type
type Recast struct {
	Name   string
	Target TypeName
}

// ExprStmt is a bare expression whose value is stored in IT.
type ExprStmt struct {
	Expr Expr
}

// IfStart: O RLY?
type IfStart struct{}

// Then: YA RLY
type Then struct{}

// ElseIf: MEBBE expr
type ElseIf struct {
	Cond Expr
}

// Else: NO WAI
type Else struct{}

// IfEnd: OIC closing an O RLY? block
type IfEnd struct{}

// SwitchStart: WTF? [expr]. A nil Subject switches on IT.
type SwitchStart struct {
	Subject Expr
}

// Case: OMG literal
type Case struct {
	Value Expr
}

// DefaultCase: OMGWTF
type DefaultCase struct{}

// SwitchEnd: OIC closing a WTF? block
type SwitchEnd struct{}

// Break: GTFO
type Break struct{}

// StepDirection is the loop variable update applied after every iteration.
type StepDirection int

const (
	StepNone StepDirection = iota
	StepUp                 // UPPIN YR
	StepDown               // NERFIN YR
)

// LoopMode selects how the loop condition is read.
type LoopMode int

const (
	LoopForever LoopMode = iota // no condition: continue while IT is truthy
	LoopWhile                   // WILE: continue while truthy
	LoopUntil                   // TIL: continue while falsy
)

// LoopStart: IM IN YR label [UPPIN YR|NERFIN YR var] [WILE|TIL expr]
type LoopStart struct {
	Label string
	Step  StepDirection
	Var   string
	Mode  LoopMode
	Cond  Expr
}

// LoopEnd: IM OUTTA YR label
type LoopEnd struct {
	Label string
}

func (*ProgramStart) stmtNode()  {}
func (*ProgramEnd) stmtNode()    {}
func (*VarBlockStart) stmtNode() {}
func (*VarBlockEnd) stmtNode()   {}
func (*Declare) stmtNode()       {}
func (*Assign) stmtNode()        {}
func (*Visible) stmtNode()       {}
func (*Gimmeh) stmtNode()        {}
func (*Recast) stmtNode()        {}
func (*ExprStmt) stmtNode()      {}
func (*IfStart) stmtNode()       {}
func (*Then) stmtNode()          {}
func (*ElseIf) stmtNode()        {}
func (*Else) stmtNode()          {}
func (*IfEnd) stmtNode()         {}
func (*SwitchStart) stmtNode()   {}
func (*Case) stmtNode()          {}
func (*DefaultCase) stmtNode()   {}
func (*SwitchEnd) stmtNode()     {}
func (*Break) stmtNode()         {}
func (*LoopStart) stmtNode()     {}
func (*LoopEnd) stmtNode()       {}

func (s *ProgramStart) String() string {
	if s.Version != "" {
		return "HAI " + s.Version
	}
	return "HAI"
}

func (*ProgramEnd) String() string    { return "KTHXBYE" }
func (*VarBlockStart) String() string { return "WAZZUP" }
func (*VarBlockEnd) String() string   { return "BUHBYE" }

func (s *Declare) String() string {
	if s.Init == nil {
		return "I HAS A " + s.Name
	}
	return "I HAS A " + s.Name + " ITZ " + s.Init.String()
}

func (s *Assign) String() string { return s.Name + " R " + s.Expr.String() }

func (s *Visible) String() string {
	out := "VISIBLE " + joinOperands(s.Exprs)
	if s.NoNewline {
		out += "!"
	}
	return out
}

func (s *Gimmeh) String() string   { return "GIMMEH " + s.Name }
func (s *Recast) String() string   { return s.Name + " IS NOW A " + string(s.Target) }
func (s *ExprStmt) String() string { return s.Expr.String() }
func (*IfStart) String() string    { return "O RLY?" }
func (*Then) String() string       { return "YA RLY" }
func (s *ElseIf) String() string   { return "MEBBE " + s.Cond.String() }
func (*Else) String() string       { return "NO WAI" }
func (*IfEnd) String() string      { return "OIC" }

func (s *SwitchStart) String() string {
	if s.Subject == nil {
		return "WTF?"
	}
	return "WTF? " + s.Subject.String()
}

func (s *Case) String() string      { return "OMG " + s.Value.String() }
func (*DefaultCase) String() string { return "OMGWTF" }
func (*SwitchEnd) String() string   { return "OIC" }
func (*Break) String() string       { return "GTFO" }

func (s *LoopStart) String() string {
	parts := []string{"IM IN YR", s.Label}
	switch s.Step {
	case StepUp:
		parts = append(parts, "UPPIN YR", s.Var)
	case StepDown:
		parts = append(parts, "NERFIN YR", s.Var)
	}
	switch s.Mode {
	case LoopWhile:
		parts = append(parts, "WILE", s.Cond.String())
	case LoopUntil:
		parts = append(parts, "TIL", s.Cond.String())
	}
	return strings.Join(parts, " ")
}

func (s *LoopEnd) String() string { return "IM OUTTA YR " + s.Label }
