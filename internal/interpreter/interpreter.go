package interpreter

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"lolcode/internal/errors"
	"lolcode/internal/parser"
)

// DefaultMaxIterations bounds the body runs of a single loop.
const DefaultMaxIterations = 10000

var (
	ErrNotSuspended     = pkgerrors.New("run is not suspended")
	ErrContinuationUsed = pkgerrors.New("continuation has already been resumed")
)

type Options struct {
	// MaxIterations is the loop ceiling. Zero means DefaultMaxIterations.
	MaxIterations int
	// Inputs are consumed in order by GIMMEH before the run suspends.
	Inputs []string
	// Debug attaches a stack trace to internal failures.
	Debug bool
	// Lenient runs the statements that parsed even when the program has
	// diagnostics. They are reported ahead of any runtime errors.
	Lenient bool
}

type Status int

const (
	StatusCompleted Status = iota
	StatusSuspended        // waiting on GIMMEH
	StatusRejected         // the program had diagnostics and never ran (unless Lenient)
	StatusAborted          // an internal failure stopped the run
)

func (s Status) String() string {
	switch s {
	case StatusSuspended:
		return "suspended"
	case StatusRejected:
		return "rejected"
	case StatusAborted:
		return "aborted"
	}
	return "completed"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Result is the state of a run when it completes or suspends.
type Result struct {
	RunID     string
	Status    Status
	Output    []string
	Pending   string // text held back by VISIBLE ... !
	Variables []Binding
	IT        Value
	Errors    []*errors.LolError
	// Statements counts the statements executed so far in this run.
	Statements int
	// Continuation is set only when Status is StatusSuspended.
	Continuation *Continuation
}

// Continuation resumes a run suspended on GIMMEH. It may be used once.
type Continuation struct {
	in   *Interpreter
	gen  int
	used bool

	// Prompt is the variable GIMMEH is reading into.
	Prompt string
	Line   int
}

// Resume stores input into the waiting variable and continues the run from
// the statement after the GIMMEH.
func (c *Continuation) Resume(input string) (*Result, error) {
	if c.used {
		return nil, ErrContinuationUsed
	}
	c.used = true
	if c.gen != c.in.gen || c.in.waiting == nil {
		return nil, ErrNotSuspended
	}
	return c.in.resume(input), nil
}

type frameKind int

const (
	rootFrame frameKind = iota
	ifArm
	switchArm
	loopBody
)

// frame is one range of statements being executed. Nested blocks push a
// frame; leaving it hands control back to the parent at after.
type frame struct {
	kind  frameKind
	pc    int
	end   int
	after int

	loop   *parser.LoopStart
	origin parser.Line
	start  int
	runs   int
}

// Interpreter executes an assembled program.
type Interpreter struct {
	prog  *parser.Program
	lines []parser.Line
	opts  Options

	id      string
	gen     int
	env     *Environment
	inputs  []string
	output  []string
	held    string
	holding bool
	errs    []*errors.LolError
	frames  []*frame
	ends    map[int]int
	current parser.Line
	waiting *parser.Gimmeh
	steps   int
}

func New(prog *parser.Program, opts Options) *Interpreter {
	return &Interpreter{
		prog:  prog,
		lines: prog.Statements(),
		opts:  opts,
	}
}

// Run starts a fresh run. Any continuation from an earlier run is invalidated.
func (in *Interpreter) Run() *Result {
	in.reset()
	if len(in.prog.Errors) > 0 {
		in.errs = append(in.errs, in.prog.Errors...)
		if !in.opts.Lenient {
			return in.result(StatusRejected)
		}
	}
	return in.drive()
}

func (in *Interpreter) reset() {
	in.gen++
	in.id = uuid.NewString()
	in.env = NewEnvironment()
	in.inputs = append([]string(nil), in.opts.Inputs...)
	in.output = nil
	in.held, in.holding = "", false
	in.errs = nil
	in.frames = []*frame{{kind: rootFrame, end: len(in.lines)}}
	in.ends = make(map[int]int)
	in.current = parser.Line{}
	in.waiting = nil
	in.steps = 0
}

func (in *Interpreter) resume(input string) *Result {
	in.receive(in.waiting, input)
	in.waiting = nil
	in.top().pc++
	return in.drive()
}

func (in *Interpreter) drive() (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			in.abort(r)
			res = in.result(StatusAborted)
		}
	}()

	in.exec()
	if in.waiting != nil {
		res = in.result(StatusSuspended)
		res.Continuation = &Continuation{
			in:     in,
			gen:    in.gen,
			Prompt: in.waiting.Name,
			Line:   in.current.Number,
		}
		return res
	}
	if in.holding {
		in.output = append(in.output, in.held)
		in.held, in.holding = "", false
	}
	return in.result(StatusCompleted)
}

func (in *Interpreter) abort(r interface{}) {
	cause := pkgerrors.Errorf("%v", r)
	msg := fmt.Sprintf("internal error: %v", r)
	if in.opts.Debug {
		msg = fmt.Sprintf("%s\n%+v", msg, cause)
	}
	e := errors.NewRuntimeError(msg, in.current.Number, column(in.current)).CausedBy(cause)
	in.errs = append(in.errs, e)
	in.frames = nil
	in.waiting = nil
}

func (in *Interpreter) result(status Status) *Result {
	res := &Result{
		RunID:      in.id,
		Status:     status,
		Output:     append([]string(nil), in.output...),
		Pending:    in.held,
		Errors:     append([]*errors.LolError(nil), in.errs...),
		Statements: in.steps,
	}
	if in.env != nil {
		res.Variables = in.env.Snapshot()
		res.IT = in.env.IT()
	}
	return res
}

func (in *Interpreter) top() *frame { return in.frames[len(in.frames)-1] }

func (in *Interpreter) exec() {
	for len(in.frames) > 0 {
		f := in.top()
		if f.pc >= f.end {
			in.leave(f)
			continue
		}
		if in.step(f, in.lines[f.pc]) {
			return
		}
	}
}

// step executes one statement. It returns true when the run suspends.
func (in *Interpreter) step(f *frame, line parser.Line) bool {
	in.current = line
	in.steps++

	switch s := line.Stmt.(type) {
	case *parser.Declare:
		v := NoobValue()
		if s.Init != nil {
			v = in.eval(s.Init, line)
		}
		in.env.Set(s.Name, v)

	case *parser.Assign:
		v := in.eval(s.Expr, line)
		if !in.env.Has(s.Name) {
			in.undeclared(line, s.Name)
		}
		in.env.Set(s.Name, v)

	case *parser.Recast:
		v, ok := in.env.Get(s.Name)
		if !ok {
			in.undeclared(line, s.Name)
		}
		in.env.Set(s.Name, Cast(v, s.Target))

	case *parser.ExprStmt:
		in.env.SetIT(in.eval(s.Expr, line))

	case *parser.Visible:
		var sb strings.Builder
		for _, e := range s.Exprs {
			sb.WriteString(in.eval(e, line).String())
		}
		text := sb.String()
		in.print(text, s.NoNewline)
		in.env.SetIT(StringValue(text))

	case *parser.Gimmeh:
		if len(in.inputs) == 0 {
			in.waiting = s
			return true
		}
		in.receive(s, in.inputs[0])
		in.inputs = in.inputs[1:]

	case *parser.IfStart:
		in.enterIf(f, line)
		return false

	case *parser.SwitchStart:
		in.enterSwitch(f, s, line)
		return false

	case *parser.LoopStart:
		in.enterLoop(f, s, line)
		return false

	case *parser.Break:
		if in.breakOut() {
			return false
		}
		in.semantic(line, "GTFO outside of a loop or WTF? block")

	case *parser.ProgramEnd:
		if f.kind == rootFrame {
			f.pc = f.end
			return false
		}
	}

	f.pc++
	return false
}

func (in *Interpreter) print(text string, noNewline bool) {
	if noNewline {
		in.held += text
		in.holding = true
		return
	}
	in.output = append(in.output, in.held+text)
	in.held, in.holding = "", false
}

func (in *Interpreter) receive(s *parser.Gimmeh, raw string) {
	in.env.Set(s.Name, ParseInput(raw))
}

// leave pops f once its range is exhausted. A loop frame is pushed back
// for another run when its condition still holds.
func (in *Interpreter) leave(f *frame) {
	in.frames = in.frames[:len(in.frames)-1]
	if f.kind == rootFrame {
		return
	}
	parent := in.top()
	if f.kind != loopBody {
		parent.pc = f.after
		return
	}

	f.runs++
	in.advanceLoopVar(f.loop)
	if !in.loopContinues(f.loop, f.origin) {
		parent.pc = f.after
		return
	}
	if f.runs >= in.maxIterations() {
		in.semantic(f.origin, "loop '%s' exceeded %s iterations", f.loop.Label, humanize.Comma(int64(in.maxIterations())))
		parent.pc = f.after
		return
	}
	f.pc = f.start
	in.frames = append(in.frames, f)
}

// breakOut unwinds to the innermost loop or switch arm.
func (in *Interpreter) breakOut() bool {
	for i := len(in.frames) - 1; i > 0; i-- {
		f := in.frames[i]
		if f.kind == loopBody || f.kind == switchArm {
			in.frames = in.frames[:i]
			in.frames[i-1].pc = f.after
			return true
		}
	}
	return false
}

func (in *Interpreter) maxIterations() int {
	if in.opts.MaxIterations > 0 {
		return in.opts.MaxIterations
	}
	return DefaultMaxIterations
}

// --- block entry ---

type arm struct {
	marker int
	start  int
	end    int
	stmt   parser.Stmt
}

func (in *Interpreter) enterIf(f *frame, line parser.Line) {
	closer := in.match(f.pc, f.end)
	after := next(closer, f.end)

	arms := in.arms(f.pc+1, closer, func(s parser.Stmt) bool {
		switch s.(type) {
		case *parser.Then, *parser.ElseIf, *parser.Else:
			return true
		}
		return false
	})

	// MEBBE conditions are all evaluated on entry, in source order.
	conds := make([]bool, len(arms))
	for i, a := range arms {
		if s, ok := a.stmt.(*parser.ElseIf); ok {
			conds[i] = in.eval(s.Cond, in.lines[a.marker]).Truthy()
		}
	}

	selected := -1
	if in.env.IT().Truthy() {
		for i, a := range arms {
			if _, ok := a.stmt.(*parser.Then); ok {
				selected = i
				break
			}
		}
	}
	if selected < 0 {
		for i, a := range arms {
			if _, ok := a.stmt.(*parser.ElseIf); ok && conds[i] {
				selected = i
				break
			}
		}
	}
	if selected < 0 {
		for i, a := range arms {
			if _, ok := a.stmt.(*parser.Else); ok {
				selected = i
				break
			}
		}
	}

	in.enterArm(f, arms, selected, ifArm, after)
}

func (in *Interpreter) enterSwitch(f *frame, s *parser.SwitchStart, line parser.Line) {
	subject := in.env.IT()
	if s.Subject != nil {
		subject = in.eval(s.Subject, line)
	}

	closer := in.match(f.pc, f.end)
	after := next(closer, f.end)

	arms := in.arms(f.pc+1, closer, func(s parser.Stmt) bool {
		switch s.(type) {
		case *parser.Case, *parser.DefaultCase:
			return true
		}
		return false
	})

	selected, fallback := -1, -1
	for i, a := range arms {
		switch c := a.stmt.(type) {
		case *parser.Case:
			if selected < 0 && in.eval(c.Value, in.lines[a.marker]) == subject {
				selected = i
			}
		case *parser.DefaultCase:
			fallback = i
		}
	}
	if selected < 0 {
		selected = fallback
	}

	in.enterArm(f, arms, selected, switchArm, after)
}

func (in *Interpreter) enterArm(f *frame, arms []arm, selected int, kind frameKind, after int) {
	if selected < 0 {
		f.pc = after
		return
	}
	a := arms[selected]
	in.frames = append(in.frames, &frame{kind: kind, pc: a.start, end: a.end, after: after})
}

func (in *Interpreter) enterLoop(f *frame, s *parser.LoopStart, line parser.Line) {
	end := in.match(f.pc, f.end)
	after := next(end, f.end)

	if s.Step != parser.StepNone && !in.env.Has(s.Var) {
		in.env.Set(s.Var, IntValue(0))
	}
	if !in.loopContinues(s, line) {
		f.pc = after
		return
	}
	in.frames = append(in.frames, &frame{
		kind:   loopBody,
		pc:     f.pc + 1,
		start:  f.pc + 1,
		end:    end,
		after:  after,
		loop:   s,
		origin: line,
	})
}

func (in *Interpreter) loopContinues(s *parser.LoopStart, line parser.Line) bool {
	switch s.Mode {
	case parser.LoopWhile:
		return in.eval(s.Cond, line).Truthy()
	case parser.LoopUntil:
		return !in.eval(s.Cond, line).Truthy()
	}
	return in.env.IT().Truthy()
}

func (in *Interpreter) advanceLoopVar(s *parser.LoopStart) {
	if s.Step == parser.StepNone {
		return
	}
	delta := int64(1)
	if s.Step == parser.StepDown {
		delta = -1
	}
	v, _ := in.env.Get(s.Var)
	n := ToNumber(v)
	if n.Kind() == Numbar {
		in.env.Set(s.Var, FloatValue(n.Float()+float64(delta)))
		return
	}
	in.env.Set(s.Var, IntValue(n.Int()+delta))
}

// next is the index after a block closer, or end when the block ran to the
// end of its enclosing range.
func next(closer, end int) int {
	if closer >= end {
		return end
	}
	return closer + 1
}

// --- block matching ---

type blockKind int

const (
	ifBlock blockKind = iota
	switchBlock
	loopBlock
)

// walk calls fn for every statement in [lo, hi) that is not nested inside
// a block opened within the range. It stops when fn returns false.
func (in *Interpreter) walk(lo, hi int, fn func(j int) bool) {
	var stack []blockKind
	for j := lo; j < hi; j++ {
		stmt := in.lines[j].Stmt
		switch stmt.(type) {
		case *parser.Then, *parser.ElseIf, *parser.Else, *parser.Case, *parser.DefaultCase,
			*parser.IfEnd, *parser.SwitchEnd:
			// Loops without an end marker close at the next arm or block end.
			for len(stack) > 0 && stack[len(stack)-1] == loopBlock {
				stack = stack[:len(stack)-1]
			}
		}

		if len(stack) == 0 && !fn(j) {
			return
		}
		switch stmt.(type) {
		case *parser.IfStart:
			stack = append(stack, ifBlock)
		case *parser.SwitchStart:
			stack = append(stack, switchBlock)
		case *parser.LoopStart:
			stack = append(stack, loopBlock)
		case *parser.LoopEnd:
			if n := len(stack); n > 0 && stack[n-1] == loopBlock {
				stack = stack[:n-1]
			}
		case *parser.IfEnd, *parser.SwitchEnd:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

// match returns the index of the closer for the opener at open, searching
// up to hi. Loops match the first IM OUTTA YR at the same depth whatever
// its label. It returns hi when no closer exists.
func (in *Interpreter) match(open, hi int) int {
	if end, ok := in.ends[open]; ok {
		return end
	}
	_, isLoop := in.lines[open].Stmt.(*parser.LoopStart)
	end := hi
	in.walk(open+1, hi, func(j int) bool {
		switch in.lines[j].Stmt.(type) {
		case *parser.LoopEnd:
			if isLoop {
				end = j
				return false
			}
		case *parser.IfEnd, *parser.SwitchEnd:
			if !isLoop {
				end = j
				return false
			}
		}
		return true
	})
	in.ends[open] = end
	return end
}

func (in *Interpreter) arms(lo, hi int, isMarker func(parser.Stmt) bool) []arm {
	var arms []arm
	in.walk(lo, hi, func(j int) bool {
		if s := in.lines[j].Stmt; isMarker(s) {
			if n := len(arms); n > 0 {
				arms[n-1].end = j
			}
			arms = append(arms, arm{marker: j, start: j + 1, end: hi, stmt: s})
		}
		return true
	})
	return arms
}

// --- diagnostics ---

func (in *Interpreter) semantic(line parser.Line, format string, args ...interface{}) {
	in.errs = append(in.errs, errors.Semanticf(line.Number, column(line), format, args...))
}

func (in *Interpreter) undeclared(line parser.Line, name string) {
	in.semantic(line, "variable '%s' used before declaration", name)
}

func column(line parser.Line) int {
	if len(line.Tokens) == 0 {
		return 0
	}
	return line.Tokens[0].Column
}
