package interpreter

import (
	"strings"
	"testing"

	"github.com/kr/pretty"

	"lolcode/internal/errors"
	"lolcode/internal/lexer"
	"lolcode/internal/parser"
)

func program(body ...string) string {
	return "HAI 1.2\n" + strings.Join(body, "\n") + "\nKTHXBYE"
}

func compile(t *testing.T, src string) *parser.Program {
	t.Helper()
	prog := parser.Assemble(lexer.Tokenize(src))
	if len(prog.Errors) > 0 {
		t.Fatalf("program has errors: %v", errors.Messages(prog.Errors))
	}
	return prog
}

func run(t *testing.T, opts Options, body ...string) *Result {
	t.Helper()
	return New(compile(t, program(body...)), opts).Run()
}

func assertOutput(t *testing.T, res *Result, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	got := res.Output
	if got == nil {
		got = []string{}
	}
	if diff := pretty.Diff(want, got); len(diff) > 0 {
		t.Errorf("output mismatch:\n%s\ngot %q", strings.Join(diff, "\n"), got)
	}
}

func assertNoErrors(t *testing.T, res *Result) {
	t.Helper()
	if len(res.Errors) > 0 {
		t.Errorf("unexpected errors: %v", errors.Messages(res.Errors))
	}
}

func variable(t *testing.T, res *Result, name string) Value {
	t.Helper()
	for _, b := range res.Variables {
		if b.Name == name {
			return b.Value
		}
	}
	t.Fatalf("variable %s not in final environment %v", name, res.Variables)
	return Value{}
}

// ===== Expression Tests =====

func TestIntegerArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want int64
	}{
		{"SUM OF 2 AN 3", 5},
		{"DIFF OF 2 AN 30", -28},
		{"PRODUKT OF -4 AN 6", -24},
		{"SUM OF PRODUKT OF 3 AN 4 AN DIFF OF 10 AN 1", 21},
		{"QUOSHUNT OF 7 AN 2", 3},
		{"QUOSHUNT OF -7 AN 2", -4},
		{"MOD OF 7 AN 3", 1},
		{"MOD OF -7 AN 3", 2},
		{"SUM OF \"4\" AN WIN", 5},
		{"BIGGR OF 3 AN 9", 9},
		{"SMALLR OF 3 AN 9", 3},
	}

	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			res := run(t, Options{}, test.expr)
			assertNoErrors(t, res)
			if res.IT != IntValue(test.want) {
				t.Errorf("IT = %#v, want NUMBR(%d)", res.IT, test.want)
			}
		})
	}
}

func TestFloatArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"SUM OF 1.5 AN 1", "2.5"},
		{"QUOSHUNT OF 7.0 AN 2", "3.5"},
		{"PRODUKT OF 2.5 AN 2", "5"},
		{"SUM OF \"1.25\" AN 1", "2.25"},
		{"BIGGR OF 1.5 AN 1", "1.5"},
	}

	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			res := run(t, Options{}, test.expr)
			if res.IT.Kind() != Numbar {
				t.Fatalf("IT kind = %s, want NUMBAR", res.IT.Kind())
			}
			if res.IT.String() != test.want {
				t.Errorf("IT = %s, want %s", res.IT, test.want)
			}
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	res := run(t, Options{},
		"I HAS A x ITZ 5",
		"VISIBLE QUOSHUNT OF x AN 0",
		"VISIBLE MOD OF x AN 0.0",
		"VISIBLE \"after\"",
	)
	assertOutput(t, res, "0", "0", "after")
	want := []string{"Line 3: division by zero", "Line 4: modulo by zero"}
	if diff := pretty.Diff(want, errors.Messages(res.Errors)); len(diff) > 0 {
		t.Errorf("errors mismatch: %v", errors.Messages(res.Errors))
	}
	if res.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", res.Status)
	}
}

func TestComparison(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{`BOTH SAEM "5" AN 5`, true},
		{`BOTH SAEM "abc" AN "abc"`, true},
		{`BOTH SAEM 5 AN 5.0`, true},
		{`BOTH SAEM "abc" AN "abd"`, false},
		{`BOTH SAEM WIN AN 1`, false},
		{`DIFFRINT 1 AN 2`, true},
		{`DIFFRINT " 7 " AN 7`, false},
		{`BOTH SAEM BIGGR OF 3 AN 4 AN 4`, true},
	}

	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			res := run(t, Options{}, test.expr)
			if res.IT != BoolValue(test.want) {
				t.Errorf("IT = %#v, want %v", res.IT, test.want)
			}
		})
	}
}

func TestLogical(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"BOTH OF WIN AN 0", false},
		{"EITHER OF FAIL AN \"x\"", true},
		{"WON OF WIN AN WIN", false},
		{"WON OF WIN AN 0", true},
		{"NOT \"\"", true},
		{"NOT \"fail\"", true},
		{"ALL OF WIN AN 1 AN \"yes\" MKAY", true},
		{"ANY OF FAIL AN 0 AN \"\" MKAY", false},
	}

	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			res := run(t, Options{}, test.expr)
			if res.IT != BoolValue(test.want) {
				t.Errorf("IT = %#v, want %v", res.IT, test.want)
			}
		})
	}
}

// ===== Statement Tests =====

func TestVisibleConcatenatesWithoutSeparator(t *testing.T) {
	res := run(t, Options{},
		"I HAS A n ITZ 3",
		"VISIBLE \"n=\" n \" \" 2.50 AN WIN",
		"VISIBLE SMOOSH \"a\" AN 1 AN NOOB MKAY",
	)
	assertNoErrors(t, res)
	assertOutput(t, res, "n=3 2.5WIN", "a1NOOB")
	if res.IT != StringValue("a1NOOB") {
		t.Errorf("IT = %#v, want the last VISIBLE text", res.IT)
	}
}

func TestVisibleSuppressedNewline(t *testing.T) {
	res := run(t, Options{},
		"VISIBLE \"a\"!",
		"VISIBLE \"b\"!",
		"VISIBLE \"c\"",
		"VISIBLE \"tail\"!",
	)
	assertOutput(t, res, "abc", "tail")
}

func TestDeclareWithoutInitializer(t *testing.T) {
	res := run(t, Options{}, "I HAS A X", "VISIBLE X")
	assertNoErrors(t, res)
	assertOutput(t, res, "NOOB")
	if v := variable(t, res, "X"); v.Kind() != Noob {
		t.Errorf("X = %#v, want NOOB", v)
	}
}

func TestUndeclaredVariables(t *testing.T) {
	res := run(t, Options{},
		"VISIBLE y",
		"z R 4",
		"VISIBLE z",
	)
	assertOutput(t, res, "NOOB", "4")
	want := []string{
		"Line 2: variable 'y' used before declaration",
		"Line 3: variable 'z' used before declaration",
	}
	if diff := pretty.Diff(want, errors.Messages(res.Errors)); len(diff) > 0 {
		t.Errorf("errors = %v", errors.Messages(res.Errors))
	}
	if variable(t, res, "z") != IntValue(4) {
		t.Error("assignment to an undeclared name should still store the value")
	}
}

func TestRecast(t *testing.T) {
	res := run(t, Options{},
		"I HAS A a ITZ \"12\"",
		"a IS NOW A NUMBR",
		"I HAS A b ITZ 3.9",
		"b IS NOW A NUMBR",
		"I HAS A c ITZ 0",
		"c IS NOW A TROOF",
		"I HAS A d ITZ MAEK 7 A NUMBAR",
		"I HAS A e ITZ MAEK 7.0 YARN",
		"I HAS A f ITZ \"x\"",
		"f IS NOW A NOOB",
	)
	assertNoErrors(t, res)
	checks := map[string]Value{
		"a": IntValue(12),
		"b": IntValue(3),
		"c": BoolValue(false),
		"d": FloatValue(7),
		"e": StringValue("7"),
		"f": NoobValue(),
	}
	for name, want := range checks {
		if got := variable(t, res, name); got != want {
			t.Errorf("%s = %#v, want %#v", name, got, want)
		}
	}
}

func TestVariablesSortedByName(t *testing.T) {
	res := run(t, Options{}, "I HAS A zeta ITZ 1", "I HAS A Alpha ITZ 2", "I HAS A beta ITZ 3")
	var names []string
	for _, b := range res.Variables {
		names = append(names, b.Name)
	}
	if diff := pretty.Diff([]string{"Alpha", "beta", "zeta"}, names); len(diff) > 0 {
		t.Errorf("names = %v", names)
	}
}

// ===== Control Flow Tests =====

func ifProgram(condition string) []string {
	return []string{
		"I HAS A x ITZ 3",
		condition,
		"O RLY?",
		"YA RLY",
		"VISIBLE \"A\"",
		"MEBBE BOTH SAEM x AN 2",
		"VISIBLE \"B\"",
		"NO WAI",
		"VISIBLE \"C\"",
		"OIC",
		"VISIBLE \"done\"",
	}
}

func TestIfBranches(t *testing.T) {
	assertOutput(t, run(t, Options{}, ifProgram("BOTH SAEM x AN 3")...), "A", "done")
	assertOutput(t, run(t, Options{}, ifProgram("BOTH SAEM x AN 4")...), "C", "done")

	body := ifProgram("FAIL")
	body[0] = "I HAS A x ITZ 2"
	assertOutput(t, run(t, Options{}, body...), "B", "done")
}

func TestIfWithoutMatchingArm(t *testing.T) {
	res := run(t, Options{},
		"FAIL",
		"O RLY?",
		"YA RLY",
		"VISIBLE \"yes\"",
		"OIC",
		"VISIBLE \"after\"",
	)
	assertOutput(t, res, "after")
}

func TestMebbeDoesNotWriteIT(t *testing.T) {
	res := run(t, Options{},
		"FAIL",
		"O RLY?",
		"YA RLY",
		"VISIBLE \"no\"",
		"MEBBE WIN",
		"IT",
		"OIC",
	)
	if res.IT != BoolValue(false) {
		t.Errorf("IT = %#v, MEBBE should leave IT alone", res.IT)
	}
}

func TestNestedIf(t *testing.T) {
	res := run(t, Options{},
		"WIN",
		"O RLY?",
		"YA RLY",
		"FAIL",
		"O RLY?",
		"YA RLY",
		"VISIBLE \"inner yes\"",
		"NO WAI",
		"VISIBLE \"inner no\"",
		"OIC",
		"NO WAI",
		"VISIBLE \"outer no\"",
		"OIC",
	)
	assertOutput(t, res, "inner no")
}

func switchProgram(subject string) []string {
	return []string{
		"WTF? " + subject,
		"OMG 1",
		"VISIBLE \"one\"",
		"OMG 2",
		"VISIBLE \"two\"",
		"OMGWTF",
		"VISIBLE \"other\"",
		"OIC",
	}
}

func TestSwitch(t *testing.T) {
	assertOutput(t, run(t, Options{}, switchProgram("2")...), "two")
	assertOutput(t, run(t, Options{}, switchProgram("7")...), "other")
	// Matching is by kind and value, without coercion.
	assertOutput(t, run(t, Options{}, switchProgram("\"1\"")...), "other")
}

func TestSwitchOnIT(t *testing.T) {
	res := run(t, Options{},
		"SUM OF 1 AN 1",
		"WTF?",
		"OMG 2",
		"VISIBLE \"two\"",
		"GTFO",
		"VISIBLE \"unreachable\"",
		"OMG 3",
		"VISIBLE \"three\"",
		"OIC",
		"VISIBLE \"after\"",
	)
	assertOutput(t, res, "two", "after")
}

func TestSwitchWithoutDefault(t *testing.T) {
	res := run(t, Options{}, "WTF? \"z\"", "OMG \"a\"", "VISIBLE \"a\"", "OIC", "VISIBLE \"end\"")
	assertOutput(t, res, "end")
}

func TestLoops(t *testing.T) {
	tests := []struct {
		name string
		body []string
		want []string
	}{
		{
			"uppin til",
			[]string{"I HAS A i ITZ 0", "IM IN YR loop UPPIN YR i TIL BOTH SAEM i AN 3", "VISIBLE i", "IM OUTTA YR loop"},
			[]string{"0", "1", "2"},
		},
		{
			"nerfin wile",
			[]string{"I HAS A i ITZ 3", "IM IN YR loop NERFIN YR i WILE BIGGR OF i AN 0", "VISIBLE i", "IM OUTTA YR loop"},
			[]string{"3", "2", "1"},
		},
		{
			"wile false from start",
			[]string{"IM IN YR loop WILE FAIL", "VISIBLE \"body\"", "IM OUTTA YR loop", "VISIBLE \"after\""},
			[]string{"after"},
		},
		{
			"undeclared step variable starts at zero",
			[]string{"IM IN YR loop UPPIN YR n TIL BOTH SAEM n AN 2", "VISIBLE n", "IM OUTTA YR loop"},
			[]string{"0", "1"},
		},
		{
			"gtfo leaves loop",
			[]string{
				"I HAS A i ITZ 0",
				"WIN",
				"IM IN YR loop UPPIN YR i",
				"BOTH SAEM i AN 2",
				"O RLY?",
				"YA RLY",
				"GTFO",
				"OIC",
				"VISIBLE i",
				"WIN",
				"IM OUTTA YR loop",
				"VISIBLE SMOOSH \"i=\" AN i MKAY",
			},
			[]string{"0", "1", "i=2"},
		},
		{
			"nested loops",
			[]string{
				"IM IN YR outer UPPIN YR a TIL BOTH SAEM a AN 2",
				"IM IN YR inner UPPIN YR b TIL BOTH SAEM b AN 2",
				"VISIBLE a b",
				"IM OUTTA YR inner",
				"b R 0",
				"IM OUTTA YR outer",
			},
			[]string{"00", "01", "10", "11"},
		},
		{
			"mismatched label matches first end marker",
			[]string{"IM IN YR loop UPPIN YR i TIL BOTH SAEM i AN 1", "VISIBLE \"x\"", "IM OUTTA YR other"},
			[]string{"x"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := run(t, Options{}, test.body...)
			assertNoErrors(t, res)
			assertOutput(t, res, test.want...)
		})
	}
}

func TestLoopConditionFallsBackToIT(t *testing.T) {
	res := run(t, Options{},
		"I HAS A n ITZ 3",
		"WIN",
		"IM IN YR loop",
		"VISIBLE n",
		"n R DIFF OF n AN 1",
		"n",
		"IM OUTTA YR loop",
	)
	assertNoErrors(t, res)
	assertOutput(t, res, "3", "2", "1")
}

func TestIterationCeiling(t *testing.T) {
	res := run(t, Options{}, "IM IN YR forever UPPIN YR i WILE WIN", "IM OUTTA YR forever", "VISIBLE \"after\"")
	assertOutput(t, res, "after")
	want := []string{"Line 2: loop 'forever' exceeded 10,000 iterations"}
	if diff := pretty.Diff(want, errors.Messages(res.Errors)); len(diff) > 0 {
		t.Errorf("errors = %v", errors.Messages(res.Errors))
	}
	if variable(t, res, "i") != IntValue(10000) {
		t.Errorf("i = %#v, want 10000 body runs", variable(t, res, "i"))
	}
}

func TestLoopWithoutEndMarkerHitsCeiling(t *testing.T) {
	res := run(t, Options{MaxIterations: 5}, "IM IN YR loop UPPIN YR i WILE WIN", "VISIBLE i")
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, "exceeded 5 iterations") {
		t.Fatalf("errors = %v", errors.Messages(res.Errors))
	}
	assertOutput(t, res, "0", "1", "2", "3", "4")
	if res.Status != StatusCompleted {
		t.Errorf("Status = %s", res.Status)
	}
}

func TestLoopWithoutEndMarkerInsideArm(t *testing.T) {
	res := run(t, Options{},
		"WTF? 2",
		"OMG 1",
		"IM IN YR l UPPIN YR i TIL BOTH SAEM i AN 2",
		"VISIBLE \"loop\"",
		"OMG 2",
		"VISIBLE \"two\"",
		"OIC")
	assertNoErrors(t, res)
	assertOutput(t, res, "two")
}

func TestLoopWithoutEndMarkerClosesAtArmEnd(t *testing.T) {
	res := run(t, Options{},
		"WTF? 1",
		"OMG 1",
		"IM IN YR l UPPIN YR i TIL BOTH SAEM i AN 2",
		"VISIBLE i",
		"OMG 2",
		"VISIBLE \"two\"",
		"OIC",
		"VISIBLE \"after\"")
	assertNoErrors(t, res)
	assertOutput(t, res, "0", "1", "after")
}

func TestLoopWithoutEndMarkerInsideIfArm(t *testing.T) {
	res := run(t, Options{MaxIterations: 3},
		"WIN",
		"O RLY?",
		"YA RLY",
		"IM IN YR spin WILE WIN",
		"VISIBLE \"spin\"",
		"NO WAI",
		"VISIBLE \"no\"",
		"OIC",
		"VISIBLE \"after\"")
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, "exceeded 3 iterations") {
		t.Fatalf("errors = %v", errors.Messages(res.Errors))
	}
	assertOutput(t, res, "spin", "spin", "spin", "after")
}

// ===== Input and Suspension Tests =====

func TestQueuedInputs(t *testing.T) {
	res := run(t, Options{Inputs: []string{" 42 ", "WIN", "3.5", "hi there"}},
		"GIMMEH a", "GIMMEH b", "GIMMEH c", "GIMMEH d")
	assertNoErrors(t, res)
	checks := map[string]Value{
		"a": IntValue(42),
		"b": BoolValue(true),
		"c": FloatValue(3.5),
		"d": StringValue("hi there"),
	}
	for name, want := range checks {
		if got := variable(t, res, name); got != want {
			t.Errorf("%s = %#v, want %#v", name, got, want)
		}
	}
}

func TestSuspendAndResume(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{"42", IntValue(42)},
		{"WIN", BoolValue(true)},
		{"hi", StringValue("hi")},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			prog := compile(t, program("VISIBLE \"before\"", "GIMMEH X", "VISIBLE SMOOSH \"got \" AN X MKAY"))
			res := New(prog, Options{}).Run()
			if res.Status != StatusSuspended || res.Continuation == nil {
				t.Fatalf("Status = %s, want suspended", res.Status)
			}
			if res.Continuation.Prompt != "X" || res.Continuation.Line != 3 {
				t.Errorf("continuation = %+v", res.Continuation)
			}
			assertOutput(t, res, "before")

			final, err := res.Continuation.Resume(test.input)
			if err != nil {
				t.Fatalf("Resume: %v", err)
			}
			if final.Status != StatusCompleted {
				t.Fatalf("Status = %s, want completed", final.Status)
			}
			// The statement before GIMMEH must not run again.
			assertOutput(t, final, "before", "got "+test.want.String())
			if got := variable(t, final, "X"); got != test.want {
				t.Errorf("X = %#v, want %#v", got, test.want)
			}
		})
	}
}

func TestSuspendInsideLoop(t *testing.T) {
	prog := compile(t, program(
		"I HAS A total ITZ 0",
		"IM IN YR loop UPPIN YR i TIL BOTH SAEM i AN 2",
		"GIMMEH n",
		"total R SUM OF total AN n",
		"IM OUTTA YR loop",
		"VISIBLE total",
	))
	res := New(prog, Options{}).Run()
	for _, input := range []string{"5", "7"} {
		if res.Status != StatusSuspended {
			t.Fatalf("Status = %s, want suspended", res.Status)
		}
		var err error
		res, err = res.Continuation.Resume(input)
		if err != nil {
			t.Fatal(err)
		}
	}
	assertOutput(t, res, "12")
	assertNoErrors(t, res)
}

func TestContinuationSingleUse(t *testing.T) {
	res := New(compile(t, program("GIMMEH a", "GIMMEH b")), Options{}).Run()
	cont := res.Continuation
	if _, err := cont.Resume("1"); err != nil {
		t.Fatal(err)
	}
	if _, err := cont.Resume("2"); err != ErrContinuationUsed {
		t.Errorf("second Resume error = %v, want ErrContinuationUsed", err)
	}
}

func TestFreshRunInvalidatesContinuation(t *testing.T) {
	in := New(compile(t, program("GIMMEH a")), Options{})
	old := in.Run().Continuation
	in.Run()
	if _, err := old.Resume("1"); err != ErrNotSuspended {
		t.Errorf("Resume on stale continuation = %v, want ErrNotSuspended", err)
	}
}

func TestRejectedProgram(t *testing.T) {
	prog := parser.Assemble(lexer.Tokenize("VISIBLE 1"))
	res := New(prog, Options{}).Run()
	if res.Status != StatusRejected {
		t.Errorf("Status = %s, want rejected", res.Status)
	}
	if len(res.Output) != 0 || len(res.Errors) != len(prog.Errors) {
		t.Errorf("rejected run should carry only the program errors: %+v", res)
	}
}

func TestLenientRunSkipsBrokenLines(t *testing.T) {
	prog := parser.Assemble(lexer.Tokenize(program("VISIBLE \"before\"", "VISIBLE SUM OF 1", "VISIBLE \"after\"")))
	if len(prog.Errors) != 1 {
		t.Fatalf("program errors = %v", errors.Messages(prog.Errors))
	}

	res := New(prog, Options{Lenient: true}).Run()
	if res.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", res.Status)
	}
	assertOutput(t, res, "before", "after")
	if len(res.Errors) != 1 || res.Errors[0].Location.Line != 3 {
		t.Errorf("errors = %v", errors.Messages(res.Errors))
	}

	res = New(prog, Options{}).Run()
	if res.Status != StatusRejected || len(res.Output) != 0 {
		t.Errorf("strict run = %s %v", res.Status, res.Output)
	}
}

func TestInternalFailureIsRecovered(t *testing.T) {
	prog := compile(t, program("VISIBLE \"partial\"", "VISIBLE 1"))
	// Corrupt the second VISIBLE so evaluation panics.
	prog.Lines[2].Stmt = &parser.Visible{Exprs: []parser.Expr{nil}}

	res := New(prog, Options{}).Run()
	if res.Status != StatusAborted {
		t.Fatalf("Status = %s, want aborted", res.Status)
	}
	assertOutput(t, res, "partial")
	if len(res.Errors) != 1 || res.Errors[0].Type != errors.RuntimeError {
		t.Errorf("errors = %v", errors.Messages(res.Errors))
	}
}
