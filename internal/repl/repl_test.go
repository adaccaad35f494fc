package repl

import (
	"bytes"
	"strings"
	"testing"

	"lolcode/internal/config"
)

func session(input ...string) string {
	var out bytes.Buffer
	r := New(strings.NewReader(strings.Join(input, "\n")+"\n"), &out, config.Config{MaxIterations: 100})
	if err := r.Run(); err != nil {
		panic(err)
	}
	return out.String()
}

func TestSessionReplaysOnlyNewOutput(t *testing.T) {
	got := session(
		"I HAS A x ITZ 2",
		"VISIBLE x",
		"BOTH SAEM x AN 2",
		"O RLY?",
		"YA RLY",
		"VISIBLE \"yes\"",
		"OIC",
		"GIMMEH name",
		"cat",
		"VISIBLE SMOOSH \"hi \" AN name MKAY",
		"VISIBLE SUM OF 1",
		":vars",
		"exit",
		"VISIBLE \"never\"",
	)

	want := strings.Join([]string{
		"2",
		"yes",
		"hi cat",
		"Line 11: expected AN after first operand of SUM OF",
		"IDENTIFIER  TYPE    VALUE",
		"name        YARN    cat",
		"x           NUMBR   2",
	}, "\n") + "\n"

	if got != want {
		t.Errorf("session output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRuntimeErrorsReportedOnce(t *testing.T) {
	got := session(
		"VISIBLE QUOSHUNT OF 1 AN 0",
		"VISIBLE \"next\"",
	)
	want := "0\nLine 2: division by zero\nnext\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReset(t *testing.T) {
	got := session(
		"VISIBLE \"one\"",
		":reset",
		"VISIBLE \"two\"",
	)
	if got != "one\ntwo\n" {
		t.Errorf("got %q", got)
	}
}

func TestOpenBlocks(t *testing.T) {
	got := session(
		"IM IN YR loop UPPIN YR i TIL BOTH SAEM i AN 2",
		"VISIBLE i",
		"IM OUTTA YR loop",
	)
	if got != "0\n1\n" {
		t.Errorf("loop should run once complete, got %q", got)
	}
}
