package repl

import (
	"strings"
	"testing"
)

func mustREPL(t *testing.T) (*REPL, *strings.Builder) {
	t.Helper()
	var out strings.Builder
	r, err := New(strings.NewReader(""), &out, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.machine.Out = &out
	return r, &out
}

func TestREPLEvalLinePrintsResult(t *testing.T) {
	r, out := mustREPL(t)
	r.evalLine("println(1 + 1)\n")
	if out.String() != "2\n" {
		t.Errorf("output = %q, want %q", out.String(), "2\n")
	}
}

func TestREPLVariablePersistsAcrossLines(t *testing.T) {
	r, out := mustREPL(t)
	r.evalLine("x = 1\n")
	r.evalLine("println(x)\n")
	if out.String() != "1\n" {
		t.Errorf("output = %q, want %q", out.String(), "1\n")
	}
}

func TestREPLReassignmentAcrossLines(t *testing.T) {
	r, out := mustREPL(t)
	r.evalLine("x = 1\n")
	r.evalLine("x = 2\n")
	r.evalLine("println(x)\n")
	if out.String() != "2\n" {
		t.Errorf("output = %q, want %q", out.String(), "2\n")
	}
}

func TestREPLFunctionDefinedThenCalledOnLaterLine(t *testing.T) {
	r, out := mustREPL(t)
	r.evalLine("fn add(a, b) {\n  return a + b\n}\n")
	r.evalLine("println(add(2, 3))\n")
	if out.String() != "5\n" {
		t.Errorf("output = %q, want %q", out.String(), "5\n")
	}
}

func TestREPLParseErrorDoesNotPanic(t *testing.T) {
	r, out := mustREPL(t)
	r.evalLine("x = \n")
	if !strings.Contains(out.String(), "error") {
		t.Errorf("output = %q, want a parse error message", out.String())
	}
}

func TestREPLRuntimeErrorReported(t *testing.T) {
	r, out := mustREPL(t)
	r.evalLine("x = 1 / 0\n")
	if !strings.Contains(out.String(), "Error") && !strings.Contains(out.String(), "error") {
		t.Errorf("output = %q, want an error message", out.String())
	}
}
