package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorMessageIncludesType(t *testing.T) {
	err := New(TypeError, "bad operand")
	if got := err.Error(); got != "TypeError: bad operand" {
		t.Errorf("Error() = %q, want %q", got, "TypeError: bad operand")
	}
}

func TestAtAddsLocation(t *testing.T) {
	err := New(NameError, "undefined variable").At("script.gs", 3, 5)
	want := "NameError: undefined variable (at script.gs:3:5)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(cause, CompileError, "compilation failed")
	if !strings.Contains(err.Error(), "compilation failed") {
		t.Errorf("Error() = %q, missing message", err.Error())
	}
	if errors.Unwrap(err) == nil {
		t.Error("Unwrap should surface the wrapped cause")
	}
}

func TestCauseStackEmptyWithoutCause(t *testing.T) {
	err := New(StackError, "underflow")
	if got := CauseStack(err); got != "" {
		t.Errorf("CauseStack = %q, want empty", got)
	}
}
