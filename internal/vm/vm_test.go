package vm

import (
	"strings"
	"testing"

	"gscript/internal/bytecode"
	"gscript/internal/compiler"
	"gscript/internal/parser"
	"gscript/internal/value"
)

func mustRun(t *testing.T, src string) (*VM, string) {
	t.Helper()
	stmts, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parser.Parse: %v", err)
	}
	prog, err := compiler.Compile(stmts)
	if err != nil {
		t.Fatalf("compiler.Compile: %v", err)
	}
	m := New(prog)
	var out strings.Builder
	m.Out = &out
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return m, out.String()
}

func TestVMPrintln(t *testing.T) {
	_, out := mustRun(t, `println("hello", 1, 2)`+"\n")
	if out != "hello 1 2\n" {
		t.Errorf("output = %q, want %q", out, "hello 1 2\n")
	}
}

func TestVMArithmeticWidening(t *testing.T) {
	_, out := mustRun(t, "x = 120\ny = 100\nprintln(x + y)\n")
	if out != "220\n" {
		t.Errorf("output = %q, want %q", out, "220\n")
	}
}

func TestVMWhileLoop(t *testing.T) {
	src := "i = 0\nwhile i < 3 {\n  println(i)\n  i = i + 1\n}\n"
	_, out := mustRun(t, src)
	if out != "0\n1\n2\n" {
		t.Errorf("output = %q, want %q", out, "0\n1\n2\n")
	}
}

func TestVMFunctionCallAndReturn(t *testing.T) {
	src := "fn add(a, b) {\n  return a + b\n}\nprintln(add(2, 3))\n"
	_, out := mustRun(t, src)
	if out != "5\n" {
		t.Errorf("output = %q, want %q", out, "5\n")
	}
}

func TestVMWrongArgcIsAssertionFailure(t *testing.T) {
	stmts, err := parser.Parse("fn add(a, b) {\n  return a + b\n}\nadd(1)\n")
	if err != nil {
		t.Fatalf("parser.Parse: %v", err)
	}
	prog, err := compiler.Compile(stmts)
	if err != nil {
		t.Fatalf("compiler.Compile: %v", err)
	}
	m := New(prog)
	var out strings.Builder
	m.Out = &out
	if err := m.Run(); err == nil {
		t.Fatal("expected an AssertionFailure for a wrong argument count")
	}
}

func TestVMClassConstructionAndFieldAccess(t *testing.T) {
	src := "class Point(x, y)\np = Point(3, 4)\nprintln(p.x, p.y)\n"
	_, out := mustRun(t, src)
	if out != "3 4\n" {
		t.Errorf("output = %q, want %q", out, "3 4\n")
	}
}

func TestVMListPushAndReadElement(t *testing.T) {
	src := "xs = [1, 2]\nxs = push(xs, 3)\nprintln(read_element(xs, 2))\n"
	_, out := mustRun(t, src)
	if out != "3\n" {
		t.Errorf("output = %q, want %q", out, "3\n")
	}
}

func TestVMFormatBuiltin(t *testing.T) {
	src := `println(format("{} plus {} is {}", 1, 2, 3))` + "\n"
	_, out := mustRun(t, src)
	if out != "1 plus 2 is 3\n" {
		t.Errorf("output = %q, want %q", out, "1 plus 2 is 3\n")
	}
}

func TestVMDivisionByZeroIsFatal(t *testing.T) {
	stmts, err := parser.Parse("x = 1 / 0\n")
	if err != nil {
		t.Fatalf("parser.Parse: %v", err)
	}
	prog, err := compiler.Compile(stmts)
	if err != nil {
		t.Fatalf("compiler.Compile: %v", err)
	}
	m := New(prog)
	if err := m.Run(); err == nil {
		t.Fatal("expected an ArithmeticError for division by zero")
	}
}

func TestVMUndefinedVariableIsFatal(t *testing.T) {
	stmts, err := parser.Parse("println(x)\n")
	if err != nil {
		t.Fatalf("parser.Parse: %v", err)
	}
	prog, err := compiler.Compile(stmts)
	if err != nil {
		t.Fatalf("compiler.Compile: %v", err)
	}
	m := New(prog)
	if err := m.Run(); err == nil {
		t.Fatal("expected a NameError for an undefined variable")
	}
}

func TestVMExtendPersistsHeapAcrossLoads(t *testing.T) {
	stmts1, err := parser.Parse("x = 1\n")
	if err != nil {
		t.Fatalf("parser.Parse: %v", err)
	}
	prog1, err := compiler.CompileOpen(stmts1)
	if err != nil {
		t.Fatalf("compiler.Compile: %v", err)
	}
	m := New(prog1)
	if err := m.RunFrom(m.Extend(prog1)); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}

	stmts2, err := parser.Parse("println(x)\n")
	if err != nil {
		t.Fatalf("parser.Parse: %v", err)
	}
	prog2, err := compiler.Compile(stmts2)
	if err != nil {
		t.Fatalf("compiler.Compile: %v", err)
	}
	var out strings.Builder
	m.Out = &out
	if err := m.RunFrom(m.Extend(prog2)); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "1\n" {
		t.Errorf("output = %q, want %q", out.String(), "1\n")
	}
}

func TestExecRotateMovesMiddleToBottom(t *testing.T) {
	m := New(bytecode.NewProgram())
	m.push(value.Value{Scalar: value.Int(value.IntFromInt64(1))})
	m.push(value.Value{Scalar: value.Int(value.IntFromInt64(2))})
	m.push(value.Value{Scalar: value.Int(value.IntFromInt64(3))})
	if err := m.execRotate(); err != nil {
		t.Fatalf("execRotate: %v", err)
	}
	got := []int64{
		m.stack[0].Scalar.Int.Val,
		m.stack[1].Scalar.Int.Val,
		m.stack[2].Scalar.Int.Val,
	}
	want := []int64{2, 3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stack = %v, want %v", got, want)
			break
		}
	}
}
