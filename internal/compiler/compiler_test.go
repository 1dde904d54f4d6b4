package compiler

import (
	"testing"

	"gscript/internal/bytecode"
	"gscript/internal/parser"
)

func mustParse(t *testing.T, src string) []parser.Statement {
	t.Helper()
	stmts, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parser.Parse: %v", err)
	}
	return stmts
}

func TestCompileLeadingNop(t *testing.T) {
	prog, err := Compile(mustParse(t, "x = 1\n"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if prog.Code[0].Op != bytecode.OpNop {
		t.Errorf("Code[0].Op = %v, want OpNop", prog.Code[0].Op)
	}
}

func TestCompileVariableAssignmentEmitsDeleteAtBlockExit(t *testing.T) {
	prog, err := Compile(mustParse(t, "x = 1\n"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	last := prog.Code[len(prog.Code)-1]
	if last.Op != bytecode.OpDelete || last.Name != "x" {
		t.Errorf("last instruction = %v, want Delete x", last)
	}
}

func TestCompileWhileLoopJumpsBackToStart(t *testing.T) {
	prog, err := Compile(mustParse(t, "i = 0\nwhile i < 3 {\n  i = i + 1\n}\n"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	foundBackJump := false
	for idx, instr := range prog.Code {
		if instr.Op == bytecode.OpJump && instr.Addr < idx {
			foundBackJump = true
		}
	}
	if !foundBackJump {
		t.Error("expected a backward Jump closing the while loop")
	}
}

func TestCompileBreakOutsideLoopIsFatal(t *testing.T) {
	if _, err := Compile(mustParse(t, "break\n")); err == nil {
		t.Fatal("expected a CompileError for break outside a loop")
	}
}

func TestCompileReturnOutsideFunctionIsFatal(t *testing.T) {
	if _, err := Compile(mustParse(t, "return 1\n")); err == nil {
		t.Fatal("expected a CompileError for return outside a function")
	}
}

func TestCompileFunctionDefinitionRegistersEntry(t *testing.T) {
	prog, err := Compile(mustParse(t, "fn add(a, b) {\n  return a + b\n}\n"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	entry, ok := prog.Functions["add"]
	if !ok {
		t.Fatal("expected a registered entry for function \"add\"")
	}
	if entry <= 0 || entry >= len(prog.Code) {
		t.Errorf("entry = %d out of range [1,%d)", entry, len(prog.Code))
	}
}

func TestCompileDuplicateFunctionNameIsFatal(t *testing.T) {
	src := "fn add(a) {\n  return a\n}\nfn add(b) {\n  return b\n}\n"
	if _, err := Compile(mustParse(t, src)); err == nil {
		t.Fatal("expected a CompileError for a duplicate function definition")
	}
}

func TestCompileParamDeletedBeforeEachReturn(t *testing.T) {
	src := "fn f(a) {\n  if a == 1 {\n    return 1\n  }\n  return 2\n}\n"
	prog, err := Compile(mustParse(t, src))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	returns := 0
	for i, instr := range prog.Code {
		if instr.Op == bytecode.OpReturn {
			returns++
			if i == 0 || prog.Code[i-1].Op != bytecode.OpDelete || prog.Code[i-1].Name != "a" {
				t.Errorf("Return at %d not preceded by Delete a, got %v", i, prog.Code[i-1])
			}
		}
	}
	if returns != 2 {
		t.Fatalf("found %d Return instructions, want 2", returns)
	}
}

func TestCompileClassDeclarationRegisters(t *testing.T) {
	prog, err := Compile(mustParse(t, "class Point(x, y)\n"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	creator, ok := prog.Classes["Point"]
	if !ok {
		t.Fatal("expected a registered class \"Point\"")
	}
	if len(creator.MemberNames) != 2 {
		t.Errorf("len(MemberNames) = %d, want 2", len(creator.MemberNames))
	}
}

func TestCompileClassAndFunctionNameCollisionIsFatal(t *testing.T) {
	src := "class Point(x, y)\nfn Point(a) {\n  return a\n}\n"
	if _, err := Compile(mustParse(t, src)); err == nil {
		t.Fatal("expected a CompileError for a class/function name collision")
	}
}
