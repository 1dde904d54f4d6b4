package parser

import "testing"

func TestParseVariableAssignmentThenReassignment(t *testing.T) {
	stmts, err := Parse("i = 0\ni = i + 1\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("len(stmts) = %d, want 2", len(stmts))
	}
	if stmts[0].Kind != StmtVariableAssignment {
		t.Errorf("stmts[0].Kind = %v, want StmtVariableAssignment", stmts[0].Kind)
	}
	if stmts[1].Kind != StmtVariableReassignment {
		t.Errorf("stmts[1].Kind = %v, want StmtVariableReassignment", stmts[1].Kind)
	}
}

func TestSumTierLeftAssociative(t *testing.T) {
	stmts, err := Parse("x = 1 - 2 - 3\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	expr := stmts[0].Value
	if expr.Kind != ExprSub {
		t.Fatalf("outer Kind = %v, want ExprSub", expr.Kind)
	}
	if expr.Rhs.Kind != ExprValue || expr.Rhs.Value.Text != "3" {
		t.Errorf("outer rhs should be the literal 3, got %v", expr.Rhs)
	}
	if expr.Lhs.Kind != ExprSub {
		t.Errorf("1 - 2 - 3 should nest as (1 - 2) - 3, got lhs kind %v", expr.Lhs.Kind)
	}
}

func TestUnaryMinusDesugarsToZeroMinus(t *testing.T) {
	stmts, err := Parse("x = -5\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	expr := stmts[0].Value
	if expr.Kind != ExprSub {
		t.Fatalf("Kind = %v, want ExprSub", expr.Kind)
	}
	if expr.Lhs.Value.Text != "0" {
		t.Errorf("lhs should be the literal 0, got %v", expr.Lhs.Value)
	}
}

func TestDottedIdentifierKeptAsOneName(t *testing.T) {
	stmts, err := Parse("x = point.x\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ref := stmts[0].Value
	if ref.Kind != ExprValue || ref.Value.Kind != EvalReference || ref.Value.Name != "point.x" {
		t.Errorf("reference = %+v, want a dotted name \"point.x\"", ref)
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	stmts, err := Parse(`x = "a\nb"` + "\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmts[0].Value.Value.Str != "a\nb" {
		t.Errorf("Str = %q, want %q", stmts[0].Value.Value.Str, "a\nb")
	}
}

func TestFunctionDeclarationAndCall(t *testing.T) {
	stmts, err := Parse("fn add(a, b) {\n  return a + b\n}\nadd(1, 2)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("len(stmts) = %d, want 2", len(stmts))
	}
	if stmts[0].Kind != StmtFunctionDefinition || len(stmts[0].Params) != 2 {
		t.Errorf("function declaration not parsed correctly: %+v", stmts[0])
	}
	if stmts[1].Kind != StmtFunctionCall || len(stmts[1].Args) != 2 {
		t.Errorf("function call not parsed correctly: %+v", stmts[1])
	}
}

func TestConditionalWithElseIfAndElse(t *testing.T) {
	src := "if x == 1 {\n  y = 1\n} else if x == 2 {\n  y = 2\n} else {\n  y = 3\n}\n"
	stmts, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmts[0].Kind != StmtConditional {
		t.Fatalf("Kind = %v, want StmtConditional", stmts[0].Kind)
	}
	if len(stmts[0].ElseIfs) != 1 {
		t.Errorf("len(ElseIfs) = %d, want 1", len(stmts[0].ElseIfs))
	}
	if !stmts[0].HasElse {
		t.Error("HasElse should be true")
	}
}
