package parser

import "gscript/internal/errors"

// StmtKind tags which alternative of Statement is populated.
type StmtKind int

const (
	StmtVariableAssignment StmtKind = iota
	StmtVariableReassignment
	StmtVariableMultiAssignment
	StmtFunctionCall
	StmtFunctionDefinition
	StmtConditional
	StmtWhileLoop
	StmtForLoop
	StmtBreak
	StmtContinue
	StmtReturn
	StmtClassDeclaration
)

// ElseIf is one `else if` arm of a Conditional.
type ElseIf struct {
	Condition *ExprAst
	Body      []Statement
}

// Statement is one statement-AST node (§3), consumed by the compiler.
type Statement struct {
	Kind StmtKind
	Line int

	Name  string   // VariableAssignment / VariableReassignment
	Names []string // VariableMultiAssignment
	Value *ExprAst // VariableAssignment / VariableReassignment / VariableMultiAssignment

	FuncName string     // FunctionCall / FunctionDefinition
	Args     []*ExprAst // FunctionCall
	Params   []string   // FunctionDefinition
	Body     []Statement

	Condition *ExprAst // Conditional / WhileLoop
	ElseIfs   []ElseIf // Conditional
	Else      []Statement
	HasElse   bool

	ReturnValues []*ExprAst // Return

	ClassName string   // ClassDeclaration
	Members   []string // ClassDeclaration

	ForVar            string // ForLoop — not implemented, kept for shape completeness
	ForStart, ForEnd  *ExprAst
}

// BuildStatements walks a "program" or "block" Pair into a Statement list,
// building every embedded expression via the graded BuildExpr.
func BuildStatements(p *Pair) ([]Statement, error) {
	if p.Rule != "program" && p.Rule != "block" {
		return nil, errors.Newf(errors.ParseError, "expected program or block, got %q", p.Rule)
	}
	var stmts []Statement
	for _, child := range p.Children {
		if child.Rule == "EOI" {
			continue
		}
		stmt, err := buildStatement(child)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func identifierNames(pairs []*Pair) []string {
	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.Text
	}
	return names
}

func buildExprList(pairs []*Pair) ([]*ExprAst, error) {
	exprs := make([]*ExprAst, len(pairs))
	for i, p := range pairs {
		e, err := BuildExpr(p)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	return exprs, nil
}

func buildStatement(p *Pair) (Statement, error) {
	switch p.Rule {
	case "variable_assignment":
		value, err := BuildExpr(p.Children[1])
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtVariableAssignment, Line: p.Line, Name: p.Children[0].Text, Value: value}, nil

	case "variable_reassignment":
		value, err := BuildExpr(p.Children[1])
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtVariableReassignment, Line: p.Line, Name: p.Children[0].Text, Value: value}, nil

	case "variable_multi_assignment":
		nameCount := len(p.Children) - 1
		value, err := BuildExpr(p.Children[nameCount])
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtVariableMultiAssignment, Line: p.Line, Names: identifierNames(p.Children[:nameCount]), Value: value}, nil

	case "function_call_statement":
		call := p.Children[0]
		args, err := buildExprList(call.Children[1:])
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtFunctionCall, Line: p.Line, FuncName: call.Children[0].Text, Args: args}, nil

	case "conditional":
		condition, err := BuildExpr(p.Children[0])
		if err != nil {
			return Statement{}, err
		}
		body, err := BuildStatements(p.Children[1])
		if err != nil {
			return Statement{}, err
		}
		stmt := Statement{Kind: StmtConditional, Line: p.Line, Condition: condition, Body: body}
		for _, rest := range p.Children[2:] {
			switch rest.Rule {
			case "conditional_else_if":
				cond, err := BuildExpr(rest.Children[0])
				if err != nil {
					return Statement{}, err
				}
				elseIfBody, err := BuildStatements(rest.Children[1])
				if err != nil {
					return Statement{}, err
				}
				stmt.ElseIfs = append(stmt.ElseIfs, ElseIf{Condition: cond, Body: elseIfBody})
			case "conditional_else":
				elseBody, err := BuildStatements(rest.Children[0])
				if err != nil {
					return Statement{}, err
				}
				stmt.Else = elseBody
				stmt.HasElse = true
			}
		}
		return stmt, nil

	case "while_loop":
		condition, err := BuildExpr(p.Children[0])
		if err != nil {
			return Statement{}, err
		}
		body, err := BuildStatements(p.Children[1])
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtWhileLoop, Line: p.Line, Condition: condition, Body: body}, nil

	case "break_kw":
		return Statement{Kind: StmtBreak, Line: p.Line}, nil

	case "continue_kw":
		return Statement{Kind: StmtContinue, Line: p.Line}, nil

	case "return_kw":
		values, err := buildExprList(p.Children)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtReturn, Line: p.Line, ReturnValues: values}, nil

	case "function_declaration":
		name := p.Children[0].Text
		params := identifierNames(p.Children[1].Children)
		body, err := BuildStatements(p.Children[2])
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtFunctionDefinition, Line: p.Line, FuncName: name, Params: params, Body: body}, nil

	case "class_declaration":
		return Statement{Kind: StmtClassDeclaration, Line: p.Line, ClassName: p.Children[0].Text, Members: identifierNames(p.Children[1:])}, nil

	default:
		return Statement{}, errors.Newf(errors.ParseError, "unexpected statement rule %q", p.Rule)
	}
}
