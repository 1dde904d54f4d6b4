package parser

import (
	"fmt"
	"strings"

	"gscript/internal/errors"
)

// EvalKind tags which alternative of EvalValue is populated.
type EvalKind int

const (
	EvalReference EvalKind = iota
	EvalInt
	EvalFloat
	EvalString
	EvalBool
	EvalList
)

// EvalValue is an expression-tree leaf (§3): a reference to be resolved at
// runtime, a literal kept as raw text (width deferred to the compiler), or
// a list of nested expressions.
type EvalValue struct {
	Kind  EvalKind
	Name  string       // Reference (may be dotted)
	Text  string       // IntegerLiteral / FloatLiteral raw text
	Str   string        // StringLiteral, escapes already resolved
	Bool  bool          // BooleanLiteral
	Items []*ExprAst    // List
}

// ExprKind tags which alternative of ExprAst is populated.
type ExprKind int

const (
	ExprValue ExprKind = iota
	ExprFunctionCall
	ExprAdd
	ExprSub
	ExprMul
	ExprDiv
	ExprEq
	ExprNeq
	ExprGtEq
	ExprLtEq
	ExprGt
	ExprLt
)

// ExprAst is the typed expression tree §4.C builds: a Value leaf, a
// function call, or a binary operation over two child ExprAst nodes.
type ExprAst struct {
	Kind ExprKind

	Value EvalValue // ExprValue

	FuncName string     // ExprFunctionCall
	Args     []*ExprAst // ExprFunctionCall

	Lhs *ExprAst // binary ops
	Rhs *ExprAst // binary ops
}

var eqOpKinds = map[string]ExprKind{
	"==": ExprEq, "!=": ExprNeq, ">=": ExprGtEq, "<=": ExprLtEq, ">": ExprGt, "<": ExprLt,
}
var sumOpKinds = map[string]ExprKind{"+": ExprAdd, "-": ExprSub}
var prodOpKinds = map[string]ExprKind{"*": ExprMul, "/": ExprDiv}

// BuildExpr converts a parse node for an "expr" (or any of its tiers) into
// an ExprAst, per §4.C: recurse on parse structure, fold left-associatively
// within each precedence tier.
func BuildExpr(p *Pair) (*ExprAst, error) {
	switch p.Rule {
	case "expr":
		return BuildExpr(p.Children[0])
	case "bare_expr":
		return foldTier(p.Children, BuildExpr, eqOpKinds)
	case "sum":
		return foldTier(p.Children, BuildExpr, sumOpKinds)
	case "product":
		return foldTier(p.Children, BuildExpr, prodOpKinds)
	case "term":
		return buildTerm(p)
	default:
		return nil, errors.Newf(errors.ParseError, "unexpected parse rule %q where an expression was expected", p.Rule)
	}
}

// foldTier flattens an alternating operand-operator-operand... child list
// into a left-associative fold, one binary node per (op, rhs) pair
// consumed against a running accumulator.
func foldTier(children []*Pair, buildOperand func(*Pair) (*ExprAst, error), opKinds map[string]ExprKind) (*ExprAst, error) {
	acc, err := buildOperand(children[0])
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(children); i += 2 {
		opText := children[i].Text
		kind, ok := opKinds[opText]
		if !ok {
			return nil, errors.Newf(errors.ParseError, "unknown operator %q", opText)
		}
		rhs, err := buildOperand(children[i+1])
		if err != nil {
			return nil, err
		}
		acc = &ExprAst{Kind: kind, Lhs: acc, Rhs: rhs}
	}
	return acc, nil
}

func buildTerm(p *Pair) (*ExprAst, error) {
	child := p.Children[0]
	switch child.Rule {
	case "expr":
		return BuildExpr(child)
	case "sum":
		return BuildExpr(child)
	case "integer":
		return &ExprAst{Kind: ExprValue, Value: EvalValue{Kind: EvalInt, Text: child.Text}}, nil
	case "float":
		return &ExprAst{Kind: ExprValue, Value: EvalValue{Kind: EvalFloat, Text: child.Text}}, nil
	case "string":
		s, err := unescapeString(child.Text)
		if err != nil {
			return nil, err
		}
		return &ExprAst{Kind: ExprValue, Value: EvalValue{Kind: EvalString, Str: s}}, nil
	case "boolean":
		return &ExprAst{Kind: ExprValue, Value: EvalValue{Kind: EvalBool, Bool: child.Text == "true"}}, nil
	case "identifier":
		return &ExprAst{Kind: ExprValue, Value: EvalValue{Kind: EvalReference, Name: child.Text}}, nil
	case "list":
		items := make([]*ExprAst, 0, len(child.Children))
		for _, elem := range child.Children {
			item, err := BuildExpr(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return &ExprAst{Kind: ExprValue, Value: EvalValue{Kind: EvalList, Items: items}}, nil
	case "function_call":
		return buildFunctionCall(child)
	default:
		return nil, errors.Newf(errors.ParseError, "unexpected term child rule %q", child.Rule)
	}
}

// buildFunctionCall builds a FunctionCall node: first child is the name,
// the rest are argument expressions.
func buildFunctionCall(p *Pair) (*ExprAst, error) {
	name := p.Children[0].Text
	args := make([]*ExprAst, 0, len(p.Children)-1)
	for _, argPair := range p.Children[1:] {
		arg, err := BuildExpr(argPair)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &ExprAst{Kind: ExprFunctionCall, FuncName: name, Args: args}, nil
}

var stringEscapes = map[rune]rune{
	'n': '\n', 't': '\t', 'r': '\r', '\\': '\\', '0': 0, '"': '"',
}

// unescapeString resolves escape sequences in a quoted string token using
// a table-driven state machine (escaped ON after a solitary backslash, per
// the design-notes guidance), then strips the surrounding quotes.
func unescapeString(text string) (string, error) {
	runes := []rune(text)
	if len(runes) < 2 || runes[0] != '"' || runes[len(runes)-1] != '"' {
		return "", errors.Newf(errors.ParseError, "malformed string literal %q", text)
	}
	inner := runes[1 : len(runes)-1]
	var sb strings.Builder
	escaped := false
	for _, r := range inner {
		if escaped {
			repl, ok := stringEscapes[r]
			if !ok {
				return "", errors.Newf(errors.ParseError, "invalid escape sequence \\%c", r)
			}
			sb.WriteRune(repl)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		sb.WriteRune(r)
	}
	if escaped {
		return "", errors.Newf(errors.ParseError, "dangling escape at end of string literal")
	}
	return sb.String(), nil
}

// String renders an ExprAst for --debug dumps.
func (e *ExprAst) String() string {
	switch e.Kind {
	case ExprValue:
		return e.Value.String()
	case ExprFunctionCall:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s(%s)", e.FuncName, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("(%s %s %s)", e.Lhs, opSymbol(e.Kind), e.Rhs)
	}
}

func opSymbol(k ExprKind) string {
	for text, kind := range eqOpKinds {
		if kind == k {
			return text
		}
	}
	for text, kind := range sumOpKinds {
		if kind == k {
			return text
		}
	}
	for text, kind := range prodOpKinds {
		if kind == k {
			return text
		}
	}
	return "?"
}

func (v EvalValue) String() string {
	switch v.Kind {
	case EvalReference:
		return v.Name
	case EvalInt, EvalFloat:
		return v.Text
	case EvalString:
		return fmt.Sprintf("%q", v.Str)
	case EvalBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
}
