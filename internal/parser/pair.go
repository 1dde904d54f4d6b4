// Package parser holds both the external parse-node supply (pair.go, this
// file — a hand-rolled recursive-descent grammar standing in for "the
// external parser" §6 only specifies the shape of) and the graded
// expression builder (ast.go) and statement builder (stmt.go) that consume
// it. Grounded on the teacher's internal/parser/parser.go match/check/
// consume/advance idiom.
package parser

import (
	"fmt"

	"gscript/internal/lexer"
)

// Pair is a generic, rule-tagged parse node — the shape §6 specifies the
// expression and statement builders consume.
type Pair struct {
	Rule     string
	Text     string
	Children []*Pair
	Line     int
}

func leaf(rule, text string, line int) *Pair { return &Pair{Rule: rule, Text: text, Line: line} }

// Grammar is the recursive-descent parser producing the Pair tree.
type Grammar struct {
	tokens []lexer.Token
	pos    int
	scopes []map[string]bool
}

func NewGrammar(tokens []lexer.Token) *Grammar {
	return &Grammar{tokens: tokens, scopes: []map[string]bool{{}}}
}

func (g *Grammar) pushScope()      { g.scopes = append(g.scopes, map[string]bool{}) }
func (g *Grammar) popScope()       { g.scopes = g.scopes[:len(g.scopes)-1] }
func (g *Grammar) declare(n string) { g.scopes[len(g.scopes)-1][n] = true }
func (g *Grammar) isDeclared(n string) bool {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if g.scopes[i][n] {
			return true
		}
	}
	return false
}

func (g *Grammar) peek() lexer.Token  { return g.tokens[g.pos] }
func (g *Grammar) peekAt(n int) lexer.Token {
	if g.pos+n >= len(g.tokens) {
		return g.tokens[len(g.tokens)-1]
	}
	return g.tokens[g.pos+n]
}
func (g *Grammar) advance() lexer.Token {
	t := g.tokens[g.pos]
	if t.Type != lexer.TokenEOF {
		g.pos++
	}
	return t
}
func (g *Grammar) check(t lexer.TokenType) bool { return g.peek().Type == t }
func (g *Grammar) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if g.check(t) {
			g.advance()
			return true
		}
	}
	return false
}
func (g *Grammar) expect(t lexer.TokenType, what string) (lexer.Token, error) {
	if g.check(t) {
		return g.advance(), nil
	}
	return lexer.Token{}, fmt.Errorf("line %d: expected %s, got %q", g.peek().Line, what, g.peek().Lexeme)
}

// Parse runs the grammar over the whole token stream, producing a
// "program" Pair whose children are every top-level statement plus a final
// EOI marker, matching §6's parse-node contract.
func (g *Grammar) Parse() (*Pair, error) {
	program := &Pair{Rule: "program"}
	for !g.check(lexer.TokenEOF) {
		stmt, err := g.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Children = append(program.Children, stmt)
	}
	program.Children = append(program.Children, leaf("EOI", "", g.peek().Line))
	return program, nil
}

func (g *Grammar) parseBlock() (*Pair, error) {
	if _, err := g.expect(lexer.TokenLBrace, "'{'"); err != nil {
		return nil, err
	}
	g.pushScope()
	defer g.popScope()
	block := &Pair{Rule: "block"}
	for !g.check(lexer.TokenRBrace) && !g.check(lexer.TokenEOF) {
		stmt, err := g.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Children = append(block.Children, stmt)
	}
	if _, err := g.expect(lexer.TokenRBrace, "'}'"); err != nil {
		return nil, err
	}
	return block, nil
}

func (g *Grammar) parseStatement() (*Pair, error) {
	line := g.peek().Line
	switch g.peek().Type {
	case lexer.TokenIf:
		return g.parseConditional()
	case lexer.TokenWhile:
		return g.parseWhile()
	case lexer.TokenBreak:
		g.advance()
		return leaf("break_kw", "", line), nil
	case lexer.TokenContinue:
		g.advance()
		return leaf("continue_kw", "", line), nil
	case lexer.TokenReturn:
		return g.parseReturn()
	case lexer.TokenFn:
		return g.parseFunctionDeclaration()
	case lexer.TokenClass:
		return g.parseClassDeclaration()
	case lexer.TokenIdentifier:
		return g.parseIdentifierLedStatement()
	default:
		return nil, fmt.Errorf("line %d: unexpected token %q at statement position", line, g.peek().Lexeme)
	}
}

// parseIdentifierLedStatement disambiguates assignment, multi-assignment,
// reassignment and a bare function-call statement, all of which start with
// an identifier.
func (g *Grammar) parseIdentifierLedStatement() (*Pair, error) {
	line := g.peek().Line
	if g.peekAt(1).Type == lexer.TokenComma {
		return g.parseMultiAssignment()
	}
	if g.peekAt(1).Type == lexer.TokenEq {
		name := g.advance().Lexeme
		g.advance() // '='
		value, err := g.parseExpr()
		if err != nil {
			return nil, err
		}
		namePair := leaf("identifier", name, line)
		if g.isDeclared(name) {
			return &Pair{Rule: "variable_reassignment", Line: line, Children: []*Pair{namePair, value}}, nil
		}
		g.declare(name)
		return &Pair{Rule: "variable_assignment", Line: line, Children: []*Pair{namePair, value}}, nil
	}
	call, err := g.parseFunctionCall()
	if err != nil {
		return nil, err
	}
	return &Pair{Rule: "function_call_statement", Line: line, Children: []*Pair{call}}, nil
}

func (g *Grammar) parseMultiAssignment() (*Pair, error) {
	line := g.peek().Line
	stmt := &Pair{Rule: "variable_multi_assignment", Line: line}
	for {
		tok, err := g.expect(lexer.TokenIdentifier, "identifier")
		if err != nil {
			return nil, err
		}
		g.declare(tok.Lexeme)
		stmt.Children = append(stmt.Children, leaf("identifier", tok.Lexeme, tok.Line))
		if !g.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := g.expect(lexer.TokenEq, "'='"); err != nil {
		return nil, err
	}
	value, err := g.parseExpr()
	if err != nil {
		return nil, err
	}
	stmt.Children = append(stmt.Children, value)
	return stmt, nil
}

func (g *Grammar) parseConditional() (*Pair, error) {
	line := g.peek().Line
	g.advance() // 'if'
	cond, err := g.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := g.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &Pair{Rule: "conditional", Line: line, Children: []*Pair{cond, body}}
	for g.check(lexer.TokenElse) && g.peekAt(1).Type == lexer.TokenIf {
		g.advance() // 'else'
		elseIfLine := g.peek().Line
		g.advance() // 'if'
		elseIfCond, err := g.parseExpr()
		if err != nil {
			return nil, err
		}
		elseIfBody, err := g.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Children = append(stmt.Children, &Pair{Rule: "conditional_else_if", Line: elseIfLine, Children: []*Pair{elseIfCond, elseIfBody}})
	}
	if g.check(lexer.TokenElse) {
		elseLine := g.peek().Line
		g.advance()
		elseBody, err := g.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Children = append(stmt.Children, &Pair{Rule: "conditional_else", Line: elseLine, Children: []*Pair{elseBody}})
	}
	return stmt, nil
}

func (g *Grammar) parseWhile() (*Pair, error) {
	line := g.peek().Line
	g.advance() // 'while'
	cond, err := g.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := g.parseBlock()
	if err != nil {
		return nil, err
	}
	return &Pair{Rule: "while_loop", Line: line, Children: []*Pair{cond, body}}, nil
}

func (g *Grammar) parseReturn() (*Pair, error) {
	line := g.peek().Line
	g.advance() // 'return'
	stmt := &Pair{Rule: "return_kw", Line: line}
	if g.check(lexer.TokenRBrace) || g.check(lexer.TokenEOF) {
		return stmt, nil
	}
	for {
		v, err := g.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Children = append(stmt.Children, v)
		if !g.match(lexer.TokenComma) {
			break
		}
	}
	return stmt, nil
}

func (g *Grammar) parseFunctionDeclaration() (*Pair, error) {
	line := g.peek().Line
	g.advance() // 'fn'
	name, err := g.expect(lexer.TokenIdentifier, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := g.expect(lexer.TokenLParen, "'('"); err != nil {
		return nil, err
	}
	stmt := &Pair{Rule: "function_declaration", Line: line}
	stmt.Children = append(stmt.Children, leaf("identifier", name.Lexeme, name.Line))
	params := &Pair{Rule: "params"}
	for !g.check(lexer.TokenRParen) {
		p, err := g.expect(lexer.TokenIdentifier, "parameter name")
		if err != nil {
			return nil, err
		}
		params.Children = append(params.Children, leaf("identifier", p.Lexeme, p.Line))
		if !g.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := g.expect(lexer.TokenRParen, "')'"); err != nil {
		return nil, err
	}
	stmt.Children = append(stmt.Children, params)
	g.pushScope()
	for _, p := range params.Children {
		g.declare(p.Text)
	}
	body, err := g.parseBlockNoScope()
	g.popScope()
	if err != nil {
		return nil, err
	}
	stmt.Children = append(stmt.Children, body)
	return stmt, nil
}

// parseBlockNoScope parses a block body without pushing its own scope,
// used by function declarations which push one scope shared by params and
// body together.
func (g *Grammar) parseBlockNoScope() (*Pair, error) {
	if _, err := g.expect(lexer.TokenLBrace, "'{'"); err != nil {
		return nil, err
	}
	block := &Pair{Rule: "block"}
	for !g.check(lexer.TokenRBrace) && !g.check(lexer.TokenEOF) {
		stmt, err := g.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Children = append(block.Children, stmt)
	}
	if _, err := g.expect(lexer.TokenRBrace, "'}'"); err != nil {
		return nil, err
	}
	return block, nil
}

func (g *Grammar) parseClassDeclaration() (*Pair, error) {
	line := g.peek().Line
	g.advance() // 'class'
	name, err := g.expect(lexer.TokenIdentifier, "class name")
	if err != nil {
		return nil, err
	}
	if _, err := g.expect(lexer.TokenLParen, "'('"); err != nil {
		return nil, err
	}
	stmt := &Pair{Rule: "class_declaration", Line: line}
	stmt.Children = append(stmt.Children, leaf("identifier", name.Lexeme, name.Line))
	for !g.check(lexer.TokenRParen) {
		m, err := g.expect(lexer.TokenIdentifier, "member name")
		if err != nil {
			return nil, err
		}
		stmt.Children = append(stmt.Children, leaf("identifier", m.Lexeme, m.Line))
		if !g.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := g.expect(lexer.TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (g *Grammar) parseFunctionCall() (*Pair, error) {
	name, err := g.expect(lexer.TokenIdentifier, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := g.expect(lexer.TokenLParen, "'('"); err != nil {
		return nil, err
	}
	call := &Pair{Rule: "function_call", Line: name.Line}
	call.Children = append(call.Children, leaf("identifier", name.Lexeme, name.Line))
	for !g.check(lexer.TokenRParen) {
		arg, err := g.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Children = append(call.Children, arg)
		if !g.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := g.expect(lexer.TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return call, nil
}

// --- expression grammar: expr -> bare_expr, three precedence tiers ---

func (g *Grammar) parseExpr() (*Pair, error) {
	bare, err := g.parseBareExpr()
	if err != nil {
		return nil, err
	}
	return &Pair{Rule: "expr", Line: bare.Line, Children: []*Pair{bare}}, nil
}

var eqOps = map[lexer.TokenType]bool{
	lexer.TokenEqEq: true, lexer.TokenNotEq: true, lexer.TokenGtEq: true,
	lexer.TokenLtEq: true, lexer.TokenGt: true, lexer.TokenLt: true,
}
var sumOps = map[lexer.TokenType]bool{lexer.TokenPlus: true, lexer.TokenMinus: true}
var prodOps = map[lexer.TokenType]bool{lexer.TokenStar: true, lexer.TokenSlash: true}

func (g *Grammar) parseBareExpr() (*Pair, error) {
	line := g.peek().Line
	first, err := g.parseSum()
	if err != nil {
		return nil, err
	}
	bare := &Pair{Rule: "bare_expr", Line: line, Children: []*Pair{first}}
	for eqOps[g.peek().Type] {
		op := g.advance()
		rhs, err := g.parseSum()
		if err != nil {
			return nil, err
		}
		bare.Children = append(bare.Children, leaf("eq_ops", string(op.Type), op.Line), rhs)
	}
	return bare, nil
}

func (g *Grammar) parseSum() (*Pair, error) {
	line := g.peek().Line
	first, err := g.parseProduct()
	if err != nil {
		return nil, err
	}
	sum := &Pair{Rule: "sum", Line: line, Children: []*Pair{first}}
	for sumOps[g.peek().Type] {
		op := g.advance()
		rhs, err := g.parseProduct()
		if err != nil {
			return nil, err
		}
		sum.Children = append(sum.Children, leaf("sum_ops", string(op.Type), op.Line), rhs)
	}
	return sum, nil
}

func (g *Grammar) parseProduct() (*Pair, error) {
	line := g.peek().Line
	first, err := g.parseTerm()
	if err != nil {
		return nil, err
	}
	product := &Pair{Rule: "product", Line: line, Children: []*Pair{first}}
	for prodOps[g.peek().Type] {
		op := g.advance()
		rhs, err := g.parseTerm()
		if err != nil {
			return nil, err
		}
		product.Children = append(product.Children, leaf("prod_ops", string(op.Type), op.Line), rhs)
	}
	return product, nil
}

func (g *Grammar) parseTerm() (*Pair, error) {
	line := g.peek().Line
	switch g.peek().Type {
	case lexer.TokenLParen:
		g.advance()
		inner, err := g.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := g.expect(lexer.TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return &Pair{Rule: "term", Line: line, Children: []*Pair{inner}}, nil
	case lexer.TokenInt:
		tok := g.advance()
		return &Pair{Rule: "term", Line: line, Children: []*Pair{leaf("integer", tok.Lexeme, line)}}, nil
	case lexer.TokenFloat:
		tok := g.advance()
		return &Pair{Rule: "term", Line: line, Children: []*Pair{leaf("float", tok.Lexeme, line)}}, nil
	case lexer.TokenString:
		tok := g.advance()
		return &Pair{Rule: "term", Line: line, Children: []*Pair{leaf("string", tok.Lexeme, line)}}, nil
	case lexer.TokenTrue, lexer.TokenFalse:
		tok := g.advance()
		return &Pair{Rule: "term", Line: line, Children: []*Pair{leaf("boolean", tok.Lexeme, line)}}, nil
	case lexer.TokenLBrack:
		list, err := g.parseList()
		if err != nil {
			return nil, err
		}
		return &Pair{Rule: "term", Line: line, Children: []*Pair{list}}, nil
	case lexer.TokenMinus:
		// Unary minus: desugar to 0 - term so the expression tree stays
		// within the binary-op vocabulary §4.C defines.
		g.advance()
		operand, err := g.parseTerm()
		if err != nil {
			return nil, err
		}
		zero := &Pair{Rule: "term", Line: line, Children: []*Pair{leaf("integer", "0", line)}}
		wrapped := &Pair{Rule: "sum", Line: line, Children: []*Pair{zero, leaf("sum_ops", "-", line), operand}}
		return &Pair{Rule: "term", Line: line, Children: []*Pair{wrapped}}, nil
	case lexer.TokenIdentifier:
		if g.peekAt(1).Type == lexer.TokenLParen {
			call, err := g.parseFunctionCall()
			if err != nil {
				return nil, err
			}
			return &Pair{Rule: "term", Line: line, Children: []*Pair{call}}, nil
		}
		ref, err := g.parseDottedIdentifier()
		if err != nil {
			return nil, err
		}
		return &Pair{Rule: "term", Line: line, Children: []*Pair{ref}}, nil
	default:
		return nil, fmt.Errorf("line %d: unexpected token %q in expression", line, g.peek().Lexeme)
	}
}

// parseDottedIdentifier folds a.b.c into one "identifier" leaf whose text
// carries the full dotted path, which §4.D/§4.E split on '.' themselves.
func (g *Grammar) parseDottedIdentifier() (*Pair, error) {
	tok, err := g.expect(lexer.TokenIdentifier, "identifier")
	if err != nil {
		return nil, err
	}
	name := tok.Lexeme
	for g.check(lexer.TokenDot) {
		g.advance()
		next, err := g.expect(lexer.TokenIdentifier, "member name")
		if err != nil {
			return nil, err
		}
		name += "." + next.Lexeme
	}
	return leaf("identifier", name, tok.Line), nil
}

func (g *Grammar) parseList() (*Pair, error) {
	line := g.peek().Line
	g.advance() // '['
	list := &Pair{Rule: "list", Line: line}
	for !g.check(lexer.TokenRBrack) {
		item, err := g.parseExpr()
		if err != nil {
			return nil, err
		}
		list.Children = append(list.Children, item)
		if !g.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := g.expect(lexer.TokenRBrack, "']'"); err != nil {
		return nil, err
	}
	return list, nil
}
