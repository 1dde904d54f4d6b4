package parser

import (
	"gscript/internal/errors"
	"gscript/internal/lexer"
)

// Parse runs the lexer, then the recursive-descent grammar, then the
// statement builder over source text, producing the Statement list the
// compiler consumes. This is the glue §2/§6 describe as "the external
// parser" plus the graded statement/expression builders.
func Parse(source string) ([]Statement, error) {
	tokens, err := lexer.New(source).ScanTokens()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ParseError, "%v", err)
	}
	program, err := NewGrammar(tokens).Parse()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ParseError, "%v", err)
	}
	return BuildStatements(program)
}
