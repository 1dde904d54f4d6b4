// Package repl implements the interactive read-eval-print loop (SPEC_FULL.md
// §6's "gscript repl" subcommand), adapted from the teacher's REPL driver to
// the parser/compiler/vm pipeline and wired to internal/replstore for
// persisted history.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gscript/internal/bytecode"
	"gscript/internal/compiler"
	"gscript/internal/errors"
	"gscript/internal/parser"
	"gscript/internal/replstore"
	"gscript/internal/vm"
)

// REPL holds the state that must survive across lines: the heap and
// function/class tables persist for the life of the session, so a function
// defined on one line can be called on the next.
type REPL struct {
	in      *bufio.Scanner
	out     io.Writer
	store   *replstore.Store
	machine *vm.VM
	bound   map[string]bool // names already on the standing heap, across lines
}

// New constructs a REPL reading from in and writing to out. historyPath, if
// non-empty, opens a persisted replstore.Store for input history.
func New(in io.Reader, out io.Writer, historyPath string) (*REPL, error) {
	var store *replstore.Store
	if historyPath != "" {
		s, err := replstore.Open(historyPath)
		if err != nil {
			return nil, err
		}
		store = s
	}
	return &REPL{
		in:      bufio.NewScanner(in),
		out:     out,
		store:   store,
		machine: vm.New(bytecode.NewProgram()),
		bound:   make(map[string]bool),
	}, nil
}

// Run drives the prompt loop until EOF.
func (r *REPL) Run() error {
	for {
		fmt.Fprint(r.out, "gscript> ")
		if !r.in.Scan() {
			return r.in.Err()
		}
		line := r.in.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if r.store != nil {
			if err := r.store.Append(line); err != nil {
				fmt.Fprintf(r.out, "history error: %v\n", err)
			}
		}
		r.evalLine(line)
	}
}

// evalLine compiles and runs one line's statements against the REPL's
// standing VM state, reporting errors without tearing down the session.
func (r *REPL) evalLine(line string) {
	stmts, err := parser.Parse(line)
	if err != nil {
		fmt.Fprintf(r.out, "parse error: %v\n", err)
		return
	}
	r.retagRebindings(stmts)
	prog, err := compiler.CompileOpen(stmts)
	if err != nil {
		fmt.Fprintf(r.out, "compile error: %v\n", err)
		return
	}
	start := r.machine.Extend(prog)
	if err := r.machine.RunFrom(start); err != nil {
		var se *errors.ScriptError
		if asScriptError(err, &se) {
			fmt.Fprintf(r.out, "%s: %s\n", se.Type, se.Message)
			return
		}
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	r.markBound(stmts)
}

// retagRebindings rewrites top-level StmtVariableAssignments whose target is
// already on the standing heap into StmtVariableReassignments. The parser's
// declared-name tracking (internal/parser/pair.go's Grammar) starts fresh on
// every Parse call, so it has no way to know a name was bound on an earlier
// REPL line; this fills that gap at the REPL layer instead.
func (r *REPL) retagRebindings(stmts []parser.Statement) {
	for i := range stmts {
		if stmts[i].Kind == parser.StmtVariableAssignment && r.bound[stmts[i].Name] {
			stmts[i].Kind = parser.StmtVariableReassignment
		}
	}
}

// markBound records the names a successfully executed line left on the heap,
// so a later line reassigning the same name is recognized by retagRebindings.
func (r *REPL) markBound(stmts []parser.Statement) {
	for _, stmt := range stmts {
		switch stmt.Kind {
		case parser.StmtVariableAssignment, parser.StmtVariableReassignment:
			r.bound[stmt.Name] = true
		case parser.StmtVariableMultiAssignment:
			for _, name := range stmt.Names {
				r.bound[name] = true
			}
		}
	}
}

func asScriptError(err error, target **errors.ScriptError) bool {
	se, ok := err.(*errors.ScriptError)
	if ok {
		*target = se
	}
	return ok
}
