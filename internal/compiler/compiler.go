// Package compiler implements the instruction compiler (§4.D): it walks a
// Statement list, emits a two-stage intermediate (Instruction / Label /
// Jump translations), then resolves labels to absolute addresses in a
// second pass. Grounded directly on
// _examples/original_source/src/instruction_compiler.rs.
package compiler

import (
	"fmt"

	"gscript/internal/bytecode"
	"gscript/internal/errors"
	"gscript/internal/parser"
	"gscript/internal/value"
)

type jumpKind int

const (
	jumpUnconditional jumpKind = iota
	jumpIfTrue
	jumpIfFalse
)

type translationKind int

const (
	transInstruction translationKind = iota
	transLabel
	transJump
)

// translation is one pre-resolution emission: either a finished
// Instruction, a label definition, or a jump whose target is still a
// symbolic label id.
type translation struct {
	kind      translationKind
	instr     bytecode.Instruction
	line      int
	labelID   int
	jumpKind  jumpKind
	jumpLabel int
}

type loopLabels struct {
	start int
	end   int
}

// Compiler accumulates translations for one compilation unit (the whole
// program) and the function/class tables referenced by Call.
type Compiler struct {
	translations []translation
	nextLabel    int

	functionLabels map[string]int // name -> label id, resolved to an address after pass 1
	classes        map[string]*value.ObjectCreator

	loopStack []loopLabels
	inFn      bool
}

func New() *Compiler {
	return &Compiler{
		functionLabels: make(map[string]int),
		classes:        make(map[string]*value.ObjectCreator),
	}
}

// Compile lowers a full Statement list into a resolved Program: the whole
// list is one top-level block, so its own variables are deleted at program
// exit along with everything else on the heap (§4.D "Scope deletion").
func Compile(stmts []parser.Statement) (*bytecode.Program, error) {
	c := New()
	if err := c.compileBlock(stmts); err != nil {
		return nil, err
	}
	return c.resolve()
}

// CompileOpen lowers stmts the same way but without the top-level's own
// closing Delete pass, so the resulting Program's NewVariables persist on
// whatever heap it runs against. Used by the REPL: each entered line is its
// own compilation unit, but they all share one standing VM, so a variable
// bound on one line must survive to the next rather than being torn down
// the moment that line's Program finishes.
func CompileOpen(stmts []parser.Statement) (*bytecode.Program, error) {
	c := New()
	for _, stmt := range stmts {
		if _, err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	return c.resolve()
}

func (c *Compiler) newLabel() int {
	id := c.nextLabel
	c.nextLabel++
	return id
}

func (c *Compiler) emit(line int, instr bytecode.Instruction) {
	c.translations = append(c.translations, translation{kind: transInstruction, instr: instr, line: line})
}

func (c *Compiler) emitLabel(id int) {
	c.translations = append(c.translations, translation{kind: transLabel, labelID: id})
}

func (c *Compiler) emitJump(line int, kind jumpKind, label int) {
	c.translations = append(c.translations, translation{kind: transJump, line: line, jumpKind: kind, jumpLabel: label})
}

// compileBlock lowers a statement list that forms one lexical block,
// tracking names introduced at this block's own top level (not nested
// blocks) and emitting their Delete at the block's exit, in declaration
// order (§4.D "Scope deletion").
func (c *Compiler) compileBlock(stmts []parser.Statement) error {
	var declared []string
	for _, stmt := range stmts {
		names, err := c.compileStatement(stmt)
		if err != nil {
			return err
		}
		declared = append(declared, names...)
	}
	for _, name := range declared {
		c.emit(0, bytecode.Instruction{Op: bytecode.OpDelete, Name: name})
	}
	return nil
}

// compileStatement lowers one statement and returns the names it
// introduces at the caller's block scope (for VariableAssignment /
// VariableMultiAssignment; empty otherwise).
func (c *Compiler) compileStatement(stmt parser.Statement) ([]string, error) {
	switch stmt.Kind {
	case parser.StmtVariableAssignment:
		if err := c.compileExpr(stmt.Value); err != nil {
			return nil, err
		}
		c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpNewVariable, Name: stmt.Name})
		return []string{stmt.Name}, nil

	case parser.StmtVariableReassignment:
		if err := c.compileExpr(stmt.Value); err != nil {
			return nil, err
		}
		c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpStore, Name: stmt.Name})
		return nil, nil

	case parser.StmtVariableMultiAssignment:
		if err := c.compileExpr(stmt.Value); err != nil {
			return nil, err
		}
		for _, name := range stmt.Names {
			c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpNewVariable, Name: name})
		}
		return append([]string{}, stmt.Names...), nil

	case parser.StmtFunctionCall:
		if err := c.compileCall(stmt.Line, stmt.FuncName, stmt.Args); err != nil {
			return nil, err
		}
		return nil, nil

	case parser.StmtConditional:
		return nil, c.compileConditional(stmt)

	case parser.StmtWhileLoop:
		return nil, c.compileWhile(stmt)

	case parser.StmtForLoop:
		return nil, errors.Newf(errors.CompileError, "for loops are not implemented").At("", stmt.Line, 0)

	case parser.StmtBreak:
		if len(c.loopStack) == 0 {
			return nil, errors.Newf(errors.CompileError, "'break' outside a loop").At("", stmt.Line, 0)
		}
		c.emitJump(stmt.Line, jumpUnconditional, c.loopStack[len(c.loopStack)-1].end)
		return nil, nil

	case parser.StmtContinue:
		if len(c.loopStack) == 0 {
			return nil, errors.Newf(errors.CompileError, "'continue' outside a loop").At("", stmt.Line, 0)
		}
		c.emitJump(stmt.Line, jumpUnconditional, c.loopStack[len(c.loopStack)-1].start)
		return nil, nil

	case parser.StmtReturn:
		if !c.inFn {
			return nil, errors.Newf(errors.CompileError, "'return' outside a function").At("", stmt.Line, 0)
		}
		for _, v := range stmt.ReturnValues {
			if err := c.compileExpr(v); err != nil {
				return nil, err
			}
		}
		c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpReturn})
		return nil, nil

	case parser.StmtFunctionDefinition:
		return nil, c.compileFunctionDefinition(stmt)

	case parser.StmtClassDeclaration:
		return nil, c.compileClassDeclaration(stmt)

	default:
		return nil, errors.Newf(errors.CompileError, "unknown statement kind %d", stmt.Kind)
	}
}

func (c *Compiler) compileCall(line int, name string, args []*parser.ExprAst) error {
	for _, arg := range args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.emit(line, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Int(value.IntFromInt64(int64(len(args))))})
	c.emit(line, bytecode.Instruction{Op: bytecode.OpCall, Name: name})
	return nil
}

func (c *Compiler) compileConditional(stmt parser.Statement) error {
	end := c.newLabel()

	if err := c.compileBranch(stmt.Condition, stmt.Body, end); err != nil {
		return err
	}
	for _, ei := range stmt.ElseIfs {
		if err := c.compileBranch(ei.Condition, ei.Body, end); err != nil {
			return err
		}
	}
	if stmt.HasElse {
		if err := c.compileBlock(stmt.Else); err != nil {
			return err
		}
	}
	c.emitLabel(end)
	return nil
}

// compileBranch lowers one `cond { body }` arm of a conditional: if cond is
// false, skip to bodyEnd; otherwise run body then jump past every
// remaining arm to end.
func (c *Compiler) compileBranch(cond *parser.ExprAst, body []parser.Statement, end int) error {
	bodyEnd := c.newLabel()
	if err := c.compileExpr(cond); err != nil {
		return err
	}
	c.emitJump(0, jumpIfFalse, bodyEnd)
	if err := c.compileBlock(body); err != nil {
		return err
	}
	c.emitJump(0, jumpUnconditional, end)
	c.emitLabel(bodyEnd)
	return nil
}

func (c *Compiler) compileWhile(stmt parser.Statement) error {
	start := c.newLabel()
	end := c.newLabel()
	c.emitLabel(start)
	if err := c.compileExpr(stmt.Condition); err != nil {
		return err
	}
	c.emitJump(stmt.Line, jumpIfFalse, end)
	c.loopStack = append(c.loopStack, loopLabels{start: start, end: end})
	err := c.compileBlock(stmt.Body)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	if err != nil {
		return err
	}
	c.emitJump(stmt.Line, jumpUnconditional, start)
	c.emitLabel(end)
	return nil
}

func (c *Compiler) compileFunctionDefinition(stmt parser.Statement) error {
	if _, exists := c.functionLabels[stmt.FuncName]; exists {
		return errors.Newf(errors.CompileError, "function %q is already defined", stmt.FuncName).At("", stmt.Line, 0)
	}
	if _, exists := c.classes[stmt.FuncName]; exists {
		return errors.Newf(errors.CompileError, "%q is already defined as a class", stmt.FuncName).At("", stmt.Line, 0)
	}

	skipEnd := c.newLabel()
	c.emitJump(stmt.Line, jumpUnconditional, skipEnd)

	entry := c.newLabel()
	c.emitLabel(entry)
	c.functionLabels[stmt.FuncName] = entry

	// Prologue: assert the caller's argc (left on the stack by Call)
	// equals len(params), draining it via Eq; see design notes.
	c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Int(value.IntFromInt64(int64(len(stmt.Params))))})
	c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpEq})
	c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Str(fmt.Sprintf("%s: wrong number of arguments", stmt.FuncName))})
	c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Int(value.IntFromInt64(2))})
	c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpCall, Name: "assert"})

	for i := len(stmt.Params) - 1; i >= 0; i-- {
		c.emit(stmt.Line, bytecode.Instruction{Op: bytecode.OpNewVariable, Name: stmt.Params[i]})
	}

	bodyStart := len(c.translations)
	prevInFn, prevLoops := c.inFn, c.loopStack
	c.inFn, c.loopStack = true, nil
	err := c.compileBlock(stmt.Body)
	c.inFn, c.loopStack = prevInFn, prevLoops
	if err != nil {
		return err
	}

	c.insertParamDeletesBeforeReturns(bodyStart, stmt.Params)

	c.emitLabel(skipEnd)
	return nil
}

// insertParamDeletesBeforeReturns scans translations[bodyStart:] for every
// Return instruction and inserts Delete(param) for each parameter,
// reverse-param-order, immediately before it (§4.D). Scanned from the end
// backward so earlier indices stay valid as insertions happen.
func (c *Compiler) insertParamDeletesBeforeReturns(bodyStart int, params []string) {
	if len(params) == 0 {
		return
	}
	for i := len(c.translations) - 1; i >= bodyStart; i-- {
		t := c.translations[i]
		if t.kind != transInstruction || t.instr.Op != bytecode.OpReturn {
			continue
		}
		deletes := make([]translation, len(params))
		for j, p := range params {
			deletes[len(params)-1-j] = translation{kind: transInstruction, instr: bytecode.Instruction{Op: bytecode.OpDelete, Name: p}}
		}
		c.translations = append(c.translations[:i], append(deletes, c.translations[i:]...)...)
	}
}

func (c *Compiler) compileClassDeclaration(stmt parser.Statement) error {
	if _, exists := c.classes[stmt.ClassName]; exists {
		return errors.Newf(errors.CompileError, "class %q is already defined", stmt.ClassName).At("", stmt.Line, 0)
	}
	if _, exists := c.functionLabels[stmt.ClassName]; exists {
		return errors.Newf(errors.CompileError, "%q is already defined as a function", stmt.ClassName).At("", stmt.Line, 0)
	}
	c.classes[stmt.ClassName] = &value.ObjectCreator{Name: stmt.ClassName, MemberNames: stmt.Members}
	return nil
}

// compileExpr lowers an expression tree postorder (§4.D).
func (c *Compiler) compileExpr(e *parser.ExprAst) error {
	switch e.Kind {
	case parser.ExprValue:
		return c.compileLiteral(e.Value)
	case parser.ExprFunctionCall:
		return c.compileCall(0, e.FuncName, e.Args)
	default:
		if err := c.compileExpr(e.Lhs); err != nil {
			return err
		}
		if err := c.compileExpr(e.Rhs); err != nil {
			return err
		}
		c.emit(0, bytecode.Instruction{Op: binOp(e.Kind)})
		return nil
	}
}

func binOp(k parser.ExprKind) bytecode.Op {
	switch k {
	case parser.ExprAdd:
		return bytecode.OpAdd
	case parser.ExprSub:
		return bytecode.OpSub
	case parser.ExprMul:
		return bytecode.OpMul
	case parser.ExprDiv:
		return bytecode.OpDiv
	case parser.ExprEq:
		return bytecode.OpEq
	case parser.ExprNeq:
		return bytecode.OpNeq
	case parser.ExprGtEq:
		return bytecode.OpGtEq
	case parser.ExprLtEq:
		return bytecode.OpLtEq
	case parser.ExprGt:
		return bytecode.OpGt
	default:
		return bytecode.OpLt
	}
}

func (c *Compiler) compileLiteral(v parser.EvalValue) error {
	switch v.Kind {
	case parser.EvalInt:
		iv, err := value.ParseIntLiteral(v.Text)
		if err != nil {
			return err
		}
		c.emit(0, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Int(iv)})
		return nil
	case parser.EvalFloat:
		fv, err := value.ParseFloatLiteral(v.Text)
		if err != nil {
			return err
		}
		c.emit(0, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Float(fv)})
		return nil
	case parser.EvalString:
		c.emit(0, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Str(v.Str)})
		return nil
	case parser.EvalBool:
		c.emit(0, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Bool(v.Bool)})
		return nil
	case parser.EvalReference:
		c.emit(0, bytecode.Instruction{Op: bytecode.OpLoad, Name: v.Name})
		return nil
	case parser.EvalList:
		c.emit(0, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Vector(nil)})
		for _, item := range v.Items {
			if err := c.compileExpr(item); err != nil {
				return err
			}
			c.emit(0, bytecode.Instruction{Op: bytecode.OpPush, Value: value.Int(value.IntFromInt64(2))})
			c.emit(0, bytecode.Instruction{Op: bytecode.OpCall, Name: "push"})
		}
		return nil
	default:
		return errors.Newf(errors.CompileError, "unknown literal kind %d", v.Kind)
	}
}

// resolve runs the two-pass label resolution (§4.D): pass one assigns each
// label the absolute address of the next non-label translation (1-based,
// past the planted leading Nop); pass two rewrites Jump translations to
// absolute-address Instructions.
func (c *Compiler) resolve() (*bytecode.Program, error) {
	labels := make(map[int]int)
	nextAddr := 1
	for _, t := range c.translations {
		if t.kind == transLabel {
			labels[t.labelID] = nextAddr
			continue
		}
		nextAddr++
	}

	prog := bytecode.NewProgram()
	for _, t := range c.translations {
		switch t.kind {
		case transLabel:
			continue
		case transInstruction:
			prog.Emit(t.line, t.instr)
		case transJump:
			addr, ok := labels[t.jumpLabel]
			if !ok {
				return nil, errors.Newf(errors.CompileError, "unresolved jump label %d", t.jumpLabel)
			}
			prog.Emit(t.line, bytecode.Instruction{Op: jumpOp(t.jumpKind), Addr: addr})
		}
	}

	for name, label := range c.functionLabels {
		addr, ok := labels[label]
		if !ok {
			return nil, errors.Newf(errors.CompileError, "unresolved function entry for %q", name)
		}
		prog.Functions[name] = addr
	}
	prog.Classes = c.classes
	return prog, nil
}

func jumpOp(k jumpKind) bytecode.Op {
	switch k {
	case jumpIfTrue:
		return bytecode.OpJumpIfTrue
	case jumpIfFalse:
		return bytecode.OpJumpIfFalse
	default:
		return bytecode.OpJump
	}
}
