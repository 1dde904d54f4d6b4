// Package vm implements the stack-based virtual machine (§4.E): a
// fetch-decode-execute loop over a Program's instruction stream, a value
// stack, a named-variable heap, a call stack of return addresses, and the
// function/class tables the compiler produced.
package vm

import (
	"strings"

	"gscript/internal/bytecode"
	"gscript/internal/errors"
	"gscript/internal/value"
)

// DebugHook is notified after every executed instruction, letting an
// observer (the --debug-server websocket stream) watch a run live without
// the VM itself knowing anything about transport. Grounded on the
// teacher's internal/debugger DebugHook/OnInstruction shape.
type DebugHook interface {
	OnInstruction(pc int, stackDepth int, instr bytecode.Instruction)
}

// VM holds all mutable execution state (§3 "VM state").
type VM struct {
	stack     []value.Value
	rom       []bytecode.Instruction
	pc        int
	heap      map[string]*value.Object
	functions map[string]int
	classes   map[string]*value.ObjectCreator
	callStack []int

	Hook DebugHook
	Out  *strings.Builder // nil means write straight to stdout; tests set this
}

// New constructs a VM ready to run prog from pc=0.
func New(prog *bytecode.Program) *VM {
	return &VM{
		rom:       prog.Code,
		heap:      make(map[string]*value.Object),
		functions: prog.Functions,
		classes:   prog.Classes,
	}
}

func (m *VM) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *VM) pop() (value.Value, error) {
	if len(m.stack) == 0 {
		return value.Value{}, errors.Newf(errors.StackError, "stack underflow")
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return top, nil
}

func (m *VM) popScalar() (value.ValueType, error) {
	v, err := m.pop()
	if err != nil {
		return value.ValueType{}, err
	}
	sv, ok := v.ScalarOf()
	if !ok {
		return value.ValueType{}, errors.Newf(errors.TypeError, "expected a scalar value")
	}
	return sv, nil
}

func (m *VM) popInt() (int64, error) {
	v, err := m.popScalar()
	if err != nil {
		return 0, err
	}
	if v.Kind != value.KindInt {
		return 0, errors.Newf(errors.TypeError, "expected an int")
	}
	return v.Int.Val, nil
}

func (m *VM) popBool() (bool, error) {
	v, err := m.popScalar()
	if err != nil {
		return false, err
	}
	if v.Kind != value.KindBool {
		return false, errors.Newf(errors.TypeError, "expected a bool")
	}
	return v.Bool, nil
}

func (m *VM) popString() (string, error) {
	v, err := m.popScalar()
	if err != nil {
		return "", err
	}
	if v.Kind != value.KindString {
		return "", errors.Newf(errors.TypeError, "expected a string")
	}
	return v.Str, nil
}

// Run executes rom to completion (pc advancing past the end), per §4.E's
// fetch-decode-execute loop.
func (m *VM) Run() error {
	return m.RunFrom(0)
}

// RunFrom executes rom starting at pc=start, to support the REPL's
// one-line-at-a-time evaluation against a standing heap (below).
func (m *VM) RunFrom(start int) error {
	m.pc = start
	for m.pc < len(m.rom) {
		instr := m.rom[m.pc]
		pc := m.pc
		if err := m.step(instr); err != nil {
			return err
		}
		if m.Hook != nil {
			m.Hook.OnInstruction(pc, len(m.stack), instr)
		}
		m.pc++
	}
	return nil
}

// Extend appends prog's instructions (skipping its leading Nop) onto this
// VM's rom, shifting prog's jump targets and function entry addresses so
// they stay valid, merging its class table, and returns the pc to RunFrom
// for just the new code. The heap,
// user-defined functions and classes from earlier calls all persist, which
// is what lets a REPL session define a function on one line and call it on
// the next.
func (m *VM) Extend(prog *bytecode.Program) int {
	base := len(m.rom)
	for _, instr := range prog.Code[1:] {
		switch instr.Op {
		case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpJumpIfTrue:
			instr.Addr += base - 1
		}
		m.rom = append(m.rom, instr)
	}
	for name, addr := range prog.Functions {
		m.functions[name] = base + addr - 1
	}
	for name, creator := range prog.Classes {
		m.classes[name] = creator
	}
	return base
}

// EntryPoint is the pc a fresh, never-run VM should start RunFrom at.
func (m *VM) EntryPoint() int { return 0 }

func (m *VM) step(instr bytecode.Instruction) error {
	switch instr.Op {
	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv,
		bytecode.OpEq, bytecode.OpNeq, bytecode.OpLt, bytecode.OpGt, bytecode.OpLtEq, bytecode.OpGtEq:
		return m.execBinary(instr.Op)

	case bytecode.OpLoad:
		return m.execLoad(instr.Name)
	case bytecode.OpStore:
		return m.execStore(instr.Name)
	case bytecode.OpNewVariable:
		return m.execNewVariable(instr.Name)
	case bytecode.OpDelete:
		return m.execDelete(instr.Name)

	case bytecode.OpJump:
		m.pc = instr.Addr - 1
		return nil
	case bytecode.OpJumpIfTrue:
		cond, err := m.popBool()
		if err != nil {
			return err
		}
		if cond {
			m.pc = instr.Addr - 1
		}
		return nil
	case bytecode.OpJumpIfFalse:
		cond, err := m.popBool()
		if err != nil {
			return err
		}
		if !cond {
			m.pc = instr.Addr - 1
		}
		return nil

	case bytecode.OpCall:
		return m.execCall(instr.Name)
	case bytecode.OpReturn:
		return m.execReturn()

	case bytecode.OpPush:
		m.push(value.Value{Scalar: instr.Value})
		return nil
	case bytecode.OpPop:
		_, err := m.pop()
		return err
	case bytecode.OpClone:
		top, err := m.pop()
		if err != nil {
			return err
		}
		m.push(top)
		m.push(top)
		return nil
	case bytecode.OpSwap:
		a, err := m.pop()
		if err != nil {
			return err
		}
		b, err := m.pop()
		if err != nil {
			return err
		}
		m.push(a)
		m.push(b)
		return nil
	case bytecode.OpRotate:
		return m.execRotate()
	case bytecode.OpMoveBack:
		return m.execMoveBack(instr.N)
	case bytecode.OpNop:
		return nil
	default:
		return errors.Newf(errors.CompileError, "unknown opcode %v", instr.Op)
	}
}

// execBinary pops rhs then lhs, pushing Value(op(lhs,rhs)) (§4.E).
func (m *VM) execBinary(op bytecode.Op) error {
	rhs, err := m.popScalar()
	if err != nil {
		return err
	}
	lhs, err := m.popScalar()
	if err != nil {
		return err
	}
	switch op {
	case bytecode.OpAdd:
		r, err := value.Add(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: r})
	case bytecode.OpSub:
		r, err := value.Sub(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: r})
	case bytecode.OpMul:
		r, err := value.Mul(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: r})
	case bytecode.OpDiv:
		r, err := value.Div(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: r})
	case bytecode.OpEq:
		r, err := value.Eq(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: value.Bool(r)})
	case bytecode.OpNeq:
		r, err := value.Neq(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: value.Bool(r)})
	case bytecode.OpLt:
		r, err := value.Lt(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: value.Bool(r)})
	case bytecode.OpGt:
		r, err := value.Gt(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: value.Bool(r)})
	case bytecode.OpLtEq:
		r, err := value.LtEq(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: value.Bool(r)})
	default: // OpGtEq
		r, err := value.GtEq(lhs, rhs)
		if err != nil {
			return err
		}
		m.push(value.Value{Scalar: value.Bool(r)})
	}
	return nil
}

// splitDotted splits "a.b.c" into head "a" and tail ["b","c"].
func splitDotted(name string) (string, []string) {
	parts := strings.Split(name, ".")
	return parts[0], parts[1:]
}

// execLoad implements §4.E's Load(name): walk a dotted path from a heap
// entry, pushing the scalar under __value__ (or the whole Object) when the
// tail is empty, or the member value the tail resolves to.
func (m *VM) execLoad(name string) error {
	head, tail := splitDotted(name)
	obj, ok := m.heap[head]
	if !ok {
		return errors.Newf(errors.NameError, "undefined variable %q", head)
	}
	v := value.Value{Obj: obj}
	for i, member := range tail {
		if !v.IsObject() {
			return errors.Newf(errors.TypeError, "member access on a non-object in %q", name)
		}
		next, ok := v.Obj.Members[member]
		if !ok {
			return errors.Newf(errors.TypeError, "no member %q on %q", member, strings.Join(append([]string{head}, tail[:i]...), "."))
		}
		v = next
	}
	if len(tail) == 0 {
		if scalar, ok := v.Obj.Members[value.ScalarMember]; ok {
			m.push(scalar)
			return nil
		}
		m.push(v)
		return nil
	}
	m.push(v)
	return nil
}

// execStore implements §4.E's Store(name): symmetric to Load, replacing
// either the scalar at __value__, the whole heap entry, or a nested member.
func (m *VM) execStore(name string) error {
	newVal, err := m.pop()
	if err != nil {
		return err
	}
	head, tail := splitDotted(name)
	obj, ok := m.heap[head]
	if !ok {
		return errors.Newf(errors.NameError, "undefined variable %q", head)
	}
	if len(tail) == 0 {
		if newVal.IsObject() {
			m.heap[head] = newVal.Obj
			return nil
		}
		obj.Members[value.ScalarMember] = newVal
		return nil
	}
	cursor := obj
	for i := 0; i < len(tail)-1; i++ {
		next, ok := cursor.Members[tail[i]]
		if !ok || !next.IsObject() {
			return errors.Newf(errors.TypeError, "member access on a non-object in %q", name)
		}
		cursor = next.Obj
	}
	cursor.Members[tail[len(tail)-1]] = newVal
	return nil
}

// execNewVariable implements §4.E's NewVariable(name): pops the top,
// boxing a plain scalar into a fresh Object, and inserts it into the heap.
// A pre-existing entry for name is fatal.
func (m *VM) execNewVariable(name string) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	if _, exists := m.heap[name]; exists {
		return errors.Newf(errors.NameError, "variable %q already exists", name)
	}
	if v.IsObject() {
		m.heap[name] = v.Obj
		return nil
	}
	m.heap[name] = value.NewScalarObject(v.Scalar)
	return nil
}

func (m *VM) execDelete(name string) error {
	if _, exists := m.heap[name]; !exists {
		return errors.Newf(errors.NameError, "variable %q does not exist", name)
	}
	delete(m.heap, name)
	return nil
}

// execCall implements §4.E's Call resolution order: built-in, then class
// constructor, then user function.
func (m *VM) execCall(name string) error {
	if builtin, ok := builtins[name]; ok {
		return builtin(m)
	}
	if creator, ok := m.classes[name]; ok {
		return m.callClassConstructor(creator)
	}
	entry, ok := m.functions[name]
	if !ok {
		return errors.Newf(errors.NameError, "undefined function %q", name)
	}
	m.callStack = append(m.callStack, m.pc)
	m.pc = entry - 1
	return nil
}

func (m *VM) callClassConstructor(creator *value.ObjectCreator) error {
	argc, err := m.popInt()
	if err != nil {
		return err
	}
	if int(argc) != len(creator.MemberNames) {
		return errors.Newf(errors.BuiltinArgError, "class %q expects %d argument(s), got %d", creator.Name, len(creator.MemberNames), argc)
	}
	args := make([]value.Value, argc)
	for i := int(argc) - 1; i >= 0; i-- {
		v, err := m.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}
	obj, err := value.NewClassObject(creator.Name, creator.MemberNames, args)
	if err != nil {
		return err
	}
	m.push(value.Value{Obj: obj})
	return nil
}

// execReturn pops the call stack into pc (§4.E); the subsequent loop
// increment lands pc on the instruction after the original call site.
func (m *VM) execReturn() error {
	if len(m.callStack) == 0 {
		return errors.Newf(errors.StackError, "return with empty call stack")
	}
	saved := m.callStack[len(m.callStack)-1]
	m.callStack = m.callStack[:len(m.callStack)-1]
	m.pc = saved
	return nil
}

// execRotate rotates the top three stack slots so the middle becomes
// bottommost (§4.E): bottom-to-top [a, b, c] becomes [b, c, a].
func (m *VM) execRotate() error {
	if len(m.stack) < 3 {
		return errors.Newf(errors.StackError, "stack underflow on Rotate")
	}
	n := len(m.stack)
	m.stack[n-3], m.stack[n-2], m.stack[n-1] = m.stack[n-2], m.stack[n-1], m.stack[n-3]
	return nil
}

func (m *VM) execMoveBack(n int) error {
	top, err := m.pop()
	if err != nil {
		return err
	}
	if n < 0 || n > len(m.stack) {
		return errors.Newf(errors.StackError, "MoveBack(%d) out of range", n)
	}
	idx := len(m.stack) - n
	m.stack = append(m.stack[:idx], append([]value.Value{top}, m.stack[idx:]...)...)
	return nil
}
