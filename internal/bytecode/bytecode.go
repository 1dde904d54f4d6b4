// Package bytecode defines the instruction set the compiler emits and the
// VM executes (§3/§4.D/§4.E), plus the Program container that bundles a
// compiled instruction stream with its function and class tables.
package bytecode

import (
	"fmt"

	"gscript/internal/value"
)

// Op is an instruction opcode.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLtEq
	OpGtEq

	OpLoad
	OpStore
	OpNewVariable
	OpDelete

	OpJump
	OpJumpIfFalse
	OpJumpIfTrue

	OpCall
	OpReturn

	OpPush
	OpPop
	OpClone
	OpSwap
	OpRotate
	OpMoveBack
	OpNop
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "Add"
	case OpSub:
		return "Sub"
	case OpMul:
		return "Mul"
	case OpDiv:
		return "Div"
	case OpEq:
		return "Eq"
	case OpNeq:
		return "Neq"
	case OpLt:
		return "Lt"
	case OpGt:
		return "Gt"
	case OpLtEq:
		return "LtEq"
	case OpGtEq:
		return "GtEq"
	case OpLoad:
		return "Load"
	case OpStore:
		return "Store"
	case OpNewVariable:
		return "NewVariable"
	case OpDelete:
		return "Delete"
	case OpJump:
		return "Jump"
	case OpJumpIfFalse:
		return "JumpIfFalse"
	case OpJumpIfTrue:
		return "JumpIfTrue"
	case OpCall:
		return "Call"
	case OpReturn:
		return "Return"
	case OpPush:
		return "Push"
	case OpPop:
		return "Pop"
	case OpClone:
		return "Clone"
	case OpSwap:
		return "Swap"
	case OpRotate:
		return "Rotate"
	case OpMoveBack:
		return "MoveBack"
	default:
		return "Nop"
	}
}

// Instruction is one decoded VM instruction. Only the fields relevant to Op
// are populated; the rest are zero.
type Instruction struct {
	Op    Op
	Name  string          // Load, Store, NewVariable, Delete, Call
	Addr  int             // Jump, JumpIfFalse, JumpIfTrue
	N     int             // MoveBack
	Value value.ValueType // Push
}

func (i Instruction) String() string {
	switch i.Op {
	case OpLoad, OpStore, OpNewVariable, OpDelete, OpCall:
		return fmt.Sprintf("%s %s", i.Op, i.Name)
	case OpJump, OpJumpIfFalse, OpJumpIfTrue:
		return fmt.Sprintf("%s %d", i.Op, i.Addr)
	case OpMoveBack:
		return fmt.Sprintf("%s %d", i.Op, i.N)
	case OpPush:
		return fmt.Sprintf("%s %s", i.Op, value.Render(i.Value))
	default:
		return i.Op.String()
	}
}

// Program is the compiler's output: a resolved instruction stream, the
// function name -> entry address table, and the class name -> layout
// table (§2 "D emits (instructions, function_table, class_table)").
type Program struct {
	Code      []Instruction
	Lines     []int // parallel to Code; source line per instruction, 0 if unknown
	Functions map[string]int
	Classes   map[string]*value.ObjectCreator
}

func NewProgram() *Program {
	return &Program{
		Code:      []Instruction{{Op: OpNop}},
		Lines:     []int{0},
		Functions: make(map[string]int),
		Classes:   make(map[string]*value.ObjectCreator),
	}
}

// Emit appends an instruction and returns its index.
func (p *Program) Emit(line int, instr Instruction) int {
	p.Code = append(p.Code, instr)
	p.Lines = append(p.Lines, line)
	return len(p.Code) - 1
}

// Len is the current instruction count, including the leading Nop.
func (p *Program) Len() int { return len(p.Code) }
