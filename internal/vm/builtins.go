package vm

import (
	"fmt"
	"strings"

	"gscript/internal/errors"
	"gscript/internal/value"
)

// builtins is the reserved-name table Call consults first (§4.E/§4.F).
var builtins = map[string]func(*VM) error{
	"print":         biPrint,
	"println":       biPrintln,
	"format":        biFormat,
	"assert":        biAssert,
	"push":          biPush,
	"pop":           biPop,
	"read_element":  biReadElement,
	"write_element": biWriteElement,
}

// popArgs drains Int(argc) and the argc arguments below it, restoring
// left-to-right call order (§4.F: "all built-ins... drain exactly those
// arguments").
func (m *VM) popArgs() ([]value.Value, error) {
	argc, err := m.popInt()
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, argc)
	for i := int(argc) - 1; i >= 0; i-- {
		v, err := m.pop()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (m *VM) write(s string) {
	if m.Out != nil {
		m.Out.WriteString(s)
		return
	}
	fmt.Print(s)
}

func biPrint(m *VM) error {
	args, err := m.popArgs()
	if err != nil {
		return err
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.RenderValue(a)
	}
	m.write(strings.Join(parts, " "))
	return nil
}

func biPrintln(m *VM) error {
	args, err := m.popArgs()
	if err != nil {
		return err
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.RenderValue(a)
	}
	m.write(strings.Join(parts, " ") + "\n")
	return nil
}

// biFormat replaces each "{}" in fmt with the next argument's rendering,
// left to right, one replacement per argument (§4.F, §8 property 5).
func biFormat(m *VM) error {
	args, err := m.popArgs()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.Newf(errors.BuiltinArgError, "format expects at least a format string")
	}
	fmtVal, ok := args[0].ScalarOf()
	if !ok || fmtVal.Kind != value.KindString {
		return errors.Newf(errors.BuiltinArgError, "format's first argument must be a string")
	}
	var sb strings.Builder
	rest := args[1:]
	s := fmtVal.Str
	argIdx := 0
	for {
		i := strings.Index(s, "{}")
		if i < 0 || argIdx >= len(rest) {
			sb.WriteString(s)
			break
		}
		sb.WriteString(s[:i])
		sb.WriteString(value.RenderValue(rest[argIdx]))
		s = s[i+2:]
		argIdx++
	}
	m.push(value.Value{Scalar: value.Str(sb.String())})
	return nil
}

// biAssert panics (a fatal AssertionFailure) if cond is false, with the
// concatenation of remaining args space-separated as the message (§4.F).
func biAssert(m *VM) error {
	args, err := m.popArgs()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.Newf(errors.BuiltinArgError, "assert expects at least a condition")
	}
	cond, ok := args[0].ScalarOf()
	if !ok || cond.Kind != value.KindBool {
		return errors.Newf(errors.BuiltinArgError, "assert's first argument must be a bool")
	}
	if cond.Bool {
		return nil
	}
	parts := make([]string, len(args)-1)
	for i, a := range args[1:] {
		parts[i] = value.RenderValue(a)
	}
	return errors.Newf(errors.AssertionFailure, "%s", strings.Join(parts, " "))
}

func asVector(v value.Value) ([]value.Value, error) {
	sv, ok := v.ScalarOf()
	if !ok || sv.Kind != value.KindVector {
		return nil, errors.Newf(errors.TypeError, "expected a vector")
	}
	return sv.Vector, nil
}

// biPush appends x to a copy of list and pushes the new list (§4.F, value
// semantics: never mutates the caller's list in place).
func biPush(m *VM) error {
	args, err := m.popArgs()
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return errors.Newf(errors.BuiltinArgError, "push expects 2 arguments, got %d", len(args))
	}
	list, err := asVector(args[0])
	if err != nil {
		return err
	}
	next := make([]value.Value, len(list)+1)
	copy(next, list)
	next[len(list)] = args[1]
	m.push(value.Value{Scalar: value.Vector(next)})
	return nil
}

// biPop pushes the modified list, then the popped element on top (§4.F).
func biPop(m *VM) error {
	args, err := m.popArgs()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.Newf(errors.BuiltinArgError, "pop expects 1 argument, got %d", len(args))
	}
	list, err := asVector(args[0])
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return errors.Newf(errors.BuiltinArgError, "pop on an empty list")
	}
	last := list[len(list)-1]
	next := make([]value.Value, len(list)-1)
	copy(next, list[:len(list)-1])
	m.push(value.Value{Scalar: value.Vector(next)})
	m.push(last)
	return nil
}

func indexOf(list []value.Value, idxVal value.Value) (int, error) {
	sv, ok := idxVal.ScalarOf()
	if !ok || sv.Kind != value.KindInt {
		return 0, errors.Newf(errors.BuiltinArgError, "index must be an int")
	}
	idx := int(sv.Int.Val)
	if idx < 0 || idx >= len(list) {
		return 0, errors.Newf(errors.BuiltinArgError, "index %d out of range for list of length %d", idx, len(list))
	}
	return idx, nil
}

// biReadElement pushes list unchanged, then the element at idx (§4.F).
func biReadElement(m *VM) error {
	args, err := m.popArgs()
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return errors.Newf(errors.BuiltinArgError, "read_element expects 2 arguments, got %d", len(args))
	}
	list, err := asVector(args[0])
	if err != nil {
		return err
	}
	idx, err := indexOf(list, args[1])
	if err != nil {
		return err
	}
	m.push(args[0])
	m.push(list[idx])
	return nil
}

// biWriteElement pushes the modified list (§4.F).
func biWriteElement(m *VM) error {
	args, err := m.popArgs()
	if err != nil {
		return err
	}
	if len(args) != 3 {
		return errors.Newf(errors.BuiltinArgError, "write_element expects 3 arguments, got %d", len(args))
	}
	list, err := asVector(args[0])
	if err != nil {
		return err
	}
	idx, err := indexOf(list, args[1])
	if err != nil {
		return err
	}
	next := make([]value.Value, len(list))
	copy(next, list)
	next[idx] = args[2]
	m.push(value.Value{Scalar: value.Vector(next)})
	return nil
}
