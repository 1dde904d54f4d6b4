// Package value implements the numeric kernel (spec component A) and the
// runtime value system (spec component B): tagged, width-widening integers
// and floats, and the Value/Object model the VM's heap is built from.
package value

import (
	"math"
	"strconv"

	"gscript/internal/errors"
)

// IntWidth tags the bit width of an IntValue. Widths only ever grow:
// arithmetic that overflows the current width promotes to the next one.
type IntWidth int

const (
	Width8 IntWidth = iota
	Width16
	Width32
	Width64
)

func (w IntWidth) String() string {
	switch w {
	case Width8:
		return "i8"
	case Width16:
		return "i16"
	case Width32:
		return "i32"
	default:
		return "i64"
	}
}

// IntValue is a tagged integer whose Width holds Val. Literals start at the
// smallest fitting width; arithmetic results keep the wider operand's width
// and only grow from there, so Width may be wider than Val needs.
type IntValue struct {
	Width IntWidth
	Val   int64
}

// FloatWidth tags the bit width of a FloatValue.
type FloatWidth int

const (
	Width32F FloatWidth = iota
	Width64F
)

func (w FloatWidth) String() string {
	if w == Width32F {
		return "f32"
	}
	return "f64"
}

// FloatValue is a tagged float; Val always holds the full-precision result,
// rounded through float32 first when Width is Width32F so comparisons and
// rendering see exactly what a 32-bit computation would have produced.
type FloatValue struct {
	Width FloatWidth
	Val   float64
}

func fitsInt8(v int64) bool  { return v >= math.MinInt8 && v <= math.MaxInt8 }
func fitsInt16(v int64) bool { return v >= math.MinInt16 && v <= math.MaxInt16 }
func fitsInt32(v int64) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

// narrowestIntWidth returns the smallest width that can hold v.
func narrowestIntWidth(v int64) IntWidth {
	switch {
	case fitsInt8(v):
		return Width8
	case fitsInt16(v):
		return Width16
	case fitsInt32(v):
		return Width32
	default:
		return Width64
	}
}

// IntFromInt64 builds the smallest-fitting IntValue for a value already
// known at compile time (argument counts, field counts) rather than parsed
// from source text.
func IntFromInt64(n int64) IntValue {
	return IntValue{Width: narrowestIntWidth(n), Val: n}
}

// ParseIntLiteral chooses the smallest integer width (8, then 16, 32, 64)
// that the literal text parses into. A literal that overflows i64 is a
// fatal compile-time error (§4.A).
func ParseIntLiteral(text string) (IntValue, error) {
	for _, w := range []struct {
		width   IntWidth
		bitSize int
	}{
		{Width8, 8}, {Width16, 16}, {Width32, 32}, {Width64, 64},
	} {
		if v, err := strconv.ParseInt(text, 10, w.bitSize); err == nil {
			return IntValue{Width: w.width, Val: v}, nil
		}
	}
	return IntValue{}, errors.Newf(errors.CompileError, "integer literal %q does not fit in 64 bits", text)
}

// ParseFloatLiteral chooses f32 unless parsing as f32 fails, then f64 (§4.A).
func ParseFloatLiteral(text string) (FloatValue, error) {
	if v, err := strconv.ParseFloat(text, 32); err == nil {
		return FloatValue{Width: Width32F, Val: float64(float32(v))}, nil
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return FloatValue{Width: Width64F, Val: v}, nil
	}
	return FloatValue{}, errors.Newf(errors.CompileError, "float literal %q could not be parsed", text)
}

func maxIntWidth(a, b IntWidth) IntWidth {
	if a > b {
		return a
	}
	return b
}

func maxFloatWidth(a, b FloatWidth) FloatWidth {
	if a > b {
		return a
	}
	return b
}

// widen bumps width one step (8->16->32->64); the caller is responsible for
// knowing when it has run out of steps.
func widen(w IntWidth) IntWidth {
	if w < Width64 {
		return w + 1
	}
	return w
}

func fitsWidth(v int64, w IntWidth) bool {
	switch w {
	case Width8:
		return fitsInt8(v)
	case Width16:
		return fitsInt16(v)
	case Width32:
		return fitsInt32(v)
	default:
		return true
	}
}

// intArith performs op at max(a.Width,b.Width), widening the result one
// step at a time until it fits, per §4.A. A 64-bit overflow is fatal.
func intArith(a, b IntValue, op func(x, y int64) (int64, bool)) (IntValue, error) {
	width := maxIntWidth(a.Width, b.Width)
	result, overflowed := op(a.Val, b.Val)
	for {
		if !overflowed && fitsWidth(result, width) {
			return IntValue{Width: width, Val: result}, nil
		}
		if width == Width64 {
			return IntValue{}, errors.Newf(errors.ArithmeticError, "integer overflow: result does not fit in i64")
		}
		width = widen(width)
		overflowed = false
	}
}

func AddInt(a, b IntValue) (IntValue, error) {
	return intArith(a, b, func(x, y int64) (int64, bool) {
		sum := x + y
		overflow := (y > 0 && sum < x) || (y < 0 && sum > x)
		return sum, overflow
	})
}

func SubInt(a, b IntValue) (IntValue, error) {
	return intArith(a, b, func(x, y int64) (int64, bool) {
		diff := x - y
		overflow := (y < 0 && diff < x) || (y > 0 && diff > x)
		return diff, overflow
	})
}

func MulInt(a, b IntValue) (IntValue, error) {
	return intArith(a, b, func(x, y int64) (int64, bool) {
		if x == 0 || y == 0 {
			return 0, false
		}
		prod := x * y
		overflow := prod/y != x
		return prod, overflow
	})
}

func DivInt(a, b IntValue) (IntValue, error) {
	if b.Val == 0 {
		return IntValue{}, errors.Newf(errors.ArithmeticError, "division by zero")
	}
	return intArith(a, b, func(x, y int64) (int64, bool) {
		if x == math.MinInt64 && y == -1 {
			return x, true
		}
		return x / y, false
	})
}

func CompareInt(a, b IntValue) int {
	switch {
	case a.Val < b.Val:
		return -1
	case a.Val > b.Val:
		return 1
	default:
		return 0
	}
}

// floatArith computes op at max(a.Width,b.Width); when that width is f32
// and the f32 result is non-finite, it widens to f64 and recomputes (§4.A).
func floatArith(a, b FloatValue, op func(x, y float64) float64) FloatValue {
	width := maxFloatWidth(a.Width, b.Width)
	if width == Width32F {
		r32 := float32(op(a.Val, b.Val))
		if !math.IsInf(float64(r32), 0) && !math.IsNaN(float64(r32)) {
			return FloatValue{Width: Width32F, Val: float64(r32)}
		}
		width = Width64F
	}
	return FloatValue{Width: width, Val: op(a.Val, b.Val)}
}

func AddFloat(a, b FloatValue) FloatValue { return floatArith(a, b, func(x, y float64) float64 { return x + y }) }
func SubFloat(a, b FloatValue) FloatValue { return floatArith(a, b, func(x, y float64) float64 { return x - y }) }
func MulFloat(a, b FloatValue) FloatValue { return floatArith(a, b, func(x, y float64) float64 { return x * y }) }

func DivFloat(a, b FloatValue) (FloatValue, error) {
	if b.Val == 0 {
		return FloatValue{}, errors.Newf(errors.ArithmeticError, "division by zero")
	}
	return floatArith(a, b, func(x, y float64) float64 { return x / y }), nil
}

func CompareFloat(a, b FloatValue) int {
	switch {
	case a.Val < b.Val:
		return -1
	case a.Val > b.Val:
		return 1
	default:
		return 0
	}
}

// IntToFloat coerces an int to a float at the given width, per §4.A's
// cross-type rule ("coerce the int to float at the float's width").
func IntToFloat(i IntValue, w FloatWidth) FloatValue {
	if w == Width32F {
		return FloatValue{Width: Width32F, Val: float64(float32(i.Val))}
	}
	return FloatValue{Width: Width64F, Val: float64(i.Val)}
}
