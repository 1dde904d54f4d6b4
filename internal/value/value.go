package value

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gscript/internal/errors"
)

// Kind tags which alternative of ValueType is populated.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindVector
)

// ValueType is the scalar/compound runtime value (§3 DATA MODEL): exactly
// one of Int, Float, Bool, Str or Vector is meaningful, selected by Kind.
type ValueType struct {
	Kind   Kind
	Int    IntValue
	Float  FloatValue
	Bool   bool
	Str    string
	Vector []Value
}

func Int(i IntValue) ValueType       { return ValueType{Kind: KindInt, Int: i} }
func Float(f FloatValue) ValueType   { return ValueType{Kind: KindFloat, Float: f} }
func Bool(b bool) ValueType          { return ValueType{Kind: KindBool, Bool: b} }
func Str(s string) ValueType         { return ValueType{Kind: KindString, Str: s} }
func Vector(v []Value) ValueType     { return ValueType{Kind: KindVector, Vector: v} }

// Object is a named record: a class instance (members populated from a
// class declaration's fields) or a plain scalar wrapper (single "__value__"
// member), per §3's "every heap cell is an Object" rule.
type Object struct {
	ID        uuid.UUID
	ClassName string
	Members   map[string]Value
}

// ScalarMember is the reserved member name a bare scalar is stored under
// when it is boxed into an Object cell.
const ScalarMember = "__value__"

// NewScalarObject boxes a plain value as a one-member Object.
func NewScalarObject(v ValueType) *Object {
	return &Object{
		ID:      uuid.New(),
		Members: map[string]Value{ScalarMember: {Scalar: v}},
	}
}

// NewClassObject constructs an instance of a class, initializing each
// declared field from the constructor argument at the same position. The
// members map does not record declaration order.
func NewClassObject(className string, fieldNames []string, args []Value) (*Object, error) {
	if len(fieldNames) != len(args) {
		return nil, errors.Newf(errors.BuiltinArgError, "class %q expects %d argument(s), got %d", className, len(fieldNames), len(args))
	}
	members := make(map[string]Value, len(fieldNames))
	for i, name := range fieldNames {
		members[name] = args[i]
	}
	return &Object{ID: uuid.New(), ClassName: className, Members: members}, nil
}

// IsScalar reports whether o is a boxed scalar rather than a class instance.
func (o *Object) IsScalar() bool {
	_, isScalar := o.Members[ScalarMember]
	return isScalar && o.ClassName == ""
}

// ObjectCreator is the registered layout for a declared class: its name and
// the ordered member (field) names a constructor call populates.
type ObjectCreator struct {
	Name        string
	MemberNames []string
}

// Value is either a plain ValueType or a reference to a heap Object —
// every named variable's heap cell holds one of these (§3).
type Value struct {
	Scalar ValueType
	Obj    *Object
}

// IsObject reports whether v references a heap Object rather than holding a
// scalar directly.
func (v Value) IsObject() bool { return v.Obj != nil }

// ScalarOf unwraps v to its ValueType, following the Object's "__value__"
// boxing member if v is a boxed scalar.
func (v Value) ScalarOf() (ValueType, bool) {
	if v.Obj == nil {
		return v.Scalar, true
	}
	if v.Obj.IsScalar() {
		return v.Obj.Members[ScalarMember].Scalar, true
	}
	return ValueType{}, false
}

func typeName(k Kind) string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "vector"
	}
}

func typeMismatch(op string, a, b ValueType) error {
	return errors.Newf(errors.TypeError, "unsupported operand types for %s: %s and %s", op, typeName(a.Kind), typeName(b.Kind))
}

// commonFloatWidth picks the float width a mixed int/float pair should be
// compared or combined at.
func commonFloatWidth(a, b ValueType) FloatWidth {
	if a.Kind == KindFloat && b.Kind == KindFloat {
		return maxFloatWidth(a.Float.Width, b.Float.Width)
	}
	if a.Kind == KindFloat {
		return a.Float.Width
	}
	return b.Float.Width
}

func asFloats(a, b ValueType) (FloatValue, FloatValue) {
	w := commonFloatWidth(a, b)
	fa := a.Float
	if a.Kind == KindInt {
		fa = IntToFloat(a.Int, w)
	}
	fb := b.Float
	if b.Kind == KindInt {
		fb = IntToFloat(b.Int, w)
	}
	return fa, fb
}

func numericPair(a, b ValueType) bool {
	numeric := func(v ValueType) bool { return v.Kind == KindInt || v.Kind == KindFloat }
	return numeric(a) && numeric(b)
}

func mixedNumeric(a, b ValueType) bool {
	return numericPair(a, b) && a.Kind != b.Kind
}

// Add implements §4.B's "+" table: int+int widens, float+float widens,
// mixed int/float coerces to float, string concatenates, vector concatenates.
func Add(a, b ValueType) (ValueType, error) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		r, err := AddInt(a.Int, b.Int)
		if err != nil {
			return ValueType{}, err
		}
		return Int(r), nil
	case a.Kind == KindFloat && b.Kind == KindFloat:
		return Float(AddFloat(a.Float, b.Float)), nil
	case mixedNumeric(a, b):
		fa, fb := asFloats(a, b)
		return Float(AddFloat(fa, fb)), nil
	case a.Kind == KindString && b.Kind == KindString:
		return Str(a.Str + b.Str), nil
	case a.Kind == KindVector && b.Kind == KindVector:
		out := make([]Value, 0, len(a.Vector)+len(b.Vector))
		out = append(out, a.Vector...)
		out = append(out, b.Vector...)
		return Vector(out), nil
	default:
		return ValueType{}, typeMismatch("+", a, b)
	}
}

func arith(name string, a, b ValueType, intOp func(IntValue, IntValue) (IntValue, error), floatOp func(FloatValue, FloatValue) FloatValue) (ValueType, error) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		r, err := intOp(a.Int, b.Int)
		if err != nil {
			return ValueType{}, err
		}
		return Int(r), nil
	case a.Kind == KindFloat && b.Kind == KindFloat:
		return Float(floatOp(a.Float, b.Float)), nil
	case mixedNumeric(a, b):
		fa, fb := asFloats(a, b)
		return Float(floatOp(fa, fb)), nil
	default:
		return ValueType{}, typeMismatch(name, a, b)
	}
}

func Sub(a, b ValueType) (ValueType, error) {
	return arith("-", a, b, SubInt, SubFloat)
}

func Mul(a, b ValueType) (ValueType, error) {
	return arith("*", a, b, MulInt, MulFloat)
}

// Div implements "/": int/int truncates and widens like the other int ops;
// float division widens on non-finite results. Division by zero is fatal.
func Div(a, b ValueType) (ValueType, error) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		r, err := DivInt(a.Int, b.Int)
		if err != nil {
			return ValueType{}, err
		}
		return Int(r), nil
	case a.Kind == KindFloat && b.Kind == KindFloat:
		r, err := DivFloat(a.Float, b.Float)
		if err != nil {
			return ValueType{}, err
		}
		return Float(r), nil
	case mixedNumeric(a, b):
		fa, fb := asFloats(a, b)
		r, err := DivFloat(fa, fb)
		if err != nil {
			return ValueType{}, err
		}
		return Float(r), nil
	default:
		return ValueType{}, typeMismatch("/", a, b)
	}
}

func compare(a, b ValueType) (int, error) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		return CompareInt(a.Int, b.Int), nil
	case a.Kind == KindFloat && b.Kind == KindFloat:
		return CompareFloat(a.Float, b.Float), nil
	case mixedNumeric(a, b):
		fa, fb := asFloats(a, b)
		return CompareFloat(fa, fb), nil
	default:
		return 0, typeMismatch("comparison", a, b)
	}
}

func Lt(a, b ValueType) (bool, error) {
	c, err := compare(a, b)
	return c < 0, err
}

func Gt(a, b ValueType) (bool, error) {
	c, err := compare(a, b)
	return c > 0, err
}

func LtEq(a, b ValueType) (bool, error) {
	c, err := compare(a, b)
	return c <= 0, err
}

func GtEq(a, b ValueType) (bool, error) {
	c, err := compare(a, b)
	return c >= 0, err
}

// Eq/Neq (§4.B): numerics compare by value across int/float, strings and
// bools compare directly; vectors and mismatched kinds raise a TypeError.
func Eq(a, b ValueType) (bool, error) {
	switch {
	case numericPair(a, b):
		c, err := compare(a, b)
		return c == 0, err
	case a.Kind == KindString && b.Kind == KindString:
		return a.Str == b.Str, nil
	case a.Kind == KindBool && b.Kind == KindBool:
		return a.Bool == b.Bool, nil
	default:
		return false, typeMismatch("==", a, b)
	}
}

func Neq(a, b ValueType) (bool, error) {
	eq, err := Eq(a, b)
	return !eq, err
}

// Render formats a ValueType for print/println/format output (§4.F).
func Render(v ValueType) string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int.Val)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float.Val)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	default:
		parts := make([]string, len(v.Vector))
		for i, elem := range v.Vector {
			parts[i] = RenderValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
}

// RenderValue formats any heap Value for print/println/format output,
// unwrapping boxed scalars and rendering class instances as
// "ClassName{field: value, ...}" with fields in MemberNames order.
func RenderValue(v Value) string {
	if v.Obj == nil {
		return Render(v.Scalar)
	}
	if v.Obj.IsScalar() {
		return Render(v.Obj.Members[ScalarMember].Scalar)
	}
	parts := make([]string, 0, len(v.Obj.MemberNames()))
	for _, name := range v.Obj.MemberNames() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, RenderValue(v.Obj.Members[name])))
	}
	return fmt.Sprintf("%s{%s}", v.Obj.ClassName, strings.Join(parts, ", "))
}

// MemberNames returns o's member names in a stable order: declaration order
// isn't retained on the map itself, so the caller's ObjectCreator carries
// it; this fallback (used by RenderValue) sorts lexically.
func (o *Object) MemberNames() []string {
	names := make([]string, 0, len(o.Members))
	for name := range o.Members {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
