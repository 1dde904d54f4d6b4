package value

import "testing"

func i(n int64) ValueType { return Int(IntFromInt64(n)) }

func TestAddMixedIntFloatCoercesToFloat(t *testing.T) {
	r, err := Add(i(2), Float(FloatValue{Width: Width32F, Val: 1.5}))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if r.Kind != KindFloat {
		t.Fatalf("Kind = %v, want KindFloat", r.Kind)
	}
	if r.Float.Val != 3.5 {
		t.Errorf("Val = %v, want 3.5", r.Float.Val)
	}
}

func TestAddStringConcatenates(t *testing.T) {
	r, err := Add(Str("foo"), Str("bar"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if r.Str != "foobar" {
		t.Errorf("Str = %q, want %q", r.Str, "foobar")
	}
}

func TestAddVectorConcatenates(t *testing.T) {
	a := Vector([]Value{{Scalar: i(1)}})
	b := Vector([]Value{{Scalar: i(2)}})
	r, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(r.Vector) != 2 {
		t.Fatalf("len(Vector) = %d, want 2", len(r.Vector))
	}
}

func TestSubStringIsTypeError(t *testing.T) {
	if _, err := Sub(Str("a"), Str("b")); err == nil {
		t.Fatal("expected a TypeError for string subtraction")
	}
}

func TestEqCrossTypeNumeric(t *testing.T) {
	eq, err := Eq(i(2), Float(FloatValue{Width: Width32F, Val: 2.0}))
	if err != nil {
		t.Fatalf("Eq: %v", err)
	}
	if !eq {
		t.Error("2 == 2.0 should be true across int/float")
	}
}

func TestEqVectorIsTypeError(t *testing.T) {
	a := Vector(nil)
	b := Vector(nil)
	if _, err := Eq(a, b); err == nil {
		t.Fatal("expected a TypeError comparing vectors with ==")
	}
}

func TestNewClassObjectArityMismatch(t *testing.T) {
	_, err := NewClassObject("Point", []string{"x", "y"}, []Value{{Scalar: i(1)}})
	if err == nil {
		t.Fatal("expected a BuiltinArgError for a constructor arity mismatch")
	}
}

func TestNewClassObjectPopulatesMembers(t *testing.T) {
	obj, err := NewClassObject("Point", []string{"x", "y"}, []Value{{Scalar: i(3)}, {Scalar: i(4)}})
	if err != nil {
		t.Fatalf("NewClassObject: %v", err)
	}
	if obj.ClassName != "Point" {
		t.Errorf("ClassName = %q, want %q", obj.ClassName, "Point")
	}
	if obj.Members["x"].Scalar.Int.Val != 3 {
		t.Errorf("x = %v, want 3", obj.Members["x"].Scalar.Int.Val)
	}
}

func TestScalarOfFollowsBoxedObject(t *testing.T) {
	obj := NewScalarObject(i(7))
	v := Value{Obj: obj}
	sv, ok := v.ScalarOf()
	if !ok {
		t.Fatal("ScalarOf should succeed on a boxed scalar")
	}
	if sv.Int.Val != 7 {
		t.Errorf("Val = %d, want 7", sv.Int.Val)
	}
}

func TestScalarOfFailsOnClassInstance(t *testing.T) {
	obj, _ := NewClassObject("Point", []string{"x"}, []Value{{Scalar: i(1)}})
	if _, ok := (Value{Obj: obj}).ScalarOf(); ok {
		t.Error("ScalarOf should fail on a class instance")
	}
}

func TestRenderVector(t *testing.T) {
	v := Vector([]Value{{Scalar: i(1)}, {Scalar: i(2)}})
	if got := Render(v); got != "[1, 2]" {
		t.Errorf("Render = %q, want %q", got, "[1, 2]")
	}
}
