package types

import (
	"fmt"
	"testing"
)

type recordingReporter struct {
	messages []string
}

func (r *recordingReporter) Report(line int, format string, args ...interface{}) {
	r.messages = append(r.messages, fmt.Sprintf("%d: ", line)+fmt.Sprintf(format, args...))
}

func TestEquals(t *testing.T) {
	tests := []struct {
		a, b *Type
		want bool
	}{
		{Int, Int, true},
		{Int, Long, false},
		{ArrayOf(Int), ArrayOf(Int), true},
		{ArrayOf(Int), ArrayOf(Long), false},
		{ArrayOf(ArrayOf(String)), ArrayOf(ArrayOf(String)), true},
		{Reference("java.lang.Exception", true), Reference("java/lang/Exception", true), true},
		{Reference("A", false), Reference("B", false), false},
		{String, Reference("java/lang/String", false), false},
	}

	for i, tt := range tests {
		if got := tt.a.Equals(tt.b); got != tt.want {
			t.Errorf("tests[%d] - %s.Equals(%s) expected=%v, got=%v", i, tt.a, tt.b, tt.want, got)
		}
	}
}

func TestMustMatchExpected(t *testing.T) {
	tests := []struct {
		name     string
		actual   *Type
		expected *Type
		reports  int
	}{
		{"same", Int, Int, 0},
		{"mismatch", Int, Boolean, 1},
		{"any actual", Any, Int, 0},
		{"any expected", Int, Any, 0},
		{"null to reference", Null, String, 0},
		{"null to primitive", Null, Int, 1},
		{"array", ArrayOf(Int), ArrayOf(Int), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recordingReporter{}
			tt.actual.MustMatchExpected(r, 7, tt.expected)
			if len(r.messages) != tt.reports {
				t.Fatalf("expected %d reports, got %v", tt.reports, r.messages)
			}
			if tt.reports == 1 {
				want := fmt.Sprintf("7: Type %s doesn't match type %s", tt.actual, tt.expected)
				if r.messages[0] != want {
					t.Errorf("message wrong. expected=%q, got=%q", want, r.messages[0])
				}
			}
		})
	}
}

func TestPromote(t *testing.T) {
	tests := []struct {
		a, b *Type
		want *Type
	}{
		{Int, Int, Int},
		{Int, Long, Long},
		{Long, Float, Float},
		{Int, Double, Double},
		{Float, Double, Double},
		{Double, Int, Double},
		{Int, Boolean, Any},
		{String, Int, Any},
	}

	for i, tt := range tests {
		if got := Promote(tt.a, tt.b); got != tt.want {
			t.Errorf("tests[%d] - Promote(%s, %s) expected=%s, got=%s", i, tt.a, tt.b, tt.want, got)
		}
	}
}

func TestWidensTo(t *testing.T) {
	if !Int.WidensTo(Double) || !Long.WidensTo(Float) || !Int.WidensTo(Int) {
		t.Errorf("expected widening conversions to hold")
	}
	if Double.WidensTo(Int) || Boolean.WidensTo(Int) || Char.WidensTo(Long) {
		t.Errorf("unexpected widening conversion")
	}
}

func TestDescriptors(t *testing.T) {
	tests := []struct {
		typ        *Type
		descriptor string
		jvmName    string
		str        string
	}{
		{Int, "I", "int", "int"},
		{Long, "J", "long", "long"},
		{Boolean, "Z", "boolean", "boolean"},
		{String, "Ljava/lang/String;", "java/lang/String", "String"},
		{ArrayOf(Int), "[I", "[I", "int[]"},
		{ArrayOf(String), "[Ljava/lang/String;", "[Ljava/lang/String;", "String[]"},
		{Reference("java.lang.Exception", true), "Ljava/lang/Exception;", "java/lang/Exception", "Exception"},
	}

	for i, tt := range tests {
		if got := tt.typ.Descriptor(); got != tt.descriptor {
			t.Errorf("tests[%d] - descriptor wrong. expected=%q, got=%q", i, tt.descriptor, got)
		}
		if got := tt.typ.JVMName(); got != tt.jvmName {
			t.Errorf("tests[%d] - jvm name wrong. expected=%q, got=%q", i, tt.jvmName, got)
		}
		if got := tt.typ.String(); got != tt.str {
			t.Errorf("tests[%d] - string wrong. expected=%q, got=%q", i, tt.str, got)
		}
	}
}

func TestSlots(t *testing.T) {
	if Int.Slots() != 1 || Long.Slots() != 2 || Double.Slots() != 2 || String.Slots() != 1 || Void.Slots() != 0 {
		t.Errorf("slot sizes wrong")
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name      string
		want      string
		throwable bool
		ok        bool
	}{
		{"int", "int", false, true},
		{"String", "String", false, true},
		{"java.lang.String", "String", false, true},
		{"Exception", "Exception", true, true},
		{"ArithmeticException", "ArithmeticException", true, true},
		{"java.lang.RuntimeException", "RuntimeException", true, true},
		{"int[]", "int[]", false, true},
		{"Object", "Object", false, true},
		{"Widget", "", false, false},
	}

	for _, tt := range tests {
		typ, ok := Lookup(tt.name)
		if ok != tt.ok {
			t.Errorf("Lookup(%q) ok expected=%v, got=%v", tt.name, tt.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if typ.String() != tt.want {
			t.Errorf("Lookup(%q) expected=%q, got=%q", tt.name, tt.want, typ)
		}
		if typ.IsThrowable() != tt.throwable {
			t.Errorf("Lookup(%q) throwable expected=%v", tt.name, tt.throwable)
		}
	}

	if s, _ := Lookup("String"); s != String {
		t.Errorf("String lookup must return the singleton")
	}
}

func TestIsSubclass(t *testing.T) {
	tests := []struct {
		sub, super string
		want       bool
	}{
		{"java/lang/ArithmeticException", "java/lang/Exception", true},
		{"java/lang/ArithmeticException", "java/lang/Throwable", true},
		{"java/lang/Exception", "java/lang/RuntimeException", false},
		{"java/lang/Error", "java/lang/Exception", false},
		{"my/Custom", "my/Custom", true},
		{"my/Custom", "java/lang/Exception", false},
	}
	for i, tt := range tests {
		if got := IsSubclass(tt.sub, tt.super); got != tt.want {
			t.Errorf("tests[%d] - IsSubclass(%s, %s) expected=%v, got=%v", i, tt.sub, tt.super, tt.want, got)
		}
	}
}
