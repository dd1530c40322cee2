package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmm-lang/jmmc/internal/codegen"
)

// Value is one operand stack entry or local variable. int, boolean and char
// values are int32; long, float and double are int64, float32 and float64;
// references are nil, string, *Array, *Builder or *Object.
type Value interface{}

// Array is a fixed-length array. Kind is a codegen.ArrayType* code, or 0
// for an array of references.
type Array struct {
	Kind   int
	Class  string
	Values []Value
}

// NewArray allocates an array of n zero values.
func NewArray(kind int, n int) *Array {
	a := &Array{Kind: kind, Values: make([]Value, n)}
	zero := zeroValue(kind)
	for i := range a.Values {
		a.Values[i] = zero
	}
	return a
}

func zeroValue(kind int) Value {
	switch kind {
	case codegen.ArrayTypeInt, codegen.ArrayTypeBoolean, codegen.ArrayTypeChar,
		codegen.ArrayTypeByte, codegen.ArrayTypeShort:
		return int32(0)
	case codegen.ArrayTypeLong:
		return int64(0)
	case codegen.ArrayTypeFloat:
		return float32(0)
	case codegen.ArrayTypeDouble:
		return float64(0)
	default:
		return nil
	}
}

// Builder is a java/lang/StringBuilder.
type Builder struct {
	strings.Builder
}

// Object is an instance of a library class other than String and
// StringBuilder, in practice an exception.
type Object struct {
	Class   string
	Message string
	hasMsg  bool
}

// NewObject creates an instance of class with a message, as a constructor
// taking a String would.
func NewObject(class, message string) *Object {
	return &Object{Class: class, Message: message, hasMsg: true}
}

// String renders the object the way Throwable.toString does.
func (o *Object) String() string {
	name := strings.ReplaceAll(o.Class, "/", ".")
	if !o.hasMsg {
		return name
	}
	return name + ": " + o.Message
}

// isWide reports whether v occupies two stack words.
func isWide(v Value) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}

// Format renders v as String.valueOf would for a value of descriptor desc.
func Format(v Value, desc string) string {
	switch desc {
	case "Z":
		if v.(int32) != 0 {
			return "true"
		}
		return "false"
	case "C":
		return string(rune(v.(int32)))
	}

	switch x := v.(type) {
	case nil:
		return "null"
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case string:
		return x
	case *Builder:
		return x.String()
	case *Object:
		return x.String()
	case *Array:
		return fmt.Sprintf("[array@%p", x)
	default:
		return fmt.Sprint(x)
	}
}

// formatFloat follows Double.toString: at least one fractional digit, and
// computerized scientific notation outside [1e-3, 1e7).
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if f != 0 && (abs < 1e-3 || abs >= 1e7) {
		s := strconv.FormatFloat(f, 'E', -1, bits)
		mant, exp, _ := strings.Cut(s, "E")
		if !strings.Contains(mant, ".") {
			mant += ".0"
		}
		n, _ := strconv.Atoi(exp)
		return mant + "E" + strconv.Itoa(n)
	}

	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
