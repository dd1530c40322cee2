// Type lattice for j--.
// Primitive types are singletons compared by identity, arrays compare
// structurally and reference types compare by class name. Any is the error
// sentinel: a node typed Any has already been reported.

package types

import (
	"fmt"
	"strings"

	"github.com/jmm-lang/jmmc/internal/diagnostic"
)

// TypeKind represents the kind of a type.
type TypeKind int

const (
	TypeKindInt TypeKind = iota
	TypeKindLong
	TypeKindFloat
	TypeKindDouble
	TypeKindBoolean
	TypeKindChar
	TypeKindVoid
	TypeKindNull
	TypeKindString
	TypeKindArray
	TypeKindReference
	TypeKindAny
)

// String returns the string representation of a TypeKind
func (tk TypeKind) String() string {
	switch tk {
	case TypeKindInt:
		return "int"
	case TypeKindLong:
		return "long"
	case TypeKindFloat:
		return "float"
	case TypeKindDouble:
		return "double"
	case TypeKindBoolean:
		return "boolean"
	case TypeKindChar:
		return "char"
	case TypeKindVoid:
		return "void"
	case TypeKindNull:
		return "null"
	case TypeKindString:
		return "String"
	case TypeKindArray:
		return "array"
	case TypeKindReference:
		return "reference"
	case TypeKindAny:
		return "any"
	default:
		return fmt.Sprintf("TypeKind(%d)", int(tk))
	}
}

// Type is an immutable j-- type.
type Type struct {
	kind      TypeKind
	name      string // internal class name for reference types
	elem      *Type  // element type for arrays
	throwable bool
}

// Primitive and built-in singletons.
var (
	Int     = &Type{kind: TypeKindInt}
	Long    = &Type{kind: TypeKindLong}
	Float   = &Type{kind: TypeKindFloat}
	Double  = &Type{kind: TypeKindDouble}
	Boolean = &Type{kind: TypeKindBoolean}
	Char    = &Type{kind: TypeKindChar}
	Void    = &Type{kind: TypeKindVoid}
	Null    = &Type{kind: TypeKindNull}
	String  = &Type{kind: TypeKindString, name: "java/lang/String"}
	Any     = &Type{kind: TypeKindAny}
)

// ArrayOf returns the array type with the given element type.
func ArrayOf(elem *Type) *Type {
	return &Type{kind: TypeKindArray, elem: elem}
}

// Reference returns a class type. name may use dots or slashes as package
// separators; it is stored in internal form.
func Reference(name string, throwable bool) *Type {
	return &Type{
		kind:      TypeKindReference,
		name:      strings.ReplaceAll(name, ".", "/"),
		throwable: throwable,
	}
}

// Kind returns the kind of the type.
func (t *Type) Kind() TypeKind { return t.kind }

// Elem returns the element type of an array, or nil.
func (t *Type) Elem() *Type { return t.elem }

// Equals reports whether two types are the same type.
func (t *Type) Equals(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.kind != other.kind {
		return false
	}
	switch t.kind {
	case TypeKindArray:
		return t.elem.Equals(other.elem)
	case TypeKindReference:
		return t.name == other.name
	default:
		// Primitive kinds are singletons, but a zero Type{} built by hand
		// should still compare by kind.
		return true
	}
}

// IsAny reports whether t is the error sentinel.
func (t *Type) IsAny() bool { return t == nil || t.kind == TypeKindAny }

// IsPrimitive reports whether values of t live on the operand stack directly.
func (t *Type) IsPrimitive() bool {
	switch t.kind {
	case TypeKindInt, TypeKindLong, TypeKindFloat, TypeKindDouble, TypeKindBoolean, TypeKindChar:
		return true
	}
	return false
}

// IsNumeric reports whether t takes part in arithmetic promotion.
func (t *Type) IsNumeric() bool {
	switch t.kind {
	case TypeKindInt, TypeKindLong, TypeKindFloat, TypeKindDouble:
		return true
	}
	return false
}

// IsIntegral reports whether t is int or long.
func (t *Type) IsIntegral() bool {
	return t.kind == TypeKindInt || t.kind == TypeKindLong
}

// IsArray reports whether t is an array type.
func (t *Type) IsArray() bool { return t.kind == TypeKindArray }

// IsReference reports whether values of t are object references.
func (t *Type) IsReference() bool {
	switch t.kind {
	case TypeKindString, TypeKindArray, TypeKindReference, TypeKindNull:
		return true
	}
	return false
}

// IsThrowable is the single capability check used by throw and catch.
func (t *Type) IsThrowable() bool {
	return t.kind == TypeKindReference && t.throwable
}

// Slots returns the number of local variable slots a value of t occupies.
func (t *Type) Slots() int {
	switch t.kind {
	case TypeKindLong, TypeKindDouble:
		return 2
	case TypeKindVoid:
		return 0
	default:
		return 1
	}
}

// AssignableTo reports whether a value of t may be stored where target is
// expected without a conversion.
func (t *Type) AssignableTo(target *Type) bool {
	if t.Equals(target) {
		return true
	}
	return t.kind == TypeKindNull && target.IsReference()
}

// WidensTo reports whether t converts to target by primitive widening.
func (t *Type) WidensTo(target *Type) bool {
	if t.Equals(target) {
		return true
	}
	return t.IsNumeric() && target.IsNumeric() && rank(t) < rank(target)
}

// MustMatchExpected reports a semantic error when t is not expected.
// Nothing is reported when either side is Any: that error was already
// reported where the Any came from.
func (t *Type) MustMatchExpected(r diagnostic.Reporter, line int, expected *Type) {
	if t.IsAny() || expected.IsAny() || t.AssignableTo(expected) {
		return
	}
	r.Report(line, "Type %s doesn't match type %s", t, expected)
}

// MatchesExpected reports whether t satisfies expected. Any matches
// everything.
func (t *Type) MatchesExpected(expected *Type) bool {
	return t.IsAny() || expected.IsAny() || t.AssignableTo(expected)
}

// Promote returns the common numeric type of a and b: double dominates
// float, float dominates long, long dominates int. It returns Any when
// either operand is not numeric.
func Promote(a, b *Type) *Type {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Any
	}
	if rank(a) >= rank(b) {
		return canonical(a)
	}
	return canonical(b)
}

func rank(t *Type) int {
	switch t.kind {
	case TypeKindInt:
		return 0
	case TypeKindLong:
		return 1
	case TypeKindFloat:
		return 2
	case TypeKindDouble:
		return 3
	}
	return -1
}

func canonical(t *Type) *Type {
	switch t.kind {
	case TypeKindInt:
		return Int
	case TypeKindLong:
		return Long
	case TypeKindFloat:
		return Float
	case TypeKindDouble:
		return Double
	}
	return t
}

// Descriptor returns the class-file descriptor of t, e.g. I or [Ljava/lang/String;.
func (t *Type) Descriptor() string {
	switch t.kind {
	case TypeKindInt:
		return "I"
	case TypeKindLong:
		return "J"
	case TypeKindFloat:
		return "F"
	case TypeKindDouble:
		return "D"
	case TypeKindBoolean:
		return "Z"
	case TypeKindChar:
		return "C"
	case TypeKindVoid:
		return "V"
	case TypeKindArray:
		return "[" + t.elem.Descriptor()
	case TypeKindString, TypeKindReference:
		return "L" + t.name + ";"
	default:
		return "Ljava/lang/Object;"
	}
}

// JVMName returns the name used by class-referencing instructions:
// the internal class name, or the descriptor for arrays.
func (t *Type) JVMName() string {
	switch t.kind {
	case TypeKindString, TypeKindReference:
		return t.name
	case TypeKindArray:
		return t.Descriptor()
	default:
		return t.kind.String()
	}
}

// String returns the source spelling of t.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.kind {
	case TypeKindArray:
		return t.elem.String() + "[]"
	case TypeKindReference:
		return t.name[strings.LastIndex(t.name, "/")+1:]
	case TypeKindAny:
		return "ANY"
	default:
		return t.kind.String()
	}
}
