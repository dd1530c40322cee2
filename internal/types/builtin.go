package types

import "strings"

// builtinClass describes a library class the compiler knows without
// loading a class path.
type builtinClass struct {
	name      string // internal name
	super     string // internal name of the superclass, "" for Object
	throwable bool
}

var builtinClasses = []builtinClass{
	{"java/lang/Object", "", false},
	{"java/lang/String", "java/lang/Object", false},
	{"java/lang/StringBuilder", "java/lang/Object", false},
	{"java/lang/Throwable", "java/lang/Object", true},
	{"java/lang/Error", "java/lang/Throwable", true},
	{"java/lang/Exception", "java/lang/Throwable", true},
	{"java/lang/RuntimeException", "java/lang/Exception", true},
	{"java/lang/ArithmeticException", "java/lang/RuntimeException", true},
	{"java/lang/ArrayIndexOutOfBoundsException", "java/lang/RuntimeException", true},
	{"java/lang/NegativeArraySizeException", "java/lang/RuntimeException", true},
	{"java/lang/NullPointerException", "java/lang/RuntimeException", true},
	{"java/lang/IllegalArgumentException", "java/lang/RuntimeException", true},
	{"java/lang/IllegalStateException", "java/lang/RuntimeException", true},
	{"java/lang/UnsupportedOperationException", "java/lang/RuntimeException", true},
}

var (
	classByName   = map[string]*builtinClass{}
	primitiveType = map[string]*Type{
		"int":     Int,
		"long":    Long,
		"float":   Float,
		"double":  Double,
		"boolean": Boolean,
		"char":    Char,
		"void":    Void,
	}
)

func init() {
	for i := range builtinClasses {
		c := &builtinClasses[i]
		classByName[c.name] = c
		classByName[c.name[strings.LastIndex(c.name, "/")+1:]] = c
	}
}

// Lookup resolves a type name as written in source: a primitive keyword,
// a simple or qualified built-in class name, optionally followed by [].
func Lookup(name string) (*Type, bool) {
	if strings.HasSuffix(name, "[]") {
		elem, ok := Lookup(strings.TrimSuffix(name, "[]"))
		if !ok {
			return nil, false
		}
		return ArrayOf(elem), true
	}
	if t, ok := primitiveType[name]; ok {
		return t, true
	}
	c, ok := classByName[strings.ReplaceAll(name, ".", "/")]
	if !ok {
		return nil, false
	}
	if c.name == "java/lang/String" {
		return String, true
	}
	return Reference(c.name, c.throwable), true
}

// IsSubclass reports whether class sub is class super or extends it.
// Both are internal names. Unknown classes only match themselves.
func IsSubclass(sub, super string) bool {
	for name := sub; name != ""; {
		if name == super {
			return true
		}
		c, ok := classByName[name]
		if !ok {
			return false
		}
		name = c.super
	}
	return false
}
