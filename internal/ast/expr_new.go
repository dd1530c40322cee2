package ast

import (
	"fmt"
	"strings"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/errors"
	"github.com/jmm-lang/jmmc/internal/types"
)

// NewObject is new Class(args). Only the library classes the compiler knows
// can be instantiated, through their no-argument or String constructors.
type NewObject struct {
	exprBase
	ClassName string
	Args      []Expression
}

func NewNewObject(line int, className string, args ...Expression) *NewObject {
	return &NewObject{exprBase: exprBase{line: line}, ClassName: className, Args: args}
}

func (n *NewObject) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("new %s(%s)", n.ClassName, strings.Join(args, ", "))
}

func (n *NewObject) Analyze(ctx *Context) Expression {
	for i, a := range n.Args {
		n.Args[i] = a.Analyze(ctx)
	}

	t := ctx.ResolveType(n.line, n.ClassName)
	n.typ = t
	if t.IsAny() {
		return n
	}
	if t.Kind() != types.TypeKindReference {
		ctx.Report(n.line, "Cannot instantiate %s", t)
		n.typ = types.Any
		return n
	}

	switch {
	case len(n.Args) == 0:
	case len(n.Args) == 1:
		n.Args[0].Type().MustMatchExpected(ctx, n.line, types.String)
	default:
		ctx.Report(n.line, "No constructor %s with %d arguments", t, len(n.Args))
		n.typ = types.Any
	}
	return n
}

func (n *NewObject) Codegen(e *Emitter) {
	typ := mustType(n, "new")
	e.EmitClass(codegen.NEW, typ.JVMName())
	e.Emit(codegen.DUP)
	var desc strings.Builder
	desc.WriteByte('(')
	for _, a := range n.Args {
		a.Codegen(e)
		desc.WriteString(types.String.Descriptor())
	}
	desc.WriteString(")V")
	e.EmitMember(codegen.INVOKESPECIAL, typ.JVMName(), "<init>", desc.String())
}

// CodegenEffect creates and discards the object.
func (n *NewObject) CodegenEffect(e *Emitter) {
	n.Codegen(e)
	e.Emit(codegen.POP)
}

// NewArray is new Elem[Size].
type NewArray struct {
	exprBase
	ElemType string
	Size     Expression
	elem     *types.Type
}

func NewNewArray(line int, elemType string, size Expression) *NewArray {
	return &NewArray{exprBase: exprBase{line: line}, ElemType: elemType, Size: size}
}

func (n *NewArray) String() string {
	return fmt.Sprintf("new %s[%s]", n.ElemType, n.Size)
}

func (n *NewArray) Analyze(ctx *Context) Expression {
	n.Size = n.Size.Analyze(ctx)
	n.Size.Type().MustMatchExpected(ctx, n.line, types.Int)
	n.elem = ctx.ResolveType(n.line, n.ElemType)
	if n.elem.IsAny() {
		n.typ = types.Any
		return n
	}
	n.typ = types.ArrayOf(n.elem)
	return n
}

func (n *NewArray) Codegen(e *Emitter) {
	mustType(n, "new array")
	n.Size.Codegen(e)
	codegenNewArray(e, n.elem)
}

// ArrayInit is new Elem[]{Elements...}.
type ArrayInit struct {
	exprBase
	ElemType string
	Elements []Expression
	elem     *types.Type
}

func NewArrayInit(line int, elemType string, elements ...Expression) *ArrayInit {
	return &ArrayInit{exprBase: exprBase{line: line}, ElemType: elemType, Elements: elements}
}

func (n *ArrayInit) String() string {
	elems := make([]string, len(n.Elements))
	for i, el := range n.Elements {
		elems[i] = el.String()
	}
	return fmt.Sprintf("new %s[]{%s}", n.ElemType, strings.Join(elems, ", "))
}

func (n *ArrayInit) Analyze(ctx *Context) Expression {
	n.elem = ctx.ResolveType(n.line, n.ElemType)
	for i, el := range n.Elements {
		n.Elements[i] = el.Analyze(ctx)
		mustConvert(ctx, n.Elements[i].Line(), n.Elements[i].Type(), n.elem)
	}
	if n.elem.IsAny() {
		n.typ = types.Any
		return n
	}
	n.typ = types.ArrayOf(n.elem)
	return n
}

func (n *ArrayInit) Codegen(e *Emitter) {
	mustType(n, "array initializer")
	e.PushInt(int32(len(n.Elements)))
	codegenNewArray(e, n.elem)
	for i, el := range n.Elements {
		e.Emit(codegen.DUP)
		e.PushInt(int32(i))
		el.Codegen(e)
		e.Widen(el.Type(), n.elem)
		e.ArrayStore(n.elem)
	}
}

// codegenNewArray allocates an array of elem with the length on the stack.
func codegenNewArray(e *Emitter, elem *types.Type) {
	switch elem.Kind() {
	case types.TypeKindInt:
		e.EmitOperand(codegen.NEWARRAY, codegen.ArrayTypeInt)
	case types.TypeKindLong:
		e.EmitOperand(codegen.NEWARRAY, codegen.ArrayTypeLong)
	case types.TypeKindFloat:
		e.EmitOperand(codegen.NEWARRAY, codegen.ArrayTypeFloat)
	case types.TypeKindDouble:
		e.EmitOperand(codegen.NEWARRAY, codegen.ArrayTypeDouble)
	case types.TypeKindBoolean:
		e.EmitOperand(codegen.NEWARRAY, codegen.ArrayTypeBoolean)
	case types.TypeKindChar:
		e.EmitOperand(codegen.NEWARRAY, codegen.ArrayTypeChar)
	case types.TypeKindString, types.TypeKindReference, types.TypeKindArray:
		e.EmitClass(codegen.ANEWARRAY, elem.JVMName())
	default:
		panic(errors.UnsupportedType("new array", elem))
	}
}
