package ast

import (
	"fmt"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/types"
)

// lvalue is an expression that can be assigned to. A store happens in
// three steps: push the address (nothing for a local, the array and index
// for an element), push the value, store.
type lvalue interface {
	Expression
	codegenAddress(e *Emitter)
	// codegenReload loads the current value with the address already on
	// the stack, keeping the address for the store that follows.
	codegenReload(e *Emitter)
	// dupValue copies the value on top of the stack below the address.
	dupValue(e *Emitter)
	codegenStore(e *Emitter)
}

// Variable is a reference to a local variable or parameter.
type Variable struct {
	exprBase
	Name  string
	local *LocalVariable
}

func NewVariable(line int, name string) *Variable {
	return &Variable{exprBase: exprBase{line: line}, Name: name}
}

func (v *Variable) String() string { return v.Name }

// Local returns the variable the name resolved to, or nil.
func (v *Variable) Local() *LocalVariable { return v.local }

func (v *Variable) Analyze(ctx *Context) Expression {
	v.local = ctx.Lookup(v.Name)
	if v.local == nil {
		ctx.Report(v.line, "Cannot find name: %s", v.Name)
		v.typ = types.Any
		return v
	}
	v.typ = v.local.Type
	return v
}

func (v *Variable) Codegen(e *Emitter) {
	e.Load(mustType(v, "load"), v.local.Slot)
}

func (v *Variable) codegenAddress(e *Emitter) {}

func (v *Variable) codegenReload(e *Emitter) { v.Codegen(e) }

func (v *Variable) dupValue(e *Emitter) { e.Dup(v.typ) }

func (v *Variable) codegenStore(e *Emitter) {
	e.Store(mustType(v, "store"), v.local.Slot)
}

// ArrayIndex is Array[Index].
type ArrayIndex struct {
	exprBase
	Array Expression
	Index Expression
}

func NewArrayIndex(line int, array, index Expression) *ArrayIndex {
	return &ArrayIndex{exprBase: exprBase{line: line}, Array: array, Index: index}
}

func (a *ArrayIndex) String() string {
	return fmt.Sprintf("%s[%s]", a.Array, a.Index)
}

func (a *ArrayIndex) Analyze(ctx *Context) Expression {
	a.Array = a.Array.Analyze(ctx)
	a.Index = a.Index.Analyze(ctx)
	a.Index.Type().MustMatchExpected(ctx, a.line, types.Int)

	at := a.Array.Type()
	switch {
	case at.IsAny():
		a.typ = types.Any
	case !at.IsArray():
		ctx.Report(a.line, "Attempt to index a non-array object of type %s", at)
		a.typ = types.Any
	default:
		a.typ = at.Elem()
	}
	return a
}

func (a *ArrayIndex) Codegen(e *Emitter) {
	typ := mustType(a, "array load")
	a.codegenAddress(e)
	e.ArrayLoad(typ)
}

func (a *ArrayIndex) codegenAddress(e *Emitter) {
	a.Array.Codegen(e)
	a.Index.Codegen(e)
}

func (a *ArrayIndex) codegenReload(e *Emitter) {
	e.Emit(codegen.DUP2)
	e.ArrayLoad(mustType(a, "array load"))
}

func (a *ArrayIndex) dupValue(e *Emitter) { e.DupX2(a.typ) }

func (a *ArrayIndex) codegenStore(e *Emitter) {
	e.ArrayStore(mustType(a, "array store"))
}

// ArrayLength is Array.length.
type ArrayLength struct {
	exprBase
	Array Expression
}

func NewArrayLength(line int, array Expression) *ArrayLength {
	return &ArrayLength{exprBase: exprBase{line: line}, Array: array}
}

func (a *ArrayLength) String() string { return fmt.Sprintf("%s.length", a.Array) }

func (a *ArrayLength) Analyze(ctx *Context) Expression {
	a.Array = a.Array.Analyze(ctx)
	if at := a.Array.Type(); !at.IsAny() && !at.IsArray() {
		ctx.Report(a.line, "Cannot find length of non-array type %s", at)
	}
	a.typ = types.Int
	return a
}

func (a *ArrayLength) Codegen(e *Emitter) {
	mustType(a.Array, "arraylength")
	a.Array.Codegen(e)
	e.Emit(codegen.ARRAYLENGTH)
}

// AssignOp is the operator of an Assign: plain = or a compound form.
type AssignOp int

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignRem
	AssignAnd
	AssignOr
	AssignXor
	AssignShl
	AssignShr
	AssignUShr
)

// binary returns the operator a compound assignment applies.
func (op AssignOp) binary() BinaryOp {
	switch op {
	case AssignAdd:
		return OpAdd
	case AssignSub:
		return OpSub
	case AssignMul:
		return OpMul
	case AssignDiv:
		return OpDiv
	case AssignRem:
		return OpRem
	case AssignAnd:
		return OpAnd
	case AssignOr:
		return OpOr
	case AssignXor:
		return OpXor
	case AssignShl:
		return OpShl
	case AssignShr:
		return OpShr
	default:
		return OpUShr
	}
}

func (op AssignOp) String() string {
	if op == AssignPlain {
		return "="
	}
	return op.binary().String() + "="
}

// Assign stores Value into Target. A compound assignment reads Target,
// applies the operator and stores the result back, evaluating the target
// address once.
type Assign struct {
	exprBase
	Op     AssignOp
	Target Expression
	Value  Expression

	op     *Binary       // operator applied by a compound form
	concat *StringConcat // set instead of op for += on a String
}

func NewAssign(line int, op AssignOp, target, value Expression) *Assign {
	return &Assign{exprBase: exprBase{line: line}, Op: op, Target: target, Value: value}
}

func (a *Assign) String() string {
	return fmt.Sprintf("%s %s %s", a.Target, a.Op, a.Value)
}

func (a *Assign) Analyze(ctx *Context) Expression {
	a.Target = a.Target.Analyze(ctx)
	a.Value = a.Value.Analyze(ctx)
	a.op, a.concat = nil, nil

	tt := a.Target.Type()
	a.typ = tt
	if _, ok := a.Target.(lvalue); !ok {
		ctx.Report(a.line, "Illegal assignment: %s is not a variable", a.Target)
		a.typ = types.Any
		return a
	}

	if a.Op == AssignPlain {
		mustConvert(ctx, a.line, a.Value.Type(), tt)
		return a
	}

	if a.Op == AssignAdd && tt == types.String {
		a.concat = NewStringConcat(a.line, a.Target, a.Value)
		a.concat.check(ctx)
		return a
	}

	a.op = NewBinary(a.line, a.Op.binary(), a.Target, a.Value)
	if result := a.op.check(ctx); !result.Type().IsAny() && !tt.IsAny() && !result.Type().Equals(tt) {
		ctx.Report(a.line, "Result of %s has type %s, which cannot be stored in %s", a.Op, result.Type(), tt)
	}
	return a
}

// mustConvert reports when a value of type from cannot be stored where to
// is expected: the types must match or widen.
func mustConvert(ctx *Context, line int, from, to *types.Type) {
	if from.IsAny() || to.IsAny() || from.AssignableTo(to) || from.WidensTo(to) {
		return
	}
	from.MustMatchExpected(ctx, line, to)
}

func (a *Assign) Codegen(e *Emitter) {
	a.codegen(e, true)
}

func (a *Assign) CodegenEffect(e *Emitter) {
	a.codegen(e, false)
}

func (a *Assign) codegen(e *Emitter, needValue bool) {
	typ := mustType(a, "assignment")
	target := a.Target.(lvalue)

	target.codegenAddress(e)
	switch {
	case a.concat != nil:
		// s += x on a String: String.valueOf(s).concat(String.valueOf(x)),
		// so the target address is evaluated only once.
		target.codegenReload(e)
		e.EmitMember(codegen.INVOKESTATIC, "java/lang/String", "valueOf", "(Ljava/lang/Object;)Ljava/lang/String;")
		a.Value.Codegen(e)
		e.EmitMember(codegen.INVOKESTATIC, "java/lang/String", "valueOf",
			"("+valueOfDescriptor(mustType(a.Value, "string conversion"))+")Ljava/lang/String;")
		e.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/String", "concat", "(Ljava/lang/String;)Ljava/lang/String;")
	case a.op != nil:
		rule := binaryRules[a.op.Op]
		opcode := rule.opcodeFor(a.op.Op, typ)
		target.codegenReload(e)
		a.Value.Codegen(e)
		if !rule.shift {
			e.Widen(a.Value.Type(), typ)
		}
		e.Emit(opcode)
	default:
		a.Value.Codegen(e)
		e.Widen(a.Value.Type(), typ)
	}
	if needValue {
		target.dupValue(e)
	}
	target.codegenStore(e)
}

// valueOfDescriptor picks the String.valueOf overload for typ.
func valueOfDescriptor(typ *types.Type) string {
	if typ.IsPrimitive() {
		return typ.Descriptor()
	}
	return "Ljava/lang/Object;"
}
