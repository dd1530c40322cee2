package ast

import (
	"fmt"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/errors"
	"github.com/jmm-lang/jmmc/internal/types"
)

// BinaryOp is the operator of a Binary expression.
type BinaryOp int

const (
	OpMul BinaryOp = iota
	OpSub
	OpAdd
	OpDiv
	OpRem
	OpOr
	OpXor
	OpAnd
	OpShl
	OpShr
	OpUShr
)

var binarySymbols = [...]string{
	OpMul:  "*",
	OpSub:  "-",
	OpAdd:  "+",
	OpDiv:  "/",
	OpRem:  "%",
	OpOr:   "|",
	OpXor:  "^",
	OpAnd:  "&",
	OpShl:  "<<",
	OpShr:  ">>",
	OpUShr: ">>>",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binarySymbols) {
		return binarySymbols[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// binaryRule is one row of the operator table: how the operator types its
// operands and which instruction implements it for each result type.
type binaryRule struct {
	analyze func(ctx *Context, b *Binary) Expression
	// opcodes for int, long, float and double results; NOP where the
	// operator has no instruction for that type.
	opcodes [4]codegen.Opcode
	// shift operators keep the right operand as int.
	shift bool
}

var binaryRules = [...]binaryRule{
	OpMul:  {analyzeIntArithmetic, [4]codegen.Opcode{codegen.IMUL, codegen.LMUL, codegen.FMUL, codegen.DMUL}, false},
	OpSub:  {analyzeIntArithmetic, [4]codegen.Opcode{codegen.ISUB, codegen.LSUB, codegen.FSUB, codegen.DSUB}, false},
	OpAdd:  {analyzeAdd, [4]codegen.Opcode{codegen.IADD, codegen.LADD, codegen.FADD, codegen.DADD}, false},
	OpDiv:  {analyzePromoting, [4]codegen.Opcode{codegen.IDIV, codegen.LDIV, codegen.FDIV, codegen.DDIV}, false},
	OpRem:  {analyzePromoting, [4]codegen.Opcode{codegen.IREM, codegen.LREM, codegen.FREM, codegen.DREM}, false},
	OpOr:   {analyzeBitwise, [4]codegen.Opcode{codegen.IOR, codegen.LOR, codegen.NOP, codegen.NOP}, false},
	OpXor:  {analyzeBitwise, [4]codegen.Opcode{codegen.IXOR, codegen.LXOR, codegen.NOP, codegen.NOP}, false},
	OpAnd:  {analyzeBitwise, [4]codegen.Opcode{codegen.IAND, codegen.LAND, codegen.NOP, codegen.NOP}, false},
	OpShl:  {analyzeShift, [4]codegen.Opcode{codegen.ISHL, codegen.LSHL, codegen.NOP, codegen.NOP}, true},
	OpShr:  {analyzeShift, [4]codegen.Opcode{codegen.ISHR, codegen.LSHR, codegen.NOP, codegen.NOP}, true},
	OpUShr: {analyzeShift, [4]codegen.Opcode{codegen.IUSHR, codegen.LUSHR, codegen.NOP, codegen.NOP}, true},
}

// Binary is an arithmetic, bitwise or shift expression. Comparisons and
// the logical operators are separate nodes because they branch.
type Binary struct {
	exprBase
	Op  BinaryOp
	Lhs Expression
	Rhs Expression
}

func NewBinary(line int, op BinaryOp, lhs, rhs Expression) *Binary {
	return &Binary{exprBase: exprBase{line: line}, Op: op, Lhs: lhs, Rhs: rhs}
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Lhs, b.Op, b.Rhs)
}

// Analyze analyzes both operands, keeping whatever nodes they return, then
// applies the operator's rule. The result may be a different node.
func (b *Binary) Analyze(ctx *Context) Expression {
	b.Lhs = b.Lhs.Analyze(ctx)
	b.Rhs = b.Rhs.Analyze(ctx)
	return b.check(ctx)
}

// check applies the operator rule to already analyzed operands.
func (b *Binary) check(ctx *Context) Expression {
	return binaryRules[b.Op].analyze(ctx, b)
}

func eitherAny(b *Binary) bool {
	return b.Lhs.Type().IsAny() || b.Rhs.Type().IsAny()
}

func analyzeIntArithmetic(ctx *Context, b *Binary) Expression {
	b.Lhs.Type().MustMatchExpected(ctx, b.line, types.Int)
	b.Rhs.Type().MustMatchExpected(ctx, b.line, types.Int)
	b.typ = types.Int
	return b
}

func analyzeAdd(ctx *Context, b *Binary) Expression {
	lt, rt := b.Lhs.Type(), b.Rhs.Type()
	if lt == types.String || rt == types.String {
		return NewStringConcat(b.line, b.Lhs, b.Rhs).check(ctx)
	}
	switch {
	case lt == types.Int && rt == types.Int:
		b.typ = types.Int
	case eitherAny(b):
		b.typ = types.Any
	default:
		ctx.Report(b.line, "Invalid operand types for +")
		b.typ = types.Any
	}
	return b
}

// analyzePromoting types division and remainder: double dominates float,
// float dominates long, long dominates int. The node takes the promoted
// type and both operands must match it, so 1 / 2.0 is a double with an
// error reported against the int operand.
func analyzePromoting(ctx *Context, b *Binary) Expression {
	promoted := types.Promote(b.Lhs.Type(), b.Rhs.Type())
	if promoted.IsAny() {
		if !eitherAny(b) {
			ctx.Report(b.line, "Invalid operand types for %s operator: %s and %s", b.Op, b.Lhs.Type(), b.Rhs.Type())
		}
		b.typ = types.Any
		return b
	}
	b.Lhs.Type().MustMatchExpected(ctx, b.line, promoted)
	b.Rhs.Type().MustMatchExpected(ctx, b.line, promoted)
	b.typ = promoted
	return b
}

// analyzeBitwise types | ^ and &: int with int is int, and long with an int
// or long operand is long.
func analyzeBitwise(ctx *Context, b *Binary) Expression {
	lt, rt := b.Lhs.Type(), b.Rhs.Type()
	switch {
	case lt == types.Int && rt == types.Int:
		b.typ = types.Int
	case lt.IsIntegral() && rt.IsIntegral():
		b.typ = types.Long
	case eitherAny(b):
		b.typ = types.Any
	default:
		ctx.Report(b.line, "Invalid operand types for %s operator", b.Op)
		b.typ = types.Any
	}
	return b
}

// analyzeShift types shifts: the left operand is int or long, the right is
// int, and the result has the left operand's type even after an error.
func analyzeShift(ctx *Context, b *Binary) Expression {
	lt, rt := b.Lhs.Type(), b.Rhs.Type()
	if !eitherAny(b) && (!lt.IsIntegral() || rt != types.Int) {
		ctx.Report(b.line, "Invalid operand types for %s operator: left operand must be int or long, right operand must be int", b.Op)
	}
	b.typ = lt
	return b
}

// Codegen emits lhs, rhs and the operator instruction for the result type.
func (b *Binary) Codegen(e *Emitter) {
	rule := binaryRules[b.Op]
	op := rule.opcodeFor(b.Op, b.typ)

	b.Lhs.Codegen(e)
	e.Widen(b.Lhs.Type(), b.typ)
	b.Rhs.Codegen(e)
	if !rule.shift {
		e.Widen(b.Rhs.Type(), b.typ)
	}
	e.Emit(op)
}

func (r binaryRule) opcodeFor(op BinaryOp, typ *types.Type) codegen.Opcode {
	idx := -1
	if typ != nil {
		switch typ.Kind() {
		case types.TypeKindInt:
			idx = 0
		case types.TypeKindLong:
			idx = 1
		case types.TypeKindFloat:
			idx = 2
		case types.TypeKindDouble:
			idx = 3
		}
	}
	if idx < 0 || r.opcodes[idx] == codegen.NOP {
		panic(errors.UnsupportedType(op.String(), typ))
	}
	return r.opcodes[idx]
}

// StringConcat is string concatenation, produced by analysis of + when an
// operand is a String.
type StringConcat struct {
	exprBase
	Lhs Expression
	Rhs Expression
}

func NewStringConcat(line int, lhs, rhs Expression) *StringConcat {
	return &StringConcat{exprBase: exprBase{line: line}, Lhs: lhs, Rhs: rhs}
}

func (c *StringConcat) String() string {
	return fmt.Sprintf("(%s + %s)", c.Lhs, c.Rhs)
}

func (c *StringConcat) Analyze(ctx *Context) Expression {
	c.Lhs = c.Lhs.Analyze(ctx)
	c.Rhs = c.Rhs.Analyze(ctx)
	return c.check(ctx)
}

func (c *StringConcat) check(ctx *Context) Expression {
	for _, operand := range []Expression{c.Lhs, c.Rhs} {
		if operand.Type() == types.Void {
			ctx.Report(c.line, "Cannot concatenate a void value")
		}
	}
	c.typ = types.String
	return c
}

// Codegen builds the string with one StringBuilder for the whole chain of
// nested concatenations.
func (c *StringConcat) Codegen(e *Emitter) {
	e.EmitClass(codegen.NEW, "java/lang/StringBuilder")
	e.Emit(codegen.DUP)
	e.EmitMember(codegen.INVOKESPECIAL, "java/lang/StringBuilder", "<init>", "()V")
	c.appendOperands(e)
	e.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/StringBuilder", "toString", "()Ljava/lang/String;")
}

func (c *StringConcat) appendOperands(e *Emitter) {
	for _, operand := range []Expression{c.Lhs, c.Rhs} {
		if nested, ok := operand.(*StringConcat); ok {
			nested.appendOperands(e)
			continue
		}
		operand.Codegen(e)
		e.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/StringBuilder", "append",
			"("+appendDescriptor(mustType(operand, "string concatenation"))+")Ljava/lang/StringBuilder;")
	}
}

// appendDescriptor picks the StringBuilder.append overload for typ.
func appendDescriptor(typ *types.Type) string {
	switch typ.Kind() {
	case types.TypeKindInt, types.TypeKindLong, types.TypeKindFloat, types.TypeKindDouble,
		types.TypeKindBoolean, types.TypeKindChar:
		return typ.Descriptor()
	case types.TypeKindString:
		return "Ljava/lang/String;"
	default:
		return "Ljava/lang/Object;"
	}
}
