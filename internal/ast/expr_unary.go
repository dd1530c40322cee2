package ast

import (
	"fmt"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/errors"
	"github.com/jmm-lang/jmmc/internal/types"
)

// UnaryOp is the operator of a Unary expression.
type UnaryOp int

const (
	UnaryNeg        UnaryOp = iota // -x
	UnaryNot                       // !x
	UnaryComplement                // ~x
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryNot:
		return "!"
	case UnaryComplement:
		return "~"
	default:
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
}

// Unary is a prefix operator applied to one operand.
type Unary struct {
	exprBase
	Op      UnaryOp
	Operand Expression
}

func NewUnary(line int, op UnaryOp, operand Expression) *Unary {
	return &Unary{exprBase: exprBase{line: line}, Op: op, Operand: operand}
}

func (u *Unary) String() string {
	return fmt.Sprintf("%s%s", u.Op, u.Operand)
}

func (u *Unary) Analyze(ctx *Context) Expression {
	u.Operand = u.Operand.Analyze(ctx)
	t := u.Operand.Type()

	switch u.Op {
	case UnaryNot:
		t.MustMatchExpected(ctx, u.line, types.Boolean)
		u.typ = types.Boolean
	case UnaryNeg:
		u.typ = t
		if !t.IsAny() && !t.IsNumeric() {
			ctx.Report(u.line, "Invalid operand type for unary -: %s", t)
			u.typ = types.Any
		}
	case UnaryComplement:
		u.typ = t
		if !t.IsAny() && !t.IsIntegral() {
			ctx.Report(u.line, "Invalid operand type for ~: %s", t)
			u.typ = types.Any
		}
	}
	return u
}

func (u *Unary) Codegen(e *Emitter) {
	if u.Op == UnaryNot {
		materialize(e, u)
		return
	}

	typ := mustType(u, u.Op.String())
	u.Operand.Codegen(e)
	switch {
	case u.Op == UnaryNeg:
		e.Emit(byKind(typ, "negation", codegen.INEG, codegen.LNEG, codegen.FNEG, codegen.DNEG, codegen.NOP))
	case typ == types.Int:
		e.Emit(codegen.ICONST_M1)
		e.Emit(codegen.IXOR)
	case typ == types.Long:
		e.EmitConstant(int64(-1))
		e.Emit(codegen.LXOR)
	default:
		panic(errors.UnsupportedType(u.Op.String(), typ))
	}
}

// CodegenBranch is only meaningful for logical not: it branches on the
// operand with the sense inverted.
func (u *Unary) CodegenBranch(e *Emitter, target codegen.Label, onTrue bool) {
	if u.Op != UnaryNot {
		panic(errors.UnsupportedType("branch on "+u.Op.String(), u.typ))
	}
	codegenBranch(e, u.Operand, target, !onTrue)
}

// IncDecOp is the form of an increment or decrement.
type IncDecOp int

const (
	PreIncrement IncDecOp = iota
	PreDecrement
	PostIncrement
	PostDecrement
)

func (op IncDecOp) isPost() bool { return op == PostIncrement || op == PostDecrement }

func (op IncDecOp) delta() int {
	if op == PreIncrement || op == PostIncrement {
		return 1
	}
	return -1
}

func (op IncDecOp) symbol() string {
	if op.delta() > 0 {
		return "++"
	}
	return "--"
}

// IncDec is ++x, --x, x++ or x--.
type IncDec struct {
	exprBase
	Op     IncDecOp
	Target Expression
}

func NewIncDec(line int, op IncDecOp, target Expression) *IncDec {
	return &IncDec{exprBase: exprBase{line: line}, Op: op, Target: target}
}

func (n *IncDec) String() string {
	if n.Op.isPost() {
		return fmt.Sprintf("%s%s", n.Target, n.Op.symbol())
	}
	return fmt.Sprintf("%s%s", n.Op.symbol(), n.Target)
}

func (n *IncDec) Analyze(ctx *Context) Expression {
	n.Target = n.Target.Analyze(ctx)
	t := n.Target.Type()
	n.typ = t

	if _, ok := n.Target.(lvalue); !ok {
		ctx.Report(n.line, "Invalid operand for %s: %s is not a variable", n.Op.symbol(), n.Target)
		n.typ = types.Any
		return n
	}
	if !t.IsAny() && !t.IsNumeric() {
		ctx.Report(n.line, "Operand of %s must be numeric, found: %s", n.Op.symbol(), t)
		n.typ = types.Any
	}
	return n
}

func (n *IncDec) Codegen(e *Emitter) {
	n.codegen(e, true)
}

func (n *IncDec) CodegenEffect(e *Emitter) {
	n.codegen(e, false)
}

func (n *IncDec) codegen(e *Emitter, needValue bool) {
	typ := mustType(n, n.Op.symbol())
	target := n.Target.(lvalue)

	if v, ok := target.(*Variable); ok && typ == types.Int {
		if needValue && n.Op.isPost() {
			e.Load(typ, v.local.Slot)
		}
		e.EmitIInc(v.local.Slot, n.Op.delta())
		if needValue && !n.Op.isPost() {
			e.Load(typ, v.local.Slot)
		}
		return
	}

	target.codegenAddress(e)
	target.codegenReload(e)
	if needValue && n.Op.isPost() {
		target.dupValue(e)
	}
	pushOne(e, typ)
	if n.Op.delta() > 0 {
		e.Emit(byKind(typ, "increment", codegen.IADD, codegen.LADD, codegen.FADD, codegen.DADD, codegen.NOP))
	} else {
		e.Emit(byKind(typ, "decrement", codegen.ISUB, codegen.LSUB, codegen.FSUB, codegen.DSUB, codegen.NOP))
	}
	if needValue && !n.Op.isPost() {
		target.dupValue(e)
	}
	target.codegenStore(e)
}

func pushOne(e *Emitter, typ *types.Type) {
	e.Emit(byKind(typ, "constant one", codegen.ICONST_1, codegen.LCONST_1, codegen.FCONST_1, codegen.DCONST_1, codegen.NOP))
}
