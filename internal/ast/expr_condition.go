package ast

import (
	"fmt"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/errors"
	"github.com/jmm-lang/jmmc/internal/types"
)

// codegenBranch emits cond so that control reaches target when cond
// evaluates to onTrue and falls through otherwise.
func codegenBranch(e *Emitter, cond Expression, target codegen.Label, onTrue bool) {
	if b, ok := cond.(brancher); ok {
		b.CodegenBranch(e, target, onTrue)
		return
	}
	cond.Codegen(e)
	if onTrue {
		e.EmitBranch(codegen.IFNE, target)
	} else {
		e.EmitBranch(codegen.IFEQ, target)
	}
}

// materialize leaves 1 or 0 on the stack for a branching expression.
func materialize(e *Emitter, b brancher) {
	isTrue := e.NewLabel()
	end := e.NewLabel()
	b.CodegenBranch(e, isTrue, true)
	e.Emit(codegen.ICONST_0)
	e.EmitBranch(codegen.GOTO, end)
	e.PlaceLabel(isTrue)
	e.Emit(codegen.ICONST_1)
	e.PlaceLabel(end)
}

// Conditional is cond ? Then : Else.
type Conditional struct {
	exprBase
	Cond Expression
	Then Expression
	Else Expression
}

func NewConditional(line int, cond, then, els Expression) *Conditional {
	return &Conditional{exprBase: exprBase{line: line}, Cond: cond, Then: then, Else: els}
}

func (c *Conditional) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", c.Cond, c.Then, c.Else)
}

func (c *Conditional) Analyze(ctx *Context) Expression {
	c.Cond = c.Cond.Analyze(ctx)
	if ct := c.Cond.Type(); !ct.IsAny() && ct != types.Boolean {
		ctx.Report(c.line, "Condition in conditional expression must be of type boolean.")
	}

	c.Then = c.Then.Analyze(ctx)
	c.Else = c.Else.Analyze(ctx)
	tt, et := c.Then.Type(), c.Else.Type()
	if !tt.IsAny() && !et.IsAny() && !tt.Equals(et) {
		ctx.Report(c.line, "True and false parts of the conditional expression must have the same type.")
	}
	c.typ = tt
	return c
}

// Codegen branches to the true part when the condition holds, so exactly
// one part runs and leaves one value of the node's type.
func (c *Conditional) Codegen(e *Emitter) {
	mustType(c, "conditional")
	trueLabel := e.NewLabel()
	endLabel := e.NewLabel()

	codegenBranch(e, c.Cond, trueLabel, true)
	c.Else.Codegen(e)
	e.EmitBranch(codegen.GOTO, endLabel)
	e.PlaceLabel(trueLabel)
	c.Then.Codegen(e)
	e.PlaceLabel(endLabel)
}

// CompareOp is the operator of a Comparison.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var compareSymbols = [...]string{
	CmpEq: "==",
	CmpNe: "!=",
	CmpLt: "<",
	CmpLe: "<=",
	CmpGt: ">",
	CmpGe: ">=",
}

func (op CompareOp) String() string {
	if op >= 0 && int(op) < len(compareSymbols) {
		return compareSymbols[op]
	}
	return fmt.Sprintf("CompareOp(%d)", int(op))
}

// negate returns the operator that holds exactly when op does not.
func (op CompareOp) negate() CompareOp {
	switch op {
	case CmpEq:
		return CmpNe
	case CmpNe:
		return CmpEq
	case CmpLt:
		return CmpGe
	case CmpLe:
		return CmpGt
	case CmpGt:
		return CmpLe
	default:
		return CmpLt
	}
}

func (op CompareOp) isEquality() bool { return op == CmpEq || op == CmpNe }

var (
	intCompareBranch  = [...]codegen.Opcode{codegen.IF_ICMPEQ, codegen.IF_ICMPNE, codegen.IF_ICMPLT, codegen.IF_ICMPLE, codegen.IF_ICMPGT, codegen.IF_ICMPGE}
	zeroCompareBranch = [...]codegen.Opcode{codegen.IFEQ, codegen.IFNE, codegen.IFLT, codegen.IFLE, codegen.IFGT, codegen.IFGE}
)

// Comparison is a relational or equality comparison.
type Comparison struct {
	exprBase
	Op      CompareOp
	Lhs     Expression
	Rhs     Expression
	operand *types.Type // common operand type the comparison runs at
}

func NewComparison(line int, op CompareOp, lhs, rhs Expression) *Comparison {
	return &Comparison{exprBase: exprBase{line: line}, Op: op, Lhs: lhs, Rhs: rhs}
}

func (c *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Lhs, c.Op, c.Rhs)
}

func (c *Comparison) Analyze(ctx *Context) Expression {
	c.Lhs = c.Lhs.Analyze(ctx)
	c.Rhs = c.Rhs.Analyze(ctx)
	c.typ = types.Boolean

	lt, rt := c.Lhs.Type(), c.Rhs.Type()
	switch {
	case lt.IsAny() || rt.IsAny():
		c.operand = types.Any
	case lt.IsNumeric() && rt.IsNumeric():
		c.operand = types.Promote(lt, rt)
	case !c.Op.isEquality():
		ctx.Report(c.line, "Invalid operand types for %s operator: %s and %s", c.Op, lt, rt)
		c.operand = types.Any
	case lt == types.Boolean && rt == types.Boolean, lt == types.Char && rt == types.Char:
		c.operand = lt
	case lt.IsReference() && rt.IsReference() && (lt.AssignableTo(rt) || rt.AssignableTo(lt)):
		c.operand = lt
		if lt == types.Null {
			c.operand = rt
		}
	default:
		ctx.Report(c.line, "Incomparable types for %s operator: %s and %s", c.Op, lt, rt)
		c.operand = types.Any
	}
	return c
}

func (c *Comparison) Codegen(e *Emitter) {
	materialize(e, c)
}

func (c *Comparison) CodegenBranch(e *Emitter, target codegen.Label, onTrue bool) {
	if c.operand.IsAny() {
		panic(errors.UnsupportedType(c.Op.String(), c.operand))
	}
	op := c.Op
	if !onTrue {
		op = op.negate()
	}

	c.Lhs.Codegen(e)
	e.Widen(c.Lhs.Type(), c.operand)
	c.Rhs.Codegen(e)
	e.Widen(c.Rhs.Type(), c.operand)

	switch c.operand.Kind() {
	case types.TypeKindInt, types.TypeKindBoolean, types.TypeKindChar:
		e.EmitBranch(intCompareBranch[op], target)
	case types.TypeKindLong:
		e.Emit(codegen.LCMP)
		e.EmitBranch(zeroCompareBranch[op], target)
	case types.TypeKindFloat, types.TypeKindDouble:
		// A NaN operand makes every ordered comparison false: pick the
		// compare instruction whose NaN result fails the original operator.
		cmpl, cmpg := codegen.FCMPL, codegen.FCMPG
		if c.operand.Kind() == types.TypeKindDouble {
			cmpl, cmpg = codegen.DCMPL, codegen.DCMPG
		}
		if c.Op == CmpLt || c.Op == CmpLe {
			e.Emit(cmpg)
		} else {
			e.Emit(cmpl)
		}
		e.EmitBranch(zeroCompareBranch[op], target)
	default:
		if op == CmpEq {
			e.EmitBranch(codegen.IF_ACMPEQ, target)
		} else {
			e.EmitBranch(codegen.IF_ACMPNE, target)
		}
	}
}

// Logical is a short-circuit && or ||.
type Logical struct {
	exprBase
	And bool
	Lhs Expression
	Rhs Expression
}

func NewLogicalAnd(line int, lhs, rhs Expression) *Logical {
	return &Logical{exprBase: exprBase{line: line}, And: true, Lhs: lhs, Rhs: rhs}
}

func NewLogicalOr(line int, lhs, rhs Expression) *Logical {
	return &Logical{exprBase: exprBase{line: line}, And: false, Lhs: lhs, Rhs: rhs}
}

func (l *Logical) symbol() string {
	if l.And {
		return "&&"
	}
	return "||"
}

func (l *Logical) String() string {
	return fmt.Sprintf("(%s %s %s)", l.Lhs, l.symbol(), l.Rhs)
}

func (l *Logical) Analyze(ctx *Context) Expression {
	l.Lhs = l.Lhs.Analyze(ctx)
	l.Rhs = l.Rhs.Analyze(ctx)
	l.Lhs.Type().MustMatchExpected(ctx, l.line, types.Boolean)
	l.Rhs.Type().MustMatchExpected(ctx, l.line, types.Boolean)
	l.typ = types.Boolean
	return l
}

func (l *Logical) Codegen(e *Emitter) {
	materialize(e, l)
}

func (l *Logical) CodegenBranch(e *Emitter, target codegen.Label, onTrue bool) {
	switch {
	case l.And && onTrue:
		skip := e.NewLabel()
		codegenBranch(e, l.Lhs, skip, false)
		codegenBranch(e, l.Rhs, target, true)
		e.PlaceLabel(skip)
	case l.And:
		codegenBranch(e, l.Lhs, target, false)
		codegenBranch(e, l.Rhs, target, false)
	case onTrue:
		codegenBranch(e, l.Lhs, target, true)
		codegenBranch(e, l.Rhs, target, true)
	default:
		skip := e.NewLabel()
		codegenBranch(e, l.Lhs, skip, true)
		codegenBranch(e, l.Rhs, target, false)
		e.PlaceLabel(skip)
	}
}
