package ast

import (
	"fmt"
	"strings"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/errors"
	"github.com/jmm-lang/jmmc/internal/types"
)

// Block is a braced statement list with its own scope.
type Block struct {
	stmtBase
	Statements []Statement
}

func NewBlock(line int, stmts ...Statement) *Block {
	return &Block{stmtBase: stmtBase{line: line}, Statements: stmts}
}

func (b *Block) String() string {
	var out strings.Builder
	out.WriteString("{ ")
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteByte(' ')
	}
	out.WriteString("}")
	return out.String()
}

func (b *Block) Analyze(ctx *Context) Statement {
	ctx.PushScope()
	defer ctx.PopScope()
	b.analyzeStatements(ctx)
	return b
}

// analyzeStatements analyzes the statements in the current scope.
func (b *Block) analyzeStatements(ctx *Context) {
	for i, s := range b.Statements {
		b.Statements[i] = s.Analyze(ctx)
	}
}

func (b *Block) Codegen(e *Emitter) {
	for _, s := range b.Statements {
		s.Codegen(e)
	}
}

// LocalVar declares a local variable with an optional initializer.
type LocalVar struct {
	stmtBase
	TypeName string
	Name     string
	Init     Expression
	local    *LocalVariable
}

func NewLocalVar(line int, typeName, name string, init Expression) *LocalVar {
	return &LocalVar{stmtBase: stmtBase{line: line}, TypeName: typeName, Name: name, Init: init}
}

func (v *LocalVar) String() string {
	if v.Init == nil {
		return fmt.Sprintf("%s %s;", v.TypeName, v.Name)
	}
	return fmt.Sprintf("%s %s = %s;", v.TypeName, v.Name, v.Init)
}

// Local returns the declared variable after analysis.
func (v *LocalVar) Local() *LocalVariable { return v.local }

// Analyze checks the initializer before the name is in scope, so int x = x
// is reported.
func (v *LocalVar) Analyze(ctx *Context) Statement {
	typ := ctx.ResolveType(v.line, v.TypeName)
	if typ == types.Void {
		ctx.Report(v.line, "Variable %s cannot have type void", v.Name)
		typ = types.Any
	}
	if v.Init != nil {
		v.Init = v.Init.Analyze(ctx)
		mustConvert(ctx, v.line, v.Init.Type(), typ)
	}
	v.local = ctx.Declare(v.line, v.Name, typ)
	return v
}

func (v *LocalVar) Codegen(e *Emitter) {
	if v.Init == nil {
		return
	}
	v.Init.Codegen(e)
	e.Widen(v.Init.Type(), v.local.Type)
	e.Store(v.local.Type, v.local.Slot)
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	stmtBase
	Expr Expression
}

func NewExprStmt(line int, expr Expression) *ExprStmt {
	return &ExprStmt{stmtBase: stmtBase{line: line}, Expr: expr}
}

func (s *ExprStmt) String() string { return s.Expr.String() + ";" }

func (s *ExprStmt) Analyze(ctx *Context) Statement {
	s.Expr = s.Expr.Analyze(ctx)
	if _, ok := s.Expr.(effecter); !ok {
		ctx.Report(s.line, "Not a statement")
	}
	return s
}

func (s *ExprStmt) Codegen(e *Emitter) {
	eff, ok := s.Expr.(effecter)
	if !ok {
		panic(errors.Internal("expression %s used as a statement", s.Expr))
	}
	eff.CodegenEffect(e)
}

// If is if (Cond) Then else Else; Else may be nil.
type If struct {
	stmtBase
	Cond Expression
	Then Statement
	Else Statement
}

func NewIf(line int, cond Expression, then, els Statement) *If {
	return &If{stmtBase: stmtBase{line: line}, Cond: cond, Then: then, Else: els}
}

func (s *If) String() string {
	if s.Else == nil {
		return fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
	}
	return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
}

func (s *If) Analyze(ctx *Context) Statement {
	s.Cond = analyzeCondition(ctx, s.Cond)
	s.Then = s.Then.Analyze(ctx)
	if s.Else != nil {
		s.Else = s.Else.Analyze(ctx)
	}
	return s
}

func (s *If) Codegen(e *Emitter) {
	elseLabel := e.NewLabel()
	endLabel := e.NewLabel()

	codegenBranch(e, s.Cond, elseLabel, false)
	s.Then.Codegen(e)
	if s.Else != nil {
		e.EmitBranch(codegen.GOTO, endLabel)
	}
	e.PlaceLabel(elseLabel)
	if s.Else != nil {
		s.Else.Codegen(e)
	}
	e.PlaceLabel(endLabel)
}

// analyzeCondition analyzes a statement test, which must be boolean.
func analyzeCondition(ctx *Context, cond Expression) Expression {
	cond = cond.Analyze(ctx)
	cond.Type().MustMatchExpected(ctx, cond.Line(), types.Boolean)
	return cond
}

// Return leaves the method, with a Value unless the method returns void.
type Return struct {
	stmtBase
	Value Expression
	// temp holds the value while pending finally blocks run; -1 when none.
	temp int
}

func NewReturn(line int, value Expression) *Return {
	return &Return{stmtBase: stmtBase{line: line}, Value: value, temp: -1}
}

func (r *Return) String() string {
	if r.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", r.Value)
}

func (r *Return) Analyze(ctx *Context) Statement {
	rt := ctx.ReturnType()
	r.temp = -1
	if r.Value == nil {
		if rt != types.Void {
			ctx.Report(r.line, "Missing return value; method must return %s", rt)
		}
		return r
	}

	r.Value = r.Value.Analyze(ctx)
	if rt == types.Void {
		ctx.Report(r.line, "Cannot return a value from a method with void return type")
		return r
	}
	mustConvert(ctx, r.line, r.Value.Type(), rt)
	if ctx.InFinally() {
		r.temp = ctx.AllocSlot(rt)
	}
	return r
}

// Codegen runs every pending finally block before returning. A value is
// computed first and parked in a temporary so the finally code cannot
// disturb it.
func (r *Return) Codegen(e *Emitter) {
	if r.Value == nil {
		e.inlineFinally(0)
		e.Emit(codegen.RETURN)
		return
	}

	typ := mustType(r.Value, "return")
	r.Value.Codegen(e)
	if len(e.finally) == 0 {
		e.Return(typ)
		return
	}
	if r.temp < 0 {
		panic(errors.Internal("return at line %d inside finally region has no temporary", r.line))
	}
	e.Store(typ, r.temp)
	e.inlineFinally(0)
	e.Load(typ, r.temp)
	e.Return(typ)
}

// Break leaves the innermost loop or switch.
type Break struct {
	stmtBase
}

func NewBreak(line int) *Break {
	return &Break{stmtBase: stmtBase{line: line}}
}

func (b *Break) String() string { return "break;" }

func (b *Break) Analyze(ctx *Context) Statement {
	if !ctx.InBreakable() {
		ctx.Report(b.line, "break outside switch or loop")
	}
	return b
}

func (b *Break) Codegen(e *Emitter) {
	t, ok := e.breakTarget()
	if !ok {
		panic(errors.Internal("break at line %d has no target", b.line))
	}
	e.inlineFinally(t.finallyDepth)
	e.EmitBranch(codegen.GOTO, t.breakLabel)
}

// Continue skips to the next iteration of the innermost loop.
type Continue struct {
	stmtBase
}

func NewContinue(line int) *Continue {
	return &Continue{stmtBase: stmtBase{line: line}}
}

func (c *Continue) String() string { return "continue;" }

func (c *Continue) Analyze(ctx *Context) Statement {
	if !ctx.InLoop() {
		ctx.Report(c.line, "continue outside of loop")
	}
	return c
}

func (c *Continue) Codegen(e *Emitter) {
	t, ok := e.continueTarget()
	if !ok {
		panic(errors.Internal("continue at line %d has no target", c.line))
	}
	e.inlineFinally(t.finallyDepth)
	e.EmitBranch(codegen.GOTO, t.continueLabel)
}
