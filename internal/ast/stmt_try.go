package ast

import (
	"fmt"
	"strings"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/types"
)

// CatchClause is catch (TypeName Name) Body.
type CatchClause struct {
	Line     int
	TypeName string
	Name     string
	Body     *Block

	typ   *types.Type
	local *LocalVariable
}

func NewCatchClause(line int, typeName, name string, body *Block) *CatchClause {
	return &CatchClause{Line: line, TypeName: typeName, Name: name, Body: body}
}

// Type returns the resolved exception type after analysis.
func (c *CatchClause) Type() *types.Type { return c.typ }

func (c *CatchClause) String() string {
	return fmt.Sprintf("catch (%s %s) %s", c.TypeName, c.Name, c.Body)
}

func (c *CatchClause) analyze(ctx *Context) {
	ctx.PushScope()
	defer ctx.PopScope()

	c.typ = ctx.ResolveType(c.Line, c.TypeName)
	if !c.typ.IsAny() && !c.typ.IsThrowable() {
		ctx.Report(c.Line, "Catch parameter must be an exception type, found: %s", c.typ)
		c.typ = types.Any
	}
	c.local = ctx.Declare(c.Line, c.Name, c.typ)
	c.Body = c.Body.Analyze(ctx).(*Block)
}

// Try is try Body, zero or more catch clauses and an optional finally block.
type Try struct {
	stmtBase
	Body    *Block
	Catches []*CatchClause
	Finally *Block

	pending int // holds the exception while the finally block runs on unwind
}

func NewTry(line int, body *Block, catches []*CatchClause, finally *Block) *Try {
	return &Try{stmtBase: stmtBase{line: line}, Body: body, Catches: catches, Finally: finally}
}

func (t *Try) String() string {
	var out strings.Builder
	fmt.Fprintf(&out, "try %s", t.Body)
	for _, c := range t.Catches {
		out.WriteByte(' ')
		out.WriteString(c.String())
	}
	if t.Finally != nil {
		fmt.Fprintf(&out, " finally %s", t.Finally)
	}
	return out.String()
}

func (t *Try) Analyze(ctx *Context) Statement {
	if len(t.Catches) == 0 && t.Finally == nil {
		ctx.Report(t.line, "'try' without 'catch' or 'finally'")
	}

	if t.Finally != nil {
		ctx.enterFinally()
	}
	t.Body = t.Body.Analyze(ctx).(*Block)
	for _, c := range t.Catches {
		c.analyze(ctx)
	}
	if t.Finally != nil {
		ctx.exitFinally()
		t.pending = ctx.AllocSlot(throwableType)
		t.Finally = t.Finally.Analyze(ctx).(*Block)
	}
	return t
}

var throwableType, _ = types.Lookup("Throwable")

// Codegen lays out the try block, the catch blocks, the unwinding copy of
// the finally block and then the normal finally block. Exception-table
// entries go to the emitter's side list: one per catch clause over the try
// block and, with a finally block, catch-all entries over the try block and
// each catch block. Copies of finally blocks made by return, break and
// continue are left out of all of them.
func (t *Try) Codegen(e *Emitter) {
	e.openTry()
	defer e.closeTry()

	after := e.NewLabel()
	exit := after
	var finallyLabel codegen.Label
	if t.Finally != nil {
		finallyLabel = e.NewLabel()
		exit = finallyLabel
		e.pushFinally(t.Finally)
	}

	body := e.mark()
	t.Body.Codegen(e)
	e.close(&body)
	e.EmitBranch(codegen.GOTO, exit)

	var catchRegions []span
	for _, c := range t.Catches {
		handler := e.mark()
		e.Store(c.typ, c.local.Slot)
		c.Body.Codegen(e)
		e.close(&handler)
		e.EmitBranch(codegen.GOTO, exit)

		e.guard(body, handler.start, c.typ.JVMName())
		catchRegions = append(catchRegions, handler)
	}

	if t.Finally != nil {
		e.popFinally()

		unwind := e.NewLabel()
		e.guard(body, unwind, "")
		for _, r := range catchRegions {
			e.guard(r, unwind, "")
		}
		e.PlaceLabel(unwind)
		e.Store(throwableType, t.pending)
		t.Finally.Codegen(e)
		e.Load(throwableType, t.pending)
		e.Emit(codegen.ATHROW)

		e.PlaceLabel(finallyLabel)
		t.Finally.Codegen(e)
	}
	e.PlaceLabel(after)
}

// Throw raises an exception value.
type Throw struct {
	stmtBase
	Value Expression
}

func NewThrow(line int, value Expression) *Throw {
	return &Throw{stmtBase: stmtBase{line: line}, Value: value}
}

func (t *Throw) String() string { return fmt.Sprintf("throw %s;", t.Value) }

func (t *Throw) Analyze(ctx *Context) Statement {
	t.Value = t.Value.Analyze(ctx)
	if vt := t.Value.Type(); !vt.IsAny() && !vt.IsThrowable() {
		ctx.Report(t.line, "Expression in a throw statement must be an exception type, found: %s", vt)
	}
	return t
}

func (t *Throw) Codegen(e *Emitter) {
	mustType(t.Value, "throw")
	t.Value.Codegen(e)
	e.Emit(codegen.ATHROW)
}
