package ast

import (
	"fmt"
	"strings"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/types"
)

// While is a pretest loop.
type While struct {
	stmtBase
	Cond Expression
	Body Statement
}

func NewWhile(line int, cond Expression, body Statement) *While {
	return &While{stmtBase: stmtBase{line: line}, Cond: cond, Body: body}
}

func (w *While) String() string { return fmt.Sprintf("while (%s) %s", w.Cond, w.Body) }

func (w *While) Analyze(ctx *Context) Statement {
	ctx.PushScope()
	defer ctx.PopScope()
	w.Cond = analyzeCondition(ctx, w.Cond)
	ctx.enterLoop()
	w.Body = w.Body.Analyze(ctx)
	ctx.exitLoop()
	return w
}

func (w *While) Codegen(e *Emitter) {
	start := e.NewLabel()
	end := e.NewLabel()

	e.PlaceLabel(start)
	codegenBranch(e, w.Cond, end, false)
	e.pushJump(jumpTarget{breakLabel: end, continueLabel: start, isLoop: true})
	w.Body.Codegen(e)
	e.popJump()
	e.EmitBranch(codegen.GOTO, start)
	e.PlaceLabel(end)
}

// For is the classic three-part loop. Cond may be nil for an endless loop.
type For struct {
	stmtBase
	Init   []Statement
	Cond   Expression
	Update []Statement
	Body   Statement
}

func NewFor(line int, init []Statement, cond Expression, update []Statement, body Statement) *For {
	return &For{stmtBase: stmtBase{line: line}, Init: init, Cond: cond, Update: update, Body: body}
}

func (f *For) String() string {
	join := func(stmts []Statement) string {
		parts := make([]string, len(stmts))
		for i, s := range stmts {
			parts[i] = strings.TrimSuffix(s.String(), ";")
		}
		return strings.Join(parts, ", ")
	}
	cond := ""
	if f.Cond != nil {
		cond = f.Cond.String()
	}
	return fmt.Sprintf("for (%s; %s; %s) %s", join(f.Init), cond, join(f.Update), f.Body)
}

func (f *For) Analyze(ctx *Context) Statement {
	ctx.PushScope()
	defer ctx.PopScope()

	for i, s := range f.Init {
		f.Init[i] = s.Analyze(ctx)
	}
	if f.Cond != nil {
		f.Cond = analyzeCondition(ctx, f.Cond)
	}
	for i, s := range f.Update {
		f.Update[i] = s.Analyze(ctx)
	}
	ctx.enterLoop()
	f.Body = f.Body.Analyze(ctx)
	ctx.exitLoop()
	return f
}

func (f *For) Codegen(e *Emitter) {
	start := e.NewLabel()
	cont := e.NewLabel()
	end := e.NewLabel()

	for _, s := range f.Init {
		s.Codegen(e)
	}
	e.PlaceLabel(start)
	if f.Cond != nil {
		codegenBranch(e, f.Cond, end, false)
	}
	e.pushJump(jumpTarget{breakLabel: end, continueLabel: cont, isLoop: true})
	f.Body.Codegen(e)
	e.popJump()
	e.PlaceLabel(cont)
	for _, s := range f.Update {
		s.Codegen(e)
	}
	e.EmitBranch(codegen.GOTO, start)
	e.PlaceLabel(end)
}

// ForEach is the enhanced for loop over an array.
type ForEach struct {
	stmtBase
	TypeName string
	Name     string
	Iterable Expression
	Body     Statement

	local    *LocalVariable
	arrSlot  int
	idxSlot  int
	elemType *types.Type
}

func NewForEach(line int, typeName, name string, iterable Expression, body Statement) *ForEach {
	return &ForEach{stmtBase: stmtBase{line: line}, TypeName: typeName, Name: name, Iterable: iterable, Body: body}
}

func (f *ForEach) String() string {
	return fmt.Sprintf("for (%s %s : %s) %s", f.TypeName, f.Name, f.Iterable, f.Body)
}

func (f *ForEach) Analyze(ctx *Context) Statement {
	ctx.PushScope()
	defer ctx.PopScope()

	f.Iterable = f.Iterable.Analyze(ctx)
	varType := ctx.ResolveType(f.line, f.TypeName)
	it := f.Iterable.Type()
	f.elemType = types.Any
	switch {
	case it.IsAny():
	case !it.IsArray():
		ctx.Report(f.line, "Enhanced for can only iterate over an array, found: %s", it)
	default:
		f.elemType = it.Elem()
		mustConvert(ctx, f.line, f.elemType, varType)
	}

	f.arrSlot = ctx.AllocSlot(it)
	f.idxSlot = ctx.AllocSlot(types.Int)
	f.local = ctx.Declare(f.line, f.Name, varType)

	ctx.enterLoop()
	f.Body = f.Body.Analyze(ctx)
	ctx.exitLoop()
	return f
}

// Codegen lowers the loop to an index count over the array held in a
// hidden local.
func (f *ForEach) Codegen(e *Emitter) {
	arrType := mustType(f.Iterable, "enhanced for")
	start := e.NewLabel()
	cont := e.NewLabel()
	end := e.NewLabel()

	f.Iterable.Codegen(e)
	e.Store(arrType, f.arrSlot)
	e.Emit(codegen.ICONST_0)
	e.Store(types.Int, f.idxSlot)

	e.PlaceLabel(start)
	e.Load(types.Int, f.idxSlot)
	e.Load(arrType, f.arrSlot)
	e.Emit(codegen.ARRAYLENGTH)
	e.EmitBranch(codegen.IF_ICMPGE, end)

	e.Load(arrType, f.arrSlot)
	e.Load(types.Int, f.idxSlot)
	e.ArrayLoad(f.elemType)
	e.Widen(f.elemType, f.local.Type)
	e.Store(f.local.Type, f.local.Slot)

	e.pushJump(jumpTarget{breakLabel: end, continueLabel: cont, isLoop: true})
	f.Body.Codegen(e)
	e.popJump()

	e.PlaceLabel(cont)
	e.EmitIInc(f.idxSlot, 1)
	e.EmitBranch(codegen.GOTO, start)
	e.PlaceLabel(end)
}

// DoWhile runs Body, then repeats while Cond holds.
type DoWhile struct {
	stmtBase
	Body Statement
	Cond Expression
}

func NewDoWhile(line int, body Statement, cond Expression) *DoWhile {
	return &DoWhile{stmtBase: stmtBase{line: line}, Body: body, Cond: cond}
}

func (d *DoWhile) String() string { return fmt.Sprintf("do %s while (%s);", d.Body, d.Cond) }

func (d *DoWhile) Analyze(ctx *Context) Statement {
	analyzePostTest(ctx, &d.Body, &d.Cond)
	return d
}

func (d *DoWhile) Codegen(e *Emitter) {
	codegenPostTest(e, d.Body, d.Cond, true)
}

// DoUntil runs Body, then repeats until Cond holds.
type DoUntil struct {
	stmtBase
	Body Statement
	Cond Expression
}

func NewDoUntil(line int, body Statement, cond Expression) *DoUntil {
	return &DoUntil{stmtBase: stmtBase{line: line}, Body: body, Cond: cond}
}

func (d *DoUntil) String() string { return fmt.Sprintf("do %s until (%s);", d.Body, d.Cond) }

func (d *DoUntil) Analyze(ctx *Context) Statement {
	analyzePostTest(ctx, &d.Body, &d.Cond)
	return d
}

// Codegen branches back to the start while the condition is false.
func (d *DoUntil) Codegen(e *Emitter) {
	codegenPostTest(e, d.Body, d.Cond, false)
}

func analyzePostTest(ctx *Context, body *Statement, cond *Expression) {
	ctx.PushScope()
	defer ctx.PopScope()
	ctx.enterLoop()
	*body = (*body).Analyze(ctx)
	ctx.exitLoop()
	*cond = analyzeCondition(ctx, *cond)
}

// codegenPostTest emits body then a test that jumps back to the start when
// the condition evaluates to repeatOn.
func codegenPostTest(e *Emitter, body Statement, cond Expression, repeatOn bool) {
	start := e.NewLabel()
	cont := e.NewLabel()
	end := e.NewLabel()

	e.PlaceLabel(start)
	e.pushJump(jumpTarget{breakLabel: end, continueLabel: cont, isLoop: true})
	body.Codegen(e)
	e.popJump()
	e.PlaceLabel(cont)
	codegenBranch(e, cond, start, repeatOn)
	e.PlaceLabel(end)
}
