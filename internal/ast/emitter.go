package ast

import (
	"math"
	"sort"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/errors"
	"github.com/jmm-lang/jmmc/internal/types"
)

// jumpTarget is where break and continue go inside one loop or switch.
type jumpTarget struct {
	breakLabel    codegen.Label
	continueLabel codegen.Label
	isLoop        bool
	finallyDepth  int // len(finally) when the target was entered
}

// Emitter wraps a Sink for one method body. Exception handlers are collected
// on a side list while the instruction stream is emitted and handed to the
// sink by Flush, after the last instruction.
type Emitter struct {
	sink     codegen.Sink
	count    int
	handlers []codegen.Handler

	jumps   []jumpTarget
	finally []pendingFinally // finally blocks protecting the current position
	tries   []*tryRegion     // try statements being emitted, outermost first
}

type pendingFinally struct {
	block Statement
	try   int // index in tries of the statement owning block
}

// span is a range of emitted instructions bounded by two labels.
type span struct {
	start, end codegen.Label
	from, to   int
}

// tryRegion collects the spans inside one try statement that hold copies of
// a finally block run on the way out. Handlers of the statement must not
// cover them: an exception raised there leaves the whole statement.
type tryRegion struct {
	gaps []span
}

// NewEmitter creates an emitter writing to sink.
func NewEmitter(sink codegen.Sink) *Emitter {
	return &Emitter{sink: sink}
}

// Len returns the number of instructions emitted so far.
func (e *Emitter) Len() int { return e.count }

// NewLabel mints a label from the sink.
func (e *Emitter) NewLabel() codegen.Label { return e.sink.NewLabel() }

// PlaceLabel binds l to the next instruction.
func (e *Emitter) PlaceLabel(l codegen.Label) { e.sink.PlaceLabel(l) }

func (e *Emitter) Emit(op codegen.Opcode) {
	e.count++
	e.sink.Emit(op)
}

func (e *Emitter) EmitOperand(op codegen.Opcode, operand int) {
	e.count++
	e.sink.EmitOperand(op, operand)
}

func (e *Emitter) EmitBranch(op codegen.Opcode, target codegen.Label) {
	e.count++
	e.sink.EmitBranch(op, target)
}

func (e *Emitter) EmitConstant(value interface{}) {
	e.count++
	e.sink.EmitConstant(value)
}

func (e *Emitter) EmitMember(op codegen.Opcode, owner, name, descriptor string) {
	e.count++
	e.sink.EmitMember(op, owner, name, descriptor)
}

func (e *Emitter) EmitClass(op codegen.Opcode, class string) {
	e.count++
	e.sink.EmitClass(op, class)
}

func (e *Emitter) EmitIInc(slot, delta int) {
	e.count++
	e.sink.EmitIInc(slot, delta)
}

// AddHandler queues an exception-table entry.
func (e *Emitter) AddHandler(h codegen.Handler) {
	e.handlers = append(e.handlers, h)
}

// Flush registers the queued handlers with the sink in the order they were
// added: inner try statements before the ones enclosing them.
func (e *Emitter) Flush() {
	for _, h := range e.handlers {
		e.sink.RegisterHandler(h)
	}
	e.handlers = nil
}

func (e *Emitter) pushJump(t jumpTarget) {
	t.finallyDepth = len(e.finally)
	e.jumps = append(e.jumps, t)
}

func (e *Emitter) popJump() {
	e.jumps = e.jumps[:len(e.jumps)-1]
}

// mark starts a span at the next instruction.
func (e *Emitter) mark() span {
	s := span{start: e.NewLabel(), end: e.NewLabel(), from: e.Len()}
	e.PlaceLabel(s.start)
	return s
}

// close ends s after the last emitted instruction.
func (e *Emitter) close(s *span) {
	e.PlaceLabel(s.end)
	s.to = e.Len()
}

func (e *Emitter) openTry() {
	e.tries = append(e.tries, &tryRegion{})
}

func (e *Emitter) closeTry() {
	e.tries = e.tries[:len(e.tries)-1]
}

// pushFinally protects the current position with block, owned by the
// innermost open try statement.
func (e *Emitter) pushFinally(block Statement) {
	e.finally = append(e.finally, pendingFinally{block: block, try: len(e.tries) - 1})
}

func (e *Emitter) popFinally() {
	e.finally = e.finally[:len(e.finally)-1]
}

// breakTarget returns the innermost loop or switch.
func (e *Emitter) breakTarget() (jumpTarget, bool) {
	if len(e.jumps) == 0 {
		return jumpTarget{}, false
	}
	return e.jumps[len(e.jumps)-1], true
}

// continueTarget returns the innermost loop.
func (e *Emitter) continueTarget() (jumpTarget, bool) {
	for i := len(e.jumps) - 1; i >= 0; i-- {
		if e.jumps[i].isLoop {
			return e.jumps[i], true
		}
	}
	return jumpTarget{}, false
}

// inlineFinally emits the finally blocks between the current position and
// depth, innermost first, as control leaves their try statements. Each block
// is emitted with only the blocks outside it still pending.
//
// Every copy is recorded as a gap in the owning try statement and in the
// ones nested inside it.
func (e *Emitter) inlineFinally(depth int) {
	saved := e.finally
	for i := len(saved) - 1; i >= depth; i-- {
		e.finally = saved[:i]
		gap := e.mark()
		saved[i].block.Codegen(e)
		e.close(&gap)
		if gap.to > gap.from {
			for _, r := range e.tries[saved[i].try:] {
				r.gaps = append(r.gaps, gap)
			}
		}
	}
	e.finally = saved
}

// guard queues handlers sending exceptions raised in region to target,
// leaving out the gaps of the innermost open try statement. A region that
// emitted nothing gets no handler.
func (e *Emitter) guard(region span, target codegen.Label, exception string) {
	gaps := append([]span(nil), e.tries[len(e.tries)-1].gaps...)
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].from < gaps[j].from })

	from, start := region.from, region.start
	for _, g := range gaps {
		if g.to <= from || g.from >= region.to {
			continue
		}
		if g.from > from {
			e.AddHandler(codegen.Handler{Start: start, End: g.start, Target: target, Exception: exception})
		}
		from, start = g.to, g.end
	}
	if region.to > from {
		e.AddHandler(codegen.Handler{Start: start, End: region.end, Target: target, Exception: exception})
	}
}

// PushInt pushes an int constant with the shortest instruction.
func (e *Emitter) PushInt(v int32) {
	switch {
	case v >= -1 && v <= 5:
		e.Emit(codegen.ICONST_0 + codegen.Opcode(v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		e.EmitOperand(codegen.BIPUSH, int(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		e.EmitOperand(codegen.SIPUSH, int(v))
	default:
		e.EmitConstant(v)
	}
}

// Load pushes the local in slot.
func (e *Emitter) Load(typ *types.Type, slot int) {
	e.EmitOperand(byKind(typ, "load", codegen.ILOAD, codegen.LLOAD, codegen.FLOAD, codegen.DLOAD, codegen.ALOAD), slot)
}

// Store pops the stack top into slot.
func (e *Emitter) Store(typ *types.Type, slot int) {
	e.EmitOperand(byKind(typ, "store", codegen.ISTORE, codegen.LSTORE, codegen.FSTORE, codegen.DSTORE, codegen.ASTORE), slot)
}

// ArrayLoad loads an element of an array of elem.
func (e *Emitter) ArrayLoad(elem *types.Type) {
	switch elem.Kind() {
	case types.TypeKindBoolean:
		e.Emit(codegen.BALOAD)
	case types.TypeKindChar:
		e.Emit(codegen.CALOAD)
	default:
		e.Emit(byKind(elem, "array load", codegen.IALOAD, codegen.LALOAD, codegen.FALOAD, codegen.DALOAD, codegen.AALOAD))
	}
}

// ArrayStore stores into an element of an array of elem.
func (e *Emitter) ArrayStore(elem *types.Type) {
	switch elem.Kind() {
	case types.TypeKindBoolean:
		e.Emit(codegen.BASTORE)
	case types.TypeKindChar:
		e.Emit(codegen.CASTORE)
	default:
		e.Emit(byKind(elem, "array store", codegen.IASTORE, codegen.LASTORE, codegen.FASTORE, codegen.DASTORE, codegen.AASTORE))
	}
}

// Return returns a value of typ, or nothing for void.
func (e *Emitter) Return(typ *types.Type) {
	if typ.Kind() == types.TypeKindVoid {
		e.Emit(codegen.RETURN)
		return
	}
	e.Emit(byKind(typ, "return", codegen.IRETURN, codegen.LRETURN, codegen.FRETURN, codegen.DRETURN, codegen.ARETURN))
}

// Dup duplicates a value of typ.
func (e *Emitter) Dup(typ *types.Type) {
	if typ.Slots() == 2 {
		e.Emit(codegen.DUP2)
		return
	}
	e.Emit(codegen.DUP)
}

// DupX1 duplicates a value of typ below one stack word, as needed when the
// value is also stored back through an object reference.
func (e *Emitter) DupX1(typ *types.Type) {
	if typ.Slots() == 2 {
		e.Emit(codegen.DUP2_X1)
		return
	}
	e.Emit(codegen.DUP_X1)
}

// DupX2 duplicates a value of typ below two stack words, as needed when the
// value is also stored into an array element.
func (e *Emitter) DupX2(typ *types.Type) {
	if typ.Slots() == 2 {
		e.Emit(codegen.DUP2_X2)
		return
	}
	e.Emit(codegen.DUP_X2)
}

// Pop discards a value of typ.
func (e *Emitter) Pop(typ *types.Type) {
	switch typ.Slots() {
	case 0:
	case 2:
		e.Emit(codegen.POP2)
	default:
		e.Emit(codegen.POP)
	}
}

// Widen converts the stack top from one numeric type to a wider one.
func (e *Emitter) Widen(from, to *types.Type) {
	if from.Equals(to) || !from.IsNumeric() || !to.IsNumeric() {
		return
	}
	switch from.Kind() {
	case types.TypeKindInt:
		switch to.Kind() {
		case types.TypeKindLong:
			e.Emit(codegen.I2L)
		case types.TypeKindFloat:
			e.Emit(codegen.I2F)
		case types.TypeKindDouble:
			e.Emit(codegen.I2D)
		}
	case types.TypeKindLong:
		switch to.Kind() {
		case types.TypeKindFloat:
			e.Emit(codegen.L2F)
		case types.TypeKindDouble:
			e.Emit(codegen.L2D)
		}
	case types.TypeKindFloat:
		if to.Kind() == types.TypeKindDouble {
			e.Emit(codegen.F2D)
		}
	}
}

// byKind selects the int, long, float, double or reference variant of an
// instruction family. Any other type is an internal error.
func byKind(typ *types.Type, operation string, i, l, f, d, a codegen.Opcode) codegen.Opcode {
	if typ == nil {
		panic(errors.Internal("%s on an unanalyzed node", operation))
	}
	switch typ.Kind() {
	case types.TypeKindInt, types.TypeKindBoolean, types.TypeKindChar:
		return i
	case types.TypeKindLong:
		return l
	case types.TypeKindFloat:
		return f
	case types.TypeKindDouble:
		return d
	case types.TypeKindString, types.TypeKindArray, types.TypeKindReference, types.TypeKindNull:
		return a
	}
	panic(errors.UnsupportedType(operation, typ))
}

// mustType returns the resolved type of x, panicking when analysis left it
// unset or Any.
func mustType(x Expression, operation string) *types.Type {
	t := x.Type()
	if t == nil || t.IsAny() {
		panic(errors.UnsupportedType(operation, t))
	}
	return t
}
