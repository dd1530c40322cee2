package ast

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/errors"
	"github.com/jmm-lang/jmmc/internal/types"
)

type report struct {
	line    int
	message string
}

type recordingReporter struct {
	reports []report
}

func (r *recordingReporter) Report(line int, format string, args ...interface{}) {
	r.reports = append(r.reports, report{line: line, message: fmt.Sprintf(format, args...)})
}

func (r *recordingReporter) messages() []string {
	out := make([]string, len(r.reports))
	for i, rep := range r.reports {
		out[i] = rep.message
	}
	return out
}

type param struct {
	name string
	typ  *types.Type
}

// newContext declares params in order, so they take slots 0, 1, ...
func newContext(returnType *types.Type, params ...param) (*Context, *recordingReporter) {
	rep := &recordingReporter{}
	ctx := NewContext(rep, returnType)
	for _, p := range params {
		ctx.Declare(0, p.name, p.typ)
	}
	return ctx, rep
}

func analyzeExpr(expr Expression, params ...param) (Expression, *recordingReporter) {
	ctx, rep := newContext(types.Void, params...)
	return expr.Analyze(ctx), rep
}

func intLit(text string) *IntLiteral { return NewIntLiteral(1, text) }

func strLit(s string) *StringLiteral { return NewStringLiteral(1, `"`+s+`"`) }

func ident(name string) *Variable { return NewVariable(1, name) }

// generate emits body followed by a void return and assembles it.
func generate(t *testing.T, ctx *Context, body Statement) *codegen.Code {
	t.Helper()
	asm := codegen.NewAssembler("test", "()V")
	asm.ReserveLocals(ctx.MaxLocals())
	e := NewEmitter(asm)
	body.Codegen(e)
	if ctx.ReturnType() == types.Void {
		e.Emit(codegen.RETURN)
	}
	e.Flush()
	code, err := asm.Assemble()
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return code
}

func opcodes(code *codegen.Code) []codegen.Opcode {
	ops := make([]codegen.Opcode, len(code.Instructions))
	for i, ins := range code.Instructions {
		ops[i] = ins.Op
	}
	return ops
}

func checkOpcodes(t *testing.T, code *codegen.Code, expected []codegen.Opcode) {
	t.Helper()
	got := opcodes(code)
	if len(got) != len(expected) {
		t.Fatalf("wrong instruction count. expected=%d, got=%d\n%s", len(expected), len(got), code.Listing())
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("instruction %d wrong. expected=%s, got=%s\n%s", i, expected[i], got[i], code.Listing())
		}
	}
}

// capturePanic runs fn and returns the StandardError it panicked with.
func capturePanic(t *testing.T, fn func()) (se *errors.StandardError) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic")
		}
		err, ok := r.(error)
		if !ok || !stderrors.As(err, &se) {
			t.Fatalf("panic value is not a StandardError: %v", r)
		}
	}()
	fn()
	return nil
}
