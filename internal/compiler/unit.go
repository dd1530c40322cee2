// Package compiler drives the analysis and code generation of compilation
// units. A parser builds Methods out of ast nodes; a Unit analyzes them all,
// and only when no error was recorded generates and assembles their code.
package compiler

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmm-lang/jmmc/internal/ast"
	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/diagnostic"
	"github.com/jmm-lang/jmmc/internal/errors"
	"github.com/jmm-lang/jmmc/internal/position"
	"github.com/jmm-lang/jmmc/internal/types"
)

// ErrHasErrors is returned by Generate when analysis recorded errors.
var ErrHasErrors = stderrors.New("compilation unit has errors")

// Param is a method parameter as written in source.
type Param struct {
	Name     string
	TypeName string
}

// Method is one method declaration: its signature and body.
type Method struct {
	Line       int
	Name       string
	Params     []Param
	ReturnType string
	Body       *ast.Block

	returnType *types.Type
	paramTypes []*types.Type
	ctx        *ast.Context
}

// NewMethod creates a method declaration.
func NewMethod(line int, name, returnType string, params []Param, body *ast.Block) *Method {
	return &Method{Line: line, Name: name, Params: params, ReturnType: returnType, Body: body}
}

// Descriptor returns the method descriptor, valid after analysis.
func (m *Method) Descriptor() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, t := range m.paramTypes {
		b.WriteString(t.Descriptor())
	}
	b.WriteByte(')')
	b.WriteString(m.returnType.Descriptor())
	return b.String()
}

func (m *Method) analyze(reporter diagnostic.Reporter) {
	ret, ok := types.Lookup(m.ReturnType)
	if !ok {
		reporter.Report(m.Line, "Unknown type: %s", m.ReturnType)
		ret = types.Any
	}
	m.returnType = ret

	m.ctx = ast.NewContext(reporter, ret)
	m.paramTypes = m.paramTypes[:0]
	for _, p := range m.Params {
		typ := m.ctx.ResolveType(m.Line, p.TypeName)
		if typ == types.Void {
			m.ctx.Report(m.Line, "Variable %s cannot have type void", p.Name)
			typ = types.Any
		}
		m.ctx.Declare(m.Line, p.Name, typ)
		m.paramTypes = append(m.paramTypes, typ)
	}

	if m.Body != nil {
		m.Body = m.Body.Analyze(m.ctx).(*ast.Block)
	}
}

func (m *Method) generate(major int) (code *codegen.Code, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*errors.StandardError)
			if !ok {
				panic(r)
			}
			code, err = nil, fmt.Errorf("method %s: %w", m.Name, se)
		}
	}()

	a := codegen.NewAssembler(m.Name, m.Descriptor())
	a.SetMajor(major)
	a.ReserveLocals(m.ctx.MaxLocals())

	e := ast.NewEmitter(a)
	if m.Body != nil {
		m.Body.Codegen(e)
	}
	if m.returnType == types.Void {
		e.Emit(codegen.RETURN)
	}
	e.Flush()

	code, err = a.Assemble()
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}
	return code, nil
}

// Unit is one compilation unit: a source file and its methods.
type Unit struct {
	File        *position.SourceFile
	Methods     []*Method
	Target      Target
	Diagnostics *diagnostic.DiagnosticEngine

	analyzed bool
}

// NewUnit creates a unit for filename. source is only used to show the
// offending line under diagnostics and may be empty.
func NewUnit(filename, source string, target Target, config diagnostic.DiagnosticConfig) *Unit {
	file := position.NewSourceFile(filename, source)
	return &Unit{
		File:        file,
		Target:      target,
		Diagnostics: diagnostic.NewDiagnosticEngine(file, config),
	}
}

// Add appends methods to the unit.
func (u *Unit) Add(methods ...*Method) {
	u.Methods = append(u.Methods, methods...)
	u.analyzed = false
}

// Analyze type checks every method, recording problems as semantic
// diagnostics. It reports whether the unit is free of errors.
func (u *Unit) Analyze() bool {
	reporter := u.Diagnostics.Reporter(diagnostic.DiagnosticSemantic)
	seen := make(map[string]bool)
	for _, m := range u.Methods {
		m.analyze(reporter)
		sig := m.Name + m.Descriptor()
		if seen[sig] {
			reporter.Report(m.Line, "Method %s is already defined", m.Name)
		}
		seen[sig] = true
	}
	u.analyzed = true
	return !u.Diagnostics.HasErrors()
}

// Generate produces the code of every method. It refuses to run when any
// diagnostic error was recorded, lexical or semantic.
func (u *Unit) Generate() ([]*codegen.Code, error) {
	if !u.analyzed {
		u.Analyze()
	}
	if u.Diagnostics.HasErrors() {
		return nil, fmt.Errorf("%s: %w", u.File.Filename, ErrHasErrors)
	}

	codes := make([]*codegen.Code, 0, len(u.Methods))
	for _, m := range u.Methods {
		code, err := m.generate(u.Target.Major)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.File.Filename, err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// Dump writes the analyzed tree of every method, one node per line with
// its source line and, for expressions, its resolved type.
func (u *Unit) Dump(w io.Writer) {
	if !u.analyzed {
		u.Analyze()
	}
	for _, m := range u.Methods {
		fmt.Fprintf(w, "%s%s\n", m.Name, m.Descriptor())
		depth := 1
		walker := &ast.WalkVisitor{
			PreVisit: func(n ast.Node) bool {
				kind := strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
				fmt.Fprintf(w, "%s%s %d", strings.Repeat("  ", depth), kind, n.Line())
				if x, ok := n.(ast.Expression); ok {
					if t := x.Type(); t != nil {
						fmt.Fprintf(w, " %s", t)
					}
				}
				fmt.Fprintln(w)
				depth++
				return true
			},
			PostVisit: func(ast.Node) { depth-- },
		}
		if m.Body != nil {
			walker.Walk(m.Body)
		}
	}
}

// Compile analyzes and generates in one step.
func (u *Unit) Compile() ([]*codegen.Code, error) {
	u.Analyze()
	return u.Generate()
}
