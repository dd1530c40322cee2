package ast

import (
	"github.com/jmm-lang/jmmc/internal/diagnostic"
	"github.com/jmm-lang/jmmc/internal/types"
)

// LocalVariable is a named local bound to a slot of the method frame.
type LocalVariable struct {
	Name string
	Type *types.Type
	Slot int
	Line int
}

// Scope represents a lexical scope containing local variables.
type Scope struct {
	Parent    *Scope
	Variables map[string]*LocalVariable
}

// NewScope creates a new scope with an optional parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		Parent:    parent,
		Variables: make(map[string]*LocalVariable),
	}
}

// Lookup finds a variable in the current scope or any parent scope.
func (s *Scope) Lookup(name string) *LocalVariable {
	if v, ok := s.Variables[name]; ok {
		return v
	}
	if s.Parent != nil {
		return s.Parent.Lookup(name)
	}
	return nil
}

// Context is the state threaded through analysis of one method body: the
// diagnostic reporter, the scope chain, the frame layout and what jumps are
// currently legal.
//
// Slots are never reused within a method, so a slot handed out for an
// exception or a loop counter stays valid across nested regions.
type Context struct {
	reporter   diagnostic.Reporter
	scope      *Scope
	nextSlot   int
	returnType *types.Type

	loops        int // enclosing loops
	breakables   int // enclosing loops and switches
	finallyDepth int // enclosing try statements with a finally block
	errors       int
}

// NewContext creates a context for a method returning returnType.
func NewContext(reporter diagnostic.Reporter, returnType *types.Type) *Context {
	if returnType == nil {
		returnType = types.Void
	}
	return &Context{
		reporter:   reporter,
		scope:      NewScope(nil),
		returnType: returnType,
	}
}

// Report records a semantic error. It never stops analysis.
func (c *Context) Report(line int, format string, args ...interface{}) {
	c.errors++
	if c.reporter != nil {
		c.reporter.Report(line, format, args...)
	}
}

// Reporter exposes Report as a diagnostic.Reporter.
func (c *Context) Reporter() diagnostic.Reporter { return contextReporter{c} }

type contextReporter struct{ c *Context }

func (r contextReporter) Report(line int, format string, args ...interface{}) {
	r.c.Report(line, format, args...)
}

// ErrorCount returns the number of errors reported through this context.
func (c *Context) ErrorCount() int { return c.errors }

// ReturnType returns the declared return type of the method.
func (c *Context) ReturnType() *types.Type { return c.returnType }

// PushScope opens a nested scope.
func (c *Context) PushScope() {
	c.scope = NewScope(c.scope)
}

// PopScope closes the innermost scope.
func (c *Context) PopScope() {
	if c.scope.Parent != nil {
		c.scope = c.scope.Parent
	}
}

// Declare binds name to a fresh slot in the innermost scope. A name that is
// already visible is reported; the new binding still shadows it so later
// uses resolve consistently.
func (c *Context) Declare(line int, name string, typ *types.Type) *LocalVariable {
	if prev := c.scope.Lookup(name); prev != nil {
		c.Report(line, "Variable %s is already defined in this method", name)
	}
	v := &LocalVariable{Name: name, Type: typ, Slot: c.AllocSlot(typ), Line: line}
	c.scope.Variables[name] = v
	return v
}

// Lookup resolves a local variable by name.
func (c *Context) Lookup(name string) *LocalVariable {
	return c.scope.Lookup(name)
}

// AllocSlot reserves an anonymous slot large enough for typ.
func (c *Context) AllocSlot(typ *types.Type) int {
	slot := c.nextSlot
	size := 1
	if typ != nil && typ.Slots() > 1 {
		size = typ.Slots()
	}
	c.nextSlot += size
	return slot
}

// MaxLocals returns the number of slots the method frame needs.
func (c *Context) MaxLocals() int { return c.nextSlot }

// ResolveType resolves a type name, reporting unknown names. The result is
// Any when the name does not resolve.
func (c *Context) ResolveType(line int, name string) *types.Type {
	t, ok := types.Lookup(name)
	if !ok {
		c.Report(line, "Unknown type: %s", name)
		return types.Any
	}
	return t
}

// InLoop reports whether continue is legal here.
func (c *Context) InLoop() bool { return c.loops > 0 }

// InBreakable reports whether break is legal here.
func (c *Context) InBreakable() bool { return c.breakables > 0 }

// InFinally reports whether control leaving from here must run a finally
// block first.
func (c *Context) InFinally() bool { return c.finallyDepth > 0 }

func (c *Context) enterLoop() {
	c.loops++
	c.breakables++
}

func (c *Context) exitLoop() {
	c.loops--
	c.breakables--
}

func (c *Context) enterSwitch() { c.breakables++ }

func (c *Context) exitSwitch() { c.breakables-- }

func (c *Context) enterFinally() { c.finallyDepth++ }

func (c *Context) exitFinally() { c.finallyDepth-- }
