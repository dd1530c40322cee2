// Package ast defines the j-- syntax tree and its two passes.
//
// Analyze resolves names and types and returns the node that should take
// the analyzed node's place: usually the node itself, sometimes a rewrite
// (an addition with a String operand becomes a StringConcat). Callers must
// always keep the returned node.
//
// Codegen emits the analyzed node into an Emitter in program order. It is
// only valid on a tree whose analysis reported no errors; a node typed Any
// reaching Codegen panics with an *errors.StandardError.
package ast

import (
	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/types"
)

// Node is the base interface for all syntax tree nodes.
type Node interface {
	// Line returns the source line the node starts on.
	Line() int
	// String renders the node in source form.
	String() string
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	// Type returns the resolved type, or nil before analysis.
	Type() *types.Type
	Analyze(ctx *Context) Expression
	Codegen(e *Emitter)
	expressionNode()
}

// Statement is a node executed for its effect.
type Statement interface {
	Node
	Analyze(ctx *Context) Statement
	Codegen(e *Emitter)
	statementNode()
}

// brancher is implemented by boolean expressions that can jump on their
// outcome directly instead of materialising 0 or 1 first.
type brancher interface {
	CodegenBranch(e *Emitter, target codegen.Label, onTrue bool)
}

// effecter is implemented by expressions that are valid as statements and
// can be generated without leaving a value on the stack.
type effecter interface {
	CodegenEffect(e *Emitter)
}

type exprBase struct {
	line int
	typ  *types.Type
}

func (b *exprBase) Line() int { return b.line }

func (b *exprBase) Type() *types.Type { return b.typ }

func (b *exprBase) expressionNode() {}

type stmtBase struct {
	line int
}

func (b *stmtBase) Line() int { return b.line }

func (b *stmtBase) statementNode() {}
