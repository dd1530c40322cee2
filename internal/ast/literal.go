package ast

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/lexer"
	"github.com/jmm-lang/jmmc/internal/types"
)

// IntLiteral is an int literal in decimal, hex (0x), binary (0b) or octal
// (leading 0) form, as scanned.
type IntLiteral struct {
	exprBase
	Text  string
	Value int32
}

func NewIntLiteral(line int, text string) *IntLiteral {
	return &IntLiteral{exprBase: exprBase{line: line}, Text: text}
}

func (l *IntLiteral) String() string { return l.Text }

func (l *IntLiteral) Analyze(ctx *Context) Expression {
	v, err := parseInteger(l.Text, 32)
	if err != nil {
		ctx.Report(l.line, "Integer number too large: %s", l.Text)
	}
	l.Value = int32(v)
	l.typ = types.Int
	return l
}

func (l *IntLiteral) Codegen(e *Emitter) {
	e.PushInt(l.Value)
}

// LongLiteral is a long literal; the l/L suffix is not part of Text.
type LongLiteral struct {
	exprBase
	Text  string
	Value int64
}

func NewLongLiteral(line int, text string) *LongLiteral {
	return &LongLiteral{exprBase: exprBase{line: line}, Text: text}
}

func (l *LongLiteral) String() string { return l.Text + "L" }

func (l *LongLiteral) Analyze(ctx *Context) Expression {
	v, err := parseInteger(l.Text, 64)
	if err != nil {
		ctx.Report(l.line, "Long number too large: %s", l.Text)
	}
	l.Value = v
	l.typ = types.Long
	return l
}

func (l *LongLiteral) Codegen(e *Emitter) {
	switch l.Value {
	case 0:
		e.Emit(codegen.LCONST_0)
	case 1:
		e.Emit(codegen.LCONST_1)
	default:
		e.EmitConstant(l.Value)
	}
}

// parseInteger parses an integer literal text into bits wide. Decimal
// literals must fit the signed range; hex, binary and octal literals may use
// every bit, so 0xFFFFFFFF is the int -1.
func parseInteger(text string, bits int) (int64, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "0x"):
		u, err := strconv.ParseUint(lower[2:], 16, bits)
		return signExtend(u, bits), err
	case strings.HasPrefix(lower, "0b"):
		u, err := strconv.ParseUint(lower[2:], 2, bits)
		return signExtend(u, bits), err
	case len(lower) > 1 && lower[0] == '0':
		u, err := strconv.ParseUint(lower[1:], 8, bits)
		return signExtend(u, bits), err
	default:
		return strconv.ParseInt(lower, 10, bits)
	}
}

func signExtend(u uint64, bits int) int64 {
	if bits == 32 {
		return int64(int32(uint32(u)))
	}
	return int64(u)
}

// FloatLiteral is a float literal; the f/F suffix is not part of Text.
type FloatLiteral struct {
	exprBase
	Text  string
	Value float32
}

func NewFloatLiteral(line int, text string) *FloatLiteral {
	return &FloatLiteral{exprBase: exprBase{line: line}, Text: text}
}

func (l *FloatLiteral) String() string { return l.Text + "f" }

func (l *FloatLiteral) Analyze(ctx *Context) Expression {
	v, err := strconv.ParseFloat(l.Text, 32)
	if err != nil {
		ctx.Report(l.line, "Malformed float literal: %s", l.Text)
	}
	l.Value = float32(v)
	l.typ = types.Float
	return l
}

func (l *FloatLiteral) Codegen(e *Emitter) {
	switch {
	case l.Value == 0 && !math.Signbit(float64(l.Value)):
		e.Emit(codegen.FCONST_0)
	case l.Value == 1:
		e.Emit(codegen.FCONST_1)
	case l.Value == 2:
		e.Emit(codegen.FCONST_2)
	default:
		e.EmitConstant(l.Value)
	}
}

// DoubleLiteral is a double literal; a d/D suffix is not part of Text.
type DoubleLiteral struct {
	exprBase
	Text  string
	Value float64
}

func NewDoubleLiteral(line int, text string) *DoubleLiteral {
	return &DoubleLiteral{exprBase: exprBase{line: line}, Text: text}
}

func (l *DoubleLiteral) String() string { return l.Text }

func (l *DoubleLiteral) Analyze(ctx *Context) Expression {
	v, err := strconv.ParseFloat(l.Text, 64)
	if err != nil {
		ctx.Report(l.line, "Malformed double literal: %s", l.Text)
	}
	l.Value = v
	l.typ = types.Double
	return l
}

func (l *DoubleLiteral) Codegen(e *Emitter) {
	switch {
	case l.Value == 0 && !math.Signbit(l.Value):
		e.Emit(codegen.DCONST_0)
	case l.Value == 1:
		e.Emit(codegen.DCONST_1)
	default:
		e.EmitConstant(l.Value)
	}
}

// CharLiteral is a char literal; Text keeps the quotes and escape spelling.
type CharLiteral struct {
	exprBase
	Text  string
	Value rune
}

func NewCharLiteral(line int, text string) *CharLiteral {
	return &CharLiteral{exprBase: exprBase{line: line}, Text: text}
}

func (l *CharLiteral) String() string { return l.Text }

func (l *CharLiteral) Analyze(ctx *Context) Expression {
	s, err := lexer.Unescape(l.Text)
	r, size := utf8.DecodeRuneInString(s)
	if err != nil || size == 0 || size != len(s) || r > 0xFFFF {
		ctx.Report(l.line, "Malformed character literal: %s", l.Text)
	}
	l.Value = r
	l.typ = types.Char
	return l
}

func (l *CharLiteral) Codegen(e *Emitter) {
	e.PushInt(int32(l.Value))
}

// StringLiteral is a string literal; Text keeps the quotes and escape
// spellings.
type StringLiteral struct {
	exprBase
	Text  string
	Value string
}

func NewStringLiteral(line int, text string) *StringLiteral {
	return &StringLiteral{exprBase: exprBase{line: line}, Text: text}
}

func (l *StringLiteral) String() string { return l.Text }

func (l *StringLiteral) Analyze(ctx *Context) Expression {
	s, err := lexer.Unescape(l.Text)
	if err != nil {
		ctx.Report(l.line, "Malformed string literal: %s", l.Text)
	}
	l.Value = s
	l.typ = types.String
	return l
}

func (l *StringLiteral) Codegen(e *Emitter) {
	e.EmitConstant(l.Value)
}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	exprBase
	Value bool
}

func NewBooleanLiteral(line int, value bool) *BooleanLiteral {
	return &BooleanLiteral{exprBase: exprBase{line: line}, Value: value}
}

func (l *BooleanLiteral) String() string { return strconv.FormatBool(l.Value) }

func (l *BooleanLiteral) Analyze(ctx *Context) Expression {
	l.typ = types.Boolean
	return l
}

func (l *BooleanLiteral) Codegen(e *Emitter) {
	if l.Value {
		e.Emit(codegen.ICONST_1)
	} else {
		e.Emit(codegen.ICONST_0)
	}
}

// CodegenBranch jumps unconditionally when the constant equals onTrue.
func (l *BooleanLiteral) CodegenBranch(e *Emitter, target codegen.Label, onTrue bool) {
	if l.Value == onTrue {
		e.EmitBranch(codegen.GOTO, target)
	}
}

// NullLiteral is the null reference.
type NullLiteral struct {
	exprBase
}

func NewNullLiteral(line int) *NullLiteral {
	return &NullLiteral{exprBase: exprBase{line: line}}
}

func (l *NullLiteral) String() string { return "null" }

func (l *NullLiteral) Analyze(ctx *Context) Expression {
	l.typ = types.Null
	return l
}

func (l *NullLiteral) Codegen(e *Emitter) {
	e.Emit(codegen.ACONST_NULL)
}

// NewLiteral builds the literal node for a scanned literal token.
func NewLiteral(tok lexer.Token) (Expression, bool) {
	switch tok.Type {
	case lexer.TokenIntLiteral:
		return NewIntLiteral(tok.Line, tok.Literal), true
	case lexer.TokenLongLiteral:
		return NewLongLiteral(tok.Line, tok.Literal), true
	case lexer.TokenFloatLiteral:
		return NewFloatLiteral(tok.Line, tok.Literal), true
	case lexer.TokenDoubleLiteral:
		return NewDoubleLiteral(tok.Line, tok.Literal), true
	case lexer.TokenCharLiteral:
		return NewCharLiteral(tok.Line, tok.Literal), true
	case lexer.TokenStringLiteral:
		return NewStringLiteral(tok.Line, tok.Literal), true
	case lexer.TokenTrue:
		return NewBooleanLiteral(tok.Line, true), true
	case lexer.TokenFalse:
		return NewBooleanLiteral(tok.Line, false), true
	case lexer.TokenNull:
		return NewNullLiteral(tok.Line), true
	}
	return nil, false
}
