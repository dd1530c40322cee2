// Package lexer implements the j-- lexical analyzer.
package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Token types of j--
const (
	// special tokens
	TokenEOF TokenType = iota

	// literals
	TokenIdentifier
	TokenIntLiteral
	TokenLongLiteral
	TokenFloatLiteral
	TokenDoubleLiteral
	TokenCharLiteral
	TokenStringLiteral

	// keywords
	TokenAbstract
	TokenBoolean
	TokenBreak
	TokenCase
	TokenCatch
	TokenChar
	TokenClass
	TokenContinue
	TokenDefault
	TokenDo
	TokenDouble
	TokenElse
	TokenExtends
	TokenFalse
	TokenFinally
	TokenFloat
	TokenFor
	TokenIf
	TokenImport
	TokenInstanceof
	TokenInt
	TokenLong
	TokenNew
	TokenNull
	TokenPackage
	TokenPrivate
	TokenProtected
	TokenPublic
	TokenReturn
	TokenStatic
	TokenSuper
	TokenSwitch
	TokenThis
	TokenThrow
	TokenThrows
	TokenTrue
	TokenTry
	TokenUntil
	TokenVoid
	TokenWhile

	// operators
	TokenAssign
	TokenEqual
	TokenNotEqual
	TokenGt
	TokenGe
	TokenLt
	TokenLe
	TokenPlus
	TokenPlusAssign
	TokenInc
	TokenMinus
	TokenMinusAssign
	TokenDec
	TokenStar
	TokenStarAssign
	TokenDiv
	TokenDivAssign
	TokenRem
	TokenRemAssign
	TokenLNot
	TokenLAnd
	TokenLOr
	TokenAnd
	TokenAndAssign
	TokenOr
	TokenOrAssign
	TokenXor
	TokenXorAssign
	TokenNot
	TokenShl
	TokenShlAssign
	TokenShr
	TokenShrAssign
	TokenUShr
	TokenUShrAssign
	TokenQuestion
	TokenColon

	// separators
	TokenComma
	TokenDot
	TokenLBrack
	TokenRBrack
	TokenLCurly
	TokenRCurly
	TokenLParen
	TokenRParen
	TokenSemi
)

// Token represents a lexical token. Literal carries the source text for
// identifiers and literals and is empty for keywords and punctuation.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Line: %d}", t.Type, t.Literal, t.Line)
}

// Image returns the text a token stands for: its literal text when it has
// one, otherwise the fixed spelling of the keyword or operator.
func (t Token) Image() string {
	if t.Literal != "" {
		return t.Literal
	}
	if img, ok := tokenImages[t.Type]; ok {
		return img
	}
	return t.Type.String()
}

// tokenNames provides string representations for token types
var tokenNames = map[TokenType]string{
	TokenEOF: "EOF",

	TokenIdentifier:    "IDENTIFIER",
	TokenIntLiteral:    "INT_LITERAL",
	TokenLongLiteral:   "LONG_LITERAL",
	TokenFloatLiteral:  "FLOAT_LITERAL",
	TokenDoubleLiteral: "DOUBLE_LITERAL",
	TokenCharLiteral:   "CHAR_LITERAL",
	TokenStringLiteral: "STRING_LITERAL",

	TokenAbstract:   "ABSTRACT",
	TokenBoolean:    "BOOLEAN",
	TokenBreak:      "BREAK",
	TokenCase:       "CASE",
	TokenCatch:      "CATCH",
	TokenChar:       "CHAR",
	TokenClass:      "CLASS",
	TokenContinue:   "CONTINUE",
	TokenDefault:    "DEFAULT",
	TokenDo:         "DO",
	TokenDouble:     "DOUBLE",
	TokenElse:       "ELSE",
	TokenExtends:    "EXTENDS",
	TokenFalse:      "FALSE",
	TokenFinally:    "FINALLY",
	TokenFloat:      "FLOAT",
	TokenFor:        "FOR",
	TokenIf:         "IF",
	TokenImport:     "IMPORT",
	TokenInstanceof: "INSTANCEOF",
	TokenInt:        "INT",
	TokenLong:       "LONG",
	TokenNew:        "NEW",
	TokenNull:       "NULL",
	TokenPackage:    "PACKAGE",
	TokenPrivate:    "PRIVATE",
	TokenProtected:  "PROTECTED",
	TokenPublic:     "PUBLIC",
	TokenReturn:     "RETURN",
	TokenStatic:     "STATIC",
	TokenSuper:      "SUPER",
	TokenSwitch:     "SWITCH",
	TokenThis:       "THIS",
	TokenThrow:      "THROW",
	TokenThrows:     "THROWS",
	TokenTrue:       "TRUE",
	TokenTry:        "TRY",
	TokenUntil:      "UNTIL",
	TokenVoid:       "VOID",
	TokenWhile:      "WHILE",

	TokenAssign:      "ASSIGN",
	TokenEqual:       "EQUAL",
	TokenNotEqual:    "NOT_EQUAL",
	TokenGt:          "GT",
	TokenGe:          "GE",
	TokenLt:          "LT",
	TokenLe:          "LE",
	TokenPlus:        "PLUS",
	TokenPlusAssign:  "PLUS_ASSIGN",
	TokenInc:         "INC",
	TokenMinus:       "MINUS",
	TokenMinusAssign: "MINUS_ASSIGN",
	TokenDec:         "DEC",
	TokenStar:        "STAR",
	TokenStarAssign:  "STAR_ASSIGN",
	TokenDiv:         "DIV",
	TokenDivAssign:   "DIV_ASSIGN",
	TokenRem:         "REM",
	TokenRemAssign:   "REM_ASSIGN",
	TokenLNot:        "LNOT",
	TokenLAnd:        "LAND",
	TokenLOr:         "LOR",
	TokenAnd:         "AND",
	TokenAndAssign:   "AND_ASSIGN",
	TokenOr:          "OR",
	TokenOrAssign:    "OR_ASSIGN",
	TokenXor:         "XOR",
	TokenXorAssign:   "XOR_ASSIGN",
	TokenNot:         "NOT",
	TokenShl:         "SHL",
	TokenShlAssign:   "SHL_ASSIGN",
	TokenShr:         "SHR",
	TokenShrAssign:   "SHR_ASSIGN",
	TokenUShr:        "USHR",
	TokenUShrAssign:  "USHR_ASSIGN",
	TokenQuestion:    "QUESTION",
	TokenColon:       "COLON",

	TokenComma:  "COMMA",
	TokenDot:    "DOT",
	TokenLBrack: "LBRACK",
	TokenRBrack: "RBRACK",
	TokenLCurly: "LCURLY",
	TokenRCurly: "RCURLY",
	TokenLParen: "LPAREN",
	TokenRParen: "RPAREN",
	TokenSemi:   "SEMI",
}

// tokenImages gives the source spelling of fixed tokens
var tokenImages = map[TokenType]string{
	TokenEOF: "<EOF>",

	TokenAssign:      "=",
	TokenEqual:       "==",
	TokenNotEqual:    "!=",
	TokenGt:          ">",
	TokenGe:          ">=",
	TokenLt:          "<",
	TokenLe:          "<=",
	TokenPlus:        "+",
	TokenPlusAssign:  "+=",
	TokenInc:         "++",
	TokenMinus:       "-",
	TokenMinusAssign: "-=",
	TokenDec:         "--",
	TokenStar:        "*",
	TokenStarAssign:  "*=",
	TokenDiv:         "/",
	TokenDivAssign:   "/=",
	TokenRem:         "%",
	TokenRemAssign:   "%=",
	TokenLNot:        "!",
	TokenLAnd:        "&&",
	TokenLOr:         "||",
	TokenAnd:         "&",
	TokenAndAssign:   "&=",
	TokenOr:          "|",
	TokenOrAssign:    "|=",
	TokenXor:         "^",
	TokenXorAssign:   "^=",
	TokenNot:         "~",
	TokenShl:         "<<",
	TokenShlAssign:   "<<=",
	TokenShr:         ">>",
	TokenShrAssign:   ">>=",
	TokenUShr:        ">>>",
	TokenUShrAssign:  ">>>=",
	TokenQuestion:    "?",
	TokenColon:       ":",

	TokenComma:  ",",
	TokenDot:    ".",
	TokenLBrack: "[",
	TokenRBrack: "]",
	TokenLCurly: "{",
	TokenRCurly: "}",
	TokenLParen: "(",
	TokenRParen: ")",
	TokenSemi:   ";",
}

// keywords maps reserved words to their token types
var keywords = map[string]TokenType{
	"abstract":   TokenAbstract,
	"boolean":    TokenBoolean,
	"break":      TokenBreak,
	"case":       TokenCase,
	"catch":      TokenCatch,
	"char":       TokenChar,
	"class":      TokenClass,
	"continue":   TokenContinue,
	"default":    TokenDefault,
	"do":         TokenDo,
	"double":     TokenDouble,
	"else":       TokenElse,
	"extends":    TokenExtends,
	"false":      TokenFalse,
	"finally":    TokenFinally,
	"float":      TokenFloat,
	"for":        TokenFor,
	"if":         TokenIf,
	"import":     TokenImport,
	"instanceof": TokenInstanceof,
	"int":        TokenInt,
	"long":       TokenLong,
	"new":        TokenNew,
	"null":       TokenNull,
	"package":    TokenPackage,
	"private":    TokenPrivate,
	"protected":  TokenProtected,
	"public":     TokenPublic,
	"return":     TokenReturn,
	"static":     TokenStatic,
	"super":      TokenSuper,
	"switch":     TokenSwitch,
	"this":       TokenThis,
	"throw":      TokenThrow,
	"throws":     TokenThrows,
	"true":       TokenTrue,
	"try":        TokenTry,
	"until":      TokenUntil,
	"void":       TokenVoid,
	"while":      TokenWhile,
}

func init() {
	for word, tt := range keywords {
		tokenImages[tt] = word
	}
}

// lookupIdent checks if identifier is keyword
func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdentifier
}

// IsKeyword reports whether word is reserved in j--.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}
