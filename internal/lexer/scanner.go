package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/jmm-lang/jmmc/internal/diagnostic"
)

// eofCh is the current-character value past the end of input.
const eofCh rune = -1

// Scanner is the lexical analyzer for j--. It never backtracks: every
// decision is made on the current character plus one character of lookahead.
//
// Errors never stop scanning. Each one is reported through the Reporter and
// sets a sticky flag; the offending input is skipped or resynchronised so the
// token stream always runs to EOF.
type Scanner struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination, eofCh at the end
	line         int  // line of the current char

	reporter  diagnostic.Reporter
	isInError bool
}

// NewScanner creates a scanner over input. reporter may be nil, in which
// case errors only set the error flag.
func NewScanner(input string, reporter diagnostic.Reporter) *Scanner {
	s := &Scanner{
		input:    input,
		line:     1,
		reporter: reporter,
	}
	s.readChar()
	return s
}

// Tokenize scans input to the end and returns every token, EOF included.
func Tokenize(input string, reporter diagnostic.Reporter) ([]Token, bool) {
	s := NewScanner(input, reporter)
	var tokens []Token
	for {
		tok := s.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, !s.ErrorHasOccurred()
		}
	}
}

// ErrorHasOccurred returns true if any lexical error was reported.
func (s *Scanner) ErrorHasOccurred() bool {
	return s.isInError
}

// readChar reads the next character and advances position
func (s *Scanner) readChar() {
	if s.ch == '\n' {
		s.line++
	}
	if s.readPosition >= len(s.input) {
		s.ch = eofCh
		s.position = len(s.input)
		return
	}
	s.ch = rune(s.input[s.readPosition])
	s.position = s.readPosition
	s.readPosition++
}

// peekChar returns the next character without advancing position
func (s *Scanner) peekChar() rune {
	if s.readPosition >= len(s.input) {
		return eofCh
	}
	return rune(s.input[s.readPosition])
}

func (s *Scanner) reportError(line int, format string, args ...interface{}) {
	s.isInError = true
	if s.reporter != nil {
		s.reporter.Report(line, format, args...)
	}
}

// Next scans and returns the next token. At the end of input it keeps
// returning EOF tokens.
func (s *Scanner) Next() Token {
	for {
		s.skipWhitespaceAndComments()
		if tok, ok := s.scanToken(); ok {
			return tok
		}
	}
}

// skipWhitespaceAndComments loops because a comment may be followed by more
// whitespace and comments before the next real token.
func (s *Scanner) skipWhitespaceAndComments() {
	for {
		for isWhitespace(s.ch) {
			s.readChar()
		}

		switch {
		case s.ch == '/' && s.peekChar() == '/':
			for s.ch != '\n' && s.ch != eofCh {
				s.readChar()
			}
		case s.ch == '/' && s.peekChar() == '*':
			line := s.line
			s.readChar()
			s.readChar()
			for {
				if s.ch == eofCh {
					s.reportError(line, "EOF reached before closing comment")
					return
				}
				if s.ch == '*' && s.peekChar() == '/' {
					s.readChar()
					s.readChar()
					break
				}
				s.readChar()
			}
		default:
			return
		}
	}
}

// scanToken scans one token starting at the current character. It returns
// false when the input was rejected and skipped, so the caller scans again.
func (s *Scanner) scanToken() (Token, bool) {
	line := s.line

	if isDigit(s.ch) || (s.ch == '.' && isDigit(s.peekChar())) {
		return s.readNumber(line), true
	}

	if isIdentifierStart(s.ch) {
		start := s.position
		for isIdentifierPart(s.ch) {
			s.readChar()
		}
		ident := s.input[start:s.position]
		if tt := lookupIdent(ident); tt != TokenIdentifier {
			return s.newToken(tt, line), true
		}
		return s.newLiteralToken(TokenIdentifier, ident, line), true
	}

	switch s.ch {
	case eofCh:
		return s.newToken(TokenEOF, line), true
	case ',':
		return s.single(TokenComma, line), true
	case '.':
		return s.single(TokenDot, line), true
	case '[':
		return s.single(TokenLBrack, line), true
	case ']':
		return s.single(TokenRBrack, line), true
	case '{':
		return s.single(TokenLCurly, line), true
	case '}':
		return s.single(TokenRCurly, line), true
	case '(':
		return s.single(TokenLParen, line), true
	case ')':
		return s.single(TokenRParen, line), true
	case ';':
		return s.single(TokenSemi, line), true
	case '?':
		return s.single(TokenQuestion, line), true
	case '~':
		return s.single(TokenNot, line), true
	case ':':
		if s.peekChar() == ':' {
			return s.unsupported("::", line)
		}
		return s.single(TokenColon, line), true
	case '+':
		return s.choose(line, TokenPlus, '+', TokenInc, '=', TokenPlusAssign), true
	case '-':
		if s.peekChar() == '>' {
			return s.unsupported("->", line)
		}
		return s.choose(line, TokenMinus, '-', TokenDec, '=', TokenMinusAssign), true
	case '*':
		return s.choose(line, TokenStar, '=', TokenStarAssign), true
	case '/':
		return s.choose(line, TokenDiv, '=', TokenDivAssign), true
	case '%':
		return s.choose(line, TokenRem, '=', TokenRemAssign), true
	case '=':
		return s.choose(line, TokenAssign, '=', TokenEqual), true
	case '!':
		return s.choose(line, TokenLNot, '=', TokenNotEqual), true
	case '^':
		return s.choose(line, TokenXor, '=', TokenXorAssign), true
	case '&':
		return s.choose(line, TokenAnd, '&', TokenLAnd, '=', TokenAndAssign), true
	case '|':
		return s.choose(line, TokenOr, '|', TokenLOr, '=', TokenOrAssign), true
	case '<':
		if s.peekChar() == '<' {
			s.readChar()
			return s.choose(line, TokenShl, '=', TokenShlAssign), true
		}
		return s.choose(line, TokenLt, '=', TokenLe), true
	case '>':
		if s.peekChar() != '>' {
			return s.choose(line, TokenGt, '=', TokenGe), true
		}
		s.readChar()
		if s.peekChar() == '>' {
			s.readChar()
			return s.choose(line, TokenUShr, '=', TokenUShrAssign), true
		}
		return s.choose(line, TokenShr, '=', TokenShrAssign), true
	case '\'':
		return s.readCharLiteral(line), true
	case '"':
		return s.readString(line), true
	}

	if s.ch >= utf8.RuneSelf {
		r, size := utf8.DecodeRuneInString(s.input[s.position:])
		s.reportError(line, "Unidentified input token: '%c'", r)
		for i := 0; i < size; i++ {
			s.readChar()
		}
		return Token{}, false
	}

	s.reportError(line, "Unidentified input token: '%c'", s.ch)
	s.readChar()
	return Token{}, false
}

// single consumes the current character as a one-character token.
func (s *Scanner) single(tt TokenType, line int) Token {
	s.readChar()
	return s.newToken(tt, line)
}

// choose consumes the current character, then picks between tokens by one
// character of lookahead. alts holds (next char, token) pairs.
func (s *Scanner) choose(line int, base TokenType, alts ...interface{}) Token {
	next := s.peekChar()
	for i := 0; i+1 < len(alts); i += 2 {
		if next == alts[i].(rune) {
			s.readChar()
			s.readChar()
			return s.newToken(alts[i+1].(TokenType), line)
		}
	}
	s.readChar()
	return s.newToken(base, line)
}

// unsupported skips a two-character operator that j-- does not have.
func (s *Scanner) unsupported(op string, line int) (Token, bool) {
	s.reportError(line, "Operator %s is not supported in j--", op)
	s.readChar()
	s.readChar()
	return Token{}, false
}

// readNumber scans a numeric literal by longest match. Suffix characters
// (f, F, d, D, l, L) decide the literal kind and are not kept in the text.
func (s *Scanner) readNumber(line int) Token {
	var buf strings.Builder

	if s.ch == '0' {
		switch s.peekChar() {
		case 'x', 'X':
			return s.readRadix(line, &buf, "hexadecimal", isHexDigit)
		case 'b', 'B':
			return s.readRadix(line, &buf, "binary", isBinaryDigit)
		}
	}

	// Octal literals fall through here too: a leading 0 followed by digits
	// keeps its exact text and the literal node interprets the radix.
	hasDecimal, hasExponent := false, false
scan:
	for {
		switch {
		case isDigit(s.ch):
			buf.WriteByte(byte(s.ch))
			s.readChar()
		case s.ch == '.' && !hasDecimal && !hasExponent:
			hasDecimal = true
			buf.WriteByte('.')
			s.readChar()
		case (s.ch == 'e' || s.ch == 'E') && !hasExponent:
			hasExponent = true
			buf.WriteByte(byte(s.ch))
			s.readChar()
			if s.ch == '+' || s.ch == '-' {
				buf.WriteByte(byte(s.ch))
				s.readChar()
			}
			if !isDigit(s.ch) {
				s.reportError(line, "Malformed exponent in literal %s", buf.String())
				break scan
			}
		default:
			break scan
		}
	}

	text := buf.String()
	var tt TokenType
	switch s.ch {
	case 'f', 'F':
		s.readChar()
		tt = TokenFloatLiteral
	case 'd', 'D':
		s.readChar()
		tt = TokenDoubleLiteral
	case 'l', 'L':
		s.readChar()
		if hasDecimal || hasExponent {
			s.reportError(line, "Malformed long literal %s", text)
		}
		tt = TokenLongLiteral
	default:
		if hasDecimal || hasExponent {
			tt = TokenDoubleLiteral
		} else {
			tt = TokenIntLiteral
		}
	}

	s.checkTrailing(text, line)
	return s.newLiteralToken(tt, text, line)
}

// readRadix scans a 0x or 0b prefixed integer. The prefix stays in the text.
func (s *Scanner) readRadix(line int, buf *strings.Builder, kind string, isRadixDigit func(rune) bool) Token {
	buf.WriteByte(byte(s.ch))
	s.readChar()
	buf.WriteByte(byte(s.ch))
	s.readChar()

	digits := 0
	for isRadixDigit(s.ch) {
		buf.WriteByte(byte(s.ch))
		s.readChar()
		digits++
	}
	text := buf.String()
	if digits == 0 {
		s.reportError(line, "Malformed %s literal %s", kind, text)
	}

	tt := TokenIntLiteral
	if s.ch == 'l' || s.ch == 'L' {
		s.readChar()
		tt = TokenLongLiteral
	}

	s.checkTrailing(text, line)
	return s.newLiteralToken(tt, text, line)
}

// checkTrailing rejects identifier characters glued to a number, as in 12abc.
func (s *Scanner) checkTrailing(text string, line int) {
	if !isIdentifierPart(s.ch) {
		return
	}
	start := s.position
	for isIdentifierPart(s.ch) {
		s.readChar()
	}
	s.reportError(line, "Malformed number %s%s", text, s.input[start:s.position])
}

// readCharLiteral scans a character literal. The token text keeps the
// quotes and the escape spelling, e.g. '\n'.
func (s *Scanner) readCharLiteral(line int) Token {
	var buf strings.Builder
	buf.WriteByte('\'')
	s.readChar()

	switch s.ch {
	case '\'':
		s.reportError(line, "Empty character literal")
		s.readChar()
		return s.newLiteralToken(TokenCharLiteral, "''", line)
	case '\n', eofCh:
		s.reportError(line, "Unterminated character literal")
		buf.WriteByte('\'')
		return s.newLiteralToken(TokenCharLiteral, buf.String(), line)
	case '\\':
		s.readChar()
		buf.WriteString(s.escape(line))
	default:
		buf.WriteByte(byte(s.ch))
		s.readChar()
	}

	if s.ch == '\'' {
		buf.WriteByte('\'')
		s.readChar()
		return s.newLiteralToken(TokenCharLiteral, buf.String(), line)
	}

	// Expected a closing quote: report and resynchronise at the next
	// plausible delimiter.
	if s.ch == eofCh {
		s.reportError(line, "Unexpected end of file found in character literal")
	} else {
		s.reportError(line, "%c found by scanner where closing ' was expected", s.ch)
	}
	for s.ch != '\'' && s.ch != ';' && s.ch != '\n' && s.ch != eofCh {
		s.readChar()
	}
	if s.ch == '\'' {
		s.readChar()
	}
	buf.WriteByte('\'')
	return s.newLiteralToken(TokenCharLiteral, buf.String(), line)
}

// readString scans a string literal. The token text keeps the quotes and
// the escape spellings; an unterminated string stops at the end of the line.
func (s *Scanner) readString(line int) Token {
	var buf strings.Builder
	buf.WriteByte('"')
	s.readChar()

	for s.ch != '"' && s.ch != '\n' && s.ch != eofCh {
		if s.ch == '\\' {
			s.readChar()
			buf.WriteString(s.escape(line))
			continue
		}
		buf.WriteByte(byte(s.ch))
		s.readChar()
	}

	switch s.ch {
	case '\n':
		s.reportError(line, "Unexpected end of line found in string")
	case eofCh:
		s.reportError(line, "Unexpected end of file found in string")
	default:
		s.readChar()
	}
	buf.WriteByte('"')
	return s.newLiteralToken(TokenStringLiteral, buf.String(), line)
}

// escape scans the character after a backslash and returns the escape
// spelling to keep in the literal text, or "" for a bad escape.
func (s *Scanner) escape(line int) string {
	switch s.ch {
	case 'b', 't', 'n', 'f', 'r', '"', '\'', '\\':
		esc := `\` + string(s.ch)
		s.readChar()
		return esc
	case '\n', eofCh:
		s.reportError(line, "Badly formed escape at end of line")
		return ""
	default:
		s.reportError(line, "Badly formed escape: \\%c", s.ch)
		s.readChar()
		return ""
	}
}

// newToken creates a token without literal text
func (s *Scanner) newToken(tokenType TokenType, line int) Token {
	return Token{Type: tokenType, Line: line}
}

// newLiteralToken creates a token carrying its source text
func (s *Scanner) newLiteralToken(tokenType TokenType, literal string, line int) Token {
	return Token{Type: tokenType, Literal: literal, Line: line}
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func isBinaryDigit(ch rune) bool {
	return ch == '0' || ch == '1'
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isIdentifierStart(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$'
}

func isIdentifierPart(ch rune) bool {
	return isIdentifierStart(ch) || isDigit(ch)
}
