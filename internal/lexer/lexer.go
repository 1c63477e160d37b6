package lexer

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/kievzenit/wlang/internal/compiler_errors"
)

const (
	inlineCOpen  = "#{"
	inlineCClose = "}#"
)

type LexerError struct {
	Message string

	Line     int
	LineText string
}

func (e *LexerError) GetMessage() string {
	return fmt.Sprintf(
		"Syntax error: %s on line %d\n%s",
		e.Message,
		e.Line,
		compiler_errors.SourceLine(e.Line, e.LineText))
}

func (e *LexerError) Error() string {
	return e.GetMessage()
}

// Lexer turns source text into tokens on demand. The parser pulls one token
// at a time through Read; nothing is buffered.
type Lexer struct {
	buf []byte
	pos int

	// zero-based, incremented whenever a newline is consumed
	line int

	eh compiler_errors.ErrorHandler
}

func NewLexer(buf []byte, eh compiler_errors.ErrorHandler) *Lexer {
	if eh == nil {
		eh = compiler_errors.NewErrorHandler(io.Discard)
	}

	return &Lexer{
		buf: buf,
		pos: 0,

		line: 0,

		eh: eh,
	}
}

// Read implements TokenScanner.
func (l *Lexer) Read() Token {
	return l.NextToken()
}

// Tokenize drains the lexer. The last token is always EOF.
func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0)
	for {
		token := l.NextToken()
		tokens = append(tokens, token)
		if token.Kind == EOF {
			return tokens
		}
	}
}

func (l *Lexer) NextToken() Token {
	for l.hasChars() {
		switch {
		case isWhitespace(l.read()):
			l.skipWhitespace()

		case l.read() == '/':
			next, ok := l.peekNext()
			if !ok || (next != '/' && next != '*') {
				l.fail(l.line, "comments have to start with either '//' or '/*'")
			}
			l.skipComment()

		case l.read() == 'c' && l.peekIs('"'):
			return l.scanCstringLiteral()

		case isLetter(l.read()):
			return l.scanIdentifier()

		case isDigit(l.read()):
			return l.scanNumber()

		case l.read() == '"':
			return l.scanStringLiteral()

		case l.read() == inlineCOpen[0] && l.peekIs(inlineCOpen[1]):
			return l.scanInlineC()

		case isPunctuation(l.read()):
			return l.scanPunctuation()

		default:
			r, _ := utf8.DecodeRune(l.buf[l.pos:])
			l.fail(l.line, fmt.Sprintf("unexpected character %q", r))
		}
	}

	return Token{
		Kind:  EOF,
		Value: EOF.String(),
		Line:  l.line + 1,
	}
}

// CurrentLine returns the 1-indexed number and text of the line the lexer
// is positioned on.
func (l *Lexer) CurrentLine() (int, string) {
	return l.line + 1, l.LineText(l.line + 1)
}

// LineText returns the verbatim text of the 1-indexed line n, or "" if the
// source has no such line.
func (l *Lexer) LineText(n int) string {
	if n < 1 {
		return ""
	}

	rest := l.buf
	for i := 1; i < n; i++ {
		idx := bytes.IndexByte(rest, '\n')
		if idx < 0 {
			return ""
		}
		rest = rest[idx+1:]
	}

	if idx := bytes.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[:idx]
	}
	return string(bytes.TrimSuffix(rest, []byte("\r")))
}

func (l *Lexer) skipWhitespace() {
	for l.hasChars() && isWhitespace(l.read()) {
		l.advance()
	}
}

func (l *Lexer) skipComment() {
	startLine := l.line
	l.advance()

	if l.read() == '/' {
		for l.hasChars() && l.read() != '\n' {
			l.advance()
		}
		return
	}

	l.advance()
	for {
		if !l.hasChars() {
			l.fail(startLine, "unterminated block comment")
		}

		if l.read() == '*' && l.peekIs('/') {
			l.advance()
			l.advance()
			return
		}

		l.advance()
	}
}

func (l *Lexer) scanNumber() Token {
	startLine := l.line
	start := l.pos

	if l.read() == '0' && l.peekIs('x') {
		for l.hasChars() && (isHexDigit(l.read()) || l.read() == 'x') {
			l.advance()
		}

		text := string(l.buf[start:l.pos])
		value, ok := new(big.Int).SetString(text, 0)
		if !ok {
			l.fail(startLine, fmt.Sprintf("malformed hexadecimal literal '%s'", text))
		}

		return Token{
			Kind:  WHOLE_NUMBER,
			Value: text,
			Int:   value,
			Line:  startLine + 1,
		}
	}

	var isFloat bool
	for l.hasChars() {
		if isDigit(l.read()) {
			l.advance()
			continue
		}

		if l.read() == '.' && !isFloat {
			isFloat = true
			l.advance()
			continue
		}

		break
	}

	text := string(l.buf[start:l.pos])
	if isFloat {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			l.fail(startLine, fmt.Sprintf("malformed float literal '%s'", text))
		}

		return Token{
			Kind:  FLOAT,
			Value: text,
			Float: value,
			Line:  startLine + 1,
		}
	}

	value, ok := new(big.Int).SetString(text, 10)
	if !ok {
		l.fail(startLine, fmt.Sprintf("malformed integer literal '%s'", text))
	}

	return Token{
		Kind:  WHOLE_NUMBER,
		Value: text,
		Int:   value,
		Line:  startLine + 1,
	}
}

func (l *Lexer) scanIdentifier() Token {
	if !isLetter(l.read()) {
		l.fail(l.line, "identifiers have to start with a letter")
	}

	start := l.pos
	for l.hasChars() && (isLetter(l.read()) || isDigit(l.read()) || l.read() == '_') {
		l.advance()
	}
	identifier := string(l.buf[start:l.pos])

	kind := IDENT
	if IsReservedWord(identifier) {
		kind = RESERVED_WORD
	}

	return Token{
		Kind:  kind,
		Value: identifier,
		Line:  l.line + 1,
	}
}

func (l *Lexer) scanStringLiteral() Token {
	startLine := l.line
	l.advance()

	start := l.pos
	for l.hasChars() && l.read() != '"' {
		l.advance()
	}

	if !l.hasChars() {
		l.fail(startLine, "unterminated string literal")
	}

	value := string(l.buf[start:l.pos])
	l.advance()

	return Token{
		Kind:  STRING,
		Value: value,
		Line:  startLine + 1,
	}
}

func (l *Lexer) scanCstringLiteral() Token {
	l.advance()

	token := l.scanStringLiteral()
	token.Kind = CSTRING
	return token
}

// scanInlineC copies everything up to the first closing marker verbatim.
// Closing markers cannot be nested or escaped.
func (l *Lexer) scanInlineC() Token {
	startLine := l.line
	l.advance()
	l.advance()

	start := l.pos
	for {
		if !l.hasChars() {
			l.fail(startLine, "unterminated inline C block")
		}

		if l.read() == inlineCClose[0] && l.peekIs(inlineCClose[1]) {
			break
		}

		l.advance()
	}

	value := string(l.buf[start:l.pos])
	l.advance()
	l.advance()

	return Token{
		Kind:  INLINE_C,
		Value: value,
		Line:  startLine + 1,
	}
}

func (l *Lexer) scanPunctuation() Token {
	line := l.line + 1
	c := l.read()
	l.advance()

	switch c {
	case '(':
		return Token{Kind: LPAREN, Value: "(", Line: line}
	case ')':
		return Token{Kind: RPAREN, Value: ")", Line: line}
	case '{':
		return Token{Kind: LBRACE, Value: "{", Line: line}
	case '}':
		return Token{Kind: RBRACE, Value: "}", Line: line}
	case ',':
		return Token{Kind: COMMA, Value: ",", Line: line}
	case ';':
		return Token{Kind: SEMICOLON, Value: ";", Line: line}
	case '?':
		return Token{Kind: QMARK, Value: "?", Line: line}
	case '-':
		return Token{Kind: MINUS, Value: "-", Line: line}
	case ':':
		if l.hasChars() && l.read() == '-' {
			l.advance()
			return Token{Kind: COLONDASH, Value: ":-", Line: line}
		}
		return Token{Kind: COLON, Value: ":", Line: line}
	case '=':
		if l.hasChars() && l.read() == '>' {
			l.advance()
			return Token{Kind: ARROW, Value: "=>", Line: line}
		}
		return Token{Kind: ASSIGN, Value: "=", Line: line}
	}

	panic("unreachable")
}

// fail reports a fatal scan error at the zero-based line and does not return.
func (l *Lexer) fail(line int, message string) {
	l.eh.AddError(&LexerError{
		Message: message,

		Line:     line + 1,
		LineText: l.LineText(line + 1),
	})
	l.eh.FailNow()
	panic("unreachable")
}

func (l *Lexer) hasChars() bool {
	return l.pos < len(l.buf)
}

func (l *Lexer) advance() {
	if l.buf[l.pos] == '\n' {
		l.line++
	}
	l.pos++
}

func (l *Lexer) peekNext() (byte, bool) {
	if l.pos+1 >= len(l.buf) {
		return 0, false
	}
	return l.buf[l.pos+1], true
}

func (l *Lexer) peekIs(c byte) bool {
	next, ok := l.peekNext()
	return ok && next == c
}

func (l *Lexer) read() byte { return l.buf[l.pos] }

func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isPunctuation(c byte) bool {
	switch c {
	case '(', ')', ':', '-', '=', '{', '}', ',', ';', '?':
		return true
	}
	return false
}
