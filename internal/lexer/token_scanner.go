package lexer

// TokenScanner hands out one token at a time. Once the stream is exhausted
// every further Read returns EOF.
type TokenScanner interface {
	Read() Token
}

// LineSource gives access to source lines for diagnostics.
type LineSource interface {
	LineText(n int) string
}

type SimpleTokenScanner struct {
	tokens []Token

	pos int
}

func NewTokenScanner(tokens []Token) TokenScanner {
	return &SimpleTokenScanner{
		tokens: tokens,
	}
}

func (s *SimpleTokenScanner) Read() Token {
	if s.pos >= len(s.tokens) {
		line := 1
		if len(s.tokens) > 0 {
			line = s.tokens[len(s.tokens)-1].Line
		}
		return Token{Kind: EOF, Value: EOF.String(), Line: line}
	}

	token := s.tokens[s.pos]
	s.pos++

	return token
}
