package lexer

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/kievzenit/wlang/internal/types"
)

type TokenKind int

const (
	EOF TokenKind = iota

	RESERVED_WORD
	IDENT

	WHOLE_NUMBER
	FLOAT
	STRING
	CSTRING
	INLINE_C

	LPAREN    // (
	RPAREN    // )
	COLONDASH // :-
	COLON     // :
	MINUS     // -
	ARROW     // =>
	ASSIGN    // =
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;
	QMARK     // ?
)

func (tk TokenKind) String() string {
	switch tk {
	case EOF:
		return "EOF"
	case RESERVED_WORD:
		return "RESERVED_WORD"
	case IDENT:
		return "IDENT"
	case WHOLE_NUMBER:
		return "WHOLE_NUMBER"
	case FLOAT:
		return "FLOAT"
	case STRING:
		return "STRING"
	case CSTRING:
		return "CSTRING"
	case INLINE_C:
		return "INLINE_C"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case COLONDASH:
		return "COLONDASH"
	case COLON:
		return "COLON"
	case MINUS:
		return "MINUS"
	case ARROW:
		return "ARROW"
	case ASSIGN:
		return "ASSIGN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case COMMA:
		return "COMMA"
	case SEMICOLON:
		return "SEMICOLON"
	case QMARK:
		return "QMARK"
	default:
		panic(fmt.Sprintf("TokenKind.String(): received illegal token kind: %d", tk))
	}
}

// Keywords of the language. Primitive type names are reserved as well, see
// IsReservedWord.
const (
	LET      = "let"
	FUNCT    = "funct"
	MACRO    = "macro"
	EXTERN   = "extern"
	RESULT   = "result"
	VARARGS  = "varargs"
	MUT      = "mut"
	NOTHING  = "Nothing"
	TYPENAME = "Typename"
)

var keywords = []string{LET, FUNCT, MACRO, EXTERN, RESULT, VARARGS, MUT, NOTHING, TYPENAME}

func IsReservedWord(word string) bool {
	return slices.Contains(keywords, word) || types.IsPrimitive(word)
}

type Token struct {
	Kind  TokenKind
	Value string

	// Int is set for WHOLE_NUMBER tokens, Float for FLOAT tokens.
	Int   *big.Int
	Float float64

	// Line is 1-indexed.
	Line int
}

func (t *Token) hasActualValue() bool {
	switch t.Kind {
	case RESERVED_WORD, IDENT, WHOLE_NUMBER, FLOAT, STRING, CSTRING, INLINE_C:
		return true
	}

	return false
}

func (t *Token) Is(kind TokenKind, value string) bool {
	return t.Kind == kind && t.Value == value
}

func (t *Token) String() string {
	if !t.hasActualValue() {
		return fmt.Sprintf("%s()", t.Kind)
	}

	return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
}
