package parser

import (
	"fmt"
	"io"

	"github.com/kievzenit/wlang/internal/ast"
	"github.com/kievzenit/wlang/internal/compiler_errors"
	"github.com/kievzenit/wlang/internal/lexer"
	"github.com/kievzenit/wlang/internal/types"
)

type SyntaxError struct {
	Message string

	Line     int
	LineText string
}

func (e *SyntaxError) GetMessage() string {
	return fmt.Sprintf(
		"Syntax error: %s on line %d\n%s",
		e.Message,
		e.Line,
		compiler_errors.SourceLine(e.Line, e.LineText))
}

func (e *SyntaxError) Error() string {
	return e.GetMessage()
}

func describe(token *lexer.Token) string {
	if token.Kind == lexer.EOF {
		return "end of file"
	}
	return fmt.Sprintf("%s `%s`", token.Kind, token.Value)
}

func newUnexpectedExpectedError(token *lexer.Token, expected lexer.TokenKind, value string) string {
	if value != "" {
		return fmt.Sprintf("expected %s `%s`, got %s", expected, value, describe(token))
	}
	return fmt.Sprintf("expected %s, got %s", expected, describe(token))
}

// Parser is a recursive-descent parser with one token of lookahead.
type Parser struct {
	scanner lexer.TokenScanner
	lines   lexer.LineSource
	eh      compiler_errors.ErrorHandler

	curr lexer.Token
	// line of the token before curr
	prevLine int
}

// NewParser creates a parser reading from scanner. lines is used to quote
// the offending source line in syntax errors and may be nil.
func NewParser(
	scanner lexer.TokenScanner,
	lines lexer.LineSource,
	eh compiler_errors.ErrorHandler,
) *Parser {
	if eh == nil {
		eh = compiler_errors.NewErrorHandler(io.Discard)
	}

	return &Parser{
		scanner: scanner,
		lines:   lines,
		eh:      eh,
	}
}

// ParseSource lexes and parses a complete source text.
func ParseSource(src []byte, eh compiler_errors.ErrorHandler) (*ast.Module, error) {
	l := lexer.NewLexer(src, eh)
	return NewParser(l, l, eh).Parse()
}

// Parse parses a whole module. The first lexical or syntax error aborts the
// parse and is returned.
func (p *Parser) Parse() (module *ast.Module, err error) {
	defer compiler_errors.Catch(&err)

	p.read()
	return p.parseModule(), nil
}

func (p *Parser) parseModule() *ast.Module {
	functions := make([]*ast.FunctionDeclaration, 0)
	for p.curr.Kind != lexer.EOF {
		functions = append(functions, p.parseFunctionDeclaration())
	}

	return &ast.Module{
		CompilerVersion: ast.CompilerVersion,
		Functions:       functions,
	}
}

// let <identifier> : funct ( <params> ) => <type> = <body> ;
func (p *Parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	p.consume(lexer.RESERVED_WORD, lexer.LET)
	identifier := p.curr.Value
	p.consume(lexer.IDENT)
	p.consume(lexer.COLON)
	p.consume(lexer.RESERVED_WORD, lexer.FUNCT)
	p.consume(lexer.LPAREN)

	parameters := make([]ast.ParamDeclaration, 0)
	for p.curr.Kind != lexer.RPAREN {
		if p.curr.Is(lexer.RESERVED_WORD, lexer.VARARGS) {
			p.consume(lexer.RESERVED_WORD, lexer.VARARGS)
			parameters = append(parameters, &ast.Varargs{})
			if p.curr.Kind != lexer.RPAREN {
				p.fail("varargs must be the last parameter")
			}
			continue
		}

		// The name is optional in declarations that only describe a signature.
		var name string
		if p.curr.Kind == lexer.IDENT {
			name = p.curr.Value
			p.consume(lexer.IDENT)
			p.consume(lexer.COLON)
		}
		paramType := p.parseValueType()
		if types.IsVoid(paramType) {
			p.fail(fmt.Sprintf("parameter #%d cannot have type `%s`", len(parameters), paramType))
		}
		parameters = append(parameters, &ast.NamedParam{Name: name, Type: paramType})

		if p.curr.Kind == lexer.COMMA {
			p.consume(lexer.COMMA)
		} else if p.curr.Kind != lexer.RPAREN {
			p.fail("closing parenthesis expected in parameter list, got " + describe(&p.curr))
		}
	}
	p.consume(lexer.RPAREN)
	p.consume(lexer.ARROW)

	returnType := p.parseValueType()
	p.consume(lexer.ASSIGN)

	var body ast.FunctionBody
	switch p.curr.Kind {
	case lexer.RESERVED_WORD:
		p.consume(lexer.RESERVED_WORD, lexer.EXTERN)
		body = &ast.Extern{}
	case lexer.INLINE_C:
		body = &ast.InlineC{Code: p.curr.Value}
		p.consume(lexer.INLINE_C)
	default:
		body = p.parseBlock()
	}

	p.consume(lexer.SEMICOLON)

	return &ast.FunctionDeclaration{
		Identifier: identifier,
		Parameters: parameters,
		ReturnType: returnType,
		Body:       body,
	}
}

func (p *Parser) parseValueType() types.ValueType {
	switch {
	case p.curr.Is(lexer.RESERVED_WORD, lexer.MUT):
		p.consume(lexer.RESERVED_WORD, lexer.MUT)
		if p.curr.Is(lexer.RESERVED_WORD, lexer.MUT) {
			p.fail("duplicate `mut` qualifier")
		}
		return types.AsMut(p.parseValueType())

	case p.curr.Is(lexer.RESERVED_WORD, string(types.Ptr)):
		p.consume(lexer.RESERVED_WORD, string(types.Ptr))
		if p.curr.Kind == lexer.QMARK {
			p.consume(lexer.QMARK)
			p.consume(lexer.COLONDASH)
			return types.NullablePointer(p.parseValueType())
		}
		if p.curr.Kind != lexer.COLONDASH {
			return types.Ptr
		}
		p.consume(lexer.COLONDASH)
		return types.Pointer(p.parseValueType())

	case p.curr.Kind == lexer.RESERVED_WORD && types.IsPrimitive(p.curr.Value):
		primitive := types.ValueType(p.curr.Value)
		p.consume(lexer.RESERVED_WORD)
		return primitive
	}

	p.fail("expected type, got " + describe(&p.curr))
	panic("unreachable")
}

// { <statement>* }
func (p *Parser) parseBlock() *ast.Block {
	p.consume(lexer.LBRACE)

	statements := make([]ast.Statement, 0)
	for p.curr.Kind != lexer.RBRACE {
		if len(statements) > 0 {
			if _, ok := statements[len(statements)-1].(*ast.ResultStatement); ok {
				p.fail("result statement must be the last statement in a block")
			}
		}
		statements = append(statements, p.parseStatement())
	}
	p.consume(lexer.RBRACE)

	return &ast.Block{Statements: statements}
}

func (p *Parser) parseStatement() ast.Statement {
	var statement ast.Statement
	if p.curr.Kind == lexer.RESERVED_WORD {
		statement = p.parseResultStatement()
	} else {
		statement = &ast.ExprStatement{Expression: p.parseExpression()}
	}

	p.consume(lexer.SEMICOLON)
	return statement
}

func (p *Parser) parseResultStatement() *ast.ResultStatement {
	p.consume(lexer.RESERVED_WORD, lexer.RESULT)
	return &ast.ResultStatement{Expression: p.parseExpression()}
}

func (p *Parser) parseExpression() ast.Expression {
	token := p.curr

	switch token.Kind {
	case lexer.WHOLE_NUMBER:
		p.consume(lexer.WHOLE_NUMBER)
		return &ast.IntLiteral{Value: token.Int.String()}
	case lexer.FLOAT:
		p.consume(lexer.FLOAT)
		return &ast.FloatLiteral{Value: token.Float}
	case lexer.STRING:
		p.consume(lexer.STRING)
		return &ast.StringLiteral{Value: token.Value}
	case lexer.CSTRING:
		p.consume(lexer.CSTRING)
		return &ast.CstringLiteral{Value: token.Value}
	case lexer.INLINE_C:
		p.consume(lexer.INLINE_C)
		return &ast.InlineC{Code: token.Value}
	}

	return p.parseFunctionCall()
}

// <identifier> ( <expression> {, <expression>} )
func (p *Parser) parseFunctionCall() *ast.FunctionCall {
	if p.curr.Kind != lexer.IDENT {
		p.fail("expected expression, got " + describe(&p.curr))
	}
	identifier := p.curr.Value
	p.consume(lexer.IDENT)
	p.consume(lexer.LPAREN)

	arguments := make([]ast.Expression, 0)
	for p.curr.Kind != lexer.RPAREN {
		arguments = append(arguments, p.parseExpression())

		if p.curr.Kind == lexer.COMMA {
			p.consume(lexer.COMMA)
		} else if p.curr.Kind != lexer.RPAREN {
			p.fail(newUnexpectedExpectedError(&p.curr, lexer.RPAREN, ""))
		}
	}
	p.consume(lexer.RPAREN)

	return &ast.FunctionCall{
		Identifier: identifier,
		Arguments:  arguments,
	}
}

// consume checks that the current token has the expected kind, and value if
// one is given, then advances.
func (p *Parser) consume(kind lexer.TokenKind, value ...string) {
	if p.curr.Kind != kind {
		expected := ""
		if len(value) > 0 {
			expected = value[0]
		}
		p.fail(newUnexpectedExpectedError(&p.curr, kind, expected))
	}

	if len(value) > 0 && p.curr.Value != value[0] {
		p.fail(fmt.Sprintf("expected `%s`, got `%s`", value[0], p.curr.Value))
	}

	p.read()
}

func (p *Parser) read() {
	p.prevLine = p.curr.Line
	p.curr = p.scanner.Read()
}

func (p *Parser) fail(message string) {
	// EOF sits past the last line, so blame the last token read instead.
	line := p.curr.Line
	if p.curr.Kind == lexer.EOF && p.prevLine > 0 {
		line = p.prevLine
	}

	lineText := ""
	if p.lines != nil {
		lineText = p.lines.LineText(line)
	}

	p.eh.AddError(&SyntaxError{
		Message: message,

		Line:     line,
		LineText: lineText,
	})
	p.eh.FailNow()
	panic("unreachable")
}
