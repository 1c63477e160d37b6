package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sanity-io/litter"

	"github.com/kievzenit/wlang/internal/ast"
	"github.com/kievzenit/wlang/internal/lexer"
	"github.com/kievzenit/wlang/internal/types"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()

	module, err := ParseSource([]byte(src), nil)
	if err != nil {
		t.Fatalf("ParseSource(%q): %v", src, err)
	}
	return module
}

func TestParseEmptyFunction(t *testing.T) {
	module := parse(t, "let f : funct() => void = { };")

	want := &ast.Module{
		CompilerVersion: ast.CompilerVersion,
		Functions: []*ast.FunctionDeclaration{{
			Identifier: "f",
			Parameters: []ast.ParamDeclaration{},
			ReturnType: types.Void,
			Body:       &ast.Block{Statements: []ast.Statement{}},
		}},
	}
	if !reflect.DeepEqual(module, want) {
		t.Errorf("got %s\nwant %s", litter.Sdump(module), litter.Sdump(want))
	}
}

func TestParseResultStatement(t *testing.T) {
	module := parse(t, "let f : funct() => i32 = { result 5; };")

	block := module.Functions[0].Body.(*ast.Block)
	result, ok := block.Result()
	if !ok {
		t.Fatalf("no result statement: %s", litter.Sdump(block))
	}
	if lit, ok := result.Expression.(*ast.IntLiteral); !ok || lit.Value != "5" {
		t.Errorf("result expression = %s", litter.Sdump(result.Expression))
	}
}

func TestParseExternWithVarargs(t *testing.T) {
	module := parse(t, `
		let g : funct(mut ptr :- i8, varargs) => inative = extern;
		let f : funct() => inative = { result g(c"hi", 1); };
	`)

	if len(module.Functions) != 2 {
		t.Fatalf("got %d functions", len(module.Functions))
	}

	g := module.Functions[0]
	if _, ok := g.Body.(*ast.Extern); !ok {
		t.Errorf("g body = %T", g.Body)
	}
	if got := g.Signature(); got != "funct(mut ptr :- i8, varargs) => inative" {
		t.Errorf("g signature = %q", got)
	}

	if format := g.Parameters[0].(*ast.NamedParam); format.Name != "" || format.Type != "mut ptr :- i8" {
		t.Errorf("unnamed parameter = %s", litter.Sdump(format))
	}

	call := module.Functions[1].Body.(*ast.Block).Statements[0].Expr().(*ast.FunctionCall)
	want := &ast.FunctionCall{
		Identifier: "g",
		Arguments: []ast.Expression{
			&ast.CstringLiteral{Value: "hi"},
			&ast.IntLiteral{Value: "1"},
		},
	}
	if !reflect.DeepEqual(call, want) {
		t.Errorf("got %s\nwant %s", litter.Sdump(call), litter.Sdump(want))
	}
}

func TestParseValueTypes(t *testing.T) {
	tests := []struct {
		src  string
		want types.ValueType
	}{
		{"i8", "i8"},
		{"mut u64", "mut u64"},
		{"ptr", "ptr"},
		{"ptr :- i8", "ptr :- i8"},
		{"mut ptr :- i8", "mut ptr :- i8"},
		{"ptr? :- mut i8", "ptr? :- mut i8"},
		{"ptr :- ptr? :- void", "ptr :- ptr? :- void"},
		{"mut ptr :- mut ptr :- size", "mut ptr :- mut ptr :- size"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			module := parse(t, "let f : funct(x: "+tt.src+") => void = extern;")
			param := module.Functions[0].Parameters[0].(*ast.NamedParam)
			if param.Type != tt.want {
				t.Errorf("parsed %q, want %q", param.Type, tt.want)
			}
		})
	}
}

func TestParseInlineC(t *testing.T) {
	module := parse(t, `
		let c_abs : funct(x: i32) => i32 = #{ return x < 0 ? -x : x; }#;
		let f : funct() => void = { #{ puts("hi"); }#; };
	`)

	if body, ok := module.Functions[0].Body.(*ast.InlineC); !ok || body.Code != " return x < 0 ? -x : x; " {
		t.Errorf("inline C body = %s", litter.Sdump(module.Functions[0].Body))
	}

	stmt := module.Functions[1].Body.(*ast.Block).Statements[0]
	if expr, ok := stmt.Expr().(*ast.InlineC); !ok || expr.Code != ` puts("hi"); ` {
		t.Errorf("inline C expression = %s", litter.Sdump(stmt))
	}
}

func TestParseLiterals(t *testing.T) {
	module := parse(t, `let f : funct() => void = { g(0x10, 2.5, "s", c"c", h()); };`)

	call := module.Functions[0].Body.(*ast.Block).Statements[0].Expr().(*ast.FunctionCall)
	want := []ast.Expression{
		&ast.IntLiteral{Value: "16"},
		&ast.FloatLiteral{Value: 2.5},
		&ast.StringLiteral{Value: "s"},
		&ast.CstringLiteral{Value: "c"},
		&ast.FunctionCall{Identifier: "h", Arguments: []ast.Expression{}},
	}
	if !reflect.DeepEqual(call.Arguments, want) {
		t.Errorf("got %s\nwant %s", litter.Sdump(call.Arguments), litter.Sdump(want))
	}
}

func TestParseEmptySource(t *testing.T) {
	module := parse(t, "  // nothing here\n")
	if len(module.Functions) != 0 {
		t.Errorf("expected no functions, got %d", len(module.Functions))
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		want string
	}{
		{"missing semicolon", "let f : funct() => void = { }", 1, "end of file"},
		{"missing let", "f : funct() => void = extern;", 1, "expected RESERVED_WORD `let`"},
		{"keyword instead of let", "funct f", 1, "expected `let`, got `funct`"},
		{"unknown type", "let f : funct() => int = extern;", 1, "expected type"},
		{"void parameter", "let f : funct(a: void) => void = extern;", 1, "cannot have type `void`"},
		{"double mut", "let f : funct(a: mut mut i8) => void = extern;", 1, "duplicate `mut`"},
		{"nullable without pointee", "let f : funct(a: ptr?) => void = extern;", 1, "expected COLONDASH"},
		{"varargs not last", "let f : funct(varargs, a: i8) => void = extern;", 1, "varargs must be the last parameter"},
		{"missing comma in parameters", "let f : funct(a: i8 b: i8) => void = extern;", 1, "closing parenthesis expected"},
		{"missing comma in arguments", "let f : funct() => void = {\n  g(1 2);\n};", 2, "expected RPAREN"},
		{"statement after result", "let f : funct() => i32 = {\n  result 1;\n  g();\n};", 3, "result statement must be the last"},
		{"not an expression", "let f : funct() => void = { ; };", 1, "expected expression"},
		{"lexer error", "let f : funct() => void = { @ };", 1, "unexpected character '@'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource([]byte(tt.src), nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}

			var syntaxErr *SyntaxError
			if errors.As(err, &syntaxErr) && syntaxErr.Line != tt.line {
				t.Errorf("error on line %d, want %d", syntaxErr.Line, tt.line)
			}
		})
	}
}

func TestSyntaxErrorQuotesLine(t *testing.T) {
	_, err := ParseSource([]byte("let f : funct() => void = {\n  g(1 2);\n};"), nil)

	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if syntaxErr.LineText != "  g(1 2);" {
		t.Errorf("LineText = %q", syntaxErr.LineText)
	}
	if !strings.Contains(syntaxErr.GetMessage(), "   2 |   g(1 2);") {
		t.Errorf("message does not quote the source line:\n%s", syntaxErr.GetMessage())
	}
}

func TestSyntaxErrorAtEndOfFile(t *testing.T) {
	_, err := ParseSource([]byte("let f : funct() => void = { }\n\n"), nil)

	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if syntaxErr.Line != 1 || syntaxErr.LineText != "let f : funct() => void = { }" {
		t.Errorf("error on line %d %q, want line 1", syntaxErr.Line, syntaxErr.LineText)
	}
}

func TestParseFromSimpleScanner(t *testing.T) {
	tokens := lexer.NewLexer([]byte("let f : funct() => void = extern;"), nil).Tokenize()

	module, err := NewParser(lexer.NewTokenScanner(tokens), nil, nil).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(module.Functions) != 1 || module.Functions[0].Identifier != "f" {
		t.Errorf("got %s", litter.Sdump(module))
	}
}

func TestRenderRoundTrip(t *testing.T) {
	src := `
		let printf : funct(format: mut ptr :- i8, varargs) => inative = extern;
		let puts : funct(mut ptr :- i8) => i32 = extern;
		let abs : funct(x: i32) => i32 = #{ return x < 0 ? -x : x; }#;
		let id : funct(p: ptr? :- mut u8, n: size) => ptr? :- mut u8 = { result id(p, 1); };
		let empty : funct() => void = { };
		let main : funct() => i32 = {
			printf(c"%d %f", abs(0xff), 2.0);
			#{ fflush(stdout); }#;
			result 0;
		};
	`
	first := parse(t, src)
	second := parse(t, ast.Render(first))

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip mismatch\nfirst:  %s\nsecond: %s", litter.Sdump(first), litter.Sdump(second))
	}
	if ast.Render(first) != ast.Render(second) {
		t.Error("rendering is not stable")
	}
}

func TestSignatureIsDeterministic(t *testing.T) {
	src := "let f : funct(a: i8, b: mut ptr :- u8, varargs) => double = extern;"

	first := parse(t, src).Functions[0].Signature()
	second := parse(t, src).Functions[0].Signature()
	if first != second || first != "funct(i8, mut ptr :- u8, varargs) => double" {
		t.Errorf("signatures %q and %q", first, second)
	}
}
