package ast

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sanity-io/litter"
)

func sampleModule() *Module {
	return &Module{
		CompilerVersion: CompilerVersion,
		Functions: []*FunctionDeclaration{
			{
				Identifier: "printf",
				Parameters: []ParamDeclaration{
					&NamedParam{Name: "format", Type: "mut ptr :- i8"},
					&Varargs{},
				},
				ReturnType: "inative",
				Body:       &Extern{},
			},
			{
				Identifier: "helper",
				Parameters: []ParamDeclaration{},
				ReturnType: "void",
				Body:       &InlineC{Code: ` puts("hi"); `},
			},
			{
				Identifier: "main",
				Parameters: []ParamDeclaration{},
				ReturnType: "i32",
				Body: &Block{Statements: []Statement{
					&ExprStatement{Expression: &FunctionCall{
						Identifier: "printf",
						Arguments: []Expression{
							&CstringLiteral{Value: "%d %f\n"},
							&IntLiteral{Value: "42"},
							&FloatLiteral{Value: 2},
						},
					}},
					&ExprStatement{Expression: &FunctionCall{Identifier: "helper", Arguments: []Expression{}}},
					&ResultStatement{Expression: &IntLiteral{Value: "0"}},
				}},
			},
		},
	}
}

func TestSignatureIsDerived(t *testing.T) {
	m := sampleModule()

	tests := []struct {
		function *FunctionDeclaration
		want     string
	}{
		{m.Functions[0], "funct(mut ptr :- i8, varargs) => inative"},
		{m.Functions[1], "funct() => void"},
		{m.Functions[2], "funct() => i32"},
	}

	for _, tt := range tests {
		if got := tt.function.Signature(); got != tt.want {
			t.Errorf("%s.Signature() = %q, want %q", tt.function.Identifier, got, tt.want)
		}
	}

	m.Functions[1].Parameters = append(m.Functions[1].Parameters, &NamedParam{Name: "x", Type: "u8"})
	if got := m.Functions[1].Signature(); got != "funct(u8) => void" {
		t.Errorf("signature did not follow the parameters: %q", got)
	}
}

func TestFunctionHelpers(t *testing.T) {
	m := sampleModule()
	printf := m.Functions[0]

	if !printf.HasVarargs() || m.Functions[2].HasVarargs() {
		t.Error("HasVarargs is wrong")
	}
	if fixed := printf.FixedParameters(); len(fixed) != 1 || fixed[0].Name != "format" {
		t.Errorf("FixedParameters() = %s", litter.Sdump(fixed))
	}
	if !printf.IsBodiless() || !m.Functions[1].IsBodiless() || m.Functions[2].IsBodiless() {
		t.Error("IsBodiless is wrong")
	}

	block := m.Functions[2].Body.(*Block)
	result, ok := block.Result()
	if !ok || result.Expression.(*IntLiteral).Value != "0" {
		t.Error("Block.Result did not return the trailing result statement")
	}
	if _, ok := (&Block{}).Result(); ok {
		t.Error("empty block has no result")
	}
}

func TestRender(t *testing.T) {
	got := Render(sampleModule())
	want := `let printf : funct(format: mut ptr :- i8, varargs) => inative = extern;

let helper : funct() => void = #{ puts("hi"); }#;

let main : funct() => i32 = {
    printf(c"%d %f
", 42, 2.0);
    helper();
    result 0;
};
`
	if got != want {
		t.Errorf("Render mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderExpression(t *testing.T) {
	tests := []struct {
		expr Expression
		want string
	}{
		{&IntLiteral{Value: "7"}, "7"},
		{&FloatLiteral{Value: 0.25}, "0.25"},
		{&FloatLiteral{Value: 1e21}, "1000000000000000000000.0"},
		{&StringLiteral{Value: "s"}, `"s"`},
		{&CstringLiteral{Value: "s"}, `c"s"`},
		{&InlineC{Code: "x"}, "#{x}#"},
		{&FunctionCall{Identifier: "f", Arguments: []Expression{&FunctionCall{Identifier: "g"}, &IntLiteral{Value: "1"}}}, "f(g(), 1)"},
	}

	for _, tt := range tests {
		if got := RenderExpression(tt.expr); got != tt.want {
			t.Errorf("RenderExpression(%T) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}

func TestRenderEmptyBlock(t *testing.T) {
	m := &Module{Functions: []*FunctionDeclaration{{Identifier: "f", ReturnType: "void", Body: &Block{}}}}
	if got := Render(m); got != "let f : funct() => void = { };\n" {
		t.Errorf("Render = %q", got)
	}
}

func TestObjectRoundTrip(t *testing.T) {
	m := sampleModule()

	data, err := MarshalModule(m)
	if err != nil {
		t.Fatalf("MarshalModule: %v", err)
	}
	if !strings.Contains(string(data), `"signature": "funct(mut ptr :- i8, varargs) => inative"`) {
		t.Errorf("signature not written:\n%s", data)
	}
	if !strings.Contains(string(data), `{"format": "mut ptr :- i8"}`) && !strings.Contains(string(data), `"format": "mut ptr :- i8"`) {
		t.Errorf("named parameter not written as a singleton mapping:\n%s", data)
	}

	loaded, err := UnmarshalModule(data)
	if err != nil {
		t.Fatalf("UnmarshalModule: %v", err)
	}
	if !reflect.DeepEqual(m, loaded) {
		t.Errorf("round trip mismatch\nwant: %s\ngot:  %s", litter.Sdump(m), litter.Sdump(loaded))
	}
}

func TestUnmarshalIgnoresStoredSignature(t *testing.T) {
	data := `{"type":"Module","compilerVersion":"0.1.0","functions":[
		{"type":"FunctionDeclaration","identifier":"f","signature":"funct(i8) => i8",
		 "parameters":[],"returnType":"void","body":{"type":"Block","value":[]}}]}`

	m, err := UnmarshalModule([]byte(data))
	if err != nil {
		t.Fatalf("UnmarshalModule: %v", err)
	}
	if got := m.Functions[0].Signature(); got != "funct() => void" {
		t.Errorf("signature = %q", got)
	}
}

func TestUnmarshalRejectsMalformedObjects(t *testing.T) {
	fn := func(params, returnType, body string) string {
		return `{"type":"Module","compilerVersion":"0.1.0","functions":[{"type":"FunctionDeclaration",` +
			`"identifier":"f","parameters":` + params + `,"returnType":"` + returnType + `","body":` + body + `}]}`
	}
	emptyBlock := `{"type":"Block","value":[]}`

	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `{`, "parse"},
		{"wrong root", `{"type":"Block"}`, "expected node of type Module"},
		{"unknown field", `{"type":"Module","functions":[],"extra":1}`, "unknown field"},
		{"bad return type", fn(`[]`, "int", emptyBlock), "return type"},
		{"void parameter", fn(`[{"a":"void"}]`, "void", emptyBlock), "parameter #0"},
		{"varargs not last", fn(`["varargs",{"a":"i8"}]`, "void", emptyBlock), "varargs must be the last parameter"},
		{"two names", fn(`[{"a":"i8","b":"i8"}]`, "void", emptyBlock), "exactly one name"},
		{"unknown marker", fn(`["rest"]`, "void", emptyBlock), "unknown parameter marker"},
		{"missing body", `{"type":"Module","functions":[{"type":"FunctionDeclaration","identifier":"f","parameters":[],"returnType":"void"}]}`, "missing body"},
		{"result not last", fn(`[]`, "i32", `{"type":"Block","value":[`+
			`{"type":"ResultStatement","body":{"type":"IntLiteral","value":"1"}},`+
			`{"type":"Statement","body":{"type":"IntLiteral","value":"2"}}]}`), "result statement must be the last"},
		{"bad int", fn(`[]`, "i32", `{"type":"Block","value":[`+
			`{"type":"ResultStatement","body":{"type":"IntLiteral","value":"0x1"}}]}`), "not a decimal integer"},
		{"unknown expression", fn(`[]`, "void", `{"type":"Block","value":[`+
			`{"type":"Statement","body":{"type":"Lambda"}}]}`), "unknown expression type"},
		{"unknown body", fn(`[]`, "void", `{"type":"Loop"}`), "unknown function body type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalModule([]byte(tt.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}
