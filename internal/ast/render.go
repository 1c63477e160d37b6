package ast

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "    "

// Render prints a module back in source form. Parsing the output yields a
// module equal to m.
func Render(m *Module) string {
	var sb strings.Builder
	for i, function := range m.Functions {
		if i > 0 {
			sb.WriteString("\n")
		}
		renderFunction(&sb, function)
	}
	return sb.String()
}

func renderFunction(sb *strings.Builder, f *FunctionDeclaration) {
	params := make([]string, len(f.Parameters))
	for i, param := range f.Parameters {
		switch p := param.(type) {
		case *NamedParam:
			if p.Name == "" {
				params[i] = string(p.Type)
				continue
			}
			params[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
		case *Varargs:
			params[i] = VarargsKeyword
		default:
			panic(fmt.Sprintf("ast.Render: unknown parameter %T", param))
		}
	}

	fmt.Fprintf(sb, "let %s : funct(%s) => %s = ", f.Identifier, strings.Join(params, ", "), f.ReturnType)

	switch body := f.Body.(type) {
	case *Extern:
		sb.WriteString("extern")
	case *InlineC:
		sb.WriteString(renderInlineC(body))
	case *Block:
		renderBlock(sb, body)
	default:
		panic(fmt.Sprintf("ast.Render: unknown function body %T", f.Body))
	}

	sb.WriteString(";\n")
}

func renderBlock(sb *strings.Builder, b *Block) {
	if len(b.Statements) == 0 {
		sb.WriteString("{ }")
		return
	}

	sb.WriteString("{\n")
	for _, stmt := range b.Statements {
		sb.WriteString(indent)
		switch s := stmt.(type) {
		case *ExprStatement:
			sb.WriteString(RenderExpression(s.Expression))
		case *ResultStatement:
			sb.WriteString("result ")
			sb.WriteString(RenderExpression(s.Expression))
		default:
			panic(fmt.Sprintf("ast.Render: unknown statement %T", stmt))
		}
		sb.WriteString(";\n")
	}
	sb.WriteString("}")
}

// RenderExpression prints a single expression in source form.
func RenderExpression(expr Expression) string {
	switch e := expr.(type) {
	case *IntLiteral:
		return e.Value
	case *FloatLiteral:
		return renderFloat(e.Value)
	case *StringLiteral:
		return `"` + e.Value + `"`
	case *CstringLiteral:
		return `c"` + e.Value + `"`
	case *InlineC:
		return renderInlineC(e)
	case *Extern:
		return "extern"
	case *FunctionCall:
		args := make([]string, len(e.Arguments))
		for i, arg := range e.Arguments {
			args[i] = RenderExpression(arg)
		}
		return e.Identifier + "(" + strings.Join(args, ", ") + ")"
	}

	panic(fmt.Sprintf("ast.RenderExpression: unknown expression %T", expr))
}

// renderFloat always produces a literal the lexer reads back as a float.
func renderFloat(value float64) string {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}

func renderInlineC(c *InlineC) string {
	return "#{" + c.Code + "}#"
}
