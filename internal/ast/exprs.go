package ast

type Expression interface {
	AstNode
	exprNode()
}

// IntLiteral keeps the decimal text of an arbitrary-precision integer.
type IntLiteral struct {
	Value string
}

type FloatLiteral struct {
	Value float64
}

type StringLiteral struct {
	Value string
}

type CstringLiteral struct {
	Value string
}

// InlineC is foreign code passed through verbatim. It is both an expression
// and a function body.
type InlineC struct {
	Code string
}

// Extern marks a function defined outside the module.
type Extern struct{}

type FunctionCall struct {
	Identifier string
	Arguments  []Expression
}

func (*IntLiteral) AstNode()     {}
func (*FloatLiteral) AstNode()   {}
func (*StringLiteral) AstNode()  {}
func (*CstringLiteral) AstNode() {}
func (*InlineC) AstNode()        {}
func (*Extern) AstNode()         {}
func (*FunctionCall) AstNode()   {}

func (*IntLiteral) exprNode()     {}
func (*FloatLiteral) exprNode()   {}
func (*StringLiteral) exprNode()  {}
func (*CstringLiteral) exprNode() {}
func (*InlineC) exprNode()        {}
func (*Extern) exprNode()         {}
func (*FunctionCall) exprNode()   {}

// ExpressionKind names the variant of expr as it appears in diagnostics and
// in the object format.
func ExpressionKind(expr Expression) string {
	switch expr.(type) {
	case *IntLiteral:
		return "IntLiteral"
	case *FloatLiteral:
		return "FloatLiteral"
	case *StringLiteral:
		return "StringLiteral"
	case *CstringLiteral:
		return "CstringLiteral"
	case *InlineC:
		return "InlineC"
	case *Extern:
		return "Extern"
	case *FunctionCall:
		return "FunctionCall"
	}
	return "unknown"
}
