package ast

type Statement interface {
	AstNode
	stmtNode()
	Expr() Expression
}

// ExprStatement evaluates an expression and discards its value.
type ExprStatement struct {
	Expression Expression
}

// ResultStatement yields the value of its block. It is always last.
type ResultStatement struct {
	Expression Expression
}

func (s *ExprStatement) Expr() Expression   { return s.Expression }
func (s *ResultStatement) Expr() Expression { return s.Expression }

func (*ExprStatement) AstNode()   {}
func (*ResultStatement) AstNode() {}

func (*ExprStatement) stmtNode()   {}
func (*ResultStatement) stmtNode() {}
