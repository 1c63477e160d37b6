// Package ast defines the syntax tree of a Wlang module.
//
// Every sum type (ParamDeclaration, FunctionBody, Statement, Expression) is
// closed: its variants are the types in this package carrying the matching
// unexported marker method. Nodes are built once by the parser or the object
// loader and never mutated afterwards.
package ast

import (
	"strings"

	"github.com/kievzenit/wlang/internal/types"
)

// CompilerVersion is recorded in every module and in persisted objects.
const CompilerVersion = "0.3.0"

type AstNode interface {
	AstNode()
}

type Module struct {
	CompilerVersion string
	Functions       []*FunctionDeclaration
}

type FunctionDeclaration struct {
	Identifier string
	Parameters []ParamDeclaration
	ReturnType types.ValueType
	Body       FunctionBody
}

// Signature renders `funct(<parameter types>) => <return type>`. It is always
// derived from Parameters and ReturnType.
func (f *FunctionDeclaration) Signature() string {
	params := make([]string, len(f.Parameters))
	for i, param := range f.Parameters {
		switch p := param.(type) {
		case *NamedParam:
			params[i] = string(p.Type)
		case *Varargs:
			params[i] = VarargsKeyword
		default:
			panic("unreachable")
		}
	}

	return "funct(" + strings.Join(params, ", ") + ") => " + string(f.ReturnType)
}

func (f *FunctionDeclaration) HasVarargs() bool {
	for _, param := range f.Parameters {
		if _, ok := param.(*Varargs); ok {
			return true
		}
	}
	return false
}

// FixedParameters returns the named parameters, in order.
func (f *FunctionDeclaration) FixedParameters() []*NamedParam {
	named := make([]*NamedParam, 0, len(f.Parameters))
	for _, param := range f.Parameters {
		if p, ok := param.(*NamedParam); ok {
			named = append(named, p)
		}
	}
	return named
}

// IsBodiless reports whether the function has no body the checker can see.
func (f *FunctionDeclaration) IsBodiless() bool {
	switch f.Body.(type) {
	case *Extern, *InlineC:
		return true
	}
	return false
}

const VarargsKeyword = "varargs"

type ParamDeclaration interface {
	AstNode
	paramDeclarationNode()
}

// NamedParam is a fixed parameter. Name is empty when the declaration only
// describes a signature, as is common for extern functions.
type NamedParam struct {
	Name string
	Type types.ValueType
}

type Varargs struct{}

type FunctionBody interface {
	AstNode
	functionBodyNode()
}

type Block struct {
	Statements []Statement
}

// Result returns the trailing result statement, if any.
func (b *Block) Result() (*ResultStatement, bool) {
	if len(b.Statements) == 0 {
		return nil, false
	}
	result, ok := b.Statements[len(b.Statements)-1].(*ResultStatement)
	return result, ok
}

func (*Module) AstNode()              {}
func (*FunctionDeclaration) AstNode() {}
func (*NamedParam) AstNode()          {}
func (*Varargs) AstNode()             {}
func (*Block) AstNode()               {}

func (*NamedParam) paramDeclarationNode() {}
func (*Varargs) paramDeclarationNode()    {}

func (*Block) functionBodyNode()   {}
func (*Extern) functionBodyNode()  {}
func (*InlineC) functionBodyNode() {}
