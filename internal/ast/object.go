package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/kievzenit/wlang/internal/types"
)

// The object format is the JSON form of a Module written to *.wlo.json.
// Nodes are tagged objects: {"type": "<kind>", ...}.

type moduleObject struct {
	Type            string            `json:"type"`
	CompilerVersion string            `json:"compilerVersion"`
	Functions       []*functionObject `json:"functions"`
}

type functionObject struct {
	Type       string            `json:"type"`
	Identifier string            `json:"identifier"`
	Signature  string            `json:"signature,omitempty"`
	Parameters []json.RawMessage `json:"parameters"`
	ReturnType types.ValueType   `json:"returnType"`
	Body       *nodeObject       `json:"body"`
}

type nodeObject struct {
	Type       string          `json:"type"`
	Value      json.RawMessage `json:"value,omitempty"`
	Body       *nodeObject     `json:"body,omitempty"`
	Identifier string          `json:"identifier,omitempty"`
	Arguments  []*nodeObject   `json:"arguments,omitempty"`
}

// MarshalModule encodes m in the object format.
func MarshalModule(m *Module) ([]byte, error) {
	obj := &moduleObject{
		Type:            "Module",
		CompilerVersion: m.CompilerVersion,
		Functions:       make([]*functionObject, 0, len(m.Functions)),
	}
	if obj.CompilerVersion == "" {
		obj.CompilerVersion = CompilerVersion
	}

	for _, f := range m.Functions {
		fo, err := functionToObject(f)
		if err != nil {
			return nil, fmt.Errorf("object: function %q: %w", f.Identifier, err)
		}
		obj.Functions = append(obj.Functions, fo)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("object: marshal: %w", err)
	}
	return buf.Bytes(), nil
}

func functionToObject(f *FunctionDeclaration) (*functionObject, error) {
	params := make([]json.RawMessage, 0, len(f.Parameters))
	for _, param := range f.Parameters {
		var raw []byte
		var err error
		switch p := param.(type) {
		case *NamedParam:
			raw, err = json.Marshal(map[string]types.ValueType{p.Name: p.Type})
		case *Varargs:
			raw, err = json.Marshal(VarargsKeyword)
		default:
			return nil, fmt.Errorf("unknown parameter %T", param)
		}
		if err != nil {
			return nil, err
		}
		params = append(params, raw)
	}

	var body *nodeObject
	switch b := f.Body.(type) {
	case *Extern:
		body = &nodeObject{Type: "Extern", Value: mustRaw("extern")}
	case *InlineC:
		body = &nodeObject{Type: "InlineC", Value: mustRaw(b.Code)}
	case *Block:
		statements := make([]*nodeObject, 0, len(b.Statements))
		for _, stmt := range b.Statements {
			so, err := statementToObject(stmt)
			if err != nil {
				return nil, err
			}
			statements = append(statements, so)
		}
		body = &nodeObject{Type: "Block", Value: mustRaw(statements)}
	default:
		return nil, fmt.Errorf("unknown function body %T", f.Body)
	}

	return &functionObject{
		Type:       "FunctionDeclaration",
		Identifier: f.Identifier,
		Signature:  f.Signature(),
		Parameters: params,
		ReturnType: f.ReturnType,
		Body:       body,
	}, nil
}

func statementToObject(stmt Statement) (*nodeObject, error) {
	expr, err := expressionToObject(stmt.Expr())
	if err != nil {
		return nil, err
	}

	switch stmt.(type) {
	case *ExprStatement:
		return &nodeObject{Type: "Statement", Body: expr}, nil
	case *ResultStatement:
		return &nodeObject{Type: "ResultStatement", Body: expr}, nil
	}
	return nil, fmt.Errorf("unknown statement %T", stmt)
}

func expressionToObject(expr Expression) (*nodeObject, error) {
	switch e := expr.(type) {
	case *IntLiteral:
		return &nodeObject{Type: "IntLiteral", Value: mustRaw(e.Value)}, nil
	case *FloatLiteral:
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		return &nodeObject{Type: "FloatLiteral", Value: raw}, nil
	case *StringLiteral:
		return &nodeObject{Type: "StringLiteral", Value: mustRaw(e.Value)}, nil
	case *CstringLiteral:
		return &nodeObject{Type: "CstringLiteral", Value: mustRaw(e.Value)}, nil
	case *InlineC:
		return &nodeObject{Type: "InlineC", Value: mustRaw(e.Code)}, nil
	case *Extern:
		return &nodeObject{Type: "Extern", Value: mustRaw("extern")}, nil
	case *FunctionCall:
		args := make([]*nodeObject, 0, len(e.Arguments))
		for _, arg := range e.Arguments {
			ao, err := expressionToObject(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, ao)
		}
		return &nodeObject{
			Type:       "FunctionCall",
			Value:      mustRaw(e.Identifier + "()"),
			Identifier: e.Identifier,
			Arguments:  args,
		}, nil
	}
	return nil, fmt.Errorf("unknown expression %T", expr)
}

func mustRaw(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// UnmarshalModule decodes an object file and checks the structural
// invariants the parser would have enforced: well-formed types, varargs
// last, result statements last. The stored signature is ignored.
func UnmarshalModule(data []byte) (*Module, error) {
	var obj moduleObject
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("object: parse: %w", err)
	}

	if obj.Type != "Module" {
		return nil, fmt.Errorf("object: expected node of type Module, got %q", obj.Type)
	}

	m := &Module{
		CompilerVersion: obj.CompilerVersion,
		Functions:       make([]*FunctionDeclaration, 0, len(obj.Functions)),
	}
	for i, fo := range obj.Functions {
		if fo == nil {
			return nil, fmt.Errorf("object: function #%d is null", i)
		}
		f, err := functionFromObject(fo)
		if err != nil {
			return nil, fmt.Errorf("object: function %q: %w", fo.Identifier, err)
		}
		m.Functions = append(m.Functions, f)
	}
	return m, nil
}

func functionFromObject(fo *functionObject) (*FunctionDeclaration, error) {
	if fo.Type != "FunctionDeclaration" {
		return nil, fmt.Errorf("expected node of type FunctionDeclaration, got %q", fo.Type)
	}
	if fo.Identifier == "" {
		return nil, fmt.Errorf("missing identifier")
	}
	if err := types.ValidateReturnType(fo.ReturnType); err != nil {
		return nil, fmt.Errorf("return type: %w", err)
	}

	params := make([]ParamDeclaration, 0, len(fo.Parameters))
	for i, raw := range fo.Parameters {
		param, err := paramFromObject(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter #%d: %w", i, err)
		}
		if _, ok := param.(*Varargs); ok && i != len(fo.Parameters)-1 {
			return nil, fmt.Errorf("parameter #%d: varargs must be the last parameter", i)
		}
		params = append(params, param)
	}

	if fo.Body == nil {
		return nil, fmt.Errorf("missing body")
	}
	body, err := bodyFromObject(fo.Body)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}

	return &FunctionDeclaration{
		Identifier: fo.Identifier,
		Parameters: params,
		ReturnType: fo.ReturnType,
		Body:       body,
	}, nil
}

func paramFromObject(raw json.RawMessage) (ParamDeclaration, error) {
	var keyword string
	if err := json.Unmarshal(raw, &keyword); err == nil {
		if keyword != VarargsKeyword {
			return nil, fmt.Errorf("unknown parameter marker %q", keyword)
		}
		return &Varargs{}, nil
	}

	var named map[string]types.ValueType
	if err := json.Unmarshal(raw, &named); err != nil {
		return nil, err
	}
	if len(named) != 1 {
		return nil, fmt.Errorf("expected exactly one name, got %d", len(named))
	}

	for name, typ := range named {
		if err := types.Validate(typ); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &NamedParam{Name: name, Type: typ}, nil
	}
	panic("unreachable")
}

func bodyFromObject(no *nodeObject) (FunctionBody, error) {
	switch no.Type {
	case "Extern":
		return &Extern{}, nil
	case "InlineC":
		var code string
		if err := json.Unmarshal(no.Value, &code); err != nil {
			return nil, fmt.Errorf("InlineC: %w", err)
		}
		return &InlineC{Code: code}, nil
	case "Block":
		var statements []*nodeObject
		if len(no.Value) > 0 {
			if err := json.Unmarshal(no.Value, &statements); err != nil {
				return nil, fmt.Errorf("Block: %w", err)
			}
		}

		block := &Block{Statements: make([]Statement, 0, len(statements))}
		for i, so := range statements {
			stmt, err := statementFromObject(so)
			if err != nil {
				return nil, fmt.Errorf("statement #%d: %w", i, err)
			}
			if _, ok := stmt.(*ResultStatement); ok && i != len(statements)-1 {
				return nil, fmt.Errorf("statement #%d: result statement must be the last statement in a block", i)
			}
			block.Statements = append(block.Statements, stmt)
		}
		return block, nil
	}
	return nil, fmt.Errorf("unknown function body type %q", no.Type)
}

func statementFromObject(so *nodeObject) (Statement, error) {
	if so == nil || so.Body == nil {
		return nil, fmt.Errorf("missing expression")
	}

	expr, err := expressionFromObject(so.Body)
	if err != nil {
		return nil, err
	}

	switch so.Type {
	case "Statement":
		return &ExprStatement{Expression: expr}, nil
	case "ResultStatement":
		return &ResultStatement{Expression: expr}, nil
	}
	return nil, fmt.Errorf("unknown statement type %q", so.Type)
}

func expressionFromObject(no *nodeObject) (Expression, error) {
	if no == nil {
		return nil, fmt.Errorf("missing expression")
	}

	var text string
	decodeText := func() error {
		if err := json.Unmarshal(no.Value, &text); err != nil {
			return fmt.Errorf("%s: %w", no.Type, err)
		}
		return nil
	}

	switch no.Type {
	case "IntLiteral":
		if err := decodeText(); err != nil {
			return nil, err
		}
		value, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, fmt.Errorf("IntLiteral: %q is not a decimal integer", text)
		}
		return &IntLiteral{Value: value.String()}, nil
	case "FloatLiteral":
		var value float64
		if err := json.Unmarshal(no.Value, &value); err != nil {
			return nil, fmt.Errorf("FloatLiteral: %w", err)
		}
		return &FloatLiteral{Value: value}, nil
	case "StringLiteral":
		if err := decodeText(); err != nil {
			return nil, err
		}
		return &StringLiteral{Value: text}, nil
	case "CstringLiteral":
		if err := decodeText(); err != nil {
			return nil, err
		}
		return &CstringLiteral{Value: text}, nil
	case "InlineC":
		if err := decodeText(); err != nil {
			return nil, err
		}
		return &InlineC{Code: text}, nil
	case "Extern":
		return &Extern{}, nil
	case "FunctionCall":
		if no.Identifier == "" {
			return nil, fmt.Errorf("FunctionCall: missing identifier")
		}
		args := make([]Expression, 0, len(no.Arguments))
		for i, ao := range no.Arguments {
			arg, err := expressionFromObject(ao)
			if err != nil {
				return nil, fmt.Errorf("argument #%d of %s: %w", i, no.Identifier, err)
			}
			args = append(args, arg)
		}
		return &FunctionCall{Identifier: no.Identifier, Arguments: args}, nil
	}
	return nil, fmt.Errorf("unknown expression type %q", no.Type)
}
