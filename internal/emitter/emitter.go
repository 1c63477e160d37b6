package emitter

import (
	"fmt"
	"math"
	"math/big"

	"github.com/kievzenit/wlang/internal/ast"
	"github.com/kievzenit/wlang/internal/compiler_errors"
	"github.com/kievzenit/wlang/internal/types"
	"tinygo.org/x/go-llvm"
)

type EmitError struct {
	Function string
	Message  string
}

func (e *EmitError) GetMessage() string {
	if e.Function == "" {
		return fmt.Sprintf("Emit error: %s", e.Message)
	}
	return fmt.Sprintf("Emit error in function `%s`: %s", e.Function, e.Message)
}

func (e *EmitError) Error() string {
	return e.GetMessage()
}

type Option func(*Emitter)

func WithModuleName(name string) Option {
	return func(e *Emitter) {
		e.moduleName = name
	}
}

func WithTargetTriple(triple string) Option {
	return func(e *Emitter) {
		e.targetTriple = triple
	}
}

// Emitter lowers a type-sound module to LLVM IR. Calls to variadic
// functions pass integer literals as i32 (i64 if they do not fit) and float
// literals as double.
type Emitter struct {
	astModule *ast.Module

	moduleName   string
	targetTriple string

	typesMap     map[types.ValueType]llvm.Type
	funcsMap     map[string]llvm.Value
	declarations map[string]*ast.FunctionDeclaration

	context llvm.Context
	module  llvm.Module
	builder llvm.Builder

	currentFunc *ast.FunctionDeclaration
}

func NewEmitter(module *ast.Module, options ...Option) *Emitter {
	e := &Emitter{
		astModule: module,

		moduleName: "main",

		typesMap:     make(map[types.ValueType]llvm.Type),
		funcsMap:     make(map[string]llvm.Value),
		declarations: make(map[string]*ast.FunctionDeclaration),
	}
	for _, option := range options {
		option(e)
	}

	return e
}

// Emit builds and verifies the LLVM module. The module lives in its own
// context; the caller owns both and releases them with Dispose.
func (e *Emitter) Emit() (module llvm.Module, err error) {
	e.context = llvm.NewContext()
	e.module = e.context.NewModule(e.moduleName)
	e.builder = e.context.NewBuilder()

	defer func() {
		e.builder.Dispose()
		if err != nil {
			e.module.Dispose()
			e.context.Dispose()
			module = llvm.Module{}
		}
	}()
	defer compiler_errors.Catch(&err)

	if e.targetTriple != "" {
		e.module.SetTarget(e.targetTriple)
	}

	e.declareTypes()
	e.declareFuncPrototypes()

	for _, function := range e.astModule.Functions {
		e.emitForFunctionDeclaration(function)
	}

	if verifyErr := llvm.VerifyModule(e.module, llvm.ReturnStatusAction); verifyErr != nil {
		return llvm.Module{}, &EmitError{Message: verifyErr.Error()}
	}
	return e.module, nil
}

// Dispose frees a module returned by Emit together with its context.
func Dispose(module llvm.Module) {
	context := module.Context()
	module.Dispose()
	context.Dispose()
}

func (e *Emitter) fail(message string, args ...any) {
	err := &EmitError{Message: fmt.Sprintf(message, args...)}
	if e.currentFunc != nil {
		err.Function = e.currentFunc.Identifier
	}

	panic(&compiler_errors.Abort{Errors: []compiler_errors.CompilerError{err}})
}

func (e *Emitter) declareTypes() {
	e.typesMap[types.I8] = e.context.Int8Type()
	e.typesMap[types.U8] = e.context.Int8Type()
	e.typesMap[types.I16] = e.context.Int16Type()
	e.typesMap[types.U16] = e.context.Int16Type()
	e.typesMap[types.I32] = e.context.Int32Type()
	e.typesMap[types.U32] = e.context.Int32Type()
	e.typesMap[types.I64] = e.context.Int64Type()
	e.typesMap[types.U64] = e.context.Int64Type()

	e.typesMap[types.Inative] = e.context.Int64Type()
	e.typesMap[types.Unative] = e.context.Int64Type()
	e.typesMap[types.Size] = e.context.Int64Type()

	e.typesMap[types.Float] = e.context.FloatType()
	e.typesMap[types.Double] = e.context.DoubleType()

	e.typesMap[types.Void] = e.context.VoidType()
	e.typesMap[types.Ptr] = llvm.PointerType(e.context.Int8Type(), 0)
}

func (e *Emitter) getLlvmTypeForType(t types.ValueType) llvm.Type {
	t = types.AsNonMut(t)

	if types.IsPointer(t) && t != types.Ptr {
		pointee := types.PointeeOf(t)
		if types.IsVoid(pointee) {
			return llvm.PointerType(e.context.Int8Type(), 0)
		}
		return llvm.PointerType(e.getLlvmTypeForType(pointee), 0)
	}

	if llvmType, ok := e.typesMap[t]; ok {
		return llvmType
	}

	e.fail("type `%s` has no LLVM representation", t)
	panic("unreachable")
}

func (e *Emitter) declareFuncPrototypes() {
	for _, function := range e.astModule.Functions {
		if _, ok := e.funcsMap[function.Identifier]; ok {
			e.fail("function `%s` is declared more than once", function.Identifier)
		}

		returnType := e.getLlvmTypeForType(function.ReturnType)
		params := function.FixedParameters()
		argsTypes := make([]llvm.Type, 0, len(params))
		for _, param := range params {
			argsTypes = append(argsTypes, e.getLlvmTypeForType(param.Type))
		}

		funcType := llvm.FunctionType(returnType, argsTypes, function.HasVarargs())
		funcValue := llvm.AddFunction(e.module, function.Identifier, funcType)
		for i, param := range params {
			if param.Name != "" {
				funcValue.Param(i).SetName(param.Name)
			}
		}

		e.funcsMap[function.Identifier] = funcValue
		e.declarations[function.Identifier] = function
	}
}

func (e *Emitter) emitForFunctionDeclaration(function *ast.FunctionDeclaration) {
	e.currentFunc = function
	defer func() { e.currentFunc = nil }()

	switch body := function.Body.(type) {
	case *ast.Extern:
		return
	case *ast.InlineC:
		e.fail("inline C bodies cannot be lowered to LLVM IR")
	case *ast.Block:
		e.emitForBlock(e.funcsMap[function.Identifier], body)
	default:
		e.fail("unsupported function body %T", function.Body)
	}
}

func (e *Emitter) emitForBlock(funcValue llvm.Value, block *ast.Block) {
	entryBasicBlock := e.context.AddBasicBlock(funcValue, "entry")
	e.builder.SetInsertPointAtEnd(entryBasicBlock)

	for _, statement := range block.Statements {
		switch stmt := statement.(type) {
		case *ast.ExprStatement:
			e.emitForExprStatement(stmt)
		case *ast.ResultStatement:
			value := e.emitForExpression(stmt.Expression, e.currentFunc.ReturnType)
			e.builder.CreateRet(value)
			return
		}
	}

	if !types.IsVoid(e.currentFunc.ReturnType) {
		e.fail("block does not end with a result statement")
	}
	e.builder.CreateRetVoid()
}

func (e *Emitter) emitForExprStatement(stmt *ast.ExprStatement) {
	switch expr := stmt.Expression.(type) {
	case *ast.FunctionCall:
		e.emitForFunctionCall(expr)
	case *ast.InlineC:
		e.fail("inline C expressions cannot be lowered to LLVM IR")
	default:
		// A literal on its own has no effect.
	}
}

// emitForExpression lowers expr as a value of type target. An empty target
// means the value is passed through varargs.
func (e *Emitter) emitForExpression(expr ast.Expression, target types.ValueType) llvm.Value {
	switch ex := expr.(type) {
	case *ast.IntLiteral:
		return e.emitForIntLiteral(ex, target)
	case *ast.FloatLiteral:
		floatType := e.context.DoubleType()
		if target != "" {
			floatType = e.getLlvmTypeForType(target)
		}
		return llvm.ConstFloat(floatType, ex.Value)
	case *ast.CstringLiteral:
		return e.builder.CreateGlobalStringPtr(ex.Value, "cstr")
	case *ast.FunctionCall:
		return e.emitForFunctionCall(ex)
	}

	e.fail("expressions of type %s cannot be lowered to LLVM IR", ast.ExpressionKind(expr))
	panic("unreachable")
}

// emitForIntLiteral wraps literals wider than the target modulo 2^bits, the
// way C converts integers.
func (e *Emitter) emitForIntLiteral(literal *ast.IntLiteral, target types.ValueType) llvm.Value {
	value, ok := new(big.Int).SetString(literal.Value, 10)
	if !ok {
		e.fail("malformed integer literal `%s`", literal.Value)
	}

	bits := 32
	if target != "" {
		if bits, _, ok = types.IntegerBits(target); !ok {
			e.fail("integer literal cannot be lowered to `%s`", target)
		}
	} else if !fitsInt32(value) {
		bits = 64
	}

	mask := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	mask.Sub(mask, big.NewInt(1))
	wrapped := new(big.Int).And(value, mask)

	return llvm.ConstInt(e.context.IntType(bits), wrapped.Uint64(), false)
}

func fitsInt32(value *big.Int) bool {
	return value.IsInt64() && value.Int64() >= math.MinInt32 && value.Int64() <= math.MaxInt32
}

func (e *Emitter) emitForFunctionCall(call *ast.FunctionCall) llvm.Value {
	funcValue, ok := e.funcsMap[call.Identifier]
	if !ok {
		e.fail("call to undeclared function `%s`", call.Identifier)
	}

	params := e.declarations[call.Identifier].FixedParameters()
	args := make([]llvm.Value, 0, len(call.Arguments))
	for i, arg := range call.Arguments {
		var target types.ValueType
		if i < len(params) {
			target = params[i].Type
		}
		args = append(args, e.emitForExpression(arg, target))
	}

	return e.builder.CreateCall(funcValue.GlobalValueType(), funcValue, args, "")
}
