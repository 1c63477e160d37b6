// Package type_checker proves a module type-sound before it is handed to
// code generation. Unlike the lexer and parser it never aborts: every problem
// is collected and reported together with the overall verdict.
package type_checker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kievzenit/wlang/internal/ast"
	"github.com/kievzenit/wlang/internal/compiler_errors"
	"github.com/kievzenit/wlang/internal/types"
)

// FunctionDiagnostic groups the messages produced while checking one
// function. Function is empty for problems that concern the whole module.
type FunctionDiagnostic struct {
	Function string
	Messages []string
}

func (d *FunctionDiagnostic) GetMessage() string {
	var sb strings.Builder
	for _, message := range d.Messages {
		sb.WriteString(message)
		sb.WriteString("\n")
	}

	if d.Function == "" {
		sb.WriteString("^ Type error in module described above.")
	} else {
		fmt.Fprintf(&sb, "^ Type error in function `%s` described above.", d.Function)
	}
	return sb.String()
}

func (d *FunctionDiagnostic) Error() string {
	return d.GetMessage()
}

type Result struct {
	Sound       bool
	Diagnostics []*FunctionDiagnostic
}

// Report hands every diagnostic to eh.
func (r *Result) Report(eh compiler_errors.ErrorHandler) {
	for _, diagnostic := range r.Diagnostics {
		eh.AddError(diagnostic)
	}
}

type TypeChecker struct {
	module      *ast.Module
	lookupTable map[string]*ast.FunctionDeclaration

	messages []string
}

func NewTypeChecker(module *ast.Module) *TypeChecker {
	return &TypeChecker{
		module: module,
	}
}

// Check reports whether module is type-sound.
func Check(module *ast.Module) *Result {
	return NewTypeChecker(module).Check()
}

func (tc *TypeChecker) Check() *Result {
	return tc.isModuleTypeSound()
}

func (tc *TypeChecker) errorf(format string, args ...any) {
	tc.messages = append(tc.messages, fmt.Sprintf(format, args...))
}

// castFailed records the reasons of a failed structural cast, innermost first.
func (tc *TypeChecker) castFailed(err error) {
	var castErr *types.CastError
	if errors.As(err, &castErr) {
		tc.messages = append(tc.messages, castErr.Messages()...)
		return
	}
	tc.messages = append(tc.messages, err.Error())
}

// generateLookupTable maps every identifier to its first declaration. It is
// built before any check runs, so calls may refer to functions declared later.
func (tc *TypeChecker) generateLookupTable() []string {
	tc.lookupTable = make(map[string]*ast.FunctionDeclaration, len(tc.module.Functions))

	duplicates := make([]string, 0)
	for _, function := range tc.module.Functions {
		if _, ok := tc.lookupTable[function.Identifier]; ok {
			duplicates = append(duplicates, fmt.Sprintf(
				"Function `%s` is declared more than once.", function.Identifier))
			continue
		}
		tc.lookupTable[function.Identifier] = function
	}
	return duplicates
}

func (tc *TypeChecker) isFunctionCallValid(call *ast.FunctionCall) bool {
	function, ok := tc.lookupTable[call.Identifier]
	if !ok {
		tc.errorf("No function named `%s` could be found in scope.", call.Identifier)
		return false
	}

	arity := len(function.Parameters)
	argumentCount := len(call.Arguments)
	if arity == 0 && argumentCount == 0 {
		return true
	}

	hasVarargs := function.HasVarargs()
	if hasVarargs && argumentCount < arity-1 {
		tc.errorf(
			"Call to variadic function `%s` with signature `%s` must have at least %d arguments, but only %d arguments were passed.",
			function.Identifier, function.Signature(), arity-1, argumentCount)
		return false
	}
	if !hasVarargs && argumentCount != arity {
		adverb := "as many as"
		if argumentCount < arity {
			adverb = "only"
		}
		tc.errorf(
			"Call to function `%s` must have exactly %d arguments, but %s %d arguments were passed.",
			function.Identifier, arity, adverb, argumentCount)
		return false
	}

	valid := true
	fixed := function.FixedParameters()
	for i, argument := range call.Arguments {
		if i >= len(fixed) {
			// Values passed through varargs are unchecked, but calls among
			// them must still be valid calls.
			if nested, ok := argument.(*ast.FunctionCall); ok && !tc.isFunctionCallValid(nested) {
				valid = false
			}
			continue
		}

		if !tc.canImplicitlyCastExpression(argument, fixed[i].Type) {
			valid = false
			tc.errorf(
				"Expression `%s` cannot be implicitly cast to expected type `%s`.",
				ast.RenderExpression(argument), fixed[i].Type)
		}
	}
	return valid
}

func (tc *TypeChecker) canImplicitlyCastExpression(expr ast.Expression, target types.ValueType) bool {
	if types.IsVoid(target) {
		tc.errorf("Cannot cast a value to void.")
		return false
	}

	switch e := expr.(type) {
	case *ast.FunctionCall:
		function, ok := tc.lookupTable[e.Identifier]
		if !ok {
			tc.errorf(
				"Function `%s` was called but could not be found in scope. Did you forget to declare it?",
				e.Identifier)
			return false
		}

		castable := true
		if err := types.CheckImplicitCast(function.ReturnType, types.AsNonMut(target)); err != nil {
			tc.castFailed(err)
			tc.errorf(
				"Type error: function `%s` returns `%s`, which cannot be implicitly cast to `%s`.",
				e.Identifier, function.ReturnType, target)
			castable = false
		}

		if !tc.isFunctionCallValid(e) {
			tc.errorf("Invalid arguments were passed to the function `%s`.", e.Identifier)
			return false
		}
		return castable

	case *ast.IntLiteral:
		if !types.IsIntegral(target) {
			tc.errorf("Cannot implicitly cast integer literal to `%s`.", target)
			return false
		}
		return true

	case *ast.FloatLiteral:
		if !types.IsFloating(target) {
			tc.errorf("Cannot implicitly cast float literal to `%s`.", target)
			return false
		}
		return true

	case *ast.CstringLiteral:
		if err := types.CheckImplicitCast(types.CstringType, target); err != nil {
			tc.castFailed(err)
			tc.errorf(
				"Cannot implicitly cast cstring literal, which has type `%s`, to `%s`.",
				types.CstringType, target)
			return false
		}
		return true
	}

	tc.errorf(
		"Expressions of type %s are not supported in Wlang %s.",
		ast.ExpressionKind(expr), ast.CompilerVersion)
	return false
}

func (tc *TypeChecker) isBlockResultTypeCompatible(block *ast.Block, returnType types.ValueType) bool {
	result, ok := block.Result()
	if !ok {
		if !types.IsVoid(returnType) {
			tc.errorf("Non-void type was expected, but block does not end with a result statement.")
			return false
		}
		return true
	}

	if types.IsVoid(returnType) {
		tc.errorf("Cannot result a value from a function that returns `%s`.", returnType)
		if call, ok := result.Expression.(*ast.FunctionCall); ok {
			tc.isFunctionCallValid(call)
		}
		return false
	}

	if _, ok := result.Expression.(*ast.CstringLiteral); ok {
		tc.errorf("cstring literals cannot be directly returned from functions.")
		return false
	}

	if !tc.canImplicitlyCastExpression(result.Expression, returnType) {
		tc.errorf("Cannot result an expression from a function that can't be implicitly cast to that function's return type.")
		return false
	}
	return true
}

func (tc *TypeChecker) isFunctionDeclarationTypeSound(function *ast.FunctionDeclaration) bool {
	block, ok := function.Body.(*ast.Block)
	if !ok {
		// Extern and inline C bodies are opaque.
		return true
	}

	sound := tc.isBlockResultTypeCompatible(block, function.ReturnType)

	for _, statement := range block.Statements {
		// The result expression was already checked against the return type.
		if _, ok := statement.(*ast.ResultStatement); ok {
			continue
		}

		if call, ok := statement.Expr().(*ast.FunctionCall); ok && !tc.isFunctionCallValid(call) {
			sound = false
		}
	}
	return sound
}

func (tc *TypeChecker) isModuleTypeSound() *Result {
	result := &Result{
		Sound:       true,
		Diagnostics: make([]*FunctionDiagnostic, 0),
	}

	if duplicates := tc.generateLookupTable(); len(duplicates) > 0 {
		result.Sound = false
		result.Diagnostics = append(result.Diagnostics, &FunctionDiagnostic{Messages: duplicates})
	}

	for _, function := range tc.module.Functions {
		if function.IsBodiless() {
			continue
		}

		tc.messages = make([]string, 0)
		if !tc.isFunctionDeclarationTypeSound(function) {
			result.Sound = false
			result.Diagnostics = append(result.Diagnostics, &FunctionDiagnostic{
				Function: function.Identifier,
				Messages: tc.messages,
			})
		}
	}

	return result
}
