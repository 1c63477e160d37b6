// Package types implements the structural type descriptors of Wlang.
//
// A ValueType is textual: `["mut "] Inner`, where Inner is a primitive name,
// `ptr :- T` or `ptr? :- T`. Every function in this package is pure.
package types

import (
	"fmt"
	"slices"
	"strings"
)

type ValueType string

const (
	Inative ValueType = "inative"
	Unative ValueType = "unative"
	I8      ValueType = "i8"
	U8      ValueType = "u8"
	I16     ValueType = "i16"
	U16     ValueType = "u16"
	I32     ValueType = "i32"
	U32     ValueType = "u32"
	I64     ValueType = "i64"
	U64     ValueType = "u64"
	Size    ValueType = "size"
	Float   ValueType = "float"
	Double  ValueType = "double"
	Void    ValueType = "void"
	Ptr     ValueType = "ptr"

	// CstringType is the type of a c"..." literal.
	CstringType ValueType = "mut ptr :- i8"
)

const (
	mutPrefix         = "mut "
	layerDelimiter    = " :- "
	pointerHead       = "ptr"
	nullablePointer   = "ptr?"
	pointerPrefix     = pointerHead + layerDelimiter
	nullablePtrPrefix = nullablePointer + layerDelimiter
)

var primitiveTypes = []ValueType{
	Inative, Unative,
	I8, U8, I16, U16,
	I32, U32, I64, U64,
	Size, Float, Double, Void, Ptr,
}

var integralTypes = []ValueType{
	Inative, Unative,
	I8, U8, I16, U16,
	I32, U32, I64, U64,
	Size,
}

func IsPrimitive(name string) bool {
	return slices.Contains(primitiveTypes, ValueType(name))
}

func IsIntegral(t ValueType) bool {
	return slices.Contains(integralTypes, AsNonMut(t))
}

func IsFloating(t ValueType) bool {
	inner := AsNonMut(t)
	return inner == Float || inner == Double
}

func IsVoid(t ValueType) bool {
	return AsNonMut(t) == Void
}

// IntegerBits reports the width and signedness of an integral type.
// Native and size types are treated as 64-bit.
func IntegerBits(t ValueType) (bits int, signed bool, ok bool) {
	switch AsNonMut(t) {
	case I8:
		return 8, true, true
	case U8:
		return 8, false, true
	case I16:
		return 16, true, true
	case U16:
		return 16, false, true
	case I32:
		return 32, true, true
	case U32:
		return 32, false, true
	case I64, Inative:
		return 64, true, true
	case U64, Unative, Size:
		return 64, false, true
	}

	return 0, false, false
}

func IsMut(t ValueType) bool {
	return strings.HasPrefix(string(t), mutPrefix)
}

func IsPointer(t ValueType) bool {
	return strings.HasPrefix(string(AsNonMut(t)), pointerHead)
}

// Decompose splits a type on its pointer-layer delimiter:
// `mut ptr :- ptr? :- i8` becomes [`mut ptr`, `ptr?`, `i8`].
func Decompose(t ValueType) []ValueType {
	parts := strings.Split(string(t), layerDelimiter)
	result := make([]ValueType, len(parts))
	for i, part := range parts {
		result[i] = ValueType(part)
	}
	return result
}

func Compose(components []ValueType) ValueType {
	parts := make([]string, len(components))
	for i, component := range components {
		parts[i] = string(component)
	}
	return ValueType(strings.Join(parts, layerDelimiter))
}

func IsNullable(t ValueType) bool {
	head := AsNonMut(Decompose(t)[0])
	return head == nullablePointer
}

// PointeeOf strips exactly one pointer layer. Bare `ptr` points to void.
// It panics if t is not a pointer.
func PointeeOf(t ValueType) ValueType {
	if !IsPointer(t) {
		panic(fmt.Sprintf("types.PointeeOf: `%s` is not a pointer type", t))
	}

	parts := Decompose(t)
	if len(parts) == 1 {
		return Void
	}
	return Compose(parts[1:])
}

func AsMut(t ValueType) ValueType {
	if IsMut(t) {
		return t
	}
	return ValueType(mutPrefix + string(t))
}

func AsNonMut(t ValueType) ValueType {
	return ValueType(strings.TrimPrefix(string(t), mutPrefix))
}

func Pointer(pointee ValueType) ValueType {
	return ValueType(pointerPrefix + string(pointee))
}

func NullablePointer(pointee ValueType) ValueType {
	return ValueType(nullablePtrPrefix + string(pointee))
}

type InvalidTypeError struct {
	Type   ValueType
	Reason string
}

func (e *InvalidTypeError) GetMessage() string {
	return fmt.Sprintf("invalid type `%s`: %s", e.Type, e.Reason)
}

func (e *InvalidTypeError) Error() string {
	return e.GetMessage()
}

// Validate checks that t is a well-formed argument or operand type.
func Validate(t ValueType) error {
	return validate(t, t, false)
}

// ValidateReturnType is Validate, except that `void` is accepted.
func ValidateReturnType(t ValueType) error {
	return validate(t, t, true)
}

func validate(whole, t ValueType, allowVoid bool) error {
	inner := AsNonMut(t)
	if IsMut(inner) {
		return &InvalidTypeError{Type: whole, Reason: "duplicate `mut` qualifier"}
	}

	s := string(inner)
	switch {
	case strings.HasPrefix(s, pointerPrefix):
		return validate(whole, ValueType(strings.TrimPrefix(s, pointerPrefix)), true)
	case strings.HasPrefix(s, nullablePtrPrefix):
		return validate(whole, ValueType(strings.TrimPrefix(s, nullablePtrPrefix)), true)
	case inner == Void:
		if !allowVoid {
			return &InvalidTypeError{Type: whole, Reason: "`void` is only allowed as a pointee or return type"}
		}
		return nil
	case IsPrimitive(s):
		return nil
	}

	return &InvalidTypeError{Type: whole, Reason: fmt.Sprintf("unknown type `%s`", s)}
}
