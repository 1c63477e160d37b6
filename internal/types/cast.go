package types

import (
	"fmt"
	"strings"
)

// CastError explains why an implicit cast was rejected. Cause is set when the
// rejection comes from a nested pointee comparison.
type CastError struct {
	From   ValueType
	To     ValueType
	Reason string
	Cause  *CastError
}

// Messages returns the rejection reasons, innermost first.
func (e *CastError) Messages() []string {
	var messages []string
	if e.Cause != nil {
		messages = e.Cause.Messages()
	}
	return append(messages, e.Reason)
}

func (e *CastError) GetMessage() string {
	return strings.Join(e.Messages(), " ")
}

func (e *CastError) Error() string {
	return e.GetMessage()
}

func (e *CastError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

func castError(from, to ValueType, format string, args ...any) *CastError {
	return &CastError{
		From:   from,
		To:     to,
		Reason: fmt.Sprintf(format, args...),
	}
}

func CanImplicitlyCast(from, to ValueType) bool {
	return CheckImplicitCast(from, to) == nil
}

// CheckImplicitCast returns nil if a value of type from can be used where a
// value of type to is expected, or a *CastError naming the rule that failed.
func CheckImplicitCast(from, to ValueType) error {
	if err := checkImplicitCast(from, to); err != nil {
		return err
	}
	return nil
}

func checkImplicitCast(from, to ValueType) *CastError {
	if from == to {
		return nil
	}

	if !IsMut(from) && IsMut(to) {
		return castError(from, to,
			"Cannot implicitly cast non-mutable type `%s` to mutable type `%s`.", from, to)
	}

	fromIsPointer, toIsPointer := IsPointer(from), IsPointer(to)
	switch {
	case fromIsPointer && !toIsPointer:
		return castError(from, to,
			"Cannot implicitly cast pointer type `%s` to non-pointer type `%s`.", from, to)
	case !fromIsPointer && toIsPointer:
		return castError(from, to,
			"Cannot implicitly cast non-pointer type `%s` to pointer type `%s`.", from, to)
	case !fromIsPointer:
		if AsMut(from) != AsMut(to) {
			return castError(from, to, "Cannot implicitly cast `%s` to `%s`.", from, to)
		}
		return nil
	}

	if IsNullable(from) && !IsNullable(to) {
		return castError(from, to,
			"Cannot implicitly cast nullable type `%s` to non-nullable type `%s`.", from, to)
	}

	fromPointee, toPointee := PointeeOf(from), PointeeOf(to)
	if IsVoid(fromPointee) || IsVoid(toPointee) {
		return nil
	}

	fromPointeeIsPointer, toPointeeIsPointer := IsPointer(fromPointee), IsPointer(toPointee)
	switch {
	case fromPointeeIsPointer && toPointeeIsPointer:
		return checkImplicitCast(fromPointee, toPointee)
	case fromPointeeIsPointer || toPointeeIsPointer:
		return castError(from, to,
			"Cannot implicitly cast `%s` to `%s`, because one points to a pointer type, and the other does not.",
			from, to)
	}

	if cause := checkImplicitCast(fromPointee, toPointee); cause != nil {
		err := castError(from, to,
			"Pointers to `%s` and `%s` are incompatible.", fromPointee, toPointee)
		err.Cause = cause
		return err
	}
	return nil
}
