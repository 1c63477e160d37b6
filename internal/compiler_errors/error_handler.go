package compiler_errors

import (
	"fmt"
	"io"
	"strings"
)

type CompilerError interface {
	GetMessage() string
}

type ErrorHandler interface {
	AddError(err CompilerError)
	Errors() []CompilerError
	HasErrors() bool
	Report()
	FailNow()
}

// Abort is the value FailNow unwinds with. It is recovered by Catch at the
// package boundary that started the fatal phase.
type Abort struct {
	Errors []CompilerError
}

func (a *Abort) Error() string {
	messages := make([]string, len(a.Errors))
	for i, err := range a.Errors {
		messages[i] = err.GetMessage()
	}
	return strings.Join(messages, "\n")
}

type CompilerErrorHandler struct {
	errors []CompilerError
	writer io.Writer
}

func NewErrorHandler(outputWriter io.Writer) ErrorHandler {
	if outputWriter == nil {
		outputWriter = io.Discard
	}

	return &CompilerErrorHandler{
		errors: make([]CompilerError, 0),
		writer: outputWriter,
	}
}

func (eh *CompilerErrorHandler) AddError(err CompilerError) {
	eh.errors = append(eh.errors, err)
}

func (eh *CompilerErrorHandler) Errors() []CompilerError {
	return eh.errors
}

func (eh *CompilerErrorHandler) HasErrors() bool {
	return len(eh.errors) > 0
}

func (eh *CompilerErrorHandler) Report() {
	fmt.Fprintln(eh.writer, "Build failed with errors:")

	for _, err := range eh.errors {
		fmt.Fprintf(eh.writer, "ERROR: %s\n", err.GetMessage())
	}
}

func (eh *CompilerErrorHandler) FailNow() {
	eh.Report()

	errs := make([]CompilerError, len(eh.errors))
	copy(errs, eh.errors)
	panic(&Abort{Errors: errs})
}

// Catch converts an Abort raised by FailNow into an error. It must be
// deferred directly. Other panics are re-raised.
func Catch(errp *error) {
	r := recover()
	if r == nil {
		return
	}

	abort, ok := r.(*Abort)
	if !ok {
		panic(r)
	}

	if len(abort.Errors) == 1 {
		if err, ok := abort.Errors[0].(error); ok {
			*errp = err
			return
		}
	}
	*errp = abort
}

// SourceLine renders a 1-indexed source line the way every lexer and parser
// diagnostic quotes it.
func SourceLine(line int, text string) string {
	return fmt.Sprintf("%4d | %s", line, text)
}
