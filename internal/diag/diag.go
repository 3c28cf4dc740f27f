// Package diag implements the compiler's error taxonomy: every fault a
// class's compilation can raise carries a Kind and a source Location, and
// renders as a single "path:line: kind: message" line (the CLI inserts the
// "ERROR: " marker before the kind when it reports one).
package diag

import (
	"fmt"

	"github.com/nand2tetris/jackc/internal/fileinput"
)

// Kind names one of the fixed error categories the compiler can raise.
type Kind string

const (
	// LexicalError is an unrecognized character or unterminated string.
	LexicalError Kind = "LexicalError"
	// UnexpectedToken is a grammar mismatch; Message carries expected vs actual.
	UnexpectedToken Kind = "UnexpectedToken"
	// UndefinedSymbol is an identifier used as a value that resolves in
	// neither the subroutine nor the class scope.
	UndefinedSymbol Kind = "UndefinedSymbol"
	// DuplicateSymbol is a re-declaration of a name already in scope.
	DuplicateSymbol Kind = "DuplicateSymbol"
	// InternalAssertion marks a compiler defect (e.g. an unpatched function
	// header placeholder) rather than a fault in the input program.
	InternalAssertion Kind = "InternalAssertion"
)

// Error is the single error type raised by the lexer and compile engine.
// It is always fatal for the class being compiled.
type Error struct {
	Kind    Kind
	Loc     fileinput.Location
	Message string
}

// New constructs an Error of the given kind, located at loc.
func New(kind Kind, loc fileinput.Location, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Loc, e.Kind, e.Message)
}

// Unexpected builds an UnexpectedToken error describing a grammar mismatch:
// expected names what the parser wanted, got is the lexeme it actually saw.
func Unexpected(loc fileinput.Location, expected []string, got string) *Error {
	switch len(expected) {
	case 0:
		return New(UnexpectedToken, loc, "unexpected token %q", got)
	case 1:
		return New(UnexpectedToken, loc, "expected %q, got %q", expected[0], got)
	default:
		return New(UnexpectedToken, loc, "expected one of %q, got %q", expected, got)
	}
}
