// Package symtab implements the compiler's two-scope symbol table: a class
// scope that persists for the whole class and a subroutine scope that is
// reset at the start of every method/function/constructor.
package symtab

import "fmt"

// Kind is a symbol's storage class. Each Kind maps to exactly one scope
// (Static/Field live in the class scope, Argument/Local in the subroutine
// scope) and exactly one VM memory segment.
type Kind string

const (
	Static   Kind = "static"
	Field    Kind = "field"
	Argument Kind = "argument"
	Local    Kind = "local"
)

func (k Kind) classScoped() bool { return k == Static || k == Field }

// Symbol is one declared name: its Jack type, storage kind, and the
// zero-based slot index assigned within its kind in insertion order.
type Symbol struct {
	Name  string
	Type  string
	Kind  Kind
	Index int
}

// Table owns the class-scope and subroutine-scope symbol maps, along with
// the per-kind counters that hand out slot indices.
type Table struct {
	class    map[string]Symbol
	sub      map[string]Symbol
	counters map[Kind]int
}

// New returns an empty symbol table, ready for one class's compilation.
func New() *Table {
	return &Table{
		class:    make(map[string]Symbol),
		sub:      make(map[string]Symbol),
		counters: make(map[Kind]int),
	}
}

// StartSubroutine resets the subroutine scope and its counters. When
// isMethod is true, a synthetic (this, className, Argument, 0) entry is
// defined first so that user-declared arguments begin at index 1.
func (t *Table) StartSubroutine(isMethod bool, className string) {
	t.sub = make(map[string]Symbol)
	t.counters[Argument] = 0
	t.counters[Local] = 0
	if isMethod {
		// Ignore the error: "this" cannot already be defined in a table
		// that was just reset.
		_, _ = t.define(t.sub, "this", className, Argument)
	}
}

// Define adds a new symbol to the scope implied by kind, assigning it the
// next slot index for that kind. It fails with a DuplicateSymbol-flavored
// error if name is already declared in that scope.
func (t *Table) Define(name, declaredType string, kind Kind) (Symbol, error) {
	if kind.classScoped() {
		return t.define(t.class, name, declaredType, kind)
	}
	return t.define(t.sub, name, declaredType, kind)
}

func (t *Table) define(scope map[string]Symbol, name, declaredType string, kind Kind) (Symbol, error) {
	if _, exists := scope[name]; exists {
		return Symbol{}, fmt.Errorf("%q already declared in this scope", name)
	}
	sym := Symbol{Name: name, Type: declaredType, Kind: kind, Index: t.counters[kind]}
	t.counters[kind]++
	scope[name] = sym
	return sym, nil
}

// Resolve looks a name up, subroutine scope first, then class scope. It
// fails with an UndefinedSymbol-flavored error if name is in neither.
func (t *Table) Resolve(name string) (Symbol, error) {
	if sym, ok := t.sub[name]; ok {
		return sym, nil
	}
	if sym, ok := t.class[name]; ok {
		return sym, nil
	}
	return Symbol{}, fmt.Errorf("undefined symbol %q", name)
}

// Count returns the number of symbols currently declared of the given kind.
func (t *Table) Count(kind Kind) int {
	return t.counters[kind]
}
