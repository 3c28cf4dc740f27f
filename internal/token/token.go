// Package token defines the lexical tokens produced by the Jack tokenizer.
package token

import (
	"strconv"

	"github.com/nand2tetris/jackc/internal/fileinput"
)

// Kind classifies a Token's lexical category.
type Kind string

// The five token kinds of the Jack lexical grammar.
const (
	Invalid     Kind = ""
	Keyword     Kind = "keyword"
	Symbol      Kind = "symbol"
	IntConst    Kind = "integerConstant"
	StringConst Kind = "stringConstant"
	Identifier  Kind = "identifier"
)

// Keywords is the set of the 21 reserved words of the Jack grammar.
var Keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true, "int": true, "char": true,
	"boolean": true, "void": true, "true": true, "false": true, "null": true,
	"this": true, "let": true, "do": true, "if": true, "else": true,
	"while": true, "return": true,
}

// Symbols is the set of single-character Jack symbol tokens.
const Symbols = "{}()[].,;+-*/&|<>=~"

// Token is an immutable (kind, lexeme) pair with the source location it was
// scanned from, carried purely for diagnostics.
type Token struct {
	Kind Kind
	Text string
	Loc  fileinput.Location
}

// Int parses an IntConst token's text as a 16-bit machine word. Jack integer
// literals are constrained to [0, 32767] by the grammar; Int panics on a
// value outside that range or on unparseable text. The tokenizer's
// integerConstant regex accepts any run of digits, so an out-of-range
// literal in the source reaches here and panics.
func (t Token) Int() int {
	n, err := strconv.Atoi(t.Text)
	if err != nil || n < 0 || n > 32767 {
		panic("token: invalid integer constant " + strconv.Quote(t.Text))
	}
	return n
}

// Is reports whether the token is a Symbol or Keyword with exactly this text.
func (t Token) Is(text string) bool {
	return (t.Kind == Symbol || t.Kind == Keyword) && t.Text == text
}

// IsAny reports whether the token's text matches any of the given terminals.
func (t Token) IsAny(texts ...string) bool {
	for _, text := range texts {
		if t.Is(text) {
			return true
		}
	}
	return false
}

func (t Token) String() string { return t.Text }
