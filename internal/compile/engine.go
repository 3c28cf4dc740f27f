// Package compile implements the Jack compilation engine: a recursive
// descent parser that consumes tokens and emits VM code as it goes,
// building no intermediate AST, in the manner of the reference compiler's
// panic-driven recursive_decent_parser.
package compile

import (
	"fmt"
	"io"

	"github.com/nand2tetris/jackc/internal/diag"
	"github.com/nand2tetris/jackc/internal/fileinput"
	"github.com/nand2tetris/jackc/internal/lookahead"
	"github.com/nand2tetris/jackc/internal/symtab"
	"github.com/nand2tetris/jackc/internal/token"
	"github.com/nand2tetris/jackc/internal/vmcode"
)

// tokenSource adapts anything with a Next() (token.Token, error) method to
// lookahead.Source[token.Token]; lexer.Lexer already satisfies it directly.
type tokenSource interface {
	Next() (token.Token, error)
}

// Engine compiles one Jack class's tokens into one VM instruction buffer.
// A fresh Engine is constructed per source file; nothing here is
// package-level, so a batch driver can compile many files in one process
// without cross-contamination.
type Engine struct {
	toks    *lookahead.Stream[token.Token]
	syms    *symtab.Table
	buf     *vmcode.Buffer
	w       vmcode.Writer
	class   string
	lastLoc fileinput.Location
}

// New constructs an Engine reading tokens from src.
func New(src tokenSource) *Engine {
	buf := &vmcode.Buffer{}
	return &Engine{
		toks: lookahead.New[token.Token](src),
		syms: symtab.New(),
		buf:  buf,
		w:    vmcode.Writer{Buf: buf},
	}
}

// Compile runs compileClass to completion and returns the resulting
// instruction buffer. Any error aborts the whole compilation; the buffer
// returned alongside an error is never written by callers (see
// vmcode.Buffer's "no partial output" contract).
func (e *Engine) Compile() (*vmcode.Buffer, error) {
	if err := e.compileClass(); err != nil {
		return nil, err
	}
	if idxs := e.buf.Unpatched(); len(idxs) > 0 {
		return nil, diag.New(diag.InternalAssertion, e.lastLoc, "unpatched function header placeholder at buffer index %v", idxs)
	}
	return e.buf, nil
}

// next pulls the next token, converting a bare io.EOF into an
// UnexpectedToken diagnostic, since the grammar never legitimately wants
// the stream to end mid-production.
func (e *Engine) next() token.Token {
	t, err := e.toks.Next()
	if err != nil {
		if err == io.EOF {
			panic(diag.New(diag.UnexpectedToken, e.lastLoc, "unexpected end of input"))
		}
		panic(err)
	}
	e.lastLoc = t.Loc
	return t
}

func (e *Engine) peek() token.Token {
	t, err := e.toks.Peek()
	if err != nil {
		if err == io.EOF {
			return token.Token{}
		}
		panic(err)
	}
	return t
}

func (e *Engine) expect(texts ...string) token.Token {
	t := e.next()
	if !t.IsAny(texts...) {
		panic(diag.Unexpected(t.Loc, texts, t.Text))
	}
	return t
}

func (e *Engine) expectIdentifier() token.Token {
	t := e.next()
	if t.Kind != token.Identifier {
		panic(diag.Unexpected(t.Loc, []string{"identifier"}, t.Text))
	}
	return t
}

func (e *Engine) label(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, e.toks.Count())
}

func (e *Engine) resolve(name string, loc fileinput.Location) symtab.Symbol {
	sym, err := e.syms.Resolve(name)
	if err != nil {
		panic(diag.New(diag.UndefinedSymbol, loc, "%s", err))
	}
	return sym
}

func (e *Engine) define(name, declaredType string, kind symtab.Kind, loc fileinput.Location) symtab.Symbol {
	sym, err := e.syms.Define(name, declaredType, kind)
	if err != nil {
		panic(diag.New(diag.DuplicateSymbol, loc, "%s", err))
	}
	return sym
}

func segmentFor(kind symtab.Kind) vmcode.Segment {
	switch kind {
	case symtab.Static:
		return vmcode.Static
	case symtab.Field:
		return vmcode.This
	case symtab.Argument:
		return vmcode.Argument
	case symtab.Local:
		return vmcode.Local
	default:
		panic("compile: unmapped symbol kind " + string(kind))
	}
}

// ---- class ----

var classVarKeywords = []string{"static", "field"}
var typeKeywords = []string{"int", "char", "boolean"}
var subroutineKeywords = []string{"constructor", "function", "method"}

func (e *Engine) compileClass() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if derr, ok := r.(error); ok {
				err = derr
				return
			}
			panic(r)
		}
	}()

	e.expect("class")
	e.class = e.expectIdentifier().Text
	e.expect("{")

	for e.peek().IsAny(classVarKeywords...) {
		e.compileClassVarDec()
	}
	for e.peek().IsAny(subroutineKeywords...) {
		e.compileSubroutine()
	}
	e.expect("}")
	return nil
}

func (e *Engine) compileClassVarDec() {
	kindTok := e.expect(classVarKeywords...)
	kind := symtab.Static
	if kindTok.Text == "field" {
		kind = symtab.Field
	}
	declaredType := e.compileType()
	name := e.expectIdentifier()
	e.define(name.Text, declaredType, kind, name.Loc)
	for e.peek().Is(",") {
		e.next()
		name = e.expectIdentifier()
		e.define(name.Text, declaredType, kind, name.Loc)
	}
	e.expect(";")
}

// compileType accepts a primitive keyword or a class-name identifier and
// returns its text.
func (e *Engine) compileType() string {
	t := e.next()
	if t.IsAny(typeKeywords...) || t.Kind == token.Identifier {
		return t.Text
	}
	panic(diag.Unexpected(t.Loc, append(append([]string{}, typeKeywords...), "identifier"), t.Text))
}

// ---- subroutine ----

func (e *Engine) compileSubroutine() {
	subKind := e.expect(subroutineKeywords...).Text

	// Return type: void or a type.
	if e.peek().Is("void") {
		e.next()
	} else {
		e.compileType()
	}

	name := e.expectIdentifier().Text
	e.syms.StartSubroutine(subKind == "method", e.class)

	e.expect("(")
	e.compileParameterList()
	e.expect(")")

	fnName := e.class + "." + name
	placeholder := e.w.Function(fnName)

	switch subKind {
	case "constructor":
		e.w.Push(vmcode.Constant, e.syms.Count(symtab.Field))
		e.w.Call("Memory.alloc", 1)
		e.w.Pop(vmcode.Pointer, 0)
	case "method":
		e.w.Push(vmcode.Argument, 0)
		e.w.Pop(vmcode.Pointer, 0)
	}

	e.expect("{")
	for e.peek().Is("var") {
		e.compileVarDec()
	}
	e.compileStatements()
	e.expect("}")

	e.w.PatchLocals(placeholder, fnName, e.syms.Count(symtab.Local))
}

func (e *Engine) compileParameterList() {
	if e.peek().Is(")") {
		return
	}
	e.compileParameter()
	for e.peek().Is(",") {
		e.next()
		e.compileParameter()
	}
}

func (e *Engine) compileParameter() {
	declaredType := e.compileType()
	name := e.expectIdentifier()
	e.define(name.Text, declaredType, symtab.Argument, name.Loc)
}

func (e *Engine) compileVarDec() {
	e.expect("var")
	declaredType := e.compileType()
	name := e.expectIdentifier()
	e.define(name.Text, declaredType, symtab.Local, name.Loc)
	for e.peek().Is(",") {
		e.next()
		name = e.expectIdentifier()
		e.define(name.Text, declaredType, symtab.Local, name.Loc)
	}
	e.expect(";")
}

// ---- statements ----

var statementKeywords = []string{"let", "if", "while", "do", "return"}

func (e *Engine) compileStatements() {
	for e.peek().IsAny(statementKeywords...) {
		switch e.peek().Text {
		case "let":
			e.compileLet()
		case "if":
			e.compileIf()
		case "while":
			e.compileWhile()
		case "do":
			e.compileDo()
		case "return":
			e.compileReturn()
		}
	}
}

func (e *Engine) compileLet() {
	e.expect("let")
	name := e.expectIdentifier()
	sym := e.resolve(name.Text, name.Loc)
	seg := segmentFor(sym.Kind)

	if e.peek().Is("[") {
		e.next()
		e.compileExpression()
		e.expect("]")
		e.w.Push(seg, sym.Index)
		e.w.Arithmetic(vmcode.Add)

		e.expect("=")
		e.compileExpression()
		e.expect(";")

		e.w.Pop(vmcode.Temp, 0)
		e.w.Pop(vmcode.Pointer, 1)
		e.w.Push(vmcode.Temp, 0)
		e.w.Pop(vmcode.That, 0)
		return
	}

	e.expect("=")
	e.compileExpression()
	e.expect(";")
	e.w.Pop(seg, sym.Index)
}

func (e *Engine) compileIf() {
	e.expect("if")
	elseLabel := e.label("IF_ELSE")
	endLabel := e.label("IF_END")

	e.expect("(")
	e.compileExpression()
	e.expect(")")
	e.w.Arithmetic(vmcode.Not)
	e.w.IfGoto(elseLabel)

	e.expect("{")
	e.compileStatements()
	e.expect("}")

	if e.peek().Is("else") {
		e.w.Goto(endLabel)
		e.w.Label(elseLabel)
		e.next()
		e.expect("{")
		e.compileStatements()
		e.expect("}")
		e.w.Label(endLabel)
	} else {
		e.w.Label(elseLabel)
	}
}

func (e *Engine) compileWhile() {
	e.expect("while")
	topLabel := e.label("WHILE_TOP")
	endLabel := e.label("WHILE_END")

	e.w.Label(topLabel)
	e.expect("(")
	e.compileExpression()
	e.expect(")")
	e.w.Arithmetic(vmcode.Not)
	e.w.IfGoto(endLabel)

	e.expect("{")
	e.compileStatements()
	e.expect("}")
	e.w.Goto(topLabel)
	e.w.Label(endLabel)
}

func (e *Engine) compileDo() {
	e.expect("do")
	e.compileSubroutineCall(e.expectIdentifier())
	e.expect(";")
	e.w.Pop(vmcode.Temp, 0)
}

func (e *Engine) compileReturn() {
	e.expect("return")
	if e.peek().Is(";") {
		e.w.Push(vmcode.Constant, 0)
	} else {
		e.compileExpression()
	}
	e.expect(";")
	e.w.Return()
}

// ---- expressions ----

var opToArith = map[string]vmcode.Op{
	"+": vmcode.Add, "-": vmcode.Sub, "&": vmcode.And, "|": vmcode.Or,
	"<": vmcode.Lt, ">": vmcode.Gt, "=": vmcode.Eq,
}

func (e *Engine) compileExpression() {
	e.compileTerm()
	for {
		t := e.peek()
		op, ok := opToArith[t.Text]
		switch {
		case t.Is("*"):
			e.next()
			e.compileTerm()
			e.w.Call("Math.multiply", 2)
		case t.Is("/"):
			e.next()
			e.compileTerm()
			e.w.Call("Math.divide", 2)
		case ok:
			e.next()
			e.compileTerm()
			e.w.Arithmetic(op)
		default:
			return
		}
	}
}

func (e *Engine) compileTerm() {
	t := e.next()
	switch {
	case t.Kind == token.IntConst:
		e.w.Push(vmcode.Constant, t.Int())

	case t.Kind == token.StringConst:
		e.w.StringConstant(t.Text)

	case t.Is("true"):
		e.w.Push(vmcode.Constant, 0)
		e.w.Arithmetic(vmcode.Not)
	case t.IsAny("false", "null"):
		e.w.Push(vmcode.Constant, 0)
	case t.Is("this"):
		e.w.Push(vmcode.Pointer, 0)

	case t.IsAny("-", "~"):
		e.compileTerm()
		if t.Text == "-" {
			e.w.Arithmetic(vmcode.Neg)
		} else {
			e.w.Arithmetic(vmcode.Not)
		}

	case t.Is("("):
		e.compileExpression()
		e.expect(")")

	case t.Kind == token.Identifier:
		e.compileIdentifierTerm(t)

	default:
		panic(diag.Unexpected(t.Loc, []string{"term"}, t.Text))
	}
}

// compileIdentifierTerm resolves the four shapes an identifier-led term can
// take, disambiguated by the single next token, which is only ever peeked
// (never consumed) before the dispatch below commits to a branch.
func (e *Engine) compileIdentifierTerm(name token.Token) {
	switch {
	case e.peek().Is("["):
		sym := e.resolve(name.Text, name.Loc)
		e.next()
		e.compileExpression()
		e.expect("]")
		e.w.Push(segmentFor(sym.Kind), sym.Index)
		e.w.Arithmetic(vmcode.Add)
		e.w.Pop(vmcode.Pointer, 1)
		e.w.Push(vmcode.That, 0)

	case e.peek().Is("(") || e.peek().Is("."):
		e.compileSubroutineCall(name)

	default:
		sym := e.resolve(name.Text, name.Loc)
		e.w.Push(segmentFor(sym.Kind), sym.Index)
	}
}

// compileSubroutineCall compiles a call whose first identifier is firstTok,
// already consumed. It handles all three call shapes: method-on-this,
// qualified instance method, and qualified static/function call.
func (e *Engine) compileSubroutineCall(firstTok token.Token) {
	var target string
	nargs := 0

	if e.peek().Is("(") {
		e.w.Push(vmcode.Pointer, 0)
		nargs = 1
		target = e.class + "." + firstTok.Text
	} else {
		e.expect(".")
		subName := e.expectIdentifier().Text
		if sym, err := e.syms.Resolve(firstTok.Text); err == nil {
			e.w.Push(segmentFor(sym.Kind), sym.Index)
			nargs = 1
			target = sym.Type + "." + subName
		} else {
			target = firstTok.Text + "." + subName
		}
	}

	e.expect("(")
	nargs += e.compileExpressionList()
	e.expect(")")
	e.w.Call(target, nargs)
}

func (e *Engine) compileExpressionList() int {
	if e.peek().Is(")") {
		return 0
	}
	n := 1
	e.compileExpression()
	for e.peek().Is(",") {
		e.next()
		e.compileExpression()
		n++
	}
	return n
}
