package compile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nand2tetris/jackc/internal/lexer"
)

// compileSource tokenizes and compiles src, returning its VM text.
func compileSource(t *testing.T, src string) string {
	t.Helper()
	lx, err := lexer.New("t.jack", strings.NewReader(src))
	require.NoError(t, err)

	buf, err := New(lx).Compile()
	require.NoError(t, err, "source must compile cleanly")

	var out strings.Builder
	_, err = buf.WriteTo(&out)
	require.NoError(t, err)
	return out.String()
}

func compileSourceErr(t *testing.T, src string) error {
	t.Helper()
	lx, err := lexer.New("t.jack", strings.NewReader(src))
	require.NoError(t, err)
	_, err = New(lx).Compile()
	return err
}

func TestVoidMain(t *testing.T) {
	vm := compileSource(t, `class Foo { function void main() { return; } }`)
	require.Equal(t, "function Foo.main 0\npush constant 0\nreturn\n", vm)
}

func TestReturnIntLiteral(t *testing.T) {
	vm := compileSource(t, `class Foo { function int seven() { return 7; } }`)
	require.Equal(t, "function Foo.seven 0\npush constant 7\nreturn\n", vm)
}

func TestStaticVarRead(t *testing.T) {
	vm := compileSource(t, `class Foo { static int n; function int get() { return n; } }`)
	require.Equal(t, "function Foo.get 0\npush static 0\nreturn\n", vm)
}

func TestConstructorAllocatesAndBindsThis(t *testing.T) {
	vm := compileSource(t, `class Foo { field int x; constructor Foo new() { let x = 0; return this; } }`)
	require.Equal(t, "function Foo.new 0\n"+
		"push constant 1\n"+
		"call Memory.alloc 1\n"+
		"pop pointer 0\n"+
		"push constant 0\n"+
		"pop this 0\n"+
		"push pointer 0\n"+
		"return\n", vm)
}

func TestWhileLoopLabelsUniqueAndPaired(t *testing.T) {
	vm := compileSource(t, `class Foo {
		function void loop() {
			var int i;
			let i = 0;
			while (i < 3) {
				let i = i + 1;
			}
			return;
		}
	}`)
	require.Contains(t, vm, "function Foo.loop 1\n")
	require.Contains(t, vm, "not\n")
	require.Contains(t, vm, "lt\n")

	topIdx := strings.Index(vm, "label WHILE_TOP_")
	endIdx := strings.Index(vm, "label WHILE_END_")
	require.GreaterOrEqual(t, topIdx, 0)
	require.GreaterOrEqual(t, endIdx, 0)

	topLine := lineAt(vm, topIdx)
	endLine := lineAt(vm, endIdx)
	topSuffix := strings.TrimPrefix(topLine, "label WHILE_TOP_")
	endSuffix := strings.TrimPrefix(endLine, "label WHILE_END_")
	require.Equal(t, topSuffix, endSuffix, "top/end label suffixes within one while must match")

	require.Contains(t, vm, "if-goto WHILE_END_"+endSuffix+"\n")
	require.Contains(t, vm, "goto WHILE_TOP_"+topSuffix+"\n")
}

func lineAt(text string, idx int) string {
	end := strings.IndexByte(text[idx:], '\n')
	return text[idx : idx+end]
}

func TestAddOneArgument(t *testing.T) {
	vm := compileSource(t, `class Foo { function int addOne(int x) { return x + 1; } }`)
	require.Equal(t, "function Foo.addOne 0\n"+
		"push argument 0\n"+
		"push constant 1\n"+
		"add\n"+
		"return\n", vm)
}

func TestIfElseLabels(t *testing.T) {
	vm := compileSource(t, `class Foo {
		function int pick(boolean b) {
			if (b) {
				return 1;
			} else {
				return 2;
			}
		}
	}`)
	require.Contains(t, vm, "if-goto IF_ELSE_")
	require.Contains(t, vm, "goto IF_END_")
	require.Contains(t, vm, "label IF_ELSE_")
	require.Contains(t, vm, "label IF_END_")
}

func TestIfWithoutElseEmitsOnlyElseLabel(t *testing.T) {
	vm := compileSource(t, `class Foo {
		function void maybe(boolean b) {
			if (b) {
				do Foo.maybe(b);
			}
			return;
		}
	}`)
	require.Contains(t, vm, "label IF_ELSE_")
	require.NotContains(t, vm, "IF_END", "no else branch means no end label should be minted")
}

func TestDoDiscardsReturnValue(t *testing.T) {
	vm := compileSource(t, `class Foo {
		function void run() {
			do Foo.run();
			return;
		}
	}`)
	require.Contains(t, vm, "call Foo.run 0\npop temp 0\n")
}

func TestMethodCallDispatchViaLocalReceiver(t *testing.T) {
	vm := compileSource(t, `class Foo {
		field Bar b;
		function void run() {
			var Foo f;
			do f.go(1);
			return;
		}
	}`)
	require.NotContains(t, vm, "call f.go")
	require.Contains(t, vm, "call Foo.go 2", "method call on a resolved symbol must push the receiver as arg 0")
}

func TestStaticCallOnUnresolvedName(t *testing.T) {
	vm := compileSource(t, `class Foo {
		function void run() {
			do Math.max(1, 2);
			return;
		}
	}`)
	require.Contains(t, vm, "call Math.max 2")
}

func TestArrayAssignmentOrdering(t *testing.T) {
	vm := compileSource(t, `class Foo {
		function void run() {
			var Array a;
			let a[1] = 2;
			return;
		}
	}`)
	require.True(t, strings.Contains(vm, "push constant 1\npush local 0\nadd\npush constant 2\npop temp 0\npop pointer 1\npush temp 0\npop that 0\n"),
		"array-assign must emit the target address, then the RHS, then end with the temp/pointer dance in this exact order")
}

func TestArrayRead(t *testing.T) {
	vm := compileSource(t, `class Foo {
		function int run() {
			var Array a;
			return a[0];
		}
	}`)
	require.Contains(t, vm, "pop pointer 1\npush that 0\nreturn\n")
}

func TestTrueFalseThisConstants(t *testing.T) {
	vm := compileSource(t, `class Foo {
		method boolean run() {
			if (true) { return false; }
			return run();
		}
		method Foo other() {
			return this;
		}
	}`)
	require.Contains(t, vm, "push constant 0\nnot\n")
	require.Contains(t, vm, "push pointer 0\nreturn\n")
}

func TestStringConstantExpression(t *testing.T) {
	vm := compileSource(t, `class Foo { function void run() { do Output.printString("Hi"); return; } }`)
	require.Contains(t, vm, "call String.new 1")
	require.Contains(t, vm, "call String.appendChar 2")
}

func TestLeftToRightNoOperatorPrecedence(t *testing.T) {
	vm := compileSource(t, `class Foo { function int run() { return 2 + 3 * 4; } }`)
	// Strictly left to right: (2 + 3) * 4, never 2 + (3 * 4).
	require.Equal(t, "function Foo.run 0\n"+
		"push constant 2\n"+
		"push constant 3\n"+
		"add\n"+
		"push constant 4\n"+
		"call Math.multiply 2\n"+
		"return\n", vm)
}

func TestUndefinedSymbolIsDiagnosed(t *testing.T) {
	err := compileSourceErr(t, `class Foo { function void run() { return nope; } }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "UndefinedSymbol")
}

func TestDuplicateSymbolIsDiagnosed(t *testing.T) {
	err := compileSourceErr(t, `class Foo { field int x; field int x; function void run() { return; } }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "DuplicateSymbol")
}

func TestUnexpectedTokenIsDiagnosed(t *testing.T) {
	err := compileSourceErr(t, `class Foo { function void run( { return; } }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "UnexpectedToken")
}

func TestMultipleSymbolsInOneDeclaration(t *testing.T) {
	vm := compileSource(t, `class Foo { function int run() { var int a, b; let a = 1; let b = 2; return a + b; } }`)
	require.Contains(t, vm, "function Foo.run 2\n")
}
