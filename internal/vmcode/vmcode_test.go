package vmcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterEmitsMnemonics(t *testing.T) {
	buf := &Buffer{}
	w := Writer{Buf: buf}

	w.Push(Constant, 7)
	w.Pop(Local, 1)
	w.Arithmetic(Add)
	w.Label("FOO")
	w.Goto("FOO")
	w.IfGoto("FOO")
	w.Call("Foo.bar", 2)
	w.Return()

	var out strings.Builder
	_, err := buf.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, "push constant 7\n"+
		"pop local 1\n"+
		"add\n"+
		"label FOO\n"+
		"goto FOO\n"+
		"if-goto FOO\n"+
		"call Foo.bar 2\n"+
		"return\n", out.String())
}

func TestFunctionPlaceholderPatch(t *testing.T) {
	buf := &Buffer{}
	w := Writer{Buf: buf}

	idx := w.Function("Foo.main")
	require.Len(t, buf.Unpatched(), 1, "placeholder must be outstanding before patch")

	w.Push(Constant, 0)
	w.Return()
	w.PatchLocals(idx, "Foo.main", 2)

	require.Empty(t, buf.Unpatched(), "patch must clear the outstanding placeholder")

	var out strings.Builder
	_, err := buf.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, "function Foo.main 2\npush constant 0\nreturn\n", out.String())
}

func TestStringConstant(t *testing.T) {
	buf := &Buffer{}
	w := Writer{Buf: buf}
	w.StringConstant("Hi")

	var out strings.Builder
	_, err := buf.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, "push constant 2\n"+
		"call String.new 1\n"+
		"push constant 72\n"+
		"call String.appendChar 2\n"+
		"push constant 105\n"+
		"call String.appendChar 2\n", out.String())
}

func TestPatchOutOfRangePanics(t *testing.T) {
	buf := &Buffer{}
	require.Panics(t, func() { buf.Patch(3, "x") })
}
