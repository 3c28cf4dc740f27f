// Package fileinput implements sequential rune reading with source-location
// tracking, used by the tokenizer to stamp every token with the file:line it
// came from for diagnostics.
package fileinput

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nand2tetris/jackc/internal/runeio"
)

// Location names a line in an input file.
type Location struct {
	Name string
	Line int
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }

// line combines a Location along with a buffer accumulating its text, purely
// for diagnostic rendering (e.g. "show me the offending line").
type line struct {
	Location
	bytes.Buffer
}

func (l line) String() string { return fmt.Sprintf("%v %q", l.Location, l.Buffer.String()) }

// Input implements sequential rune reading over a single named source,
// tracking the current line so that every rune read can be attributed to a
// Location for error messages.
type Input struct {
	rr   io.RuneReader
	scan line
}

// New returns an Input reading r, attributing runes to name.
func New(name string, r io.Reader) *Input {
	in := &Input{rr: runeio.NewReader(r)}
	in.scan.Name = name
	in.scan.Line = 1
	return in
}

// ReadRune reads one rune from the underlying stream, appending it into the
// current line buffer and advancing the tracked line counter on line feed.
func (in *Input) ReadRune() (rune, int, error) {
	r, n, err := in.rr.ReadRune()
	if err != nil {
		return r, n, err
	}
	if r == '\n' {
		in.scan.Reset()
		in.scan.Line++
	} else {
		in.scan.WriteRune(r)
	}
	return r, n, nil
}

// Location returns the location of the rune most recently returned by
// ReadRune (or line 1 if nothing has been read yet).
func (in *Input) Location() Location {
	return in.scan.Location
}

// Name returns the input's source name (e.g. a file path).
func (in *Input) Name() string { return in.scan.Name }
