// Package lexer implements the Jack tokenizer: a longest-match regular
// grammar over a comment-stripped source buffer, in the spirit of the
// reference tokenizer's regexp.Longest()-driven scanner, but tracking
// source locations for diagnostics along the way.
package lexer

import (
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/nand2tetris/jackc/internal/diag"
	"github.com/nand2tetris/jackc/internal/fileinput"
	"github.com/nand2tetris/jackc/internal/token"
)

// lexClass pairs a token kind with the regular expression that recognizes
// it. Classes are tried in this order; on a tie (same start, same length)
// the earlier class in the list wins, which is what gives keywords
// priority over the generic identifier class without needing a \b anchor —
// "classroom" still tokenizes as one Identifier because its full match is
// strictly longer than the competing "class" Keyword match.
type lexClass struct {
	kind token.Kind
	re   *regexp.Regexp
}

var classes = []lexClass{
	{token.Keyword, regexp.MustCompile(`^(class|constructor|function|method|field|static|var|int|char|boolean|void|true|false|null|this|let|do|if|else|while|return)`)},
	{token.Identifier, regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)},
	{token.Symbol, regexp.MustCompile(`^[{}\[\]().,;+\-*/&|<>=~]`)},
	{token.StringConst, regexp.MustCompile(`^"[^"\n]*"`)},
	{token.IntConst, regexp.MustCompile(`^[0-9]+`)},
}

func init() {
	for _, c := range classes {
		c.re.Longest()
	}
}

// Lexer streams Tokens from a source buffer. It reads its whole input once,
// up front (§5: the only I/O besides the final batch write), stripping
// comments as it goes, then serves tokens out of the resulting in-memory
// buffer via longest-match regex racing.
type Lexer struct {
	name     string
	filtered string
	lineAt   []int
	pos      int
}

// New reads all of r, attributing it to name for diagnostics, and returns a
// Lexer ready to stream its tokens.
func New(name string, r io.Reader) (*Lexer, error) {
	filtered, lineAt, err := filterComments(name, r)
	if err != nil {
		return nil, err
	}
	return &Lexer{name: name, filtered: filtered, lineAt: lineAt}, nil
}

// Next returns the next token, or io.EOF once the source is exhausted.
func (lx *Lexer) Next() (token.Token, error) {
	lx.skipSpace()
	if lx.pos >= len(lx.filtered) {
		return token.Token{}, io.EOF
	}

	loc := lx.locAt(lx.pos)
	rest := lx.filtered[lx.pos:]

	bestLen := -1
	var bestKind token.Kind
	for _, c := range classes {
		if m := c.re.FindStringIndex(rest); m != nil && m[1] > bestLen {
			bestLen = m[1]
			bestKind = c.kind
		}
	}
	if bestLen < 0 {
		if rest[0] == '"' {
			return token.Token{}, diag.New(diag.LexicalError, loc, "unterminated string constant")
		}
		return token.Token{}, diag.New(diag.LexicalError, loc, "unexpected character %q", rest[0])
	}

	text := rest[:bestLen]
	if bestKind == token.StringConst {
		text = text[1 : len(text)-1]
	}
	lx.pos += bestLen
	return token.Token{Kind: bestKind, Text: text, Loc: loc}, nil
}

func (lx *Lexer) locAt(pos int) fileinput.Location {
	return fileinput.Location{Name: lx.name, Line: lx.lineAt[pos]}
}

func (lx *Lexer) skipSpace() {
	for lx.pos < len(lx.filtered) && unicode.IsSpace(rune(lx.filtered[lx.pos])) {
		lx.pos++
	}
}

// filterComments reads all of r and returns a copy with every // and /* */
// comment (including multi-line block comments) removed, along with a
// parallel slice mapping each surviving byte back to its original source
// line, so tokens scanned from the filtered buffer still get accurate
// diagnostics.
func filterComments(name string, r io.Reader) (string, []int, error) {
	in := fileinput.New(name, r)

	var out strings.Builder
	var lineAt []int

	var pending rune
	havePending := false
	read := func() (rune, error) {
		if havePending {
			havePending = false
			return pending, nil
		}
		c, _, err := in.ReadRune()
		return c, err
	}
	unread := func(c rune) { pending, havePending = c, true }

	for {
		ch, err := read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}

		if ch == '/' {
			nx, err := read()
			switch {
			case err == io.EOF:
				out.WriteByte('/')
				lineAt = append(lineAt, in.Location().Line)
				continue
			case err != nil:
				return "", nil, err
			case nx == '/':
				for {
					c, err := read()
					if err == io.EOF || c == '\n' {
						break
					}
					if err != nil {
						return "", nil, err
					}
				}
				continue
			case nx == '*':
				var prev rune
				for {
					c, err := read()
					if err == io.EOF {
						return "", nil, diag.New(diag.LexicalError, in.Location(), "unterminated block comment")
					}
					if err != nil {
						return "", nil, err
					}
					if prev == '*' && c == '/' {
						break
					}
					prev = c
				}
				continue
			default:
				unread(nx)
			}
		}

		out.WriteByte(byte(ch))
		lineAt = append(lineAt, in.Location().Line)
	}

	return out.String(), lineAt, nil
}
