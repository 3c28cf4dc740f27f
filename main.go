package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nand2tetris/jackc/internal/compile"
	"github.com/nand2tetris/jackc/internal/diag"
	"github.com/nand2tetris/jackc/internal/flushio"
	"github.com/nand2tetris/jackc/internal/lexer"
	"github.com/nand2tetris/jackc/internal/logio"
	"github.com/nand2tetris/jackc/internal/panicerr"
)

var (
	errorKindStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	locationStyle  = lipgloss.NewStyle().Faint(true)
)

func main() {
	var (
		outDir  string
		verbose bool
		quiet   bool
	)
	flag.StringVar(&outDir, "o", "", "write .vm output into dir instead of alongside the source")
	flag.BoolVar(&verbose, "v", false, "tee emitted VM text through the logger at level VM")
	flag.BoolVar(&quiet, "q", false, "suppress per-file progress logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-o dir] [-v] [-q] <path>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	log := &logio.Logger{}
	log.SetOutput(os.Stderr)
	failed := false
	defer func() {
		if failed {
			os.Exit(1)
		}
		os.Exit(log.ExitCode())
	}()

	progress := func(string, ...interface{}) {}
	if !quiet {
		progress = log.Leveledf("INFO")
	}

	var tee flushio.WriteFlusher
	if verbose {
		vw := &logio.Writer{Logf: log.Leveledf("VM")}
		defer vw.Close()
		tee = flushio.NewWriteFlusher(vw)
	}

	files, err := collectFiles(flag.Arg(0))
	if err != nil {
		log.Errorf("%v", err)
		return
	}

	for _, path := range files {
		progress("compiling %s", path)
		if err := panicerr.Recover(path, func() error {
			return compileFile(path, outDir, tee)
		}); err != nil {
			failed = true
			log.Printf("", "%s", diagnosticLine(path, err))
		}
	}
}

// collectFiles resolves path to the list of .jack files to compile: itself,
// if path names a file, or every *.jack entry directly inside it (no
// recursion into subdirectories) if path names a directory.
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	matches, err := filepath.Glob(filepath.Join(path, "*.jack"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// compileFile tokenizes, parses, and emits VM code for one Jack source
// file, writing nothing to disk until the whole class compiles
// successfully. A non-nil tee additionally receives a copy of the emitted
// VM text (the -v flag routes it through the logger at level VM).
func compileFile(path, outDir string, tee flushio.WriteFlusher) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lx, err := lexer.New(path, f)
	if err != nil {
		return err
	}

	buf, err := compile.New(lx).Compile()
	if err != nil {
		return err
	}

	outPath := vmPath(path, outDir)
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	dest := flushio.NewWriteFlusher(out)
	if tee != nil {
		dest = flushio.WriteFlushers(dest, tee)
	}

	if _, err := buf.WriteTo(dest); err != nil {
		return err
	}
	return dest.Flush()
}

func vmPath(jackPath, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(jackPath), ".jack") + ".vm"
	if outDir == "" {
		return filepath.Join(filepath.Dir(jackPath), base)
	}
	return filepath.Join(outDir, base)
}

// diagnosticLine renders err as "path:line: ERROR: kind: message" with
// lipgloss styling on the ERROR kind and the location prefix when standard
// error is a terminal; lipgloss degrades to plain text on its own
// otherwise.
func diagnosticLine(path string, err error) string {
	var de *diag.Error
	if derr, ok := err.(*diag.Error); ok {
		de = derr
	} else if panicerr.IsPanic(err) {
		return fmt.Sprintf("%s: %s", path, err)
	} else {
		return fmt.Sprintf("%s: %v", path, err)
	}
	loc := locationStyle.Render(de.Loc.String())
	kind := errorKindStyle.Render("ERROR: " + string(de.Kind))
	return fmt.Sprintf("%s: %s: %s", loc, kind, de.Message)
}
