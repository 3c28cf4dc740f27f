// Command gengolden regenerates the *.vm.golden fixtures the compiler's
// end-to-end tests assert against, by compiling every testdata/*.jack file
// and writing its VM output alongside it. Unlike jackc itself, fixture
// generation has no ordering invariant to preserve: every fixture is
// independent, so this tool fans the work out and bounds it with a
// deadline, the way the teacher's own fixture generator did.
package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"

	"github.com/nand2tetris/jackc/internal/compile"
	"github.com/nand2tetris/jackc/internal/lexer"
)

func main() {
	root := flag.String("root", "testdata", "root directory to walk for *.jack fixtures")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline for regeneration")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	paths, err := collectFixtures(*root)
	if err != nil {
		log.Fatalf("walk %s: %v", *root, err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return regenerate(path)
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalln(err)
	}
}

func collectFixtures(root string) ([]string, error) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".jack" {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// regenerate compiles one fixture and writes its golden VM output. If the
// fixture fails to tokenize or compile, it writes the error text to a
// .err.golden file instead; an existing .vm.golden file is left in place.
func regenerate(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	lx, err := lexer.New(path, src)
	if err != nil {
		return writeGoldenErr(path, err)
	}

	buf, err := compile.New(lx).Compile()
	if err != nil {
		return writeGoldenErr(path, err)
	}

	var out bytes.Buffer
	if _, err := buf.WriteTo(&out); err != nil {
		return err
	}

	goldenPath := path[:len(path)-len(".jack")] + ".vm.golden"
	return os.WriteFile(goldenPath, out.Bytes(), 0644)
}

// writeGoldenErr records a fixture that fails compilation by writing its
// error text instead of VM output. TestGoldenFixtures reads only
// .vm.golden files and requires every fixture to compile, so no test reads
// the .err.golden files written here.
func writeGoldenErr(path string, cerr error) error {
	goldenPath := path[:len(path)-len(".jack")] + ".err.golden"
	return os.WriteFile(goldenPath, []byte(cerr.Error()+"\n"), 0644)
}
