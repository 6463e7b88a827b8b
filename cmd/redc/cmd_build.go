package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/redlang/redc/ast"
	"github.com/redlang/redc/codegen"
	"github.com/redlang/redc/semantic"
)

type buildCmd struct {
	out     string
	verbose bool
}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "compile a source file to a redvm command stream" }
func (*buildCmd) Usage() string {
	return `build <file.red> [-o out]:
  Run the full pipeline and write the datapack command stream.
`
}

func (cmd *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.out, "o", "", "output path (default: <file> with its extension replaced by .mcfunction)")
	f.BoolVar(&cmd.verbose, "v", false, "print per-stage timing to stderr")
}

func (cmd *buildCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 no source file given")
		return subcommands.ExitUsageError
	}
	srcPath := args[0]

	stage := func(name string, fn func() error) bool {
		start := time.Now()
		err := fn()
		if cmd.verbose {
			diagColor.Fprintf(os.Stderr, "%-9s %s\n", name, time.Since(start))
		}
		if err != nil {
			reportf(name, err)
			return false
		}
		return true
	}

	var src []byte
	if !stage("read", func() (err error) { src, err = readSourceFile(srcPath); return }) {
		return subcommands.ExitFailure
	}

	var prog *ast.Program
	if !stage("parse", func() (err error) { prog, err = parseSource(src); return }) {
		return subcommands.ExitFailure
	}

	var scopes []*semantic.FuncScope
	if !stage("semantic", func() (err error) { scopes, err = semantic.Analyze(prog); return }) {
		return subcommands.ExitFailure
	}

	outPath := cmd.out
	if outPath == "" {
		outPath = defaultOutPath(srcPath)
	}
	out, err := os.Create(outPath)
	if err != nil {
		reportf("io", err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	if !stage("codegen", func() error {
		return codegen.Generate(prog, scopes, codegen.NewFileSink(out))
	}) {
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

func defaultOutPath(srcPath string) string {
	if i := strings.LastIndexByte(srcPath, '.'); i >= 0 {
		return srcPath[:i] + ".mcfunction"
	}
	return srcPath + ".mcfunction"
}
