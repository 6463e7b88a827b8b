package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/redlang/redc/ast"
)

type astCmd struct{}

func (*astCmd) Name() string     { return "ast" }
func (*astCmd) Synopsis() string { return "parse a source file and dump its AST as JSON" }
func (*astCmd) Usage() string {
	return `ast <file.red>:
  Run the lexer and parser, printing the resulting AST as JSON.
`
}
func (*astCmd) SetFlags(*flag.FlagSet) {}

func (*astCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 no source file given")
		return subcommands.ExitUsageError
	}

	src, err := readSourceFile(args[0])
	if err != nil {
		reportf("io", err)
		return subcommands.ExitFailure
	}

	prog, err := parseSource(src)
	if err != nil {
		reportf("parse", err)
		return subcommands.ExitFailure
	}

	out, err := ast.ToJSON(prog)
	if err != nil {
		reportf("io", err)
		return subcommands.ExitFailure
	}

	diagColor.Println("----- AST -----")
	fmt.Println(string(out))
	return subcommands.ExitSuccess
}
