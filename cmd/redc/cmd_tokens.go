package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/redlang/redc/lexer"
)

type tokensCmd struct{}

func (*tokensCmd) Name() string     { return "tokens" }
func (*tokensCmd) Synopsis() string { return "scan a source file and print its token stream" }
func (*tokensCmd) Usage() string {
	return `tokens <file.red>:
  Run only the lexer, printing one token per line.
`
}
func (*tokensCmd) SetFlags(*flag.FlagSet) {}

func (*tokensCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	diagColor.Println("----- tokens -----")
	lx := lexer.New(src)
	for {
		tok, ok, err := lx.Next()
		if err != nil {
			reportf("lex", err)
			return subcommands.ExitFailure
		}
		if !ok {
			break
		}
		fmt.Printf("%s\t%s\n", tok.Loc, tok)
	}
	return subcommands.ExitSuccess
}
