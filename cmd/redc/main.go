// Command redc is the command-line driver for the redvm compiler: it
// wires the lexer, parser, semantic analyzer and code generator together
// behind a handful of github.com/google/subcommands subcommands.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&buildCmd{}, "")
	subcommands.Register(&tokensCmd{}, "")
	subcommands.Register(&astCmd{}, "")
	subcommands.Register(&replCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
