package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"karamel/interpreter"
	"karamel/parser"
)

// runCmd executes a Karamel source file.
type runCmd struct {
	dumpAST bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute Karamel code from a source file" }
func (*runCmd) Usage() string {
	return `run [-dumpAST] <file>:
  Execute Karamel code.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.dumpAST, "dumpAST", false, "Print the AST as JSON before executing")
	f.BoolVar(&r.dumpAST, "da", false, "Shorthand for dumpAST.")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	interp := interpreter.Make()

	if r.dumpAST {
		block, err := interp.ParseSource(string(data))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		encoded, err := parser.PrintASTJSON(block)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Println(encoded)
	}

	if _, _, err := interp.Interpret(string(data)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
