package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"karamel/interpreter"
)

// dumpCmd compiles a source file and emits the disassembled program.
type dumpCmd struct {
	output string
}

func (*dumpCmd) Name() string     { return "dump" }
func (*dumpCmd) Synopsis() string { return "Compile a source file and dump the bytecode" }
func (*dumpCmd) Usage() string {
	return `dump [-o <file>] <file>:
  Compile Karamel code and print the disassembled bytecode.
`
}

func (d *dumpCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.output, "o", "", "Write the disassembly to a file instead of stdout")
}

func (d *dumpCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	program, err := interpreter.Make().CompileSource(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	disassembly := program.Disassemble()
	if d.output == "" {
		fmt.Print(disassembly)
		return subcommands.ExitSuccess
	}

	if err := os.WriteFile(d.output, []byte(disassembly), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write disassembly: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
