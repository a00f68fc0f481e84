package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"karamel/interpreter"
	"karamel/object"
)

// replCmd implements the interactive REPL.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive REPL session" }
func (*replCmd) Usage() string {
	return `repl:
  Start interactive REPL session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to Karamel!")
	fmt.Println("Type 'exit' to leave.")

	line, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
		return subcommands.ExitFailure
	}
	defer line.Close()

	interp := interpreter.Make()

	for {
		input, err := line.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
			return subcommands.ExitFailure
		}

		if input == "exit" {
			return subcommands.ExitSuccess
		}
		if input == "" {
			continue
		}

		result, heap, err := interp.Interpret(input)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if result != object.EmptyObject {
			fmt.Println(object.Format(heap, result))
		}
	}
}
