// Package interpreter is the front door of the pipeline: it feeds a source
// text through the lexer, the parser, the compiler and the VM, and hands
// back the final value. Output streams are captured once per interpreter
// and shared by the whole execution.
package interpreter

import (
	"io"
	"os"

	"karamel/ast"
	"karamel/compiler"
	"karamel/lexer"
	"karamel/modules"
	"karamel/object"
	"karamel/parser"
	"karamel/vm"
)

type Interpreter struct {
	stdout   io.Writer
	stderr   io.Writer
	registry *modules.Registry
}

// Make creates an interpreter writing to the process streams.
func Make() *Interpreter {
	return MakeWithStreams(os.Stdout, os.Stderr)
}

// MakeWithStreams creates an interpreter with captured output streams; the
// host decides where builtin writes land.
func MakeWithStreams(stdout io.Writer, stderr io.Writer) *Interpreter {
	return &Interpreter{
		stdout:   stdout,
		stderr:   stderr,
		registry: modules.DefaultRegistry(),
	}
}

// ParseSource runs the front half of the pipeline only.
func (interpreter *Interpreter) ParseSource(source string) (ast.Block, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return ast.Block{}, err
	}
	return parser.Make(tokens).Parse()
}

// CompileSource runs everything but the VM, for tooling that wants the
// compiled program.
func (interpreter *Interpreter) CompileSource(source string) (*compiler.Program, error) {
	block, err := interpreter.ParseSource(source)
	if err != nil {
		return nil, err
	}
	return compiler.New().Compile(block)
}

// Interpret executes a source text and returns the final value together
// with the heap it lives on. Errors from any stage abort the run and
// surface unchanged.
func (interpreter *Interpreter) Interpret(source string) (object.VmObject, *object.Heap, error) {
	program, err := interpreter.CompileSource(source)
	if err != nil {
		return object.EmptyObject, nil, err
	}

	machine := vm.New(interpreter.registry, interpreter.stdout, interpreter.stderr)
	result, err := machine.Run(program)
	if err != nil {
		return object.EmptyObject, program.Heap, err
	}
	return result, program.Heap, nil
}
