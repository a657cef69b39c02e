package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/moss-lang/moss/bytecode"
	"github.com/moss-lang/moss/opcodes"
	"github.com/moss-lang/moss/vm"
)

var replCommand = &cli.Command{
	Name:      "repl",
	Usage:     "step through a .msb file one instruction at a time",
	ArgsUsage: "<file.msb>",
	Action:    replAction,
}

// replAction implements SPEC_FULL.md §A's REPL mode: compiling source at
// the prompt is out of scope (lexing/parsing is a non-goal per spec.md
// §1), so the line editor instead steps an already-compiled bytecode
// stream one instruction at a time, printing each disassembled
// instruction before it runs — useful for inspecting how a .msb file
// actually executes. Register values are not printed.
func replAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("repl: missing <file.msb> argument")
	}
	bc, err := loadBytecode(path)
	if err != nil {
		return err
	}

	rt := vm.NewRuntime(cmd.Bool("stress-test-gc"))
	if cmd.Bool("no-load-libms") {
		rt.DisableLibms()
	}
	in := vm.NewInterpreter(rt, bc, true)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "moss> ",
		HistoryFile: "",
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}
	defer rl.Close()

	pc := opcodes.Address(0)
	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return fmt.Errorf("repl: %w", err)
		}
		switch line {
		case "", "n", "next", "step":
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintln(os.Stdout, "commands: [enter]/n/next/step, q/quit")
			continue
		}

		if int(pc) >= bc.Len() {
			fmt.Fprintln(os.Stdout, "<end of chunk>")
			continue
		}
		next, done, err := stepOne(in, bc, pc)
		if err != nil {
			if exc, ok := vm.UnwrapRaise(err); ok {
				fmt.Fprintln(os.Stderr, vm.FormatException(in, exc))
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}
		pc = next
		if done {
			fmt.Fprintln(os.Stdout, "<end of chunk>")
		}
	}
}

// stepOne prints the instruction at pc and executes one step with
// Interpreter.RunOne, then reports the interpreter's new pc and whether it
// has run past the end of the bytecode.
func stepOne(in *vm.Interpreter, bc *bytecode.Bytecode, pc opcodes.Address) (opcodes.Address, bool, error) {
	instr := bc.At(pc)
	fmt.Fprintf(os.Stdout, "%6d  %s\n", pc, disasmLine(instr))
	if err := in.RunOne(); err != nil {
		return pc, false, err
	}
	next := in.PC()
	return next, int(next) >= bc.Len(), nil
}
