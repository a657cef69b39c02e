package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/moss-lang/moss/bytecode"
	"github.com/moss-lang/moss/vm"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "execute a compiled .msb bytecode file",
	ArgsUsage: "<file.msb>",
	Action:    runAction,
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("run: missing <file.msb> argument")
	}

	rt := vm.NewRuntime(cmd.Bool("stress-test-gc"))
	if cmd.Bool("no-load-libms") {
		rt.DisableLibms()
	}
	rt.ModuleLoader = siblingModuleLoader(filepath.Dir(path))

	bc, err := loadBytecode(path)
	if err != nil {
		return err
	}

	in := vm.NewInterpreter(rt, bc, true)
	if err := in.Run(); err != nil {
		if exc, ok := vm.UnwrapRaise(err); ok {
			fmt.Fprintln(os.Stderr, vm.FormatException(in, exc))
			fmt.Fprint(os.Stderr, rt.FormatTraceback())
			os.Exit(1)
		}
		return err
	}
	return nil
}

// loadBytecode reads and verifies a .msb file's header/checksum before
// handing the instruction stream to an Interpreter (SPEC_FULL.md §C).
func loadBytecode(path string) (*bytecode.Bytecode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	defer f.Close()
	bc, err := bytecode.Read(f)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return bc, nil
}

// siblingModuleLoader resolves IMPORT's module name to "<dir>/<name>.msb",
// the simplest ModuleLoader a bytecode-only front end can offer since
// resolving a module search path is otherwise a front-end (compiler)
// concern out of scope for this module (spec.md §1).
func siblingModuleLoader(dir string) func(rt *vm.Runtime, name string) (*vm.Value, error) {
	return func(rt *vm.Runtime, name string) (*vm.Value, error) {
		path := filepath.Join(dir, strings.ReplaceAll(name, ".", string(filepath.Separator))+".msb")
		bc, err := loadBytecode(path)
		if err != nil {
			return nil, err
		}
		return rt.LoadModule(name, bc)
	}
}
