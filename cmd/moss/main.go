// Command moss is the peripheral CLI/REPL front end for the Moss bytecode
// core (spec.md §1 Non-goals: no lexer/parser lives here, only a runner
// for already-compiled .msb files), grounded on wudi-hey's cmd/hey main.go
// urfave/cli/v3 command-tree shape.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	_ "github.com/moss-lang/moss/libms"
)

func main() {
	app := &cli.Command{
		Name:  "moss",
		Usage: "Moss bytecode interpreter",
		Commands: []*cli.Command{
			runCommand,
			disasmCommand,
			replCommand,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stress-test-gc",
				Usage: "force a GC collection after every instruction (SPEC_FULL.md §A)",
			},
			&cli.BoolFlag{
				Name:  "no-load-libms",
				Usage: "run without the standard library module loaded",
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "moss: %v\n", err)
		os.Exit(1)
	}
}
