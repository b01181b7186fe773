package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sanity-io/litter"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"

	"minic/pkg/compiler"
	"minic/pkg/ir"
)

func main() {
	app := &cli.App{
		Name:      "minicc",
		Usage:     "compile a C-subset source file to its persisted IR",
		ArgsUsage: "<file.c>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "o",
				Usage: "write the IR to `FILE` (default: source name with .ir)",
			},
			&cli.BoolFlag{
				Name:  "dump-ast",
				Usage: "print the parsed AST to stdout",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "attempt to write the IR even when diagnostics were emitted",
			},
		},
		Action: compile,
	}
	if err := app.Run(os.Args); err != nil {
		tracerr.PrintSourceColor(err)
		os.Exit(1)
	}
}

func compile(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one source file, got %d arguments", c.NArg())
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return tracerr.Wrap(err)
	}
	src := string(data)

	// Lexing is all-or-nothing: an illegal character aborts the compile with
	// that single diagnostic.
	tokens, err := compiler.Lex(src)
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("%s: %w", path, err))
	}

	prog, diags := compiler.Parse(tokens, src)
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, d)
	}

	if c.Bool("dump-ast") {
		litter.Dump(prog)
	}

	if len(diags) > 0 && !c.Bool("force") {
		return fmt.Errorf("%s: %d parse error(s); not writing IR (use --force to try anyway)", path, len(diags))
	}

	encoded, err := ir.Encode(prog)
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("%s: %w", path, err))
	}

	out := c.String("o")
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".ir"
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return tracerr.Wrap(err)
	}

	if len(diags) > 0 {
		// The caller asked for best-effort output; still fail the exit status.
		return fmt.Errorf("%s: wrote %s despite %d parse error(s)", path, out, len(diags))
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
