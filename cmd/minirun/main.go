package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"

	"minic/pkg/interp"
	"minic/pkg/ir"
)

func main() {
	app := &cli.App{
		Name:      "minirun",
		Usage:     "execute a persisted IR file and print its integer result",
		ArgsUsage: "<file.ir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "entry",
				Value: "main",
				Usage: "entry function `NAME`",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Value: interp.DefaultMaxDepth,
				Usage: "maximum call nesting before the run is aborted",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		tracerr.PrintSourceColor(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one IR file, got %d arguments", c.NArg())
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return tracerr.Wrap(err)
	}

	// A malformed tree aborts the run before any evaluation starts.
	prog, err := ir.Decode(data)
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("%s: %w", path, err))
	}

	in, err := interp.New(prog)
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("%s: %w", path, err))
	}
	in.MaxDepth = c.Int("max-depth")

	result, err := in.Run(c.String("entry"))
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("%s: %w", path, err))
	}
	fmt.Println(result)
	return nil
}
