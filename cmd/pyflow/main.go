package main

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/pyflow/analyzer"
	"github.com/viant/pyflow/parser"
	"github.com/viant/pyflow/transform"
)

const (
	modeInteractive = "0"
	modeTransform   = "1"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: %s <file> <mode>; mode 0 queries interactively, mode 1 transforms", args[0])
	}
	location, mode := args[1], args[2]
	file, err := parser.NewParser().ParseFile(context.Background(), location)
	if err != nil {
		return err
	}
	switch mode {
	case modeInteractive:
		analysis := analyzer.New(file.Functions)
		return analysis.RunInteractive(os.Stdin, os.Stdout)
	case modeTransform:
		return transform.Run(file, os.Stdout)
	}
	return fmt.Errorf("invalid mode %q: use 0 or 1", mode)
}
